package main

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/Mcfloy/launchpad/internal/audio"
	"github.com/Mcfloy/launchpad/internal/config"
	"github.com/Mcfloy/launchpad/internal/controller"
	"github.com/Mcfloy/launchpad/internal/led"
	"github.com/Mcfloy/launchpad/internal/midi"
)

// session holds every device opened for one run.
type session struct {
	log     *logrus.Entry
	midi    *midi.Manager
	primary *audio.Device
	monitor *audio.Device
	leds    *led.Feedback
	ctrl    *controller.Controller
	profile *midi.Profile

	inPort        string
	stopListening func()
	cleanups      []func()
}

// start opens the devices, switches the controller to programmer mode and
// loads the default bank. On error everything opened so far is closed.
func start(cfg *config.Config, log *logrus.Entry) (_ *session, err error) {
	s := &session{log: log, midi: midi.NewManager(log)}
	s.cleanups = append(s.cleanups, s.midi.Close)
	defer func() {
		if err != nil {
			s.close()
		}
	}()

	in, err := s.midi.GetInPort(cfg.MidiInDevice)
	if err != nil {
		return nil, err
	}
	s.inPort = in.String()

	s.profile, err = midi.SelectProfile(s.inPort)
	if err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{"port": s.inPort, "model": s.profile.Model}).Info("controller detected")

	send, err := s.midi.OpenSender(cfg.MidiOutDevice)
	if err != nil {
		return nil, err
	}

	if err := audio.Initialize(); err != nil {
		return nil, err
	}
	s.cleanups = append(s.cleanups, func() { _ = audio.Terminate() })

	s.primary, err = audio.Open(cfg.OutputDevice, cfg.OutputVolume, log)
	if err != nil {
		return nil, err
	}
	s.cleanups = append(s.cleanups, func() { _ = s.primary.Close() })

	deps := controller.Deps{
		Config:  cfg,
		Profile: s.profile,
		Primary: s.primary,
		Log:     log,
	}
	if cfg.VirtualDevice != "" {
		s.monitor, err = audio.Open(cfg.VirtualDevice, cfg.VirtualVolume, log)
		if err != nil {
			return nil, err
		}
		s.cleanups = append(s.cleanups, func() { _ = s.monitor.Close() })
		deps.Monitor = s.monitor
	} else {
		log.Warn("no virtual_device configured, samples play on the output device only")
	}

	if err := s.profile.ActivateProgrammerMode(send); err != nil {
		return nil, err
	}

	s.leds = led.New(send, log)
	deps.LEDs = s.leds
	s.ctrl = controller.New(deps)

	if err := s.ctrl.Load(); err != nil {
		return nil, err
	}

	s.stopListening, err = s.midi.StartListening(s.inPort, s.profile, s.ctrl.Press)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// run drives the controller until the session ends. A failed LED write ends
// the session with that error.
func (s *session) run(ctx context.Context) error {
	ledsDone := make(chan struct{})
	go func() {
		defer close(ledsDone)
		// the LED writer outlives ctx so the final clear reaches the device
		if err := s.leds.Run(context.Background()); err != nil {
			s.ctrl.Fail(err)
		}
	}()

	err := s.ctrl.Run(ctx)

	s.stopListening()
	s.stopListening = nil
	s.leds.Close()
	<-ledsDone
	return err
}

func (s *session) close() {
	if s.stopListening != nil {
		s.stopListening()
	}
	for i := len(s.cleanups) - 1; i >= 0; i-- {
		s.cleanups[i]()
	}
	s.cleanups = nil
}
