package audio

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"github.com/faiface/beep"
	"github.com/gordonklaus/portaudio"
	"github.com/sirupsen/logrus"

	"github.com/Mcfloy/launchpad/internal/midi"
	"github.com/Mcfloy/launchpad/internal/playback"
)

var ErrDeviceNotFound = errors.New("audio device not found")

// DeviceInfo describes an output-capable audio device.
type DeviceInfo struct {
	Name       string
	HostAPI    string
	Channels   int
	SampleRate float64
	Default    bool
}

// Initialize must be called once before any other function of the package.
func Initialize() error {
	if err := portaudio.Initialize(); err != nil {
		return fault.Wrap(err, fmsg.WithDesc("initialize portaudio", "Audio system is unavailable."), ftag.With(ftag.Internal))
	}
	return nil
}

// Terminate releases the audio system.
func Terminate() error {
	return portaudio.Terminate()
}

// ListDevices returns every device with at least one output channel.
func ListDevices() ([]DeviceInfo, error) {
	devices, err := outputDevices()
	if err != nil {
		return nil, err
	}
	def, _ := portaudio.DefaultOutputDevice()

	infos := make([]DeviceInfo, 0, len(devices))
	for _, d := range devices {
		info := DeviceInfo{
			Name:       d.Name,
			Channels:   d.MaxOutputChannels,
			SampleRate: d.DefaultSampleRate,
			Default:    def != nil && def.Name == d.Name,
		}
		if d.HostApi != nil {
			info.HostAPI = d.HostApi.Name
		}
		infos = append(infos, info)
	}
	return infos, nil
}

func outputDevices() ([]*portaudio.DeviceInfo, error) {
	all, err := portaudio.Devices()
	if err != nil {
		return nil, fault.Wrap(err, fmsg.With("list audio devices"), ftag.With(ftag.Internal))
	}
	out := make([]*portaudio.DeviceInfo, 0, len(all))
	for _, d := range all {
		if d.MaxOutputChannels > 0 {
			out = append(out, d)
		}
	}
	return out, nil
}

// Device plays clips on one audio output. It implements playback.Output.
type Device struct {
	name     string
	channels int
	stream   *portaudio.Stream
	mixer    *mixer
	buf      [][2]float64
	log      *logrus.Entry
}

var _ playback.Output = (*Device)(nil)

// Open starts a stream on the output device called name (exact match first,
// then case-insensitive). volume scales every clip, 1 is unchanged.
func Open(name string, volume float64, log *logrus.Entry) (*Device, error) {
	devices, err := outputDevices()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(devices))
	for i, d := range devices {
		names[i] = d.Name
	}
	i := midi.MatchName(names, name)
	if i < 0 {
		return nil, fault.Wrap(ErrDeviceNotFound,
			fmsg.WithDesc(fmt.Sprintf("audio device %q", name),
				fmt.Sprintf("No audio output named %q. Available: %s", name, strings.Join(names, ", "))),
			ftag.With(ftag.NotFound))
	}
	info := devices[i]

	params := portaudio.LowLatencyParameters(nil, info)
	channels := 2
	if info.MaxOutputChannels < channels {
		channels = info.MaxOutputChannels
	}
	params.Output.Channels = channels

	d := &Device{
		name:     info.Name,
		channels: channels,
		mixer:    newMixer(beep.SampleRate(int(params.SampleRate)), volume),
		log: log.WithFields(logrus.Fields{
			"component": "audio",
			"device":    info.Name,
		}),
	}

	stream, err := portaudio.OpenStream(params, d.process)
	if err != nil {
		return nil, fault.Wrap(err,
			fmsg.WithDesc("open audio stream", fmt.Sprintf("Cannot open audio output %q.", info.Name)),
			ftag.With(ftag.Internal))
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, fault.Wrap(err,
			fmsg.WithDesc("start audio stream", fmt.Sprintf("Cannot start audio output %q.", info.Name)),
			ftag.With(ftag.Internal))
	}
	d.stream = stream

	d.log.WithFields(logrus.Fields{
		"channels":    channels,
		"sample_rate": params.SampleRate,
		"volume":      volume,
	}).Info("audio output opened")
	return d, nil
}

// Name returns the matched device name.
func (d *Device) Name() string { return d.name }

// Play decodes path and adds it to the mix.
func (d *Device) Play(path string) (playback.Handle, time.Duration, error) {
	s, format, err := Decode(path)
	if err != nil {
		return nil, 0, err
	}
	length := Length(s, format)
	return d.mixer.play(s, format), length, nil
}

// Close stops the stream. Clips still playing are cut.
func (d *Device) Close() error {
	if err := d.stream.Stop(); err != nil {
		d.stream.Close()
		return fault.Wrap(err, fmsg.With("stop audio stream"))
	}
	return d.stream.Close()
}

// process is the portaudio callback writing interleaved frames.
func (d *Device) process(out []float32) {
	frames := len(out) / d.channels
	if cap(d.buf) < frames {
		d.buf = make([][2]float64, frames)
	}
	buf := d.buf[:frames]
	d.mixer.fill(buf)

	for i, frame := range buf {
		if d.channels == 1 {
			out[i] = float32((frame[0] + frame[1]) / 2)
			continue
		}
		out[i*2] = float32(frame[0])
		out[i*2+1] = float32(frame[1])
	}
}
