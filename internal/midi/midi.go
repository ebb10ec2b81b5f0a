package midi

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"github.com/sirupsen/logrus"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register rtmidi driver
)

var ErrPortNotFound = errors.New("midi port not found")

// ButtonCallback is called on the driver's thread for every button event.
// Implementations must not block.
type ButtonCallback func(note uint8, press bool)

// Manager handles MIDI port discovery, input listening and output senders
type Manager struct {
	mu  sync.RWMutex
	log *logrus.Entry
}

// NewManager creates a new MIDI manager
func NewManager(log *logrus.Entry) *Manager {
	return &Manager{log: log.WithField("component", "midi")}
}

// Close cleans up the MIDI driver
func (m *Manager) Close() {
	midi.CloseDriver()
}

// ListInPorts returns the names of available MIDI input ports
func (m *Manager) ListInPorts() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return inNames(midi.GetInPorts())
}

// ListOutPorts returns the names of available MIDI output ports
func (m *Manager) ListOutPorts() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return outNames(midi.GetOutPorts())
}

// GetInPort returns an input port by exact name, falling back to a
// case-insensitive match.
func (m *Manager) GetInPort(name string) (drivers.In, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ins := midi.GetInPorts()
	i := MatchName(inNames(ins), name)
	if i < 0 {
		return nil, portNotFound("input", name, inNames(ins))
	}
	return ins[i], nil
}

// GetOutPort returns an output port by exact name, falling back to a
// case-insensitive match.
func (m *Manager) GetOutPort(name string) (drivers.Out, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	outs := midi.GetOutPorts()
	i := MatchName(outNames(outs), name)
	if i < 0 {
		return nil, portNotFound("output", name, outNames(outs))
	}
	return outs[i], nil
}

// StartListening forwards every button event of the named input port to
// callback. The returned function stops listening.
func (m *Manager) StartListening(inPortName string, profile *Profile, callback ButtonCallback) (func(), error) {
	inPort, err := m.GetInPort(inPortName)
	if err != nil {
		return nil, err
	}

	stop, err := midi.ListenTo(inPort, func(msg midi.Message, timestampms int32) {
		if note, press, ok := profile.HandleMessage(msg); ok {
			callback(note, press)
		}
	})
	if err != nil {
		return nil, fault.Wrap(err, fmsg.With("failed to start listening"), ftag.With(ftag.Internal))
	}

	m.log.WithField("port", inPort.String()).Info("listening for button events")
	return stop, nil
}

// OpenSender returns the send function of the named output port.
func (m *Manager) OpenSender(outPortName string) (func(midi.Message) error, error) {
	outPort, err := m.GetOutPort(outPortName)
	if err != nil {
		return nil, err
	}

	send, err := midi.SendTo(outPort)
	if err != nil {
		return nil, fault.Wrap(err, fmsg.With("failed to create sender"), ftag.With(ftag.Internal))
	}

	m.log.WithField("port", outPort.String()).Info("opened output")
	return send, nil
}

// MatchName returns the index of want in names, preferring an exact match over
// a case-insensitive one, or -1.
func MatchName(names []string, want string) int {
	if want == "" {
		return -1
	}
	for i, n := range names {
		if n == want {
			return i
		}
	}
	for i, n := range names {
		if strings.EqualFold(n, want) {
			return i
		}
	}
	return -1
}

func inNames(ports []drivers.In) []string {
	names := make([]string, 0, len(ports))
	for _, p := range ports {
		names = append(names, p.String())
	}
	return names
}

func outNames(ports []drivers.Out) []string {
	names := make([]string, 0, len(ports))
	for _, p := range ports {
		names = append(names, p.String())
	}
	return names
}

func portNotFound(kind, name string, available []string) error {
	return fault.Wrap(ErrPortNotFound,
		fmsg.WithDesc(fmt.Sprintf("%s port %q", kind, name),
			fmt.Sprintf("No MIDI %s port named %q, have you plugged your device? Available: %s",
				kind, name, strings.Join(available, ", "))),
		ftag.With(ftag.NotFound))
}
