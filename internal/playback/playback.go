package playback

import (
	"sort"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Mcfloy/launchpad/internal/bank"
	"github.com/Mcfloy/launchpad/internal/config"
)

// Handle is one sounding clip on one output.
type Handle interface {
	// Stop silences the clip. Calling it more than once is allowed.
	Stop()
	// Done is closed when the clip has ended or was stopped.
	Done() <-chan struct{}
}

// Output starts clips on an audio device. A zero duration means the length
// of the clip is unknown.
type Output interface {
	Play(path string) (Handle, time.Duration, error)
}

// Indicator shows the play state of a sample button.
type Indicator interface {
	Playing(n bank.Note)
	Idle(n bank.Note)
}

// FinishedFunc is called from a watcher goroutine when a voice ends. The
// receiver is expected to hand it back to the owner of the Manager, which
// then calls Finished.
type FinishedFunc func(note uint8, voice uuid.UUID)

// voice is the pair of handles started by one trigger.
type voice struct {
	id      uuid.UUID
	primary Handle
	monitor Handle
}

func (v *voice) stop() {
	v.primary.Stop()
	if v.monitor != nil {
		v.monitor.Stop()
	}
}

// lit is a button whose LED shows playing.
type lit struct {
	note    bank.Note
	autoOff bool
}

// Manager tracks the clips sounding per button. It is owned by a single
// goroutine; only the finished watchers and auto-off timers run elsewhere and
// they never touch its state.
type Manager struct {
	primary  Output
	monitor  Output
	leds     Indicator
	policy   config.RetriggerPolicy
	finished FinishedFunc
	log      *logrus.Entry

	voices map[uint8][]*voice
	lit    map[uint8]lit
	timers *Scheduler
}

// New creates a manager playing on primary and, when not nil, on monitor.
func New(primary, monitor Output, leds Indicator, policy config.RetriggerPolicy, finished FinishedFunc, log *logrus.Entry) *Manager {
	if policy == "" {
		policy = config.RetriggerOverlap
	}
	return &Manager{
		primary:  primary,
		monitor:  monitor,
		leds:     leds,
		policy:   policy,
		finished: finished,
		log:      log.WithField("component", "playback"),
		voices:   make(map[uint8][]*voice),
		lit:      make(map[uint8]lit),
		timers:   NewScheduler(),
	}
}

// Trigger starts n on both outputs and lights its button. When hold is off
// and the clip length is known, the button goes idle again after that
// length; playback itself is left to finish on its own.
func (m *Manager) Trigger(n bank.Note, holdEnabled bool) (bool, error) {
	if m.policy == config.RetriggerRestart {
		m.stopVoices(n.ID)
	}

	v, length, err := m.start(n.Path)
	if err != nil {
		if len(m.voices[n.ID]) == 0 {
			m.dim(n.ID)
		}
		return false, err
	}

	if m.policy == config.RetriggerLayer {
		m.voices[n.ID] = append(m.voices[n.ID], v)
	} else {
		// overlap keeps only the newest pair; an older one sounds on untracked
		m.voices[n.ID] = []*voice{v}
	}
	go m.watch(n.ID, v)

	m.timers.Cancel(n.ID)
	autoOff := !holdEnabled && length > 0
	m.lit[n.ID] = lit{note: n, autoOff: autoOff}
	m.leds.Playing(n)
	if autoOff {
		m.timers.Schedule(n.ID, length, func() { m.leds.Idle(n) })
	}

	m.log.WithFields(logrus.Fields{
		"note":   n.ID,
		"path":   n.Path,
		"length": length,
		"voice":  v.id,
	}).Debug("triggered")
	return true, nil
}

func (m *Manager) start(path string) (*voice, time.Duration, error) {
	primary, length, err := m.primary.Play(path)
	if err != nil {
		return nil, 0, fault.Wrap(err, fmsg.With("play on primary output"))
	}
	v := &voice{id: uuid.New(), primary: primary}

	if m.monitor != nil {
		monitor, _, err := m.monitor.Play(path)
		if err != nil {
			primary.Stop()
			return nil, 0, fault.Wrap(err, fmsg.With("play on monitor output"))
		}
		v.monitor = monitor
	}
	return v, length, nil
}

func (m *Manager) watch(note uint8, v *voice) {
	<-v.primary.Done()
	if m.finished != nil {
		m.finished(note, v.id)
	}
}

// Release stops every tracked clip of a button and reports whether any was
// playing.
func (m *Manager) Release(id uint8) bool {
	stopped := m.stopVoices(id)
	m.dim(id)
	return stopped
}

// StopAll stops every tracked clip and returns the buttons to idle.
func (m *Manager) StopAll() {
	for id := range m.voices {
		m.stopVoices(id)
	}
	for id := range m.lit {
		m.dim(id)
	}
	m.timers.CancelAll()
}

// Finished drops a voice that ended by itself. Unknown voices, those
// replaced or already stopped, are ignored.
func (m *Manager) Finished(id uint8, voiceID uuid.UUID) {
	vs := m.voices[id]
	for i, v := range vs {
		if v.id != voiceID {
			continue
		}
		if v.monitor != nil {
			v.monitor.Stop()
		}
		vs = append(vs[:i], vs[i+1:]...)
		if len(vs) == 0 {
			delete(m.voices, id)
			m.dim(id)
		} else {
			m.voices[id] = vs
		}
		return
	}
}

// ResetIndicators forgets every lit button and pending auto-off. It is
// called after the grid was redrawn for another page or bank, so late
// completions do not dim buttons that now mean something else.
func (m *Manager) ResetIndicators() {
	m.timers.CancelAll()
	clear(m.lit)
}

// Playing reports whether a button has a tracked clip.
func (m *Manager) Playing(id uint8) bool {
	_, ok := m.voices[id]
	return ok
}

// Active returns the buttons with tracked clips in ascending order.
func (m *Manager) Active() []uint8 {
	ids := make([]uint8, 0, len(m.voices))
	for id := range m.voices {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (m *Manager) stopVoices(id uint8) bool {
	vs, ok := m.voices[id]
	if !ok {
		return false
	}
	for _, v := range vs {
		v.stop()
	}
	delete(m.voices, id)
	return true
}

// dim returns a lit button to idle unless its auto-off already did.
func (m *Manager) dim(id uint8) {
	l, ok := m.lit[id]
	if !ok {
		return
	}
	delete(m.lit, id)
	if l.autoOff && !m.timers.Cancel(id) {
		return
	}
	m.leds.Idle(l.note)
}
