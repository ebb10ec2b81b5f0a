package audio

import (
	"math"
	"sync"

	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
)

// mixer sums every voice of one device. It is fed from the device callback
// and from Play/Stop on other goroutines, so all access goes through mu.
type mixer struct {
	mu     sync.Mutex
	rate   beep.SampleRate
	volume float64
	voices beep.Mixer
}

func newMixer(rate beep.SampleRate, volume float64) *mixer {
	return &mixer{rate: rate, volume: volume}
}

// play adds s to the mix. Ownership of s passes to the voice, which closes
// it once it ends or is stopped.
func (m *mixer) play(s beep.StreamSeekCloser, format beep.Format) *voice {
	v := &voice{mixer: m, done: make(chan struct{})}

	var out beep.Streamer = s
	if format.SampleRate != m.rate {
		out = beep.Resample(4, format.SampleRate, m.rate, out)
	}
	out = &effects.Volume{
		Streamer: out,
		Base:     2,
		Volume:   math.Log2(m.volume),
		Silent:   m.volume <= 0,
	}
	v.ctrl = &beep.Ctrl{Streamer: beep.Seq(out, beep.Callback(v.finish))}

	go func() {
		<-v.done
		m.mu.Lock()
		v.ctrl.Streamer = nil
		m.mu.Unlock()
		s.Close()
	}()

	m.mu.Lock()
	m.voices.Add(v.ctrl)
	m.mu.Unlock()
	return v
}

// fill mixes the next len(buf) frames into buf.
func (m *mixer) fill(buf [][2]float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.voices.Stream(buf)
}

func (m *mixer) active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.voices.Len()
}

// voice is one clip in a mixer. It implements playback.Handle.
type voice struct {
	mixer *mixer
	ctrl  *beep.Ctrl
	once  sync.Once
	done  chan struct{}
}

// Stop removes the clip from the mix before returning.
func (v *voice) Stop() {
	v.mixer.mu.Lock()
	v.ctrl.Streamer = nil
	v.mixer.mu.Unlock()
	v.finish()
}

func (v *voice) Done() <-chan struct{} { return v.done }

func (v *voice) finish() {
	v.once.Do(func() { close(v.done) })
}
