package controller

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mcfloy/launchpad/internal/bank"
	"github.com/Mcfloy/launchpad/internal/config"
	"github.com/Mcfloy/launchpad/internal/dispatch"
	"github.com/Mcfloy/launchpad/internal/led"
	"github.com/Mcfloy/launchpad/internal/midi"
	"github.com/Mcfloy/launchpad/internal/playback"
)

type fakeLEDs struct {
	mu  sync.Mutex
	ops []string
}

func (l *fakeLEDs) add(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ops = append(l.ops, fmt.Sprintf(format, args...))
}

func (l *fakeLEDs) Playing(n bank.Note) { l.add("playing %d", n.ID) }
func (l *fakeLEDs) Idle(n bank.Note)    { l.add("idle %d", n.ID) }
func (l *fakeLEDs) Off(note uint8)      { l.add("off %d", note) }
func (l *fakeLEDs) Clear(max uint8)     { l.add("clear %d", max) }

func (l *fakeLEDs) RefreshGrid(v led.GridView, withHeader bool) {
	l.add("refresh header=%t page=%d/%d bookmark=%d hold=%s", withHeader, v.Page.Len(), v.PageCount, v.Bookmark, v.HoldMode)
}

func (l *fakeLEDs) Restore(v led.GridView, note uint8) { l.add("restore %d", note) }

func (l *fakeLEDs) take() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	ops := l.ops
	l.ops = nil
	return ops
}

type fakeHandle struct {
	mu      sync.Mutex
	stopped bool
	once    sync.Once
	done    chan struct{}
}

func (h *fakeHandle) Stop() {
	h.mu.Lock()
	h.stopped = true
	h.mu.Unlock()
	h.once.Do(func() { close(h.done) })
}

func (h *fakeHandle) end() { h.once.Do(func() { close(h.done) }) }

func (h *fakeHandle) Done() <-chan struct{} { return h.done }

func (h *fakeHandle) Stopped() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stopped
}

type fakeOutput struct {
	mu      sync.Mutex
	paths   []string
	handles []*fakeHandle
}

func (o *fakeOutput) Play(path string) (playback.Handle, time.Duration, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	h := &fakeHandle{done: make(chan struct{})}
	o.paths = append(o.paths, path)
	o.handles = append(o.handles, h)
	return h, 0, nil
}

func (o *fakeOutput) handle(i int) *fakeHandle {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.handles[i]
}

func (o *fakeOutput) plays() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.paths)
}

// writeBank creates a bank directory with one file per page.
func writeBank(t *testing.T, pages ...string) string {
	t.Helper()
	dir := t.TempDir()
	for i, body := range pages {
		name := filepath.Join(dir, fmt.Sprintf("page%02d.txt", i))
		require.NoError(t, os.WriteFile(name, []byte(body), 0o644))
	}
	return dir
}

type harness struct {
	cfg     *config.Config
	leds    *fakeLEDs
	primary *fakeOutput
	monitor *fakeOutput
	c       *Controller
}

var mk3 = &midi.LaunchpadMiniMk3

func newHarness(t *testing.T, hold config.HoldMode) *harness {
	t.Helper()
	logger, _ := test.NewNullLogger()

	cfg := config.Default()
	cfg.PagesDir = writeBank(t, "11;/a.wav;5\n12;/b.wav;9\n", "11;/c.wav;21\n", "13;/d.wav;45\n")
	cfg.Bookmark1 = writeBank(t, "14;/memes/e.wav;13\n")
	cfg.Bookmark2 = filepath.Join(t.TempDir(), "gone")
	cfg.HoldMode = hold
	cfg.SettleDelay = 0

	h := &harness{cfg: cfg, leds: &fakeLEDs{}, primary: &fakeOutput{}, monitor: &fakeOutput{}}
	h.c = New(Deps{
		Config:  cfg,
		Profile: mk3,
		LEDs:    h.leds,
		Primary: h.primary,
		Monitor: h.monitor,
		Log:     logrus.NewEntry(logger),
	})
	require.NoError(t, h.c.Load())
	return h
}

func (h *harness) press(t *testing.T, note uint8, press bool) bool {
	t.Helper()
	done, err := h.c.handle(context.Background(), Event{Type: EventButton, Button: dispatch.Event{Note: note, Press: press}})
	require.NoError(t, err)
	return done
}

func TestLoadDrawsFirstPage(t *testing.T) {
	h := newHarness(t, config.HoldNormal)

	assert.Equal(t, []string{"refresh header=true page=2/3 bookmark=-1 hold=normal"}, h.leds.take())
	assert.Equal(t, 0, h.c.bank.PageIndex())
}

func TestLoadFailure(t *testing.T) {
	logger, _ := test.NewNullLogger()
	cfg := config.Default()
	cfg.PagesDir = filepath.Join(t.TempDir(), "missing")

	c := New(Deps{Config: cfg, Profile: mk3, LEDs: &fakeLEDs{}, Primary: &fakeOutput{}, Log: logrus.NewEntry(logger)})
	assert.ErrorIs(t, c.Load(), bank.ErrNotFound)
}

func TestNavigation(t *testing.T) {
	h := newHarness(t, config.HoldNormal)
	h.leds.take()

	h.press(t, mk3.NextPage, true)
	assert.Equal(t, []string{
		"off 94",
		"refresh header=false page=1/3 bookmark=-1 hold=normal",
		"restore 94",
	}, h.leds.take())
	assert.Equal(t, 1, h.c.bank.PageIndex())

	h.press(t, mk3.NextPage, false)
	assert.Empty(t, h.leds.take(), "control releases are dropped")

	h.press(t, mk3.LastPage, true)
	assert.Equal(t, 2, h.c.bank.PageIndex())
	h.leds.take()

	h.press(t, mk3.NextPage, true)
	assert.Equal(t, []string{"off 94", "restore 94"}, h.leds.take(), "no redraw at the boundary")

	h.press(t, mk3.FirstPage, true)
	h.press(t, mk3.PrevPage, true)
	assert.Equal(t, 0, h.c.bank.PageIndex())
}

func TestSampleFollowsPage(t *testing.T) {
	h := newHarness(t, config.HoldNormal)

	h.press(t, 11, true)
	h.press(t, mk3.NextPage, true)
	h.press(t, 11, true)
	h.press(t, 12, true) // only on the first page

	assert.Equal(t, []string{"/a.wav", "/c.wav"}, h.primary.paths)
	assert.Equal(t, []string{"/a.wav", "/c.wav"}, h.monitor.paths)
}

func TestHoldPressRelease(t *testing.T) {
	h := newHarness(t, config.HoldStop)

	h.press(t, 11, true)
	assert.True(t, h.c.playback.Playing(11))

	h.press(t, 11, false)
	assert.Equal(t, 1, h.primary.plays())
	assert.True(t, h.primary.handle(0).Stopped())
	assert.True(t, h.monitor.handle(0).Stopped())
	assert.False(t, h.c.playback.Playing(11))
}

func TestReleaseIgnoredWithoutHold(t *testing.T) {
	h := newHarness(t, config.HoldNormal)

	h.press(t, 11, true)
	h.press(t, 11, false)

	assert.False(t, h.primary.handle(0).Stopped())
	assert.True(t, h.c.playback.Playing(11))
}

func TestStopButton(t *testing.T) {
	h := newHarness(t, config.HoldNormal)
	h.press(t, 11, true)
	h.press(t, 12, true)
	h.leds.take()

	h.press(t, mk3.Stop, true)

	assert.Empty(t, h.c.playback.Active())
	assert.True(t, h.primary.handle(0).Stopped())
	assert.True(t, h.primary.handle(1).Stopped())
	assert.Equal(t, []string{
		"off 19",
		"idle 11",
		"idle 12",
		"refresh header=false page=2/3 bookmark=-1 hold=normal",
	}, sortIdle(h.leds.take()))
}

// sortIdle orders the idle entries, which come from a map walk.
func sortIdle(ops []string) []string {
	if len(ops) == 4 && ops[1] > ops[2] {
		ops[1], ops[2] = ops[2], ops[1]
	}
	return ops
}

func TestToggleHold(t *testing.T) {
	h := newHarness(t, config.HoldNormal)
	h.leds.take()

	h.press(t, mk3.HoldToggle, true)
	assert.Equal(t, config.HoldPause, h.cfg.HoldMode)
	assert.Equal(t, []string{"off 98", "refresh header=true page=2/3 bookmark=-1 hold=pause"}, h.leds.take())

	h.press(t, 11, true)
	h.press(t, 11, false)
	assert.True(t, h.primary.handle(0).Stopped(), "pause releases like stop")

	h.press(t, mk3.HoldToggle, true)
	h.press(t, mk3.HoldToggle, true)
	assert.Equal(t, config.HoldNormal, h.cfg.HoldMode)
}

func TestUnconfiguredBookmarkDoesNothing(t *testing.T) {
	h := newHarness(t, config.HoldNormal)
	h.press(t, mk3.NextPage, true)
	h.leds.take()

	h.press(t, mk3.Bookmarks[2], true)

	assert.Equal(t, []string{fmt.Sprintf("off %d", mk3.Bookmarks[2])}, h.leds.take(), "button stays dark")
	assert.Equal(t, 1, h.c.bank.PageIndex())
	assert.Equal(t, 3, h.c.bank.PageCount())
	assert.Equal(t, bank.NoBookmark, h.c.bank.CurrentBookmark())
}

func TestBookmarkSwitch(t *testing.T) {
	h := newHarness(t, config.HoldNormal)
	h.press(t, 11, true)
	h.press(t, mk3.NextPage, true)
	h.leds.take()

	h.press(t, mk3.Bookmarks[0], true)

	assert.True(t, h.primary.handle(0).Stopped(), "switch stops playback")
	assert.Equal(t, 1, h.c.bank.PageCount())
	assert.Equal(t, 0, h.c.bank.PageIndex())
	assert.True(t, h.c.bank.IsCurrentBookmark(0))
	ops := h.leds.take()
	assert.Equal(t, "refresh header=true page=1/1 bookmark=0 hold=normal", ops[len(ops)-1])

	h.press(t, 14, true)
	assert.Equal(t, "/memes/e.wav", h.primary.paths[1])
}

func TestBookmarkLoadFailureIsFatal(t *testing.T) {
	h := newHarness(t, config.HoldNormal)

	_, err := h.c.handle(context.Background(), Event{Type: EventButton, Button: dispatch.Event{Note: mk3.Bookmarks[1], Press: true}})
	require.Error(t, err)
	assert.ErrorIs(t, err, bank.ErrNotFound)
}

func TestEndSession(t *testing.T) {
	h := newHarness(t, config.HoldNormal)
	h.press(t, 11, true)
	h.leds.take()

	assert.True(t, h.press(t, mk3.EndSession, true))
	assert.True(t, h.primary.handle(0).Stopped())
	ops := h.leds.take()
	assert.Equal(t, "clear 99", ops[len(ops)-1])
}

func TestRunEndsOnEndSession(t *testing.T) {
	h := newHarness(t, config.HoldStop)

	done := make(chan error, 1)
	go func() { done <- h.c.Run(context.Background()) }()

	h.c.Press(11, true)
	h.c.Press(11, false)
	h.c.Submit(dispatch.CommandEndSession)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("run did not return")
	}
	assert.Equal(t, 1, h.primary.plays())
	assert.True(t, h.primary.handle(0).Stopped())
}

func TestRunReturnsFatal(t *testing.T) {
	h := newHarness(t, config.HoldNormal)
	boom := errors.New("led output lost")

	done := make(chan error, 1)
	go func() { done <- h.c.Run(context.Background()) }()
	h.c.Fail(boom)

	select {
	case err := <-done:
		assert.ErrorIs(t, err, boom)
	case <-time.After(time.Second):
		t.Fatal("run did not return")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	h := newHarness(t, config.HoldNormal)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- h.c.Run(ctx) }()
	h.c.Press(11, true)
	require.Eventually(t, func() bool { return h.primary.plays() == 1 }, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("run did not return")
	}
	assert.True(t, h.primary.handle(0).Stopped())
}

func TestRunHandlesNaturalEnd(t *testing.T) {
	h := newHarness(t, config.HoldStop)
	h.press(t, 11, true)
	h.leds.take()

	done := make(chan error, 1)
	go func() { done <- h.c.Run(context.Background()) }()

	h.primary.handle(0).end()
	require.Eventually(t, func() bool {
		for _, op := range h.leds.take() {
			if op == "idle 11" {
				return true
			}
		}
		return false
	}, time.Second, time.Millisecond)

	h.c.Submit(dispatch.CommandEndSession)
	require.NoError(t, <-done)
	assert.True(t, h.monitor.handle(0).Stopped(), "monitor is released with its pair")
}
