package controller

import (
	"context"
	"fmt"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Mcfloy/launchpad/internal/bank"
	"github.com/Mcfloy/launchpad/internal/config"
	"github.com/Mcfloy/launchpad/internal/dispatch"
	"github.com/Mcfloy/launchpad/internal/led"
	"github.com/Mcfloy/launchpad/internal/midi"
	"github.com/Mcfloy/launchpad/internal/playback"
	"github.com/Mcfloy/launchpad/internal/queue"
)

// EventType represents the source of a controller event
type EventType string

const (
	EventButton   EventType = "button"
	EventCommand  EventType = "command"
	EventFinished EventType = "finished"
	EventFatal    EventType = "fatal"
)

// Event is one item of the controller queue.
type Event struct {
	Type EventType

	// Button is set for EventButton.
	Button dispatch.Event
	// Command is set for EventCommand.
	Command dispatch.CommandType
	// Note and Voice are set for EventFinished.
	Note  uint8
	Voice uuid.UUID
	// Err is set for EventFatal.
	Err error
}

// LEDs is the part of led.Feedback the controller drives.
type LEDs interface {
	playback.Indicator
	Off(note uint8)
	Clear(max uint8)
	RefreshGrid(v led.GridView, withHeader bool)
	Restore(v led.GridView, note uint8)
}

// Deps are the collaborators of a controller.
type Deps struct {
	Config  *config.Config
	Profile *midi.Profile
	LEDs    LEDs
	Primary playback.Output
	// Monitor is the loopback output, nil when none is configured.
	Monitor playback.Output
	Log     *logrus.Entry
}

// Controller is the only goroutine that changes the bank and the playback
// state. Everything else talks to it through its event queue.
type Controller struct {
	cfg     *config.Config
	profile *midi.Profile
	leds    LEDs
	log     *logrus.Entry

	events     *queue.Queue[Event]
	bank       *bank.Bank
	dispatcher *dispatch.Dispatcher
	playback   *playback.Manager
}

// New wires a controller. Nothing is loaded before Load.
func New(d Deps) *Controller {
	c := &Controller{
		cfg:     d.Config,
		profile: d.Profile,
		leds:    d.LEDs,
		log:     d.Log.WithField("component", "controller"),
		events:  queue.New[Event](),
		bank:    bank.New(),
	}
	c.dispatcher = dispatch.New(d.Profile, c.bank)
	c.playback = playback.New(d.Primary, d.Monitor, d.LEDs, d.Config.Retrigger, c.finished, d.Log)
	return c
}

// Press queues a button event. It is the MIDI input callback and never
// blocks.
func (c *Controller) Press(note uint8, press bool) {
	c.events.Push(Event{Type: EventButton, Button: dispatch.Event{Note: note, Press: press}})
}

// Submit queues a control command from outside the grid, e.g. the tray.
func (c *Controller) Submit(cmd dispatch.CommandType) {
	c.events.Push(Event{Type: EventCommand, Command: cmd})
}

// Fail makes Run return err.
func (c *Controller) Fail(err error) {
	c.events.Push(Event{Type: EventFatal, Err: err})
}

func (c *Controller) finished(note uint8, voice uuid.UUID) {
	c.events.Push(Event{Type: EventFinished, Note: note, Voice: voice})
}

// Load reads the default bank and draws the first page.
func (c *Controller) Load() error {
	if err := c.bank.Load(c.cfg.PagesDir); err != nil {
		return err
	}
	c.log.WithFields(logrus.Fields{
		"dir":   c.cfg.PagesDir,
		"pages": c.bank.PageCount(),
	}).Info("bank loaded")

	c.leds.RefreshGrid(c.view(), true)
	return nil
}

// Run handles events until the session ends, ctx is done or a fatal
// error occurs.
func (c *Controller) Run(ctx context.Context) error {
	defer c.events.Close()

	for {
		ev, ok := c.events.Pop(ctx)
		if !ok {
			c.log.Info("shutting down")
			c.playback.StopAll()
			c.leds.Clear(c.profile.FullLimit)
			return nil
		}

		done, err := c.handle(ctx, ev)
		if err != nil {
			c.playback.StopAll()
			return err
		}
		if done {
			return nil
		}
	}
}

func (c *Controller) handle(ctx context.Context, ev Event) (bool, error) {
	switch ev.Type {
	case EventButton:
		for _, cmd := range c.dispatcher.Dispatch(ev.Button) {
			done, err := c.apply(ctx, cmd)
			if done || err != nil {
				return done, err
			}
		}
	case EventCommand:
		return c.apply(ctx, dispatch.Command{Type: ev.Command})
	case EventFinished:
		c.playback.Finished(ev.Note, ev.Voice)
	case EventFatal:
		return false, ev.Err
	}
	return false, nil
}

func (c *Controller) apply(ctx context.Context, cmd dispatch.Command) (bool, error) {
	log := c.log.WithFields(logrus.Fields{"command": cmd.Type, "note": cmd.Note})

	switch cmd.Type {
	case dispatch.CommandLedOff:
		c.leds.Off(cmd.Note)
		return false, nil

	case dispatch.CommandFirstPage, dispatch.CommandLastPage, dispatch.CommandPrevPage, dispatch.CommandNextPage:
		if !c.navigate(cmd.Type) {
			log.Debug("already at boundary")
			c.restore(cmd.Note)
			return false, nil
		}
		log.WithField("page", c.bank.PageIndex()).Debug("page changed")
		c.playback.ResetIndicators()
		c.leds.RefreshGrid(c.view(), false)
		c.restore(cmd.Note)

	case dispatch.CommandStop:
		log.Debug("stop all")
		c.playback.StopAll()
		c.leds.RefreshGrid(c.view(), false)

	case dispatch.CommandToggleHold:
		mode := c.cfg.SwapHoldMode()
		log.WithField("hold_mode", mode).Info("hold mode changed")
		c.leds.RefreshGrid(c.view(), true)

	case dispatch.CommandBookmark:
		return false, c.switchBookmark(cmd.Slot, log)

	case dispatch.CommandEndSession:
		log.Info("end of session")
		c.playback.StopAll()
		c.leds.Clear(c.profile.FullLimit)
		select {
		case <-time.After(c.cfg.SettleDelay):
		case <-ctx.Done():
		}
		return true, nil

	case dispatch.CommandTrigger:
		c.trigger(cmd, log)
	}
	return false, nil
}

func (c *Controller) navigate(t dispatch.CommandType) bool {
	switch t {
	case dispatch.CommandFirstPage:
		return c.bank.First()
	case dispatch.CommandLastPage:
		return c.bank.Last()
	case dispatch.CommandPrevPage:
		return c.bank.Previous()
	default:
		return c.bank.Next()
	}
}

func (c *Controller) switchBookmark(slot int, log *logrus.Entry) error {
	dir := c.cfg.Bookmark(slot)
	if dir == "" {
		log.WithField("slot", slot+1).Debug("bookmark not configured")
		return nil
	}

	c.playback.StopAll()
	if err := c.bank.Load(dir); err != nil {
		return fault.Wrap(err,
			fmsg.WithDesc(fmt.Sprintf("load bookmark %d", slot+1),
				fmt.Sprintf("Bookmark %d (%s) could not be loaded.", slot+1, dir)),
			ftag.With(ftag.Internal))
	}
	c.bank.SetBookmark(bank.Bookmark(slot))
	c.playback.ResetIndicators()

	log.WithFields(logrus.Fields{
		"slot":  slot + 1,
		"dir":   dir,
		"pages": c.bank.PageCount(),
	}).Info("bookmark loaded")
	c.leds.RefreshGrid(c.view(), true)
	return nil
}

func (c *Controller) trigger(cmd dispatch.Command, log *logrus.Entry) {
	hold := c.cfg.HoldMode.Enabled()
	if !cmd.Press {
		if hold {
			c.playback.Release(cmd.Note)
		}
		return
	}

	if _, err := c.playback.Trigger(cmd.Sample, hold); err != nil {
		log.WithError(err).WithField("path", cmd.Sample.Path).Warn("cannot play sample")
	}
}

// restore relights a control button after its press echo.
func (c *Controller) restore(note uint8) {
	v := c.view()
	if led.ControlColor(v, note) != led.ColorOff {
		c.leds.Restore(v, note)
	}
}

func (c *Controller) view() led.GridView {
	configured := make([]bool, len(c.profile.Bookmarks))
	for i := range configured {
		configured[i] = c.cfg.BookmarkExists(i)
	}
	return led.GridView{
		Profile:    c.profile,
		Page:       c.bank.CurrentPage(),
		PageCount:  c.bank.PageCount(),
		HoldMode:   c.cfg.HoldMode,
		Configured: configured,
		Bookmark:   c.bank.CurrentBookmark(),
	}
}
