package led

import (
	"context"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/sirupsen/logrus"
	"gitlab.com/gomidi/midi/v2"

	"github.com/Mcfloy/launchpad/internal/bank"
	"github.com/Mcfloy/launchpad/internal/config"
	internalmidi "github.com/Mcfloy/launchpad/internal/midi"
	"github.com/Mcfloy/launchpad/internal/queue"
)

// Launchpad palette indices
const (
	ColorOff    uint8 = 0
	ColorRed    uint8 = 5
	ColorYellow uint8 = 13
	ColorWhite  uint8 = 3
	ColorGreen  uint8 = 87
)

// Channel modes of the LED NoteOn messages
const (
	ChannelSolid uint8 = 0 // status 144
	ChannelBlink uint8 = 1 // status 145
)

// Command is one LED update.
type Command struct {
	Note  uint8
	Color uint8
	Blink bool
}

// Message encodes the command as [status, note, color].
func (c Command) Message() midi.Message {
	channel := ChannelSolid
	if c.Blink {
		channel = ChannelBlink
	}
	return midi.NoteOn(channel, c.Note, c.Color)
}

// GridView is the state a redraw needs, copied by the owner of that state.
type GridView struct {
	Profile   *internalmidi.Profile
	Page      bank.Page
	PageCount int
	HoldMode  config.HoldMode
	// Configured marks bookmark slots that have a directory.
	Configured []bool
	Bookmark   bank.Bookmark
}

// Feedback queues LED commands and writes them from a single goroutine so
// two updates never interleave on the wire.
type Feedback struct {
	queue *queue.Queue[Command]
	send  func(midi.Message) error
	log   *logrus.Entry
}

// New creates the feedback queue. Nothing is written until Run is called.
func New(send func(midi.Message) error, log *logrus.Entry) *Feedback {
	return &Feedback{
		queue: queue.New[Command](),
		send:  send,
		log:   log.WithField("component", "led"),
	}
}

// Run writes queued commands in order until Close has been called and the
// queue is drained, ctx is done, or a write fails.
func (f *Feedback) Run(ctx context.Context) error {
	for {
		cmd, ok := f.queue.Pop(ctx)
		if !ok {
			return nil
		}
		if err := f.send(cmd.Message()); err != nil {
			f.log.WithError(err).WithField("note", cmd.Note).Error("led write failed")
			return fault.Wrap(err, fmsg.WithDesc("write led", "Lost connection to the controller output."))
		}
	}
}

// Close stops accepting commands; Run returns once the backlog is written.
func (f *Feedback) Close() {
	f.queue.Close()
}

// Set queues a raw command.
func (f *Feedback) Set(cmd Command) {
	f.queue.Push(cmd)
}

func (f *Feedback) solid(note, color uint8) {
	f.Set(Command{Note: note, Color: color})
}

// Off turns a button dark.
func (f *Feedback) Off(note uint8) {
	f.solid(note, ColorOff)
}

// Playing marks a sample button as sounding.
func (f *Feedback) Playing(n bank.Note) {
	f.Set(Command{Note: n.ID, Color: ColorWhite, Blink: true})
}

// Idle restores a sample button to its page color.
func (f *Feedback) Idle(n bank.Note) {
	f.solid(n.ID, n.Color)
}

// Clear turns off every note in [1, max).
func (f *Feedback) Clear(max uint8) {
	for note := uint8(1); note < max; note++ {
		f.Off(note)
	}
}

// RefreshGrid redraws the page. Without header the top row (navigation,
// end-session and hold buttons) is left as is.
func (f *Feedback) RefreshGrid(v GridView, withHeader bool) {
	p := v.Profile
	if withHeader {
		f.Clear(p.FullLimit)
	} else {
		f.Clear(p.GridLimit)
	}

	for _, n := range v.Page.Notes() {
		f.Idle(n)
	}

	if withHeader {
		if v.PageCount > 1 {
			for _, n := range p.NavigationNotes() {
				f.solid(n, ColorWhite)
			}
		}
		f.solid(p.EndSession, ColorWhite)
		f.solid(p.HoldToggle, HoldColor(v.HoldMode))
	}

	f.solid(p.Stop, ColorWhite)

	for i, note := range p.Bookmarks {
		if i >= len(v.Configured) || !v.Configured[i] {
			continue
		}
		if v.Bookmark == bank.Bookmark(i) {
			f.solid(note, ColorGreen)
		} else {
			f.solid(note, ColorWhite)
		}
	}
}

// Restore puts a control button back to the color RefreshGrid gives it.
func (f *Feedback) Restore(v GridView, note uint8) {
	f.solid(note, ControlColor(v, note))
}

// ControlColor returns the resting color of a control button; buttons that
// stay dark, and notes that are not control buttons, get ColorOff.
func ControlColor(v GridView, note uint8) uint8 {
	p := v.Profile
	switch note {
	case p.FirstPage, p.LastPage, p.PrevPage, p.NextPage:
		if v.PageCount > 1 {
			return ColorWhite
		}
		return ColorOff
	case p.EndSession, p.Stop:
		return ColorWhite
	case p.HoldToggle:
		return HoldColor(v.HoldMode)
	}

	slot, ok := p.BookmarkSlot(note)
	if !ok || slot >= len(v.Configured) || !v.Configured[slot] {
		return ColorOff
	}
	if v.Bookmark == bank.Bookmark(slot) {
		return ColorGreen
	}
	return ColorWhite
}

// HoldColor is the indicator color of a hold mode.
func HoldColor(m config.HoldMode) uint8 {
	switch m {
	case config.HoldPause:
		return ColorYellow
	case config.HoldStop:
		return ColorRed
	default:
		return ColorWhite
	}
}
