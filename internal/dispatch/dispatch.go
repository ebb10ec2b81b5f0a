package dispatch

import (
	"github.com/Mcfloy/launchpad/internal/bank"
	"github.com/Mcfloy/launchpad/internal/midi"
)

// CommandType represents the kind of a classified button event
type CommandType string

const (
	CommandLedOff     CommandType = "led-off"
	CommandFirstPage  CommandType = "first-page"
	CommandLastPage   CommandType = "last-page"
	CommandPrevPage   CommandType = "prev-page"
	CommandNextPage   CommandType = "next-page"
	CommandStop       CommandType = "stop"
	CommandEndSession CommandType = "end-session"
	CommandToggleHold CommandType = "toggle-hold"
	CommandBookmark   CommandType = "bookmark"
	CommandTrigger    CommandType = "trigger"
)

// Event is a raw button event as reported by the input port.
type Event struct {
	Note  uint8
	Press bool
}

// Command is a classified event. Note is set for led-off, Slot for bookmark,
// Sample and Press for trigger.
type Command struct {
	Type   CommandType
	Note   uint8
	Slot   int
	Sample bank.Note
	Press  bool
}

// Page resolves sample notes. *bank.Bank satisfies it.
type Page interface {
	LookupNote(id uint8) (bank.Note, bool)
}

// Dispatcher classifies raw events against a device profile and the
// current page. It knows nothing about audio or LEDs beyond the echo.
type Dispatcher struct {
	profile *midi.Profile
	page    Page
	system  map[uint8]CommandType
}

// New creates a dispatcher for profile resolving samples through page.
func New(profile *midi.Profile, page Page) *Dispatcher {
	return &Dispatcher{
		profile: profile,
		page:    page,
		system: map[uint8]CommandType{
			profile.FirstPage:  CommandFirstPage,
			profile.LastPage:   CommandLastPage,
			profile.PrevPage:   CommandPrevPage,
			profile.NextPage:   CommandNextPage,
			profile.Stop:       CommandStop,
			profile.EndSession: CommandEndSession,
			profile.HoldToggle: CommandToggleHold,
		},
	}
}

// IsSystem reports whether note is a control or bookmark button.
func (d *Dispatcher) IsSystem(note uint8) bool {
	if _, ok := d.system[note]; ok {
		return true
	}
	_, ok := d.profile.BookmarkSlot(note)
	return ok
}

// Dispatch turns one event into zero or more commands, first match wins:
// a system button press yields a led-off echo and its control command, a
// note on the current page yields a trigger, anything else is dropped.
// System buttons are edge triggered, their releases are dropped.
func (d *Dispatcher) Dispatch(ev Event) []Command {
	if d.IsSystem(ev.Note) {
		if !ev.Press {
			return nil
		}
		echo := Command{Type: CommandLedOff, Note: ev.Note}
		if slot, ok := d.profile.BookmarkSlot(ev.Note); ok {
			return []Command{echo, {Type: CommandBookmark, Note: ev.Note, Slot: slot}}
		}
		return []Command{echo, {Type: d.system[ev.Note], Note: ev.Note}}
	}

	if n, ok := d.page.LookupNote(ev.Note); ok {
		return []Command{{Type: CommandTrigger, Note: ev.Note, Sample: n, Press: ev.Press}}
	}
	return nil
}
