package midi

import (
	"fmt"

	"gitlab.com/gomidi/midi/v2"
)

// Model names a supported controller.
type Model string

const (
	ModelLaunchpadMiniMk2 Model = "launchpad-mini-mk2"
	ModelLaunchpadMiniMk3 Model = "launchpad-mini-mk3"
	ModelLaunchpadX       Model = "launchpad-x"
)

// MaxBookmarks is the number of bookmark slots a profile can expose.
const MaxBookmarks = 7

// Profile is the fixed set of control buttons and wire constants of one
// controller model. Values are never mutated after selection.
type Profile struct {
	Model Model

	// Match lists substrings of the MIDI port name that identify the model.
	Match []string

	FirstPage  uint8
	LastPage   uint8
	PrevPage   uint8
	NextPage   uint8
	EndSession uint8
	Stop       uint8
	HoldToggle uint8

	// Bookmarks are the slot buttons, slot 0 first.
	Bookmarks []uint8

	// ProgrammerMode is the SysEx payload (without F0/F7) that makes every
	// LED addressable.
	ProgrammerMode []byte

	// GridLimit and FullLimit are exclusive upper bounds of the note range
	// cleared by a partial and a full redraw.
	GridLimit uint8
	FullLimit uint8
}

// NavigationNotes returns the page navigation buttons.
func (p *Profile) NavigationNotes() []uint8 {
	return []uint8{p.FirstPage, p.LastPage, p.PrevPage, p.NextPage}
}

// BookmarkSlot returns the slot index of a bookmark button.
func (p *Profile) BookmarkSlot(note uint8) (int, bool) {
	for i, b := range p.Bookmarks {
		if b == note {
			return i, true
		}
	}
	return -1, false
}

// ActivateProgrammerMode sends the model's programmer-mode SysEx.
func (p *Profile) ActivateProgrammerMode(send func(midi.Message) error) error {
	if len(p.ProgrammerMode) == 0 {
		return nil
	}
	if err := send(midi.SysEx(p.ProgrammerMode)); err != nil {
		return fmt.Errorf("failed to send programmer mode message: %w", err)
	}
	return nil
}

// HandleMessage extracts a button event from a MIDI message. Grid pads send
// notes and the side/top buttons send control changes on the Launchpads; both
// are reported by their number.
func (p *Profile) HandleMessage(msg midi.Message) (note uint8, press bool, handled bool) {
	var channel, key, velocity uint8

	switch {
	case msg.GetNoteOn(&channel, &key, &velocity):
		return key, velocity > 0, true
	case msg.GetNoteOff(&channel, &key, &velocity):
		return key, false, true
	case msg.GetControlChange(&channel, &key, &velocity):
		return key, velocity > 0, true
	}

	return 0, false, false
}
