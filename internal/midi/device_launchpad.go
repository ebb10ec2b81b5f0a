package midi

// Programmer-mode layout shared by the Mini MK3 and the X: pads are 11..88,
// the right column is 19..89 and the top row 91..98.
var sideColumn = []uint8{89, 79, 69, 59, 49, 39, 29}

// LaunchpadMiniMk2 is the Launchpad Mini MK2.
var LaunchpadMiniMk2 = Profile{
	Model:      ModelLaunchpadMiniMk2,
	Match:      []string{"LPMiniMK2"},
	FirstPage:  104,
	LastPage:   105,
	PrevPage:   106,
	NextPage:   107,
	EndSession: 108,
	Stop:       19,
	HoldToggle: 111,
	Bookmarks:  sideColumn,
	// F0 00 20 29 02 18 22 00 F7
	ProgrammerMode: []byte{0x00, 0x20, 0x29, 0x02, 0x18, 0x22, 0x00},
	GridLimit:      89,
	FullLimit:      99,
}

// LaunchpadMiniMk3 is the Launchpad Mini MK3.
var LaunchpadMiniMk3 = Profile{
	Model:      ModelLaunchpadMiniMk3,
	Match:      []string{"LPMiniMK3"},
	FirstPage:  91,
	LastPage:   92,
	PrevPage:   93,
	NextPage:   94,
	EndSession: 95,
	Stop:       19,
	HoldToggle: 98,
	Bookmarks:  sideColumn,
	// F0 00 20 29 02 0D 0E 01 F7
	ProgrammerMode: []byte{0x00, 0x20, 0x29, 0x02, 0x0D, 0x0E, 0x01},
	GridLimit:      89,
	FullLimit:      99,
}

// LaunchpadX is the Launchpad X.
var LaunchpadX = Profile{
	Model:      ModelLaunchpadX,
	Match:      []string{"LPX"},
	FirstPage:  91,
	LastPage:   92,
	PrevPage:   93,
	NextPage:   94,
	EndSession: 95,
	Stop:       19,
	HoldToggle: 98,
	Bookmarks:  sideColumn,
	// F0 00 20 29 02 0C 00 7F F7
	ProgrammerMode: []byte{0x00, 0x20, 0x29, 0x02, 0x0C, 0x00, 0x7F},
	GridLimit:      89,
	FullLimit:      99,
}
