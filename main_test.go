package main

import (
	"errors"
	"strings"
	"testing"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/stretchr/testify/assert"
)

func TestIssuePrefersUserMessage(t *testing.T) {
	err := fault.Wrap(errors.New("ENOENT"), fmsg.WithDesc("open pages", "Pages directory is missing."))
	assert.Equal(t, "Pages directory is missing.", issue(err))

	assert.Equal(t, "plain", issue(errors.New("plain")))
}

func TestExitErrorUnwraps(t *testing.T) {
	cause := errors.New("no device")
	var err error = &exitError{code: 0, err: cause}

	var ee *exitError
	assert.True(t, errors.As(err, &ee))
	assert.Equal(t, 0, ee.code)
	assert.ErrorIs(t, err, cause)
}

func TestSectionListsNames(t *testing.T) {
	var b strings.Builder
	section(&b, "MIDI inputs", []string{"LPMiniMK3 MIDI", "nanoKONTROL2"}, midiDetail)
	out := b.String()

	assert.Contains(t, out, "MIDI inputs")
	assert.Contains(t, out, "LPMiniMK3 MIDI")
	assert.Contains(t, out, "launchpad-mini-mk3")
	assert.Contains(t, out, "nanoKONTROL2")

	b.Reset()
	section(&b, "Audio outputs", nil, func(string) string { return "" })
	assert.Contains(t, b.String(), "none")
}
