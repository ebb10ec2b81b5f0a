package tray

import (
	"errors"
	"path/filepath"
	"testing"

	fynetest "fyne.io/fyne/v2/test"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mcfloy/launchpad/internal/config"
)

func stubStartup(t *testing.T, enable func(string) error, disable func() error) {
	t.Helper()
	origEnable, origDisable := enableStartup, disableStartup
	enableStartup, disableStartup = enable, disable
	t.Cleanup(func() { enableStartup, disableStartup = origEnable, origDisable })
}

func newConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)
	return cfg
}

func TestMenuCallbacks(t *testing.T) {
	logger, _ := test.NewNullLogger()
	var got []string
	menu := NewMenu(newConfig(t), Callbacks{
		OnStopAll:    func() { got = append(got, "stop") },
		OnToggleHold: func() { got = append(got, "hold") },
		OnEndSession: func() { got = append(got, "end") },
	}, logrus.NewEntry(logger))

	labels := []string{}
	for _, item := range menu.Items {
		if item.IsSeparator {
			continue
		}
		labels = append(labels, item.Label)
	}
	assert.Equal(t, []string{"Stop all", "Toggle hold mode", "Open at Startup", "End session"}, labels)

	menu.Items[0].Action()
	menu.Items[1].Action()
	menu.Items[5].Action()
	assert.Equal(t, []string{"stop", "hold", "end"}, got)
}

func TestMenuNilCallbacks(t *testing.T) {
	logger, _ := test.NewNullLogger()
	menu := NewMenu(newConfig(t), Callbacks{}, logrus.NewEntry(logger))

	assert.NotPanics(t, func() { menu.Items[0].Action() })
}

func TestStartupToggleSavesConfig(t *testing.T) {
	fynetest.NewTempApp(t)
	logger, _ := test.NewNullLogger()
	cfg := newConfig(t)
	var registered string
	stubStartup(t,
		func(path string) error { registered = path; return nil },
		func() error { registered = ""; return nil })

	menu := NewMenu(cfg, Callbacks{}, logrus.NewEntry(logger))
	item := menu.Items[3]
	require.False(t, item.Checked)

	item.Action()
	assert.True(t, item.Checked)
	assert.Equal(t, cfg.Path(), registered)

	saved, err := config.Load(cfg.Path())
	require.NoError(t, err)
	assert.True(t, saved.OpenAtStartup)

	item.Action()
	assert.False(t, item.Checked)
	assert.Empty(t, registered)
}

func TestStartupToggleFailureKeepsState(t *testing.T) {
	fynetest.NewTempApp(t)
	logger, hook := test.NewNullLogger()
	cfg := newConfig(t)
	stubStartup(t,
		func(string) error { return errors.New("read-only home") },
		func() error { return nil })

	menu := NewMenu(cfg, Callbacks{}, logrus.NewEntry(logger))
	menu.Items[3].Action()

	assert.False(t, menu.Items[3].Checked)
	assert.False(t, cfg.OpenAtStartup)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}
