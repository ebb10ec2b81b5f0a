package tray

import (
	_ "embed"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"github.com/sirupsen/logrus"

	"github.com/Mcfloy/launchpad/internal/config"
	"github.com/Mcfloy/launchpad/internal/startup"
)

//go:embed icon-white.png
var iconWhiteData []byte

// Overridden in tests.
var (
	enableStartup  = startup.Enable
	disableStartup = startup.Disable
)

// Callbacks for tray menu actions
type Callbacks struct {
	OnStopAll    func()
	OnToggleHold func()
	OnEndSession func()
}

// Setup installs the tray menu when running as a desktop app. It reports
// whether a tray is available.
func Setup(app fyne.App, cfg *config.Config, callbacks Callbacks, log *logrus.Entry) bool {
	desk, ok := app.(desktop.App)
	if !ok {
		return false
	}

	desk.SetSystemTrayMenu(NewMenu(cfg, callbacks, log))

	// the white icon is used for both light and dark menu bars
	desk.SetSystemTrayIcon(fyne.NewStaticResource("icon.png", iconWhiteData))
	return true
}

// NewMenu builds the tray menu. Only the startup item touches cfg, which is
// saved after every change.
func NewMenu(cfg *config.Config, callbacks Callbacks, log *logrus.Entry) *fyne.Menu {
	log = log.WithField("component", "tray")

	stopItem := fyne.NewMenuItem("Stop all", call(callbacks.OnStopAll))
	holdItem := fyne.NewMenuItem("Toggle hold mode", call(callbacks.OnToggleHold))

	startupItem := fyne.NewMenuItem("Open at Startup", nil)
	startupItem.Checked = cfg.OpenAtStartup

	endItem := fyne.NewMenuItem("End session", call(callbacks.OnEndSession))
	endItem.IsQuit = true

	menu := fyne.NewMenu("Launchpad",
		stopItem,
		holdItem,
		fyne.NewMenuItemSeparator(),
		startupItem,
		fyne.NewMenuItemSeparator(),
		endItem,
	)

	// Set the action after menu is created so we can refresh it
	startupItem.Action = func() {
		enabled := !startupItem.Checked
		var err error
		if enabled {
			err = enableStartup(cfg.Path())
		} else {
			err = disableStartup()
		}
		if err != nil {
			log.WithError(err).Warn("cannot change startup registration")
			return
		}

		startupItem.Checked = enabled
		cfg.OpenAtStartup = enabled
		if err := cfg.Save(); err != nil {
			log.WithError(err).Warn("cannot save config")
		}
		menu.Refresh()
	}
	return menu
}

func call(fn func()) func() {
	return func() {
		if fn != nil {
			fn()
		}
	}
}
