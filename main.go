package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"fyne.io/fyne/v2/app"
	"github.com/Southclaws/fault/fmsg"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Mcfloy/launchpad/internal/config"
	"github.com/Mcfloy/launchpad/internal/dispatch"
	"github.com/Mcfloy/launchpad/internal/midi"
	"github.com/Mcfloy/launchpad/internal/tray"
)

var flags struct {
	config   string
	debug    bool
	exitCode int
}

var rootCmd = &cobra.Command{
	Use:   "launchpad",
	Short: "Play samples from a Launchpad grid",
	Long: `Turns a Novation Launchpad into a soundboard.

Each file of the pages directory is one page of the grid, one line per pad:
  note_id;path/to/sample.wav;color
Samples play on the output device and on a loopback device at the same time.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runSession,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start a session (default)",
	RunE:  runSession,
}

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List MIDI ports and audio outputs",
	RunE: func(cmd *cobra.Command, args []string) error {
		m := midi.NewManager(newLogger(config.Default()))
		defer m.Close()
		return printDevices(cmd.OutOrStdout(), m)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flags.config, "config", "c", config.DefaultPath,
		"Path of the YAML config file")
	rootCmd.PersistentFlags().BoolVar(&flags.debug, "debug", false,
		"Log at debug level and list devices at startup")
	rootCmd.PersistentFlags().IntVar(&flags.exitCode, "exit-code", 1,
		"Exit code on startup failure, overrides startup_failure_exit_code")

	rootCmd.AddCommand(runCmd, devicesCmd)
}

// exitError carries the process exit code of a failed command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func main() {
	if err := rootCmd.Execute(); err != nil {
		code := 1
		var ee *exitError
		if errors.As(err, &ee) {
			code = ee.code
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(code)
	}
}

func runSession(cmd *cobra.Command, args []string) error {
	startupCode := func(cfg *config.Config) int {
		if cmd.Flags().Changed("exit-code") || cfg == nil {
			return flags.exitCode
		}
		return cfg.StartupFailureExitCode
	}

	cfg, err := config.Load(flags.config)
	if err != nil {
		log := newLogger(config.Default())
		log.WithError(err).Error(issue(err))
		return &exitError{code: startupCode(nil), err: err}
	}
	if flags.debug {
		cfg.Debug = true
	}
	log := newLogger(cfg)

	if cfg.Debug {
		// closing the manager would close the MIDI driver the session needs
		if err := printDevices(os.Stdout, midi.NewManager(log)); err != nil {
			log.WithError(err).Warn("cannot list devices")
		}
	}

	s, err := start(cfg, log)
	if err != nil {
		log.WithError(err).Error(issue(err))
		return &exitError{code: startupCode(cfg), err: err}
	}
	defer s.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Tray {
		if ok, err := runWithTray(ctx, s, cfg, log); ok {
			return sessionResult(err, log)
		}
		log.Warn("system tray unavailable, running without it")
	}
	return sessionResult(s.run(ctx), log)
}

// runWithTray runs the session next to a tray icon. The fyne loop owns the
// main goroutine, so the session runs on another one and quits the app once
// it ends.
func runWithTray(ctx context.Context, s *session, cfg *config.Config, log *logrus.Entry) (bool, error) {
	fyneApp := app.NewWithID("com.mcfloy.launchpad")

	ok := tray.Setup(fyneApp, cfg.Clone(), tray.Callbacks{
		OnStopAll:    func() { s.ctrl.Submit(dispatch.CommandStop) },
		OnToggleHold: func() { s.ctrl.Submit(dispatch.CommandToggleHold) },
		OnEndSession: func() { s.ctrl.Submit(dispatch.CommandEndSession) },
	}, log)
	if !ok {
		return false, nil
	}

	done := make(chan error, 1)
	go func() {
		done <- s.run(ctx)
		fyneApp.Quit()
	}()

	// Run the Fyne app (this blocks until app.Quit is called)
	fyneApp.Run()
	// no-op when the session ended first
	s.ctrl.Submit(dispatch.CommandEndSession)
	return true, <-done
}

func sessionResult(err error, log *logrus.Entry) error {
	if err != nil {
		log.WithError(err).Error(issue(err))
		return &exitError{code: 1, err: err}
	}
	log.Info("session ended")
	return nil
}

// issue returns the message meant for the user.
func issue(err error) string {
	if msg := fmsg.GetIssue(err); msg != "" {
		return msg
	}
	return err.Error()
}

func newLogger(cfg *config.Config) *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	if cfg.Debug || flags.debug {
		level = logrus.DebugLevel
	}
	logger.SetLevel(level)

	return logrus.NewEntry(logger)
}
