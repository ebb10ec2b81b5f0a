package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up in the working directory.
const DefaultPath = "config.yaml"

// BookmarkSlots is the number of bookmark_N keys.
const BookmarkSlots = 7

// HoldMode selects what releasing a sample button does.
type HoldMode string

const (
	HoldNormal HoldMode = "normal" // release ignored, clip plays to the end
	HoldPause  HoldMode = "pause"
	HoldStop   HoldMode = "stop"
)

// Enabled reports whether releasing a button stops its clip.
func (m HoldMode) Enabled() bool {
	return m == HoldPause || m == HoldStop
}

// Next returns the mode selected by one press of the hold toggle.
func (m HoldMode) Next() HoldMode {
	switch m {
	case HoldNormal:
		return HoldPause
	case HoldPause:
		return HoldStop
	default:
		return HoldNormal
	}
}

func (m HoldMode) valid() bool {
	return m == HoldNormal || m == HoldPause || m == HoldStop
}

// RetriggerPolicy selects what pressing a button that is still playing does.
type RetriggerPolicy string

const (
	// RetriggerOverlap starts a new instance; only the newest one stays tracked.
	RetriggerOverlap RetriggerPolicy = "overlap"
	// RetriggerRestart stops the playing instance before starting again.
	RetriggerRestart RetriggerPolicy = "restart"
	// RetriggerLayer starts a new instance and keeps tracking every instance.
	RetriggerLayer RetriggerPolicy = "layer"
)

// Config holds application configuration
type Config struct {
	MidiInDevice  string `yaml:"midi_in_device"`
	MidiOutDevice string `yaml:"midi_out_device"`
	OutputDevice  string `yaml:"output_device"`
	VirtualDevice string `yaml:"virtual_device"`

	Bookmark1 string `yaml:"bookmark_1,omitempty"`
	Bookmark2 string `yaml:"bookmark_2,omitempty"`
	Bookmark3 string `yaml:"bookmark_3,omitempty"`
	Bookmark4 string `yaml:"bookmark_4,omitempty"`
	Bookmark5 string `yaml:"bookmark_5,omitempty"`
	Bookmark6 string `yaml:"bookmark_6,omitempty"`
	Bookmark7 string `yaml:"bookmark_7,omitempty"`

	HoldMode   HoldMode `yaml:"hold_mode,omitempty"`
	HoldToPlay bool     `yaml:"hold_to_play,omitempty"`

	PagesDir      string          `yaml:"pages_dir"`
	OutputVolume  float64         `yaml:"output_volume"`
	VirtualVolume float64         `yaml:"virtual_volume"`
	Retrigger     RetriggerPolicy `yaml:"retrigger"`
	SettleDelay   time.Duration   `yaml:"settle_delay"`

	StartupFailureExitCode int `yaml:"startup_failure_exit_code"`

	LogLevel      string `yaml:"log_level"`
	Debug         bool   `yaml:"debug,omitempty"`
	Tray          bool   `yaml:"tray,omitempty"`
	OpenAtStartup bool   `yaml:"open_at_startup,omitempty"`

	path string
}

// Default returns a config with sensible defaults
func Default() *Config {
	return &Config{
		HoldMode:               HoldNormal,
		PagesDir:               "pages",
		OutputVolume:           1.0,
		VirtualVolume:          0.1,
		Retrigger:              RetriggerOverlap,
		SettleDelay:            100 * time.Millisecond,
		StartupFailureExitCode: 1,
		LogLevel:               "info",
		path:                   DefaultPath,
	}
}

// Load reads the config at path, returning defaults if the file is missing.
func Load(path string) (*Config, error) {
	cfg := Default()
	cfg.path = path

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fault.Wrap(err, fmsg.With("read config"), ftag.With(ftag.Internal))
	}

	// hold_mode falls back to the legacy hold_to_play flag when absent.
	cfg.HoldMode = ""
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fault.Wrap(err,
			fmsg.WithDesc("parse config", fmt.Sprintf("%s is not valid YAML.", path)),
			ftag.With(ftag.InvalidArgument))
	}
	cfg.path = path

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) normalize() error {
	if c.HoldMode == "" {
		c.HoldMode = HoldNormal
		if c.HoldToPlay {
			c.HoldMode = HoldStop
		}
	}
	c.HoldMode = HoldMode(strings.ToLower(string(c.HoldMode)))
	if !c.HoldMode.valid() {
		return invalid("hold_mode", string(c.HoldMode), "normal, pause or stop")
	}

	if c.Retrigger == "" {
		c.Retrigger = RetriggerOverlap
	}
	switch c.Retrigger {
	case RetriggerOverlap, RetriggerRestart, RetriggerLayer:
	default:
		return invalid("retrigger", string(c.Retrigger), "overlap, restart or layer")
	}

	if c.OutputVolume < 0 || c.VirtualVolume < 0 {
		return invalid("volume", fmt.Sprintf("%g/%g", c.OutputVolume, c.VirtualVolume), "a value >= 0")
	}
	if c.SettleDelay < 0 {
		c.SettleDelay = 0
	}
	return nil
}

func invalid(key, value, want string) error {
	return fault.New("invalid config value",
		fmsg.WithDesc(fmt.Sprintf("%s=%q", key, value), fmt.Sprintf("%s must be %s, got %q.", key, want, value)),
		ftag.With(ftag.InvalidArgument))
}

// Clone returns a copy for use on another goroutine.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}

// Path returns the file the config was loaded from.
func (c *Config) Path() string {
	return c.path
}

// Save writes the config back to its file
func (c *Config) Save() error {
	if dir := filepath.Dir(c.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(c.path, data, 0644)
}

// Bookmark returns the bank directory of a slot (0-based), or "" when the
// slot is not configured.
func (c *Config) Bookmark(slot int) string {
	switch slot {
	case 0:
		return c.Bookmark1
	case 1:
		return c.Bookmark2
	case 2:
		return c.Bookmark3
	case 3:
		return c.Bookmark4
	case 4:
		return c.Bookmark5
	case 5:
		return c.Bookmark6
	case 6:
		return c.Bookmark7
	default:
		return ""
	}
}

// BookmarkExists reports whether a slot has a directory configured.
func (c *Config) BookmarkExists(slot int) bool {
	return c.Bookmark(slot) != ""
}

// SwapHoldMode advances the hold mode and returns the new value. It is the
// only setting changed at runtime and is not saved.
func (c *Config) SwapHoldMode() HoldMode {
	c.HoldMode = c.HoldMode.Next()
	return c.HoldMode
}
