// Package config handles formfill configuration from YAML files and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/v0xg/formfill/internal/autofill"
)

// Environment variables consulted by Load.
const (
	EnvConfig = "FORMFILL_CONFIG"
	EnvAddr   = "FORMFILL_ADDR"
)

// ErrNoPersona is returned when a named persona is not configured.
var ErrNoPersona = errors.New("config: no such persona")

// Config is the top-level formfill configuration.
type Config struct {
	Browser  BrowserConfig  `yaml:"browser"`
	Scan     ScanConfig     `yaml:"scan"`
	Watch    WatchConfig    `yaml:"watch"`
	Feedback FeedbackConfig `yaml:"feedback"`
	Server   ServerConfig   `yaml:"server"`
	Personas []Persona      `yaml:"personas"`
}

// BrowserConfig controls the Chromium instance.
type BrowserConfig struct {
	Bin        string        `yaml:"bin"`
	Remote     string        `yaml:"remote"`
	Headless   *bool         `yaml:"headless"`
	Stealth    bool          `yaml:"stealth"`
	ProfileDir string        `yaml:"profile_dir"`
	Width      int           `yaml:"width"`
	Height     int           `yaml:"height"`
	Timeout    time.Duration `yaml:"timeout"`
}

// ScanConfig limits which part of the page is scanned.
type ScanConfig struct {
	Root string `yaml:"root"` // CSS selector; whole document when empty
}

// WatchConfig controls live re-indexing.
type WatchConfig struct {
	Debounce   time.Duration `yaml:"debounce"`
	MaxWait    time.Duration `yaml:"max_wait"`    // 4x debounce when zero
	MaxPending int           `yaml:"max_pending"` // 100 when zero
}

// FeedbackConfig controls the confirmation banner.
type FeedbackConfig struct {
	Enabled  *bool         `yaml:"enabled"`
	Message  string        `yaml:"message"`
	Duration time.Duration `yaml:"duration"`
}

// ServerConfig controls the HTTP message endpoint.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// Persona is a named record that can be written into forms.
type Persona struct {
	ID               string `yaml:"id"`
	autofill.Persona `yaml:",inline"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// LoadFile reads a YAML configuration file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// Load reads path, or the file named by FORMFILL_CONFIG when path is
// empty, falling back to defaults when neither is set. FORMFILL_ADDR
// overrides the server address.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfig)
	}

	cfg := Default()
	if path != "" {
		var err error
		if cfg, err = LoadFile(path); err != nil {
			return nil, err
		}
	}

	if addr := os.Getenv(EnvAddr); addr != "" {
		cfg.Server.Addr = addr
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Browser.Headless == nil {
		c.Browser.Headless = boolPtr(true)
	}
	if c.Browser.Width <= 0 {
		c.Browser.Width = 1280
	}
	if c.Browser.Height <= 0 {
		c.Browser.Height = 720
	}
	if c.Browser.Timeout <= 0 {
		c.Browser.Timeout = 30 * time.Second
	}
	if c.Watch.Debounce < 0 {
		c.Watch.Debounce = 0
	}
	if c.Feedback.Enabled == nil {
		c.Feedback.Enabled = boolPtr(autofill.DefaultFeedback.Enabled)
	}
	if c.Feedback.Message == "" {
		c.Feedback.Message = autofill.DefaultFeedback.Message
	}
	if c.Feedback.Duration <= 0 {
		c.Feedback.Duration = autofill.DefaultFeedback.Duration
	}
	if c.Server.Addr == "" {
		c.Server.Addr = "127.0.0.1:8765"
	}
}

// FeedbackOptions converts the banner settings for the engine.
func (c *Config) FeedbackOptions() autofill.Feedback {
	return autofill.Feedback{
		Enabled:  *c.Feedback.Enabled,
		Message:  c.Feedback.Message,
		Duration: c.Feedback.Duration,
	}
}

// Persona returns the persona with the given id. An empty id selects the
// first configured persona.
func (c *Config) Persona(id string) (autofill.Persona, error) {
	for _, p := range c.Personas {
		if id == "" || p.ID == id {
			return p.Persona, nil
		}
	}
	if id == "" {
		return autofill.Persona{}, ErrNoPersona
	}
	return autofill.Persona{}, fmt.Errorf("%w: %q", ErrNoPersona, id)
}

func boolPtr(b bool) *bool { return &b }
