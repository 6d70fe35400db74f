// Package config loads the demo application's YAML configuration.
// Library packages take no configuration files; everything here serves
// the liveview binary.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// ConfigFileName is the single file the loader reads from its directory.
const ConfigFileName = "app_config.yaml"

// Environment variables recognized by the loader and the CLI.
const (
	EnvAddr      = "UNISTORE_ADDR"
	EnvConfigDir = "UNISTORE_CONFIG_DIR"
	EnvReadOnly  = "UNISTORE_READ_ONLY"
)

// ListenConfig is the server listen address section
type ListenConfig struct {
	Addr string `yaml:"addr"`
	Port int    `yaml:"port"`
}

// AppSettings holds presentation and loop cadence settings
type AppSettings struct {
	Title        string `yaml:"title"`
	TickInterval string `yaml:"tick_interval"`
}

// DaylightSettings positions the daylight component
type DaylightSettings struct {
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
}

// CounterSettings seeds the counter component
type CounterSettings struct {
	Initial int `yaml:"initial"`
}

// TodosSettings seeds the todo list component
type TodosSettings struct {
	Seed []string `yaml:"seed"`
}

// AppConfig represents the app_config.yaml structure
type AppConfig struct {
	Listen   ListenConfig     `yaml:"listen"`
	App      AppSettings      `yaml:"app"`
	Daylight DaylightSettings `yaml:"daylight"`
	Counter  CounterSettings  `yaml:"counter"`
	Todos    TodosSettings    `yaml:"todos"`
}

// DefaultConfig returns a configuration that runs the demo with no
// config file at all.
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Listen: ListenConfig{
			Addr: "0.0.0.0",
			Port: 8080,
		},
		App: AppSettings{
			Title:        "unistore demo",
			TickInterval: "1m",
		},
		Daylight: DaylightSettings{
			Latitude:  47.6062,
			Longitude: -122.3321,
		},
	}
}

func (c *AppConfig) validate() error {
	if c.Listen.Port < 1 || c.Listen.Port > 65535 {
		return fmt.Errorf("listen port %d out of range", c.Listen.Port)
	}
	d, err := time.ParseDuration(c.App.TickInterval)
	if err != nil {
		return fmt.Errorf("tick_interval %q is not a duration: %w", c.App.TickInterval, err)
	}
	if d <= 0 {
		return fmt.Errorf("tick_interval %q must be positive", c.App.TickInterval)
	}
	if c.Daylight.Latitude < -90 || c.Daylight.Latitude > 90 {
		return fmt.Errorf("latitude %v out of range", c.Daylight.Latitude)
	}
	if c.Daylight.Longitude < -180 || c.Daylight.Longitude > 180 {
		return fmt.Errorf("longitude %v out of range", c.Daylight.Longitude)
	}
	return nil
}

// Loader manages configuration file loading
type Loader struct {
	configDir string
	logger    *zap.Logger
	config    *AppConfig
}

// NewLoader creates a new configuration loader reading from configDir
func NewLoader(configDir string, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{
		configDir: configDir,
		logger:    logger,
	}
}

// Load reads app_config.yaml from the loader's directory. A missing
// file is not an error: the defaults carry the demo. Values parsed from
// the file are validated, and UNISTORE_ADDR overrides the listen
// address afterwards.
func (l *Loader) Load() error {
	path := filepath.Join(l.configDir, ConfigFileName)
	l.logger.Debug("Loading app config", zap.String("path", path))

	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		l.logger.Warn("Config file not found, using defaults", zap.String("path", path))
	case err != nil:
		return fmt.Errorf("failed to read app config: %w", err)
	default:
		// Unmarshal over the defaults so absent fields keep them.
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse app config: %w", err)
		}
	}

	if addr := os.Getenv(EnvAddr); addr != "" {
		l.applyAddrOverride(cfg, addr)
	}

	if err := cfg.validate(); err != nil {
		return fmt.Errorf("invalid app config: %w", err)
	}

	l.config = cfg
	l.logger.Info("App config loaded",
		zap.String("listen", l.ListenAddr()),
		zap.String("title", cfg.App.Title),
		zap.String("tick_interval", cfg.App.TickInterval))
	return nil
}

// applyAddrOverride accepts "host:port", ":port" or a bare host.
func (l *Loader) applyAddrOverride(cfg *AppConfig, addr string) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		cfg.Listen.Addr = addr
		return
	}
	if host != "" {
		cfg.Listen.Addr = host
	}
	if port, err := strconv.Atoi(portStr); err == nil {
		cfg.Listen.Port = port
	} else {
		l.logger.Warn("Ignoring non-numeric port in UNISTORE_ADDR", zap.String("addr", addr))
	}
}

// Config returns the loaded configuration, or the defaults when Load
// has not run yet.
func (l *Loader) Config() *AppConfig {
	if l.config == nil {
		return DefaultConfig()
	}
	return l.config
}

// ListenAddr returns the host:port the server should bind
func (l *Loader) ListenAddr() string {
	cfg := l.Config()
	return net.JoinHostPort(cfg.Listen.Addr, strconv.Itoa(cfg.Listen.Port))
}

// Title returns the application title
func (l *Loader) Title() string {
	return l.Config().App.Title
}

// TickInterval returns the liveview tick cadence. Load guarantees the
// configured value parses; the defaults back anything else.
func (l *Loader) TickInterval() time.Duration {
	d, err := time.ParseDuration(l.Config().App.TickInterval)
	if err != nil || d <= 0 {
		return time.Minute
	}
	return d
}

// Coordinates returns the latitude and longitude for the daylight
// component
func (l *Loader) Coordinates() (float64, float64) {
	cfg := l.Config()
	return cfg.Daylight.Latitude, cfg.Daylight.Longitude
}

// InitialCount returns the counter component's starting value
func (l *Loader) InitialCount() int {
	return l.Config().Counter.Initial
}

// SeedTodos returns the todo titles preloaded at startup
func (l *Loader) SeedTodos() []string {
	return l.Config().Todos.Seed
}

// ReadOnly reports whether UNISTORE_READ_ONLY asks the server to
// reject incoming actions.
func ReadOnly() bool {
	v := os.Getenv(EnvReadOnly)
	if v == "" {
		return false
	}
	on, err := strconv.ParseBool(v)
	if err != nil {
		return false
	}
	return on
}
