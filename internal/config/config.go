// Package config loads daemon settings from defaults, an optional YAML
// file, environment variables and command-line flags, in that order.
package config

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Source modes.
const (
	SourceHASS = "hass"
	SourceGPIO = "gpio"
)

// Config holds all daemon settings.
type Config struct {
	Source    string `yaml:"source" env:"GRID_SOURCE"`
	HABaseURL string `yaml:"ha_base_url" env:"HA_BASE_URL"`
	HAToken   string `yaml:"ha_token" env:"HA_TOKEN"`
	EntityID  string `yaml:"grid_entity_id" env:"GRID_ENTITY_ID"`

	APIHost string `yaml:"api_host" env:"API_HOST"`
	APIPort int    `yaml:"api_port" env:"API_PORT"`

	Broker    string        `yaml:"mqtt_broker" env:"MQTT_BROKER"`
	Refresh   time.Duration `yaml:"refresh_interval" env:"REFRESH_INTERVAL"`
	Heartbeat time.Duration `yaml:"heartbeat_interval" env:"HEARTBEAT_INTERVAL"`
	Timezone  string        `yaml:"timezone" env:"TIMEZONE"`

	GPIOChip     string        `yaml:"gpio_chip" env:"GPIO_CHIP"`
	GPIOPin      int           `yaml:"gpio_pin" env:"GPIO_PIN"`
	GPIOActiveOn bool          `yaml:"gpio_active_on" env:"GPIO_ACTIVE_ON"`
	Poll         time.Duration `yaml:"gpio_poll" env:"GPIO_POLL"`
	Debounce     time.Duration `yaml:"gpio_debounce" env:"GPIO_DEBOUNCE"`

	// PrintState prints the current grid state and exits. Flag only.
	PrintState bool `yaml:"-"`
}

// Default returns the settings used when nothing overrides them.
func Default() Config {
	return Config{
		Source:    SourceHASS,
		HABaseURL: "http://homeassistant.local:8123",
		EntityID:  "binary_sensor.grid_power",
		APIHost:   "0.0.0.0",
		APIPort:   8000,
		Refresh:   30 * time.Second,
		Heartbeat: 15 * time.Minute,
		GPIOChip:  "gpiochip0",
		GPIOPin:   26,
		Poll:      100 * time.Millisecond,
		Debounce:  250 * time.Millisecond,
	}
}

// LoadFile overlays the YAML file at path onto cfg. Missing files are
// ignored so a default path can be passed unconditionally.
func LoadFile(cfg *Config, path string) error {
	if path == "" {
		return nil
	}
	content, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		log.Printf("config: %s not found, using defaults", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(content, cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

// ApplyEnv overlays environment variables onto cfg. A nil environ reads
// the process environment.
func ApplyEnv(cfg *Config, environ map[string]string) error {
	opts := env.Options{}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load builds the configuration from args: defaults, then the file named
// by -config, then environ, then any flags set explicitly in args.
func Load(args []string, environ map[string]string) (Config, error) {
	fs := flag.NewFlagSet("grid-status", flag.ContinueOnError)
	path := fs.String("config", "", "YAML config file")
	over := Default()
	bind := bindFlags(fs, &over)

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg := Default()
	if err := LoadFile(&cfg, *path); err != nil {
		return Config{}, err
	}
	if err := ApplyEnv(&cfg, environ); err != nil {
		return Config{}, err
	}
	fs.Visit(func(f *flag.Flag) {
		if apply, ok := bind[f.Name]; ok {
			apply(&cfg, &over)
		}
	})

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type applyFunc func(dst, src *Config)

func bindFlags(fs *flag.FlagSet, c *Config) map[string]applyFunc {
	fs.StringVar(&c.Source, "source", c.Source, `State source: "hass" or "gpio"`)
	fs.StringVar(&c.HABaseURL, "ha-url", c.HABaseURL, "Home Assistant base URL")
	fs.StringVar(&c.HAToken, "ha-token", c.HAToken, "Home Assistant long-lived access token")
	fs.StringVar(&c.EntityID, "entity", c.EntityID, "Grid entity ID")
	fs.StringVar(&c.APIHost, "host", c.APIHost, "HTTP listen host")
	fs.IntVar(&c.APIPort, "port", c.APIPort, "HTTP listen port")
	fs.StringVar(&c.Broker, "broker", c.Broker, "MQTT broker address (empty to disable)")
	fs.DurationVar(&c.Refresh, "refresh", c.Refresh, "Source refresh interval")
	fs.DurationVar(&c.Heartbeat, "heartbeat", c.Heartbeat, "Heartbeat interval (0 to disable)")
	fs.StringVar(&c.Timezone, "tz", c.Timezone, "IANA time zone for day boundaries (empty for local)")
	fs.StringVar(&c.GPIOChip, "gpio-chip", c.GPIOChip, "GPIO chip name")
	fs.IntVar(&c.GPIOPin, "gpio-pin", c.GPIOPin, "BCM pin number of the grid sense input")
	fs.BoolVar(&c.GPIOActiveOn, "gpio-active-on", c.GPIOActiveOn, "Treat a high input as grid ON")
	fs.DurationVar(&c.Poll, "poll", c.Poll, "GPIO polling interval")
	fs.DurationVar(&c.Debounce, "debounce", c.Debounce, "GPIO debounce duration")
	fs.BoolVar(&c.PrintState, "print-state", false, "Print current state and exit")

	return map[string]applyFunc{
		"source":         func(d, s *Config) { d.Source = s.Source },
		"ha-url":         func(d, s *Config) { d.HABaseURL = s.HABaseURL },
		"ha-token":       func(d, s *Config) { d.HAToken = s.HAToken },
		"entity":         func(d, s *Config) { d.EntityID = s.EntityID },
		"host":           func(d, s *Config) { d.APIHost = s.APIHost },
		"port":           func(d, s *Config) { d.APIPort = s.APIPort },
		"broker":         func(d, s *Config) { d.Broker = s.Broker },
		"refresh":        func(d, s *Config) { d.Refresh = s.Refresh },
		"heartbeat":      func(d, s *Config) { d.Heartbeat = s.Heartbeat },
		"tz":             func(d, s *Config) { d.Timezone = s.Timezone },
		"gpio-chip":      func(d, s *Config) { d.GPIOChip = s.GPIOChip },
		"gpio-pin":       func(d, s *Config) { d.GPIOPin = s.GPIOPin },
		"gpio-active-on": func(d, s *Config) { d.GPIOActiveOn = s.GPIOActiveOn },
		"poll":           func(d, s *Config) { d.Poll = s.Poll },
		"debounce":       func(d, s *Config) { d.Debounce = s.Debounce },
		"print-state":    func(d, s *Config) { d.PrintState = s.PrintState },
	}
}

// Validate reports the first setting that cannot work.
func (c Config) Validate() error {
	switch c.Source {
	case SourceHASS:
		if c.HABaseURL == "" {
			return errors.New("config: ha_base_url is required for the hass source")
		}
		if c.HAToken == "" {
			return errors.New("config: ha_token is required for the hass source")
		}
	case SourceGPIO:
		if c.Poll <= 0 {
			return fmt.Errorf("config: gpio_poll must be positive, got %v", c.Poll)
		}
		if c.Debounce < 0 {
			return fmt.Errorf("config: gpio_debounce must not be negative, got %v", c.Debounce)
		}
		if c.GPIOPin < 0 {
			return fmt.Errorf("config: invalid gpio_pin %d", c.GPIOPin)
		}
	default:
		return fmt.Errorf("config: unknown source %q", c.Source)
	}
	if c.EntityID == "" {
		return errors.New("config: grid_entity_id is required")
	}
	if c.Refresh <= 0 {
		return fmt.Errorf("config: refresh_interval must be positive, got %v", c.Refresh)
	}
	if c.Heartbeat < 0 {
		return fmt.Errorf("config: heartbeat_interval must not be negative, got %v", c.Heartbeat)
	}
	if c.APIPort < 1 || c.APIPort > 65535 {
		return fmt.Errorf("config: invalid api_port %d", c.APIPort)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location returns the zone used for calendar-day comparisons.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: timezone: %w", err)
	}
	return loc, nil
}

// Addr returns the HTTP listen address.
func (c Config) Addr() string {
	return net.JoinHostPort(c.APIHost, strconv.Itoa(c.APIPort))
}

// String describes the configuration for the startup log, without secrets.
func (c Config) String() string {
	token := "unset"
	if c.HAToken != "" {
		token = "set"
	}
	return fmt.Sprintf("source=%s entity=%s ha=%s token=%s addr=%s broker=%q refresh=%v heartbeat=%v tz=%q",
		c.Source, c.EntityID, c.HABaseURL, token, c.Addr(), c.Broker, c.Refresh, c.Heartbeat, c.Timezone)
}
