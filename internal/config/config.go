// Package config assembles the controller configuration from defaults, a
// TOML file, SLITHER_* environment variables and command-line flags.
// Later sources win: flags > env > file > defaults.
package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/bft-labs/slither/internal/adapters/transport"
	"github.com/bft-labs/slither/internal/domain"
	"github.com/bft-labs/slither/pkg/slither"
)

// Defaults for the robot this controller was built for.
const (
	DefaultMotorEndpoint   = "192.168.34.119:8080"
	DefaultPoseEndpoint    = "192.168.35.242:8080"
	DefaultListen          = ":8000"
	DefaultShutdownTimeout = 5 * time.Second
)

type Config struct {
	MotorEndpoint string
	PoseEndpoint  string
	Listen        string

	Tick            time.Duration
	PoseSettle      time.Duration
	ConnectTimeout  time.Duration
	ShutdownTimeout time.Duration

	LogLevel  string
	LogFormat string

	// WatchConfig reloads the gait profile when the config file changes.
	WatchConfig bool

	Poses   map[string]int
	Profile domain.Profile
	Serial  transport.PortOptions
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		MotorEndpoint:   DefaultMotorEndpoint,
		PoseEndpoint:    DefaultPoseEndpoint,
		Listen:          DefaultListen,
		Tick:            slither.DefaultTick,
		PoseSettle:      slither.DefaultPoseSettle,
		ConnectTimeout:  slither.DefaultConnectTimeout,
		ShutdownTimeout: DefaultShutdownTimeout,
		LogLevel:        "info",
		LogFormat:       "console",
		Poses:           slither.DefaultPoses(),
		Profile:         domain.DefaultProfile(),
		Serial:          transport.PortOptions{BaudRate: transport.DefaultBaudRate},
	}
}

// Validate checks the configuration. Errors wrap domain.ErrInvalidConfig.
func (c *Config) Validate() error {
	if c.MotorEndpoint == "" {
		return fmt.Errorf("%w: motor endpoint is required", domain.ErrInvalidConfig)
	}
	if c.PoseEndpoint == "" {
		c.PoseEndpoint = c.MotorEndpoint
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("%w: shutdown timeout must be positive", domain.ErrInvalidConfig)
	}
	return c.Controller().Validate()
}

// Controller returns the embeddable controller configuration.
func (c *Config) Controller() slither.Config {
	poses := make(map[string]int, len(c.Poses))
	for k, v := range c.Poses {
		poses[k] = v
	}
	return slither.Config{
		MotorEndpoint:  c.MotorEndpoint,
		PoseEndpoint:   c.PoseEndpoint,
		Tick:           c.Tick,
		PoseSettle:     c.PoseSettle,
		ConnectTimeout: c.ConnectTimeout,
		Poses:          poses,
		Profile:        c.Profile.Clone(),
		Serial:         c.Serial,
	}
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
