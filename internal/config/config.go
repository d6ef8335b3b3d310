package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Filter holds the optional equality constraints applied to decoded events.
// A nil field imposes no restriction on the corresponding event field.
type Filter struct {
	// Group restricts events to an exact group value.
	Group *uint32 `yaml:"group,omitempty"`
	// Unit restricts events to an exact unit value.
	Unit *uint32 `yaml:"unit,omitempty"`
	// ID restricts events to an exact ID value.
	ID *uint32 `yaml:"id,omitempty"`
	// Channel restricts events to an exact channel value.
	Channel *uint32 `yaml:"channel,omitempty"`
}

// Config holds the settings shared by the rtl-trigger binaries.
type Config struct {
	// Rtl433Bin is the command used to run the rtl_433 decoder.
	Rtl433Bin string `yaml:"rtl433_bin"`
	// Device is the optional SDR device selector passed to rtl_433 via -d.
	Device string `yaml:"device,omitempty"`
	// Action is the command to run when a matching event is received.
	Action string `yaml:"action"`
	// ActionArgs are extra arguments passed to the action command.
	ActionArgs []string `yaml:"action_args,omitempty"`
	// ClearEnv starts action processes from an empty environment
	// instead of inheriting the daemon's.
	ClearEnv bool `yaml:"clear_env"`
	// BusyPolicy decides what happens when an event arrives while
	// actions are still running: allow, skip or kill.
	BusyPolicy string `yaml:"busy_policy"`
	// Filter contains the optional event constraints.
	Filter Filter `yaml:"filter,omitempty"`
	// ListenAddress is the notification server listen address.
	// Empty disables the notification server.
	ListenAddress string `yaml:"listen_addr,omitempty"`
	// NotifyOnAction publishes a trigger to notification subscribers
	// for every action started.
	NotifyOnAction bool `yaml:"notify_on_action"`
	// Timeout is the duration for network operations of the companion client.
	Timeout time.Duration `yaml:"timeout"`
}

const (
	// DefaultConfigFilename is the default filename for daemon settings.
	DefaultConfigFilename = "rtl-trigger-settings.yaml"

	// DefaultRtl433Bin is the decoder command used when none is configured.
	DefaultRtl433Bin = "rtl_433"

	// DefaultBusyPolicy is the busy policy used when none is configured.
	DefaultBusyPolicy = "allow"

	// DefaultTimeout is the default duration for network operations.
	DefaultTimeout = 5 * time.Second

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errActionRequired is returned when no action command is configured.
	errActionRequired = errors.New("action command must be provided")
	// errUnknownBusyPolicy is returned for busy policy values outside allow/skip/kill.
	errUnknownBusyPolicy = errors.New("busy policy must be one of: allow, skip, kill")
)

// Default returns a configuration populated with default values.
func Default() *Config {
	return &Config{
		Rtl433Bin:  DefaultRtl433Bin,
		BusyPolicy: DefaultBusyPolicy,
		Timeout:    DefaultTimeout,
	}
}

// Load reads configuration from the provided path and fills in defaults.
// The result is not validated: callers merge command-line overrides first
// and then call Validate.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(contents, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	applyDefaults(cfg)

	return cfg, nil
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided configuration for required fields and formatting.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	applyDefaults(cfg)

	if cfg.Action == "" {
		return errActionRequired
	}

	switch cfg.BusyPolicy {
	case "allow", "skip", "kill":
	default:
		return errUnknownBusyPolicy
	}

	if cfg.ListenAddress == "" {
		return nil
	}

	if _, err := net.ResolveTCPAddr("tcp", cfg.ListenAddress); err != nil {
		return fmt.Errorf("invalid listen address: %w", err)
	}

	return nil
}

// applyDefaults fills zero-valued fields with their defaults.
func applyDefaults(cfg *Config) {
	if cfg.Rtl433Bin == "" {
		cfg.Rtl433Bin = DefaultRtl433Bin
	}

	if cfg.BusyPolicy == "" {
		cfg.BusyPolicy = DefaultBusyPolicy
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
}
