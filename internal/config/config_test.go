package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestValidate checks required fields and format validations for the configuration.
func TestValidate(t *testing.T) {
	t.Parallel()

	// Nil configuration.
	err := Validate(nil)
	require.Error(t, err)

	// Missing action.
	cfg := Default()

	err = Validate(cfg)
	require.Error(t, err)

	// Unknown busy policy.
	cfg = Default()
	cfg.Action = "/usr/local/bin/doorbell"
	cfg.BusyPolicy = "queue"

	err = Validate(cfg)
	require.Error(t, err)

	// Bad listen address.
	cfg = Default()
	cfg.Action = "/usr/local/bin/doorbell"
	cfg.ListenAddress = "not:an:address"

	err = Validate(cfg)
	require.Error(t, err)

	// Okay with listen address.
	cfg = Default()
	cfg.Action = "/usr/local/bin/doorbell"
	cfg.ListenAddress = "127.0.0.1:0"

	err = Validate(cfg)
	require.NoError(t, err)
}

// TestValidate_AppliesDefaults ensures zero-valued fields are defaulted during validation.
func TestValidate_AppliesDefaults(t *testing.T) {
	t.Parallel()

	cfg := &Config{Action: "notify-send"}

	require.NoError(t, Validate(cfg))
	require.Equal(t, DefaultRtl433Bin, cfg.Rtl433Bin)
	require.Equal(t, DefaultBusyPolicy, cfg.BusyPolicy)
	require.Equal(t, DefaultTimeout, cfg.Timeout)
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")

	group := uint32(1)
	channel := uint32(4)
	cfg := &Config{
		Rtl433Bin:      "rtl_433",
		Device:         "rtl_tcp:127.0.0.1:1234",
		Action:         "/usr/local/bin/doorbell",
		ActionArgs:     []string{"--ring", "twice"},
		ClearEnv:       true,
		BusyPolicy:     "kill",
		Filter:         Filter{Group: &group, Channel: &channel},
		ListenAddress:  "0.0.0.0:5309",
		NotifyOnAction: true,
		Timeout:        10 * time.Second,
	}

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg, loaded)
}

// TestLoad_MissingFile ensures a missing settings file is reported as an error.
func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
