//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mitchellh/go-ps"

	"github.com/oshokin/rtl-trigger/internal/logger"
)

// ErrAlreadyRunning indicates another live daemon instance holds the marker.
var ErrAlreadyRunning = errors.New("another instance is already running")

// DefaultMarkerPath returns the default location of the instance marker file.
func DefaultMarkerPath() string {
	return filepath.Join(os.TempDir(), "rtl-trigger.pid")
}

// AcquireInstanceLock writes a pid marker so only one daemon owns the SDR
// device at a time. A marker naming a live process with our executable name
// means another instance is running; a stale marker is reclaimed. The
// returned release function removes the marker.
func AcquireInstanceLock(ctx context.Context, path string) (func(), error) {
	if path == "" {
		path = DefaultMarkerPath()
	}

	contents, err := os.ReadFile(filepath.Clean(path))

	switch {
	case err == nil:
		pid, parseErr := strconv.Atoi(strings.TrimSpace(string(contents)))
		if parseErr == nil && isOurProcessAlive(pid) {
			return nil, fmt.Errorf("%w: pid %d", ErrAlreadyRunning, pid)
		}

		logger.InfoKV(ctx, "Reclaiming stale instance marker", "path", path)
	case errors.Is(err, os.ErrNotExist):
		// First instance.
	default:
		return nil, fmt.Errorf("read instance marker: %w", err)
	}

	pid := strconv.Itoa(os.Getpid())
	if err := os.WriteFile(path, []byte(pid+"\n"), 0o600); err != nil {
		return nil, fmt.Errorf("write instance marker: %w", err)
	}

	release := func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.WarnKV(ctx, "Unable to remove instance marker", "path", path, "error", err)
		}
	}

	return release, nil
}

// isOurProcessAlive reports whether the pid belongs to a live process running
// the same executable as us. Pids of unrelated processes count as stale so a
// recycled pid does not block startup forever.
func isOurProcessAlive(pid int) bool {
	process, err := ps.FindProcess(pid)
	if err != nil || process == nil {
		return false
	}

	self := filepath.Base(os.Args[0])

	return process.Executable() == self
}
