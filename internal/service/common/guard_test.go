package common

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestAcquireInstanceLock verifies acquisition, release and reacquisition.
func TestAcquireInstanceLock(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "instance.pid")

	release, err := AcquireInstanceLock(ctx, path)
	require.NoError(t, err)
	require.FileExists(t, path)

	release()
	require.NoFileExists(t, path)

	release, err = AcquireInstanceLock(ctx, path)
	require.NoError(t, err)

	release()
}

// TestAcquireInstanceLock_StaleMarker verifies a marker naming a dead pid is reclaimed.
func TestAcquireInstanceLock_StaleMarker(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "instance.pid")

	// Pid far outside the default pid range of any supported platform.
	require.NoError(t, os.WriteFile(path, []byte("999999999\n"), 0o600))

	release, err := AcquireInstanceLock(ctx, path)
	require.NoError(t, err)

	release()
}

// TestAcquireInstanceLock_GarbageMarker verifies an unparseable marker is reclaimed.
func TestAcquireInstanceLock_GarbageMarker(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "instance.pid")

	require.NoError(t, os.WriteFile(path, []byte("not a pid"), 0o600))

	release, err := AcquireInstanceLock(ctx, path)
	require.NoError(t, err)

	release()
}
