package integration

import (
	"bufio"
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/rtl-trigger/internal/service/notifier"
	"github.com/oshokin/rtl-trigger/internal/service/notify"
)

// startNotifier binds a loopback notification server and runs its accept loop.
func startNotifier(t *testing.T) (*notifier.Server, context.CancelFunc) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())

	server, err := notifier.Listen(ctx, "127.0.0.1:0")
	require.NoError(t, err)

	go func() {
		_ = server.Serve(ctx)
	}()

	return server, cancel
}

// TestNotifyClient_SendReachesPeers verifies a client-sent trigger is fanned
// out to an already-connected peer.
func TestNotifyClient_SendReachesPeers(t *testing.T) {
	t.Parallel()

	server, stop := startNotifier(t)
	defer stop()

	peer, err := net.Dial("tcp", server.Addr().String())
	require.NoError(t, err)

	defer func() {
		_ = peer.Close()
	}()

	// Let the peer's write loop subscribe before the client publishes.
	time.Sleep(150 * time.Millisecond)

	require.NoError(t, notify.Run(context.Background(), &notify.Options{
		Address: server.Addr().String(),
		Send:    true,
	}))

	require.NoError(t, peer.SetReadDeadline(time.Now().Add(5*time.Second)))

	line, err := bufio.NewReader(peer).ReadString('\n')

	require.NoError(t, err)
	require.Equal(t, notifier.TriggerLine+"\n", line)
}

// TestNotifyClient_WatchStopsOnCancel verifies the watch loop is cancellable
// while blocked in a socket read.
func TestNotifyClient_WatchStopsOnCancel(t *testing.T) {
	t.Parallel()

	server, stop := startNotifier(t)
	defer stop()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- notify.Run(ctx, &notify.Options{
			Address: server.Addr().String(),
			Watch:   true,
		})
	}()

	// Let the client connect and block in its read.
	time.Sleep(150 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch loop did not stop on cancellation")
	}
}
