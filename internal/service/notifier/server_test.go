package notifier

import (
	"bufio"
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// startServer binds a loopback server and runs its accept loop.
func startServer(t *testing.T) (*Server, context.CancelFunc) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())

	server, err := Listen(ctx, "127.0.0.1:0")
	require.NoError(t, err)

	go func() {
		_ = server.Serve(ctx)
	}()

	return server, cancel
}

// dialPeer connects to the server and returns the connection with a reader.
func dialPeer(t *testing.T, server *Server) (net.Conn, *bufio.Reader) {
	t.Helper()

	conn, err := net.Dial("tcp", server.Addr().String())
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()
	})

	return conn, bufio.NewReader(conn)
}

// expectTrigger reads one line and asserts it is the trigger token.
func expectTrigger(t *testing.T, conn net.Conn, r *bufio.Reader) {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	line, err := r.ReadString('\n')

	require.NoError(t, err)
	require.Equal(t, TriggerLine+"\n", line)
}

// TestServer_InternalTriggerReachesAllPeers verifies broadcaster fan-out to
// every connected peer.
func TestServer_InternalTriggerReachesAllPeers(t *testing.T) {
	t.Parallel()

	server, cancel := startServer(t)
	defer cancel()

	conn1, r1 := dialPeer(t, server)
	conn2, r2 := dialPeer(t, server)

	// Let both write loops subscribe before publishing.
	time.Sleep(100 * time.Millisecond)

	server.Broadcaster().Trigger()

	expectTrigger(t, conn1, r1)
	expectTrigger(t, conn2, r2)
}

// TestServer_PeerTriggerIsRelayed verifies a peer-sent trigger reaches the
// other peers, and that unrecognized lines are ignored.
func TestServer_PeerTriggerIsRelayed(t *testing.T) {
	t.Parallel()

	server, cancel := startServer(t)
	defer cancel()

	sender, senderReader := dialPeer(t, server)
	receiver, receiverReader := dialPeer(t, server)

	time.Sleep(100 * time.Millisecond)

	_, err := sender.Write([]byte("knockknock\n"))
	require.NoError(t, err)

	_, err = sender.Write([]byte(TriggerLine + "\n"))
	require.NoError(t, err)

	// Both subscribers receive it, the sender included, and only once:
	// the ignored line produced nothing.
	expectTrigger(t, receiver, receiverReader)
	expectTrigger(t, sender, senderReader)
}

// TestServer_DisconnectLeavesOthersAlone verifies one connection's loss has
// no effect on the remaining peers or the listener.
func TestServer_DisconnectLeavesOthersAlone(t *testing.T) {
	t.Parallel()

	server, cancel := startServer(t)
	defer cancel()

	leaver, _ := dialPeer(t, server)
	stayer, stayerReader := dialPeer(t, server)

	time.Sleep(100 * time.Millisecond)

	require.NoError(t, leaver.Close())
	time.Sleep(100 * time.Millisecond)

	server.Broadcaster().Trigger()

	expectTrigger(t, stayer, stayerReader)

	// The listener still accepts new peers.
	late, lateReader := dialPeer(t, server)
	time.Sleep(100 * time.Millisecond)

	server.Broadcaster().Trigger()

	expectTrigger(t, late, lateReader)
	expectTrigger(t, stayer, stayerReader)
}
