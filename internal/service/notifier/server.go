package notifier

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/google/uuid"

	"github.com/oshokin/rtl-trigger/internal/logger"
)

// TriggerLine is the only recognized token of the notification protocol,
// both inbound and outbound.
const TriggerLine = "dingdong"

// Server accepts peer connections and relays triggers between them and the
// fan-out hub. Each connection gets an independent read loop and write loop;
// losing one connection has no effect on the others or on the listener.
type Server struct {
	// listener is the accepting socket.
	listener net.Listener
	// hub is the shared fan-out channel.
	hub *Hub
}

// NewServer wraps an already-bound listener.
func NewServer(listener net.Listener) *Server {
	return &Server{
		listener: listener,
		hub:      NewHub(),
	}
}

// Listen binds a TCP listener on the address and wraps it in a server.
// A bind failure is fatal for the caller.
func Listen(ctx context.Context, address string) (*Server, error) {
	lc := net.ListenConfig{}

	listener, err := lc.Listen(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", address, err)
	}

	return NewServer(listener), nil
}

// Addr returns the bound listener address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Broadcaster returns the injection point for internal producers.
func (s *Server) Broadcaster() *Broadcaster {
	return &Broadcaster{hub: s.hub}
}

// Serve accepts connections until the context ends or the listener fails.
func (s *Server) Serve(ctx context.Context) error {
	// Closing the listener unblocks Accept on shutdown.
	go func() {
		<-ctx.Done()
		_ = s.listener.Close()
	}()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				logger.Info(ctx, "Notification server stopped")
				return nil
			}

			return fmt.Errorf("accept: %w", err)
		}

		s.handle(ctx, conn)
	}
}

// handle splits an accepted connection into its read and write loops. The
// subscription is taken here, at accept time, so the write side only sees
// messages published afterwards.
func (s *Server) handle(ctx context.Context, conn net.Conn) {
	ctx = logger.WithKV(ctx, "conn_id", uuid.NewString())
	peer := conn.RemoteAddr().String()

	logger.InfoKV(ctx, "Peer connected", "peer", peer)

	connCtx, cancel := context.WithCancel(ctx)
	sub := s.hub.Subscribe()

	// Either loop ending tears down the whole connection, nothing else.
	go func() {
		<-connCtx.Done()
		sub.Close()
		_ = conn.Close()
	}()

	go func() {
		defer cancel()

		s.readLoop(connCtx, conn, peer)

		logger.InfoKV(connCtx, "Peer disconnected", "peer", peer)
	}()

	go func() {
		defer cancel()

		s.writeLoop(connCtx, conn, sub)
	}()
}

// readLoop publishes a peer-tagged message for every recognized trigger
// line. Unrecognized lines are ignored.
func (s *Server) readLoop(ctx context.Context, conn net.Conn, peer string) {
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		if scanner.Text() != TriggerLine {
			continue
		}

		logger.InfoKV(ctx, "Trigger received from peer", "peer", peer)
		s.hub.Publish(Message{Peer: peer})
	}
}

// writeLoop forwards every fan-out message to the peer as a trigger line.
// A lagging subscription resynchronizes and keeps going; only an I/O error
// or teardown ends the loop.
func (s *Server) writeLoop(ctx context.Context, conn net.Conn, sub *Subscription) {
	w := bufio.NewWriter(conn)

	for {
		m, err := sub.Recv(ctx)

		var lagged *LaggedError

		switch {
		case errors.As(err, &lagged):
			logger.WarnKV(ctx, "Subscriber fell behind, resynchronizing", "dropped", lagged.Count)
			continue
		case err != nil:
			return
		}

		logger.DebugKV(ctx, "Relaying trigger", "internal", m.Internal())

		if _, err := w.WriteString(TriggerLine + "\n"); err != nil {
			return
		}

		if err := w.Flush(); err != nil {
			return
		}
	}
}
