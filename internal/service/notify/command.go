package notify

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/oshokin/rtl-trigger/internal/cancelable"
	"github.com/oshokin/rtl-trigger/internal/config"
	"github.com/oshokin/rtl-trigger/internal/logger"
	"github.com/oshokin/rtl-trigger/internal/service/notifier"
)

// Options controls the companion client.
type Options struct {
	// Address is the notification server address.
	Address string
	// Send publishes one trigger on connect.
	Send bool
	// Watch keeps the connection open and prints incoming triggers.
	Watch bool
	// Timeout bounds the connection attempt.
	Timeout time.Duration
}

// errAddressRequired is returned when no server address is provided.
var errAddressRequired = errors.New("server address must be provided")

// Run connects to a notification server, optionally sends a trigger, and
// optionally watches for triggers until the context is cancelled or the
// server disconnects.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "rtl-trigger-notify")

	if opts.Address == "" {
		return errAddressRequired
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = config.DefaultTimeout
	}

	dialer := net.Dialer{Timeout: timeout}

	conn, err := dialer.DialContext(ctx, "tcp", opts.Address)
	if err != nil {
		return fmt.Errorf("dial notification server: %w", err)
	}

	defer func() {
		_ = conn.Close()
	}()

	if opts.Send {
		if _, err := conn.Write([]byte(notifier.TriggerLine + "\n")); err != nil {
			return fmt.Errorf("send trigger: %w", err)
		}

		logger.InfoKV(ctx, "Trigger sent", "server", opts.Address)
	}

	if !opts.Watch {
		return nil
	}

	logger.InfoKV(ctx, "Watching for triggers", "server", opts.Address)

	// The watch loop blocks in socket reads; wrapping it lets an OS signal
	// stop the wait while the deferred close tears the connection down.
	watch, handle := cancelable.New(func() (struct{}, error) {
		return struct{}{}, watchLoop(ctx, conn)
	})

	go func() {
		<-ctx.Done()
		handle.Cancel()
	}()

	if _, err := watch.Await(); err != nil {
		if errors.Is(err, cancelable.ErrCancelled) {
			logger.Info(ctx, "Shutdown requested, disconnecting")
			return nil
		}

		return err
	}

	logger.Info(ctx, "Server closed the connection")

	return nil
}

// watchLoop prints a line per received trigger until the connection ends.
func watchLoop(ctx context.Context, conn net.Conn) error {
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		if scanner.Text() != notifier.TriggerLine {
			continue
		}

		logger.Debug(ctx, "Trigger received")
		fmt.Fprintln(os.Stdout, notifier.TriggerLine)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read from server: %w", err)
	}

	return nil
}
