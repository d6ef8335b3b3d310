package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/oshokin/rtl-trigger/internal/service/notify"
	"github.com/oshokin/rtl-trigger/internal/version"
)

var (
	// send publishes one trigger on connect.
	send bool
	// watch keeps the connection open and prints incoming triggers.
	watch bool
	// timeout bounds the connection attempt.
	timeout time.Duration

	// rootCmd represents the base command for the notification client.
	rootCmd = &cobra.Command{
		Use:   "rtl-trigger-notify <server-address>",
		Short: "Send a trigger to a running rtl-trigger daemon or watch for triggers.",
		Long: `Connects to the notification server of a running rtl-trigger daemon.

By default one trigger is sent and the client exits. With --watch the
connection stays open and every received trigger is printed as a line on
standard output, which makes the client usable from shell scripts.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &notify.Options{
				Address: args[0],
				Send:    send,
				Watch:   watch,
				Timeout: timeout,
			}

			return notify.Run(ctx, options)
		},
	}
)

// Execute runs the rtl-trigger-notify CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().BoolVar(&send, "send", true, "send a trigger after connecting")
	rootCmd.Flags().BoolVarP(&watch, "watch", "w", false, "keep the connection open and print incoming triggers")
	rootCmd.Flags().DurationVarP(&timeout, "timeout", "t", 0, "connection timeout (default 5s)")
}
