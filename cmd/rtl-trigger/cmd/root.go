package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/rtl-trigger/internal/logger"
	"github.com/oshokin/rtl-trigger/internal/service/trigger"
	"github.com/oshokin/rtl-trigger/internal/version"
)

var (
	// configPath to the settings YAML file.
	configPath string
	// action is the command run for matching events.
	action string
	// clearEnv starts actions from an empty environment.
	clearEnv bool
	// rtl433Bin is the command used to run the rtl_433 tool.
	rtl433Bin string
	// busyPolicy is the busy policy name.
	busyPolicy string
	// listenAddress enables the notification server.
	listenAddress string
	// notifyOnAction publishes a trigger per started action.
	notifyOnAction bool
	// logLevel sets the minimum level of the global logger.
	logLevel string
	// group, unit, id and channel are the optional filter constraints.
	// Whether each was set is taken from the flag set, so zero is a
	// valid constraint value.
	group, unit, id, channel uint32

	// rootCmd represents the base command running the trigger daemon.
	rootCmd = &cobra.Command{
		Use:   "rtl-trigger [device] [-- action-args...]",
		Short: "Run a command when rtl_433 decodes a matching remote-control event.",
		Long: `Runs the rtl_433 tool, decodes its JSON event stream, filters the events
against the optional group/unit/id/channel constraints and runs the action
command for every match.

The action receives the event as environment variables: TIME, MODEL, GROUP,
UNIT, ID, CHANNEL and STATE ("1" or "0"). Arguments after -- are passed to
the action verbatim. The optional positional argument selects the SDR device
for rtl_433 (-d).

With --listen, a notification server accepts plain-text peer connections and
relays "dingdong" triggers between them; --notify additionally publishes a
trigger for every action started.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			if logLevel != "" {
				if level, ok := logger.ParseLogLevel(logLevel); ok {
					logger.SetLevel(level)
				}
			}

			options := &trigger.Options{
				ConfigPath:     configPath,
				Action:         action,
				ClearEnv:       clearEnv,
				Rtl433Bin:      rtl433Bin,
				BusyPolicy:     busyPolicy,
				ListenAddress:  listenAddress,
				NotifyOnAction: notifyOnAction,
			}

			// Arguments before -- select the device, after -- they belong
			// to the action.
			dash := cmd.ArgsLenAtDash()
			if dash < 0 {
				dash = len(args)
			}

			if dash > 0 {
				options.Device = args[0]
			}

			options.ActionArgs = args[dash:]

			// Zero is a legitimate constraint value, so presence comes
			// from the flag set rather than the value.
			if cmd.Flags().Changed("group") {
				options.Group = &group
			}

			if cmd.Flags().Changed("unit") {
				options.Unit = &unit
			}

			if cmd.Flags().Changed("id") {
				options.ID = &id
			}

			if cmd.Flags().Changed("channel") {
				options.Channel = &channel
			}

			return trigger.Run(ctx, options)
		},
	}
)

// Execute runs the rtl-trigger CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to configuration file")
	rootCmd.Flags().StringVarP(&action, "action", "a", "", "command to run when a matching event is received")
	rootCmd.Flags().BoolVar(&clearEnv, "clear-env", false, "clear the environment of the action process")
	rootCmd.Flags().StringVar(&rtl433Bin, "rtl433-bin", "", "command to run the rtl_433 tool")
	rootCmd.Flags().StringVarP(&busyPolicy, "busy-policy", "b", "", "what to do when actions are still running: allow, skip or kill")
	rootCmd.Flags().StringVarP(&listenAddress, "listen", "l", "", "notification server listen address")
	rootCmd.Flags().BoolVar(&notifyOnAction, "notify", false, "publish a trigger to notification subscribers per action")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "minimum log level: debug, info, warn or error")
	rootCmd.Flags().Uint32VarP(&group, "group", "g", 0, "filter on group")
	rootCmd.Flags().Uint32VarP(&unit, "unit", "u", 0, "filter on unit")
	rootCmd.Flags().Uint32VarP(&id, "id", "i", 0, "filter on ID")
	rootCmd.Flags().Uint32VarP(&channel, "channel", "C", 0, "filter on channel")
}
