package trigger

import (
	"context"
	"errors"
	"fmt"

	"github.com/oshokin/rtl-trigger/internal/cancelable"
	"github.com/oshokin/rtl-trigger/internal/config"
	"github.com/oshokin/rtl-trigger/internal/domain/event"
	"github.com/oshokin/rtl-trigger/internal/logger"
	"github.com/oshokin/rtl-trigger/internal/service/common"
	"github.com/oshokin/rtl-trigger/internal/service/decoder"
	"github.com/oshokin/rtl-trigger/internal/service/notifier"
	"github.com/oshokin/rtl-trigger/internal/service/supervisor"
)

// Options are the daemon's command-line inputs. Set fields override the
// corresponding settings-file values.
type Options struct {
	// ConfigPath is the optional path to the settings YAML file.
	ConfigPath string
	// Action is the command to run when a matching event is received.
	Action string
	// ActionArgs are extra arguments passed to the action command.
	ActionArgs []string
	// ClearEnv starts actions from an empty environment.
	ClearEnv bool
	// Rtl433Bin is the command used to run the rtl_433 tool.
	Rtl433Bin string
	// Device is the optional SDR device selector.
	Device string
	// Group, Unit, ID and Channel are the optional filter constraints.
	Group, Unit, ID, Channel *uint32
	// BusyPolicy is the busy policy name: allow, skip or kill.
	BusyPolicy string
	// ListenAddress enables the notification server when non-empty.
	ListenAddress string
	// NotifyOnAction publishes a trigger for every action started.
	NotifyOnAction bool
	// MarkerPath overrides the instance marker location, mostly for tests.
	MarkerPath string
}

// Run is the daemon entry point: it wires the decoder, the supervisor and
// the optional notification server together and consumes events until the
// stream ends, a fatal error occurs, or the context is cancelled.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "rtl-trigger")

	cfg, err := buildConfig(opts)
	if err != nil {
		return err
	}

	policy, err := supervisor.ParsePolicy(cfg.BusyPolicy)
	if err != nil {
		return err
	}

	release, err := common.AcquireInstanceLock(ctx, opts.MarkerPath)
	if err != nil {
		return err
	}

	defer release()

	supervisorOpts := &supervisor.Options{
		Action:   cfg.Action,
		Args:     cfg.ActionArgs,
		ClearEnv: cfg.ClearEnv,
		Policy:   policy,
	}

	if cfg.ListenAddress != "" {
		server, err := notifier.Listen(ctx, cfg.ListenAddress)
		if err != nil {
			return err
		}

		logger.InfoKV(ctx, "Notification server listening", "listen_address", server.Addr().String())

		go func() {
			if err := server.Serve(ctx); err != nil {
				logger.ErrorKV(ctx, "Notification server failed", "error", err)
			}
		}()

		if cfg.NotifyOnAction {
			supervisorOpts.Notifier = server.Broadcaster()
		}
	}

	sup := supervisor.New(supervisorOpts)
	defer sup.Shutdown(ctx)

	dec := decoder.New(&decoder.Options{
		Binary: cfg.Rtl433Bin,
		Device: cfg.Device,
		Filter: filterFromConfig(cfg),
	})

	if err := dec.Start(ctx); err != nil {
		return err
	}

	defer dec.Close(ctx)

	logger.InfoKV(ctx, "Watching for events",
		"action", cfg.Action,
		"busy_policy", cfg.BusyPolicy,
		"clear_env", cfg.ClearEnv)

	// The stream blocks in pipe reads; wrapping it lets an OS signal stop
	// the wait while the deferred cleanup tears the decoder down.
	pipeline, handle := cancelable.New(func() (struct{}, error) {
		return struct{}{}, dec.Stream(ctx, sup.Submit)
	})

	go func() {
		<-ctx.Done()
		handle.Cancel()
	}()

	if _, err := pipeline.Await(); err != nil {
		if errors.Is(err, cancelable.ErrCancelled) {
			logger.Info(ctx, "Shutdown requested, stopping pipeline")
			return nil
		}

		return fmt.Errorf("event pipeline: %w", err)
	}

	logger.Info(ctx, "Decoder stream ended")

	return nil
}

// buildConfig loads the settings file (when configured), merges the
// command-line overrides in, and validates the result.
func buildConfig(opts *Options) (*config.Config, error) {
	var cfg *config.Config

	if opts.ConfigPath != "" {
		loaded, err := config.Load(opts.ConfigPath)
		if err != nil {
			return nil, err
		}

		cfg = loaded
	} else {
		cfg = config.Default()
	}

	if opts.Action != "" {
		cfg.Action = opts.Action
	}

	if len(opts.ActionArgs) > 0 {
		cfg.ActionArgs = opts.ActionArgs
	}

	if opts.ClearEnv {
		cfg.ClearEnv = true
	}

	if opts.Rtl433Bin != "" {
		cfg.Rtl433Bin = opts.Rtl433Bin
	}

	if opts.Device != "" {
		cfg.Device = opts.Device
	}

	if opts.BusyPolicy != "" {
		cfg.BusyPolicy = opts.BusyPolicy
	}

	if opts.ListenAddress != "" {
		cfg.ListenAddress = opts.ListenAddress
	}

	if opts.NotifyOnAction {
		cfg.NotifyOnAction = true
	}

	if opts.Group != nil {
		cfg.Filter.Group = opts.Group
	}

	if opts.Unit != nil {
		cfg.Filter.Unit = opts.Unit
	}

	if opts.ID != nil {
		cfg.Filter.ID = opts.ID
	}

	if opts.Channel != nil {
		cfg.Filter.Channel = opts.Channel
	}

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// filterFromConfig converts the settings filter into the domain predicate.
func filterFromConfig(cfg *config.Config) event.Filter {
	return event.Filter{
		Group:   cfg.Filter.Group,
		Unit:    cfg.Filter.Unit,
		ID:      cfg.Filter.ID,
		Channel: cfg.Filter.Channel,
	}
}
