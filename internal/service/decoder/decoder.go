package decoder

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/oshokin/rtl-trigger/internal/domain/event"
	"github.com/oshokin/rtl-trigger/internal/logger"
	"github.com/oshokin/rtl-trigger/internal/service/common"
)

// fixedArgs selects JSON-line output and the remote-switch protocol the
// trigger understands.
var fixedArgs = []string{"-F", "json", "-M", "newmodel", "-R", "51"}

// Options controls the decoder subprocess and the event filter.
type Options struct {
	// Binary is the command used to run the rtl_433 tool.
	Binary string
	// Device is the optional SDR device selector passed via -d.
	Device string
	// Filter selects which decoded events are forwarded.
	Filter event.Filter
}

// DecodeError is the fatal failure to decode one line of decoder output.
// It carries the collaborator name and the offending line.
type DecodeError struct {
	// Binary is the decoder command that produced the line.
	Binary string
	// Line is the verbatim line that failed to decode.
	Line string
	// Err is the underlying decode failure.
	Err error
}

// Error renders the decode failure with its context.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode output of %s: %v (line: %q)", e.Binary, e.Err, e.Line)
}

// Unwrap exposes the underlying decode failure.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Decoder supervises the rtl_433 subprocess and turns its output stream
// into filtered events.
type Decoder struct {
	// opts are the construction options.
	opts *Options
	// cmd is the running decoder subprocess.
	cmd *exec.Cmd
	// stdout is the pipe carrying the decoder's JSON lines.
	stdout *bufio.Scanner
}

// New prepares a decoder for the provided options. Start must be called
// before Stream.
func New(opts *Options) *Decoder {
	return &Decoder{
		opts: opts,
	}
}

// Start spawns the decoder subprocess. An unspawnable decoder is fatal.
func (d *Decoder) Start(ctx context.Context) error {
	args := append([]string(nil), fixedArgs...)
	if d.opts.Device != "" {
		args = append(args, "-d", d.opts.Device)
	}

	//nolint:gosec // The decoder command is operator-configured on purpose.
	cmd := exec.Command(d.opts.Binary, args...)
	cmd.Stderr = os.Stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("open stdout of %s: %w", d.opts.Binary, err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("run %s: %w", d.opts.Binary, err)
	}

	logger.InfoKV(ctx, "Decoder started", "binary", d.opts.Binary, "args", args, "pid", cmd.Process.Pid)

	d.cmd = cmd
	d.stdout = bufio.NewScanner(stdout)

	return nil
}

// Stream consumes the decoder's output until the stream ends, a line fails
// to decode, or the handler returns an error. Decoded events that pass the
// filter are handed to the handler strictly in arrival order. A decode
// failure means the upstream decoder emitted an unrecognized format and is
// fatal for the whole pipeline.
func (d *Decoder) Stream(ctx context.Context, handle func(context.Context, *event.Event) error) error {
	for d.stdout.Scan() {
		line := d.stdout.Bytes()

		e, err := event.Decode(line)
		if err != nil {
			return &DecodeError{
				Binary: d.opts.Binary,
				Line:   string(line),
				Err:    err,
			}
		}

		if !d.opts.Filter.Matches(e) {
			logger.DebugKV(ctx, "Event filtered out", "event", e.String())
			continue
		}

		logger.InfoKV(ctx, "Event received", "event", e.String())

		if err := handle(ctx, e); err != nil {
			return err
		}
	}

	if err := d.stdout.Err(); err != nil {
		return fmt.Errorf("read output of %s: %w", d.opts.Binary, err)
	}

	return nil
}

// Close terminates the decoder subprocess, reaps it, and logs its exit
// condition. The exit condition is advisory and never propagated.
func (d *Decoder) Close(ctx context.Context) {
	if d.cmd == nil || d.cmd.Process == nil {
		return
	}

	_ = d.cmd.Process.Kill()
	_ = d.cmd.Wait()

	common.LogExitCondition(ctx, d.opts.Binary, d.cmd.ProcessState)
}
