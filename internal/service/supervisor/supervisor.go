package supervisor

import (
	"context"
	"os"
	"os/exec"
	"sync"

	"github.com/oshokin/rtl-trigger/internal/domain/event"
	"github.com/oshokin/rtl-trigger/internal/logger"
	"github.com/oshokin/rtl-trigger/internal/service/common"
)

// Notifier publishes a trigger to notification subscribers. The supervisor
// only needs the one operation, so the notification subsystem stays
// structurally decoupled.
type Notifier interface {
	Trigger()
}

// Options controls which action command the supervisor runs and how.
type Options struct {
	// Action is the command run in response to a forwarded event.
	Action string
	// Args are extra arguments passed to the action command.
	Args []string
	// ClearEnv starts actions from an empty environment instead of the
	// daemon's ambient one.
	ClearEnv bool
	// Policy is the busy policy, fixed for the supervisor's lifetime.
	Policy Policy
	// Notifier, when non-nil, receives a trigger for every action started.
	Notifier Notifier
}

// action is the in-flight completion watcher handle for one running process.
type action struct {
	// process is the spawned action process.
	process *os.Process
	// done is closed once the watcher has reaped the process and released
	// its map entry.
	done chan struct{}
}

// Supervisor starts, tracks and terminates action processes. The running
// map, keyed by pid, is the single source of truth for which actions are
// in flight and is only touched under the mutex, never across a wait.
type Supervisor struct {
	// opts are the construction options.
	opts *Options
	// mu guards running.
	mu sync.Mutex
	// running maps pid to the completion watcher handle of that action.
	running map[int]*action
}

// New creates a supervisor for the provided options.
func New(opts *Options) *Supervisor {
	return &Supervisor{
		opts:    opts,
		running: make(map[int]*action),
	}
}

// Submit decides whether and how to run an action for the event, per the
// busy policy. It returns once the decision and any required termination of
// prior actions have completed; the new action itself is fire-and-forget.
func (s *Supervisor) Submit(ctx context.Context, e *event.Event) error {
	switch s.opts.Policy {
	case PolicySkipIfBusy:
		if n := s.Running(); n > 0 {
			logger.InfoKV(ctx, "Actions still running, skipping event", "running", n, "event", e.String())
			return nil
		}
	case PolicyKillBusyThenRun:
		s.drain(ctx)
	case PolicyAllow:
	}

	s.start(ctx, e)

	return nil
}

// Running returns the number of actions currently tracked.
func (s *Supervisor) Running() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.running)
}

// Pids returns the pids of the actions currently tracked.
func (s *Supervisor) Pids() []int {
	s.mu.Lock()
	defer s.mu.Unlock()

	pids := make([]int, 0, len(s.running))
	for pid := range s.running {
		pids = append(pids, pid)
	}

	return pids
}

// Shutdown terminates and reaps every running action. Used for best-effort
// cleanup when the pipeline unwinds.
func (s *Supervisor) Shutdown(ctx context.Context) {
	s.drain(ctx)
}

// drain repeatedly removes one arbitrary entry, kills it and awaits its
// watcher until the map is empty. The selection order among running actions
// is unspecified. The entry is removed before the wait so the mutex is
// never held across it.
func (s *Supervisor) drain(ctx context.Context) {
	for {
		s.mu.Lock()

		var (
			pid   int
			a     *action
			found bool
		)

		for pid, a = range s.running {
			found = true
			break
		}

		if !found {
			s.mu.Unlock()
			return
		}

		delete(s.running, pid)
		s.mu.Unlock()

		logger.InfoKV(ctx, "Terminating busy action", "pid", pid)

		_ = a.process.Kill()
		<-a.done
	}
}

// start spawns the action process and registers its completion watcher.
// Spawn failures are recoverable: logged, no map entry, the pipeline
// continues with the next event.
func (s *Supervisor) start(ctx context.Context, e *event.Event) {
	//nolint:gosec // The action command is operator-configured on purpose.
	cmd := exec.Command(s.opts.Action, s.opts.Args...)
	cmd.Env = e.Environ(s.opts.ClearEnv)

	if err := cmd.Start(); err != nil {
		logger.ErrorKV(ctx, "Unable to run action", "action", s.opts.Action, "event", e.String(), "error", err)
		return
	}

	if cmd.Process == nil {
		// The process keeps running unsupervised. Known limitation:
		// without a pid there is nothing to track or terminate.
		logger.ErrorKV(ctx, "No pid for spawned action", "action", s.opts.Action, "event", e.String())
		return
	}

	pid := cmd.Process.Pid

	s.mu.Lock()

	if _, exists := s.running[pid]; exists {
		s.mu.Unlock()
		// A tracked pid can only repeat if removal never happened.
		// That breaks the lifecycle assumption, so abort.
		logger.PanicKV(ctx, "Action pid already tracked", "pid", pid)
	}

	a := &action{
		process: cmd.Process,
		done:    make(chan struct{}),
	}
	s.running[pid] = a
	s.mu.Unlock()

	go s.watch(ctx, pid, cmd, a)

	logger.InfoKV(ctx, "Action started", "action", s.opts.Action, "pid", pid, "event", e.String())

	if s.opts.Notifier != nil {
		s.opts.Notifier.Trigger()
	}
}

// watch reaps the action process, logs its exit condition and releases the
// map entry unless the kill-busy drain already claimed it.
func (s *Supervisor) watch(ctx context.Context, pid int, cmd *exec.Cmd, a *action) {
	_ = cmd.Wait()

	common.LogExitCondition(ctx, "action", cmd.ProcessState)

	s.mu.Lock()
	if tracked, ok := s.running[pid]; ok && tracked == a {
		delete(s.running, pid)
	}
	s.mu.Unlock()

	close(a.done)
}
