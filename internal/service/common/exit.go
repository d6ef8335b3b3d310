//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"fmt"
	"os"
	"syscall"

	"github.com/oshokin/rtl-trigger/internal/logger"
)

// ExitCondition renders the way a process finished, distinguishing a normal
// exit code from death by signal. The second return value is true only for a
// clean zero exit.
func ExitCondition(state *os.ProcessState) (string, bool) {
	if state == nil {
		return "exited with unknown error condition", false
	}

	if status, ok := state.Sys().(syscall.WaitStatus); ok {
		switch {
		case status.Exited() && status.ExitStatus() == 0:
			return "exited successfully", true
		case status.Exited():
			return fmt.Sprintf("exited with status %d", status.ExitStatus()), false
		case status.Signaled():
			return fmt.Sprintf("killed by signal %d", int(status.Signal())), false
		}
	}

	return "exited with unknown error condition", false
}

// LogExitCondition logs how a named collaborator process finished.
// Abnormal conditions are advisory: logged at warning level, never propagated.
func LogExitCondition(ctx context.Context, name string, state *os.ProcessState) {
	condition, clean := ExitCondition(state)
	if clean {
		logger.Debugf(ctx, "%s %s", name, condition)
		return
	}

	logger.Warnf(ctx, "%s %s", name, condition)
}
