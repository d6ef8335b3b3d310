package supervisor

import (
	"errors"
	"fmt"
	"strings"
)

// Policy decides what happens when an event arrives while actions from
// earlier events are still running. Exactly one policy is active for the
// supervisor's lifetime.
type Policy int

const (
	// PolicyAllow always starts a new action, regardless of running ones.
	PolicyAllow Policy = iota
	// PolicySkipIfBusy drops the event when any action is still running.
	PolicySkipIfBusy
	// PolicyKillBusyThenRun terminates and reaps every running action
	// before starting the new one.
	PolicyKillBusyThenRun
)

// ErrUnknownPolicy is returned by ParsePolicy for unrecognized values.
var ErrUnknownPolicy = errors.New("unknown busy policy")

// ParsePolicy converts the configuration string to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "allow":
		return PolicyAllow, nil
	case "skip":
		return PolicySkipIfBusy, nil
	case "kill":
		return PolicyKillBusyThenRun, nil
	default:
		return PolicyAllow, fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
	}
}

// String renders the policy as its configuration value.
func (p Policy) String() string {
	switch p {
	case PolicyAllow:
		return "allow"
	case PolicySkipIfBusy:
		return "skip"
	case PolicyKillBusyThenRun:
		return "kill"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}
