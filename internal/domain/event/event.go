package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
)

// Event is one decoded rtl_433 report. Values are opaque match keys for the
// filter; the timestamp is passed through to actions verbatim.
type Event struct {
	// Time is the decoder-provided timestamp, unparsed.
	Time string
	// Model is the device model reported by the decoder.
	Model string
	// Group is the group code of the transmitter.
	Group uint32
	// Unit is the unit code of the transmitter.
	Unit uint32
	// ID is the device identifier.
	ID uint32
	// Channel is the channel code of the transmitter.
	Channel uint32
	// State is true for "ON" reports and false for "OFF" reports.
	State bool
}

var (
	// ErrMissingField is returned when a required field is absent from a report.
	ErrMissingField = errors.New("missing field")
	// ErrBadState is returned when the state token is neither "ON" nor "OFF".
	ErrBadState = errors.New(`state must be "ON" or "OFF"`)
)

// eventJSON mirrors the decoder's wire format. Pointer fields distinguish
// absent fields from zero values so missing fields can be rejected.
type eventJSON struct {
	Time    *string `json:"time"`
	Model   *string `json:"model"`
	Group   *uint32 `json:"group"`
	Unit    *uint32 `json:"unit"`
	ID      *uint32 `json:"id"`
	Channel *uint32 `json:"channel"`
	State   *string `json:"state"`
}

// Decode parses one line of decoder output into an Event.
// Any unknown shape, missing field, or unrecognized state token is an error.
func Decode(line []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(line, &e); err != nil {
		return nil, err
	}

	return &e, nil
}

// UnmarshalJSON decodes the wire format, rejecting incomplete reports.
func (e *Event) UnmarshalJSON(data []byte) error {
	var raw eventJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	for name, present := range map[string]bool{
		"time":    raw.Time != nil,
		"model":   raw.Model != nil,
		"group":   raw.Group != nil,
		"unit":    raw.Unit != nil,
		"id":      raw.ID != nil,
		"channel": raw.Channel != nil,
		"state":   raw.State != nil,
	} {
		if !present {
			return fmt.Errorf("%w: %s", ErrMissingField, name)
		}
	}

	var state bool

	switch *raw.State {
	case "ON":
		state = true
	case "OFF":
		state = false
	default:
		return fmt.Errorf("%w, got %q", ErrBadState, *raw.State)
	}

	*e = Event{
		Time:    *raw.Time,
		Model:   *raw.Model,
		Group:   *raw.Group,
		Unit:    *raw.Unit,
		ID:      *raw.ID,
		Channel: *raw.Channel,
		State:   state,
	}

	return nil
}

// Environ builds the environment for an action process: the ambient
// environment (or an empty one when clearEnv is set) plus the fixed
// TIME, MODEL, GROUP, UNIT, ID, CHANNEL and STATE variables.
func (e *Event) Environ(clearEnv bool) []string {
	var env []string
	if !clearEnv {
		env = os.Environ()
	}

	state := "0"
	if e.State {
		state = "1"
	}

	return append(env,
		"TIME="+e.Time,
		"MODEL="+e.Model,
		"GROUP="+strconv.FormatUint(uint64(e.Group), 10),
		"UNIT="+strconv.FormatUint(uint64(e.Unit), 10),
		"ID="+strconv.FormatUint(uint64(e.ID), 10),
		"CHANNEL="+strconv.FormatUint(uint64(e.Channel), 10),
		"STATE="+state,
	)
}

// String renders the event for logs.
func (e *Event) String() string {
	state := "OFF"
	if e.State {
		state = "ON"
	}

	return fmt.Sprintf("%s %s group=%d unit=%d id=%d channel=%d state=%s",
		e.Time, e.Model, e.Group, e.Unit, e.ID, e.Channel, state)
}
