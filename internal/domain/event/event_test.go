package event

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// sampleLine is a verbatim line of rtl_433 JSON output.
const sampleLine = `{"time":"2019-12-11 15:21:51","model":"Proove-Security","id":3,"channel":4,"state":"ON","unit":2,"group":1}`

// TestDecode verifies decoding of a verbatim decoder line.
func TestDecode(t *testing.T) {
	t.Parallel()

	e, err := Decode([]byte(sampleLine))

	require.NoError(t, err)
	require.Equal(t, &Event{
		Time:    "2019-12-11 15:21:51",
		Model:   "Proove-Security",
		Group:   1,
		Unit:    2,
		ID:      3,
		Channel: 4,
		State:   true,
	}, e)
}

// TestDecode_StateTokens verifies the ON/OFF mapping and rejection of other tokens.
func TestDecode_StateTokens(t *testing.T) {
	t.Parallel()

	e, err := Decode([]byte(strings.Replace(sampleLine, `"ON"`, `"OFF"`, 1)))

	require.NoError(t, err)
	require.False(t, e.State)

	_, err = Decode([]byte(strings.Replace(sampleLine, `"ON"`, `"MAYBE"`, 1)))

	require.Error(t, err)
	require.ErrorIs(t, err, ErrBadState)
}

// TestDecode_MissingFields ensures every absent field is rejected.
func TestDecode_MissingFields(t *testing.T) {
	t.Parallel()

	omissions := map[string]string{
		"time":    `"time":"2019-12-11 15:21:51",`,
		"model":   `"model":"Proove-Security",`,
		"id":      `"id":3,`,
		"channel": `"channel":4,`,
		"state":   `"state":"ON",`,
		"unit":    `"unit":2,`,
		"group":   `,"group":1`,
	}

	for name, fragment := range omissions {
		fragment := fragment
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			line := strings.Replace(sampleLine, fragment, "", 1)

			_, err := Decode([]byte(line))

			require.Error(t, err)
			require.ErrorIs(t, err, ErrMissingField)
		})
	}
}

// TestDecode_Garbage ensures non-JSON input is rejected.
func TestDecode_Garbage(t *testing.T) {
	t.Parallel()

	_, err := Decode([]byte("not json at all"))
	require.Error(t, err)
}

// TestEnviron checks the action environment contract.
func TestEnviron(t *testing.T) {
	t.Parallel()

	e := &Event{
		Time:    "2019-12-11 15:21:51",
		Model:   "Proove-Security",
		Group:   1,
		Unit:    2,
		ID:      3,
		Channel: 4,
		State:   true,
	}

	expected := []string{
		"TIME=2019-12-11 15:21:51",
		"MODEL=Proove-Security",
		"GROUP=1",
		"UNIT=2",
		"ID=3",
		"CHANNEL=4",
		"STATE=1",
	}

	// Cleared environment carries only the event variables.
	require.Equal(t, expected, e.Environ(true))

	// Inherited environment ends with the event variables.
	env := e.Environ(false)
	require.GreaterOrEqual(t, len(env), len(expected))
	require.Equal(t, expected, env[len(env)-len(expected):])

	// OFF state maps to "0".
	e.State = false
	require.Contains(t, e.Environ(true), "STATE=0")
}
