package selector

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sdkfeedback/internal/console"
	"sdkfeedback/internal/model"
)

var now = time.Date(1970, 1, 2, 11, 0, 0, 0, time.Local)

func records() []*model.Invocation {
	var out []*model.Invocation
	for hour := 9; hour >= 5; hour-- {
		inv := &model.Invocation{
			Path:      "/logs/1970.01.02/" + time.Date(1970, 1, 2, hour, 0, 0, 0, time.Local).Format("15.04.05.000000") + ".log",
			Timestamp: time.Date(1970, 1, 2, hour, 0, 0, 0, time.Local),
			Command:   "gcloud auth list",
		}
		if hour != 9 {
			inv.Traceback = "Traceback (most recent call last):\n  File \"a.py\", line 1, in a\n    x()\nException: x"
		}
		out = append(out, inv)
	}
	return out
}

func newSelector(input string, interactive bool) (*Selector, *bytes.Buffer) {
	var out bytes.Buffer
	return &Selector{
		Prompter:    console.NewPrompter(strings.NewReader(input), &out),
		Interactive: interactive,
		Now:         func() time.Time { return now },
		CLIName:     "gcloud",
		Read: func(path string) (*model.Invocation, error) {
			if path == "/good.log" {
				return &model.Invocation{Path: path, Command: "gcloud foo"}, nil
			}
			return nil, errors.New("no such file")
		},
	}, &out
}

func TestSelectMenu(t *testing.T) {
	s, out := newSelector("3\n", true)

	inv, err := s.Select(records(), "")
	require.NoError(t, err)
	assert.Equal(t, records()[2], inv)

	want := strings.Join([]string{
		"Which recent gcloud invocation would you like to provide feedback about?",
		" [1] [gcloud auth list]: 2 hours ago",
		" [2] [gcloud auth list] (crash detected): 3 hours ago",
		" [3] [gcloud auth list] (crash detected): 4 hours ago",
		" [4] [gcloud auth list] (crash detected): 5 hours ago",
		" [5] [gcloud auth list] (crash detected): 6 hours ago",
		" [6] None of these",
		"Please enter your numeric choice (1):  ",
	}, "\n")
	assert.Equal(t, want, out.String())
}

func TestSelectDefaultIsFirst(t *testing.T) {
	s, _ := newSelector("\n", true)

	inv, err := s.Select(records(), "")
	require.NoError(t, err)
	assert.Equal(t, records()[0], inv)
}

func TestSelectNoneOfThese(t *testing.T) {
	s, _ := newSelector("6\n", true)

	inv, err := s.Select(records(), "")
	require.NoError(t, err)
	assert.Nil(t, inv)
}

func TestSelectRepromptsOnInvalidInput(t *testing.T) {
	s, out := newSelector("0\nabc\n7\n2\n", true)

	inv, err := s.Select(records(), "")
	require.NoError(t, err)
	assert.Equal(t, records()[1], inv)
	assert.Equal(t, 3, strings.Count(out.String(), "Please enter a value between 1 and 6:"))
}

func TestSelectAbortOnEOF(t *testing.T) {
	s, _ := newSelector("", true)

	_, err := s.Select(records(), "")
	assert.ErrorIs(t, err, ErrAborted)
}

func TestSelectNonInteractive(t *testing.T) {
	s, out := newSelector("1\n", false)

	inv, err := s.Select(records(), "")
	require.NoError(t, err)
	assert.Nil(t, inv)
	assert.Empty(t, out.String())
}

func TestSelectNoRecords(t *testing.T) {
	s, out := newSelector("1\n", true)

	inv, err := s.Select(nil, "")
	require.NoError(t, err)
	assert.Nil(t, inv)
	assert.Empty(t, out.String())
}

func TestSelectOverride(t *testing.T) {
	s, out := newSelector("", true)

	inv, err := s.Select(records(), "/good.log")
	require.NoError(t, err)
	assert.Equal(t, "gcloud foo", inv.Command)
	assert.Empty(t, out.String())
}

func TestSelectUnreadableOverrideFallsThrough(t *testing.T) {
	s, out := newSelector("2\n", true)

	inv, err := s.Select(records(), "/bad.log")
	require.NoError(t, err)
	assert.Equal(t, records()[1], inv)
	assert.Contains(t, out.String(), "Error reading the specified file [/bad.log]")
	assert.Contains(t, out.String(), "Which recent gcloud invocation")
}

func TestSelectPromptFormat(t *testing.T) {
	current := time.Date(1970, 1, 1, 2, 0, 0, 0, time.Local)
	recs := []*model.Invocation{
		{Command: "gcloud foo", Timestamp: time.Date(1970, 1, 1, 1, 59, 30, 0, time.Local), Traceback: "trace"},
		{Command: "gcloud bar", Timestamp: time.Date(1970, 1, 1, 1, 30, 0, 0, time.Local)},
		{Command: "gcloud baz"},
	}
	s, out := newSelector("4\n", true)
	s.Now = func() time.Time { return current }

	_, err := s.Select(recs, "")
	require.NoError(t, err)
	assert.Contains(t, out.String(), "[gcloud foo] (crash detected): 30 seconds ago")
	assert.Contains(t, out.String(), "[gcloud bar]: 30 minutes ago")
	assert.Contains(t, out.String(), "[gcloud baz]: Unknown time")
}

func TestAge(t *testing.T) {
	cases := map[time.Duration]string{
		0:                "just now",
		time.Second:      "1 second ago",
		45 * time.Second: "45 seconds ago",
		time.Minute:      "1 minute ago",
		time.Hour:        "1 hour ago",
		2 * time.Hour:    "2 hours ago",
		25 * time.Hour:   "1 day ago",
		72 * time.Hour:   "3 days ago",
		-2 * time.Hour:   "2 hours from now",
	}
	for d, want := range cases {
		assert.Equal(t, want, Age(now.Add(-d), now), d.String())
	}
	assert.Equal(t, UnknownAge, Age(time.Time{}, now))
}
