// Package selector picks the invocation a bug report is about.
package selector

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"sdkfeedback/internal/console"
	"sdkfeedback/internal/model"
)

// ErrAborted is returned when the user leaves the prompt without choosing.
var ErrAborted = errors.New("selection aborted")

// UnknownAge is shown for records whose time could not be determined.
const UnknownAge = "Unknown time"

var ageMagnitudes = []humanize.RelTimeMagnitude{
	{D: time.Second, Format: "just now", DivBy: time.Second},
	{D: 2 * time.Second, Format: "1 second %s", DivBy: 1},
	{D: time.Minute, Format: "%d seconds %s", DivBy: time.Second},
	{D: 2 * time.Minute, Format: "1 minute %s", DivBy: 1},
	{D: time.Hour, Format: "%d minutes %s", DivBy: time.Minute},
	{D: 2 * time.Hour, Format: "1 hour %s", DivBy: 1},
	{D: humanize.Day, Format: "%d hours %s", DivBy: time.Hour},
	{D: 2 * humanize.Day, Format: "1 day %s", DivBy: 1},
	{D: math.MaxInt64, Format: "%d days %s", DivBy: humanize.Day},
}

// Age renders how long before now ts was, e.g. "2 hours ago".
func Age(ts, now time.Time) string {
	if ts.IsZero() {
		return UnknownAge
	}
	return humanize.CustomRelTime(ts, now, "ago", "from now", ageMagnitudes)
}

var (
	numberStyle = lipgloss.NewStyle().Bold(true)
	crashStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	ageStyle    = lipgloss.NewStyle().Faint(true)
)

// Selector chooses a record, either from an explicit file or by prompting.
type Selector struct {
	// Prompter reads the choice and receives the menu and warnings.
	Prompter *console.Prompter
	// Interactive enables the menu. Without it no record is chosen.
	Interactive bool
	// Read loads an explicitly requested log file.
	Read func(path string) (*model.Invocation, error)
	Now  func() time.Time
	// Color styles the menu.
	Color bool
	// CLIName names the tool in the prompt, e.g. "gcloud".
	CLIName string
}

// Select returns the record to report on, or nil for none. A readable
// override wins without prompting; an unreadable one is reported and
// ignored.
func (s *Selector) Select(records []*model.Invocation, override string) (*model.Invocation, error) {
	if override != "" {
		inv, err := s.Read(override)
		if err == nil {
			return inv, nil
		}
		fmt.Fprintf(s.out(), "warning: Error reading the specified file [%s]: %v\n\n", override, err)
	}

	if !s.Interactive || len(records) == 0 {
		return nil, nil
	}

	choice, err := s.prompt(records)
	if err != nil {
		return nil, err
	}
	if choice == len(records) {
		return nil, nil
	}
	return records[choice], nil
}

// prompt shows the menu and returns the zero-based choice. len(records)
// stands for "None of these".
func (s *Selector) prompt(records []*model.Invocation) (int, error) {
	out := s.out()
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}

	name := s.CLIName
	if name != "" {
		name += " "
	}
	fmt.Fprintf(out, "Which recent %sinvocation would you like to provide feedback about?\n", name)
	for i, inv := range records {
		fmt.Fprintf(out, " %s %s\n", s.style(numberStyle, "["+strconv.Itoa(i+1)+"]"), s.describe(inv, now()))
	}
	fmt.Fprintf(out, " %s None of these\n", s.style(numberStyle, "["+strconv.Itoa(len(records)+1)+"]"))

	for {
		answer, err := s.Prompter.Ask("Please enter your numeric choice (1):  ")
		if err != nil {
			if errors.Is(err, console.ErrNoInput) {
				return 0, ErrAborted
			}
			return 0, err
		}
		if answer == "" {
			return 0, nil
		}
		n, err := strconv.Atoi(answer)
		if err == nil && n >= 1 && n <= len(records)+1 {
			return n - 1, nil
		}
		fmt.Fprintf(out, "Please enter a value between 1 and %d:\n", len(records)+1)
	}
}

// describe renders "[<command>] (crash detected): <age>".
func (s *Selector) describe(inv *model.Invocation, now time.Time) string {
	crash := ""
	if inv.HasTraceback() {
		crash = " " + s.style(crashStyle, "(crash detected)")
	}
	command := inv.Command
	if command == "" {
		command = "unknown command"
	}
	var age string
	if inv.HasTimestamp() {
		age = Age(inv.Timestamp, now)
	} else {
		age = UnknownAge
	}
	return fmt.Sprintf("[%s]%s: %s", command, crash, s.style(ageStyle, age))
}

func (s *Selector) style(st lipgloss.Style, text string) string {
	if !s.Color {
		return text
	}
	return st.Render(text)
}

func (s *Selector) out() io.Writer {
	if s.Prompter == nil {
		return io.Discard
	}
	return s.Prompter.Out()
}
