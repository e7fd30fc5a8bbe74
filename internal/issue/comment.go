// Package issue assembles the body of a new bug report and fits it into the
// issue tracker's URL length limit.
package issue

import (
	"fmt"
	"strings"

	"sdkfeedback/internal/model"
	"sdkfeedback/internal/traceback"
)

const preambleTemplate = `WARNING: This is a PUBLIC issue tracker, and as such, anybody can read the
information in the report you file. In order to help diagnose the issue,
we've included some installation information in this report. Please look
through and redact any information you consider personal or sensitive
before submitting this issue.

%sWhat steps will reproduce the problem?


What is the expected output?


What do you see instead?


Please provide any additional information below.


`

const (
	// TraceHeading introduces the formatted crash trace.
	TraceHeading = "Trace:\n"
	// InstallationHeading introduces the installation snapshot.
	InstallationHeading = "Installation information:"
)

// Comment is an issue body together with the parts it was built from.
type Comment struct {
	// PreStacktrace is everything before the trace section: the warning, the
	// command line and the prompts the user fills in.
	PreStacktrace string
	// Stacktrace is the formatted trace without the exception line.
	Stacktrace string
	Exception  string
	// Snapshot is the installation information, trimmed.
	Snapshot string
	// Body is the full text sent to the tracker.
	Body string
}

// HasTrace reports whether the comment carries a crash trace.
func (c Comment) HasTrace() bool {
	return c.Stacktrace != ""
}

// NewComment builds the issue body for the selected invocation, which may be
// nil.
func NewComment(snapshot string, inv *model.Invocation, opts traceback.Options) Comment {
	command := ""
	if inv != nil && inv.Command != "" {
		command = fmt.Sprintf("Issue running command [%s].\n\n", inv.Command)
	}

	c := Comment{
		PreStacktrace: fmt.Sprintf(preambleTemplate, command),
		Snapshot:      strings.TrimSpace(snapshot),
	}
	if inv != nil && inv.HasTraceback() {
		c.Stacktrace, c.Exception = traceback.Format(inv.Traceback, opts)
	}
	c.Body = c.PreStacktrace + traceSection(c.Stacktrace, c.Exception) + snapshotSection(c.Snapshot)
	return c
}

func traceSection(stack, exception string) string {
	if stack == "" {
		return ""
	}
	return TraceHeading + stack + exception
}

func snapshotSection(snapshot string) string {
	return "\n\n" + InstallationHeading + "\n\n" + snapshot
}
