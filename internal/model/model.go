// Package model provides the records shared by the log store, the selector
// and the issue composer.
package model

import "time"

// Invocation is the parsed view of one prior command-line run, derived from
// its log file.
type Invocation struct {
	// Path of the underlying log file.
	Path string
	// Timestamp is taken from the log file's directory and file name. The
	// zero value means the path did not follow the expected layout.
	Timestamp time.Time
	// Command is the command line recorded in the log, e.g. "gcloud auth list".
	Command string
	// Traceback holds the verbatim crash trace, without the sentinel line.
	Traceback string
}

// HasTimestamp reports whether the timestamp could be derived from the path.
func (i *Invocation) HasTimestamp() bool {
	return !i.Timestamp.IsZero()
}

// HasTraceback reports whether the run crashed.
func (i *Invocation) HasTraceback() bool {
	return i.Traceback != ""
}

// Before orders records newest first; records with unknown time go last.
func (i *Invocation) Before(other *Invocation) bool {
	switch {
	case !i.HasTimestamp():
		return false
	case !other.HasTimestamp():
		return true
	default:
		return i.Timestamp.After(other.Timestamp)
	}
}
