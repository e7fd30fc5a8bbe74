// Package parser extracts the command line and the crash traceback from
// invocation log files.
package parser

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"sdkfeedback/internal/model"
)

// ErrMalformedLog is returned when a log file cannot be scanned line by line.
var ErrMalformedLog = errors.New("malformed invocation log")

const (
	// CrashSentinel is the line written right before a crash traceback.
	CrashSentinel = "BEGIN CRASH STACKTRACE"
	// EpilogueMarker starts the "please report this" text that follows a crash.
	EpilogueMarker = "If you would like to report this issue"
	// TracebackHeader is the first line of a Python-style traceback.
	TracebackHeader = "Traceback (most recent call last):"

	// DayDirFormat names the per-day log directories.
	DayDirFormat = "2006.01.02"
	// FileNameFormat names a log file within its day directory.
	FileNameFormat = "15.04.05.000000"
	// LogFileExtension is the suffix of every invocation log.
	LogFileExtension = ".log"
)

var (
	commandPattern   = regexp.MustCompile(`Running \[([^\]]+)\] with arguments:`)
	logPrefixPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2},\d{3} (DEBUG|INFO|WARNING|ERROR|CRITICAL)\b`)
	framePattern     = regexp.MustCompile(`^File ".*", line \d+, in .+$`)
	exceptionPattern = regexp.MustCompile(`^[A-Za-z_][\w.]*(:.*)?$`)
)

// LogParser implements model.Parser for the on-disk log format.
type LogParser struct{}

// New returns a parser for invocation logs.
func New() *LogParser {
	return &LogParser{}
}

// ReadInvocation implements model.Parser.
func (*LogParser) ReadInvocation(path string) (*model.Invocation, error) {
	return ReadInvocation(path)
}

// ReadInvocation opens the log at path and parses it into an Invocation. The
// timestamp comes from the path, not the contents.
func ReadInvocation(path string) (*model.Invocation, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	command, traceback, err := Parse(file)
	if err != nil {
		return nil, err
	}

	ts, _ := TimestampFromPath(path)
	return &model.Invocation{
		Path:      path,
		Timestamp: ts,
		Command:   command,
		Traceback: traceback,
	}, nil
}

// TimestampFromPath derives the invocation time from a
// <YYYY.MM.DD>/<HH.MM.SS.micro>.log path, in local time.
func TimestampFromPath(path string) (time.Time, error) {
	name := filepath.Base(path)
	if !strings.HasSuffix(name, LogFileExtension) {
		return time.Time{}, fmt.Errorf("not a log file: %s", name)
	}
	name = strings.TrimSuffix(name, LogFileExtension)
	day := filepath.Base(filepath.Dir(path))

	ts, err := time.ParseInLocation(DayDirFormat+" "+FileNameFormat, day+" "+name, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse log timestamp: %w", err)
	}
	return ts, nil
}

// Parse scans log contents for the command marker and the first crash
// traceback. Either may be empty.
func Parse(r io.Reader) (command, traceback string, err error) {
	scanner := newScanner(r)

	var (
		sawSentinel bool
		tb          tracebackScanner
	)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")

		if command == "" {
			if m := commandPattern.FindStringSubmatch(line); m != nil {
				command = formatCommand(m[1])
			}
		}

		switch {
		case !sawSentinel:
			sawSentinel = line == CrashSentinel
		case !tb.done:
			tb.feed(line)
		case command != "":
			// Both pieces found; nothing else to learn from the file.
			return command, tb.result(), nil
		}
	}

	if err := scanner.Err(); err != nil {
		return "", "", fmt.Errorf("%w: scan log: %v", ErrMalformedLog, err)
	}

	return command, tb.result(), nil
}

// formatCommand turns the dotted command path written by the tool
// (gcloud.auth.list) into the command line a user typed.
func formatCommand(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.ContainsAny(raw, " \t") {
		return raw
	}
	return strings.ReplaceAll(raw, ".", " ")
}

type tracebackState int

const (
	stateHeader tracebackState = iota
	stateFrames
	stateException
)

// tracebackScanner collects the lines of one traceback. Any line that does
// not fit the traceback shape ends it.
type tracebackScanner struct {
	state     tracebackState
	lines     []string
	sawFrame  bool
	exception string
	done      bool
}

func (t *tracebackScanner) feed(line string) {
	if t.done {
		return
	}
	if logPrefixPattern.MatchString(line) || strings.Contains(line, EpilogueMarker) {
		t.done = true
		return
	}

	trimmed := strings.TrimSpace(line)
	indented := trimmed != "" && (line[0] == ' ' || line[0] == '\t')

	switch t.state {
	case stateHeader:
		t.state = stateFrames
		if trimmed == TracebackHeader {
			t.lines = append(t.lines, line)
			return
		}
		t.feedFrame(line, trimmed, indented)
	case stateFrames:
		t.feedFrame(line, trimmed, indented)
	case stateException:
		// Only indented lines continue the exception message.
		if !indented {
			t.done = true
			return
		}
		t.lines = append(t.lines, line)
	}
}

func (t *tracebackScanner) feedFrame(line, trimmed string, indented bool) {
	switch {
	case framePattern.MatchString(trimmed):
		t.sawFrame = true
		t.lines = append(t.lines, line)
	case t.sawFrame && indented:
		t.lines = append(t.lines, line)
	case t.sawFrame && trimmed != "":
		t.exception = trimmed
		t.lines = append(t.lines, line)
		t.state = stateException
	default:
		t.done = true
	}
}

// result returns the collected traceback, or "" when the body was not a
// well-formed traceback.
func (t *tracebackScanner) result() string {
	if !t.sawFrame || t.exception == "" || !exceptionPattern.MatchString(t.exception) {
		return ""
	}
	return strings.TrimRight(strings.Join(t.lines, "\n"), " \t\n")
}

func newScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	// Crash traces can carry very long exception messages.
	const maxCapacity = 8 * 1024 * 1024
	buf := make([]byte, 1024)
	scanner.Buffer(buf, maxCapacity)
	return scanner
}
