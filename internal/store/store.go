// Package store enumerates invocation logs under the logs directory.
//
// The directory layout is <root>/<YYYY.MM.DD>/<HH.MM.SS.micro>.log, so reverse
// lexical order of directory and file names is reverse chronological order
// for every file that follows it.
package store

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"sdkfeedback/internal/model"
	"sdkfeedback/internal/parser"
)

// ErrLogUnavailable is returned when an explicitly requested log file cannot
// be read or parsed.
var ErrLogUnavailable = errors.New("log file unavailable")

// DefaultLimit is the number of recent invocations offered for selection.
const DefaultLimit = 5

var errStop = errors.New("stop iteration")

// ListOptions controls how invocation logs are enumerated.
type ListOptions struct {
	Root string
	// Limit caps the number of records returned. Zero means DefaultLimit.
	Limit int
	// Self is the log file of the running command, excluded from the result.
	Self string
	// SkipNewest excludes the newest timestamped log when Self is empty. Set
	// it when the running command has written a log whose path is unknown.
	SkipNewest bool
	// Logger receives debug records for skipped files. Nil discards them.
	Logger *slog.Logger
}

// ListResult contains invocation records and non-fatal warnings.
type ListResult struct {
	Invocations []*model.Invocation
	Warnings    []error
}

// ListRecent returns the most recent invocations, newest first, excluding the
// running command's own log. Logs whose time cannot be derived from their
// path come after every timestamped one. A missing root yields an empty
// result.
func ListRecent(p model.Parser, opts ListOptions) (ListResult, error) {
	if opts.Root == "" {
		return ListResult{}, errors.New("logs directory is required")
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var (
		result     ListResult
		untimed    []string
		self       = cleanPath(opts.Self)
		skipNewest = self == "" && opts.SkipNewest
	)

	read := func(path string) error {
		inv, err := p.ReadInvocation(path)
		if err != nil {
			logger.Debug("skipping log file", "path", path, "error", err)
			result.Warnings = append(result.Warnings, fmt.Errorf("read %s: %w", path, err))
			return nil
		}
		result.Invocations = append(result.Invocations, inv)
		if len(result.Invocations) >= limit {
			return errStop
		}
		return nil
	}

	err := walkNewestFirst(opts.Root, func(path string) error {
		if self != "" && cleanPath(path) == self {
			return nil
		}
		if _, err := parser.TimestampFromPath(path); err != nil {
			untimed = append(untimed, path)
			return nil
		}
		if skipNewest {
			skipNewest = false
			return nil
		}
		return read(path)
	})
	switch {
	case err == nil:
		for _, path := range untimed {
			if read(path) != nil {
				break
			}
		}
	case !errors.Is(err, errStop):
		return result, err
	}

	sort.SliceStable(result.Invocations, func(i, j int) bool {
		return result.Invocations[i].Before(result.Invocations[j])
	})
	return result, nil
}

// Read parses an explicitly requested log file.
func Read(p model.Parser, path string) (*model.Invocation, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLogUnavailable, path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrLogUnavailable, path)
	}

	inv, err := p.ReadInvocation(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLogUnavailable, path, err)
	}
	return inv, nil
}

// LastLogFile returns the newest log file under root, or "" when there is none.
// A log with an unknown time is returned only when no other log exists.
func LastLogFile(root string) string {
	var last string
	err := walkNewestFirst(root, func(path string) error {
		if last == "" {
			last = path
		}
		if _, err := parser.TimestampFromPath(path); err != nil {
			return nil
		}
		last = path
		return errStop
	})
	if err != nil && !errors.Is(err, errStop) {
		return ""
	}
	return last
}

// walkNewestFirst calls fn for every log file under root, newest first.
// Unreadable day directories are skipped.
func walkNewestFirst(root string, fn func(path string) error) error {
	days, err := sortedEntries(root, true)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read logs directory: %w", err)
	}

	for _, day := range days {
		dayDir := filepath.Join(root, day)
		files, err := sortedEntries(dayDir, false)
		if err != nil {
			continue
		}
		for _, name := range files {
			if !strings.HasSuffix(name, parser.LogFileExtension) {
				continue
			}
			if err := fn(filepath.Join(dayDir, name)); err != nil {
				return err
			}
		}
	}
	return nil
}

// sortedEntries lists the names of directories (dirs=true) or regular files
// in dir, in reverse lexical order.
func sortedEntries(dir string, dirs bool) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() != dirs {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}

func cleanPath(path string) string {
	if path == "" {
		return ""
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
