// Package logger configures the process-wide slog logger. Records go to
// stderr at the configured verbosity and, at debug level, to the run's own
// invocation log under the logs directory.
package logger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"sdkfeedback/internal/parser"
)

// LevelCritical sits above slog.LevelError.
const LevelCritical = slog.Level(12)

// levelNone disables a sink.
const levelNone = slog.Level(1 << 10)

var (
	mu     sync.Mutex
	logger *slog.Logger
	closer io.Closer
)

// Config holds logger configuration.
type Config struct {
	// Verbosity is one of debug, info, warning, error, critical, none.
	Verbosity string
	// Stderr receives the console records. Nil means os.Stderr.
	Stderr io.Writer
	// LogsDir is where the invocation log is created. Empty disables it.
	LogsDir string
	// Command names the running command, e.g. "sdkfeedback.feedback".
	Command string
	Args    []string
	// Now stamps the log file name. Nil means time.Now.
	Now func() time.Time
}

// ParseLevel maps a verbosity name to a slog level.
func ParseLevel(verbosity string) (slog.Level, error) {
	switch strings.ToLower(verbosity) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "", "warning", "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	case "critical":
		return LevelCritical, nil
	case "none":
		return levelNone, nil
	default:
		return 0, fmt.Errorf("unknown verbosity %q", verbosity)
	}
}

// Init installs the global logger and returns the path of the invocation log
// it writes, or "" when file logging is disabled. Calling Init again closes
// the previous invocation log.
func Init(cfg Config) (string, error) {
	level, err := ParseLevel(cfg.Verbosity)
	if err != nil {
		return "", err
	}
	stderr := cfg.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	handlers := fanout{slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})}

	var path string
	var file *os.File
	if cfg.LogsDir != "" {
		path, file, err = createLogFile(cfg.LogsDir, now())
		if err != nil {
			return "", err
		}
		handlers = append(handlers, NewFileHandler(file, "root", slog.LevelDebug))
	}

	l := slog.New(handlers)

	mu.Lock()
	if closer != nil {
		closer.Close() //nolint:errcheck
	}
	logger = l
	closer = nil
	if file != nil {
		closer = file
	}
	mu.Unlock()
	slog.SetDefault(l)

	if cfg.Command != "" {
		l.Debug(RunningLine(cfg.Command, cfg.Args))
	}
	return path, nil
}

// Get returns the global logger.
func Get() *slog.Logger {
	mu.Lock()
	defer mu.Unlock()
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	}
	return logger
}

// Close flushes and closes the invocation log, if any.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if closer == nil {
		return nil
	}
	err := closer.Close()
	closer = nil
	return err
}

// RunningLine is the first record of every invocation log; the parser reads
// the command back from it.
func RunningLine(command string, args []string) string {
	quoted := make([]string, len(args))
	for i, arg := range args {
		quoted[i] = strconv.Quote(arg)
	}
	return fmt.Sprintf("Running [%s] with arguments: [%s]", command, strings.Join(quoted, ", "))
}

func createLogFile(root string, ts time.Time) (string, *os.File, error) {
	dir := filepath.Join(root, ts.Format(parser.DayDirFormat))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", nil, fmt.Errorf("create logs directory: %w", err)
	}
	path := filepath.Join(dir, ts.Format(parser.FileNameFormat)+parser.LogFileExtension)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return "", nil, fmt.Errorf("create log file: %w", err)
	}
	return path, file, nil
}

// fanout hands each record to every handler that accepts its level.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f {
		if h.Enabled(ctx, r.Level) {
			errs = append(errs, h.Handle(ctx, r.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}
