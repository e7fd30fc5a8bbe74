// Package traceback compacts Python-style crash traces for inclusion in a
// length-limited issue report.
//
// A trace such as
//
//	Traceback (most recent call last):
//	  File "/opt/sdk/lib/googlecloudsdk/core/run.py", line 12, in Run
//	    result = step.Execute(args)
//	Exception: boom
//
// is rewritten to
//
//	core/run.py:12
//	 result = step.Execute(args)
//
// with the exception line returned separately. Paths written with either
// separator family are understood on any host; output uses the host
// separator unless Options.Separator says otherwise.
package traceback

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

const (
	// DefaultSnippetWidth is the number of characters of source kept per frame.
	DefaultSnippetWidth = 80
	// DefaultToolPackage is the package directory stripped from lib/<pkg>.
	DefaultToolPackage = "googlecloudsdk"

	ellipsis = "..."
)

var framePattern = regexp.MustCompile(`^File "(.*)", line (\d+), in (.+)$`)

// Options tunes the formatter.
type Options struct {
	// SnippetWidth is the maximum source length per frame, in runes.
	SnippetWidth int
	// ToolPackage names the toolkit's own package directory under lib/.
	ToolPackage string
	// Separator is used to join output paths. Zero means the host separator.
	Separator rune
}

func (o Options) withDefaults() Options {
	if o.SnippetWidth <= 0 {
		o.SnippetWidth = DefaultSnippetWidth
	}
	if o.ToolPackage == "" {
		o.ToolPackage = DefaultToolPackage
	}
	if o.Separator == 0 {
		o.Separator = filepath.Separator
	}
	return o
}

// Frame is one entry of a traceback.
type Frame struct {
	Path     string
	Line     string
	Function string
	Source   string
}

// Parse splits a raw traceback into frames and the trailing exception text.
// ok is false when no frame could be found.
func Parse(raw string) (frames []Frame, exception string, ok bool) {
	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")

	var rest []string
	for i := 0; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if m := framePattern.FindStringSubmatch(trimmed); m != nil {
			frame := Frame{Path: m[1], Line: m[2], Function: m[3]}
			// The source line and any caret markers are indented.
			for i+1 < len(lines) && isIndented(lines[i+1]) && !framePattern.MatchString(strings.TrimSpace(lines[i+1])) {
				i++
				if frame.Source == "" {
					frame.Source = strings.TrimSpace(lines[i])
				}
			}
			frames = append(frames, frame)
			rest = nil
			continue
		}
		if len(frames) > 0 {
			rest = append(rest, lines[i])
		}
	}

	if len(frames) == 0 {
		return nil, "", false
	}
	return frames, strings.TrimSpace(strings.Join(rest, "\n")), true
}

// Format compacts raw into "<path>:<line>\n <source>\n" entries and returns
// the exception line separately. Text without frames is returned unchanged,
// which makes formatting an already formatted trace a no-op.
func Format(raw string, opts Options) (stack, exception string) {
	opts = opts.withDefaults()

	frames, exception, ok := Parse(raw)
	if !ok {
		return raw, ""
	}

	rawPaths := make([]string, len(frames))
	for i, f := range frames {
		rawPaths[i] = f.Path
	}
	paths := shortenPaths(rawPaths, opts)

	var b strings.Builder
	for i, f := range frames {
		fmt.Fprintf(&b, "%s:%s\n %s\n", paths[i], f.Line, Ellipsize(f.Source, opts.SnippetWidth))
	}
	return b.String(), exception
}

// Ellipsize cuts s to width runes and marks the cut.
func Ellipsize(s string, width int) string {
	runes := []rune(s)
	if width <= 0 || len(runes) <= width {
		return s
	}
	return string(runes[:width]) + ellipsis
}

// Frames splits a formatted stack into its two-line entries.
func Frames(stack string) []string {
	stack = strings.TrimRight(stack, "\n")
	if stack == "" {
		return nil
	}
	lines := strings.Split(stack, "\n")
	entries := make([]string, 0, (len(lines)+1)/2)
	for i := 0; i < len(lines); i += 2 {
		end := min(i+2, len(lines))
		entries = append(entries, strings.Join(lines[i:end], "\n"))
	}
	return entries
}

func isIndented(line string) bool {
	return strings.TrimSpace(line) != "" && (line[0] == ' ' || line[0] == '\t')
}
