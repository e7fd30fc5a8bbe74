package issue

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"sdkfeedback/internal/traceback"
)

// ErrBudgetExceeded is returned when the budget cannot hold even the
// preamble, the snapshot header and the truncation marker.
var ErrBudgetExceeded = errors.New("issue body budget too small")

const (
	// TruncatedMarker ends a body that lost content.
	TruncatedMarker = "[output truncated]"
	// StacktraceMarker replaces the frames cut from a compressed trace.
	StacktraceMarker = " [...]"
	// FullStacktraceHeading introduces the uncompressed trace in the overflow.
	FullStacktraceHeading = "Full stack trace (formatted):"

	// headerSearchLines bounds the search for the snapshot's platform line.
	headerSearchLines = 5
)

// Packed is a body that fits the budget plus the text that did not fit.
type Packed struct {
	Retained string
	// Overflow is shown to the user for manual inclusion; empty when the
	// whole body fit.
	Overflow string
}

// EncodedLen is the length of s once query-escaped into a URL.
func EncodedLen(s string) int {
	return len(url.QueryEscape(s))
}

// SplitSnapshot separates the header lines (up to and including the
// "Platform:" line, or just the first line) from the rest of the snapshot.
func SplitSnapshot(snapshot string) (header, tail []string) {
	if snapshot == "" {
		return nil, nil
	}
	lines := strings.Split(snapshot, "\n")
	end := 1
	for i := 0; i < len(lines) && i < headerSearchLines; i++ {
		if strings.HasPrefix(lines[i], "Platform:") {
			end = i + 1
			break
		}
	}
	return lines[:end], lines[end:]
}

// MinimumBudget is the smallest budget Pack accepts for c.
func MinimumBudget(c Comment) int {
	p := newPacker(c, 0)
	return EncodedLen(p.critical("")) + p.markerLen
}

// Pack shrinks c to fit budget, measured as URL-encoded length. It degrades
// in order: truncate the snapshot tail, compress the trace, keep only its
// first frame, drop the trace. The preamble and the snapshot header always
// survive.
func Pack(c Comment, budget int) (Packed, error) {
	if need := MinimumBudget(c); budget < need {
		return Packed{}, fmt.Errorf("%w: need at least %d characters, have %d", ErrBudgetExceeded, need, budget)
	}
	if EncodedLen(c.Body) <= budget {
		return Packed{Retained: c.Body}, nil
	}

	p := newPacker(c, budget)

	if retained, dropped, ok := p.fill(p.critical(traceSection(c.Stacktrace, c.Exception))); ok {
		return Packed{Retained: retained, Overflow: snapshotOverflow(dropped)}, nil
	}

	fullTrace := ""
	if c.HasTrace() {
		fullTrace = FullStacktraceHeading + "\n" + c.Stacktrace + c.Exception
		for _, trace := range compressedTraces(c.Stacktrace, c.Exception) {
			if retained, dropped, ok := p.fill(p.critical(trace)); ok {
				return Packed{Retained: retained, Overflow: joinOverflow(fullTrace, snapshotOverflow(dropped))}, nil
			}
		}
	}

	retained, dropped, ok := p.fill(p.critical(""))
	if !ok {
		// Unreachable while the minimum budget check above holds.
		return Packed{}, fmt.Errorf("%w: budget %d", ErrBudgetExceeded, budget)
	}
	return Packed{Retained: retained, Overflow: joinOverflow(fullTrace, snapshotOverflow(dropped))}, nil
}

type packer struct {
	c         Comment
	budget    int
	header    []string
	tail      []string
	markerLen int
}

func newPacker(c Comment, budget int) *packer {
	header, tail := SplitSnapshot(c.Snapshot)
	return &packer{
		c:         c,
		budget:    budget,
		header:    header,
		tail:      tail,
		markerLen: EncodedLen("\n" + TruncatedMarker),
	}
}

// critical is the part of the body that is never cut: the preamble, the
// given trace section and the snapshot header.
func (p *packer) critical(trace string) string {
	return p.c.PreStacktrace + trace + snapshotSection(strings.Join(p.header, "\n"))
}

// fill appends as many snapshot tail lines to critical as fit together with
// the truncation marker. ok is false when critical itself does not fit.
func (p *packer) fill(critical string) (retained string, dropped []string, ok bool) {
	// Query escaping works byte by byte, so encoded lengths add up.
	used := EncodedLen(critical) + p.markerLen
	if used > p.budget {
		return "", nil, false
	}

	kept := 0
	for _, line := range p.tail {
		cost := EncodedLen("\n" + line)
		if used+cost > p.budget {
			break
		}
		used += cost
		kept++
	}

	var b strings.Builder
	b.WriteString(critical)
	for _, line := range p.tail[:kept] {
		b.WriteString("\n")
		b.WriteString(line)
	}
	b.WriteString("\n" + TruncatedMarker)
	return b.String(), p.tail[kept:], true
}

// compressedTraces lists shortened trace sections from longest to shortest:
// the first frame, the marker and a shrinking run of trailing frames (never
// fewer than two), then the first frame and the marker alone.
func compressedTraces(stack, exception string) []string {
	frames := traceback.Frames(stack)
	if len(frames) == 0 {
		return nil
	}

	var out []string
	for keep := len(frames) - 2; keep >= 2; keep-- {
		rest := frames[len(frames)-keep:]
		out = append(out, TraceHeading+frames[0]+"\n"+StacktraceMarker+"\n"+strings.Join(rest, "\n")+"\n"+exception)
	}
	return append(out, TraceHeading+frames[0]+"\n"+StacktraceMarker)
}

func snapshotOverflow(dropped []string) string {
	if len(dropped) == 0 {
		return ""
	}
	return InstallationHeading + "\n" + strings.Join(dropped, "\n")
}

func joinOverflow(parts ...string) string {
	kept := parts[:0:0]
	for _, part := range parts {
		if part != "" {
			kept = append(kept, part)
		}
	}
	return strings.Join(kept, "\n\n")
}
