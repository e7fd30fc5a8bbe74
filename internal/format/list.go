// Package format renders invocation listings and installation snapshots.
package format

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-runewidth"

	"sdkfeedback/internal/model"
	"sdkfeedback/internal/selector"
	"sdkfeedback/internal/traceback"
)

// exceptionWidth caps the exception column of table and plain output.
const exceptionWidth = 60

// Row is the listing form of an invocation.
type Row struct {
	Timestamp string `json:"timestamp"`
	Age       string `json:"age"`
	Command   string `json:"command"`
	Crash     bool   `json:"crash"`
	Exception string `json:"exception,omitempty"`
	Path      string `json:"path"`
}

// Rows converts invocations for display, with ages relative to now.
func Rows(items []*model.Invocation, now time.Time) []Row {
	rows := make([]Row, 0, len(items))
	for _, inv := range items {
		row := Row{
			Age:     selector.Age(inv.Timestamp, now),
			Command: inv.Command,
			Crash:   inv.HasTraceback(),
			Path:    inv.Path,
		}
		if inv.HasTimestamp() {
			row.Timestamp = inv.Timestamp.Format(time.RFC3339)
		}
		if row.Crash {
			if _, exception, ok := traceback.Parse(inv.Traceback); ok {
				row.Exception = exception
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// WriteInvocations writes invocations to w in the requested format.
func WriteInvocations(w io.Writer, items []*model.Invocation, now time.Time, includeHeader bool, format string) error {
	rows := Rows(items, now)
	format = strings.ToLower(format)
	switch format {
	case "", "table":
		return writeRowsTable(w, rows, includeHeader)
	case "plain":
		return writeRowsPlain(w, rows, includeHeader)
	case "json":
		return writeRowsJSON(w, rows)
	case "jsonl":
		return writeRowsJSONL(w, rows)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func writeRowsPlain(w io.Writer, rows []Row, includeHeader bool) error {
	if includeHeader {
		if _, err := fmt.Fprintln(w, "timestamp\tage\tcommand\tcrash\texception\tpath"); err != nil {
			return err
		}
	}

	for _, row := range rows {
		line := fmt.Sprintf(
			"%s\t%s\t%s\t%t\t%s\t%s",
			orDash(row.Timestamp),
			row.Age,
			orDash(row.Command),
			row.Crash,
			orDash(clip(row.Exception)),
			row.Path,
		)
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func writeRowsJSON(w io.Writer, rows []Row) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

func writeRowsJSONL(w io.Writer, rows []Row) error {
	enc := json.NewEncoder(w)
	for _, row := range rows {
		if err := enc.Encode(row); err != nil {
			return err
		}
	}
	return nil
}

func writeRowsTable(w io.Writer, rows []Row, includeHeader bool) error {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.Style().Options.SeparateRows = true
	tw.Style().Options.SeparateHeader = true
	tw.Style().Options.DrawBorder = true

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignCenter},
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignCenter},
		{Number: 3, Align: text.AlignLeft, AlignHeader: text.AlignCenter},
		{Number: 4, Align: text.AlignCenter, AlignHeader: text.AlignCenter},
		{Number: 5, Align: text.AlignLeft, AlignHeader: text.AlignCenter},
		{Number: 6, Align: text.AlignLeft, AlignHeader: text.AlignCenter},
	})

	if includeHeader {
		tw.AppendHeader(table.Row{"Timestamp", "Age", "Command", "Crash", "Exception", "Log File"})
	}

	for _, row := range rows {
		crash := ""
		if row.Crash {
			crash = "yes"
		}
		tw.AppendRow(table.Row{
			orDash(row.Timestamp),
			row.Age,
			orDash(row.Command),
			crash,
			clip(row.Exception),
			row.Path,
		})
	}

	if len(rows) == 0 {
		tw.AppendRow(table.Row{"-", "-", "(no invocations)", "", "", "-"})
	}

	_ = tw.Render()
	return nil
}

// clip shortens s to exceptionWidth display columns.
func clip(s string) string {
	return runewidth.Truncate(s, exceptionWidth, "...")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
