// Package console holds the terminal helpers shared by the commands: width
// and color detection, dividers and line prompts.
package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

// DefaultWidth is used when the terminal width cannot be determined.
const DefaultWidth = 80

// Width returns the column count of out when it is a terminal, then
// $COLUMNS, then DefaultWidth.
func Width(out io.Writer) int {
	if file, ok := out.(*os.File); ok {
		if w, _, err := term.GetSize(int(file.Fd())); err == nil && w > 0 {
			return w
		}
	}
	if colsStr := os.Getenv("COLUMNS"); colsStr != "" {
		if v, err := strconv.Atoi(colsStr); err == nil && v > 0 {
			return v
		}
	}
	return DefaultWidth
}

// UseColor reports whether styled output should be written to out.
func UseColor(out io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isTerminal(out)
}

// IsInteractive reports whether both the prompt input and the prompt output
// are attached to a terminal.
func IsInteractive(in io.Reader, out io.Writer) bool {
	return isTerminal(in) && isTerminal(out)
}

func isTerminal(v any) bool {
	file, ok := v.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Divider returns a width-wide rule of '=' with title centered in it.
func Divider(width int, title string) string {
	if width <= 0 {
		width = DefaultWidth
	}
	if title == "" {
		return strings.Repeat("=", width)
	}
	label := " " + title + " "
	fill := width - runewidth.StringWidth(label)
	if fill < 2 {
		return "=" + label + "="
	}
	left := fill / 2
	return strings.Repeat("=", left) + label + strings.Repeat("=", fill-left)
}

// ErrNoInput is returned when the prompt input is exhausted.
var ErrNoInput = errors.New("no input")

// Prompter reads answers line by line. One Prompter must be shared by every
// prompt of a run because it buffers its input.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPrompter returns a Prompter reading in and writing prompts to out.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

// Out is where prompts are written.
func (p *Prompter) Out() io.Writer {
	return p.out
}

// Ask writes prompt and returns the answer without surrounding space.
func (p *Prompter) Ask(prompt string) (string, error) {
	if _, err := fmt.Fprint(p.out, prompt); err != nil {
		return "", err
	}
	line, err := p.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimSpace(line), nil
		}
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(p.out) //nolint:errcheck
			return "", ErrNoInput
		}
		return "", fmt.Errorf("read answer: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// Confirm asks a yes/no question. An empty answer picks defaultYes; anything
// unrecognized asks again.
func (p *Prompter) Confirm(message string, defaultYes bool) (bool, error) {
	choices := "(y/N)"
	if defaultYes {
		choices = "(Y/n)"
	}
	for {
		answer, err := p.Ask(fmt.Sprintf("%s %s?  ", message, choices))
		if err != nil {
			return false, err
		}
		switch strings.ToLower(answer) {
		case "":
			return defaultYes, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		fmt.Fprintln(p.out, "Please enter 'y' or 'n':") //nolint:errcheck
	}
}
