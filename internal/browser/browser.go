// Package browser opens URLs in the user's web browser.
package browser

import (
	"errors"
	"fmt"

	webbrowser "github.com/pkg/browser"
)

// ErrLaunchFailed is returned when no browser could be started.
var ErrLaunchFailed = errors.New("could not launch browser")

// Opener opens a URL.
type Opener interface {
	Open(url string) error
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(url string) error

// Open calls f(url).
func (f OpenerFunc) Open(url string) error {
	return f(url)
}

// System opens URLs with the platform's launcher: open on macOS,
// rundll32 url.dll,FileProtocolHandler on Windows and xdg-open or a
// fallback on Linux and the BSDs.
type System struct {
	// OpenURL replaces the launcher; nil means the platform's.
	OpenURL func(url string) error
}

// Open launches the browser on url.
func (s System) Open(url string) error {
	open := s.OpenURL
	if open == nil {
		open = webbrowser.OpenURL
	}
	if err := open(url); err != nil {
		return fmt.Errorf("%w: %w", ErrLaunchFailed, err)
	}
	return nil
}
