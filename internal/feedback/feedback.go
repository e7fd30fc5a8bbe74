// Package feedback drives the feedback command: it picks an invocation,
// builds the issue body and either opens the issue tracker with it or prints
// it.
package feedback

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"sdkfeedback/internal/browser"
	"sdkfeedback/internal/console"
	"sdkfeedback/internal/issue"
	"sdkfeedback/internal/model"
	"sdkfeedback/internal/selector"
	"sdkfeedback/internal/traceback"
)

// FeedbackError is a failure reported to the user as Message.
type FeedbackError struct {
	Message string
	Err     error
}

func (e *FeedbackError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *FeedbackError) Unwrap() error {
	return e.Err
}

// Options are the per-run choices of the feedback command.
type Options struct {
	Quiet   bool
	LogFile string
}

// Driver runs the feedback flow. Out receives the quiet-mode report; all
// other messages go to the Prompter's output.
type Driver struct {
	Tracker    issue.Tracker
	TrackerURL string
	Traceback  traceback.Options

	// Recent lists the invocations offered for selection.
	Recent func() ([]*model.Invocation, error)
	// Snapshot returns the installation information.
	Snapshot func() string

	Selector *selector.Selector
	Prompter *console.Prompter
	Opener   browser.Opener

	Out io.Writer
	// Width is used for dividers.
	Width int
	// CLIName and ProductName appear in messages.
	CLIName     string
	ProductName string
	Logger      *slog.Logger
}

// Run executes one feedback command. Aborting the selection prompt is not an
// error.
func (d *Driver) Run(opts Options) error {
	logger := d.logger()

	var records []*model.Invocation
	if !opts.Quiet && d.Selector.Interactive {
		var err error
		records, err = d.Recent()
		if err != nil {
			return &FeedbackError{Message: "Could not list recent invocations", Err: err}
		}
	}

	inv, err := d.Selector.Select(records, opts.LogFile)
	if err != nil {
		if errors.Is(err, selector.ErrAborted) {
			logger.Debug("selection aborted")
			return nil
		}
		return &FeedbackError{Message: "Could not read your choice", Err: err}
	}
	if inv != nil {
		logger.Debug("selected invocation", "path", inv.Path, "crash", inv.HasTraceback())
	}

	comment := issue.NewComment(d.Snapshot(), inv, d.Traceback)

	if opts.Quiet {
		return d.printQuiet(comment)
	}
	return d.openIssue(comment, inv)
}

func (d *Driver) openIssue(comment issue.Comment, inv *model.Invocation) error {
	errOut := d.Prompter.Out()

	if inv == nil && d.Selector.Interactive {
		fmt.Fprintln(errOut, "No invocation selected.")
		ok, err := d.Prompter.Confirm("Would you still like to file a bug (will open a new browser tab)", true)
		if err != nil {
			if errors.Is(err, console.ErrNoInput) {
				return nil
			}
			return &FeedbackError{Message: "Could not read your answer", Err: err}
		}
		if !ok {
			return nil
		}
	}

	packed, err := issue.Pack(comment, d.Tracker.BodyBudget())
	if err != nil {
		return &FeedbackError{Message: "The issue form cannot hold this report", Err: err}
	}

	if packed.Overflow != "" {
		fmt.Fprintf(errOut, "The output of %s info is too long to pre-populate the new issue form.\n", d.cliName())
		fmt.Fprintln(errOut, "Truncating included information. Please consider including the remainder:")
		fmt.Fprintln(errOut, console.Divider(d.Width, "Truncated information (not included in the issue)"))
		fmt.Fprintln(errOut, packed.Overflow)
		fmt.Fprintln(errOut, console.Divider(d.Width, ""))
	}

	url := d.Tracker.URL(packed.Retained)
	if len(url) > d.Tracker.MaxURLLength {
		return &FeedbackError{
			Message: "Could not build the issue URL",
			Err:     fmt.Errorf("%w: URL is %d characters, limit %d", issue.ErrBudgetExceeded, len(url), d.Tracker.MaxURLLength),
		}
	}

	fmt.Fprintf(errOut, "Opening your browser to a new %s issue.\n", d.ProductName)
	if err := d.Opener.Open(url); err != nil {
		d.logger().Debug("browser launch failed", "error", err)
		fmt.Fprintf(errOut, "warning: %v\n", err)
		fmt.Fprintf(errOut, "Please open this URL to file the issue:\n%s\n", url)
	}
	fmt.Fprintf(errOut, "Existing issues are listed at [%s].\n", d.TrackerURL)
	return nil
}

func (d *Driver) printQuiet(comment issue.Comment) error {
	_, err := fmt.Fprintf(d.Out, `We appreciate your feedback.

If you have a question, post it on Stack Overflow using the "%[1]s" tag at
[http://stackoverflow.com/questions/tagged/%[1]s].

For general feedback, use our groups page
[https://groups.google.com/forum/?fromgroups#!forum/google-cloud-dev],
send a mail to [google-cloud-dev@googlegroups.com] or visit the [#%[1]s]
IRC channel on freenode.

If you have found a bug, file it using our issue tracker site at
[%[2]s].

Please include the following information when filing a bug report:

%[3]s
%[4]s
%[3]s
`, d.cliName(), d.TrackerURL, console.Divider(d.Width, ""), comment.Body)
	return err
}

func (d *Driver) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return d.Logger
}

func (d *Driver) cliName() string {
	if d.CLIName == "" {
		return "gcloud"
	}
	return d.CLIName
}
