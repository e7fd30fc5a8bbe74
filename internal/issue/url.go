package issue

import (
	"net/url"
	"strconv"
)

const (
	// DefaultNewIssueURL is the tracker's new-issue form.
	DefaultNewIssueURL = "https://issuetracker.google.com/issues/new"
	// DefaultTrackerURL lists the component's public issues.
	DefaultTrackerURL = "https://issuetracker.google.com/issues?q=componentid:187143%2B"
	// DefaultComponentID is the tracker component new issues are filed under.
	DefaultComponentID = 187143
	// DefaultMaxURLLength is the longest URL the tracker form accepts.
	DefaultMaxURLLength = 8182
)

// Tracker describes the issue tracker's new-issue form.
type Tracker struct {
	NewIssueURL  string
	ComponentID  int
	MaxURLLength int
}

// DefaultTracker returns the public SDK tracker.
func DefaultTracker() Tracker {
	return Tracker{
		NewIssueURL:  DefaultNewIssueURL,
		ComponentID:  DefaultComponentID,
		MaxURLLength: DefaultMaxURLLength,
	}
}

// URL returns the new-issue URL pre-filled with body as the description and
// an empty title.
func (t Tracker) URL(body string) string {
	params := url.Values{}
	params.Set("component", strconv.Itoa(t.ComponentID))
	params.Set("title", "")
	params.Set("description", body)
	return t.NewIssueURL + "?" + params.Encode()
}

// BodyBudget is the URL-encoded length left for the description once the
// rest of the URL is accounted for.
func (t Tracker) BodyBudget() int {
	return t.MaxURLLength - len(t.URL(""))
}
