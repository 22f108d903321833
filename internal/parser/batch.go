package parser

import (
	"regexp"
	"strings"
	"time"
)

// trailingTokenRe finds a time-range token anchored to the end of a
// fragment. Titles may themselves contain digits, colons or dashes, so
// the split point is found from the end of the string, never from the
// first digit.
var trailingTokenRe = regexp.MustCompile(`(?i)\d{1,2}:\d{2}\s*(?:am|pm)-\d{1,2}:\d{2}\s*(?:am|pm)$`)

// Draft is a fully parsed but not yet persisted event. It has no
// identity until the store accepts it.
type Draft struct {
	Title      string
	Start      time.Time
	End        time.Time
	Color      string
	Category   *string
	Recurring  bool
	SharedWith []string
}

// DefaultDraftColor is the display color assigned to batch-created events.
const DefaultDraftColor = "#3788d8"

// ParseBatch splits a semicolon-separated submission into validated
// drafts anchored to ref's calendar date. Drafts come back in input
// order. Validation is all-or-nothing: the first bad fragment fails the
// whole batch and the error carries that fragment's text verbatim.
func ParseBatch(input string, ref time.Time) ([]Draft, error) {
	fragments := strings.Split(input, ";")
	drafts := make([]Draft, 0, len(fragments))

	for _, raw := range fragments {
		fragment := strings.TrimSpace(raw)
		if fragment == "" {
			continue
		}

		loc := trailingTokenRe.FindStringIndex(fragment)
		if loc == nil {
			return nil, &UnparseableFragmentError{Fragment: fragment}
		}

		token := fragment[loc[0]:]
		title := strings.TrimSpace(fragment[:loc[0]])
		if title == "" {
			// A bare time range carries no event title.
			return nil, &UnparseableFragmentError{Fragment: fragment}
		}

		start, end, err := ParseTimeRange(token, ref)
		if err != nil {
			return nil, withFragment(err, fragment)
		}

		drafts = append(drafts, Draft{
			Title:      title,
			Start:      start,
			End:        end,
			Color:      DefaultDraftColor,
			SharedWith: []string{},
		})
	}

	return drafts, nil
}

// withFragment attaches the offending fragment to a time-range error so
// batch callers can surface which entry failed.
func withFragment(err error, fragment string) error {
	switch e := err.(type) {
	case *MalformedTimeTokenError:
		e.Fragment = fragment
	case *NonPositiveDurationError:
		e.Fragment = fragment
	}
	return err
}
