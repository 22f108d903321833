package parser

import "fmt"

// MalformedTimeTokenError reports a time-range token that does not match
// the expected lexical shape.
type MalformedTimeTokenError struct {
	Token    string
	Fragment string
}

func (e *MalformedTimeTokenError) Error() string {
	if e.Fragment != "" {
		return fmt.Sprintf("entry %q: malformed time range %q, expected e.g. 9:30 am-10:30 am", e.Fragment, e.Token)
	}
	return fmt.Sprintf("malformed time range %q, expected e.g. 9:30 am-10:30 am", e.Token)
}

// NonPositiveDurationError reports a range whose end does not come after
// its start. Ranges crossing midnight are rejected on purpose.
type NonPositiveDurationError struct {
	Token    string
	Fragment string
}

func (e *NonPositiveDurationError) Error() string {
	if e.Fragment != "" {
		return fmt.Sprintf("entry %q: time range %q must end after it starts", e.Fragment, e.Token)
	}
	return fmt.Sprintf("time range %q must end after it starts", e.Token)
}

// UnparseableFragmentError reports a batch fragment with no usable
// trailing time range. Fragment holds the offending text verbatim.
type UnparseableFragmentError struct {
	Fragment string
}

func (e *UnparseableFragmentError) Error() string {
	return fmt.Sprintf("entry %q: expected a title followed by a time range like 9:30 am-10:30 am", e.Fragment)
}
