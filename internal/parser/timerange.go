package parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// timeRangeRe matches a full 12-hour clock range such as "9:30 am-10:30 am".
// The meridiem is case-insensitive and the space before it optional.
var timeRangeRe = regexp.MustCompile(`(?i)^(\d{1,2}):(\d{2})\s*(am|pm)-(\d{1,2}):(\d{2})\s*(am|pm)$`)

// ParseTimeRange converts one time-range token into a (start, end) pair of
// timestamps anchored to ref's calendar date in ref's location. Hours run
// 1-12, minutes 00-59; seconds are forced to zero. A range whose end does
// not come strictly after its start is rejected, so ranges crossing
// midnight are not supported.
func ParseTimeRange(token string, ref time.Time) (time.Time, time.Time, error) {
	trimmed := strings.TrimSpace(token)
	m := timeRangeRe.FindStringSubmatch(trimmed)
	if m == nil {
		return time.Time{}, time.Time{}, &MalformedTimeTokenError{Token: token}
	}

	startHour, startMin, ok := clockFields(m[1], m[2], m[3])
	if !ok {
		return time.Time{}, time.Time{}, &MalformedTimeTokenError{Token: token}
	}
	endHour, endMin, ok := clockFields(m[4], m[5], m[6])
	if !ok {
		return time.Time{}, time.Time{}, &MalformedTimeTokenError{Token: token}
	}

	start := time.Date(ref.Year(), ref.Month(), ref.Day(), startHour, startMin, 0, 0, ref.Location())
	end := time.Date(ref.Year(), ref.Month(), ref.Day(), endHour, endMin, 0, 0, ref.Location())

	if !end.After(start) {
		return time.Time{}, time.Time{}, &NonPositiveDurationError{Token: token}
	}

	return start, end, nil
}

// clockFields converts one "H:MM am|pm" triple into a 24-hour clock pair.
// 12 am maps to 0, 12 pm stays 12, and pm adds twelve to hours 1-11.
func clockFields(hourRaw, minRaw, meridiem string) (int, int, bool) {
	hour, err := strconv.Atoi(hourRaw)
	if err != nil || hour < 1 || hour > 12 {
		return 0, 0, false
	}
	minute, err := strconv.Atoi(minRaw)
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, false
	}

	switch strings.ToLower(meridiem) {
	case "am":
		if hour == 12 {
			hour = 0
		}
	case "pm":
		if hour != 12 {
			hour += 12
		}
	default:
		return 0, 0, false
	}

	return hour, minute, true
}
