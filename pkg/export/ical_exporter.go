package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/emersion/go-ical"
)

// CalendarEntry is one VEVENT worth of data.
type CalendarEntry struct {
	UID      string
	Summary  string
	Category string
	Start    time.Time
	End      time.Time
}

// ICalExporter renders calendar entries as an iCalendar document.
type ICalExporter struct {
	prodID string
}

// NewICalExporter builds an iCalendar exporter.
func NewICalExporter(prodID string) *ICalExporter {
	if prodID == "" {
		prodID = "-//lifecal//lifecal-api//EN"
	}
	return &ICalExporter{prodID: prodID}
}

// Render produces an ICS document for the given entries.
func (e *ICalExporter) Render(entries []CalendarEntry) ([]byte, error) {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, e.prodID)

	now := time.Now().UTC()
	for _, entry := range entries {
		if entry.UID == "" {
			return nil, fmt.Errorf("calendar entry %q requires a uid", entry.Summary)
		}
		event := ical.NewEvent()
		event.Props.SetText(ical.PropUID, entry.UID)
		event.Props.SetDateTime(ical.PropDateTimeStamp, now)
		event.Props.SetDateTime(ical.PropDateTimeStart, entry.Start)
		event.Props.SetDateTime(ical.PropDateTimeEnd, entry.End)
		event.Props.SetText(ical.PropSummary, entry.Summary)
		if entry.Category != "" {
			event.Props.SetText(ical.PropCategories, entry.Category)
		}
		cal.Children = append(cal.Children, event.Component)
	}

	buf := &bytes.Buffer{}
	if err := ical.NewEncoder(buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("encode ics: %w", err)
	}
	return buf.Bytes(), nil
}
