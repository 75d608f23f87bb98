package models

import (
	"fmt"
	"strings"
	"time"
)

// Wire time layouts used by the TMS API. Timestamps are day-first with no
// zone information; request parameters use the minute or date-only forms.
const (
	DateTimeSecondsLayout = "02.01.2006 15:04:05"
	DateTimeLayout        = "02.01.2006 15:04"
	DateLayout            = "02.01.2006"
)

var parseLayouts = []string{DateTimeSecondsLayout, DateTimeLayout, DateLayout}

// ParseDateTime parses a TMS timestamp, accepting the seconds, minute and
// date-only forms in that order.
func ParseDateTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty time value")
	}
	for _, layout := range parseLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time value %q", s)
}

// FormatDateTime renders t in the minute-granularity wire form.
func FormatDateTime(t time.Time) string {
	return t.Format(DateTimeLayout)
}

// FormatDate renders t in the date-only wire form.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
