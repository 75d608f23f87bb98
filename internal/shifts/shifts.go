// Package shifts maps arbitrary time ranges onto the fleet's half-day duty
// grid: morning 07:30-19:30, evening 19:30-07:30 of the next day. An
// evening shift belongs to the day it starts on.
package shifts

import (
	"fmt"
	"strings"
	"time"

	"github.com/fleetsight/telemetry-agent/internal/models"
)

const (
	TypeMorning = "morning"
	TypeEvening = "evening"
)

const (
	morningHour   = 7
	morningMinute = 30
	eveningHour   = 19
	eveningMinute = 30
)

const (
	morningOffset = morningHour*60 + morningMinute
	eveningOffset = eveningHour*60 + eveningMinute
)

// Type returns the half-day bucket containing t.
func Type(t time.Time) string {
	offset := t.Hour()*60 + t.Minute()
	if offset >= morningOffset && offset < eveningOffset {
		return TypeMorning
	}
	return TypeEvening
}

// Key derives the shift key of the bucket containing t, in the form
// "DD.MM.YYYY_morning" or "DD.MM.YYYY_evening".
func Key(t time.Time) string {
	key, _, _ := bucket(t)
	return key
}

// Label renders the short human label of a shift key.
func Label(key string) string {
	i := strings.LastIndex(key, "_")
	if i < 0 {
		return key
	}
	date, shiftType := key[:i], key[i+1:]
	if parts := strings.SplitN(date, ".", 3); len(parts) == 3 {
		date = parts[0] + "." + parts[1]
	}
	if shiftType == TypeMorning {
		return "Morning " + date
	}
	return "Evening " + date
}

// Boundaries re-derives the full, unclipped window of a shift key.
func Boundaries(key string) (time.Time, time.Time, error) {
	i := strings.LastIndex(key, "_")
	if i < 0 {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid shift key %q", key)
	}
	day, err := time.Parse(models.DateLayout, key[:i])
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid shift key %q: %w", key, err)
	}
	switch key[i+1:] {
	case TypeMorning:
		return at(day, morningHour, morningMinute), at(day, eveningHour, eveningMinute), nil
	case TypeEvening:
		return at(day, eveningHour, eveningMinute), at(day.AddDate(0, 0, 1), morningHour, morningMinute), nil
	}
	return time.Time{}, time.Time{}, fmt.Errorf("invalid shift key %q", key)
}

// Split decomposes [start, end) into clipped half-day shifts. The returned
// windows are contiguous, non-overlapping and union exactly to [start, end);
// the result is empty when end is not after start.
func Split(start, end time.Time) []models.Shift {
	var out []models.Shift
	for cursor := start; cursor.Before(end); {
		key, _, bucketEnd := bucket(cursor)
		to := end
		if bucketEnd.Before(to) {
			to = bucketEnd
		}
		if cursor.Before(to) {
			out = append(out, models.Shift{Key: key, Label: Label(key), Start: cursor, End: to})
		}
		cursor = bucketEnd
	}
	return out
}

// Range parses a string period and applies the date-only defaulting rule:
// a start at midnight becomes 07:30 of that day, an end at midnight becomes
// 19:30 of that day.
func Range(from, to string) (time.Time, time.Time, error) {
	start, err := models.ParseDateTime(from)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parsing period start: %w", err)
	}
	end, err := models.ParseDateTime(to)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parsing period end: %w", err)
	}
	if start.Hour() == 0 && start.Minute() == 0 {
		start = at(start, morningHour, morningMinute)
	}
	if end.Hour() == 0 && end.Minute() == 0 {
		end = at(end, eveningHour, eveningMinute)
	}
	return start, end, nil
}

// SplitRange splits a string period after Range normalization.
func SplitRange(from, to string) ([]models.Shift, error) {
	start, end, err := Range(from, to)
	if err != nil {
		return nil, err
	}
	return Split(start, end), nil
}

// bucket returns the key and unclipped boundaries of the shift containing t.
func bucket(t time.Time) (string, time.Time, time.Time) {
	if Type(t) == TypeMorning {
		key := models.FormatDate(t) + "_" + TypeMorning
		return key, at(t, morningHour, morningMinute), at(t, eveningHour, eveningMinute)
	}
	day := t
	if t.Hour()*60+t.Minute() < morningOffset {
		day = day.AddDate(0, 0, -1)
	}
	key := models.FormatDate(day) + "_" + TypeEvening
	return key, at(day, eveningHour, eveningMinute), at(day.AddDate(0, 0, 1), morningHour, morningMinute)
}

func at(day time.Time, hour, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location())
}
