package core

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

const (
	// EntryDateLayout is the short date+time accepted by the entry wizard.
	EntryDateLayout = "02/01 15:04"
	// RangeDayLayout is one half of a DD/MM-DD/MM range token.
	RangeDayLayout = "02/01"
	// NowToken selects the current instant as the entry date.
	NowToken = "now"
)

var (
	ErrInvalidRange  = errors.New("invalid range: use DD/MM-DD/MM")
	ErrReversedRange = errors.New("invalid range: start is after end")
)

var (
	rangeToken = regexp.MustCompile(`^(\d{2}/\d{2})-(\d{2}/\d{2})$`)
	entryDate  = regexp.MustCompile(`^\d{2}/\d{2} \d{2}:\d{2}$`)
)

// DateRange is an inclusive interval of instants.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls within the range, bounds included.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// StartOfDay returns midnight of t's day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last millisecond of t's day in t's location.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), t.Location())
}

// MonthRange spans the calendar month containing now, from its first
// instant to the end of its last day.
func MonthRange(now time.Time) DateRange {
	y, m, _ := now.Date()
	start := time.Date(y, m, 1, 0, 0, 0, 0, now.Location())
	last := start.AddDate(0, 1, -1)
	return DateRange{Start: start, End: EndOfDay(last)}
}

// ParseRange parses a DD/MM-DD/MM token in now's year and location. The
// start resolves to the start of its day and the end to the end of its day.
func ParseRange(token string, now time.Time) (DateRange, error) {
	m := rangeToken.FindStringSubmatch(strings.TrimSpace(token))
	if m == nil {
		return DateRange{}, ErrInvalidRange
	}
	start, err := parseDayInYear(m[1], now)
	if err != nil {
		return DateRange{}, ErrInvalidRange
	}
	end, err := parseDayInYear(m[2], now)
	if err != nil {
		return DateRange{}, ErrInvalidRange
	}
	if start.After(end) {
		return DateRange{}, ErrReversedRange
	}
	return DateRange{Start: StartOfDay(start), End: EndOfDay(end)}, nil
}

// ParseEntryDate resolves the wizard's date answer. "now" (any case) is the
// current instant; otherwise the input must be DD/MM HH:mm exactly and is
// placed in now's year and location. Wall times that don't exist in that
// location are rejected. The result is in UTC.
func ParseEntryDate(input string, now time.Time) (time.Time, error) {
	s := strings.TrimSpace(input)
	if strings.EqualFold(s, NowToken) {
		return now.UTC(), nil
	}
	if !entryDate.MatchString(s) {
		return time.Time{}, ErrInvalidDate
	}
	t, err := time.Parse(EntryDateLayout, s)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	d := time.Date(now.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, now.Location())
	// A day missing from the year or a wall time skipped by a DST change
	// comes back normalized to something else.
	if d.Month() != t.Month() || d.Day() != t.Day() || d.Hour() != t.Hour() || d.Minute() != t.Minute() {
		return time.Time{}, ErrInvalidDate
	}
	return d.UTC(), nil
}

// parseDayInYear parses DD/MM and rejects days that don't exist in now's
// year (29/02 outside leap years).
func parseDayInYear(s string, now time.Time) (time.Time, error) {
	t, err := time.Parse(RangeDayLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	d := time.Date(now.Year(), t.Month(), t.Day(), 0, 0, 0, 0, now.Location())
	if d.Month() != t.Month() || d.Day() != t.Day() {
		return time.Time{}, ErrInvalidRange
	}
	return d, nil
}
