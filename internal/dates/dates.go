// Package dates provides calendar-date arithmetic on YYYY-MM-DD strings.
// Dates are always interpreted at local midnight and day differences are
// computed on UTC-normalised midnights so daylight-saving transitions never
// shift a result by one day.
package dates

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// Layout is the canonical calendar-date format.
const Layout = "2006-01-02"

// ErrInvalidDate is wrapped by every error returned for unparseable input.
var ErrInvalidDate = errors.New("invalid date")

// InvalidDateError reports the rejected input. Callers receive the current
// date alongside it and may continue.
type InvalidDateError struct {
	Input string
}

func (e *InvalidDateError) Error() string {
	return fmt.Sprintf("invalid date %q: expected YYYY-MM-DD", e.Input)
}

func (e *InvalidDateError) Unwrap() error { return ErrInvalidDate }

// Today returns local midnight of the current day.
func Today() time.Time {
	return Midnight(time.Now())
}

// Midnight truncates t to local midnight of its calendar day.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

// ParseLocal interprets s as YYYY-MM-DD at local midnight. On malformed input
// it returns today's date together with an *InvalidDateError.
func ParseLocal(s string) (time.Time, error) {
	y, m, d, ok := split(strings.TrimSpace(s), "-")
	if !ok || len(strings.TrimSpace(s)) != len(Layout) {
		return Today(), &InvalidDateError{Input: s}
	}
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.Local), nil
}

// Resolve is ParseLocal for callers that must not fail. Substitutions are
// logged at warn level.
func Resolve(s string, logger *slog.Logger) time.Time {
	t, err := ParseLocal(s)
	if err != nil && logger != nil {
		logger.Warn("substituting current date for unparseable input",
			"input", s,
			"substitute", Format(t),
		)
	}
	return t
}

// Format renders t as YYYY-MM-DD using its own calendar fields.
func Format(t time.Time) string {
	return t.Format(Layout)
}

// Valid reports whether s is a well-formed calendar date.
func Valid(s string) bool {
	_, err := ParseLocal(s)
	return err == nil
}

// AddDays returns the date n calendar days after s. Malformed input is
// treated as today, and the error is returned alongside the result.
func AddDays(s string, n int) (string, error) {
	t, err := ParseLocal(s)
	return Format(Add(t, n)), err
}

// Add returns the local midnight n calendar days after t.
func Add(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+n, 0, 0, 0, 0, time.Local)
}

// DayDiff returns the number of calendar days from a to b (b - a).
func DayDiff(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	ua := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	ub := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int((ub.Unix() - ua.Unix()) / 86400)
}

// ISOWeek returns the ISO-8601 week number of t (weeks start on Monday and
// week 1 contains the year's first Thursday).
func ISOWeek(t time.Time) int {
	_, week := t.ISOWeek()
	return week
}

// IsWeekend reports whether t falls on Saturday or Sunday.
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// Normalize canonicalises loosely formatted dates from upstream records:
// "/" separators and unpadded month/day are accepted. It returns false when
// s does not describe a real calendar date.
func Normalize(s string) (string, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), "/", "-")
	y, m, d, ok := split(s, "-")
	if !ok {
		return "", false
	}
	return Format(time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.Local)), true
}

// split parses y<sep>m<sep>d and rejects values that time.Date would
// silently normalise (for example 2025-02-30).
func split(s, sep string) (y, m, d int, ok bool) {
	parts := strings.Split(s, sep)
	if len(parts) != 3 || len(parts[0]) != 4 {
		return 0, 0, 0, false
	}
	for _, p := range parts {
		if p == "" || strings.TrimLeft(p, "0123456789") != "" {
			return 0, 0, 0, false
		}
	}
	var err error
	if y, err = strconv.Atoi(parts[0]); err != nil {
		return 0, 0, 0, false
	}
	if m, err = strconv.Atoi(parts[1]); err != nil || m < 1 || m > 12 {
		return 0, 0, 0, false
	}
	if d, err = strconv.Atoi(parts[2]); err != nil || d < 1 {
		return 0, 0, 0, false
	}
	if d > time.Date(y, time.Month(m)+1, 0, 0, 0, 0, 0, time.UTC).Day() {
		return 0, 0, 0, false
	}
	return y, m, d, true
}
