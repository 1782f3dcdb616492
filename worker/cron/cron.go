// Package cron parses and evaluates the five-field cron grammar (minute
// hour day-of-month month day-of-week) the Periodic Deferrer schedules
// against. It deliberately does not read the process timezone: every
// Expression carries the *time.Location its fields are evaluated in,
// supplied explicitly by the caller.
package cron

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pgqueue/pgqueue"
)

// field bounds, in grammar order: minute, hour, day-of-month, month,
// day-of-week (0 and 7 both mean Sunday).
var fieldBounds = [5][2]int{
	{0, 59},
	{0, 23},
	{1, 31},
	{1, 12},
	{0, 7},
}

// Expression is a parsed five-field cron expression plus the location its
// Matches/LatestSlot calculations run in.
type Expression struct {
	raw    string
	fields [5]fieldSet
	loc    *time.Location
}

// fieldSet is the set of values a field matches, represented as a sorted
// bitset over its bounds (small enough — at most 60 entries — that a
// []bool is simpler and faster than an actual bitset).
type fieldSet []bool

// Parse parses expr (five whitespace-separated fields) for evaluation in
// loc. loc must not be nil; callers that want UTC pass time.UTC explicitly,
// never relying on an implicit process timezone.
func Parse(expr string, loc *time.Location) (*Expression, error) {
	if loc == nil {
		return nil, fmt.Errorf("%w: nil location", pgqueue.ErrInvalidCronExpr)
	}
	parts := strings.Fields(expr)
	if len(parts) != 5 {
		return nil, fmt.Errorf("%w: %q: want 5 fields, got %d", pgqueue.ErrInvalidCronExpr, expr, len(parts))
	}

	e := &Expression{raw: expr, loc: loc}
	for i, part := range parts {
		set, err := parseField(part, fieldBounds[i][0], fieldBounds[i][1])
		if err != nil {
			return nil, fmt.Errorf("%w: %q: field %d: %w", pgqueue.ErrInvalidCronExpr, expr, i, err)
		}
		e.fields[i] = set
	}
	return e, nil
}

// String returns the original expression text.
func (e *Expression) String() string { return e.raw }

// Matches reports whether t (interpreted in the expression's location)
// satisfies every field. Day-of-month and day-of-week are OR'd together
// when both are restricted, matching standard cron semantics.
func (e *Expression) Matches(t time.Time) bool {
	t = t.In(e.loc)
	minute, hour := t.Minute(), t.Hour()
	dom, month, dow := t.Day(), int(t.Month()), int(t.Weekday())

	if !e.fields[0][minute] || !e.fields[1][hour] || !e.fields[3][month] {
		return false
	}

	domRestricted := isRestricted(e.fields[2], fieldBounds[2])
	dowRestricted := isRestricted(e.fields[4], fieldBounds[4])
	domMatch := e.fields[2][dom]
	dowMatch := e.fields[4][dow] || (dow == 0 && e.fields[4][7])

	switch {
	case domRestricted && dowRestricted:
		return domMatch || dowMatch
	case domRestricted:
		return domMatch
	case dowRestricted:
		return dowMatch
	default:
		return true
	}
}

// LatestSlot returns the largest minute-aligned timestamp <= at that
// matches the expression, searching back up to maxLookback. ok is false if
// no match was found within that window.
func (e *Expression) LatestSlot(at time.Time, maxLookback time.Duration) (slot time.Time, ok bool) {
	t := at.In(e.loc).Truncate(time.Minute)
	earliest := at.Add(-maxLookback)
	for !t.Before(earliest) {
		if e.Matches(t) {
			return t, true
		}
		t = t.Add(-time.Minute)
	}
	return time.Time{}, false
}

func isRestricted(set fieldSet, bounds [2]int) bool {
	for v := bounds[0]; v <= bounds[1]; v++ {
		if !set[v] {
			return true
		}
	}
	return false
}

// parseField parses one comma-separated field into a bitset over [lo,hi],
// supporting "*", "N", "N-M", "*/N", and "N-M/N".
func parseField(field string, lo, hi int) (fieldSet, error) {
	set := make(fieldSet, hi+1)
	for _, term := range strings.Split(field, ",") {
		if err := parseTerm(term, lo, hi, set); err != nil {
			return nil, err
		}
	}
	return set, nil
}

func parseTerm(term string, lo, hi int, set fieldSet) error {
	step := 1
	rangePart := term
	if idx := strings.IndexByte(term, '/'); idx >= 0 {
		rangePart = term[:idx]
		n, err := strconv.Atoi(term[idx+1:])
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid step in %q", term)
		}
		step = n
	}

	start, end := lo, hi
	switch {
	case rangePart == "*":
		// full range, already set
	case strings.Contains(rangePart, "-"):
		bounds := strings.SplitN(rangePart, "-", 2)
		s, err1 := strconv.Atoi(bounds[0])
		e, err2 := strconv.Atoi(bounds[1])
		if err1 != nil || err2 != nil || s < lo || e > hi || s > e {
			return fmt.Errorf("invalid range %q", rangePart)
		}
		start, end = s, e
	default:
		v, err := strconv.Atoi(rangePart)
		if err != nil || v < lo || v > hi {
			return fmt.Errorf("invalid value %q", rangePart)
		}
		start, end = v, v
	}

	for v := start; v <= end; v += step {
		set[v] = true
	}
	return nil
}
