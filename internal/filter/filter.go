// Copyright 2026 The Denali Authors
// SPDX-License-Identifier: Apache-2.0

// Package filter implements the snapshot filter algebra and datetime
// parsing described in spec.md §4.4.
//
// No third-party duration/datetime library appears anywhere in the
// retrieval pack, so parsing is hand-rolled against the time stdlib —
// see DESIGN.md for the justification.
package filter

import (
	"regexp"
	"strconv"
	"time"

	"github.com/maxponych/denali/internal/denalierr"
)

// Filter is {before?, after?, name?}. A snapshot with timestamp ts and
// name n passes iff every present field is satisfied.
type Filter struct {
	Before *time.Time
	After  *time.Time
	Name   *string
}

// Passes reports whether a candidate snapshot matches f.
func (f Filter) Passes(ts time.Time, name string) bool {
	if f.Before != nil && !ts.Before(*f.Before) {
		return false
	}
	if f.After != nil && !ts.After(*f.After) {
		return false
	}
	if f.Name != nil && *f.Name != name {
		return false
	}
	return true
}

// Merge combines a command-line filter with a configured one, applying
// spec.md §4.4's lock-override and most-restrictive-bound rules.
//
//   - If lock (a configured snapshot name) is non-empty, it overrides
//     everything: the result is {nil, nil, lock}.
//   - Otherwise Before = min(cli.Before, cfg.Before), After =
//     max(cli.After, cfg.After), Name = cli.Name.
func Merge(cli, cfg Filter, lock string) Filter {
	if lock != "" {
		name := lock
		return Filter{Name: &name}
	}
	return Filter{
		Before: minTime(cli.Before, cfg.Before),
		After:  maxTime(cli.After, cfg.After),
		Name:   cli.Name,
	}
}

func minTime(a, b *time.Time) *time.Time {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case a.Before(*b):
		return a
	default:
		return b
	}
}

func maxTime(a, b *time.Time) *time.Time {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case a.After(*b):
		return a
	default:
		return b
	}
}

// Candidate is a single selectable snapshot: its name, timestamp, and
// an opaque payload returned by Select.
type Candidate[T any] struct {
	Name      string
	Timestamp time.Time
	Value     T
}

// Select picks the candidate with the largest timestamp among those
// passing f. Ties are broken by iteration order (spec.md §4.4: "not
// observable externally").
func Select[T any](candidates []Candidate[T], f Filter) (T, bool) {
	var best Candidate[T]
	found := false
	for _, c := range candidates {
		if !f.Passes(c.Timestamp, c.Name) {
			continue
		}
		if !found || c.Timestamp.After(best.Timestamp) {
			best = c
			found = true
		}
	}
	return best.Value, found
}

var relativeDuration = regexp.MustCompile(`^(\d+)(s|m|h|d|w)$`)

const (
	layoutDateTimeISODash = "2006-01-02 15:04"
	layoutDateTimeEUDash  = "02-01-2006 15:04"
	layoutDateTimeT       = "2006-01-02T15:04"
	layoutDateISO         = "2006-01-02"
	layoutDateEU          = "02-01-2006"
	layoutTimeOnly        = "15:04"
)

// ParseDateTime parses input according to spec.md §4.4's ordered list
// of accepted formats: a relative duration ("2h", "3d"), RFC3339, two
// "date time" layouts, two bare-date layouts (midnight UTC), then a
// bare "HH:MM" (today, local timezone, DST ambiguity resolved to the
// earlier offset). now is the reference instant for relative durations
// and "today."
func ParseDateTime(input string, now time.Time) (time.Time, error) {
	if m := relativeDuration.FindStringSubmatch(input); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return time.Time{}, &denalierr.DateTimeError{Input: input}
		}
		var unit time.Duration
		switch m[2] {
		case "s":
			unit = time.Second
		case "m":
			unit = time.Minute
		case "h":
			unit = time.Hour
		case "d":
			unit = 24 * time.Hour
		case "w":
			unit = 7 * 24 * time.Hour
		}
		return now.Add(-time.Duration(n) * unit), nil
	}

	if ts, err := time.Parse(time.RFC3339, input); err == nil {
		return ts, nil
	}

	for _, layout := range []string{layoutDateTimeISODash, layoutDateTimeEUDash, layoutDateTimeT} {
		if ts, err := time.ParseInLocation(layout, input, time.UTC); err == nil {
			return ts, nil
		}
	}

	for _, layout := range []string{layoutDateISO, layoutDateEU} {
		if ts, err := time.ParseInLocation(layout, input, time.UTC); err == nil {
			return ts, nil
		}
	}

	if ts, err := time.ParseInLocation(layoutTimeOnly, input, time.Local); err == nil {
		today := now.In(time.Local)
		return resolveLocalWallClock(today.Year(), today.Month(), today.Day(), ts.Hour(), ts.Minute()), nil
	}

	return time.Time{}, &denalierr.DateTimeError{Input: input}
}

// resolveLocalWallClock builds the instant for a local wall-clock time
// that may fall twice in a fall-back DST transition. time.Date alone
// does not say which of the two instants it returns, so the wall time is
// also resolved against the offsets in effect twelve hours before and
// after, and the earliest instant that still reads as the requested
// wall time is returned.
func resolveLocalWallClock(year int, month time.Month, day, hour, minute int) time.Time {
	best := time.Date(year, month, day, hour, minute, 0, 0, time.Local)
	wall := time.Date(year, month, day, hour, minute, 0, 0, time.UTC)
	for _, probe := range []time.Time{best.Add(-12 * time.Hour), best.Add(12 * time.Hour)} {
		_, offset := probe.Zone()
		candidate := wall.Add(-time.Duration(offset) * time.Second).In(time.Local)
		if candidate.Before(best) && candidate.Year() == year && candidate.Month() == month &&
			candidate.Day() == day && candidate.Hour() == hour && candidate.Minute() == minute {
			best = candidate
		}
	}
	return best
}
