// Copyright 2026 The Denali Authors
// SPDX-License-Identifier: Apache-2.0

package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func ptrTime(t time.Time) *time.Time { return &t }
func ptrStr(s string) *string        { return &s }

func TestPassesAllFieldsPresent(t *testing.T) {
	now := time.Now().UTC()
	f := Filter{Before: ptrTime(now.Add(time.Hour)), After: ptrTime(now.Add(-time.Hour)), Name: ptrStr("x")}
	require.True(t, f.Passes(now, "x"))
	require.False(t, f.Passes(now, "y"))
	require.False(t, f.Passes(now.Add(2*time.Hour), "x"))
	require.False(t, f.Passes(now.Add(-2*time.Hour), "x"))
}

func TestMergeLockOverridesEverything(t *testing.T) {
	now := time.Now().UTC()
	cli := Filter{Before: ptrTime(now)}
	cfg := Filter{After: ptrTime(now)}
	merged := Merge(cli, cfg, "stable")
	require.Nil(t, merged.Before)
	require.Nil(t, merged.After)
	require.Equal(t, "stable", *merged.Name)
}

func TestMergeTakesMostRestrictiveBounds(t *testing.T) {
	now := time.Now().UTC()
	cli := Filter{Before: ptrTime(now.Add(2 * time.Hour)), After: ptrTime(now.Add(-time.Hour))}
	cfg := Filter{Before: ptrTime(now.Add(time.Hour)), After: ptrTime(now.Add(-2 * time.Hour))}
	merged := Merge(cli, cfg, "")
	require.Equal(t, now.Add(time.Hour), *merged.Before)
	require.Equal(t, now.Add(-time.Hour), *merged.After)
}

func TestSelectPicksLargestTimestampPassingFilter(t *testing.T) {
	now := time.Now().UTC()
	candidates := []Candidate[string]{
		{Name: "a", Timestamp: now.Add(-time.Hour), Value: "a"},
		{Name: "b", Timestamp: now, Value: "b"},
		{Name: "c", Timestamp: now.Add(time.Hour), Value: "c"},
	}
	val, ok := Select(candidates, Filter{Before: ptrTime(now.Add(30 * time.Minute))})
	require.True(t, ok)
	require.Equal(t, "b", val)
}

func TestSelectNoneMatch(t *testing.T) {
	_, ok := Select([]Candidate[string]{{Name: "a", Timestamp: time.Now()}}, Filter{Name: ptrStr("nope")})
	require.False(t, ok)
}

func TestParseDateTimeRelativeDuration(t *testing.T) {
	now := time.Date(2026, 7, 29, 12, 0, 0, 0, time.UTC)
	ts, err := ParseDateTime("2h", now)
	require.NoError(t, err)
	require.Equal(t, now.Add(-2*time.Hour), ts)
}

func TestParseDateTimeRFC3339(t *testing.T) {
	ts, err := ParseDateTime("2026-07-29T12:00:00Z", time.Now())
	require.NoError(t, err)
	require.Equal(t, 2026, ts.Year())
}

func TestParseDateTimeDateTimeLayouts(t *testing.T) {
	ts, err := ParseDateTime("2026-07-29 12:30", time.Now())
	require.NoError(t, err)
	require.Equal(t, 12, ts.Hour())

	ts, err = ParseDateTime("29-07-2026 12:30", time.Now())
	require.NoError(t, err)
	require.Equal(t, 2026, ts.Year())
}

func TestParseDateTimeBareDate(t *testing.T) {
	ts, err := ParseDateTime("2026-07-29", time.Now())
	require.NoError(t, err)
	require.True(t, ts.Equal(time.Date(2026, 7, 29, 0, 0, 0, 0, time.UTC)))
}

func TestParseDateTimeRejectsGarbage(t *testing.T) {
	_, err := ParseDateTime("not-a-date", time.Now())
	require.Error(t, err)
}
