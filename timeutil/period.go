// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package timeutil

import (
	"fmt"
	"time"
	// Wynncraft resets are defined in CET regardless of where the server
	// runs, so the tz database must always be available.
	_ "time/tzdata"
)

// Schedule describes a recurring reset boundary: a weekly reset on a fixed
// weekday, or a daily reset, always at a fixed hour in a fixed timezone.
type Schedule struct {
	Weekday  *time.Weekday // nil means the schedule resets daily
	Hour     int
	Location *time.Location
}

// Weekly returns a schedule resetting every week on wd at hour in loc.
func Weekly(wd time.Weekday, hour int, loc *time.Location) Schedule {
	d := wd
	return Schedule{Weekday: &d, Hour: hour, Location: loc}
}

// Daily returns a schedule resetting every day at hour in loc.
func Daily(hour int, loc *time.Location) Schedule {
	return Schedule{Hour: hour, Location: loc}
}

// LastReset returns the most recent reset boundary at or before t.
// An instant exactly on the boundary belongs to the new period.
func (s Schedule) LastReset(t time.Time) time.Time {
	local := t.In(s.Location)

	if s.Weekday == nil {
		boundary := time.Date(local.Year(), local.Month(), local.Day(), s.Hour, 0, 0, 0, s.Location)
		if local.Before(boundary) {
			boundary = boundary.AddDate(0, 0, -1)
		}
		return boundary
	}

	daysBack := (int(local.Weekday()) - int(*s.Weekday) + 7) % 7
	boundary := time.Date(local.Year(), local.Month(), local.Day()-daysBack, s.Hour, 0, 0, 0, s.Location)
	if local.Before(boundary) {
		boundary = boundary.AddDate(0, 0, -7)
	}
	return boundary
}

// NextReset returns the first reset boundary strictly after t.
func (s Schedule) NextReset(t time.Time) time.Time {
	if s.Weekday == nil {
		return s.LastReset(t).AddDate(0, 0, 1)
	}
	return s.LastReset(t).AddDate(0, 0, 7)
}

// PeriodAt maps an instant to its period identifier.
//
// Weekly schedules yield "YYYY-Wnn" using the ISO year and week of the
// reset boundary that opened the period, not of t itself, so every instant
// inside a period that spans a year boundary gets the same label. Daily
// schedules yield the boundary's calendar date, "YYYY-MM-DD".
func (s Schedule) PeriodAt(t time.Time) string {
	boundary := s.LastReset(t)
	if s.Weekday == nil {
		return boundary.Format("2006-01-02")
	}
	year, week := boundary.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}
