// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package consensus

import (
	"time"

	"github.com/wynnextras/server/timeutil"
)

// Family is one crowd-sourced data set: a subject domain plus the reset
// schedule its periods follow. The three families share one consensus
// algorithm and differ only here and in their canonicalization rule.
type Family struct {
	Name     string
	Subjects []string
	Schedule timeutil.Schedule
}

// GambitSubject is the single subject of the gambit family; gambits are
// server-wide, not per-raid.
const GambitSubject = "gambits"

var cet = mustLocation("CET")

var (
	// RaidFamily covers raid aspect pools. Wynncraft raids reset
	// Friday 19:00 CET.
	RaidFamily = Family{
		Name:     "raid",
		Subjects: []string{"NOTG", "NOL", "TCC", "TNA"},
		Schedule: timeutil.Weekly(time.Friday, 19, cet),
	}

	// LootrunFamily covers lootrun camp loot pools, resetting an hour
	// after raids.
	LootrunFamily = Family{
		Name:     "lootrun",
		Subjects: []string{"SE", "SI", "MH", "CORK", "COTL"},
		Schedule: timeutil.Weekly(time.Friday, 20, cet),
	}

	// GambitFamily covers the daily gambit set.
	GambitFamily = Family{
		Name:     "gambit",
		Subjects: []string{GambitSubject},
		Schedule: timeutil.Daily(19, cet),
	}
)

// Families returns every crowd-sourced family the server tracks.
func Families() []Family {
	return []Family{RaidFamily, LootrunFamily, GambitFamily}
}

// ValidSubject reports whether subject is in the family's domain.
func (f Family) ValidSubject(subject string) bool {
	for _, s := range f.Subjects {
		if s == subject {
			return true
		}
	}
	return false
}

func mustLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}
