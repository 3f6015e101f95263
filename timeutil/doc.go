// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package timeutil maps wall-clock instants to Wynncraft reset periods.

Wynncraft content does not reset at midnight: raid loot pools roll over
Friday 19:00 CET, lootrun pools Friday 20:00 CET, and gambits daily at
19:00 CET. A Schedule captures one such boundary and PeriodAt resolves
any instant to the identifier of the period containing it:

	sched := timeutil.Weekly(time.Friday, 19, cet)
	period := sched.PeriodAt(time.Now()) // e.g. "2026-W35"

Daily schedules produce calendar dates ("2026-08-29"); weekly schedules
produce ISO week labels derived from the reset boundary's date, so a
period straddling New Year is labeled consistently for its whole
duration.

All arithmetic happens in the schedule's timezone, never in server local
time. An instant exactly on a boundary belongs to the new period.
*/
package timeutil
