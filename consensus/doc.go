// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package consensus promotes crowd-sourced submissions to approved values.

Many mutually-untrusted clients report what they saw in-game. The engine
accepts one live submission per player per subject per period and counts
how many DISTINCT players agree on byte-identical content:

	engine := consensus.NewEngine(db, registry, 3, 10)
	result, err := engine.Submit(ctx, consensus.RaidFamily, "NOTG", submitter, payload)

# Families

Three families share the algorithm and differ only in subject domain,
reset schedule and canonicalization rule:

  - RaidFamily: subjects NOTG, NOL, TCC, TNA; resets Friday 19:00 CET
  - LootrunFamily: subjects SE, SI, MH, CORK, COTL; resets Friday 20:00 CET
  - GambitFamily: single subject; resets daily 19:00 CET

# Canonicalization

CanonicalizeAspects, CanonicalizeItems and CanonicalizeGambits sort the
submitted list by a total order and serialize it through RFC 8785 JCS
(github.com/gowebpki/jcs). Agreement is then plain string equality - no
semantic diffing.

# State Machine

Per (subject, period): NoRecord -> Approved(unlocked) -> Approved(locked).

At 3 distinct agreeing submitters the payload is approved and served, but
a different payload later reaching 3 displaces it - most recent
qualifying majority wins, deliberately, even if its count is lower than
the previous approval's. At 10 the record locks: terminal for the
period, immune even to verified users. A new period starts at NoRecord;
old rows become inert and are never swept.

A verified user's submission bypasses counting entirely and immediately
becomes the approved (unlocked) pool.

# Concurrency

The count-then-write sequence is a check-then-act race, so Submit
serializes per (family, subject, period) via reference-counted keyed
mutexes. Different subjects and periods never contend. Duplicate
submission rows (legacy data) are collapsed to the most recent on write
and logged.
*/
package consensus
