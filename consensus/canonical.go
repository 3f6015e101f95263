// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package consensus

import (
	"cmp"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/gowebpki/jcs"

	"github.com/wynnextras/server/models"
)

// Canonicalization turns a submitted list into a byte-stable string so
// that agreement is plain string equality. Elements are sorted by a total
// order (name first, remaining fields as tie-breaks) and the sorted list
// is serialized through RFC 8785 JCS, which fixes key order, escaping and
// number formatting. Two submissions with the same logical content always
// canonicalize to the identical byte string.

// CanonicalizeAspects canonicalizes a raid aspect pool. Aspects sort by
// name, then rarity, then required class (byte order).
func CanonicalizeAspects(aspects []models.Aspect) (string, error) {
	sorted := slices.Clone(aspects)
	slices.SortFunc(sorted, func(a, b models.Aspect) int {
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Rarity, b.Rarity); c != 0 {
			return c
		}
		return cmp.Compare(a.RequiredClass, b.RequiredClass)
	})
	return canonicalJSON(sorted)
}

// CanonicalizeItems canonicalizes a lootrun loot pool. Items sort
// case-insensitively by name, rarity, type, shiny stat and tooltip, with
// a final case-sensitive pass so the order is total even for items equal
// under folding.
func CanonicalizeItems(items []models.LootItem) (string, error) {
	sorted := slices.Clone(items)
	slices.SortFunc(sorted, compareItems)
	return canonicalJSON(sorted)
}

// CanonicalizeGambits canonicalizes a day's gambit list. Gambits sort by
// name, then description.
func CanonicalizeGambits(gambits []models.Gambit) (string, error) {
	sorted := slices.Clone(gambits)
	slices.SortFunc(sorted, func(a, b models.Gambit) int {
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.Description, b.Description)
	})
	return canonicalJSON(sorted)
}

func compareItems(a, b models.LootItem) int {
	if c := compareFold(a.Name, b.Name); c != 0 {
		return c
	}
	if c := compareFold(a.Rarity, b.Rarity); c != 0 {
		return c
	}
	if c := compareFold(a.Type, b.Type); c != 0 {
		return c
	}
	if c := compareFold(a.ShinyStat, b.ShinyStat); c != 0 {
		return c
	}
	if c := compareFold(a.Tooltip, b.Tooltip); c != 0 {
		return c
	}
	// tie-break for case-only differences
	return cmp.Or(
		cmp.Compare(a.Name, b.Name),
		cmp.Compare(a.Rarity, b.Rarity),
		cmp.Compare(a.Type, b.Type),
		cmp.Compare(a.ShinyStat, b.ShinyStat),
		cmp.Compare(a.Tooltip, b.Tooltip),
	)
}

func compareFold(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

func canonicalJSON(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to serialize payload: %w", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("failed to canonicalize payload: %w", err)
	}
	return string(canonical), nil
}
