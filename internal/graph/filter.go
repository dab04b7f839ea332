package graph

import (
	"strings"

	"github.com/scrypster/lineage/pkg/types"
)

// MatchesFilter reports whether a kitty satisfies the active filters.
// Categories combine with AND; an inactive category imposes no constraint,
// so the zero FilterState passes everything.
//
// The generation filter requires a known numeric generation: a kitty whose
// generation is absent fails outright rather than defaulting to 0.
func MatchesFilter(k *types.Kitty, f types.FilterState) bool {
	if k == nil {
		return false
	}

	if f.GenerationActive {
		gen, known := k.GenerationValue()
		if !known {
			return false
		}
		if f.GenerationMin != nil && gen < *f.GenerationMin {
			return false
		}
		if f.GenerationMax != nil && gen > *f.GenerationMax {
			return false
		}
	}

	if f.MewtationActive {
		if len(k.Gems) == 0 {
			return false
		}
		if len(f.MewtationTiers) > 0 {
			matched := false
			for _, g := range k.Gems {
				if f.HasTier(g.Tier) {
					matched = true
					break
				}
			}
			if !matched {
				return false
			}
		}
	}

	return true
}

// MatchedIDs evaluates the session's active filter against every kitty and
// returns the set of matching ids, used for highlight styling.
func MatchedIDs(s *Session) map[int64]struct{} {
	f := s.Filter()
	matched := make(map[int64]struct{})
	for _, k := range s.Kitties() {
		if MatchesFilter(k, f) {
			matched[k.ID] = struct{}{}
		}
	}
	return matched
}

// EdgeMatched reports whether an edge is within the filtered set: both of
// its endpoints must match.
func EdgeMatched(matched map[int64]struct{}, a, b int64) bool {
	_, okA := matched[a]
	_, okB := matched[b]
	return okA && okB
}

// HighlightByTrait returns the ids of kitties carrying the given trait
// value in any trait category, compared case-insensitively.
func HighlightByTrait(s *Session, traitValue string) map[int64]struct{} {
	ids := make(map[int64]struct{})
	if traitValue == "" {
		return ids
	}
	want := strings.ToLower(traitValue)
	for _, k := range s.Kitties() {
		for _, v := range k.Traits {
			if strings.ToLower(v) == want {
				ids[k.ID] = struct{}{}
				break
			}
		}
	}
	return ids
}

// HighlightByGemTier returns the ids of kitties with at least one gem of
// the given tier.
func HighlightByGemTier(s *Session, tier types.GemTier) map[int64]struct{} {
	ids := make(map[int64]struct{})
	for _, k := range s.Kitties() {
		if k.HasGemTier(tier) {
			ids[k.ID] = struct{}{}
		}
	}
	return ids
}
