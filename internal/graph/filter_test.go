package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/scrypster/lineage/pkg/types"
)

func intPtr(n int) *int { return &n }

func TestMatchesFilterInactivePassesEverything(t *testing.T) {
	var f types.FilterState

	assert.True(t, MatchesFilter(&types.Kitty{ID: 1}, f))
	assert.True(t, MatchesFilter(&types.Kitty{ID: 2, Generation: intPtr(7)}, f))
	assert.False(t, MatchesFilter(nil, f))
}

func TestMatchesFilterGenerationRange(t *testing.T) {
	f := types.FilterState{
		GenerationActive: true,
		GenerationMin:    intPtr(2),
		GenerationMax:    intPtr(4),
	}

	assert.False(t, MatchesFilter(&types.Kitty{ID: 1, Generation: intPtr(1)}, f))
	assert.True(t, MatchesFilter(&types.Kitty{ID: 2, Generation: intPtr(2)}, f))
	assert.True(t, MatchesFilter(&types.Kitty{ID: 3, Generation: intPtr(4)}, f))
	assert.False(t, MatchesFilter(&types.Kitty{ID: 4, Generation: intPtr(5)}, f))
}

func TestMatchesFilterExactGeneration(t *testing.T) {
	f := types.FilterState{
		GenerationActive: true,
		GenerationMin:    intPtr(2),
		GenerationMax:    intPtr(2),
	}

	assert.True(t, MatchesFilter(&types.Kitty{ID: 1, Generation: intPtr(2)}, f))
	assert.False(t, MatchesFilter(&types.Kitty{ID: 2, Generation: intPtr(3)}, f))
}

func TestMatchesFilterAbsentGenerationFails(t *testing.T) {
	f := types.FilterState{GenerationActive: true}

	// no bounds at all, but the generation must still be known
	assert.False(t, MatchesFilter(&types.Kitty{ID: 1}, f))
	assert.True(t, MatchesFilter(&types.Kitty{ID: 2, Generation: intPtr(0)}, f))
}

func TestMatchesFilterMewtation(t *testing.T) {
	gold := types.Kitty{ID: 1, Gems: []types.Gem{{Tier: types.GemGold, Position: 5}}}
	bare := types.Kitty{ID: 2}

	anyTier := types.FilterState{MewtationActive: true}
	assert.True(t, MatchesFilter(&gold, anyTier))
	assert.False(t, MatchesFilter(&bare, anyTier))

	goldOnly := types.FilterState{MewtationActive: true, MewtationTiers: []types.GemTier{types.GemGold}}
	assert.True(t, MatchesFilter(&gold, goldOnly))

	diamondOnly := types.FilterState{MewtationActive: true, MewtationTiers: []types.GemTier{types.GemDiamond}}
	assert.False(t, MatchesFilter(&gold, diamondOnly))
}

func TestMatchesFilterCategoriesCombineWithAnd(t *testing.T) {
	k := types.Kitty{
		ID:         1,
		Generation: intPtr(3),
		Gems:       []types.Gem{{Tier: types.GemSilver, Position: 50}},
	}

	both := types.FilterState{
		GenerationActive: true,
		GenerationMin:    intPtr(3),
		GenerationMax:    intPtr(3),
		MewtationActive:  true,
		MewtationTiers:   []types.GemTier{types.GemSilver},
	}
	assert.True(t, MatchesFilter(&k, both))

	both.GenerationMax = intPtr(2)
	both.GenerationMin = intPtr(0)
	assert.False(t, MatchesFilter(&k, both), "failing one category fails the whole filter")
}

func TestMatchedIDs(t *testing.T) {
	s := NewSession()
	s.Upsert(&types.Kitty{ID: 1, Generation: intPtr(0)})
	s.Upsert(&types.Kitty{ID: 2, Generation: intPtr(5)})
	s.Upsert(&types.Kitty{ID: 3})
	s.SetFilter(types.FilterState{GenerationActive: true, GenerationMax: intPtr(3)})

	matched := MatchedIDs(s)

	assert.Contains(t, matched, int64(1))
	assert.NotContains(t, matched, int64(2))
	assert.NotContains(t, matched, int64(3))
}

func TestEdgeMatched(t *testing.T) {
	matched := map[int64]struct{}{1: {}, 2: {}}

	assert.True(t, EdgeMatched(matched, 1, 2))
	assert.False(t, EdgeMatched(matched, 1, 3))
	assert.False(t, EdgeMatched(matched, 3, 4))
}

func TestHighlightByTrait(t *testing.T) {
	s := NewSession()
	s.Upsert(&types.Kitty{ID: 1, Traits: map[string]string{"eyes": "Wonky"}})
	s.Upsert(&types.Kitty{ID: 2, Traits: map[string]string{"mouth": "wonky"}})
	s.Upsert(&types.Kitty{ID: 3, Traits: map[string]string{"eyes": "serpent"}})

	ids := HighlightByTrait(s, "WONKY")

	assert.Contains(t, ids, int64(1), "case-insensitive match")
	assert.Contains(t, ids, int64(2), "value matches in any category")
	assert.NotContains(t, ids, int64(3))

	assert.Empty(t, HighlightByTrait(s, ""))
}

func TestHighlightByGemTier(t *testing.T) {
	s := NewSession()
	s.Upsert(&types.Kitty{ID: 1, Gems: []types.Gem{{Tier: types.GemDiamond, Position: 1}}})
	s.Upsert(&types.Kitty{ID: 2, Gems: []types.Gem{{Tier: types.GemBronze, Position: 200}}})
	s.Upsert(&types.Kitty{ID: 3})

	ids := HighlightByGemTier(s, types.GemDiamond)

	assert.Contains(t, ids, int64(1))
	assert.NotContains(t, ids, int64(2))
	assert.NotContains(t, ids, int64(3))
}

func TestFilterPredicatesOnSessionSnapshot(t *testing.T) {
	s := NewSession()
	s.SetFilter(types.FilterState{
		MewtationActive: true,
		MewtationTiers:  []types.GemTier{types.GemGold},
	})

	// predicates work directly on the returned snapshot
	assert.True(t, s.Filter().Active())
	assert.True(t, s.Filter().HasTier(types.GemGold))
	assert.False(t, s.Filter().HasTier(types.GemDiamond))
}
