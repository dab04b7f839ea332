package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/lineage/pkg/types"
)

func TestNormalizeSnakeCaseFields(t *testing.T) {
	raw := types.RawKitty{
		"id":         float64(1234),
		"name":       "Genesis Jr",
		"generation": float64(1),
		"matron_id":  float64(10),
		"sire_id":    float64(20),
		"color":      "sizzurp",
		"image_url":  "https://img.example/1234.svg",
	}

	k, err := Normalize(raw)
	require.NoError(t, err)

	assert.Equal(t, int64(1234), k.ID)
	assert.Equal(t, "Genesis Jr", k.Name)
	gen, known := k.GenerationValue()
	assert.True(t, known)
	assert.Equal(t, 1, gen)
	assert.Equal(t, int64(10), k.MatronID)
	assert.Equal(t, int64(20), k.SireID)
	assert.Equal(t, "https://img.example/1234.svg", k.ImageURL)
}

func TestNormalizeCamelCaseAndStringID(t *testing.T) {
	raw := types.RawKitty{
		"id":       "42",
		"matronId": "7",
		"sireId":   float64(8),
		"imageUrl": "https://img.example/42.svg",
	}

	k, err := Normalize(raw)
	require.NoError(t, err)

	assert.Equal(t, int64(42), k.ID)
	assert.Equal(t, int64(7), k.MatronID)
	assert.Equal(t, int64(8), k.SireID)
	assert.Equal(t, "https://img.example/42.svg", k.ImageURL)
}

func TestNormalizeEmbeddedParentObjects(t *testing.T) {
	raw := types.RawKitty{
		"id":     float64(5),
		"matron": map[string]any{"id": float64(3)},
		"sire":   map[string]any{"id": "4"},
	}

	k, err := Normalize(raw)
	require.NoError(t, err)

	assert.Equal(t, int64(3), k.MatronID)
	assert.Equal(t, int64(4), k.SireID)
}

func TestNormalizeEnvelope(t *testing.T) {
	raw := types.RawKitty{
		"kitty": map[string]any{"id": float64(9), "name": "Wrapped"},
	}

	k, err := Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, int64(9), k.ID)
	assert.Equal(t, "Wrapped", k.Name)
}

func TestNormalizeMissingID(t *testing.T) {
	_, err := Normalize(types.RawKitty{"name": "anonymous"})
	assert.ErrorIs(t, err, ErrMissingID)

	_, err = Normalize(types.RawKitty{"id": "not-a-number"})
	assert.ErrorIs(t, err, ErrMissingID)
}

func TestNormalizeGenerationZeroIsKnown(t *testing.T) {
	k, err := Normalize(types.RawKitty{"id": float64(1), "generation": float64(0)})
	require.NoError(t, err)

	gen, known := k.GenerationValue()
	assert.True(t, known, "generation 0 is a real value, not absent")
	assert.Equal(t, 0, gen)
}

func TestNormalizeGenerationAbsent(t *testing.T) {
	k, err := Normalize(types.RawKitty{"id": float64(1)})
	require.NoError(t, err)

	_, known := k.GenerationValue()
	assert.False(t, known)
}

func TestNormalizeTraitsAndGems(t *testing.T) {
	raw := types.RawKitty{
		"id": float64(100),
		"enhanced_cattributes": []any{
			// discovered by this kitty at position 1: diamond
			map[string]any{"type": "eyes", "description": "wonky", "kittyId": float64(100), "position": float64(1)},
			// discovered elsewhere: trait but no gem
			map[string]any{"type": "mouth", "description": "soserious", "kittyId": float64(55), "position": float64(3)},
			// position past the gem cutoff
			map[string]any{"type": "body", "description": "munchkin", "kittyId": float64(100), "position": float64(501)},
		},
	}

	k, err := Normalize(raw)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"eyes":  "wonky",
		"mouth": "soserious",
		"body":  "munchkin",
	}, k.Traits)

	require.Len(t, k.Gems, 1)
	assert.Equal(t, "wonky", k.Gems[0].Description)
	assert.Equal(t, types.GemDiamond, k.Gems[0].Tier)
}

func TestGemTierBoundaries(t *testing.T) {
	cases := []struct {
		position int
		tier     types.GemTier
		ok       bool
	}{
		{1, types.GemDiamond, true},
		{2, types.GemGold, true},
		{10, types.GemGold, true},
		{11, types.GemSilver, true},
		{100, types.GemSilver, true},
		{101, types.GemBronze, true},
		{500, types.GemBronze, true},
		{501, "", false},
		{0, "", false},
		{-1, "", false},
	}
	for _, tc := range cases {
		tier, ok := types.GemTierForPosition(tc.position)
		assert.Equal(t, tc.ok, ok, "position %d", tc.position)
		assert.Equal(t, tc.tier, tier, "position %d", tc.position)
	}
}

func TestNormalizeOwnerShapes(t *testing.T) {
	cases := []struct {
		name     string
		raw      types.RawKitty
		wantAddr string
		wantNick string
	}{
		{
			name:     "flat snake_case",
			raw:      types.RawKitty{"id": float64(1), "owner_address": "0xAbC"},
			wantAddr: "0xAbC",
		},
		{
			name: "owner object",
			raw: types.RawKitty{
				"id":    float64(1),
				"owner": map[string]any{"address": "0xDeF", "nickname": "kittylover"},
			},
			wantAddr: "0xDeF",
			wantNick: "kittylover",
		},
		{
			name: "owner object with 0x id",
			raw: types.RawKitty{
				"id":    float64(1),
				"owner": map[string]any{"id": "0x123"},
			},
			wantAddr: "0x123",
		},
		{
			name:     "owner as bare address string",
			raw:      types.RawKitty{"id": float64(1), "owner": "0x999"},
			wantAddr: "0x999",
		},
		{
			name: "owner as bare nickname is not an address",
			raw:  types.RawKitty{"id": float64(1), "owner": "somename"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			k, err := Normalize(tc.raw)
			require.NoError(t, err)
			assert.Equal(t, tc.wantAddr, k.OwnerAddress)
			assert.Equal(t, tc.wantNick, k.OwnerNickname)
		})
	}
}

func TestNormalizeColors(t *testing.T) {
	k, err := Normalize(types.RawKitty{"id": float64(1), "color": "sizzurp"})
	require.NoError(t, err)
	assert.Equal(t, "#dfdffa", k.KittyColor)
	assert.Equal(t, "#c1c1ea", k.ShadowColor)

	// explicit background color wins over the palette
	k, err = Normalize(types.RawKitty{
		"id":               float64(2),
		"color":            "sizzurp",
		"background_color": "#112233",
	})
	require.NoError(t, err)
	assert.Equal(t, "#112233", k.KittyColor)

	// unknown color with a background keeps it, shadow from the default palette
	k, err = Normalize(types.RawKitty{
		"id":               float64(3),
		"color":            "nosuchcolor",
		"background_color": "#808080",
	})
	require.NoError(t, err)
	assert.Equal(t, "#808080", k.KittyColor)
	assert.Equal(t, "#1a1d2a", k.ShadowColor)

	// unknown color with nothing else still gets the default colors
	k, err = Normalize(types.RawKitty{"id": float64(4), "color": "nosuchcolor"})
	require.NoError(t, err)
	assert.Equal(t, "#23283b", k.KittyColor)
	assert.Equal(t, "#1a1d2a", k.ShadowColor)

	// no color at all
	k, err = Normalize(types.RawKitty{"id": float64(5)})
	require.NoError(t, err)
	assert.Equal(t, "#23283b", k.KittyColor)
	assert.Equal(t, "#1a1d2a", k.ShadowColor)
}

func TestDarken(t *testing.T) {
	assert.Equal(t, "#000000", Darken("#000000", 0.35))
	assert.Equal(t, "#808080", Darken("#808080", 0))
	assert.Equal(t, "not-a-color", Darken("not-a-color", 0.35))
}

func TestMergeNeverErasesParents(t *testing.T) {
	existing := &types.Kitty{ID: 1, MatronID: 10, SireID: 20, Name: "Original"}
	incoming := &types.Kitty{ID: 1, Name: "Renamed"}

	merged := Merge(existing, incoming)

	assert.Equal(t, int64(10), merged.MatronID)
	assert.Equal(t, int64(20), merged.SireID)
	assert.Equal(t, "Renamed", merged.Name)
}

func TestMergeOverwritesOnlyPresentFields(t *testing.T) {
	gen5 := 5
	existing := &types.Kitty{ID: 1, Name: "Keep", Genes: "abc", Generation: &gen5}
	incoming := &types.Kitty{ID: 1, Genes: "xyz"}

	merged := Merge(existing, incoming)

	assert.Equal(t, "Keep", merged.Name)
	assert.Equal(t, "xyz", merged.Genes)
	require.NotNil(t, merged.Generation)
	assert.Equal(t, 5, *merged.Generation)
}

func TestMergeTraitsKeywise(t *testing.T) {
	existing := &types.Kitty{ID: 1, Traits: map[string]string{"eyes": "wonky", "mouth": "grim"}}
	incoming := &types.Kitty{ID: 1, Traits: map[string]string{"mouth": "happygokitty", "body": "sphynx"}}

	merged := Merge(existing, incoming)

	assert.Equal(t, map[string]string{
		"eyes":  "wonky",
		"mouth": "happygokitty",
		"body":  "sphynx",
	}, merged.Traits)
	// the inputs are untouched
	assert.Equal(t, "grim", existing.Traits["mouth"])
}

func TestMergeReturnsFreshRecord(t *testing.T) {
	existing := &types.Kitty{ID: 1, Name: "A"}
	incoming := &types.Kitty{ID: 1, Name: "B"}

	merged := Merge(existing, incoming)
	merged.Name = "mutated"

	assert.Equal(t, "A", existing.Name)
}
