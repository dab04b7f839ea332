package types

// FilterState holds the active highlight filters. The zero value means no
// filtering: every kitty matches. Nil generation bounds impose no constraint
// on that side; an empty tier set means any gem tier qualifies.
type FilterState struct {
	GenerationActive bool `json:"generation_active"`
	GenerationMin    *int `json:"generation_min,omitempty"`
	GenerationMax    *int `json:"generation_max,omitempty"`

	MewtationActive bool      `json:"mewtation_active"`
	MewtationTiers  []GemTier `json:"mewtation_tiers,omitempty"`
}

// HasTier reports whether tier is in the active tier set.
func (f FilterState) HasTier(tier GemTier) bool {
	for _, t := range f.MewtationTiers {
		if t == tier {
			return true
		}
	}
	return false
}

// Active reports whether any filter category is switched on.
func (f FilterState) Active() bool {
	return f.GenerationActive || f.MewtationActive
}
