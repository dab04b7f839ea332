// Package types defines the shared value types for the lineage graph engine:
// normalized kitty records, mewtation gems, filter state, bulk documents and
// graph update events.
package types

import "strings"

// Kitty is a normalized lineage record. ID is the immutable identity; every
// other field may be filled in later as fuller payloads arrive and are
// merged. A zero MatronID/SireID means the parent is unknown.
type Kitty struct {
	ID              int64             `json:"id"`
	Name            string            `json:"name,omitempty"`
	Generation      *int              `json:"generation,omitempty"`
	CreatedAt       string            `json:"created_at,omitempty"`
	Birthday        string            `json:"birthday,omitempty"`
	Genes           string            `json:"genes,omitempty"`
	Color           string            `json:"color,omitempty"`
	BackgroundColor string            `json:"background_color,omitempty"`
	KittyColor      string            `json:"kitty_color,omitempty"`
	ShadowColor     string            `json:"shadow_color,omitempty"`
	ImageURL        string            `json:"image_url,omitempty"`
	OwnerAddress    string            `json:"owner_address,omitempty"`
	OwnerNickname   string            `json:"owner_nickname,omitempty"`
	MatronID        int64             `json:"matron_id,omitempty"`
	SireID          int64             `json:"sire_id,omitempty"`
	Traits          map[string]string `json:"traits,omitempty"`
	Gems            []Gem             `json:"gems,omitempty"`

	// Raw retains the original payload so auction/seller lookups and
	// re-derivation never require a refetch.
	Raw RawKitty `json:"raw,omitempty"`
}

// GenerationValue returns the generation and whether one is known.
// Filtering treats an unknown generation as non-matching, never as 0.
func (k *Kitty) GenerationValue() (int, bool) {
	if k.Generation == nil {
		return 0, false
	}
	return *k.Generation, true
}

// HasBothParents reports whether both parent references are known.
func (k *Kitty) HasBothParents() bool {
	return k.MatronID > 0 && k.SireID > 0
}

// GemTier buckets a mewtation by its global discovery position.
type GemTier string

const (
	GemDiamond GemTier = "diamond"
	GemGold    GemTier = "gold"
	GemSilver  GemTier = "silver"
	GemBronze  GemTier = "bronze"
)

// Gem is a rare-trait discovery attributed to the kitty that found it.
type Gem struct {
	Type        string  `json:"type"`
	Description string  `json:"description"`
	Position    int     `json:"position"`
	Tier        GemTier `json:"gem"`
}

// GemTierForPosition maps a discovery position to its tier. Positions
// outside (0, 500] are not gems.
func GemTierForPosition(position int) (GemTier, bool) {
	switch {
	case position <= 0:
		return "", false
	case position == 1:
		return GemDiamond, true
	case position > 1 && position <= 10:
		return GemGold, true
	case position <= 100:
		return GemSilver, true
	case position <= 500:
		return GemBronze, true
	}
	return "", false
}

// HasGemTier reports whether any of the kitty's gems has the given tier.
func (k *Kitty) HasGemTier(tier GemTier) bool {
	for _, g := range k.Gems {
		if g.Tier == tier {
			return true
		}
	}
	return false
}

// Known CryptoKitties marketplace contract addresses. A kitty whose nominal
// owner is one of these is listed on an auction and its real holder is the
// auction seller.
var contractNames = map[string]string{
	"0xb1690c08e213a35ed9bab7b318de14420fb57d8c": "Sale Auction",
	"0xc7af99fe5513eb6710e6d5f44f9989da40f27f26": "Siring Auction",
	"0x06012c8cf97bead5deae237070f9587f8e7a266d": "Core Contract",
}

// IsAuctionContract reports whether addr is a known marketplace contract.
func IsAuctionContract(addr string) bool {
	_, ok := contractNames[strings.ToLower(addr)]
	return ok
}

// ContractName returns the display name of a known contract address, or "".
func ContractName(addr string) string {
	return contractNames[strings.ToLower(addr)]
}
