package graph

import (
	"strings"

	"github.com/scrypster/lineage/pkg/types"
)

// MatchesOwner determines whether a kitty's effective holder matches the
// target address or nickname, both expected lowercased. With no target at
// all the query is meaningless and the answer is false.
//
// The address is checked first across every plausible field, normalized and
// under the raw payload. Nicknames are only consulted when the address did
// not match. Finally the auction seller is checked: a kitty listed on an
// auction shows a marketplace contract as its nominal owner, but for
// highlighting it still belongs to its seller.
func MatchesOwner(k *types.Kitty, addrLower, nickLower string) bool {
	if k == nil || (addrLower == "" && nickLower == "") {
		return false
	}

	if addrLower != "" {
		for _, addr := range addressCandidates(k) {
			if addr != "" && strings.ToLower(addr) == addrLower {
				return true
			}
		}
	}

	if nickLower != "" {
		for _, nick := range nicknameCandidates(k) {
			if nick != "" && strings.ToLower(nick) == nickLower {
				return true
			}
		}
	}

	return matchesSeller(k.Raw, addrLower, nickLower)
}

// OwnerIDs returns the ids of all kitties in the session matching the
// target owner. Targets are lowercased here so callers can pass user input.
func OwnerIDs(s *Session, addr, nick string) map[int64]struct{} {
	addrLower := strings.ToLower(addr)
	nickLower := strings.ToLower(nick)

	ids := make(map[int64]struct{})
	for _, k := range s.Kitties() {
		if MatchesOwner(k, addrLower, nickLower) {
			ids[k.ID] = struct{}{}
		}
	}
	return ids
}

func addressCandidates(k *types.Kitty) []string {
	candidates := []string{k.OwnerAddress}
	if k.Raw == nil {
		return candidates
	}

	if addr, ok := k.Raw.String("owner_address", "ownerAddress", "owner_wallet_address"); ok {
		candidates = append(candidates, addr)
	}
	for _, key := range []string{"owner", "owner_profile", "ownerProfile"} {
		obj, ok := k.Raw.Object(key)
		if !ok {
			continue
		}
		if addr, ok := obj.String("address", "wallet_address"); ok {
			candidates = append(candidates, addr)
		}
		if id, ok := obj.String("id"); ok && strings.HasPrefix(id, "0x") {
			candidates = append(candidates, id)
		}
	}
	if addr, ok := k.Raw.String("owner"); ok && strings.HasPrefix(addr, "0x") {
		candidates = append(candidates, addr)
	}
	return candidates
}

func nicknameCandidates(k *types.Kitty) []string {
	candidates := []string{k.OwnerNickname}
	if k.Raw == nil {
		return candidates
	}
	for _, key := range []string{"owner", "owner_profile", "ownerProfile"} {
		obj, ok := k.Raw.Object(key)
		if !ok {
			continue
		}
		if nick, ok := obj.String("nickname", "username", "name"); ok {
			candidates = append(candidates, strings.TrimSpace(nick))
		}
	}
	return candidates
}

// matchesSeller checks the auction seller sub-object for a target match.
func matchesSeller(raw types.RawKitty, addrLower, nickLower string) bool {
	if raw == nil {
		return false
	}

	var seller types.RawKitty
	if auction, ok := raw.Object("auction"); ok {
		seller, _ = auction.Object("seller")
	}
	if seller == nil {
		seller, _ = raw.Object("seller")
	}
	if seller == nil {
		return false
	}

	if addrLower != "" {
		if addr, ok := seller.String("address", "wallet_address"); ok && strings.ToLower(addr) == addrLower {
			return true
		}
		if id, ok := seller.String("id"); ok && strings.HasPrefix(id, "0x") && strings.ToLower(id) == addrLower {
			return true
		}
	}
	if nickLower != "" {
		if nick, ok := seller.String("nickname", "username", "name"); ok && strings.ToLower(nick) == nickLower {
			return true
		}
	}
	return false
}
