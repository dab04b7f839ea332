package graph

import (
	"errors"
	"strings"

	"github.com/scrypster/lineage/pkg/types"
)

// ErrMissingID is returned by Normalize when a payload carries no usable id.
// Bulk loaders skip such entries instead of aborting the whole load.
var ErrMissingID = errors.New("graph: payload has no usable id")

// maxGemPosition is the last discovery position that still counts as a gem.
const maxGemPosition = 500

// Normalize converts a raw API payload into the canonical Kitty shape.
// It tolerates the field naming drift across API versions (snake_case and
// camelCase variants) and parent references that arrive either as bare ids
// or as embedded objects.
func Normalize(raw types.RawKitty) (*types.Kitty, error) {
	raw = types.UnwrapKitty(raw)

	id, ok := raw.Int64("id")
	if !ok || id <= 0 {
		return nil, ErrMissingID
	}

	k := &types.Kitty{ID: id, Raw: raw}

	if gen, ok := raw.Int64("generation"); ok && gen >= 0 {
		g := int(gen)
		k.Generation = &g
	}

	if matron, ok := raw.ParentID([]string{"matron_id", "matronId"}, []string{"matron"}); ok {
		k.MatronID = matron
	}
	if sire, ok := raw.ParentID([]string{"sire_id", "sireId"}, []string{"sire"}); ok {
		k.SireID = sire
	}

	k.Name, _ = raw.String("name")
	k.CreatedAt, _ = raw.String("created_at", "createdAt")
	k.Birthday, _ = raw.String("birthday")
	k.Genes, _ = raw.String("genes")
	k.Color, _ = raw.String("color")
	k.BackgroundColor, _ = raw.String("background_color", "backgroundColor")
	k.ImageURL, _ = raw.String("image_url", "imageUrl", "image_url_cdn", "imageUrlCdn")
	k.ShadowColor, _ = raw.String("shadow_color", "shadowColor")

	k.OwnerAddress = ownerAddressFromRaw(raw)
	k.OwnerNickname = ownerNicknameFromRaw(raw)

	k.Traits = traitsFromAttributes(raw)
	k.Gems = gemsFromAttributes(raw, id)

	applyColors(k)

	return k, nil
}

// traitsFromAttributes projects enhanced_cattributes into a {type:
// description} map. Last write wins on a duplicate type.
func traitsFromAttributes(raw types.RawKitty) map[string]string {
	attrs := raw.List("enhanced_cattributes")
	if len(attrs) == 0 {
		return nil
	}
	traits := make(map[string]string)
	for _, entry := range attrs {
		attr, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		a := types.RawKitty(attr)
		attrType, okT := a.String("type")
		desc, okD := a.String("description")
		if okT && okD {
			traits[attrType] = desc
		}
	}
	if len(traits) == 0 {
		return nil
	}
	return traits
}

// gemsFromAttributes derives mewtation gems from enhanced_cattributes.
// Only attributes discovered by this kitty count: an attribute whose
// originating kittyId differs was first found elsewhere.
func gemsFromAttributes(raw types.RawKitty, id int64) []types.Gem {
	attrs := raw.List("enhanced_cattributes")
	if len(attrs) == 0 {
		return nil
	}
	var gems []types.Gem
	for _, entry := range attrs {
		attr, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		a := types.RawKitty(attr)
		originID, ok := a.Int64("kittyId", "kitty_id")
		if !ok || originID != id {
			continue
		}
		pos, ok := a.Int64("position")
		if !ok || pos <= 0 || pos > maxGemPosition {
			continue
		}
		tier, ok := types.GemTierForPosition(int(pos))
		if !ok {
			continue
		}
		attrType, _ := a.String("type")
		desc, _ := a.String("description")
		gems = append(gems, types.Gem{
			Type:        attrType,
			Description: desc,
			Position:    int(pos),
			Tier:        tier,
		})
	}
	return gems
}

// ownerAddressFromRaw resolves the owner address across the payload shapes
// the API has used: a bare string, a snake/camel field, or an owner object
// whose address sits under address, wallet_address or an 0x-prefixed id.
func ownerAddressFromRaw(raw types.RawKitty) string {
	if addr, ok := raw.String("owner_address", "ownerAddress", "owner_wallet_address"); ok {
		return addr
	}
	if owner, ok := raw.Object("owner", "owner_profile", "ownerProfile"); ok {
		if addr, ok := owner.String("address", "wallet_address"); ok {
			return addr
		}
		if id, ok := owner.String("id"); ok && strings.HasPrefix(id, "0x") {
			return id
		}
	}
	if addr, ok := raw.String("owner"); ok && strings.HasPrefix(addr, "0x") {
		return addr
	}
	return ""
}

// ownerNicknameFromRaw resolves a display nickname from the owner or
// owner-profile objects.
func ownerNicknameFromRaw(raw types.RawKitty) string {
	for _, key := range []string{"owner", "owner_profile", "ownerProfile"} {
		obj, ok := raw.Object(key)
		if !ok {
			continue
		}
		if nick, ok := obj.String("nickname", "username", "name"); ok {
			if trimmed := strings.TrimSpace(nick); trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}

// Merge combines an existing record with an incoming representation of the
// same kitty and returns a fresh record. A field is overwritten only when
// the incoming value is present; in particular a known parent reference is
// never erased by an incoming zero. Trait maps merge key-wise.
func Merge(existing, incoming *types.Kitty) *types.Kitty {
	merged := *existing

	if incoming.MatronID > 0 {
		merged.MatronID = incoming.MatronID
	}
	if incoming.SireID > 0 {
		merged.SireID = incoming.SireID
	}
	if incoming.Generation != nil {
		merged.Generation = incoming.Generation
	}

	overwrite(&merged.Name, incoming.Name)
	overwrite(&merged.CreatedAt, incoming.CreatedAt)
	overwrite(&merged.Birthday, incoming.Birthday)
	overwrite(&merged.Genes, incoming.Genes)
	overwrite(&merged.Color, incoming.Color)
	overwrite(&merged.BackgroundColor, incoming.BackgroundColor)
	overwrite(&merged.KittyColor, incoming.KittyColor)
	overwrite(&merged.ShadowColor, incoming.ShadowColor)
	overwrite(&merged.ImageURL, incoming.ImageURL)
	overwrite(&merged.OwnerAddress, incoming.OwnerAddress)
	overwrite(&merged.OwnerNickname, incoming.OwnerNickname)

	if len(incoming.Traits) > 0 {
		traits := make(map[string]string, len(existing.Traits)+len(incoming.Traits))
		for t, v := range existing.Traits {
			traits[t] = v
		}
		for t, v := range incoming.Traits {
			traits[t] = v
		}
		merged.Traits = traits
	}
	if len(incoming.Gems) > 0 {
		merged.Gems = incoming.Gems
	}
	if incoming.Raw != nil {
		merged.Raw = incoming.Raw
	}

	return &merged
}

func overwrite(dst *string, incoming string) {
	if incoming != "" {
		*dst = incoming
	}
}
