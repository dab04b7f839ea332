package graph

import "github.com/scrypster/lineage/pkg/types"

// LinkMatron and LinkSire tag which parent role an edge represents.
const (
	LinkMatron = "matron"
	LinkSire   = "sire"
)

// Node is the render-facing projection of a kitty: identity plus the
// display attributes the viewers need, nothing else.
type Node struct {
	ID          int64       `json:"id"`
	Name        string      `json:"name,omitempty"`
	Generation  *int        `json:"generation,omitempty"`
	KittyColor  string      `json:"kitty_color,omitempty"`
	ShadowColor string      `json:"shadow_color,omitempty"`
	ImageURL    string      `json:"image_url,omitempty"`
	Gems        []types.Gem `json:"gems,omitempty"`
	Root        bool        `json:"root,omitempty"`
}

// Link is a directed parent edge from child to parent.
type Link struct {
	Source int64  `json:"source"`
	Target int64  `json:"target"`
	Type   string `json:"type"`
}

// Nodes projects the session into render nodes, in insertion order.
func Nodes(s *Session) []Node {
	kitties := s.Kitties()
	nodes := make([]Node, 0, len(kitties))
	for _, k := range kitties {
		nodes = append(nodes, Node{
			ID:          k.ID,
			Name:        k.Name,
			Generation:  k.Generation,
			KittyColor:  k.KittyColor,
			ShadowColor: k.ShadowColor,
			ImageURL:    k.ImageURL,
			Gems:        k.Gems,
			Root:        s.IsRoot(k.ID),
		})
	}
	return nodes
}

// Links projects parent references into edges. Only edges whose parent has
// its own record are emitted: renderers cannot draw an edge to a node that
// does not exist, while path finding still sees those links through
// BuildAdjacency.
func Links(s *Session) []Link {
	var links []Link
	for _, k := range s.Kitties() {
		if k.MatronID > 0 && s.Has(k.MatronID) {
			links = append(links, Link{Source: k.ID, Target: k.MatronID, Type: LinkMatron})
		}
		if k.SireID > 0 && s.Has(k.SireID) {
			links = append(links, Link{Source: k.ID, Target: k.SireID, Type: LinkSire})
		}
	}
	return links
}
