package graph

import (
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/scrypster/lineage/pkg/types"
)

// This file carries the permalink value semantics: which session and
// filter state goes into shareable query parameters and how those
// parameters parse back. Building the final URL string is viewer glue.

// EncodeStateParams encodes the session's data source, filter state and an
// optional locked path into query parameters.
func EncodeStateParams(s *Session, pathFrom, pathTo int64) url.Values {
	params := url.Values{}

	// A still-pristine bulk document load round-trips as its URL; anything
	// expanded since has to be pinned as an explicit id list.
	if u := s.DataURL(); u != "" && s.ExpandedCount() == 0 {
		params.Set("dataUrl", u)
	} else if s.Len() > 0 {
		ids := s.IDs()
		slices.Sort(ids)
		params.Set("kitties", joinIDs(ids))
		params.Set("noExpand", "true")
	}

	f := s.Filter()
	if f.GenerationActive {
		if f.GenerationMin != nil {
			params.Set("genMin", strconv.Itoa(*f.GenerationMin))
		}
		if f.GenerationMax != nil {
			params.Set("genMax", strconv.Itoa(*f.GenerationMax))
		}
	}
	if f.MewtationActive {
		if len(f.MewtationTiers) == 0 {
			params.Set("mewtations", "all")
		} else {
			tiers := make([]string, len(f.MewtationTiers))
			for i, t := range f.MewtationTiers {
				tiers[i] = string(t)
			}
			params.Set("mewtations", strings.Join(tiers, ","))
		}
	}

	if pathFrom > 0 && pathTo > 0 {
		params.Set("pathFrom", strconv.FormatInt(pathFrom, 10))
		params.Set("pathTo", strconv.FormatInt(pathTo, 10))
	}

	return params
}

// ParseFilterParams reads filter state from query parameters permissively:
// an unparseable bound means no constraint on that side, never a rejected
// filter. A "mewtations" value of "all" activates the mewtation filter with
// every tier qualifying.
func ParseFilterParams(params url.Values) types.FilterState {
	var f types.FilterState

	genMin := parseBound(params.Get("genMin"))
	genMax := parseBound(params.Get("genMax"))
	if genMin != nil || genMax != nil {
		f.GenerationActive = true
		f.GenerationMin = genMin
		f.GenerationMax = genMax
	}

	if mewtations := params.Get("mewtations"); mewtations != "" {
		f.MewtationActive = true
		if mewtations != "all" {
			for _, part := range strings.Split(mewtations, ",") {
				part = strings.ToLower(strings.TrimSpace(part))
				if part != "" {
					f.MewtationTiers = append(f.MewtationTiers, types.GemTier(part))
				}
			}
		}
	}

	return f
}

// ParseIDList reads a comma or whitespace separated id list, dropping
// anything non-numeric.
func ParseIDList(value string) []int64 {
	fields := strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	var ids []int64
	for _, field := range fields {
		id, err := strconv.ParseInt(field, 10, 64)
		if err == nil && id > 0 {
			ids = append(ids, id)
		}
	}
	return ids
}

func parseBound(value string) *int {
	if value == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return nil
	}
	return &n
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}
