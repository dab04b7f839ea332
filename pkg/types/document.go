package types

// BulkDocument is the on-disk interchange format for a fetched graph:
// the ids the user explicitly asked for plus every kitty payload pulled in
// while crawling their lineage. Kitties may be raw API payloads or already
// normalized; loaders detect which by the shape of the id field.
type BulkDocument struct {
	Config     map[string]any    `json:"config,omitempty"`
	RootIDs    []int64           `json:"root_ids"`
	Counts     map[string]int    `json:"counts,omitempty"`
	Errors     []FetchError      `json:"errors,omitempty"`
	IncludedBy map[string]string `json:"included_by,omitempty"`
	Kitties    []RawKitty        `json:"kitties"`
}

// FetchError records a kitty that could not be fetched during a crawl.
type FetchError struct {
	ID     int64  `json:"id"`
	Reason string `json:"reason"`
}
