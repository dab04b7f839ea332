// Package expand implements the fetch/merge orchestration over a graph
// session: single-kitty family expansion, bulk loads by id, bulk document
// loads and the low-priority background prefetch of embedded relatives.
package expand

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/scrypster/lineage/internal/graph"
	"github.com/scrypster/lineage/pkg/types"
)

// Fetcher retrieves raw kitty payloads. kittyapi.Client satisfies it; tests
// substitute fakes.
type Fetcher interface {
	FetchKitty(ctx context.Context, id int64) (types.RawKitty, error)
}

// defaultPrefetchDelay paces background prefetch requests so the external
// API's soft rate limit is respected.
const defaultPrefetchDelay = 150 * time.Millisecond

// Orchestrator drives all fetching and merging for one session. Fetches
// within a call are sequential; concurrent calls asking for the same id are
// collapsed into a single in-flight request.
type Orchestrator struct {
	session *graph.Session
	fetcher Fetcher
	group   singleflight.Group
	limiter *rate.Limiter
}

// Config holds orchestrator options.
type Config struct {
	// PrefetchDelay is the fixed delay between background prefetch
	// requests (default: 150ms).
	PrefetchDelay time.Duration
}

// New creates an orchestrator over the given session and fetcher.
func New(session *graph.Session, fetcher Fetcher, config Config) *Orchestrator {
	if config.PrefetchDelay <= 0 {
		config.PrefetchDelay = defaultPrefetchDelay
	}
	return &Orchestrator{
		session: session,
		fetcher: fetcher,
		limiter: rate.NewLimiter(rate.Every(config.PrefetchDelay), 1),
	}
}

// Session returns the session this orchestrator mutates.
func (o *Orchestrator) Session() *graph.Session {
	return o.session
}

// Expand fetches the full family data for id (parents plus children come
// embedded in one response) and merges it into the session. Expansion is
// idempotent: a second call for the same id is a no-op reported through
// alreadyExpanded, and no second fetch is issued. On failure the expansion
// mark is rolled back so a retry is possible.
func (o *Orchestrator) Expand(ctx context.Context, id int64) (alreadyExpanded bool, err error) {
	if id <= 0 {
		return false, fmt.Errorf("expand: invalid id %d", id)
	}
	if !o.session.MarkExpanded(id) {
		return true, nil
	}

	raw, cached := o.session.TakeCachedPayload(id)
	if !cached {
		raw, err = o.fetch(ctx, id)
		if err != nil {
			o.session.UnmarkExpanded(id)
			return false, fmt.Errorf("expand kitty %d: %w", id, err)
		}
	}

	primary, normErr := graph.Normalize(raw)
	if normErr != nil {
		o.session.UnmarkExpanded(id)
		return false, fmt.Errorf("expand kitty %d: %w", id, normErr)
	}

	toAdd := []*types.Kitty{primary}

	for _, key := range []string{"matron", "sire"} {
		if parent, ok := raw.Object(key); ok {
			if normalized, err := graph.Normalize(parent); err == nil {
				toAdd = append(toAdd, normalized)
			}
		}
	}

	for _, entry := range raw.List("children") {
		childRaw, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		child := o.normalizeChild(types.RawKitty(childRaw), id)
		if child != nil {
			toAdd = append(toAdd, child)
		}
	}

	for _, k := range toAdd {
		o.session.Upsert(k)
	}
	o.session.NotifyLoaded(len(toAdd))
	log.Printf("expand: kitty %d merged %d records", id, len(toAdd))
	return false, nil
}

// normalizeChild normalizes an embedded child of the expanding kitty and
// fills in the missing parent slot. The API does not say whether the
// expanding kitty is the child's matron or sire; the empty slot decides,
// with matron-first for brand-new records. When both slots are legitimately
// empty this can mis-assign parentage; kept for compatibility with the
// established graphs.
func (o *Orchestrator) normalizeChild(childRaw types.RawKitty, parentID int64) *types.Kitty {
	child, err := graph.Normalize(childRaw)
	if err != nil {
		return nil
	}

	existing, known := o.session.Get(child.ID)
	if known && existing.HasBothParents() {
		// The embedded copy may be incomplete; keep the good record.
		return nil
	}

	if !known {
		if child.MatronID == 0 {
			child.MatronID = parentID
		} else if child.SireID == 0 {
			child.SireID = parentID
		}
		return child
	}

	if existing.MatronID > 0 && existing.SireID == 0 {
		child.SireID = parentID
	} else if existing.SireID > 0 && existing.MatronID == 0 {
		child.MatronID = parentID
	}
	return child
}

// LoadByIDs clears the session and loads the given root ids. Unless
// noExpand is set, relatives embedded in the responses are collected as
// shallow records and filled in later by a rate-limited background
// prefetch. Any fetch failure aborts the load before the session is
// touched.
func (o *Orchestrator) LoadByIDs(ctx context.Context, ids []int64, noExpand bool) error {
	if len(ids) == 0 {
		return nil
	}

	requested := idSet(ids)
	collected, embedded, err := o.fetchRoots(ctx, ids, requested, noExpand, nil)
	if err != nil {
		return err
	}

	o.session.Reset()
	o.session.AddRootIDs(ids...)
	for _, k := range collected {
		o.session.Upsert(k)
	}
	o.session.NotifyLoaded(len(collected))
	log.Printf("load: %d roots, %d records, %d embedded pending", len(ids), len(collected), len(embedded))

	o.schedulePrefetch(ctx, noExpand, embedded)
	return nil
}

// AddByIDs loads additional root ids into the existing graph, skipping ids
// already present.
func (o *Orchestrator) AddByIDs(ctx context.Context, ids []int64, noExpand bool) error {
	var missing []int64
	for _, id := range ids {
		if !o.session.Has(id) {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	requested := idSet(missing)
	collected, embedded, err := o.fetchRoots(ctx, missing, requested, noExpand, o.session.Has)
	if err != nil {
		return err
	}

	o.session.AddRootIDs(missing...)
	for _, k := range collected {
		o.session.Upsert(k)
	}
	o.session.NotifyLoaded(len(collected))

	o.schedulePrefetch(ctx, noExpand, embedded)
	return nil
}

func idSet(ids []int64) map[int64]struct{} {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// fetchRoots fetches each requested id sequentially and collects embedded
// relatives. skip, when non-nil, filters out embedded ids already known.
func (o *Orchestrator) fetchRoots(
	ctx context.Context,
	ids []int64,
	requested map[int64]struct{},
	noExpand bool,
	skip func(int64) bool,
) ([]*types.Kitty, []int64, error) {
	var collected []*types.Kitty
	fetched := make(map[int64]struct{})
	embedded := make(map[int64]*types.Kitty)
	var embeddedOrder []int64

	collectEmbedded := func(raw types.RawKitty, parentID int64, isChild bool) {
		id, ok := raw.Int64("id")
		if !ok || id <= 0 {
			return
		}
		if _, ok := requested[id]; ok {
			return
		}
		if _, ok := embedded[id]; ok {
			return
		}
		if skip != nil && skip(id) {
			return
		}
		normalized, err := graph.Normalize(raw)
		if err != nil {
			return
		}
		if isChild {
			// Matron-first heuristic for a record we know nothing about.
			if normalized.MatronID == 0 {
				normalized.MatronID = parentID
			} else if normalized.SireID == 0 {
				normalized.SireID = parentID
			}
		}
		embedded[id] = normalized
		embeddedOrder = append(embeddedOrder, id)
	}

	for _, id := range ids {
		if _, ok := fetched[id]; ok {
			continue
		}
		fetched[id] = struct{}{}

		raw, err := o.fetch(ctx, id)
		if err != nil {
			return nil, nil, fmt.Errorf("load kitty %d: %w", id, err)
		}
		normalized, err := graph.Normalize(raw)
		if err != nil {
			return nil, nil, fmt.Errorf("load kitty %d: %w", id, err)
		}
		collected = append(collected, normalized)

		if noExpand {
			continue
		}
		if matron, ok := raw.Object("matron"); ok {
			collectEmbedded(matron, id, false)
		}
		if sire, ok := raw.Object("sire"); ok {
			collectEmbedded(sire, id, false)
		}
		for _, entry := range raw.List("children") {
			if childRaw, ok := entry.(map[string]any); ok {
				collectEmbedded(types.RawKitty(childRaw), id, true)
			}
		}
	}

	for _, id := range embeddedOrder {
		if _, ok := fetched[id]; !ok {
			collected = append(collected, embedded[id])
		}
	}
	return collected, embeddedOrder, nil
}

// schedulePrefetch kicks off the background prefetch of embedded ids. The
// prefetch outlives the initiating request, so it runs detached from the
// caller's cancellation.
func (o *Orchestrator) schedulePrefetch(ctx context.Context, noExpand bool, embedded []int64) {
	if noExpand || len(embedded) == 0 {
		return
	}
	go func() {
		updated := o.PrefetchEmbedded(context.WithoutCancel(ctx), embedded)
		log.Printf("prefetch: completed, updated %d of %d", updated, len(embedded))
	}()
}

// PrefetchEmbedded fetches full data for shallow embedded records, one id
// at a time with a fixed inter-request delay. Ids that already carry full
// relative data are skipped. Each fetched payload is also cached so a later
// Expand of that id needs no network call. Failures are logged and skipped;
// prefetch is best-effort. Returns the number of records updated.
func (o *Orchestrator) PrefetchEmbedded(ctx context.Context, ids []int64) int {
	updated := 0
	for _, id := range ids {
		if existing, ok := o.session.Get(id); ok && hasFullRelativeData(existing) {
			continue
		}
		if err := o.limiter.Wait(ctx); err != nil {
			return updated
		}

		raw, err := o.fetch(ctx, id)
		if err != nil {
			log.Printf("prefetch: kitty %d failed: %v", id, err)
			continue
		}
		normalized, err := graph.Normalize(raw)
		if err != nil {
			log.Printf("prefetch: kitty %d: %v", id, err)
			continue
		}

		o.session.Upsert(normalized)
		o.session.CachePayload(id, raw)
		updated++
	}
	if updated > 0 {
		o.session.NotifyLoaded(updated)
	}
	return updated
}

// hasFullRelativeData reports whether a record came from a full API
// response rather than an embedded copy: full responses carry the
// relatives inline.
func hasFullRelativeData(k *types.Kitty) bool {
	if k.Raw == nil {
		return false
	}
	for _, key := range []string{"children", "matron", "sire"} {
		if _, ok := k.Raw[key]; ok {
			return true
		}
	}
	return false
}

// fetch collapses concurrent requests for the same id into one upstream
// call.
func (o *Orchestrator) fetch(ctx context.Context, id int64) (types.RawKitty, error) {
	if o.fetcher == nil {
		return nil, ErrNoFetcher
	}
	v, err, _ := o.group.Do(strconv.FormatInt(id, 10), func() (interface{}, error) {
		return o.fetcher.FetchKitty(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return v.(types.RawKitty), nil
}

// LoadDocumentJSON parses and loads a bulk JSON document. A document that
// does not parse aborts cleanly before any session mutation.
func (o *Orchestrator) LoadDocumentJSON(data []byte) (int, error) {
	var doc types.BulkDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return 0, fmt.Errorf("load document: %w", err)
	}
	return o.LoadDocument(&doc), nil
}

// LoadDocument clears the session and loads a bulk document. Kitties may be
// raw API payloads or previously saved normalized records; entries without
// a usable id are skipped rather than failing the load.
func (o *Orchestrator) LoadDocument(doc *types.BulkDocument) int {
	o.session.Reset()
	o.session.AddRootIDs(doc.RootIDs...)

	loaded := 0
	for _, raw := range doc.Kitties {
		k, err := decodeDocumentKitty(raw)
		if err != nil {
			continue
		}
		o.session.Upsert(k)
		loaded++
	}
	o.session.NotifyLoaded(loaded)
	log.Printf("load document: %d roots, %d kitties", len(doc.RootIDs), loaded)
	return loaded
}

// SaveDocument snapshots the session as a bulk document that LoadDocument
// round-trips.
func (o *Orchestrator) SaveDocument() (*types.BulkDocument, error) {
	doc := &types.BulkDocument{RootIDs: o.session.RootIDs()}
	for _, k := range o.session.Kitties() {
		raw, err := kittyToRaw(k)
		if err != nil {
			return nil, fmt.Errorf("save document: kitty %d: %w", k.ID, err)
		}
		doc.Kitties = append(doc.Kitties, raw)
	}
	return doc, nil
}

// canonicalOnlyKeys are fields only SaveDocument emits, never the API.
// Normalize would drop them, so their presence marks a canonical record.
var canonicalOnlyKeys = []string{"raw", "traits", "gems", "kitty_color", "owner_address"}

func isCanonicalKitty(raw types.RawKitty) bool {
	for _, key := range canonicalOnlyKeys {
		if _, ok := raw[key]; ok {
			return true
		}
	}
	return false
}

// decodeDocumentKitty detects whether a document entry is already in the
// canonical shape and decodes it directly; anything else goes through
// Normalize.
func decodeDocumentKitty(raw types.RawKitty) (*types.Kitty, error) {
	if !isCanonicalKitty(raw) {
		return graph.Normalize(raw)
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var k types.Kitty
	if err := json.Unmarshal(data, &k); err != nil {
		return nil, err
	}
	if k.ID <= 0 {
		return nil, graph.ErrMissingID
	}
	return &k, nil
}

func kittyToRaw(k *types.Kitty) (types.RawKitty, error) {
	data, err := json.Marshal(k)
	if err != nil {
		return nil, err
	}
	var raw types.RawKitty
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// ErrNoFetcher is returned by orchestrators constructed without a fetcher
// when a network operation is requested.
var ErrNoFetcher = errors.New("expand: no fetcher configured")
