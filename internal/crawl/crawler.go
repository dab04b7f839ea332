// Package crawl implements the recursive lineage crawler behind the
// lineage-fetch CLI: starting from root ids it walks ancestors and
// descendants to configurable depths and produces a bulk JSON document
// the viewers load directly.
package crawl

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/scrypster/lineage/internal/expand"
	"github.com/scrypster/lineage/internal/storage/sqlite"
	"github.com/scrypster/lineage/pkg/types"
)

// Config controls a crawl.
type Config struct {
	// ParentLevels is how many ancestor generations to follow from each
	// root (matron and sire both count as one level).
	ParentLevels int

	// ChildLevels is how many descendant generations to follow.
	ChildLevels int

	// ChildParentLevels optionally fetches this many ancestor levels for
	// each discovered child, so in-law parents show up in the graph.
	ChildParentLevels int

	// Delay is the fixed pause between API requests (default: 200ms).
	Delay time.Duration
}

// Crawler walks lineage via the API, optionally short-circuiting through an
// on-disk payload cache so reruns skip already-fetched ids.
type Crawler struct {
	fetcher expand.Fetcher
	cache   *sqlite.PayloadCache
	limiter *rate.Limiter
	config  Config

	payloads   map[int64]types.RawKitty
	order      []int64
	includedBy map[int64]string
	errors     []types.FetchError
}

// item is one pending crawl step.
type item struct {
	id          int64
	parentsLeft int
	childLeft   int
	reason      string
}

// New creates a crawler. cache may be nil to disable persistence.
func New(fetcher expand.Fetcher, cache *sqlite.PayloadCache, config Config) *Crawler {
	if config.Delay <= 0 {
		config.Delay = 200 * time.Millisecond
	}
	return &Crawler{
		fetcher:    fetcher,
		cache:      cache,
		limiter:    rate.NewLimiter(rate.Every(config.Delay), 1),
		config:     config,
		payloads:   make(map[int64]types.RawKitty),
		includedBy: make(map[int64]string),
	}
}

// Run crawls from the given roots and returns the aggregated document.
// Individual fetch failures are recorded in the document's error list and
// do not abort the crawl.
func (c *Crawler) Run(ctx context.Context, roots []int64) (*types.BulkDocument, error) {
	queue := make([]item, 0, len(roots))
	for _, id := range roots {
		queue = append(queue, item{
			id:          id,
			parentsLeft: c.config.ParentLevels,
			childLeft:   c.config.ChildLevels,
			reason:      "root",
		})
	}

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next := queue[0]
		queue = queue[1:]

		raw, visited, err := c.visit(ctx, next)
		if err != nil {
			c.errors = append(c.errors, types.FetchError{ID: next.id, Reason: err.Error()})
			log.Printf("crawl: kitty %d failed: %v", next.id, err)
			continue
		}
		if !visited {
			continue
		}

		queue = append(queue, c.follow(raw, next)...)
	}

	doc := &types.BulkDocument{
		Config: map[string]any{
			"parents":             c.config.ParentLevels,
			"children":            c.config.ChildLevels,
			"child_parent_levels": c.config.ChildParentLevels,
			"fetched_at":          time.Now().UTC().Format(time.RFC3339),
		},
		RootIDs: roots,
		Counts: map[string]int{
			"kitties": len(c.order),
			"errors":  len(c.errors),
		},
		Errors:     c.errors,
		IncludedBy: make(map[string]string, len(c.includedBy)),
	}
	for id, reason := range c.includedBy {
		doc.IncludedBy[strconv.FormatInt(id, 10)] = reason
	}
	for _, id := range c.order {
		doc.Kitties = append(doc.Kitties, c.payloads[id])
	}
	return doc, nil
}

// visit fetches one id (cache first) and records it. Returns visited=false
// when the id was already crawled in this run.
func (c *Crawler) visit(ctx context.Context, it item) (types.RawKitty, bool, error) {
	if _, ok := c.payloads[it.id]; ok {
		return nil, false, nil
	}

	raw, err := c.lookup(ctx, it.id)
	if err != nil {
		return nil, false, err
	}

	c.payloads[it.id] = raw
	c.order = append(c.order, it.id)
	c.includedBy[it.id] = it.reason
	return raw, true, nil
}

// follow produces the next crawl steps reachable from a fetched payload.
func (c *Crawler) follow(raw types.RawKitty, it item) []item {
	var next []item

	if it.parentsLeft > 0 {
		if matron, ok := raw.ParentID([]string{"matron_id", "matronId"}, []string{"matron"}); ok {
			next = append(next, item{
				id:          matron,
				parentsLeft: it.parentsLeft - 1,
				reason:      fmt.Sprintf("matron of %d", it.id),
			})
		}
		if sire, ok := raw.ParentID([]string{"sire_id", "sireId"}, []string{"sire"}); ok {
			next = append(next, item{
				id:          sire,
				parentsLeft: it.parentsLeft - 1,
				reason:      fmt.Sprintf("sire of %d", it.id),
			})
		}
	}

	if it.childLeft > 0 {
		for _, entry := range raw.List("children") {
			child, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			childID, ok := types.RawKitty(child).Int64("id")
			if !ok || childID <= 0 {
				continue
			}
			next = append(next, item{
				id:          childID,
				parentsLeft: c.config.ChildParentLevels,
				childLeft:   it.childLeft - 1,
				reason:      fmt.Sprintf("child of %d", it.id),
			})
		}
	}

	return next
}

// lookup resolves a payload from the cache or, rate-limited, the API.
func (c *Crawler) lookup(ctx context.Context, id int64) (types.RawKitty, error) {
	if c.cache != nil {
		raw, err := c.cache.Get(ctx, id)
		if err == nil {
			return raw, nil
		}
		if !errors.Is(err, sqlite.ErrNotFound) {
			log.Printf("crawl: cache read for %d failed: %v", id, err)
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	raw, err := c.fetcher.FetchKitty(ctx, id)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.Put(ctx, id, raw); err != nil {
			log.Printf("crawl: cache write for %d failed: %v", id, err)
		}
	}
	return raw, nil
}
