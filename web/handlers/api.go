package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/scrypster/lineage/internal/graph"
	"github.com/scrypster/lineage/internal/sessions"
	"github.com/scrypster/lineage/pkg/types"
)

// BreakerStater is satisfied by fetchers that expose circuit breaker state.
type BreakerStater interface {
	BreakerState() string
}

// GraphHandlers serves the session-scoped graph API. Callers pick a session
// via the "session" query parameter or the X-Session-ID header; omitting
// both uses the default session.
type GraphHandlers struct {
	manager *sessions.Manager
	breaker BreakerStater
	// docClient fetches remote bulk documents for data_url loads.
	docClient *http.Client
}

// NewGraphHandlers creates handlers over the given session manager.
// breaker may be nil when no upstream fetcher is configured.
func NewGraphHandlers(manager *sessions.Manager, breaker BreakerStater) *GraphHandlers {
	return &GraphHandlers{
		manager:   manager,
		breaker:   breaker,
		docClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (h *GraphHandlers) resolve(w http.ResponseWriter, r *http.Request) (*sessions.Entry, bool) {
	id := r.URL.Query().Get("session")
	if id == "" {
		id = r.Header.Get("X-Session-ID")
	}
	entry, err := h.manager.Get(id)
	if err != nil {
		respondError(w, http.StatusNotFound, "unknown session", err)
		return nil, false
	}
	return entry, true
}

// CreateSession handles POST /api/sessions.
func (h *GraphHandlers) CreateSession(w http.ResponseWriter, r *http.Request) {
	entry := h.manager.Create()
	respondJSON(w, http.StatusCreated, SessionResponse{SessionID: entry.ID})
}

// DeleteSession handles DELETE /api/sessions/{id}.
func (h *GraphHandlers) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.manager.Delete(r.PathValue("id")); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, sessions.ErrNotFound) {
			status = http.StatusNotFound
		}
		respondError(w, status, "failed to delete session", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Load handles POST /api/load - full reload from ids, an inline bulk
// document, or a remote document URL.
func (h *GraphHandlers) Load(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.resolve(w, r)
	if !ok {
		return
	}

	var req LoadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	switch {
	case req.Document != nil:
		loaded := entry.Orchestrator.LoadDocument(req.Document)
		respondJSON(w, http.StatusOK, LoadResponse{Loaded: loaded})

	case req.DataURL != "":
		data, err := h.fetchDocument(req.DataURL)
		if err != nil {
			respondError(w, http.StatusBadGateway, "failed to fetch document", err)
			return
		}
		loaded, err := entry.Orchestrator.LoadDocumentJSON(data)
		if err != nil {
			respondError(w, http.StatusBadRequest, "failed to load document", err)
			return
		}
		// Set after the load since Reset clears it.
		entry.Session.SetDataURL(req.DataURL)
		respondJSON(w, http.StatusOK, LoadResponse{Loaded: loaded})

	case len(req.IDs) > 0:
		if err := entry.Orchestrator.LoadByIDs(r.Context(), req.IDs, req.NoExpand); err != nil {
			respondError(w, http.StatusBadGateway, "failed to load kitties", err)
			return
		}
		respondJSON(w, http.StatusOK, LoadResponse{Loaded: entry.Session.Len()})

	default:
		respondError(w, http.StatusBadRequest, "nothing to load", nil)
	}
}

// Add handles POST /api/add - incremental load into the existing graph.
func (h *GraphHandlers) Add(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.resolve(w, r)
	if !ok {
		return
	}

	var req LoadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if len(req.IDs) == 0 {
		respondError(w, http.StatusBadRequest, "no ids given", nil)
		return
	}

	if err := entry.Orchestrator.AddByIDs(r.Context(), req.IDs, req.NoExpand); err != nil {
		respondError(w, http.StatusBadGateway, "failed to add kitties", err)
		return
	}
	respondJSON(w, http.StatusOK, LoadResponse{Loaded: entry.Session.Len()})
}

// Expand handles POST /api/expand - fetch and merge one kitty's family.
func (h *GraphHandlers) Expand(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.resolve(w, r)
	if !ok {
		return
	}

	var req ExpandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	already, err := entry.Orchestrator.Expand(r.Context(), req.ID)
	if err != nil {
		respondError(w, http.StatusBadGateway, "failed to expand family", err)
		return
	}
	respondJSON(w, http.StatusOK, ExpandResponse{
		AlreadyExpanded: already,
		Kitties:         entry.Session.Len(),
	})
}

// Path handles GET /api/path?from=&to= - BFS shortest path. Two kitties in
// disconnected components yield an empty path, not an error.
func (h *GraphHandlers) Path(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.resolve(w, r)
	if !ok {
		return
	}

	from := parseID(r.URL.Query().Get("from"))
	to := parseID(r.URL.Query().Get("to"))
	if from <= 0 || to <= 0 {
		respondError(w, http.StatusBadRequest, "from and to must be positive ids", nil)
		return
	}

	path := graph.ShortestPath(entry.Session, from, to)
	resp := PathResponse{Path: path}
	if len(path) > 0 {
		resp.Hops = len(path) - 1
	}
	if resp.Path == nil {
		resp.Path = []int64{}
	}
	respondJSON(w, http.StatusOK, resp)
}

// GetFilter handles GET /api/filter.
func (h *GraphHandlers) GetFilter(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.resolve(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, entry.Session.Filter())
}

// PutFilter handles PUT /api/filter - replace the active filter state.
func (h *GraphHandlers) PutFilter(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.resolve(w, r)
	if !ok {
		return
	}

	var f types.FilterState
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		respondError(w, http.StatusBadRequest, "invalid filter state", err)
		return
	}
	entry.Session.SetFilter(f)
	respondJSON(w, http.StatusOK, f)
}

// Matches handles GET /api/matches - ids matching the active filter.
func (h *GraphHandlers) Matches(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.resolve(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, idSetResponse(graph.MatchedIDs(entry.Session)))
}

// Owner handles GET /api/owner?address=&nickname= - ids held by the target
// owner, including kitties whose seller matches while on auction.
func (h *GraphHandlers) Owner(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.resolve(w, r)
	if !ok {
		return
	}

	addr := r.URL.Query().Get("address")
	nick := r.URL.Query().Get("nickname")
	if addr == "" && nick == "" {
		respondError(w, http.StatusBadRequest, "address or nickname required", nil)
		return
	}
	respondJSON(w, http.StatusOK, idSetResponse(graph.OwnerIDs(entry.Session, addr, nick)))
}

// Highlight handles GET /api/highlight?trait= or ?gem= - trait and gem
// hover highlight sets.
func (h *GraphHandlers) Highlight(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.resolve(w, r)
	if !ok {
		return
	}

	if trait := r.URL.Query().Get("trait"); trait != "" {
		respondJSON(w, http.StatusOK, idSetResponse(graph.HighlightByTrait(entry.Session, trait)))
		return
	}
	if gem := r.URL.Query().Get("gem"); gem != "" {
		respondJSON(w, http.StatusOK, idSetResponse(graph.HighlightByGemTier(entry.Session, types.GemTier(gem))))
		return
	}
	respondError(w, http.StatusBadRequest, "trait or gem required", nil)
}

// Graph handles GET /api/graph - the node/link projection plus the current
// matched-id set for highlight styling.
func (h *GraphHandlers) Graph(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.resolve(w, r)
	if !ok {
		return
	}

	resp := GraphResponse{
		Nodes: graph.Nodes(entry.Session),
		Links: graph.Links(entry.Session),
	}
	if entry.Session.Filter().Active() {
		resp.MatchedIDs = sortedIDs(graph.MatchedIDs(entry.Session))
	}
	respondJSON(w, http.StatusOK, resp)
}

// Document handles GET /api/document - snapshot the session as a bulk JSON
// document.
func (h *GraphHandlers) Document(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.resolve(w, r)
	if !ok {
		return
	}

	doc, err := entry.Orchestrator.SaveDocument()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to build document", err)
		return
	}
	respondJSON(w, http.StatusOK, doc)
}

// Permalink handles GET /api/permalink?pathFrom=&pathTo= - the shareable
// query parameters for the session's current state.
func (h *GraphHandlers) Permalink(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.resolve(w, r)
	if !ok {
		return
	}

	pathFrom := parseID(r.URL.Query().Get("pathFrom"))
	pathTo := parseID(r.URL.Query().Get("pathTo"))
	params := graph.EncodeStateParams(entry.Session, pathFrom, pathTo)
	respondJSON(w, http.StatusOK, map[string]string{"params": params.Encode()})
}

// Stats handles GET /api/stats.
func (h *GraphHandlers) Stats(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.resolve(w, r)
	if !ok {
		return
	}

	resp := StatsResponse{
		Sessions: len(h.manager.IDs()),
		Kitties:  entry.Session.Len(),
		Roots:    len(entry.Session.RootIDs()),
		Expanded: entry.Session.ExpandedCount(),
	}
	if h.breaker != nil {
		resp.BreakerState = h.breaker.BreakerState()
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *GraphHandlers) fetchDocument(url string) ([]byte, error) {
	resp, err := h.docClient.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, url)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 64<<20))
}

func idSetResponse(ids map[int64]struct{}) IDSetResponse {
	sorted := sortedIDs(ids)
	return IDSetResponse{IDs: sorted, Count: len(sorted)}
}

func sortedIDs(ids map[int64]struct{}) []int64 {
	out := make([]int64, 0, len(ids))
	for id := range ids {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

func parseID(value string) int64 {
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id < 0 {
		return 0
	}
	return id
}
