// Package handlers provides the HTTP handlers and middleware exposing
// graph sessions to the viewers.
package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/scrypster/lineage/internal/graph"
	"github.com/scrypster/lineage/pkg/types"
)

// ErrorResponse is the standard error response format for the API.
type ErrorResponse struct {
	Error   string         `json:"error"`
	Code    string         `json:"code"`
	Details map[string]any `json:"details,omitempty"`
}

// LoadRequest is the body for POST /api/load and /api/add. Exactly one of
// IDs, Document or DataURL should be set.
type LoadRequest struct {
	IDs      []int64             `json:"ids,omitempty"`
	Document *types.BulkDocument `json:"document,omitempty"`
	DataURL  string              `json:"data_url,omitempty"`
	NoExpand bool                `json:"no_expand,omitempty"`
}

// LoadResponse reports a completed load.
type LoadResponse struct {
	Loaded int `json:"loaded"`
}

// ExpandRequest is the body for POST /api/expand.
type ExpandRequest struct {
	ID int64 `json:"id"`
}

// ExpandResponse reports an expansion outcome.
type ExpandResponse struct {
	AlreadyExpanded bool `json:"already_expanded"`
	Kitties         int  `json:"kitties"`
}

// PathResponse is the result of GET /api/path. An empty path means the two
// kitties are not connected; Hops is len(path)-1 when a path exists.
type PathResponse struct {
	Path []int64 `json:"path"`
	Hops int     `json:"hops"`
}

// IDSetResponse carries a matched-id set, ascending.
type IDSetResponse struct {
	IDs   []int64 `json:"ids"`
	Count int     `json:"count"`
}

// GraphResponse is the render-facing projection of a session.
type GraphResponse struct {
	Nodes      []graph.Node `json:"nodes"`
	Links      []graph.Link `json:"links"`
	MatchedIDs []int64      `json:"matched_ids,omitempty"`
}

// SessionResponse reports a created session.
type SessionResponse struct {
	SessionID string `json:"session_id"`
}

// StatsResponse summarizes a session and the upstream API health.
type StatsResponse struct {
	Sessions     int    `json:"sessions"`
	Kitties      int    `json:"kitties"`
	Roots        int    `json:"roots"`
	Expanded     int    `json:"expanded"`
	BreakerState string `json:"breaker_state,omitempty"`
}

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already sent; nothing left to do but log.
		log.Printf("failed to encode JSON response: %v", err)
	}
}

// respondError writes an error response with the given status code.
func respondError(w http.ResponseWriter, statusCode int, message string, err error) {
	errResp := ErrorResponse{
		Error: message,
		Code:  http.StatusText(statusCode),
	}
	if err != nil {
		errResp.Details = map[string]any{"error": err.Error()}
	}
	respondJSON(w, statusCode, errResp)
}
