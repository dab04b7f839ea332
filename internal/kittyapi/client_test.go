package kittyapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL})
}

func TestFetchKitty(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/kitties/1234", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		fmt.Fprint(w, `{"id": 1234, "name": "Founder"}`)
	})

	raw, err := client.FetchKitty(context.Background(), 1234)
	require.NoError(t, err)

	id, ok := raw.Int64("id")
	require.True(t, ok)
	assert.Equal(t, int64(1234), id)
	assert.Equal(t, "Founder", raw["name"])
}

func TestFetchKittyUnwrapsEnvelope(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"kitty": {"id": 9, "name": "Wrapped"}}`)
	})

	raw, err := client.FetchKitty(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, "Wrapped", raw["name"])
}

func TestFetchKittyHTTPError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such kitty", http.StatusNotFound)
	})

	_, err := client.FetchKitty(context.Background(), 404)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch kitty 404")
	assert.Contains(t, err.Error(), "HTTP 404")
}

func TestFetchKittyBadJSON(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{not json`)
	})

	_, err := client.FetchKitty(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}

func TestCircuitBreakerOpensAfterFailures(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "down", http.StatusInternalServerError)
	})

	assert.Equal(t, "closed", client.BreakerState())
	for i := 0; i < 3; i++ {
		_, err := client.FetchKitty(context.Background(), 1)
		require.Error(t, err)
	}
	assert.Equal(t, "open", client.BreakerState())

	// with the breaker open, requests fail without touching the server
	before := calls
	_, err := client.FetchKitty(context.Background(), 1)
	require.Error(t, err)
	assert.Equal(t, before, calls)
}

func TestFetchKittyContextCancelled(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id": 1}`)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.FetchKitty(ctx, 1)
	assert.Error(t, err)
}
