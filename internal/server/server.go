// Package server provides HTTP server initialization and lifecycle management
// for the lineage web UI.
package server

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/scrypster/lineage/internal/config"
	"github.com/scrypster/lineage/internal/sessions"
	"github.com/scrypster/lineage/web/handlers"
)

// securityHeadersMiddleware adds security headers to all HTTP responses.
func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// Start initializes and starts the HTTP server. It returns the actual
// address being listened on (useful for testing with port 0) and the
// WebSocketHub carrying graph events to connected viewers. The fetcher
// argument may be nil when the server runs without an upstream API; in
// that case /api/stats omits the breaker state.
func Start(ctx context.Context, cfg *config.Config, manager *sessions.Manager, fetcher any) (string, *handlers.WebSocketHub, error) {
	mux := http.NewServeMux()

	wsHub := handlers.NewWebSocketHub()
	go wsHub.Run()

	// Every session, present and future, streams its events to the hub.
	manager.SetOnCreate(func(entry *sessions.Entry) {
		entry.Session.Subscribe(wsHub.Broadcast)
	})

	// 10 req/sec with a burst of 20
	rateLimiter := handlers.NewRateLimiter(10.0, 20)

	var breaker handlers.BreakerStater
	if bs, ok := fetcher.(handlers.BreakerStater); ok {
		breaker = bs
	}
	graphHandlers := handlers.NewGraphHandlers(manager, breaker)

	// API routes (require auth in production mode)
	apiMux := http.NewServeMux()
	apiMux.HandleFunc("/api/sessions", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			graphHandlers.CreateSession(w, r)
		} else {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	apiMux.HandleFunc("/api/sessions/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			graphHandlers.DeleteSession(w, r)
		} else {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	apiMux.HandleFunc("/api/load", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			graphHandlers.Load(w, r)
		} else {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	apiMux.HandleFunc("/api/add", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			graphHandlers.Add(w, r)
		} else {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	apiMux.HandleFunc("/api/expand", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			graphHandlers.Expand(w, r)
		} else {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	apiMux.HandleFunc("/api/filter", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			graphHandlers.GetFilter(w, r)
		case http.MethodPut:
			graphHandlers.PutFilter(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	apiMux.HandleFunc("/api/path", graphHandlers.Path)
	apiMux.HandleFunc("/api/matches", graphHandlers.Matches)
	apiMux.HandleFunc("/api/owner", graphHandlers.Owner)
	apiMux.HandleFunc("/api/highlight", graphHandlers.Highlight)
	apiMux.HandleFunc("/api/graph", graphHandlers.Graph)
	apiMux.HandleFunc("/api/document", graphHandlers.Document)
	apiMux.HandleFunc("/api/permalink", graphHandlers.Permalink)
	apiMux.HandleFunc("/api/stats", graphHandlers.Stats)

	// Health endpoint — no auth required, used by monitoring
	mux.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","version":"1.0.0"}`))
	})

	// Wrap API routes with auth middleware
	mux.Handle("/api/", handlers.RequireAuth(apiMux, cfg))

	// WebSocket endpoint (no auth required - origin validation handles security)
	mux.HandleFunc("/ws", wsHub.ServeWS)

	// Static files and index page
	basePath := findBasePath()
	fs := http.FileServer(http.Dir(basePath + "/web/static"))
	mux.Handle("/static/", http.StripPrefix("/static/", fs))

	indexPath := basePath + "/web/templates/index.html"
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		http.ServeFile(w, r, indexPath)
	})

	// Wrap entire server with rate limiting, then security headers
	handler := handlers.RateLimitMiddleware(mux, rateLimiter)
	handler = securityHeadersMiddleware(handler)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, fmt.Errorf("server: listen on %s: %w", addr, err)
	}

	actualAddr := listener.Addr().String()

	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Printf("Server error: %v", err)
		}
	}()

	// Handle graceful shutdown
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
		wsHub.Stop()
	}()

	return actualAddr, wsHub, nil
}

// findBasePath returns the base path for the project.
// When running from cmd/lineage-web we need to go up two directories;
// tests may already run from the project root.
func findBasePath() string {
	if _, err := os.Stat("web/templates/index.html"); err == nil {
		return "."
	}
	if _, err := os.Stat("../web/templates/index.html"); err == nil {
		return ".."
	}
	if _, err := os.Stat("../../web/templates/index.html"); err == nil {
		return "../.."
	}
	return "."
}
