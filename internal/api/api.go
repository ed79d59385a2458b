// Package api provides HTTP handlers and the main API server logic for
// ConsentDraft.
//
// It exposes RESTful endpoints for draft persistence, the contact and
// jurisdiction directories, and stateless wizard step resolution. The API
// integrates with the store, catalog, and wizard modules.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ConsentLoop/ConsentDraft/internal/catalog"
	"github.com/ConsentLoop/ConsentDraft/internal/store"
)

// Server timeout configuration constants
const (
	// DefaultReadTimeout is the maximum duration for reading a request
	DefaultReadTimeout = 15 * time.Second
	// DefaultWriteTimeout is the maximum duration for writing a response
	DefaultWriteTimeout = 15 * time.Second
	// DefaultShutdownTimeout is the grace period for in-flight requests on shutdown
	DefaultShutdownTimeout = 10 * time.Second
)

// Server hosts the ConsentDraft HTTP API.
type Server struct {
	st  store.Store
	cat *catalog.Catalog
}

// NewServer creates an API server backed by the given store and catalog.
func NewServer(st store.Store, cat *catalog.Catalog) *Server {
	return &Server{st: st, cat: cat}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/catalog/encounter-types", s.encounterTypesHandler)
	mux.HandleFunc("/catalog/states", s.statesHandler)
	mux.HandleFunc("/universities", s.universitiesHandler)
	mux.HandleFunc("/contacts", s.contactsHandler)
	mux.HandleFunc("/drafts", s.draftsHandler)
	mux.HandleFunc("/drafts/", s.draftByIDHandler)
	mux.HandleFunc("/wizard/resolve", s.resolveHandler)
	mux.HandleFunc("/wizard/validate", s.validateHandler)
	return mux
}

// Run serves the API on addr until the context is canceled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  DefaultReadTimeout,
		WriteTimeout: DefaultWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("ConsentDraft API running", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		slog.Error("Server.Run: listener failed", "error", err)
		return err
	case <-ctx.Done():
		slog.Info("Server.Run: shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// extractDraftID pulls the draft id from a /drafts/{id} path.
func extractDraftID(r *http.Request) string {
	id := strings.TrimPrefix(r.URL.Path, "/drafts/")
	if strings.Contains(id, "/") {
		return ""
	}
	return id
}
