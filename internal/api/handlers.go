// Package api provides HTTP handlers for ConsentDraft directory and catalog endpoints.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/ConsentLoop/ConsentDraft/internal/catalog"
	"github.com/ConsentLoop/ConsentDraft/internal/models"
)

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("ConsentDraft is healthy", nil))
}

// encounterTypesHandler returns the encounter type catalog (GET /catalog/encounter-types).
func (s *Server) encounterTypesHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("Server.encounterTypesHandler invoked", "method", r.Method)
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		slog.Warn("Server.encounterTypesHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(s.cat.EncounterTypes()))
}

// statesHandler returns the US state table (GET /catalog/states).
func (s *Server) statesHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("Server.statesHandler invoked", "method", r.Method)
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		slog.Warn("Server.statesHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(catalog.USStates()))
}

// universitiesHandler searches the university directory (GET /universities?q=).
func (s *Server) universitiesHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("Server.universitiesHandler invoked", "method", r.Method)
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		slog.Warn("Server.universitiesHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	query := r.URL.Query().Get("q")
	universities, err := s.st.ListUniversities(query)
	if err != nil {
		slog.Error("Server.universitiesHandler: query failed", "error", err, "q", query)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to search universities"))
		return
	}
	slog.Debug("Server.universitiesHandler: search succeeded", "q", query, "count", len(universities))
	writeJSONResponse(w, http.StatusOK, models.Success(universities))
}

// contactsHandler lists (GET /contacts?owner=) or saves (POST /contacts) a
// contact in the owner's directory.
func (s *Server) contactsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	slog.Debug("Server.contactsHandler invoked", "method", r.Method)

	switch r.Method {
	case http.MethodGet:
		ownerID := r.URL.Query().Get("owner")
		if ownerID == "" {
			slog.Warn("Server.contactsHandler: missing owner")
			writeJSONResponse(w, http.StatusBadRequest, models.Error("Missing required parameter: owner"))
			return
		}
		contacts, err := s.st.ListContacts(ownerID)
		if err != nil {
			slog.Error("Server.contactsHandler: list failed", "error", err, "ownerID", ownerID)
			writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to list contacts"))
			return
		}
		writeJSONResponse(w, http.StatusOK, models.Success(contacts))

	case http.MethodPost:
		var req struct {
			OwnerID string         `json:"owner_id"`
			Contact models.Contact `json:"contact"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			slog.Warn("Server.contactsHandler: failed to decode JSON", "error", err)
			writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
			return
		}
		if req.OwnerID == "" || req.Contact.Username == "" {
			slog.Warn("Server.contactsHandler: missing fields", "ownerID", req.OwnerID)
			writeJSONResponse(w, http.StatusBadRequest, models.Error("Missing required fields: owner_id, contact.username"))
			return
		}
		if err := s.st.SaveContact(req.OwnerID, req.Contact); err != nil {
			slog.Error("Server.contactsHandler: save failed", "error", err, "ownerID", req.OwnerID)
			writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to save contact"))
			return
		}
		slog.Info("Server.contactsHandler: contact saved", "ownerID", req.OwnerID, "username", req.Contact.Username)
		writeJSONResponse(w, http.StatusCreated, models.SuccessWithMessage("Contact saved", nil))

	default:
		w.Header().Set("Allow", "GET, POST")
		slog.Warn("Server.contactsHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
