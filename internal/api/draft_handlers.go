// Package api provides HTTP handlers for ConsentDraft draft persistence endpoints.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/ConsentLoop/ConsentDraft/internal/models"
)

// draftsHandler creates (POST /drafts) or lists (GET /drafts?owner=) drafts.
func (s *Server) draftsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	slog.Debug("Server.draftsHandler invoked", "method", r.Method, "path", r.URL.Path)

	switch r.Method {
	case http.MethodPost:
		var d models.Draft
		if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
			slog.Warn("Server.draftsHandler: failed to decode JSON", "error", err)
			writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
			return
		}
		if d.OwnerID == "" {
			slog.Warn("Server.draftsHandler: missing owner_id")
			writeJSONResponse(w, http.StatusBadRequest, models.Error("Missing required field: owner_id"))
			return
		}
		if d.Status == "" {
			d.Status = models.DraftStatusDraft
		}
		created, err := s.st.CreateDraft(d)
		if err != nil {
			slog.Error("Server.draftsHandler: create failed", "error", err, "ownerID", d.OwnerID)
			writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to create draft"))
			return
		}
		slog.Info("Server.draftsHandler: draft created", "draftID", created.ID, "ownerID", created.OwnerID)
		writeJSONResponse(w, http.StatusCreated, models.Success(created))

	case http.MethodGet:
		ownerID := r.URL.Query().Get("owner")
		if ownerID == "" {
			slog.Warn("Server.draftsHandler: missing owner")
			writeJSONResponse(w, http.StatusBadRequest, models.Error("Missing required parameter: owner"))
			return
		}
		drafts, err := s.st.ListDrafts(ownerID)
		if err != nil {
			slog.Error("Server.draftsHandler: list failed", "error", err, "ownerID", ownerID)
			writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to list drafts"))
			return
		}
		slog.Debug("Server.draftsHandler: listed drafts", "ownerID", ownerID, "count", len(drafts))
		writeJSONResponse(w, http.StatusOK, models.Success(drafts))

	default:
		w.Header().Set("Allow", "GET, POST")
		slog.Warn("Server.draftsHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// draftByIDHandler reads (GET), patches (PUT), or deletes (DELETE) a single
// draft at /drafts/{id}. The owner query parameter scopes every operation.
func (s *Server) draftByIDHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	slog.Debug("Server.draftByIDHandler invoked", "method", r.Method, "path", r.URL.Path)

	draftID := extractDraftID(r)
	if draftID == "" {
		slog.Warn("Server.draftByIDHandler: missing draft ID")
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Missing draft ID"))
		return
	}
	ownerID := r.URL.Query().Get("owner")
	if ownerID == "" {
		slog.Warn("Server.draftByIDHandler: missing owner", "draftID", draftID)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Missing required parameter: owner"))
		return
	}

	switch r.Method {
	case http.MethodGet:
		draft, err := s.st.GetDraft(draftID, ownerID)
		if err != nil {
			slog.Error("Server.draftByIDHandler: get failed", "error", err, "draftID", draftID)
			writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to get draft"))
			return
		}
		if draft == nil {
			slog.Debug("Server.draftByIDHandler: draft not found", "draftID", draftID, "ownerID", ownerID)
			writeJSONResponse(w, http.StatusNotFound, models.Error("Draft not found"))
			return
		}
		writeJSONResponse(w, http.StatusOK, models.Success(draft))

	case http.MethodPut:
		var patch models.DraftPatch
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			slog.Warn("Server.draftByIDHandler: failed to decode JSON", "error", err)
			writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
			return
		}
		updated, err := s.st.UpdateDraft(draftID, ownerID, patch)
		if err != nil {
			slog.Error("Server.draftByIDHandler: update failed", "error", err, "draftID", draftID)
			writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to update draft"))
			return
		}
		if updated == nil {
			slog.Debug("Server.draftByIDHandler: draft not found for update", "draftID", draftID, "ownerID", ownerID)
			writeJSONResponse(w, http.StatusNotFound, models.Error("Draft not found"))
			return
		}
		slog.Info("Server.draftByIDHandler: draft updated", "draftID", draftID, "status", updated.Status)
		writeJSONResponse(w, http.StatusOK, models.Success(updated))

	case http.MethodDelete:
		draft, err := s.st.GetDraft(draftID, ownerID)
		if err != nil {
			slog.Error("Server.draftByIDHandler: check failed", "error", err, "draftID", draftID)
			writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to check draft"))
			return
		}
		if draft == nil {
			slog.Debug("Server.draftByIDHandler: draft not found for deletion", "draftID", draftID, "ownerID", ownerID)
			writeJSONResponse(w, http.StatusNotFound, models.Error("Draft not found"))
			return
		}
		if err := s.st.DeleteDraft(draftID, ownerID); err != nil {
			slog.Error("Server.draftByIDHandler: delete failed", "error", err, "draftID", draftID)
			writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to delete draft"))
			return
		}
		slog.Info("Server.draftByIDHandler: draft deleted", "draftID", draftID)
		writeJSONResponse(w, http.StatusOK, models.Success(nil))

	default:
		w.Header().Set("Allow", "GET, PUT, DELETE")
		slog.Warn("Server.draftByIDHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
