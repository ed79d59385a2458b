// Package api provides HTTP handlers for stateless wizard computations.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/ConsentLoop/ConsentDraft/internal/models"
	"github.com/ConsentLoop/ConsentDraft/internal/wizard"
)

// resolveResult describes where a flow state resumes within its topology.
type resolveResult struct {
	Step       wizard.Step   `json:"step"`
	StepNumber int           `json:"step_number"`
	TotalSteps int           `json:"total_steps"`
	Steps      []wizard.Step `json:"steps"`
}

// validateRequest asks whether a flow state satisfies a step's gate.
type validateRequest struct {
	State models.FlowState `json:"state"`
	Step  wizard.Step      `json:"step"`
}

// validateResult reports the gate outcome plus per-slot party errors.
type validateResult struct {
	Complete    bool              `json:"complete"`
	Message     string            `json:"message,omitempty"`
	PartyErrors map[string]string `json:"party_errors,omitempty"`
}

// resolveHandler computes the resume step for a posted flow state
// (POST /wizard/resolve).
func (s *Server) resolveHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	slog.Debug("Server.resolveHandler invoked", "method", r.Method)
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		slog.Warn("Server.resolveHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var state models.FlowState
	if err := json.NewDecoder(r.Body).Decode(&state); err != nil {
		slog.Warn("Server.resolveHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}

	topo := wizard.TopologyFor(s.cat, state.EncounterType)
	step := wizard.Resolve(state, topo)
	n, _ := topo.IndexOf(step)

	slog.Debug("Server.resolveHandler: resolved", "encounterType", state.EncounterType, "step", step, "stepNumber", n)
	writeJSONResponse(w, http.StatusOK, models.Success(resolveResult{
		Step:       step,
		StepNumber: n,
		TotalSteps: topo.TotalSteps(),
		Steps:      topo.Steps(),
	}))
}

// validateHandler checks a posted flow state against a step's completion gate
// (POST /wizard/validate).
func (s *Server) validateHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	slog.Debug("Server.validateHandler invoked", "method", r.Method)
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		slog.Warn("Server.validateHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.validateHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}

	topo := wizard.TopologyFor(s.cat, req.State.EncounterType)
	if _, ok := topo.IndexOf(req.Step); !ok {
		slog.Warn("Server.validateHandler: unknown step", "step", req.Step, "encounterType", req.State.EncounterType)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Unknown wizard step for this encounter type"))
		return
	}

	result := validateResult{
		Complete: wizard.CanProceed(req.State, req.Step),
		Message:  wizard.ValidationMessage(req.State, req.Step),
	}
	if req.Step == wizard.StepParties {
		if errs := wizard.ValidateParties(req.State.Parties); len(errs) > 0 {
			result.PartyErrors = make(map[string]string, len(errs))
			for i, err := range errs {
				result.PartyErrors[strconv.Itoa(i)] = err.Error()
			}
		}
	}

	slog.Debug("Server.validateHandler: validated", "step", req.Step, "complete", result.Complete)
	writeJSONResponse(w, http.StatusOK, models.Success(result))
}
