package wizard

import (
	"log/slog"
	"strings"

	"github.com/ConsentLoop/ConsentDraft/internal/models"
)

// Resolve infers the step a hydrated flow state should land on. The rules are
// evaluated in strict priority order and the most advanced evidence wins:
//
//  1. a recording method is chosen
//  2. a start time or duration is chosen
//  3. any act has been answered
//  4. any guest party slot is non-blank
//  5. a jurisdiction is answered and the topology has a university step
//  6. an encounter type is chosen
//  7. nothing answered yet
//
// Resolve is a pure function and safe to re-run on every hydration or
// encounter type change; the wizard never advances a stored counter instead.
func Resolve(state models.FlowState, topo Topology) Step {
	step := resolve(state, topo)
	slog.Debug("wizard.Resolve: resolved resume step", "step", step, "encounterType", state.EncounterType, "totalSteps", topo.TotalSteps())
	return step
}

func resolve(state models.FlowState, topo Topology) Step {
	if state.Method != models.RecordingMethodNone {
		return StepRecordingMethod
	}
	if state.ContractStartTime != nil || state.ContractDuration != "" {
		return StepRecordingMethod
	}
	if len(state.IntimateActs) > 0 {
		return StepDuration
	}
	if hasGuestParty(state.Parties) {
		return StepIntimateActs
	}
	if jurisdictionAnswered(state) && topo.HasUniversityStep() {
		return StepParties
	}
	if state.EncounterType != "" {
		if topo.HasUniversityStep() {
			return StepUniversity
		}
		return StepParties
	}
	return topo.First()
}

// ResolveIndex is Resolve expressed as a 1-based step number within the given
// topology.
func ResolveIndex(state models.FlowState, topo Topology) int {
	n, _ := topo.IndexOf(Resolve(state, topo))
	return n
}

// hasGuestParty reports whether any party slot past the reserved owner slot
// is non-blank.
func hasGuestParty(parties []string) bool {
	for i, p := range parties {
		if i == 0 {
			continue
		}
		if strings.TrimSpace(p) != "" {
			return true
		}
	}
	return false
}

// jurisdictionAnswered reports whether the jurisdiction step has a complete
// answer. Opting out with not-applicable counts: it is a finished choice,
// the same way the transition guard treats it.
func jurisdictionAnswered(state models.FlowState) bool {
	return state.UniversityID != "" || state.StateCode != "" || state.SelectionMode == models.SelectionModeNotApplicable
}
