package wizard

import (
	"log/slog"

	"github.com/ConsentLoop/ConsentDraft/internal/models"
)

// stepGate pairs a per-step completion predicate with its static user-facing
// message. A failing predicate maps 1:1 to its message.
type stepGate struct {
	complete func(models.FlowState) bool
	message  string
}

// stepGates is the static per-step predicate table. Gating has no side
// effects: predicates read the snapshot and nothing else.
var stepGates = map[Step]stepGate{
	StepEncounterType: {
		complete: func(s models.FlowState) bool {
			return s.EncounterType != ""
		},
		message: "Choose an encounter type to continue.",
	},
	StepUniversity: {
		complete: func(s models.FlowState) bool {
			return s.UniversityID != "" || s.StateCode != "" || s.SelectionMode == models.SelectionModeNotApplicable
		},
		message: "Select a university or state, or mark the jurisdiction as not applicable.",
	},
	StepParties: {
		complete: func(s models.FlowState) bool {
			return CountValidParties(s.Parties) >= 2 && len(ValidateParties(s.Parties)) == 0
		},
		message: "Add at least one other valid participant.",
	},
	StepIntimateActs: {
		complete: func(s models.FlowState) bool {
			return len(s.IntimateActs) > 0
		},
		message: "Answer yes or no for at least one act.",
	},
	StepDuration: {
		complete: func(s models.FlowState) bool {
			return true
		},
	},
	StepRecordingMethod: {
		complete: func(s models.FlowState) bool {
			return s.Method != models.RecordingMethodNone
		},
		message: "Choose how you want to record consent.",
	},
}

// CanProceed reports whether the given step is complete for the snapshot.
// Unknown steps never proceed.
func CanProceed(state models.FlowState, step Step) bool {
	gate, ok := stepGates[step]
	if !ok {
		slog.Warn("wizard.CanProceed: unknown step", "step", step)
		return false
	}
	return gate.complete(state)
}

// ValidationMessage returns the static message for the step's failing
// predicate, or the empty string when the step is complete.
func ValidationMessage(state models.FlowState, step Step) string {
	gate, ok := stepGates[step]
	if !ok {
		return "Unknown step."
	}
	if gate.complete(state) {
		return ""
	}
	return gate.message
}
