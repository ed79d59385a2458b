// Package wizard implements the consent contract creation wizard: step
// topology, resume-step resolution, party validation, tri-state act
// selection, per-step transition gating, and the flow state store.
package wizard

import (
	"github.com/ConsentLoop/ConsentDraft/internal/catalog"
)

// Step identifies a single wizard screen.
type Step string

const (
	// StepEncounterType selects what kind of encounter the contract covers.
	StepEncounterType Step = "encounter_type"
	// StepUniversity selects the jurisdiction (university, state, or n/a).
	StepUniversity Step = "university"
	// StepParties collects the participant list.
	StepParties Step = "parties"
	// StepIntimateActs collects the itemized act selections.
	StepIntimateActs Step = "intimate_acts"
	// StepDuration collects the contract start time and duration.
	StepDuration Step = "duration"
	// StepRecordingMethod selects how consent is recorded.
	StepRecordingMethod Step = "recording_method"
)

// Topology is the ordered, encounter-type-dependent list of wizard steps.
// A step index is only meaningful paired with the topology it was computed
// against; recompute whenever the encounter type changes.
type Topology struct {
	encounterType string
	steps         []Step
}

// TopologyFor computes the step topology for the given encounter type. It is
// a pure function of the encounter type alone: the catalog is a static table.
// Encounter types flagged as requiring a jurisdiction get the university
// step; for all others it is omitted and every later step shifts down.
func TopologyFor(cat *catalog.Catalog, encounterType string) Topology {
	steps := []Step{StepEncounterType}
	if cat.RequiresJurisdiction(encounterType) {
		steps = append(steps, StepUniversity)
	}
	steps = append(steps, StepParties, StepIntimateActs, StepDuration, StepRecordingMethod)
	return Topology{encounterType: encounterType, steps: steps}
}

// EncounterType returns the encounter type this topology was computed for.
func (t Topology) EncounterType() string {
	return t.encounterType
}

// Steps returns the ordered steps.
func (t Topology) Steps() []Step {
	return append([]Step(nil), t.steps...)
}

// TotalSteps returns the number of steps in this topology.
func (t Topology) TotalSteps() int {
	return len(t.steps)
}

// HasUniversityStep reports whether this topology includes the jurisdiction
// step.
func (t Topology) HasUniversityStep() bool {
	for _, s := range t.steps {
		if s == StepUniversity {
			return true
		}
	}
	return false
}

// IndexOf returns the 1-based step number for the given step.
func (t Topology) IndexOf(step Step) (int, bool) {
	for i, s := range t.steps {
		if s == step {
			return i + 1, true
		}
	}
	return 0, false
}

// StepAt returns the step at the given 1-based step number.
func (t Topology) StepAt(n int) (Step, bool) {
	if n < 1 || n > len(t.steps) {
		return "", false
	}
	return t.steps[n-1], true
}

// First returns the first step.
func (t Topology) First() Step {
	return t.steps[0]
}

// Next returns the step after the given one, or false at the end of the
// topology.
func (t Topology) Next(step Step) (Step, bool) {
	for i, s := range t.steps {
		if s == step && i+1 < len(t.steps) {
			return t.steps[i+1], true
		}
	}
	return "", false
}

// Prev returns the step before the given one, or false at the start.
func (t Topology) Prev(step Step) (Step, bool) {
	for i, s := range t.steps {
		if s == step && i > 0 {
			return t.steps[i-1], true
		}
	}
	return "", false
}
