package wizard

import (
	"testing"
	"time"

	"github.com/ConsentLoop/ConsentDraft/internal/catalog"
	"github.com/ConsentLoop/ConsentDraft/internal/models"
)

func TestResolveMethodHasAbsolutePriority(t *testing.T) {
	cat := catalog.Default()
	start := time.Now()
	// Every other field populated too; rule 1 must still win.
	state := models.FlowState{
		EncounterType:     "sexual",
		SelectionMode:     models.SelectionModeUniversity,
		UniversityID:      "u1",
		Parties:           []string{"@owner", "@alice"},
		IntimateActs:      map[string]models.ActState{"Kissing": models.ActStateYes},
		ContractStartTime: &start,
		Method:            models.RecordingMethodSignature,
	}
	topo := TopologyFor(cat, state.EncounterType)
	if got := Resolve(state, topo); got != StepRecordingMethod {
		t.Errorf("Resolve = %s, want %s", got, StepRecordingMethod)
	}
}

func TestResolveDurationEvidence(t *testing.T) {
	cat := catalog.Default()
	state := models.FlowState{
		EncounterType:    "medical",
		Parties:          []string{"@owner", ""},
		ContractDuration: "24 hours",
	}
	topo := TopologyFor(cat, state.EncounterType)
	if got := Resolve(state, topo); got != StepRecordingMethod {
		t.Errorf("duration evidence: Resolve = %s, want %s", got, StepRecordingMethod)
	}
}

func TestResolveActsBeatLowerPriorityParties(t *testing.T) {
	// Acts answered, one guest party, no method, no duration. The acts rule
	// fires before the parties rule.
	state := models.FlowState{
		Parties:      []string{"@bob", ""},
		IntimateActs: map[string]models.ActState{"Kissing": models.ActStateYes},
	}
	topo := TopologyFor(catalog.Default(), state.EncounterType)
	if got := Resolve(state, topo); got != StepDuration {
		t.Errorf("Resolve = %s, want %s", got, StepDuration)
	}
}

func TestResolvePriorityLadder(t *testing.T) {
	cat := catalog.Default()
	cases := []struct {
		name          string
		state         models.FlowState
		encounterType string
		want          Step
	}{
		{
			name:  "guest party lands on acts",
			state: models.FlowState{EncounterType: "sexual", Parties: []string{"@owner", "@alice"}},
			want:  StepIntimateActs,
		},
		{
			name:  "owner-only parties do not count",
			state: models.FlowState{EncounterType: "medical", Parties: []string{"@owner", ""}},
			want:  StepParties,
		},
		{
			name:  "university selected lands on parties",
			state: models.FlowState{EncounterType: "sexual", UniversityID: "u1", Parties: []string{"@owner"}},
			want:  StepParties,
		},
		{
			name:  "not-applicable counts as an answered jurisdiction",
			state: models.FlowState{EncounterType: "sexual", SelectionMode: models.SelectionModeNotApplicable, Parties: []string{"@owner"}},
			want:  StepParties,
		},
		{
			name:  "encounter type with jurisdiction lands on university",
			state: models.FlowState{EncounterType: "sexual", Parties: []string{"@owner"}},
			want:  StepUniversity,
		},
		{
			name:  "encounter type without jurisdiction lands on parties",
			state: models.FlowState{EncounterType: "medical", Parties: []string{"@owner"}},
			want:  StepParties,
		},
		{
			name:  "empty state lands on first step",
			state: models.FlowState{Parties: []string{""}},
			want:  StepEncounterType,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			topo := TopologyFor(cat, tc.state.EncounterType)
			if got := Resolve(tc.state, topo); got != tc.want {
				t.Errorf("Resolve = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	state := models.FlowState{EncounterType: "sexual", UniversityID: "u1", Parties: []string{"@owner"}}
	topo := TopologyFor(catalog.Default(), state.EncounterType)
	first := Resolve(state, topo)
	for i := 0; i < 5; i++ {
		if got := Resolve(state, topo); got != first {
			t.Fatalf("Resolve changed between identical calls: %s then %s", first, got)
		}
	}
}

func TestResolveIndexChangesWithTopology(t *testing.T) {
	// The same evidence resolves to different absolute numbers depending on
	// the topology shape, so a stored index must never be reused across an
	// encounter type change.
	cat := catalog.Default()
	state := models.FlowState{EncounterType: "sexual", Parties: []string{"@owner", "@alice"}}
	withJurisdiction := ResolveIndex(state, TopologyFor(cat, "sexual"))

	state.EncounterType = "medical"
	withoutJurisdiction := ResolveIndex(state, TopologyFor(cat, "medical"))

	if withJurisdiction != 4 || withoutJurisdiction != 3 {
		t.Errorf("indices = %d and %d, want 4 and 3", withJurisdiction, withoutJurisdiction)
	}
}
