package wizard

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ConsentLoop/ConsentDraft/internal/catalog"
	"github.com/ConsentLoop/ConsentDraft/internal/models"
)

// fakeDrafts is an in-memory DraftPersistence test double.
type fakeDrafts struct {
	drafts      map[string]models.Draft
	nextID      int
	createCalls int
	updateCalls int
	failNext    error
	beforeSave  func()
}

func newFakeDrafts() *fakeDrafts {
	return &fakeDrafts{drafts: make(map[string]models.Draft)}
}

func (f *fakeDrafts) CreateDraft(d models.Draft) (models.Draft, error) {
	if f.beforeSave != nil {
		f.beforeSave()
	}
	f.createCalls++
	if f.failNext != nil {
		err := f.failNext
		f.failNext = nil
		return models.Draft{}, err
	}
	f.nextID++
	d.ID = fmt.Sprintf("draft-%d", f.nextID)
	f.drafts[d.ID] = d
	return d, nil
}

func (f *fakeDrafts) UpdateDraft(id, ownerID string, patch models.DraftPatch) (*models.Draft, error) {
	if f.beforeSave != nil {
		f.beforeSave()
	}
	f.updateCalls++
	if f.failNext != nil {
		err := f.failNext
		f.failNext = nil
		return nil, err
	}
	d, ok := f.drafts[id]
	if !ok || d.OwnerID != ownerID {
		return nil, nil
	}
	d.Apply(patch)
	f.drafts[id] = d
	return &d, nil
}

func (f *fakeDrafts) GetDraft(id, ownerID string) (*models.Draft, error) {
	d, ok := f.drafts[id]
	if !ok || d.OwnerID != ownerID {
		return nil, nil
	}
	return &d, nil
}

func newTestSession(drafts DraftPersistence) *Session {
	return NewSession(catalog.Default(), drafts, "@owner")
}

func TestSessionAdvanceBlockedByGate(t *testing.T) {
	s := newTestSession(newFakeDrafts())

	step, msg := s.Advance()
	if step != StepEncounterType || msg == "" {
		t.Errorf("Advance on empty state = (%s, %q), want blocked on encounter type", step, msg)
	}

	// Picking an encounter type re-resolves straight onto the parties step,
	// where the gate blocks until a second valid participant exists.
	s.Apply(models.FlowPatch{EncounterType: strPtr("medical")})
	if got := s.CurrentStep(); got != StepParties {
		t.Fatalf("step after selecting encounter type = %s, want %s", got, StepParties)
	}
	step, msg = s.Advance()
	if step != StepParties || msg == "" {
		t.Errorf("Advance with lone owner = (%s, %q), want blocked on parties", step, msg)
	}

	s.Apply(models.FlowPatch{Parties: []string{"@owner", "@alice"}})
	step, msg = s.Advance()
	if step != StepIntimateActs || msg != "" {
		t.Errorf("Advance = (%s, %q), want intimate acts with no message", step, msg)
	}
}

func TestSessionAdvanceSkipsUniversityWithoutJurisdiction(t *testing.T) {
	s := newTestSession(newFakeDrafts())
	s.Apply(models.FlowPatch{EncounterType: strPtr("medical")})

	seen := []Step{s.CurrentStep()}
	s.Apply(models.FlowPatch{Parties: []string{"@owner", "@alice"}})
	for i := 0; i < 10; i++ {
		step, msg := s.Advance()
		if msg != "" {
			break
		}
		if len(seen) > 0 && seen[len(seen)-1] == step {
			break
		}
		seen = append(seen, step)
	}
	for _, st := range seen {
		if st == StepUniversity {
			t.Errorf("university step reachable without jurisdiction: %v", seen)
		}
	}
}

func TestSessionEncounterTypeChangeReResolvesStep(t *testing.T) {
	s := newTestSession(newFakeDrafts())
	s.Apply(models.FlowPatch{EncounterType: strPtr("sexual")})
	s.Apply(models.FlowPatch{UniversityID: strPtr("u1"), Parties: []string{"@owner", "@alice"}})

	if _, msg := s.Advance(); msg != "" {
		t.Fatalf("advance blocked unexpectedly: %q", msg)
	}

	// Shrinking the topology invalidates the absolute step number; the
	// session must re-resolve instead of reusing it.
	s.Apply(models.FlowPatch{EncounterType: strPtr("medical")})
	n, total := s.StepNumber()
	if total != 5 {
		t.Errorf("total steps = %d, want 5", total)
	}
	if s.CurrentStep() != StepIntimateActs {
		t.Errorf("step after re-resolve = %s, want %s", s.CurrentStep(), StepIntimateActs)
	}
	if n != 3 {
		t.Errorf("step number = %d, want 3 in the 5-step topology", n)
	}
}

func TestSessionBack(t *testing.T) {
	s := newTestSession(newFakeDrafts())
	s.Apply(models.FlowPatch{EncounterType: strPtr("medical")})
	s.Advance()

	if got := s.Back(); got != StepEncounterType {
		t.Errorf("Back = %s, want %s", got, StepEncounterType)
	}
	// Back at the first step stays put.
	if got := s.Back(); got != StepEncounterType {
		t.Errorf("Back at first step = %s, want %s", got, StepEncounterType)
	}
}

func TestSessionSubmitCreatesWhenNoDraftID(t *testing.T) {
	drafts := newFakeDrafts()
	s := newTestSession(drafts)
	s.Apply(models.FlowPatch{EncounterType: strPtr("medical"), Parties: []string{"@owner", "@alice"}})

	d, err := s.Submit(context.Background())
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if drafts.createCalls != 1 || drafts.updateCalls != 0 {
		t.Errorf("create/update calls = %d/%d, want 1/0", drafts.createCalls, drafts.updateCalls)
	}
	if d.Status != models.DraftStatusSubmitted {
		t.Errorf("status = %s, want submitted", d.Status)
	}

	// State is discarded after a successful submission.
	snap := s.State()
	if snap.EncounterType != "" || snap.DraftID != "" {
		t.Errorf("state not reset after submit: %+v", snap)
	}
}

func TestSessionSubmitUpdatesWhenDraftIDSet(t *testing.T) {
	drafts := newFakeDrafts()
	s := newTestSession(drafts)
	s.Apply(models.FlowPatch{EncounterType: strPtr("medical"), Parties: []string{"@owner", "@alice"}})

	saved, err := s.Save(context.Background())
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if s.State().DraftID != saved.ID {
		t.Errorf("draft id not written back into state: %q", s.State().DraftID)
	}

	if _, err := s.Submit(context.Background()); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if drafts.createCalls != 1 || drafts.updateCalls != 1 {
		t.Errorf("create/update calls = %d/%d, want 1/1", drafts.createCalls, drafts.updateCalls)
	}
	if got := drafts.drafts[saved.ID].Status; got != models.DraftStatusSubmitted {
		t.Errorf("persisted status = %s, want submitted", got)
	}
}

func TestSessionSaveFailureLeavesStateUntouched(t *testing.T) {
	drafts := newFakeDrafts()
	drafts.failNext = errors.New("connection refused")
	s := newTestSession(drafts)
	s.Apply(models.FlowPatch{EncounterType: strPtr("sexual")})

	before := s.State()
	if _, err := s.Save(context.Background()); err == nil {
		t.Fatal("expected save to fail")
	}
	after := s.State()
	if after.EncounterType != before.EncounterType || after.DraftID != "" {
		t.Errorf("state changed across a failed save: %+v", after)
	}

	// Manual retry succeeds.
	if _, err := s.Save(context.Background()); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
}

func TestSessionRejectsConcurrentSaves(t *testing.T) {
	drafts := newFakeDrafts()
	started := make(chan struct{})
	release := make(chan struct{})
	drafts.beforeSave = func() {
		close(started)
		<-release
	}
	s := newTestSession(drafts)
	s.Apply(models.FlowPatch{EncounterType: strPtr("medical")})

	done := make(chan error, 1)
	go func() {
		_, err := s.Save(context.Background())
		done <- err
	}()

	<-started
	if _, err := s.Save(context.Background()); !errors.Is(err, models.ErrSaveInFlight) {
		t.Errorf("second save = %v, want ErrSaveInFlight", err)
	}
	close(release)

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("first save failed: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("first save never completed")
	}
}

func TestSessionHydrateResolvesResumeStep(t *testing.T) {
	drafts := newFakeDrafts()
	drafts.drafts["d1"] = models.Draft{
		ID:            "d1",
		OwnerID:       "@owner",
		EncounterType: "sexual",
		UniversityID:  "u1",
		Parties:       []string{"@owner", "@alice"},
		IntimateActs:  map[string]models.ActState{"Kissing": models.ActStateYes},
		Status:        models.DraftStatusDraft,
	}
	s := newTestSession(drafts)

	if err := s.Hydrate(context.Background(), "d1"); err != nil {
		t.Fatalf("Hydrate failed: %v", err)
	}
	if got := s.CurrentStep(); got != StepDuration {
		t.Errorf("resume step = %s, want %s", got, StepDuration)
	}

	// Hydration is idempotent: re-running lands on the same step.
	if err := s.Hydrate(context.Background(), "d1"); err != nil {
		t.Fatalf("second Hydrate failed: %v", err)
	}
	if got := s.CurrentStep(); got != StepDuration {
		t.Errorf("resume step after rerun = %s, want %s", got, StepDuration)
	}
}

func TestSessionHydrateUnknownDraft(t *testing.T) {
	s := newTestSession(newFakeDrafts())
	if err := s.Hydrate(context.Background(), "missing"); !errors.Is(err, models.ErrDraftNotFound) {
		t.Errorf("Hydrate = %v, want ErrDraftNotFound", err)
	}
}

func TestSessionHydrateDifferentDraftDiscardsState(t *testing.T) {
	drafts := newFakeDrafts()
	drafts.drafts["d1"] = models.Draft{ID: "d1", OwnerID: "@owner", EncounterType: "sexual", Parties: []string{"@owner"}, Status: models.DraftStatusDraft}
	drafts.drafts["d2"] = models.Draft{ID: "d2", OwnerID: "@owner", EncounterType: "medical", Parties: []string{"@owner"}, Status: models.DraftStatusDraft}
	s := newTestSession(drafts)

	if err := s.Hydrate(context.Background(), "d1"); err != nil {
		t.Fatalf("Hydrate d1 failed: %v", err)
	}
	s.Apply(models.FlowPatch{ContractText: strPtr("local notes")})

	if err := s.Hydrate(context.Background(), "d2"); err != nil {
		t.Fatalf("Hydrate d2 failed: %v", err)
	}
	snap := s.State()
	if snap.DraftID != "d2" || snap.ContractText != "" {
		t.Errorf("resume to a different draft should discard prior state: %+v", snap)
	}
}

func TestSessionQuickAddDoesNotGrowListForExistingContact(t *testing.T) {
	s := newTestSession(newFakeDrafts())
	s.Apply(models.FlowPatch{Parties: []string{"@owner", "@alice"}})

	snap := s.QuickAddContact(models.Contact{ID: "c1", Username: "ALICE"})
	if len(snap.Parties) != 2 {
		t.Errorf("party count = %d, want 2", len(snap.Parties))
	}
}

func TestSessionToggleActRoundTrip(t *testing.T) {
	s := newTestSession(newFakeDrafts())
	s.ToggleAct("Kissing")
	s.ToggleAct("Kissing")
	snap := s.ToggleAct("Kissing")
	if len(snap.IntimateActs) != 0 {
		t.Errorf("three toggles should clear the act, got %v", snap.IntimateActs)
	}
}
