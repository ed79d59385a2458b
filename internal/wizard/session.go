package wizard

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ConsentLoop/ConsentDraft/internal/catalog"
	"github.com/ConsentLoop/ConsentDraft/internal/models"
)

// DraftPersistence is the narrow persistence surface the session consumes.
// Submission invokes exactly one of CreateDraft or UpdateDraft, and resuming
// by id invokes exactly one GetDraft.
type DraftPersistence interface {
	CreateDraft(d models.Draft) (models.Draft, error)
	UpdateDraft(id, ownerID string, patch models.DraftPatch) (*models.Draft, error)
	GetDraft(id, ownerID string) (*models.Draft, error)
}

// Session drives a single user's pass through the wizard: it owns the state
// store, tracks the active step against the current topology, gates
// navigation, and talks to draft persistence.
type Session struct {
	cat     *catalog.Catalog
	store   *StateStore
	drafts  DraftPersistence
	ownerID string

	mu      sync.Mutex
	saving  bool
	current Step
}

// NewSession creates a fresh wizard session for the given owner.
func NewSession(cat *catalog.Catalog, drafts DraftPersistence, ownerID string) *Session {
	s := &Session{
		cat:     cat,
		store:   NewStateStore(ownerID),
		drafts:  drafts,
		ownerID: ownerID,
	}
	s.current = Resolve(s.store.Snapshot(), s.Topology())
	return s
}

// OwnerID returns the session owner.
func (s *Session) OwnerID() string {
	return s.ownerID
}

// State returns a snapshot of the current flow state.
func (s *Session) State() models.FlowState {
	return s.store.Snapshot()
}

// Subscribe exposes the state store's notification channel.
func (s *Session) Subscribe() <-chan models.FlowState {
	return s.store.Subscribe()
}

// Topology returns the step topology for the current encounter type.
func (s *Session) Topology() Topology {
	return TopologyFor(s.cat, s.store.Snapshot().EncounterType)
}

// CurrentStep returns the active step.
func (s *Session) CurrentStep() Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// StepNumber returns the active step's 1-based number and the topology's
// total step count.
func (s *Session) StepNumber() (int, int) {
	topo := s.Topology()
	s.mu.Lock()
	step := s.current
	s.mu.Unlock()
	n, ok := topo.IndexOf(step)
	if !ok {
		// The stored step no longer exists in this topology; a step is only
		// meaningful paired with the topology it was computed against.
		n, _ = topo.IndexOf(Resolve(s.store.Snapshot(), topo))
	}
	return n, topo.TotalSteps()
}

// Apply merges a partial update into the flow state. Changing the encounter
// type reshapes the topology, so the active step is re-resolved rather than
// reused as a stale absolute index.
func (s *Session) Apply(patch models.FlowPatch) models.FlowState {
	snap := s.store.Apply(patch)
	if patch.EncounterType != nil {
		topo := TopologyFor(s.cat, snap.EncounterType)
		s.mu.Lock()
		s.current = Resolve(snap, topo)
		s.mu.Unlock()
		slog.Debug("Session.Apply: encounter type changed, step re-resolved", "encounterType", snap.EncounterType, "step", s.CurrentStep())
	}
	return snap
}

// ToggleAct cycles the named act and merges the result into the state.
func (s *Session) ToggleAct(name string) models.FlowState {
	acts := ToggleAct(s.store.Snapshot().IntimateActs, name)
	if len(acts) == 0 {
		return s.store.Apply(models.FlowPatch{ClearIntimateActs: true})
	}
	return s.store.Apply(models.FlowPatch{IntimateActs: acts})
}

// SetParty writes normalized input into party slot i.
func (s *Session) SetParty(i int, raw string) (models.FlowState, error) {
	list := NewPartyList(s.store.Snapshot().Parties)
	if err := list.Set(i, raw); err != nil {
		return s.store.Snapshot(), err
	}
	return s.store.Apply(models.FlowPatch{Parties: list.Parties()}), nil
}

// AppendPartySlot adds a blank participant slot.
func (s *Session) AppendPartySlot() models.FlowState {
	list := NewPartyList(s.store.Snapshot().Parties)
	list.Append()
	return s.store.Apply(models.FlowPatch{Parties: list.Parties()})
}

// RemoveParty removes the party at index i; the error map shifts with it.
func (s *Session) RemoveParty(i int) (models.FlowState, error) {
	list := NewPartyList(s.store.Snapshot().Parties)
	if err := list.RemoveAt(i); err != nil {
		return s.store.Snapshot(), err
	}
	return s.store.Apply(models.FlowPatch{Parties: list.Parties()}), nil
}

// QuickAddContact adds a contact's canonical username to the party list.
// Adding someone already present is a no-op.
func (s *Session) QuickAddContact(contact models.Contact) models.FlowState {
	list := NewPartyList(s.store.Snapshot().Parties)
	if !list.QuickAdd(contact) {
		return s.store.Snapshot()
	}
	return s.store.Apply(models.FlowPatch{Parties: list.Parties()})
}

// PartyErrors returns the position-indexed error map for the current list.
func (s *Session) PartyErrors() map[int]error {
	return NewPartyList(s.store.Snapshot().Parties).Errors()
}

// Advance moves to the next step if the current step's gate passes. When the
// gate fails, the current step is returned together with its static
// validation message.
func (s *Session) Advance() (Step, string) {
	snap := s.store.Snapshot()
	topo := TopologyFor(s.cat, snap.EncounterType)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := topo.IndexOf(s.current); !ok {
		s.current = Resolve(snap, topo)
	}
	if msg := ValidationMessage(snap, s.current); msg != "" {
		slog.Debug("Session.Advance: gate failed", "step", s.current, "message", msg)
		return s.current, msg
	}
	if next, ok := topo.Next(s.current); ok {
		slog.Debug("Session.Advance: advanced", "from", s.current, "to", next)
		s.current = next
	}
	return s.current, ""
}

// Back moves to the previous step if one exists.
func (s *Session) Back() Step {
	topo := s.Topology()
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := topo.Prev(s.current); ok {
		s.current = prev
	}
	return s.current
}

// Cancel discards the in-progress state without persisting anything.
func (s *Session) Cancel() {
	s.store.Reset(s.ownerID)
	s.mu.Lock()
	s.current = StepEncounterType
	s.mu.Unlock()
	slog.Debug("Session.Cancel: state discarded")
}

// Hydrate loads a persisted draft and replaces the session state wholesale.
// Resuming a different draft than the one currently loaded discards the
// in-progress state first. Safe to call repeatedly as async fetches resolve;
// the resume step is re-resolved on every call.
func (s *Session) Hydrate(ctx context.Context, draftID string) error {
	slog.Debug("Session.Hydrate: loading draft", "draftID", draftID, "ownerID", s.ownerID)

	draft, err := s.drafts.GetDraft(draftID, s.ownerID)
	if err != nil {
		slog.Error("Session.Hydrate: fetch failed", "error", err, "draftID", draftID)
		return fmt.Errorf("failed to fetch draft %s: %w", draftID, err)
	}
	if draft == nil {
		slog.Warn("Session.Hydrate: draft not found", "draftID", draftID)
		return models.ErrDraftNotFound
	}

	if current := s.store.Snapshot().DraftID; current != "" && current != draftID {
		s.store.Reset(s.ownerID)
	}

	snap := s.store.Hydrate(*draft)
	topo := TopologyFor(s.cat, snap.EncounterType)
	s.mu.Lock()
	s.current = Resolve(snap, topo)
	s.mu.Unlock()

	slog.Info("Session.Hydrate: draft loaded", "draftID", draftID, "step", s.CurrentStep())
	return nil
}

// Save persists the current state as an in-progress draft without submitting
// it: one create or update depending on whether a draft id is already set.
// Only one save may be in flight at a time; a second concurrent request is
// rejected so a double-tap cannot race itself. A persistence failure leaves
// the flow state exactly as it was, for manual retry.
func (s *Session) Save(ctx context.Context) (models.Draft, error) {
	return s.persist(ctx, models.DraftStatusDraft)
}

// Submit persists the final state and discards the session state on success.
func (s *Session) Submit(ctx context.Context) (models.Draft, error) {
	draft, err := s.persist(ctx, models.DraftStatusSubmitted)
	if err != nil {
		return draft, err
	}
	s.store.Reset(s.ownerID)
	s.mu.Lock()
	s.current = StepEncounterType
	s.mu.Unlock()
	slog.Info("Session.Submit: contract submitted", "draftID", draft.ID)
	return draft, nil
}

func (s *Session) persist(ctx context.Context, status models.DraftStatus) (models.Draft, error) {
	s.mu.Lock()
	if s.saving {
		s.mu.Unlock()
		slog.Warn("Session.persist: save already in flight")
		return models.Draft{}, models.ErrSaveInFlight
	}
	s.saving = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.saving = false
		s.mu.Unlock()
	}()

	snap := s.store.Snapshot()
	draft := models.DraftFromFlowState(snap, s.ownerID)
	draft.Status = status

	if snap.DraftID == "" {
		created, err := s.drafts.CreateDraft(draft)
		if err != nil {
			slog.Error("Session.persist: create failed", "error", err)
			return models.Draft{}, fmt.Errorf("failed to create draft: %w", err)
		}
		if status == models.DraftStatusDraft {
			id := created.ID
			s.store.Apply(models.FlowPatch{DraftID: &id})
		}
		slog.Debug("Session.persist: draft created", "draftID", created.ID, "status", status)
		return created, nil
	}

	patch := draftPatchFrom(draft)
	updated, err := s.drafts.UpdateDraft(snap.DraftID, s.ownerID, patch)
	if err != nil {
		slog.Error("Session.persist: update failed", "error", err, "draftID", snap.DraftID)
		return models.Draft{}, fmt.Errorf("failed to update draft %s: %w", snap.DraftID, err)
	}
	if updated == nil {
		slog.Warn("Session.persist: draft vanished", "draftID", snap.DraftID)
		return models.Draft{}, models.ErrDraftNotFound
	}
	slog.Debug("Session.persist: draft updated", "draftID", updated.ID, "status", status)
	return *updated, nil
}

// draftPatchFrom projects a full draft onto an update patch.
func draftPatchFrom(d models.Draft) models.DraftPatch {
	acts := d.IntimateActs
	if acts == nil {
		acts = map[string]models.ActState{}
	}
	return models.DraftPatch{
		EncounterType:     &d.EncounterType,
		UniversityID:      &d.UniversityID,
		UniversityName:    &d.UniversityName,
		Parties:           d.Parties,
		IntimateActs:      &acts,
		ContractStartTime: d.ContractStartTime,
		ContractDuration:  &d.ContractDuration,
		ContractEndTime:   d.ContractEndTime,
		Method:            &d.Method,
		IsCollaborative:   &d.IsCollaborative,
		Signature1:        &d.Signature1,
		Signature2:        &d.Signature2,
		PhotoURL:          &d.PhotoURL,
		ContractText:      &d.ContractText,
		Status:            &d.Status,
	}
}
