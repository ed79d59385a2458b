package wizard

import (
	"log/slog"
	"sync"

	"github.com/ConsentLoop/ConsentDraft/internal/models"
)

// notifyBuffer is the per-subscriber channel depth. A slow subscriber misses
// intermediate snapshots rather than blocking the merge path.
const notifyBuffer = 8

// StateStore holds the single mutable draft snapshot. All mutations are
// expressed as a merge of a partial patch against the latest snapshot, so an
// async fetch resolving late can never overwrite a faster local edit with
// stale data. Readers always receive deep copies.
type StateStore struct {
	mu    sync.Mutex
	state models.FlowState
	subs  []chan models.FlowState
}

// NewStateStore creates a store holding an empty flow state for the given
// owner.
func NewStateStore(owner string) *StateStore {
	return &StateStore{state: models.NewFlowState(owner)}
}

// Snapshot returns a deep copy of the current flow state.
func (st *StateStore) Snapshot() models.FlowState {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.state.Clone()
}

// Apply merges the patch against the latest snapshot, enforces the
// jurisdiction invariants, notifies subscribers, and returns the resulting
// snapshot.
func (st *StateStore) Apply(patch models.FlowPatch) models.FlowState {
	st.mu.Lock()
	next := merge(st.state, patch)
	st.state = next
	snap := next.Clone()
	st.mu.Unlock()

	st.notify(snap)
	return snap
}

// Hydrate replaces the snapshot wholesale from a persisted draft. Safe to
// call any number of times as fetches resolve; each call is a full merge-free
// replacement followed by normal notification.
func (st *StateStore) Hydrate(draft models.Draft) models.FlowState {
	state := models.FlowStateFromDraft(draft)
	st.mu.Lock()
	st.state = state
	snap := state.Clone()
	st.mu.Unlock()

	slog.Debug("StateStore.Hydrate: rehydrated from draft", "draftID", draft.ID, "encounterType", state.EncounterType)
	st.notify(snap)
	return snap
}

// Reset discards the draft and returns to the empty state. Used on
// successful submission, explicit cancel, and resume-to-a-different-draft.
func (st *StateStore) Reset(owner string) models.FlowState {
	st.mu.Lock()
	st.state = models.NewFlowState(owner)
	snap := st.state.Clone()
	st.mu.Unlock()

	slog.Debug("StateStore.Reset: state discarded")
	st.notify(snap)
	return snap
}

// Subscribe registers a channel that receives a snapshot after every change.
// Slow subscribers drop snapshots instead of blocking writers.
func (st *StateStore) Subscribe() <-chan models.FlowState {
	ch := make(chan models.FlowState, notifyBuffer)
	st.mu.Lock()
	st.subs = append(st.subs, ch)
	st.mu.Unlock()
	return ch
}

func (st *StateStore) notify(snap models.FlowState) {
	st.mu.Lock()
	subs := append([]chan models.FlowState(nil), st.subs...)
	st.mu.Unlock()
	for _, ch := range subs {
		select {
		case ch <- snap.Clone():
		default:
		}
	}
}

// merge applies a partial patch to a snapshot and normalizes the
// jurisdiction fields so the selection mode and jurisdiction pairs never
// disagree.
func merge(state models.FlowState, p models.FlowPatch) models.FlowState {
	next := state.Clone()

	if p.EncounterType != nil {
		next.EncounterType = *p.EncounterType
	}
	if p.SelectionMode != nil {
		next.SelectionMode = *p.SelectionMode
	}
	if p.UniversityID != nil {
		next.UniversityID = *p.UniversityID
	}
	if p.UniversityName != nil {
		next.UniversityName = *p.UniversityName
	}
	if p.StateCode != nil {
		next.StateCode = *p.StateCode
	}
	if p.StateName != nil {
		next.StateName = *p.StateName
	}
	if p.Parties != nil {
		next.Parties = append([]string(nil), p.Parties...)
	}
	if p.ClearIntimateActs {
		next.IntimateActs = nil
	} else if p.IntimateActs != nil {
		next.IntimateActs = make(map[string]models.ActState, len(p.IntimateActs))
		for k, v := range p.IntimateActs {
			next.IntimateActs[k] = v
		}
	}
	if p.ContractStartTime != nil {
		t := *p.ContractStartTime
		next.ContractStartTime = &t
	}
	if p.ContractEndTime != nil {
		t := *p.ContractEndTime
		next.ContractEndTime = &t
	}
	if p.ContractDuration != nil {
		next.ContractDuration = *p.ContractDuration
	}
	if p.Method != nil {
		next.Method = *p.Method
	}
	if p.DraftID != nil {
		next.DraftID = *p.DraftID
	}
	if p.IsCollaborative != nil {
		next.IsCollaborative = *p.IsCollaborative
	}
	if p.ContractText != nil {
		next.ContractText = *p.ContractText
	}
	if p.Signature1 != nil {
		next.Signature1 = *p.Signature1
	}
	if p.Signature2 != nil {
		next.Signature2 = *p.Signature2
	}
	if p.PhotoURL != nil {
		next.PhotoURL = *p.PhotoURL
	}

	// Jurisdiction pairs are mutually exclusive. Picking one pair clears the
	// other; opting out clears both.
	if p.UniversityID != nil && next.UniversityID != "" {
		next.SelectionMode = models.SelectionModeUniversity
		next.StateCode = ""
		next.StateName = ""
	}
	if p.StateCode != nil && next.StateCode != "" {
		next.SelectionMode = models.SelectionModeState
		next.UniversityID = ""
		next.UniversityName = ""
	}
	if next.SelectionMode == models.SelectionModeNotApplicable {
		next.UniversityID = ""
		next.UniversityName = ""
		next.StateCode = ""
		next.StateName = ""
	}

	// The party list never drops below the reserved owner slot.
	if len(next.Parties) == 0 {
		next.Parties = []string{""}
	}

	return next
}
