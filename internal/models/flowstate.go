// Package models defines the wizard flow state for ConsentDraft.
package models

import "time"

// FlowState is the single draft-in-progress record the wizard operates on.
// It is mutated only through whole-snapshot merges in the state store, never
// field-by-field in place.
type FlowState struct {
	EncounterType string        `json:"encounter_type"`
	SelectionMode SelectionMode `json:"selection_mode,omitempty"`

	// Jurisdiction pairs are mutually exclusive: setting one pair clears the
	// other, and not-applicable clears both.
	UniversityID   string `json:"university_id,omitempty"`
	UniversityName string `json:"university_name,omitempty"`
	StateCode      string `json:"state_code,omitempty"`
	StateName      string `json:"state_name,omitempty"`

	// Parties holds at least one entry; position 0 is reserved for the
	// current user and is the only slot allowed to start pre-filled.
	Parties []string `json:"parties"`

	IntimateActs map[string]ActState `json:"intimate_acts,omitempty"`

	ContractStartTime *time.Time `json:"contract_start_time,omitempty"`
	ContractEndTime   *time.Time `json:"contract_end_time,omitempty"`
	ContractDuration  string     `json:"contract_duration,omitempty"`

	Method RecordingMethod `json:"method,omitempty"`

	DraftID         string `json:"draft_id,omitempty"`
	IsCollaborative bool   `json:"is_collaborative,omitempty"`
	ContractText    string `json:"contract_text,omitempty"`
	Signature1      string `json:"signature_1,omitempty"`
	Signature2      string `json:"signature_2,omitempty"`
	PhotoURL        string `json:"photo_url,omitempty"`
}

// NewFlowState creates an empty flow state with the owner pre-filled in the
// reserved first party slot and one blank slot ready for input.
func NewFlowState(owner string) FlowState {
	return FlowState{Parties: []string{owner, ""}}
}

// Clone returns a deep copy of the flow state. Readers of the state store
// always get a clone, never a live reference.
func (s FlowState) Clone() FlowState {
	out := s
	if s.Parties != nil {
		out.Parties = make([]string, len(s.Parties))
		copy(out.Parties, s.Parties)
	}
	if s.IntimateActs != nil {
		out.IntimateActs = make(map[string]ActState, len(s.IntimateActs))
		for k, v := range s.IntimateActs {
			out.IntimateActs[k] = v
		}
	}
	if s.ContractStartTime != nil {
		t := *s.ContractStartTime
		out.ContractStartTime = &t
	}
	if s.ContractEndTime != nil {
		t := *s.ContractEndTime
		out.ContractEndTime = &t
	}
	return out
}

// FlowPatch is a partial update merged against the latest flow state snapshot.
// Nil fields leave the corresponding state field unchanged.
type FlowPatch struct {
	EncounterType *string        `json:"encounter_type,omitempty"`
	SelectionMode *SelectionMode `json:"selection_mode,omitempty"`

	UniversityID   *string `json:"university_id,omitempty"`
	UniversityName *string `json:"university_name,omitempty"`
	StateCode      *string `json:"state_code,omitempty"`
	StateName      *string `json:"state_name,omitempty"`

	Parties      []string            `json:"parties,omitempty"`
	IntimateActs map[string]ActState `json:"intimate_acts,omitempty"`

	ContractStartTime *time.Time `json:"contract_start_time,omitempty"`
	ContractEndTime   *time.Time `json:"contract_end_time,omitempty"`
	ContractDuration  *string    `json:"contract_duration,omitempty"`

	Method *RecordingMethod `json:"method,omitempty"`

	DraftID         *string `json:"draft_id,omitempty"`
	IsCollaborative *bool   `json:"is_collaborative,omitempty"`
	ContractText    *string `json:"contract_text,omitempty"`
	Signature1      *string `json:"signature_1,omitempty"`
	Signature2      *string `json:"signature_2,omitempty"`
	PhotoURL        *string `json:"photo_url,omitempty"`

	// ClearIntimateActs replaces the act map with an empty one; a nil
	// IntimateActs field alone means "no change".
	ClearIntimateActs bool `json:"clear_intimate_acts,omitempty"`
}
