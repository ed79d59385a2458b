// Package models defines the persisted draft record for ConsentDraft.
package models

import (
	"encoding/json"
	"log/slog"
	"time"
)

// Draft is a persisted, incomplete contract record that can be resumed later.
type Draft struct {
	ID      string `json:"id"`
	OwnerID string `json:"owner_id"`

	EncounterType  string   `json:"encounter_type"`
	UniversityID   string   `json:"university_id,omitempty"`
	UniversityName string   `json:"university_name,omitempty"`
	Parties        []string `json:"parties"`

	// IntimateActs is stored as a JSON-encoded string column, opaque to the
	// persistence layer. See EncodeIntimateActs / DecodeIntimateActs.
	IntimateActs map[string]ActState `json:"intimate_acts,omitempty"`

	ContractStartTime *time.Time `json:"contract_start_time,omitempty"`
	ContractDuration  string     `json:"contract_duration,omitempty"`
	ContractEndTime   *time.Time `json:"contract_end_time,omitempty"`

	Method          RecordingMethod `json:"method,omitempty"`
	IsCollaborative bool            `json:"is_collaborative,omitempty"`
	Signature1      string          `json:"signature_1,omitempty"`
	Signature2      string          `json:"signature_2,omitempty"`
	PhotoURL        string          `json:"photo_url,omitempty"`
	ContractText    string          `json:"contract_text,omitempty"`

	Status    DraftStatus `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// DraftPatch is a partial update applied to a persisted draft. Nil fields
// leave the stored value unchanged.
type DraftPatch struct {
	EncounterType     *string              `json:"encounter_type,omitempty"`
	UniversityID      *string              `json:"university_id,omitempty"`
	UniversityName    *string              `json:"university_name,omitempty"`
	Parties           []string             `json:"parties,omitempty"`
	IntimateActs      *map[string]ActState `json:"intimate_acts,omitempty"`
	ContractStartTime *time.Time           `json:"contract_start_time,omitempty"`
	ContractDuration  *string              `json:"contract_duration,omitempty"`
	ContractEndTime   *time.Time           `json:"contract_end_time,omitempty"`
	Method            *RecordingMethod     `json:"method,omitempty"`
	IsCollaborative   *bool                `json:"is_collaborative,omitempty"`
	Signature1        *string              `json:"signature_1,omitempty"`
	Signature2        *string              `json:"signature_2,omitempty"`
	PhotoURL          *string              `json:"photo_url,omitempty"`
	ContractText      *string              `json:"contract_text,omitempty"`
	Status            *DraftStatus         `json:"status,omitempty"`
}

// Apply merges the patch into the draft.
func (d *Draft) Apply(p DraftPatch) {
	if p.EncounterType != nil {
		d.EncounterType = *p.EncounterType
	}
	if p.UniversityID != nil {
		d.UniversityID = *p.UniversityID
	}
	if p.UniversityName != nil {
		d.UniversityName = *p.UniversityName
	}
	if p.Parties != nil {
		d.Parties = append([]string(nil), p.Parties...)
	}
	if p.IntimateActs != nil {
		d.IntimateActs = make(map[string]ActState, len(*p.IntimateActs))
		for k, v := range *p.IntimateActs {
			d.IntimateActs[k] = v
		}
	}
	if p.ContractStartTime != nil {
		t := *p.ContractStartTime
		d.ContractStartTime = &t
	}
	if p.ContractDuration != nil {
		d.ContractDuration = *p.ContractDuration
	}
	if p.ContractEndTime != nil {
		t := *p.ContractEndTime
		d.ContractEndTime = &t
	}
	if p.Method != nil {
		d.Method = *p.Method
	}
	if p.IsCollaborative != nil {
		d.IsCollaborative = *p.IsCollaborative
	}
	if p.Signature1 != nil {
		d.Signature1 = *p.Signature1
	}
	if p.Signature2 != nil {
		d.Signature2 = *p.Signature2
	}
	if p.PhotoURL != nil {
		d.PhotoURL = *p.PhotoURL
	}
	if p.ContractText != nil {
		d.ContractText = *p.ContractText
	}
	if p.Status != nil {
		d.Status = *p.Status
	}
}

// EncodeIntimateActs serializes an act map to its JSON column form. An empty
// or nil map encodes to the empty string.
func EncodeIntimateActs(acts map[string]ActState) (string, error) {
	if len(acts) == 0 {
		return "", nil
	}
	data, err := json.Marshal(acts)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DecodeIntimateActs parses the JSON column form back into an act map.
// Malformed content is logged and treated as "no acts recorded" so a bad
// column never aborts draft hydration.
func DecodeIntimateActs(raw string) map[string]ActState {
	if raw == "" {
		return nil
	}
	acts := make(map[string]ActState)
	if err := json.Unmarshal([]byte(raw), &acts); err != nil {
		slog.Error("DecodeIntimateActs: malformed intimate_acts JSON, treating as empty", "error", err)
		return nil
	}
	return acts
}

// FlowStateFromDraft rehydrates a wizard flow state wholesale from a
// persisted draft. The selection mode is inferred from the stored university
// fields: the schema persists only the university pair, so a state-based
// jurisdiction does not survive a reload.
func FlowStateFromDraft(d Draft) FlowState {
	s := FlowState{
		EncounterType:     d.EncounterType,
		UniversityID:      d.UniversityID,
		UniversityName:    d.UniversityName,
		Parties:           append([]string(nil), d.Parties...),
		ContractStartTime: d.ContractStartTime,
		ContractDuration:  d.ContractDuration,
		ContractEndTime:   d.ContractEndTime,
		Method:            d.Method,
		DraftID:           d.ID,
		IsCollaborative:   d.IsCollaborative,
		ContractText:      d.ContractText,
		Signature1:        d.Signature1,
		Signature2:        d.Signature2,
		PhotoURL:          d.PhotoURL,
	}
	if len(d.IntimateActs) > 0 {
		s.IntimateActs = make(map[string]ActState, len(d.IntimateActs))
		for k, v := range d.IntimateActs {
			s.IntimateActs[k] = v
		}
	}
	if d.UniversityID != "" {
		s.SelectionMode = SelectionModeUniversity
	}
	if len(s.Parties) == 0 {
		s.Parties = []string{""}
	}
	return s
}

// DraftFromFlowState projects the current flow state onto the persisted
// draft schema.
func DraftFromFlowState(s FlowState, ownerID string) Draft {
	d := Draft{
		ID:                s.DraftID,
		OwnerID:           ownerID,
		EncounterType:     s.EncounterType,
		UniversityID:      s.UniversityID,
		UniversityName:    s.UniversityName,
		Parties:           append([]string(nil), s.Parties...),
		ContractStartTime: s.ContractStartTime,
		ContractDuration:  s.ContractDuration,
		ContractEndTime:   s.ContractEndTime,
		Method:            s.Method,
		IsCollaborative:   s.IsCollaborative,
		Signature1:        s.Signature1,
		Signature2:        s.Signature2,
		PhotoURL:          s.PhotoURL,
		ContractText:      s.ContractText,
		Status:            DraftStatusDraft,
	}
	if len(s.IntimateActs) > 0 {
		d.IntimateActs = make(map[string]ActState, len(s.IntimateActs))
		for k, v := range s.IntimateActs {
			d.IntimateActs[k] = v
		}
	}
	return d
}
