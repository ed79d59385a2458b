package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ConsentLoop/ConsentDraft/internal/models"
)

// draftColumns is the column list every draft query selects, in scan order.
const draftColumns = `id, owner_id, encounter_type, university_id, university_name, parties, intimate_acts,
	contract_start_time, contract_duration, contract_end_time, method, is_collaborative,
	signature_1, signature_2, photo_url, contract_text, status, created_at, updated_at`

// nilIfEmpty returns nil if s is empty, otherwise returns s.
// Used for nullable database columns.
func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// encodeParties serializes a party list to its JSON column form.
func encodeParties(parties []string) (string, error) {
	if parties == nil {
		parties = []string{}
	}
	data, err := json.Marshal(parties)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// decodeParties parses the JSON column form back into a party list.
// Malformed content is logged and treated as empty so a bad column never
// aborts draft hydration.
func decodeParties(raw string) []string {
	if raw == "" {
		return nil
	}
	var parties []string
	if err := json.Unmarshal([]byte(raw), &parties); err != nil {
		slog.Error("decodeParties: malformed parties JSON, treating as empty", "error", err)
		return nil
	}
	return parties
}

// scanDraft scans a Draft from sql.Rows.
func scanDraft(rows *sql.Rows) (models.Draft, error) {
	var d models.Draft
	var universityID, universityName, partiesJSON, actsJSON sql.NullString
	var method, status string
	var startTime, endTime sql.NullTime
	err := rows.Scan(
		&d.ID, &d.OwnerID, &d.EncounterType, &universityID, &universityName, &partiesJSON, &actsJSON,
		&startTime, &d.ContractDuration, &endTime, &method, &d.IsCollaborative,
		&d.Signature1, &d.Signature2, &d.PhotoURL, &d.ContractText, &status, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return d, fmt.Errorf("scan draft failed: %w", err)
	}
	fillDraft(&d, universityID, universityName, partiesJSON, actsJSON, startTime, endTime, method, status)
	return d, nil
}

// scanDraftRow scans a Draft from a single sql.Row.
func scanDraftRow(row *sql.Row) (models.Draft, error) {
	var d models.Draft
	var universityID, universityName, partiesJSON, actsJSON sql.NullString
	var method, status string
	var startTime, endTime sql.NullTime
	err := row.Scan(
		&d.ID, &d.OwnerID, &d.EncounterType, &universityID, &universityName, &partiesJSON, &actsJSON,
		&startTime, &d.ContractDuration, &endTime, &method, &d.IsCollaborative,
		&d.Signature1, &d.Signature2, &d.PhotoURL, &d.ContractText, &status, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return d, err
	}
	fillDraft(&d, universityID, universityName, partiesJSON, actsJSON, startTime, endTime, method, status)
	return d, nil
}

func fillDraft(d *models.Draft, universityID, universityName, partiesJSON, actsJSON sql.NullString, startTime, endTime sql.NullTime, method, status string) {
	d.UniversityID = universityID.String
	d.UniversityName = universityName.String
	d.Parties = decodeParties(partiesJSON.String)
	d.IntimateActs = models.DecodeIntimateActs(actsJSON.String)
	if startTime.Valid {
		d.ContractStartTime = &startTime.Time
	}
	if endTime.Valid {
		d.ContractEndTime = &endTime.Time
	}
	d.Method = models.RecordingMethod(method)
	d.Status = models.DraftStatus(status)
}

// draftWriteValues assembles the insert/update argument list matching
// draftColumns order, minus the id. Serialization errors surface here so the
// SQL layer stays mechanical.
func draftWriteValues(d models.Draft) ([]interface{}, error) {
	partiesJSON, err := encodeParties(d.Parties)
	if err != nil {
		return nil, fmt.Errorf("failed to encode parties: %w", err)
	}
	actsJSON, err := models.EncodeIntimateActs(d.IntimateActs)
	if err != nil {
		return nil, fmt.Errorf("failed to encode intimate acts: %w", err)
	}
	return []interface{}{
		d.OwnerID, d.EncounterType, nilIfEmpty(d.UniversityID), nilIfEmpty(d.UniversityName),
		partiesJSON, nilIfEmpty(actsJSON), d.ContractStartTime, d.ContractDuration,
		d.ContractEndTime, string(d.Method), d.IsCollaborative,
		d.Signature1, d.Signature2, d.PhotoURL, d.ContractText, string(d.Status),
		d.CreatedAt, d.UpdatedAt,
	}, nil
}
