// Package models defines the core data structures for ConsentDraft.
//
// It includes the wizard flow state, persisted draft records, and the shared
// API response envelope used across modules.
package models

import "errors"

// SelectionMode describes how the jurisdiction step was answered.
type SelectionMode string

const (
	// SelectionModeNone indicates the jurisdiction step has not been answered.
	SelectionModeNone SelectionMode = ""
	// SelectionModeUniversity indicates a university jurisdiction was chosen.
	SelectionModeUniversity SelectionMode = "select-university"
	// SelectionModeState indicates a US state jurisdiction was chosen.
	SelectionModeState SelectionMode = "select-state"
	// SelectionModeNotApplicable indicates the user opted out of a jurisdiction.
	SelectionModeNotApplicable SelectionMode = "not-applicable"
)

// IsValidSelectionMode checks if the given selection mode is supported.
func IsValidSelectionMode(m SelectionMode) bool {
	switch m {
	case SelectionModeNone, SelectionModeUniversity, SelectionModeState, SelectionModeNotApplicable:
		return true
	default:
		return false
	}
}

// RecordingMethod describes how the final contract is recorded.
type RecordingMethod string

const (
	// RecordingMethodNone indicates no recording method has been chosen.
	RecordingMethodNone RecordingMethod = ""
	// RecordingMethodSignature records consent with drawn signatures.
	RecordingMethodSignature RecordingMethod = "signature"
	// RecordingMethodVoice records consent with a voice recording.
	RecordingMethodVoice RecordingMethod = "voice"
	// RecordingMethodPhoto records consent with a photo.
	RecordingMethodPhoto RecordingMethod = "photo"
	// RecordingMethodBiometric records consent with a biometric check.
	RecordingMethodBiometric RecordingMethod = "biometric"
)

// IsValidRecordingMethod checks if the given recording method is supported.
func IsValidRecordingMethod(m RecordingMethod) bool {
	switch m {
	case RecordingMethodSignature, RecordingMethodVoice, RecordingMethodPhoto, RecordingMethodBiometric:
		return true
	default:
		return false
	}
}

// ActState is the recorded answer for a single itemized act. Absence of the
// act's key in the map means the act is unset; the map never stores an
// explicit "unset" value.
type ActState string

const (
	// ActStateYes marks an act as consented to.
	ActStateYes ActState = "yes"
	// ActStateNo marks an act as declined.
	ActStateNo ActState = "no"
)

// DraftStatus represents the lifecycle status of a persisted draft.
type DraftStatus string

const (
	// DraftStatusDraft indicates an in-progress draft that can be resumed.
	DraftStatusDraft DraftStatus = "draft"
	// DraftStatusSubmitted indicates a completed, submitted contract.
	DraftStatusSubmitted DraftStatus = "submitted"
)

// Error variables for better error handling and testability
var (
	ErrDuplicateParty    = errors.New("this person is already on the contract")
	ErrMalformedUsername = errors.New("usernames cannot contain spaces")
	ErrOwnerSlotRemoval  = errors.New("the contract owner cannot be removed")
	ErrPartyIndexRange   = errors.New("party index out of range")
	ErrSaveInFlight      = errors.New("a save is already in progress")
	ErrDraftNotFound     = errors.New("draft not found")
	ErrUnknownStep       = errors.New("unknown wizard step")
)

// Contact is a directory entry that can be quick-added as a party.
type Contact struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Nickname string `json:"nickname,omitempty"`
}

// University is a jurisdiction directory entry.
type University struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// USState is a static jurisdiction directory entry.
type USState struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// APIStatus represents the status of an API response.
type APIStatus string

const (
	// APIStatusOK indicates an API request completed successfully.
	APIStatusOK APIStatus = "ok"
	// APIStatusError indicates an API request failed with an error.
	APIStatusError APIStatus = "error"
)

// APIResponse represents a standard API response with a status and optional data.
type APIResponse struct {
	Status  string      `json:"status"`            // status of the API response
	Message string      `json:"message,omitempty"` // optional message for error responses or additional info
	Result  interface{} `json:"result,omitempty"`  // optional result data for successful responses
}

// Success creates a successful API response with optional result data.
func Success(result interface{}) APIResponse {
	return APIResponse{Status: string(APIStatusOK), Result: result}
}

// SuccessWithMessage creates a successful API response with a message and optional result data.
func SuccessWithMessage(message string, result interface{}) APIResponse {
	return APIResponse{Status: string(APIStatusOK), Message: message, Result: result}
}

// Error creates an error API response with a message.
func Error(message string) APIResponse {
	return APIResponse{Status: string(APIStatusError), Message: message}
}
