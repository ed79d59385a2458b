// Package testutil provides common test utilities and helpers for ConsentDraft tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ConsentLoop/ConsentDraft/internal/api"
	"github.com/ConsentLoop/ConsentDraft/internal/catalog"
	"github.com/ConsentLoop/ConsentDraft/internal/models"
	"github.com/ConsentLoop/ConsentDraft/internal/store"
)

// NewTestServer creates a test API server with in-memory dependencies.
// This centralizes the test server creation logic used across multiple test files.
func NewTestServer() (*api.Server, store.Store) {
	st := store.NewInMemoryStore()
	return api.NewServer(st, catalog.Default()), st
}

// AssertHTTPStatus checks the HTTP status code and fails the test if it doesn't match.
func AssertHTTPStatus(t *testing.T, expected, actual int, context string) {
	t.Helper()
	if actual != expected {
		t.Errorf("%s: expected status %d, got %d", context, expected, actual)
	}
}

// AssertJSONResponse decodes JSON response and validates the status field.
func AssertJSONResponse(t *testing.T, rr *httptest.ResponseRecorder, expectedStatus string) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode JSON response: %v", err)
	}

	if status, ok := response["status"].(string); ok {
		if status != expectedStatus {
			t.Errorf("expected status '%s', got '%s'", expectedStatus, status)
		}
	} else {
		t.Error("response missing or invalid 'status' field")
	}

	return response
}

// CreateHTTPRequest creates an HTTP request with optional JSON body for testing.
func CreateHTTPRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	t.Helper()
	var reqBody *bytes.Buffer
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		t.Fatalf("failed to create HTTP request: %v", err)
	}
	return req
}

// SeedTestData adds sample drafts and directory entries to the store for testing.
func SeedTestData(t *testing.T, st store.Store) []models.Draft {
	t.Helper()

	testDrafts := []models.Draft{
		{
			OwnerID:       "@alice",
			EncounterType: "sexual",
			UniversityID:  "toronto",
			Parties:       []string{"@alice", "@bob"},
			IntimateActs:  map[string]models.ActState{"Kissing": models.ActStateYes},
			Status:        models.DraftStatusDraft,
		},
		{
			OwnerID:       "@alice",
			EncounterType: "medical",
			Parties:       []string{"@alice"},
			Status:        models.DraftStatusDraft,
		},
	}

	var created []models.Draft
	for _, d := range testDrafts {
		saved, err := st.CreateDraft(d)
		if err != nil {
			t.Fatalf("failed to seed test draft: %v", err)
		}
		created = append(created, saved)
	}

	if err := st.SaveContact("@alice", models.Contact{Username: "@bob", Nickname: "Bob"}); err != nil {
		t.Fatalf("failed to seed test contact: %v", err)
	}
	for _, u := range catalog.SeedUniversities() {
		if err := st.SaveUniversity(u); err != nil {
			t.Fatalf("failed to seed test university: %v", err)
		}
	}

	return created
}

// MustMarshalJSON marshals an object to JSON and fails test on error.
func MustMarshalJSON(t *testing.T, v interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal JSON: %v", err)
	}
	return data
}

// MustUnmarshalJSON unmarshals JSON data into target and fails test on error.
func MustUnmarshalJSON(t *testing.T, data []byte, target interface{}) {
	t.Helper()
	if err := json.Unmarshal(data, target); err != nil {
		t.Fatalf("failed to unmarshal JSON: %v", err)
	}
}
