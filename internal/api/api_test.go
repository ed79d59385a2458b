package api_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ConsentLoop/ConsentDraft/internal/models"
	"github.com/ConsentLoop/ConsentDraft/internal/testutil"
)

func TestHealthHandler(t *testing.T) {
	server, _ := testutil.NewTestServer()

	req := testutil.CreateHTTPRequest(t, "GET", "/health", nil)
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "health check")
	testutil.AssertJSONResponse(t, rr, "ok")
}

func TestEncounterTypesHandler(t *testing.T) {
	server, _ := testutil.NewTestServer()

	req := testutil.CreateHTTPRequest(t, "GET", "/catalog/encounter-types", nil)
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "encounter types")
	response := testutil.AssertJSONResponse(t, rr, "ok")
	entries, ok := response["result"].([]interface{})
	if !ok || len(entries) != 6 {
		t.Errorf("expected 6 encounter types, got %v", response["result"])
	}
}

func TestStatesHandler(t *testing.T) {
	server, _ := testutil.NewTestServer()

	req := testutil.CreateHTTPRequest(t, "GET", "/catalog/states", nil)
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "state table")
	response := testutil.AssertJSONResponse(t, rr, "ok")
	states, ok := response["result"].([]interface{})
	if !ok || len(states) != 50 {
		t.Errorf("expected 50 states, got %d", len(states))
	}
}

func TestUniversitiesHandlerSearch(t *testing.T) {
	server, st := testutil.NewTestServer()
	testutil.SeedTestData(t, st)

	req := testutil.CreateHTTPRequest(t, "GET", "/universities?q=toronto", nil)
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "university search")
	response := testutil.AssertJSONResponse(t, rr, "ok")
	matches, ok := response["result"].([]interface{})
	if !ok || len(matches) != 1 {
		t.Fatalf("expected 1 match for toronto, got %v", response["result"])
	}
}

func TestContactsHandlerRequiresOwner(t *testing.T) {
	server, _ := testutil.NewTestServer()

	req := testutil.CreateHTTPRequest(t, "GET", "/contacts", nil)
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	testutil.AssertHTTPStatus(t, http.StatusBadRequest, rr.Code, "contacts without owner")
	testutil.AssertJSONResponse(t, rr, "error")
}

func TestContactsHandlerSaveAndList(t *testing.T) {
	server, _ := testutil.NewTestServer()

	body := map[string]interface{}{
		"owner_id": "@alice",
		"contact":  models.Contact{Username: "@bob", Nickname: "Bob"},
	}
	req := testutil.CreateHTTPRequest(t, "POST", "/contacts", body)
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)
	testutil.AssertHTTPStatus(t, http.StatusCreated, rr.Code, "save contact")

	req = testutil.CreateHTTPRequest(t, "GET", "/contacts?owner=%40alice", nil)
	rr = httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "list contacts")
	response := testutil.AssertJSONResponse(t, rr, "ok")
	contacts, ok := response["result"].([]interface{})
	if !ok || len(contacts) != 1 {
		t.Errorf("expected 1 contact, got %v", response["result"])
	}
}

func TestDraftLifecycleOverHTTP(t *testing.T) {
	server, _ := testutil.NewTestServer()
	handler := server.Handler()

	draft := models.Draft{
		OwnerID:       "@alice",
		EncounterType: "sexual",
		Parties:       []string{"@alice", "@bob"},
	}
	req := testutil.CreateHTTPRequest(t, "POST", "/drafts", draft)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	testutil.AssertHTTPStatus(t, http.StatusCreated, rr.Code, "create draft")
	response := testutil.AssertJSONResponse(t, rr, "ok")

	created, ok := response["result"].(map[string]interface{})
	if !ok {
		t.Fatalf("create response has no result: %v", response)
	}
	draftID, _ := created["id"].(string)
	if draftID == "" {
		t.Fatal("created draft has no id")
	}

	req = testutil.CreateHTTPRequest(t, "GET", "/drafts/"+draftID+"?owner=%40alice", nil)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "get draft")

	patch := map[string]interface{}{"contract_duration": "24h"}
	req = testutil.CreateHTTPRequest(t, "PUT", "/drafts/"+draftID+"?owner=%40alice", patch)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "patch draft")
	response = testutil.AssertJSONResponse(t, rr, "ok")
	updated, _ := response["result"].(map[string]interface{})
	if updated["contract_duration"] != "24h" {
		t.Errorf("patch not applied: %v", updated)
	}

	req = testutil.CreateHTTPRequest(t, "DELETE", "/drafts/"+draftID+"?owner=%40alice", nil)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "delete draft")

	req = testutil.CreateHTTPRequest(t, "GET", "/drafts/"+draftID+"?owner=%40alice", nil)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	testutil.AssertHTTPStatus(t, http.StatusNotFound, rr.Code, "get deleted draft")
}

func TestDraftHandlerScopesToOwner(t *testing.T) {
	server, st := testutil.NewTestServer()
	created := testutil.SeedTestData(t, st)

	req := testutil.CreateHTTPRequest(t, "GET", "/drafts/"+created[0].ID+"?owner=%40mallory", nil)
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	testutil.AssertHTTPStatus(t, http.StatusNotFound, rr.Code, "cross-owner draft access")
	testutil.AssertJSONResponse(t, rr, "error")
}

func TestResolveHandler(t *testing.T) {
	server, _ := testutil.NewTestServer()

	state := models.FlowState{
		EncounterType: "sexual",
		UniversityID:  "toronto",
		Parties:       []string{"@alice", "@bob"},
		IntimateActs:  map[string]models.ActState{"Kissing": models.ActStateYes},
	}
	req := testutil.CreateHTTPRequest(t, "POST", "/wizard/resolve", state)
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "resolve")
	response := testutil.AssertJSONResponse(t, rr, "ok")
	result, ok := response["result"].(map[string]interface{})
	if !ok {
		t.Fatalf("resolve response has no result: %v", response)
	}
	if result["step"] != "duration" {
		t.Errorf("resolved step = %v, want duration", result["step"])
	}
	if result["total_steps"].(float64) != 6 {
		t.Errorf("total steps = %v, want 6", result["total_steps"])
	}
}

func TestResolveHandlerEmptyState(t *testing.T) {
	server, _ := testutil.NewTestServer()

	req := testutil.CreateHTTPRequest(t, "POST", "/wizard/resolve", models.FlowState{})
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "resolve empty state")
	response := testutil.AssertJSONResponse(t, rr, "ok")
	result, _ := response["result"].(map[string]interface{})
	if result["step"] != "encounter_type" {
		t.Errorf("resolved step = %v, want encounter_type", result["step"])
	}
	if result["total_steps"].(float64) != 5 {
		t.Errorf("total steps = %v, want 5 without a jurisdiction step", result["total_steps"])
	}
}

func TestValidateHandlerFlagsDuplicateParty(t *testing.T) {
	server, _ := testutil.NewTestServer()

	body := map[string]interface{}{
		"state": models.FlowState{
			EncounterType: "medical",
			Parties:       []string{"@alice", "@alice"},
		},
		"step": "parties",
	}
	req := testutil.CreateHTTPRequest(t, "POST", "/wizard/validate", body)
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	testutil.AssertHTTPStatus(t, http.StatusOK, rr.Code, "validate duplicate party")
	response := testutil.AssertJSONResponse(t, rr, "ok")
	result, ok := response["result"].(map[string]interface{})
	if !ok {
		t.Fatalf("validate response has no result: %v", response)
	}
	if result["complete"] != false {
		t.Error("duplicate party list should not validate")
	}
	partyErrors, ok := result["party_errors"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected party_errors in result: %v", result)
	}
	if _, flagged := partyErrors["1"]; !flagged {
		t.Errorf("duplicate should be flagged at index 1, got %v", partyErrors)
	}
}

func TestValidateHandlerUnknownStep(t *testing.T) {
	server, _ := testutil.NewTestServer()

	body := map[string]interface{}{
		"state": models.FlowState{EncounterType: "medical"},
		"step":  "university",
	}
	req := testutil.CreateHTTPRequest(t, "POST", "/wizard/validate", body)
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	// Medical encounters carry no university step.
	testutil.AssertHTTPStatus(t, http.StatusBadRequest, rr.Code, "validate off-topology step")
	testutil.AssertJSONResponse(t, rr, "error")
}

func TestDraftsHandlerMethodNotAllowed(t *testing.T) {
	server, _ := testutil.NewTestServer()

	req := testutil.CreateHTTPRequest(t, "PATCH", "/drafts", nil)
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	testutil.AssertHTTPStatus(t, http.StatusMethodNotAllowed, rr.Code, "unsupported method")
}
