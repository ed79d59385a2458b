package testutil

import (
	"testing"
)

func TestNewTestServer(t *testing.T) {
	server, st := NewTestServer()
	if server == nil {
		t.Fatal("NewTestServer returned nil server")
	}
	if st == nil {
		t.Fatal("NewTestServer returned nil store")
	}
}

func TestSeedTestData(t *testing.T) {
	_, st := NewTestServer()

	created := SeedTestData(t, st)
	if len(created) != 2 {
		t.Fatalf("expected 2 seeded drafts, got %d", len(created))
	}

	drafts, err := st.ListDrafts("@alice")
	if err != nil {
		t.Fatalf("failed to list drafts: %v", err)
	}
	if len(drafts) != 2 {
		t.Errorf("expected 2 drafts for @alice, got %d", len(drafts))
	}

	contacts, err := st.ListContacts("@alice")
	if err != nil {
		t.Fatalf("failed to list contacts: %v", err)
	}
	if len(contacts) != 1 || contacts[0].Username != "@bob" {
		t.Errorf("seeded contacts wrong: %+v", contacts)
	}

	universities, err := st.ListUniversities("")
	if err != nil {
		t.Fatalf("failed to list universities: %v", err)
	}
	if len(universities) == 0 {
		t.Error("expected seeded universities")
	}
}

func TestCreateHTTPRequest(t *testing.T) {
	tests := []struct {
		name   string
		method string
		url    string
		body   interface{}
	}{
		{
			name:   "GET request with no body",
			method: "GET",
			url:    "/test",
			body:   nil,
		},
		{
			name:   "POST request with JSON body",
			method: "POST",
			url:    "/test",
			body:   map[string]string{"key": "value"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := CreateHTTPRequest(t, tt.method, tt.url, tt.body)

			if req == nil {
				t.Fatal("Expected request to be created, got nil")
			}
			if req.Method != tt.method {
				t.Errorf("Expected method %s, got %s", tt.method, req.Method)
			}
			if req.URL.Path != tt.url {
				t.Errorf("Expected URL %s, got %s", tt.url, req.URL.Path)
			}
		})
	}
}

func TestJSONRoundTripHelpers(t *testing.T) {
	data := MustMarshalJSON(t, map[string]interface{}{"key": "value", "number": 123})
	if len(data) == 0 {
		t.Fatal("Expected non-empty JSON data")
	}

	var target map[string]interface{}
	MustUnmarshalJSON(t, data, &target)

	if target["key"] != "value" {
		t.Errorf("Expected key to be 'value', got %v", target["key"])
	}
	if target["number"].(float64) != 123 {
		t.Errorf("Expected number to be 123, got %v", target["number"])
	}
}
