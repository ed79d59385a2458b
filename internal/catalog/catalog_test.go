package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()
	if got := len(c.EncounterTypes()); got != 6 {
		t.Errorf("default catalog has %d entries, want 6", got)
	}
	if _, ok := c.Lookup("sexual"); !ok {
		t.Error("sexual encounter type missing from default catalog")
	}
}

func TestRequiresJurisdiction(t *testing.T) {
	c := Default()
	cases := []struct {
		id   string
		want bool
	}{
		{"sexual", true},
		{"romantic", true},
		{"medical", false},
		{"photography", false},
		{"", false},
		{"no-such-type", false},
	}
	for _, tc := range cases {
		if got := c.RequiresJurisdiction(tc.id); got != tc.want {
			t.Errorf("RequiresJurisdiction(%q) = %v, want %v", tc.id, got, tc.want)
		}
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "encounter_types.yaml")
	content := `encounter_types:
  - id: tattoo
    label: Tattoo session
    requires_jurisdiction: true
  - id: piercing
    label: Piercing
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write catalog file: %v", err)
	}

	c, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if got := len(c.EncounterTypes()); got != 2 {
		t.Errorf("loaded %d entries, want 2", got)
	}
	if !c.RequiresJurisdiction("tattoo") {
		t.Error("tattoo should require jurisdiction")
	}
	if c.RequiresJurisdiction("piercing") {
		t.Error("piercing should not require jurisdiction")
	}
	// The built-in entries are replaced, not merged.
	if c.RequiresJurisdiction("sexual") {
		t.Error("built-in entries should not survive a file override")
	}
}

func TestLoadFileRejectsEmptyCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	if err := os.WriteFile(path, []byte("encounter_types: []\n"), 0644); err != nil {
		t.Fatalf("failed to write catalog file: %v", err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Error("expected an error for an empty catalog file")
	}
}

func TestUSStates(t *testing.T) {
	states := USStates()
	if len(states) != 50 {
		t.Errorf("state table has %d entries, want 50", len(states))
	}
	ca, ok := LookupState("CA")
	if !ok || ca.Name != "California" {
		t.Errorf("LookupState(CA) = %+v, %v", ca, ok)
	}
	if _, ok := LookupState("ZZ"); ok {
		t.Error("unknown state code should not resolve")
	}
}

func TestActsFor(t *testing.T) {
	if acts := ActsFor("sexual"); len(acts) == 0 {
		t.Error("sexual encounter type has no suggested acts")
	}
	generic := ActsFor("no-such-type")
	if len(generic) == 0 {
		t.Fatal("unknown encounter types should fall back to generic acts")
	}
	generic[0] = "mutated"
	if ActsFor("no-such-type")[0] == "mutated" {
		t.Error("ActsFor should return a copy")
	}
}

func TestSeedUniversities(t *testing.T) {
	seed := SeedUniversities()
	if len(seed) == 0 {
		t.Fatal("seed university list is empty")
	}
	seed[0].Name = "mutated"
	if SeedUniversities()[0].Name == "mutated" {
		t.Error("SeedUniversities should return a copy")
	}
}
