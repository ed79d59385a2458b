// Package catalog provides the static encounter type and jurisdiction tables
// consumed by the wizard.
//
// The built-in tables cover the default deployment; encounter types can be
// overridden from a YAML file for custom installs.
package catalog

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// EncounterType is a single catalog entry. RequiresJurisdiction controls
// whether the wizard inserts the university step for this encounter type.
type EncounterType struct {
	ID                   string `json:"id" yaml:"id"`
	Label                string `json:"label" yaml:"label"`
	RequiresJurisdiction bool   `json:"requires_jurisdiction" yaml:"requires_jurisdiction"`
}

// Catalog is an ordered, immutable table of encounter types.
type Catalog struct {
	entries []EncounterType
	byID    map[string]EncounterType
}

// defaultEncounterTypes is the built-in catalog.
var defaultEncounterTypes = []EncounterType{
	{ID: "sexual", Label: "Sexual encounter", RequiresJurisdiction: true},
	{ID: "romantic", Label: "Romantic encounter", RequiresJurisdiction: true},
	{ID: "medical", Label: "Medical examination", RequiresJurisdiction: false},
	{ID: "photography", Label: "Photography session", RequiresJurisdiction: false},
	{ID: "social-media", Label: "Social media posting", RequiresJurisdiction: false},
	{ID: "custom", Label: "Custom encounter", RequiresJurisdiction: false},
}

// New builds a catalog from the given entries.
func New(entries []EncounterType) *Catalog {
	c := &Catalog{
		entries: append([]EncounterType(nil), entries...),
		byID:    make(map[string]EncounterType, len(entries)),
	}
	for _, e := range c.entries {
		c.byID[e.ID] = e
	}
	return c
}

// Default returns the built-in encounter type catalog.
func Default() *Catalog {
	return New(defaultEncounterTypes)
}

// LoadFile reads an encounter type catalog from a YAML file.
func LoadFile(path string) (*Catalog, error) {
	slog.Debug("catalog.LoadFile: loading encounter types", "path", path)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file %s: %w", path, err)
	}
	var doc struct {
		EncounterTypes []EncounterType `yaml:"encounter_types"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file %s: %w", path, err)
	}
	if len(doc.EncounterTypes) == 0 {
		return nil, fmt.Errorf("catalog file %s defines no encounter types", path)
	}
	slog.Info("catalog.LoadFile: loaded encounter types", "path", path, "count", len(doc.EncounterTypes))
	return New(doc.EncounterTypes), nil
}

// EncounterTypes returns the ordered catalog entries.
func (c *Catalog) EncounterTypes() []EncounterType {
	return append([]EncounterType(nil), c.entries...)
}

// Lookup returns the entry for the given encounter type id.
func (c *Catalog) Lookup(id string) (EncounterType, bool) {
	e, ok := c.byID[id]
	return e, ok
}

// RequiresJurisdiction reports whether the given encounter type carries a
// jurisdiction step. Unknown or empty ids do not.
func (c *Catalog) RequiresJurisdiction(id string) bool {
	e, ok := c.byID[id]
	return ok && e.RequiresJurisdiction
}
