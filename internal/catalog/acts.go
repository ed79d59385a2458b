package catalog

// actsByEncounterType maps an encounter type id to its suggested act names.
// Act names are free-form strings; this table only seeds the act selection
// screen, and users can always add their own.
var actsByEncounterType = map[string][]string{
	"sexual": {
		"Kissing",
		"Cuddling",
		"Oral sex",
		"Penetrative sex",
		"Use of protection",
		"Photography during encounter",
	},
	"romantic": {
		"Kissing",
		"Cuddling",
		"Holding hands",
		"Sharing a bed",
	},
	"medical": {
		"Physical examination",
		"Blood draw",
		"Imaging scan",
		"Presence of observer",
	},
	"photography": {
		"Portrait photos",
		"Full body photos",
		"Publishing to portfolio",
		"Commercial use",
	},
	"social-media": {
		"Posting photos",
		"Posting videos",
		"Tagging by name",
		"Resharing by others",
	},
}

// genericActs seeds the act screen for custom or unknown encounter types.
var genericActs = []string{
	"Physical contact",
	"Photography",
	"Recording",
}

// ActsFor returns the suggested act names for the given encounter type.
func ActsFor(encounterType string) []string {
	acts, ok := actsByEncounterType[encounterType]
	if !ok {
		acts = genericActs
	}
	return append([]string(nil), acts...)
}
