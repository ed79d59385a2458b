package catalog

import "github.com/ConsentLoop/ConsentDraft/internal/models"

// seedUniversities is the default university directory, used to populate an
// empty store on first startup.
var seedUniversities = []models.University{
	{ID: "toronto", Name: "University of Toronto"},
	{ID: "mcgill", Name: "McGill University"},
	{ID: "ubc", Name: "University of British Columbia"},
	{ID: "waterloo", Name: "University of Waterloo"},
	{ID: "harvard", Name: "Harvard University"},
	{ID: "stanford", Name: "Stanford University"},
	{ID: "mit", Name: "Massachusetts Institute of Technology"},
	{ID: "berkeley", Name: "University of California, Berkeley"},
	{ID: "ucla", Name: "University of California, Los Angeles"},
	{ID: "michigan", Name: "University of Michigan"},
	{ID: "nyu", Name: "New York University"},
	{ID: "columbia", Name: "Columbia University"},
	{ID: "cornell", Name: "Cornell University"},
	{ID: "uw", Name: "University of Washington"},
	{ID: "utexas", Name: "University of Texas at Austin"},
	{ID: "gatech", Name: "Georgia Institute of Technology"},
	{ID: "uiuc", Name: "University of Illinois Urbana-Champaign"},
	{ID: "purdue", Name: "Purdue University"},
	{ID: "osu", Name: "Ohio State University"},
	{ID: "ufl", Name: "University of Florida"},
}

// SeedUniversities returns the built-in university directory.
func SeedUniversities() []models.University {
	return append([]models.University(nil), seedUniversities...)
}
