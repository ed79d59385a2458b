package wizard

import "github.com/ConsentLoop/ConsentDraft/internal/models"

// ToggleAct cycles a single act through unset -> yes -> no -> unset. The
// input map is never mutated; the returned map is a fresh copy with the
// toggle applied. Unset acts are absent from the map, never stored as an
// explicit value.
func ToggleAct(acts map[string]models.ActState, name string) map[string]models.ActState {
	out := make(map[string]models.ActState, len(acts)+1)
	for k, v := range acts {
		out[k] = v
	}
	switch out[name] {
	case models.ActStateYes:
		out[name] = models.ActStateNo
	case models.ActStateNo:
		delete(out, name)
	default:
		out[name] = models.ActStateYes
	}
	return out
}
