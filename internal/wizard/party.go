package wizard

import (
	"log/slog"
	"strings"

	"github.com/ConsentLoop/ConsentDraft/internal/models"
)

// NormalizeParty canonicalizes raw party input. Input starting with "@" is a
// username: the prefix is kept and the remainder lower-cased. Anything else
// is a free-text legal name and is trimmed.
func NormalizeParty(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "@") {
		return "@" + strings.ToLower(trimmed[1:])
	}
	return trimmed
}

// CanonicalUsername returns the "@lowercase" form used for identity
// comparisons between parties and contacts.
func CanonicalUsername(username string) string {
	return "@" + strings.ToLower(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(username), "@")))
}

// isUsername reports whether the entry is an @-prefixed canonical username
// rather than a free-text name.
func isUsername(entry string) bool {
	return strings.HasPrefix(entry, "@")
}

// ValidateParties produces the position-indexed error map for a party list.
// Blank entries past the owner slot carry no error; they simply do not count
// toward the valid party total. A username with interior whitespace is
// malformed, and when two usernames collide case-insensitively the later
// index is flagged as the duplicate.
func ValidateParties(parties []string) map[int]error {
	errs := make(map[int]error)
	seen := make(map[string]int)
	for i, raw := range parties {
		entry := strings.TrimSpace(raw)
		if entry == "" {
			continue
		}
		if !isUsername(entry) {
			continue
		}
		if strings.ContainsAny(strings.TrimSpace(strings.TrimPrefix(entry, "@")), " \t") {
			errs[i] = models.ErrMalformedUsername
			continue
		}
		key := strings.ToLower(entry)
		if _, dup := seen[key]; dup {
			errs[i] = models.ErrDuplicateParty
			continue
		}
		seen[key] = i
	}
	return errs
}

// CountValidParties returns the number of non-blank entries.
func CountValidParties(parties []string) int {
	n := 0
	for _, p := range parties {
		if strings.TrimSpace(p) != "" {
			n++
		}
	}
	return n
}

// PartyList normalizes and validates the wizard's participant list. It owns
// the position-indexed error map; position 0 is reserved for the current
// user.
type PartyList struct {
	parties []string
	errs    map[int]error
}

// NewPartyList builds a party list around the given entries, guaranteeing at
// least the reserved owner slot.
func NewPartyList(parties []string) *PartyList {
	entries := append([]string(nil), parties...)
	if len(entries) == 0 {
		entries = []string{""}
	}
	l := &PartyList{parties: entries}
	l.revalidate()
	return l
}

// Parties returns a copy of the current entries.
func (l *PartyList) Parties() []string {
	return append([]string(nil), l.parties...)
}

// Errors returns a copy of the position-indexed error map.
func (l *PartyList) Errors() map[int]error {
	out := make(map[int]error, len(l.errs))
	for k, v := range l.errs {
		out[k] = v
	}
	return out
}

// Valid reports whether the list gates the parties step open: at least two
// non-blank parties and an empty error map.
func (l *PartyList) Valid() bool {
	return CountValidParties(l.parties) >= 2 && len(l.errs) == 0
}

// Set normalizes raw input and writes it into slot i, then revalidates.
func (l *PartyList) Set(i int, raw string) error {
	if i < 0 || i >= len(l.parties) {
		return models.ErrPartyIndexRange
	}
	l.parties[i] = NormalizeParty(raw)
	l.revalidate()
	return nil
}

// Append adds a blank slot at the end of the list.
func (l *PartyList) Append() {
	l.parties = append(l.parties, "")
}

// RemoveAt removes the party at index i. The error at i is deleted and every
// error at a higher index shifts down by one, staying associated with its
// now-shifted party. The reserved owner slot cannot be removed.
func (l *PartyList) RemoveAt(i int) error {
	if i == 0 {
		return models.ErrOwnerSlotRemoval
	}
	if i < 0 || i >= len(l.parties) {
		return models.ErrPartyIndexRange
	}
	l.parties = append(l.parties[:i], l.parties[i+1:]...)

	shifted := make(map[int]error, len(l.errs))
	for idx, err := range l.errs {
		switch {
		case idx < i:
			shifted[idx] = err
		case idx > i:
			shifted[idx-1] = err
		}
	}
	l.errs = shifted
	slog.Debug("PartyList.RemoveAt: removed party", "index", i, "remaining", len(l.parties))
	return nil
}

// QuickAdd inserts a contact's canonical username into the list. If the
// username is already present at any position (case-insensitive) the list is
// left unchanged. Otherwise it fills the first blank slot past the owner, or
// appends a new slot. Returns true if the list changed.
func (l *PartyList) QuickAdd(contact models.Contact) bool {
	canonical := CanonicalUsername(contact.Username)
	for _, p := range l.parties {
		if strings.EqualFold(strings.TrimSpace(p), canonical) {
			slog.Debug("PartyList.QuickAdd: contact already present", "username", canonical)
			return false
		}
	}
	for i := 1; i < len(l.parties); i++ {
		if strings.TrimSpace(l.parties[i]) == "" {
			l.parties[i] = canonical
			l.revalidate()
			slog.Debug("PartyList.QuickAdd: filled blank slot", "index", i, "username", canonical)
			return true
		}
	}
	l.parties = append(l.parties, canonical)
	l.revalidate()
	slog.Debug("PartyList.QuickAdd: appended new slot", "index", len(l.parties)-1, "username", canonical)
	return true
}

func (l *PartyList) revalidate() {
	l.errs = ValidateParties(l.parties)
}
