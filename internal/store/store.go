// Package store provides storage backends for ConsentDraft.
//
// It includes an in-memory store for tests and single-process use, plus
// SQLite and PostgreSQL backed stores for persistent deployments.
package store

import (
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ConsentLoop/ConsentDraft/internal/models"
)

// Store is the full persistence surface: drafts, the owner's contact
// directory, and the university directory. All draft access is scoped to an
// owner so one user can never read or modify another user's drafts.
type Store interface {
	CreateDraft(d models.Draft) (models.Draft, error)
	UpdateDraft(id, ownerID string, patch models.DraftPatch) (*models.Draft, error)
	GetDraft(id, ownerID string) (*models.Draft, error)
	ListDrafts(ownerID string) ([]models.Draft, error)
	DeleteDraft(id, ownerID string) error

	SaveContact(ownerID string, c models.Contact) error
	ListContacts(ownerID string) ([]models.Contact, error)

	SaveUniversity(u models.University) error
	ListUniversities(query string) ([]models.University, error)

	Close() error
}

// InMemoryStore is a mutex-guarded in-memory implementation of Store.
type InMemoryStore struct {
	mu           sync.Mutex
	drafts       map[string]models.Draft
	contacts     map[string][]models.Contact
	universities []models.University
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		drafts:   make(map[string]models.Draft),
		contacts: make(map[string][]models.Contact),
	}
}

func (s *InMemoryStore) CreateDraft(d models.Draft) (models.Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	d.CreatedAt = now
	d.UpdatedAt = now
	s.drafts[d.ID] = d
	slog.Debug("InMemoryStore.CreateDraft succeeded", "draftID", d.ID, "ownerID", d.OwnerID)
	return d, nil
}

func (s *InMemoryStore) UpdateDraft(id, ownerID string, patch models.DraftPatch) (*models.Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drafts[id]
	if !ok || d.OwnerID != ownerID {
		slog.Debug("InMemoryStore.UpdateDraft not found", "draftID", id, "ownerID", ownerID)
		return nil, nil
	}
	d.Apply(patch)
	d.UpdatedAt = time.Now().UTC()
	s.drafts[id] = d
	slog.Debug("InMemoryStore.UpdateDraft succeeded", "draftID", id, "status", d.Status)
	return &d, nil
}

func (s *InMemoryStore) GetDraft(id, ownerID string) (*models.Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drafts[id]
	if !ok || d.OwnerID != ownerID {
		return nil, nil
	}
	return &d, nil
}

func (s *InMemoryStore) ListDrafts(ownerID string) ([]models.Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var drafts []models.Draft
	for _, d := range s.drafts {
		if d.OwnerID == ownerID {
			drafts = append(drafts, d)
		}
	}
	sort.Slice(drafts, func(i, j int) bool {
		return drafts[i].UpdatedAt.After(drafts[j].UpdatedAt)
	})
	return drafts, nil
}

func (s *InMemoryStore) DeleteDraft(id, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.drafts[id]; ok && d.OwnerID == ownerID {
		delete(s.drafts, id)
	}
	return nil
}

func (s *InMemoryStore) SaveContact(ownerID string, c models.Contact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	for i, existing := range s.contacts[ownerID] {
		if existing.ID == c.ID {
			s.contacts[ownerID][i] = c
			return nil
		}
	}
	s.contacts[ownerID] = append(s.contacts[ownerID], c)
	return nil
}

func (s *InMemoryStore) ListContacts(ownerID string) ([]models.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Contact(nil), s.contacts[ownerID]...), nil
}

func (s *InMemoryStore) SaveUniversity(u models.University) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.universities {
		if existing.ID == u.ID {
			s.universities[i] = u
			return nil
		}
	}
	s.universities = append(s.universities, u)
	return nil
}

func (s *InMemoryStore) ListUniversities(query string) ([]models.University, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := strings.ToLower(strings.TrimSpace(query))
	var matches []models.University
	for _, u := range s.universities {
		if q == "" || strings.Contains(strings.ToLower(u.Name), q) {
			matches = append(matches, u)
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Name < matches[j].Name })
	return matches, nil
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close() error {
	return nil
}
