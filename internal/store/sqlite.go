// Package store provides storage backends for ConsentDraft.
//
// This file implements an SQLite-backed store for drafts, contacts, and
// universities.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "embed"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/ConsentLoop/ConsentDraft/internal/models"
)

// Constants for SQLite store configuration
const (
	// DefaultDirPermissions defines the default permissions for database directories
	DefaultDirPermissions = 0755
)

//go:embed migrations_sqlite.sql
var sqliteMigrations string

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store with the given DSN.
// The DSN should be a file path to the SQLite database file.
// If the directory doesn't exist, it will be created.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	slog.Debug("Opening SQLite database connection")
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}

	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}

	slog.Debug("Running SQLite migrations")
	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied successfully")

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) CreateDraft(d models.Draft) (models.Draft, error) {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	d.CreatedAt = now
	d.UpdatedAt = now

	values, err := draftWriteValues(d)
	if err != nil {
		slog.Error("SQLiteStore CreateDraft encode failed", "error", err, "draftID", d.ID)
		return models.Draft{}, err
	}
	args := append([]interface{}{d.ID}, values...)
	_, err = s.db.Exec(`INSERT INTO drafts (`+draftColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, args...)
	if err != nil {
		slog.Error("SQLiteStore CreateDraft failed", "error", err, "draftID", d.ID)
		return models.Draft{}, fmt.Errorf("failed to insert draft %s: %w", d.ID, err)
	}
	slog.Debug("SQLiteStore CreateDraft succeeded", "draftID", d.ID, "ownerID", d.OwnerID)
	return d, nil
}

func (s *SQLiteStore) UpdateDraft(id, ownerID string, patch models.DraftPatch) (*models.Draft, error) {
	row := s.db.QueryRow(`SELECT `+draftColumns+` FROM drafts WHERE id = ? AND owner_id = ?`, id, ownerID)
	d, err := scanDraftRow(row)
	if err == sql.ErrNoRows {
		slog.Debug("SQLiteStore UpdateDraft not found", "draftID", id, "ownerID", ownerID)
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore UpdateDraft load failed", "error", err, "draftID", id)
		return nil, fmt.Errorf("failed to load draft %s: %w", id, err)
	}

	d.Apply(patch)
	d.UpdatedAt = time.Now().UTC()

	values, err := draftWriteValues(d)
	if err != nil {
		slog.Error("SQLiteStore UpdateDraft encode failed", "error", err, "draftID", id)
		return nil, err
	}
	args := append(values, id)
	_, err = s.db.Exec(`UPDATE drafts SET
		owner_id = ?, encounter_type = ?, university_id = ?, university_name = ?,
		parties = ?, intimate_acts = ?, contract_start_time = ?, contract_duration = ?,
		contract_end_time = ?, method = ?, is_collaborative = ?,
		signature_1 = ?, signature_2 = ?, photo_url = ?, contract_text = ?, status = ?,
		created_at = ?, updated_at = ?
		WHERE id = ?`, args...)
	if err != nil {
		slog.Error("SQLiteStore UpdateDraft failed", "error", err, "draftID", id)
		return nil, fmt.Errorf("failed to update draft %s: %w", id, err)
	}
	slog.Debug("SQLiteStore UpdateDraft succeeded", "draftID", id, "status", d.Status)
	return &d, nil
}

func (s *SQLiteStore) GetDraft(id, ownerID string) (*models.Draft, error) {
	row := s.db.QueryRow(`SELECT `+draftColumns+` FROM drafts WHERE id = ? AND owner_id = ?`, id, ownerID)
	d, err := scanDraftRow(row)
	if err == sql.ErrNoRows {
		slog.Debug("SQLiteStore GetDraft not found", "draftID", id, "ownerID", ownerID)
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetDraft failed", "error", err, "draftID", id)
		return nil, fmt.Errorf("failed to get draft %s: %w", id, err)
	}
	slog.Debug("SQLiteStore GetDraft found", "draftID", id)
	return &d, nil
}

func (s *SQLiteStore) ListDrafts(ownerID string) ([]models.Draft, error) {
	rows, err := s.db.Query(`SELECT `+draftColumns+` FROM drafts WHERE owner_id = ? ORDER BY updated_at DESC`, ownerID)
	if err != nil {
		slog.Error("SQLiteStore ListDrafts query failed", "error", err, "ownerID", ownerID)
		return nil, fmt.Errorf("failed to query drafts: %w", err)
	}
	defer rows.Close()

	var drafts []models.Draft
	for rows.Next() {
		d, err := scanDraft(rows)
		if err != nil {
			slog.Error("SQLiteStore ListDrafts scan failed", "error", err)
			return nil, err
		}
		drafts = append(drafts, d)
	}
	if err := rows.Err(); err != nil {
		slog.Error("SQLiteStore ListDrafts rows iteration failed", "error", err)
		return nil, fmt.Errorf("failed to iterate draft rows: %w", err)
	}
	slog.Debug("SQLiteStore ListDrafts succeeded", "ownerID", ownerID, "count", len(drafts))
	return drafts, nil
}

func (s *SQLiteStore) DeleteDraft(id, ownerID string) error {
	_, err := s.db.Exec(`DELETE FROM drafts WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		slog.Error("SQLiteStore DeleteDraft failed", "error", err, "draftID", id)
		return fmt.Errorf("failed to delete draft %s: %w", id, err)
	}
	slog.Debug("SQLiteStore DeleteDraft succeeded", "draftID", id)
	return nil
}

func (s *SQLiteStore) SaveContact(ownerID string, c models.Contact) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	_, err := s.db.Exec(`INSERT INTO contacts (id, owner_id, username, nickname) VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET username = excluded.username, nickname = excluded.nickname`,
		c.ID, ownerID, c.Username, c.Nickname)
	if err != nil {
		slog.Error("SQLiteStore SaveContact failed", "error", err, "ownerID", ownerID)
		return fmt.Errorf("failed to save contact: %w", err)
	}
	slog.Debug("SQLiteStore SaveContact succeeded", "contactID", c.ID, "ownerID", ownerID)
	return nil
}

func (s *SQLiteStore) ListContacts(ownerID string) ([]models.Contact, error) {
	rows, err := s.db.Query(`SELECT id, username, nickname FROM contacts WHERE owner_id = ? ORDER BY username`, ownerID)
	if err != nil {
		slog.Error("SQLiteStore ListContacts query failed", "error", err, "ownerID", ownerID)
		return nil, fmt.Errorf("failed to query contacts: %w", err)
	}
	defer rows.Close()

	var contacts []models.Contact
	for rows.Next() {
		var c models.Contact
		if err := rows.Scan(&c.ID, &c.Username, &c.Nickname); err != nil {
			slog.Error("SQLiteStore ListContacts scan failed", "error", err)
			return nil, fmt.Errorf("failed to scan contact row: %w", err)
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		slog.Error("SQLiteStore ListContacts rows iteration failed", "error", err)
		return nil, fmt.Errorf("failed to iterate contact rows: %w", err)
	}
	slog.Debug("SQLiteStore ListContacts succeeded", "ownerID", ownerID, "count", len(contacts))
	return contacts, nil
}

func (s *SQLiteStore) SaveUniversity(u models.University) error {
	_, err := s.db.Exec(`INSERT INTO universities (id, name) VALUES (?, ?)
		ON CONFLICT (id) DO UPDATE SET name = excluded.name`, u.ID, u.Name)
	if err != nil {
		slog.Error("SQLiteStore SaveUniversity failed", "error", err, "id", u.ID)
		return fmt.Errorf("failed to save university %s: %w", u.ID, err)
	}
	return nil
}

func (s *SQLiteStore) ListUniversities(query string) ([]models.University, error) {
	rows, err := s.db.Query(`SELECT id, name FROM universities WHERE name LIKE '%' || ? || '%' ORDER BY name`, query)
	if err != nil {
		slog.Error("SQLiteStore ListUniversities query failed", "error", err)
		return nil, fmt.Errorf("failed to query universities: %w", err)
	}
	defer rows.Close()

	var universities []models.University
	for rows.Next() {
		var u models.University
		if err := rows.Scan(&u.ID, &u.Name); err != nil {
			slog.Error("SQLiteStore ListUniversities scan failed", "error", err)
			return nil, fmt.Errorf("failed to scan university row: %w", err)
		}
		universities = append(universities, u)
	}
	if err := rows.Err(); err != nil {
		slog.Error("SQLiteStore ListUniversities rows iteration failed", "error", err)
		return nil, fmt.Errorf("failed to iterate university rows: %w", err)
	}
	slog.Debug("SQLiteStore ListUniversities succeeded", "count", len(universities))
	return universities, nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	slog.Debug("Closing SQLite database connection")
	err := s.db.Close()
	if err != nil {
		slog.Error("Failed to close SQLite database", "error", err)
	}
	return err
}
