// Package store provides storage backends for ConsentDraft.
//
// This file implements a PostgreSQL-backed store for drafts, contacts, and
// universities.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/ConsentLoop/ConsentDraft/internal/models"
)

// Database connection pool configuration constants
const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the default maximum number of idle connections in the pool
	DefaultMaxIdleConns = 25
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new Postgres store based on provided options.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("PostgresStore.NewPostgresStore: creating Postgres store", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	slog.Debug("Opening Postgres database connection")
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}

	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		return nil, err
	}

	slog.Debug("Running Postgres migrations")
	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("Postgres migrations applied successfully")
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) CreateDraft(d models.Draft) (models.Draft, error) {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	d.CreatedAt = now
	d.UpdatedAt = now

	values, err := draftWriteValues(d)
	if err != nil {
		slog.Error("PostgresStore CreateDraft encode failed", "error", err, "draftID", d.ID)
		return models.Draft{}, err
	}
	args := append([]interface{}{d.ID}, values...)
	_, err = s.db.Exec(`INSERT INTO drafts (`+draftColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`, args...)
	if err != nil {
		slog.Error("PostgresStore CreateDraft failed", "error", err, "draftID", d.ID)
		return models.Draft{}, fmt.Errorf("failed to insert draft %s: %w", d.ID, err)
	}
	slog.Debug("PostgresStore CreateDraft succeeded", "draftID", d.ID, "ownerID", d.OwnerID)
	return d, nil
}

func (s *PostgresStore) UpdateDraft(id, ownerID string, patch models.DraftPatch) (*models.Draft, error) {
	row := s.db.QueryRow(`SELECT `+draftColumns+` FROM drafts WHERE id = $1 AND owner_id = $2`, id, ownerID)
	d, err := scanDraftRow(row)
	if err == sql.ErrNoRows {
		slog.Debug("PostgresStore UpdateDraft not found", "draftID", id, "ownerID", ownerID)
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore UpdateDraft load failed", "error", err, "draftID", id)
		return nil, fmt.Errorf("failed to load draft %s: %w", id, err)
	}

	d.Apply(patch)
	d.UpdatedAt = time.Now().UTC()

	values, err := draftWriteValues(d)
	if err != nil {
		slog.Error("PostgresStore UpdateDraft encode failed", "error", err, "draftID", id)
		return nil, err
	}
	args := append(values, id)
	_, err = s.db.Exec(`UPDATE drafts SET
		owner_id = $1, encounter_type = $2, university_id = $3, university_name = $4,
		parties = $5, intimate_acts = $6, contract_start_time = $7, contract_duration = $8,
		contract_end_time = $9, method = $10, is_collaborative = $11,
		signature_1 = $12, signature_2 = $13, photo_url = $14, contract_text = $15, status = $16,
		created_at = $17, updated_at = $18
		WHERE id = $19`, args...)
	if err != nil {
		slog.Error("PostgresStore UpdateDraft failed", "error", err, "draftID", id)
		return nil, fmt.Errorf("failed to update draft %s: %w", id, err)
	}
	slog.Debug("PostgresStore UpdateDraft succeeded", "draftID", id, "status", d.Status)
	return &d, nil
}

func (s *PostgresStore) GetDraft(id, ownerID string) (*models.Draft, error) {
	row := s.db.QueryRow(`SELECT `+draftColumns+` FROM drafts WHERE id = $1 AND owner_id = $2`, id, ownerID)
	d, err := scanDraftRow(row)
	if err == sql.ErrNoRows {
		slog.Debug("PostgresStore GetDraft not found", "draftID", id, "ownerID", ownerID)
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore GetDraft failed", "error", err, "draftID", id)
		return nil, fmt.Errorf("failed to get draft %s: %w", id, err)
	}
	slog.Debug("PostgresStore GetDraft found", "draftID", id)
	return &d, nil
}

func (s *PostgresStore) ListDrafts(ownerID string) ([]models.Draft, error) {
	rows, err := s.db.Query(`SELECT `+draftColumns+` FROM drafts WHERE owner_id = $1 ORDER BY updated_at DESC`, ownerID)
	if err != nil {
		slog.Error("PostgresStore ListDrafts query failed", "error", err, "ownerID", ownerID)
		return nil, fmt.Errorf("failed to query drafts: %w", err)
	}
	defer rows.Close()

	var drafts []models.Draft
	for rows.Next() {
		d, err := scanDraft(rows)
		if err != nil {
			slog.Error("PostgresStore ListDrafts scan failed", "error", err)
			return nil, err
		}
		drafts = append(drafts, d)
	}
	if err := rows.Err(); err != nil {
		slog.Error("PostgresStore ListDrafts rows iteration failed", "error", err)
		return nil, fmt.Errorf("failed to iterate draft rows: %w", err)
	}
	slog.Debug("PostgresStore ListDrafts succeeded", "ownerID", ownerID, "count", len(drafts))
	return drafts, nil
}

func (s *PostgresStore) DeleteDraft(id, ownerID string) error {
	_, err := s.db.Exec(`DELETE FROM drafts WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		slog.Error("PostgresStore DeleteDraft failed", "error", err, "draftID", id)
		return fmt.Errorf("failed to delete draft %s: %w", id, err)
	}
	slog.Debug("PostgresStore DeleteDraft succeeded", "draftID", id)
	return nil
}

func (s *PostgresStore) SaveContact(ownerID string, c models.Contact) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	_, err := s.db.Exec(`INSERT INTO contacts (id, owner_id, username, nickname) VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET username = EXCLUDED.username, nickname = EXCLUDED.nickname`,
		c.ID, ownerID, c.Username, c.Nickname)
	if err != nil {
		slog.Error("PostgresStore SaveContact failed", "error", err, "ownerID", ownerID)
		return fmt.Errorf("failed to save contact: %w", err)
	}
	slog.Debug("PostgresStore SaveContact succeeded", "contactID", c.ID, "ownerID", ownerID)
	return nil
}

func (s *PostgresStore) ListContacts(ownerID string) ([]models.Contact, error) {
	rows, err := s.db.Query(`SELECT id, username, nickname FROM contacts WHERE owner_id = $1 ORDER BY username`, ownerID)
	if err != nil {
		slog.Error("PostgresStore ListContacts query failed", "error", err, "ownerID", ownerID)
		return nil, fmt.Errorf("failed to query contacts: %w", err)
	}
	defer rows.Close()

	var contacts []models.Contact
	for rows.Next() {
		var c models.Contact
		if err := rows.Scan(&c.ID, &c.Username, &c.Nickname); err != nil {
			slog.Error("PostgresStore ListContacts scan failed", "error", err)
			return nil, fmt.Errorf("failed to scan contact row: %w", err)
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		slog.Error("PostgresStore ListContacts rows iteration failed", "error", err)
		return nil, fmt.Errorf("failed to iterate contact rows: %w", err)
	}
	slog.Debug("PostgresStore ListContacts succeeded", "ownerID", ownerID, "count", len(contacts))
	return contacts, nil
}

func (s *PostgresStore) SaveUniversity(u models.University) error {
	_, err := s.db.Exec(`INSERT INTO universities (id, name) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`, u.ID, u.Name)
	if err != nil {
		slog.Error("PostgresStore SaveUniversity failed", "error", err, "id", u.ID)
		return fmt.Errorf("failed to save university %s: %w", u.ID, err)
	}
	return nil
}

func (s *PostgresStore) ListUniversities(query string) ([]models.University, error) {
	rows, err := s.db.Query(`SELECT id, name FROM universities WHERE name ILIKE '%' || $1 || '%' ORDER BY name`, query)
	if err != nil {
		slog.Error("PostgresStore ListUniversities query failed", "error", err)
		return nil, fmt.Errorf("failed to query universities: %w", err)
	}
	defer rows.Close()

	var universities []models.University
	for rows.Next() {
		var u models.University
		if err := rows.Scan(&u.ID, &u.Name); err != nil {
			slog.Error("PostgresStore ListUniversities scan failed", "error", err)
			return nil, fmt.Errorf("failed to scan university row: %w", err)
		}
		universities = append(universities, u)
	}
	if err := rows.Err(); err != nil {
		slog.Error("PostgresStore ListUniversities rows iteration failed", "error", err)
		return nil, fmt.Errorf("failed to iterate university rows: %w", err)
	}
	slog.Debug("PostgresStore ListUniversities succeeded", "count", len(universities))
	return universities, nil
}

// Close closes the PostgreSQL database connection.
func (s *PostgresStore) Close() error {
	slog.Debug("Closing PostgreSQL database connection")
	err := s.db.Close()
	if err != nil {
		slog.Error("Failed to close PostgreSQL database", "error", err)
	}
	return err
}
