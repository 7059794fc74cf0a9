package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Store manages webhook definitions in SQLite
type Store struct {
	db *sql.DB
}

// New opens the database at dbPath and bootstraps the schema.
// The parent directory is created if it does not exist.
func New(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single writer keeps concurrent mutations serialized
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db}

	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// initSchema creates the webhooks table if it does not exist
func (s *Store) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS webhooks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			url TEXT NOT NULL,
			method TEXT NOT NULL DEFAULT 'POST',
			description TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	return nil
}

// normalize trims and validates input, applying the method and description
// defaults. Returns a ValidationError for rejected input.
func normalize(in Input) (Input, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.URL = strings.TrimSpace(in.URL)
	in.Description = strings.TrimSpace(in.Description)

	if in.Name == "" || in.URL == "" {
		return Input{}, &ValidationError{Message: "Name und URL sind erforderlich"}
	}

	if !strings.HasPrefix(in.URL, "http://") && !strings.HasPrefix(in.URL, "https://") {
		return Input{}, &ValidationError{Message: "URL muss mit http:// oder https:// beginnen"}
	}

	in.Method = strings.ToUpper(strings.TrimSpace(in.Method))
	if in.Method == "" {
		in.Method = "POST"
	}

	return in, nil
}

// Create validates the input and inserts a new webhook, returning its id
func (s *Store) Create(ctx context.Context, in Input) (int64, error) {
	in, err := normalize(in)
	if err != nil {
		return 0, err
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO webhooks (name, url, method, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, in.Name, in.URL, in.Method, in.Description, now, now)
	if err != nil {
		return 0, fmt.Errorf("failed to insert webhook: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID: %w", err)
	}

	return id, nil
}

// Update validates the input and replaces all mutable fields of the webhook.
// created_at is left untouched, updated_at is refreshed.
func (s *Store) Update(ctx context.Context, id int64, in Input) error {
	in, err := normalize(in)
	if err != nil {
		return err
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)

	result, err := s.db.ExecContext(ctx, `
		UPDATE webhooks
		SET name = ?, url = ?, method = ?, description = ?, updated_at = ?
		WHERE id = ?
	`, in.Name, in.URL, in.Method, in.Description, now, id)
	if err != nil {
		return fmt.Errorf("failed to update webhook: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete permanently removes the webhook with the given id
func (s *Store) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM webhooks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete webhook: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// Get returns the webhook with the given id
func (s *Store) Get(ctx context.Context, id int64) (*Webhook, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, url, method, description, created_at, updated_at
		FROM webhooks
		WHERE id = ?
	`, id)

	webhook, err := scanWebhook(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query webhook: %w", err)
	}

	return webhook, nil
}

// List returns all webhooks sorted by name, ties broken by insertion order
func (s *Store) List(ctx context.Context) ([]Webhook, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, url, method, description, created_at, updated_at
		FROM webhooks
		ORDER BY name ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query webhooks: %w", err)
	}
	defer rows.Close()

	var webhooks []Webhook
	for rows.Next() {
		webhook, err := scanWebhook(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan webhook: %w", err)
		}
		webhooks = append(webhooks, *webhook)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return webhooks, nil
}

// scanner is an interface that both *sql.Row and *sql.Rows implement
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanWebhook scans a database row into a Webhook
// Works with both *sql.Row and *sql.Rows
func scanWebhook(s scanner) (*Webhook, error) {
	var webhook Webhook
	var createdAtStr, updatedAtStr string

	err := s.Scan(
		&webhook.ID,
		&webhook.Name,
		&webhook.URL,
		&webhook.Method,
		&webhook.Description,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		return nil, err
	}

	createdAt, err := time.Parse(time.RFC3339Nano, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at timestamp: %w", err)
	}
	webhook.CreatedAt = createdAt

	updatedAt, err := time.Parse(time.RFC3339Nano, updatedAtStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse updated_at timestamp: %w", err)
	}
	webhook.UpdatedAt = updatedAt

	return &webhook, nil
}
