package store

import (
	"context"
	"fmt"

	"confidante-backend/internal/db"
)

// DatabaseStore archives contact submissions in PostgreSQL
type DatabaseStore struct {
	db *db.DB
}

// NewDatabaseStore creates a new database store
func NewDatabaseStore(database *db.DB) *DatabaseStore {
	return &DatabaseStore{db: database}
}

// SaveSubmission inserts a submission; re-saving the same ID is a no-op
func (ds *DatabaseStore) SaveSubmission(ctx context.Context, sub Submission) error {
	if sub.ID == "" || sub.Email == "" {
		return fmt.Errorf("id and email are required")
	}

	query := `
		INSERT INTO contact_submissions (id, name, email, subject, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING
	`

	_, err := ds.db.ExecContext(ctx, query, sub.ID, sub.Name, sub.Email, sub.Subject, sub.Message, sub.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save contact submission: %w", err)
	}

	return nil
}

// ListSubmissions returns the most recent submissions, newest first
func (ds *DatabaseStore) ListSubmissions(ctx context.Context, limit int) ([]Submission, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, name, email, subject, message, created_at
		FROM contact_submissions
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := ds.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list contact submissions: %w", err)
	}
	defer rows.Close()

	var out []Submission
	for rows.Next() {
		var s Submission
		if err := rows.Scan(&s.ID, &s.Name, &s.Email, &s.Subject, &s.Message, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan contact submission: %w", err)
		}
		out = append(out, s)
	}

	return out, rows.Err()
}
