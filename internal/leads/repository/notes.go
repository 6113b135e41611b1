package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Note is one entry in a lead's append-only note history.
type Note struct {
	ID        uuid.UUID
	LeadID    uuid.UUID
	AuthorID  *uuid.UUID
	Body      string
	CreatedAt time.Time
}

// AddNote appends a note to the lead's history. Notes are never edited or
// removed.
func (r *Repository) AddNote(ctx context.Context, leadID uuid.UUID, authorID *uuid.UUID, body string) (Note, error) {
	var note Note
	err := r.pool.QueryRow(ctx, `
		INSERT INTO lead_notes (lead_id, author_id, body)
		VALUES ($1, $2, $3)
		RETURNING id, lead_id, author_id, body, created_at
	`, leadID, authorID, body).Scan(&note.ID, &note.LeadID, &note.AuthorID, &note.Body, &note.CreatedAt)
	return note, err
}

// ListNotes returns the lead's notes oldest first.
func (r *Repository) ListNotes(ctx context.Context, leadID uuid.UUID) ([]Note, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, lead_id, author_id, body, created_at
		FROM lead_notes
		WHERE lead_id = $1
		ORDER BY created_at ASC, id ASC
	`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notes := make([]Note, 0)
	for rows.Next() {
		var note Note
		if err := rows.Scan(&note.ID, &note.LeadID, &note.AuthorID, &note.Body, &note.CreatedAt); err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return notes, nil
}
