package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Assignment is a record of a lead being handed to a specific agent, with its
// own contact-progress status.
type Assignment struct {
	ID         uuid.UUID
	LeadID     uuid.UUID
	AgentID    uuid.UUID
	AssignedBy *uuid.UUID
	Status     string
	Notes      *string
	AssignedAt time.Time
}

// CreateAssignment records an assignment-history entry in PENDING status.
// Every assignment, automatic or manual, writes a history row; the lead's own
// assignment fields are a denormalized view of the latest one.
func (r *Repository) CreateAssignment(ctx context.Context, leadID, agentID uuid.UUID, assignedBy *uuid.UUID) (Assignment, error) {
	var a Assignment
	err := r.pool.QueryRow(ctx, `
		INSERT INTO lead_assignments (lead_id, agent_id, assigned_by)
		VALUES ($1, $2, $3)
		RETURNING id, lead_id, agent_id, assigned_by, status, notes, assigned_at
	`, leadID, agentID, assignedBy).Scan(&a.ID, &a.LeadID, &a.AgentID, &a.AssignedBy, &a.Status, &a.Notes, &a.AssignedAt)
	return a, err
}

// ListAssignments returns a lead's assignment history, oldest first.
func (r *Repository) ListAssignments(ctx context.Context, leadID uuid.UUID) ([]Assignment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, lead_id, agent_id, assigned_by, status, notes, assigned_at
		FROM lead_assignments
		WHERE lead_id = $1
		ORDER BY assigned_at ASC, id ASC
	`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	assignments := make([]Assignment, 0)
	for rows.Next() {
		var a Assignment
		if err := rows.Scan(&a.ID, &a.LeadID, &a.AgentID, &a.AssignedBy, &a.Status, &a.Notes, &a.AssignedAt); err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return assignments, nil
}

// GetAssignment fetches one assignment row by id.
func (r *Repository) GetAssignment(ctx context.Context, id uuid.UUID) (Assignment, error) {
	var a Assignment
	err := r.pool.QueryRow(ctx, `
		SELECT id, lead_id, agent_id, assigned_by, status, notes, assigned_at
		FROM lead_assignments
		WHERE id = $1
	`, id).Scan(&a.ID, &a.LeadID, &a.AgentID, &a.AssignedBy, &a.Status, &a.Notes, &a.AssignedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Assignment{}, ErrNotFound
	}
	return a, err
}

// UpdateAssignmentStatus moves an assignment along its contact-progress
// lifecycle. Notes are overwritten only when non-nil.
func (r *Repository) UpdateAssignmentStatus(ctx context.Context, id uuid.UUID, status string, notes *string) (Assignment, error) {
	var a Assignment
	err := r.pool.QueryRow(ctx, `
		UPDATE lead_assignments SET status = $2, notes = COALESCE($3, notes)
		WHERE id = $1
		RETURNING id, lead_id, agent_id, assigned_by, status, notes, assigned_at
	`, id, status, notes).Scan(&a.ID, &a.LeadID, &a.AgentID, &a.AssignedBy, &a.Status, &a.Notes, &a.AssignedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Assignment{}, ErrNotFound
	}
	return a, err
}

// ListAssignmentsForAgent returns every assignment handed to the agent record,
// newest first. This is the agent's personal worklist.
func (r *Repository) ListAssignmentsForAgent(ctx context.Context, agentID uuid.UUID) ([]Assignment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, lead_id, agent_id, assigned_by, status, notes, assigned_at
		FROM lead_assignments
		WHERE agent_id = $1
		ORDER BY assigned_at DESC, id DESC
	`, agentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	assignments := make([]Assignment, 0)
	for rows.Next() {
		var a Assignment
		if err := rows.Scan(&a.ID, &a.LeadID, &a.AgentID, &a.AssignedBy, &a.Status, &a.Notes, &a.AssignedAt); err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return assignments, nil
}
