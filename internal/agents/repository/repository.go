package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("agent not found")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type Agent struct {
	ID                uuid.UUID
	AgencyID          *uuid.UUID
	Name              string
	Email             string
	Phone             string
	Active            bool
	Role              string
	PrincipalID       *uuid.UUID
	AssignedLeadCount int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type CreateAgentParams struct {
	AgencyID *uuid.UUID
	Name     string
	Email    string
	Phone    string
	Role     string
}

const agentColumns = `id, agency_id, name, email, phone, active, role, principal_id, assigned_lead_count, created_at, updated_at`

func scanAgent(row pgx.Row) (Agent, error) {
	var a Agent
	err := row.Scan(&a.ID, &a.AgencyID, &a.Name, &a.Email, &a.Phone, &a.Active,
		&a.Role, &a.PrincipalID, &a.AssignedLeadCount, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func (r *Repository) Create(ctx context.Context, params CreateAgentParams) (Agent, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO agents (agency_id, name, email, phone, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+agentColumns,
		params.AgencyID, params.Name, params.Email, params.Phone, params.Role,
	)
	return scanAgent(row)
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Agent, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+agentColumns+` FROM agents WHERE id = $1`, id)
	agent, err := scanAgent(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Agent{}, ErrNotFound
	}
	return agent, err
}

func (r *Repository) List(ctx context.Context) ([]Agent, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+agentColumns+` FROM agents ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAgents(rows)
}

func (r *Repository) ListByAgency(ctx context.Context, agencyID uuid.UUID) ([]Agent, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+agentColumns+` FROM agents
		WHERE agency_id = $1
		ORDER BY created_at ASC, id ASC
	`, agencyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAgents(rows)
}

// FirstActiveByAgency returns the earliest-created active agent in the agency.
// This is the deterministic selection the routing engine relies on.
func (r *Repository) FirstActiveByAgency(ctx context.Context, agencyID uuid.UUID) (Agent, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+agentColumns+` FROM agents
		WHERE agency_id = $1 AND active = true
		ORDER BY created_at ASC, id ASC
		LIMIT 1
	`, agencyID)
	agent, err := scanAgent(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Agent{}, ErrNotFound
	}
	return agent, err
}

type UpdateAgentParams struct {
	AgencyID    *uuid.UUID
	AgencyIDSet bool
	Name        *string
	Email       *string
	Phone       *string
	Active      *bool
	Role        *string
}

func (r *Repository) Update(ctx context.Context, id uuid.UUID, params UpdateAgentParams) (Agent, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE agents SET
			agency_id  = CASE WHEN $2 THEN $3 ELSE agency_id END,
			name       = COALESCE($4, name),
			email      = COALESCE($5, email),
			phone      = COALESCE($6, phone),
			active     = COALESCE($7, active),
			role       = COALESCE($8, role),
			updated_at = now()
		WHERE id = $1
		RETURNING `+agentColumns,
		id, params.AgencyIDSet, params.AgencyID, params.Name, params.Email,
		params.Phone, params.Active, params.Role,
	)
	agent, err := scanAgent(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Agent{}, ErrNotFound
	}
	return agent, err
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM agents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetPrincipalID persists the memoized agent-to-principal soft link.
func (r *Repository) SetPrincipalID(ctx context.Context, id, principalID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE agents SET principal_id = $2, updated_at = now() WHERE id = $1`,
		id, principalID,
	)
	return err
}

// IncrementAssignedLeadCount bumps the informational assignment counter.
// The counter is not transactionally tied to assignments and is never read
// back by routing decisions.
func (r *Repository) IncrementAssignedLeadCount(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE agents SET assigned_lead_count = assigned_lead_count + 1 WHERE id = $1`,
		id,
	)
	return err
}

// FindPrincipalIDByEmail queries the auth service's principal read model.
// Returns nil without error when no principal carries the email.
func (r *Repository) FindPrincipalIDByEmail(ctx context.Context, email string) (*uuid.UUID, error) {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx, `SELECT id FROM principals WHERE email = $1`, email).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func collectAgents(rows pgx.Rows) ([]Agent, error) {
	agents := make([]Agent, 0)
	for rows.Next() {
		agent, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		agents = append(agents, agent)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return agents, nil
}
