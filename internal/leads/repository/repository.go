package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"leadbroker_backend/internal/leads/visibility"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("lead not found")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type Lead struct {
	ID                uuid.UUID
	HomeownerName     string
	HomeownerEmail    string
	HomeownerPhone    string
	PropertyAddress   string
	Postcode          *string
	PropertyType      string
	PropertyValue     *int64
	Status            string
	Source            string
	OwningAgencyID    *uuid.UUID
	AssignedAgentID   *uuid.UUID
	AssignedAgentName *string
	CreatedBy         *uuid.UUID
	FollowUpAt        *time.Time
	FollowUpNotes     *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type CreateLeadParams struct {
	HomeownerName   string
	HomeownerEmail  string
	HomeownerPhone  string
	PropertyAddress string
	Postcode        *string
	PropertyType    string
	PropertyValue   *int64
	Source          string
	CreatedBy       *uuid.UUID
	// OwningAgencyID presets ownership at creation, e.g. a bulk upload by an
	// agency admin. Routing then stays within this agency.
	OwningAgencyID *uuid.UUID
}

const leadColumns = `id, homeowner_name, homeowner_email, homeowner_phone, property_address, postcode,
	property_type, property_value, status, source, owning_agency_id, assigned_agent_id,
	assigned_agent_name, created_by, follow_up_at, follow_up_notes, created_at, updated_at`

func scanLead(row pgx.Row) (Lead, error) {
	var l Lead
	err := row.Scan(&l.ID, &l.HomeownerName, &l.HomeownerEmail, &l.HomeownerPhone,
		&l.PropertyAddress, &l.Postcode, &l.PropertyType, &l.PropertyValue,
		&l.Status, &l.Source, &l.OwningAgencyID, &l.AssignedAgentID,
		&l.AssignedAgentName, &l.CreatedBy, &l.FollowUpAt, &l.FollowUpNotes,
		&l.CreatedAt, &l.UpdatedAt)
	return l, err
}

func (r *Repository) Create(ctx context.Context, params CreateLeadParams) (Lead, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO leads (
			homeowner_name, homeowner_email, homeowner_phone, property_address, postcode,
			property_type, property_value, source, created_by, owning_agency_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+leadColumns,
		params.HomeownerName, params.HomeownerEmail, params.HomeownerPhone,
		params.PropertyAddress, params.Postcode, params.PropertyType,
		params.PropertyValue, params.Source, params.CreatedBy, params.OwningAgencyID,
	)
	return scanLead(row)
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Lead, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id)
	lead, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return lead, err
}

// ListFilters narrows a visibility-scoped listing. Nil fields match all.
type ListFilters struct {
	Status       *string
	PropertyType *string
}

// List returns the leads visible under the given scope, newest first.
// The scope is computed by the visibility filter and translated to SQL here;
// it is re-evaluated on every call, never cached.
func (r *Repository) List(ctx context.Context, scope visibility.Scope, filters ListFilters) ([]Lead, error) {
	where, args := scopePredicate(scope)
	if filters.Status != nil {
		args = append(args, *filters.Status)
		where = "(" + where + fmt.Sprintf(") AND status = $%d", len(args))
	}
	if filters.PropertyType != nil {
		args = append(args, *filters.PropertyType)
		where = "(" + where + fmt.Sprintf(") AND property_type = $%d", len(args))
	}
	query := `SELECT ` + leadColumns + ` FROM leads WHERE ` + where + ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectLeads(rows)
}

// scopePredicate renders a visibility scope into a WHERE clause.
func scopePredicate(scope visibility.Scope) (string, []any) {
	if scope.All {
		return "TRUE", nil
	}
	if scope.DenyAll {
		return "FALSE", nil
	}

	clauses := make([]string, 0, 2)
	args := make([]any, 0, 3)

	if scope.AgencyID != nil {
		args = append(args, *scope.AgencyID)
		owned := fmt.Sprintf("owning_agency_id = $%d", len(args))
		// Territory preview: unowned public leads whose postcode falls inside
		// the admin's agency territory.
		preview := fmt.Sprintf(`(owning_agency_id IS NULL AND source = 'public' AND postcode IS NOT NULL
			AND postcode = ANY(SELECT unnest(postcodes) FROM agencies WHERE id = $%d))`, len(args))
		clauses = append(clauses, "("+owned+" OR "+preview+")")
	}

	if scope.PrincipalID != nil {
		args = append(args, *scope.PrincipalID)
		selfCreated := fmt.Sprintf("created_by = $%d", len(args))
		assignedToPrincipal := fmt.Sprintf("assigned_agent_id = $%d", len(args))
		parts := selfCreated + " OR " + assignedToPrincipal
		if scope.LinkedAgentID != nil {
			args = append(args, *scope.LinkedAgentID)
			parts += fmt.Sprintf(" OR assigned_agent_id = $%d", len(args))
		}
		clauses = append(clauses, "("+parts+")")
	}

	if len(clauses) == 0 {
		return "FALSE", nil
	}

	where := clauses[0]
	for _, clause := range clauses[1:] {
		where += " OR " + clause
	}
	return where, args
}

type UpdateLeadParams struct {
	HomeownerName   *string
	HomeownerEmail  *string
	HomeownerPhone  *string
	PropertyAddress *string
	Postcode        *string
	PostcodeSet     bool
	PropertyType    *string
	PropertyValue   *int64
	Status          *string
}

func (r *Repository) Update(ctx context.Context, id uuid.UUID, params UpdateLeadParams) (Lead, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE leads SET
			homeowner_name   = COALESCE($2, homeowner_name),
			homeowner_email  = COALESCE($3, homeowner_email),
			homeowner_phone  = COALESCE($4, homeowner_phone),
			property_address = COALESCE($5, property_address),
			postcode         = CASE WHEN $6 THEN $7 ELSE postcode END,
			property_type    = COALESCE($8, property_type),
			property_value   = COALESCE($9, property_value),
			status           = COALESCE($10, status),
			updated_at       = now()
		WHERE id = $1
		RETURNING `+leadColumns,
		id, params.HomeownerName, params.HomeownerEmail, params.HomeownerPhone,
		params.PropertyAddress, params.PostcodeSet, params.Postcode,
		params.PropertyType, params.PropertyValue, params.Status,
	)
	lead, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return lead, err
}

// StampAssignment overwrites the assignment fields on the lead. Re-running
// assignment for an already-assigned lead simply overwrites; no history is
// reconciled here.
func (r *Repository) StampAssignment(ctx context.Context, id, agencyID, assigneeID uuid.UUID, assigneeName string) (Lead, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE leads SET
			owning_agency_id    = $2,
			assigned_agent_id   = $3,
			assigned_agent_name = $4,
			updated_at          = now()
		WHERE id = $1
		RETURNING `+leadColumns,
		id, agencyID, assigneeID, assigneeName,
	)
	lead, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return lead, err
}

// SetFollowUp records the scheduled follow-up date and notes.
func (r *Repository) SetFollowUp(ctx context.Context, id uuid.UUID, at *time.Time, notes *string) (Lead, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE leads SET follow_up_at = $2, follow_up_notes = $3, updated_at = now()
		WHERE id = $1
		RETURNING `+leadColumns,
		id, at, notes,
	)
	lead, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return lead, err
}

// Delete hard-deletes a lead. There is no soft-delete or tombstone.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM leads WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByHomeownerEmail is the seller's own-leads lookup. It bypasses the
// role-filtered visibility scope entirely.
func (r *Repository) ListByHomeownerEmail(ctx context.Context, email string) ([]Lead, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+leadColumns+` FROM leads
		WHERE homeowner_email = $1
		ORDER BY created_at DESC
	`, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectLeads(rows)
}

func collectLeads(rows pgx.Rows) ([]Lead, error) {
	leads := make([]Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return leads, nil
}
