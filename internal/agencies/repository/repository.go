package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("agency not found")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type Agency struct {
	ID           uuid.UUID
	Name         string
	Email        string
	Phone        string
	LogoURL      string
	PrimaryColor string
	Postcodes    []string
	RoutingMode  string
	SizeClass    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type CreateAgencyParams struct {
	Name         string
	Email        string
	Phone        string
	LogoURL      string
	PrimaryColor string
	Postcodes    []string
	RoutingMode  string
	SizeClass    string
}

const agencyColumns = `id, name, email, phone, logo_url, primary_color, postcodes, routing_mode, size_class, created_at, updated_at`

func scanAgency(row pgx.Row) (Agency, error) {
	var a Agency
	err := row.Scan(&a.ID, &a.Name, &a.Email, &a.Phone, &a.LogoURL, &a.PrimaryColor,
		&a.Postcodes, &a.RoutingMode, &a.SizeClass, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func (r *Repository) Create(ctx context.Context, params CreateAgencyParams) (Agency, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO agencies (name, email, phone, logo_url, primary_color, postcodes, routing_mode, size_class)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+agencyColumns,
		params.Name, params.Email, params.Phone, params.LogoURL, params.PrimaryColor,
		params.Postcodes, params.RoutingMode, params.SizeClass,
	)
	return scanAgency(row)
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Agency, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+agencyColumns+` FROM agencies WHERE id = $1`, id)
	agency, err := scanAgency(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Agency{}, ErrNotFound
	}
	return agency, err
}

func (r *Repository) List(ctx context.Context) ([]Agency, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+agencyColumns+` FROM agencies ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAgencies(rows)
}

type UpdateAgencyParams struct {
	Name         *string
	Email        *string
	Phone        *string
	LogoURL      *string
	PrimaryColor *string
	Postcodes    []string
	PostcodesSet bool
	RoutingMode  *string
	SizeClass    *string
}

func (r *Repository) Update(ctx context.Context, id uuid.UUID, params UpdateAgencyParams) (Agency, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE agencies SET
			name          = COALESCE($2, name),
			email         = COALESCE($3, email),
			phone         = COALESCE($4, phone),
			logo_url      = COALESCE($5, logo_url),
			primary_color = COALESCE($6, primary_color),
			postcodes     = CASE WHEN $7 THEN $8 ELSE postcodes END,
			routing_mode  = COALESCE($9, routing_mode),
			size_class    = COALESCE($10, size_class),
			updated_at    = now()
		WHERE id = $1
		RETURNING `+agencyColumns,
		id, params.Name, params.Email, params.Phone, params.LogoURL, params.PrimaryColor,
		params.PostcodesSet, params.Postcodes, params.RoutingMode, params.SizeClass,
	)
	agency, err := scanAgency(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Agency{}, ErrNotFound
	}
	return agency, err
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM agencies WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// FindByPostcode returns every agency whose postcode set contains the exact
// code. Territory overlap is allowed, so zero or more rows come back; a miss
// is an empty slice, never an error.
func (r *Repository) FindByPostcode(ctx context.Context, code string) ([]Agency, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+agencyColumns+`
		FROM agencies
		WHERE $1 = ANY(postcodes)
		ORDER BY created_at ASC, id ASC
	`, code)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAgencies(rows)
}

// First returns the earliest-created agency.
func (r *Repository) First(ctx context.Context) (Agency, error) {
	row := r.pool.QueryRow(ctx, `SELECT ` + agencyColumns + ` FROM agencies ORDER BY created_at ASC, id ASC LIMIT 1`)
	agency, err := scanAgency(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Agency{}, ErrNotFound
	}
	return agency, err
}

func collectAgencies(rows pgx.Rows) ([]Agency, error) {
	agencies := make([]Agency, 0)
	for rows.Next() {
		agency, err := scanAgency(rows)
		if err != nil {
			return nil, err
		}
		agencies = append(agencies, agency)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return agencies, nil
}
