package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type Offer struct {
	ID                uuid.UUID
	LeadID            uuid.UUID
	AgentName         string
	AgentEmail        string
	AgencyName        string
	PriceMin          *int64
	PriceMax          *int64
	CommissionPercent *float64
	EstimatedDays     *int
	Message           string
	CreatedAt         time.Time
}

type CreateOfferParams struct {
	LeadID            uuid.UUID
	AgentName         string
	AgentEmail        string
	AgencyName        string
	PriceMin          *int64
	PriceMax          *int64
	CommissionPercent *float64
	EstimatedDays     *int
	Message           string
}

const offerColumns = `id, lead_id, agent_name, agent_email, agency_name, price_min, price_max, commission_percent, estimated_days, message, created_at`

func scanOffer(row pgx.Row) (Offer, error) {
	var o Offer
	err := row.Scan(&o.ID, &o.LeadID, &o.AgentName, &o.AgentEmail, &o.AgencyName,
		&o.PriceMin, &o.PriceMax, &o.CommissionPercent, &o.EstimatedDays, &o.Message, &o.CreatedAt)
	return o, err
}

func (r *Repository) Create(ctx context.Context, params CreateOfferParams) (Offer, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO lead_offers (lead_id, agent_name, agent_email, agency_name, price_min, price_max, commission_percent, estimated_days, message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+offerColumns,
		params.LeadID, params.AgentName, params.AgentEmail, params.AgencyName,
		params.PriceMin, params.PriceMax, params.CommissionPercent, params.EstimatedDays, params.Message,
	)
	return scanOffer(row)
}

// ListByLead returns every offer submitted for one lead, newest first.
func (r *Repository) ListByLead(ctx context.Context, leadID uuid.UUID) ([]Offer, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+offerColumns+` FROM lead_offers
		WHERE lead_id = $1
		ORDER BY created_at DESC, id DESC`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var offers []Offer
	for rows.Next() {
		offer, err := scanOffer(rows)
		if err != nil {
			return nil, err
		}
		offers = append(offers, offer)
	}
	return offers, rows.Err()
}
