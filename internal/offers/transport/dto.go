package transport

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs
type CreateOfferRequest struct {
	LeadID            uuid.UUID `json:"leadId" validate:"required"`
	AgentName         string    `json:"agentName" validate:"required,min=1,max=200"`
	AgentEmail        string    `json:"agentEmail,omitempty" validate:"omitempty,email"`
	AgencyName        string    `json:"agencyName,omitempty" validate:"omitempty,max=200"`
	PriceMin          *int64    `json:"priceMin,omitempty" validate:"omitempty,min=0"`
	PriceMax          *int64    `json:"priceMax,omitempty" validate:"omitempty,min=0"`
	CommissionPercent *float64  `json:"commissionPercent,omitempty" validate:"omitempty,min=0,max=100"`
	EstimatedDays     *int      `json:"estimatedDays,omitempty" validate:"omitempty,min=0"`
	Message           string    `json:"message,omitempty" validate:"omitempty,max=5000"`
}

// Response DTOs
type OfferResponse struct {
	ID                uuid.UUID `json:"id"`
	LeadID            uuid.UUID `json:"leadId"`
	AgentName         string    `json:"agentName"`
	AgentEmail        string    `json:"agentEmail,omitempty"`
	AgencyName        string    `json:"agencyName,omitempty"`
	PriceMin          *int64    `json:"priceMin,omitempty"`
	PriceMax          *int64    `json:"priceMax,omitempty"`
	CommissionPercent *float64  `json:"commissionPercent,omitempty"`
	EstimatedDays     *int      `json:"estimatedDays,omitempty"`
	Message           string    `json:"message,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
}
