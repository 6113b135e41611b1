// Package service handles agent offers submitted against leads.
package service

import (
	"context"
	"errors"

	leadrepo "leadbroker_backend/internal/leads/repository"
	"leadbroker_backend/internal/offers/repository"
	"leadbroker_backend/internal/offers/transport"
	"leadbroker_backend/platform/apperr"
	"leadbroker_backend/platform/httpkit"

	"github.com/google/uuid"
)

// Repository defines the data access interface needed by the offer service.
type Repository interface {
	Create(ctx context.Context, params repository.CreateOfferParams) (repository.Offer, error)
	ListByLead(ctx context.Context, leadID uuid.UUID) ([]repository.Offer, error)
}

// LeadReader checks that the target lead exists before an offer is recorded.
type LeadReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (leadrepo.Lead, error)
}

// Service handles offer submission and per-lead listing.
type Service struct {
	repo  Repository
	leads LeadReader
}

// New creates a new offer service.
func New(repo Repository, leads LeadReader) *Service {
	return &Service{repo: repo, leads: leads}
}

// Create records an offer against an existing lead. Only agents and agency
// admins submit offers.
func (s *Service) Create(ctx context.Context, principal httpkit.Principal, req transport.CreateOfferRequest) (transport.OfferResponse, error) {
	if principal.Role != httpkit.RoleAgent && principal.Role != httpkit.RoleAgencyAdmin {
		return transport.OfferResponse{}, apperr.Forbidden("only agents can submit offers")
	}

	if _, err := s.leads.GetByID(ctx, req.LeadID); err != nil {
		if errors.Is(err, leadrepo.ErrNotFound) {
			return transport.OfferResponse{}, apperr.NotFound("lead not found")
		}
		return transport.OfferResponse{}, err
	}

	offer, err := s.repo.Create(ctx, repository.CreateOfferParams{
		LeadID:            req.LeadID,
		AgentName:         req.AgentName,
		AgentEmail:        req.AgentEmail,
		AgencyName:        req.AgencyName,
		PriceMin:          req.PriceMin,
		PriceMax:          req.PriceMax,
		CommissionPercent: req.CommissionPercent,
		EstimatedDays:     req.EstimatedDays,
		Message:           req.Message,
	})
	if err != nil {
		return transport.OfferResponse{}, err
	}
	return toResponse(offer), nil
}

// ListByLead returns the offers submitted for one lead, newest first.
func (s *Service) ListByLead(ctx context.Context, leadID uuid.UUID) ([]transport.OfferResponse, error) {
	offers, err := s.repo.ListByLead(ctx, leadID)
	if err != nil {
		return nil, err
	}

	responses := make([]transport.OfferResponse, 0, len(offers))
	for _, offer := range offers {
		responses = append(responses, toResponse(offer))
	}
	return responses, nil
}

func toResponse(o repository.Offer) transport.OfferResponse {
	return transport.OfferResponse{
		ID:                o.ID,
		LeadID:            o.LeadID,
		AgentName:         o.AgentName,
		AgentEmail:        o.AgentEmail,
		AgencyName:        o.AgencyName,
		PriceMin:          o.PriceMin,
		PriceMax:          o.PriceMax,
		CommissionPercent: o.CommissionPercent,
		EstimatedDays:     o.EstimatedDays,
		Message:           o.Message,
		CreatedAt:         o.CreatedAt,
	}
}
