// Package service handles agency management and the postcode territory index.
package service

import (
	"context"
	"errors"

	"leadbroker_backend/internal/agencies/repository"
	"leadbroker_backend/internal/agencies/transport"
	"leadbroker_backend/platform/apperr"
	"leadbroker_backend/platform/config"

	"github.com/google/uuid"
)

// ErrNoFallbackAgency is returned by FindFallback when no fallback policy can
// produce an agency: nothing is configured and the agency table is empty.
var ErrNoFallbackAgency = errors.New("no fallback agency available")

// Repository defines the data access interface needed by the agency service.
type Repository interface {
	Create(ctx context.Context, params repository.CreateAgencyParams) (repository.Agency, error)
	GetByID(ctx context.Context, id uuid.UUID) (repository.Agency, error)
	List(ctx context.Context) ([]repository.Agency, error)
	Update(ctx context.Context, id uuid.UUID, params repository.UpdateAgencyParams) (repository.Agency, error)
	Delete(ctx context.Context, id uuid.UUID) error
	FindByPostcode(ctx context.Context, code string) ([]repository.Agency, error)
	First(ctx context.Context) (repository.Agency, error)
}

// Service handles agency operations and territory lookups.
type Service struct {
	repo Repository
	cfg  config.RoutingConfig
}

// New creates a new agency service.
func New(repo Repository, cfg config.RoutingConfig) *Service {
	return &Service{repo: repo, cfg: cfg}
}

// Create creates a new agency.
func (s *Service) Create(ctx context.Context, req transport.CreateAgencyRequest) (transport.AgencyResponse, error) {
	params := repository.CreateAgencyParams{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		LogoURL:      req.LogoURL,
		PrimaryColor: req.PrimaryColor,
		Postcodes:    req.Postcodes,
		RoutingMode:  req.RoutingMode,
		SizeClass:    string(req.SizeClass),
	}
	if params.RoutingMode == "" {
		params.RoutingMode = "territory"
	}
	if params.SizeClass == "" {
		params.SizeClass = string(transport.SizeClassSmall)
	}

	agency, err := s.repo.Create(ctx, params)
	if err != nil {
		return transport.AgencyResponse{}, err
	}
	return toResponse(agency), nil
}

// GetByID retrieves an agency by ID.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (transport.AgencyResponse, error) {
	agency, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.AgencyResponse{}, apperr.NotFound("agency not found")
		}
		return transport.AgencyResponse{}, err
	}
	return toResponse(agency), nil
}

// List returns all agencies ordered by creation time.
func (s *Service) List(ctx context.Context) ([]transport.AgencyResponse, error) {
	agencies, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]transport.AgencyResponse, 0, len(agencies))
	for _, agency := range agencies {
		responses = append(responses, toResponse(agency))
	}
	return responses, nil
}

// Update updates an agency's fields.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req transport.UpdateAgencyRequest) (transport.AgencyResponse, error) {
	params := repository.UpdateAgencyParams{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		LogoURL:      req.LogoURL,
		PrimaryColor: req.PrimaryColor,
		RoutingMode:  req.RoutingMode,
	}
	if req.Postcodes != nil {
		params.Postcodes = req.Postcodes
		params.PostcodesSet = true
	}
	if req.SizeClass != nil {
		sizeClass := string(*req.SizeClass)
		params.SizeClass = &sizeClass
	}

	agency, err := s.repo.Update(ctx, id, params)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.AgencyResponse{}, apperr.NotFound("agency not found")
		}
		return transport.AgencyResponse{}, err
	}
	return toResponse(agency), nil
}

// Delete removes an agency.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("agency not found")
		}
		return err
	}
	return nil
}

// FindByPostcode returns every agency whose territory contains the exact
// 4-character code. A miss returns an empty slice: callers decide whether to
// fall back.
func (s *Service) FindByPostcode(ctx context.Context, code string) ([]repository.Agency, error) {
	return s.repo.FindByPostcode(ctx, code)
}

// FindFallback returns an agency for leads whose postcode matches no
// territory. The policy is deterministic: the configured default agency when
// one is set, otherwise the earliest-created agency. With no agencies at all
// it returns ErrNoFallbackAgency.
func (s *Service) FindFallback(ctx context.Context) (repository.Agency, error) {
	if defaultID := s.cfg.GetDefaultAgencyID(); defaultID != uuid.Nil {
		agency, err := s.repo.GetByID(ctx, defaultID)
		if err == nil {
			return agency, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return repository.Agency{}, err
		}
		// Configured default points at a deleted agency; fall through.
	}

	agency, err := s.repo.First(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return repository.Agency{}, ErrNoFallbackAgency
		}
		return repository.Agency{}, err
	}
	return agency, nil
}

// ServesPostcode reports whether the agency's territory contains the code.
func (s *Service) ServesPostcode(ctx context.Context, agencyID uuid.UUID, code string) (bool, error) {
	agency, err := s.repo.GetByID(ctx, agencyID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	for _, postcode := range agency.Postcodes {
		if postcode == code {
			return true, nil
		}
	}
	return false, nil
}

func toResponse(agency repository.Agency) transport.AgencyResponse {
	return transport.AgencyResponse{
		ID:           agency.ID,
		Name:         agency.Name,
		Email:        agency.Email,
		Phone:        agency.Phone,
		LogoURL:      agency.LogoURL,
		PrimaryColor: agency.PrimaryColor,
		Postcodes:    agency.Postcodes,
		RoutingMode:  agency.RoutingMode,
		SizeClass:    agency.SizeClass,
		CreatedAt:    agency.CreatedAt,
		UpdatedAt:    agency.UpdatedAt,
	}
}
