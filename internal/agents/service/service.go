// Package service handles agent management and the lazy agent-to-principal
// soft link used by lead routing.
package service

import (
	"context"
	"errors"

	"leadbroker_backend/internal/agents/repository"
	"leadbroker_backend/internal/agents/transport"
	"leadbroker_backend/platform/apperr"
	"leadbroker_backend/platform/phone"

	"github.com/google/uuid"
)

// Repository defines the data access interface needed by the agent service.
type Repository interface {
	Create(ctx context.Context, params repository.CreateAgentParams) (repository.Agent, error)
	GetByID(ctx context.Context, id uuid.UUID) (repository.Agent, error)
	List(ctx context.Context) ([]repository.Agent, error)
	ListByAgency(ctx context.Context, agencyID uuid.UUID) ([]repository.Agent, error)
	FirstActiveByAgency(ctx context.Context, agencyID uuid.UUID) (repository.Agent, error)
	Update(ctx context.Context, id uuid.UUID, params repository.UpdateAgentParams) (repository.Agent, error)
	Delete(ctx context.Context, id uuid.UUID) error
	SetPrincipalID(ctx context.Context, id, principalID uuid.UUID) error
	IncrementAssignedLeadCount(ctx context.Context, id uuid.UUID) error
	FindPrincipalIDByEmail(ctx context.Context, email string) (*uuid.UUID, error)
}

// Service handles agent operations.
type Service struct {
	repo Repository
}

// New creates a new agent service.
func New(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create creates a new agent record. The agency reference may be nil during
// onboarding; such agents are skipped by routing until attached.
func (s *Service) Create(ctx context.Context, req transport.CreateAgentRequest) (transport.AgentResponse, error) {
	role := req.Role
	if role == "" {
		role = transport.AgentRolePlain
	}

	agent, err := s.repo.Create(ctx, repository.CreateAgentParams{
		AgencyID: req.AgencyID,
		Name:     req.Name,
		Email:    req.Email,
		Phone:    phone.NormalizeE164(req.Phone),
		Role:     string(role),
	})
	if err != nil {
		return transport.AgentResponse{}, err
	}
	return toResponse(agent), nil
}

// GetByID retrieves an agent by ID.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (transport.AgentResponse, error) {
	agent, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.AgentResponse{}, apperr.NotFound("agent not found")
		}
		return transport.AgentResponse{}, err
	}
	return toResponse(agent), nil
}

// List returns all agents, or the agents of one agency when agencyID is set.
func (s *Service) List(ctx context.Context, agencyID *uuid.UUID) ([]transport.AgentResponse, error) {
	var (
		agents []repository.Agent
		err    error
	)
	if agencyID != nil {
		agents, err = s.repo.ListByAgency(ctx, *agencyID)
	} else {
		agents, err = s.repo.List(ctx)
	}
	if err != nil {
		return nil, err
	}

	responses := make([]transport.AgentResponse, 0, len(agents))
	for _, agent := range agents {
		responses = append(responses, toResponse(agent))
	}
	return responses, nil
}

// Update updates an agent's fields.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req transport.UpdateAgentRequest) (transport.AgentResponse, error) {
	params := repository.UpdateAgentParams{
		Name:   req.Name,
		Email:  req.Email,
		Active: req.Active,
	}
	if req.AgencyID != nil {
		params.AgencyID = req.AgencyID
		params.AgencyIDSet = true
	}
	if req.Phone != nil {
		normalized := phone.NormalizeE164(*req.Phone)
		params.Phone = &normalized
	}
	if req.Role != nil {
		role := string(*req.Role)
		params.Role = &role
	}

	agent, err := s.repo.Update(ctx, id, params)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.AgentResponse{}, apperr.NotFound("agent not found")
		}
		return transport.AgentResponse{}, err
	}
	return toResponse(agent), nil
}

// Delete removes an agent.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("agent not found")
		}
		return err
	}
	return nil
}

// FirstActiveInAgency returns the earliest-created active agent of an agency.
// A repository miss maps to ErrNotFound for the routing engine to interpret.
func (s *Service) FirstActiveInAgency(ctx context.Context, agencyID uuid.UUID) (repository.Agent, error) {
	return s.repo.FirstActiveByAgency(ctx, agencyID)
}

// Record returns the raw agent record for cross-context consumers that need
// more than the HTTP response shape.
func (s *Service) Record(ctx context.Context, id uuid.UUID) (repository.Agent, error) {
	return s.repo.GetByID(ctx, id)
}

// ResolvePrincipalID returns the authentication-principal id linked to the
// agent. The link is a best-effort email correlation, memoized on the agent
// record: when missing, the principal read model is consulted and a hit is
// written back opportunistically. A failed write-back is ignored since the
// link is a lookup optimization, never required for correctness.
func (s *Service) ResolvePrincipalID(ctx context.Context, agent repository.Agent) (*uuid.UUID, error) {
	if agent.PrincipalID != nil {
		return agent.PrincipalID, nil
	}

	principalID, err := s.repo.FindPrincipalIDByEmail(ctx, agent.Email)
	if err != nil {
		return nil, err
	}
	if principalID == nil {
		return nil, nil
	}

	_ = s.repo.SetPrincipalID(ctx, agent.ID, *principalID)
	return principalID, nil
}

// RecordAssignment bumps the informational lead counter on the agent.
func (s *Service) RecordAssignment(ctx context.Context, agentID uuid.UUID) error {
	return s.repo.IncrementAssignedLeadCount(ctx, agentID)
}

func toResponse(agent repository.Agent) transport.AgentResponse {
	return transport.AgentResponse{
		ID:                agent.ID,
		AgencyID:          agent.AgencyID,
		Name:              agent.Name,
		Email:             agent.Email,
		Phone:             agent.Phone,
		Active:            agent.Active,
		Role:              agent.Role,
		PrincipalID:       agent.PrincipalID,
		AssignedLeadCount: agent.AssignedLeadCount,
		CreatedAt:         agent.CreatedAt,
		UpdatedAt:         agent.UpdatedAt,
	}
}
