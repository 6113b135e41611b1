// Package directory adapts the agencies and agents services to the ports the
// leads domain consumes. It keeps the leads module free of direct imports of
// the other bounded contexts.
package directory

import (
	"context"
	"errors"

	"github.com/google/uuid"

	agencyrepo "leadbroker_backend/internal/agencies/repository"
	agencysvc "leadbroker_backend/internal/agencies/service"
	agentrepo "leadbroker_backend/internal/agents/repository"
	agentsvc "leadbroker_backend/internal/agents/service"
	"leadbroker_backend/internal/leads/ports"
	"leadbroker_backend/platform/apperr"
)

// AgencyDirectory implements ports.AgencyDirectory over the agency service.
type AgencyDirectory struct {
	svc *agencysvc.Service
}

func NewAgencyDirectory(svc *agencysvc.Service) *AgencyDirectory {
	return &AgencyDirectory{svc: svc}
}

func (d *AgencyDirectory) FindByPostcode(ctx context.Context, code string) ([]ports.Agency, error) {
	agencies, err := d.svc.FindByPostcode(ctx, code)
	if err != nil {
		return nil, err
	}
	out := make([]ports.Agency, 0, len(agencies))
	for _, agency := range agencies {
		out = append(out, toPortAgency(agency))
	}
	return out, nil
}

func (d *AgencyDirectory) FindFallback(ctx context.Context) (ports.Agency, error) {
	agency, err := d.svc.FindFallback(ctx)
	if err != nil {
		return ports.Agency{}, err
	}
	return toPortAgency(agency), nil
}

func (d *AgencyDirectory) PostcodesOf(ctx context.Context, agencyID uuid.UUID) ([]string, error) {
	resp, err := d.svc.GetByID(ctx, agencyID)
	if err != nil {
		// An unknown agency is a nil territory, not a failure.
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return resp.Postcodes, nil
}

// Serves delegates the territory-claim check used for agency-admin manual
// assignment authorization. An unknown agency serves nothing.
func (d *AgencyDirectory) Serves(ctx context.Context, agencyID uuid.UUID, code string) (bool, error) {
	return d.svc.ServesPostcode(ctx, agencyID, code)
}

func toPortAgency(agency agencyrepo.Agency) ports.Agency {
	return ports.Agency{ID: agency.ID, Name: agency.Name, Postcodes: agency.Postcodes}
}

// AgentDirectory implements ports.AgentDirectory over the agent service.
type AgentDirectory struct {
	svc *agentsvc.Service
}

func NewAgentDirectory(svc *agentsvc.Service) *AgentDirectory {
	return &AgentDirectory{svc: svc}
}

func (d *AgentDirectory) FirstActiveInAgency(ctx context.Context, agencyID uuid.UUID) (ports.Agent, error) {
	agent, err := d.svc.FirstActiveInAgency(ctx, agencyID)
	if err != nil {
		if errors.Is(err, agentrepo.ErrNotFound) {
			return ports.Agent{}, ports.ErrNoActiveAgent
		}
		return ports.Agent{}, err
	}
	return toPortAgent(agent), nil
}

// ByID returns the agent record behind a specific id, for agent-targeted
// manual assignment.
func (d *AgentDirectory) ByID(ctx context.Context, agentID uuid.UUID) (ports.Agent, error) {
	agent, err := d.svc.Record(ctx, agentID)
	if err != nil {
		if errors.Is(err, agentrepo.ErrNotFound) {
			return ports.Agent{}, ports.ErrUnknownAgent
		}
		return ports.Agent{}, err
	}
	return toPortAgent(agent), nil
}

func (d *AgentDirectory) ResolvePrincipalID(ctx context.Context, agent ports.Agent) (*uuid.UUID, error) {
	return d.svc.ResolvePrincipalID(ctx, agentrepo.Agent{
		ID:          agent.ID,
		Name:        agent.Name,
		Email:       agent.Email,
		AgencyID:    agent.AgencyID,
		PrincipalID: agent.PrincipalID,
	})
}

func (d *AgentDirectory) RecordAssignment(ctx context.Context, agentID uuid.UUID) error {
	return d.svc.RecordAssignment(ctx, agentID)
}

// EmailOf resolves an agent record id to a contact name and address for
// notifications. A deleted agent resolves to empty values, not an error.
func (d *AgentDirectory) EmailOf(ctx context.Context, agentID uuid.UUID) (string, string, error) {
	resp, err := d.svc.GetByID(ctx, agentID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return "", "", nil
		}
		return "", "", err
	}
	return resp.Name, resp.Email, nil
}

func toPortAgent(agent agentrepo.Agent) ports.Agent {
	return ports.Agent{
		ID:          agent.ID,
		Name:        agent.Name,
		Email:       agent.Email,
		AgencyID:    agent.AgencyID,
		PrincipalID: agent.PrincipalID,
	}
}

// Compile-time interface checks
var (
	_ ports.AgencyDirectory = (*AgencyDirectory)(nil)
	_ ports.AgentDirectory  = (*AgentDirectory)(nil)
)
