// Package ports defines the interfaces the leads domain requires from other
// bounded contexts. The implementations are provided by the composition root
// (main) through adapters, so the leads domain never imports the agencies or
// agents packages directly.
package ports

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNoActiveAgent is returned by AgentDirectory when an agency has no active
// agent to receive a lead.
var ErrNoActiveAgent = errors.New("no active agent in agency")

// Agency is the agency projection the leads domain needs.
type Agency struct {
	ID        uuid.UUID
	Name      string
	Postcodes []string
}

// AgencyDirectory is the territory index as seen from the leads domain.
type AgencyDirectory interface {
	// FindByPostcode returns the agencies claiming the exact 4-character code,
	// earliest created first. A miss is an empty slice, not an error.
	FindByPostcode(ctx context.Context, code string) ([]Agency, error)

	// FindFallback returns an agency under the configured deterministic
	// fallback policy. Errors when no policy can produce an agency.
	FindFallback(ctx context.Context) (Agency, error)

	// PostcodesOf returns the territory of one agency, or nil when the agency
	// does not exist.
	PostcodesOf(ctx context.Context, agencyID uuid.UUID) ([]string, error)

	// Serves reports whether the agency's territory contains the code. An
	// unknown agency serves nothing.
	Serves(ctx context.Context, agencyID uuid.UUID, code string) (bool, error)
}

// ErrUnknownAgent is returned by AgentDirectory when no agent record carries
// the requested id.
var ErrUnknownAgent = errors.New("unknown agent")

// Agent is the agent projection the leads domain needs.
type Agent struct {
	ID          uuid.UUID
	Name        string
	Email       string
	AgencyID    *uuid.UUID
	PrincipalID *uuid.UUID
}

// AgentDirectory supplies agent selection and the principal soft link.
type AgentDirectory interface {
	// FirstActiveInAgency returns the earliest-created active agent of the
	// agency, or ErrNoActiveAgent.
	FirstActiveInAgency(ctx context.Context, agencyID uuid.UUID) (Agent, error)

	// ByID returns the agent record with the given id, or ErrUnknownAgent.
	ByID(ctx context.Context, agentID uuid.UUID) (Agent, error)

	// ResolvePrincipalID resolves the agent's authentication-principal id by
	// email match, memoizing the link on the agent record. A nil id with nil
	// error means no principal carries the agent's email.
	ResolvePrincipalID(ctx context.Context, agent Agent) (*uuid.UUID, error)

	// RecordAssignment bumps the agent's informational lead counter.
	RecordAssignment(ctx context.Context, agentID uuid.UUID) error
}
