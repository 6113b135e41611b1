// Package routing assigns freshly created leads to an agency and one of its
// agents based on the lead's postcode.
package routing

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"leadbroker_backend/internal/leads/domain"
	"leadbroker_backend/internal/leads/ports"
)

// Failure reasons. A Failure is expected during normal operation: it means the
// lead stays unassigned, never that lead creation should fail.
const (
	ReasonNoPostcode    = "no_postcode"
	ReasonNoAgencyMatch = "no_agency_match"
	ReasonNoActiveAgent = "no_active_agent"
	ReasonUnknownAgent  = "unknown_agent"
)

// Failure is a routing outcome that leaves the lead unassigned.
type Failure struct {
	Reason string
	Detail string
}

func (f *Failure) Error() string {
	if f.Detail == "" {
		return "routing failed: " + f.Reason
	}
	return fmt.Sprintf("routing failed: %s (%s)", f.Reason, f.Detail)
}

// AsFailure reports whether err is a routing Failure.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// LeadStamper persists the routing outcome on the lead and its history.
type LeadStamper interface {
	StampAssignment(ctx context.Context, leadID, agencyID, assigneeID uuid.UUID, assigneeName string) error
	CreateAssignment(ctx context.Context, leadID, agentID uuid.UUID, assignedBy *uuid.UUID) error
}

// Input carries the lead fields routing reads.
type Input struct {
	LeadID   uuid.UUID
	Postcode *string
	Address  string
}

// Result describes a completed assignment.
type Result struct {
	AgencyID   uuid.UUID
	AgencyName string
	AgentID    uuid.UUID
	AgentName  string
	AgentEmail string
	// AssigneeID is the agent's principal id when the soft link resolves,
	// otherwise the agent record id.
	AssigneeID uuid.UUID
}

// Engine routes leads. It is safe for concurrent use.
type Engine struct {
	agencies ports.AgencyDirectory
	agents   ports.AgentDirectory
	leads    LeadStamper
}

func NewEngine(agencies ports.AgencyDirectory, agents ports.AgentDirectory, leads LeadStamper) *Engine {
	return &Engine{agencies: agencies, agents: agents, leads: leads}
}

// Assign routes the lead to the earliest-created agency claiming its postcode.
// assignedBy is nil for automatic routing and carries the acting user for
// manual reassignment. Rerunning for an already assigned lead overwrites the
// previous assignment and appends a new history row.
func (e *Engine) Assign(ctx context.Context, in Input, assignedBy *uuid.UUID) (Result, error) {
	code := e.postcodeOf(in)
	if code == "" {
		return Result{}, &Failure{Reason: ReasonNoPostcode}
	}

	matches, err := e.agencies.FindByPostcode(ctx, code)
	if err != nil {
		return Result{}, fmt.Errorf("find agencies for postcode %s: %w", code, err)
	}
	if len(matches) == 0 {
		return Result{}, &Failure{Reason: ReasonNoAgencyMatch, Detail: "postcode " + code}
	}

	return e.assignWithin(ctx, in.LeadID, matches[0], assignedBy)
}

// AssignFallback routes the lead under the deterministic fallback policy,
// ignoring its postcode. Used when an operator explicitly asks for fallback
// placement of an unroutable lead.
func (e *Engine) AssignFallback(ctx context.Context, leadID uuid.UUID, assignedBy *uuid.UUID) (Result, error) {
	agency, err := e.agencies.FindFallback(ctx)
	if err != nil {
		return Result{}, &Failure{Reason: ReasonNoAgencyMatch, Detail: "no fallback agency"}
	}
	return e.assignWithin(ctx, leadID, agency, assignedBy)
}

// AssignToAgency routes the lead into a specific agency, bypassing postcode
// matching. Used for manual reassignment by an operator.
func (e *Engine) AssignToAgency(ctx context.Context, leadID, agencyID uuid.UUID, assignedBy *uuid.UUID) (Result, error) {
	postcodes, err := e.agencies.PostcodesOf(ctx, agencyID)
	if err != nil {
		return Result{}, fmt.Errorf("load agency %s: %w", agencyID, err)
	}
	if postcodes == nil {
		return Result{}, &Failure{Reason: ReasonNoAgencyMatch, Detail: "agency " + agencyID.String()}
	}
	return e.assignWithin(ctx, leadID, ports.Agency{ID: agencyID}, assignedBy)
}

// AssignToAgent routes the lead to one specific agent, resolving the owning
// agency from the agent record. Used for operator-directed assignment.
func (e *Engine) AssignToAgent(ctx context.Context, leadID, agentID uuid.UUID, assignedBy *uuid.UUID) (Result, error) {
	agent, err := e.agents.ByID(ctx, agentID)
	if err != nil {
		if errors.Is(err, ports.ErrUnknownAgent) {
			return Result{}, &Failure{Reason: ReasonUnknownAgent, Detail: "agent " + agentID.String()}
		}
		return Result{}, fmt.Errorf("load agent %s: %w", agentID, err)
	}
	if agent.AgencyID == nil {
		return Result{}, &Failure{Reason: ReasonNoAgencyMatch, Detail: "agent " + agentID.String() + " has no agency"}
	}
	return e.finalize(ctx, leadID, ports.Agency{ID: *agent.AgencyID}, agent, assignedBy)
}

func (e *Engine) assignWithin(ctx context.Context, leadID uuid.UUID, agency ports.Agency, assignedBy *uuid.UUID) (Result, error) {
	agent, err := e.agents.FirstActiveInAgency(ctx, agency.ID)
	if err != nil {
		if errors.Is(err, ports.ErrNoActiveAgent) {
			return Result{}, &Failure{Reason: ReasonNoActiveAgent, Detail: "agency " + agency.ID.String()}
		}
		return Result{}, fmt.Errorf("pick agent in agency %s: %w", agency.ID, err)
	}
	return e.finalize(ctx, leadID, agency, agent, assignedBy)
}

// finalize resolves the assignee identity, stamps the lead, appends the
// history row, and bumps the agent counter.
func (e *Engine) finalize(ctx context.Context, leadID uuid.UUID, agency ports.Agency, agent ports.Agent, assignedBy *uuid.UUID) (Result, error) {
	principalID, err := e.agents.ResolvePrincipalID(ctx, agent)
	if err != nil {
		return Result{}, fmt.Errorf("resolve principal for agent %s: %w", agent.ID, err)
	}
	assigneeID := agent.ID
	if principalID != nil {
		assigneeID = *principalID
	}

	if err := e.leads.StampAssignment(ctx, leadID, agency.ID, assigneeID, agent.Name); err != nil {
		return Result{}, fmt.Errorf("stamp lead %s: %w", leadID, err)
	}
	if err := e.leads.CreateAssignment(ctx, leadID, agent.ID, assignedBy); err != nil {
		return Result{}, fmt.Errorf("record assignment for lead %s: %w", leadID, err)
	}
	if err := e.agents.RecordAssignment(ctx, agent.ID); err != nil {
		return Result{}, fmt.Errorf("bump counter for agent %s: %w", agent.ID, err)
	}

	return Result{
		AgencyID:   agency.ID,
		AgencyName: agency.Name,
		AgentID:    agent.ID,
		AgentName:  agent.Name,
		AgentEmail: agent.Email,
		AssigneeID: assigneeID,
	}, nil
}

func (e *Engine) postcodeOf(in Input) string {
	if in.Postcode != nil {
		if c := domain.NormalizePostcode(*in.Postcode); c != "" {
			return c
		}
	}
	return domain.ExtractPostcode(in.Address)
}
