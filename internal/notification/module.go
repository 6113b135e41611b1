// Package notification sends emails in response to domain events. Domain
// modules publish events and never know about SMTP or templates; this module
// subscribes and inverts the dependency.
package notification

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"leadbroker_backend/internal/email"
	"leadbroker_backend/internal/events"
	leadrepo "leadbroker_backend/internal/leads/repository"
	"leadbroker_backend/platform/logger"
)

// LeadReader provides the lead details notifications need.
type LeadReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (leadrepo.Lead, error)
	ListAssignments(ctx context.Context, leadID uuid.UUID) ([]leadrepo.Assignment, error)
}

// AgentEmailResolver resolves an agent record id to a contact email.
type AgentEmailResolver interface {
	EmailOf(ctx context.Context, agentID uuid.UUID) (name, emailAddr string, err error)
}

// Module wires event subscriptions to the email sender.
type Module struct {
	sender email.Sender
	leads  LeadReader
	agents AgentEmailResolver
	log    *logger.Logger
}

// NewModule creates the notification module and subscribes its handlers.
// sender may be nil when email is disabled; subscriptions are then skipped.
func NewModule(bus events.Bus, sender email.Sender, leads LeadReader, agents AgentEmailResolver, log *logger.Logger) *Module {
	m := &Module{sender: sender, leads: leads, agents: agents, log: log}
	if sender == nil {
		log.Info("email disabled, notification handlers not registered")
		return m
	}

	bus.Subscribe(events.LeadAssigned{}.EventName(), events.HandlerFunc(m.onLeadAssigned))
	bus.Subscribe(events.FollowUpDue{}.EventName(), events.HandlerFunc(m.onFollowUpDue))
	return m
}

func (m *Module) onLeadAssigned(ctx context.Context, event events.Event) error {
	assigned, ok := event.(events.LeadAssigned)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}
	if assigned.AgentEmail == "" {
		return nil
	}

	lead, err := m.leads.GetByID(ctx, assigned.LeadID)
	if err != nil {
		return fmt.Errorf("load lead %s: %w", assigned.LeadID, err)
	}

	return m.sender.SendLeadAssignedEmail(ctx, assigned.AgentEmail, assigned.AgentName, lead.HomeownerName, lead.PropertyAddress)
}

func (m *Module) onFollowUpDue(ctx context.Context, event events.Event) error {
	due, ok := event.(events.FollowUpDue)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}

	lead, err := m.leads.GetByID(ctx, due.LeadID)
	if err != nil {
		return fmt.Errorf("load lead %s: %w", due.LeadID, err)
	}

	assignments, err := m.leads.ListAssignments(ctx, due.LeadID)
	if err != nil {
		return fmt.Errorf("load assignments for lead %s: %w", due.LeadID, err)
	}
	if len(assignments) == 0 {
		// Unassigned lead, nobody to remind.
		return nil
	}

	latest := assignments[len(assignments)-1]
	name, emailAddr, err := m.agents.EmailOf(ctx, latest.AgentID)
	if err != nil {
		return fmt.Errorf("resolve agent %s: %w", latest.AgentID, err)
	}
	if emailAddr == "" {
		return nil
	}

	return m.sender.SendFollowUpReminderEmail(ctx, emailAddr, name, lead.HomeownerName)
}
