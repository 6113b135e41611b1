// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"leadbroker_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Leads Domain Events
// =============================================================================

// LeadCreated is published when a new lead is created, whether from a public
// submission, an agent form, or a bulk import row.
type LeadCreated struct {
	BaseEvent
	LeadID         uuid.UUID `json:"leadId"`
	Source         string    `json:"source"`
	HomeownerName  string    `json:"homeownerName"`
	HomeownerEmail string    `json:"homeownerEmail"`
	Postcode       string    `json:"postcode,omitempty"`
}

func (e LeadCreated) EventName() string { return "leads.created" }

// LeadAssigned is published when the routing engine or an admin hands a lead
// to an agency/agent pair.
type LeadAssigned struct {
	BaseEvent
	LeadID     uuid.UUID  `json:"leadId"`
	AgencyID   uuid.UUID  `json:"agencyId"`
	AgentID    uuid.UUID  `json:"agentId"`
	AgentName  string     `json:"agentName"`
	AgentEmail string     `json:"agentEmail"`
	AssignedBy *uuid.UUID `json:"assignedBy,omitempty"` // nil for automatic routing
}

func (e LeadAssigned) EventName() string { return "leads.assigned" }

// LeadImported is published once per bulk CSV import with the outcome counts.
type LeadImported struct {
	BaseEvent
	AgencyID     *uuid.UUID `json:"agencyId,omitempty"`
	SuccessCount int        `json:"successCount"`
	ErrorCount   int        `json:"errorCount"`
}

func (e LeadImported) EventName() string { return "leads.imported" }

// FollowUpDue is published by the scheduler worker when a lead's scheduled
// follow-up time arrives.
type FollowUpDue struct {
	BaseEvent
	LeadID uuid.UUID `json:"leadId"`
}

func (e FollowUpDue) EventName() string { return "leads.followup.due" }
