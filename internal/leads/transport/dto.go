package transport

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs
type CreateLeadRequest struct {
	HomeownerName   string  `json:"homeownerName" validate:"required,min=1,max=200"`
	HomeownerEmail  string  `json:"homeownerEmail" validate:"required,email"`
	HomeownerPhone  string  `json:"homeownerPhone" validate:"required,min=5,max=20"`
	PropertyAddress string  `json:"propertyAddress" validate:"required,min=1,max=500"`
	Postcode        *string `json:"postcode,omitempty" validate:"omitempty,len=4,numeric"`
	PropertyType    string  `json:"propertyType" validate:"required,min=1,max=100"`
	PropertyValue   *int64  `json:"propertyValue,omitempty" validate:"omitempty,gte=0"`
}

type UpdateLeadRequest struct {
	HomeownerName   *string `json:"homeownerName,omitempty" validate:"omitempty,min=1,max=200"`
	HomeownerEmail  *string `json:"homeownerEmail,omitempty" validate:"omitempty,email"`
	HomeownerPhone  *string `json:"homeownerPhone,omitempty" validate:"omitempty,min=5,max=20"`
	PropertyAddress *string `json:"propertyAddress,omitempty" validate:"omitempty,min=1,max=500"`
	Postcode        *string `json:"postcode,omitempty" validate:"omitempty,len=4,numeric"`
	PropertyType    *string `json:"propertyType,omitempty" validate:"omitempty,min=1,max=100"`
	PropertyValue   *int64  `json:"propertyValue,omitempty" validate:"omitempty,gte=0"`
	Status          *string `json:"status,omitempty"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type AddNoteRequest struct {
	Body string `json:"body" validate:"required,min=1,max=5000"`
}

type ScheduleFollowUpRequest struct {
	FollowUpAt time.Time `json:"followUpAt" validate:"required"`
	Notes      *string   `json:"notes,omitempty" validate:"omitempty,max=5000"`
}

// ReassignRequest drives manual (re)assignment. At most one of AgentID,
// AgencyID, or Fallback should be set; with none, routing reruns on the
// lead's postcode. AgentID targets one specific agent and wins over the
// other modes.
type ReassignRequest struct {
	AgentID  *uuid.UUID `json:"agentId,omitempty"`
	AgencyID *uuid.UUID `json:"agencyId,omitempty"`
	Fallback bool       `json:"fallback,omitempty"`
}

// UpdateAssignmentStatusRequest moves an assignment through its
// contact-progress lifecycle (pending, contacted, closed, lost).
type UpdateAssignmentStatusRequest struct {
	Status string  `json:"status" validate:"required"`
	Notes  *string `json:"notes,omitempty" validate:"omitempty,max=5000"`
}

// Response DTOs
type LeadResponse struct {
	ID                uuid.UUID  `json:"id"`
	HomeownerName     string     `json:"homeownerName"`
	HomeownerEmail    string     `json:"homeownerEmail"`
	HomeownerPhone    string     `json:"homeownerPhone"`
	PropertyAddress   string     `json:"propertyAddress"`
	Postcode          *string    `json:"postcode,omitempty"`
	PropertyType      string     `json:"propertyType"`
	PropertyValue     *int64     `json:"propertyValue,omitempty"`
	Status            string     `json:"status"`
	Source            string     `json:"source"`
	OwningAgencyID    *uuid.UUID `json:"owningAgencyId,omitempty"`
	AssignedAgentID   *uuid.UUID `json:"assignedAgentId,omitempty"`
	AssignedAgentName *string    `json:"assignedAgentName,omitempty"`
	FollowUpAt        *time.Time `json:"followUpAt,omitempty"`
	FollowUpNotes     *string    `json:"followUpNotes,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

type NoteResponse struct {
	ID        uuid.UUID  `json:"id"`
	AuthorID  *uuid.UUID `json:"authorId,omitempty"`
	Body      string     `json:"body"`
	CreatedAt time.Time  `json:"createdAt"`
}

type AssignmentResponse struct {
	ID         uuid.UUID  `json:"id"`
	LeadID     uuid.UUID  `json:"leadId"`
	AgentID    uuid.UUID  `json:"agentId"`
	AssignedBy *uuid.UUID `json:"assignedBy,omitempty"`
	Status     string     `json:"status"`
	Notes      *string    `json:"notes,omitempty"`
	AssignedAt time.Time  `json:"assignedAt"`
}

type ImportRowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

type ImportResponse struct {
	SuccessCount int              `json:"successCount"`
	ErrorCount   int              `json:"errorCount"`
	Errors       []ImportRowError `json:"errors"`
}
