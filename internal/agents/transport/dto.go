package transport

import (
	"time"

	"github.com/google/uuid"
)

// AgentRole is the role tag on an operational agent record.
type AgentRole string

const (
	AgentRolePlain AgentRole = "agent"
	AgentRoleAdmin AgentRole = "agency_admin"
)

// Request DTOs
type CreateAgentRequest struct {
	AgencyID *uuid.UUID `json:"agencyId,omitempty"`
	Name     string     `json:"name" validate:"required,min=1,max=200"`
	Email    string     `json:"email" validate:"required,email"`
	Phone    string     `json:"phone,omitempty" validate:"omitempty,min=5,max=20"`
	Role     AgentRole  `json:"role,omitempty" validate:"omitempty,oneof=agent agency_admin"`
}

type UpdateAgentRequest struct {
	AgencyID *uuid.UUID `json:"agencyId,omitempty"`
	Name     *string    `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Email    *string    `json:"email,omitempty" validate:"omitempty,email"`
	Phone    *string    `json:"phone,omitempty" validate:"omitempty,min=5,max=20"`
	Active   *bool      `json:"active,omitempty"`
	Role     *AgentRole `json:"role,omitempty" validate:"omitempty,oneof=agent agency_admin"`
}

// Response DTOs
type AgentResponse struct {
	ID                uuid.UUID  `json:"id"`
	AgencyID          *uuid.UUID `json:"agencyId,omitempty"`
	Name              string     `json:"name"`
	Email             string     `json:"email"`
	Phone             string     `json:"phone,omitempty"`
	Active            bool       `json:"active"`
	Role              string     `json:"role"`
	PrincipalID       *uuid.UUID `json:"principalId,omitempty"`
	AssignedLeadCount int        `json:"assignedLeadCount"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}
