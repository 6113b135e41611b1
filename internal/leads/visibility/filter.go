// Package visibility computes which leads a principal may read. The rules are
// an ordered set of OR'd conditions, first match wins, deny by default. They
// are evaluated fresh on every read and never cached.
package visibility

import (
	"leadbroker_backend/platform/apperr"
	"leadbroker_backend/platform/httpkit"

	"github.com/google/uuid"
)

// Scope describes the subset of the lead corpus a principal may list.
// The repository translates it to a SQL predicate.
type Scope struct {
	// All grants unrestricted visibility (system admins).
	All bool
	// DenyAll matches nothing.
	DenyAll bool
	// AgencyID enables the agency-admin conditions: owned leads plus the
	// unowned-public-in-territory preview.
	AgencyID *uuid.UUID
	// PrincipalID enables the agent conditions: self-created or assigned.
	PrincipalID *uuid.UUID
	// LinkedAgentID extends the assigned-to check to the agent record
	// soft-linked to the principal.
	LinkedAgentID *uuid.UUID
}

// LeadView is the minimal lead projection the access rules need.
type LeadView struct {
	OwningAgencyID  *uuid.UUID
	AssignedAgentID *uuid.UUID
	CreatedBy       *uuid.UUID
	Source          string
	Postcode        *string
}

// ScopeFor computes the listing scope for a principal on the role-filtered
// path. An absent principal is an authorization failure, not an empty result.
// Sellers are denied on this endpoint family entirely; they reach their own
// leads only through the by-email lookup.
func ScopeFor(principal httpkit.Principal) (Scope, error) {
	if !principal.IsAuthenticated() {
		return Scope{}, apperr.Unauthorized("authentication required")
	}

	switch principal.Role {
	case httpkit.RoleSystemAdmin:
		return Scope{All: true}, nil

	case httpkit.RoleAgencyAdmin:
		if principal.AgencyID == nil {
			return Scope{DenyAll: true}, nil
		}
		return Scope{AgencyID: principal.AgencyID}, nil

	case httpkit.RoleAgent:
		userID := principal.UserID
		return Scope{PrincipalID: &userID, LinkedAgentID: principal.AgentID}, nil

	default:
		return Scope{}, apperr.Forbidden("role may not list leads")
	}
}

// CanAccess validates a single-lead read for a principal. agencyPostcodes is
// the principal's agency territory, consulted only for the agency-admin
// preview condition; pass nil when the principal has no agency.
func CanAccess(principal httpkit.Principal, lead LeadView, agencyPostcodes []string) bool {
	if !principal.IsAuthenticated() {
		return false
	}

	switch principal.Role {
	case httpkit.RoleSystemAdmin:
		return true

	case httpkit.RoleAgencyAdmin:
		if principal.AgencyID == nil {
			return false
		}
		if lead.OwningAgencyID != nil && *lead.OwningAgencyID == *principal.AgencyID {
			return true
		}
		// Territory preview: unowned public leads in the agency's postcodes
		// are visible before formal assignment completes.
		if lead.OwningAgencyID == nil && lead.Source == "public" && lead.Postcode != nil {
			for _, code := range agencyPostcodes {
				if code == *lead.Postcode {
					return true
				}
			}
		}
		return false

	case httpkit.RoleAgent:
		if lead.CreatedBy != nil && *lead.CreatedBy == principal.UserID {
			return true
		}
		if lead.AssignedAgentID != nil && *lead.AssignedAgentID == principal.UserID {
			return true
		}
		if lead.AssignedAgentID != nil && principal.AgentID != nil && *lead.AssignedAgentID == *principal.AgentID {
			return true
		}
		return false

	default:
		return false
	}
}
