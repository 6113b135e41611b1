// Package httpkit provides HTTP utilities including principal abstraction.
package httpkit

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Role values supplied by the authentication service.
const (
	RoleSeller      = "seller"
	RoleAgent       = "agent"
	RoleAgencyAdmin = "agency_admin"
	RoleSystemAdmin = "system_admin"
)

// Principal represents the authenticated actor making a request.
// The authentication service issues the token; this layer only decodes it.
// AgencyID and AgentID are optional affiliations: a seller has neither, an
// agent may carry a soft-linked operational agent record id.
type Principal struct {
	UserID   uuid.UUID
	Role     string
	AgencyID *uuid.UUID
	AgentID  *uuid.UUID
	Email    string
}

// IsAuthenticated reports whether the principal carries a real identity.
func (p Principal) IsAuthenticated() bool {
	return p.UserID != uuid.Nil
}

// HasRole checks the principal's role tag.
func (p Principal) HasRole(role string) bool {
	return p.Role == role
}

// GetPrincipal extracts the Principal from a Gin context.
// Returns an unauthenticated principal if identity info is not present.
func GetPrincipal(c *gin.Context) Principal {
	value, ok := c.Get(ContextPrincipalKey)
	if !ok {
		return Principal{}
	}

	principal, ok := value.(Principal)
	if !ok {
		return Principal{}
	}

	return principal
}

// MustGetPrincipal extracts the Principal from a Gin context.
// If the request is not authenticated, it aborts with 401 Unauthorized.
func MustGetPrincipal(c *gin.Context) (Principal, bool) {
	principal := GetPrincipal(c)
	if !principal.IsAuthenticated() {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return Principal{}, false
	}
	return principal, true
}
