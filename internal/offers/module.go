// Package offers provides the agent offer bounded context: agents and agency
// admins submit price proposals against a lead, and any authenticated
// principal reads a lead's offers back newest first.
package offers

import (
	apphttp "leadbroker_backend/internal/http"
	leadrepo "leadbroker_backend/internal/leads/repository"
	"leadbroker_backend/internal/offers/handler"
	"leadbroker_backend/internal/offers/repository"
	"leadbroker_backend/internal/offers/service"
	"leadbroker_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the offers bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
}

// NewModule creates and initializes the offers module with all its dependencies.
func NewModule(pool *pgxpool.Pool, val *validator.Validator) *Module {
	svc := service.New(repository.New(pool), leadrepo.New(pool))

	return &Module{
		handler: handler.New(svc, val),
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "offers"
}

// RegisterRoutes mounts offer routes. Submission is gated in the service to
// agent and agency admin roles.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	protected := ctx.Protected.Group("/offers")
	protected.POST("", m.handler.Create)
	protected.GET("/lead/:leadId", m.handler.ListByLead)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
