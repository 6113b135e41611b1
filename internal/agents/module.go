// Package agents provides the agent bounded context module: operational agent
// records, the agency membership they carry, and the lazy principal soft link.
package agents

import (
	"leadbroker_backend/internal/agents/handler"
	"leadbroker_backend/internal/agents/repository"
	"leadbroker_backend/internal/agents/service"
	apphttp "leadbroker_backend/internal/http"
	"leadbroker_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the agents bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the agents module with all its dependencies.
func NewModule(pool *pgxpool.Pool, val *validator.Validator) *Module {
	repo := repository.New(pool)
	svc := service.New(repo)

	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "agents"
}

// Service returns the agent service for wiring into lead routing.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts agent routes. Mutations are system-admin only.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	protected := ctx.Protected.Group("/agents")
	protected.GET("", m.handler.List)
	protected.GET("/:id", m.handler.GetByID)

	admin := ctx.Admin.Group("/agents")
	admin.POST("", m.handler.Create)
	admin.PUT("/:id", m.handler.Update)
	admin.DELETE("/:id", m.handler.Delete)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
