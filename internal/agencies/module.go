// Package agencies provides the agency bounded context module: agency CRUD
// and the postcode territory index consulted by lead routing and visibility.
package agencies

import (
	"leadbroker_backend/internal/agencies/handler"
	"leadbroker_backend/internal/agencies/repository"
	"leadbroker_backend/internal/agencies/service"
	apphttp "leadbroker_backend/internal/http"
	"leadbroker_backend/platform/config"
	"leadbroker_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the agencies bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the agencies module with all its dependencies.
func NewModule(pool *pgxpool.Pool, cfg *config.Config, val *validator.Validator) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, cfg)

	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "agencies"
}

// Service returns the agency service for wiring into lead routing.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts agency routes. All mutations are system-admin only;
// listing is available to any authenticated principal.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	protected := ctx.Protected.Group("/agencies")
	protected.GET("", m.handler.List)
	protected.GET("/:id", m.handler.GetByID)

	admin := ctx.Admin.Group("/agencies")
	admin.POST("", m.handler.Create)
	admin.PUT("/:id", m.handler.Update)
	admin.DELETE("/:id", m.handler.Delete)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
