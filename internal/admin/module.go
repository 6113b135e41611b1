// Package admin provides the system-admin dashboard module: platform-wide
// counts across leads, agencies and agents.
package admin

import (
	"leadbroker_backend/internal/admin/handler"
	"leadbroker_backend/internal/admin/repository"
	"leadbroker_backend/internal/admin/service"
	apphttp "leadbroker_backend/internal/http"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the admin dashboard module implementing http.Module.
type Module struct {
	handler *handler.Handler
}

// NewModule creates and initializes the admin module.
func NewModule(pool *pgxpool.Pool) *Module {
	return &Module{
		handler: handler.New(service.New(repository.New(pool))),
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "admin"
}

// RegisterRoutes mounts the overview endpoint under the system-admin group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Admin.GET("/overview", m.handler.Overview)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
