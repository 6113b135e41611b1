// Package leads provides the lead bounded context module: lead intake,
// postcode routing, visibility-filtered reads, and bulk CSV import.
package leads

import (
	"context"

	apphttp "leadbroker_backend/internal/http"
	"leadbroker_backend/internal/events"
	"leadbroker_backend/internal/leads/bulkimport"
	"leadbroker_backend/internal/leads/handler"
	"leadbroker_backend/internal/leads/ports"
	"leadbroker_backend/internal/leads/repository"
	"leadbroker_backend/internal/leads/routing"
	"leadbroker_backend/internal/leads/service"
	"leadbroker_backend/platform/logger"
	"leadbroker_backend/platform/validator"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
}

// Deps are the cross-context collaborators the leads module needs. Scheduler
// and Archive may be nil when the corresponding backends are not configured.
type Deps struct {
	Agencies  ports.AgencyDirectory
	Agents    ports.AgentDirectory
	Scheduler service.FollowUpScheduler
	Archive   bulkimport.Archiver
	Bus       events.Bus
	Logger    *logger.Logger
	Validator *validator.Validator
}

// NewModule creates and initializes the leads module with all its dependencies.
func NewModule(pool *pgxpool.Pool, deps Deps) *Module {
	repo := repository.New(pool)
	engine := routing.NewEngine(deps.Agencies, deps.Agents, stamper{repo})
	svc := service.New(repo, deps.Agencies, engine, deps.Scheduler, deps.Bus, deps.Logger)
	importer := bulkimport.NewImporter(svc, deps.Archive, deps.Bus, deps.Logger)

	return &Module{
		handler: handler.New(svc, importer, deps.Validator),
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// RegisterRoutes mounts lead routes. The public submission endpoint sits on
// the open v1 group behind the IP rate limiter; everything else requires
// authentication. Manual assignment authorizes in the service (system admins
// always, agency admins within their territory); hard delete stays
// system-admin only.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.V1.POST("/leads/submit", ctx.PublicRateLimiter.RateLimit(), m.handler.CreatePublic)

	protected := ctx.Protected.Group("/leads")
	protected.POST("", m.handler.Create)
	protected.GET("", m.handler.List)
	protected.GET("/mine", m.handler.ListMine)
	protected.POST("/import", m.handler.Import)
	protected.GET("/assignments/mine", m.handler.ListMyAssignments)
	protected.PATCH("/assignments/:assignmentId", m.handler.UpdateAssignmentStatus)
	protected.GET("/:id", m.handler.GetByID)
	protected.PUT("/:id", m.handler.Update)
	protected.PATCH("/:id/status", m.handler.UpdateStatus)
	protected.POST("/:id/notes", m.handler.AddNote)
	protected.GET("/:id/notes", m.handler.ListNotes)
	protected.POST("/:id/follow-up", m.handler.ScheduleFollowUp)
	protected.GET("/:id/assignments", m.handler.ListAssignments)
	protected.POST("/:id/assign", m.handler.Reassign)

	admin := ctx.Admin.Group("/leads")
	admin.DELETE("/:id", m.handler.Delete)
}

// stamper adapts the repository to the routing engine's write interface.
type stamper struct {
	repo *repository.Repository
}

func (s stamper) StampAssignment(ctx context.Context, leadID, agencyID, assigneeID uuid.UUID, assigneeName string) error {
	_, err := s.repo.StampAssignment(ctx, leadID, agencyID, assigneeID, assigneeName)
	return err
}

func (s stamper) CreateAssignment(ctx context.Context, leadID, agentID uuid.UUID, assignedBy *uuid.UUID) error {
	_, err := s.repo.CreateAssignment(ctx, leadID, agentID, assignedBy)
	return err
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
