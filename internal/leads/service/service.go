// Package service implements lead creation, routing orchestration, and the
// role-filtered read paths.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"leadbroker_backend/internal/events"
	"leadbroker_backend/internal/leads/bulkimport"
	"leadbroker_backend/internal/leads/domain"
	"leadbroker_backend/internal/leads/ports"
	"leadbroker_backend/internal/leads/repository"
	"leadbroker_backend/internal/leads/routing"
	"leadbroker_backend/internal/leads/transport"
	"leadbroker_backend/internal/leads/visibility"
	"leadbroker_backend/platform/apperr"
	"leadbroker_backend/platform/httpkit"
	"leadbroker_backend/platform/logger"
	"leadbroker_backend/platform/phone"
)

// Repository defines the data access interface needed by the lead service.
type Repository interface {
	Create(ctx context.Context, params repository.CreateLeadParams) (repository.Lead, error)
	GetByID(ctx context.Context, id uuid.UUID) (repository.Lead, error)
	List(ctx context.Context, scope visibility.Scope, filters repository.ListFilters) ([]repository.Lead, error)
	Update(ctx context.Context, id uuid.UUID, params repository.UpdateLeadParams) (repository.Lead, error)
	StampAssignment(ctx context.Context, id, agencyID, assigneeID uuid.UUID, assigneeName string) (repository.Lead, error)
	SetFollowUp(ctx context.Context, id uuid.UUID, at *time.Time, notes *string) (repository.Lead, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListByHomeownerEmail(ctx context.Context, email string) ([]repository.Lead, error)
	AddNote(ctx context.Context, leadID uuid.UUID, authorID *uuid.UUID, body string) (repository.Note, error)
	ListNotes(ctx context.Context, leadID uuid.UUID) ([]repository.Note, error)
	CreateAssignment(ctx context.Context, leadID, agentID uuid.UUID, assignedBy *uuid.UUID) (repository.Assignment, error)
	ListAssignments(ctx context.Context, leadID uuid.UUID) ([]repository.Assignment, error)
	GetAssignment(ctx context.Context, id uuid.UUID) (repository.Assignment, error)
	UpdateAssignmentStatus(ctx context.Context, id uuid.UUID, status string, notes *string) (repository.Assignment, error)
	ListAssignmentsForAgent(ctx context.Context, agentID uuid.UUID) ([]repository.Assignment, error)
}

// Router runs the assignment engine.
type Router interface {
	Assign(ctx context.Context, in routing.Input, assignedBy *uuid.UUID) (routing.Result, error)
	AssignFallback(ctx context.Context, leadID uuid.UUID, assignedBy *uuid.UUID) (routing.Result, error)
	AssignToAgency(ctx context.Context, leadID, agencyID uuid.UUID, assignedBy *uuid.UUID) (routing.Result, error)
	AssignToAgent(ctx context.Context, leadID, agentID uuid.UUID, assignedBy *uuid.UUID) (routing.Result, error)
}

// FollowUpScheduler enqueues a reminder for a lead's follow-up time.
type FollowUpScheduler interface {
	ScheduleFollowUp(ctx context.Context, leadID uuid.UUID, at time.Time) error
}

// Service handles lead operations.
type Service struct {
	repo      Repository
	agencies  ports.AgencyDirectory
	router    Router
	scheduler FollowUpScheduler
	bus       events.Bus
	log       *logger.Logger
}

// New creates a new lead service. scheduler may be nil when no task queue is
// configured; follow-ups are then stored without a reminder.
func New(repo Repository, agencies ports.AgencyDirectory, router Router, scheduler FollowUpScheduler, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, agencies: agencies, router: router, scheduler: scheduler, bus: bus, log: log}
}

// Create persists a new lead and attempts routing. Routing failures are
// swallowed and logged; the lead always persists, unassigned on failure.
func (s *Service) Create(ctx context.Context, req transport.CreateLeadRequest, createdBy *uuid.UUID, source domain.Source) (transport.LeadResponse, error) {
	params := repository.CreateLeadParams{
		HomeownerName:   req.HomeownerName,
		HomeownerEmail:  req.HomeownerEmail,
		HomeownerPhone:  phone.NormalizeE164(req.HomeownerPhone),
		PropertyAddress: req.PropertyAddress,
		PropertyType:    req.PropertyType,
		PropertyValue:   req.PropertyValue,
		Source:          string(source),
		CreatedBy:       createdBy,
	}

	code := resolvePostcode(req.Postcode, req.PropertyAddress)
	if code != "" {
		params.Postcode = &code
	}

	return s.createLead(ctx, params)
}

// CreateFromImport is the single-lead creation path used by the bulk import
// orchestrator. The uploader's agency becomes the owning agency, so even a
// row whose routing fails stays visible to the importing admin, and routing
// stays within that agency.
func (s *Service) CreateFromImport(ctx context.Context, rec bulkimport.Record, ic bulkimport.Context) error {
	params := repository.CreateLeadParams{
		HomeownerName:   rec.HomeownerName,
		HomeownerEmail:  rec.HomeownerEmail,
		HomeownerPhone:  phone.NormalizeE164(rec.HomeownerPhone),
		PropertyAddress: rec.PropertyAddress,
		PropertyType:    rec.PropertyType,
		Source:          string(ic.Source),
		CreatedBy:       ic.CreatedBy,
		OwningAgencyID:  ic.AgencyID,
	}
	code := resolvePostcode(rec.Postcode, rec.PropertyAddress)
	if code != "" {
		params.Postcode = &code
	}

	_, err := s.createLead(ctx, params)
	return err
}

// createLead persists the lead, emits LeadCreated, and attempts routing.
func (s *Service) createLead(ctx context.Context, params repository.CreateLeadParams) (transport.LeadResponse, error) {
	lead, err := s.repo.Create(ctx, params)
	if err != nil {
		return transport.LeadResponse{}, err
	}

	created := events.LeadCreated{
		BaseEvent:      events.NewBaseEvent(),
		LeadID:         lead.ID,
		Source:         lead.Source,
		HomeownerName:  lead.HomeownerName,
		HomeownerEmail: lead.HomeownerEmail,
	}
	if lead.Postcode != nil {
		created.Postcode = *lead.Postcode
	}
	s.bus.Publish(ctx, created)

	lead = s.route(ctx, lead)
	return toResponse(lead), nil
}

// route runs the engine for a freshly created lead. A lead created with a
// preset owning agency routes within that agency instead of by postcode
// match. Any failure leaves the lead untouched and unassigned.
func (s *Service) route(ctx context.Context, lead repository.Lead) repository.Lead {
	var (
		res routing.Result
		err error
	)
	if lead.OwningAgencyID != nil {
		res, err = s.router.AssignToAgency(ctx, lead.ID, *lead.OwningAgencyID, nil)
	} else {
		res, err = s.router.Assign(ctx, routing.Input{
			LeadID:   lead.ID,
			Postcode: lead.Postcode,
			Address:  lead.PropertyAddress,
		}, nil)
	}
	if err != nil {
		if failure, ok := routing.AsFailure(err); ok {
			s.log.RoutingFailure(lead.ID.String(), failure.Reason)
		} else {
			s.log.RoutingFailure(lead.ID.String(), err.Error())
		}
		return lead
	}

	s.publishAssigned(ctx, lead.ID, res, nil)

	updated, err := s.repo.GetByID(ctx, lead.ID)
	if err != nil {
		return lead
	}
	return updated
}

// GetByID retrieves a lead the principal may read. Invisible and missing
// leads are indistinguishable to the caller.
func (s *Service) GetByID(ctx context.Context, principal httpkit.Principal, id uuid.UUID) (transport.LeadResponse, error) {
	lead, err := s.loadVisible(ctx, principal, id)
	if err != nil {
		return transport.LeadResponse{}, err
	}
	return toResponse(lead), nil
}

// List returns the leads visible to the principal, newest first, optionally
// narrowed by status and property type. The scope is recomputed on every call.
func (s *Service) List(ctx context.Context, principal httpkit.Principal, filters repository.ListFilters) ([]transport.LeadResponse, error) {
	scope, err := visibility.ScopeFor(principal)
	if err != nil {
		return nil, err
	}
	if filters.Status != nil && !domain.ValidStatus(domain.Status(*filters.Status)) {
		return nil, apperr.Validation("invalid status: " + *filters.Status)
	}
	leads, err := s.repo.List(ctx, scope, filters)
	if err != nil {
		return nil, err
	}
	return toResponses(leads), nil
}

// ListMine returns the leads whose homeowner email matches the principal's
// email. This is the sellers' path and bypasses role filtering.
func (s *Service) ListMine(ctx context.Context, principal httpkit.Principal) ([]transport.LeadResponse, error) {
	if principal.Email == "" {
		return nil, apperr.Unauthorized("authentication required")
	}
	leads, err := s.repo.ListByHomeownerEmail(ctx, principal.Email)
	if err != nil {
		return nil, err
	}
	return toResponses(leads), nil
}

// Update modifies lead fields. A status outside the four-value set is
// rejected.
func (s *Service) Update(ctx context.Context, principal httpkit.Principal, id uuid.UUID, req transport.UpdateLeadRequest) (transport.LeadResponse, error) {
	if _, err := s.loadVisible(ctx, principal, id); err != nil {
		return transport.LeadResponse{}, err
	}
	if req.Status != nil && !domain.ValidStatus(domain.Status(*req.Status)) {
		return transport.LeadResponse{}, apperr.Validation("invalid status: " + *req.Status)
	}

	params := repository.UpdateLeadParams{
		HomeownerName:   req.HomeownerName,
		HomeownerEmail:  req.HomeownerEmail,
		PropertyAddress: req.PropertyAddress,
		PropertyType:    req.PropertyType,
		PropertyValue:   req.PropertyValue,
		Status:          req.Status,
	}
	if req.HomeownerPhone != nil {
		normalized := phone.NormalizeE164(*req.HomeownerPhone)
		params.HomeownerPhone = &normalized
	}
	if req.Postcode != nil {
		params.Postcode = req.Postcode
		params.PostcodeSet = true
	}

	lead, err := s.repo.Update(ctx, id, params)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.LeadResponse{}, apperr.NotFound("lead not found")
		}
		return transport.LeadResponse{}, err
	}
	return toResponse(lead), nil
}

// UpdateStatus moves the lead to a new lifecycle status. Transitions are
// unconstrained within the fixed set.
func (s *Service) UpdateStatus(ctx context.Context, principal httpkit.Principal, id uuid.UUID, status string) (transport.LeadResponse, error) {
	return s.Update(ctx, principal, id, transport.UpdateLeadRequest{Status: &status})
}

// AddNote appends to the lead's note history.
func (s *Service) AddNote(ctx context.Context, principal httpkit.Principal, id uuid.UUID, body string) (transport.NoteResponse, error) {
	if _, err := s.loadVisible(ctx, principal, id); err != nil {
		return transport.NoteResponse{}, err
	}
	authorID := principal.UserID
	note, err := s.repo.AddNote(ctx, id, &authorID, body)
	if err != nil {
		return transport.NoteResponse{}, err
	}
	return transport.NoteResponse{ID: note.ID, AuthorID: note.AuthorID, Body: note.Body, CreatedAt: note.CreatedAt}, nil
}

// ListNotes returns the lead's note history, oldest first.
func (s *Service) ListNotes(ctx context.Context, principal httpkit.Principal, id uuid.UUID) ([]transport.NoteResponse, error) {
	if _, err := s.loadVisible(ctx, principal, id); err != nil {
		return nil, err
	}
	notes, err := s.repo.ListNotes(ctx, id)
	if err != nil {
		return nil, err
	}
	responses := make([]transport.NoteResponse, 0, len(notes))
	for _, note := range notes {
		responses = append(responses, transport.NoteResponse{
			ID: note.ID, AuthorID: note.AuthorID, Body: note.Body, CreatedAt: note.CreatedAt,
		})
	}
	return responses, nil
}

// ScheduleFollowUp stores the follow-up and enqueues a reminder when a task
// queue is wired. A reminder enqueue failure does not undo the stored date.
func (s *Service) ScheduleFollowUp(ctx context.Context, principal httpkit.Principal, id uuid.UUID, req transport.ScheduleFollowUpRequest) (transport.LeadResponse, error) {
	if _, err := s.loadVisible(ctx, principal, id); err != nil {
		return transport.LeadResponse{}, err
	}

	lead, err := s.repo.SetFollowUp(ctx, id, &req.FollowUpAt, req.Notes)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.LeadResponse{}, apperr.NotFound("lead not found")
		}
		return transport.LeadResponse{}, err
	}

	if s.scheduler != nil {
		if err := s.scheduler.ScheduleFollowUp(ctx, id, req.FollowUpAt); err != nil {
			s.log.Warn("followup_enqueue_failed", "lead_id", id.String(), "error", err.Error())
		}
	}
	return toResponse(lead), nil
}

// Reassign manually (re)runs assignment for a lead. With an explicit agency
// the lead routes into that agency, with fallback set it routes under the
// fallback policy, otherwise postcode routing reruns. Unlike creation-time
// routing, failures here surface to the caller.
func (s *Service) Reassign(ctx context.Context, principal httpkit.Principal, id uuid.UUID, req transport.ReassignRequest) (transport.LeadResponse, error) {
	lead, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.LeadResponse{}, apperr.NotFound("lead not found")
		}
		return transport.LeadResponse{}, err
	}

	if err := s.authorizeReassign(ctx, principal, lead, req); err != nil {
		return transport.LeadResponse{}, err
	}

	actor := principal.UserID
	var res routing.Result
	switch {
	case req.AgentID != nil:
		res, err = s.router.AssignToAgent(ctx, id, *req.AgentID, &actor)
	case req.AgencyID != nil:
		res, err = s.router.AssignToAgency(ctx, id, *req.AgencyID, &actor)
	case req.Fallback:
		res, err = s.router.AssignFallback(ctx, id, &actor)
	default:
		res, err = s.router.Assign(ctx, routing.Input{
			LeadID:   id,
			Postcode: lead.Postcode,
			Address:  lead.PropertyAddress,
		}, &actor)
	}
	if err != nil {
		if failure, ok := routing.AsFailure(err); ok {
			return transport.LeadResponse{}, apperr.BadRequest(failure.Error())
		}
		return transport.LeadResponse{}, err
	}

	s.publishAssigned(ctx, id, res, &actor)

	lead, err = s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.LeadResponse{}, err
	}
	return toResponse(lead), nil
}

// ListAssignments returns the lead's assignment history, oldest first.
func (s *Service) ListAssignments(ctx context.Context, principal httpkit.Principal, id uuid.UUID) ([]transport.AssignmentResponse, error) {
	if _, err := s.loadVisible(ctx, principal, id); err != nil {
		return nil, err
	}
	assignments, err := s.repo.ListAssignments(ctx, id)
	if err != nil {
		return nil, err
	}
	responses := make([]transport.AssignmentResponse, 0, len(assignments))
	for _, a := range assignments {
		responses = append(responses, toAssignmentResponse(a))
	}
	return responses, nil
}

// authorizeReassign enforces who may manually (re)assign a lead. System
// admins always may. Agency admins may when the lead is already owned by
// their agency, or when it is unowned and its postcode falls in their
// territory; fallback and cross-agency targeting stay admin-only.
func (s *Service) authorizeReassign(ctx context.Context, principal httpkit.Principal, lead repository.Lead, req transport.ReassignRequest) error {
	switch principal.Role {
	case httpkit.RoleSystemAdmin:
		return nil

	case httpkit.RoleAgencyAdmin:
		if principal.AgencyID == nil {
			return apperr.Forbidden("access denied")
		}
		if req.Fallback {
			return apperr.Forbidden("access denied")
		}
		if req.AgencyID != nil && *req.AgencyID != *principal.AgencyID {
			return apperr.Forbidden("access denied")
		}
		if lead.OwningAgencyID != nil {
			if *lead.OwningAgencyID != *principal.AgencyID {
				return apperr.Forbidden("access denied")
			}
			return nil
		}
		// Unowned lead: the admin may claim it only when its postcode falls
		// inside their agency's territory.
		if lead.Postcode == nil {
			return apperr.Forbidden("access denied")
		}
		serves, err := s.agencies.Serves(ctx, *principal.AgencyID, *lead.Postcode)
		if err != nil {
			return err
		}
		if !serves {
			return apperr.Forbidden("access denied")
		}
		return nil

	default:
		return apperr.Forbidden("access denied")
	}
}

// UpdateAssignmentStatus moves one assignment along its contact-progress
// lifecycle. Agents may only touch assignments handed to themselves; system
// admins may touch any.
func (s *Service) UpdateAssignmentStatus(ctx context.Context, principal httpkit.Principal, assignmentID uuid.UUID, req transport.UpdateAssignmentStatusRequest) (transport.AssignmentResponse, error) {
	if !domain.ValidAssignmentStatus(domain.AssignmentStatus(req.Status)) {
		return transport.AssignmentResponse{}, apperr.Validation("invalid assignment status: " + req.Status)
	}

	assignment, err := s.repo.GetAssignment(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.AssignmentResponse{}, apperr.NotFound("assignment not found")
		}
		return transport.AssignmentResponse{}, err
	}
	if !canTouchAssignment(principal, assignment) {
		return transport.AssignmentResponse{}, apperr.NotFound("assignment not found")
	}

	updated, err := s.repo.UpdateAssignmentStatus(ctx, assignmentID, req.Status, req.Notes)
	if err != nil {
		return transport.AssignmentResponse{}, err
	}
	return toAssignmentResponse(updated), nil
}

// ListMyAssignments returns the worklist of the agent record linked to the
// principal, newest first.
func (s *Service) ListMyAssignments(ctx context.Context, principal httpkit.Principal) ([]transport.AssignmentResponse, error) {
	if principal.AgentID == nil {
		return nil, apperr.Forbidden("no agent record linked to this account")
	}
	assignments, err := s.repo.ListAssignmentsForAgent(ctx, *principal.AgentID)
	if err != nil {
		return nil, err
	}
	responses := make([]transport.AssignmentResponse, 0, len(assignments))
	for _, a := range assignments {
		responses = append(responses, toAssignmentResponse(a))
	}
	return responses, nil
}

// canTouchAssignment reports whether the principal may mutate the assignment.
// Invisible assignments read as NotFound, same as invisible leads.
func canTouchAssignment(principal httpkit.Principal, a repository.Assignment) bool {
	if principal.Role == httpkit.RoleSystemAdmin {
		return true
	}
	return principal.AgentID != nil && *principal.AgentID == a.AgentID
}

// Delete hard-deletes a lead. Reserved for system admins at the route level.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("lead not found")
		}
		return err
	}
	return nil
}

// loadVisible fetches the lead and enforces single-lead access. Both an
// unknown id and an invisible lead come back as NotFound so callers cannot
// tell whether a hidden lead exists.
func (s *Service) loadVisible(ctx context.Context, principal httpkit.Principal, id uuid.UUID) (repository.Lead, error) {
	lead, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return repository.Lead{}, apperr.NotFound("lead not found")
		}
		return repository.Lead{}, err
	}

	var territory []string
	if principal.Role == httpkit.RoleAgencyAdmin && principal.AgencyID != nil {
		territory, err = s.agencies.PostcodesOf(ctx, *principal.AgencyID)
		if err != nil {
			return repository.Lead{}, err
		}
	}

	view := visibility.LeadView{
		OwningAgencyID:  lead.OwningAgencyID,
		AssignedAgentID: lead.AssignedAgentID,
		CreatedBy:       lead.CreatedBy,
		Source:          lead.Source,
		Postcode:        lead.Postcode,
	}
	if !visibility.CanAccess(principal, view, territory) {
		return repository.Lead{}, apperr.NotFound("lead not found")
	}
	return lead, nil
}

func (s *Service) publishAssigned(ctx context.Context, leadID uuid.UUID, res routing.Result, assignedBy *uuid.UUID) {
	s.bus.Publish(ctx, events.LeadAssigned{
		BaseEvent:  events.NewBaseEvent(),
		LeadID:     leadID,
		AgencyID:   res.AgencyID,
		AgentID:    res.AgentID,
		AgentName:  res.AgentName,
		AgentEmail: res.AgentEmail,
		AssignedBy: assignedBy,
	})
}

func resolvePostcode(explicit *string, address string) string {
	if explicit != nil {
		if code := domain.NormalizePostcode(*explicit); code != "" {
			return code
		}
	}
	return domain.ExtractPostcode(address)
}

func toResponse(lead repository.Lead) transport.LeadResponse {
	return transport.LeadResponse{
		ID:                lead.ID,
		HomeownerName:     lead.HomeownerName,
		HomeownerEmail:    lead.HomeownerEmail,
		HomeownerPhone:    lead.HomeownerPhone,
		PropertyAddress:   lead.PropertyAddress,
		Postcode:          lead.Postcode,
		PropertyType:      lead.PropertyType,
		PropertyValue:     lead.PropertyValue,
		Status:            lead.Status,
		Source:            lead.Source,
		OwningAgencyID:    lead.OwningAgencyID,
		AssignedAgentID:   lead.AssignedAgentID,
		AssignedAgentName: lead.AssignedAgentName,
		FollowUpAt:        lead.FollowUpAt,
		FollowUpNotes:     lead.FollowUpNotes,
		CreatedAt:         lead.CreatedAt,
		UpdatedAt:         lead.UpdatedAt,
	}
}

func toAssignmentResponse(a repository.Assignment) transport.AssignmentResponse {
	return transport.AssignmentResponse{
		ID:         a.ID,
		LeadID:     a.LeadID,
		AgentID:    a.AgentID,
		AssignedBy: a.AssignedBy,
		Status:     a.Status,
		Notes:      a.Notes,
		AssignedAt: a.AssignedAt,
	}
}

func toResponses(leads []repository.Lead) []transport.LeadResponse {
	responses := make([]transport.LeadResponse, 0, len(leads))
	for _, lead := range leads {
		responses = append(responses, toResponse(lead))
	}
	return responses
}
