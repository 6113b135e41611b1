package handler

import (
	"io"
	"net/http"

	"leadbroker_backend/internal/leads/bulkimport"
	"leadbroker_backend/internal/leads/domain"
	"leadbroker_backend/internal/leads/repository"
	"leadbroker_backend/internal/leads/service"
	"leadbroker_backend/internal/leads/transport"
	"leadbroker_backend/platform/httpkit"
	"leadbroker_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid lead id"

	// maxImportBytes caps one CSV upload at 5 MiB.
	maxImportBytes = 5 << 20
)

type Handler struct {
	svc      *service.Service
	importer *bulkimport.Importer
	val      *validator.Validator
}

func New(svc *service.Service, importer *bulkimport.Importer, val *validator.Validator) *Handler {
	return &Handler{svc: svc, importer: importer, val: val}
}

// CreatePublic handles the unauthenticated homeowner appraisal form.
func (h *Handler) CreatePublic(c *gin.Context) {
	req, ok := h.bindCreate(c)
	if !ok {
		return
	}

	lead, err := h.svc.Create(c.Request.Context(), req, nil, domain.SourcePublic)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, lead)
}

// Create handles authenticated lead entry by an agent.
func (h *Handler) Create(c *gin.Context) {
	principal, ok := httpkit.MustGetPrincipal(c)
	if !ok {
		return
	}
	req, ok := h.bindCreate(c)
	if !ok {
		return
	}

	createdBy := principal.UserID
	lead, err := h.svc.Create(c.Request.Context(), req, &createdBy, domain.SourceAgentCreated)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, lead)
}

func (h *Handler) bindCreate(c *gin.Context) (transport.CreateLeadRequest, bool) {
	var req transport.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return req, false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return req, false
	}
	return req, true
}

func (h *Handler) List(c *gin.Context) {
	principal, ok := httpkit.MustGetPrincipal(c)
	if !ok {
		return
	}
	var filters repository.ListFilters
	if v := c.Query("status"); v != "" {
		filters.Status = &v
	}
	if v := c.Query("propertyType"); v != "" {
		filters.PropertyType = &v
	}
	leads, err := h.svc.List(c.Request.Context(), principal, filters)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, leads)
}

// ListMine returns the leads matching the caller's own email. This is how
// sellers see their submissions.
func (h *Handler) ListMine(c *gin.Context) {
	principal, ok := httpkit.MustGetPrincipal(c)
	if !ok {
		return
	}
	leads, err := h.svc.ListMine(c.Request.Context(), principal)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, leads)
}

func (h *Handler) GetByID(c *gin.Context) {
	principal, id, ok := h.principalAndID(c)
	if !ok {
		return
	}
	lead, err := h.svc.GetByID(c.Request.Context(), principal, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, lead)
}

func (h *Handler) Update(c *gin.Context) {
	principal, id, ok := h.principalAndID(c)
	if !ok {
		return
	}

	var req transport.UpdateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	lead, err := h.svc.Update(c.Request.Context(), principal, id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, lead)
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	principal, id, ok := h.principalAndID(c)
	if !ok {
		return
	}

	var req transport.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	lead, err := h.svc.UpdateStatus(c.Request.Context(), principal, id, req.Status)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, lead)
}

func (h *Handler) AddNote(c *gin.Context) {
	principal, id, ok := h.principalAndID(c)
	if !ok {
		return
	}

	var req transport.AddNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	note, err := h.svc.AddNote(c.Request.Context(), principal, id, req.Body)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, note)
}

func (h *Handler) ListNotes(c *gin.Context) {
	principal, id, ok := h.principalAndID(c)
	if !ok {
		return
	}
	notes, err := h.svc.ListNotes(c.Request.Context(), principal, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, notes)
}

func (h *Handler) ScheduleFollowUp(c *gin.Context) {
	principal, id, ok := h.principalAndID(c)
	if !ok {
		return
	}

	var req transport.ScheduleFollowUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	lead, err := h.svc.ScheduleFollowUp(c.Request.Context(), principal, id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, lead)
}

func (h *Handler) ListAssignments(c *gin.Context) {
	principal, id, ok := h.principalAndID(c)
	if !ok {
		return
	}
	assignments, err := h.svc.ListAssignments(c.Request.Context(), principal, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, assignments)
}

// ListMyAssignments returns the caller's own assignment worklist.
func (h *Handler) ListMyAssignments(c *gin.Context) {
	principal, ok := httpkit.MustGetPrincipal(c)
	if !ok {
		return
	}
	assignments, err := h.svc.ListMyAssignments(c.Request.Context(), principal)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, assignments)
}

// UpdateAssignmentStatus lets an agent progress one of their assignments
// through pending, contacted, closed, or lost.
func (h *Handler) UpdateAssignmentStatus(c *gin.Context) {
	principal, ok := httpkit.MustGetPrincipal(c)
	if !ok {
		return
	}
	assignmentID, err := uuid.Parse(c.Param("assignmentId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid assignment id", nil)
		return
	}

	var req transport.UpdateAssignmentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	assignment, err := h.svc.UpdateAssignmentStatus(c.Request.Context(), principal, assignmentID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, assignment)
}

func (h *Handler) Reassign(c *gin.Context) {
	principal, id, ok := h.principalAndID(c)
	if !ok {
		return
	}

	var req transport.ReassignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	lead, err := h.svc.Reassign(c.Request.Context(), principal, id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, lead)
}

func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}
	if httpkit.HandleError(c, h.svc.Delete(c.Request.Context(), id)) {
		return
	}
	c.Status(http.StatusNoContent)
}

// Import accepts a CSV upload, either as a multipart "file" part or as the
// raw request body, and processes it row by row. The response always carries
// counts plus per-row errors, partial success included.
func (h *Handler) Import(c *gin.Context) {
	principal, ok := httpkit.MustGetPrincipal(c)
	if !ok {
		return
	}
	if principal.Role != httpkit.RoleAgencyAdmin && principal.Role != httpkit.RoleAgent && principal.Role != httpkit.RoleSystemAdmin {
		httpkit.Error(c, http.StatusForbidden, "role may not import leads", nil)
		return
	}

	raw, ok := h.readUpload(c)
	if !ok {
		return
	}

	createdBy := principal.UserID
	ic := bulkimport.Context{
		AgencyID:  principal.AgencyID,
		CreatedBy: &createdBy,
		Source:    domain.SourceAgencyUpload,
	}
	if principal.Role == httpkit.RoleAgent {
		ic.Source = domain.SourceAgentCreated
	}

	res := h.importer.Import(c.Request.Context(), raw, ic)
	httpkit.OK(c, toImportResponse(res))
}

func (h *Handler) readUpload(c *gin.Context) (string, bool) {
	reader := io.Reader(c.Request.Body)

	if file, _, err := c.Request.FormFile("file"); err == nil {
		defer file.Close()
		reader = file
	}

	raw, err := io.ReadAll(io.LimitReader(reader, maxImportBytes+1))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "unreadable upload", nil)
		return "", false
	}
	if len(raw) > maxImportBytes {
		httpkit.Error(c, http.StatusRequestEntityTooLarge, "upload exceeds 5 MiB", nil)
		return "", false
	}
	return string(raw), true
}

func (h *Handler) principalAndID(c *gin.Context) (httpkit.Principal, uuid.UUID, bool) {
	principal, ok := httpkit.MustGetPrincipal(c)
	if !ok {
		return httpkit.Principal{}, uuid.Nil, false
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return httpkit.Principal{}, uuid.Nil, false
	}
	return principal, id, true
}

func toImportResponse(res bulkimport.Result) transport.ImportResponse {
	out := transport.ImportResponse{
		SuccessCount: res.SuccessCount,
		ErrorCount:   res.ErrorCount,
		Errors:       make([]transport.ImportRowError, 0, len(res.Errors)),
	}
	for _, e := range res.Errors {
		out.Errors = append(out.Errors, transport.ImportRowError{Row: e.Row, Message: e.Message})
	}
	return out
}
