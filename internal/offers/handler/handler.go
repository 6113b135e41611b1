package handler

import (
	"net/http"

	"leadbroker_backend/internal/offers/service"
	"leadbroker_backend/internal/offers/transport"
	"leadbroker_backend/platform/httpkit"
	"leadbroker_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidLeadID    = "invalid lead id"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

func (h *Handler) Create(c *gin.Context) {
	principal, ok := httpkit.MustGetPrincipal(c)
	if !ok {
		return
	}

	var req transport.CreateOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	offer, err := h.svc.Create(c.Request.Context(), principal, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, offer)
}

func (h *Handler) ListByLead(c *gin.Context) {
	leadID, err := uuid.Parse(c.Param("leadId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidLeadID, nil)
		return
	}

	offers, err := h.svc.ListByLead(c.Request.Context(), leadID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, offers)
}
