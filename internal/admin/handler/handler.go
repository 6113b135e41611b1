package handler

import (
	"leadbroker_backend/internal/admin/service"
	"leadbroker_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc *service.Service
}

func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Overview(c *gin.Context) {
	overview, err := h.svc.Overview(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, overview)
}
