package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/tabbli/accounts/internal/application"
	"github.com/tabbli/accounts/pkg/response"
)

// InviteHandler serves the public invite lookup used by the registration
// page.
type InviteHandler struct {
	Svc    *application.InviteService
	Logger *logrus.Logger
}

func NewInviteHandler(svc *application.InviteService, logger *logrus.Logger) *InviteHandler {
	return &InviteHandler{Svc: svc, Logger: logger}
}

// Lookup GET /api/invites/:code
// Exposes only what the registration form needs to prefill; the invite's
// flags and groups stay private.
func (h *InviteHandler) Lookup(c *gin.Context) {
	code := c.Param("code")
	inv, err := h.Svc.GetByCode(code)
	if err != nil {
		if errors.Is(err, application.ErrUnknownInvite) {
			response.Fail[any](c, http.StatusNotFound, "unknown invite code", nil)
			return
		}
		h.Logger.WithError(err).Error("invite lookup failed")
		response.Fail[any](c, http.StatusInternalServerError, "invite lookup failed", nil)
		return
	}
	if inv.Consumed() {
		response.Fail[any](c, http.StatusConflict, "invite code already used", nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"email": inv.Email, "code": inv.Code}, "invite", nil)
}
