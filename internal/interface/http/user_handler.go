package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/tabbli/accounts/internal/application"
	"github.com/tabbli/accounts/pkg/response"
	"github.com/tabbli/accounts/pkg/validation"
)

// UserHandler serves the signed-in user's own profile, avatar and search.
type UserHandler struct {
	Svc    *application.UserService
	Logger *logrus.Logger
}

func NewUserHandler(svc *application.UserService, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger}
}

// GetProfile GET /api/profile
func (h *UserHandler) GetProfile(c *gin.Context) {
	uid := c.GetString("userID")
	u, err := h.Svc.GetProfile(uid)
	if err != nil {
		response.Fail[any](c, http.StatusNotFound, "user not found", nil)
		return
	}
	linked, _ := h.Svc.SocialProfiles(uid)
	response.Success(c, http.StatusOK, gin.H{
		"user":   viewUser(u),
		"social": linked,
	}, "profile", nil)
}

type updateProfileRequest struct {
	Email    *string        `json:"email" binding:"omitempty,email"`
	Name     *string        `json:"name"`
	Phone    *string        `json:"phone" binding:"omitempty,phone"`
	Language *string        `json:"language"`
	TimeZone *string        `json:"timezone"`
	Data     map[string]any `json:"data"`

	HiddenSectionKeys []string `json:"hidden_section_keys"`
	HiddenSiteKeys    []string `json:"hidden_site_keys"`
}

// UpdateProfile PUT /api/profile
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	uid := c.GetString("userID")
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	u, err := h.Svc.UpdateProfile(c.Request.Context(), uid, application.UpdateProfileInput{
		Email:             req.Email,
		Name:              req.Name,
		Phone:             req.Phone,
		Language:          req.Language,
		TimeZone:          req.TimeZone,
		Data:              req.Data,
		HiddenSectionKeys: req.HiddenSectionKeys,
		HiddenSiteKeys:    req.HiddenSiteKeys,
	})
	if err != nil {
		switch {
		case errors.Is(err, application.ErrEmailTaken):
			response.Fail[any](c, http.StatusConflict, "email already registered", nil)
		case errors.Is(err, application.ErrMissingEmail):
			response.Fail[any](c, http.StatusBadRequest, "email cannot be empty", nil)
		case errors.Is(err, application.ErrUserNotFound):
			response.Fail[any](c, http.StatusNotFound, "user not found", nil)
		default:
			h.Logger.WithError(err).WithField("user", uid).Error("profile update failed")
			response.Fail[any](c, http.StatusInternalServerError, "profile update failed", nil)
		}
		return
	}
	response.Success(c, http.StatusOK, viewUser(u), "profile updated", nil)
}

// UploadAvatar POST /api/profile/avatar (multipart, field "avatar")
func (h *UserHandler) UploadAvatar(c *gin.Context) {
	uid := c.GetString("userID")

	file, err := c.FormFile("avatar")
	if err != nil {
		response.Fail[any](c, http.StatusBadRequest, "missing avatar file", nil)
		return
	}
	src, err := file.Open()
	if err != nil {
		response.Fail[any](c, http.StatusBadRequest, "unreadable avatar file", nil)
		return
	}
	defer src.Close()

	u, err := h.Svc.UploadAvatar(c.Request.Context(), uid, file.Filename,
		file.Header.Get("Content-Type"), src)
	if err != nil {
		h.Logger.WithError(err).WithField("user", uid).Error("avatar upload failed")
		response.Fail[any](c, http.StatusInternalServerError, "avatar upload failed", nil)
		return
	}
	response.Success(c, http.StatusOK, viewUser(u), "avatar updated", nil)
}

// RemoveAvatar DELETE /api/profile/avatar
func (h *UserHandler) RemoveAvatar(c *gin.Context) {
	uid := c.GetString("userID")
	u, err := h.Svc.RemoveAvatar(c.Request.Context(), uid)
	if err != nil {
		h.Logger.WithError(err).WithField("user", uid).Error("avatar removal failed")
		response.Fail[any](c, http.StatusInternalServerError, "avatar removal failed", nil)
		return
	}
	response.Success(c, http.StatusOK, viewUser(u), "avatar removed", nil)
}

// Search GET /api/users/search?q=&from=&size=
func (h *UserHandler) Search(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		response.Fail[any](c, http.StatusBadRequest, "missing query", nil)
		return
	}
	from, _ := strconv.Atoi(c.DefaultQuery("from", "0"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))

	docs, err := h.Svc.SearchUsers(c.Request.Context(), q, from, size)
	if err != nil {
		h.Logger.WithError(err).Error("user search failed")
		response.Fail[any](c, http.StatusInternalServerError, "search failed", nil)
		return
	}
	response.Success(c, http.StatusOK, docs, "search results",
		map[string]any{"from": from, "size": size, "count": len(docs)})
}
