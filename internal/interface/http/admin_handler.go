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

// AdminHandler serves user, invite and group management. All routes sit
// behind the admin middleware; readonly admins are blocked from writes.
type AdminHandler struct {
	Users   *application.UserService
	Invites *application.InviteService
	Groups  *application.GroupService
	Logger  *logrus.Logger
}

func NewAdminHandler(users *application.UserService, invites *application.InviteService, groups *application.GroupService, logger *logrus.Logger) *AdminHandler {
	return &AdminHandler{Users: users, Invites: invites, Groups: groups, Logger: logger}
}

func (h *AdminHandler) blockReadonly(c *gin.Context) bool {
	if c.GetBool("isReadonly") {
		response.Fail[any](c, http.StatusForbidden, "readonly administrator", nil)
		return true
	}
	return false
}

func pageParams(c *gin.Context) (offset, limit int) {
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return offset, limit
}

// ListUsers GET /api/admin/users
func (h *AdminHandler) ListUsers(c *gin.Context) {
	offset, limit := pageParams(c)
	users, err := h.Users.ListUsers(offset, limit)
	if err != nil {
		h.Logger.WithError(err).Error("user list failed")
		response.Fail[any](c, http.StatusInternalServerError, "user list failed", nil)
		return
	}
	response.Success(c, http.StatusOK, viewUsers(users), "users",
		map[string]any{"offset": offset, "limit": limit})
}

// GetUser GET /api/admin/users/:id
func (h *AdminHandler) GetUser(c *gin.Context) {
	u, err := h.Users.GetProfile(c.Param("id"))
	if err != nil {
		response.Fail[any](c, http.StatusNotFound, "user not found", nil)
		return
	}
	response.Success(c, http.StatusOK, viewUser(u), "user", nil)
}

type createUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"omitempty,pwd"`

	Role     string `json:"role"`
	Phone    string `json:"phone" binding:"omitempty,phone"`
	Language string `json:"language"`
	TimeZone string `json:"timezone"`

	IsInternal      bool `json:"is_internal"`
	IsAdministrator bool `json:"is_administrator"`
	IsReadonly      bool `json:"is_readonly"`

	GroupIDs []string `json:"group_ids"`
}

// CreateUser POST /api/admin/users
func (h *AdminHandler) CreateUser(c *gin.Context) {
	if h.blockReadonly(c) {
		return
	}
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	u, err := h.Users.CreateUser(application.CreateUserInput{
		Email:           req.Email,
		Name:            req.Name,
		Password:        req.Password,
		Role:            req.Role,
		Phone:           req.Phone,
		Language:        req.Language,
		TimeZone:        req.TimeZone,
		IsInternal:      req.IsInternal,
		IsAdministrator: req.IsAdministrator,
		IsReadonly:      req.IsReadonly,
		GroupIDs:        req.GroupIDs,
	})
	if err != nil {
		if errors.Is(err, application.ErrEmailTaken) {
			response.Fail[any](c, http.StatusConflict, "email already registered", nil)
			return
		}
		h.Logger.WithError(err).Error("user creation failed")
		response.Fail[any](c, http.StatusInternalServerError, "user creation failed", nil)
		return
	}
	response.Success(c, http.StatusCreated, viewUser(u), "user created", nil)
}

type adminUpdateUserRequest struct {
	Email    *string `json:"email" binding:"omitempty,email"`
	Name     *string `json:"name"`
	Phone    *string `json:"phone" binding:"omitempty,phone"`
	Language *string `json:"language"`
	TimeZone *string `json:"timezone"`

	GroupIDs []string `json:"group_ids"`
}

// UpdateUser PUT /api/admin/users/:id
func (h *AdminHandler) UpdateUser(c *gin.Context) {
	if h.blockReadonly(c) {
		return
	}
	id := c.Param("id")
	var req adminUpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	u, err := h.Users.UpdateProfile(c.Request.Context(), id, application.UpdateProfileInput{
		Email:    req.Email,
		Name:     req.Name,
		Phone:    req.Phone,
		Language: req.Language,
		TimeZone: req.TimeZone,
	})
	if err != nil {
		switch {
		case errors.Is(err, application.ErrUserNotFound):
			response.Fail[any](c, http.StatusNotFound, "user not found", nil)
		case errors.Is(err, application.ErrEmailTaken):
			response.Fail[any](c, http.StatusConflict, "email already registered", nil)
		default:
			h.Logger.WithError(err).WithField("user", id).Error("admin user update failed")
			response.Fail[any](c, http.StatusInternalServerError, "user update failed", nil)
		}
		return
	}

	if req.GroupIDs != nil {
		if err := h.Users.SetGroups(id, req.GroupIDs); err != nil {
			h.Logger.WithError(err).WithField("user", id).Error("group assignment failed")
			response.Fail[any](c, http.StatusInternalServerError, "group assignment failed", nil)
			return
		}
		u, _ = h.Users.GetProfile(id)
	}
	response.Success(c, http.StatusOK, viewUser(u), "user updated", nil)
}

// DeleteUser DELETE /api/admin/users/:id
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	if h.blockReadonly(c) {
		return
	}
	id := c.Param("id")
	if id == c.GetString("userID") {
		response.Fail[any](c, http.StatusBadRequest, "cannot delete yourself", nil)
		return
	}
	if err := h.Users.DeleteUser(c.Request.Context(), id); err != nil {
		if errors.Is(err, application.ErrUserNotFound) {
			response.Fail[any](c, http.StatusNotFound, "user not found", nil)
			return
		}
		h.Logger.WithError(err).WithField("user", id).Error("user delete failed")
		response.Fail[any](c, http.StatusInternalServerError, "user delete failed", nil)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"deleted": true}, "user deleted", nil)
}

type setActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// SetActive POST /api/admin/users/:id/active
func (h *AdminHandler) SetActive(c *gin.Context) {
	if h.blockReadonly(c) {
		return
	}
	id := c.Param("id")
	var req setActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if err := h.Users.SetActive(c.Request.Context(), id, *req.Active); err != nil {
		if errors.Is(err, application.ErrUserNotFound) {
			response.Fail[any](c, http.StatusNotFound, "user not found", nil)
			return
		}
		h.Logger.WithError(err).WithField("user", id).Error("active flag update failed")
		response.Fail[any](c, http.StatusInternalServerError, "update failed", nil)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"active": *req.Active}, "user updated", nil)
}

type setPasswordRequest struct {
	Password string `json:"password" binding:"omitempty,pwd"`
	Unusable bool   `json:"unusable"`
}

// SetPassword POST /api/admin/users/:id/password
// Either a new password or unusable=true to disable password login.
func (h *AdminHandler) SetPassword(c *gin.Context) {
	if h.blockReadonly(c) {
		return
	}
	id := c.Param("id")
	var req setPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	var err error
	switch {
	case req.Unusable:
		err = h.Users.SetUnusablePassword(id)
	case req.Password != "":
		err = h.Users.SetPassword(id, req.Password)
	default:
		response.Fail[any](c, http.StatusBadRequest, "password or unusable required", nil)
		return
	}
	if err != nil {
		if errors.Is(err, application.ErrUserNotFound) {
			response.Fail[any](c, http.StatusNotFound, "user not found", nil)
			return
		}
		h.Logger.WithError(err).WithField("user", id).Error("password update failed")
		response.Fail[any](c, http.StatusInternalServerError, "password update failed", nil)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"updated": true}, "password updated", nil)
}

type createInviteRequest struct {
	Email           string   `json:"email" binding:"required,email"`
	GroupIDs        []string `json:"group_ids"`
	IsInternal      bool     `json:"is_internal"`
	IsAdministrator bool     `json:"is_administrator"`
}

// CreateInvite POST /api/admin/invites
func (h *AdminHandler) CreateInvite(c *gin.Context) {
	if h.blockReadonly(c) {
		return
	}
	var req createInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	inv, err := h.Invites.CreateAndSend(c.Request.Context(), application.CreateInviteInput{
		Email:           req.Email,
		GroupIDs:        req.GroupIDs,
		IsInternal:      req.IsInternal,
		IsAdministrator: req.IsAdministrator,
		SentByID:        c.GetString("userID"),
	})
	if err != nil {
		h.Logger.WithError(err).Error("invite creation failed")
		response.Fail[any](c, http.StatusInternalServerError, "invite creation failed", nil)
		return
	}
	response.Success(c, http.StatusCreated, viewInvite(inv), "invite created", nil)
}

// ListInvites GET /api/admin/invites
func (h *AdminHandler) ListInvites(c *gin.Context) {
	offset, limit := pageParams(c)
	invites, err := h.Invites.List(offset, limit)
	if err != nil {
		h.Logger.WithError(err).Error("invite list failed")
		response.Fail[any](c, http.StatusInternalServerError, "invite list failed", nil)
		return
	}
	response.Success(c, http.StatusOK, viewInvites(invites), "invites",
		map[string]any{"offset": offset, "limit": limit})
}

// ResendInvite POST /api/admin/invites/:id/resend
func (h *AdminHandler) ResendInvite(c *gin.Context) {
	if h.blockReadonly(c) {
		return
	}
	id := c.Param("id")
	inv, err := h.Invites.Resend(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, application.ErrUnknownInvite):
			response.Fail[any](c, http.StatusNotFound, "unknown invite", nil)
		case errors.Is(err, application.ErrInviteConsumed):
			response.Fail[any](c, http.StatusConflict, "invite already used", nil)
		default:
			h.Logger.WithError(err).WithField("invite", id).Error("invite resend failed")
			response.Fail[any](c, http.StatusInternalServerError, "invite resend failed", nil)
		}
		return
	}
	response.Success(c, http.StatusOK, viewInvite(inv), "invite resent", nil)
}

type groupRequest struct {
	Name string `json:"name" binding:"required"`
}

// ListGroups GET /api/admin/groups
func (h *AdminHandler) ListGroups(c *gin.Context) {
	groups, err := h.Groups.List()
	if err != nil {
		h.Logger.WithError(err).Error("group list failed")
		response.Fail[any](c, http.StatusInternalServerError, "group list failed", nil)
		return
	}
	response.Success(c, http.StatusOK, groups, "groups", nil)
}

// CreateGroup POST /api/admin/groups
func (h *AdminHandler) CreateGroup(c *gin.Context) {
	if h.blockReadonly(c) {
		return
	}
	var req groupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	g, err := h.Groups.Create(req.Name)
	if err != nil {
		if errors.Is(err, application.ErrGroupExists) {
			response.Fail[any](c, http.StatusConflict, "group name already exists", nil)
			return
		}
		h.Logger.WithError(err).Error("group creation failed")
		response.Fail[any](c, http.StatusInternalServerError, "group creation failed", nil)
		return
	}
	response.Success(c, http.StatusCreated, g, "group created", nil)
}

// RenameGroup PUT /api/admin/groups/:id
func (h *AdminHandler) RenameGroup(c *gin.Context) {
	if h.blockReadonly(c) {
		return
	}
	id := c.Param("id")
	var req groupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if err := h.Groups.Rename(id, req.Name); err != nil {
		switch {
		case errors.Is(err, application.ErrGroupNotFound):
			response.Fail[any](c, http.StatusNotFound, "group not found", nil)
		case errors.Is(err, application.ErrGroupExists):
			response.Fail[any](c, http.StatusConflict, "group name already exists", nil)
		default:
			h.Logger.WithError(err).WithField("group", id).Error("group rename failed")
			response.Fail[any](c, http.StatusInternalServerError, "group rename failed", nil)
		}
		return
	}
	g, _ := h.Groups.Get(id)
	response.Success(c, http.StatusOK, g, "group renamed", nil)
}

// DeleteGroup DELETE /api/admin/groups/:id
func (h *AdminHandler) DeleteGroup(c *gin.Context) {
	if h.blockReadonly(c) {
		return
	}
	id := c.Param("id")
	if err := h.Groups.Delete(id); err != nil {
		if errors.Is(err, application.ErrGroupNotFound) {
			response.Fail[any](c, http.StatusNotFound, "group not found", nil)
			return
		}
		h.Logger.WithError(err).WithField("group", id).Error("group delete failed")
		response.Fail[any](c, http.StatusInternalServerError, "group delete failed", nil)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"deleted": true}, "group deleted", nil)
}
