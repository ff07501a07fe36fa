package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/tabbli/accounts/internal/application"
	"github.com/tabbli/accounts/internal/domain/entity"
	"github.com/tabbli/accounts/pkg/helpers"
	"github.com/tabbli/accounts/pkg/response"
	"github.com/tabbli/accounts/pkg/validation"
)

// AuthHandler serves login, registration, social sign-in and the session
// lifecycle.
type AuthHandler struct {
	Svc     *application.UserService
	Logger  *logrus.Logger
	Cookies *helpers.Manager
}

func NewAuthHandler(svc *application.UserService, logger *logrus.Logger, cookieDomain string, cookieSecure bool) *AuthHandler {
	return &AuthHandler{Svc: svc, Logger: logger, Cookies: helpers.NewCookie(cookieDomain, cookieSecure)}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login POST /api/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	u, pair, err := h.Svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, application.ErrInvalidCredentials) {
			response.Fail[any](c, http.StatusUnauthorized, "invalid credentials", nil)
			return
		}
		h.Logger.WithError(err).Error("login failed")
		response.Fail[any](c, http.StatusInternalServerError, "login failed", nil)
		return
	}

	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessExpires, pair.RefreshToken, pair.RefreshExpires)
	response.Success(c, http.StatusOK, viewUser(u), "login successful",
		map[string]any{"access_expires_at": pair.AccessExpires, "refresh_expires_at": pair.RefreshExpires})
}

type registerRequest struct {
	InviteCode string `json:"invite_code" binding:"required"`
	Email      string `json:"email" binding:"omitempty,email"`
	Name       string `json:"name" binding:"required"`
	Password   string `json:"password" binding:"required,pwd"`
}

// Register POST /api/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	u, err := h.Svc.Register(application.RegisterInput{
		InviteCode: req.InviteCode,
		Email:      req.Email,
		Name:       req.Name,
		Password:   req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, application.ErrUnknownInvite):
			response.Fail[any](c, http.StatusNotFound, "unknown invite code", nil)
		case errors.Is(err, application.ErrInviteConsumed):
			response.Fail[any](c, http.StatusConflict, "invite code already used", nil)
		case errors.Is(err, application.ErrEmailTaken):
			response.Fail[any](c, http.StatusConflict, "email already registered", nil)
		default:
			h.Logger.WithError(err).Error("registration failed")
			response.Fail[any](c, http.StatusInternalServerError, "registration failed", nil)
		}
		return
	}

	pair, err := h.Svc.IssueTokens(c.Request.Context(), u.ID)
	if err != nil {
		h.Logger.WithError(err).Error("session open after registration failed")
		response.Success(c, http.StatusCreated, viewUser(u), "registered", nil)
		return
	}
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessExpires, pair.RefreshToken, pair.RefreshExpires)
	response.Success(c, http.StatusCreated, viewUser(u), "registered", nil)
}

type socialRequest struct {
	Email       string `json:"email"`
	Name        string `json:"name"`
	ProviderUID string `json:"provider_uid"`
	AccessToken string `json:"access_token"`
	Secret      string `json:"secret" binding:"required"`
}

// SocialFacebook POST /api/login/facebook
func (h *AuthHandler) SocialFacebook(c *gin.Context) {
	h.social(c, entity.ProviderFacebook)
}

// SocialGoogle POST /api/login/google
func (h *AuthHandler) SocialGoogle(c *gin.Context) {
	h.social(c, entity.ProviderGoogle)
}

func (h *AuthHandler) social(c *gin.Context, provider string) {
	var req socialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	res, err := h.Svc.ResolveSocial(c.Request.Context(), application.SocialSignInInput{
		Provider:      provider,
		Email:         req.Email,
		Name:          req.Name,
		ProviderUID:   req.ProviderUID,
		AccessToken:   req.AccessToken,
		Secret:        req.Secret,
		SessionUserID: sessionUserID(c, h.Svc),
	})
	if err != nil {
		switch {
		case errors.Is(err, application.ErrAlreadyAuthenticated):
			response.Fail[any](c, http.StatusConflict, "already logged in", nil)
		case errors.Is(err, application.ErrMissingEmail):
			response.Fail[any](c, http.StatusBadRequest, "provider did not supply an email", nil)
		case errors.Is(err, application.ErrInvalidCredentials):
			response.Fail[any](c, http.StatusUnauthorized, "invalid credentials", nil)
		default:
			h.Logger.WithError(err).WithField("provider", provider).Error("social sign-in failed")
			response.Fail[any](c, http.StatusInternalServerError, "sign-in failed", nil)
		}
		return
	}

	h.Cookies.SetPair(c, res.Tokens.AccessToken, res.Tokens.AccessExpires,
		res.Tokens.RefreshToken, res.Tokens.RefreshExpires)

	status := http.StatusOK
	if res.New {
		status = http.StatusCreated
	}
	response.Success(c, status, gin.H{
		"user":         viewUser(res.User),
		"new":          res.New,
		"redirect_url": res.RedirectURL,
	}, "signed in", nil)
}

// Refresh POST /api/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	refresh, err := c.Cookie("refresh_token")
	if err != nil || refresh == "" {
		response.Fail[any](c, http.StatusUnauthorized, "missing refresh token", nil)
		return
	}
	pair, err := h.Svc.Refresh(c.Request.Context(), refresh)
	if err != nil {
		response.Fail[any](c, http.StatusUnauthorized, "invalid refresh token", nil)
		return
	}
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessExpires, pair.RefreshToken, pair.RefreshExpires)
	response.Success[any](c, http.StatusOK, gin.H{"refreshed": true}, "token refreshed",
		map[string]any{"access_expires_at": pair.AccessExpires, "refresh_expires_at": pair.RefreshExpires})
}

// Logout POST /api/logout (auth required)
func (h *AuthHandler) Logout(c *gin.Context) {
	uid := c.GetString("userID")
	if uid != "" {
		if err := h.Svc.Logout(c.Request.Context(), uid); err != nil {
			h.Logger.WithError(err).WithField("user", uid).Warn("session drop failed")
		}
	}
	h.Cookies.Clear(c)
	response.Success[any](c, http.StatusOK, gin.H{"logged_out": true}, "logged out", nil)
}

// sessionUserID resolves the caller's user id from a valid access cookie,
// for routes that are public but behave differently for signed-in users.
func sessionUserID(c *gin.Context, svc *application.UserService) string {
	if uid := c.GetString("userID"); uid != "" {
		return uid
	}
	token, err := c.Cookie("access_token")
	if err != nil || token == "" {
		return ""
	}
	claims, err := svc.ParseAccessToken(token)
	if err != nil {
		return ""
	}
	if err := svc.ValidateSession(c.Request.Context(), claims); err != nil {
		return ""
	}
	return claims.UserID
}
