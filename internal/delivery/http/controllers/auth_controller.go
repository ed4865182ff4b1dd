package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	h "eventx/internal/delivery/http/helpers"
	"eventx/internal/delivery/http/middleware"
	"eventx/internal/domain"
)

// LoginRequest is the request body for POST /auth/login
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate implements Validator.
func (l LoginRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(l.Username) == "" {
		errs = append(errs, "username is required")
	}
	if l.Password == "" {
		errs = append(errs, "password is required")
	}
	return errs
}

// LoginResponse is the response body for POST /auth/login
type LoginResponse struct {
	Token     string       `json:"token"`
	TokenType string       `json:"token_type"`
	User      *domain.User `json:"user"`
}

// MeResponse is the response body for GET /auth/me
type MeResponse struct {
	User *domain.User `json:"user"`
	Club *domain.Club `json:"club,omitempty"`
}

// ChangePasswordRequest is the request body for POST /auth/password
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// Validate implements Validator.
func (c ChangePasswordRequest) Validate() []string {
	var errs []string
	if c.CurrentPassword == "" {
		errs = append(errs, "current_password is required")
	}
	if len(c.NewPassword) < 8 {
		errs = append(errs, "new_password must be at least 8 characters")
	}
	return errs
}

type AuthController struct {
	Logger         *slog.Logger
	Service        domain.AuthService
	ExposeInternal bool
}

func NewAuthController(logger *slog.Logger, svc domain.AuthService, exposeInternal bool) *AuthController {
	return &AuthController{
		Logger:         logger,
		Service:        svc,
		ExposeInternal: exposeInternal,
	}
}

// Login godoc
// @Summary Log in
// @Description Authenticate with username and password. Returns a JWT carrying the user id, role, and club id.
// @Tags auth
// @Accept json
// @Produce json
// @Param body body LoginRequest true "Login credentials"
// @Success 200 {object} helpers.APIResponse "data contains token, token_type, and user"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: INVALID_CREDENTIALS"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (club admin without club)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /auth/login [post]
func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	token, user, err := c.Service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c.Logger, c.ExposeInternal, w, r, err)
		return
	}

	h.WriteJSONSuccess(w, http.StatusOK, LoginResponse{Token: token, TokenType: "Bearer", User: user})
}

// Me godoc
// @Summary Current user
// @Description Returns the authenticated user and, for club admins, their club.
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data contains user and club"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /auth/me [get]
func (c *AuthController) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return
	}
	user, club, err := c.Service.Me(r.Context(), id.UserID)
	if err != nil {
		respondError(c.Logger, c.ExposeInternal, w, r, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, MeResponse{User: user, Club: club})
}

// ChangePassword godoc
// @Summary Change password
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body ChangePasswordRequest true "Current and new password"
// @Success 204 "password changed"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized or INVALID_CREDENTIALS"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /auth/password [post]
func (c *AuthController) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req ChangePasswordRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return
	}
	if err := c.Service.ChangePassword(r.Context(), id.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		respondError(c.Logger, c.ExposeInternal, w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
