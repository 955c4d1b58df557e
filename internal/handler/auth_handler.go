package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/khoido2003/natour-api/internal/middleware"
	"github.com/khoido2003/natour-api/internal/models"
	"github.com/khoido2003/natour-api/internal/service"
	appErrors "github.com/khoido2003/natour-api/pkg/errors"
	"github.com/khoido2003/natour-api/pkg/response"
)

type authService interface {
	Signup(ctx context.Context, req models.SignupRequest) (*models.Session, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.Session, error)
	Logout(ctx context.Context, userID string)
	ForgotPassword(ctx context.Context, req models.ForgotPasswordRequest) error
	ResetPassword(ctx context.Context, token string, req models.ResetPasswordRequest) (*models.Session, error)
	UpdateMyPassword(ctx context.Context, userID string, req models.UpdatePasswordRequest) (*models.Session, error)
}

// CookieConfig controls the session cookie.
type CookieConfig struct {
	Name   string
	MaxAge time.Duration
	Secure bool
}

// AuthHandler wires HTTP endpoints to the auth service.
type AuthHandler struct {
	service authService
	cookie  CookieConfig
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc authService, cookie CookieConfig) *AuthHandler {
	if cookie.Name == "" {
		cookie.Name = "jwt"
	}
	return &AuthHandler{service: svc, cookie: cookie}
}

// Signup godoc
// @Summary Sign up
// @Description Registers a user and opens a session
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.SignupRequest true "Signup payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /users/signup [post]
func (h *AuthHandler) Signup(c *gin.Context) {
	var req models.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid signup payload"))
		return
	}

	session, err := h.service.Signup(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.sendSession(c, http.StatusCreated, session)
}

// Login godoc
// @Summary Authenticate user
// @Description Authenticate user by email and password
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /users/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid login payload"))
		return
	}
	req.IP = c.ClientIP()
	req.UserAgent = c.GetHeader("User-Agent")

	session, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.sendSession(c, http.StatusOK, session)
}

// Logout godoc
// @Summary Log out
// @Description Overwrites the session cookie
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /users/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	var userID string
	if user, ok := middleware.CurrentUser(c); ok {
		userID = user.ID
	}
	h.service.Logout(c.Request.Context(), userID)

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, middleware.LoggedOutCookieValue, 10, "/", "", h.cookie.Secure, true)
	c.JSON(http.StatusOK, response.Envelope{Status: response.StatusSuccess})
}

// ForgotPassword godoc
// @Summary Request a password reset
// @Description Mails a single-use reset link valid for ten minutes
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.ForgotPasswordRequest true "Account email"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /users/forgotPassword [post]
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req models.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid forgot password payload"))
		return
	}

	if err := h.service.ForgotPassword(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Token sent to email!")
}

// ResetPassword godoc
// @Summary Reset password
// @Tags Authentication
// @Accept json
// @Produce json
// @Param token path string true "Reset token from the email"
// @Param payload body models.ResetPasswordRequest true "New password"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /users/resetPassword/{token} [patch]
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req models.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid reset password payload"))
		return
	}

	session, err := h.service.ResetPassword(c.Request.Context(), c.Param("token"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.sendSession(c, http.StatusOK, session)
}

// UpdateMyPassword godoc
// @Summary Change password
// @Tags Authentication
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.UpdatePasswordRequest true "Current and new password"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /users/updateMyPassword [patch]
func (h *AuthHandler) UpdateMyPassword(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.UpdatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid update password payload"))
		return
	}

	session, err := h.service.UpdateMyPassword(c.Request.Context(), user.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.sendSession(c, http.StatusOK, session)
}

func (h *AuthHandler) sendSession(c *gin.Context, status int, session *models.Session) {
	user, err := service.PublicUser(session.User)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, session.Token, int(h.cookie.MaxAge.Seconds()), "/", "", h.cookie.Secure, true)
	response.Session(c, status, session.Token, user)
}
