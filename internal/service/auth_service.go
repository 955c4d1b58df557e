package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/khoido2003/natour-api/internal/credential"
	"github.com/khoido2003/natour-api/internal/models"
	"github.com/khoido2003/natour-api/internal/validation"
	appErrors "github.com/khoido2003/natour-api/pkg/errors"
)

const (
	userNotFound  = "No user found with that ID"
	userDuplicate = "Duplicate field value: email. Please use another value!"
)

type authUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string, includeInactive bool) (*models.User, error)
	FindByResetToken(ctx context.Context, digest string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, user *models.User) error
	SetResetToken(ctx context.Context, id string, digest *string, expires *time.Time) error
}

type authMailer interface {
	SendPasswordReset(ctx context.Context, user *models.User, resetURL string, ttl time.Duration) error
	SendWelcome(ctx context.Context, user *models.User, baseURL string) error
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	Secret      string
	TokenExpiry time.Duration
	Issuer      string
	// BaseURL is the public API root used to build links in mail, e.g. http://host/api/v1.
	BaseURL string
}

// AuthService provides signup, login and the password lifecycle flows.
type AuthService struct {
	repo      authUserRepository
	creds     *credential.Manager
	mail      authMailer
	validator *validation.Validator
	metrics   *MetricsService
	logger    *zap.Logger
	config    AuthConfig
	now       func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(repo authUserRepository, creds *credential.Manager, mail authMailer, v *validation.Validator, metrics *MetricsService, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if v == nil {
		v = validation.New()
	}
	if creds == nil {
		creds = credential.NewManager(credential.Config{})
	}
	if config.TokenExpiry <= 0 {
		config.TokenExpiry = 90 * 24 * time.Hour
	}
	return &AuthService{
		repo:      repo,
		creds:     creds,
		mail:      mail,
		validator: v,
		metrics:   metrics,
		logger:    logger,
		config:    config,
		now:       time.Now,
	}
}

// Signup registers a new user with the default role and opens a session.
func (s *AuthService) Signup(ctx context.Context, req models.SignupRequest) (*models.Session, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	user := &models.User{
		Name:            req.Name,
		Email:           req.Email,
		Photo:           req.Photo,
		Role:            models.RoleUser,
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
	}
	validation.NormalizeUser(user)
	if err := s.validator.User(user); err != nil {
		return nil, err
	}
	if err := s.creds.HashAndStorePassword(user, true); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, repoError(err, userNotFound, userDuplicate, "failed to create user")
	}

	s.metrics.RecordAuthEvent(AuthEventSignup)
	s.logger.Info("user signed up", zap.String("user_id", user.ID))

	if s.mail != nil {
		if err := s.mail.SendWelcome(ctx, user, s.config.BaseURL); err != nil {
			s.logger.Warn("failed to queue welcome mail", zap.String("user_id", user.ID), zap.Error(err))
		}
	}

	return s.issueSession(user)
}

// Login authenticates by email and password.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.Session, error) {
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Please provide email and password!")
	}

	user, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)), true)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, s.loginFailed(req)
		}
		return nil, repoError(err, userNotFound, userDuplicate, "failed to fetch user")
	}

	ok, err := s.creds.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil {
		s.logger.Error("stored credential unusable", zap.String("user_id", user.ID), zap.Error(err))
		return nil, err
	}
	if !ok {
		return nil, s.loginFailed(req)
	}
	if !user.Active {
		return nil, appErrors.Clone(appErrors.ErrInactiveAccount, "This account has been deactivated.")
	}

	s.metrics.RecordAuthEvent(AuthEventLogin)
	s.logger.Info("user logged in", zap.String("user_id", user.ID), zap.String("ip", req.IP))
	return s.issueSession(user)
}

func (s *AuthService) loginFailed(req models.LoginRequest) error {
	s.metrics.RecordAuthEvent(AuthEventLoginFailed)
	s.logger.Info("login failed", zap.String("ip", req.IP), zap.String("user_agent", req.UserAgent))
	return appErrors.Clone(appErrors.ErrInvalidCredentials, "Incorrect email or password")
}

// Logout records the end of a session. Tokens are stateless, so the caller
// only needs to drop the cookie.
func (s *AuthService) Logout(ctx context.Context, userID string) {
	s.metrics.RecordAuthEvent(AuthEventLogout)
	s.logger.Info("user logged out", zap.String("user_id", userID))
}

// Protect resolves a bearer token to its user, rejecting tokens minted
// before the user's last password change.
func (s *AuthService) Protect(ctx context.Context, token string) (*models.User, *models.JWTClaims, error) {
	if token == "" {
		return nil, nil, appErrors.Clone(appErrors.ErrUnauthorized, "You are not logged in! Please log in to get access.")
	}

	claims, err := s.ValidateToken(token)
	if err != nil {
		return nil, nil, err
	}

	user, err := s.repo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrUnauthorized, "The user belonging to this token does no longer exist.")
		}
		return nil, nil, repoError(err, userNotFound, userDuplicate, "failed to load user")
	}

	var issuedAt int64
	if claims.IssuedAt != nil {
		issuedAt = claims.IssuedAt.Unix()
	}
	if s.creds.IsSessionStale(user, issuedAt) {
		s.metrics.RecordAuthEvent(AuthEventStaleSession)
		return nil, nil, appErrors.ErrSessionStale
	}

	return user, claims, nil
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	}, jwt.WithTimeFunc(s.now), jwt.WithIssuedAt())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "Your token has expired! Please log in again.")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "Invalid token. Please log in again!")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "Invalid token. Please log in again!")
	}

	return claims, nil
}

// ForgotPassword issues a reset token and mails the reset link.
func (s *AuthService) ForgotPassword(ctx context.Context, req models.ForgotPasswordRequest) error {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.validator.Struct(req); err != nil {
		return err
	}

	user, err := s.repo.FindByEmail(ctx, req.Email, false)
	if err != nil {
		return repoError(err, "There is no user with that email address.", userDuplicate, "failed to fetch user")
	}

	plain, err := s.creds.IssuePasswordResetToken(user)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to issue reset token")
	}
	if err := s.repo.SetResetToken(ctx, user.ID, user.PasswordResetToken, user.PasswordResetExpires); err != nil {
		return repoError(err, userNotFound, userDuplicate, "failed to store reset token")
	}

	resetURL := fmt.Sprintf("%s/users/resetPassword/%s", s.config.BaseURL, plain)
	if err := s.sendReset(ctx, user, resetURL); err != nil {
		s.logger.Error("failed to queue reset mail", zap.String("user_id", user.ID), zap.Error(err))
		s.creds.ClearResetToken(user)
		if clearErr := s.repo.SetResetToken(ctx, user.ID, nil, nil); clearErr != nil {
			s.logger.Error("failed to clear reset token", zap.String("user_id", user.ID), zap.Error(clearErr))
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "There was an error sending the email. Try again later!")
	}

	s.metrics.RecordAuthEvent(AuthEventResetIssued)
	s.logger.Info("password reset issued", zap.String("user_id", user.ID))
	return nil
}

func (s *AuthService) sendReset(ctx context.Context, user *models.User, resetURL string) error {
	if s.mail == nil {
		return errors.New("mail delivery not configured")
	}
	return s.mail.SendPasswordReset(ctx, user, resetURL, s.creds.ResetTokenTTL())
}

// ResetPassword consumes a reset token, sets the new password and opens a session.
func (s *AuthService) ResetPassword(ctx context.Context, token string, req models.ResetPasswordRequest) (*models.Session, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	user, err := s.repo.FindByResetToken(ctx, credential.HashResetToken(token))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrResetTokenInvalid, "Token is invalid or has expired")
		}
		return nil, repoError(err, userNotFound, userDuplicate, "failed to load user")
	}
	if err := s.creds.VerifyResetToken(user, token); err != nil {
		return nil, err
	}

	if err := s.commitPassword(ctx, user, req.Password, req.PasswordConfirm); err != nil {
		return nil, err
	}

	s.metrics.RecordAuthEvent(AuthEventResetComplete)
	s.logger.Info("password reset completed", zap.String("user_id", user.ID))
	return s.issueSession(user)
}

// UpdateMyPassword changes the password of a logged-in user after checking the current one.
func (s *AuthService) UpdateMyPassword(ctx context.Context, userID string, req models.UpdatePasswordRequest) (*models.Session, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, repoError(err, userNotFound, userDuplicate, "failed to load user")
	}

	ok, err := s.creds.VerifyPassword(req.PasswordCurrent, user.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "Your current password is wrong.")
	}

	if err := s.commitPassword(ctx, user, req.Password, req.PasswordConfirm); err != nil {
		return nil, err
	}

	s.metrics.RecordAuthEvent(AuthEventPasswordEdit)
	s.logger.Info("password updated", zap.String("user_id", user.ID))
	return s.issueSession(user)
}

func (s *AuthService) commitPassword(ctx context.Context, user *models.User, password, confirm string) error {
	user.Password = password
	user.PasswordConfirm = confirm
	if err := s.validator.User(user); err != nil {
		return err
	}
	if err := s.creds.HashAndStorePassword(user, false); err != nil {
		return err
	}
	s.creds.ClearResetToken(user)
	if err := s.repo.UpdatePassword(ctx, user); err != nil {
		return repoError(err, userNotFound, userDuplicate, "failed to update password")
	}
	return nil
}

func (s *AuthService) issueSession(user *models.User) (*models.Session, error) {
	token, expiresAt, err := s.generateAccessToken(user)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}
	user.Password = ""
	user.PasswordConfirm = ""
	return &models.Session{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

func (s *AuthService) generateAccessToken(user *models.User) (string, time.Time, error) {
	issuedAt := s.now().UTC()
	expiresAt := issuedAt.Add(s.config.TokenExpiry)
	claims := &models.JWTClaims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}
