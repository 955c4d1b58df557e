package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoido2003/natour-api/internal/middleware"
	"github.com/khoido2003/natour-api/internal/models"
	"github.com/khoido2003/natour-api/internal/service"
	appErrors "github.com/khoido2003/natour-api/pkg/errors"
)

type envelope struct {
	Status     string                 `json:"status"`
	Message    string                 `json:"message"`
	Token      string                 `json:"token"`
	Results    *int                   `json:"results"`
	Data       map[string]interface{} `json:"data"`
	Pagination *models.Pagination     `json:"pagination"`
	Meta       map[string]interface{} `json:"meta"`
	Error      *appErrors.Error       `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func testContext(method, target string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

type tourServiceMock struct {
	list       *service.TourList
	lastParams url.Values
	lastBody   []byte
	format     string
	err        error
}

func (m *tourServiceMock) List(ctx context.Context, params url.Values) (*service.TourList, error) {
	m.lastParams = params
	return m.list, m.err
}

func (m *tourServiceMock) Get(ctx context.Context, id string) (map[string]interface{}, error) {
	if m.err != nil {
		return nil, m.err
	}
	return map[string]interface{}{"id": id}, nil
}

func (m *tourServiceMock) Create(ctx context.Context, body []byte) (map[string]interface{}, error) {
	m.lastBody = body
	if m.err != nil {
		return nil, m.err
	}
	return map[string]interface{}{"id": "new"}, nil
}

func (m *tourServiceMock) Update(ctx context.Context, id string, body []byte) (map[string]interface{}, error) {
	m.lastBody = body
	return map[string]interface{}{"id": id}, m.err
}

func (m *tourServiceMock) Delete(ctx context.Context, id string) error {
	return m.err
}

func (m *tourServiceMock) Export(ctx context.Context, params url.Values, format string) (*service.ExportFile, error) {
	m.lastParams = params
	m.format = format
	if m.err != nil {
		return nil, m.err
	}
	return &service.ExportFile{Filename: "tours.csv", ContentType: "text/csv; charset=utf-8", Data: []byte("name\nA\n")}, nil
}

func TestTourHandlerList(t *testing.T) {
	svc := &tourServiceMock{list: &service.TourList{
		Tours:      []map[string]interface{}{{"id": "t1", "name": "The Sea Explorer"}},
		Results:    1,
		Pagination: models.Pagination{Page: 1, Limit: 100, TotalCount: 9},
		Cached:     true,
	}}
	handler := NewTourHandler(svc)
	c, w := testContext(http.MethodGet, "/tours?price[gte]=100&sort=-price", nil)
	c.Set("response_meta", map[string]interface{}{})

	handler.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "HIT", w.Header().Get(middleware.CacheHeader))
	env := decode(t, w)
	assert.Equal(t, "success", env.Status)
	require.NotNil(t, env.Results)
	assert.Equal(t, 1, *env.Results)
	assert.Equal(t, 9, env.Pagination.TotalCount)
	assert.Len(t, env.Data["tours"], 1)
	assert.Equal(t, "100", svc.lastParams.Get("price[gte]"))
}

func TestTourHandlerGetNotFound(t *testing.T) {
	handler := NewTourHandler(&tourServiceMock{err: appErrors.Clone(appErrors.ErrNotFound, "No tour found with that ID")})
	c, w := testContext(http.MethodGet, "/tours/x", nil)
	c.Params = gin.Params{{Key: "id", Value: "x"}}

	handler.Get(c)

	require.Equal(t, http.StatusNotFound, w.Code)
	env := decode(t, w)
	assert.Equal(t, "fail", env.Status)
	assert.Equal(t, "No tour found with that ID", env.Message)
}

func TestTourHandlerCreatePassesRawBody(t *testing.T) {
	svc := &tourServiceMock{}
	handler := NewTourHandler(svc)
	body := []byte(`{"name":"The Forest Hiker"}`)
	c, w := testContext(http.MethodPost, "/tours", body)

	handler.Create(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, body, svc.lastBody)
	assert.Equal(t, map[string]interface{}{"id": "new"}, decode(t, w).Data["tour"])
}

func TestTourHandlerDelete(t *testing.T) {
	handler := NewTourHandler(&tourServiceMock{})
	c, w := testContext(http.MethodDelete, "/tours/t1", nil)
	c.Params = gin.Params{{Key: "id", Value: "t1"}}

	handler.Delete(c)
	c.Writer.WriteHeaderNow()
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestTourHandlerExport(t *testing.T) {
	svc := &tourServiceMock{}
	handler := NewTourHandler(svc)
	c, w := testContext(http.MethodGet, "/tours/export?format=csv&difficulty=easy", nil)

	handler.Export(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "csv", svc.format)
	assert.Empty(t, svc.lastParams.Get("format"))
	assert.Equal(t, "easy", svc.lastParams.Get("difficulty"))
	assert.Equal(t, `attachment; filename="tours.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "name\nA\n", w.Body.String())
}

type authServiceMock struct {
	session   *models.Session
	err       error
	loggedOut []string
	lastLogin models.LoginRequest
	token     string
}

func (m *authServiceMock) Signup(ctx context.Context, req models.SignupRequest) (*models.Session, error) {
	return m.session, m.err
}

func (m *authServiceMock) Login(ctx context.Context, req models.LoginRequest) (*models.Session, error) {
	m.lastLogin = req
	return m.session, m.err
}

func (m *authServiceMock) Logout(ctx context.Context, userID string) {
	m.loggedOut = append(m.loggedOut, userID)
}

func (m *authServiceMock) ForgotPassword(ctx context.Context, req models.ForgotPasswordRequest) error {
	return m.err
}

func (m *authServiceMock) ResetPassword(ctx context.Context, token string, req models.ResetPasswordRequest) (*models.Session, error) {
	m.token = token
	return m.session, m.err
}

func (m *authServiceMock) UpdateMyPassword(ctx context.Context, userID string, req models.UpdatePasswordRequest) (*models.Session, error) {
	return m.session, m.err
}

func sessionFixture() *models.Session {
	return &models.Session{
		Token:     "signed.jwt.token",
		ExpiresAt: time.Now().Add(time.Hour),
		User:      &models.User{ID: "u1", Name: "Jonas", Email: "jonas@example.com", Role: models.RoleUser, PasswordHash: "$2a$hash", Active: true, Version: 3},
	}
}

func TestAuthHandlerLoginSetsCookieAndHidesSecrets(t *testing.T) {
	svc := &authServiceMock{session: sessionFixture()}
	handler := NewAuthHandler(svc, CookieConfig{Name: "jwt", MaxAge: 90 * 24 * time.Hour})
	c, w := testContext(http.MethodPost, "/users/login", []byte(`{"email":"jonas@example.com","password":"pass1234"}`))
	c.Request.Header.Set("User-Agent", "go-test")

	handler.Login(c)

	require.Equal(t, http.StatusOK, w.Code)
	env := decode(t, w)
	assert.Equal(t, "signed.jwt.token", env.Token)
	user := env.Data["user"].(map[string]interface{})
	assert.Equal(t, "u1", user["id"])
	assert.NotContains(t, user, "active")
	assert.NotContains(t, user, "version")
	assert.NotContains(t, user, "passwordHash")
	assert.Equal(t, "go-test", svc.lastLogin.UserAgent)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "jwt", cookies[0].Name)
	assert.Equal(t, "signed.jwt.token", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, 90*24*60*60, cookies[0].MaxAge)
}

func TestAuthHandlerLoginFailure(t *testing.T) {
	handler := NewAuthHandler(&authServiceMock{err: appErrors.Clone(appErrors.ErrInvalidCredentials, "Incorrect email or password")}, CookieConfig{})
	c, w := testContext(http.MethodPost, "/users/login", []byte(`{"email":"jonas@example.com","password":"nope"}`))

	handler.Login(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, w.Result().Cookies())
}

func TestAuthHandlerSignupBadJSON(t *testing.T) {
	handler := NewAuthHandler(&authServiceMock{}, CookieConfig{})
	c, w := testContext(http.MethodPost, "/users/signup", []byte(`invalid`))

	handler.Signup(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandlerLogoutOverwritesCookie(t *testing.T) {
	svc := &authServiceMock{}
	handler := NewAuthHandler(svc, CookieConfig{Name: "jwt"})
	c, w := testContext(http.MethodPost, "/users/logout", nil)
	c.Set(middleware.ContextUserKey, &models.User{ID: "u1"})

	handler.Logout(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"u1"}, svc.loggedOut)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, middleware.LoggedOutCookieValue, cookies[0].Value)
}

func TestAuthHandlerForgotPassword(t *testing.T) {
	handler := NewAuthHandler(&authServiceMock{}, CookieConfig{})
	c, w := testContext(http.MethodPost, "/users/forgotPassword", []byte(`{"email":"jonas@example.com"}`))

	handler.ForgotPassword(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Token sent to email!", decode(t, w).Message)

	failing := NewAuthHandler(&authServiceMock{err: appErrors.Wrap(errors.New("smtp"), appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "There was an error sending the email. Try again later!")}, CookieConfig{})
	c, w = testContext(http.MethodPost, "/users/forgotPassword", []byte(`{"email":"jonas@example.com"}`))
	failing.ForgotPassword(c)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "error", decode(t, w).Status)
}

func TestAuthHandlerResetPasswordUsesPathToken(t *testing.T) {
	svc := &authServiceMock{session: sessionFixture()}
	handler := NewAuthHandler(svc, CookieConfig{})
	c, w := testContext(http.MethodPatch, "/users/resetPassword/abc", []byte(`{"password":"newpass99","passwordConfirm":"newpass99"}`))
	c.Params = gin.Params{{Key: "token", Value: "abc"}}

	handler.ResetPassword(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "abc", svc.token)
}

func TestAuthHandlerUpdateMyPasswordRequiresUser(t *testing.T) {
	handler := NewAuthHandler(&authServiceMock{session: sessionFixture()}, CookieConfig{})
	c, w := testContext(http.MethodPatch, "/users/updateMyPassword", []byte(`{}`))

	handler.UpdateMyPassword(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

type userServiceMock struct {
	lastID  string
	updateM models.UpdateMeRequest
	err     error
}

func (m *userServiceMock) List(ctx context.Context, params url.Values) (*service.UserList, error) {
	return &service.UserList{Users: []map[string]interface{}{{"id": "u1"}}, Results: 1, Pagination: models.Pagination{Page: 1, Limit: 100, TotalCount: 1}}, m.err
}

func (m *userServiceMock) Get(ctx context.Context, id string) (map[string]interface{}, error) {
	m.lastID = id
	return map[string]interface{}{"id": id}, m.err
}

func (m *userServiceMock) UpdateMe(ctx context.Context, userID string, req models.UpdateMeRequest) (map[string]interface{}, error) {
	m.lastID = userID
	m.updateM = req
	if m.err != nil {
		return nil, m.err
	}
	return map[string]interface{}{"id": userID}, nil
}

func (m *userServiceMock) DeleteMe(ctx context.Context, userID string) error {
	m.lastID = userID
	return m.err
}

func (m *userServiceMock) Update(ctx context.Context, id string, req models.UpdateUserRequest) (map[string]interface{}, error) {
	m.lastID = id
	return map[string]interface{}{"id": id}, m.err
}

func (m *userServiceMock) Delete(ctx context.Context, id string) error {
	m.lastID = id
	return m.err
}

func TestUserHandlerMe(t *testing.T) {
	svc := &userServiceMock{}
	handler := NewUserHandler(svc)
	c, w := testContext(http.MethodGet, "/users/me", nil)
	c.Set(middleware.ContextUserKey, &models.User{ID: "u7"})

	handler.Me(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u7", svc.lastID)
}

func TestUserHandlerUpdateMeRejectsPassword(t *testing.T) {
	svc := &userServiceMock{err: appErrors.Clone(appErrors.ErrValidation, "This route is not for password updates. Please use /updateMyPassword.")}
	handler := NewUserHandler(svc)
	c, w := testContext(http.MethodPatch, "/users/updateMe", []byte(`{"password":"x"}`))
	c.Set(middleware.ContextUserKey, &models.User{ID: "u7"})

	handler.UpdateMe(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "x", svc.updateM.Password)
}

func TestUserHandlerDeleteMe(t *testing.T) {
	svc := &userServiceMock{}
	handler := NewUserHandler(svc)
	c, w := testContext(http.MethodDelete, "/users/deleteMe", nil)
	c.Set(middleware.ContextUserKey, &models.User{ID: "u7"})

	handler.DeleteMe(c)
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "u7", svc.lastID)
}

func TestUserHandlerList(t *testing.T) {
	handler := NewUserHandler(&userServiceMock{})
	c, w := testContext(http.MethodGet, "/users", nil)

	handler.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	env := decode(t, w)
	assert.Len(t, env.Data["users"], 1)
}

func TestMetricsHandlerReady(t *testing.T) {
	handler := NewMetricsHandler(service.NewMetricsService(), map[string]ReadinessCheck{
		"postgres": func(ctx context.Context) error { return nil },
		"redis":    func(ctx context.Context) error { return errors.New("connection refused") },
	})
	c, w := testContext(http.MethodGet, "/ready", nil)

	handler.Ready(c)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, map[string]interface{}{"postgres": "ok", "redis": "connection refused"}, body["checks"])

	c, w = testContext(http.MethodGet, "/health", nil)
	handler.Health(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "requestsTotal")
}
