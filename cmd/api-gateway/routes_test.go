package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/khoido2003/natour-api/internal/handler"
	"github.com/khoido2003/natour-api/internal/models"
	"github.com/khoido2003/natour-api/internal/service"
	appErrors "github.com/khoido2003/natour-api/pkg/errors"
)

type sessionStub struct {
	users map[string]*models.User
}

func (s sessionStub) Protect(ctx context.Context, token string) (*models.User, *models.JWTClaims, error) {
	user, ok := s.users[token]
	if !ok {
		return nil, nil, appErrors.Clone(appErrors.ErrUnauthorized, "You are not logged in! Please log in to get access.")
	}
	return user, &models.JWTClaims{UserID: user.ID, Role: user.Role}, nil
}

type listingStub struct {
	params url.Values
}

func (l *listingStub) List(ctx context.Context, params url.Values) (*service.TourList, error) {
	l.params = params
	return &service.TourList{Tours: []map[string]interface{}{}, Pagination: models.Pagination{Page: 1, Limit: 5}}, nil
}

func (l *listingStub) Get(ctx context.Context, id string) (map[string]interface{}, error) {
	return map[string]interface{}{"id": id}, nil
}

func (l *listingStub) Create(ctx context.Context, body []byte) (map[string]interface{}, error) {
	return map[string]interface{}{"id": "created"}, nil
}

func (l *listingStub) Update(ctx context.Context, id string, body []byte) (map[string]interface{}, error) {
	return map[string]interface{}{"id": id}, nil
}

func (l *listingStub) Delete(ctx context.Context, id string) error {
	return nil
}

func (l *listingStub) Export(ctx context.Context, params url.Values, format string) (*service.ExportFile, error) {
	return &service.ExportFile{Filename: "tours.csv", ContentType: "text/csv", Data: []byte("name\n")}, nil
}

func testRouter(tours *listingStub) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return newRouter(routerDeps{
		APIPrefix:  "/api/v1",
		CookieName: "jwt",
		Logger:     zap.NewNop(),
		Sessions: sessionStub{users: map[string]*models.User{
			"user-token":  {ID: "u1", Role: models.RoleUser},
			"admin-token": {ID: "a1", Role: models.RoleAdmin},
		}},
		Tours:   handler.NewTourHandler(tours),
		Auth:    handler.NewAuthHandler(nil, handler.CookieConfig{Name: "jwt"}),
		Users:   handler.NewUserHandler(nil),
		Monitor: handler.NewMetricsHandler(service.NewMetricsService(), nil),
	})
}

func serve(r *gin.Engine, method, target, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRouterPublicTourRoutes(t *testing.T) {
	tours := &listingStub{}
	r := testRouter(tours)

	w := serve(r, http.MethodGet, "/api/v1/tours/top-5-cheap?difficulty=easy", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "5", tours.params.Get("limit"))
	assert.Equal(t, "-ratingsAverage,price", tours.params.Get("sort"))
	assert.Equal(t, "easy", tours.params.Get("difficulty"))
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))

	w = serve(r, http.MethodGet, "/api/v1/top-5-tours", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(r, http.MethodGet, "/api/v1/tours/abc", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(r, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouterTourWritesRequireStaff(t *testing.T) {
	r := testRouter(&listingStub{})

	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodPost, "/api/v1/tours", "").Code)
	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodDelete, "/api/v1/tours/abc", "user-token").Code)
	assert.Equal(t, http.StatusNoContent, serve(r, http.MethodDelete, "/api/v1/tours/abc", "admin-token").Code)
}

func TestRouterUserAdministrationRequiresAdmin(t *testing.T) {
	r := testRouter(&listingStub{})

	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/api/v1/users", "").Code)
	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodGet, "/api/v1/users", "user-token").Code)
	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodDelete, "/api/v1/users/u2", "user-token").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/api/v1/users/me", "").Code)
}

func TestRouterUnknownRoute(t *testing.T) {
	r := testRouter(&listingStub{})
	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodGet, "/api/v1/bookings", "").Code)
}
