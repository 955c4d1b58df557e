package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/khoido2003/natour-api/internal/models"
	"github.com/khoido2003/natour-api/internal/query"
	"github.com/khoido2003/natour-api/internal/repository"
	appErrors "github.com/khoido2003/natour-api/pkg/errors"
)

type mockUserRepo struct {
	users     map[string]*models.User
	createErr error
	updateErr error
	lastSpec  query.Spec
}

func newMockUserRepo(users ...*models.User) *mockUserRepo {
	repo := &mockUserRepo{users: make(map[string]*models.User)}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (m *mockUserRepo) List(ctx context.Context, spec query.Spec) ([]models.User, error) {
	m.lastSpec = spec
	var out []models.User
	for _, u := range m.users {
		if u.Active {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (m *mockUserRepo) Count(ctx context.Context, spec query.Spec) (int, error) {
	list, _ := m.List(ctx, spec)
	return len(list), nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok && u.Active {
		copy := *u
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string, includeInactive bool) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email && (u.Active || includeInactive) {
			copy := *u
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) FindByResetToken(ctx context.Context, digest string) (*models.User, error) {
	for _, u := range m.users {
		if u.Active && u.PasswordResetToken != nil && *u.PasswordResetToken == digest {
			copy := *u
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	if user.ID == "" {
		user.ID = "user-" + strings.Split(user.Email, "@")[0]
	}
	user.Active = true
	copy := *user
	m.users[user.ID] = &copy
	return nil
}

func (m *mockUserRepo) Update(ctx context.Context, user *models.User) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	if _, ok := m.users[user.ID]; !ok {
		return sql.ErrNoRows
	}
	user.Version++
	copy := *user
	m.users[user.ID] = &copy
	return nil
}

func (m *mockUserRepo) UpdatePassword(ctx context.Context, user *models.User) error {
	stored, ok := m.users[user.ID]
	if !ok {
		return sql.ErrNoRows
	}
	stored.PasswordHash = user.PasswordHash
	stored.PasswordChangedAt = user.PasswordChangedAt
	stored.PasswordResetToken = nil
	stored.PasswordResetExpires = nil
	return nil
}

func (m *mockUserRepo) SetResetToken(ctx context.Context, id string, digest *string, expires *time.Time) error {
	stored, ok := m.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	stored.PasswordResetToken = digest
	stored.PasswordResetExpires = expires
	return nil
}

func (m *mockUserRepo) Deactivate(ctx context.Context, id string) error {
	stored, ok := m.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	stored.Active = false
	return nil
}

func (m *mockUserRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.users[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.users, id)
	return nil
}

type mockMailer struct {
	resetURLs []string
	welcomed  []string
	err       error
}

func (m *mockMailer) SendPasswordReset(ctx context.Context, user *models.User, resetURL string, ttl time.Duration) error {
	if m.err != nil {
		return m.err
	}
	m.resetURLs = append(m.resetURLs, resetURL)
	return nil
}

func (m *mockMailer) SendWelcome(ctx context.Context, user *models.User, baseURL string) error {
	m.welcomed = append(m.welcomed, user.Email)
	return nil
}

type mockTourRepo struct {
	tours     map[string]*models.Tour
	listCalls int
	lastSpec  query.Spec
	createErr error
}

func newMockTourRepo(tours ...*models.Tour) *mockTourRepo {
	repo := &mockTourRepo{tours: make(map[string]*models.Tour)}
	for _, t := range tours {
		repo.tours[t.ID] = t
	}
	return repo
}

func (m *mockTourRepo) List(ctx context.Context, spec query.Spec) ([]models.Tour, error) {
	m.listCalls++
	m.lastSpec = spec
	out := make([]models.Tour, 0, len(m.tours))
	for _, t := range m.tours {
		if !t.SecretTour {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (m *mockTourRepo) Count(ctx context.Context, spec query.Spec) (int, error) {
	n := 0
	for _, t := range m.tours {
		if !t.SecretTour {
			n++
		}
	}
	return n, nil
}

func (m *mockTourRepo) FindByID(ctx context.Context, id string, includeSecret bool) (*models.Tour, error) {
	t, ok := m.tours[id]
	if !ok || (t.SecretTour && !includeSecret) {
		return nil, sql.ErrNoRows
	}
	copy := *t
	return &copy, nil
}

func (m *mockTourRepo) Create(ctx context.Context, tour *models.Tour) error {
	if m.createErr != nil {
		return m.createErr
	}
	if tour.ID == "" {
		tour.ID = "tour-" + tour.Slug
	}
	tour.CreatedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	copy := *tour
	m.tours[tour.ID] = &copy
	return nil
}

func (m *mockTourRepo) Update(ctx context.Context, tour *models.Tour) error {
	if _, ok := m.tours[tour.ID]; !ok {
		return sql.ErrNoRows
	}
	tour.Version++
	copy := *tour
	m.tours[tour.ID] = &copy
	return nil
}

func (m *mockTourRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.tours[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.tours, id)
	return nil
}

type fakeCacheRepo struct {
	mu       sync.Mutex
	data     map[string][]byte
	patterns []string
}

func newFakeCacheRepo() *fakeCacheRepo {
	return &fakeCacheRepo{data: make(map[string][]byte)}
}

func (f *fakeCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, ok := f.data[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (f *fakeCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = raw
	return nil
}

func (f *fakeCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.patterns = append(f.patterns, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	for k := range f.data {
		if strings.HasPrefix(k, prefix) {
			delete(f.data, k)
		}
	}
	return nil
}

var errBoom = errors.New("boom")

var errDuplicateRecord = fmt.Errorf("write: %w (unique_key)", repository.ErrDuplicate)
