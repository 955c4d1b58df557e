package service

import (
	"context"
	"net/url"

	"go.uber.org/zap"

	"github.com/khoido2003/natour-api/internal/models"
	"github.com/khoido2003/natour-api/internal/query"
	"github.com/khoido2003/natour-api/internal/repository"
	"github.com/khoido2003/natour-api/internal/validation"
	appErrors "github.com/khoido2003/natour-api/pkg/errors"
)

type userRepository interface {
	List(ctx context.Context, spec query.Spec) ([]models.User, error)
	Count(ctx context.Context, spec query.Spec) (int, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Deactivate(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// UserList is one page of projected users.
type UserList struct {
	Users      []map[string]interface{}
	Results    int
	Pagination models.Pagination
}

// UserService implements profile and user administration use cases.
type UserService struct {
	repo      userRepository
	validator *validation.Validator
	opts      query.Options
	logger    *zap.Logger
}

// NewUserService constructs a UserService.
func NewUserService(repo userRepository, v *validation.Validator, opts query.Options, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if v == nil {
		v = validation.New()
	}
	return &UserService{repo: repo, validator: v, opts: opts, logger: logger}
}

// PublicUser renders a user with the default projection, which hides
// credentials, the active flag and the version counter.
func PublicUser(user *models.User) (map[string]interface{}, error) {
	doc, err := query.ProjectOne(user, query.DefaultProjection(repository.UserSchema))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render user")
	}
	return doc, nil
}

// List returns the active users matched by params.
func (s *UserService) List(ctx context.Context, params url.Values) (*UserList, error) {
	spec := query.New(repository.UserSchema, params, s.opts).Apply().Spec()

	users, err := s.repo.List(ctx, spec)
	if err != nil {
		return nil, repoError(err, userNotFound, userDuplicate, "failed to list users")
	}
	total, err := s.repo.Count(ctx, spec)
	if err != nil {
		return nil, repoError(err, userNotFound, userDuplicate, "failed to count users")
	}
	docs, err := query.Project(users, spec.Projection)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to project users")
	}

	return &UserList{
		Users:      docs,
		Results:    len(docs),
		Pagination: models.Pagination{Page: spec.Page, Limit: spec.Limit, TotalCount: total},
	}, nil
}

// Get returns a single active user.
func (s *UserService) Get(ctx context.Context, id string) (map[string]interface{}, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, repoError(err, userNotFound, userDuplicate, "failed to load user")
	}
	return PublicUser(user)
}

// UpdateMe changes the caller's name, email or photo. Password changes must
// go through the dedicated password route.
func (s *UserService) UpdateMe(ctx context.Context, userID string, req models.UpdateMeRequest) (map[string]interface{}, error) {
	if req.Password != "" || req.PasswordConfirm != "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "This route is not for password updates. Please use /updateMyPassword.")
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, repoError(err, userNotFound, userDuplicate, "failed to load user")
	}
	applyProfile(user, req.Name, req.Email, req.Photo)

	if err := s.save(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("profile updated", zap.String("user_id", user.ID))
	return PublicUser(user)
}

// DeleteMe deactivates the caller's account.
func (s *UserService) DeleteMe(ctx context.Context, userID string) error {
	if err := s.repo.Deactivate(ctx, userID); err != nil {
		return repoError(err, userNotFound, userDuplicate, "failed to deactivate user")
	}
	s.logger.Info("user deactivated", zap.String("user_id", userID))
	return nil
}

// Update lets an administrator change a user's profile and role.
func (s *UserService) Update(ctx context.Context, id string, req models.UpdateUserRequest) (map[string]interface{}, error) {
	if req.Password != "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Passwords cannot be changed through this route.")
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, repoError(err, userNotFound, userDuplicate, "failed to load user")
	}
	applyProfile(user, req.Name, req.Email, req.Photo)
	if req.Role != nil {
		user.Role = *req.Role
	}

	if err := s.save(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("user updated by admin", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return PublicUser(user)
}

// Delete removes a user permanently.
func (s *UserService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return repoError(err, userNotFound, userDuplicate, "failed to delete user")
	}
	s.logger.Info("user deleted", zap.String("user_id", id))
	return nil
}

func (s *UserService) save(ctx context.Context, user *models.User) error {
	validation.NormalizeUser(user)
	if err := s.validator.User(user); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, user); err != nil {
		return repoError(err, userNotFound, userDuplicate, "failed to update user")
	}
	return nil
}

func applyProfile(user *models.User, name, email, photo *string) {
	if name != nil {
		user.Name = *name
	}
	if email != nil {
		user.Email = *email
	}
	if photo != nil {
		user.Photo = *photo
	}
}
