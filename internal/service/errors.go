package service

import (
	"database/sql"
	"errors"

	"github.com/khoido2003/natour-api/internal/repository"
	appErrors "github.com/khoido2003/natour-api/pkg/errors"
)

// repoError maps repository failures onto typed API errors. Errors that are
// already typed pass through untouched.
func repoError(err error, notFound, duplicate, internal string) error {
	var appErr *appErrors.Error
	switch {
	case errors.As(err, &appErr):
		return err
	case errors.Is(err, sql.ErrNoRows):
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	case errors.Is(err, repository.ErrDuplicate):
		return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, duplicate)
	default:
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, internal)
	}
}

func badRequest(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}
