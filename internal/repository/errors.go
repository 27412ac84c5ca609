package repository

import (
	"errors"

	pkgerrors "github.com/angelmondragon/sitestock/pkg/errors"
)

// AsServiceError maps storage failures onto service error codes. Missing rows
// become NOT_FOUND, duplicate names CONFLICT and everything else INTERNAL.
// Errors that already carry a code pass through untouched.
func AsServiceError(err error, message string) error {
	if err == nil {
		return nil
	}
	if pkgerrors.As(err) != nil {
		return err
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, message)
	case errors.Is(err, ErrDuplicate):
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, message)
	default:
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, message)
	}
}
