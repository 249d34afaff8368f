package database

import (
	"errors"
	"net/http"
	"strings"

	"gorm.io/gorm"

	apperrors "github.com/kbukum/audiopen/errors"
)

// transientMarkers are driver messages for failures that clear up on their
// own: a busy sqlite file or a dropped connection.
var transientMarkers = []string{
	"database is locked",
	"database table is locked",
	"sqlite_busy",
	"driver: bad connection",
	"connection refused",
	"connection reset",
	"broken pipe",
	"i/o timeout",
}

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, m := range transientMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// IsNotFound reports a missing row.
func IsNotFound(err error) bool { return errors.Is(err, gorm.ErrRecordNotFound) }

// IsDuplicate reports a unique constraint violation. It relies on the
// TranslateError option set in Open.
func IsDuplicate(err error) bool { return errors.Is(err, gorm.ErrDuplicatedKey) }

// FromDatabase maps a gorm error onto the application error taxonomy so the
// catalog and prompt stores report the same codes as their REST backends.
func FromDatabase(err error, resource string) *apperrors.AppError {
	switch {
	case err == nil:
		return nil
	case IsNotFound(err):
		return apperrors.NotFound(resource, "")
	case IsDuplicate(err):
		return apperrors.AlreadyExists(resource).WithCause(err)
	case IsTransient(err):
		return (&apperrors.AppError{
			Code:       apperrors.ErrCodeDatabaseError,
			Message:    "The local database is busy. Please try again.",
			HTTPStatus: http.StatusServiceUnavailable,
			Retryable:  true,
		}).WithCause(err)
	default:
		return apperrors.DatabaseError(err)
	}
}
