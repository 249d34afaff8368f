package storage

import (
	"errors"
	"strings"

	apperrors "github.com/kbukum/audiopen/errors"
	"github.com/kbukum/audiopen/httpclient"
)

// ToAppError converts a storage failure into an AppError. It understands
// the package sentinels, classified HTTP errors and the message strings
// Supabase Storage puts in its JSON error bodies.
func ToAppError(err error) *apperrors.AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := apperrors.AsAppError(err); ok {
		return appErr
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return apperrors.NotFound("object", "").WithCause(err)
	case errors.Is(err, ErrAlreadyExists):
		return apperrors.AlreadyExists("object").WithCause(err)
	case errors.Is(err, ErrTooLarge):
		return apperrors.InvalidInput("recording", "the recording is larger than the storage limit").WithCause(err)
	}

	var httpErr *httpclient.Error
	if errors.As(err, &httpErr) {
		msg := strings.ToLower(string(httpErr.Body))
		switch {
		case strings.Contains(msg, "jwt expired") || strings.Contains(msg, "token expired"):
			return apperrors.TokenExpired().WithCause(err)
		case strings.Contains(msg, "invalid jwt") || strings.Contains(msg, "invalid token"):
			return apperrors.InvalidToken().WithCause(err)
		case strings.Contains(msg, "row-level security") || strings.Contains(msg, "not authorized"):
			return apperrors.Forbidden("storage policy denied access").WithCause(err)
		}
		if appErr, ok := apperrors.AsAppError(httpclient.ToAppError(err, "storage")); ok {
			return appErr
		}
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "connection refused") || strings.Contains(msg, "timeout") || strings.Contains(msg, "network") {
		return apperrors.ServiceUnavailable("storage").WithCause(err)
	}
	return apperrors.Internal(err)
}
