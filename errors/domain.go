package errors

import (
	"fmt"
	"net/http"
	"time"
)

// DevicePermissionDenied reports that the platform refused microphone access.
func DevicePermissionDenied(cause error) *AppError {
	return &AppError{
		Code: ErrCodeDevicePermissionDenied, Message: "Microphone access was denied. Allow access and try again.",
		HTTPStatus: http.StatusForbidden, Cause: cause,
	}
}

// DeviceUnavailable reports that no usable audio input device exists.
func DeviceUnavailable(cause error) *AppError {
	return &AppError{
		Code: ErrCodeDeviceUnavailable, Message: "No audio input device is available.",
		HTTPStatus: http.StatusServiceUnavailable, Cause: cause,
	}
}

// InvalidTransition reports an operation that the capture state machine rejects.
func InvalidTransition(op, state string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidTransition, Message: fmt.Sprintf("cannot %s while %s", op, state),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"operation": op, "state": state},
	}
}

// UploadFailed reports that the audio never reached storage. The caller keeps the blob.
func UploadFailed(cause error) *AppError {
	return &AppError{
		Code: ErrCodeUploadFailed, Message: "Uploading the recording failed. Your audio is kept locally; try saving again.",
		HTTPStatus: http.StatusBadGateway, Retryable: true, Cause: cause,
	}
}

// SignedURLFailed reports that storagePath exists but no signed URL could be issued.
func SignedURLFailed(storagePath string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeSignedURLFailed, Message: "The recording was stored but a playback link could not be created.",
		HTTPStatus: http.StatusBadGateway, Retryable: true, Cause: cause,
		Details: map[string]any{"storage_path": storagePath},
	}
}

// InvalidArtifact reports a recording whose URL cannot be fetched by a remote service.
func InvalidArtifact(url, reason string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidArtifact, Message: "This recording has no reachable audio and must be recorded again.",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"url": url, "reason": reason},
	}
}

// Overloaded reports a 503 from the transcription backend with its suggested wait.
func Overloaded(message string, retryAfter time.Duration) *AppError {
	if message == "" {
		message = "The transcription service is overloaded. Please try again later."
	}
	return &AppError{
		Code: ErrCodeTranscriptionOverloaded, Message: message,
		HTTPStatus: http.StatusServiceUnavailable, Retryable: true,
		Details: map[string]any{
			"retry_after":         retryAfter,
			"retry_after_seconds": int(retryAfter.Seconds()),
		},
	}
}

// URLExpired reports a 403 caused by a stale or unauthorized audio URL.
func URLExpired(message string) *AppError {
	if message == "" {
		message = "The audio link expired or access was denied."
	}
	return &AppError{
		Code: ErrCodeURLExpired, Message: message,
		HTTPStatus: http.StatusForbidden, Retryable: true,
	}
}

// TranscriptionFailed reports a terminal transcription response.
func TranscriptionFailed(status int, message string) *AppError {
	if message == "" {
		message = fmt.Sprintf("transcription failed with status %d", status)
	}
	return &AppError{
		Code: ErrCodeTranscriptionFailed, Message: message,
		HTTPStatus: status,
	}
}

// CatalogSync reports a catalog mutation whose remote call failed and was rolled back.
func CatalogSync(op string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeCatalogSync, Message: fmt.Sprintf("Could not %s the recording. Your change was reverted.", op),
		HTTPStatus: http.StatusBadGateway, Retryable: true, Cause: cause,
		Details: map[string]any{"operation": op},
	}
}

// CatalogClosed reports an operation on a catalog that was already closed.
func CatalogClosed() *AppError {
	return &AppError{
		Code: ErrCodeCatalogClosed, Message: "The recordings list is no longer open.",
		HTTPStatus: http.StatusConflict,
	}
}

// HasCode reports whether err is an AppError carrying code.
func HasCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}

// RetryAfter extracts the server-suggested wait from an overloaded error.
func RetryAfter(err error) (time.Duration, bool) {
	appErr, ok := AsAppError(err)
	if !ok || appErr.Details == nil {
		return 0, false
	}
	d, ok := appErr.Details["retry_after"].(time.Duration)
	return d, ok
}
