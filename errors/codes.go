package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Infrastructure errors (retryable)
const (
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	ErrCodeConnectionFailed   ErrorCode = "CONNECTION_FAILED"
	ErrCodeTimeout            ErrorCode = "TIMEOUT"
	ErrCodeRateLimited        ErrorCode = "RATE_LIMITED"
)

// Resource and input errors
const (
	ErrCodeNotFound      ErrorCode = "NOT_FOUND"
	ErrCodeAlreadyExists ErrorCode = "ALREADY_EXISTS"
	ErrCodeInvalidInput  ErrorCode = "INVALID_INPUT"
	ErrCodeUnauthorized  ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden     ErrorCode = "FORBIDDEN"
	ErrCodeTokenExpired  ErrorCode = "TOKEN_EXPIRED"
	ErrCodeInvalidToken  ErrorCode = "INVALID_TOKEN"
)

// Internal errors
const (
	ErrCodeInternal        ErrorCode = "INTERNAL_ERROR"
	ErrCodeDatabaseError   ErrorCode = "DATABASE_ERROR"
	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE_ERROR"
)

// Capture errors. Device errors are never retried by the engine itself.
const (
	// ErrCodeDevicePermissionDenied indicates the platform refused microphone access.
	ErrCodeDevicePermissionDenied ErrorCode = "DEVICE_PERMISSION_DENIED"
	// ErrCodeDeviceUnavailable indicates no usable input device exists.
	ErrCodeDeviceUnavailable ErrorCode = "DEVICE_UNAVAILABLE"
	// ErrCodeInvalidTransition indicates an operation not allowed in the current capture state.
	ErrCodeInvalidTransition ErrorCode = "INVALID_TRANSITION"
)

// Artifact errors.
const (
	// ErrCodeUploadFailed indicates the binary never reached storage.
	ErrCodeUploadFailed ErrorCode = "UPLOAD_FAILED"
	// ErrCodeSignedURLFailed indicates the object exists but no URL could be issued.
	ErrCodeSignedURLFailed ErrorCode = "SIGNED_URL_FAILED"
	// ErrCodeInvalidArtifact indicates a local or ephemeral URL that no remote service can fetch.
	ErrCodeInvalidArtifact ErrorCode = "INVALID_ARTIFACT"
)

// Transcription errors.
const (
	// ErrCodeTranscriptionOverloaded is the 503 case; carries a retry_after detail.
	ErrCodeTranscriptionOverloaded ErrorCode = "TRANSCRIPTION_OVERLOADED"
	// ErrCodeURLExpired is the 403 case.
	ErrCodeURLExpired ErrorCode = "URL_EXPIRED"
	// ErrCodeTranscriptionFailed is any terminal status.
	ErrCodeTranscriptionFailed ErrorCode = "TRANSCRIPTION_FAILED"
)

const (
	// ErrCodeCatalogSync indicates a catalog mutation was rolled back.
	ErrCodeCatalogSync ErrorCode = "CATALOG_SYNC_FAILED"
	// ErrCodeCatalogClosed is returned once the catalog has been closed.
	ErrCodeCatalogClosed ErrorCode = "CATALOG_CLOSED"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeServiceUnavailable:      true,
	ErrCodeConnectionFailed:        true,
	ErrCodeTimeout:                 true,
	ErrCodeRateLimited:             true,
	ErrCodeDatabaseError:           true,
	ErrCodeExternalService:         true,
	ErrCodeUploadFailed:            true,
	ErrCodeSignedURLFailed:         true,
	ErrCodeTranscriptionOverloaded: true,
	ErrCodeURLExpired:              true,
	ErrCodeCatalogSync:             true,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
