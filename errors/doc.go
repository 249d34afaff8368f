// Package errors defines the error taxonomy shared by every audiopen component.
//
// Device, upload, artifact, transcription and catalog failures each have a
// dedicated ErrorCode. Retryable codes (upload, signed URL, overload, rate
// limit, expired URL, catalog sync) carry Retryable=true so presentation code
// can decide whether to offer a retry control.
package errors
