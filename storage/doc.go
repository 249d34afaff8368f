// Package storage is the private object store behind recording uploads.
//
// Uploads never overwrite by default, so two recordings that map to the same
// name surface as ErrAlreadyExists instead of silently replacing audio.
// Readers get time-limited signed URLs.
//
// # Backends
//
//   - storage/supabase: Supabase Storage REST API (production)
//   - storage/s3: Amazon S3 and S3-compatible storage, presigned GET URLs
//   - storage/local: filesystem with HMAC-signed URLs, for development
//   - storage/memory: in-process map, for tests and offline runs
//
// # Configuration
//
//	storage:
//	  provider: supabase
//	  bucket: audio-recordings
//	  enabled: true
package storage
