// Package artifact stores finished recordings in object storage and
// hands out time-limited signed URLs for them.
//
// Objects are named <owner>/recording_YYYYMMDD_HHMMSS.<ext> and are never
// overwritten. Upload distinguishes a recording that never reached storage
// (UPLOAD_FAILED) from one that did but could not be signed
// (SIGNED_URL_FAILED); in the second case the storage path is returned so
// only the signature is retried.
//
// Playback URLs may be cached (in memory or in redis) but never past their
// expiry minus a safety margin.
package artifact
