// Package transcription sends recorded audio and a prompt to the hosted
// transcription function and classifies what comes back.
//
// Client is the RPC: one POST of {audioUrl, prompt, recordingId} with the
// user's bearer token, guarded by a circuit breaker. Orchestrator wraps a
// single invocation: it refuses recordings whose URL no remote service can
// fetch, refreshes the signed URL when a storage path is known, calls the
// RPC, and on a 403 refreshes the URL and retries exactly once. Overload
// (503) and rate limiting (429) are returned to the caller as retryable
// errors; nothing here waits or loops on them.
package transcription
