// Package catalog keeps the signed-in user's list of saved recordings.
//
// A Catalog holds the local view and applies every mutation optimistically:
// it snapshots the view, applies the change, calls the Backend, restores the
// snapshot if the call fails and then re-fetches. Loading sweeps entries whose
// audio URL no other service could fetch (blob:, file:, data:, plain HTTP,
// loopback hosts) out of the backend, once per load.
//
// Backends are interchangeable: MemoryBackend for tests and offline use,
// GormBackend on a local SQLite file, RESTBackend on a Supabase PostgREST
// recordings table.
package catalog
