// Package security builds *tls.Config values from file-based settings.
// The Supabase REST and storage clients, the transcription client and the
// redis URL cache accept a TLSConfig for self-hosted endpoints with a
// private CA or mutual TLS.
//
//	cfg := security.TLSConfig{CAFile: "/etc/audiopen/ca.pem"}
//	tlsConfig, err := cfg.Build() // nil when nothing is set
package security
