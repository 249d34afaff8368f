// Package diagnostics is the injectable introspection sink used by the
// capture engine, artifact gateway, catalog and transcription orchestrator.
//
// Components accept a Diagnostics and call Record at interesting points
// (state transitions, URL refreshes, sweeps, RPC classifications). Tests and
// production builds pass Nop; the debug command passes a Recorder and serves
// a Panel over the local HTTP server:
//
//	rec := diagnostics.NewRecorder(256)
//	srv := server.New(cfg.Server, log)
//	(&diagnostics.Panel{Recorder: rec, Health: registry.HealthAll}).Register(srv.GinEngine())
package diagnostics
