// Package database provides a GORM component backed by SQLite for the local
// recording catalog and user prompt library.
//
// The component opens the database on Start, retrying with backoff, and
// auto-migrates any models registered with WithAutoMigrate:
//
//	db := database.NewComponent(database.Config{Enabled: true, DSN: "audiopen.db", AutoMigrate: true}, log).
//	    WithAutoMigrate(&catalog.RecordingRow{}, &prompt.Row{})
//	registry.Register(db)
//
// FromDatabase translates GORM errors into AppErrors so callers can surface
// not-found and duplicate-key conditions without inspecting driver messages.
package database
