// Package logger provides structured logging built on zerolog.
//
// Components receive a *Logger and tag themselves with WithComponent.
// Fields are passed as maps, usually built with Fields:
//
//	log := root.WithComponent("artifact")
//	log.Info("uploaded", logger.Fields(logger.FieldStoragePath, path))
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "console"   # or "json"
//	  output: "stderr"
package logger
