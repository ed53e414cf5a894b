// Package log provides the structured logging facade used across rosbag2.
//
// # Overview
//
// The package exposes a small Logger interface with leveled methods and a
// Field type for structured context. Every entry passes through a log/slog
// handler that renders it with the logger's Formatter and fans it out to its
// Outputs, so text and JSON output look the same whichever API produced them.
//
// Quick start
//
//	l := log.NewLogger(
//	    log.WithLevel(log.InfoLevel),
//	    log.WithFormatter(&log.TextFormatter{}),
//	    log.WithOutput(log.NewConsoleOutput()),
//	)
//	l = l.With(log.Component("reindexer"), log.Str("uri", "/data/bag"))
//	l.Info("scan finished", log.Int("segments", 3))
//
// # Configuration
//
// Use ApplyConfig to build a logger from a declarative Config, supporting JSON
// or text formatting and multiple outputs (console, file, null). RedactKeys
// and Sampling are applied by the slog bridge handler.
//
// # Interop
//
// To integrate with libraries expecting *log.Logger, use ToStdLogger or
// RedirectStdLog. Pebble logs through the standard library logger, so the CLI
// redirects it once at startup.
package log
