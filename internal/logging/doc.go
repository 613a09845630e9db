// Package logging provides structured logging utilities for the coverletter application.
//
// This package centralizes logging patterns to ensure consistent, structured logging
// throughout the codebase using the standard library's slog package.
//
// # Usage Patterns
//
// Create a logger with standard attributes:
//
//	logger := logging.WithOperation(slog.Default(), "drive.copy")
//	logger.Info("template copied",
//	    logging.DocumentID(id),
//	    logging.Status(logging.StatusSuccess))
//
// # Security Considerations
//
// OAuth tokens are never logged directly; use SanitizeToken to record that a
// token was present without exposing its content.
package logging
