// Package logging provides structured logging utilities for ocslots.
//
// This package centralizes logging patterns to ensure consistent, structured logging
// throughout the codebase using the standard library's slog package.
//
// # Usage Patterns
//
// Create a logger with standard attributes:
//
//	logger := logging.WithOperation(slog.Default(), "availability.create")
//	logger.Info("slot created",
//	    logging.Slot(start),
//	    logging.Status(logging.StatusSuccess))
//
// # Security Considerations
//
// Bearer tokens and passwords are never logged directly; use SanitizeToken.
package logging
