// Package logging provides structured logging for Nightbell Core.
//
// It wraps log/slog with a consistent configuration surface: JSON
// output for production, text for development, level filtering, and
// default service/version fields on every entry.
//
// Never log secrets: bearer tokens, passwords, and the cache token
// must not appear in log output at any level.
package logging
