// Package logging builds the slog loggers used across herald.
//
// New constructs a logger from Options (level plus console or json format);
// NewFromConfig wires the application config in, teeing output to the
// configured log directory. The attr helpers keep field construction terse
// and uniform, and NewComponentLogger stamps the standard component field so
// log lines can be filtered per subsystem.
package logging
