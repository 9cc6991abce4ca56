// Package logging assembles structured slog loggers and formatting helpers used
// across stanza.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so extract and combine runs
// automatically tag their log lines with the run ID and document name. The
// package also provides a no-op logger for tests and wiring code that cannot
// fail.
//
// Prefer these constructors over hand-rolled slog setup so every command emits
// records with the same shape.
package logging
