// Package main hosts the stanza CLI entrypoint and command graph.
//
// The Cobra-based command tree turns terminal invocations into extract and
// combine runs, watch loops, status and history reports, and configuration
// scaffolding. It centralizes configuration resolution, logger setup, and
// sync index access so subcommands can focus on presentation.
//
// Keep this package lean: behavior belongs in internal/stanza and
// internal/workflow, and commands here only resolve arguments and render
// results.
package main
