// Package types defines the core types and interfaces used throughout saveli.
// This includes the FS interface, catalog entries and their path templates,
// the per-entry state machine states, resolved save locations and the
// results produced by transitions and commands.
package types
