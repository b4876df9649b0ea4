// Package filesystem provides filesystem implementations for saveli.
//
// This package contains implementations of the types.FS interface: the
// standard OS filesystem used by the CLI and an afero-backed filesystem used
// for in-memory tests. It also holds the link detection helpers shared by
// the locator and the link engine.
package filesystem
