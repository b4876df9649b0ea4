// Package commands is the layer between the CLI and the engine.
//
// Transition commands (link, restore, unlink, ignore, heed) go through
// Dispatch, which holds the registry lock for the whole command, runs the
// engine once per entry and saves the registry after every entry whose state
// changed. A failing entry never stops the others; its error is recorded in
// the per-entry result.
//
// The remaining commands are plain functions: SetStoragePath, Status, Search
// and AddEntry.
package commands
