// Package testutil provides utilities for testing saveli components.
//
// Key components:
//   - TestEnvironment: isolated home, original-location and storage trees
//     in a temp directory, with saveli's own directories redirected into it
//   - FaultFS: a types.FS wrapper that fails chosen operations on chosen
//     paths, for rollback and privilege scenarios
//   - SnapshotTree: a byte-for-byte description of a directory tree
//
// Engine and linker tests run on the real filesystem because they depend on
// link and rename semantics; pure state tests can use EnvMemoryOnly.
package testutil
