// pkg/testutil/environment.go
// DEPENDENCIES: pkg/filesystem, pkg/paths
// PURPOSE: Orchestrate isolated test environments

package testutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/arthur-debert/saveli/pkg/filesystem"
	"github.com/arthur-debert/saveli/pkg/paths"
	"github.com/arthur-debert/saveli/pkg/types"
)

// EnvType defines the type of test environment
type EnvType int

const (
	EnvMemoryOnly EnvType = iota // Pure in-memory, no links or real renames
	EnvIsolated                  // Real filesystem in temp directory
)

// TestEnvironment provides a complete test environment with all dependencies
type TestEnvironment struct {
	// Root contains everything else
	Root string

	HomeDir     string
	OrigDir     string
	StorageRoot string
	DataDir     string
	ConfigDir   string
	StateDir    string

	FS       types.FS
	Platform paths.PlatformContext

	Type EnvType
	t    *testing.T
}

// NewTestEnvironment creates a new test environment and points HOME and the
// SAVELI_*_DIR variables into it for the duration of the test
func NewTestEnvironment(t *testing.T, envType EnvType) *TestEnvironment {
	t.Helper()

	env := &TestEnvironment{t: t, Type: envType}

	switch envType {
	case EnvMemoryOnly:
		env.Root = filepath.Join(string(filepath.Separator), "virtual")
		env.FS = filesystem.NewMemory()
	default:
		root := t.TempDir()
		// macOS hands out /var/... which is itself a symlink to /private/var
		if resolved, err := filepath.EvalSymlinks(root); err == nil {
			root = resolved
		}
		env.Root = root
		env.FS = filesystem.NewOS()
	}

	env.HomeDir = filepath.Join(env.Root, "home")
	env.OrigDir = filepath.Join(env.Root, "orig")
	env.StorageRoot = filepath.Join(env.Root, "store")
	env.DataDir = filepath.Join(env.Root, "data")
	env.ConfigDir = filepath.Join(env.Root, "config")
	env.StateDir = filepath.Join(env.Root, "state")

	for _, dir := range []string{env.HomeDir, env.OrigDir, env.StorageRoot, env.DataDir, env.ConfigDir, env.StateDir} {
		if err := env.FS.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("Failed to create %s: %v", dir, err)
		}
	}

	t.Setenv("HOME", env.HomeDir)
	if runtime.GOOS == "windows" {
		t.Setenv("USERPROFILE", env.HomeDir)
	}
	t.Setenv(paths.EnvSaveliDataDir, env.DataDir)
	t.Setenv(paths.EnvSaveliConfigDir, env.ConfigDir)
	t.Setenv(paths.EnvSaveliStateDir, env.StateDir)
	t.Setenv("SAVELI_CONFIG", "")
	for _, key := range []string{"SAVELI_REGISTRY_PATH", "SAVELI_CATALOG_PATH", "SAVELI_LINK_STRATEGY", "SAVELI_LOCATE_WORKERS"} {
		t.Setenv(key, "")
		_ = os.Unsetenv(key)
	}

	env.Platform = paths.PlatformContext{
		OS:   runtime.GOOS,
		Home: env.HomeDir,
		Vars: map[string]string{
			"HOME":   env.HomeDir,
			"ORIG":   env.OrigDir,
			"SAVELI": env.Root,
		},
	}

	return env
}

// OrigPath returns a path under the original-locations tree
func (env *TestEnvironment) OrigPath(elem ...string) string {
	return filepath.Join(append([]string{env.OrigDir}, elem...)...)
}

// StoragePath returns a path under the storage root
func (env *TestEnvironment) StoragePath(elem ...string) string {
	return filepath.Join(append([]string{env.StorageRoot}, elem...)...)
}

// RegistryPath is where the registry lives in this environment
func (env *TestEnvironment) RegistryPath() string {
	return filepath.Join(env.DataDir, paths.RegistryFileName)
}

// Entry builds a catalog entry whose templates are the given absolute
// paths, valid on every platform
func (env *TestEnvironment) Entry(id string, locations ...string) types.CatalogEntry {
	entry := types.CatalogEntry{ID: id, Title: id}
	for _, loc := range locations {
		entry.Templates = append(entry.Templates, types.PathTemplate{
			Platform: types.PlatformAny,
			Path:     loc,
		})
	}
	return entry
}

// CreateSave writes a save directory under the original-locations tree
func (env *TestEnvironment) CreateSave(name string, files map[string]string) string {
	env.t.Helper()
	return CreateSave(env.t, env.OrigPath(name), files)
}
