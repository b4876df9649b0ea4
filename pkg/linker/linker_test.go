// pkg/linker/linker_test.go
// TEST TYPE: Integration Test
// DEPENDENCIES: real filesystem in a temp dir, FaultFS
// PURPOSE: Test link primitives, moves and error classification

package linker

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/arthur-debert/saveli/pkg/errors"
	"github.com/arthur-debert/saveli/pkg/filesystem"
	"github.com/arthur-debert/saveli/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStrategy(t *testing.T) {
	s, err := ParseStrategy("")
	require.NoError(t, err)
	assert.Equal(t, StrategyAuto, s)

	s, err = ParseStrategy("junction")
	require.NoError(t, err)
	assert.Equal(t, StrategyJunction, s)

	_, err = ParseStrategy("hardlink")
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
}

func TestCreateReadRemoveLink(t *testing.T) {
	env := testutil.NewTestEnvironment(t, testutil.EnvIsolated)
	l := New(env.FS, StrategyAuto)

	target := testutil.CreateSave(t, env.StoragePath("witcher3"), map[string]string{"slot1.sav": "a"})
	link := env.OrigPath("witcher3")

	require.NoError(t, l.CreateLink(link, target))
	testutil.AssertSymlink(t, link, target)

	got, err := l.ReadLink(link)
	require.NoError(t, err)
	assert.Equal(t, target, got)

	require.NoError(t, l.RemoveLink(link))
	testutil.AssertNoFile(t, link)
	testutil.AssertFileContent(t, filepath.Join(target, "slot1.sav"), "a")
}

func TestRemoveLink_RefusesRealData(t *testing.T) {
	env := testutil.NewTestEnvironment(t, testutil.EnvIsolated)
	l := New(env.FS, StrategyAuto)
	dir := env.CreateSave("hades", map[string]string{"Profile1.sav": "x"})

	err := l.RemoveLink(dir)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrIO))
	testutil.AssertFileContent(t, filepath.Join(dir, "Profile1.sav"), "x")
}

func TestReadLink_NotALink(t *testing.T) {
	env := testutil.NewTestEnvironment(t, testutil.EnvIsolated)
	l := New(env.FS, StrategyAuto)

	_, err := l.ReadLink(env.OrigPath("missing"))
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrIO))
}

func TestCreateLink_PrivilegeError(t *testing.T) {
	env := testutil.NewTestEnvironment(t, testutil.EnvIsolated)
	fsys := testutil.NewFaultFS(env.FS).
		FailOn(testutil.OpSymlink, "", &os.LinkError{Op: "symlink", Err: os.ErrPermission})
	l := New(fsys, StrategySymlink)

	err := l.CreateLink(env.OrigPath("x"), env.StorageRoot)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrInsufficientPrivilege), "got %v", err)
	assert.Equal(t, env.OrigPath("x"), errors.GetErrorDetails(err)["link"])
}

func TestCreateLink_OtherErrorsAreIO(t *testing.T) {
	env := testutil.NewTestEnvironment(t, testutil.EnvIsolated)
	l := New(env.FS, StrategySymlink)

	// parent does not exist
	err := l.CreateLink(env.OrigPath("no", "such", "dir", "x"), env.StorageRoot)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrIO), "got %v", err)
}

func TestCreateLink_JunctionOutsideWindows(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("junctions are available on Windows")
	}
	env := testutil.NewTestEnvironment(t, testutil.EnvIsolated)
	l := New(env.FS, StrategyJunction)

	err := l.CreateLink(env.OrigPath("x"), env.StorageRoot)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput), "got %v", err)
}

func TestMove_Rename(t *testing.T) {
	env := testutil.NewTestEnvironment(t, testutil.EnvIsolated)
	l := New(env.FS, StrategyAuto)
	src := env.CreateSave("celeste", map[string]string{"0.celeste": "save", "settings.celeste": "cfg"})
	dst := env.StoragePath("nested", "celeste")

	require.NoError(t, l.Move(src, dst))
	testutil.AssertNoFile(t, src)
	testutil.AssertFileContent(t, filepath.Join(dst, "0.celeste"), "save")
}

func TestMove_SingleFile(t *testing.T) {
	env := testutil.NewTestEnvironment(t, testutil.EnvIsolated)
	l := New(env.FS, StrategyAuto)
	src := testutil.CreateFile(t, env.OrigDir, "options.ini", "volume=3")
	dst := env.StoragePath("game-options")

	require.NoError(t, l.Move(src, dst))
	testutil.AssertFileContent(t, dst, "volume=3")
}

func TestMove_DestinationExists(t *testing.T) {
	env := testutil.NewTestEnvironment(t, testutil.EnvIsolated)
	l := New(env.FS, StrategyAuto)
	src := env.CreateSave("a", map[string]string{"f": "1"})
	dst := env.CreateSave("b", map[string]string{"g": "2"})

	err := l.Move(src, dst)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrIO))
	testutil.AssertFileContent(t, filepath.Join(src, "f"), "1")
}

func crossDevice(src, dst string) error {
	return &os.LinkError{Op: "rename", Old: src, New: dst, Err: errCrossDevice}
}

func TestMove_CrossDeviceCopies(t *testing.T) {
	testutil.SkipOnWindows(t)
	env := testutil.NewTestEnvironment(t, testutil.EnvIsolated)
	src := env.CreateSave("terraria", map[string]string{
		"Players/hero.plr":  "hero",
		"Worlds/world.wld":  "world",
		"config.json":       "{}",
		"Players/empty/.ok": "",
	})
	testutil.CreateSymlink(t, "config.json", filepath.Join(src, "config-link"))
	dst := env.StoragePath("terraria")
	before := testutil.SnapshotTree(t, src)

	fsys := testutil.NewFaultFS(env.FS).FailOnce(testutil.OpRename, dst, crossDevice(src, dst))
	l := New(fsys, StrategyAuto)

	require.NoError(t, l.Move(src, dst))
	assert.Equal(t, 1, fsys.Calls(testutil.OpRename))
	assert.Equal(t, before, testutil.SnapshotTree(t, dst))
	testutil.AssertNoFile(t, src)
}

func TestMove_CrossDeviceCopyFailureCleansUp(t *testing.T) {
	env := testutil.NewTestEnvironment(t, testutil.EnvIsolated)
	src := env.CreateSave("hollow-knight", map[string]string{"user1.dat": "1", "user2.dat": "2"})
	dst := env.StoragePath("hollow-knight")

	fsys := testutil.NewFaultFS(env.FS).
		FailOnce(testutil.OpRename, dst, crossDevice(src, dst)).
		FailOn(testutil.OpOpenFile, filepath.Join(dst, "user2.dat"), os.ErrClosed)
	l := New(fsys, StrategyAuto)

	err := l.Move(src, dst)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrIO), "got %v", err)
	testutil.AssertNoFile(t, dst)
	testutil.AssertFileContent(t, filepath.Join(src, "user2.dat"), "2")
}

func TestMove_CrossDeviceSourceRemovalFails(t *testing.T) {
	env := testutil.NewTestEnvironment(t, testutil.EnvIsolated)
	src := env.CreateSave("factorio", map[string]string{"saves/a.zip": "zip"})
	dst := env.StoragePath("factorio")

	fsys := testutil.NewFaultFS(env.FS).
		FailOnce(testutil.OpRename, dst, crossDevice(src, dst)).
		FailOn(testutil.OpRemoveAll, src, os.ErrPermission)
	l := New(fsys, StrategyAuto)

	err := l.Move(src, dst)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrPartialFailure), "got %v", err)
	details := errors.GetErrorDetails(err)
	assert.Equal(t, src, details["original"])
	assert.Equal(t, dst, details["destination"])
}

func TestMove_RenameFailure(t *testing.T) {
	env := testutil.NewTestEnvironment(t, testutil.EnvIsolated)
	src := env.CreateSave("undertale", map[string]string{"file0": "x"})
	dst := env.StoragePath("undertale")

	fsys := testutil.NewFaultFS(env.FS).FailOn(testutil.OpRename, dst, os.ErrInvalid)
	err := New(fsys, StrategyAuto).Move(src, dst)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrIO))
	testutil.AssertFileContent(t, filepath.Join(src, "file0"), "x")
}

func TestCheckPrivilege(t *testing.T) {
	env := testutil.NewTestEnvironment(t, testutil.EnvIsolated)

	require.NoError(t, New(env.FS, StrategyAuto).CheckPrivilege(env.StorageRoot))
	empty, err := filesystem.IsEmptyDir(env.FS, env.StorageRoot)
	require.NoError(t, err)
	assert.True(t, empty, "probe link must be removed")

	fsys := testutil.NewFaultFS(env.FS).
		FailOn(testutil.OpSymlink, "", &os.LinkError{Op: "symlink", Err: os.ErrPermission})
	err = New(fsys, StrategySymlink).CheckPrivilege(env.StorageRoot)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrInsufficientPrivilege))
}
