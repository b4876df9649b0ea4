// pkg/engine/engine_test.go
// TEST TYPE: Integration Test
// DEPENDENCIES: real filesystem in a temp dir, locator, linker, FaultFS
// PURPOSE: Test the entry state machine end to end

package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/arthur-debert/saveli/pkg/errors"
	"github.com/arthur-debert/saveli/pkg/linker"
	"github.com/arthur-debert/saveli/pkg/locator"
	"github.com/arthur-debert/saveli/pkg/registry"
	"github.com/arthur-debert/saveli/pkg/testutil"
	"github.com/arthur-debert/saveli/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	env    *testutil.TestEnvironment
	reg    *registry.Registry
	faults *testutil.FaultFS
	engine *Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	testutil.SkipOnWindows(t)

	env := testutil.NewTestEnvironment(t, testutil.EnvIsolated)
	reg := registry.New()
	reg.SetStorageRoot(env.StorageRoot)

	f := &fixture{env: env, reg: reg, faults: testutil.NewFaultFS(env.FS)}
	f.engine = f.build(false)
	return f
}

func (f *fixture) build(dryRun bool) *Engine {
	return New(Options{
		FS:       f.faults,
		Resolver: locator.New(f.faults, f.env.Platform),
		Linker:   linker.New(f.faults, linker.StrategySymlink),
		Registry: f.reg,
		DryRun:   dryRun,
	})
}

func (f *fixture) witcher(t *testing.T) (types.CatalogEntry, string) {
	t.Helper()
	origin := f.env.CreateSave("witcher3", map[string]string{
		"slot1.sav":         "geralt",
		"slot2.sav":         "ciri",
		"screenshots/a.png": "png",
	})
	return f.env.Entry("witcher3", "$ORIG/witcher3"), origin
}

func assertCode(t *testing.T, err error, code errors.ErrorCode) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, code), "expected %s, got %v", code, err)
}

func TestLink_SingleSave(t *testing.T) {
	f := newFixture(t)
	entry, origin := f.witcher(t)
	dest := f.env.StoragePath("witcher3")

	res, err := f.engine.Link(entry)
	require.NoError(t, err)
	assert.False(t, res.NoOp)
	assert.True(t, res.From.IsUnmanaged())
	assert.Equal(t, types.Linked("witcher3", origin), res.To)
	assert.Equal(t, []types.Operation{
		{Type: types.OperationMove, Source: origin, Target: dest},
		{Type: types.OperationLink, Source: origin, Target: dest},
	}, res.Operations)

	testutil.AssertSymlink(t, origin, dest)
	testutil.AssertFileContent(t, filepath.Join(dest, "slot1.sav"), "geralt")
	assert.Equal(t, types.Linked("witcher3", origin), f.reg.Get("witcher3"))
}

func TestLink_IsIdempotent(t *testing.T) {
	f := newFixture(t)
	entry, _ := f.witcher(t)

	_, err := f.engine.Link(entry)
	require.NoError(t, err)
	before := testutil.SnapshotTree(t, f.env.Root)

	res, err := f.engine.Link(entry)
	require.NoError(t, err)
	assert.True(t, res.NoOp)
	assert.Empty(t, res.Operations)
	assert.Equal(t, before, testutil.SnapshotTree(t, f.env.Root))
}

func TestLink_SingleFileSave(t *testing.T) {
	f := newFixture(t)
	origin := testutil.CreateFile(t, f.env.OrigDir, "undertale.ini", "[General]")
	entry := f.env.Entry("undertale", "$ORIG/undertale.ini")

	_, err := f.engine.Link(entry)
	require.NoError(t, err)
	testutil.AssertSymlink(t, origin, f.env.StoragePath("undertale"))
	testutil.AssertFileContent(t, origin, "[General]")
}

func TestLinkThenUnlink_RoundTrip(t *testing.T) {
	f := newFixture(t)
	entry, origin := f.witcher(t)
	before := testutil.SnapshotTree(t, f.env.OrigDir)

	_, err := f.engine.Link(entry)
	require.NoError(t, err)

	res, err := f.engine.Unlink(entry)
	require.NoError(t, err)
	assert.True(t, res.To.IsUnmanaged())

	assert.Equal(t, before, testutil.SnapshotTree(t, f.env.OrigDir))
	assert.True(t, testutil.DirExists(t, origin))
	testutil.AssertNoFile(t, f.env.StoragePath("witcher3"))
	assert.True(t, f.reg.Get("witcher3").IsUnmanaged())
}

func TestLink_Errors(t *testing.T) {
	t.Run("no save found", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.engine.Link(f.env.Entry("hades", "$ORIG/hades"))
		assertCode(t, err, errors.ErrNoSaveFound)
		assert.True(t, f.reg.Has("hades"), "record is created even when the transition fails")
	})

	t.Run("ambiguous", func(t *testing.T) {
		f := newFixture(t)
		f.env.CreateSave("a", map[string]string{"x": "1"})
		f.env.CreateSave("b", map[string]string{"y": "2"})

		_, err := f.engine.Link(f.env.Entry("game", "$ORIG/a", "$ORIG/b"))
		assertCode(t, err, errors.ErrAmbiguousSaveLocation)
		assert.Len(t, errors.GetErrorDetails(err)["candidates"], 2)
	})

	t.Run("storage not set", func(t *testing.T) {
		f := newFixture(t)
		f.reg.SetStorageRoot("")
		entry, _ := f.witcher(t)

		_, err := f.engine.Link(entry)
		assertCode(t, err, errors.ErrStorageNotSet)
	})

	t.Run("collision leaves everything untouched", func(t *testing.T) {
		f := newFixture(t)
		entry, origin := f.witcher(t)
		testutil.CreateFile(t, f.env.StoragePath("witcher3"), "other.sav", "not mine")

		_, err := f.engine.Link(entry)
		assertCode(t, err, errors.ErrStorageCollision)
		assert.True(t, testutil.DirExists(t, origin))
		testutil.AssertFileContent(t, f.env.StoragePath("witcher3", "other.sav"), "not mine")
		assert.True(t, f.reg.Get("witcher3").IsUnmanaged())
	})

	t.Run("existing link with missing storage data", func(t *testing.T) {
		f := newFixture(t)
		testutil.CreateSymlink(t, f.env.StoragePath("gone"), f.env.OrigPath("gone"))

		_, err := f.engine.Link(f.env.Entry("gone", "$ORIG/gone"))
		assertCode(t, err, errors.ErrStorageEntryMissing)
	})
}

func TestLink_ReplacesEmptyStorageDirectory(t *testing.T) {
	f := newFixture(t)
	entry, origin := f.witcher(t)
	testutil.CreateDir(t, f.env.StorageRoot, "witcher3")

	_, err := f.engine.Link(entry)
	require.NoError(t, err)
	testutil.AssertSymlink(t, origin, f.env.StoragePath("witcher3"))
}

func TestLink_AdoptsExistingStorageLink(t *testing.T) {
	f := newFixture(t)
	testutil.CreateSave(t, f.env.StoragePath("celeste"), map[string]string{"0.celeste": "x"})
	link := f.env.OrigPath("celeste")
	testutil.CreateSymlink(t, f.env.StoragePath("celeste"), link)

	res, err := f.engine.Link(f.env.Entry("celeste", "$ORIG/celeste"))
	require.NoError(t, err)
	assert.True(t, res.NoOp)
	assert.Equal(t, types.Linked("celeste", link), f.reg.Get("celeste"))
}

func TestLink_DoesNotAdoptAnotherEntrysStorage(t *testing.T) {
	f := newFixture(t)
	origin := f.env.CreateSave("shared", map[string]string{"slot.sav": "base"})
	base := f.env.Entry("game", "$ORIG/shared")
	goty := f.env.Entry("game-goty", "$ORIG/shared")

	_, err := f.engine.Link(base)
	require.NoError(t, err)

	res, err := f.engine.Link(goty)
	assertCode(t, err, errors.ErrStorageCollision)
	assert.False(t, res.NoOp)
	assert.False(t, f.reg.Get("game-goty").IsLinked())

	_, err = f.engine.Unlink(goty)
	assertCode(t, err, errors.ErrNothingToUnlink)
	testutil.AssertFileContent(t, filepath.Join(f.env.StoragePath("game"), "slot.sav"), "base")

	_, err = f.engine.Unlink(base)
	require.NoError(t, err)
	testutil.AssertFileContent(t, filepath.Join(origin, "slot.sav"), "base")
}

func TestLink_RollbackOnLinkFailure(t *testing.T) {
	f := newFixture(t)
	entry, origin := f.witcher(t)
	before := testutil.SnapshotTree(t, f.env.OrigDir)
	f.faults.FailOn(testutil.OpSymlink, origin, &os.LinkError{Op: "symlink", Err: os.ErrPermission})

	res, err := f.engine.Link(entry)
	assertCode(t, err, errors.ErrInsufficientPrivilege)
	assert.Equal(t, types.OperationRollback, res.Operations[len(res.Operations)-1].Type)

	assert.Equal(t, before, testutil.SnapshotTree(t, f.env.OrigDir))
	testutil.AssertNoFile(t, f.env.StoragePath("witcher3"))
	assert.True(t, f.reg.Get("witcher3").IsUnmanaged())
}

func TestLink_RollbackRestoresEmptyStorageDirectory(t *testing.T) {
	f := newFixture(t)
	entry, origin := f.witcher(t)
	testutil.CreateDir(t, f.env.StorageRoot, "witcher3")
	f.faults.FailOn(testutil.OpSymlink, origin, os.ErrInvalid)

	_, err := f.engine.Link(entry)
	assertCode(t, err, errors.ErrIO)
	assert.True(t, testutil.DirExists(t, f.env.StoragePath("witcher3")))
	assert.True(t, testutil.DirExists(t, origin))
}

func TestLink_PartialFailure(t *testing.T) {
	f := newFixture(t)
	entry, origin := f.witcher(t)
	dest := f.env.StoragePath("witcher3")
	f.faults.
		FailOn(testutil.OpSymlink, origin, os.ErrInvalid).
		FailOn(testutil.OpRename, origin, os.ErrInvalid)

	_, err := f.engine.Link(entry)
	assertCode(t, err, errors.ErrPartialFailure)
	details := errors.GetErrorDetails(err)
	assert.Equal(t, origin, details["original"])
	assert.Equal(t, dest, details["destination"])
	assert.Equal(t, "witcher3", details["entry"])

	// the data is intact in storage
	testutil.AssertFileContent(t, filepath.Join(dest, "slot1.sav"), "geralt")
	assert.True(t, f.reg.Get("witcher3").IsUnmanaged())
}

func TestLink_MoveFailure(t *testing.T) {
	f := newFixture(t)
	entry, origin := f.witcher(t)
	f.faults.FailOn(testutil.OpRename, f.env.StoragePath("witcher3"), os.ErrInvalid)

	_, err := f.engine.Link(entry)
	assertCode(t, err, errors.ErrIO)
	assert.True(t, testutil.DirExists(t, origin))
	assert.Zero(t, f.faults.Calls(testutil.OpSymlink))
}

func TestDryRun_ChangesNothing(t *testing.T) {
	f := newFixture(t)
	entry, origin := f.witcher(t)
	before := testutil.SnapshotTree(t, f.env.Root)
	dry := f.build(true)

	res, err := dry.Link(entry)
	require.NoError(t, err)
	assert.True(t, res.DryRun)
	assert.Equal(t, types.Linked("witcher3", origin), res.To)
	assert.Len(t, res.Operations, 2)

	assert.Equal(t, before, testutil.SnapshotTree(t, f.env.Root))
	assert.True(t, f.reg.Get("witcher3").IsUnmanaged())

	res, err = dry.Ignore(entry)
	require.NoError(t, err)
	assert.True(t, res.To.IsIgnored())
	assert.True(t, f.reg.Get("witcher3").IsUnmanaged())
}

func TestDryRun_UnlinkAndRestore(t *testing.T) {
	f := newFixture(t)
	entry, origin := f.witcher(t)
	_, err := f.engine.Link(entry)
	require.NoError(t, err)
	before := testutil.SnapshotTree(t, f.env.Root)
	dry := f.build(true)

	res, err := dry.Unlink(entry)
	require.NoError(t, err)
	assert.Equal(t, types.OperationUnlink, res.Operations[0].Type)

	require.NoError(t, os.Remove(origin))
	res, err = dry.Restore(entry)
	require.NoError(t, err)
	assert.Equal(t, types.OperationLink, res.Operations[0].Type)

	require.NoError(t, os.Symlink(f.env.StoragePath("witcher3"), origin))
	assert.Equal(t, before, testutil.SnapshotTree(t, f.env.Root))
	assert.True(t, f.reg.Get("witcher3").IsLinked())
}

func TestRestore_FreshMachine(t *testing.T) {
	f := newFixture(t)
	testutil.CreateSave(t, f.env.StoragePath("hollow-knight"), map[string]string{"user1.dat": "knight"})
	f.reg.Set("hollow-knight", types.Linked("hollow-knight", ""))
	origin := f.env.OrigPath("Team Cherry", "Hollow Knight")
	entry := f.env.Entry("hollow-knight", "$ORIG/Team Cherry/Hollow Knight")

	res, err := f.engine.Restore(entry)
	require.NoError(t, err)
	assert.Equal(t, []types.Operation{
		{Type: types.OperationMkdir, Source: f.env.OrigPath("Team Cherry"), Target: f.env.OrigPath("Team Cherry")},
		{Type: types.OperationLink, Source: origin, Target: f.env.StoragePath("hollow-knight")},
	}, res.Operations)

	testutil.AssertSymlink(t, origin, f.env.StoragePath("hollow-knight"))
	testutil.AssertFileContent(t, filepath.Join(origin, "user1.dat"), "knight")
	assert.Equal(t, types.Linked("hollow-knight", origin), f.reg.Get("hollow-knight"))

	res, err = f.engine.Restore(entry)
	require.NoError(t, err)
	assert.True(t, res.NoOp)
}

func TestRestore_RemovesCreatedParentsOnFailure(t *testing.T) {
	f := newFixture(t)
	testutil.CreateSave(t, f.env.StoragePath("factorio"), map[string]string{"saves/a.zip": "zip"})
	f.reg.Set("factorio", types.Linked("factorio", ""))
	origin := f.env.OrigPath("deep", "er", "factorio")
	f.faults.FailOn(testutil.OpSymlink, origin, os.ErrInvalid)

	_, err := f.engine.Restore(f.env.Entry("factorio", "$ORIG/deep/er/factorio"))
	assertCode(t, err, errors.ErrIO)
	testutil.AssertNoFile(t, f.env.OrigPath("deep"))
	assert.True(t, f.reg.Get("factorio").IsLinked())
}

func TestRestore_Errors(t *testing.T) {
	setup := func(t *testing.T) (*fixture, types.CatalogEntry) {
		f := newFixture(t)
		testutil.CreateSave(t, f.env.StoragePath("hades"), map[string]string{"Profile1.sav": "zag"})
		f.reg.Set("hades", types.Linked("hades", ""))
		return f, f.env.Entry("hades", "$ORIG/hades")
	}

	t.Run("origin occupied", func(t *testing.T) {
		f, entry := setup(t)
		f.env.CreateSave("hades", map[string]string{"Profile1.sav": "local"})
		_, err := f.engine.Restore(entry)
		assertCode(t, err, errors.ErrOriginOccupied)
		testutil.AssertFileContent(t, f.env.OrigPath("hades", "Profile1.sav"), "local")
	})

	t.Run("link to elsewhere", func(t *testing.T) {
		f, entry := setup(t)
		testutil.CreateSymlink(t, f.env.HomeDir, f.env.OrigPath("hades"))
		_, err := f.engine.Restore(entry)
		assertCode(t, err, errors.ErrLinkTargetMismatch)
	})

	t.Run("storage data missing", func(t *testing.T) {
		f, entry := setup(t)
		require.NoError(t, os.RemoveAll(f.env.StoragePath("hades")))
		_, err := f.engine.Restore(entry)
		assertCode(t, err, errors.ErrStorageEntryMissing)
	})

	t.Run("storage data empty", func(t *testing.T) {
		f, entry := setup(t)
		require.NoError(t, os.RemoveAll(f.env.StoragePath("hades")))
		testutil.CreateDir(t, f.env.StorageRoot, "hades")
		_, err := f.engine.Restore(entry)
		assertCode(t, err, errors.ErrStorageEntryMissing)
	})

	t.Run("several expected paths without a recorded origin", func(t *testing.T) {
		f, _ := setup(t)
		_, err := f.engine.Restore(f.env.Entry("hades", "$ORIG/a/hades", "$ORIG/b/hades"))
		assertCode(t, err, errors.ErrAmbiguousSaveLocation)
	})

	t.Run("no expected path on this platform", func(t *testing.T) {
		f, _ := setup(t)
		entry := types.CatalogEntry{ID: "hades", Title: "Hades", Templates: []types.PathTemplate{
			{Platform: types.Platform("nowhere"), Path: "/x"},
		}}
		_, err := f.engine.Restore(entry)
		assertCode(t, err, errors.ErrNoSaveFound)
	})
}

func TestRestore_RecordedOriginBreaksTie(t *testing.T) {
	f := newFixture(t)
	testutil.CreateSave(t, f.env.StoragePath("hades"), map[string]string{"Profile1.sav": "zag"})
	f.reg.Set("hades", types.Linked("hades", f.env.OrigPath("b", "hades")))

	_, err := f.engine.Restore(f.env.Entry("hades", "$ORIG/a/hades", "$ORIG/b/hades"))
	require.NoError(t, err)
	testutil.AssertSymlink(t, f.env.OrigPath("b", "hades"), f.env.StoragePath("hades"))
	testutil.AssertNoFile(t, f.env.OrigPath("a"))
}

func TestUnlink_Errors(t *testing.T) {
	t.Run("link missing", func(t *testing.T) {
		f := newFixture(t)
		entry, origin := f.witcher(t)
		_, err := f.engine.Link(entry)
		require.NoError(t, err)
		require.NoError(t, os.Remove(origin))

		_, err = f.engine.Unlink(entry)
		assertCode(t, err, errors.ErrLinkTargetMismatch)
		assert.True(t, f.reg.Get("witcher3").IsLinked())
	})

	t.Run("storage data missing", func(t *testing.T) {
		f := newFixture(t)
		f.reg.Set("witcher3", types.Linked("witcher3", ""))
		_, err := f.engine.Unlink(f.env.Entry("witcher3", "$ORIG/witcher3"))
		assertCode(t, err, errors.ErrStorageEntryMissing)
	})
}

func TestUnlink_MoveFailureRecreatesLink(t *testing.T) {
	f := newFixture(t)
	entry, origin := f.witcher(t)
	_, err := f.engine.Link(entry)
	require.NoError(t, err)
	f.faults.FailOn(testutil.OpRename, origin, os.ErrInvalid)

	_, err = f.engine.Unlink(entry)
	assertCode(t, err, errors.ErrIO)
	testutil.AssertSymlink(t, origin, f.env.StoragePath("witcher3"))
	assert.True(t, f.reg.Get("witcher3").IsLinked())
}

func TestUnlink_PartialFailure(t *testing.T) {
	f := newFixture(t)
	entry, origin := f.witcher(t)
	_, err := f.engine.Link(entry)
	require.NoError(t, err)
	f.faults.
		FailOn(testutil.OpRename, origin, os.ErrInvalid).
		FailOn(testutil.OpSymlink, origin, os.ErrInvalid)

	_, err = f.engine.Unlink(entry)
	assertCode(t, err, errors.ErrPartialFailure)
	assert.Equal(t, f.env.StoragePath("witcher3"), errors.GetErrorDetails(err)["destination"])
	testutil.AssertFileContent(t, f.env.StoragePath("witcher3", "slot1.sav"), "geralt")
}

func TestUnlink_PrunesNestedStorageDirectories(t *testing.T) {
	f := newFixture(t)
	testutil.CreateSave(t, f.env.StoragePath("old", "layout", "terraria"), map[string]string{"p.plr": "p"})
	origin := f.env.OrigPath("terraria")
	testutil.CreateSymlink(t, f.env.StoragePath("old", "layout", "terraria"), origin)
	f.reg.Set("terraria", types.Linked(filepath.Join("old", "layout", "terraria"), origin))

	_, err := f.engine.Unlink(f.env.Entry("terraria", "$ORIG/terraria"))
	require.NoError(t, err)
	testutil.AssertFileContent(t, filepath.Join(origin, "p.plr"), "p")
	testutil.AssertNoFile(t, f.env.StoragePath("old"))
	assert.True(t, testutil.DirExists(t, f.env.StorageRoot))
}

func TestStateTable(t *testing.T) {
	tests := []struct {
		name       string
		state      types.EntryState
		transition types.Transition
		wantCode   errors.ErrorCode
		wantNoOp   bool
		wantState  types.StateKind
	}{
		{"ignored link", types.Ignored(), types.TransitionLink, errors.ErrEntryIgnored, false, types.StateIgnored},
		{"ignored restore", types.Ignored(), types.TransitionRestore, errors.ErrEntryIgnored, false, types.StateIgnored},
		{"ignored unlink", types.Ignored(), types.TransitionUnlink, errors.ErrEntryIgnored, false, types.StateIgnored},
		{"ignored ignore", types.Ignored(), types.TransitionIgnore, "", true, types.StateIgnored},
		{"ignored heed", types.Ignored(), types.TransitionHeed, "", false, types.StateUnmanaged},
		{"unmanaged restore", types.Unmanaged(), types.TransitionRestore, errors.ErrNothingToRestore, false, types.StateUnmanaged},
		{"unmanaged unlink", types.Unmanaged(), types.TransitionUnlink, errors.ErrNothingToUnlink, false, types.StateUnmanaged},
		{"unmanaged ignore", types.Unmanaged(), types.TransitionIgnore, "", false, types.StateIgnored},
		{"unmanaged heed", types.Unmanaged(), types.TransitionHeed, "", true, types.StateUnmanaged},
		{"linked heed", types.Linked("g", ""), types.TransitionHeed, errors.ErrNotIgnored, false, types.StateLinked},
		{"unknown transition", types.Unmanaged(), types.Transition("teleport"), errors.ErrInvalidInput, false, types.StateUnmanaged},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.reg.Set("g", tt.state)
			before := testutil.SnapshotTree(t, f.env.Root)

			res, err := f.engine.Apply(tt.transition, f.env.Entry("g", "$ORIG/g"))
			require.NotNil(t, res)
			if tt.wantCode != "" {
				assertCode(t, err, tt.wantCode)
				assert.Same(t, err, res.Err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantNoOp, res.NoOp)
			assert.Equal(t, tt.wantState, f.reg.Get("g").Kind)
			assert.Equal(t, before, testutil.SnapshotTree(t, f.env.Root), "filesystem must be untouched")
		})
	}
}

func TestIgnoreLinkedEntry_KeepsLink(t *testing.T) {
	f := newFixture(t)
	entry, origin := f.witcher(t)
	_, err := f.engine.Link(entry)
	require.NoError(t, err)

	res, err := f.engine.Ignore(entry)
	require.NoError(t, err)
	assert.NotEmpty(t, res.Warnings)
	assert.True(t, f.reg.Get("witcher3").IsIgnored())
	testutil.AssertSymlink(t, origin, f.env.StoragePath("witcher3"))

	// heed then link picks the existing link up again
	_, err = f.engine.Heed(entry)
	require.NoError(t, err)
	res, err = f.engine.Link(entry)
	require.NoError(t, err)
	assert.True(t, res.NoOp)
	assert.Equal(t, types.Linked("witcher3", origin), f.reg.Get("witcher3"))
}
