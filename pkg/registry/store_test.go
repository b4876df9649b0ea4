package registry

import (
	"testing"

	"github.com/arthur-debert/saveli/pkg/errors"
	"github.com/arthur-debert/saveli/pkg/filesystem"
	"github.com/arthur-debert/saveli/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const registryPath = "/data/saveli/registry.toml"

func TestFileStore_SaveAndLoad(t *testing.T) {
	fsys := filesystem.NewMemory()
	store := NewFileStore(fsys, registryPath)

	r := New()
	r.SetStorageRoot("/store")
	r.Set("witcher3", types.Linked("witcher3", "/home/u/Documents/The Witcher 3"))
	r.Set("hades", types.Ignored())
	r.Touch("celeste")

	require.NoError(t, store.Save(r))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "/store", loaded.StorageRoot())
	assert.Equal(t, r.Records(), loaded.Records())
}

func TestFileStore_LoadMissing(t *testing.T) {
	store := NewFileStore(filesystem.NewMemory(), registryPath)

	r, err := store.Load()
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrRegistryNotFound))
	require.NotNil(t, r)
	assert.Zero(t, r.Count())
}

func TestFileStore_LoadBroken(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantCode errors.ErrorCode
	}{
		{"not toml", "this is [not toml", errors.ErrRegistryCorrupt},
		{"unknown state", "version = 1\n[entries.a]\nstate = \"floating\"\n", errors.ErrRegistryCorrupt},
		{"linked without subpath", "version = 1\n[entries.a]\nstate = \"linked\"\n", errors.ErrRegistryCorrupt},
		{"subpath escapes root", "version = 1\n[entries.a]\nstate = \"linked\"\nstorage_subpath = \"../x\"\n", errors.ErrRegistryCorrupt},
		{"unknown field", "version = 1\nfoo = 2\n", errors.ErrRegistryCorrupt},
		{"missing version", "storage_root = \"/store\"\n", errors.ErrRegistryCorrupt},
		{"newer version", "version = 7\n", errors.ErrRegistryTooNew},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := filesystem.NewMemory()
			require.NoError(t, fsys.WriteFile(registryPath, []byte(tt.content), 0644))

			r, err := NewFileStore(fsys, registryPath).Load()
			require.Error(t, err)
			assert.True(t, errors.IsErrorCode(err, tt.wantCode), "got %v", err)
			assert.Equal(t, registryPath, errors.GetErrorDetails(err)["path"])
			require.NotNil(t, r)
			assert.Zero(t, r.Count())
		})
	}
}

func TestEncode_Format(t *testing.T) {
	r := New()
	r.SetStorageRoot("/store")
	r.Set("witcher3", types.Linked("witcher3", ""))

	data, err := Encode(r)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "version = 1")
	assert.Contains(t, text, "storage_root = '/store'")
	assert.Contains(t, text, "[entries.witcher3]")
	assert.Contains(t, text, "state = 'linked'")
	assert.NotContains(t, text, "origin")
}
