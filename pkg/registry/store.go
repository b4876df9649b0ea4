package registry

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	serrors "github.com/arthur-debert/saveli/pkg/errors"
	"github.com/arthur-debert/saveli/pkg/logging"
	"github.com/arthur-debert/saveli/pkg/types"
	"github.com/pelletier/go-toml/v2"
)

// FormatVersion is the registry file format this build writes
const FormatVersion = 1

// Store persists a Registry
type Store interface {
	// Load returns the persisted registry. A missing or unreadable file
	// yields an empty registry together with a REGISTRY_NOT_FOUND or
	// REGISTRY_CORRUPT error so callers can decide how to proceed.
	Load() (*Registry, error)

	// Save durably replaces the persisted registry
	Save(r *Registry) error

	// Path identifies the backing file, for messages and locking
	Path() string
}

type document struct {
	Version     int                   `toml:"version"`
	StorageRoot string                `toml:"storage_root,omitempty"`
	Entries     map[string]fileRecord `toml:"entries,omitempty"`
}

type fileRecord struct {
	State          string `toml:"state"`
	StorageSubpath string `toml:"storage_subpath,omitempty"`
	Origin         string `toml:"origin,omitempty"`
}

// FileStore keeps the registry as a TOML file
type FileStore struct {
	fs   types.FS
	path string
}

// NewFileStore creates a store backed by path
func NewFileStore(fsys types.FS, path string) *FileStore {
	return &FileStore{fs: fsys, path: path}
}

func (s *FileStore) Path() string {
	return s.path
}

// Load reads and decodes the registry file
func (s *FileStore) Load() (*Registry, error) {
	logger := logging.GetLogger("registry")

	data, err := s.fs.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return New(), serrors.Newf(serrors.ErrRegistryNotFound, "no registry at %s", s.path).
				WithDetail("path", s.path)
		}
		return New(), serrors.Wrapf(err, serrors.ErrIO, "cannot read registry %s", s.path).
			WithDetail("path", s.path)
	}

	reg, err := Decode(data)
	if err != nil {
		return New(), serrors.Wrapf(err, serrors.GetErrorCode(err), "registry %s", s.path).
			WithDetail("path", s.path)
	}

	logger.Debug().
		Str("path", s.path).
		Int("records", reg.Count()).
		Str("storageRoot", reg.StorageRoot()).
		Msg("Registry loaded")
	return reg, nil
}

// Save encodes the registry and replaces the file atomically
func (s *FileStore) Save(r *Registry) error {
	data, err := Encode(r)
	if err != nil {
		return err
	}
	if err := s.fs.AtomicWrite(s.path, data, 0644); err != nil {
		return serrors.Wrapf(err, serrors.ErrIO, "cannot write registry %s", s.path).
			WithDetail("path", s.path)
	}
	logger := logging.GetLogger("registry")
	logger.Debug().
		Str("path", s.path).
		Int("records", r.Count()).
		Msg("Registry saved")
	return nil
}

// Encode renders the registry as TOML
func Encode(r *Registry) ([]byte, error) {
	doc := document{
		Version:     FormatVersion,
		StorageRoot: r.StorageRoot(),
		Entries:     make(map[string]fileRecord),
	}
	for _, rec := range r.Records() {
		doc.Entries[rec.EntryID] = fileRecord{
			State:          string(rec.State.Kind),
			StorageSubpath: rec.State.StorageSubpath,
			Origin:         rec.State.Origin,
		}
	}

	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(true)
	if err := enc.Encode(doc); err != nil {
		return nil, serrors.Wrap(err, serrors.ErrInternal, "cannot encode registry")
	}
	return buf.Bytes(), nil
}

// Decode parses a TOML registry document
func Decode(data []byte) (*Registry, error) {
	var doc document
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, serrors.Wrap(err, serrors.ErrRegistryCorrupt, "cannot decode registry")
	}

	if doc.Version > FormatVersion {
		return nil, serrors.Newf(serrors.ErrRegistryTooNew,
			"registry format %d is newer than supported format %d", doc.Version, FormatVersion).
			WithDetail("version", doc.Version)
	}
	if doc.Version < 1 {
		return nil, serrors.Newf(serrors.ErrRegistryCorrupt, "registry has invalid version %d", doc.Version)
	}

	reg := New()
	reg.SetStorageRoot(doc.StorageRoot)
	for id, rec := range doc.Entries {
		state, err := decodeState(rec)
		if err != nil {
			return nil, serrors.Wrapf(err, serrors.ErrRegistryCorrupt, "invalid record for %q", id).
				WithDetail("entry", id)
		}
		reg.Set(id, state)
	}
	return reg, nil
}

func decodeState(rec fileRecord) (types.EntryState, error) {
	switch types.StateKind(rec.State) {
	case types.StateUnmanaged:
		return types.Unmanaged(), nil
	case types.StateIgnored:
		return types.Ignored(), nil
	case types.StateLinked:
		if err := validSubpath(rec.StorageSubpath); err != nil {
			return types.EntryState{}, err
		}
		return types.Linked(rec.StorageSubpath, rec.Origin), nil
	default:
		return types.EntryState{}, fmt.Errorf("unknown state %q", rec.State)
	}
}

func validSubpath(sub string) error {
	if sub == "" {
		return fmt.Errorf("linked record without storage_subpath")
	}
	clean := filepath.Clean(filepath.FromSlash(sub))
	if filepath.IsAbs(clean) || clean == "." || clean == ".." ||
		strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return fmt.Errorf("storage_subpath %q escapes the storage root", sub)
	}
	return nil
}
