package registry

import (
	"path/filepath"
	"sort"
	"sync"

	"github.com/arthur-debert/saveli/pkg/types"
)

// Registry maps entry ids to their state and holds the storage root setting
type Registry struct {
	mu          sync.RWMutex
	storageRoot string
	states      map[string]types.EntryState
}

// New creates an empty registry
func New() *Registry {
	return &Registry{states: make(map[string]types.EntryState)}
}

// Get returns the state of id, Unmanaged when there is no record
func (r *Registry) Get(id string) types.EntryState {
	r.mu.RLock()
	defer r.mu.RUnlock()

	state, ok := r.states[id]
	if !ok {
		return types.Unmanaged()
	}
	return state
}

// Has reports whether id has a record
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.states[id]
	return ok
}

// Set records the state of id
func (r *Registry) Set(id string, state types.EntryState) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.states[id] = state
}

// Touch creates an Unmanaged record for id if none exists and reports
// whether it did
func (r *Registry) Touch(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.states[id]; ok {
		return false
	}
	r.states[id] = types.Unmanaged()
	return true
}

// Records returns every record ordered by entry id
func (r *Registry) Records() []types.RegistryRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	records := make([]types.RegistryRecord, 0, len(r.states))
	for id, state := range r.states {
		records = append(records, types.RegistryRecord{EntryID: id, State: state})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].EntryID < records[j].EntryID })
	return records
}

// IDsIn returns the ids whose state has the given kind, ordered
func (r *Registry) IDsIn(kind types.StateKind) []string {
	var ids []string
	for _, rec := range r.Records() {
		if rec.State.Kind == kind {
			ids = append(ids, rec.EntryID)
		}
	}
	return ids
}

// Owner returns the id of the Linked record whose storage subpath is sub
func (r *Registry) Owner(sub string) (string, bool) {
	sub = filepath.Clean(sub)
	for _, rec := range r.Records() {
		if rec.State.IsLinked() && filepath.Clean(rec.State.StorageSubpath) == sub {
			return rec.EntryID, true
		}
	}
	return "", false
}

// Count returns the number of records
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.states)
}

// StorageRoot returns the configured storage root, empty when unset
func (r *Registry) StorageRoot() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.storageRoot
}

// SetStorageRoot changes the storage root setting
func (r *Registry) SetStorageRoot(root string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.storageRoot = root
}
