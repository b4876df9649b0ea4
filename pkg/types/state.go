package types

import "fmt"

// StateKind is the discriminant of EntryState
type StateKind string

const (
	// StateUnmanaged is the default: saveli has never moved this entry's data
	StateUnmanaged StateKind = "unmanaged"

	// StateLinked means the data lives in storage and the original location
	// is a link pointing at it
	StateLinked StateKind = "linked"

	// StateIgnored excludes the entry from bulk operations
	StateIgnored StateKind = "ignored"
)

// EntryState is the per-entry state. StorageSubpath is only meaningful when
// Kind is StateLinked and is then always set. Origin is optional bookkeeping
// recording where the data was moved from.
type EntryState struct {
	Kind           StateKind
	StorageSubpath string
	Origin         string
}

// Unmanaged returns the default state
func Unmanaged() EntryState {
	return EntryState{Kind: StateUnmanaged}
}

// Linked returns a linked state for the given storage subpath
func Linked(storageSubpath, origin string) EntryState {
	return EntryState{Kind: StateLinked, StorageSubpath: storageSubpath, Origin: origin}
}

// Ignored returns the ignored state
func Ignored() EntryState {
	return EntryState{Kind: StateIgnored}
}

func (s EntryState) IsUnmanaged() bool { return s.Kind == StateUnmanaged || s.Kind == "" }
func (s EntryState) IsLinked() bool    { return s.Kind == StateLinked }
func (s EntryState) IsIgnored() bool   { return s.Kind == StateIgnored }

// String renders the state for logs and status output
func (s EntryState) String() string {
	switch {
	case s.IsLinked():
		return fmt.Sprintf("linked(%s)", s.StorageSubpath)
	case s.IsIgnored():
		return string(StateIgnored)
	default:
		return string(StateUnmanaged)
	}
}

// RegistryRecord pairs an entry id with its state
type RegistryRecord struct {
	EntryID string
	State   EntryState
}
