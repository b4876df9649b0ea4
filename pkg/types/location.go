package types

// CandidateKind classifies what was found at an expanded template path
type CandidateKind string

const (
	// CandidateRealDirectory is an ordinary directory holding save data
	CandidateRealDirectory CandidateKind = "directory"

	// CandidateRealFile is an ordinary file holding save data
	CandidateRealFile CandidateKind = "file"

	// CandidateExistingLink is a symlink or junction
	CandidateExistingLink CandidateKind = "link"
)

// Candidate is one existing on-disk location for an entry
type Candidate struct {
	Path string
	Kind CandidateKind

	// Target is the absolute link target, only set for links
	Target string

	// InStorage reports whether Target lies inside the storage root
	InStorage bool
}

// IsReal reports whether the candidate holds data rather than a link
func (c Candidate) IsReal() bool {
	return c.Kind == CandidateRealDirectory || c.Kind == CandidateRealFile
}

// ResolvedLocation is the outcome of resolving a catalog entry on this machine
type ResolvedLocation struct {
	EntryID string

	// Expected holds every expanded path for the current platform, whether or
	// not anything exists there
	Expected []string

	// Candidates holds the expanded paths that exist
	Candidates []Candidate
}

// Real returns the candidates holding actual data
func (l ResolvedLocation) Real() []Candidate {
	var out []Candidate
	for _, c := range l.Candidates {
		if c.IsReal() {
			out = append(out, c)
		}
	}
	return out
}

// Links returns the candidates that are links
func (l ResolvedLocation) Links() []Candidate {
	var out []Candidate
	for _, c := range l.Candidates {
		if c.Kind == CandidateExistingLink {
			out = append(out, c)
		}
	}
	return out
}

// Found reports whether anything exists at any expected path
func (l ResolvedLocation) Found() bool {
	return len(l.Candidates) > 0
}
