package catalog

import (
	_ "embed"
	"errors"
	"io/fs"
	"sort"
	"strings"

	serrors "github.com/arthur-debert/saveli/pkg/errors"
	"github.com/arthur-debert/saveli/pkg/logging"
	"github.com/arthur-debert/saveli/pkg/types"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

//go:embed embedded/catalog.yaml
var builtinCatalog []byte

// Catalog is an immutable-by-default, id-ordered set of entries
type Catalog struct {
	entries []types.CatalogEntry
	byID    map[string]int
}

// New merges built-in and custom entries. Custom entries replace built-in
// entries with the same id.
func New(builtin, custom []types.CatalogEntry) *Catalog {
	merged := make(map[string]types.CatalogEntry, len(builtin)+len(custom))
	for _, e := range builtin {
		merged[e.ID] = e
	}
	for _, e := range custom {
		e.Custom = true
		merged[e.ID] = e
	}

	c := &Catalog{}
	for _, e := range merged {
		c.entries = append(c.entries, e)
	}
	c.reindex()
	return c
}

func (c *Catalog) reindex() {
	sort.Slice(c.entries, func(i, j int) bool { return c.entries[i].ID < c.entries[j].ID })
	c.byID = make(map[string]int, len(c.entries))
	for i, e := range c.entries {
		c.byID[e.ID] = i
	}
}

// Builtin returns the embedded catalog on its own
func Builtin() (*Catalog, error) {
	entries, err := Parse(builtinCatalog, false)
	if err != nil {
		return nil, serrors.Wrap(err, serrors.ErrInternal, "embedded catalog is invalid")
	}
	return New(entries, nil), nil
}

// Load returns the embedded catalog merged with the user catalog at
// userPath. A missing user catalog is not an error.
func Load(fsys types.FS, userPath string) (*Catalog, error) {
	logger := logging.GetLogger("catalog")

	builtin, err := Parse(builtinCatalog, false)
	if err != nil {
		return nil, serrors.Wrap(err, serrors.ErrInternal, "embedded catalog is invalid")
	}

	var custom []types.CatalogEntry
	if userPath != "" {
		custom, err = loadUser(fsys, userPath)
		if err != nil {
			return nil, err
		}
	}

	c := New(builtin, custom)
	logger.Debug().
		Int("builtin", len(builtin)).
		Int("custom", len(custom)).
		Str("userCatalog", userPath).
		Msg("Catalog loaded")
	return c, nil
}

func loadUser(fsys types.FS, path string) ([]types.CatalogEntry, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, serrors.Wrapf(err, serrors.ErrIO, "cannot read user catalog %s", path).
			WithDetail("path", path)
	}
	entries, err := Parse(data, true)
	if err != nil {
		return nil, serrors.Wrapf(err, serrors.GetErrorCode(err), "user catalog %s", path).
			WithDetail("path", path)
	}
	return entries, nil
}

// Len returns the number of entries
func (c *Catalog) Len() int {
	return len(c.entries)
}

// All returns every entry ordered by id
func (c *Catalog) All() []types.CatalogEntry {
	out := make([]types.CatalogEntry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Get looks up an entry by id
func (c *Catalog) Get(id string) (types.CatalogEntry, bool) {
	i, ok := c.byID[id]
	if !ok {
		return types.CatalogEntry{}, false
	}
	return c.entries[i], true
}

// Custom returns the entries that came from the user catalog
func (c *Catalog) Custom() []types.CatalogEntry {
	var out []types.CatalogEntry
	for _, e := range c.entries {
		if e.Custom {
			out = append(out, e)
		}
	}
	return out
}

// Add validates entry and stores it as a custom entry, replacing any entry
// with the same id
func (c *Catalog) Add(entry types.CatalogEntry) error {
	if err := ValidateEntry(entry); err != nil {
		return serrors.Wrap(err, serrors.ErrInvalidInput, "invalid catalog entry").
			WithDetail("entry", entry.ID)
	}
	entry.Custom = true
	if i, ok := c.byID[entry.ID]; ok {
		c.entries[i] = entry
		return nil
	}
	c.entries = append(c.entries, entry)
	c.reindex()
	return nil
}

// SaveCustom writes the custom entries to path as a user catalog
func (c *Catalog) SaveCustom(fsys types.FS, path string) error {
	data, err := Marshal(c.Custom())
	if err != nil {
		return err
	}
	if err := fsys.AtomicWrite(path, data, 0644); err != nil {
		return serrors.Wrapf(err, serrors.ErrIO, "cannot write user catalog %s", path).
			WithDetail("path", path)
	}
	return nil
}

// Search finds entries whose id or title matches keyword. Substring matches
// rank before fuzzy matches; ties are ordered by id.
func (c *Catalog) Search(keyword string) ([]types.CatalogEntry, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, serrors.New(serrors.ErrInvalidInput, "the keyword must not be empty")
	}

	type hit struct {
		entry types.CatalogEntry
		rank  int
	}
	var hits []hit
	needle := strings.ToLower(keyword)

	for _, e := range c.entries {
		rank, ok := matchRank(needle, e)
		if ok {
			hits = append(hits, hit{entry: e, rank: rank})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].rank != hits[j].rank {
			return hits[i].rank < hits[j].rank
		}
		return hits[i].entry.ID < hits[j].entry.ID
	})

	out := make([]types.CatalogEntry, len(hits))
	for i, h := range hits {
		out[i] = h.entry
	}
	return out, nil
}

// matchRank scores a match: 0 for substring hits, 1 plus the fuzzy
// distance otherwise
func matchRank(needle string, e types.CatalogEntry) (int, bool) {
	id, title := strings.ToLower(e.ID), strings.ToLower(e.Title)
	if strings.Contains(id, needle) || strings.Contains(title, needle) {
		return 0, true
	}

	best := -1
	for _, target := range []string{id, title} {
		if d := fuzzy.RankMatchFold(needle, target); d >= 0 && (best < 0 || d < best) {
			best = d
		}
	}
	if best < 0 {
		return 0, false
	}
	return 1 + best, true
}
