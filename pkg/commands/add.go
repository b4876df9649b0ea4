package commands

import (
	"path/filepath"

	"github.com/arthur-debert/saveli/pkg/catalog"
	serrors "github.com/arthur-debert/saveli/pkg/errors"
	"github.com/arthur-debert/saveli/pkg/filesystem"
	"github.com/arthur-debert/saveli/pkg/logging"
	"github.com/arthur-debert/saveli/pkg/types"
)

// AddResult reports the outcome of AddEntry
type AddResult struct {
	Entry types.CatalogEntry

	// Replaced is set when an entry with the same id already existed
	Replaced bool

	CatalogPath string
	DryRun      bool
}

// AddEntry stores a custom entry in the user catalog
func AddEntry(opts Options, entry types.CatalogEntry) (*AddResult, error) {
	if opts.Config == nil || opts.Config.Catalog.Path == "" {
		return nil, serrors.New(serrors.ErrConfigValid, "no user catalog path configured")
	}
	fsys := opts.FileSystem
	if fsys == nil {
		fsys = filesystem.NewOS()
	}
	path := opts.Config.Catalog.Path

	cat := opts.Catalog
	if cat == nil {
		var err error
		if cat, err = catalog.Load(fsys, path); err != nil {
			return nil, err
		}
	}

	_, replaced := cat.Get(entry.ID)
	if err := cat.Add(entry); err != nil {
		return nil, err
	}
	added, _ := cat.Get(entry.ID)

	result := &AddResult{Entry: added, Replaced: replaced, CatalogPath: path, DryRun: opts.DryRun}
	if opts.DryRun {
		return result, nil
	}

	if err := fsys.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, serrors.Wrapf(err, serrors.ErrIO, "cannot create directory for %s", path)
	}
	if err := cat.SaveCustom(fsys, path); err != nil {
		return nil, err
	}

	logger := logging.GetLogger("commands.add")
	logger.Info().
		Str("entry", entry.ID).
		Bool("replaced", replaced).
		Str("catalog", path).
		Msg("Catalog entry saved")
	return result, nil
}
