package commands

import (
	"context"
	"path/filepath"

	serrors "github.com/arthur-debert/saveli/pkg/errors"
	"github.com/arthur-debert/saveli/pkg/filesystem"
	"github.com/arthur-debert/saveli/pkg/paths"
	"github.com/arthur-debert/saveli/pkg/types"
)

// Status reports the registry state and on-disk situation of entries. With
// no ids it lists the entries that are either recorded in the registry or
// have save data on this machine, or every catalog entry when all is set.
func Status(ctx context.Context, opts Options, all bool) (*types.StatusReport, error) {
	s, err := openSession(opts, false)
	if err != nil {
		return nil, err
	}
	defer s.close()

	root := s.reg.StorageRoot()
	report := &types.StatusReport{StorageRoot: root}

	targets, unknown := s.entries(opts.EntryIDs)
	named := len(opts.EntryIDs) > 0
	if !named {
		targets = s.cat.All()
	}

	resolved, err := s.locator.ResolveAll(ctx, targets, root)
	if err != nil {
		return nil, err
	}

	for _, r := range resolved {
		row := types.StatusEntry{
			Entry:    r.Entry,
			State:    s.reg.Get(r.Entry.ID),
			Location: r.Location,
			Err:      r.Err,
		}
		if r.Err == nil {
			row.Health = s.health(root, row.State, r.Location)
		}
		if !named && !all && !s.reg.Has(r.Entry.ID) && row.Health == types.HealthAbsent {
			continue
		}
		report.Entries = append(report.Entries, row)
	}

	for _, id := range unknown {
		report.Entries = append(report.Entries, types.StatusEntry{
			Entry: types.CatalogEntry{ID: id},
			State: s.reg.Get(id),
			Err:   serrors.Newf(serrors.ErrNotFound, "no catalog entry named %q", id),
		})
	}
	return report, nil
}

func (s *session) health(root string, state types.EntryState, loc types.ResolvedLocation) types.Health {
	switch {
	case state.IsIgnored():
		return types.HealthIgnored

	case state.IsLinked():
		if root == "" {
			return types.HealthStorageMissing
		}
		storagePath := filepath.Join(root, state.StorageSubpath)
		if !s.holdsData(storagePath) {
			return types.HealthStorageMissing
		}
		for _, c := range loc.Links() {
			if paths.SamePath(c.Target, storagePath) {
				return types.HealthOK
			}
		}
		if loc.Found() {
			return types.HealthConflict
		}
		return types.HealthLinkMissing
	}

	for _, c := range loc.Links() {
		if c.InStorage {
			return types.HealthStray
		}
	}
	if len(loc.Real()) > 0 {
		return types.HealthAvailable
	}
	return types.HealthAbsent
}

func (s *session) holdsData(path string) bool {
	info, err := s.fs.Lstat(path)
	if err != nil {
		return false
	}
	if !info.IsDir() {
		return true
	}
	empty, err := filesystem.IsEmptyDir(s.fs, path)
	return err == nil && !empty
}
