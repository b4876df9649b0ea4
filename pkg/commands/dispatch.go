package commands

import (
	"context"
	"fmt"

	serrors "github.com/arthur-debert/saveli/pkg/errors"
	"github.com/arthur-debert/saveli/pkg/logging"
	"github.com/arthur-debert/saveli/pkg/types"
)

// CommandType names a state-changing command
type CommandType string

const (
	CommandLink    CommandType = "link"
	CommandRestore CommandType = "restore"
	CommandUnlink  CommandType = "unlink"
	CommandIgnore  CommandType = "ignore"
	CommandHeed    CommandType = "heed"
)

func (c CommandType) transition() (types.Transition, bool) {
	switch c {
	case CommandLink:
		return types.TransitionLink, true
	case CommandRestore:
		return types.TransitionRestore, true
	case CommandUnlink:
		return types.TransitionUnlink, true
	case CommandIgnore:
		return types.TransitionIgnore, true
	case CommandHeed:
		return types.TransitionHeed, true
	}
	return "", false
}

// movesData reports whether the command creates or removes links
func (c CommandType) movesData() bool {
	return c == CommandLink || c == CommandRestore || c == CommandUnlink
}

// Dispatch runs cmd over the selected entries. The returned error is reserved
// for failures that stop the whole command (lock held, registry unreadable,
// privilege probe failed, registry save failed); per-entry failures are in
// the result.
func Dispatch(ctx context.Context, cmd CommandType, opts Options) (*types.CommandResult, error) {
	logger := logging.WithFields(map[string]interface{}{
		"component": "commands.dispatch",
		"command":   string(cmd),
	})
	logger.Debug().
		Strs("entries", opts.EntryIDs).
		Bool("dryRun", opts.DryRun).
		Msg("Dispatching command")

	transition, ok := cmd.transition()
	if !ok {
		return nil, serrors.Newf(serrors.ErrInvalidInput, "unknown command %q", cmd)
	}
	if len(opts.EntryIDs) == 0 && !cmd.movesData() {
		return nil, serrors.Newf(serrors.ErrInvalidInput, "%s needs at least one entry id", cmd)
	}

	s, err := openSession(opts, true)
	if err != nil {
		return nil, err
	}
	defer s.close()
	defer logging.LogOperationStart(logger, string(cmd))()

	result := &types.CommandResult{
		Command:     string(cmd),
		DryRun:      opts.DryRun,
		StorageRoot: s.reg.StorageRoot(),
	}

	targets, unknown := s.entries(opts.EntryIDs)
	if len(opts.EntryIDs) == 0 {
		targets, err = s.defaultTargets(ctx, cmd)
		if err != nil {
			return nil, err
		}
	}

	if cmd.movesData() && len(targets) > 0 && !opts.DryRun && s.reg.StorageRoot() != "" {
		if err := s.linker.CheckPrivilege(s.reg.StorageRoot()); err != nil {
			return nil, err
		}
	}

	eng := s.engine()
	for _, entry := range targets {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		known := s.reg.Has(entry.ID)
		res, _ := eng.Apply(transition, entry)
		result.Results = append(result.Results, *res)

		if !known || res.From != s.reg.Get(entry.ID) {
			if err := s.save(); err != nil {
				return result, err
			}
		}
	}

	for _, id := range unknown {
		result.Results = append(result.Results, types.TransitionResult{
			EntryID:    id,
			Transition: transition,
			DryRun:     opts.DryRun,
			Err: serrors.Newf(serrors.ErrNotFound, "no catalog entry named %q", id).
				WithDetail("entry", id),
		})
	}

	logger.Info().
		Int("succeeded", result.SucceededCount()).
		Int("failed", result.FailedCount()).
		Msg("Command finished")
	return result, nil
}

// defaultTargets picks the entries a command acts on when none are named:
// link takes every non-ignored entry with save data on disk, restore and
// unlink take every linked entry
func (s *session) defaultTargets(ctx context.Context, cmd CommandType) ([]types.CatalogEntry, error) {
	switch cmd {
	case CommandRestore, CommandUnlink:
		ids := s.reg.IDsIn(types.StateLinked)
		found, unknown := s.entries(ids)
		for _, id := range unknown {
			s.logger.Warn().Str("entry", id).Msg("Linked entry is no longer in the catalog")
		}
		return found, nil

	case CommandLink:
		var candidates []types.CatalogEntry
		for _, e := range s.cat.All() {
			if !s.reg.Get(e.ID).IsIgnored() {
				candidates = append(candidates, e)
			}
		}
		resolved, err := s.locator.ResolveAll(ctx, candidates, s.reg.StorageRoot())
		if err != nil {
			return nil, err
		}
		var targets []types.CatalogEntry
		for _, r := range resolved {
			if r.Err != nil || len(r.Location.Real()) > 0 {
				targets = append(targets, r.Entry)
			}
		}
		return targets, nil
	}
	return nil, fmt.Errorf("no default targets for %s", cmd)
}
