package commands

import (
	"github.com/arthur-debert/saveli/pkg/catalog"
	"github.com/arthur-debert/saveli/pkg/config"
	"github.com/arthur-debert/saveli/pkg/engine"
	serrors "github.com/arthur-debert/saveli/pkg/errors"
	"github.com/arthur-debert/saveli/pkg/filesystem"
	"github.com/arthur-debert/saveli/pkg/linker"
	"github.com/arthur-debert/saveli/pkg/locator"
	"github.com/arthur-debert/saveli/pkg/logging"
	"github.com/arthur-debert/saveli/pkg/paths"
	"github.com/arthur-debert/saveli/pkg/registry"
	"github.com/arthur-debert/saveli/pkg/types"
	"github.com/rs/zerolog"
)

// Options carries what every command needs. Only Config is required.
type Options struct {
	Config *config.Config

	// FileSystem defaults to the real filesystem
	FileSystem types.FS

	// Platform defaults to paths.CurrentPlatform()
	Platform *paths.PlatformContext

	// Catalog defaults to the built-in catalog merged with Config.Catalog.Path
	Catalog *catalog.Catalog

	DryRun bool

	// EntryIDs selects entries; commands pick their own default when empty
	EntryIDs []string
}

// session bundles the collaborators of one command invocation
type session struct {
	fs      types.FS
	cfg     *config.Config
	cat     *catalog.Catalog
	store   registry.Store
	reg     *registry.Registry
	lock    *registry.Lock
	locator *locator.Locator
	linker  *linker.Linker
	dryRun  bool
	logger  zerolog.Logger
}

// openSession loads the catalog and the registry. With exclusive set it
// first takes the registry lock, which close releases.
func openSession(opts Options, exclusive bool) (*session, error) {
	if opts.Config == nil {
		return nil, serrors.New(serrors.ErrInternal, "commands need a configuration")
	}

	s := &session{
		fs:     opts.FileSystem,
		cfg:    opts.Config,
		cat:    opts.Catalog,
		dryRun: opts.DryRun,
		logger: logging.GetLogger("commands"),
	}
	if s.fs == nil {
		s.fs = filesystem.NewOS()
	}

	platform := paths.CurrentPlatform()
	if opts.Platform != nil {
		platform = *opts.Platform
	}
	s.locator = locator.New(s.fs, platform).WithWorkers(s.cfg.Locate.Workers)

	strategy, err := linker.ParseStrategy(s.cfg.Link.Strategy)
	if err != nil {
		return nil, serrors.Wrap(err, serrors.ErrConfigValid, "invalid link strategy")
	}
	s.linker = linker.New(s.fs, strategy)

	if s.cat == nil {
		s.cat, err = catalog.Load(s.fs, s.cfg.Catalog.Path)
		if err != nil {
			return nil, err
		}
	}

	if exclusive {
		s.lock, err = registry.AcquireLock(s.cfg.Registry.Path)
		if err != nil {
			return nil, err
		}
	}

	s.store = registry.NewFileStore(s.fs, s.cfg.Registry.Path)
	reg, err := s.store.Load()
	switch {
	case err == nil:
	case serrors.IsErrorCode(err, serrors.ErrRegistryNotFound):
		s.logger.Debug().Str("path", s.store.Path()).Msg("No registry yet, starting empty")
	default:
		s.close()
		return nil, err
	}
	s.reg = reg

	return s, nil
}

func (s *session) close() {
	if err := s.lock.Release(); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to release registry lock")
	}
}

func (s *session) save() error {
	if s.dryRun {
		return nil
	}
	return s.store.Save(s.reg)
}

func (s *session) engine() *engine.Engine {
	return engine.New(engine.Options{
		FS:       s.fs,
		Resolver: s.locator,
		Linker:   s.linker,
		Registry: s.reg,
		DryRun:   s.dryRun,
		Logger:   logging.GetLogger("engine"),
	})
}

// entries maps ids to catalog entries. Unknown ids come back separately.
func (s *session) entries(ids []string) ([]types.CatalogEntry, []string) {
	var found []types.CatalogEntry
	var unknown []string
	seen := make(map[string]bool)
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if e, ok := s.cat.Get(id); ok {
			found = append(found, e)
		} else {
			unknown = append(unknown, id)
		}
	}
	return found, unknown
}
