// Package paths provides centralized path handling for saveli.
// It resolves the XDG directories saveli keeps its own files in, expands
// catalog path templates for the current platform and answers containment
// questions about the storage root.
package paths

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/arthur-debert/saveli/pkg/errors"
)

// Environment variable names
const (
	// EnvSaveliDataDir overrides the XDG data directory for saveli
	EnvSaveliDataDir = "SAVELI_DATA_DIR"

	// EnvSaveliConfigDir overrides the XDG config directory for saveli
	EnvSaveliConfigDir = "SAVELI_CONFIG_DIR"

	// EnvSaveliStateDir overrides the XDG state directory for saveli
	EnvSaveliStateDir = "SAVELI_STATE_DIR"

	// EnvHome is the standard home directory variable
	EnvHome = "HOME"
)

// Default file names. These are not user-configurable; the locations of
// the registry and the user catalog can be changed through pkg/config.
const (
	SaveliDirName       = "saveli"
	RegistryFileName    = "registry.toml"
	ConfigFileName      = "config.toml"
	UserCatalogFileName = "catalog.yaml"
	LogFileName         = "saveli.log"
)

// Paths provides the locations of saveli's own files
type Paths interface {
	DataDir() string
	ConfigDir() string
	StateDir() string
	RegistryPath() string
	ConfigFilePath() string
	UserCatalogPath() string
	LogFilePath() string
}

type paths struct {
	xdgData   string
	xdgConfig string
	xdgState  string
}

// New creates a Paths instance, respecting the SAVELI_*_DIR overrides
func New() (Paths, error) {
	p := &paths{}

	if dataDir := os.Getenv(EnvSaveliDataDir); dataDir != "" {
		p.xdgData = expandHome(dataDir)
	} else {
		p.xdgData = filepath.Join(xdg.DataHome, SaveliDirName)
	}

	if configDir := os.Getenv(EnvSaveliConfigDir); configDir != "" {
		p.xdgConfig = expandHome(configDir)
	} else {
		p.xdgConfig = filepath.Join(xdg.ConfigHome, SaveliDirName)
	}

	// xdg.StateHome is resolved once at init; read the variable directly so
	// late changes are honoured
	if stateDir := os.Getenv(EnvSaveliStateDir); stateDir != "" {
		p.xdgState = expandHome(stateDir)
	} else if stateHome := os.Getenv("XDG_STATE_HOME"); stateHome != "" {
		p.xdgState = filepath.Join(stateHome, SaveliDirName)
	} else {
		p.xdgState = filepath.Join(xdg.StateHome, SaveliDirName)
	}

	for _, dir := range []*string{&p.xdgData, &p.xdgConfig, &p.xdgState} {
		abs, err := filepath.Abs(*dir)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrIO, "failed to get absolute path for %s", *dir)
		}
		*dir = abs
	}

	return p, nil
}

func (p *paths) DataDir() string {
	return p.xdgData
}

func (p *paths) ConfigDir() string {
	return p.xdgConfig
}

func (p *paths) StateDir() string {
	return p.xdgState
}

// RegistryPath is the default registry location
func (p *paths) RegistryPath() string {
	return filepath.Join(p.xdgData, RegistryFileName)
}

func (p *paths) ConfigFilePath() string {
	return filepath.Join(p.xdgConfig, ConfigFileName)
}

func (p *paths) UserCatalogPath() string {
	return filepath.Join(p.xdgConfig, UserCatalogFileName)
}

func (p *paths) LogFilePath() string {
	return filepath.Join(p.xdgState, LogFileName)
}
