package config

import (
	_ "embed"
	"errors"
	"os"
	"strings"

	serrors "github.com/arthur-debert/saveli/pkg/errors"
	"github.com/arthur-debert/saveli/pkg/logging"
	"github.com/arthur-debert/saveli/pkg/paths"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix for environment overrides
const EnvPrefix = "SAVELI_"

// EnvConfigFile names an alternative config file
const EnvConfigFile = "SAVELI_CONFIG"

//go:embed embedded/defaults.toml
var defaultConfig []byte

// rawBytesProvider implements koanf provider for raw bytes
type rawBytesProvider struct{ bytes []byte }

func (r *rawBytesProvider) ReadBytes() ([]byte, error) { return r.bytes, nil }
func (r *rawBytesProvider) Read() (map[string]interface{}, error) {
	return nil, errors.New("not implemented")
}

// DefaultsContent returns the embedded defaults file
func DefaultsContent() string {
	return string(defaultConfig)
}

// Load builds the configuration. configFile overrides the default
// location; when it is set explicitly the file must exist.
func Load(p paths.Paths, configFile string) (*Config, error) {
	logger := logging.GetLogger("config")
	k := koanf.New(".")

	computed := map[string]interface{}{
		"registry.path": p.RegistryPath(),
		"catalog.path":  p.UserCatalogPath(),
	}
	if err := k.Load(confmap.Provider(computed, "."), nil); err != nil {
		return nil, serrors.Wrap(err, serrors.ErrConfigLoad, "failed to load computed defaults")
	}

	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, serrors.Wrap(err, serrors.ErrConfigLoad, "failed to load embedded defaults")
	}

	explicit := configFile != ""
	if !explicit {
		configFile = os.Getenv(EnvConfigFile)
		explicit = configFile != ""
	}
	if !explicit {
		configFile = p.ConfigFilePath()
	}

	source := ""
	if _, err := os.Stat(configFile); err == nil {
		if err := k.Load(file.Provider(configFile), toml.Parser()); err != nil {
			return nil, serrors.Wrapf(err, serrors.ErrConfigLoad, "failed to load config from %s", configFile).
				WithDetail("path", configFile)
		}
		source = configFile
		logger.Debug().Str("path", configFile).Msg("Loaded config file")
	} else if explicit {
		return nil, serrors.Wrapf(err, serrors.ErrConfigLoad, "config file %s not found", configFile).
			WithDetail("path", configFile)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, serrors.Wrap(err, serrors.ErrConfigLoad, "failed to load environment overrides")
	}

	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           &cfg,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, serrors.Wrap(err, serrors.ErrConfigLoad, "failed to decode configuration")
	}
	cfg.Source = source

	cfg.Registry.Path = expandPath(cfg.Registry.Path)
	cfg.Catalog.Path = expandPath(cfg.Catalog.Path)
	cfg.Link.Strategy = strings.ToLower(strings.TrimSpace(cfg.Link.Strategy))

	if err := cfg.Validate(); err != nil {
		return nil, serrors.Wrap(err, serrors.ErrConfigValid, "invalid configuration")
	}

	logger.Debug().
		Str("registry", cfg.Registry.Path).
		Str("catalog", cfg.Catalog.Path).
		Str("strategy", cfg.Link.Strategy).
		Int("workers", cfg.Locate.Workers).
		Msg("Configuration loaded")

	return &cfg, nil
}

// sections that may be set from the environment. SAVELI_DATA_DIR and
// friends belong to pkg/paths and must not leak into the tree.
var envSections = map[string]bool{
	"registry": true,
	"catalog":  true,
	"link":     true,
	"locate":   true,
}

// envKey maps SAVELI_LINK_STRATEGY to link.strategy. An empty result tells
// koanf to skip the variable.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	section, _, found := strings.Cut(key, "_")
	if !found || !envSections[section] {
		return ""
	}
	return strings.Replace(key, "_", ".", 1)
}

func expandPath(p string) string {
	if p == "" {
		return p
	}
	expanded, err := paths.ExpandHome(p)
	if err != nil {
		return p
	}
	return expanded
}
