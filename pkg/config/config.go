package config

import (
	"fmt"
	"path/filepath"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Link strategies
const (
	StrategyAuto     = "auto"
	StrategySymlink  = "symlink"
	StrategyJunction = "junction"
)

// Config is the complete runtime configuration
type Config struct {
	Registry RegistryConfig `koanf:"registry"`
	Catalog  CatalogConfig  `koanf:"catalog"`
	Link     LinkConfig     `koanf:"link"`
	Locate   LocateConfig   `koanf:"locate"`

	// Source is the config file that was loaded, empty when none was
	Source string `koanf:"-"`
}

type RegistryConfig struct {
	Path string `koanf:"path"`
}

type CatalogConfig struct {
	// Path is an optional user catalog merged over the built-in one
	Path string `koanf:"path"`
}

type LinkConfig struct {
	Strategy string `koanf:"strategy"`
}

type LocateConfig struct {
	Workers int `koanf:"workers"`
}

// Validate checks the decoded configuration
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Registry),
		validation.Field(&c.Catalog),
		validation.Field(&c.Link),
		validation.Field(&c.Locate),
	)
}

func (r RegistryConfig) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Path, validation.Required, validation.By(absolutePath)),
	)
}

func (c CatalogConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Path, validation.By(absolutePath)),
	)
}

func (l LinkConfig) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Strategy, validation.Required,
			validation.In(StrategyAuto, StrategySymlink, StrategyJunction)),
	)
}

func (l LocateConfig) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Workers, validation.Required, validation.Min(1), validation.Max(64)),
	)
}

func absolutePath(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if !filepath.IsAbs(s) {
		return fmt.Errorf("must be an absolute path")
	}
	return nil
}
