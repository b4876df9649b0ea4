// Package config loads saveli's configuration.
//
// Values are layered with koanf, lowest priority first:
//
//  1. computed defaults (file locations derived from the XDG directories)
//  2. the embedded defaults.toml
//  3. the user's config.toml, if present
//  4. SAVELI_<SECTION>_<KEY> environment variables
//
// The merged tree is decoded into Config and validated before use.
package config
