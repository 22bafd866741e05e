// Package config loads, normalizes, and validates herald's TOML
// configuration.
//
// Load resolves the config file (explicit path, ~/.config/herald/config.toml,
// or ./herald.toml), decodes it over the repository defaults, expands paths,
// applies environment overrides, and validates the result. Sample() returns
// the annotated starter file the CLI writes for `herald config init`.
package config
