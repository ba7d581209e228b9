// Package config loads and validates the marquee configuration file.
//
// Configuration is TOML, located at ~/.config/marquee/config.toml or a
// marquee.toml in the working directory. Loading follows Default -> decode ->
// normalize -> Validate; the resulting Config is immutable and passed
// explicitly to the components that need it.
package config
