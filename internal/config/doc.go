// Package config loads, normalizes, and validates the TOML configuration shared
// by the sync and resolve tools.
//
// It provides defaults for the library location, matching thresholds, and
// state paths (XDG state directory), applies environment overrides such as
// CALIBRE_LIBRARY, and exposes helpers for creating a sample file. Command
// flags are layered on top by the callers; the returned Config is the
// baseline they override.
package config
