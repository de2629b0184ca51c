// Package config loads dotpatch settings.
//
// Layers are applied in order, later ones winning:
//
//  1. embedded defaults (embedded/defaults.toml)
//  2. .dotpatch.toml or dotpatch.toml in the repository root
//  3. DOTPATCH_* environment variables
//
// List values are appended across layers, so the default exclusions always
// apply. Environment keys are lower-cased and "__" separates nested keys:
// DOTPATCH_FORMATS__CONF=toml sets formats.conf.
package config
