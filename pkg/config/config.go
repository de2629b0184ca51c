package config

import (
	"io/fs"

	"github.com/arthur-debert/dotpatch/pkg/errors"
	"github.com/arthur-debert/dotpatch/pkg/fragments"
	"github.com/arthur-debert/dotpatch/pkg/merge"
)

// Config is the merged configuration for one run
type Config struct {
	// Source is the fragment tree, relative to the repository root
	Source string `koanf:"source"`

	// Exclude lists base-name patterns skipped during discovery
	Exclude []string `koanf:"exclude"`

	TextSeparator string            `koanf:"text_separator"`
	StrictFormats bool              `koanf:"strict_formats"`
	Formats       map[string]string `koanf:"formats"`
	Indent        int               `koanf:"indent"`
	FileMode      fs.FileMode       `koanf:"file_mode"`
	Lock          bool              `koanf:"lock"`
}

// Default returns the embedded defaults with no other layer applied
func Default() *Config {
	cfg, err := load(nil, false)
	if err != nil {
		// The embedded file is part of the binary; failing here is a build defect
		panic(err)
	}
	return cfg
}

// ExcludeSet builds the discovery exclusion set
func (c *Config) ExcludeSet() (fragments.ExcludeSet, error) {
	return fragments.NewExcludeSet(c.Exclude...)
}

// MergeOptions converts the format settings for merge.NewRegistry
func (c *Config) MergeOptions() merge.Options {
	return merge.Options{
		TextSeparator: c.TextSeparator,
		Indent:        c.Indent,
		Strict:        c.StrictFormats,
		Formats:       c.Formats,
	}
}

// Registry builds the merge strategy registry for these settings
func (c *Config) Registry() (*merge.Registry, error) {
	return merge.NewRegistry(c.MergeOptions())
}

// Validate checks values that decoding alone cannot
func (c *Config) Validate() error {
	if c.Source == "" {
		return errors.New(errors.ErrConfigParse, "source must not be empty")
	}
	if c.FileMode&^fs.ModePerm != 0 {
		return errors.Newf(errors.ErrConfigParse, "file_mode %o has bits outside the permission range", uint32(c.FileMode))
	}
	if _, err := c.ExcludeSet(); err != nil {
		return errors.Wrap(err, errors.ErrConfigParse, "invalid exclude list")
	}
	if _, err := c.Registry(); err != nil {
		return errors.Wrap(err, errors.ErrConfigParse, "invalid format settings")
	}
	return nil
}
