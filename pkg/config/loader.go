package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/perbu/rxlint/pkg/splitter"
)

// Default returns the built-in Options every facade falls back to
// absent a config file.
func Default() *Options {
	return &Options{
		MaxPatternLength:          100000,
		MaxLookbehindLength:       255,
		MaxRecursionDepth:         200,
		MaxNodes:                  10000,
		AllowedFlags:              splitter.DefaultAllowedFlags,
		AllowedGroupModifierFlags: "imsxUJn",
		Cache:                     CacheInMemory,
	}
}

// Load reads and parses a YAML configuration file, overlaying it on
// top of Default() so an omitted field keeps its built-in value.
func Load(filename string) (*Options, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	opts := Default()
	if err := yaml.Unmarshal(data, opts); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := validate(opts); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	applyDefaults(opts)

	return opts, nil
}

// validate checks the constraints Default() alone can't enforce:
// fields a user-supplied file set to a nonsensical value.
func validate(opts *Options) error {
	if opts.MaxPatternLength <= 0 {
		return fmt.Errorf("max_pattern_length must be positive")
	}
	if opts.MaxLookbehindLength <= 0 {
		return fmt.Errorf("max_lookbehind_length must be positive")
	}
	if opts.MaxRecursionDepth <= 0 {
		return fmt.Errorf("max_recursion_depth must be positive")
	}
	if opts.MaxNodes <= 0 {
		return fmt.Errorf("max_nodes must be positive")
	}
	switch opts.Cache {
	case "", CacheNone, CacheInMemory, CachePersistent:
	default:
		return fmt.Errorf("cache: unrecognized mode %q", opts.Cache)
	}
	return nil
}

// applyDefaults fills in fields a partially-specified YAML file left
// zero-valued.
func applyDefaults(opts *Options) {
	if opts.AllowedFlags == "" {
		opts.AllowedFlags = splitter.DefaultAllowedFlags
	}
	if opts.AllowedGroupModifierFlags == "" {
		opts.AllowedGroupModifierFlags = "imsxUJn"
	}
	if opts.Cache == "" {
		opts.Cache = CacheInMemory
	}
}
