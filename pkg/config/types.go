// Package config defines Options, the facade's single configuration
// object: pattern/resource limits, the cache mode, and the feature
// gates that loosen or tighten grammar acceptance. A plain yaml-tagged
// struct plus a Load/validate/applyDefaults pipeline.
package config

// CacheMode selects how the facade's ParseCache is wired.
type CacheMode string

const (
	// CacheNone disables caching: every operation re-runs the full
	// splitter/lexer/parser pipeline.
	CacheNone CacheMode = "none"
	// CacheInMemory keeps layer 1 only: no persistent store, so
	// entries don't survive process restart.
	CacheInMemory CacheMode = "in-memory"
	// CachePersistent additionally writes through to a caller-supplied
	// cache.Store, asynchronously.
	CachePersistent CacheMode = "persistent"
)

// RuntimeValidator is an optional side-channel sanity check: a caller
// may plug in an actual PCRE engine to confirm a pattern compiles
// there too.
// Facade.Validate never calls this itself; it's here purely as the
// shared type a collaborator's implementation and the facade's
// constructor agree on.
type RuntimeValidator func(pattern, flags string) error

// Options is the facade's configuration. Every limit has a
// built-in default via Default(); Load overlays a YAML file on top of
// those defaults.
type Options struct {
	// MaxPatternLength bounds the whole delimited source (delimiters
	// and flags included), in bytes, before splitting is even attempted.
	MaxPatternLength int `yaml:"max_pattern_length"`
	// MaxLookbehindLength bounds a lookbehind's rendered width, in
	// codepoints; enforced by the Validator, not the parser.
	MaxLookbehindLength int `yaml:"max_lookbehind_length"`
	// MaxRecursionDepth and MaxNodes are forwarded to parser.Config
	// unchanged; see pkg/parser/config.go for their meaning.
	MaxRecursionDepth int `yaml:"max_recursion_depth"`
	MaxNodes          int `yaml:"max_nodes"`

	// AllowedFlags is the flag alphabet PatternSplitter accepts.
	AllowedFlags string `yaml:"allowed_flags,omitempty"`
	// AllowedGroupModifierFlags is the letters parser.Config accepts in
	// an inline "(?flags)" span, besides the feature-gated 'r'.
	AllowedGroupModifierFlags string `yaml:"allowed_group_modifier_flags,omitempty"`

	// FeatureVersion gates version-sensitive grammar acceptance
	// (notably the inline 'r' modifier). Zero means
	// "accept everything the current grammar supports"; a non-zero
	// value is a PCRE2 version scaled by 10000 (10.43 -> 104300), below
	// which newer constructs are rejected as unknown.
	FeatureVersion int `yaml:"feature_version,omitempty"`

	// Cache selects the ParseCache wiring. CachePersistent
	// additionally requires the caller to pass a cache.Store and
	// *broker.Broker to rxlint.New; Load/Default never construct those
	// themselves.
	Cache CacheMode `yaml:"cache,omitempty"`

	// RedosIgnoredPatterns lists full delimited sources exempted from
	// ReDoS scoring, the escape hatch for a pattern whose author has
	// reviewed and accepted the risk. Matched by exact string equality.
	RedosIgnoredPatterns []string `yaml:"redos_ignored_patterns,omitempty"`

	// RuntimePCREValidation, when set, is consulted by a collaborator
	// around the facade, never by the facade itself; rxlint stays free
	// of a live PCRE dependency.
	RuntimePCREValidation RuntimeValidator `yaml:"-"`
}

// minFeatureVersionForRModifier is PCRE2 10.43, the release that added
// the inline 'r' modifier, scaled by 10000 to stay an integer in YAML.
const minFeatureVersionForRModifier = 104300

// RModifierEnabled reports whether o's FeatureVersion accepts the
// inline 'r' modifier; rxlint.New forwards this into parser.Config.
func (o *Options) RModifierEnabled() bool {
	return o.FeatureVersion == 0 || o.FeatureVersion >= minFeatureVersionForRModifier
}
