package parser

// Config holds parser-level resource limits and feature gates.
type Config struct {
	// MaxRecursionDepth bounds nested-construct recursion (groups,
	// conditionals, character-class operator nesting). Exceeding it
	// raises RecursionLimitError.
	MaxRecursionDepth int
	// MaxNodes bounds total AST node construction. Exceeding it raises
	// ResourceLimitError.
	MaxNodes int
	// InlineFlagAlphabet is the set of letters accepted in an inline
	// "(?flags)" span, besides the feature-gated 'r'.
	InlineFlagAlphabet string
	// REnabled gates the inline 'r' modifier (PCRE2 ≥10.43 / target
	// runtime ≥8.4); disabled targets reject it as an unknown modifier.
	REnabled bool
}

// DefaultConfig returns the baseline resource limits.
func DefaultConfig() *Config {
	return &Config{
		MaxRecursionDepth:  200,
		MaxNodes:           10000,
		InlineFlagAlphabet: "imsxUJn",
		REnabled:           false,
	}
}

func (c *Config) flagAlphabet() string {
	alphabet := c.InlineFlagAlphabet
	if alphabet == "" {
		alphabet = "imsxUJn"
	}
	if c.REnabled {
		return alphabet + "r"
	}
	return alphabet
}
