// Package rxlint is the toolkit's facade: it wires the pattern
// splitter, the lexer, the parser, group numbering, the analyzers, and
// ParseCache into the handful of operations an external caller sees
// (Parse, ParseTolerant, Validate, Literals, ReDoS, Tokenize,
// ParsePattern). A Config struct of dependencies, a validating
// constructor, and one method per operation.
package rxlint

import (
	"log/slog"

	"github.com/borud/broker"

	"github.com/perbu/rxlint/pkg/analyzer"
	"github.com/perbu/rxlint/pkg/cache"
	"github.com/perbu/rxlint/pkg/config"
)

// Config holds the dependencies New needs to build a Facade. Logger is
// required; Store and Broker are only required when Options.Cache is
// config.CachePersistent.
type Config struct {
	Options *config.Options
	Store   cache.Store
	Broker  *broker.Broker
	Logger  *slog.Logger
}

// Facade is the PCRE static-analysis toolkit's single entry point.
type Facade struct {
	opts      *config.Options
	cache     *cache.ParseCache
	logger    *slog.Logger
	validator analyzer.ValidatorConfig
}
