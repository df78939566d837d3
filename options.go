package kestrel

import (
	"io"
	"log/slog"

	"github.com/kestrel-route/kestrel/internal/prettylog"
)

// Option configures a [Router] at construction time.
//
// A functional-options pattern (optionFunc wrapping a closure), narrowed to
// a single option kind since this router has no per-route configuration
// surface.
type Option interface {
	apply(*config)
}

type optionFunc func(*config)

func (f optionFunc) apply(c *config) { f(c) }

type config struct {
	maxParams               uint32
	maxBacktrackDepth       uint32
	logger                  *slog.Logger
	strictAuthorityEncoding bool
}

func defaultConfig() config {
	return config{
		maxParams:               4,
		maxBacktrackDepth:       0,
		logger:                  slog.New(slog.NewTextHandler(io.Discard, nil)),
		strictAuthorityEncoding: true,
	}
}

// WithMaxParams pre-sizes the per-search parameter capture buffer, avoiding
// reallocation for routes with up to n named captures.
func WithMaxParams(n uint32) Option {
	return optionFunc(func(c *config) { c.maxParams = n })
}

// WithMaxBacktrackDepth bounds the number of wildcard backtrack attempts a
// single search may make before it aborts with
// [ErrBacktrackLimitExceeded] instead of continuing to search. Zero (the
// default) means unbounded.
func WithMaxBacktrackDepth(n uint32) Option {
	return optionFunc(func(c *config) { c.maxBacktrackDepth = n })
}

// WithLogger sets the structured logger used for Debug-level lifecycle
// diagnostics (insert conflicts, constraint registration, delete
// pruning). The default discards all output.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *config) {
		if l != nil {
			c.logger = l
		}
	})
}

// WithPrettyLogging sets a color, single-line-per-record logger writing to
// w at the given minimum level, in place of the default discard logger.
// Intended for local development; production code should prefer
// [WithLogger] with a JSON or text handler.
func WithPrettyLogging(w io.Writer, level slog.Level) Option {
	return optionFunc(func(c *config) { c.logger = slog.New(prettylog.New(w, level)) })
}

// WithStrictAuthorityEncoding toggles rejection of punycode-encoded
// (xn--) authority templates at insert time. Default true, per the
// canonical resolution of the "should an ACE-encoded authority template be
// accepted" design question: the router already punycode-decodes incoming
// authorities, so an ACE-encoded template could never match a
// non-ACE-encoded one, and accepting it silently would register a
// route that can never be reached by a normally decoded host.
func WithStrictAuthorityEncoding(strict bool) Option {
	return optionFunc(func(c *config) { c.strictAuthorityEncoding = strict })
}
