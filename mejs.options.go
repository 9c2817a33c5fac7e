package mejs

import (
	"go.uber.org/zap"
)

// Option is a functional option for compiling templates and configuring
// registries, loaders and bundles.
type Option func(*config)

// config holds the internal configuration shared by Compile, NewRegistry,
// the loaders and Precompile.
type config struct {
	delimiter      rune
	rmWhitespace   bool
	backend        Backend
	logger         *zap.Logger
	locals         map[string]any
	maxDepth       int
	layout         string
	rmComment      bool
	rmLinefeed     bool
	mini           bool
	base           string
	bundleFilename string
}

// defaultConfig returns the default configuration.
func defaultConfig() *config {
	return &config{
		delimiter:      DefaultDelimiter,
		maxDepth:       DefaultMaxDepth,
		bundleFilename: DefaultBundleFilename,
	}
}

// newConfig applies opts over the defaults and fills in the logger and backend
func newConfig(opts []Option) *config {
	c := defaultConfig()
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if c.backend == nil {
		c.backend = NativeBackend(WithBackendLogger(c.logger))
	}
	return c
}

// WithDelimiter sets the tag delimiter character. Any rune works, e.g.
// '?' for "<?= x ?>" or '§' for "<§= x §>".
// Default: '%' (tags "<%" and "%>")
func WithDelimiter(delim rune) Option {
	return func(c *config) {
		if delim != 0 {
			c.delimiter = delim
		}
	}
}

// WithRmWhitespace strips leading and trailing whitespace of every line and
// widens slurp tags before compiling.
// Default: false
func WithRmWhitespace(enabled bool) Option {
	return func(c *config) {
		c.rmWhitespace = enabled
	}
}

// WithBackend sets the backend that turns compiled programs into render
// functions.
// Default: NativeBackend()
func WithBackend(backend Backend) Option {
	return func(c *config) {
		c.backend = backend
	}
}

// WithLogger sets the logger.
// Default: nil (no logging)
func WithLogger(logger *zap.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithLocals sets the default render data of a registry. Per-call data wins
// on key conflicts.
// Default: empty
func WithLocals(locals map[string]any) Option {
	return func(c *config) {
		c.locals = locals
	}
}

// WithMaxDepth sets the maximum include nesting depth.
// Use 0 for unlimited depth.
// Default: 64
func WithMaxDepth(depth int) Option {
	return func(c *config) {
		c.maxDepth = depth
	}
}

// WithLayout sets the default layout template used by RenderLayout. It is
// stored in the registry locals under "layout".
// Default: "" (no layout)
func WithLayout(name string) Option {
	return func(c *config) {
		c.layout = name
	}
}

// WithRmComment removes HTML comments from sources before precompiling.
// Default: false
func WithRmComment(enabled bool) Option {
	return func(c *config) {
		c.rmComment = enabled
	}
}

// WithRmLinefeed removes line feeds and the indentation after them from
// sources before precompiling.
// Default: false
func WithRmLinefeed(enabled bool) Option {
	return func(c *config) {
		c.rmLinefeed = enabled
	}
}

// WithMini makes Precompile emit only the templates object instead of the
// full registry module.
// Default: false
func WithMini(enabled bool) Option {
	return func(c *config) {
		c.mini = enabled
	}
}

// WithBase sets the directory template names are computed relative to.
// Default: derived from the glob pattern and its matches
func WithBase(base string) Option {
	return func(c *config) {
		c.base = base
	}
}

// WithBundleFilename sets the path of the file produced by Precompile.
// Default: "mejs.js"
func WithBundleFilename(name string) Option {
	return func(c *config) {
		if name != "" {
			c.bundleFilename = name
		}
	}
}
