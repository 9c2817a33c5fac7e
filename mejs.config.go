package mejs

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Config file extensions
const (
	ExtYAML = ".yaml"
	ExtYML  = ".yml"
	ExtTOML = ".toml"
)

// Config is the file form of the options, read by LoadConfig.
//
//	# mejs.yaml
//	pattern: views/**/*.html
//	delimiter: "?"
//	backend: script
//	layout: layout
//	locals:
//	  site: example.com
type Config struct {
	Pattern      string         `yaml:"pattern" toml:"pattern"`
	Base         string         `yaml:"base" toml:"base"`
	Delimiter    string         `yaml:"delimiter" toml:"delimiter"`
	RmWhitespace bool           `yaml:"rm_whitespace" toml:"rm_whitespace"`
	Backend      string         `yaml:"backend" toml:"backend"`
	Layout       string         `yaml:"layout" toml:"layout"`
	MaxDepth     *int           `yaml:"max_depth" toml:"max_depth"`
	Locals       map[string]any `yaml:"locals" toml:"locals"`
	RmComment    bool           `yaml:"rm_comment" toml:"rm_comment"`
	RmLinefeed   bool           `yaml:"rm_linefeed" toml:"rm_linefeed"`
	Mini         bool           `yaml:"mini" toml:"mini"`
	Output       string         `yaml:"output" toml:"output"`
}

// LoadConfig reads a YAML (.yaml, .yml) or TOML (.toml) config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewConfigError(path, err)
	}
	return ParseConfig(data, filepath.Ext(path))
}

// ParseConfig decodes config data in the format named by a file extension
func ParseConfig(data []byte, ext string) (*Config, error) {
	var cfg Config
	switch strings.ToLower(ext) {
	case ExtYAML, ExtYML:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, NewConfigError(ext, err)
		}
	case ExtTOML:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, NewConfigError(ext, err)
		}
	default:
		return nil, NewConfigValueError(MetaKeyPath, ext, ErrMsgConfigFormat)
	}
	return &cfg, nil
}

// Options converts the config into options. logger is passed to the
// backend and may be nil.
func (c *Config) Options(logger *zap.Logger) ([]Option, error) {
	var opts []Option

	if c.Delimiter != "" {
		delim, size := utf8.DecodeRuneInString(c.Delimiter)
		if delim == utf8.RuneError || size != len(c.Delimiter) {
			return nil, NewConfigValueError("delimiter", c.Delimiter, ErrMsgInvalidDelimiter)
		}
		opts = append(opts, WithDelimiter(delim))
	}
	if c.Backend != "" {
		backend, err := BackendByName(c.Backend, WithBackendLogger(logger))
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithBackend(backend))
	}
	if c.MaxDepth != nil {
		if *c.MaxDepth < 0 {
			return nil, NewConfigValueError("max_depth", strconv.Itoa(*c.MaxDepth), ErrMsgInvalidMaxDepth)
		}
		opts = append(opts, WithMaxDepth(*c.MaxDepth))
	}
	if c.Locals != nil {
		opts = append(opts, WithLocals(c.Locals))
	}
	if logger != nil {
		opts = append(opts, WithLogger(logger))
	}
	if c.Output != "" {
		opts = append(opts, WithBundleFilename(c.Output))
	}

	opts = append(opts,
		WithBase(c.Base),
		WithRmWhitespace(c.RmWhitespace),
		WithLayout(c.Layout),
		WithRmComment(c.RmComment),
		WithRmLinefeed(c.RmLinefeed),
		WithMini(c.Mini),
	)
	return opts, nil
}
