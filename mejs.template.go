package mejs

import (
	"go.uber.org/zap"

	"github.com/itsatony/go-mejs/internal"
)

// Template is a compiled template. The same *Template can be stored in any
// number of registries; it is immutable and safe for concurrent use.
type Template struct {
	name    string
	source  string
	program *Program
	backend string
	render  RenderFunc
}

// Compile compiles template source with the configured delimiter and
// backend. An opened tag without a matching close tag fails with a
// CompileError; embedded code the backend cannot load fails with a
// HostLoadError.
func Compile(source string, opts ...Option) (*Template, error) {
	return compileTemplate(DefaultTemplateName, source, newConfig(opts))
}

// MustCompile compiles template source and panics on error.
func MustCompile(source string, opts ...Option) *Template {
	tmpl, err := Compile(source, opts...)
	if err != nil {
		panic(err)
	}
	return tmpl
}

// CompileProgram runs the tokenizer and the mode state machine and returns
// the instruction list without loading it into a backend.
func CompileProgram(source string, opts ...Option) (*Program, error) {
	return compileProgram(source, newConfig(opts))
}

func compileProgram(source string, c *config) (*Program, error) {
	tokConfig := internal.TokenizerConfig{
		Tags:         internal.NewTagSet(c.delimiter),
		RmWhitespace: c.rmWhitespace,
	}
	tokens, err := internal.NewTokenizer(source, tokConfig, c.logger).Tokenize()
	if err != nil {
		return nil, compileError(err)
	}
	return internal.NewScanner(tokens, tokConfig, c.logger).Scan(), nil
}

func compileTemplate(name, source string, c *config) (*Template, error) {
	prog, err := compileProgram(source, c)
	if err != nil {
		return nil, err
	}
	render, err := c.backend.Load(name, prog)
	if err != nil {
		return nil, NewHostLoadError(c.backend.Name(), name, err)
	}
	c.logger.Debug(LogMsgTemplateCompiled,
		zap.String(LogFieldTemplateName, name),
		zap.String(LogFieldBackend, c.backend.Name()),
		zap.Int(LogFieldInstructions, prog.Len()))
	return &Template{
		name:    name,
		source:  source,
		program: prog,
		backend: c.backend.Name(),
		render:  render,
	}, nil
}

// NewTemplate wraps a render function that was not produced by Compile,
// such as a function loaded from a bundle.
func NewTemplate(source string, render RenderFunc) *Template {
	return &Template{name: DefaultTemplateName, source: source, render: render}
}

// Source returns the template source
func (t *Template) Source() string {
	return t.source
}

// Program returns the compiled instruction list, or nil for templates
// created with NewTemplate.
func (t *Template) Program() *Program {
	return t.program
}

// Backend returns the name of the backend that loaded the template
func (t *Template) Backend() string {
	return t.backend
}

// Execute renders the template outside a registry. Include calls fail
// because there is no registry to resolve them against.
func (t *Template) Execute(data map[string]any) (string, error) {
	out, err := t.render(nil, data, t.name)
	if err != nil {
		return "", &RenderError{TemplateName: t.name, TemplateSource: t.source, Data: data, Cause: err}
	}
	return out, nil
}

// Func returns the render function of the template
func (t *Template) Func() RenderFunc {
	return t.render
}
