package mejs

import (
	"context"

	"go.uber.org/zap"

	"github.com/itsatony/go-mejs/internal"
)

// Precompile compiles files into a single JavaScript module named by
// WithBundleFilename.
//
// The full module exports a Mejs(locals) registry constructor with render,
// add, get, remove, import, resolve, escape, stringify and copy; its
// instances expose the bundled functions as .templates. WithMini(true)
// exports only the templates object. Each template function takes
// (it, __tplName) and expects a render context as this.
//
// WithRmComment and WithRmLinefeed preprocess the sources. The first file
// that fails to compile aborts the bundle.
func Precompile(files []File, opts ...Option) (*File, error) {
	c := newConfig(opts)

	entries := make([]internal.BundleEntry, 0, len(files))
	for _, f := range files {
		src := internal.PreprocessSource(f.Source(), c.rmComment, c.rmLinefeed)
		prog, err := compileProgram(src, c)
		if err != nil {
			return nil, err
		}
		entries = append(entries, internal.BundleEntry{Name: f.Name(), Program: prog})
	}

	out := internal.BundleSource(entries, c.mini)
	c.logger.Debug(LogMsgBundleBuilt,
		zap.Int(LogFieldCount, len(entries)),
		zap.Int(LogFieldBytes, len(out)),
		zap.Bool(LogFieldMini, c.mini))
	return &File{Path: c.bundleFilename, Contents: []byte(out)}, nil
}

// PrecompileGlob precompiles every file matching pattern.
func PrecompileGlob(pattern string, opts ...Option) (*File, error) {
	c := newConfig(opts)
	files, err := (&GlobLoader{Base: c.base}).Load(context.Background(), pattern)
	if err != nil {
		return nil, err
	}
	return Precompile(files, opts...)
}

// Bundle is a precompiled module loaded into an embedded script runtime.
type Bundle struct {
	inner  *internal.ScriptBundle
	config *config
	path   string
}

// LoadBundle executes a module produced by Precompile, full or mini. A
// module that fails to run is reported as a HostLoadError.
func LoadBundle(file File, opts ...Option) (*Bundle, error) {
	c := newConfig(opts)
	inner, err := internal.LoadScriptBundle(file.Path, file.Source(), c.logger)
	if err != nil {
		return nil, NewHostLoadError(BackendNameScript, file.Path, err)
	}
	return &Bundle{inner: inner, config: c, path: file.Path}, nil
}

// Names returns the bundled template names, sorted
func (b *Bundle) Names() []string {
	return b.inner.Names()
}

// NewRegistry creates a registry holding every bundled template, with
// locals as default render data. Bundled templates of all registries made
// from one bundle share its runtime, so their renders are serialized.
func (b *Bundle) NewRegistry(locals map[string]any) *Registry {
	c := *b.config
	c.locals = locals
	reg := newRegistry(&c)
	for _, name := range b.inner.Names() {
		exec, _ := b.inner.Exec(name)
		reg.templates[name] = &Template{
			name:    name,
			backend: BackendNameScript,
			render:  wrapExec(exec),
		}
	}
	return reg
}
