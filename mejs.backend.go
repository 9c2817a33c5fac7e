package mejs

import (
	"go.uber.org/zap"

	"github.com/itsatony/go-mejs/internal"
)

// Program is the backend-independent instruction list produced by Compile.
type Program = internal.Program

// Instruction is one step of a Program.
type Instruction = internal.Instruction

// OpCode identifies the kind of an Instruction.
type OpCode = internal.OpCode

// Instruction opcodes
const (
	OpAppendLiteral = internal.OpAppendLiteral
	OpAppendEscaped = internal.OpAppendEscaped
	OpAppendRaw     = internal.OpAppendRaw
	OpExecute       = internal.OpExecute
)

// RenderFunc is the callable shape of a compiled template. f is the render
// frame that include calls go through; it is nil for standalone execution.
type RenderFunc func(f *Frame, data map[string]any, selfName string) (string, error)

// Backend turns a compiled Program into a RenderFunc. Errors in embedded
// code that the backend detects while loading are reported as HostLoadError
// by Compile.
type Backend interface {
	Name() string
	Load(name string, prog *Program) (RenderFunc, error)
}

// BackendOption configures a built-in backend.
type BackendOption func(*backendConfig)

type backendConfig struct {
	logger *zap.Logger
}

// WithBackendLogger sets the logger of a backend.
// Default: nil (no logging)
func WithBackendLogger(logger *zap.Logger) BackendOption {
	return func(c *backendConfig) {
		c.logger = logger
	}
}

func newBackendConfig(opts []BackendOption) *backendConfig {
	c := &backendConfig{}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	return c
}

// wrapExec adapts an internal exec function to a RenderFunc. A nil frame
// must reach the exec function as a nil Host.
func wrapExec(exec internal.ExecFunc) RenderFunc {
	return func(f *Frame, data map[string]any, selfName string) (string, error) {
		var host internal.Host
		if f != nil {
			host = f
		}
		return exec(host, data, selfName)
	}
}

// Native interprets embedded code as a JavaScript subset: paths, literals,
// operators, calls, if/else, for...of, for...in, forEach and variable
// declarations. It needs no script runtime.
type Native struct {
	inner *internal.NativeBackend
}

// NativeBackend creates the default backend with the builtin functions.
func NativeBackend(opts ...BackendOption) *Native {
	c := newBackendConfig(opts)
	return &Native{inner: internal.NewNativeBackend(internal.NewBuiltinFuncTable(), c.logger)}
}

// Name returns "native"
func (b *Native) Name() string {
	return b.inner.Name()
}

// Load builds the program into an interpretable tree
func (b *Native) Load(name string, prog *Program) (RenderFunc, error) {
	exec, err := b.inner.Load(name, prog)
	if err != nil {
		return nil, err
	}
	return wrapExec(exec), nil
}

// RegisterFunc registers a custom function callable from embedded code.
//
// Example:
//
//	backend := mejs.NativeBackend()
//	backend.MustRegisterFunc(&mejs.Func{
//	    Name:    "double",
//	    MinArgs: 1,
//	    MaxArgs: 1,
//	    Fn: func(args []any) (any, error) {
//	        n, _ := args[0].(float64)
//	        return n * 2, nil
//	    },
//	})
//	reg := mejs.NewRegistry(mejs.WithBackend(backend))
//
// The function can then be used in templates:
//
//	<%= double(it.count) %>
func (b *Native) RegisterFunc(f *Func) error {
	if f == nil {
		return b.inner.Funcs().Register(nil)
	}
	return b.inner.Funcs().Register(&internal.Func{
		Name:    f.Name,
		MinArgs: f.MinArgs,
		MaxArgs: f.MaxArgs,
		Fn:      f.Fn,
	})
}

// MustRegisterFunc registers a custom function and panics on error.
func (b *Native) MustRegisterFunc(f *Func) *Native {
	if err := b.RegisterFunc(f); err != nil {
		panic(err)
	}
	return b
}

// HasFunc reports whether a function is callable from embedded code
func (b *Native) HasFunc(name string) bool {
	return b.inner.Funcs().Has(name)
}

// Funcs returns the names of all callable functions, sorted
func (b *Native) Funcs() []string {
	return b.inner.Funcs().Names()
}

// Script runs templates as JavaScript functions on an embedded ECMAScript
// engine. Compiled programs are shared; runtimes are pooled so concurrent
// renders never share one.
type Script struct {
	inner *internal.ScriptBackend
}

// ScriptBackend creates a backend that executes embedded code as JavaScript.
func ScriptBackend(opts ...BackendOption) *Script {
	c := newBackendConfig(opts)
	return &Script{inner: internal.NewScriptBackend(c.logger)}
}

// Name returns "script"
func (b *Script) Name() string {
	return b.inner.Name()
}

// Load compiles the emitted function text
func (b *Script) Load(name string, prog *Program) (RenderFunc, error) {
	exec, err := b.inner.Load(name, prog)
	if err != nil {
		return nil, err
	}
	return wrapExec(exec), nil
}

// BackendByName returns a new built-in backend for "native" or "script"
func BackendByName(name string, opts ...BackendOption) (Backend, error) {
	switch name {
	case "", BackendNameNative:
		return NativeBackend(opts...), nil
	case BackendNameScript:
		return ScriptBackend(opts...), nil
	default:
		return nil, NewConfigValueError("backend", name, ErrMsgConfigBackend)
	}
}
