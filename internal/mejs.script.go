package internal

import (
	"fmt"
	"sort"
	"sync"

	"github.com/dop251/goja"
	"go.uber.org/zap"
)

// ScriptBackend runs emitted function text on an embedded JavaScript engine.
// Compiled programs are shared; runtimes are pooled, one per concurrent render.
type ScriptBackend struct {
	logger *zap.Logger
	pool   sync.Pool
}

// NewScriptBackend creates a script backend
func NewScriptBackend(logger *zap.Logger) *ScriptBackend {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &ScriptBackend{logger: logger}
	b.pool.New = func() any {
		b.logger.Debug(LogMsgScriptRuntimeNew)
		return newScriptRuntime()
	}
	return b
}

// Name returns the backend name
func (b *ScriptBackend) Name() string {
	return BackendNameScript
}

// Load compiles the emitted function text. Syntax errors are returned here.
func (b *ScriptBackend) Load(name string, prog *Program) (ExecFunc, error) {
	src := "(" + EmitFunction(prog) + ")"
	compiled, err := goja.Compile(name, src, false)
	if err != nil {
		return nil, err
	}
	b.logger.Debug(LogMsgScriptCompiled,
		zap.String(LogFieldTemplateName, name),
		zap.Bool(LogFieldUsesInclude, prog.UsesInclude))

	return func(host Host, data map[string]any, self string) (string, error) {
		rt := b.pool.Get().(*scriptRuntime)
		defer b.pool.Put(rt)
		fn, err := rt.function(compiled)
		if err != nil {
			return "", err
		}
		return invokeScript(rt.vm, fn, host, data, self)
	}, nil
}

type scriptRuntime struct {
	vm  *goja.Runtime
	fns map[*goja.Program]goja.Callable
}

func newScriptRuntime() *scriptRuntime {
	return &scriptRuntime{vm: goja.New(), fns: make(map[*goja.Program]goja.Callable)}
}

// function evaluates the compiled function expression once per runtime
func (r *scriptRuntime) function(p *goja.Program) (goja.Callable, error) {
	if fn, ok := r.fns[p]; ok {
		return fn, nil
	}
	v, err := r.vm.RunProgram(p)
	if err != nil {
		return nil, err
	}
	fn, ok := goja.AssertFunction(v)
	if !ok {
		return nil, fmt.Errorf(ErrFmtScriptNotFunction, p)
	}
	r.fns[p] = fn
	return fn, nil
}

// scriptCall keeps the Go error raised by a nested render so it survives the
// trip through the JavaScript exception machinery.
type scriptCall struct {
	host Host
	err  error
}

// bytesToText copies data with every []byte replaced by its string, so
// script code sees text the way the native backend does instead of a
// number array.
func bytesToText(v map[string]any) map[string]any {
	out := make(map[string]any, len(v))
	for k, e := range v {
		out[k] = bytesToTextValue(e)
	}
	return out
}

func bytesToTextValue(v any) any {
	switch val := v.(type) {
	case []byte:
		return string(val)
	case map[string]any:
		return bytesToText(val)
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = bytesToTextValue(e)
		}
		return out
	}
	return v
}

func invokeScript(vm *goja.Runtime, fn goja.Callable, host Host, data map[string]any, self string) (string, error) {
	if data == nil {
		data = map[string]any{}
	}
	call := &scriptCall{host: host}
	res, err := fn(newScriptContext(vm, call), vm.ToValue(bytesToText(data)), vm.ToValue(self))
	if err != nil {
		if call.err != nil {
			return "", call.err
		}
		return "", err
	}
	return res.String(), nil
}

// newScriptContext builds the object bound to "this" inside emitted functions
func newScriptContext(vm *goja.Runtime, call *scriptCall) *goja.Object {
	ctx := vm.NewObject()
	_ = ctx.Set(ScriptCtxRender, func(fc goja.FunctionCall) goja.Value {
		if call.host == nil {
			panic(vm.NewTypeError(ErrMsgExprNoHost))
		}
		out, err := call.host.Render(scriptString(fc.Argument(0)), scriptMap(fc.Argument(1)))
		if err != nil {
			call.err = err
			panic(vm.NewGoError(err))
		}
		return vm.ToValue(out)
	})
	_ = ctx.Set(ScriptCtxResolve, func(fc goja.FunctionCall) goja.Value {
		return vm.ToValue(Resolve(scriptString(fc.Argument(0)), scriptString(fc.Argument(1))))
	})
	_ = ctx.Set(ScriptCtxCopy, func(fc goja.FunctionCall) goja.Value {
		return vm.ToValue(Merge(scriptMap(fc.Argument(1)), scriptMap(fc.Argument(0))))
	})
	_ = ctx.Set(ScriptCtxEscape, func(fc goja.FunctionCall) goja.Value {
		return vm.ToValue(EscapeString(scriptString(fc.Argument(0))))
	})
	_ = ctx.Set(ScriptCtxStringify, func(fc goja.FunctionCall) goja.Value {
		return vm.ToValue(scriptString(fc.Argument(0)))
	})
	return ctx
}

// scriptString converts a script value to text; null and undefined are empty
func scriptString(v goja.Value) string {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return ""
	}
	return v.String()
}

func scriptMap(v goja.Value) map[string]any {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil
	}
	if m, ok := v.Export().(map[string]any); ok {
		return m
	}
	return nil
}

// ScriptBundle is a precompiled module loaded into a single runtime
type ScriptBundle struct {
	mu        sync.Mutex
	vm        *goja.Runtime
	templates map[string]goja.Callable
}

// LoadScriptBundle runs a bundle module and collects its template functions.
// The module may export the templates object itself or a registry
// constructor whose instances carry a templates property.
func LoadScriptBundle(name, src string, logger *zap.Logger) (*ScriptBundle, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	compiled, err := goja.Compile(name, src, false)
	if err != nil {
		return nil, err
	}

	vm := goja.New()
	module := vm.NewObject()
	if err := module.Set(ScriptModuleExports, vm.NewObject()); err != nil {
		return nil, err
	}
	if err := vm.Set(ScriptModuleVar, module); err != nil {
		return nil, err
	}
	if _, err := vm.RunProgram(compiled); err != nil {
		return nil, err
	}

	exports := module.Get(ScriptModuleExports)
	var table *goja.Object
	if _, ok := goja.AssertFunction(exports); ok {
		inst, err := vm.New(exports, vm.NewObject())
		if err != nil {
			return nil, err
		}
		tv := inst.Get(ScriptCtxTemplates)
		if tv == nil || goja.IsUndefined(tv) || goja.IsNull(tv) {
			return nil, fmt.Errorf(ErrFmtScriptNoTemplates, name)
		}
		table = tv.ToObject(vm)
	} else {
		if exports == nil || goja.IsUndefined(exports) || goja.IsNull(exports) {
			return nil, fmt.Errorf(ErrFmtScriptNoTemplates, name)
		}
		table = exports.ToObject(vm)
	}

	b := &ScriptBundle{vm: vm, templates: make(map[string]goja.Callable)}
	for _, key := range table.Keys() {
		fn, ok := goja.AssertFunction(table.Get(key))
		if !ok {
			return nil, fmt.Errorf(ErrFmtScriptNotTemplate, key)
		}
		b.templates[key] = fn
	}
	logger.Debug(LogMsgBundleLoaded,
		zap.String(LogFieldTemplateName, name),
		zap.Int(LogFieldTemplates, len(b.templates)))
	return b, nil
}

// Names returns the bundled template names in sorted order
func (b *ScriptBundle) Names() []string {
	names := make([]string, 0, len(b.templates))
	for name := range b.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Exec returns the render function of a bundled template. Calls share the
// bundle runtime, so they are serialized through the host.
func (b *ScriptBundle) Exec(name string) (ExecFunc, bool) {
	fn, ok := b.templates[name]
	if !ok {
		return nil, false
	}
	return func(host Host, data map[string]any, self string) (string, error) {
		if host != nil {
			release := host.Hold(b, &b.mu)
			defer release()
		} else {
			b.mu.Lock()
			defer b.mu.Unlock()
		}
		return invokeScript(b.vm, fn, host, data, self)
	}, true
}

// Script backend error formats
const (
	ErrFmtScriptNotFunction = "program %p did not evaluate to a function"
	ErrFmtScriptNoTemplates = "bundle %q exports no templates"
	ErrFmtScriptNotTemplate = "bundle entry %q is not a function"
)
