package mejs

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/itsatony/go-mejs/internal"
)

// Registry maps virtual paths to compiled templates and owns the default
// render data (locals). Include calls inside a template resolve against the
// registry the template is rendered from.
//
// Renders may run concurrently. Add, Remove and Import take the write lock,
// but a registry is meant to be built once and then only rendered.
type Registry struct {
	templates map[string]*Template
	locals    map[string]any
	config    *config
	logger    *zap.Logger
	mu        sync.RWMutex
}

// NewRegistry creates an empty registry. WithLocals sets the default render
// data; WithLayout stores a default layout name in the locals.
func NewRegistry(opts ...Option) *Registry {
	return newRegistry(newConfig(opts))
}

func newRegistry(c *config) *Registry {
	locals := internal.Merge(nil, c.locals)
	if c.layout != "" {
		if _, ok := locals[DataKeyLayout]; !ok {
			locals[DataKeyLayout] = c.layout
		}
	}
	return &Registry{
		templates: make(map[string]*Template),
		locals:    locals,
		config:    c,
		logger:    c.logger,
	}
}

// Compile compiles source with the registry's delimiter, whitespace and
// backend settings.
func (r *Registry) Compile(source string) (*Template, error) {
	return compileTemplate(DefaultTemplateName, source, r.config)
}

// Add stores tmpl under name. It fails with a RegistryConflictError when the
// name is taken and overwrite is false.
func (r *Registry) Add(name string, tmpl *Template, overwrite bool) error {
	if name == "" {
		return NewConfigValueError(MetaKeyTemplateName, name, ErrMsgEmptyTemplateName)
	}
	if tmpl == nil {
		return NewConfigValueError(MetaKeyTemplateName, name, ErrMsgNilTemplate)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.templates[name]; exists && !overwrite {
		r.logger.Warn(LogMsgTemplateConflict, zap.String(LogFieldTemplateName, name))
		return NewRegistryConflictError(name)
	}
	r.templates[name] = tmpl
	r.logger.Debug(LogMsgTemplateAdded, zap.String(LogFieldTemplateName, name))
	return nil
}

// MustAdd stores tmpl under name and panics on error. It returns the
// registry for chaining.
func (r *Registry) MustAdd(name string, tmpl *Template, overwrite bool) *Registry {
	if err := r.Add(name, tmpl, overwrite); err != nil {
		panic(err)
	}
	return r
}

// AddSource compiles source with the registry settings and stores it
// under name.
func (r *Registry) AddSource(name, source string, overwrite bool) error {
	tmpl, err := compileTemplate(name, source, r.config)
	if err != nil {
		return err
	}
	return r.Add(name, tmpl, overwrite)
}

// MustAddSource compiles and stores source and panics on error.
func (r *Registry) MustAddSource(name, source string, overwrite bool) *Registry {
	if err := r.AddSource(name, source, overwrite); err != nil {
		panic(err)
	}
	return r
}

// Get returns the template stored under name
func (r *Registry) Get(name string) (*Template, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tmpl, ok := r.templates[name]
	return tmpl, ok
}

// Has reports whether a template is stored under name
func (r *Registry) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// Remove deletes the template stored under name, if any.
func (r *Registry) Remove(name string) *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.templates[name]; ok {
		delete(r.templates, name)
		r.logger.Debug(LogMsgTemplateRemoved, zap.String(LogFieldTemplateName, name))
	}
	return r
}

// Names returns all template names, sorted
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.templates))
	for name := range r.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of templates
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.templates)
}

// Locals returns a copy of the default render data
func (r *Registry) Locals() map[string]any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return internal.Merge(nil, r.locals)
}

// SetLocal sets one default render value
func (r *Registry) SetLocal(key string, value any) *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.locals[key] = value
	return r
}

// Import adds every template of other under namespace, keeping the same
// *Template values. Names are computed with Resolve(namespace+"/", name);
// an empty namespace or "/" imports at the root. With overwrite false a
// single conflicting name aborts the import before anything is added.
func (r *Registry) Import(namespace string, other *Registry, overwrite bool) error {
	if other == nil {
		return NewConfigValueError(LogFieldNamespace, namespace, ErrMsgNilRegistry)
	}

	other.mu.RLock()
	incoming := make(map[string]*Template, len(other.templates))
	for name, tmpl := range other.templates {
		incoming[name] = tmpl
	}
	other.mu.RUnlock()

	ns := internal.NormalizeNamespace(namespace)
	names := make([]string, 0, len(incoming))
	for name := range incoming {
		names = append(names, name)
	}
	sort.Strings(names)

	r.mu.Lock()
	defer r.mu.Unlock()

	if !overwrite {
		for _, name := range names {
			target := internal.Resolve(ns, name)
			if _, exists := r.templates[target]; exists {
				r.logger.Warn(LogMsgTemplateConflict, zap.String(LogFieldTemplateName, target))
				return NewRegistryConflictError(target)
			}
		}
	}
	for _, name := range names {
		r.templates[internal.Resolve(ns, name)] = incoming[name]
	}
	r.logger.Debug(LogMsgImported,
		zap.String(LogFieldNamespace, ns),
		zap.Int(LogFieldCount, len(names)))
	return nil
}

// Resolve computes the virtual path of child relative to parent. See the
// package-level Resolve.
func (r *Registry) Resolve(parent, child string) string {
	return Resolve(parent, child)
}

// Escape stringifies v and HTML-escapes the result. See the package-level
// Escape.
func (r *Registry) Escape(v any) string {
	return Escape(v)
}

// Render renders the template stored under name with data merged over the
// registry locals. Unknown names fail with a TemplateNotFoundError; errors
// raised by the template body are returned as *RenderError.
func (r *Registry) Render(name string, data map[string]any) (string, error) {
	return r.render(nil, name, data)
}

// MustRender renders a template and panics on error.
func (r *Registry) MustRender(name string, data map[string]any) string {
	out, err := r.Render(name, data)
	if err != nil {
		panic(err)
	}
	return out
}

func (r *Registry) render(parent *Frame, name string, data map[string]any) (string, error) {
	r.mu.RLock()
	tmpl, ok := r.templates[name]
	merged := internal.Merge(r.locals, data)
	r.mu.RUnlock()

	if !ok {
		return "", NewTemplateNotFoundError(name)
	}

	frame := &Frame{registry: r, parent: parent, name: name, depth: 1}
	if parent != nil {
		if parent.onChain(name) {
			return "", NewIncludeCycleError(append(parent.Chain(), name))
		}
		frame.depth = parent.depth + 1
		frame.held = parent.held
	} else {
		frame.held = make(map[any]bool)
	}
	if r.config.maxDepth > 0 && frame.depth > r.config.maxDepth {
		return "", NewIncludeDepthError(name, frame.depth, r.config.maxDepth)
	}

	r.logger.Debug(LogMsgRenderStart,
		zap.String(LogFieldTemplateName, name),
		zap.Int(LogFieldDepth, frame.depth))

	out, err := tmpl.render(frame, merged, name)
	if err != nil {
		if !IsRenderError(err) {
			err = &RenderError{TemplateName: name, TemplateSource: tmpl.source, Data: merged, Cause: err}
			r.logger.Debug(LogMsgRenderFailed,
				zap.String(LogFieldTemplateName, name),
				zap.Error(err))
		}
		return "", err
	}

	r.logger.Debug(LogMsgRenderEnd,
		zap.String(LogFieldTemplateName, name),
		zap.Int(LogFieldBytes, len(out)))
	return out, nil
}

// Resolve computes the virtual path of child relative to parent.
//
// A parent ending in "/" names a directory and child is joined to it.
// Otherwise parent names a template: a child starting with "./" or "../" is
// taken relative to the template's directory and any other child is
// relative to the root. ".." never climbs above the root, and the result
// never starts with "/" or "./".
//
//	Resolve("a/b/c", "d")          // "d"
//	Resolve("a/b/c", "./d")        // "a/b/d"
//	Resolve("a/b/c", "../d")       // "a/d"
//	Resolve("a/b/c/", "../../d/e") // "a/d/e"
func Resolve(parent, child string) string {
	return internal.Resolve(parent, child)
}

// Escape stringifies v and replaces & < > " ' and ` with HTML entities in a
// single pass. nil and undefined become the empty string. Escaping is not
// idempotent.
func Escape(v any) string {
	return internal.Escape(v)
}

// Stringify converts v to the text a raw output tag renders
func Stringify(v any) string {
	return internal.Stringify(v)
}

// Merge returns a new map holding defaults overlaid by data. Neither input
// is modified.
func Merge(defaults, data map[string]any) map[string]any {
	return internal.Merge(defaults, data)
}
