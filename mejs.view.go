package mejs

import (
	"go.uber.org/zap"

	"github.com/itsatony/go-mejs/internal"
)

// RenderLayout renders name and, when a layout is configured, renders the
// layout with the page output in data["body"].
//
// The layout name comes from the registry locals ("layout", see WithLayout)
// or else from data["layout"]. Setting data["layout"] to false disables it,
// and a layout name without a registered template is ignored.
func (r *Registry) RenderLayout(name string, data map[string]any) (string, error) {
	out, err := r.Render(name, data)
	if err != nil {
		return "", err
	}

	layout := r.layoutFor(data)
	if layout == "" {
		return out, nil
	}

	withBody := internal.Merge(data, map[string]any{DataKeyBody: out})
	r.logger.Debug(LogMsgLayoutApplied,
		zap.String(LogFieldTemplateName, name),
		zap.String(LogFieldLayout, layout))
	return r.Render(layout, withBody)
}

func (r *Registry) layoutFor(data map[string]any) string {
	if v, ok := data[DataKeyLayout]; ok && v == false {
		return ""
	}
	r.mu.RLock()
	v := r.locals[DataKeyLayout]
	r.mu.RUnlock()
	if !internal.IsTruthy(v) {
		v = data[DataKeyLayout]
	}
	if !internal.IsTruthy(v) {
		return ""
	}
	layout := internal.Stringify(v)
	if !r.Has(layout) {
		return ""
	}
	return layout
}

// View renders one template of a registry through RenderLayout, for
// frameworks that look views up by name and render with a callback.
type View struct {
	registry *Registry
	name     string
}

// NewView creates a view of the named template
func NewView(registry *Registry, name string) *View {
	return &View{registry: registry, name: name}
}

// Name returns the template name of the view
func (v *View) Name() string {
	return v.name
}

// Render renders the view and passes the result to callback
func (v *View) Render(data map[string]any, callback func(err error, out string)) {
	out, err := v.registry.RenderLayout(v.name, data)
	callback(err, out)
}

// ViewEngine compiles a set of templates once and hands out views of them.
type ViewEngine struct {
	registry *Registry
}

// NewViewEngine compiles every file matching pattern. WithLayout and
// WithLocals configure the shared registry.
func NewViewEngine(pattern string, opts ...Option) (*ViewEngine, error) {
	reg, err := NewFromGlob(pattern, opts...)
	if err != nil {
		return nil, err
	}
	return &ViewEngine{registry: reg}, nil
}

// NewViewEngineFromRegistry wraps an existing registry
func NewViewEngineFromRegistry(registry *Registry) *ViewEngine {
	return &ViewEngine{registry: registry}
}

// View returns a view of the named template. Missing templates fail when
// the view renders.
func (e *ViewEngine) View(name string) *View {
	return NewView(e.registry, name)
}

// Registry returns the shared registry
func (e *ViewEngine) Registry() *Registry {
	return e.registry
}
