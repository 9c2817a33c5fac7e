package mejs

import (
	"sync"
)

// Frame is one active render call. Include calls made by the template of
// a frame render through it, so the frame chain is the include stack.
// A frame is confined to the goroutine running its render chain.
type Frame struct {
	registry *Registry
	parent   *Frame
	name     string
	depth    int
	held     map[any]bool // locks held by the chain, shared by all its frames
}

// Render renders a template of the frame's registry as a child of this
// frame. Include calls arrive here with an already resolved name.
func (f *Frame) Render(name string, data map[string]any) (string, error) {
	return f.registry.render(f, name, data)
}

// Hold acquires mu for the render chain unless an outer frame of the same
// chain already holds the lock registered under key. Bundled templates
// share one script runtime and include each other through it.
func (f *Frame) Hold(key any, mu sync.Locker) func() {
	if f.held[key] {
		return func() {}
	}
	mu.Lock()
	f.held[key] = true
	return func() {
		delete(f.held, key)
		mu.Unlock()
	}
}

// Name returns the name of the template rendered by this frame
func (f *Frame) Name() string {
	return f.name
}

// Depth returns the include depth, 1 for a top-level render
func (f *Frame) Depth() int {
	return f.depth
}

// Registry returns the registry the frame renders against
func (f *Frame) Registry() *Registry {
	return f.registry
}

// Chain returns the template names from the top-level render down to this
// frame.
func (f *Frame) Chain() []string {
	chain := make([]string, f.depth)
	for p := f; p != nil; p = p.parent {
		chain[p.depth-1] = p.name
	}
	return chain
}

// onChain reports whether name is rendered by this frame or one of its parents
func (f *Frame) onChain(name string) bool {
	for p := f; p != nil; p = p.parent {
		if p.name == name {
			return true
		}
	}
	return false
}
