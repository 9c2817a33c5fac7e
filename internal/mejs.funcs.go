package internal

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Func is a Go function exposed to embedded code under Name. A negative
// MaxArgs accepts any number of trailing arguments.
type Func struct {
	Name    string
	MinArgs int
	MaxArgs int
	Fn      func(args []any) (any, error)
}

func (f *Func) checkArity(n int) error {
	if n < f.MinArgs {
		return &CallError{Kind: CallTooFewArgs, Name: f.Name, Limit: f.MinArgs, Got: n}
	}
	if f.MaxArgs >= 0 && n > f.MaxArgs {
		return &CallError{Kind: CallTooManyArgs, Name: f.Name, Limit: f.MaxArgs, Got: n}
	}
	return nil
}

// FuncTable holds the functions a native backend resolves free calls
// against. Safe for concurrent use.
type FuncTable struct {
	mu    sync.RWMutex
	byKey map[string]*Func
}

func NewFuncTable() *FuncTable {
	return &FuncTable{byKey: make(map[string]*Func)}
}

// NewBuiltinFuncTable returns a table preloaded with the built-in helpers.
func NewBuiltinFuncTable() *FuncTable {
	t := NewFuncTable()
	RegisterBuiltinFuncs(t)
	return t
}

// Register adds f. Names are unique and include is reserved for the
// template include call.
func (t *FuncTable) Register(f *Func) error {
	switch {
	case f == nil || f.Fn == nil:
		return ErrFuncNil
	case f.Name == "":
		return ErrFuncNameEmpty
	case f.Name == ScriptFuncInclude:
		return fmt.Errorf("%w: %s", ErrFuncReserved, f.Name)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, dup := t.byKey[f.Name]; dup {
		return fmt.Errorf("%w: %s", ErrFuncExists, f.Name)
	}
	t.byKey[f.Name] = f
	return nil
}

// MustRegister is Register for the built-in set; it panics on error.
func (t *FuncTable) MustRegister(f *Func) {
	if err := t.Register(f); err != nil {
		panic(err)
	}
}

func (t *FuncTable) lookup(name string) *Func {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.byKey[name]
}

func (t *FuncTable) Has(name string) bool {
	return t.lookup(name) != nil
}

// Call runs the named function after checking its arity. Every failure is
// a *CallError.
func (t *FuncTable) Call(name string, args []any) (any, error) {
	f := t.lookup(name)
	if f == nil {
		return nil, &CallError{Kind: CallUndefined, Name: name}
	}
	if err := f.checkArity(len(args)); err != nil {
		return nil, err
	}
	out, err := f.Fn(args)
	if err != nil {
		return nil, &CallError{Kind: CallFailed, Name: name, Cause: err}
	}
	return out, nil
}

// Names lists the registered names in sorted order.
func (t *FuncTable) Names() []string {
	t.mu.RLock()
	names := make([]string, 0, len(t.byKey))
	for name := range t.byKey {
		names = append(names, name)
	}
	t.mu.RUnlock()

	sort.Strings(names)
	return names
}

func (t *FuncTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.byKey)
}

// Registration failures
var (
	ErrFuncNil       = errors.New("function cannot be nil")
	ErrFuncNameEmpty = errors.New("function name cannot be empty")
	ErrFuncReserved  = errors.New("function name is reserved")
	ErrFuncExists    = errors.New("function already registered")
)

// CallKind classifies a failed call from embedded code.
type CallKind int

const (
	CallUndefined CallKind = iota
	CallTooFewArgs
	CallTooManyArgs
	CallFailed
)

// CallError reports a call that could not be made or that returned an
// error. Messages read like the runtime errors scripts expect.
type CallError struct {
	Kind  CallKind
	Name  string
	Limit int
	Got   int
	Cause error
}

func (e *CallError) Error() string {
	switch e.Kind {
	case CallUndefined:
		return fmt.Sprintf(errFmtNotCallable, e.Name)
	case CallTooFewArgs:
		return fmt.Sprintf(errFmtTooFewArgs, e.Name, e.Limit, e.Got)
	case CallTooManyArgs:
		return fmt.Sprintf(errFmtTooManyArgs, e.Name, e.Limit, e.Got)
	default:
		return fmt.Sprintf(errFmtCallFailed, e.Name, e.Cause)
	}
}

func (e *CallError) Unwrap() error { return e.Cause }

const (
	errFmtNotCallable = "%s is not a function"
	errFmtTooFewArgs  = "%s expects at least %d argument(s), got %d"
	errFmtTooManyArgs = "%s expects at most %d argument(s), got %d"
	errFmtCallFailed  = "%s: %v"

	ErrMsgFuncExpectedList  = "expected an array"
	ErrMsgFuncUnknownMethod = "is not a function"
)
