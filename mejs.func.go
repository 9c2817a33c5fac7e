package mejs

// Func describes a Go function exposed to the native backend. Templates
// call it by Name, e.g. <%= double(it.count) %>.
//
// Arguments arrive as the evaluator's values: numbers are float64, arrays
// []any and objects map[string]any. A negative MaxArgs means variadic.
type Func struct {
	Name    string
	MinArgs int
	MaxArgs int
	Fn      func(args []any) (any, error)
}
