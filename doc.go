// Package funcadapt compiles adapters that call arbitrary functions, methods and field
// accessors through a required call shape, converting values on the way.
//
// Basic Usage
//
//	desc := funcadapt.MustFunc("Count", func() int8 { return 42 })
//	shape := funcadapt.MustShape(reflect.TypeOf(int64(0)))
//	a, err := funcadapt.Bind(desc, shape)
//	n, err := a.Invoke() // int64(42)
//
// # Conversions
//
// Classify decides, in this order:
//  1. identity
//  2. anything to the empty interface
//  3. nullable wrappers (null.Int, sql.NullInt64, sql.Null[T]) lifted around the wrapped type
//  4. the numeric matrix: lossless widening is implicit, everything else explicit and range-checked
//  5. boxing (T to *T or to an interface) and unboxing
//  6. assignability, hierarchy upcasts, interface downcasts and same-underlying-type conversions
//  7. a single To*/From* conversion method on either type
//  8. converters and providers registered with the engine
//
// Go has no conversion between integers or floats and complex numbers; those pairs go through
// a float64 step, and a complex value with a non-zero imaginary part does not convert to a real
// kind.
//
// # Type hierarchy
//
// A struct whose first field is an exported embedded type derives from that type; a defined
// non-struct type derives from its underlying type. Ancestors lists the chain. Upcasts are
// implicit; downcasts are possible only from interface values.
//
// # Registrations
//
//	e := funcadapt.New()
//	_ = funcadapt.RegisterFunc(e, func(s string) (time.Duration, error) { return time.ParseDuration(s) })
//
// Built-in conversions always win. Each registration starts a new cache generation, so
// adapters compiled before it keep their conversions and later binds see the new state.
//
// # Binding
//
// Bind resolves optional parameters, variadic packing, generic type arguments and receivers,
// then compiles the adapter once per (callable, shape, bound) key. BindMember finds the
// callable by name among methods, then GetX/SetX properties, then fields.
//
// # Dispatch
//
// BuildSwitcher turns candidates that differ in one interface-typed parameter into a single
// adapter choosing the candidate from the runtime type of that argument.
//
// # Thread Safety
//
// Engines, adapters and switchers are safe for concurrent use. Registrations may run
// concurrently with binds and calls.
package funcadapt
