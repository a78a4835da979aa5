package funcadapt

import (
	"fmt"
	"reflect"
)

// ConversionKind is the category a classified conversion falls into.
type ConversionKind int

const (
	Identity ConversionKind = iota
	ImplicitNumeric
	ExplicitNumeric
	Boxing
	Unboxing
	ImplicitReference
	ExplicitReference
	UserDefined
)

var conversionKindNames = [...]string{
	"identity", "implicit numeric", "explicit numeric", "boxing", "unboxing",
	"implicit reference", "explicit reference", "user-defined",
}

func (k ConversionKind) String() string {
	if int(k) < len(conversionKindNames) {
		return conversionKindNames[k]
	}
	return fmt.Sprintf("ConversionKind(%d)", int(k))
}

// Conversion is the canonical, immutable conversion between two types.
type Conversion struct {
	Source reflect.Type
	Target reflect.Type
	Kind   ConversionKind
	// Implicit conversions never lose information and never fail at run time, except for the
	// user-defined ones that cannot fail by signature.
	Implicit bool
	// NullGuard is set when a nil or invalid source fails with ErrNullValue.
	NullGuard bool
	// Operator is the conversion method for UserDefined conversions found on either type.
	Operator *CallableDescriptor
	// Registered is set for conversions supplied through RegisterConverter or a Provider.
	Registered bool

	run func(reflect.Value) (reflect.Value, error)
}

// Apply converts v, which must be assignable to Source. An invalid v stands for the zero
// value of Source.
func (c *Conversion) Apply(v reflect.Value) (reflect.Value, error) {
	if !v.IsValid() {
		v = reflect.Zero(c.Source)
	}
	if v.Type() != c.Source {
		if !v.Type().AssignableTo(c.Source) {
			return reflect.Value{}, valueError(v, c.Source, ErrInvalidArgument, nil)
		}
		v = assignTo(v, c.Source)
	}
	return c.run(v)
}

// step returns the conversion as an adapter step. Identity conversions need none.
func (c *Conversion) step() func(reflect.Value) (reflect.Value, error) {
	if c.Kind == Identity {
		return nil
	}
	return c.run
}

func (c *Conversion) String() string {
	dir := "explicit"
	if c.Implicit {
		dir = "implicit"
	}
	return fmt.Sprintf("%s -> %s (%s, %s)", typeString(c.Source), typeString(c.Target), c.Kind, dir)
}

type typePair struct {
	src, dst reflect.Type
}

// classify returns the canonical conversion from src to dst, computing it at most once per
// generation.
func (g *generation) classify(src, dst reflect.Type) (*Conversion, error) {
	if src == nil || dst == nil {
		return nil, fmt.Errorf("%w: nil type", ErrInvalidArgument)
	}
	return g.conversions.get(typePair{src: src, dst: dst}, func() (*Conversion, error) {
		c, err := g.compute(src, dst)
		if err != nil {
			return nil, err
		}
		if c == nil {
			return nil, newConversionError(src, dst, ErrNoConversion, nil)
		}
		return c, nil
	})
}

// compute runs the classification rules in priority order.
func (g *generation) compute(src, dst reflect.Type) (*Conversion, error) {
	if src == dst {
		return &Conversion{Source: src, Target: dst, Kind: Identity, Implicit: true, run: identity}, nil
	}
	if dst.Kind() == reflect.Interface && dst.NumMethod() == 0 {
		return reference(src, dst, true, func(v reflect.Value) (reflect.Value, error) { return assignTo(v, dst), nil }), nil
	}
	if c, ok := g.classifyNullable(src, dst); ok {
		return c, nil
	}
	if isNumericKind(src.Kind()) && isNumericKind(dst.Kind()) {
		return classifyNumeric(src, dst), nil
	}
	if c := g.classifyBoxing(src, dst); c != nil {
		return c, nil
	}
	if c := g.classifyReference(src, dst); c != nil {
		return c, nil
	}
	c, err := g.classifyOperator(src, dst)
	if err != nil || c != nil {
		return c, err
	}
	return g.classifyRegistered(src, dst), nil
}

func identity(v reflect.Value) (reflect.Value, error) { return v, nil }

func reference(src, dst reflect.Type, implicit bool, run func(reflect.Value) (reflect.Value, error)) *Conversion {
	kind := ExplicitReference
	if implicit {
		kind = ImplicitReference
	}
	return &Conversion{Source: src, Target: dst, Kind: kind, Implicit: implicit, run: run}
}

func classifyNumeric(src, dst reflect.Type) *Conversion {
	sk, dk := src.Kind(), dst.Kind()
	c := &Conversion{Source: src, Target: dst}
	if sk == dk {
		// Same representation: only the defined-to-predeclared direction is implicit.
		c.Implicit = isDefined(src) && !isDefined(dst)
		c.run = func(v reflect.Value) (reflect.Value, error) { return v.Convert(dst), nil }
	} else {
		c.Implicit = implicitWidening(sk, dk) && !isDefined(dst)
		c.run = func(v reflect.Value) (reflect.Value, error) { return convertNumeric(v, dst) }
	}
	c.Kind = ExplicitNumeric
	if c.Implicit {
		c.Kind = ImplicitNumeric
	}
	return c
}

// isValueKind reports whether values of t are held directly rather than by reference.
func isValueKind(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool, reflect.String, reflect.Struct, reflect.Array:
		return true
	}
	return isNumericKind(t.Kind())
}

func nilable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Map, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return true
	}
	return false
}

func (g *generation) classifyBoxing(src, dst reflect.Type) *Conversion {
	switch {
	case isValueKind(src) && dst == reflect.PointerTo(src):
		return &Conversion{Source: src, Target: dst, Kind: Boxing, Implicit: true, run: box}
	case isValueKind(src) && dst.Kind() == reflect.Interface && src.Implements(dst):
		return &Conversion{Source: src, Target: dst, Kind: Boxing, Implicit: true, run: func(v reflect.Value) (reflect.Value, error) {
			return assignTo(v, dst), nil
		}}
	case isValueKind(src) && dst.Kind() == reflect.Interface && reflect.PointerTo(src).Implements(dst):
		return &Conversion{Source: src, Target: dst, Kind: Boxing, Implicit: true, run: func(v reflect.Value) (reflect.Value, error) {
			p, _ := box(v)
			return assignTo(p, dst), nil
		}}
	case isValueKind(dst) && src == reflect.PointerTo(dst):
		return &Conversion{Source: src, Target: dst, Kind: Unboxing, NullGuard: true, run: func(v reflect.Value) (reflect.Value, error) {
			if v.IsNil() {
				return reflect.Value{}, valueError(v, dst, ErrNullValue, nil)
			}
			return copyOf(v.Elem()), nil
		}}
	case isValueKind(dst) && src.Kind() == reflect.Interface:
		return &Conversion{Source: src, Target: dst, Kind: Unboxing, NullGuard: true, run: func(v reflect.Value) (reflect.Value, error) {
			return g.assertDynamic(v, dst)
		}}
	}
	return nil
}

// box copies v into a fresh pointer.
func box(v reflect.Value) (reflect.Value, error) {
	p := reflect.New(v.Type())
	p.Elem().Set(v)
	return p, nil
}

func copyOf(v reflect.Value) reflect.Value {
	out := reflect.New(v.Type()).Elem()
	out.Set(v)
	return out
}

func (g *generation) classifyReference(src, dst reflect.Type) *Conversion {
	if src.AssignableTo(dst) {
		return reference(src, dst, true, func(v reflect.Value) (reflect.Value, error) { return assignTo(v, dst), nil })
	}
	if step := upcast(src, dst); step != nil {
		return reference(src, dst, true, step)
	}
	if src.Kind() == reflect.Interface {
		c := reference(src, dst, false, func(v reflect.Value) (reflect.Value, error) { return g.assertDynamic(v, dst) })
		c.NullGuard = !nilable(dst)
		return c
	}
	if builtinConvertible(src, dst) {
		return reference(src, dst, false, func(v reflect.Value) (reflect.Value, error) { return v.Convert(dst), nil })
	}
	return nil
}

// builtinConvertible covers the non-numeric Go conversions: between types sharing an
// underlying type, and between strings and byte or rune slices. Two defined struct types
// never convert on layout alone; they need an operator or a registration.
func builtinConvertible(src, dst reflect.Type) bool {
	if src.Kind() == dst.Kind() {
		if src.Kind() == reflect.Struct && src.Name() != "" && dst.Name() != "" {
			return false
		}
		return src.ConvertibleTo(dst)
	}
	if src.Kind() == reflect.String && dst.Kind() == reflect.Slice {
		ek := dst.Elem().Kind()
		return (ek == reflect.Uint8 || ek == reflect.Int32) && src.ConvertibleTo(dst)
	}
	if dst.Kind() == reflect.String && src.Kind() == reflect.Slice {
		ek := src.Elem().Kind()
		return (ek == reflect.Uint8 || ek == reflect.Int32) && src.ConvertibleTo(dst)
	}
	return false
}

// assertDynamic converts the dynamic value held by the interface value v to dst. The dynamic
// type must be dst, implement it, derive from it or convert to it implicitly.
func (g *generation) assertDynamic(v reflect.Value, dst reflect.Type) (reflect.Value, error) {
	if v.IsNil() {
		if nilable(dst) {
			return reflect.Zero(dst), nil
		}
		return reflect.Value{}, valueError(v, dst, ErrNullValue, nil)
	}
	e := v.Elem()
	dyn := e.Type()
	switch {
	case dyn == dst:
		return e, nil
	case dst.Kind() == reflect.Interface && dyn.Implements(dst):
		return assignTo(e, dst), nil
	case dyn.Kind() == reflect.Pointer && dyn.Elem() == dst:
		if e.IsNil() {
			return reflect.Value{}, valueError(v, dst, ErrNullValue, nil)
		}
		return copyOf(e.Elem()), nil
	}
	if step := upcast(dyn, dst); step != nil {
		return step(e)
	}
	if c, err := g.classify(dyn, dst); err == nil && c.Implicit {
		return c.run(e)
	}
	return reflect.Value{}, valueError(v, dst, ErrNoConversion, fmt.Errorf("dynamic type %s", dyn))
}
