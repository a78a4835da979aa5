package funcadapt

import (
	"fmt"
	"reflect"
)

// ConverterFunc converts a source value to a destination value. It backs conversions the
// built-in rules do not cover.
type ConverterFunc func(src interface{}) (interface{}, error)

// ComposeConverters chains multiple ConverterFunc instances left-to-right.
// If any converter returns an error it aborts.
// Nil output propagates immediately.
func ComposeConverters(fns ...ConverterFunc) ConverterFunc {
	return func(src interface{}) (interface{}, error) {
		cur := src
		for _, fn := range fns {
			out, err := fn(cur)
			if err != nil {
				return nil, err
			}
			if out == nil {
				return nil, nil
			}
			cur = out
		}
		return cur, nil
	}
}

// Provider supplies converters on demand for the type it is registered for. Either method may
// return nil to decline.
type Provider interface {
	// ConverterTo is asked when the provider's type is the source.
	ConverterTo(dst reflect.Type) ConverterFunc
	// ConverterFrom is asked when the provider's type is the destination.
	ConverterFrom(src reflect.Type) ConverterFunc
}

// ProviderFuncs adapts a pair of functions to Provider; either may be nil.
type ProviderFuncs struct {
	To   func(dst reflect.Type) ConverterFunc
	From func(src reflect.Type) ConverterFunc
}

func (p ProviderFuncs) ConverterTo(dst reflect.Type) ConverterFunc {
	if p.To == nil {
		return nil
	}
	return p.To(dst)
}

func (p ProviderFuncs) ConverterFrom(src reflect.Type) ConverterFunc {
	if p.From == nil {
		return nil
	}
	return p.From(src)
}

// converterRegistry stores user registrations and is swapped atomically (copy-on-write).
// Provider slices are in registration order.
type converterRegistry struct {
	byPair    map[typePair]ConverterFunc
	providers map[reflect.Type][]Provider
}

func newConverterRegistry() *converterRegistry {
	return &converterRegistry{byPair: make(map[typePair]ConverterFunc), providers: make(map[reflect.Type][]Provider)}
}

func (r *converterRegistry) clone(extra int) *converterRegistry {
	n := &converterRegistry{
		byPair:    make(map[typePair]ConverterFunc, len(r.byPair)+extra),
		providers: make(map[reflect.Type][]Provider, len(r.providers)+extra),
	}
	for k, v := range r.byPair {
		n.byPair[k] = v
	}
	for k, v := range r.providers {
		n.providers[k] = append([]Provider(nil), v...)
	}
	return n
}

// lookup applies registration precedence: the pair converter, then source providers, then
// destination providers, latest registration first within each group.
func (r *converterRegistry) lookup(src, dst reflect.Type) ConverterFunc {
	if fn, ok := r.byPair[typePair{src: src, dst: dst}]; ok {
		return fn
	}
	ps := r.providers[src]
	for i := len(ps) - 1; i >= 0; i-- {
		if fn := ps[i].ConverterTo(dst); fn != nil {
			return fn
		}
	}
	ps = r.providers[dst]
	for i := len(ps) - 1; i >= 0; i-- {
		if fn := ps[i].ConverterFrom(src); fn != nil {
			return fn
		}
	}
	return nil
}

func (g *generation) classifyRegistered(src, dst reflect.Type) *Conversion {
	fn := g.reg.lookup(src, dst)
	if fn == nil {
		return nil
	}
	return &Conversion{Source: src, Target: dst, Kind: UserDefined, Registered: true, run: func(v reflect.Value) (reflect.Value, error) {
		out, err := fn(v.Interface())
		if err != nil {
			return reflect.Value{}, valueError(v, dst, ErrNoConversion, err)
		}
		return coerceResult(v, out, dst)
	}}
}

// coerceResult turns a converter result into a value of type dst.
func coerceResult(src reflect.Value, out interface{}, dst reflect.Type) (reflect.Value, error) {
	if out == nil {
		if nilable(dst) {
			return reflect.Zero(dst), nil
		}
		return reflect.Value{}, valueError(src, dst, ErrNullValue, nil)
	}
	rv := reflect.ValueOf(out)
	if rv.Type().AssignableTo(dst) {
		return assignTo(rv, dst), nil
	}
	if rv.Kind() == reflect.Pointer && !rv.IsNil() && rv.Elem().Type().AssignableTo(dst) {
		return assignTo(rv.Elem(), dst), nil
	}
	return reflect.Value{}, valueError(src, dst, ErrNoConversion, fmt.Errorf("converter returned %s", rv.Type()))
}

// RegisterConverter registers fn for the (src, dst) pair. The latest registration for a pair
// wins; built-in conversions are never overridden. Adapters compiled earlier are unaffected.
func (e *Engine) RegisterConverter(src, dst reflect.Type, fn ConverterFunc) error {
	if src == nil || dst == nil || fn == nil {
		return fmt.Errorf("%w: converter needs source, destination and function", ErrInvalidArgument)
	}
	e.swap(func(r *converterRegistry) { r.byPair[typePair{src: src, dst: dst}] = fn })
	return nil
}

// RegisterProvider registers p for t. Providers registered later for the same type are asked
// first.
func (e *Engine) RegisterProvider(t reflect.Type, p Provider) error {
	if t == nil || p == nil {
		return fmt.Errorf("%w: provider needs a type and a value", ErrInvalidArgument)
	}
	e.swap(func(r *converterRegistry) { r.providers[t] = append(r.providers[t], p) })
	return nil
}

// RegisterFunc registers a typed converter from S to D.
func RegisterFunc[S, D any](e *Engine, fn func(S) (D, error)) error {
	if fn == nil {
		return fmt.Errorf("%w: nil converter", ErrInvalidArgument)
	}
	return e.RegisterConverter(TypeOf[S](), TypeOf[D](), func(src interface{}) (interface{}, error) {
		s, _ := src.(S)
		return fn(s)
	})
}
