package funcadapt

import (
	"fmt"
	"reflect"
)

// Adapter is a compiled, reusable callable presenting a Shape. Adapters are immutable and safe
// for concurrent use.
type Adapter struct {
	shape    Shape
	name     string
	callable *CallableDescriptor
	mapping  *ArgumentMapping

	core    func(bound reflect.Value, args []reflect.Value) (reflect.Value, error)
	isBound bool
	bound   reflect.Value
}

type adapterKey struct {
	callable *CallableDescriptor
	shape    reflect.Type
	bound    bool
	// boundType keys bound generic static callables, whose leading argument takes part in
	// inference; it is nil otherwise.
	boundType reflect.Type
}

// Shape returns the shape the adapter presents.
func (a *Adapter) Shape() Shape { return a.shape }

// Callable returns the descriptor the adapter invokes; nil for switcher adapters.
func (a *Adapter) Callable() *CallableDescriptor { return a.callable }

// Mapping returns the resolved argument mapping; nil for switcher adapters.
func (a *Adapter) Mapping() *ArgumentMapping { return a.mapping }

func (a *Adapter) String() string { return a.name + " as " + a.shape.String() }

// Call invokes the adapter. Each argument must be assignable to its shape position; an
// invalid Value stands for the zero value. The result is invalid for a void shape.
func (a *Adapter) Call(args ...reflect.Value) (reflect.Value, error) {
	if len(args) != a.shape.NumParams() {
		return reflect.Value{}, fmt.Errorf("%w: %s called with %d arguments", ErrArityMismatch, a, len(args))
	}
	in := make([]reflect.Value, len(args))
	for i, v := range args {
		pt := a.shape.Param(i)
		switch {
		case !v.IsValid():
			in[i] = reflect.Zero(pt)
		case v.Type() == pt:
			in[i] = v
		case v.Type().AssignableTo(pt):
			in[i] = assignTo(v, pt)
		default:
			return reflect.Value{}, fmt.Errorf("%w: argument %d of %s is %s, not %s", ErrInvalidArgument, i, a, v.Type(), pt)
		}
	}
	return a.core(a.bound, in)
}

// Invoke is Call for plain values. nil is accepted for positions of nilable types.
func (a *Adapter) Invoke(args ...any) (any, error) {
	if len(args) != a.shape.NumParams() {
		return nil, fmt.Errorf("%w: %s called with %d arguments", ErrArityMismatch, a, len(args))
	}
	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		pt := a.shape.Param(i)
		if arg == nil {
			if !nilable(pt) {
				return nil, fmt.Errorf("%w: argument %d of %s is nil", ErrInvalidArgument, i, a)
			}
			in[i] = reflect.Zero(pt)
			continue
		}
		in[i] = reflect.ValueOf(arg)
	}
	out, err := a.Call(in...)
	if err != nil || !out.IsValid() {
		return nil, err
	}
	return out.Interface(), nil
}

// Func stores into fnPtr, a pointer to a func variable, a typed function calling the adapter.
// The func type must match the shape, optionally followed by an error result that receives
// call errors; without one, call errors panic.
func (a *Adapter) Func(fnPtr any) error {
	pv := reflect.ValueOf(fnPtr)
	if pv.Kind() != reflect.Pointer || pv.IsNil() || pv.Elem().Kind() != reflect.Func {
		return fmt.Errorf("%w: %T is not a pointer to a func", ErrInvalidArgument, fnPtr)
	}
	ft := pv.Elem().Type()
	s, withErr, err := ShapeFor(ft)
	if err != nil {
		return err
	}
	if s.Key() != a.shape.Key() {
		return fmt.Errorf("%w: %s does not match %s", ErrInvalidArgument, ft, a.shape)
	}
	pv.Elem().Set(a.makeFunc(ft, withErr))
	return nil
}

func (a *Adapter) makeFunc(ft reflect.Type, withErr bool) reflect.Value {
	ret := a.shape.Return()
	return reflect.MakeFunc(ft, func(in []reflect.Value) []reflect.Value {
		out, err := a.core(a.bound, in)
		if err != nil && !withErr {
			panic(err)
		}
		var res []reflect.Value
		if ret != nil {
			if err != nil || !out.IsValid() {
				out = reflect.Zero(ret)
			}
			res = append(res, out)
		}
		if withErr {
			ev := reflect.Zero(errorType)
			if err != nil {
				ev = reflect.ValueOf(&err).Elem()
			}
			res = append(res, ev)
		}
		return res
	})
}

// withBound returns a copy of the bound template a capturing v.
func (a *Adapter) withBound(v reflect.Value) *Adapter {
	cp := *a
	cp.bound = v
	return &cp
}

// IsBound reports whether the adapter captured a receiver or leading argument.
func (a *Adapter) IsBound() bool { return a.isBound }
