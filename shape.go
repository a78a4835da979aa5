package funcadapt

import (
	"fmt"
	"reflect"
	"strings"
)

var (
	anyType   = reflect.TypeOf((*any)(nil)).Elem()
	errorType = reflect.TypeOf((*error)(nil)).Elem()
)

// TypeOf returns the reflect.Type of T, including interface types.
func TypeOf[T any]() reflect.Type { return reflect.TypeOf((*T)(nil)).Elem() }

// Shape is the call signature an adapter presents: ordered parameter types and a return
// type (nil for none). Shapes are values and compare by signature via Key.
type Shape struct {
	params []reflect.Type
	ret    reflect.Type
	key    reflect.Type
}

// NewShape builds a Shape. A nil ret declares no return value.
func NewShape(ret reflect.Type, params ...reflect.Type) (Shape, error) {
	for i, p := range params {
		if p == nil {
			return Shape{}, fmt.Errorf("%w: shape parameter %d is nil", ErrInvalidArgument, i)
		}
	}
	var outs []reflect.Type
	if ret != nil {
		outs = []reflect.Type{ret}
	}
	ps := append([]reflect.Type(nil), params...)
	return Shape{params: ps, ret: ret, key: reflect.FuncOf(ps, outs, false)}, nil
}

// MustShape is NewShape that panics on invalid input.
func MustShape(ret reflect.Type, params ...reflect.Type) Shape {
	s, err := NewShape(ret, params...)
	if err != nil {
		panic(err)
	}
	return s
}

// ShapeFor derives a Shape from a func type. A trailing error result is not part of the
// shape; withErr reports whether fnType has one.
func ShapeFor(fnType reflect.Type) (s Shape, withErr bool, err error) {
	if fnType == nil || fnType.Kind() != reflect.Func {
		return Shape{}, false, fmt.Errorf("%w: %v is not a func type", ErrInvalidArgument, fnType)
	}
	if fnType.IsVariadic() {
		return Shape{}, false, fmt.Errorf("%w: variadic shape %s", ErrInvalidArgument, fnType)
	}
	outs := fnType.NumOut()
	if outs > 0 && fnType.Out(outs-1) == errorType {
		withErr = true
		outs--
	}
	if outs > 1 {
		return Shape{}, false, fmt.Errorf("%w: %s has more than one result", ErrInvalidArgument, fnType)
	}
	params := make([]reflect.Type, fnType.NumIn())
	for i := range params {
		params[i] = fnType.In(i)
	}
	var ret reflect.Type
	if outs == 1 {
		ret = fnType.Out(0)
	}
	s, err = NewShape(ret, params...)
	return s, withErr, err
}

func (s Shape) NumParams() int          { return len(s.params) }
func (s Shape) Param(i int) reflect.Type { return s.params[i] }
func (s Shape) Return() reflect.Type    { return s.ret }

// Params returns a copy of the parameter types.
func (s Shape) Params() []reflect.Type { return append([]reflect.Type(nil), s.params...) }

// Key is the func type equivalent to the shape; equal shapes have identical keys.
func (s Shape) Key() reflect.Type { return s.key }

func (s Shape) valid() bool { return s.key != nil }

func (s Shape) String() string {
	if s.key == nil {
		return "<invalid shape>"
	}
	parts := make([]string, len(s.params))
	for i, p := range s.params {
		parts[i] = p.String()
	}
	out := "func(" + strings.Join(parts, ", ") + ")"
	if s.ret != nil {
		out += " " + s.ret.String()
	}
	return out
}
