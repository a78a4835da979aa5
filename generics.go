package funcadapt

import (
	"fmt"
	"reflect"
)

// Generic helpers as top-level functions (methods cannot have type parameters yet)

// ConvertTo converts value to T.
func ConvertTo[T any](e *Engine, value any) (T, error) {
	var zero T
	out, err := e.Convert(value, TypeOf[T]())
	if err != nil {
		return zero, err
	}
	if out == nil {
		return zero, nil
	}
	return out.(T), nil
}

// Typed returns the adapter as a func of type F, which must match its shape and may add a
// trailing error result.
func Typed[F any](a *Adapter) (F, error) {
	var f F
	if reflect.TypeOf(&f).Elem().Kind() != reflect.Func {
		return f, fmt.Errorf("%w: %T is not a func type", ErrInvalidArgument, f)
	}
	err := a.Func(&f)
	return f, err
}

// BindFunc binds callable to the shape of F and returns the typed func.
func BindFunc[F any](e *Engine, callable *CallableDescriptor) (F, error) {
	var zero F
	s, _, err := ShapeFor(TypeOf[F]())
	if err != nil {
		return zero, err
	}
	a, err := e.Bind(callable, s)
	if err != nil {
		return zero, err
	}
	return Typed[F](a)
}

// BindFuncTo is BindFunc with a receiver or leading argument fixed.
func BindFuncTo[F any](e *Engine, callable *CallableDescriptor, receiver any) (F, error) {
	var zero F
	s, _, err := ShapeFor(TypeOf[F]())
	if err != nil {
		return zero, err
	}
	a, err := e.BindTo(callable, s, receiver)
	if err != nil {
		return zero, err
	}
	return Typed[F](a)
}

// ShapeOf derives a Shape from the func type F.
func ShapeOf[F any]() (Shape, error) {
	s, _, err := ShapeFor(TypeOf[F]())
	return s, err
}
