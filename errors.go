package funcadapt

import (
	"errors"
	"fmt"
	"reflect"
)

// Sentinel errors. Every error returned by the engine matches one of these with errors.Is.
var (
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrNoConversion        = errors.New("no conversion")
	ErrAmbiguousConversion = errors.New("ambiguous conversion")
	ErrArityMismatch       = errors.New("arity mismatch")
	ErrGenericInference    = errors.New("generic inference failed")
	ErrBindFailure         = errors.New("bind failed")
	ErrNoHandler           = errors.New("no handler for type")
	ErrDuplicateKey        = errors.New("duplicate dispatch key")
	ErrNullReceiver        = errors.New("nil receiver")
	ErrNullValue           = errors.New("nil value")
	ErrOverflow            = errors.New("value out of range")
	ErrNoMember            = errors.New("no such member")
)

// ConversionError reports a failed conversion between two types, either at classification
// time (Value is nil) or while converting a concrete value.
type ConversionError struct {
	Source reflect.Type
	Target reflect.Type
	Value  any
	Reason error
	Err    error
}

func (e *ConversionError) Error() string {
	msg := fmt.Sprintf("convert %s to %s: %v", typeString(e.Source), typeString(e.Target), e.Reason)
	if e.Value != nil {
		msg = fmt.Sprintf("convert %v (%s) to %s: %v", e.Value, typeString(e.Source), typeString(e.Target), e.Reason)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConversionError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Reason}
	}
	return []error{e.Reason, e.Err}
}

func newConversionError(src, dst reflect.Type, reason error, err error) *ConversionError {
	return &ConversionError{Source: src, Target: dst, Reason: reason, Err: err}
}

func valueError(v reflect.Value, dst reflect.Type, reason error, err error) *ConversionError {
	ce := &ConversionError{Target: dst, Reason: reason, Err: err}
	if v.IsValid() {
		ce.Source = v.Type()
		if v.CanInterface() {
			ce.Value = v.Interface()
		}
	}
	return ce
}

// BindError is the umbrella failure for binding a callable to a shape. It always matches
// ErrBindFailure and additionally the cause.
type BindError struct {
	Member string
	Shape  Shape
	Err    error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("bind %s as %s: %v", e.Member, e.Shape, e.Err)
}

func (e *BindError) Unwrap() []error { return []error{ErrBindFailure, e.Err} }

// DispatchError is returned by a Switcher adapter when no candidate handles the runtime type
// of the key argument.
type DispatchError struct {
	Type  reflect.Type
	Group string
}

func (e *DispatchError) Error() string {
	if e.Group != "" {
		return fmt.Sprintf("%v: %s (dispatch group %q)", ErrNoHandler, typeString(e.Type), e.Group)
	}
	return fmt.Sprintf("%v: %s", ErrNoHandler, typeString(e.Type))
}

func (e *DispatchError) Unwrap() error { return ErrNoHandler }

func typeString(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
