package funcadapt

import (
	"errors"
	"fmt"
	"reflect"
)

// Bind compiles callable into an adapter presenting shape. Instance members take their
// receiver from shape position 0. Binding the same callable and shape again returns the same
// adapter until the next registration.
func (e *Engine) Bind(callable *CallableDescriptor, shape Shape) (*Adapter, error) {
	return e.current().bind(callable, shape)
}

// BindTo compiles callable with receiver fixed: the receiver of an instance member, or the
// leading argument of a static callable. receiver is converted once, here.
func (e *Engine) BindTo(callable *CallableDescriptor, shape Shape, receiver any) (*Adapter, error) {
	return e.current().bindTo(callable, shape, reflect.ValueOf(receiver))
}

// TryBind is Bind reporting failure as false instead of an error.
func (e *Engine) TryBind(callable *CallableDescriptor, shape Shape) (*Adapter, bool) {
	a, err := e.Bind(callable, shape)
	return a, err == nil
}

func (g *generation) bind(c *CallableDescriptor, shape Shape) (*Adapter, error) {
	a, err := g.adapter(c, shape, false, nil)
	if err != nil {
		return nil, bindError(c, shape, err)
	}
	return a, nil
}

func (g *generation) bindTo(c *CallableDescriptor, shape Shape, rv reflect.Value) (*Adapter, error) {
	if c == nil {
		return nil, bindError(c, shape, fmt.Errorf("%w: nil callable", ErrInvalidArgument))
	}
	var boundType reflect.Type
	if c.IsStatic() && c.IsGeneric() && rv.IsValid() {
		boundType = rv.Type()
	}
	tmpl, err := g.adapter(c, shape, true, boundType)
	if err != nil {
		return nil, bindError(c, shape, err)
	}

	target := c.Owner
	if c.IsStatic() {
		target = tmpl.mapping.params[0]
	}
	if isNil(rv) {
		if !c.IsStatic() {
			return nil, bindError(c, shape, ErrNullReceiver)
		}
		if !nilable(target) {
			return nil, bindError(c, shape, &ConversionError{Target: target, Reason: ErrNullValue})
		}
		return tmpl.withBound(reflect.Zero(target)), nil
	}
	conv, err := g.classify(rv.Type(), target)
	if err == nil {
		if c.IsStatic() {
			err = g.allow(conv)
		} else {
			err = g.allowReceiver(conv)
		}
	}
	if err != nil {
		return nil, bindError(c, shape, err)
	}
	v, err := conv.Apply(rv)
	if err != nil {
		return nil, bindError(c, shape, err)
	}
	if !c.IsStatic() && isNil(v) {
		return nil, bindError(c, shape, ErrNullReceiver)
	}
	return tmpl.withBound(v), nil
}

// adapter returns the cached adapter for the key, resolving and compiling it on first use.
func (g *generation) adapter(c *CallableDescriptor, shape Shape, bound bool, boundType reflect.Type) (*Adapter, error) {
	if c == nil {
		return nil, fmt.Errorf("%w: nil callable", ErrInvalidArgument)
	}
	if !shape.valid() {
		return nil, fmt.Errorf("%w: invalid shape", ErrInvalidArgument)
	}
	key := adapterKey{callable: c, shape: shape.Key(), bound: bound, boundType: boundType}
	return g.adapters.get(key, func() (*Adapter, error) {
		m, err := g.resolve(c, shape, bound, boundType)
		if err != nil {
			return nil, err
		}
		return g.compile(m), nil
	})
}

func bindError(c *CallableDescriptor, shape Shape, err error) error {
	var be *BindError
	if errors.As(err, &be) {
		return err
	}
	name := "<nil>"
	if c != nil {
		name = c.String()
	}
	return &BindError{Member: name, Shape: shape, Err: err}
}

// BindMember looks name up on owner through the engine's Introspector and binds the first
// candidate that reconciles with shape. Methods are tried before properties, properties
// before fields. Without flags every member category is searched.
func (e *Engine) BindMember(owner reflect.Type, name string, shape Shape, flags ...SearchFlags) (*Adapter, error) {
	g := e.current()
	return g.bindMember(e.intro, owner, name, shape, searchFlags(flags), func(c *CallableDescriptor) (*Adapter, error) {
		return g.bind(c, shape)
	})
}

// BindMemberTo is BindMember for an instance member of receiver's type with receiver fixed.
func (e *Engine) BindMemberTo(receiver any, name string, shape Shape, flags ...SearchFlags) (*Adapter, error) {
	if receiver == nil {
		return nil, &BindError{Member: name, Shape: shape, Err: ErrNullReceiver}
	}
	g := e.current()
	rv := reflect.ValueOf(receiver)
	return g.bindMember(e.intro, rv.Type(), name, shape, searchFlags(flags), func(c *CallableDescriptor) (*Adapter, error) {
		return g.bindTo(c, shape, rv)
	})
}

func (g *generation) bindMember(intro Introspector, owner reflect.Type, name string, shape Shape, flags SearchFlags, bind func(*CallableDescriptor) (*Adapter, error)) (*Adapter, error) {
	if owner == nil || name == "" {
		return nil, &BindError{Member: name, Shape: shape, Err: fmt.Errorf("%w: owner and name are required", ErrInvalidArgument)}
	}
	cands, err := intro.Lookup(owner, name, flags)
	if err != nil {
		return nil, &BindError{Member: owner.String() + "." + name, Shape: shape, Err: err}
	}
	if len(cands) == 0 {
		return nil, &BindError{Member: owner.String() + "." + name, Shape: shape, Err: ErrNoMember}
	}
	var firstErr error
	for _, c := range cands {
		a, err := bind(c)
		if err == nil {
			return a, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, firstErr
}
