package funcadapt

import (
	"fmt"
	"reflect"
)

type step = func(reflect.Value) (reflect.Value, error)

// compile turns a resolved mapping into an adapter. All argument conversions run before the
// underlying call so a failing conversion has no side effects.
func (g *generation) compile(m *ArgumentMapping) *Adapter {
	c := m.Callable
	a := &Adapter{shape: m.Shape, name: c.String(), callable: c, mapping: m, isBound: m.Bound}

	var recvStep step
	if m.Receiver != nil {
		recvStep = m.Receiver.step()
	}
	type slotPlan struct {
		kind  SlotKind
		param int
		pos   []int
		steps []step
		def   reflect.Value
	}
	plans := make([]slotPlan, len(m.Slots))
	for i, s := range m.Slots {
		p := slotPlan{kind: s.Kind, param: s.Param, pos: s.Positions, def: s.Default}
		for _, conv := range s.Conversions {
			p.steps = append(p.steps, conv.step())
		}
		plans[i] = p
	}
	var retStep step
	if m.Return != nil {
		retStep = m.Return.step()
	}
	invoke := g.invoker(m)
	nParams := len(m.params)
	instance := !c.IsStatic()
	fail := func(err error) (reflect.Value, error) {
		return reflect.Value{}, &BindError{Member: c.String(), Shape: m.Shape, Err: err}
	}

	a.core = func(bound reflect.Value, args []reflect.Value) (reflect.Value, error) {
		var recv reflect.Value
		if instance {
			if m.Bound {
				recv = bound
			} else {
				r := args[0]
				if isNil(r) || (r.Kind() == reflect.Interface && isNil(r.Elem())) {
					return fail(ErrNullReceiver)
				}
				var err error
				if recv, err = run(recvStep, r); err != nil {
					return reflect.Value{}, err
				}
				if isNil(recv) {
					return fail(ErrNullReceiver)
				}
			}
		}

		in := make([]reflect.Value, nParams)
		for _, p := range plans {
			switch p.kind {
			case SlotBound:
				in[p.param] = bound
			case SlotDefault:
				in[p.param] = p.def
			case SlotArgument, SlotSpread:
				v, err := run(p.steps[0], args[p.pos[0]])
				if err != nil {
					return reflect.Value{}, err
				}
				in[p.param] = v
			case SlotVariadic:
				sl := reflect.MakeSlice(m.params[p.param], len(p.pos), len(p.pos))
				for k, pos := range p.pos {
					v, err := run(p.steps[k], args[pos])
					if err != nil {
						return reflect.Value{}, err
					}
					sl.Index(k).Set(v)
				}
				in[p.param] = sl
			}
		}

		out, err := invoke(recv, in)
		if err != nil {
			return reflect.Value{}, err
		}
		switch m.ReturnMode {
		case ReturnConvert:
			return run(retStep, out)
		case ReturnZero:
			return reflect.Zero(m.Shape.Return()), nil
		}
		return reflect.Value{}, nil
	}
	g.log.Debug("adapter compiled", "callable", c.String(), "shape", m.Shape.String(), "bound", m.Bound, "generation", g.id)
	return a
}

func run(s step, v reflect.Value) (reflect.Value, error) {
	if s == nil {
		return v, nil
	}
	return s(v)
}

func isNil(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}
	return nilable(v.Type()) && v.IsNil()
}

// invoker returns the call of the underlying member for a receiver (invalid for static
// callables) and fully converted arguments. It yields the result value, if any, and the
// error result of callables returning one.
func (g *generation) invoker(m *ArgumentMapping) func(recv reflect.Value, in []reflect.Value) (reflect.Value, error) {
	c := m.Callable
	variadic := c.IsVariadic()
	call := func(fn reflect.Value, in []reflect.Value) []reflect.Value {
		if variadic {
			return fn.CallSlice(in)
		}
		return fn.Call(in)
	}
	results := func(out []reflect.Value) (reflect.Value, error) {
		if c.ReturnsError {
			if e := out[len(out)-1]; !e.IsNil() {
				return reflect.Value{}, e.Interface().(error)
			}
			out = out[:len(out)-1]
		}
		if len(out) == 0 {
			return reflect.Value{}, nil
		}
		return out[0], nil
	}

	switch {
	case c.Kind == KindFieldGetter:
		return func(recv reflect.Value, _ []reflect.Value) (reflect.Value, error) {
			fv, ok := safeFieldByIndex(recv, c.field)
			if !ok {
				return reflect.Value{}, valueError(recv, m.ret, ErrNullValue, fmt.Errorf("nil embedded struct on path to %s", c.Name))
			}
			return copyOf(fv), nil
		}
	case c.Kind == KindFieldSetter:
		return func(recv reflect.Value, in []reflect.Value) (reflect.Value, error) {
			fv, ok := safeFieldByIndex(recv.Elem(), c.field)
			if !ok {
				return reflect.Value{}, valueError(recv, m.params[0], ErrNullValue, fmt.Errorf("nil embedded struct on path to %s", c.Name))
			}
			fv.Set(in[0])
			return reflect.Value{}, nil
		}
	case c.recvFirst:
		return func(recv reflect.Value, in []reflect.Value) (reflect.Value, error) {
			return results(call(m.fn, append([]reflect.Value{recv}, in...)))
		}
	case c.IsStatic():
		return func(_ reflect.Value, in []reflect.Value) (reflect.Value, error) {
			return results(call(m.fn, in))
		}
	}
	return func(recv reflect.Value, in []reflect.Value) (reflect.Value, error) {
		return results(call(recv.Method(c.method), in))
	}
}
