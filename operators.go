package funcadapt

import (
	"fmt"
	"reflect"
	"strings"
)

const (
	toPrefix   = "To"
	fromPrefix = "From"
)

// operator is a user-declared conversion method found on the source or destination type.
type operator struct {
	desc    *CallableDescriptor
	host    reflect.Type // method set the operator belongs to
	index   int
	in      reflect.Type // parameter type; nil for To* methods
	out     reflect.Type // result type; nil for pointer From* methods
	withErr bool
	rank    int // 0 exact on both ends; higher is looser
}

func (op *operator) implicit() bool { return !op.withErr }

// findOperators collects the To* methods of src and the From* methods of dst (and *dst) that
// convert src into dst, keeping only the best-ranked ones.
func findOperators(src, dst reflect.Type) []*operator {
	var found []*operator
	for _, host := range operatorHosts(src) {
		for i := 0; i < host.NumMethod(); i++ {
			m := host.Method(i)
			if !strings.HasPrefix(m.Name, toPrefix) || m.Type.NumIn() != 1 {
				continue
			}
			out, withErr, ok := operatorResult(m.Type)
			if !ok || out == nil {
				continue
			}
			rank, ok := matchRank(out, dst)
			if !ok {
				continue
			}
			found = append(found, &operator{host: host, index: m.Index, out: out, withErr: withErr, rank: rank})
		}
	}
	for _, host := range operatorHosts(dst) {
		for i := 0; i < host.NumMethod(); i++ {
			m := host.Method(i)
			if !strings.HasPrefix(m.Name, fromPrefix) || m.Type.NumIn() != 2 {
				continue
			}
			in := m.Type.In(1)
			srcRank, ok := matchRank(src, in)
			if !ok {
				continue
			}
			out, withErr, ok := operatorResult(m.Type)
			if !ok {
				continue
			}
			op := &operator{host: host, index: m.Index, in: in, withErr: withErr, rank: srcRank}
			switch {
			case out == nil && host.Kind() == reflect.Pointer && withErr:
				// func (d *D) FromX(s S) error fills the receiver
			case out != nil:
				outRank, ok := matchRank(out, dst)
				if !ok {
					continue
				}
				op.out = out
				op.rank += outRank
			default:
				continue
			}
			found = append(found, op)
		}
	}
	if len(found) == 0 {
		return nil
	}
	best := found[0].rank
	for _, op := range found[1:] {
		if op.rank < best {
			best = op.rank
		}
	}
	var out []*operator
	for _, op := range found {
		if op.rank == best {
			out = append(out, op)
		}
	}
	return out
}

// operatorHosts lists the method sets searched for operators declared by t. Value types are
// searched through *T as well; dedupe drops the repeats.
func operatorHosts(t reflect.Type) []reflect.Type {
	switch t.Kind() {
	case reflect.Interface:
		return nil
	case reflect.Pointer:
		return []reflect.Type{t}
	}
	return []reflect.Type{t, reflect.PointerTo(t)}
}

func operatorResult(ft reflect.Type) (out reflect.Type, withErr bool, ok bool) {
	switch ft.NumOut() {
	case 1:
		if ft.Out(0) == errorType {
			return nil, true, true
		}
		return ft.Out(0), false, true
	case 2:
		if ft.Out(1) != errorType {
			return nil, false, false
		}
		return ft.Out(0), true, true
	}
	return nil, false, false
}

// matchRank scores how from flows into to: 0 when identical, 1 when assignable.
func matchRank(from, to reflect.Type) (int, bool) {
	switch {
	case from == to:
		return 0, true
	case from.AssignableTo(to):
		return 1, true
	}
	return 0, false
}

// dedupe drops pointer-set duplicates of value-set methods.
func dedupe(ops []*operator) []*operator {
	seen := make(map[string]bool, len(ops))
	var out []*operator
	for _, op := range ops {
		base := op.host
		if base.Kind() == reflect.Pointer {
			base = base.Elem()
		}
		key := base.String() + "." + op.host.Method(op.index).Name
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, op)
	}
	return out
}

// classifyOperator resolves the single user-declared operator converting src to dst.
func (g *generation) classifyOperator(src, dst reflect.Type) (*Conversion, error) {
	ops := dedupe(findOperators(src, dst))
	switch len(ops) {
	case 0:
		return nil, nil
	case 1:
	default:
		names := make([]string, len(ops))
		for i, op := range ops {
			names[i] = op.host.String() + "." + op.host.Method(op.index).Name
		}
		g.log.Warn("ambiguous conversion operators", "source", src, "target", dst, "candidates", names)
		return nil, newConversionError(src, dst, ErrAmbiguousConversion, fmt.Errorf("candidates %s", strings.Join(names, ", ")))
	}
	op := ops[0]
	desc, err := newMethodDescriptor(op.host, op.host.Method(op.index), KindMethod)
	if err != nil {
		return nil, err
	}
	op.desc = desc
	return &Conversion{
		Source:   src,
		Target:   dst,
		Kind:     UserDefined,
		Implicit: op.implicit(),
		Operator: desc,
		run:      op.runner(src, dst),
	}, nil
}

func (op *operator) runner(src, dst reflect.Type) func(reflect.Value) (reflect.Value, error) {
	fail := func(v reflect.Value, err error) (reflect.Value, error) {
		return reflect.Value{}, valueError(v, dst, ErrNoConversion, fmt.Errorf("%s: %w", op.desc.Name, err))
	}
	finish := func(v reflect.Value, res []reflect.Value) (reflect.Value, error) {
		if op.withErr {
			if e := res[len(res)-1]; !e.IsNil() {
				return fail(v, e.Interface().(error))
			}
		}
		return assignTo(res[0], dst), nil
	}

	if op.in == nil {
		// src.ToX()
		return func(v reflect.Value) (reflect.Value, error) {
			if v.Kind() == reflect.Pointer && v.IsNil() {
				return reflect.Value{}, valueError(v, dst, ErrNullValue, nil)
			}
			recv, err := receiverFor(v, op.host)
			if err != nil {
				return reflect.Value{}, err
			}
			return finish(v, recv.Method(op.index).Call(nil))
		}
	}
	if op.out == nil {
		// (*D).FromX(s) error
		return func(v reflect.Value) (reflect.Value, error) {
			p := newReceiver(op.host)
			res := p.Method(op.index).Call([]reflect.Value{assignTo(v, op.in)})
			if e := res[0]; !e.IsNil() {
				return fail(v, e.Interface().(error))
			}
			if dst.Kind() == reflect.Pointer {
				return p, nil
			}
			return p.Elem(), nil
		}
	}
	// D.FromX(s) D, called on a zero receiver
	return func(v reflect.Value) (reflect.Value, error) {
		recv := newReceiver(op.host)
		return finish(v, recv.Method(op.index).Call([]reflect.Value{assignTo(v, op.in)}))
	}
}

func newReceiver(host reflect.Type) reflect.Value {
	if host.Kind() == reflect.Pointer {
		return reflect.New(host.Elem())
	}
	return reflect.Zero(host)
}

// receiverFor adapts v to the method set host, taking the address of a copy when host is the
// pointer type of v.
func receiverFor(v reflect.Value, host reflect.Type) (reflect.Value, error) {
	if v.Type() == host {
		return v, nil
	}
	if host.Kind() == reflect.Pointer && host.Elem() == v.Type() {
		p := reflect.New(v.Type())
		p.Elem().Set(v)
		return p, nil
	}
	return reflect.Value{}, valueError(v, host, ErrInvalidArgument, nil)
}

// assignTo returns v as a value of type t; v must be assignable to t.
func assignTo(v reflect.Value, t reflect.Type) reflect.Value {
	if v.Type() == t {
		return v
	}
	out := reflect.New(t).Elem()
	out.Set(v)
	return out
}
