package funcadapt

import "reflect"

// nullableInner reports the wrapped type of a nullable wrapper: a struct of exactly two
// exported fields, one of them "Valid bool". null.Int, sql.NullInt64 and sql.Null[T] all
// have this layout.
func nullableInner(t reflect.Type) (inner reflect.Type, valueIdx, validIdx int, ok bool) {
	if t.Kind() != reflect.Struct || t.NumField() != 2 {
		return nil, 0, 0, false
	}
	for i := 0; i < 2; i++ {
		f := t.Field(i)
		if f.Name == "Valid" && f.Type.Kind() == reflect.Bool && f.IsExported() {
			other := t.Field(1 - i)
			if !other.IsExported() || other.Anonymous {
				return nil, 0, 0, false
			}
			return other.Type, 1 - i, i, true
		}
	}
	return nil, 0, 0, false
}

// classifyNullable lifts a conversion through nullable wrappers on either side. It reports
// false when neither side is a wrapper or the wrapped types do not convert, leaving the pair
// to operators and registrations.
func (g *generation) classifyNullable(src, dst reflect.Type) (*Conversion, bool) {
	sInner, sVal, sValid, sNull := nullableInner(src)
	dInner, dVal, dValid, dNull := nullableInner(dst)
	if !sNull && !dNull {
		return nil, false
	}

	from, to := src, dst
	if sNull {
		from = sInner
	}
	if dNull {
		to = dInner
	}
	inner, err := g.classify(from, to)
	if err != nil {
		return nil, false
	}

	c := &Conversion{
		Source:     src,
		Target:     dst,
		Kind:       inner.Kind,
		Implicit:   inner.Implicit,
		Operator:   inner.Operator,
		Registered: inner.Registered,
	}
	switch {
	case sNull && dNull:
		// null in, null out
		c.run = func(v reflect.Value) (reflect.Value, error) {
			out := reflect.New(dst).Elem()
			if !v.Field(sValid).Bool() {
				return out, nil
			}
			x, err := inner.Apply(v.Field(sVal))
			if err != nil {
				return reflect.Value{}, err
			}
			out.Field(dVal).Set(x)
			out.Field(dValid).SetBool(true)
			return out, nil
		}
	case dNull:
		c.run = func(v reflect.Value) (reflect.Value, error) {
			x, err := inner.Apply(v)
			if err != nil {
				return reflect.Value{}, err
			}
			out := reflect.New(dst).Elem()
			out.Field(dVal).Set(x)
			out.Field(dValid).SetBool(true)
			return out, nil
		}
	default:
		c.Implicit = false
		c.NullGuard = true
		c.run = func(v reflect.Value) (reflect.Value, error) {
			if !v.Field(sValid).Bool() {
				return reflect.Value{}, valueError(v, dst, ErrNullValue, nil)
			}
			return inner.Apply(v.Field(sVal))
		}
	}
	return c, true
}
