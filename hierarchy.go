package funcadapt

import "reflect"

// predeclared maps basic kinds to their predeclared types.
var predeclared = map[reflect.Kind]reflect.Type{
	reflect.Bool:       reflect.TypeOf(false),
	reflect.Int:        reflect.TypeOf(int(0)),
	reflect.Int8:       reflect.TypeOf(int8(0)),
	reflect.Int16:      reflect.TypeOf(int16(0)),
	reflect.Int32:      reflect.TypeOf(int32(0)),
	reflect.Int64:      reflect.TypeOf(int64(0)),
	reflect.Uint:       reflect.TypeOf(uint(0)),
	reflect.Uint8:      reflect.TypeOf(uint8(0)),
	reflect.Uint16:     reflect.TypeOf(uint16(0)),
	reflect.Uint32:     reflect.TypeOf(uint32(0)),
	reflect.Uint64:     reflect.TypeOf(uint64(0)),
	reflect.Uintptr:    reflect.TypeOf(uintptr(0)),
	reflect.Float32:    reflect.TypeOf(float32(0)),
	reflect.Float64:    reflect.TypeOf(float64(0)),
	reflect.Complex64:  reflect.TypeOf(complex64(0)),
	reflect.Complex128: reflect.TypeOf(complex128(0)),
	reflect.String:     reflect.TypeOf(""),
}

// isDefined reports whether t is a named type declared in some package.
func isDefined(t reflect.Type) bool { return t.Name() != "" && t.PkgPath() != "" }

// underlying returns the underlying type of a defined non-struct, non-interface type, or nil.
func underlying(t reflect.Type) reflect.Type {
	if !isDefined(t) {
		return nil
	}
	switch t.Kind() {
	case reflect.Slice:
		return reflect.SliceOf(t.Elem())
	case reflect.Array:
		return reflect.ArrayOf(t.Len(), t.Elem())
	case reflect.Map:
		return reflect.MapOf(t.Key(), t.Elem())
	case reflect.Pointer:
		return reflect.PointerTo(t.Elem())
	case reflect.Chan:
		return reflect.ChanOf(t.ChanDir(), t.Elem())
	case reflect.Func:
		in := make([]reflect.Type, t.NumIn())
		for i := range in {
			in[i] = t.In(i)
		}
		out := make([]reflect.Type, t.NumOut())
		for i := range out {
			out[i] = t.Out(i)
		}
		return reflect.FuncOf(in, out, t.IsVariadic())
	case reflect.Struct, reflect.Interface:
		return nil
	}
	return predeclared[t.Kind()]
}

// hierarchyLink is one upcast step from a type to its parent.
type hierarchyLink struct {
	parent reflect.Type
	apply  func(reflect.Value) (reflect.Value, error)
}

// parentOf returns the direct parent of t: the first embedded field of a struct (or, for a
// pointer to such a struct, a pointer to it) and otherwise the underlying type of a defined
// type.
func parentOf(t reflect.Type) (hierarchyLink, bool) {
	switch {
	case t.Kind() == reflect.Struct:
		f, ok := firstEmbedded(t)
		if !ok {
			break
		}
		return hierarchyLink{parent: f.Type, apply: func(v reflect.Value) (reflect.Value, error) {
			return v.Field(0), nil
		}}, true
	case t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Struct && !isDefined(t):
		f, ok := firstEmbedded(t.Elem())
		if !ok {
			break
		}
		if f.Type.Kind() == reflect.Pointer {
			return hierarchyLink{parent: f.Type, apply: func(v reflect.Value) (reflect.Value, error) {
				if v.IsNil() {
					return reflect.Zero(f.Type), nil
				}
				return v.Elem().Field(0), nil
			}}, true
		}
		pt := reflect.PointerTo(f.Type)
		return hierarchyLink{parent: pt, apply: func(v reflect.Value) (reflect.Value, error) {
			if v.IsNil() {
				return reflect.Zero(pt), nil
			}
			return v.Elem().Field(0).Addr(), nil
		}}, true
	}
	if u := underlying(t); u != nil {
		return hierarchyLink{parent: u, apply: func(v reflect.Value) (reflect.Value, error) {
			return v.Convert(u), nil
		}}, true
	}
	return hierarchyLink{}, false
}

func firstEmbedded(st reflect.Type) (reflect.StructField, bool) {
	if st.NumField() == 0 {
		return reflect.StructField{}, false
	}
	f := st.Field(0)
	if !f.Anonymous || !f.IsExported() {
		return reflect.StructField{}, false
	}
	return f, true
}

// chain returns the upcast links from t to its root, stopping at a repeated type.
func chain(t reflect.Type) []hierarchyLink {
	var out []hierarchyLink
	seen := map[reflect.Type]bool{t: true}
	for cur := t; ; {
		l, ok := parentOf(cur)
		if !ok || seen[l.parent] {
			return out
		}
		seen[l.parent] = true
		out = append(out, l)
		cur = l.parent
	}
}

// Ancestors returns the ancestor chain of t, nearest first. Every chain ends with the empty
// interface, except the one of the empty interface itself, which is empty.
func Ancestors(t reflect.Type) []reflect.Type {
	if t == nil || t == anyType {
		return nil
	}
	links := chain(t)
	out := make([]reflect.Type, 0, len(links)+1)
	for _, l := range links {
		out = append(out, l.parent)
	}
	return append(out, anyType)
}

// upcast returns the step walking from src to the ancestor dst, or nil when dst is not an
// ancestor of src.
func upcast(src, dst reflect.Type) func(reflect.Value) (reflect.Value, error) {
	links := chain(src)
	n := -1
	for i, l := range links {
		if l.parent == dst {
			n = i + 1
			break
		}
	}
	if n < 0 {
		return nil
	}
	links = links[:n]
	return func(v reflect.Value) (reflect.Value, error) {
		var err error
		for _, l := range links {
			if v, err = l.apply(v); err != nil {
				return reflect.Value{}, err
			}
		}
		return v, nil
	}
}

// derivesFrom reports whether anc is a proper ancestor of t.
func derivesFrom(t, anc reflect.Type) bool {
	for _, l := range chain(t) {
		if l.parent == anc {
			return true
		}
	}
	return false
}
