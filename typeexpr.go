package funcadapt

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// TypeExpr is a declared parameter or return type that may mention type parameters of a
// generic callable. Concrete types are wrapped with Concrete.
type TypeExpr interface {
	String() string
	// resolve substitutes every type parameter; it fails when one is unbound.
	resolve(s Subst) (reflect.Type, error)
	// unify binds the type parameters of the expression so it matches actual.
	unify(actual reflect.Type, s Subst) error
	params(into []string) []string
}

// Subst maps type parameter names to concrete types.
type Subst map[string]reflect.Type

func (s Subst) String() string {
	names := make([]string, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = n + "=" + s[n].String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

type concreteExpr struct{ t reflect.Type }

// Concrete wraps a non-generic type.
func Concrete(t reflect.Type) TypeExpr { return concreteExpr{t: t} }

func (c concreteExpr) String() string                      { return typeString(c.t) }
func (c concreteExpr) resolve(Subst) (reflect.Type, error) { return c.t, nil }
func (c concreteExpr) unify(reflect.Type, Subst) error     { return nil }
func (c concreteExpr) params(into []string) []string       { return into }

type paramExpr struct{ name string }

// Param references the type parameter with the given name.
func Param(name string) TypeExpr { return paramExpr{name: name} }

func (p paramExpr) String() string { return p.name }

func (p paramExpr) resolve(s Subst) (reflect.Type, error) {
	if t, ok := s[p.name]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("%w: type parameter %s is not bound", ErrGenericInference, p.name)
}

func (p paramExpr) unify(actual reflect.Type, s Subst) error {
	if bound, ok := s[p.name]; ok {
		if bound != actual {
			return fmt.Errorf("%w: %s inferred as both %s and %s", ErrGenericInference, p.name, bound, actual)
		}
		return nil
	}
	s[p.name] = actual
	return nil
}

func (p paramExpr) params(into []string) []string { return append(into, p.name) }

type sliceExpr struct{ elem TypeExpr }

// SliceOf is []elem.
func SliceOf(elem TypeExpr) TypeExpr { return sliceExpr{elem: elem} }

func (e sliceExpr) String() string { return "[]" + e.elem.String() }

func (e sliceExpr) resolve(s Subst) (reflect.Type, error) {
	et, err := e.elem.resolve(s)
	if err != nil {
		return nil, err
	}
	return reflect.SliceOf(et), nil
}

func (e sliceExpr) unify(actual reflect.Type, s Subst) error {
	if actual.Kind() != reflect.Slice {
		return mismatch(e, actual)
	}
	return e.elem.unify(actual.Elem(), s)
}

func (e sliceExpr) params(into []string) []string { return e.elem.params(into) }

type ptrExpr struct{ elem TypeExpr }

// PointerTo is *elem.
func PointerTo(elem TypeExpr) TypeExpr { return ptrExpr{elem: elem} }

func (e ptrExpr) String() string { return "*" + e.elem.String() }

func (e ptrExpr) resolve(s Subst) (reflect.Type, error) {
	et, err := e.elem.resolve(s)
	if err != nil {
		return nil, err
	}
	return reflect.PointerTo(et), nil
}

func (e ptrExpr) unify(actual reflect.Type, s Subst) error {
	if actual.Kind() != reflect.Pointer {
		return mismatch(e, actual)
	}
	return e.elem.unify(actual.Elem(), s)
}

func (e ptrExpr) params(into []string) []string { return e.elem.params(into) }

type mapExpr struct{ key, elem TypeExpr }

// MapOf is map[key]elem.
func MapOf(key, elem TypeExpr) TypeExpr { return mapExpr{key: key, elem: elem} }

func (e mapExpr) String() string { return "map[" + e.key.String() + "]" + e.elem.String() }

func (e mapExpr) resolve(s Subst) (reflect.Type, error) {
	kt, err := e.key.resolve(s)
	if err != nil {
		return nil, err
	}
	et, err := e.elem.resolve(s)
	if err != nil {
		return nil, err
	}
	if !kt.Comparable() {
		return nil, fmt.Errorf("%w: map key %s is not comparable", ErrGenericInference, kt)
	}
	return reflect.MapOf(kt, et), nil
}

func (e mapExpr) unify(actual reflect.Type, s Subst) error {
	if actual.Kind() != reflect.Map {
		return mismatch(e, actual)
	}
	if err := e.key.unify(actual.Key(), s); err != nil {
		return err
	}
	return e.elem.unify(actual.Elem(), s)
}

func (e mapExpr) params(into []string) []string { return e.elem.params(e.key.params(into)) }

type arrayExpr struct {
	n    int
	elem TypeExpr
}

// ArrayOf is [n]elem.
func ArrayOf(n int, elem TypeExpr) TypeExpr { return arrayExpr{n: n, elem: elem} }

func (e arrayExpr) String() string { return fmt.Sprintf("[%d]%s", e.n, e.elem) }

func (e arrayExpr) resolve(s Subst) (reflect.Type, error) {
	et, err := e.elem.resolve(s)
	if err != nil {
		return nil, err
	}
	return reflect.ArrayOf(e.n, et), nil
}

func (e arrayExpr) unify(actual reflect.Type, s Subst) error {
	if actual.Kind() != reflect.Array || actual.Len() != e.n {
		return mismatch(e, actual)
	}
	return e.elem.unify(actual.Elem(), s)
}

func (e arrayExpr) params(into []string) []string { return e.elem.params(into) }

type chanExpr struct {
	dir  reflect.ChanDir
	elem TypeExpr
}

// ChanOf is a channel of elem with the given direction.
func ChanOf(dir reflect.ChanDir, elem TypeExpr) TypeExpr { return chanExpr{dir: dir, elem: elem} }

func (e chanExpr) String() string {
	switch e.dir {
	case reflect.RecvDir:
		return "<-chan " + e.elem.String()
	case reflect.SendDir:
		return "chan<- " + e.elem.String()
	}
	return "chan " + e.elem.String()
}

func (e chanExpr) resolve(s Subst) (reflect.Type, error) {
	et, err := e.elem.resolve(s)
	if err != nil {
		return nil, err
	}
	return reflect.ChanOf(e.dir, et), nil
}

func (e chanExpr) unify(actual reflect.Type, s Subst) error {
	if actual.Kind() != reflect.Chan {
		return mismatch(e, actual)
	}
	return e.elem.unify(actual.Elem(), s)
}

func (e chanExpr) params(into []string) []string { return e.elem.params(into) }

func mismatch(e TypeExpr, actual reflect.Type) error {
	return fmt.Errorf("%w: %s does not match %s", ErrGenericInference, actual, e)
}

func isGeneric(e TypeExpr) bool {
	return e != nil && len(e.params(nil)) > 0
}

// concreteType returns the type of a non-generic expression, or nil.
func concreteType(e TypeExpr) reflect.Type {
	if c, ok := e.(concreteExpr); ok {
		return c.t
	}
	return nil
}
