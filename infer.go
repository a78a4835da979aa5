package funcadapt

import (
	"fmt"
	"reflect"
	"strings"
)

// TypeParam declares a type parameter of a generic callable.
type TypeParam struct {
	Name       string
	Constraint Constraint // nil means any
}

// Constraint restricts the types a type parameter may be instantiated with.
type Constraint interface {
	Satisfied(t reflect.Type) bool
	String() string
}

type constraintFunc struct {
	name string
	fn   func(reflect.Type) bool
}

func (c constraintFunc) Satisfied(t reflect.Type) bool { return c.fn(t) }
func (c constraintFunc) String() string                { return c.name }

// NewConstraint builds a Constraint from a predicate.
func NewConstraint(name string, fn func(reflect.Type) bool) Constraint {
	return constraintFunc{name: name, fn: fn}
}

var (
	// Any is satisfied by every type.
	Any Constraint = constraintFunc{name: "any", fn: func(reflect.Type) bool { return true }}
	// Comparable is satisfied by types usable as map keys.
	Comparable Constraint = constraintFunc{name: "comparable", fn: func(t reflect.Type) bool { return t.Comparable() }}
	// Numeric is satisfied by integer, floating-point and complex kinds.
	Numeric = OneOfKinds(
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128,
	)
)

// Implements is satisfied by types implementing the interface iface.
func Implements(iface reflect.Type) Constraint {
	return constraintFunc{name: "implements " + iface.String(), fn: func(t reflect.Type) bool {
		return iface.Kind() == reflect.Interface && t.Implements(iface)
	}}
}

// OneOfKinds is satisfied by types whose kind is listed (the ~int | ~string style of union).
func OneOfKinds(kinds ...reflect.Kind) Constraint {
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = "~" + k.String()
	}
	return constraintFunc{name: strings.Join(names, " | "), fn: func(t reflect.Type) bool {
		for _, k := range kinds {
			if t.Kind() == k {
				return true
			}
		}
		return false
	}}
}

// AllOf is satisfied when every constraint is.
func AllOf(cs ...Constraint) Constraint {
	names := make([]string, len(cs))
	for i, c := range cs {
		names[i] = c.String()
	}
	return constraintFunc{name: strings.Join(names, "; "), fn: func(t reflect.Type) bool {
		for _, c := range cs {
			if !c.Satisfied(t) {
				return false
			}
		}
		return true
	}}
}

// inferPair is one declared/actual type pair taking part in unification.
type inferPair struct {
	declared TypeExpr
	actual   reflect.Type
}

// infer unifies every pair and returns the resulting substitution. It does not check
// constraints and tolerates unbound parameters; see complete and checkConstraints.
func infer(pairs []inferPair, s Subst) (Subst, error) {
	if s == nil {
		s = make(Subst)
	}
	for _, p := range pairs {
		if p.actual == nil || !isGeneric(p.declared) {
			continue
		}
		if err := p.declared.unify(p.actual, s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// inferFromReturn binds parameters still unbound from the expected return type. Conflicts are
// ignored since argument inference takes precedence.
func inferFromReturn(ret TypeExpr, expected reflect.Type, s Subst) {
	if expected == nil || !isGeneric(ret) {
		return
	}
	trial := make(Subst, len(s))
	for k, v := range s {
		trial[k] = v
	}
	if err := ret.unify(expected, trial); err != nil {
		return
	}
	for k, v := range trial {
		if _, ok := s[k]; !ok {
			s[k] = v
		}
	}
}

func complete(tps []TypeParam, s Subst) error {
	for _, tp := range tps {
		if _, ok := s[tp.Name]; !ok {
			return fmt.Errorf("%w: cannot infer %s", ErrGenericInference, tp.Name)
		}
	}
	return nil
}

func checkConstraints(tps []TypeParam, s Subst) error {
	for _, tp := range tps {
		if tp.Constraint == nil {
			continue
		}
		t := s[tp.Name]
		if !tp.Constraint.Satisfied(t) {
			return fmt.Errorf("%w: %s does not satisfy %s (%s)", ErrGenericInference, t, tp.Name, tp.Constraint)
		}
	}
	return nil
}

// Instantiator yields the concrete function for a generic callable. sig is the instantiated
// signature (receiver first for instance members, trailing error included when declared);
// targs follows the order of the descriptor's type parameters.
type Instantiator func(sig reflect.Type, targs []reflect.Type) (reflect.Value, error)

// Instances returns an Instantiator choosing among explicit instantiations of a generic
// function, e.g. Instances(Max[int], Max[float64]).
func Instances(fns ...any) Instantiator {
	bySig := make(map[reflect.Type]reflect.Value, len(fns))
	for _, fn := range fns {
		v := reflect.ValueOf(fn)
		if v.Kind() != reflect.Func {
			continue
		}
		bySig[v.Type()] = v
	}
	return func(sig reflect.Type, _ []reflect.Type) (reflect.Value, error) {
		if v, ok := bySig[sig]; ok {
			return v, nil
		}
		return reflect.Value{}, fmt.Errorf("%w: no instantiation with signature %s", ErrGenericInference, sig)
	}
}
