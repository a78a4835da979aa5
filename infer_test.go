package funcadapt

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnify(t *testing.T) {
	tests := []struct {
		name    string
		decl    TypeExpr
		actual  reflect.Type
		want    Subst
		wantErr bool
	}{
		{"param", Param("T"), TypeOf[int](), Subst{"T": TypeOf[int]()}, false},
		{"slice", SliceOf(Param("T")), TypeOf[[]string](), Subst{"T": TypeOf[string]()}, false},
		{"pointer", PointerTo(Param("T")), TypeOf[*label](), Subst{"T": TypeOf[label]()}, false},
		{"map", MapOf(Param("K"), SliceOf(Param("V"))), TypeOf[map[string][]int](), Subst{"K": TypeOf[string](), "V": TypeOf[int]()}, false},
		{"array", ArrayOf(2, Param("T")), TypeOf[[2]byte](), Subst{"T": TypeOf[byte]()}, false},
		{"chan", ChanOf(reflect.BothDir, Param("T")), TypeOf[chan int](), Subst{"T": TypeOf[int]()}, false},
		{"concrete", Concrete(TypeOf[int]()), TypeOf[string](), Subst{}, false},
		{"slice of map", SliceOf(Param("T")), TypeOf[map[int]int](), nil, true},
		{"array length", ArrayOf(3, Param("T")), TypeOf[[2]byte](), nil, true},
		{"pointer of value", PointerTo(Param("T")), TypeOf[int](), nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := infer([]inferPair{{declared: tt.decl, actual: tt.actual}}, nil)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrGenericInference)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, s)
		})
	}
}

func TestUnifyConflict(t *testing.T) {
	_, err := infer([]inferPair{
		{declared: Param("T"), actual: TypeOf[int]()},
		{declared: SliceOf(Param("T")), actual: TypeOf[[]string]()},
	}, nil)
	require.ErrorIs(t, err, ErrGenericInference)
	assert.Contains(t, err.Error(), "inferred as both int and string")
}

func TestInferFromReturn(t *testing.T) {
	s := Subst{"K": TypeOf[string]()}
	inferFromReturn(MapOf(Param("K"), Param("V")), TypeOf[map[string]bool](), s)
	assert.Equal(t, Subst{"K": TypeOf[string](), "V": TypeOf[bool]()}, s)

	// Argument inference wins over a conflicting return type.
	s = Subst{"K": TypeOf[string]()}
	inferFromReturn(MapOf(Param("K"), Param("V")), TypeOf[map[int]bool](), s)
	assert.Equal(t, Subst{"K": TypeOf[string]()}, s)

	tps := []TypeParam{{Name: "K"}, {Name: "V"}}
	assert.ErrorIs(t, complete(tps, s), ErrGenericInference)
}

func TestConstraints(t *testing.T) {
	stringerT := TypeOf[fmt.Stringer]()
	tests := []struct {
		c    Constraint
		t    reflect.Type
		want bool
	}{
		{Any, TypeOf[func()](), true},
		{Comparable, TypeOf[[]int](), false},
		{Comparable, TypeOf[label](), true},
		{Numeric, TypeOf[meters](), true},
		{Numeric, TypeOf[string](), false},
		{OneOfKinds(reflect.String), TypeOf[label](), true},
		{Implements(stringerT), TypeOf[label](), true},
		{Implements(stringerT), TypeOf[string](), false},
		{AllOf(Comparable, Implements(stringerT)), TypeOf[label](), true},
		{AllOf(Comparable, Implements(stringerT)), TypeOf[callsign](), true},
		{NewConstraint("short", func(t reflect.Type) bool { return t.Size() <= 2 }), TypeOf[int16](), true},
	}
	for _, tt := range tests {
		t.Run(tt.c.String()+"/"+tt.t.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.c.Satisfied(tt.t))
		})
	}
	assert.Equal(t, "~int | ~string", OneOfKinds(reflect.Int, reflect.String).String())

	tps := []TypeParam{{Name: "T", Constraint: Numeric}}
	assert.NoError(t, checkConstraints(tps, Subst{"T": TypeOf[float32]()}))
	err := checkConstraints(tps, Subst{"T": TypeOf[string]()})
	assert.ErrorIs(t, err, ErrGenericInference)
}

func keysOf[K comparable, V any](m map[K]V) []K {
	out := make([]K, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func deref[T any](p *T) T { return *p }

func TestGenericCompositeParams(t *testing.T) {
	e := New()
	keys, err := NewGeneric("keysOf",
		[]TypeParam{{Name: "K", Constraint: Comparable}, {Name: "V"}},
		[]ParameterDescriptor{{Name: "m", Type: MapOf(Param("K"), Param("V"))}},
		SliceOf(Param("K")), false,
		Instances(keysOf[string, int], keysOf[int, bool]),
	)
	require.NoError(t, err)

	a, err := e.Bind(keys, MustShape(TypeOf[[]string](), TypeOf[map[string]int]()))
	require.NoError(t, err)
	out, err := a.Invoke(map[string]int{"G4ABC": 59})
	require.NoError(t, err)
	assert.Equal(t, []string{"G4ABC"}, out)
	assert.Equal(t, Subst{"K": TypeOf[string](), "V": TypeOf[int]()}, a.Mapping().Substitution)

	// Inferred but not instantiated.
	_, err = e.Bind(keys, MustShape(TypeOf[[]string](), TypeOf[map[string]float64]()))
	assert.ErrorIs(t, err, ErrGenericInference)
	_, err = e.Bind(keys, MustShape(TypeOf[[]string](), TypeOf[[]string]()))
	assert.ErrorIs(t, err, ErrGenericInference)

	d, err := NewGeneric("deref",
		[]TypeParam{{Name: "T"}},
		[]ParameterDescriptor{{Name: "p", Type: PointerTo(Param("T"))}},
		Param("T"), false,
		Instances(deref[int], deref[string]),
	)
	require.NoError(t, err)
	a, err = e.Bind(d, MustShape(TypeOf[int64](), TypeOf[*int]()))
	require.NoError(t, err)
	n := 14
	out, err = a.Invoke(&n)
	require.NoError(t, err)
	assert.Equal(t, int64(14), out)
}

func TestNewGenericValidation(t *testing.T) {
	inst := Instances(deref[int])
	params := []ParameterDescriptor{{Name: "p", Type: PointerTo(Param("T"))}}
	tests := []struct {
		name   string
		tps    []TypeParam
		params []ParameterDescriptor
		inst   Instantiator
	}{
		{"no instantiator", []TypeParam{{Name: "T"}}, params, nil},
		{"no type params", nil, params, inst},
		{"duplicate", []TypeParam{{Name: "T"}, {Name: "T"}}, params, inst},
		{"unnamed", []TypeParam{{Name: ""}}, params, inst},
		{"undeclared", []TypeParam{{Name: "U"}}, params, inst},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGeneric("deref", tt.tps, tt.params, Param("T"), false, tt.inst)
			assert.ErrorIs(t, err, ErrInvalidArgument)
		})
	}
}

func TestSubstString(t *testing.T) {
	s := Subst{"V": TypeOf[int](), "K": TypeOf[string]()}
	assert.Equal(t, "[K=string, V=int]", s.String())
	assert.Equal(t, "map[K][]V", MapOf(Param("K"), SliceOf(Param("V"))).String())
	assert.Equal(t, "<-chan *T", ChanOf(reflect.RecvDir, PointerTo(Param("T"))).String())
}
