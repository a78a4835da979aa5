package funcadapt

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type station struct {
	Call   string `json:"callsign"`
	Power  int
	Secret string `bind:"-"`
	calls  int
}

func (s station) Label(prefix string) string { return prefix + s.Call }

func (s *station) GetWatts() int { return s.Power }

func (s *station) SetWatts(w int) { s.Power = w }

func (s *station) Log(n int) int {
	s.calls += n
	return s.calls
}

var errDivideByZero = errors.New("divide by zero")

func divide(a, b int) (int, error) {
	if b == 0 {
		return 0, errDivideByZero
	}
	return a / b, nil
}

func maxOf[T int | float64 | string](a, b T) T {
	if a > b {
		return a
	}
	return b
}

func newMaxOf(t *testing.T) *CallableDescriptor {
	t.Helper()
	c, err := NewGeneric("maxOf",
		[]TypeParam{{Name: "T", Constraint: OneOfKinds(reflect.Int, reflect.Float64, reflect.String)}},
		[]ParameterDescriptor{{Name: "a", Type: Param("T")}, {Name: "b", Type: Param("T")}},
		Param("T"), false,
		Instances(maxOf[int], maxOf[float64], maxOf[string]),
	)
	require.NoError(t, err)
	return c
}

func TestBindWidensReturn(t *testing.T) {
	e := New()
	answer := MustFunc("answer", func() int8 { return 42 })

	a, err := e.Bind(answer, MustShape(TypeOf[int64]()))
	require.NoError(t, err)
	out, err := a.Invoke()
	require.NoError(t, err)
	assert.Equal(t, int64(42), out)
	assert.Equal(t, ReturnConvert, a.Mapping().ReturnMode)
	assert.True(t, a.Mapping().Return.Implicit)
}

func TestNilReceiverFailsAtCallTime(t *testing.T) {
	e := New()
	getter, err := NewFieldGetter(TypeOf[station](), "Call")
	require.NoError(t, err)

	a, err := e.Bind(getter, MustShape(TypeOf[string](), TypeOf[*station]()))
	require.NoError(t, err)

	out, err := a.Invoke(&station{Call: "M0CMC"})
	require.NoError(t, err)
	assert.Equal(t, "M0CMC", out)

	_, err = a.Invoke((*station)(nil))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBindFailure)
	assert.ErrorIs(t, err, ErrNullReceiver)
	assert.NotErrorIs(t, err, ErrNoConversion)
	var be *BindError
	require.ErrorAs(t, err, &be)
	assert.Contains(t, be.Member, "Call")
}

func TestNilReceiverThroughInterfacePosition(t *testing.T) {
	e := New()
	getter, err := NewFieldGetter(TypeOf[station](), "Call")
	require.NoError(t, err)
	logN, err := NewMethod(TypeOf[*station](), "Log")
	require.NoError(t, err)

	get, err := e.Bind(getter, MustShape(TypeOf[string](), TypeOf[any]()))
	require.NoError(t, err)
	log, err := e.Bind(logN, MustShape(TypeOf[int](), TypeOf[any](), TypeOf[int]()))
	require.NoError(t, err)

	out, err := get.Invoke(&station{Call: "M0CMC"})
	require.NoError(t, err)
	assert.Equal(t, "M0CMC", out)

	for name, call := range map[string]func() (any, error){
		"value owner":   func() (any, error) { return get.Invoke((*station)(nil)) },
		"pointer owner": func() (any, error) { return log.Invoke((*station)(nil), 1) },
		"nil interface": func() (any, error) { return get.Invoke(nil) },
	} {
		t.Run(name, func(t *testing.T) {
			_, err := call()
			assert.ErrorIs(t, err, ErrNullReceiver)
			assert.ErrorIs(t, err, ErrBindFailure)
			assert.NotErrorIs(t, err, ErrNullValue)
		})
	}
}

func TestGenericInferenceMatchesInstantiation(t *testing.T) {
	e := New()
	desc := newMaxOf(t)

	a, err := e.Bind(desc, MustShape(TypeOf[float64](), TypeOf[float64](), TypeOf[float64]()))
	require.NoError(t, err)
	out, err := a.Invoke(1.5, 2.5)
	require.NoError(t, err)
	assert.Equal(t, maxOf[float64](1.5, 2.5), out)
	assert.Equal(t, Subst{"T": TypeOf[float64]()}, a.Mapping().Substitution)

	a, err = e.Bind(desc, MustShape(TypeOf[string](), TypeOf[string](), TypeOf[string]()))
	require.NoError(t, err)
	out, err = a.Invoke("CQ", "DX")
	require.NoError(t, err)
	assert.Equal(t, maxOf[string]("CQ", "DX"), out)

	_, err = e.Bind(desc, MustShape(TypeOf[int](), TypeOf[int](), TypeOf[string]()))
	assert.ErrorIs(t, err, ErrGenericInference)
	assert.ErrorIs(t, err, ErrBindFailure)

	_, err = e.Bind(desc, MustShape(TypeOf[bool](), TypeOf[bool](), TypeOf[bool]()))
	assert.ErrorIs(t, err, ErrGenericInference)

	// int8 is outside the constraint.
	_, err = e.Bind(desc, MustShape(TypeOf[int8](), TypeOf[int8](), TypeOf[int8]()))
	assert.ErrorIs(t, err, ErrGenericInference)
}

func TestGenericBoundLeadingArgument(t *testing.T) {
	e := New()
	desc := newMaxOf(t)
	shape := MustShape(TypeOf[int](), TypeOf[int]())

	a, err := e.BindTo(desc, shape, 5)
	require.NoError(t, err)
	assert.True(t, a.IsBound())
	out, err := a.Invoke(3)
	require.NoError(t, err)
	assert.Equal(t, 5, out)
	out, err = a.Invoke(9)
	require.NoError(t, err)
	assert.Equal(t, 9, out)

	_, err = e.BindTo(desc, shape, "five")
	assert.ErrorIs(t, err, ErrBindFailure)
}

func TestGenericReturnInference(t *testing.T) {
	e := New()
	zero, err := NewGeneric("zero", []TypeParam{{Name: "T"}}, nil, Param("T"), false,
		Instances(func() string { return "" }, func() int { return 0 }))
	require.NoError(t, err)

	a, err := e.Bind(zero, MustShape(TypeOf[int]()))
	require.NoError(t, err)
	out, err := a.Invoke()
	require.NoError(t, err)
	assert.Equal(t, 0, out)

	_, err = e.Bind(zero, MustShape(nil))
	assert.ErrorIs(t, err, ErrGenericInference)
}

func TestBindIsIdempotent(t *testing.T) {
	e := New()
	desc := MustFunc("divide", divide)
	shape := MustShape(TypeOf[int](), TypeOf[int](), TypeOf[int]())

	a1, err := e.Bind(desc, shape)
	require.NoError(t, err)
	a2, err := e.Bind(desc, MustShape(TypeOf[int](), TypeOf[int](), TypeOf[int]()))
	require.NoError(t, err)
	assert.Same(t, a1, a2)

	st := e.Stats()
	assert.Equal(t, uint64(1), st.Adapters.Misses)
	assert.Equal(t, uint64(1), st.Adapters.Hits)

	// A bound adapter is keyed separately.
	b, err := e.BindTo(desc, MustShape(TypeOf[int](), TypeOf[int]()), 10)
	require.NoError(t, err)
	assert.NotSame(t, a1, b)
}

func TestCallableErrorsPropagate(t *testing.T) {
	a, err := New().Bind(MustFunc("divide", divide), MustShape(TypeOf[int](), TypeOf[int](), TypeOf[int]()))
	require.NoError(t, err)

	out, err := a.Invoke(9, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, out)

	_, err = a.Invoke(1, 0)
	assert.Same(t, errDivideByZero, err)
}

func TestOptionalParameters(t *testing.T) {
	e := New()
	greet := MustFunc("greet", func(name, greeting string, times int) string {
		return strings.Repeat(greeting+", "+name+"! ", times)
	}, ParamNames("name", "greeting", "times"), Optional(1, "Hello"), Optional(2, int8(1)))

	a, err := e.Bind(greet, MustShape(TypeOf[string](), TypeOf[string]()))
	require.NoError(t, err)
	out, err := a.Invoke("Bob")
	require.NoError(t, err)
	assert.Equal(t, "Hello, Bob! ", out)

	slots := a.Mapping().Slots
	require.Len(t, slots, 3)
	assert.Equal(t, SlotArgument, slots[0].Kind)
	assert.Equal(t, SlotDefault, slots[1].Kind)
	assert.Equal(t, SlotDefault, slots[2].Kind)

	a, err = e.Bind(greet, MustShape(TypeOf[string](), TypeOf[string](), TypeOf[string](), TypeOf[int32]()))
	require.NoError(t, err)
	out, err = a.Invoke("Ann", "73", int32(2))
	require.NoError(t, err)
	assert.Equal(t, "73, Ann! 73, Ann! ", out)

	_, err = NewFunc("bad", func(a, b int) {}, Optional(0, 1))
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = e.Bind(greet, MustShape(TypeOf[string]()))
	assert.ErrorIs(t, err, ErrArityMismatch)
}

func TestVariadicPacking(t *testing.T) {
	e := New()
	sum := MustFunc("sum", func(base int, xs ...int) int {
		for _, x := range xs {
			base += x
		}
		return base
	})

	a, err := e.Bind(sum, MustShape(TypeOf[int64](), TypeOf[int](), TypeOf[int8](), TypeOf[int16](), TypeOf[int]()))
	require.NoError(t, err)
	out, err := a.Invoke(1, int8(2), int16(3), 4)
	require.NoError(t, err)
	assert.Equal(t, int64(10), out)
	v := a.Mapping().Slots[1]
	assert.Equal(t, SlotVariadic, v.Kind)
	assert.Equal(t, []int{1, 2, 3}, v.Positions)

	a, err = e.Bind(sum, MustShape(TypeOf[int](), TypeOf[int]()))
	require.NoError(t, err)
	out, err = a.Invoke(5)
	require.NoError(t, err)
	assert.Equal(t, 5, out)

	a, err = e.Bind(sum, MustShape(TypeOf[int](), TypeOf[int](), TypeOf[[]int]()))
	require.NoError(t, err)
	assert.Equal(t, SlotSpread, a.Mapping().Slots[1].Kind)
	out, err = a.Invoke(1, []int{2, 3})
	require.NoError(t, err)
	assert.Equal(t, 6, out)
}

func TestReturnModes(t *testing.T) {
	e := New()
	var hits int
	touch := MustFunc("touch", func() { hits++ })
	count := MustFunc("count", func() int { hits++; return hits })

	a, err := e.Bind(touch, MustShape(TypeOf[int]()))
	require.NoError(t, err)
	out, err := a.Invoke()
	require.NoError(t, err)
	assert.Equal(t, 0, out)
	assert.Equal(t, ReturnZero, a.Mapping().ReturnMode)

	a, err = e.Bind(count, MustShape(nil))
	require.NoError(t, err)
	out, err = a.Invoke()
	require.NoError(t, err)
	assert.Nil(t, out)
	assert.Equal(t, ReturnDiscard, a.Mapping().ReturnMode)
	assert.Equal(t, 2, hits)

	a, err = e.Bind(touch, MustShape(nil))
	require.NoError(t, err)
	assert.Equal(t, ReturnNone, a.Mapping().ReturnMode)
}

func TestConversionFailureSkipsCall(t *testing.T) {
	var called bool
	narrow := MustFunc("narrow", func(b int8) { called = true })

	a, err := New().Bind(narrow, MustShape(nil, TypeOf[float64]()))
	require.NoError(t, err)
	_, err = a.Invoke(1000.0)
	assert.ErrorIs(t, err, ErrOverflow)
	assert.False(t, called)

	_, err = NewWithOptions(WithImplicitOnly(true)).Bind(narrow, MustShape(nil, TypeOf[float64]()))
	assert.ErrorIs(t, err, ErrBindFailure)
	assert.ErrorIs(t, err, ErrNoConversion)
}

func TestInstanceMembers(t *testing.T) {
	e := New()
	logm, err := NewMethod(TypeOf[station](), "Log")
	require.NoError(t, err)
	assert.Equal(t, TypeOf[*station](), logm.Owner)

	a, err := e.Bind(logm, MustShape(TypeOf[int64](), TypeOf[*station](), TypeOf[int32]()))
	require.NoError(t, err)
	s := &station{}
	_, err = a.Invoke(s, int32(2))
	require.NoError(t, err)
	out, err := a.Invoke(s, int32(3))
	require.NoError(t, err)
	assert.Equal(t, int64(5), out)

	b, err := e.BindTo(logm, MustShape(TypeOf[int](), TypeOf[int]()), s)
	require.NoError(t, err)
	out, err = b.Invoke(1)
	require.NoError(t, err)
	assert.Equal(t, 6, out)

	_, err = e.BindTo(logm, MustShape(TypeOf[int](), TypeOf[int]()), (*station)(nil))
	assert.ErrorIs(t, err, ErrNullReceiver)
	assert.ErrorIs(t, err, ErrBindFailure)

	// A value method accepts a pointer receiver position.
	lbl, err := NewMethod(TypeOf[station](), "Label")
	require.NoError(t, err)
	a, err = e.Bind(lbl, MustShape(TypeOf[string](), TypeOf[*station](), TypeOf[string]()))
	require.NoError(t, err)
	out, err = a.Invoke(&station{Call: "G4ABC"}, "de ")
	require.NoError(t, err)
	assert.Equal(t, "de G4ABC", out)

	_, err = e.Bind(lbl, MustShape(TypeOf[string]()))
	assert.ErrorIs(t, err, ErrArityMismatch)
}

func TestAsMethod(t *testing.T) {
	e := New()
	describe := MustFunc("describe", func(s station, verbose bool) string {
		if verbose {
			return fmt.Sprintf("%s at %dW", s.Call, s.Power)
		}
		return s.Call
	}, AsMethod())
	assert.Equal(t, TypeOf[station](), describe.Owner)

	a, err := e.BindTo(describe, MustShape(TypeOf[string](), TypeOf[bool]()), station{Call: "M0CMC", Power: 100})
	require.NoError(t, err)
	out, err := a.Invoke(true)
	require.NoError(t, err)
	assert.Equal(t, "M0CMC at 100W", out)
}

func TestFieldAccessors(t *testing.T) {
	e := New()
	setter, err := NewFieldSetter(TypeOf[station](), "Power")
	require.NoError(t, err)

	a, err := e.Bind(setter, MustShape(nil, TypeOf[*station](), TypeOf[int8]()))
	require.NoError(t, err)
	s := &station{}
	_, err = a.Invoke(s, int8(50))
	require.NoError(t, err)
	assert.Equal(t, 50, s.Power)

	_, err = NewFieldGetter(TypeOf[station](), "Missing")
	assert.ErrorIs(t, err, ErrNoMember)
	_, err = NewFieldGetter(TypeOf[station](), "Secret")
	assert.ErrorIs(t, err, ErrNoMember)
	_, err = NewFieldGetter(TypeOf[int](), "X")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestBindMember(t *testing.T) {
	e := New()
	s := &station{Call: "M0CMC", Power: 5}

	// GetWatts is a property; the field of the same name does not exist.
	a, err := e.BindMember(TypeOf[*station](), "Watts", MustShape(TypeOf[int64](), TypeOf[*station]()))
	require.NoError(t, err)
	assert.Equal(t, KindPropertyGetter, a.Callable().Kind)
	out, err := a.Invoke(s)
	require.NoError(t, err)
	assert.Equal(t, int64(5), out)

	// The getter fails to reconcile with a setter shape, so SetWatts is chosen.
	a, err = e.BindMember(TypeOf[*station](), "Watts", MustShape(nil, TypeOf[*station](), TypeOf[int]()))
	require.NoError(t, err)
	assert.Equal(t, KindPropertySetter, a.Callable().Kind)
	_, err = a.Invoke(s, 25)
	require.NoError(t, err)
	assert.Equal(t, 25, s.Power)

	a, err = e.BindMember(TypeOf[station](), "callsign", MustShape(TypeOf[string](), TypeOf[station]()))
	require.NoError(t, err)
	assert.Equal(t, KindFieldGetter, a.Callable().Kind)
	out, err = a.Invoke(*s)
	require.NoError(t, err)
	assert.Equal(t, "M0CMC", out)

	_, err = e.BindMember(TypeOf[station](), "label", MustShape(TypeOf[string](), TypeOf[station](), TypeOf[string]()))
	assert.ErrorIs(t, err, ErrNoMember)
	a, err = e.BindMember(TypeOf[station](), "label", MustShape(TypeOf[string](), TypeOf[station](), TypeOf[string]()), SearchMethods|SearchIgnoreCase)
	require.NoError(t, err)
	assert.Equal(t, KindMethod, a.Callable().Kind)

	_, err = e.BindMember(TypeOf[station](), "Secret", MustShape(TypeOf[string](), TypeOf[station]()))
	assert.ErrorIs(t, err, ErrNoMember)
	assert.ErrorIs(t, err, ErrBindFailure)

	_, err = e.BindMember(TypeOf[station](), "Power", MustShape(TypeOf[int](), TypeOf[station]()), SearchMethods)
	assert.ErrorIs(t, err, ErrNoMember)

	b, err := e.BindMemberTo(s, "Label", MustShape(TypeOf[string](), TypeOf[string]()))
	require.NoError(t, err)
	out, err = b.Invoke("de ")
	require.NoError(t, err)
	assert.Equal(t, "de M0CMC", out)

	_, err = e.BindMemberTo(nil, "Label", MustShape(TypeOf[string](), TypeOf[string]()))
	assert.ErrorIs(t, err, ErrNullReceiver)
}

func TestTryBind(t *testing.T) {
	e := New()
	desc := MustFunc("divide", divide)

	a, ok := e.TryBind(desc, MustShape(TypeOf[int](), TypeOf[int](), TypeOf[int]()))
	assert.True(t, ok)
	assert.NotNil(t, a)

	a, ok = e.TryBind(desc, MustShape(TypeOf[int](), TypeOf[int]()))
	assert.False(t, ok)
	assert.Nil(t, a)
}

func TestPanickingInstantiatorIsNotCached(t *testing.T) {
	e := New()
	calls := 0
	inst := Instances(maxOf[int])
	desc, err := NewGeneric("maxOf",
		[]TypeParam{{Name: "T", Constraint: Any}},
		[]ParameterDescriptor{{Name: "a", Type: Param("T")}, {Name: "b", Type: Param("T")}},
		Param("T"), false,
		func(sig reflect.Type, targs []reflect.Type) (reflect.Value, error) {
			calls++
			if calls == 1 {
				panic("instantiator unavailable")
			}
			return inst(sig, targs)
		},
	)
	require.NoError(t, err)
	shape := MustShape(TypeOf[int](), TypeOf[int](), TypeOf[int]())

	assert.PanicsWithValue(t, "instantiator unavailable", func() { _, _ = e.Bind(desc, shape) })

	a, err := e.Bind(desc, shape)
	require.NoError(t, err)
	require.NotNil(t, a)
	out, err := a.Invoke(3, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, out)

	a, ok := e.TryBind(desc, shape)
	assert.True(t, ok)
	assert.NotNil(t, a)
	assert.Equal(t, 2, calls)
}

func TestTypedFuncs(t *testing.T) {
	e := New()
	desc := MustFunc("divide", divide)
	a, err := e.Bind(desc, MustShape(TypeOf[int64](), TypeOf[int32](), TypeOf[int32]()))
	require.NoError(t, err)

	var f func(int32, int32) int64
	require.NoError(t, a.Func(&f))
	assert.Equal(t, int64(4), f(8, 2))
	assert.PanicsWithError(t, errDivideByZero.Error(), func() { f(1, 0) })

	g, err := Typed[func(int32, int32) (int64, error)](a)
	require.NoError(t, err)
	_, err = g(1, 0)
	assert.ErrorIs(t, err, errDivideByZero)

	var wrong func(string) int64
	assert.ErrorIs(t, a.Func(&wrong), ErrInvalidArgument)
	assert.ErrorIs(t, a.Func(f), ErrInvalidArgument)

	h, err := BindFunc[func(int, int) (int, error)](e, desc)
	require.NoError(t, err)
	n, err := h(7, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	half, err := BindFuncTo[func(int) (int, error)](e, desc, 10)
	require.NoError(t, err)
	n, err = half(5)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	s, err := ShapeOf[func(string, int) bool]()
	require.NoError(t, err)
	assert.Equal(t, "func(string, int) bool", s.String())

	out, err := ConvertTo[int64](e, int8(3))
	require.NoError(t, err)
	assert.Equal(t, int64(3), out)
}

func TestInvokeValidation(t *testing.T) {
	a, err := New().Bind(MustFunc("divide", divide), MustShape(TypeOf[int](), TypeOf[int](), TypeOf[int]()))
	require.NoError(t, err)

	_, err = a.Invoke(1)
	assert.ErrorIs(t, err, ErrArityMismatch)
	_, err = a.Invoke(nil, 1)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = a.Invoke("1", 1)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, _, err = ShapeFor(reflect.TypeOf(func(...int) {}))
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, _, err = ShapeFor(reflect.TypeOf(func() (int, int) { return 0, 0 }))
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = NewShape(nil, TypeOf[int](), nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = New().Bind(nil, MustShape(nil))
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = New().Bind(MustFunc("divide", divide), Shape{})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
