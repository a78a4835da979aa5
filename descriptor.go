package funcadapt

import (
	"fmt"
	"reflect"
	"strings"
)

// MemberKind identifies what a CallableDescriptor invokes.
type MemberKind int

const (
	KindFunc MemberKind = iota
	KindMethod
	KindPropertyGetter
	KindPropertySetter
	KindFieldGetter
	KindFieldSetter
)

var memberKindNames = [...]string{"func", "method", "property getter", "property setter", "field getter", "field setter"}

func (k MemberKind) String() string {
	if int(k) < len(memberKindNames) {
		return memberKindNames[k]
	}
	return fmt.Sprintf("MemberKind(%d)", int(k))
}

// ParameterDescriptor describes one declared parameter.
type ParameterDescriptor struct {
	Name     string
	Type     TypeExpr
	Optional bool
	Default  any // used when Optional; nil means the zero value
	Variadic bool
}

// CallableDescriptor is an immutable description of a function, method or accessor.
// Descriptors are compared by identity: reuse the same *CallableDescriptor to hit the
// adapter cache.
type CallableDescriptor struct {
	Name         string
	Kind         MemberKind
	Owner        reflect.Type // declaring type; nil for static callables
	Params       []ParameterDescriptor
	Return       TypeExpr // nil when nothing besides an optional error is returned
	ReturnsError bool
	TypeParams   []TypeParam

	fn          reflect.Value
	recvFirst   bool // fn takes the receiver as its first argument
	method      int
	field       []int
	instantiate Instantiator
}

// IsStatic reports whether the callable has no receiver.
func (c *CallableDescriptor) IsStatic() bool { return c.Owner == nil }

// IsGeneric reports whether the callable declares type parameters.
func (c *CallableDescriptor) IsGeneric() bool { return len(c.TypeParams) > 0 }

// IsVariadic reports whether the last parameter is variadic.
func (c *CallableDescriptor) IsVariadic() bool {
	return len(c.Params) > 0 && c.Params[len(c.Params)-1].Variadic
}

func (c *CallableDescriptor) String() string {
	var b strings.Builder
	if c.Owner != nil {
		b.WriteString("(" + c.Owner.String() + ").")
	}
	b.WriteString(c.Name)
	if len(c.TypeParams) > 0 {
		names := make([]string, len(c.TypeParams))
		for i, tp := range c.TypeParams {
			names[i] = tp.Name
		}
		b.WriteString("[" + strings.Join(names, ", ") + "]")
	}
	parts := make([]string, len(c.Params))
	for i, p := range c.Params {
		s := p.Type.String()
		if p.Variadic {
			s = "..." + strings.TrimPrefix(s, "[]")
		}
		if p.Optional {
			s += "?"
		}
		parts[i] = s
	}
	b.WriteString("(" + strings.Join(parts, ", ") + ")")
	switch {
	case c.Return != nil && c.ReturnsError:
		b.WriteString(" (" + c.Return.String() + ", error)")
	case c.Return != nil:
		b.WriteString(" " + c.Return.String())
	case c.ReturnsError:
		b.WriteString(" error")
	}
	return b.String()
}

// DescriptorOption adjusts a descriptor built by NewFunc or NewGeneric.
type DescriptorOption func(*CallableDescriptor) error

// Optional marks parameter i as optional with the given default.
func Optional(i int, def any) DescriptorOption {
	return func(c *CallableDescriptor) error {
		if i < 0 || i >= len(c.Params) {
			return fmt.Errorf("%w: optional parameter %d out of range", ErrInvalidArgument, i)
		}
		if c.Params[i].Variadic {
			return fmt.Errorf("%w: variadic parameter %d cannot be optional", ErrInvalidArgument, i)
		}
		c.Params[i].Optional = true
		c.Params[i].Default = def
		return nil
	}
}

// ParamNames names the parameters in order.
func ParamNames(names ...string) DescriptorOption {
	return func(c *CallableDescriptor) error {
		for i := 0; i < len(names) && i < len(c.Params); i++ {
			c.Params[i].Name = names[i]
		}
		return nil
	}
}

// AsMethod turns a function whose first parameter is the receiver into an instance member
// of that parameter's type.
func AsMethod() DescriptorOption {
	return func(c *CallableDescriptor) error {
		if c.Owner != nil || len(c.Params) == 0 || c.Params[0].Variadic {
			return fmt.Errorf("%w: %s has no receiver parameter", ErrInvalidArgument, c.Name)
		}
		owner := concreteType(c.Params[0].Type)
		if owner == nil {
			return fmt.Errorf("%w: receiver of %s must not be generic", ErrInvalidArgument, c.Name)
		}
		c.Owner = owner
		c.Kind = KindMethod
		c.recvFirst = true
		c.Params = c.Params[1:]
		return nil
	}
}

// NewFunc describes a plain function value.
func NewFunc(name string, fn any, opts ...DescriptorOption) (*CallableDescriptor, error) {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return nil, fmt.Errorf("%w: %s is not a function", ErrInvalidArgument, name)
	}
	c := &CallableDescriptor{Name: name, Kind: KindFunc, fn: v, method: -1}
	if err := c.setSignature(v.Type(), 0); err != nil {
		return nil, err
	}
	return c.apply(opts)
}

// MustFunc is NewFunc that panics on error.
func MustFunc(name string, fn any, opts ...DescriptorOption) *CallableDescriptor {
	c, err := NewFunc(name, fn, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// NewGeneric describes a generic function. params and ret may reference tps through Param;
// inst produces the concrete function once type arguments are inferred.
func NewGeneric(name string, tps []TypeParam, params []ParameterDescriptor, ret TypeExpr, returnsError bool, inst Instantiator, opts ...DescriptorOption) (*CallableDescriptor, error) {
	if inst == nil {
		return nil, fmt.Errorf("%w: generic %s has no instantiator", ErrInvalidArgument, name)
	}
	if len(tps) == 0 {
		return nil, fmt.Errorf("%w: generic %s declares no type parameters", ErrInvalidArgument, name)
	}
	seen := make(map[string]bool, len(tps))
	for _, tp := range tps {
		if tp.Name == "" || seen[tp.Name] {
			return nil, fmt.Errorf("%w: bad type parameter %q on %s", ErrInvalidArgument, tp.Name, name)
		}
		seen[tp.Name] = true
	}
	c := &CallableDescriptor{
		Name:         name,
		Kind:         KindFunc,
		Params:       append([]ParameterDescriptor(nil), params...),
		Return:       ret,
		ReturnsError: returnsError,
		TypeParams:   append([]TypeParam(nil), tps...),
		method:       -1,
		instantiate:  inst,
	}
	for _, p := range c.Params {
		for _, n := range paramNames(p.Type) {
			if !seen[n] {
				return nil, fmt.Errorf("%w: %s references undeclared type parameter %s", ErrInvalidArgument, name, n)
			}
		}
	}
	return c.apply(opts)
}

// NewMethod describes the method name of owner. When owner is a value type and the method
// has a pointer receiver, the descriptor's Owner is *owner.
func NewMethod(owner reflect.Type, name string) (*CallableDescriptor, error) {
	if owner == nil {
		return nil, fmt.Errorf("%w: nil owner", ErrInvalidArgument)
	}
	m, declaring, ok := findMethod(owner, name)
	if !ok {
		return nil, fmt.Errorf("%w: %s has no method %s", ErrNoMember, owner, name)
	}
	return newMethodDescriptor(declaring, m, KindMethod)
}

// NewFieldGetter describes reading the exported field name of a struct (or pointer to
// struct) type.
func NewFieldGetter(owner reflect.Type, name string) (*CallableDescriptor, error) {
	fi, st, err := lookupField(owner, name)
	if err != nil {
		return nil, err
	}
	return newFieldDescriptor(st, fi, KindFieldGetter), nil
}

// NewFieldSetter describes writing the exported field name. The receiver is always a
// pointer to the struct.
func NewFieldSetter(owner reflect.Type, name string) (*CallableDescriptor, error) {
	fi, st, err := lookupField(owner, name)
	if err != nil {
		return nil, err
	}
	return newFieldDescriptor(st, fi, KindFieldSetter), nil
}

func lookupField(owner reflect.Type, name string) (*fieldInfo, reflect.Type, error) {
	if owner == nil {
		return nil, nil, fmt.Errorf("%w: nil owner", ErrInvalidArgument)
	}
	st := owner
	if st.Kind() == reflect.Pointer {
		st = st.Elem()
	}
	if st.Kind() != reflect.Struct {
		return nil, nil, fmt.Errorf("%w: %s is not a struct", ErrInvalidArgument, owner)
	}
	meta := defaultMetadata.get(st)
	fi := meta.field(name, false)
	if fi == nil {
		return nil, nil, fmt.Errorf("%w: %s has no field %s", ErrNoMember, st, name)
	}
	return fi, st, nil
}

func newFieldDescriptor(st reflect.Type, fi *fieldInfo, kind MemberKind) *CallableDescriptor {
	c := &CallableDescriptor{Name: fi.name, Kind: kind, method: -1, field: fi.index}
	if kind == KindFieldGetter {
		c.Owner = st
		c.Return = Concrete(fi.typ)
		return c
	}
	c.Owner = reflect.PointerTo(st)
	c.Params = []ParameterDescriptor{{Name: "value", Type: Concrete(fi.typ)}}
	return c
}

// findMethod looks name up in owner's method set, then in *owner's.
func findMethod(owner reflect.Type, name string) (reflect.Method, reflect.Type, bool) {
	if m, ok := owner.MethodByName(name); ok {
		return m, owner, true
	}
	if owner.Kind() != reflect.Pointer && owner.Kind() != reflect.Interface {
		pt := reflect.PointerTo(owner)
		if m, ok := pt.MethodByName(name); ok {
			return m, pt, true
		}
	}
	return reflect.Method{}, nil, false
}

func newMethodDescriptor(owner reflect.Type, m reflect.Method, kind MemberKind) (*CallableDescriptor, error) {
	if !m.IsExported() {
		return nil, fmt.Errorf("%w: method %s is not exported", ErrInvalidArgument, m.Name)
	}
	c := &CallableDescriptor{Name: m.Name, Kind: kind, Owner: owner, method: m.Index}
	skip := 1
	if owner.Kind() == reflect.Interface {
		skip = 0
	}
	if err := c.setSignature(m.Type, skip); err != nil {
		return nil, err
	}
	return c, nil
}

// setSignature fills params and results from a func type, skipping the first skip inputs.
func (c *CallableDescriptor) setSignature(ft reflect.Type, skip int) error {
	n := ft.NumIn()
	c.Params = make([]ParameterDescriptor, 0, n-skip)
	for i := skip; i < n; i++ {
		c.Params = append(c.Params, ParameterDescriptor{
			Name:     fmt.Sprintf("p%d", i-skip),
			Type:     Concrete(ft.In(i)),
			Variadic: ft.IsVariadic() && i == n-1,
		})
	}
	outs := ft.NumOut()
	if outs > 0 && ft.Out(outs-1) == errorType {
		c.ReturnsError = true
		outs--
	}
	switch outs {
	case 0:
	case 1:
		c.Return = Concrete(ft.Out(0))
	default:
		return fmt.Errorf("%w: %s returns %d values", ErrInvalidArgument, c.Name, ft.NumOut())
	}
	return nil
}

func (c *CallableDescriptor) apply(opts []DescriptorOption) (*CallableDescriptor, error) {
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *CallableDescriptor) validate() error {
	optional := false
	for i, p := range c.Params {
		if p.Type == nil {
			return fmt.Errorf("%w: parameter %d of %s has no type", ErrInvalidArgument, i, c.Name)
		}
		if p.Variadic {
			if i != len(c.Params)-1 {
				return fmt.Errorf("%w: only the last parameter of %s may be variadic", ErrInvalidArgument, c.Name)
			}
			if t := concreteType(p.Type); t != nil && t.Kind() != reflect.Slice {
				return fmt.Errorf("%w: variadic parameter of %s must be a slice", ErrInvalidArgument, c.Name)
			}
			if _, ok := p.Type.(sliceExpr); !ok && concreteType(p.Type) == nil {
				return fmt.Errorf("%w: variadic parameter of %s must be a slice", ErrInvalidArgument, c.Name)
			}
			continue
		}
		if p.Optional {
			optional = true
		} else if optional {
			return fmt.Errorf("%w: required parameter %d of %s follows an optional one", ErrInvalidArgument, i, c.Name)
		}
	}
	return nil
}

// signature returns the concrete func type of the underlying call for subst s.
func (c *CallableDescriptor) signature(s Subst) (reflect.Type, []reflect.Type, reflect.Type, error) {
	params := make([]reflect.Type, len(c.Params))
	for i, p := range c.Params {
		t, err := p.Type.resolve(s)
		if err != nil {
			return nil, nil, nil, err
		}
		params[i] = t
	}
	var ret reflect.Type
	if c.Return != nil {
		t, err := c.Return.resolve(s)
		if err != nil {
			return nil, nil, nil, err
		}
		ret = t
	}
	in := params
	if c.recvFirst {
		in = append([]reflect.Type{c.Owner}, params...)
	}
	var outs []reflect.Type
	if ret != nil {
		outs = append(outs, ret)
	}
	if c.ReturnsError {
		outs = append(outs, errorType)
	}
	return reflect.FuncOf(in, outs, c.IsVariadic()), params, ret, nil
}

func paramNames(e TypeExpr) []string {
	if e == nil {
		return nil
	}
	return e.params(nil)
}
