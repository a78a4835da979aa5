package funcadapt

import (
	"fmt"
	"reflect"
)

// SlotKind tells how a declared parameter receives its value.
type SlotKind int

const (
	// SlotArgument takes one shape position through a conversion.
	SlotArgument SlotKind = iota
	// SlotDefault uses the parameter's default value.
	SlotDefault
	// SlotVariadic packs the remaining shape positions into the variadic slice, converting
	// each element.
	SlotVariadic
	// SlotSpread passes one shape position as the whole variadic slice.
	SlotSpread
	// SlotBound takes the leading argument fixed at bind time.
	SlotBound
)

var slotKindNames = [...]string{"argument", "default", "variadic", "spread", "bound"}

func (k SlotKind) String() string {
	if int(k) < len(slotKindNames) {
		return slotKindNames[k]
	}
	return fmt.Sprintf("SlotKind(%d)", int(k))
}

// Slot maps one declared parameter.
type Slot struct {
	Kind        SlotKind
	Param       int
	Positions   []int         // shape positions feeding the slot
	Conversions []*Conversion // one per position; element conversions for SlotVariadic
	Default     reflect.Value // converted default for SlotDefault
}

// ReturnMode tells how the callable's result becomes the adapter's result.
type ReturnMode int

const (
	ReturnNone    ReturnMode = iota // neither side returns a value
	ReturnDiscard                   // the shape is void, the callable's value is dropped
	ReturnZero                      // the callable is void, the zero value of the shape's type is returned
	ReturnConvert                   // the callable's value is converted to the shape's type
)

// ArgumentMapping is the total mapping between a shape and a callable's parameters.
type ArgumentMapping struct {
	Callable *CallableDescriptor
	Shape    Shape
	Bound    bool
	// Receiver converts shape position 0 to the declaring type of an unbound instance member.
	Receiver     *Conversion
	Slots        []Slot
	Substitution Subst
	Return       *Conversion
	ReturnMode   ReturnMode

	fn     reflect.Value  // concrete function for funcs and generic instances
	params []reflect.Type // concrete parameter types
	ret    reflect.Type   // concrete result type, nil when none
}

// ParamTypes returns the concrete parameter types after generic substitution.
func (m *ArgumentMapping) ParamTypes() []reflect.Type { return append([]reflect.Type(nil), m.params...) }

// Resolve reconciles callable with shape without compiling. With bound set, the receiver of
// an instance member or the leading argument of a static callable is supplied at bind time;
// boundType is its type and only takes part in generic inference.
func (e *Engine) Resolve(callable *CallableDescriptor, shape Shape, bound bool, boundType reflect.Type) (*ArgumentMapping, error) {
	return e.current().resolve(callable, shape, bound, boundType)
}

func (g *generation) resolve(c *CallableDescriptor, shape Shape, bound bool, boundType reflect.Type) (*ArgumentMapping, error) {
	if c == nil {
		return nil, fmt.Errorf("%w: nil callable", ErrInvalidArgument)
	}
	if !shape.valid() {
		return nil, fmt.Errorf("%w: invalid shape", ErrInvalidArgument)
	}
	m := &ArgumentMapping{Callable: c, Shape: shape, Bound: bound}
	pos := 0
	if !c.IsStatic() && !bound {
		if shape.NumParams() == 0 {
			return nil, fmt.Errorf("%w: %s needs a receiver position", ErrArityMismatch, c.Name)
		}
		pos = 1
	}

	// Structural pass: which shape positions feed which parameter.
	first := 0
	if c.IsStatic() && bound {
		if len(c.Params) == 0 || c.Params[0].Variadic {
			return nil, fmt.Errorf("%w: %s has no leading parameter to bind", ErrArityMismatch, c.Name)
		}
		first = 1
		m.Slots = append(m.Slots, Slot{Kind: SlotBound, Param: 0})
	}
	nFixed := len(c.Params)
	if c.IsVariadic() {
		nFixed--
	}
	avail := shape.NumParams() - pos
	for i := first; i < nFixed; i++ {
		if avail > 0 {
			m.Slots = append(m.Slots, Slot{Kind: SlotArgument, Param: i, Positions: []int{pos}})
			pos++
			avail--
			continue
		}
		if !c.Params[i].Optional {
			return nil, fmt.Errorf("%w: %s needs %s, shape %s supplies too few arguments", ErrArityMismatch, c.Name, c.Params[i].Name, shape)
		}
		m.Slots = append(m.Slots, Slot{Kind: SlotDefault, Param: i})
	}
	if c.IsVariadic() {
		s := Slot{Kind: SlotVariadic, Param: nFixed}
		for ; avail > 0; avail-- {
			s.Positions = append(s.Positions, pos)
			pos++
		}
		m.Slots = append(m.Slots, s)
	} else if avail > 0 {
		return nil, fmt.Errorf("%w: %s takes %d arguments, shape %s supplies %d more", ErrArityMismatch, c.Name, len(c.Params)-first, shape, avail)
	}

	if err := g.instantiate(m, boundType); err != nil {
		return nil, err
	}

	// Typed pass: conversions for every slot, the receiver and the result.
	if !c.IsStatic() && !bound {
		conv, err := g.classify(shape.Param(0), c.Owner)
		if err != nil {
			return nil, fmt.Errorf("receiver: %w", err)
		}
		if err := g.allowReceiver(conv); err != nil {
			return nil, fmt.Errorf("receiver: %w", err)
		}
		m.Receiver = conv
	}
	for i := range m.Slots {
		if err := g.typeSlot(m, &m.Slots[i]); err != nil {
			return nil, err
		}
	}
	if err := g.resolveReturn(m); err != nil {
		return nil, err
	}
	return m, nil
}

// instantiate infers type arguments for a generic callable and records the concrete signature.
func (g *generation) instantiate(m *ArgumentMapping, boundType reflect.Type) error {
	c := m.Callable
	if !c.IsGeneric() {
		_, params, ret, err := c.signature(nil)
		if err != nil {
			return err
		}
		m.fn, m.params, m.ret = c.fn, params, ret
		return nil
	}
	var pairs []inferPair
	for _, s := range m.Slots {
		p := c.Params[s.Param]
		switch s.Kind {
		case SlotBound:
			pairs = append(pairs, inferPair{declared: p.Type, actual: boundType})
		case SlotArgument:
			pairs = append(pairs, inferPair{declared: p.Type, actual: m.Shape.Param(s.Positions[0])})
		case SlotVariadic:
			se, ok := p.Type.(sliceExpr)
			if len(s.Positions) == 1 && m.Shape.Param(s.Positions[0]).Kind() == reflect.Slice {
				pairs = append(pairs, inferPair{declared: p.Type, actual: m.Shape.Param(s.Positions[0])})
				continue
			}
			if !ok {
				continue
			}
			for _, pos := range s.Positions {
				pairs = append(pairs, inferPair{declared: se.elem, actual: m.Shape.Param(pos)})
			}
		}
	}
	subst, err := infer(pairs, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", c.Name, err)
	}
	if c.Return != nil {
		inferFromReturn(c.Return, m.Shape.Return(), subst)
	}
	if err := complete(c.TypeParams, subst); err != nil {
		return fmt.Errorf("%s: %w", c.Name, err)
	}
	if err := checkConstraints(c.TypeParams, subst); err != nil {
		return fmt.Errorf("%s: %w", c.Name, err)
	}
	sig, params, ret, err := c.signature(subst)
	if err != nil {
		return fmt.Errorf("%s: %w", c.Name, err)
	}
	targs := make([]reflect.Type, len(c.TypeParams))
	for i, tp := range c.TypeParams {
		targs[i] = subst[tp.Name]
	}
	fn, err := c.instantiate(sig, targs)
	if err != nil {
		return fmt.Errorf("%s%s: %w", c.Name, subst, err)
	}
	if !fn.IsValid() || fn.Type() != sig {
		return fmt.Errorf("%w: instantiation of %s%s is not %s", ErrGenericInference, c.Name, subst, sig)
	}
	g.log.Debug("generic instantiated", "callable", c.Name, "substitution", subst.String())
	m.Substitution, m.fn, m.params, m.ret = subst, fn, params, ret
	return nil
}

func (g *generation) typeSlot(m *ArgumentMapping, s *Slot) error {
	c := m.Callable
	pt := m.params[s.Param]
	name := c.Params[s.Param].Name
	switch s.Kind {
	case SlotArgument:
		conv, err := g.argument(m.Shape.Param(s.Positions[0]), pt)
		if err != nil {
			return fmt.Errorf("parameter %s: %w", name, err)
		}
		s.Conversions = []*Conversion{conv}
	case SlotDefault:
		def := c.Params[s.Param].Default
		if def == nil {
			s.Default = reflect.Zero(pt)
			return nil
		}
		dv := reflect.ValueOf(def)
		conv, err := g.classify(dv.Type(), pt)
		if err != nil {
			return fmt.Errorf("%w: default of %s: %v", ErrInvalidArgument, name, err)
		}
		v, err := conv.Apply(dv)
		if err != nil {
			return fmt.Errorf("%w: default of %s: %v", ErrInvalidArgument, name, err)
		}
		s.Default = v
	case SlotVariadic:
		if len(s.Positions) == 1 {
			// A single position holding the whole slice is passed through.
			if conv, err := g.classify(m.Shape.Param(s.Positions[0]), pt); err == nil && conv.Implicit {
				s.Kind = SlotSpread
				s.Conversions = []*Conversion{conv}
				return nil
			}
		}
		for _, pos := range s.Positions {
			conv, err := g.argument(m.Shape.Param(pos), pt.Elem())
			if err != nil {
				return fmt.Errorf("variadic %s element %d: %w", name, pos, err)
			}
			s.Conversions = append(s.Conversions, conv)
		}
	}
	return nil
}

func (g *generation) argument(src, dst reflect.Type) (*Conversion, error) {
	conv, err := g.classify(src, dst)
	if err != nil {
		return nil, err
	}
	if err := g.allow(conv); err != nil {
		return nil, err
	}
	return conv, nil
}

// allow enforces WithImplicitOnly.
func (g *generation) allow(c *Conversion) error {
	if g.opts.ImplicitOnly && !c.Implicit {
		return newConversionError(c.Source, c.Target, ErrNoConversion, fmt.Errorf("%s conversion is explicit", c.Kind))
	}
	return nil
}

// allowReceiver also accepts dereferencing a pointer receiver for value methods.
func (g *generation) allowReceiver(c *Conversion) error {
	if c.Kind == Unboxing && c.Source.Kind() == reflect.Pointer {
		return nil
	}
	return g.allow(c)
}

func (g *generation) resolveReturn(m *ArgumentMapping) error {
	want := m.Shape.Return()
	switch {
	case want == nil && m.ret == nil:
		m.ReturnMode = ReturnNone
	case want == nil:
		m.ReturnMode = ReturnDiscard
	case m.ret == nil:
		m.ReturnMode = ReturnZero
	default:
		conv, err := g.argument(m.ret, want)
		if err != nil {
			return fmt.Errorf("result: %w", err)
		}
		m.Return = conv
		m.ReturnMode = ReturnConvert
	}
	return nil
}
