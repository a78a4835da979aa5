package funcadapt

import (
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
)

type switcherConfig struct {
	group    string
	key      int
	receiver any
	hasRecv  bool
}

// SwitcherOption configures BuildSwitcher.
type SwitcherOption func(*switcherConfig)

// WithDispatchGroup names the switcher in dispatch errors.
func WithDispatchGroup(name string) SwitcherOption {
	return func(c *switcherConfig) { c.group = name }
}

// WithKeyPosition fixes the key position instead of detecting it.
func WithKeyPosition(i int) SwitcherOption {
	return func(c *switcherConfig) { c.key = i }
}

// WithReceiver binds instance candidates to receiver; the shape then has no receiver position.
func WithReceiver(receiver any) SwitcherOption {
	return func(c *switcherConfig) { c.receiver, c.hasRecv = receiver, true }
}

type switchEntry struct {
	key     reflect.Type
	adapter *Adapter
}

// dispatchTarget is a memoised dispatch result. A nil *dispatchTarget records a miss.
type dispatchTarget struct {
	entry *switchEntry
	conv  step // key argument to the entry's key type
}

// SwitcherStats counts dispatches answered from the table and those that walked ancestors.
type SwitcherStats struct {
	Hits  uint64
	Walks uint64
}

// Switcher is a multiple-dispatch adapter: it forwards each call to the candidate whose key
// parameter type best matches the runtime type of the key argument.
type Switcher struct {
	shape   Shape
	group   string
	key     int
	entries []*switchEntry
	exact   map[reflect.Type]*switchEntry
	ifaces  []*switchEntry // interface keys other than any, most methods first
	anyKey  *switchEntry

	table sync.Map // map[reflect.Type]*dispatchTarget
	hits  atomic.Uint64
	walks atomic.Uint64

	adapter *Adapter
	log     *slog.Logger
}

// BuildSwitcher builds a switcher over candidates. Each candidate is bound to shape with the
// key position narrowed to its own key type.
func (e *Engine) BuildSwitcher(shape Shape, candidates []*CallableDescriptor, opts ...SwitcherOption) (*Switcher, error) {
	cfg := switcherConfig{key: -1}
	for _, f := range opts {
		f(&cfg)
	}
	s, err := e.current().buildSwitcher(shape, candidates, cfg)
	if err != nil {
		return nil, fmt.Errorf("build switcher %q: %w", cfg.group, err)
	}
	return s, nil
}

// BuildSwitcherFor builds a switcher over the exported methods of owner (or *owner) whose
// names start with group. group also names the switcher in dispatch errors.
func (e *Engine) BuildSwitcherFor(shape Shape, owner reflect.Type, group string, opts ...SwitcherOption) (*Switcher, error) {
	if owner == nil || group == "" {
		return nil, fmt.Errorf("%w: owner and dispatch group are required", ErrInvalidArgument)
	}
	var cands []*CallableDescriptor
	seen := make(map[string]bool)
	hosts := []reflect.Type{owner}
	if owner.Kind() != reflect.Pointer && owner.Kind() != reflect.Interface {
		hosts = append(hosts, reflect.PointerTo(owner))
	}
	for _, host := range hosts {
		for i := 0; i < host.NumMethod(); i++ {
			m := host.Method(i)
			if seen[m.Name] || !strings.HasPrefix(m.Name, group) {
				continue
			}
			seen[m.Name] = true
			c, err := newMethodDescriptor(host, m, KindMethod)
			if err != nil {
				return nil, err
			}
			cands = append(cands, c)
		}
	}
	if len(cands) == 0 {
		return nil, fmt.Errorf("build switcher %q: %w: %s has no methods with that prefix", group, ErrNoMember, owner)
	}
	return e.BuildSwitcher(shape, cands, append([]SwitcherOption{WithDispatchGroup(group)}, opts...)...)
}

func (g *generation) buildSwitcher(shape Shape, cands []*CallableDescriptor, cfg switcherConfig) (*Switcher, error) {
	if !shape.valid() {
		return nil, fmt.Errorf("%w: invalid shape", ErrInvalidArgument)
	}
	if len(cands) == 0 {
		return nil, fmt.Errorf("%w: no candidates", ErrInvalidArgument)
	}

	// Declared types per shape position; nil marks a receiver position.
	decls := make([][]reflect.Type, len(cands))
	for i, c := range cands {
		if c == nil {
			return nil, fmt.Errorf("%w: candidate %d is nil", ErrInvalidArgument, i)
		}
		if c.IsGeneric() {
			return nil, fmt.Errorf("%w: candidate %s is generic", ErrInvalidArgument, c.Name)
		}
		var d []reflect.Type
		if !c.IsStatic() && !cfg.hasRecv {
			d = append(d, nil)
		}
		for _, p := range c.Params {
			d = append(d, concreteType(p.Type))
		}
		decls[i] = d
		if len(d) != len(decls[0]) {
			return nil, fmt.Errorf("%w: %s takes %d arguments, %s takes %d", ErrArityMismatch, cands[0].Name, len(decls[0]), c.Name, len(d))
		}
	}

	key := cfg.key
	if key < 0 {
		key = distinguishingPosition(decls)
		if key < 0 && len(cands) > 1 {
			// Identical declarations: key on the first interface position so the clash is
			// reported as a duplicate key.
			for pos, t := range decls[0] {
				if t != nil && pos < shape.NumParams() && shape.Param(pos).Kind() == reflect.Interface {
					key = pos
					break
				}
			}
		}
		if key < 0 {
			return nil, fmt.Errorf("%w: no parameter position distinguishes the candidates", ErrInvalidArgument)
		}
	}
	if key >= shape.NumParams() || key >= len(decls[0]) {
		return nil, fmt.Errorf("%w: key position %d out of range for %s", ErrInvalidArgument, key, shape)
	}
	if shape.Param(key).Kind() != reflect.Interface {
		return nil, fmt.Errorf("%w: key position %d of %s must have an interface type", ErrInvalidArgument, key, shape)
	}

	s := &Switcher{shape: shape, group: cfg.group, key: key, exact: make(map[reflect.Type]*switchEntry), log: g.log}
	for i, c := range cands {
		kt := decls[i][key]
		if kt == nil {
			return nil, fmt.Errorf("%w: key position %d is the receiver of %s", ErrInvalidArgument, key, c.Name)
		}
		if prev, dup := s.exact[kt]; dup {
			return nil, fmt.Errorf("%w: %s and %s both take %s", ErrDuplicateKey, prev.adapter.name, c.String(), kt)
		}
		params := shape.Params()
		params[key] = kt
		cs, err := NewShape(shape.Return(), params...)
		if err != nil {
			return nil, err
		}
		var a *Adapter
		if cfg.hasRecv && !c.IsStatic() {
			a, err = g.bindTo(c, cs, reflect.ValueOf(cfg.receiver))
		} else {
			a, err = g.bind(c, cs)
		}
		if err != nil {
			return nil, err
		}
		ent := &switchEntry{key: kt, adapter: a}
		s.entries = append(s.entries, ent)
		s.exact[kt] = ent
		switch {
		case kt == anyType:
			s.anyKey = ent
		case kt.Kind() == reflect.Interface:
			s.ifaces = append(s.ifaces, ent)
		}
	}
	sort.SliceStable(s.ifaces, func(i, j int) bool { return s.ifaces[i].key.NumMethod() > s.ifaces[j].key.NumMethod() })
	for _, ent := range s.entries {
		s.table.Store(ent.key, targetFor(ent, ent.key))
	}
	s.adapter = &Adapter{shape: shape, name: "switch " + cfg.group, core: s.dispatch}
	g.log.Debug("switcher built", "group", cfg.group, "candidates", len(s.entries), "key", key)
	return s, nil
}

// distinguishingPosition returns the first position whose declared types are not all equal.
func distinguishingPosition(decls [][]reflect.Type) int {
	for pos := range decls[0] {
		if decls[0][pos] == nil {
			continue
		}
		for _, d := range decls[1:] {
			if d[pos] != decls[0][pos] {
				return pos
			}
		}
	}
	return -1
}

// targetFor converts a key argument of dynamic type t to ent's key type.
func targetFor(ent *switchEntry, t reflect.Type) *dispatchTarget {
	kt := ent.key
	switch {
	case kt.Kind() == reflect.Interface:
		return &dispatchTarget{entry: ent, conv: func(v reflect.Value) (reflect.Value, error) {
			if v.IsNil() {
				return reflect.Zero(kt), nil
			}
			return assignTo(v.Elem(), kt), nil
		}}
	case t == kt:
		return &dispatchTarget{entry: ent, conv: func(v reflect.Value) (reflect.Value, error) { return v.Elem(), nil }}
	}
	up := upcast(t, kt)
	return &dispatchTarget{entry: ent, conv: func(v reflect.Value) (reflect.Value, error) { return up(v.Elem()) }}
}

// resolve finds the entry for the dynamic key type t: an exact key, then the nearest
// ancestor, then interface keys t implements, then any.
func (s *Switcher) resolve(t reflect.Type) *dispatchTarget {
	for _, anc := range Ancestors(t) {
		if anc == anyType {
			break
		}
		if ent, ok := s.exact[anc]; ok {
			return targetFor(ent, t)
		}
	}
	for _, ent := range s.ifaces {
		if t.Implements(ent.key) {
			return targetFor(ent, t)
		}
	}
	if s.anyKey != nil {
		return targetFor(s.anyKey, t)
	}
	return nil
}

func (s *Switcher) lookup(t reflect.Type) *dispatchTarget {
	if v, ok := s.table.Load(t); ok {
		s.hits.Add(1)
		return v.(*dispatchTarget)
	}
	s.walks.Add(1)
	target := s.resolve(t)
	s.log.Debug("dispatch walk", "group", s.group, "type", t.String(), "found", target != nil)
	v, _ := s.table.LoadOrStore(t, target)
	return v.(*dispatchTarget)
}

func (s *Switcher) dispatch(_ reflect.Value, args []reflect.Value) (reflect.Value, error) {
	kv := args[s.key]
	t := anyType
	if !kv.IsNil() {
		t = kv.Elem().Type()
	}
	target := s.lookup(t)
	if target == nil {
		return reflect.Value{}, &DispatchError{Type: t, Group: s.group}
	}
	in := append([]reflect.Value(nil), args...)
	v, err := target.conv(kv)
	if err != nil {
		return reflect.Value{}, err
	}
	in[s.key] = v
	return target.entry.adapter.core(target.entry.adapter.bound, in)
}

// Adapter returns the forwarding adapter.
func (s *Switcher) Adapter() *Adapter { return s.adapter }

// Group returns the dispatch group, if any.
func (s *Switcher) Group() string { return s.group }

// KeyPosition returns the shape position whose runtime type selects the candidate.
func (s *Switcher) KeyPosition() int { return s.key }

// Keys returns the candidate key types in registration order.
func (s *Switcher) Keys() []reflect.Type {
	out := make([]reflect.Type, len(s.entries))
	for i, ent := range s.entries {
		out[i] = ent.key
	}
	return out
}

// Stats reports dispatch counters.
func (s *Switcher) Stats() SwitcherStats {
	return SwitcherStats{Hits: s.hits.Load(), Walks: s.walks.Load()}
}
