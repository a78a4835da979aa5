package funcadapt

import (
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"sync/atomic"
)

// Engine classifies conversions and compiles adapters. An Engine is safe for concurrent use;
// registrations may run concurrently with lookups and binds.
type Engine struct {
	options Options
	log     *slog.Logger
	intro   Introspector

	mu  sync.Mutex // serialises registrations
	gen atomic.Pointer[generation]
}

// generation is one registration state with its own caches. Every registration replaces the
// current generation; adapters compiled from an older one keep working with what they captured.
type generation struct {
	id   uint64
	reg  *converterRegistry
	opts *Options
	log  *slog.Logger

	conversions onceMap[typePair, *Conversion]
	adapters    onceMap[adapterKey, *Adapter]
}

// New creates an Engine with default options.
func New() *Engine { return NewWithOptions() }

// NewWithOptions creates a new Engine with provided options.
func NewWithOptions(opts ...Option) *Engine {
	e := &Engine{}
	for _, f := range opts {
		f(&e.options)
	}
	e.log = e.options.Logger
	if e.log == nil {
		e.log = discardLogger
	}
	e.intro = e.options.Introspector
	if e.intro == nil {
		e.intro = reflectIntrospector
	}
	e.gen.Store(e.newGeneration(0, newConverterRegistry()))
	return e
}

func (e *Engine) newGeneration(id uint64, reg *converterRegistry) *generation {
	return &generation{id: id, reg: reg, opts: &e.options, log: e.log}
}

func (e *Engine) current() *generation { return e.gen.Load() }

// swap applies mutate to a copy of the registry and publishes it with fresh caches.
func (e *Engine) swap(mutate func(*converterRegistry)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	old := e.gen.Load()
	reg := old.reg.clone(1)
	mutate(reg)
	g := e.newGeneration(old.id+1, reg)
	e.gen.Store(g)
	e.log.Debug("converter registry updated", "generation", g.id, "pairs", len(reg.byPair), "providers", len(reg.providers))
}

// Classify returns the canonical conversion from src to dst. Failures match ErrNoConversion
// or ErrAmbiguousConversion.
func (e *Engine) Classify(src, dst reflect.Type) (*Conversion, error) {
	return e.current().classify(src, dst)
}

// CanConvert reports whether any conversion, implicit or explicit, exists from src to dst.
func (e *Engine) CanConvert(src, dst reflect.Type) bool {
	_, err := e.Classify(src, dst)
	return err == nil
}

// Convert converts value to dst. A nil value converts to the zero value of a nilable dst.
func (e *Engine) Convert(value any, dst reflect.Type) (any, error) {
	if dst == nil {
		return nil, fmt.Errorf("%w: nil destination type", ErrInvalidArgument)
	}
	if value == nil {
		if nilable(dst) {
			return reflect.Zero(dst).Interface(), nil
		}
		return nil, &ConversionError{Target: dst, Reason: ErrNullValue}
	}
	rv := reflect.ValueOf(value)
	c, err := e.Classify(rv.Type(), dst)
	if err != nil {
		return nil, err
	}
	out, err := c.Apply(rv)
	if err != nil {
		return nil, err
	}
	return out.Interface(), nil
}

// Stats reports cache counters of the current generation.
func (e *Engine) Stats() Stats {
	g := e.current()
	return Stats{Generation: g.id, Conversions: statsOf(&g.conversions), Adapters: statsOf(&g.adapters)}
}

var (
	defaultOnce   sync.Once
	defaultEngine *Engine
)

// Default returns the process-wide engine used by the package-level functions.
func Default() *Engine {
	defaultOnce.Do(func() { defaultEngine = New() })
	return defaultEngine
}
