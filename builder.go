package funcadapt

import "reflect"

type providerReg struct {
	t reflect.Type
	p Provider
}

// Builder provides a fluent API to construct an Engine with options, converters and providers
// pre-registered.
type Builder struct {
	opts      []Option
	pairs     map[typePair]ConverterFunc
	providers []providerReg
}

// NewBuilder creates a new builder.
func NewBuilder() *Builder {
	return &Builder{pairs: make(map[typePair]ConverterFunc)}
}

// WithOptions appends engine options to the builder.
func (b *Builder) WithOptions(opts ...Option) *Builder { b.opts = append(b.opts, opts...); return b }

// AddConverter registers a converter for a (src,dst) pair. Nil arguments are ignored.
func (b *Builder) AddConverter(src, dst reflect.Type, fn ConverterFunc) *Builder {
	if src == nil || dst == nil || fn == nil {
		return b
	}
	b.pairs[typePair{src: src, dst: dst}] = fn
	return b
}

// AddProvider registers a provider for t. Later providers are asked first.
func (b *Builder) AddProvider(t reflect.Type, p Provider) *Builder {
	if t == nil || p == nil {
		return b
	}
	b.providers = append(b.providers, providerReg{t: t, p: p})
	return b
}

// Build constructs an Engine using a single registry swap.
func (b *Builder) Build() *Engine {
	e := NewWithOptions(b.opts...)
	if len(b.pairs) == 0 && len(b.providers) == 0 {
		return e
	}
	// Seed the registry in one shot to avoid many copy-on-write swaps.
	e.swap(func(r *converterRegistry) {
		for k, v := range b.pairs {
			r.byPair[k] = v
		}
		for _, pr := range b.providers {
			r.providers[pr.t] = append(r.providers[pr.t], pr.p)
		}
	})
	return e
}
