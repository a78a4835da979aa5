package funcadapt

import (
	"io"
	"log/slog"
)

type Options struct {
	ImplicitOnly bool         // when true, adapters accept implicit conversions only
	Logger       *slog.Logger // debug/warn records; discarded when nil
	Introspector Introspector // member lookup for BindMember; reflection when nil
}

type Option func(*Options)

func WithImplicitOnly(v bool) Option         { return func(o *Options) { o.ImplicitOnly = v } }
func WithLogger(l *slog.Logger) Option       { return func(o *Options) { o.Logger = l } }
func WithIntrospector(i Introspector) Option { return func(o *Options) { o.Introspector = i } }

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))
