package converters

import (
	"reflect"

	"github.com/Station-Manager/errors"
	"github.com/Station-Manager/funcadapt"
)

type registration struct {
	t reflect.Type
	p funcadapt.Provider
}

func defaults() []registration {
	return []registration{
		{t: reflect.TypeOf(""), p: Strings{}},
		{t: timeType, p: Dates{}},
		{t: uuidType, p: UUIDs{}},
		{t: nullJSONType, p: JSON(nullJSONType)},
		{t: boilerJSON, p: JSON(boilerJSON)},
		{t: rawJSONType, p: JSON(rawJSONType)},
		{t: yamlType, p: YAMLs{}},
	}
}

// RegisterDefaults registers every provider in this package with e.
func RegisterDefaults(e *funcadapt.Engine) error {
	const op errors.Op = "converters.RegisterDefaults"
	for _, r := range defaults() {
		if err := e.RegisterProvider(r.t, r.p); err != nil {
			return errors.New(op).Err(err)
		}
	}
	return nil
}

// WithDefaults adds every provider in this package to b.
func WithDefaults(b *funcadapt.Builder) *funcadapt.Builder {
	for _, r := range defaults() {
		b.AddProvider(r.t, r.p)
	}
	return b
}
