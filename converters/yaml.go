package converters

import (
	"reflect"

	"github.com/Station-Manager/errors"
	"github.com/Station-Manager/funcadapt"
	"gopkg.in/yaml.v3"
)

// YAML is a YAML document. Registering YAMLs for it lets documents decode into any
// destination and any value encode into a document.
type YAML []byte

var yamlType = reflect.TypeOf(YAML(nil))

type YAMLs struct{}

func (YAMLs) ConverterTo(dst reflect.Type) funcadapt.ConverterFunc {
	return func(src any) (any, error) {
		const op errors.Op = "converters.YAMLs.Decode"
		doc, _ := src.(YAML)
		if doc == nil {
			return nil, nil
		}
		out := reflect.New(dst)
		if err := yaml.Unmarshal(doc, out.Interface()); err != nil {
			return nil, errors.New(op).Err(err)
		}
		return out.Elem().Interface(), nil
	}
}

func (YAMLs) ConverterFrom(reflect.Type) funcadapt.ConverterFunc {
	return func(src any) (any, error) {
		const op errors.Op = "converters.YAMLs.Encode"
		b, err := yaml.Marshal(src)
		if err != nil {
			return nil, errors.New(op).Err(err)
		}
		return YAML(b), nil
	}
}
