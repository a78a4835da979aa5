package converters

import (
	"reflect"

	"github.com/Station-Manager/errors"
	"github.com/Station-Manager/funcadapt"
	"github.com/aarondl/null/v8"
	"github.com/aarondl/sqlboiler/v4/types"
	"github.com/goccy/go-json"
)

var (
	nullJSONType = reflect.TypeOf(null.JSON{})
	boilerJSON   = reflect.TypeOf(types.JSON(nil))
	rawJSONType  = reflect.TypeOf(json.RawMessage(nil))
)

// JSON returns a provider for a JSON document type: null.JSON, types.JSON, json.RawMessage
// or any other byte slice type. Documents decode into whatever the destination is and any
// value encodes into a document.
func JSON(doc reflect.Type) funcadapt.Provider {
	return jsonProvider{doc: doc}
}

type jsonProvider struct {
	doc reflect.Type
}

func (p jsonProvider) ConverterTo(dst reflect.Type) funcadapt.ConverterFunc {
	return func(src any) (any, error) {
		const op errors.Op = "converters.JSON.Decode"
		b, ok := jsonBytes(src)
		if !ok {
			return nil, nil
		}
		out := reflect.New(dst)
		if err := json.Unmarshal(b, out.Interface()); err != nil {
			return nil, errors.New(op).Err(err)
		}
		return out.Elem().Interface(), nil
	}
}

func (p jsonProvider) ConverterFrom(src reflect.Type) funcadapt.ConverterFunc {
	if p.doc != nullJSONType && !isBytes(p.doc) {
		return nil
	}
	return func(src any) (any, error) {
		const op errors.Op = "converters.JSON.Encode"
		b, err := json.Marshal(src)
		if err != nil {
			return nil, errors.New(op).Err(err)
		}
		if p.doc == nullJSONType {
			return null.JSONFrom(b), nil
		}
		return reflect.ValueOf(b).Convert(p.doc).Interface(), nil
	}
}

// jsonBytes reports the document held by src; false means a null document.
func jsonBytes(src any) ([]byte, bool) {
	switch v := src.(type) {
	case nil:
		return nil, false
	case null.JSON:
		return v.JSON, v.Valid
	case types.JSON:
		return []byte(v), v != nil
	case json.RawMessage:
		return []byte(v), v != nil
	}
	rv := reflect.ValueOf(src)
	if isBytes(rv.Type()) {
		return rv.Bytes(), !rv.IsNil()
	}
	return nil, false
}

func isBytes(t reflect.Type) bool {
	return t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Uint8
}

// ViaJSON converts any value to dst by encoding it and decoding the result, which maps
// structs with matching json field names onto each other.
func ViaJSON(dst reflect.Type) funcadapt.ConverterFunc {
	return funcadapt.ComposeConverters(encodeJSON, decodeJSON(dst))
}

func encodeJSON(src any) (any, error) {
	const op errors.Op = "converters.ViaJSON.Encode"
	if src == nil {
		return nil, nil
	}
	b, err := json.Marshal(src)
	if err != nil {
		return nil, errors.New(op).Err(err)
	}
	return b, nil
}

func decodeJSON(dst reflect.Type) funcadapt.ConverterFunc {
	return func(src any) (any, error) {
		const op errors.Op = "converters.ViaJSON.Decode"
		out := reflect.New(dst)
		if err := json.Unmarshal(src.([]byte), out.Interface()); err != nil {
			return nil, errors.New(op).Err(err)
		}
		return out.Elem().Interface(), nil
	}
}
