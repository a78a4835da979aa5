package converters

import (
	stderrors "errors"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/Station-Manager/errors"
	"github.com/Station-Manager/funcadapt"
)

var durationType = reflect.TypeOf(time.Duration(0))

// Strings parses strings into booleans, numbers and durations and formats them back. It is
// registered for the string type.
type Strings struct{}

func (Strings) ConverterTo(dst reflect.Type) funcadapt.ConverterFunc {
	if !parsable(dst) {
		return nil
	}
	return func(src any) (any, error) {
		const op errors.Op = "converters.Strings"
		srcVal, err := CheckString(op, asString(src))
		if err != nil {
			return nil, errors.New(op).Err(err)
		}
		out, err := parseInto(strings.TrimSpace(srcVal), dst)
		if err != nil {
			if stderrors.Is(err, strconv.ErrRange) {
				return nil, errors.New(op).Err(err).Msg(ErrMsgOutOfRange)
			}
			return nil, errors.New(op).Err(err)
		}
		return out.Interface(), nil
	}
}

func (Strings) ConverterFrom(src reflect.Type) funcadapt.ConverterFunc {
	if !parsable(src) {
		return nil
	}
	return func(src any) (any, error) {
		if d, ok := src.(time.Duration); ok {
			return d.String(), nil
		}
		v := reflect.ValueOf(src)
		switch {
		case v.Kind() == reflect.Bool:
			return strconv.FormatBool(v.Bool()), nil
		case v.CanInt():
			return strconv.FormatInt(v.Int(), 10), nil
		case v.CanUint():
			return strconv.FormatUint(v.Uint(), 10), nil
		default:
			return strconv.FormatFloat(v.Float(), 'g', -1, v.Type().Bits()), nil
		}
	}
}

func parsable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func parseInto(s string, dst reflect.Type) (reflect.Value, error) {
	out := reflect.New(dst).Elem()
	if dst == durationType {
		d, err := time.ParseDuration(s)
		if err != nil {
			return out, err
		}
		out.SetInt(int64(d))
		return out, nil
	}
	switch {
	case dst.Kind() == reflect.Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return out, err
		}
		out.SetBool(b)
	case out.CanInt():
		n, err := strconv.ParseInt(s, 10, dst.Bits())
		if err != nil {
			return out, err
		}
		out.SetInt(n)
	case out.CanUint():
		n, err := strconv.ParseUint(s, 10, dst.Bits())
		if err != nil {
			return out, err
		}
		out.SetUint(n)
	default:
		f, err := strconv.ParseFloat(s, dst.Bits())
		if err != nil {
			return out, err
		}
		out.SetFloat(f)
	}
	return out, nil
}
