package converters

import (
	"reflect"
	"time"

	"github.com/Station-Manager/errors"
	"github.com/Station-Manager/funcadapt"
)

var timeType = reflect.TypeOf(time.Time{})

// ParseDate parses YYYYMMDD or YYYY-MM-DD into a UTC time.Time.
func ParseDate(src any) (any, error) {
	const op errors.Op = "converters.ParseDate"
	srcVal, err := CheckString(op, asString(src))
	if err != nil {
		return time.Time{}, errors.New(op).Err(err)
	}
	layout := dateLayout
	if len(srcVal) == len(dateLayoutDashed) {
		layout = dateLayoutDashed
	}
	retVal, err := time.Parse(layout, srcVal)
	if err != nil {
		return time.Time{}, errors.New(op).Err(err).Msg(ErrMsgBadDateFormat)
	}
	return retVal, nil
}

// ParseTime parses HHMM or HH:MM into a time of day on 0000-01-01 UTC.
func ParseTime(src any) (any, error) {
	const op errors.Op = "converters.ParseTime"
	srcVal, err := CheckString(op, asString(src))
	if err != nil {
		return time.Time{}, errors.New(op).Err(err)
	}
	layout := timeLayout
	if len(srcVal) == len(timeLayoutColoned) {
		layout = timeLayoutColoned
	}
	retVal, err := time.Parse(layout, srcVal)
	if err != nil {
		return time.Time{}, errors.New(op).Err(err).Msg(ErrMsgBadTimeFormat)
	}
	return time.Date(0, time.January, 1, retVal.Hour(), retVal.Minute(), 0, 0, time.UTC), nil
}

// ParseDateOrTime picks ParseTime for four and five character input and ParseDate otherwise.
func ParseDateOrTime(src any) (any, error) {
	if s, ok := asString(src).(string); ok && (len(s) == len(timeLayout) || len(s) == len(timeLayoutColoned)) {
		return ParseTime(src)
	}
	return ParseDate(src)
}

// FormatDate renders a time.Time as YYYYMMDD.
func FormatDate(src any) (any, error) {
	return formatTime("converters.FormatDate", src, dateLayout)
}

// FormatTime renders a time.Time as HHMM.
func FormatTime(src any) (any, error) {
	return formatTime("converters.FormatTime", src, timeLayout)
}

func formatTime(op errors.Op, src any, layout string) (any, error) {
	srcVal, err := CheckTime(op, src)
	if err != nil {
		return "", errors.New(op).Err(err)
	}
	return srcVal.Format(layout), nil
}

// Dates converts between time.Time and strings of any string kind. Layout selects the output
// format; it defaults to YYYYMMDD. Integer sources are read as Unix seconds.
type Dates struct {
	Layout string
}

func (d Dates) ConverterTo(dst reflect.Type) funcadapt.ConverterFunc {
	if dst.Kind() != reflect.String {
		return nil
	}
	layout := d.Layout
	if layout == "" {
		layout = dateLayout
	}
	return func(src any) (any, error) {
		out, err := formatTime("converters.Dates", src, layout)
		if err != nil {
			return nil, err
		}
		return reflect.ValueOf(out).Convert(dst).Interface(), nil
	}
}

func (d Dates) ConverterFrom(src reflect.Type) funcadapt.ConverterFunc {
	if unixSeconds(src) {
		return FromUnix
	}
	if src.Kind() != reflect.String {
		return nil
	}
	if d.Layout == "" {
		return ParseDateOrTime
	}
	return func(src any) (any, error) {
		const op errors.Op = "converters.Dates"
		srcVal, err := CheckString(op, asString(src))
		if err != nil {
			return time.Time{}, errors.New(op).Err(err)
		}
		retVal, err := time.Parse(d.Layout, srcVal)
		if err != nil {
			return time.Time{}, errors.New(op).Err(err)
		}
		return retVal, nil
	}
}

// FromUnix reads an integer, or a float64 holding a whole number, as seconds since the Unix
// epoch and returns the UTC time.
func FromUnix(src any) (any, error) {
	const op errors.Op = "converters.FromUnix"
	secs, err := CheckInt64(op, asInt(src))
	if err != nil {
		return time.Time{}, errors.New(op).Err(err)
	}
	return time.Unix(secs, 0).UTC(), nil
}

func unixSeconds(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float64:
		return true
	}
	return false
}

// asInt unwraps defined integer and float types so CheckInt64 accepts them.
func asInt(src any) any {
	v := reflect.ValueOf(src)
	switch {
	case !v.IsValid() || v.Type().PkgPath() == "":
		return src
	case v.CanInt():
		return v.Int()
	case v.CanUint():
		return v.Uint()
	case v.CanFloat():
		return v.Float()
	}
	return src
}

// asString unwraps defined string types so CheckString accepts them.
func asString(src any) any {
	if src == nil {
		return nil
	}
	if _, ok := src.(string); ok {
		return src
	}
	v := reflect.ValueOf(src)
	if v.Kind() == reflect.String {
		return v.String()
	}
	return src
}
