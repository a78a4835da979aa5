package converters

import (
	"math"
	"time"

	"github.com/Station-Manager/errors"
)

// CheckString returns src as a non-empty string.
func CheckString(op errors.Op, src any) (string, error) {
	srcVal, ok := src.(string)
	if !ok {
		return "", errors.New(op).Errorf("Given parameter not a string, got %T", src)
	}
	if srcVal == "" {
		return "", errors.New(op).Msg(ErrMsgEmptyParam)
	}
	return srcVal, nil
}

// CheckInt64 accepts any integer kind, and floats holding a whole number (JSON decodes numbers
// to float64).
func CheckInt64(op errors.Op, src any) (int64, error) {
	switch v := src.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case uint:
		if uint64(v) > math.MaxInt64 {
			return -1, errors.New(op).Msg(ErrMsgOutOfRange)
		}
		return int64(v), nil
	case uint64:
		if v > math.MaxInt64 {
			return -1, errors.New(op).Msg(ErrMsgOutOfRange)
		}
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint8:
		return int64(v), nil
	case float64:
		if v != math.Trunc(v) || v < math.MinInt64 || v >= math.MaxInt64 {
			return -1, errors.New(op).Errorf("Given float64 is not a whole int64, got %v", v)
		}
		return int64(v), nil
	}
	return -1, errors.New(op).Errorf("Given parameter not an integer, got %T", src)
}

// CheckTime returns src as a time.Time; the zero time is accepted.
func CheckTime(op errors.Op, src any) (time.Time, error) {
	srcVal, ok := src.(time.Time)
	if !ok {
		return time.Time{}, errors.New(op).Errorf("Given parameter not a time.Time, got %T", src)
	}
	return srcVal, nil
}
