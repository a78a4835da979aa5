package converters

import (
	"reflect"

	"github.com/Station-Manager/errors"
	"github.com/Station-Manager/funcadapt"
	"github.com/google/uuid"
)

var uuidType = reflect.TypeOf(uuid.UUID{})

// UUIDs converts uuid.UUID to and from its string and byte forms.
type UUIDs struct{}

func (UUIDs) ConverterTo(dst reflect.Type) funcadapt.ConverterFunc {
	switch {
	case dst.Kind() == reflect.String:
		return func(src any) (any, error) {
			return reflect.ValueOf(src.(uuid.UUID).String()).Convert(dst).Interface(), nil
		}
	case isBytes(dst):
		return func(src any) (any, error) {
			u := src.(uuid.UUID)
			return reflect.ValueOf(append([]byte(nil), u[:]...)).Convert(dst).Interface(), nil
		}
	}
	return nil
}

func (UUIDs) ConverterFrom(src reflect.Type) funcadapt.ConverterFunc {
	switch {
	case src.Kind() == reflect.String:
		return func(src any) (any, error) {
			const op errors.Op = "converters.UUIDs.Parse"
			srcVal, err := CheckString(op, asString(src))
			if err != nil {
				return uuid.Nil, errors.New(op).Err(err)
			}
			u, err := uuid.Parse(srcVal)
			if err != nil {
				return uuid.Nil, errors.New(op).Err(err).Msg(ErrMsgBadUUID)
			}
			return u, nil
		}
	case isBytes(src):
		return func(src any) (any, error) {
			const op errors.Op = "converters.UUIDs.FromBytes"
			b := reflect.ValueOf(src).Bytes()
			var (
				u   uuid.UUID
				err error
			)
			if len(b) == 16 {
				u, err = uuid.FromBytes(b)
			} else {
				u, err = uuid.ParseBytes(b)
			}
			if err != nil {
				return uuid.Nil, errors.New(op).Err(err).Msg(ErrMsgBadUUID)
			}
			return u, nil
		}
	}
	return nil
}
