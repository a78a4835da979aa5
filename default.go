package funcadapt

import "reflect"

// Package-level functions operate on Default().

func Classify(src, dst reflect.Type) (*Conversion, error) { return Default().Classify(src, dst) }
func CanConvert(src, dst reflect.Type) bool                 { return Default().CanConvert(src, dst) }
func Convert(value any, dst reflect.Type) (any, error)      { return Default().Convert(value, dst) }

func RegisterConverter(src, dst reflect.Type, fn ConverterFunc) error {
	return Default().RegisterConverter(src, dst, fn)
}

func RegisterProvider(t reflect.Type, p Provider) error { return Default().RegisterProvider(t, p) }

func Bind(callable *CallableDescriptor, shape Shape) (*Adapter, error) {
	return Default().Bind(callable, shape)
}

func BindTo(callable *CallableDescriptor, shape Shape, receiver any) (*Adapter, error) {
	return Default().BindTo(callable, shape, receiver)
}

func TryBind(callable *CallableDescriptor, shape Shape) (*Adapter, bool) {
	return Default().TryBind(callable, shape)
}

func BindMember(owner reflect.Type, name string, shape Shape, flags ...SearchFlags) (*Adapter, error) {
	return Default().BindMember(owner, name, shape, flags...)
}

func BindMemberTo(receiver any, name string, shape Shape, flags ...SearchFlags) (*Adapter, error) {
	return Default().BindMemberTo(receiver, name, shape, flags...)
}

func BuildSwitcher(shape Shape, candidates []*CallableDescriptor, opts ...SwitcherOption) (*Switcher, error) {
	return Default().BuildSwitcher(shape, candidates, opts...)
}

func BuildSwitcherFor(shape Shape, owner reflect.Type, group string, opts ...SwitcherOption) (*Switcher, error) {
	return Default().BuildSwitcherFor(shape, owner, group, opts...)
}
