package funcadapt

import (
	"math"
	"math/bits"
	"reflect"
)

// implicitNumeric is the fixed widening matrix: a source kind converts implicitly into every
// listed kind because each of its values is exactly representable there. Every other pair of
// numeric kinds converts explicitly and is range-checked at run time.
//
// int, uint and uintptr are filled in by init according to the platform word size.
var implicitNumeric = map[reflect.Kind][]reflect.Kind{
	reflect.Int8:      {reflect.Int16, reflect.Int32, reflect.Int64, reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128},
	reflect.Int16:     {reflect.Int32, reflect.Int64, reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128},
	reflect.Int32:     {reflect.Int64, reflect.Float64, reflect.Complex128},
	reflect.Int64:     {},
	reflect.Uint8:     {reflect.Int16, reflect.Int32, reflect.Int64, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128},
	reflect.Uint16:    {reflect.Int32, reflect.Int64, reflect.Uint32, reflect.Uint64, reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128},
	reflect.Uint32:    {reflect.Int64, reflect.Uint64, reflect.Float64, reflect.Complex128},
	reflect.Uint64:    {},
	reflect.Float32:   {reflect.Float64, reflect.Complex64, reflect.Complex128},
	reflect.Float64:   {reflect.Complex128},
	reflect.Complex64: {reflect.Complex128},
}

var widening = make(map[[2]reflect.Kind]bool)

func init() {
	intKind, uintKind := reflect.Int64, reflect.Uint64
	if bits.UintSize == 32 {
		intKind, uintKind = reflect.Int32, reflect.Uint32
	}
	// int behaves like its sized twin, and each converts implicitly into the other.
	implicitNumeric[reflect.Int] = append([]reflect.Kind{intKind}, implicitNumeric[intKind]...)
	implicitNumeric[reflect.Uint] = append([]reflect.Kind{uintKind, reflect.Uintptr}, implicitNumeric[uintKind]...)
	implicitNumeric[reflect.Uintptr] = append([]reflect.Kind{reflect.Uint}, implicitNumeric[uintKind]...)
	implicitNumeric[intKind] = append(implicitNumeric[intKind], reflect.Int)
	implicitNumeric[uintKind] = append(implicitNumeric[uintKind], reflect.Uint, reflect.Uintptr)
	for src, dsts := range implicitNumeric {
		for _, dst := range dsts {
			widening[[2]reflect.Kind{src, dst}] = true
		}
	}
	for src, dsts := range implicitNumeric {
		for _, dst := range dsts {
			// Sources that widen into int32/int64 also widen into int when the sizes allow.
			if dst == intKind && src != reflect.Int {
				widening[[2]reflect.Kind{src, reflect.Int}] = true
			}
			if dst == uintKind && src != reflect.Uint {
				widening[[2]reflect.Kind{src, reflect.Uint}] = true
				widening[[2]reflect.Kind{src, reflect.Uintptr}] = true
			}
		}
	}
}

func isNumericKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return true
	}
	return false
}

func isSigned(k reflect.Kind) bool {
	return k >= reflect.Int && k <= reflect.Int64
}

func isUnsigned(k reflect.Kind) bool {
	return k >= reflect.Uint && k <= reflect.Uintptr
}

func isFloat(k reflect.Kind) bool { return k == reflect.Float32 || k == reflect.Float64 }

func isComplex(k reflect.Kind) bool { return k == reflect.Complex64 || k == reflect.Complex128 }

// implicitWidening reports whether src widens into dst without loss.
func implicitWidening(src, dst reflect.Kind) bool {
	return widening[[2]reflect.Kind{src, dst}]
}

const (
	twoTo63 = float64(1 << 63)
	twoTo64 = twoTo63 * 2
)

// convertNumeric converts v to dst, failing with ErrOverflow when the value is not
// representable. Floating-point sources truncate toward zero. Integer and floating-point
// values reach complex kinds through a float64 step and complex values leave them only when
// their imaginary part is zero, since Go defines no direct conversion between them.
func convertNumeric(v reflect.Value, dst reflect.Type) (reflect.Value, error) {
	out := reflect.New(dst).Elem()
	sk, dk := v.Kind(), dst.Kind()

	// Complex sources collapse to their real part first.
	var c complex128
	if isComplex(sk) {
		c = v.Complex()
		if !isComplex(dk) && imag(c) != 0 {
			return reflect.Value{}, valueError(v, dst, ErrOverflow, nil)
		}
	}

	switch {
	case isSigned(dk):
		var x int64
		switch {
		case isSigned(sk):
			x = v.Int()
		case isUnsigned(sk):
			u := v.Uint()
			if u > math.MaxInt64 {
				return reflect.Value{}, valueError(v, dst, ErrOverflow, nil)
			}
			x = int64(u)
		default:
			f := realPart(v, c)
			t := math.Trunc(f)
			if math.IsNaN(f) || t < -twoTo63 || t >= twoTo63 {
				return reflect.Value{}, valueError(v, dst, ErrOverflow, nil)
			}
			x = int64(t)
		}
		if out.OverflowInt(x) {
			return reflect.Value{}, valueError(v, dst, ErrOverflow, nil)
		}
		out.SetInt(x)
	case isUnsigned(dk):
		var x uint64
		switch {
		case isSigned(sk):
			i := v.Int()
			if i < 0 {
				return reflect.Value{}, valueError(v, dst, ErrOverflow, nil)
			}
			x = uint64(i)
		case isUnsigned(sk):
			x = v.Uint()
		default:
			f := realPart(v, c)
			t := math.Trunc(f)
			if math.IsNaN(f) || t < 0 || t >= twoTo64 {
				return reflect.Value{}, valueError(v, dst, ErrOverflow, nil)
			}
			x = uint64(t)
		}
		if out.OverflowUint(x) {
			return reflect.Value{}, valueError(v, dst, ErrOverflow, nil)
		}
		out.SetUint(x)
	case isFloat(dk):
		f := toFloat(v, c)
		if !math.IsInf(f, 0) && !math.IsNaN(f) && out.OverflowFloat(f) {
			return reflect.Value{}, valueError(v, dst, ErrOverflow, nil)
		}
		out.SetFloat(f)
	case isComplex(dk):
		if !isComplex(sk) {
			c = complex(toFloat(v, 0), 0)
		}
		if out.OverflowComplex(c) {
			return reflect.Value{}, valueError(v, dst, ErrOverflow, nil)
		}
		out.SetComplex(c)
	default:
		return reflect.Value{}, valueError(v, dst, ErrNoConversion, nil)
	}
	return out, nil
}

func realPart(v reflect.Value, c complex128) float64 {
	if isComplex(v.Kind()) {
		return real(c)
	}
	return v.Float()
}

func toFloat(v reflect.Value, c complex128) float64 {
	switch k := v.Kind(); {
	case isSigned(k):
		return float64(v.Int())
	case isUnsigned(k):
		return float64(v.Uint())
	case isComplex(k):
		return real(c)
	}
	return v.Float()
}
