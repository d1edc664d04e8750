package affix

import (
	"encoding"
	"fmt"
	"reflect"
	"strconv"
)

// Scalar is the set of types whose values can be affixed through the generic
// Encode and Decode functions.
type Scalar interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64 |
		~string | ~bool
}

var (
	textMarshalerType   = reflect.TypeFor[encoding.TextMarshaler]()
	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()
)

// Format returns the canonical textual form of v: base 10 for integers, the
// shortest representation that parses back to the same value for floats,
// "true"/"false" for booleans and the string itself for strings. Named types
// implementing encoding.TextMarshaler are rendered through MarshalText, and a
// failure there yields the empty string; use FormatValue to get the error.
func Format[T Scalar](v T) string {
	s, _ := FormatValue(reflect.ValueOf(v))
	return s
}

// Parse parses s with the standard parser of T, honouring its bit size.
func Parse[T Scalar](s string) (T, error) {
	var out T
	err := ParseValue(s, reflect.ValueOf(&out).Elem())
	return out, err
}

// FormatValue renders any value Supports reports as supported. Types
// implementing encoding.TextMarshaler are rendered through MarshalText.
func FormatValue(v reflect.Value) (string, error) {
	if v.Type().Implements(textMarshalerType) {
		text, err := v.Interface().(encoding.TextMarshaler).MarshalText()
		if err != nil {
			return "", err
		}
		return string(text), nil
	}

	switch v.Kind() {
	case reflect.String:
		return v.String(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10), nil
	case reflect.Float32:
		return strconv.FormatFloat(v.Float(), 'f', -1, 32), nil
	case reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'f', -1, 64), nil
	case reflect.Bool:
		return strconv.FormatBool(v.Bool()), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, v.Type())
	}
}

// ParseValue parses s into v, which must be settable.
func ParseValue(s string, v reflect.Value) error {
	if v.CanAddr() && v.Addr().Type().Implements(textUnmarshalerType) {
		return v.Addr().Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(s))
	}

	switch v.Kind() {
	case reflect.String:
		v.SetString(s)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		val, err := strconv.ParseInt(s, 10, v.Type().Bits())
		if err != nil {
			return err
		}
		v.SetInt(val)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		val, err := strconv.ParseUint(s, 10, v.Type().Bits())
		if err != nil {
			return err
		}
		v.SetUint(val)
	case reflect.Float32, reflect.Float64:
		val, err := strconv.ParseFloat(s, v.Type().Bits())
		if err != nil {
			return err
		}
		v.SetFloat(val)
	case reflect.Bool:
		val, err := strconv.ParseBool(s)
		if err != nil {
			return err
		}
		v.SetBool(val)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedType, v.Type())
	}
	return nil
}

// Supports reports whether values of t can be both rendered and parsed.
func Supports(t reflect.Type) bool {
	if t.Implements(textMarshalerType) && reflect.PointerTo(t).Implements(textUnmarshalerType) {
		return true
	}
	switch t.Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}
