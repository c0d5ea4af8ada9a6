package busapi

import (
	"fmt"

	"github.com/godbus/dbus/v5"
)

// AsString extracts the string carried by a variant.
func AsString(v dbus.Variant) (string, bool) {
	s, ok := v.Value().(string)
	return s, ok
}

// AsInt64 extracts the integer carried by a variant, widening from any
// smaller integer wire type. Booleans count as 0 and 1.
func AsInt64(v dbus.Variant) (int64, bool) {
	return intValue(v.Value())
}

// AsUint32 narrows the variant's integer to 32 bits.
func AsUint32(v dbus.Variant) (uint32, bool) {
	n, ok := AsInt64(v)
	if !ok {
		return 0, false
	}
	return uint32(n), true
}

// AsBool coerces the variant's integer form; a value of zero maps to true.
func AsBool(v dbus.Variant) (bool, bool) {
	n, ok := AsInt64(v)
	if !ok {
		return false, false
	}
	return n == 0, true
}

// AsStringList extracts a homogeneous string array, preserving order. An
// element of any other shape fails the whole conversion; no partial list is
// returned.
func AsStringList(v dbus.Variant) ([]string, bool) {
	switch list := v.Value().(type) {
	case []string:
		return append([]string(nil), list...), true
	case []dbus.Variant:
		out := make([]string, 0, len(list))
		for _, el := range list {
			s, ok := AsString(el)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	case []any:
		out := make([]string, 0, len(list))
		for _, el := range list {
			s, ok := el.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}

// AsByteList extracts an array of integers, narrowing each element to a
// byte. An element that is not an integer fails the whole conversion.
func AsByteList(v dbus.Variant) ([]byte, bool) {
	switch list := v.Value().(type) {
	case []byte:
		return append([]byte(nil), list...), true
	case []dbus.Variant:
		out := make([]byte, 0, len(list))
		for _, el := range list {
			n, ok := AsInt64(el)
			if !ok {
				return nil, false
			}
			out = append(out, byte(n))
		}
		return out, true
	case []any:
		out := make([]byte, 0, len(list))
		for _, el := range list {
			n, ok := intValue(el)
			if !ok {
				return nil, false
			}
			out = append(out, byte(n))
		}
		return out, true
	}
	return nil, false
}

// VariantByteArray views the variant as a D-Bus byte array.
func VariantByteArray(v dbus.Variant) ([]byte, error) {
	data, ok := v.Value().([]byte)
	if !ok {
		return nil, &Error{
			Kind:    KindVariantShape,
			Message: fmt.Sprintf("D-Bus variant not an array: %s", v.String()),
		}
	}
	return append([]byte(nil), data...), nil
}

func intValue(value any) (int64, bool) {
	switch n := value.(type) {
	case byte:
		return int64(n), true
	case int16:
		return int64(n), true
	case uint16:
		return int64(n), true
	case int32:
		return int64(n), true
	case uint32:
		return int64(n), true
	case int64:
		return n, true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}
