package scalar

import (
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/ThirdAILabs/ndb-client/internal/domain"
)

// DType is the declared type of a metadata value or constraint operand.
type DType string

// Known dtypes.
const (
	Int   DType = "int"
	Float DType = "float"
	Bool  DType = "bool"
	Str   DType = "str"
)

// DTypes returns all known dtypes in wire order.
func DTypes() []DType { return []DType{Int, Float, Bool, Str} }

// Valid reports whether d is a known dtype.
func (d DType) Valid() bool {
	switch d {
	case Int, Float, Bool, Str:
		return true
	default:
		return false
	}
}

func (d DType) String() string { return string(d) }

// ParseDType validates a dtype string.
func ParseDType(s string) (DType, error) {
	d := DType(s)
	if !d.Valid() {
		return "", domain.SchemaErrorf("", expectedDTypes(), "%q", s)
	}
	return d, nil
}

func expectedDTypes() string {
	names := make([]string, 0, 4)
	for _, d := range DTypes() {
		names = append(names, string(d))
	}
	return "one of " + strings.Join(names, ", ")
}

// Value is a single scalar tagged with its dtype. The zero Value is invalid.
type Value struct {
	dtype DType
	i     int64
	f     float64
	b     bool
	s     string
}

// IntValue wraps an int64.
func IntValue(v int64) Value { return Value{dtype: Int, i: v} }

// FloatValue wraps a float64. Non-finite values are rejected by Of/OfType, not here.
func FloatValue(v float64) Value { return Value{dtype: Float, f: v} }

// BoolValue wraps a bool.
func BoolValue(v bool) Value { return Value{dtype: Bool, b: v} }

// StrValue wraps a string.
func StrValue(v string) Value { return Value{dtype: Str, s: v} }

// Of infers the dtype from the Go type of v.
// Signed and unsigned integers map to int, float32/float64 to float.
func Of(v any) (Value, error) {
	if sv, ok := v.(Value); ok {
		if !sv.dtype.Valid() {
			return Value{}, domain.NewSchemaError("", "scalar", "zero value")
		}
		return sv, nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return IntValue(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return Value{}, domain.SchemaErrorf("", "int64 range", "%d", u)
		}
		return IntValue(int64(u)), nil
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return Value{}, domain.SchemaErrorf("", "finite float", "%v", f)
		}
		return FloatValue(f), nil
	case reflect.Bool:
		return BoolValue(rv.Bool()), nil
	case reflect.String:
		return StrValue(rv.String()), nil
	case reflect.Slice, reflect.Array:
		return Value{}, domain.NewSchemaError("", "scalar", "sequence")
	case reflect.Invalid:
		return Value{}, domain.NewSchemaError("", "scalar", "null")
	default:
		return Value{}, domain.SchemaErrorf("", "scalar", "%T", v)
	}
}

// OfType converts v into a Value of the given dtype.
// Integers widen into float; nothing else converts.
func OfType(d DType, v any) (Value, error) {
	if !d.Valid() {
		return Value{}, domain.SchemaErrorf("dtype", expectedDTypes(), "%q", string(d))
	}
	sv, err := Of(v)
	if err != nil {
		return Value{}, err
	}
	if sv.dtype == d {
		return sv, nil
	}
	if d == Float && sv.dtype == Int {
		return FloatValue(float64(sv.i)), nil
	}
	return Value{}, domain.SchemaErrorf("", string(d), "%s (%v)", sv.dtype, sv.Any())
}

// DType returns the value's dtype.
func (v Value) DType() DType { return v.dtype }

// IsZero reports whether v was never set.
func (v Value) IsZero() bool { return v.dtype == "" }

// Int returns the int payload; meaningful only when DType is Int.
func (v Value) Int() int64 { return v.i }

// Float returns the float payload; meaningful only when DType is Float.
func (v Value) Float() float64 { return v.f }

// Bool returns the bool payload; meaningful only when DType is Bool.
func (v Value) Bool() bool { return v.b }

// Str returns the string payload; meaningful only when DType is Str.
func (v Value) Str() string { return v.s }

// Any returns the payload as a plain Go value (int64, float64, bool or string).
func (v Value) Any() any {
	switch v.dtype {
	case Int:
		return v.i
	case Float:
		return v.f
	case Bool:
		return v.b
	case Str:
		return v.s
	default:
		return nil
	}
}

func (v Value) String() string {
	if v.dtype == "" {
		return "<invalid>"
	}
	if v.dtype == Str {
		return fmt.Sprintf("%q", v.s)
	}
	return fmt.Sprint(v.Any())
}

// MapOf converts a plain map into scalar values, reporting the offending key on failure.
func MapOf(m map[string]any) (map[string]Value, error) {
	if len(m) == 0 {
		return nil, nil
	}
	out := make(map[string]Value, len(m))
	for k, raw := range m {
		if k == "" {
			return nil, domain.NewSchemaError("", "non-empty key", "empty key")
		}
		v, err := Of(raw)
		if err != nil {
			return nil, domain.PrefixField(k, err)
		}
		out[k] = v
	}
	return out, nil
}

// CloneMap copies a value map; empty maps become nil.
func CloneMap(m map[string]Value) map[string]Value {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]Value, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// ValidateMap checks that keys are non-empty and no value is the zero Value.
func ValidateMap(m map[string]Value) error {
	for k, v := range m {
		if k == "" {
			return domain.NewSchemaError("", "non-empty key", "empty key")
		}
		if v.IsZero() {
			return domain.NewSchemaError(k, "scalar", "zero value")
		}
		if v.dtype == Float && (math.IsNaN(v.f) || math.IsInf(v.f, 0)) {
			return domain.SchemaErrorf(k, "finite float", "%v", v.f)
		}
	}
	return nil
}
