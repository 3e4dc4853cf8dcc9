package constraint

import (
	"reflect"
	"strings"

	"github.com/ThirdAILabs/ndb-client/internal/domain"
	"github.com/ThirdAILabs/ndb-client/internal/domain/scalar"
)

// Kind is the constraint_type discriminator.
type Kind string

// Known constraint kinds.
const (
	AnyOf       Kind = "AnyOf"
	EqualTo     Kind = "EqualTo"
	Substring   Kind = "Substring"
	LessThan    Kind = "LessThan"
	GreaterThan Kind = "GreaterThan"
)

// Kinds returns every known kind in wire order.
func Kinds() []Kind { return []Kind{AnyOf, EqualTo, Substring, LessThan, GreaterThan} }

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case AnyOf, EqualTo, Substring, LessThan, GreaterThan:
		return true
	default:
		return false
	}
}

// Sequence reports whether the kind takes a list operand.
func (k Kind) Sequence() bool { return k == AnyOf }

func (k Kind) String() string { return string(k) }

// ParseKind validates a constraint_type string.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", domain.SchemaErrorf("constraint_type", expectedKinds(), "%q", s)
	}
	return k, nil
}

func expectedKinds() string {
	names := make([]string, 0, 5)
	for _, k := range Kinds() {
		names = append(names, string(k))
	}
	return "one of " + strings.Join(names, ", ")
}

// Constraint is a predicate on one metadata field: {constraint_type, value, dtype}.
// AnyOf holds any number of operands, every other kind exactly one.
type Constraint struct {
	kind   Kind
	dtype  scalar.DType
	values []scalar.Value
}

// New validates and creates a constraint of any kind.
// For AnyOf, value must be a slice or array; for the rest, a single scalar.
func New(kind Kind, dtype scalar.DType, value any) (Constraint, error) {
	if !kind.Valid() {
		return Constraint{}, domain.SchemaErrorf("constraint_type", expectedKinds(), "%q", string(kind))
	}
	if !dtype.Valid() {
		return Constraint{}, domain.SchemaErrorf("dtype", "one of int, float, bool, str", "%q", string(dtype))
	}

	if kind.Sequence() {
		values, err := sequenceOf(dtype, value)
		if err != nil {
			return Constraint{}, err
		}
		return Constraint{kind: kind, dtype: dtype, values: values}, nil
	}

	v, err := scalar.OfType(dtype, value)
	if err != nil {
		return Constraint{}, domain.PrefixField("value", err)
	}
	return Constraint{kind: kind, dtype: dtype, values: []scalar.Value{v}}, nil
}

// NewAnyOf creates a membership constraint. values must be a homogeneous slice.
func NewAnyOf(dtype scalar.DType, values any) (Constraint, error) { return New(AnyOf, dtype, values) }

// NewEqualTo creates an equality constraint.
func NewEqualTo(dtype scalar.DType, value any) (Constraint, error) { return New(EqualTo, dtype, value) }

// NewSubstring creates a substring constraint.
func NewSubstring(dtype scalar.DType, value any) (Constraint, error) {
	return New(Substring, dtype, value)
}

// NewLessThan creates an upper-bound constraint.
func NewLessThan(dtype scalar.DType, value any) (Constraint, error) { return New(LessThan, dtype, value) }

// NewGreaterThan creates a lower-bound constraint.
func NewGreaterThan(dtype scalar.DType, value any) (Constraint, error) {
	return New(GreaterThan, dtype, value)
}

func sequenceOf(dtype scalar.DType, value any) ([]scalar.Value, error) {
	if vs, ok := value.([]scalar.Value); ok {
		out := make([]scalar.Value, len(vs))
		for i, v := range vs {
			sv, err := scalar.OfType(dtype, v)
			if err != nil {
				return nil, domain.PrefixField(domain.IndexField("value", i), err)
			}
			out[i] = sv
		}
		return out, nil
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, domain.SchemaErrorf("value", "sequence of "+string(dtype), "%s", describe(value))
	}
	out := make([]scalar.Value, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		sv, err := scalar.OfType(dtype, rv.Index(i).Interface())
		if err != nil {
			return nil, domain.PrefixField(domain.IndexField("value", i), err)
		}
		out[i] = sv
	}
	return out, nil
}

func describe(v any) string {
	if v == nil {
		return "null"
	}
	if sv, err := scalar.Of(v); err == nil {
		return "scalar " + string(sv.DType())
	}
	return reflect.TypeOf(v).String()
}

// Kind returns the discriminator.
func (c Constraint) Kind() Kind { return c.kind }

// DType returns the operand dtype.
func (c Constraint) DType() scalar.DType { return c.dtype }

// Values returns a copy of the operands. Scalar kinds have exactly one.
func (c Constraint) Values() []scalar.Value {
	if c.values == nil {
		return nil
	}
	out := make([]scalar.Value, len(c.values))
	copy(out, c.values)
	return out
}

// Scalar returns the single operand of a non-AnyOf constraint.
func (c Constraint) Scalar() scalar.Value {
	if c.kind.Sequence() || len(c.values) != 1 {
		return scalar.Value{}
	}
	return c.values[0]
}

// Value returns the operand as plain Go values: []any for AnyOf, a scalar otherwise.
func (c Constraint) Value() any {
	if c.kind.Sequence() {
		out := make([]any, len(c.values))
		for i, v := range c.values {
			out[i] = v.Any()
		}
		return out
	}
	return c.Scalar().Any()
}

// IsZero reports whether c was never constructed.
func (c Constraint) IsZero() bool { return c.kind == "" }

// Validate re-checks the invariants New enforces; useful for zero values.
func (c Constraint) Validate() error {
	if !c.kind.Valid() {
		return domain.SchemaErrorf("constraint_type", expectedKinds(), "%q", string(c.kind))
	}
	if !c.dtype.Valid() {
		return domain.SchemaErrorf("dtype", "one of int, float, bool, str", "%q", string(c.dtype))
	}
	if !c.kind.Sequence() && len(c.values) != 1 {
		return domain.SchemaErrorf("value", "single "+string(c.dtype), "%d values", len(c.values))
	}
	for i, v := range c.values {
		if v.DType() != c.dtype {
			field := "value"
			if c.kind.Sequence() {
				field = domain.IndexField("value", i)
			}
			return domain.NewSchemaError(field, string(c.dtype), string(v.DType()))
		}
	}
	return nil
}

// Equal reports whether two constraints have the same kind, dtype and operands.
func (c Constraint) Equal(o Constraint) bool {
	if c.kind != o.kind || c.dtype != o.dtype || len(c.values) != len(o.values) {
		return false
	}
	for i := range c.values {
		if c.values[i] != o.values[i] {
			return false
		}
	}
	return true
}

func (c Constraint) String() string {
	if c.kind.Sequence() {
		parts := make([]string, len(c.values))
		for i, v := range c.values {
			parts[i] = v.String()
		}
		return string(c.kind) + "[" + string(c.dtype) + "](" + strings.Join(parts, ", ") + ")"
	}
	return string(c.kind) + "[" + string(c.dtype) + "](" + c.Scalar().String() + ")"
}
