package constraint

import (
	"bytes"

	json "github.com/goccy/go-json"

	"github.com/ThirdAILabs/ndb-client/internal/domain"
	"github.com/ThirdAILabs/ndb-client/internal/domain/scalar"
)

// wireConstraint keeps the field order of the NDB wire format.
type wireConstraint struct {
	ConstraintType Kind         `json:"constraint_type"`
	Value          any          `json:"value"`
	DType          scalar.DType `json:"dtype"`
}

// MarshalJSON encodes {constraint_type, value, dtype}.
func (c Constraint) MarshalJSON() ([]byte, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	w := wireConstraint{ConstraintType: c.kind, DType: c.dtype}
	if c.kind.Sequence() {
		values := c.values
		if values == nil {
			values = []scalar.Value{}
		}
		w.Value = values
	} else {
		w.Value = c.values[0]
	}
	return json.Marshal(w)
}

// UnmarshalJSON selects the variant from constraint_type and validates the rest.
func (c *Constraint) UnmarshalJSON(data []byte) error {
	decoded, err := Decode(data)
	if err != nil {
		return err
	}
	*c = decoded
	return nil
}

// Decode parses one constraint object. A missing or unknown discriminator,
// an unknown dtype, or a value whose shape disagrees with the kind is a SchemaError.
func Decode(data []byte) (Constraint, error) {
	var raw struct {
		ConstraintType *string         `json:"constraint_type"`
		Value          json.RawMessage `json:"value"`
		DType          *string         `json:"dtype"`
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return Constraint{}, domain.NewSchemaError("", "constraint object", scalar.DescribeToken(data))
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Constraint{}, &domain.SchemaError{Expected: "constraint object", Got: "malformed JSON", Err: err}
	}

	if raw.ConstraintType == nil {
		return Constraint{}, domain.NewSchemaError("constraint_type", expectedKinds(), "missing")
	}
	kind, err := ParseKind(*raw.ConstraintType)
	if err != nil {
		return Constraint{}, err
	}
	if raw.DType == nil {
		return Constraint{}, domain.NewSchemaError("dtype", "one of int, float, bool, str", "missing")
	}
	dtype, err := scalar.ParseDType(*raw.DType)
	if err != nil {
		return Constraint{}, domain.PrefixField("dtype", err)
	}
	value := bytes.TrimSpace(raw.Value)
	if len(value) == 0 || bytes.Equal(value, []byte("null")) {
		return Constraint{}, domain.NewSchemaError("value", "value", "missing")
	}

	if kind.Sequence() {
		var items []json.RawMessage
		if value[0] != '[' {
			return Constraint{}, domain.NewSchemaError("value", "sequence of "+string(dtype), scalar.DescribeToken(value))
		}
		if err := json.Unmarshal(value, &items); err != nil {
			return Constraint{}, &domain.SchemaError{Field: "value", Expected: "sequence", Got: "malformed JSON", Err: err}
		}
		values := make([]scalar.Value, len(items))
		for i, item := range items {
			v, err := scalar.DecodeAs(dtype, item)
			if err != nil {
				return Constraint{}, domain.PrefixField(domain.IndexField("value", i), err)
			}
			values[i] = v
		}
		return New(kind, dtype, values)
	}

	if value[0] == '[' {
		return Constraint{}, domain.NewSchemaError("value", "single "+string(dtype), "sequence")
	}
	v, err := scalar.DecodeAs(dtype, value)
	if err != nil {
		return Constraint{}, domain.PrefixField("value", err)
	}
	return New(kind, dtype, v)
}
