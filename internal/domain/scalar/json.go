package scalar

import (
	"bytes"
	"math"
	"strconv"

	json "github.com/goccy/go-json"

	"github.com/ThirdAILabs/ndb-client/internal/domain"
)

// MarshalJSON encodes ints as integer literals and floats with a fraction or
// exponent, so decoding infers the same dtype back.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.dtype {
	case Int:
		return strconv.AppendInt(nil, v.i, 10), nil
	case Float:
		return appendFloat(nil, v.f)
	case Bool:
		return strconv.AppendBool(nil, v.b), nil
	case Str:
		return json.Marshal(v.s)
	default:
		return nil, domain.NewSchemaError("", "scalar", "zero value")
	}
}

func appendFloat(dst []byte, f float64) ([]byte, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, domain.SchemaErrorf("", "finite float", "%v", f)
	}
	format := byte('f')
	if abs := math.Abs(f); abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		format = 'e'
	}
	out := strconv.AppendFloat(dst, f, format, -1, 64)
	if !bytes.ContainsAny(out[len(dst):], ".eE") {
		out = append(out, '.', '0')
	}
	return out, nil
}

// UnmarshalJSON infers the dtype from the JSON token: true/false → bool,
// string → str, integer literal → int, any other number → float.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return domain.NewSchemaError("", "scalar", "empty input")
	}
	switch c := data[0]; {
	case c == 't' || c == 'f':
		return v.decodeAs(Bool, data)
	case c == '"':
		return v.decodeAs(Str, data)
	case c == '-' || (c >= '0' && c <= '9'):
		if isIntegerLiteral(data) {
			return v.decodeAs(Int, data)
		}
		return v.decodeAs(Float, data)
	default:
		return domain.NewSchemaError("", "scalar", describeToken(data))
	}
}

// DecodeAs decodes a JSON token strictly as the given dtype.
func DecodeAs(d DType, data []byte) (Value, error) {
	var v Value
	if err := v.decodeAs(d, bytes.TrimSpace(data)); err != nil {
		return Value{}, err
	}
	return v, nil
}

func (v *Value) decodeAs(d DType, data []byte) error {
	got := describeToken(data)
	switch d {
	case Int:
		if !isNumberToken(data) || !isIntegerLiteral(data) {
			return domain.NewSchemaError("", "int", got)
		}
		n, err := strconv.ParseInt(string(data), 10, 64)
		if err != nil {
			return &domain.SchemaError{Expected: "int64", Got: string(data), Err: err}
		}
		*v = IntValue(n)
	case Float:
		if !isNumberToken(data) {
			return domain.NewSchemaError("", "float", got)
		}
		f, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			return &domain.SchemaError{Expected: "float64", Got: string(data), Err: err}
		}
		*v = FloatValue(f)
	case Bool:
		switch string(data) {
		case "true":
			*v = BoolValue(true)
		case "false":
			*v = BoolValue(false)
		default:
			return domain.NewSchemaError("", "bool", got)
		}
	case Str:
		if len(data) == 0 || data[0] != '"' {
			return domain.NewSchemaError("", "str", got)
		}
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return &domain.SchemaError{Expected: "str", Got: "malformed string", Err: err}
		}
		*v = StrValue(s)
	default:
		return domain.SchemaErrorf("dtype", expectedDTypes(), "%q", string(d))
	}
	return nil
}

func isNumberToken(data []byte) bool {
	return len(data) > 0 && (data[0] == '-' || (data[0] >= '0' && data[0] <= '9'))
}

func isIntegerLiteral(data []byte) bool {
	return !bytes.ContainsAny(data, ".eE")
}

// describeToken names the JSON kind of a raw token for error messages.
func describeToken(data []byte) string {
	if len(data) == 0 {
		return "nothing"
	}
	switch c := data[0]; {
	case c == '{':
		return "object"
	case c == '[':
		return "sequence"
	case c == '"':
		return "string"
	case c == 't' || c == 'f':
		return "bool"
	case c == 'n':
		return "null"
	case isNumberToken(data):
		if isIntegerLiteral(data) {
			return "int " + string(data)
		}
		return "float " + string(data)
	default:
		return "invalid JSON"
	}
}

// DescribeToken is the exported form of describeToken for sibling packages.
func DescribeToken(data []byte) string { return describeToken(bytes.TrimSpace(data)) }
