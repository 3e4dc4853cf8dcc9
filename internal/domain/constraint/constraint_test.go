package constraint

import (
	"errors"
	"testing"

	"github.com/ThirdAILabs/ndb-client/internal/domain"
	"github.com/ThirdAILabs/ndb-client/internal/domain/scalar"
)

func TestNew_Kinds(t *testing.T) {
	tests := []struct {
		name  string
		build func() (Constraint, error)
		kind  Kind
		str   string
	}{
		{"any_of", func() (Constraint, error) { return NewAnyOf(scalar.Int, []int{1, 2, 3}) }, AnyOf, "AnyOf[int](1, 2, 3)"},
		{"equal_to", func() (Constraint, error) { return NewEqualTo(scalar.Str, "en") }, EqualTo, `EqualTo[str]("en")`},
		{"substring", func() (Constraint, error) { return NewSubstring(scalar.Str, "rep") }, Substring, `Substring[str]("rep")`},
		{"less_than", func() (Constraint, error) { return NewLessThan(scalar.Float, 2.5) }, LessThan, "LessThan[float](2.5)"},
		{"greater_than", func() (Constraint, error) { return NewGreaterThan(scalar.Int, 0) }, GreaterThan, "GreaterThan[int](0)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := tt.build()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if c.Kind() != tt.kind {
				t.Errorf("Kind() = %s, want %s", c.Kind(), tt.kind)
			}
			if c.String() != tt.str {
				t.Errorf("String() = %s, want %s", c.String(), tt.str)
			}
			if err := c.Validate(); err != nil {
				t.Errorf("Validate() = %v", err)
			}
		})
	}
}

func TestNew_EmptyAnyOf(t *testing.T) {
	c, err := NewAnyOf(scalar.Str, []string{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := c.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"constraint_type":"AnyOf","value":[],"dtype":"str"}` {
		t.Errorf("MarshalJSON = %s", data)
	}
}

func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name  string
		build func() (Constraint, error)
		field string
	}{
		{"unknown kind", func() (Constraint, error) { return New("Between", scalar.Int, 1) }, "constraint_type"},
		{"unknown dtype", func() (Constraint, error) { return NewEqualTo("date", 1) }, "dtype"},
		{"any_of scalar", func() (Constraint, error) { return NewAnyOf(scalar.Int, 1) }, "value"},
		{"any_of mixed", func() (Constraint, error) { return NewAnyOf(scalar.Int, []any{1, "x"}) }, "value[1]"},
		{"scalar kind slice", func() (Constraint, error) { return NewEqualTo(scalar.Int, []int{1}) }, "value"},
		{"wrong dtype", func() (Constraint, error) { return NewLessThan(scalar.Bool, 3) }, "value"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.build()
			var se *domain.SchemaError
			if !errors.As(err, &se) {
				t.Fatalf("err = %v, want *SchemaError", err)
			}
			if se.Field != tt.field {
				t.Errorf("field = %q, want %q", se.Field, tt.field)
			}
		})
	}
}

func TestDecode(t *testing.T) {
	c, err := Decode([]byte(`{"constraint_type":"AnyOf","value":[1,2.5],"dtype":"float"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want, _ := NewAnyOf(scalar.Float, []float64{1, 2.5})
	if !c.Equal(want) {
		t.Errorf("Decode = %v, want %v", c, want)
	}

	data, err := c.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"constraint_type":"AnyOf","value":[1.0,2.5],"dtype":"float"}` {
		t.Errorf("MarshalJSON = %s", data)
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		field string
	}{
		{"not an object", `[1]`, ""},
		{"missing type", `{"value":1,"dtype":"int"}`, "constraint_type"},
		{"unknown type", `{"constraint_type":"Near","value":1,"dtype":"int"}`, "constraint_type"},
		{"missing dtype", `{"constraint_type":"EqualTo","value":1}`, "dtype"},
		{"unknown dtype", `{"constraint_type":"EqualTo","value":1,"dtype":"long"}`, "dtype"},
		{"missing value", `{"constraint_type":"EqualTo","dtype":"int"}`, "value"},
		{"null value", `{"constraint_type":"EqualTo","value":null,"dtype":"int"}`, "value"},
		{"sequence for scalar kind", `{"constraint_type":"LessThan","value":[1],"dtype":"int"}`, "value"},
		{"scalar for any_of", `{"constraint_type":"AnyOf","value":"a","dtype":"str"}`, "value"},
		{"bad element", `{"constraint_type":"AnyOf","value":[1,"2"],"dtype":"int"}`, "value[1]"},
		{"float for int", `{"constraint_type":"EqualTo","value":1.5,"dtype":"int"}`, "value"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.in))
			var se *domain.SchemaError
			if !errors.As(err, &se) {
				t.Fatalf("err = %v, want *SchemaError", err)
			}
			if se.Field != tt.field {
				t.Errorf("field = %q, want %q", se.Field, tt.field)
			}
		})
	}
}

func TestValidate_ZeroValue(t *testing.T) {
	var c Constraint
	if !c.IsZero() {
		t.Error("IsZero() = false")
	}
	if err := c.Validate(); !errors.Is(err, domain.ErrSchema) {
		t.Errorf("Validate() = %v", err)
	}
	if _, err := c.MarshalJSON(); !errors.Is(err, domain.ErrSchema) {
		t.Errorf("MarshalJSON() err = %v", err)
	}
}

func TestValue(t *testing.T) {
	c, _ := NewAnyOf(scalar.Str, []string{"a", "b"})
	got, ok := c.Value().([]any)
	if !ok || len(got) != 2 || got[1] != "b" {
		t.Errorf("Value() = %#v", c.Value())
	}
	if !c.Scalar().IsZero() {
		t.Error("Scalar() of AnyOf should be zero")
	}

	e, _ := NewEqualTo(scalar.Int, 5)
	if e.Value() != int64(5) {
		t.Errorf("Value() = %#v", e.Value())
	}
}
