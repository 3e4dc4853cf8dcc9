package request

import (
	"errors"
	"strings"
	"testing"

	"github.com/ThirdAILabs/ndb-client/internal/domain"
	"github.com/ThirdAILabs/ndb-client/internal/domain/constraint"
	"github.com/ThirdAILabs/ndb-client/internal/domain/scalar"
)

func TestNew_Defaults(t *testing.T) {
	p, err := New("hello", 0, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.TopK() != DefaultTopK {
		t.Errorf("TopK() = %d, want %d", p.TopK(), DefaultTopK)
	}
	if p.Constraints() != nil {
		t.Errorf("Constraints() = %v, want nil", p.Constraints())
	}
}

func TestNew_Invalid(t *testing.T) {
	bad := constraint.Constraint{}
	tests := []struct {
		name        string
		query       string
		topK        int
		constraints map[string]constraint.Constraint
		field       string
	}{
		{"empty query", "", 5, nil, "query"},
		{"whitespace query", " \t", 5, nil, "query"},
		{"negative top_k", "q", -3, nil, "top_k"},
		{"empty key", "q", 5, map[string]constraint.Constraint{"": mustEqual(t)}, "constraints"},
		{"zero constraint", "q", 5, map[string]constraint.Constraint{"k": bad}, "constraints.k.constraint_type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.query, tt.topK, tt.constraints)
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

func mustEqual(t *testing.T) constraint.Constraint {
	t.Helper()
	c, err := constraint.NewEqualTo(scalar.Str, "v")
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestParams_EqualAndString(t *testing.T) {
	c1 := mustEqual(t)
	c2, _ := constraint.NewAnyOf(scalar.Int, []int{1, 2})

	a, _ := New("q", 3, map[string]constraint.Constraint{"b": c2, "a": c1})
	b, _ := New("q", 3, map[string]constraint.Constraint{"a": c1, "b": c2})
	if !a.Equal(b) {
		t.Error("params with same constraints should be equal")
	}
	other, _ := New("q", 4, map[string]constraint.Constraint{"a": c1, "b": c2})
	if a.Equal(other) {
		t.Error("different top_k should not be equal")
	}

	s := a.String()
	if !strings.Contains(s, `a=EqualTo[str]("v")`) || strings.Index(s, "a=") > strings.Index(s, "b=") {
		t.Errorf("String() = %s", s)
	}
}

func TestParams_ConstraintsCopy(t *testing.T) {
	in := map[string]constraint.Constraint{"k": mustEqual(t)}
	p, _ := New("q", 1, in)
	delete(in, "k")
	got := p.Constraints()
	if len(got) != 1 {
		t.Fatalf("input mutation leaked: %v", got)
	}
	delete(got, "k")
	if len(p.Constraints()) != 1 {
		t.Error("output mutation leaked")
	}
}
