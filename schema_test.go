package ndb

import (
	"errors"
	"reflect"
	"testing"
)

func roundTrip[T Entity](t *testing.T, v T) T {
	t.Helper()
	data, err := Encode(v)
	if err != nil {
		t.Fatalf("Encode(%T): %v", v, err)
	}
	got, err := Decode[T](data)
	if err != nil {
		t.Fatalf("Decode[%T](%s): %v", v, data, err)
	}
	return got
}

func TestRoundTrip_AllEntities(t *testing.T) {
	anyOf, _ := AnyOf(Str, []string{"a", "b"})
	lt, _ := LessThan(Float, 10)
	params, err := NewSearchParams("find me", 3, map[string]Constraint{"tag": anyOf, "price": lt})
	if err != nil {
		t.Fatal(err)
	}
	if got := roundTrip(t, params); !got.Equal(params) {
		t.Errorf("SearchParams = %v, want %v", got, params)
	}
	if got := roundTrip(t, anyOf); !got.Equal(anyOf) {
		t.Errorf("Constraint = %v, want %v", got, anyOf)
	}

	ref, err := NewReference(9, "text", "doc.pdf", "sid", map[string]Value{
		"n": IntValue(-4), "f": FloatValue(0.5), "b": BoolValue(false), "s": StrValue("x"),
	}, 0.75)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := NewSearchResponse("find me", []Reference{ref, ref})
	if err != nil {
		t.Fatal(err)
	}
	meta, err := NewDocumentMetadata("data/in.csv", []string{"body"},
		WithSourceID("in"), WithTypedDocMetadata("rating", FloatValue(4)))
	if err != nil {
		t.Fatal(err)
	}
	del, _ := NewDeleteParams("x", "y")
	up := NewUpvoteParams(NewQueryIDPair(3, 4))
	src, _ := NewSource("pdf", "doc", 7)
	cp, _ := NewCheckpointResult(2, false)

	check := func(name string, got, want any) {
		t.Helper()
		if !reflect.DeepEqual(got, want) {
			t.Errorf("%s round trip = %+v, want %+v", name, got, want)
		}
	}
	check("Reference", roundTrip(t, ref), ref)
	check("SearchResponse", roundTrip(t, resp), resp)
	check("DocumentMetadata", roundTrip(t, meta), meta)
	check("DeleteParams", roundTrip(t, del), del)
	check("UpvoteParams", roundTrip(t, up), up)
	check("Source", roundTrip(t, src), src)
	check("[]Source", roundTrip(t, []Source{src}), []Source{src})
	check("CheckpointResult", roundTrip(t, cp), cp)
}

func TestDecode_ConstraintDiscriminator(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"unknown tag", `{"constraint_type":"Between","value":1,"dtype":"int"}`},
		{"missing tag", `{"value":1,"dtype":"int"}`},
		{"unknown dtype", `{"constraint_type":"EqualTo","value":1,"dtype":"decimal"}`},
		{"scalar given sequence", `{"constraint_type":"EqualTo","value":[1],"dtype":"int"}`},
		{"any_of given scalar", `{"constraint_type":"AnyOf","value":1,"dtype":"int"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode[Constraint]([]byte(tt.input))
			var se *SchemaError
			if !errors.As(err, &se) {
				t.Errorf("err = %v, want *SchemaError", err)
			}
		})
	}
}

func TestEncode_InvalidValue(t *testing.T) {
	if _, err := Encode(SearchParams{}); !errors.Is(err, ErrSchema) {
		t.Errorf("zero SearchParams err = %v", err)
	}
	if _, err := Encode(Constraint{}); !errors.Is(err, ErrSchema) {
		t.Errorf("zero Constraint err = %v", err)
	}
	if _, err := Encode(DocumentMetadata{}); !errors.Is(err, ErrSchema) {
		t.Errorf("zero DocumentMetadata err = %v", err)
	}
}

func TestConstraint_DTypeMismatch(t *testing.T) {
	tests := []struct {
		name  string
		build func() (Constraint, error)
	}{
		{"int given text", func() (Constraint, error) { return EqualTo(Int, "abc") }},
		{"bool given int", func() (Constraint, error) { return GreaterThan(Bool, 1) }},
		{"str given float", func() (Constraint, error) { return Substring(Str, 1.5) }},
		{"mixed any_of", func() (Constraint, error) { return AnyOf(Int, []any{1, "two"}) }},
		{"scalar kind given slice", func() (Constraint, error) { return LessThan(Int, []int{1}) }},
		{"unknown dtype", func() (Constraint, error) { return EqualTo(DType("date"), "2020") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.build(); !errors.Is(err, ErrSchema) {
				t.Errorf("err = %v, want ErrSchema", err)
			}
		})
	}

	c, err := EqualTo(Float, 3)
	if err != nil {
		t.Fatalf("int widens to float: %v", err)
	}
	if c.DType() != Float || c.Scalar().DType() != Float {
		t.Errorf("widened constraint = %v", c)
	}
}
