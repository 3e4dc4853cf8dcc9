package source

import (
	"errors"
	"testing"

	"github.com/ThirdAILabs/ndb-client/internal/domain"
)

func TestNew(t *testing.T) {
	s, err := New("report.pdf", "abc", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Name() != "report.pdf" || s.SourceID() != "abc" || s.Version() != 3 {
		t.Errorf("source = %v", s)
	}
	if s.String() != "abc (report.pdf) v3" {
		t.Errorf("String() = %q", s.String())
	}
}

func TestNew_EmptyID(t *testing.T) {
	_, err := New("report.pdf", "", 1)
	var se *domain.SchemaError
	if !errors.As(err, &se) || se.Field != "source_id" {
		t.Errorf("err = %v, want source_id SchemaError", err)
	}
}
