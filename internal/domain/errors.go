package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSchema signals a value that does not match the NDB wire schema,
	// either a request built by the caller or a response sent by the server.
	ErrSchema = errors.New("schema error")
	// ErrTransport signals a network failure or a non-success HTTP status.
	ErrTransport = errors.New("transport error")
)

// SchemaError describes which field failed validation and why.
type SchemaError struct {
	Field    string // dotted wire path, e.g. constraints.k1.value[2]; empty for the root value
	Expected string
	Got      string
	Err      error // optional cause (decoder error)
}

// NewSchemaError creates a SchemaError for a single field.
func NewSchemaError(field, expected, got string) error {
	return &SchemaError{Field: field, Expected: expected, Got: got}
}

// SchemaErrorf creates a SchemaError whose Got part is formatted.
func SchemaErrorf(field, expected, format string, args ...any) error {
	return &SchemaError{Field: field, Expected: expected, Got: fmt.Sprintf(format, args...)}
}

func (e *SchemaError) Error() string {
	b := &strings.Builder{}
	b.WriteString(ErrSchema.Error())
	if e.Field != "" {
		fmt.Fprintf(b, ": field %q", e.Field)
	}
	if e.Expected != "" {
		fmt.Fprintf(b, ": expected %s", e.Expected)
	}
	if e.Got != "" {
		fmt.Fprintf(b, ", got %s", e.Got)
	}
	return b.String()
}

// Is reports ErrSchema so callers can use errors.Is without knowing the concrete type.
func (e *SchemaError) Is(target error) bool { return target == ErrSchema }

func (e *SchemaError) Unwrap() error { return e.Err }

// PrefixField re-roots a SchemaError under the given parent path.
// Non-schema errors are returned unchanged.
func PrefixField(prefix string, err error) error {
	var se *SchemaError
	if prefix == "" || !errors.As(err, &se) {
		return err
	}
	out := *se
	out.Field = JoinField(prefix, se.Field)
	return &out
}

// JoinField appends child to parent using dots, except for index suffixes like [3].
func JoinField(parent, child string) string {
	switch {
	case parent == "":
		return child
	case child == "":
		return parent
	case strings.HasPrefix(child, "["):
		return parent + child
	default:
		return parent + "." + child
	}
}

// IndexField formats the path of a sequence element.
func IndexField(parent string, i int) string {
	return fmt.Sprintf("%s[%d]", parent, i)
}

// TransportError carries the outcome of a failed HTTP exchange.
// StatusCode is zero when no response was received.
type TransportError struct {
	Method     string
	URL        string
	StatusCode int
	Body       []byte
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		body := strings.TrimSpace(string(e.Body))
		if body == "" {
			return fmt.Sprintf("%s: %s %s: status %d", ErrTransport.Error(), e.Method, e.URL, e.StatusCode)
		}
		return fmt.Sprintf("%s: %s %s: status %d: %s", ErrTransport.Error(), e.Method, e.URL, e.StatusCode, body)
	}
	return fmt.Sprintf("%s: %s %s: %v", ErrTransport.Error(), e.Method, e.URL, e.Err)
}

// Is reports ErrTransport so callers can use errors.Is without knowing the concrete type.
func (e *TransportError) Is(target error) bool { return target == ErrTransport }

func (e *TransportError) Unwrap() error { return e.Err }
