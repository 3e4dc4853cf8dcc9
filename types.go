package ndb

import (
	"bytes"

	json "github.com/goccy/go-json"

	"github.com/ThirdAILabs/ndb-client/internal/domain/checkpoint"
	"github.com/ThirdAILabs/ndb-client/internal/domain/constraint"
	"github.com/ThirdAILabs/ndb-client/internal/domain/document"
	"github.com/ThirdAILabs/ndb-client/internal/domain/feedback"
	"github.com/ThirdAILabs/ndb-client/internal/domain/scalar"
	"github.com/ThirdAILabs/ndb-client/internal/domain/search/request"
	"github.com/ThirdAILabs/ndb-client/internal/domain/search/result"
	"github.com/ThirdAILabs/ndb-client/internal/domain/source"
)

// DType is the declared type of a metadata value: int, float, bool or str.
type DType = scalar.DType

// Supported dtypes.
const (
	Int   DType = scalar.Int
	Float DType = scalar.Float
	Bool  DType = scalar.Bool
	Str   DType = scalar.Str
)

// Value is one scalar tagged with its dtype.
type Value = scalar.Value

// ConstraintKind is the constraint_type discriminator.
type ConstraintKind = constraint.Kind

// Constraint kinds.
const (
	KindAnyOf       ConstraintKind = constraint.AnyOf
	KindEqualTo     ConstraintKind = constraint.EqualTo
	KindSubstring   ConstraintKind = constraint.Substring
	KindLessThan    ConstraintKind = constraint.LessThan
	KindGreaterThan ConstraintKind = constraint.GreaterThan
)

// Constraint restricts one metadata field of a search. Switch on Kind() to inspect it.
type Constraint = constraint.Constraint

type (
	// SearchParams is a validated search request.
	SearchParams = request.Params
	// Reference is one retrieved passage.
	Reference = result.Reference
	// SearchResponse holds the references in server rank order.
	SearchResponse = result.Response
	// DocumentMetadata describes a local file to ingest.
	DocumentMetadata = document.Metadata
	// DeleteParams lists source ids to remove.
	DeleteParams = document.DeleteParams
	// QueryIDPair marks a reference as relevant for a query.
	QueryIDPair = feedback.QueryIDPair
	// UpvoteParams is an ordered batch of QueryIDPair.
	UpvoteParams = feedback.UpvoteParams
	// Source is one ingested document tracked by the server.
	Source = source.Source
	// CheckpointResult is the answer to Client.Checkpoint.
	CheckpointResult = checkpoint.Result
)

// DefaultTopK is the number of references requested when topK is zero.
const DefaultTopK = request.DefaultTopK

// IntValue, FloatValue, BoolValue and StrValue build scalars of a fixed dtype.
func IntValue(v int64) Value     { return scalar.IntValue(v) }
func FloatValue(v float64) Value { return scalar.FloatValue(v) }
func BoolValue(v bool) Value     { return scalar.BoolValue(v) }
func StrValue(v string) Value    { return scalar.StrValue(v) }

// ValueOf converts a Go scalar (any int, float, bool or string kind) into a Value.
func ValueOf(v any) (Value, error) { return scalar.Of(v) }

// ParseDType validates a dtype name.
func ParseDType(s string) (DType, error) { return scalar.ParseDType(s) }

// NewConstraint builds a constraint of any kind. AnyOf takes a slice, every other kind one scalar.
func NewConstraint(kind ConstraintKind, dtype DType, value any) (Constraint, error) {
	return constraint.New(kind, dtype, value)
}

// AnyOf matches fields equal to one of values (a slice of dtype-compatible scalars).
func AnyOf(dtype DType, values any) (Constraint, error) { return constraint.NewAnyOf(dtype, values) }

// EqualTo matches fields equal to value.
func EqualTo(dtype DType, value any) (Constraint, error) { return constraint.NewEqualTo(dtype, value) }

// Substring matches fields containing value.
func Substring(dtype DType, value any) (Constraint, error) { return constraint.NewSubstring(dtype, value) }

// LessThan matches fields below value.
func LessThan(dtype DType, value any) (Constraint, error) { return constraint.NewLessThan(dtype, value) }

// GreaterThan matches fields above value.
func GreaterThan(dtype DType, value any) (Constraint, error) {
	return constraint.NewGreaterThan(dtype, value)
}

// NewSearchParams validates a search request. topK=0 selects DefaultTopK.
func NewSearchParams(query string, topK int, constraints map[string]Constraint) (SearchParams, error) {
	return request.New(query, topK, constraints)
}

// NewReference builds a reference; mostly useful for tests and fakes.
func NewReference(
	id uint64, text, src, sourceID string, metadata map[string]Value, score float64,
) (Reference, error) {
	return result.NewReference(id, text, src, sourceID, metadata, score)
}

// NewSearchResponse builds a response keeping the reference order.
func NewSearchResponse(queryText string, references []Reference) (SearchResponse, error) {
	return result.NewResponse(queryText, references)
}

// NewDeleteParams validates the ids to delete. No ids is allowed.
func NewDeleteParams(sourceIDs ...string) (DeleteParams, error) {
	return document.NewDeleteParams(sourceIDs)
}

// NewQueryIDPair pairs a query with a relevant reference id.
func NewQueryIDPair(queryID, referenceID uint64) QueryIDPair {
	return feedback.NewQueryIDPair(queryID, referenceID)
}

// NewUpvoteParams collects pairs in order.
func NewUpvoteParams(pairs ...QueryIDPair) UpvoteParams { return feedback.NewUpvoteParams(pairs...) }

// NewSource builds a source record.
func NewSource(name, sourceID string, version uint32) (Source, error) {
	return source.New(name, sourceID, version)
}

// NewCheckpointResult builds a checkpoint result.
func NewCheckpointResult(version int, newCheckpoint bool) (CheckpointResult, error) {
	return checkpoint.New(version, newCheckpoint)
}

// Raw is a pass-through response body: a syntactically valid JSON document
// whose shape the client does not interpret.
type Raw []byte

// MarshalJSON returns the document as-is.
func (r Raw) MarshalJSON() ([]byte, error) {
	if len(r) == 0 {
		return []byte("null"), nil
	}
	return r, nil
}

// Unmarshal decodes the document into v.
func (r Raw) Unmarshal(v any) error {
	return json.Unmarshal(r, v)
}

// Map decodes an object body; non-object documents return an error.
func (r Raw) Map() (map[string]any, error) {
	var m map[string]any
	if err := json.Unmarshal(r, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// Equal compares two documents byte-wise after trimming whitespace.
func (r Raw) Equal(o Raw) bool { return bytes.Equal(bytes.TrimSpace(r), bytes.TrimSpace(o)) }

func (r Raw) String() string { return string(r) }
