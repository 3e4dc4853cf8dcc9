package result

import (
	"math"

	"github.com/ThirdAILabs/ndb-client/internal/domain"
	"github.com/ThirdAILabs/ndb-client/internal/domain/scalar"
)

// Reference is a single retrieved passage.
type Reference struct {
	id       uint64
	text     string
	source   string
	sourceID string
	metadata map[string]scalar.Value
	score    float64
}

// NewReference validates and creates a Reference.
func NewReference(
	id uint64, text, source, sourceID string,
	metadata map[string]scalar.Value, score float64,
) (Reference, error) {
	r := Reference{
		id: id, text: text, source: source, sourceID: sourceID,
		metadata: scalar.CloneMap(metadata), score: score,
	}
	if err := r.Validate(); err != nil {
		return Reference{}, err
	}
	return r, nil
}

// Validate checks that the score is finite and metadata holds only scalars.
func (r Reference) Validate() error {
	if math.IsNaN(r.score) || math.IsInf(r.score, 0) {
		return domain.SchemaErrorf("score", "finite float", "%v", r.score)
	}
	if err := scalar.ValidateMap(r.metadata); err != nil {
		return domain.PrefixField("metadata", err)
	}
	return nil
}

// ID returns the chunk identifier, the value upvotes refer to.
func (r Reference) ID() uint64 { return r.id }

// Text returns the passage text.
func (r Reference) Text() string { return r.text }

// Source returns the document name the passage came from.
func (r Reference) Source() string { return r.source }

// SourceID returns the source key.
func (r Reference) SourceID() string { return r.sourceID }

// Metadata returns a copy of the passage metadata.
func (r Reference) Metadata() map[string]scalar.Value { return scalar.CloneMap(r.metadata) }

// Score returns the relevance score.
func (r Reference) Score() float64 { return r.score }

// Response is the server's answer to a search, references in rank order.
type Response struct {
	queryText  string
	references []Reference
}

// NewResponse creates a Response. The reference order is kept as given.
func NewResponse(queryText string, references []Reference) (Response, error) {
	refs := make([]Reference, len(references))
	copy(refs, references)
	resp := Response{queryText: queryText, references: refs}
	if err := resp.Validate(); err != nil {
		return Response{}, err
	}
	return resp, nil
}

// Validate checks every reference.
func (r Response) Validate() error {
	for i, ref := range r.references {
		if err := ref.Validate(); err != nil {
			return domain.PrefixField(domain.IndexField("references", i), err)
		}
	}
	return nil
}

// QueryText returns the query echoed by the server.
func (r Response) QueryText() string { return r.queryText }

// References returns a copy of the references in server order.
func (r Response) References() []Reference {
	out := make([]Reference, len(r.references))
	copy(out, r.references)
	return out
}

// Len returns the number of references.
func (r Response) Len() int { return len(r.references) }
