package document

import "github.com/ThirdAILabs/ndb-client/internal/domain"

// DeleteParams lists the sources to remove.
type DeleteParams struct {
	sourceIDs []string
}

// NewDeleteParams validates and creates DeleteParams. An empty list is allowed.
func NewDeleteParams(sourceIDs []string) (DeleteParams, error) {
	p := DeleteParams{sourceIDs: cloneStrings(sourceIDs)}
	if err := p.Validate(); err != nil {
		return DeleteParams{}, err
	}
	return p, nil
}

// Validate rejects empty ids.
func (p DeleteParams) Validate() error {
	for i, id := range p.sourceIDs {
		if id == "" {
			return domain.NewSchemaError(domain.IndexField("source_ids", i), "source id", "empty")
		}
	}
	return nil
}

// SourceIDs returns a copy of the ids in the given order.
func (p DeleteParams) SourceIDs() []string { return cloneStrings(p.sourceIDs) }
