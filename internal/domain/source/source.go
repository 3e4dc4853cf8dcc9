package source

import (
	"fmt"

	"github.com/ThirdAILabs/ndb-client/internal/domain"
)

// Source is one ingested document as tracked by the server.
// Version is bumped each time the same source_id is re-ingested.
type Source struct {
	source   string
	sourceID string
	version  uint32
}

// New validates and creates a Source.
func New(source, sourceID string, version uint32) (Source, error) {
	s := Source{source: source, sourceID: sourceID, version: version}
	if err := s.Validate(); err != nil {
		return Source{}, err
	}
	return s, nil
}

// Validate requires a source id.
func (s Source) Validate() error {
	if s.sourceID == "" {
		return domain.NewSchemaError("source_id", "non-empty id", "empty")
	}
	return nil
}

// Name returns the source kind or document name.
func (s Source) Name() string { return s.source }

// SourceID returns the unique source key.
func (s Source) SourceID() string { return s.sourceID }

// Version returns the ingestion version.
func (s Source) Version() uint32 { return s.version }

func (s Source) String() string {
	return fmt.Sprintf("%s (%s) v%d", s.sourceID, s.source, s.version)
}
