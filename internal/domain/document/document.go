package document

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/ThirdAILabs/ndb-client/internal/domain"
	"github.com/ThirdAILabs/ndb-client/internal/domain/scalar"
)

// Metadata describes one local document to ingest (immutable value object).
type Metadata struct {
	filename      string
	sourceID      *string
	textColumns   []string
	metadataTypes map[string]scalar.DType
	docMetadata   map[string]scalar.Value
}

// New validates and creates document Metadata.
// filename is required; sourceID may be nil (the server assigns one) but not empty.
// Types in metadataTypes tell the server how to parse columns; they are not
// cross-checked against docMetadata here.
func New(
	filename string, sourceID *string, textColumns []string,
	metadataTypes map[string]scalar.DType, docMetadata map[string]scalar.Value,
) (Metadata, error) {
	m := Metadata{
		filename:      filename,
		sourceID:      cloneString(sourceID),
		textColumns:   cloneStrings(textColumns),
		metadataTypes: cloneTypes(metadataTypes),
		docMetadata:   scalar.CloneMap(docMetadata),
	}
	if err := m.Validate(); err != nil {
		return Metadata{}, err
	}
	return m, nil
}

// Validate checks the invariants New enforces.
func (m Metadata) Validate() error {
	if strings.TrimSpace(m.filename) == "" {
		return domain.NewSchemaError("filename", "file path", "empty")
	}
	if m.sourceID != nil && *m.sourceID == "" {
		return domain.NewSchemaError("source_id", "non-empty id or null", "empty string")
	}
	for i, col := range m.textColumns {
		if col == "" {
			return domain.NewSchemaError(domain.IndexField("text_columns", i), "column name", "empty")
		}
	}
	for col, d := range m.metadataTypes {
		if col == "" {
			return domain.NewSchemaError("metadata_types", "column name", "empty key")
		}
		if !d.Valid() {
			return domain.SchemaErrorf("metadata_types."+col, "one of int, float, bool, str", "%q", string(d))
		}
	}
	if err := scalar.ValidateMap(m.docMetadata); err != nil {
		return domain.PrefixField("doc_metadata", err)
	}
	return nil
}

// Filename returns the local path of the document content.
func (m Metadata) Filename() string { return m.filename }

// BaseName returns the file name without directories, as sent in the upload part.
func (m Metadata) BaseName() string { return filepath.Base(m.filename) }

// SourceID returns the requested source id and whether one was set.
func (m Metadata) SourceID() (string, bool) {
	if m.sourceID == nil {
		return "", false
	}
	return *m.sourceID, true
}

// TextColumns returns a copy of the columns indexed as text, in order.
func (m Metadata) TextColumns() []string { return cloneStrings(m.textColumns) }

// MetadataTypes returns a copy of the declared column types.
func (m Metadata) MetadataTypes() map[string]scalar.DType { return cloneTypes(m.metadataTypes) }

// DocMetadata returns a copy of the metadata attached to the whole document.
func (m Metadata) DocMetadata() map[string]scalar.Value { return scalar.CloneMap(m.docMetadata) }

// UntypedKeys lists doc_metadata keys that have no declared type in metadata_types.
// The server is authoritative; this is only a hint for callers that want type-checking.
func (m Metadata) UntypedKeys() []string {
	var keys []string
	for k := range m.docMetadata {
		if _, ok := m.metadataTypes[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

func cloneStrings(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	c := make([]string, len(s))
	copy(c, s)
	return c
}

func cloneTypes(m map[string]scalar.DType) map[string]scalar.DType {
	if len(m) == 0 {
		return nil
	}
	c := make(map[string]scalar.DType, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}
