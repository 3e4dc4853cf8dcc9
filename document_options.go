package ndb

import (
	"github.com/ThirdAILabs/ndb-client/internal/domain"
	"github.com/ThirdAILabs/ndb-client/internal/domain/document"
	"github.com/ThirdAILabs/ndb-client/internal/domain/scalar"
)

// DocumentOption configures document metadata.
type DocumentOption func(*documentConfig)

type documentConfig struct {
	sourceID      *string
	metadataTypes map[string]DType
	docMetadata   map[string]Value
	err           error
}

// WithSourceID sets the source id. Without it the server assigns one.
// Re-inserting an existing id bumps that source's version.
func WithSourceID(id string) DocumentOption {
	return func(c *documentConfig) {
		c.sourceID = &id
	}
}

// WithMetadataType declares the dtype of a column or doc_metadata key.
func WithMetadataType(column string, dtype DType) DocumentOption {
	return func(c *documentConfig) {
		if c.metadataTypes == nil {
			c.metadataTypes = make(map[string]DType)
		}
		c.metadataTypes[column] = dtype
	}
}

// WithDocMetadata attaches a scalar to the whole document.
// value must be an int, float, bool or string kind.
func WithDocMetadata(key string, value any) DocumentOption {
	return func(c *documentConfig) {
		v, err := scalar.Of(value)
		if err != nil {
			if c.err == nil {
				c.err = domain.PrefixField("doc_metadata."+key, err)
			}
			return
		}
		if c.docMetadata == nil {
			c.docMetadata = make(map[string]Value)
		}
		c.docMetadata[key] = v
	}
}

// WithTypedDocMetadata attaches a value and declares its dtype in one step.
func WithTypedDocMetadata(key string, value Value) DocumentOption {
	return func(c *documentConfig) {
		if c.docMetadata == nil {
			c.docMetadata = make(map[string]Value)
		}
		if c.metadataTypes == nil {
			c.metadataTypes = make(map[string]DType)
		}
		c.docMetadata[key] = value
		c.metadataTypes[key] = value.DType()
	}
}

// NewDocumentMetadata validates metadata for Client.Insert.
// filename is the local path whose content is uploaded.
func NewDocumentMetadata(filename string, textColumns []string, opts ...DocumentOption) (DocumentMetadata, error) {
	cfg := &documentConfig{}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.err != nil {
		return DocumentMetadata{}, cfg.err
	}
	return document.New(filename, cfg.sourceID, textColumns, cfg.metadataTypes, cfg.docMetadata)
}
