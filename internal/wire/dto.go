package wire

import (
	json "github.com/goccy/go-json"

	"github.com/ThirdAILabs/ndb-client/internal/domain/constraint"
	"github.com/ThirdAILabs/ndb-client/internal/domain/scalar"
)

// Inbound DTOs use pointers so a missing field is distinguishable from a zero value;
// the validator's required tag rejects nil pointers and nil slices/maps.

type searchParamsIn struct {
	Query       *string                    `json:"query" validate:"required"`
	TopK        *int                       `json:"top_k" validate:"omitempty,min=1"`
	Constraints map[string]json.RawMessage `json:"constraints"`
}

type referenceIn struct {
	ID       *uint64                    `json:"id" validate:"required"`
	Text     *string                    `json:"text" validate:"required"`
	Source   *string                    `json:"source" validate:"required"`
	SourceID *string                    `json:"source_id" validate:"required"`
	Metadata map[string]json.RawMessage `json:"metadata" validate:"required"`
	Score    *float64                   `json:"score" validate:"required"`
}

type searchResponseIn struct {
	QueryText  *string           `json:"query_text" validate:"required"`
	References []json.RawMessage `json:"references" validate:"required"`
}

type documentMetadataIn struct {
	Filename      *string                    `json:"filename" validate:"required"`
	SourceID      *string                    `json:"source_id"`
	TextColumns   []string                   `json:"text_columns" validate:"required"`
	MetadataTypes map[string]string          `json:"metadata_types" validate:"dive,oneof=int float bool str"`
	DocMetadata   map[string]json.RawMessage `json:"doc_metadata"`
}

type deleteParamsIn struct {
	SourceIDs []string `json:"source_ids" validate:"required"`
}

type queryIDPairIn struct {
	QueryID     *uint64 `json:"query_id" validate:"required"`
	ReferenceID *uint64 `json:"reference_id" validate:"required"`
}

type upvoteParamsIn struct {
	QueryIDPairs []queryIDPairIn `json:"query_id_pairs" validate:"required,dive"`
}

type sourceIn struct {
	Source   *string `json:"source" validate:"required"`
	SourceID *string `json:"source_id" validate:"required"`
	Version  *uint32 `json:"version" validate:"required"`
}

type checkpointIn struct {
	Version       *int  `json:"version" validate:"required"`
	NewCheckpoint *bool `json:"new_checkpoint" validate:"required"`
}

// Outbound DTOs keep the wire field order and always emit collections, never null.

type searchParamsOut struct {
	Query       string                           `json:"query"`
	TopK        int                              `json:"top_k"`
	Constraints map[string]constraint.Constraint `json:"constraints"`
}

type referenceOut struct {
	ID       uint64                  `json:"id"`
	Text     string                  `json:"text"`
	Source   string                  `json:"source"`
	SourceID string                  `json:"source_id"`
	Metadata map[string]scalar.Value `json:"metadata"`
	Score    float64                 `json:"score"`
}

type searchResponseOut struct {
	QueryText  string         `json:"query_text"`
	References []referenceOut `json:"references"`
}

type documentMetadataOut struct {
	Filename      string                  `json:"filename"`
	SourceID      *string                 `json:"source_id"`
	TextColumns   []string                `json:"text_columns"`
	MetadataTypes map[string]scalar.DType `json:"metadata_types"`
	DocMetadata   map[string]scalar.Value `json:"doc_metadata"`
}

type deleteParamsOut struct {
	SourceIDs []string `json:"source_ids"`
}

type queryIDPairOut struct {
	QueryID     uint64 `json:"query_id"`
	ReferenceID uint64 `json:"reference_id"`
}

type upvoteParamsOut struct {
	QueryIDPairs []queryIDPairOut `json:"query_id_pairs"`
}

type sourceOut struct {
	Source   string `json:"source"`
	SourceID string `json:"source_id"`
	Version  uint32 `json:"version"`
}

type checkpointOut struct {
	Version       int  `json:"version"`
	NewCheckpoint bool `json:"new_checkpoint"`
}
