// Package wire converts domain values to and from the NDB JSON wire format.
//
// Decoding goes in two steps: the payload is unmarshalled into a DTO whose
// pointer fields make missing keys visible to struct-tag validation, then the
// DTO is handed to the domain constructor so every decoded value satisfies the
// same invariants as one built in code.
package wire

import (
	"bytes"
	"errors"
	"reflect"
	"sort"

	json "github.com/goccy/go-json"

	"github.com/ThirdAILabs/ndb-client/internal/domain"
	"github.com/ThirdAILabs/ndb-client/internal/domain/checkpoint"
	"github.com/ThirdAILabs/ndb-client/internal/domain/constraint"
	"github.com/ThirdAILabs/ndb-client/internal/domain/document"
	"github.com/ThirdAILabs/ndb-client/internal/domain/feedback"
	"github.com/ThirdAILabs/ndb-client/internal/domain/scalar"
	"github.com/ThirdAILabs/ndb-client/internal/domain/search/request"
	"github.com/ThirdAILabs/ndb-client/internal/domain/search/result"
	"github.com/ThirdAILabs/ndb-client/internal/domain/source"
)

// --- search params ---

// EncodeSearchParams serializes {query, top_k, constraints}.
func EncodeSearchParams(p request.Params) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	constraints := p.Constraints()
	if constraints == nil {
		constraints = map[string]constraint.Constraint{}
	}
	return json.Marshal(searchParamsOut{Query: p.Query(), TopK: p.TopK(), Constraints: constraints})
}

// DecodeSearchParams parses search parameters; a missing top_k means the default.
func DecodeSearchParams(data []byte) (request.Params, error) {
	var dto searchParamsIn
	if err := decodeObject(data, &dto); err != nil {
		return request.Params{}, err
	}
	constraints, err := decodeConstraints(dto.Constraints)
	if err != nil {
		return request.Params{}, err
	}
	topK := 0
	if dto.TopK != nil {
		topK = *dto.TopK
	}
	return request.New(*dto.Query, topK, constraints)
}

func decodeConstraints(raw map[string]json.RawMessage) (map[string]constraint.Constraint, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(map[string]constraint.Constraint, len(raw))
	for _, key := range sortedKeys(raw) {
		c, err := constraint.Decode(raw[key])
		if err != nil {
			return nil, domain.PrefixField("constraints."+key, err)
		}
		out[key] = c
	}
	return out, nil
}

// --- search response ---

// EncodeReference serializes one reference.
func EncodeReference(r result.Reference) ([]byte, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(referenceOutOf(r))
}

// DecodeReference parses one reference.
func DecodeReference(data []byte) (result.Reference, error) {
	var dto referenceIn
	if err := decodeObject(data, &dto); err != nil {
		return result.Reference{}, err
	}
	return dto.toDomain()
}

// EncodeSearchResponse serializes {query_text, references}, keeping reference order.
func EncodeSearchResponse(r result.Response) ([]byte, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	refs := r.References()
	out := searchResponseOut{QueryText: r.QueryText(), References: make([]referenceOut, len(refs))}
	for i, ref := range refs {
		out.References[i] = referenceOutOf(ref)
	}
	return json.Marshal(out)
}

// DecodeSearchResponse parses a search response. References stay in server order.
func DecodeSearchResponse(data []byte) (result.Response, error) {
	var dto searchResponseIn
	if err := decodeObject(data, &dto); err != nil {
		return result.Response{}, err
	}
	refs := make([]result.Reference, len(dto.References))
	for i, raw := range dto.References {
		ref, err := DecodeReference(raw)
		if err != nil {
			return result.Response{}, domain.PrefixField(domain.IndexField("references", i), err)
		}
		refs[i] = ref
	}
	return result.NewResponse(*dto.QueryText, refs)
}

func (in referenceIn) toDomain() (result.Reference, error) {
	metadata, err := decodeScalarMap(in.Metadata)
	if err != nil {
		return result.Reference{}, domain.PrefixField("metadata", err)
	}
	return result.NewReference(*in.ID, *in.Text, *in.Source, *in.SourceID, metadata, *in.Score)
}

func referenceOutOf(r result.Reference) referenceOut {
	metadata := r.Metadata()
	if metadata == nil {
		metadata = map[string]scalar.Value{}
	}
	return referenceOut{
		ID:       r.ID(),
		Text:     r.Text(),
		Source:   r.Source(),
		SourceID: r.SourceID(),
		Metadata: metadata,
		Score:    r.Score(),
	}
}

// --- document metadata ---

// EncodeDocumentMetadata serializes the insert metadata part. A missing source id is sent as null.
func EncodeDocumentMetadata(m document.Metadata) ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	out := documentMetadataOut{
		Filename:      m.Filename(),
		TextColumns:   m.TextColumns(),
		MetadataTypes: m.MetadataTypes(),
		DocMetadata:   m.DocMetadata(),
	}
	if id, ok := m.SourceID(); ok {
		out.SourceID = &id
	}
	if out.TextColumns == nil {
		out.TextColumns = []string{}
	}
	if out.MetadataTypes == nil {
		out.MetadataTypes = map[string]scalar.DType{}
	}
	if out.DocMetadata == nil {
		out.DocMetadata = map[string]scalar.Value{}
	}
	return json.Marshal(out)
}

// DecodeDocumentMetadata parses document metadata.
func DecodeDocumentMetadata(data []byte) (document.Metadata, error) {
	var dto documentMetadataIn
	if err := decodeObject(data, &dto); err != nil {
		return document.Metadata{}, err
	}
	var types map[string]scalar.DType
	if len(dto.MetadataTypes) > 0 {
		types = make(map[string]scalar.DType, len(dto.MetadataTypes))
		for col, name := range dto.MetadataTypes {
			types[col] = scalar.DType(name)
		}
	}
	docMetadata, err := decodeScalarMap(dto.DocMetadata)
	if err != nil {
		return document.Metadata{}, domain.PrefixField("doc_metadata", err)
	}
	return document.New(*dto.Filename, dto.SourceID, dto.TextColumns, types, docMetadata)
}

// --- delete / upvote ---

// EncodeDeleteParams serializes {source_ids}.
func EncodeDeleteParams(p document.DeleteParams) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	ids := p.SourceIDs()
	if ids == nil {
		ids = []string{}
	}
	return json.Marshal(deleteParamsOut{SourceIDs: ids})
}

// DecodeDeleteParams parses {source_ids}.
func DecodeDeleteParams(data []byte) (document.DeleteParams, error) {
	var dto deleteParamsIn
	if err := decodeObject(data, &dto); err != nil {
		return document.DeleteParams{}, err
	}
	return document.NewDeleteParams(dto.SourceIDs)
}

// EncodeUpvoteParams serializes {query_id_pairs}, keeping pair order.
func EncodeUpvoteParams(p feedback.UpvoteParams) ([]byte, error) {
	pairs := p.Pairs()
	out := upvoteParamsOut{QueryIDPairs: make([]queryIDPairOut, len(pairs))}
	for i, pair := range pairs {
		out.QueryIDPairs[i] = queryIDPairOut{QueryID: pair.QueryID(), ReferenceID: pair.ReferenceID()}
	}
	return json.Marshal(out)
}

// DecodeUpvoteParams parses {query_id_pairs}.
func DecodeUpvoteParams(data []byte) (feedback.UpvoteParams, error) {
	var dto upvoteParamsIn
	if err := decodeObject(data, &dto); err != nil {
		return feedback.UpvoteParams{}, err
	}
	pairs := make([]feedback.QueryIDPair, len(dto.QueryIDPairs))
	for i, in := range dto.QueryIDPairs {
		pairs[i] = feedback.NewQueryIDPair(*in.QueryID, *in.ReferenceID)
	}
	return feedback.NewUpvoteParams(pairs...), nil
}

// --- sources ---

// EncodeSource serializes one source record.
func EncodeSource(s source.Source) ([]byte, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(sourceOutOf(s))
}

// DecodeSource parses one source record.
func DecodeSource(data []byte) (source.Source, error) {
	var dto sourceIn
	if err := decodeObject(data, &dto); err != nil {
		return source.Source{}, err
	}
	return dto.toDomain()
}

// EncodeSources serializes the source list as a JSON array.
func EncodeSources(sources []source.Source) ([]byte, error) {
	out := make([]sourceOut, len(sources))
	for i, s := range sources {
		if err := s.Validate(); err != nil {
			return nil, domain.PrefixField(domain.IndexField("", i), err)
		}
		out[i] = sourceOutOf(s)
	}
	return json.Marshal(out)
}

// DecodeSources parses the GET /sources body, a JSON array of source records.
func DecodeSources(data []byte) ([]source.Source, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '[' {
		return nil, domain.NewSchemaError("", "sequence of sources", scalar.DescribeToken(data))
	}
	var raws []json.RawMessage
	if err := unmarshal(data, &raws); err != nil {
		return nil, err
	}
	out := make([]source.Source, len(raws))
	for i, raw := range raws {
		s, err := DecodeSource(raw)
		if err != nil {
			return nil, domain.PrefixField(domain.IndexField("", i), err)
		}
		out[i] = s
	}
	return out, nil
}

func (in sourceIn) toDomain() (source.Source, error) {
	return source.New(*in.Source, *in.SourceID, *in.Version)
}

func sourceOutOf(s source.Source) sourceOut {
	return sourceOut{Source: s.Name(), SourceID: s.SourceID(), Version: s.Version()}
}

// --- checkpoint ---

// EncodeCheckpoint serializes {version, new_checkpoint}.
func EncodeCheckpoint(r checkpoint.Result) ([]byte, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(checkpointOut{Version: r.Version(), NewCheckpoint: r.NewCheckpoint()})
}

// DecodeCheckpoint parses {version, new_checkpoint}.
func DecodeCheckpoint(data []byte) (checkpoint.Result, error) {
	var dto checkpointIn
	if err := decodeObject(data, &dto); err != nil {
		return checkpoint.Result{}, err
	}
	return checkpoint.New(*dto.Version, *dto.NewCheckpoint)
}

// --- pass-through ---

// CheckRaw accepts any syntactically valid JSON document and returns a trimmed copy.
func CheckRaw(data []byte) ([]byte, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, domain.NewSchemaError("", "JSON document", "empty body")
	}
	if !json.Valid(data) {
		return nil, domain.NewSchemaError("", "JSON document", "malformed JSON")
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// --- helpers ---

// decodeObject unmarshals a JSON object into dto and validates its tags.
func decodeObject(data []byte, dto any) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return domain.NewSchemaError("", "object", scalar.DescribeToken(data))
	}
	if err := unmarshal(data, dto); err != nil {
		return err
	}
	return validateDTO(dto)
}

// unmarshal decodes data into v. A well-formed document the decoder still
// rejects is walked against v's type to name the offending wire field.
func unmarshal(data []byte, v any) error {
	err := json.Unmarshal(data, v)
	if err == nil {
		return nil
	}
	if !json.Valid(data) {
		return &domain.SchemaError{Expected: "JSON document", Got: "malformed JSON", Err: err}
	}
	var se *domain.SchemaError
	if errors.As(err, &se) {
		return se
	}
	if found := locateMismatch(reflect.TypeOf(v), data); found != nil {
		found.Err = err
		return found
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Type != nil {
		return &domain.SchemaError{Expected: typeErr.Type.String(), Got: scalar.DescribeToken(data), Err: err}
	}
	return &domain.SchemaError{Expected: "valid document", Got: err.Error(), Err: err}
}

var rawMessageType = reflect.TypeOf(json.RawMessage(nil))

// locateMismatch returns the first field of data that cannot be decoded into t,
// or nil when every field decodes on its own.
func locateMismatch(t reflect.Type, data []byte) *domain.SchemaError {
	for t.Kind() == reflect.Pointer {
		if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
			return nil
		}
		t = t.Elem()
	}
	if t == rawMessageType {
		return nil
	}

	switch t.Kind() {
	case reflect.Struct:
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(data, &fields); err != nil {
			return &domain.SchemaError{Expected: "object", Got: scalar.DescribeToken(data)}
		}
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			name := useJSONFieldNames(f)
			raw, ok := fields[name]
			if name == "" || !ok {
				continue
			}
			if found := locateMismatch(f.Type, raw); found != nil {
				found.Field = domain.JoinField(name, found.Field)
				return found
			}
		}
		return nil
	case reflect.Slice:
		var elems []json.RawMessage
		if err := json.Unmarshal(data, &elems); err != nil {
			return &domain.SchemaError{Expected: "sequence", Got: scalar.DescribeToken(data)}
		}
		for i, elem := range elems {
			if found := locateMismatch(t.Elem(), elem); found != nil {
				found.Field = domain.JoinField(domain.IndexField("", i), found.Field)
				return found
			}
		}
		return nil
	case reflect.Map:
		var entries map[string]json.RawMessage
		if err := json.Unmarshal(data, &entries); err != nil {
			return &domain.SchemaError{Expected: "object", Got: scalar.DescribeToken(data)}
		}
		for _, key := range sortedKeys(entries) {
			if found := locateMismatch(t.Elem(), entries[key]); found != nil {
				found.Field = domain.JoinField(key, found.Field)
				return found
			}
		}
		return nil
	default:
		if err := json.Unmarshal(data, reflect.New(t).Interface()); err != nil {
			return &domain.SchemaError{Expected: t.String(), Got: scalar.DescribeToken(data)}
		}
		return nil
	}
}

func decodeScalarMap(raw map[string]json.RawMessage) (map[string]scalar.Value, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(map[string]scalar.Value, len(raw))
	for _, key := range sortedKeys(raw) {
		var v scalar.Value
		if err := v.UnmarshalJSON(raw[key]); err != nil {
			return nil, domain.PrefixField(key, err)
		}
		out[key] = v
	}
	return out, nil
}

// sortedKeys makes the first reported error deterministic.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
