package ndb

import (
	"fmt"

	"github.com/ThirdAILabs/ndb-client/internal/domain/constraint"
	"github.com/ThirdAILabs/ndb-client/internal/wire"
)

// Entity lists the value types Encode and Decode understand.
type Entity interface {
	Constraint | SearchParams | Reference | SearchResponse | DocumentMetadata |
		DeleteParams | UpvoteParams | Source | []Source | CheckpointResult
}

// Encode serializes a value of this package into its wire JSON.
// The value is validated first; a zero SearchParams, for example, fails with ErrSchema.
func Encode[T Entity](v T) ([]byte, error) {
	switch x := any(v).(type) {
	case Constraint:
		return x.MarshalJSON()
	case SearchParams:
		return wire.EncodeSearchParams(x)
	case Reference:
		return wire.EncodeReference(x)
	case SearchResponse:
		return wire.EncodeSearchResponse(x)
	case DocumentMetadata:
		return wire.EncodeDocumentMetadata(x)
	case DeleteParams:
		return wire.EncodeDeleteParams(x)
	case UpvoteParams:
		return wire.EncodeUpvoteParams(x)
	case Source:
		return wire.EncodeSource(x)
	case []Source:
		return wire.EncodeSources(x)
	case CheckpointResult:
		return wire.EncodeCheckpoint(x)
	default:
		return nil, fmt.Errorf("ndb: cannot encode %T", v)
	}
}

// Decode parses wire JSON into T, applying the same validation as the constructors.
func Decode[T Entity](data []byte) (T, error) {
	var zero T
	var (
		out any
		err error
	)
	switch any(zero).(type) {
	case Constraint:
		out, err = constraint.Decode(data)
	case SearchParams:
		out, err = wire.DecodeSearchParams(data)
	case Reference:
		out, err = wire.DecodeReference(data)
	case SearchResponse:
		out, err = wire.DecodeSearchResponse(data)
	case DocumentMetadata:
		out, err = wire.DecodeDocumentMetadata(data)
	case DeleteParams:
		out, err = wire.DecodeDeleteParams(data)
	case UpvoteParams:
		out, err = wire.DecodeUpvoteParams(data)
	case Source:
		out, err = wire.DecodeSource(data)
	case []Source:
		out, err = wire.DecodeSources(data)
	case CheckpointResult:
		out, err = wire.DecodeCheckpoint(data)
	default:
		return zero, fmt.Errorf("ndb: cannot decode %T", zero)
	}
	if err != nil {
		return zero, err
	}
	return out.(T), nil
}
