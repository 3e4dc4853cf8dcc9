package ndb

import "github.com/ThirdAILabs/ndb-client/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrSchema    = domain.ErrSchema
	ErrTransport = domain.ErrTransport
)

// SchemaError names the field that failed validation. Use errors.As() to inspect.
type SchemaError = domain.SchemaError

// TransportError carries the HTTP status and body of a failed exchange.
// StatusCode is zero when the request never got a response.
type TransportError = domain.TransportError
