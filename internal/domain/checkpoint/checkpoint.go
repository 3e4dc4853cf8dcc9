// Package checkpoint models the server's answer to a checkpoint request.
package checkpoint

import "github.com/ThirdAILabs/ndb-client/internal/domain"

// Result reports the checkpoint version after the call and whether a new one was written.
type Result struct {
	version       int
	newCheckpoint bool
}

// New validates and creates a Result.
func New(version int, newCheckpoint bool) (Result, error) {
	r := Result{version: version, newCheckpoint: newCheckpoint}
	if err := r.Validate(); err != nil {
		return Result{}, err
	}
	return r, nil
}

// Validate rejects negative versions.
func (r Result) Validate() error {
	if r.version < 0 {
		return domain.SchemaErrorf("version", "non-negative integer", "%d", r.version)
	}
	return nil
}

// Version returns the current checkpoint version.
func (r Result) Version() int { return r.version }

// NewCheckpoint reports whether the call created a checkpoint (false when nothing changed).
func (r Result) NewCheckpoint() bool { return r.newCheckpoint }
