package request

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ThirdAILabs/ndb-client/internal/domain"
	"github.com/ThirdAILabs/ndb-client/internal/domain/constraint"
)

// DefaultTopK is used when topK is left at zero.
const DefaultTopK = 10

// Params is a validated search query: text, result count and field constraints.
type Params struct {
	query       string
	topK        int
	constraints map[string]constraint.Constraint
}

// New validates and normalizes search parameters.
// topK=0 means DefaultTopK; negative values are rejected.
func New(query string, topK int, constraints map[string]constraint.Constraint) (Params, error) {
	if topK == 0 {
		topK = DefaultTopK
	}
	p := Params{
		query:       query,
		topK:        topK,
		constraints: cloneConstraints(constraints),
	}
	if err := p.Validate(); err != nil {
		return Params{}, err
	}
	return p, nil
}

// Validate checks the invariants New enforces.
func (p Params) Validate() error {
	if strings.TrimSpace(p.query) == "" {
		return domain.NewSchemaError("query", "non-empty text", "empty")
	}
	if p.topK <= 0 {
		return domain.SchemaErrorf("top_k", "positive integer", "%d", p.topK)
	}
	for key, c := range p.constraints {
		if key == "" {
			return domain.NewSchemaError("constraints", "non-empty field name", "empty key")
		}
		if err := c.Validate(); err != nil {
			return domain.PrefixField("constraints."+key, err)
		}
	}
	return nil
}

// Query returns the query text.
func (p Params) Query() string { return p.query }

// TopK returns the number of references requested.
func (p Params) TopK() int { return p.topK }

// Constraints returns a copy of the field constraints (nil when none).
func (p Params) Constraints() map[string]constraint.Constraint {
	return cloneConstraints(p.constraints)
}

// ConstraintKeys returns the constrained field names in sorted order.
func (p Params) ConstraintKeys() []string {
	keys := make([]string, 0, len(p.constraints))
	for k := range p.constraints {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Equal compares two parameter sets; constraint order is irrelevant.
func (p Params) Equal(o Params) bool {
	if p.query != o.query || p.topK != o.topK || len(p.constraints) != len(o.constraints) {
		return false
	}
	for k, c := range p.constraints {
		oc, ok := o.constraints[k]
		if !ok || !c.Equal(oc) {
			return false
		}
	}
	return true
}

func (p Params) String() string {
	parts := make([]string, 0, len(p.constraints))
	for _, k := range p.ConstraintKeys() {
		parts = append(parts, k+"="+p.constraints[k].String())
	}
	return fmt.Sprintf("query=%q top_k=%d constraints={%s}", p.query, p.topK, strings.Join(parts, ", "))
}

func cloneConstraints(m map[string]constraint.Constraint) map[string]constraint.Constraint {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]constraint.Constraint, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
