package ndb

import (
	"context"
	"fmt"

	"github.com/ThirdAILabs/ndb-client/internal/domain"
)

// SearchBuilder is a fluent builder for search queries.
// Constraint errors are kept and reported by Params or Do.
type SearchBuilder struct {
	client      *Client
	query       string
	topK        int
	constraints map[string]Constraint
	err         error
}

// Query starts a search for text.
func (c *Client) Query(text string) *SearchBuilder {
	return &SearchBuilder{client: c, query: text}
}

// TopK sets the number of references to return (default 10).
func (b *SearchBuilder) TopK(n int) *SearchBuilder {
	b.topK = n
	return b
}

// Where constrains field with a prebuilt constraint. A later call for the same field wins.
func (b *SearchBuilder) Where(field string, c Constraint) *SearchBuilder {
	if b.constraints == nil {
		b.constraints = make(map[string]Constraint)
	}
	b.constraints[field] = c
	return b
}

// AnyOf constrains field to one of values.
func (b *SearchBuilder) AnyOf(field string, dtype DType, values any) *SearchBuilder {
	return b.add(field, KindAnyOf, dtype, values)
}

// EqualTo constrains field to value.
func (b *SearchBuilder) EqualTo(field string, dtype DType, value any) *SearchBuilder {
	return b.add(field, KindEqualTo, dtype, value)
}

// Substring constrains field to contain value.
func (b *SearchBuilder) Substring(field, value string) *SearchBuilder {
	return b.add(field, KindSubstring, Str, value)
}

// LessThan constrains field to values below value.
func (b *SearchBuilder) LessThan(field string, dtype DType, value any) *SearchBuilder {
	return b.add(field, KindLessThan, dtype, value)
}

// GreaterThan constrains field to values above value.
func (b *SearchBuilder) GreaterThan(field string, dtype DType, value any) *SearchBuilder {
	return b.add(field, KindGreaterThan, dtype, value)
}

func (b *SearchBuilder) add(field string, kind ConstraintKind, dtype DType, value any) *SearchBuilder {
	c, err := NewConstraint(kind, dtype, value)
	if err != nil {
		if b.err == nil {
			b.err = domain.PrefixField("constraints."+field, err)
		}
		return b
	}
	return b.Where(field, c)
}

// Params validates and returns the accumulated search parameters.
func (b *SearchBuilder) Params() (SearchParams, error) {
	if b.err != nil {
		return SearchParams{}, b.err
	}
	return NewSearchParams(b.query, b.topK, b.constraints)
}

// Do runs the search.
func (b *SearchBuilder) Do(ctx context.Context) (SearchResponse, error) {
	params, err := b.Params()
	if err != nil {
		return SearchResponse{}, fmt.Errorf("search: %w", err)
	}
	return b.client.Search(ctx, params)
}
