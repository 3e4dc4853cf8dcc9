package feedback

// QueryIDPair marks a reference as relevant for a query.
type QueryIDPair struct {
	queryID     uint64
	referenceID uint64
}

// NewQueryIDPair creates a feedback pair. Any ids are accepted; the server resolves them.
func NewQueryIDPair(queryID, referenceID uint64) QueryIDPair {
	return QueryIDPair{queryID: queryID, referenceID: referenceID}
}

// QueryID returns the query identifier.
func (p QueryIDPair) QueryID() uint64 { return p.queryID }

// ReferenceID returns the reference identifier (Reference.ID of a search result).
func (p QueryIDPair) ReferenceID() uint64 { return p.referenceID }

// UpvoteParams is an ordered batch of feedback pairs.
type UpvoteParams struct {
	pairs []QueryIDPair
}

// NewUpvoteParams creates UpvoteParams keeping the pair order.
func NewUpvoteParams(pairs ...QueryIDPair) UpvoteParams {
	if len(pairs) == 0 {
		return UpvoteParams{}
	}
	c := make([]QueryIDPair, len(pairs))
	copy(c, pairs)
	return UpvoteParams{pairs: c}
}

// Pairs returns a copy of the pairs.
func (p UpvoteParams) Pairs() []QueryIDPair {
	if p.pairs == nil {
		return nil
	}
	c := make([]QueryIDPair, len(p.pairs))
	copy(c, p.pairs)
	return c
}

// Len returns the number of pairs.
func (p UpvoteParams) Len() int { return len(p.pairs) }
