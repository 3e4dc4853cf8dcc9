package main

import (
	"fmt"
	"strconv"
	"strings"

	ndb "github.com/ThirdAILabs/ndb-client"
)

type whereClause struct {
	field      string
	constraint ndb.Constraint
}

// whereFlag collects -where field=Kind:dtype:value clauses.
type whereFlag []whereClause

func (f *whereFlag) String() string {
	parts := make([]string, len(*f))
	for i, w := range *f {
		parts[i] = w.field + "=" + w.constraint.String()
	}
	return strings.Join(parts, " ")
}

func (f *whereFlag) Set(s string) error {
	w, err := parseWhere(s)
	if err != nil {
		return err
	}
	*f = append(*f, w)
	return nil
}

func parseWhere(s string) (whereClause, error) {
	field, spec, ok := strings.Cut(s, "=")
	if !ok || field == "" {
		return whereClause{}, fmt.Errorf("want field=Kind:dtype:value, got %q", s)
	}
	kind, rest, ok := strings.Cut(spec, ":")
	if !ok {
		return whereClause{}, fmt.Errorf("want field=Kind:dtype:value, got %q", s)
	}
	dtypeName, raw, ok := strings.Cut(rest, ":")
	if !ok {
		return whereClause{}, fmt.Errorf("want field=Kind:dtype:value, got %q", s)
	}
	dtype, err := ndb.ParseDType(dtypeName)
	if err != nil {
		return whereClause{}, err
	}

	var value any
	if ndb.ConstraintKind(kind) == ndb.KindAnyOf {
		items := []any{}
		if raw != "" {
			for _, item := range strings.Split(raw, ",") {
				v, err := parseScalar(dtype, item)
				if err != nil {
					return whereClause{}, err
				}
				items = append(items, v)
			}
		}
		value = items
	} else {
		if value, err = parseScalar(dtype, raw); err != nil {
			return whereClause{}, err
		}
	}

	c, err := ndb.NewConstraint(ndb.ConstraintKind(kind), dtype, value)
	if err != nil {
		return whereClause{}, err
	}
	return whereClause{field: field, constraint: c}, nil
}

// parseScalar reads one command-line operand as dtype.
func parseScalar(dtype ndb.DType, s string) (any, error) {
	switch dtype {
	case ndb.Int:
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not an int", s)
		}
		return n, nil
	case ndb.Float:
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a float", s)
		}
		return f, nil
	case ndb.Bool:
		b, err := strconv.ParseBool(strings.TrimSpace(s))
		if err != nil {
			return nil, fmt.Errorf("%q is not a bool", s)
		}
		return b, nil
	default:
		return s, nil
	}
}

// pairFlag collects -pair query_id:reference_id values.
type pairFlag []ndb.QueryIDPair

func (f *pairFlag) String() string {
	parts := make([]string, len(*f))
	for i, p := range *f {
		parts[i] = fmt.Sprintf("%d:%d", p.QueryID(), p.ReferenceID())
	}
	return strings.Join(parts, ",")
}

func (f *pairFlag) Set(s string) error {
	q, r, ok := strings.Cut(s, ":")
	if !ok {
		return fmt.Errorf("want query_id:reference_id, got %q", s)
	}
	queryID, err := strconv.ParseUint(q, 10, 64)
	if err != nil {
		return fmt.Errorf("query id %q: %w", q, err)
	}
	refID, err := strconv.ParseUint(r, 10, 64)
	if err != nil {
		return fmt.Errorf("reference id %q: %w", r, err)
	}
	*f = append(*f, ndb.NewQueryIDPair(queryID, refID))
	return nil
}
