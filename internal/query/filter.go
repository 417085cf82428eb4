package query

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	apperrors "github.com/npolar/icelastic-ws/internal/errors"
)

// FilterClause is one node of a compiled filter: Term, Range, Or, Not or
// GeoEnvelope.
type FilterClause interface {
	Source() (interface{}, error)
	filterClause()
}

type Term struct {
	Field string
	Value string
}

// Range bounds are kept as strings. An empty bound is open.
type Range struct {
	Field string
	Gte   string
	Lte   string
}

// Or holds Term and Range clauses only.
type Or struct {
	Clauses []FilterClause
}

type Not struct {
	Clause FilterClause
}

func (Term) filterClause()  {}
func (Range) filterClause() {}
func (Or) filterClause()    {}
func (Not) filterClause()   {}

func (t Term) Source() (interface{}, error) {
	return map[string]interface{}{
		"term": map[string]interface{}{t.Field: t.Value},
	}, nil
}

func (r Range) Source() (interface{}, error) {
	bounds := map[string]interface{}{}
	if r.Gte != "" {
		bounds["gte"] = r.Gte
	}
	if r.Lte != "" {
		bounds["lte"] = r.Lte
	}
	return map[string]interface{}{
		"range": map[string]interface{}{r.Field: bounds},
	}, nil
}

func (o Or) Source() (interface{}, error) {
	should, err := sources(o.Clauses)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"bool": map[string]interface{}{
			"should":               should,
			"minimum_should_match": 1,
		},
	}, nil
}

func (n Not) Source() (interface{}, error) {
	inner, err := n.Clause.Source()
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"bool": map[string]interface{}{
			"must_not": []interface{}{inner},
		},
	}, nil
}

func sources(clauses []FilterClause) ([]interface{}, error) {
	out := make([]interface{}, 0, len(clauses))
	for _, c := range clauses {
		src, err := c.Source()
		if err != nil {
			return nil, err
		}
		out = append(out, src)
	}
	return out, nil
}

// filterParser reads one filter value:
//
//	list  = group { "," group }
//	group = atom { "|" atom }
//	atom  = range | term
//	range = [bound] ".." [bound]
type filterParser struct {
	field string
	input string
	pos   int
}

// ParseFilter compiles the value of a filter-<field> parameter into an
// AND-list of clauses. When negate is set every clause is wrapped in Not.
func ParseFilter(field, value string, negate bool) ([]FilterClause, error) {
	p := &filterParser{field: field, input: value}

	clauses, err := p.list()
	if err != nil {
		return nil, apperrors.Newf(apperrors.ErrInvalidInput, http.StatusBadRequest, "filter on %q: %s", field, err.Error())
	}

	if negate {
		for i, c := range clauses {
			clauses[i] = Not{Clause: c}
		}
	}

	return clauses, nil
}

func (p *filterParser) list() ([]FilterClause, error) {
	var out []FilterClause

	for p.pos <= len(p.input) {
		group, err := p.group()
		if err != nil {
			return nil, err
		}
		if group != nil {
			out = append(out, group)
		}

		if p.pos >= len(p.input) {
			break
		}
		// consume ','
		p.pos++
	}

	return out, nil
}

func (p *filterParser) group() (FilterClause, error) {
	var atoms []FilterClause

	for {
		atom, err := p.atom()
		if err != nil {
			return nil, err
		}
		if atom != nil {
			atoms = append(atoms, atom)
		}

		if p.pos < len(p.input) && p.input[p.pos] == '|' {
			p.pos++
			continue
		}
		break
	}

	switch len(atoms) {
	case 0:
		return nil, nil
	case 1:
		return atoms[0], nil
	default:
		return Or{Clauses: atoms}, nil
	}
}

func (p *filterParser) atom() (FilterClause, error) {
	start := p.pos
	for p.pos < len(p.input) && p.input[p.pos] != ',' && p.input[p.pos] != '|' {
		p.pos++
	}

	tok := strings.TrimSpace(p.input[start:p.pos])
	if tok == "" {
		return nil, nil
	}

	lo, hi, isRange := strings.Cut(tok, "..")
	if !isRange {
		return Term{Field: p.field, Value: tok}, nil
	}

	lo, hi = strings.TrimSpace(lo), strings.TrimSpace(hi)
	if lo == "" && hi == "" {
		return nil, fmt.Errorf("range %q has no bounds", tok)
	}

	if lo != "" && hi != "" && boundLess(hi, lo) {
		lo, hi = hi, lo
	}

	return Range{Field: p.field, Gte: lo, Lte: hi}, nil
}

// boundLess compares numerically when both bounds are numbers, otherwise
// lexically (which orders ISO-8601 timestamps correctly).
func boundLess(a, b string) bool {
	fa, errA := strconv.ParseFloat(a, 64)
	fb, errB := strconv.ParseFloat(b, 64)
	if errA == nil && errB == nil {
		return fa < fb
	}
	return a < b
}
