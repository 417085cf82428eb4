// Package query compiles a parameter bag into a backend query document:
// the free-text query, filters, the geo envelope, aggregations, paging and
// highlighting.
package query

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	apperrors "github.com/npolar/icelastic-ws/internal/errors"
	"github.com/npolar/icelastic-ws/internal/params"
)

// Document is a compiled backend query.
type Document struct {
	From         int
	Size         int
	Sort         []SortField
	SourceFields []string
	Highlight    *Highlight
	Query        *QueryString
	Filters      []FilterClause
	Aggregations []Aggregation

	// Warnings collects recoverable problems, such as a malformed bbox that
	// was replaced by the full extent.
	Warnings []error
}

// Filtered reports whether the query carries a filter block.
func (d *Document) Filtered() bool {
	return len(d.Filters) > 0
}

// Aggregation returns the compiled aggregation published under name.
func (d *Document) Aggregation(name string) (Aggregation, bool) {
	for _, a := range d.Aggregations {
		if a.Name() == name {
			return a, true
		}
	}
	return nil, false
}

func (d *Document) Source() (map[string]interface{}, error) {
	r := map[string]interface{}{
		"from":             d.From,
		"size":             d.Size,
		"track_total_hits": true,
	}

	if len(d.Sort) > 0 {
		sorts := make([]interface{}, 0, len(d.Sort))
		for _, s := range d.Sort {
			src, err := s.Source()
			if err != nil {
				return nil, err
			}
			sorts = append(sorts, src)
		}
		r["sort"] = sorts
	}

	if len(d.SourceFields) > 0 {
		r["_source"] = d.SourceFields
	}

	if d.Highlight != nil {
		hl, err := d.Highlight.Source()
		if err != nil {
			return nil, err
		}
		r["highlight"] = hl
	}

	qs, err := d.Query.Source()
	if err != nil {
		return nil, err
	}

	if d.Filtered() {
		filters, err := sources(d.Filters)
		if err != nil {
			return nil, err
		}
		r["query"] = map[string]interface{}{
			"bool": map[string]interface{}{
				"must":   []interface{}{qs},
				"filter": filters,
			},
		}
	} else {
		r["query"] = qs
	}

	if len(d.Aggregations) > 0 {
		aggs := make(map[string]interface{}, len(d.Aggregations))
		for _, a := range d.Aggregations {
			src, err := a.Source()
			if err != nil {
				return nil, err
			}
			aggs[a.Name()] = src
		}
		r["aggregations"] = aggs
	}

	return r, nil
}

func (d *Document) MarshalJSON() ([]byte, error) {
	src, err := d.Source()
	if err != nil {
		return nil, err
	}
	return json.Marshal(src)
}

// Compile builds the backend query for a parameter bag.
func Compile(b *params.Bag) (*Document, error) {
	reg := b.Registry()
	idx := b.Index()

	if err := validatePaging(b); err != nil {
		return nil, err
	}

	doc := &Document{
		From: b.Start(),
		Size: b.Limit(),
	}

	if v := b.Value("sort"); v != "" {
		doc.Sort = ParseSort(v)
	}

	for _, f := range ParseFields(b.Value("fields")) {
		doc.SourceFields = append(doc.SourceFields, f.Source)
	}

	if b.Bool("highlight") {
		doc.Highlight = &Highlight{Field: reg.CatchAll()}
	}

	orOperator := strings.EqualFold(strings.TrimSpace(b.Value("op")), "OR")

	if e, ok := idx.Query(); ok && e.Kind == params.KindFieldQuery {
		doc.Query = fieldQuery(e.Arg, Expand(e.Value, orOperator))
	} else {
		doc.Query = &QueryString{DefaultField: reg.CatchAll(), Query: Expand(e.Value, orOperator)}
	}

	for _, e := range idx.Filters() {
		clauses, err := ParseFilter(e.Arg, e.Value, e.Kind == params.KindNot)
		if err != nil {
			return nil, err
		}
		doc.Filters = append(doc.Filters, clauses...)
	}

	if v, ok := b.Get("bbox"); ok && strings.TrimSpace(v) != "" {
		env, err := ParseBBox(reg.DefaultGeoFields().ShapeField, v)
		if err != nil {
			doc.Warnings = append(doc.Warnings, err)
		}
		doc.Filters = append(doc.Filters, env)
	}

	doc.Aggregations = buildAggregations(b)

	return doc, nil
}

func validatePaging(b *params.Bag) error {
	for _, key := range []string{"start", "limit", "size"} {
		v, ok := b.Get(key)
		if !ok || !b.Explicit(key) {
			continue
		}
		v = strings.TrimSpace(v)
		if key == "limit" && strings.EqualFold(v, "all") {
			continue
		}
		if n, err := strconv.Atoi(v); err != nil || n < 0 {
			return apperrors.Newf(apperrors.ErrInvalidInput, http.StatusBadRequest, "%s must be a non-negative integer, got %q", key, v)
		}
	}
	return nil
}
