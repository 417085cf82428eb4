package feed

import (
	"sort"
	"strconv"
	"strings"

	"github.com/npolar/icelastic-ws/internal/backend"
	"github.com/npolar/icelastic-ws/internal/params"
	"github.com/npolar/icelastic-ws/internal/query"
)

// Present builds the feed model for res, which answered doc, compiled from
// b. base is the scheme, host and path used for every generated link.
func Present(b *params.Bag, doc *query.Document, res *backend.Result, base string) *Model {
	start := b.Start()
	limit := b.Limit()

	m := &Model{
		TotalResults: res.Total,
		ItemsPerPage: limit,
		StartIndex:   start,
		LastIndex:    lastIndex(res.Total, start, limit),
		Links:        buildLinks(b, base, res.Total),
		Search:       buildSearch(b, res),
		Base:         base,
		Raw:          res.Raw,
	}

	if showFacets(b, doc) {
		m.Facets = buildFacets(b, doc, res, base)
	}

	if stats := statAggregations(doc); len(stats) > 0 {
		m.Stats = buildStats(stats, res)
	} else {
		m.Entries = buildEntries(b, res)
	}

	return m
}

func lastIndex(total int64, start, limit int) int64 {
	last := int64(start + limit - 1)
	if total < last {
		return total
	}
	return last
}

func buildLinks(b *params.Bag, base string, total int64) Links {
	start := int64(b.Start())
	limit := int64(b.Limit())

	first := b.With("start", "0").URL(base)

	l := Links{
		Self:  b.URL(base),
		First: first,
		Last:  first,
	}

	if limit > 0 {
		pages := (total + limit - 1) / limit
		l.Last = b.With("start", strconv.FormatInt(limit*pages, 10)).URL(base)
	}

	if start+limit < total {
		l.Next = b.With("start", strconv.FormatInt(start+limit, 10)).URL(base)
	}

	if start > 0 {
		prev := start - limit
		if prev < 0 {
			prev = 0
		}
		l.Previous = b.With("start", strconv.FormatInt(prev, 10)).URL(base)
	}

	return l
}

func buildSearch(b *params.Bag, res *backend.Result) Search {
	s := Search{QTime: res.Took, MaxScore: res.MaxScore}
	if e, ok := b.Index().Query(); ok {
		s.Q = e.Value
	}
	return s
}

func showFacets(b *params.Bag, doc *query.Document) bool {
	idx := b.Index()
	return idx.HasAggregations() && !idx.AggregationsDisabled() && len(doc.Aggregations) > 0
}

func statAggregations(doc *query.Document) []query.DateStatAgg {
	var out []query.DateStatAgg
	for _, a := range doc.Aggregations {
		if ds, ok := a.(query.DateStatAgg); ok {
			out = append(out, ds)
		}
	}
	return out
}

func buildStats(stats []query.DateStatAgg, res *backend.Result) []map[string]interface{} {
	out := []map[string]interface{}{}

	for _, ds := range stats {
		agg, ok := res.Aggregations[ds.Name()]
		if !ok {
			continue
		}

		for _, bucket := range agg.Buckets {
			rec := make(map[string]interface{}, len(bucket.Fields)+1)
			for k, v := range bucket.Fields {
				rec[k] = v
			}

			if bucket.KeyAsString != "" {
				rec[ds.Field] = bucket.KeyAsString
				delete(rec, "key_as_string")
				delete(rec, "key")
			}

			rec["filter"] = ds.Interval + "-" + ds.Field
			out = append(out, rec)
		}
	}

	return out
}

func buildEntries(b *params.Bag, res *backend.Result) []map[string]interface{} {
	withScore := b.Has("score") && b.Value("score") != "false"
	catchAll := b.Registry().CatchAll()

	out := make([]map[string]interface{}, 0, len(res.Hits))

	for _, hit := range res.Hits {
		entry := make(map[string]interface{}, len(hit.Source)+2)
		for k, v := range hit.Source {
			entry[k] = v
		}

		if frags := highlightFragments(hit.Highlight, catchAll); len(frags) > 0 {
			entry["highlight"] = strings.Join(frags, "... ")
		}

		if withScore {
			entry["_score"] = hit.Score
		}

		out = append(out, entry)
	}

	return out
}

// highlightFragments prefers the catch-all field; otherwise fragments of all
// fields are used in field name order.
func highlightFragments(hl map[string][]string, catchAll string) []string {
	if len(hl) == 0 {
		return nil
	}

	if frags, ok := hl[catchAll]; ok {
		return frags
	}

	keys := make([]string, 0, len(hl))
	for k := range hl {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var frags []string
	for _, k := range keys {
		frags = append(frags, hl[k]...)
	}
	return frags
}
