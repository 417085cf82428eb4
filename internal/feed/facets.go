package feed

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/npolar/icelastic-ws/internal/backend"
	"github.com/npolar/icelastic-ws/internal/params"
	"github.com/npolar/icelastic-ws/internal/query"
)

func buildFacets(b *params.Bag, doc *query.Document, res *backend.Result, base string) []Facet {
	facets := []Facet{}
	seen := make(map[string]bool)

	for _, a := range doc.Aggregations {
		agg, ok := res.Aggregations[a.Name()]
		if !ok {
			continue
		}
		seen[a.Name()] = true
		facets = append(facets, facet(b, a, a.Name(), agg, base))
	}

	// aggregations the engine returned without being asked, e.g. by an
	// index template, are shown as plain terms
	var extra []string
	for name := range res.Aggregations {
		if !seen[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)

	for _, name := range extra {
		facets = append(facets, facet(b, query.TermsAgg{Field: name}, name, res.Aggregations[name], base))
	}

	return facets
}

func facet(b *params.Bag, a query.Aggregation, name string, agg backend.Aggregation, base string) Facet {
	f := Facet{Name: name, Buckets: make([]FacetBucket, 0, len(agg.Buckets))}

	for _, bucket := range agg.Buckets {
		term, field, value, ok := toggleTarget(a, bucket)

		fb := FacetBucket{Term: term, Count: bucket.DocCount}
		// a comma would split the value into separate filter tokens
		if ok && !strings.Contains(value, ",") {
			fb.URI = Toggle(b, field, value).URL(base)
		}

		f.Buckets = append(f.Buckets, fb)
	}

	return f
}

// toggleTarget returns the displayed term of a bucket together with the
// filter field and value its toggle link switches.
func toggleTarget(a query.Aggregation, bucket backend.Bucket) (interface{}, string, string, bool) {
	switch agg := a.(type) {
	case query.LabeledAgg:
		return bucket.Term(), agg.Field, formatKey(bucket.Term()), true

	case query.DateHistogramAgg:
		return dateToggle(agg, bucket)

	case query.DateStatAgg:
		return dateToggle(agg.DateHistogramAgg, bucket)

	case query.RangeAgg:
		start, ok := toFloat(bucket.Key)
		if !ok {
			return bucket.Term(), "", "", false
		}
		r := StepRange(start, float64(agg.Step))
		return r, agg.Field, r, true

	case query.HistogramAgg:
		start, ok := toFloat(bucket.Key)
		if !ok {
			return bucket.Term(), "", "", false
		}
		return bucket.Term(), agg.Field, StepRange(start, agg.Interval), true

	case query.TermsAgg:
		return bucket.Term(), agg.Field, formatKey(bucket.Term()), true
	}

	return bucket.Term(), a.Name(), formatKey(bucket.Term()), true
}

func dateToggle(agg query.DateHistogramAgg, bucket backend.Bucket) (interface{}, string, string, bool) {
	term := bucket.Term()

	start, ok := bucketTime(agg.Calendar, bucket)
	if !ok {
		return term, "", "", false
	}

	return term, agg.Field, TimeRange(start, agg.Calendar), true
}

// StepRange renders "<start>..<start+step>".
func StepRange(start, step float64) string {
	return formatNumber(start) + ".." + formatNumber(start+step)
}

// TimeRange renders the half-open ISO-8601 range covering one interval unit
// from start.
func TimeRange(start time.Time, interval string) string {
	start = start.UTC()

	var end time.Time
	switch interval {
	case "hour":
		end = start.Add(time.Hour)
	case "month":
		end = start.AddDate(0, 1, 0)
	case "year":
		end = start.AddDate(1, 0, 0)
	default:
		end = start.AddDate(0, 0, 1)
	}

	return start.Format(time.RFC3339) + ".." + end.Format(time.RFC3339)
}

var keyLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006-01",
	"2006",
}

func bucketTime(interval string, bucket backend.Bucket) (time.Time, bool) {
	if bucket.KeyAsString != "" {
		for _, layout := range keyLayouts {
			if t, err := time.Parse(layout, bucket.KeyAsString); err == nil {
				return t, true
			}
		}
	}

	if ms, ok := toFloat(bucket.Key); ok {
		return time.UnixMilli(int64(ms)).UTC(), true
	}

	return time.Time{}, false
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}

func formatNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatKey(v interface{}) string {
	switch k := v.(type) {
	case string:
		return k
	case float64:
		return formatNumber(k)
	case bool:
		return strconv.FormatBool(k)
	case nil:
		return ""
	default:
		return fmt.Sprint(k)
	}
}

// Toggle switches value in the filter-<field> parameter: it is added when
// absent and removed when already present as an exact token. The start
// offset is always dropped since the result set changes.
func Toggle(b *params.Bag, field, value string) *params.Bag {
	key := "filter-" + field
	b = b.Without("start")

	cur, ok := b.Get(key)
	if !ok || strings.TrimSpace(cur) == "" {
		return b.With(key, value)
	}

	tokens := strings.Split(cur, ",")
	kept := make([]string, 0, len(tokens))
	found := false
	for _, tok := range tokens {
		if tok == value {
			found = true
			continue
		}
		kept = append(kept, tok)
	}

	if !found {
		return b.With(key, cur+","+value)
	}

	if len(kept) == 0 {
		return b.Without(key)
	}

	return b.With(key, strings.Join(kept, ","))
}
