package query

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/npolar/icelastic-ws/internal/params"
)

// Aggregation is one named aggregation of a compiled query.
type Aggregation interface {
	Name() string
	Source() (interface{}, error)
}

type TermsAgg struct {
	Field string
	Size  int
}

// LabeledAgg is a terms aggregation published under a label instead of its
// field name.
type LabeledAgg struct {
	Label string
	Field string
	Size  int
}

type HistogramAgg struct {
	Field    string
	Interval float64
}

type DateHistogramAgg struct {
	Field    string
	Interval string // as requested; part of the name
	Calendar string // interval sent to the backend
	Format   string
}

// DateStatAgg is a date histogram whose buckets carry extended statistics
// for each of StatFields.
type DateStatAgg struct {
	DateHistogramAgg
	StatFields []string
}

// RangeAgg buckets a numeric field into fixed-width steps.
type RangeAgg struct {
	Field string
	Step  int
	Size  int
}

func (a TermsAgg) Name() string     { return a.Field }
func (a LabeledAgg) Name() string   { return a.Label }
func (a HistogramAgg) Name() string { return a.Field }
func (a DateHistogramAgg) Name() string {
	return a.Interval + "-" + a.Field
}
func (a RangeAgg) Name() string { return a.Field }

func (a TermsAgg) Source() (interface{}, error) {
	return termsSource(a.Field, a.Size), nil
}

func (a LabeledAgg) Source() (interface{}, error) {
	return termsSource(a.Field, a.Size), nil
}

func termsSource(field string, size int) map[string]interface{} {
	return map[string]interface{}{
		"terms": map[string]interface{}{"field": field, "size": size},
	}
}

func (a HistogramAgg) Source() (interface{}, error) {
	return map[string]interface{}{
		"histogram": map[string]interface{}{"field": a.Field, "interval": a.Interval},
	}, nil
}

func (a DateHistogramAgg) Source() (interface{}, error) {
	return map[string]interface{}{
		"date_histogram": map[string]interface{}{
			"field":             a.Field,
			"calendar_interval": a.Calendar,
			"format":            a.Format,
		},
	}, nil
}

func (a DateStatAgg) Source() (interface{}, error) {
	src, _ := a.DateHistogramAgg.Source()
	body := src.(map[string]interface{})

	sub := make(map[string]interface{}, len(a.StatFields))
	for _, f := range a.StatFields {
		sub[f] = map[string]interface{}{
			"extended_stats": map[string]interface{}{"field": f},
		}
	}
	body["aggs"] = sub

	return body, nil
}

// The value is widened to double first so that negative integers floor
// instead of truncating toward zero.
const rangeScript = "if (doc[params.field].size() == 0) { return null; } " +
	"return Math.floor((double) doc[params.field].value / params.interval) * params.interval;"

func (a RangeAgg) Source() (interface{}, error) {
	return map[string]interface{}{
		"terms": map[string]interface{}{
			"script": map[string]interface{}{
				"lang":   "painless",
				"source": rangeScript,
				"params": map[string]interface{}{"field": a.Field, "interval": a.Step},
			},
			"size":  a.Size,
			"order": map[string]interface{}{"_key": "asc"},
		},
	}, nil
}

var dateFormats = map[string]string{
	"day":   "yyyy-MM-dd",
	"month": "yyyy-MM",
	"year":  "yyyy",
}

const isoDateTimeFormat = "yyyy-MM-dd'T'HH:mm:ss'Z'"

var calendarIntervals = map[string]bool{
	"hour":  true,
	"day":   true,
	"month": true,
	"year":  true,
}

// FallbackInterval is used for date histograms requesting an unknown
// interval.
const FallbackInterval = "day"

// CalendarInterval maps a requested interval onto one the backend accepts.
func CalendarInterval(interval string) string {
	if calendarIntervals[interval] {
		return interval
	}
	return FallbackInterval
}

// DateFormat returns the bucket key format for an interval.
func DateFormat(interval string) string {
	if f, ok := dateFormats[interval]; ok {
		return f
	}
	return isoDateTimeFormat
}

var statValue = regexp.MustCompile(`^(.+)\[(.+)\]$`)

// ParseStatValue splits "bucket[a|b]" (or "bucket[a:b]") into the bucket
// field and its statistic fields.
func ParseStatValue(v string) (string, []string, bool) {
	m := statValue.FindStringSubmatch(strings.TrimSpace(v))
	if m == nil {
		return strings.TrimSpace(v), nil, false
	}

	var stats []string
	for _, f := range strings.FieldsFunc(m[2], func(r rune) bool { return r == '|' || r == ':' }) {
		if f = strings.TrimSpace(f); f != "" {
			stats = append(stats, f)
		}
	}

	return m[1], stats, len(stats) > 0
}

// splitDateValues splits a date-<interval> value on commas that are not
// inside a stat bracket.
func splitDateValues(v string) []string {
	var out []string
	depth, start := 0, 0
	for i, r := range v {
		switch r {
		case '[':
			depth++
		case ']':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				if s := strings.TrimSpace(v[start:i]); s != "" {
					out = append(out, s)
				}
				start = i + 1
			}
		}
	}
	if s := strings.TrimSpace(v[start:]); s != "" {
		out = append(out, s)
	}
	return out
}

// aggregationList keeps aggregations in first-seen order; adding an existing
// name replaces the earlier entry in place.
type aggregationList struct {
	items []Aggregation
	pos   map[string]int
}

func (l *aggregationList) add(a Aggregation) {
	if l.pos == nil {
		l.pos = make(map[string]int)
	}
	if i, ok := l.pos[a.Name()]; ok {
		l.items[i] = a
		return
	}
	l.pos[a.Name()] = len(l.items)
	l.items = append(l.items, a)
}

func buildAggregations(b *params.Bag) []Aggregation {
	idx := b.Index()

	if idx.AggregationsDisabled() {
		return nil
	}

	size := b.FacetSize()
	list := &aggregationList{}

	for _, e := range idx.Entries(params.KindTerms) {
		for _, f := range params.SplitList(e.Value) {
			list.add(TermsAgg{Field: f, Size: size})
		}
	}

	for _, e := range idx.Entries(params.KindLabeled) {
		if f := strings.TrimSpace(e.Value); f != "" {
			list.add(LabeledAgg{Label: e.Arg, Field: f, Size: size})
		}
	}

	for _, e := range idx.Entries(params.KindHistogram) {
		interval, err := strconv.ParseFloat(e.Arg, 64)
		if err != nil || interval <= 0 {
			continue
		}
		for _, f := range params.SplitList(e.Value) {
			list.add(HistogramAgg{Field: f, Interval: interval})
		}
	}

	for _, e := range idx.Entries(params.KindDate, params.KindDateStat) {
		interval := strings.ToLower(e.Arg)
		for _, v := range splitDateValues(e.Value) {
			field, stats, ok := ParseStatValue(v)
			dh := DateHistogramAgg{
				Field:    field,
				Interval: interval,
				Calendar: CalendarInterval(interval),
				Format:   DateFormat(interval),
			}
			if ok {
				list.add(DateStatAgg{DateHistogramAgg: dh, StatFields: stats})
			} else {
				list.add(dh)
			}
		}
	}

	for _, e := range idx.Entries(params.KindRangeFacet) {
		if step, ok := RangeStep(e.Value); ok {
			list.add(RangeAgg{Field: e.Arg, Step: step, Size: size})
		}
	}

	return list.items
}

// RangeStep extracts the bucket width of a rangefacet value. When the
// parameter was repeated the last value wins. Non-numeric and non-positive
// steps are rejected.
func RangeStep(v string) (int, bool) {
	parts := params.SplitList(v)
	if len(parts) == 0 {
		return 0, false
	}

	step, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil || step <= 0 {
		return 0, false
	}

	return step, true
}
