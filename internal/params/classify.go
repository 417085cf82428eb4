package params

import (
	"regexp"
	"strings"
)

// Kind tags the role a reserved parameter key plays in the pipeline.
type Kind int

const (
	KindNone Kind = iota
	KindGlobalQuery
	KindFieldQuery
	KindFilter
	KindNot
	KindTerms
	KindLabeled
	KindHistogram
	KindDate
	KindDateStat
	KindRangeFacet
	KindFacetSize
)

var kindNames = map[Kind]string{
	KindNone:        "none",
	KindGlobalQuery: "q",
	KindFieldQuery:  "q-field",
	KindFilter:      "filter",
	KindNot:         "not",
	KindTerms:       "facets",
	KindLabeled:     "facet-label",
	KindHistogram:   "facet-histogram",
	KindDate:        "date",
	KindDateStat:    "dateStat",
	KindRangeFacet:  "rangefacet",
	KindFacetSize:   "size-facet",
}

func (k Kind) String() string {
	return kindNames[k]
}

// Entry is one classified parameter. Arg holds the part of the key captured
// by its pattern (field, label, interval), Value the raw parameter value.
type Entry struct {
	Kind  Kind
	Key   string
	Arg   string
	Value string
}

type classifier struct {
	kind    Kind
	pattern *regexp.Regexp
}

// evaluated in order, first match wins
var classifiers = []classifier{
	{KindGlobalQuery, regexp.MustCompile(`^q-?$`)},
	{KindFieldQuery, regexp.MustCompile(`^q-(.+)$`)},
	{KindFilter, regexp.MustCompile(`(?i)^filter-(.+)$`)},
	{KindNot, regexp.MustCompile(`(?i)^not-(.+)$`)},
	{KindTerms, regexp.MustCompile(`(?i)^(?:facets|aggregations)$`)},
	{KindHistogram, regexp.MustCompile(`(?i)^(?:facet|aggregation)\[(\d+(?:\.\d+)?)\]$`)},
	{KindLabeled, regexp.MustCompile(`(?i)^(?:facet|aggregation)-(.+)$`)},
	{KindDateStat, regexp.MustCompile(`^dateStat-(.+)$`)},
	{KindDate, regexp.MustCompile(`(?i)^date-(.+)$`)},
	{KindRangeFacet, regexp.MustCompile(`(?i)^rangefacet-(.+)$`)},
	{KindFacetSize, regexp.MustCompile(`(?i)^size-(?:facet|aggregation)$`)},
}

// Classify returns the kind of key and the argument captured from it.
func Classify(key string) (Kind, string) {
	for _, c := range classifiers {
		if m := c.pattern.FindStringSubmatch(key); m != nil {
			arg := ""
			if len(m) > 1 {
				arg = m[1]
			}
			return c.kind, arg
		}
	}
	return KindNone, ""
}

// Index holds the classified parameters of a bag in bag order.
type Index struct {
	entries []Entry
}

func buildIndex(keys []string, values map[string]string) *Index {
	idx := &Index{}

	for _, key := range keys {
		kind, arg := Classify(key)
		if kind == KindNone {
			continue
		}
		idx.entries = append(idx.entries, Entry{Kind: kind, Key: key, Arg: arg, Value: values[key]})
	}

	return idx
}

// Entries returns the entries of any of the given kinds, in bag order.
func (i *Index) Entries(kinds ...Kind) []Entry {
	var out []Entry
	for _, e := range i.entries {
		for _, k := range kinds {
			if e.Kind == k {
				out = append(out, e)
				break
			}
		}
	}
	return out
}

// Has reports whether any entry of the given kinds exists.
func (i *Index) Has(kinds ...Kind) bool {
	return len(i.Entries(kinds...)) > 0
}

// Query returns the active free-text query entry: the last q-<field> entry
// when any exist, otherwise the q entry.
func (i *Index) Query() (Entry, bool) {
	if fq := i.Entries(KindFieldQuery); len(fq) > 0 {
		return fq[len(fq)-1], true
	}
	if gq := i.Entries(KindGlobalQuery); len(gq) > 0 {
		return gq[len(gq)-1], true
	}
	return Entry{}, false
}

// Filters returns all filter- and not- entries in bag order.
func (i *Index) Filters() []Entry {
	return i.Entries(KindFilter, KindNot)
}

// Aggregations returns every aggregation-producing entry in bag order.
func (i *Index) Aggregations() []Entry {
	return i.Entries(KindTerms, KindLabeled, KindHistogram, KindDate, KindDateStat, KindRangeFacet)
}

// AggregationsDisabled reports whether a facets=false style flag is set.
func (i *Index) AggregationsDisabled() bool {
	for _, e := range i.Entries(KindTerms) {
		for _, v := range strings.Split(e.Value, ",") {
			if strings.EqualFold(strings.TrimSpace(v), "false") {
				return true
			}
		}
	}
	return false
}

// HasAggregations reports whether any aggregation-producing key is present.
func (i *Index) HasAggregations() bool {
	return len(i.Aggregations()) > 0
}
