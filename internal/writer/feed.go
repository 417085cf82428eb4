package writer

import (
	"encoding/json"
	"io"

	"github.com/npolar/icelastic-ws/internal/feed"
	"github.com/npolar/icelastic-ws/internal/params"
)

const (
	FormatJSON    = "json"
	FormatCSV     = "csv"
	FormatTSV     = "tsv"
	FormatGeoJSON = "geojson"
	FormatHAL     = "hal"
	FormatRaw     = "raw"
)

const (
	VariantList  = "list"
	VariantAtom  = "atom"
	VariantArray = "array"
	VariantHAL   = "hal"
)

// Feed writes the JSON feed. Its variant parameter selects the shape.
type Feed struct {
	hal *HAL
}

func NewFeed(hal *HAL) *Feed {
	return &Feed{hal: hal}
}

func (f *Feed) Format() string    { return FormatJSON }
func (f *Feed) MediaType() string { return "application/json; charset=utf-8" }

func (f *Feed) MediaTypeFor(b *params.Bag) string {
	if b.Variant() == VariantHAL && f.hal != nil {
		return f.hal.MediaType()
	}
	return f.MediaType()
}

func (f *Feed) Write(w io.Writer, m *feed.Model, b *params.Bag) error {
	var doc interface{}

	switch b.Variant() {
	case VariantArray:
		doc = nonNil(m.Items())
	case VariantHAL:
		if f.hal != nil {
			return f.hal.Write(w, m, b)
		}
		doc = feedDocument{Feed: feedBody(m, false)}
	case VariantAtom:
		doc = feedDocument{Feed: feedBody(m, true)}
	default:
		doc = feedDocument{Feed: feedBody(m, false)}
	}

	return json.NewEncoder(w).Encode(doc)
}

type feedDocument struct {
	Feed *feedJSON `json:"feed"`
}

type feedJSON struct {
	OpenSearch openSearchJSON `json:"opensearch"`
	List       listJSON       `json:"list"`
	Links      []linkJSON     `json:"links,omitempty"`
	Search     searchJSON     `json:"search"`
	Facets     []facetJSON    `json:"facets,omitempty"`
	Stats      interface{}    `json:"stats,omitempty"`
	Entries    interface{}    `json:"entries,omitempty"`
}

type openSearchJSON struct {
	TotalResults int64 `json:"totalResults"`
	ItemsPerPage int   `json:"itemsPerPage"`
	StartIndex   int   `json:"startIndex"`
	LastIndex    int64 `json:"lastIndex"`
}

// next and previous are false at the bounds
type listJSON struct {
	Self     string      `json:"self"`
	First    string      `json:"first"`
	Last     string      `json:"last"`
	Next     interface{} `json:"next"`
	Previous interface{} `json:"previous"`
}

type linkJSON struct {
	Rel  string `json:"rel"`
	Href string `json:"href"`
}

type searchJSON struct {
	QTime    int64    `json:"qtime"`
	Q        string   `json:"q"`
	MaxScore *float64 `json:"max_score,omitempty"`
}

type facetBucketJSON struct {
	Term  interface{} `json:"term"`
	Count *int64      `json:"count,omitempty"`
	URI   string      `json:"uri,omitempty"`
}

// facetJSON renders as {"<name>": [buckets...]}.
type facetJSON struct {
	name    string
	buckets []facetBucketJSON
}

func (f facetJSON) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string][]facetBucketJSON{f.name: f.buckets})
}

func feedBody(m *feed.Model, atom bool) *feedJSON {
	body := &feedJSON{
		OpenSearch: openSearchJSON{
			TotalResults: m.TotalResults,
			ItemsPerPage: m.ItemsPerPage,
			StartIndex:   m.StartIndex,
			LastIndex:    m.LastIndex,
		},
		List: listJSON{
			Self:     m.Links.Self,
			First:    m.Links.First,
			Last:     m.Links.Last,
			Next:     linkOrFalse(m.Links.Next),
			Previous: linkOrFalse(m.Links.Previous),
		},
		Search: searchJSON{
			QTime:    m.Search.QTime,
			Q:        m.Search.Q,
			MaxScore: m.Search.MaxScore,
		},
		Facets: facetsJSON(m.Facets),
	}

	if atom {
		for _, rel := range m.Links.Relations() {
			body.Links = append(body.Links, linkJSON{Rel: rel[0], Href: rel[1]})
		}
	}

	if m.Stats != nil {
		body.Stats = nonNil(m.Stats)
	} else {
		body.Entries = nonNil(m.Entries)
	}

	return body
}

// feedHeader is the feed without its facets, stats and entries.
func feedHeader(m *feed.Model, atom bool) *feedJSON {
	body := feedBody(m, atom)
	body.Facets, body.Stats, body.Entries = nil, nil, nil
	return body
}

func facetsJSON(facets []feed.Facet) []facetJSON {
	if facets == nil {
		return nil
	}

	out := make([]facetJSON, 0, len(facets))
	for _, f := range facets {
		fj := facetJSON{name: f.Name, buckets: make([]facetBucketJSON, 0, len(f.Buckets))}
		for _, b := range f.Buckets {
			fj.buckets = append(fj.buckets, facetBucketJSON{Term: b.Term, Count: b.Count, URI: b.URI})
		}
		out = append(out, fj)
	}
	return out
}

func linkOrFalse(href string) interface{} {
	if href == "" {
		return false
	}
	return href
}

func nonNil(items []map[string]interface{}) []map[string]interface{} {
	if items == nil {
		return []map[string]interface{}{}
	}
	return items
}
