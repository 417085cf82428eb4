// Package feed turns a backend result into the feed model shared by every
// output format: paging metadata, navigation links, facets with toggle
// links, and either the matching documents or per-bucket statistics.
package feed

import "encoding/json"

// Model is the presentation of one search response. Exactly one of Stats
// and Entries is non-nil.
type Model struct {
	TotalResults int64
	ItemsPerPage int
	StartIndex   int
	LastIndex    int64

	Links  Links
	Search Search

	Facets  []Facet
	Stats   []map[string]interface{}
	Entries []map[string]interface{}

	// Base is scheme, host and path of the originating request.
	Base string
	// Raw is the undecoded backend response.
	Raw json.RawMessage
}

// Links holds navigation URIs. Empty Next or Previous means there is no
// such page.
type Links struct {
	Self     string
	First    string
	Last     string
	Next     string
	Previous string
}

// Relations returns the links as rel/href pairs in a stable order, leaving
// out absent ones.
func (l Links) Relations() [][2]string {
	var out [][2]string
	for _, r := range [][2]string{
		{"self", l.Self},
		{"first", l.First},
		{"previous", l.Previous},
		{"next", l.Next},
		{"last", l.Last},
	} {
		if r[1] != "" {
			out = append(out, r)
		}
	}
	return out
}

type Search struct {
	QTime    int64
	Q        string
	MaxScore *float64
}

// Facet is the presentation of one aggregation.
type Facet struct {
	Name    string
	Buckets []FacetBucket
}

type FacetBucket struct {
	Term  interface{}
	Count *int64
	URI   string
}

// Items returns the records a writer should render: the stats when present,
// otherwise the entries.
func (m *Model) Items() []map[string]interface{} {
	if m.Stats != nil {
		return m.Stats
	}
	return m.Entries
}
