package writer

import (
	"encoding/json"
	"io"

	"github.com/npolar/icelastic-ws/internal/feed"
	"github.com/npolar/icelastic-ws/internal/params"
)

const relEdit = "edit"

// HAL writes a Hypertext Application Language document. Records are
// embedded only when embed=true.
type HAL struct{}

func NewHAL() *HAL {
	return &HAL{}
}

func (h *HAL) Format() string    { return FormatHAL }
func (h *HAL) MediaType() string { return "application/hal+json" }

type halLink struct {
	Href string `json:"href"`
}

type halDocument struct {
	Links        map[string]interface{} `json:"_links"`
	Embedded     map[string]interface{} `json:"_embedded"`
	TotalResults int64                  `json:"totalResults"`
	ItemsPerPage int                    `json:"itemsPerPage"`
	StartIndex   int                    `json:"startIndex"`
}

func (h *HAL) Write(w io.Writer, m *feed.Model, b *params.Bag) error {
	doc := halDocument{
		Links:        make(map[string]interface{}),
		Embedded:     make(map[string]interface{}),
		TotalResults: m.TotalResults,
		ItemsPerPage: m.ItemsPerPage,
		StartIndex:   m.StartIndex,
	}

	for _, rel := range m.Links.Relations() {
		doc.Links[rel[0]] = halLink{Href: rel[1]}
	}

	items := m.Items()

	var edits []map[string]interface{}
	for _, item := range items {
		for _, l := range itemLinks(item) {
			if rel, _ := l["rel"].(string); rel == relEdit {
				edits = append(edits, withoutRel(l))
			}
		}
	}
	if len(edits) > 0 {
		doc.Links[relEdit] = edits
	}

	if b.Bool("embed") {
		embedded := make([]map[string]interface{}, 0, len(items))
		for _, item := range items {
			embedded = append(embedded, halItem(item))
		}
		doc.Embedded["document"] = embedded
	}

	return json.NewEncoder(w).Encode(doc)
}

// halItem replaces a record's links list with a _links object keyed by rel.
func halItem(item map[string]interface{}) map[string]interface{} {
	links := itemLinks(item)
	if links == nil {
		return item
	}

	out := make(map[string]interface{}, len(item))
	for k, v := range item {
		if k != "links" {
			out[k] = v
		}
	}

	byRel := make(map[string]interface{}, len(links))
	for _, l := range links {
		rel, _ := l["rel"].(string)
		if rel == "" {
			continue
		}
		byRel[rel] = withoutRel(l)
	}
	out["_links"] = byRel

	return out
}

func itemLinks(item map[string]interface{}) []map[string]interface{} {
	list, ok := item["links"].([]interface{})
	if !ok {
		return nil
	}

	out := make([]map[string]interface{}, 0, len(list))
	for _, l := range list {
		if lm, ok := l.(map[string]interface{}); ok {
			out = append(out, lm)
		}
	}
	return out
}

func withoutRel(link map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(link))
	for k, v := range link {
		if k != "rel" {
			out[k] = v
		}
	}
	return out
}
