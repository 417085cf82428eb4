package query

import "strings"

// unmappedSortType is numeric because the avg mode only applies to numbers.
const unmappedSortType = "long"

type SortField struct {
	Field      string
	Descending bool
}

func (s SortField) Source() (interface{}, error) {
	order := "asc"
	if s.Descending {
		order = "desc"
	}

	opts := map[string]interface{}{"order": order}
	if s.Field != "_score" {
		// multi-valued fields sort on their average; indices lacking the
		// field sort it as missing instead of failing
		opts["mode"] = "avg"
		opts["unmapped_type"] = unmappedSortType
	}

	return map[string]interface{}{s.Field: opts}, nil
}

// ParseSort reads "field,-field2"; a leading '-' sorts descending.
func ParseSort(v string) []SortField {
	var out []SortField
	for _, p := range strings.Split(v, ",") {
		p = strings.TrimSpace(p)
		desc := strings.HasPrefix(p, "-")
		p = strings.TrimPrefix(p, "-")
		if p == "" {
			continue
		}
		out = append(out, SortField{Field: p, Descending: desc})
	}
	return out
}

// FieldSpec is one entry of a fields parameter: "display:source" or a bare
// source path used as its own display name.
type FieldSpec struct {
	Display string
	Source  string
}

// ParseFields reads a fields parameter.
func ParseFields(v string) []FieldSpec {
	var out []FieldSpec
	for _, p := range strings.Split(v, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		display, source, aliased := strings.Cut(p, ":")
		if !aliased {
			source = display
		}
		display, source = strings.TrimSpace(display), strings.TrimSpace(source)
		if source == "" {
			continue
		}
		if display == "" {
			display = source
		}
		out = append(out, FieldSpec{Display: display, Source: source})
	}
	return out
}

const (
	highlightFragmentSize = 50
	highlightFragments    = 3
	highlightPreTag       = "<em><strong>"
	highlightPostTag      = "</strong></em>"
)

// Highlight enables fragment highlighting on a single field.
type Highlight struct {
	Field string
}

func (h *Highlight) Source() (interface{}, error) {
	return map[string]interface{}{
		"fields": map[string]interface{}{
			h.Field: map[string]interface{}{
				"pre_tags":            []string{highlightPreTag},
				"post_tags":           []string{highlightPostTag},
				"fragment_size":       highlightFragmentSize,
				"number_of_fragments": highlightFragments,
			},
		},
	}, nil
}
