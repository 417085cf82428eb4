package writer

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/npolar/icelastic-ws/internal/feed"
	"github.com/npolar/icelastic-ws/internal/params"
	"github.com/npolar/icelastic-ws/internal/query"
)

// headerSample bounds how many records are inspected to derive columns when
// no fields parameter is given.
const headerSample = 100

const (
	nullCell      = "null"
	listSeparator = "|"
)

// CSV writes one row per record. The same writer serves comma and tab
// separated output.
type CSV struct {
	format string
	comma  rune
}

func NewCSV(format string, comma rune) *CSV {
	return &CSV{format: format, comma: comma}
}

func (c *CSV) Format() string { return c.format }

func (c *CSV) MediaType() string {
	if c.comma == '\t' {
		return "text/tab-separated-values; charset=utf-8"
	}
	return "text/csv; charset=utf-8"
}

func (c *CSV) Write(w io.Writer, m *feed.Model, b *params.Bag) error {
	items := m.Items()
	columns := csvColumns(b.Value("fields"), items)

	cw := csv.NewWriter(w)
	cw.Comma = c.comma

	header := make([]string, len(columns))
	for i, col := range columns {
		header[i] = col.Display
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	row := make([]string, len(columns))
	for _, item := range items {
		for i, col := range columns {
			v, ok := lookupPath(item, strings.Split(col.Source, "."))
			row[i] = cell(v, ok)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func csvColumns(fields string, items []map[string]interface{}) []query.FieldSpec {
	if specs := query.ParseFields(fields); len(specs) > 0 {
		return specs
	}

	var columns []query.FieldSpec
	seen := make(map[string]bool)

	for i, item := range items {
		if i == headerSample {
			break
		}
		keys := make([]string, 0, len(item))
		for k := range item {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if !seen[k] {
				seen[k] = true
				columns = append(columns, query.FieldSpec{Display: k, Source: k})
			}
		}
	}

	return columns
}

// lookupPath follows a dotted path. A list met along the way projects the
// rest of the path over each of its elements.
func lookupPath(v interface{}, path []string) (interface{}, bool) {
	if len(path) == 0 {
		return v, true
	}

	switch t := v.(type) {
	case map[string]interface{}:
		next, ok := t[path[0]]
		if !ok {
			return nil, false
		}
		return lookupPath(next, path[1:])
	case []interface{}:
		var out []interface{}
		for _, e := range t {
			if r, ok := lookupPath(e, path); ok {
				out = append(out, r)
			}
		}
		if out == nil {
			return nil, false
		}
		return out, true
	}

	return nil, false
}

func cell(v interface{}, ok bool) string {
	if !ok || v == nil {
		return nullCell
	}

	switch t := v.(type) {
	case []interface{}:
		parts := make([]string, 0, len(t))
		for _, e := range t {
			switch e.(type) {
			case map[string]interface{}, []interface{}:
				return compactJSON(t)
			}
			parts = append(parts, cell(e, true))
		}
		return strings.Join(parts, listSeparator)
	case map[string]interface{}:
		return compactJSON(t)
	}

	return scalar(v)
}

func scalar(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	}
	return compactJSON(v)
}

func compactJSON(v interface{}) string {
	buf, err := json.Marshal(v)
	if err != nil {
		return nullCell
	}
	return string(buf)
}
