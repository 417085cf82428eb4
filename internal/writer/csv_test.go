package writer

import (
	"encoding/csv"
	"reflect"
	"strings"
	"testing"
)

func records(t *testing.T, body []byte, comma rune) [][]string {
	t.Helper()

	r := csv.NewReader(strings.NewReader(string(body)))
	r.Comma = comma
	r.FieldsPerRecord = -1
	out, err := r.ReadAll()
	if err != nil {
		t.Fatalf("invalid csv %q: %v", body, err)
	}
	return out
}

func TestCSVFieldsWithDisplayName(t *testing.T) {
	b := bag(t, "fields=title:name")
	w := NewCSV(FormatCSV, ',')

	got := records(t, render(t, w, model(map[string]interface{}{"name": "x"}), b), ',')
	want := [][]string{{"title"}, {"x"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}

	got = records(t, render(t, w, model(map[string]interface{}{"other": 1.0}), b), ',')
	want = [][]string{{"title"}, {"null"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("missing field: got %v, want %v", got, want)
	}
}

func TestCSVDerivedColumns(t *testing.T) {
	m := model(
		map[string]interface{}{"b": 2.0, "a": "one"},
		map[string]interface{}{"c": true, "a": "two"},
	)

	got := records(t, render(t, NewCSV(FormatCSV, ','), m, bag(t, "q=")), ',')
	want := [][]string{
		{"a", "b", "c"},
		{"one", "2", "null"},
		{"two", "null", "true"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestCSVPathsAndLists(t *testing.T) {
	m := model(map[string]interface{}{
		"people": []interface{}{
			map[string]interface{}{"name": "Nansen"},
			map[string]interface{}{"name": "Amundsen"},
		},
		"tags":     []interface{}{"ice", "sea"},
		"position": map[string]interface{}{"lat": 78.5},
	})

	got := records(t, render(t, NewCSV(FormatTSV, '\t'), m, bag(t, "fields=people.name,tags,position,position.lat")), '\t')
	want := [][]string{
		{"people.name", "tags", "position", "position.lat"},
		{"Nansen|Amundsen", "ice|sea", `{"lat":78.5}`, "78.5"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestCSVMediaTypes(t *testing.T) {
	if mt := NewCSV(FormatCSV, ',').MediaType(); !strings.HasPrefix(mt, "text/csv") {
		t.Errorf("csv: got %s", mt)
	}
	if mt := NewCSV(FormatTSV, '\t').MediaType(); !strings.HasPrefix(mt, "text/tab-separated-values") {
		t.Errorf("tsv: got %s", mt)
	}
}
