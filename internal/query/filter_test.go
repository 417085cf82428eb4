package query

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	apperrors "github.com/npolar/icelastic-ws/internal/errors"
)

func TestParseFilter(t *testing.T) {
	tests := []struct {
		name   string
		value  string
		negate bool
		want   []FilterClause
	}{
		{
			name:  "term",
			value: "ice",
			want:  []FilterClause{Term{"f", "ice"}},
		},
		{
			name:  "and list",
			value: "ice,snow",
			want:  []FilterClause{Term{"f", "ice"}, Term{"f", "snow"}},
		},
		{
			name:  "or group",
			value: "ice|snow,water",
			want: []FilterClause{
				Or{Clauses: []FilterClause{Term{"f", "ice"}, Term{"f", "snow"}}},
				Term{"f", "water"},
			},
		},
		{
			name:  "closed range",
			value: "1..5",
			want:  []FilterClause{Range{"f", "1", "5"}},
		},
		{
			name:  "reversed range is swapped",
			value: "10..2",
			want:  []FilterClause{Range{"f", "2", "10"}},
		},
		{
			name:  "negative numbers",
			value: "-29..-30",
			want:  []FilterClause{Range{"f", "-30", "-29"}},
		},
		{
			name:  "reversed dates",
			value: "2015-01-01T00:00:00Z..2014-01-01T00:00:00Z",
			want:  []FilterClause{Range{"f", "2014-01-01T00:00:00Z", "2015-01-01T00:00:00Z"}},
		},
		{
			name:  "open ranges",
			value: "5..,..9",
			want:  []FilterClause{Range{"f", "5", ""}, Range{"f", "", "9"}},
		},
		{
			name:  "range inside or",
			value: "1..2|7",
			want:  []FilterClause{Or{Clauses: []FilterClause{Range{"f", "1", "2"}, Term{"f", "7"}}}},
		},
		{
			name:   "negated",
			value:  "a,b|c",
			negate: true,
			want: []FilterClause{
				Not{Clause: Term{"f", "a"}},
				Not{Clause: Or{Clauses: []FilterClause{Term{"f", "b"}, Term{"f", "c"}}}},
			},
		},
		{
			name:  "empty tokens skipped",
			value: ",a,,|b|",
			want:  []FilterClause{Term{"f", "a"}, Term{"f", "b"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFilter("f", tt.value, tt.negate)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseFilter(%q) = %#v, want %#v", tt.value, got, tt.want)
			}
		})
	}
}

func TestParseFilterRejectsBoundlessRange(t *testing.T) {
	_, err := ParseFilter("f", "..", false)
	if !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("error = %v, want ErrInvalidInput", err)
	}
}

func TestFilterSource(t *testing.T) {
	clause := Not{Clause: Or{Clauses: []FilterClause{Term{"f", "a"}, Range{"f", "1", ""}}}}

	src, err := clause.Source()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, _ := json.Marshal(src)
	want := `{"bool":{"must_not":[{"bool":{"minimum_should_match":1,"should":[{"term":{"f":"a"}},{"range":{"f":{"gte":"1"}}}]}}]}}`
	if string(got) != want {
		t.Errorf("Source() = %s, want %s", got, want)
	}
}

func TestParseBBox(t *testing.T) {
	env, err := ParseBBox("geometry", "-10,50,20,80")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env != (GeoEnvelope{"geometry", -10, 50, 20, 80}) {
		t.Errorf("ParseBBox() = %+v", env)
	}

	src, _ := env.Source()
	got, _ := json.Marshal(src)
	want := `{"geo_shape":{"geometry":{"shape":{"coordinates":[[-10,80],[20,50]],"type":"envelope"}}}}`
	if string(got) != want {
		t.Errorf("Source() = %s, want %s", got, want)
	}

	if _, err := ParseBBox("geometry", "-10,50,20,80,0,100"); err != nil {
		t.Errorf("altitude range rejected: %v", err)
	}
}

func TestParseBBoxMalformed(t *testing.T) {
	for _, v := range []string{"1,2", "a,b,c,d", "-200,0,10,10", "1,2,3,4,5,6,7"} {
		env, err := ParseBBox("geometry", v)
		if !errors.Is(err, apperrors.ErrMalformedGeo) {
			t.Errorf("ParseBBox(%q) error = %v, want ErrMalformedGeo", v, err)
		}
		if env != FullExtent("geometry") {
			t.Errorf("ParseBBox(%q) = %+v, want full extent", v, env)
		}
	}
}
