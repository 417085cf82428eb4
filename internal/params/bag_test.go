package params

import (
	"errors"
	"net/url"
	"reflect"
	"testing"

	"github.com/npolar/icelastic-ws/internal/defaults"
	apperrors "github.com/npolar/icelastic-ws/internal/errors"
)

func TestNormalizeMergesDefaults(t *testing.T) {
	b, err := Normalize("q=bear&limit=5", defaults.Builtin())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"q", "limit", "start", "size-facet", "variant"}
	if got := b.Keys(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Keys() = %v, want %v", got, want)
	}

	if got := b.Limit(); got != 5 {
		t.Errorf("Limit() = %d, want 5", got)
	}
	if got := b.Start(); got != 0 {
		t.Errorf("Start() = %d, want 0", got)
	}
	if b.Explicit("start") {
		t.Errorf("start should not be explicit")
	}
	if got := b.Value("variant"); got != "list" {
		t.Errorf("variant = %q, want %q", got, "list")
	}
}

func TestNormalizeJoinsRepeatedKeys(t *testing.T) {
	b, err := Normalize("?filter-a=1&filter-a=2&q=x+y", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := b.Value("filter-a"); got != "1,2" {
		t.Errorf("filter-a = %q, want %q", got, "1,2")
	}
	if got := b.Value("q"); got != "x y" {
		t.Errorf("q = %q, want %q", got, "x y")
	}
}

func TestNormalizeContainers(t *testing.T) {
	reg := defaults.Builtin()

	tests := []struct {
		name string
		raw  any
	}{
		{"url values", url.Values{"q": {"ice"}, "facets": {"a", "b"}}},
		{"multi map", map[string][]string{"q": {"ice"}, "facets": {"a", "b"}}},
		{"string map", map[string]string{"q": "ice", "facets": "a,b"}},
		{"any map", map[string]any{"q": "ice", "facets": []any{"a", "b"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := Normalize(tt.raw, reg)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := b.Value("facets"); got != "a,b" {
				t.Errorf("facets = %q, want %q", got, "a,b")
			}
			if got := b.Keys()[0]; got != "facets" {
				t.Errorf("first key = %q, want sorted map keys", got)
			}
		})
	}
}

func TestNormalizeRejectsUnsupportedInput(t *testing.T) {
	for _, raw := range []any{42, []string{"q=x"}, "q=%zz"} {
		_, err := Normalize(raw, nil)
		if err == nil {
			t.Fatalf("Normalize(%v) expected error", raw)
		}
		if !errors.Is(err, apperrors.ErrConfiguration) {
			t.Errorf("Normalize(%v) error = %v, want ErrConfiguration", raw, err)
		}
	}
}

func TestLimitFallbacks(t *testing.T) {
	tests := []struct {
		query string
		want  int
	}{
		{"", 100},
		{"limit=20", 20},
		{"size=7", 7},
		{"size=7&limit=3", 3},
		{"limit=-4", 100},
		{"limit=all", 100},
	}

	for _, tt := range tests {
		b, err := Normalize(tt.query, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := b.Limit(); got != tt.want {
			t.Errorf("Limit(%q) = %d, want %d", tt.query, got, tt.want)
		}
	}
}

func TestWithAndWithout(t *testing.T) {
	b, _ := Normalize("q=ice&filter-a=1", nil)

	c := b.With("start", "30").Without("filter-a")

	if got := b.Value("filter-a"); got != "1" {
		t.Errorf("original bag changed: filter-a = %q", got)
	}
	if c.Has("filter-a") {
		t.Errorf("filter-a still present")
	}
	if got := c.Start(); got != 30 {
		t.Errorf("Start() = %d, want 30", got)
	}
	if c.Index().Has(KindFilter) {
		t.Errorf("index still lists a filter")
	}
}

func TestEncodeElidesDefaults(t *testing.T) {
	b, _ := Normalize("q=polar bear&start=0&limit=100&filter-topics=ice,sea&bbox=-10,50,20,80", nil)

	want := "q=polar+bear&filter-topics=ice,sea&bbox=-10,50,20,80"
	if got := b.Encode(); got != want {
		t.Errorf("Encode() = %q, want %q", got, want)
	}

	if got := b.URL("http://api.example.org/dataset"); got != "http://api.example.org/dataset?"+want {
		t.Errorf("URL() = %q", got)
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	queries := []string{
		"q=a+b&filter-x=1..2|5&not-y=z",
		"q-title,summary=ice&date-year=created[size:depth]&rangefacet-t=10",
		"q=%22sea+ice%22+arctic&sort=-updated,title&fields=t:title,id",
		"format=csv&start=200&limit=50",
	}

	for _, q := range queries {
		b, err := Normalize(q, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		again, err := Normalize(b.Encode(), nil)
		if err != nil {
			t.Fatalf("unexpected error re-parsing %q: %v", b.Encode(), err)
		}

		for _, k := range b.Keys() {
			if got, want := again.Value(k), b.Value(k); got != want {
				t.Errorf("%q: %s = %q after round trip, want %q", q, k, got, want)
			}
		}
	}
}
