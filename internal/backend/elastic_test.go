package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/npolar/icelastic-ws/internal/defaults"
	apperrors "github.com/npolar/icelastic-ws/internal/errors"
	"github.com/npolar/icelastic-ws/internal/params"
	"github.com/npolar/icelastic-ws/internal/query"
)

func compiled(t *testing.T, q string) *query.Document {
	t.Helper()

	b, err := params.Normalize(q, defaults.Builtin())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	doc, err := query.Compile(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	return doc
}

func engineServer(t *testing.T, status int, body string, seen *map[string]interface{}) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if seen != nil && r.Body != nil {
			raw, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(raw, seen)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	return srv
}

func TestElasticSearch(t *testing.T) {
	var seen map[string]interface{}
	srv := engineServer(t, http.StatusOK, sampleResponse, &seen)

	es, err := NewElastic(Config{Addresses: []string{srv.URL}, Index: "dataset"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	res, err := es.Search(context.Background(), compiled(t, "q=bear&facets=topics"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Total != 40 {
		t.Errorf("Total = %d, want 40", res.Total)
	}
	if !strings.Contains(string(res.Raw), `"took": 7`) {
		t.Errorf("raw body not kept")
	}
	if _, ok := seen["aggregations"]; !ok {
		t.Errorf("request body = %v, want compiled query", seen)
	}
}

func TestElasticCountSendsNoAggregations(t *testing.T) {
	var seen map[string]interface{}
	srv := engineServer(t, http.StatusOK, `{"hits": {"total": {"value": 1234}, "hits": []}}`, &seen)

	es, err := NewElastic(Config{Addresses: []string{srv.URL}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	n, err := es.Count(context.Background(), compiled(t, "q=bear&facets=topics&highlight=true"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if n != 1234 {
		t.Errorf("Count() = %d, want 1234", n)
	}
	if seen["size"] != float64(0) {
		t.Errorf("size = %v, want 0", seen["size"])
	}
	if _, ok := seen["aggregations"]; ok {
		t.Errorf("count request carried aggregations")
	}
	if _, ok := seen["highlight"]; ok {
		t.Errorf("count request carried highlight")
	}
}

func TestElasticErrorStatus(t *testing.T) {
	srv := engineServer(t, http.StatusBadRequest, `{"error": {"type": "parse_exception"}}`, nil)

	es, _ := NewElastic(Config{Addresses: []string{srv.URL}})

	_, err := es.Search(context.Background(), compiled(t, "q=bear"))
	if !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("error = %v, want ErrInvalidInput", err)
	}

	srv = engineServer(t, http.StatusInternalServerError, `{}`, nil)
	es, _ = NewElastic(Config{Addresses: []string{srv.URL}})

	if err := es.Ping(context.Background()); !errors.Is(err, apperrors.ErrBackend) {
		t.Fatalf("Ping() error = %v, want ErrBackend", err)
	}
}

func TestNewRejectsUnknownEngine(t *testing.T) {
	if _, err := New(Config{Engine: "solr", Addresses: []string{"http://localhost:8983"}}); err == nil {
		t.Fatalf("expected error")
	}

	b, err := New(Config{Engine: "OpenSearch", Addresses: []string{"http://localhost:9200"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Name() != EngineOpenSearch {
		t.Errorf("Name() = %q", b.Name())
	}
}
