package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/npolar/icelastic-ws/internal/backend"
	apperrors "github.com/npolar/icelastic-ws/internal/errors"
	"github.com/npolar/icelastic-ws/internal/query"
)

const searchBody = `{
  "took": 4,
  "hits": {
    "total": {"value": 2, "relation": "eq"},
    "max_score": 1.5,
    "hits": [
      {"_id": "1", "_score": 1.5, "_source": {"title": "Polar bear", "longitude": 15.0, "latitude": 78.0}},
      {"_id": "2", "_score": 1.1, "_source": {"title": "Arctic fox", "longitude": 16.0, "latitude": 79.0}}
    ]
  },
  "aggregations": {
    "species": {"buckets": [{"key": "bear", "doc_count": 1}, {"key": "fox", "doc_count": 1}]}
  }
}`

type fakeBackend struct {
	body     string
	count    int64
	err      error
	pingErr  error
	searched []*query.Document
	counted  int
}

func (f *fakeBackend) Name() string { return "fake" }

func (f *fakeBackend) Search(ctx context.Context, doc *query.Document) (*backend.Result, error) {
	f.searched = append(f.searched, doc)
	if f.err != nil {
		return nil, f.err
	}
	return backend.DecodeResult([]byte(f.body))
}

func (f *fakeBackend) Count(ctx context.Context, doc *query.Document) (int64, error) {
	f.counted++
	return f.count, f.err
}

func (f *fakeBackend) Ping(ctx context.Context) error {
	return f.pingErr
}

func testService(t *testing.T, be *fakeBackend) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)

	reg := prometheus.NewRegistry()
	svc, err := initializeService(defaultConfig(), serviceOptions{backend: be, registerer: reg, gatherer: reg})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return svc.newRouter()
}

func get(router *gin.Engine, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.Header.Set("X-Request-ID", "abc123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSearchFeed(t *testing.T) {
	be := &fakeBackend{body: searchBody}
	w := get(testService(t, be), "/?q=bear&facets=species")

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", w.Code, w.Body.String())
	}
	if id := w.Header().Get("X-Request-ID"); id != "abc123" {
		t.Errorf("request id: got %q", id)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("content type: got %q", ct)
	}

	var out struct {
		Feed struct {
			OpenSearch struct {
				TotalResults int `json:"totalResults"`
			} `json:"opensearch"`
			List struct {
				Self string `json:"self"`
			} `json:"list"`
			Facets  []map[string][]map[string]interface{} `json:"facets"`
			Entries []map[string]interface{}              `json:"entries"`
		} `json:"feed"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid json: %v", err)
	}

	if out.Feed.OpenSearch.TotalResults != 2 || len(out.Feed.Entries) != 2 {
		t.Errorf("feed: got %+v", out.Feed)
	}
	if !strings.HasPrefix(out.Feed.List.Self, "http://example.com/?") {
		t.Errorf("self: got %q", out.Feed.List.Self)
	}
	if len(out.Feed.Facets) != 1 || len(out.Feed.Facets[0]["species"]) != 2 {
		t.Errorf("facets: got %v", out.Feed.Facets)
	}

	if len(be.searched) != 1 || be.searched[0].Query == nil {
		t.Fatalf("backend was not queried: %v", be.searched)
	}
}

func TestSearchCSV(t *testing.T) {
	w := get(testService(t, &fakeBackend{body: searchBody}), "/api/search?q=&format=csv&fields=name:title")

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("content type: got %q", ct)
	}

	rows, err := csv.NewReader(strings.NewReader(w.Body.String())).ReadAll()
	if err != nil {
		t.Fatalf("invalid csv: %v", err)
	}
	if len(rows) != 3 || rows[0][0] != "name" || rows[1][0] != "Polar bear" {
		t.Errorf("rows: got %v", rows)
	}
}

func TestSearchGeoJSON(t *testing.T) {
	w := get(testService(t, &fakeBackend{body: searchBody}), "/?q=&format=geojson&geometry=linestring")

	if ct := w.Header().Get("Content-Type"); ct != "application/geo+json" {
		t.Errorf("content type: got %q", ct)
	}

	var out map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if fs := out["features"].([]interface{}); len(fs) != 1 {
		t.Errorf("features: got %v", fs)
	}
}

func TestSearchHALVariantMediaType(t *testing.T) {
	router := testService(t, &fakeBackend{body: searchBody})

	for _, target := range []string{"/?q=&variant=hal", "/?q=&format=hal"} {
		w := get(router, target)
		if ct := w.Header().Get("Content-Type"); ct != "application/hal+json" {
			t.Errorf("%s: content type %q", target, ct)
		}
	}
}

func TestSearchUnknownFormat(t *testing.T) {
	be := &fakeBackend{body: searchBody}
	w := get(testService(t, be), "/?q=&format=xml")

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d", w.Code)
	}

	var out errorBody
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil || out.Status != http.StatusBadRequest || out.Error == "" {
		t.Errorf("error body: got %s", w.Body.String())
	}
	if len(be.searched) != 0 {
		t.Errorf("backend should not be queried for an unknown format")
	}
}

func TestSearchInvalidPaging(t *testing.T) {
	w := get(testService(t, &fakeBackend{body: searchBody}), "/?q=&start=-1")

	if w.Code != http.StatusBadRequest {
		t.Errorf("status: got %d", w.Code)
	}
}

func TestSearchBackendFailure(t *testing.T) {
	be := &fakeBackend{err: apperrors.New(apperrors.ErrBackend, http.StatusBadGateway, "engine exploded")}
	w := get(testService(t, be), "/?q=bear")

	if w.Code != http.StatusBadGateway {
		t.Errorf("status: got %d", w.Code)
	}
}

func TestSearchLimitAll(t *testing.T) {
	be := &fakeBackend{body: searchBody, count: 1234}
	w := get(testService(t, be), "/?q=&limit=all")

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", w.Code, w.Body.String())
	}
	if be.counted != 1 {
		t.Errorf("count calls: got %d", be.counted)
	}
	if last := be.searched[len(be.searched)-1]; last.Size != 1234 {
		t.Errorf("size: got %d", last.Size)
	}
}

func TestEmptyQueryIsNotFound(t *testing.T) {
	router := testService(t, &fakeBackend{body: searchBody})

	for _, target := range []string{"/", "/api/search", "/nowhere"} {
		if w := get(router, target); w.Code != http.StatusNotFound {
			t.Errorf("%s: got %d", target, w.Code)
		}
	}
}

func TestHealthCheck(t *testing.T) {
	w := get(testService(t, &fakeBackend{}), "/healthcheck")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"healthy":true`) {
		t.Errorf("healthy: got %d %s", w.Code, w.Body.String())
	}

	be := &fakeBackend{pingErr: apperrors.New(apperrors.ErrUnavailable, http.StatusServiceUnavailable, "connection refused")}
	w = get(testService(t, be), "/healthcheck")
	if w.Code != http.StatusInternalServerError || !strings.Contains(w.Body.String(), "connection refused") {
		t.Errorf("unhealthy: got %d %s", w.Code, w.Body.String())
	}
}

func TestVersion(t *testing.T) {
	w := get(testService(t, &fakeBackend{}), "/version")

	var v serviceVersion
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil || v.GoVersion == "" {
		t.Errorf("version: got %s", w.Body.String())
	}
}
