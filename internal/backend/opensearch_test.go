package backend

import (
	"context"
	"net/http"
	"testing"
)

func TestOpenSearchSearch(t *testing.T) {
	var seen map[string]interface{}
	srv := engineServer(t, http.StatusOK, sampleResponse, &seen)

	client, err := NewOpenSearch(Config{Addresses: []string{srv.URL}, Index: "dataset,expedition"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	res, err := client.Search(context.Background(), compiled(t, "q=bear"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Total != 40 || len(res.Hits) != 2 {
		t.Errorf("result = %d hits of %d", len(res.Hits), res.Total)
	}
	if seen["track_total_hits"] != true {
		t.Errorf("request body = %v", seen)
	}

	if err := client.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}
