package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"

	apperrors "github.com/npolar/icelastic-ws/internal/errors"
	"github.com/npolar/icelastic-ws/internal/query"
)

// Elastic talks to Elasticsearch.
type Elastic struct {
	client  *elasticsearch.Client
	indices []string
}

func NewElastic(cfg Config) (*Elastic, error) {
	if len(cfg.Addresses) == 0 {
		return nil, fmt.Errorf("elasticsearch addresses are empty")
	}

	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: newTransport(cfg),
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client creation error: %w", err)
	}

	return &Elastic{client: es, indices: indices(cfg.Index)}, nil
}

func (e *Elastic) Name() string {
	return EngineElasticsearch
}

func (e *Elastic) Search(ctx context.Context, doc *query.Document) (*Result, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}

	res, err := e.client.Search(
		e.client.Search.WithContext(ctx),
		e.client.Search.WithIndex(e.indices...),
		e.client.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, transportError(e.Name(), err)
	}

	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(res.Body)

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, transportError(e.Name(), err)
	}

	if res.IsError() {
		return nil, statusError(e.Name(), res.StatusCode, raw)
	}

	result, err := DecodeResult(raw)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrBackend, err)
	}

	return result, nil
}

func (e *Elastic) Count(ctx context.Context, doc *query.Document) (int64, error) {
	res, err := e.Search(ctx, countDocument(doc))
	if err != nil {
		return 0, err
	}
	return res.Total, nil
}

func (e *Elastic) Ping(ctx context.Context) error {
	res, err := e.client.Ping(e.client.Ping.WithContext(ctx))
	if err != nil {
		return transportError(e.Name(), err)
	}

	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(res.Body)

	if res.IsError() {
		return statusError(e.Name(), res.StatusCode, nil)
	}

	return nil
}

// statusError reports a non-2xx engine response. Client errors point at a
// query the engine would not accept.
func statusError(engine string, status int, body []byte) error {
	msg := fmt.Sprintf("%s returned status %d", engine, status)
	if len(body) > 0 {
		msg = fmt.Sprintf("%s: %s", msg, truncate(string(body), 512))
	}

	if status == http.StatusBadRequest {
		return apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, msg)
	}

	return apperrors.New(apperrors.ErrBackend, http.StatusBadGateway, msg)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
