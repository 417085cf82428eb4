package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/opensearch-project/opensearch-go/v4"
	"github.com/opensearch-project/opensearch-go/v4/opensearchapi"

	apperrors "github.com/npolar/icelastic-ws/internal/errors"
	"github.com/npolar/icelastic-ws/internal/query"
)

// OpenSearch talks to an OpenSearch cluster.
type OpenSearch struct {
	client  *opensearchapi.Client
	indices []string
}

func NewOpenSearch(cfg Config) (*OpenSearch, error) {
	if len(cfg.Addresses) == 0 {
		return nil, fmt.Errorf("opensearch addresses are empty")
	}

	client, err := opensearchapi.NewClient(
		opensearchapi.Config{
			Client: opensearch.Config{
				Addresses: cfg.Addresses,
				Username:  cfg.Username,
				Password:  cfg.Password,
				Transport: newTransport(cfg),
			},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("opensearch client creation error: %w", err)
	}

	return &OpenSearch{client: client, indices: indices(cfg.Index)}, nil
}

func (o *OpenSearch) Name() string {
	return EngineOpenSearch
}

func (o *OpenSearch) Search(ctx context.Context, doc *query.Document) (*Result, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}

	req := opensearchapi.SearchReq{
		Indices: o.indices,
		Body:    bytes.NewReader(body),
	}

	// decode into a raw message; the typed response drops fields we echo
	var raw json.RawMessage

	resp, err := o.client.Client.Do(ctx, req, &raw)
	if err != nil {
		if resp != nil && resp.StatusCode >= 400 {
			return nil, statusError(o.Name(), resp.StatusCode, []byte(err.Error()))
		}
		return nil, transportError(o.Name(), err)
	}

	result, err := DecodeResult(raw)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrBackend, err)
	}

	return result, nil
}

func (o *OpenSearch) Count(ctx context.Context, doc *query.Document) (int64, error) {
	res, err := o.Search(ctx, countDocument(doc))
	if err != nil {
		return 0, err
	}
	return res.Total, nil
}

func (o *OpenSearch) Ping(ctx context.Context) error {
	resp, err := o.client.Client.Do(ctx, opensearchapi.PingReq{}, nil)
	if err != nil {
		if resp != nil && resp.StatusCode >= 400 {
			return statusError(o.Name(), resp.StatusCode, nil)
		}
		return transportError(o.Name(), err)
	}

	if resp == nil {
		return transportError(o.Name(), errors.New("empty ping response"))
	}

	if resp.Body != nil {
		_ = resp.Body.Close()
	}

	return nil
}
