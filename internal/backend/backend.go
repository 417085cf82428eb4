// Package backend sends compiled queries to the document-search engine and
// decodes its responses.
package backend

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/npolar/icelastic-ws/internal/errors"
	"github.com/npolar/icelastic-ws/internal/query"
)

// Backend executes compiled queries.
type Backend interface {
	Name() string
	Search(ctx context.Context, doc *query.Document) (*Result, error)
	Count(ctx context.Context, doc *query.Document) (int64, error)
	Ping(ctx context.Context) error
}

const (
	EngineElasticsearch = "elasticsearch"
	EngineOpenSearch    = "opensearch"
)

// Config describes how to reach the engine.
type Config struct {
	Engine      string
	Addresses   []string
	Index       string
	Username    string
	Password    string
	ConnTimeout int // seconds
	ReadTimeout int // seconds
}

// New returns the driver for cfg.Engine.
func New(cfg Config) (Backend, error) {
	switch strings.ToLower(cfg.Engine) {
	case EngineElasticsearch, "":
		return NewElastic(cfg)
	case EngineOpenSearch:
		return NewOpenSearch(cfg)
	default:
		return nil, fmt.Errorf("unsupported search engine [%s]", cfg.Engine)
	}
}

func timeoutWithMinimum(val int, min int) int {
	if val < min {
		return min
	}
	return val
}

func newTransport(cfg Config) *http.Transport {
	connTimeout := timeoutWithMinimum(cfg.ConnTimeout, 5)
	readTimeout := timeoutWithMinimum(cfg.ReadTimeout, 5)

	return &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   time.Duration(connTimeout) * time.Second,
			KeepAlive: 60 * time.Second,
		}).DialContext,
		ResponseHeaderTimeout: time.Duration(readTimeout) * time.Second,
		MaxIdleConns:          100, // one engine cluster, so
		MaxIdleConnsPerHost:   100, // these two values can be the same
		IdleConnTimeout:       90 * time.Second,
	}
}

func indices(index string) []string {
	var out []string
	for _, s := range strings.Split(index, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// countDocument strips everything but the query and filters from doc.
func countDocument(doc *query.Document) *query.Document {
	return &query.Document{
		Size:    0,
		Query:   doc.Query,
		Filters: doc.Filters,
	}
}

// transportError tags a failed round trip with the matching sentinel.
func transportError(engine string, err error) error {
	var netErr net.Error

	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout(),
		strings.Contains(err.Error(), "Timeout"):
		return apperrors.Newf(apperrors.ErrBackendTimeout, http.StatusGatewayTimeout, "%s timed out", engine)
	case strings.Contains(err.Error(), "connection refused"):
		return apperrors.Newf(apperrors.ErrUnavailable, http.StatusServiceUnavailable, "%s refused connection", engine)
	default:
		return apperrors.Newf(apperrors.ErrBackend, http.StatusBadGateway, "%s request failed: %s", engine, err.Error())
	}
}
