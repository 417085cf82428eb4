package main

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/npolar/icelastic-ws/internal/backend"
	apperrors "github.com/npolar/icelastic-ws/internal/errors"
	"github.com/npolar/icelastic-ws/internal/feed"
	"github.com/npolar/icelastic-ws/internal/metrics"
	"github.com/npolar/icelastic-ws/internal/params"
	"github.com/npolar/icelastic-ws/internal/query"
	"github.com/npolar/icelastic-ws/internal/writer"
)

type searchContext struct {
	svc    *serviceContext
	client *clientContext
	bag    *params.Bag
	doc    *query.Document
	result *backend.Result
	writer writer.Writer
}

type searchResponse struct {
	status    int    // http status code
	mediaType string // content type of body
	body      []byte // rendered output
	err       error  // error, if any
}

type errorBody struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

func (s *searchContext) init(svc *serviceContext, c *clientContext) {
	s.svc = svc
	s.client = c
}

func (s *searchContext) log(format string, args ...interface{}) {
	s.client.log(format, args...)
}

func (s *searchContext) warn(format string, args ...interface{}) {
	s.client.warn(format, args...)
}

func (s *searchContext) err(format string, args ...interface{}) {
	s.client.err(format, args...)
}

func failure(err error) searchResponse {
	return searchResponse{status: apperrors.HTTPStatusCode(err), err: err}
}

func (s *searchContext) parseRequest(rawQuery string) searchResponse {
	b, err := params.Normalize(rawQuery, s.svc.registry)
	if err != nil {
		s.err("parameter error: %s", err.Error())
		return failure(err)
	}
	s.bag = b

	w, err := s.svc.writers.Lookup(b.Format())
	if err != nil {
		s.err("format error: %s", err.Error())
		return failure(err)
	}
	s.writer = w

	return searchResponse{status: http.StatusOK}
}

func (s *searchContext) compile() searchResponse {
	doc, err := query.Compile(s.bag)
	if err != nil {
		s.err("query creation error: %s", err.Error())
		return failure(err)
	}

	for _, w := range doc.Warnings {
		s.warn("query warning: %s", w.Error())
		s.svc.metrics.CompileWarnings.WithLabelValues(warningKind(w)).Inc()
	}

	s.doc = doc

	return searchResponse{status: http.StatusOK}
}

func warningKind(err error) string {
	if errors.Is(err, apperrors.ErrMalformedGeo) {
		return "geo"
	}
	return "other"
}

// expandLimitAll replaces limit=all with the number of matching documents.
func (s *searchContext) expandLimitAll() searchResponse {
	if !s.bag.LimitAll() {
		return searchResponse{status: http.StatusOK}
	}

	if resp := s.compile(); resp.err != nil {
		return resp
	}

	start := time.Now()
	count, err := s.svc.backend.Count(s.client.ginCtx.Request.Context(), s.doc)
	s.svc.metrics.ObserveBackend(s.svc.backend.Name(), "count", time.Since(start))

	if err != nil {
		s.err("count error: %s", err.Error())
		return failure(err)
	}

	s.log("[BACKEND] limit=all resolved to %d documents", count)
	s.bag = s.bag.With("limit", strconv.FormatInt(count, 10))

	return searchResponse{status: http.StatusOK}
}

func (s *searchContext) performSearch() searchResponse {
	s.log("**********  START BACKEND QUERY  **********")

	if body, err := s.doc.MarshalJSON(); err == nil {
		s.log("[BACKEND] req: [%s]", string(body))
	}

	start := time.Now()
	res, err := s.svc.backend.Search(s.client.ginCtx.Request.Context(), s.doc)
	elapsed := time.Since(start)
	s.svc.metrics.ObserveBackend(s.svc.backend.Name(), "search", elapsed)

	elapsedMS := int64(elapsed / time.Millisecond)

	s.log("**********   END BACKEND QUERY   **********")

	if err != nil {
		s.err("failed response from %s: %s. Elapsed Time: %d (ms)", s.svc.backend.Name(), err.Error(), elapsedMS)
		return failure(err)
	}

	s.log("successful response from %s. Elapsed Time: %d (ms)", s.svc.backend.Name(), elapsedMS)
	s.log("[BACKEND] res: { took = %d, total = %d, hits = %d }", res.Took, res.Total, len(res.Hits))

	s.svc.metrics.SearchResultsCount.Observe(float64(res.Total))
	s.result = res

	return searchResponse{status: http.StatusOK}
}

func (s *searchContext) render() searchResponse {
	m := feed.Present(s.bag, s.doc, s.result, requestBase(s.client.ginCtx.Request))

	var buf bytes.Buffer
	if err := s.writer.Write(&buf, m, s.bag); err != nil {
		s.err("%s writer error: %s", s.writer.Format(), err.Error())
		return searchResponse{status: http.StatusInternalServerError, err: err}
	}

	return searchResponse{status: http.StatusOK, mediaType: writer.MediaType(s.writer, s.bag), body: buf.Bytes()}
}

func (s *searchContext) handleSearchRequest(rawQuery string) searchResponse {
	resp := s.runSearch(rawQuery)

	format := "unknown"
	if s.writer != nil {
		format = s.writer.Format()
	}
	s.svc.metrics.ObserveSearch(format, outcome(resp))

	return resp
}

func (s *searchContext) runSearch(rawQuery string) searchResponse {
	if resp := s.parseRequest(rawQuery); resp.err != nil {
		return resp
	}

	if resp := s.expandLimitAll(); resp.err != nil {
		return resp
	}

	if resp := s.compile(); resp.err != nil {
		return resp
	}

	if resp := s.performSearch(); resp.err != nil {
		return resp
	}

	return s.render()
}

func outcome(resp searchResponse) string {
	switch {
	case resp.err == nil:
		return metrics.OutcomeOK
	case resp.status < http.StatusInternalServerError:
		return metrics.OutcomeClientError
	default:
		return metrics.OutcomeBackendError
	}
}

// requestBase is the scheme, host and path a link should point back to.
func requestBase(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	host := r.Host
	if fwd := r.Header.Get("X-Forwarded-Host"); fwd != "" {
		host = fwd
	}

	return scheme + "://" + host + r.URL.Path
}
