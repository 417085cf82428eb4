package backend

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Result is the backend's answer to a compiled query.
type Result struct {
	Took         int64
	Total        int64
	MaxScore     *float64
	Hits         []Hit
	Aggregations map[string]Aggregation

	// Raw is the undecoded response body.
	Raw json.RawMessage
}

type Hit struct {
	ID        string
	Score     *float64
	Source    map[string]interface{}
	Highlight map[string][]string
}

type Aggregation struct {
	Buckets []Bucket
}

// Bucket is one aggregation bucket. Fields is the full bucket object as
// returned, including any sub-aggregations.
type Bucket struct {
	Key         interface{}
	KeyAsString string
	DocCount    *int64
	Fields      map[string]interface{}
}

// Term returns the formatted key when present, else the raw key.
func (b Bucket) Term() interface{} {
	if b.KeyAsString != "" {
		return b.KeyAsString
	}
	return b.Key
}

type rawResponse struct {
	Took int64 `json:"took"`
	Hits struct {
		Total    json.RawMessage `json:"total"`
		MaxScore *float64        `json:"max_score"`
		Hits     []struct {
			ID        string                 `json:"_id"`
			Score     *float64               `json:"_score"`
			Source    map[string]interface{} `json:"_source"`
			Highlight map[string][]string    `json:"highlight"`
		} `json:"hits"`
	} `json:"hits"`
	AggregationsRaw map[string]interface{} `json:"aggregations"`
}

type rawAggregation struct {
	Buckets []map[string]interface{} `json:"buckets"`
}

// DecodeResult parses a search response body.
func DecodeResult(body []byte) (*Result, error) {
	var raw rawResponse

	dec := json.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	total, err := decodeTotal(raw.Hits.Total)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Took:     raw.Took,
		Total:    total,
		MaxScore: raw.Hits.MaxScore,
		Raw:      json.RawMessage(body),
	}

	for _, h := range raw.Hits.Hits {
		src := h.Source
		if src == nil {
			src = make(map[string]interface{})
		}
		res.Hits = append(res.Hits, Hit{ID: h.ID, Score: h.Score, Source: src, Highlight: h.Highlight})
	}

	aggs, err := convertAggregations(raw.AggregationsRaw)
	if err != nil {
		return nil, err
	}
	res.Aggregations = aggs

	return res, nil
}

// hits.total is a bare number on older engines and {value, relation} on
// newer ones.
func decodeTotal(raw json.RawMessage) (int64, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, nil
	}

	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}

	var obj struct {
		Value int64 `json:"value"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return 0, fmt.Errorf("failed to decode hits.total: %w", err)
	}

	return obj.Value, nil
}

func convertAggregations(in map[string]interface{}) (map[string]Aggregation, error) {
	// the aggregations block mixes bucket aggregations with metric ones
	// (e.g. a top level extended_stats), so only the entries that carry a
	// bucket list are decoded.

	bucketed := make(map[string]interface{})
	for key, val := range in {
		if m, ok := val.(map[string]interface{}); ok {
			if _, ok := m["buckets"].([]interface{}); ok {
				bucketed[key] = val
			}
		}
	}

	var decoded map[string]rawAggregation

	cfg := &mapstructure.DecoderConfig{
		Metadata:   nil,
		Result:     &decoded,
		TagName:    "json",
		ZeroFields: true,
	}

	dec, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return nil, err
	}

	if err := dec.Decode(bucketed); err != nil {
		return nil, fmt.Errorf("failed to decode aggregations: %w", err)
	}

	out := make(map[string]Aggregation, len(decoded))
	for name, agg := range decoded {
		buckets := make([]Bucket, 0, len(agg.Buckets))
		for _, b := range agg.Buckets {
			buckets = append(buckets, newBucket(b))
		}
		out[name] = Aggregation{Buckets: buckets}
	}

	return out, nil
}

func newBucket(m map[string]interface{}) Bucket {
	b := Bucket{Key: m["key"], Fields: m}

	if s, ok := m["key_as_string"].(string); ok {
		b.KeyAsString = s
	}

	switch n := m["doc_count"].(type) {
	case float64:
		c := int64(n)
		b.DocCount = &c
	case json.Number:
		if c, err := n.Int64(); err == nil {
			b.DocCount = &c
		}
	}

	return b
}
