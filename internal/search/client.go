// Package search builds structured queries and executes them against the
// backing search store over its HTTP API.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/logops-io/logops/internal/domain"
)

// Per-operation timeouts. Search and aggregation answers must come back
// quickly; bulk indexing moves more data and gets longer.
const (
	pingTimeout      = 5 * time.Second
	searchTimeout    = 15 * time.Second
	bulkTimeout      = 60 * time.Second
	aggregateTimeout = 15 * time.Second
)

// Config holds the externally supplied connection settings for the store
type Config struct {
	URL    string
	APIKey string
	Index  string
}

// Client talks to one search store index. It is explicitly constructed and
// carries no cached availability state; Ping answers the current truth.
type Client struct {
	baseURL string
	apiKey  string
	index   string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient creates a search store client
func NewClient(cfg Config, logger *zap.Logger) *Client {
	index := cfg.Index
	if index == "" {
		index = "logops-logs"
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		apiKey:  cfg.APIKey,
		index:   index,
		http:    &http.Client{},
		logger:  logger,
	}
}

// Index returns the logical index name the client reads and writes
func (c *Client) Index() string {
	return c.index
}

// Ping probes cluster health with a short timeout. It never returns an
// error; any failure reads as unavailable.
func (c *Client) Ping(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	body, err := c.do(ctx, http.MethodGet, "/_cluster/health", "", nil)
	if err != nil {
		c.logger.Debug("store health probe failed", zap.Error(err))
		return false
	}
	return gjson.GetBytes(body, "status").Exists()
}

// Search executes a structured query and returns one page of entries,
// most recent first
func (c *Client) Search(ctx context.Context, q Query) (*domain.SearchResult, error) {
	ctx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()

	payload, err := json.Marshal(q)
	if err != nil {
		return nil, fmt.Errorf("%w: encode query: %v", domain.ErrQueryFailed, err)
	}

	body, err := c.do(ctx, http.MethodPost, "/"+c.index+"/_search", "application/json", payload)
	if err != nil {
		return nil, err
	}

	hits := gjson.GetBytes(body, "hits.hits")
	if !hits.Exists() {
		return nil, fmt.Errorf("%w: response missing hits", domain.ErrQueryFailed)
	}

	result := &domain.SearchResult{
		TotalMatched: int(gjson.GetBytes(body, "hits.total.value").Int()),
		Source:       domain.SourceSearchEngine,
	}
	hits.ForEach(func(_, hit gjson.Result) bool {
		result.Entries = append(result.Entries, entryFromHit(hit.Get("_source")))
		return true
	})
	return result, nil
}

// entryFromHit converts one stored document into a LogEntry. Seeded data
// carries the message under log_message, ad-hoc data under message; either
// is accepted.
func entryFromHit(src gjson.Result) domain.LogEntry {
	message := src.Get("log_message").String()
	if message == "" {
		message = src.Get("message").String()
	}
	ts := src.Get("@timestamp").String()
	if ts == "" {
		ts = src.Get("timestamp").String()
	}
	parsed, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		parsed, _ = time.Parse("2006-01-02T15:04:05", ts)
	}
	return domain.LogEntry{
		Timestamp:           parsed,
		Application:         src.Get("application").String(),
		Cluster:             src.Get("cluster").String(),
		Bundle:              src.Get("bundle").String(),
		Pod:                 src.Get("pod").String(),
		Level:               domain.ParseLogLevel(src.Get("log_level").String()),
		Message:             message,
		ResponseTimeSeconds: src.Get("response_time").Float(),
		StatusCode:          int(src.Get("status_code").Int()),
		Source:              domain.SourceSearchEngine,
	}
}

// BulkReport counts the outcome of one bulk-index request
type BulkReport struct {
	Indexed int
	Errors  int
}

// BulkIndex indexes entries with one NDJSON request. Best effort: partial
// failures are counted in the report, not returned as errors.
func (c *Client) BulkIndex(ctx context.Context, entries []domain.LogEntry) (BulkReport, error) {
	if len(entries) == 0 {
		return BulkReport{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, bulkTimeout)
	defer cancel()

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, entry := range entries {
		action := map[string]any{"index": map[string]any{
			"_index": c.index,
			"_id":    uuid.NewString(),
		}}
		if err := enc.Encode(action); err != nil {
			return BulkReport{}, fmt.Errorf("%w: encode bulk action: %v", domain.ErrQueryFailed, err)
		}
		if err := enc.Encode(documentFromEntry(entry)); err != nil {
			return BulkReport{}, fmt.Errorf("%w: encode bulk document: %v", domain.ErrQueryFailed, err)
		}
	}

	body, err := c.do(ctx, http.MethodPost, "/_bulk", "application/x-ndjson", buf.Bytes())
	if err != nil {
		return BulkReport{Errors: len(entries)}, err
	}

	report := BulkReport{}
	gjson.GetBytes(body, "items").ForEach(func(_, item gjson.Result) bool {
		status := item.Get("index.status").Int()
		if status == http.StatusOK || status == http.StatusCreated {
			report.Indexed++
		} else {
			report.Errors++
		}
		return true
	})
	c.logger.Info("bulk indexed log entries",
		zap.Int("indexed", report.Indexed),
		zap.Int("errors", report.Errors))
	return report, nil
}

// documentFromEntry renders a LogEntry as the stored document shape. The
// message and timestamp are written under both field names the index has
// historically used.
func documentFromEntry(e domain.LogEntry) map[string]any {
	ts := e.Timestamp.Format(time.RFC3339)
	doc := map[string]any{
		"@timestamp":  ts,
		"timestamp":   ts,
		"application": e.Application,
		"cluster":     e.Cluster,
		"bundle":      e.Bundle,
		"pod":         e.Pod,
		"log_level":   string(e.Level),
		"log_message": e.Message,
		"message":     e.Message,
		"source_file": string(e.Source),
	}
	if e.ResponseTimeSeconds > 0 {
		doc["response_time"] = e.ResponseTimeSeconds
	}
	if e.StatusCode > 0 {
		doc["status_code"] = e.StatusCode
	}
	return doc
}

// Aggregate executes an aggregation query and returns the term-frequency
// statistics
func (c *Client) Aggregate(ctx context.Context, q Query) (*domain.Stats, error) {
	ctx, cancel := context.WithTimeout(ctx, aggregateTimeout)
	defer cancel()

	payload, err := json.Marshal(q)
	if err != nil {
		return nil, fmt.Errorf("%w: encode query: %v", domain.ErrQueryFailed, err)
	}

	body, err := c.do(ctx, http.MethodPost, "/"+c.index+"/_search", "application/json", payload)
	if err != nil {
		return nil, err
	}

	stats := &domain.Stats{
		TotalLogs:    int(gjson.GetBytes(body, "hits.total.value").Int()),
		LogLevels:    buckets(body, "log_levels"),
		Applications: buckets(body, "applications"),
		Clusters:     buckets(body, "clusters"),
		Pods:         buckets(body, "pods"),
		Bundles:      buckets(body, "bundles"),
	}
	return stats, nil
}

func buckets(body []byte, agg string) map[string]int {
	out := map[string]int{}
	gjson.GetBytes(body, "aggregations."+agg+".buckets").ForEach(func(_, b gjson.Result) bool {
		out[b.Get("key").String()] = int(b.Get("doc_count").Int())
		return true
	})
	return out
}

// Count returns the number of documents in the index
func (c *Client) Count(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()

	body, err := c.do(ctx, http.MethodGet, "/"+c.index+"/_count", "", nil)
	if err != nil {
		return 0, err
	}
	return int(gjson.GetBytes(body, "count").Int()), nil
}

// Health describes the cluster and per-index document counts
type Health struct {
	Status    string         `json:"status"`
	Cluster   string         `json:"cluster_name"`
	Nodes     int            `json:"number_of_nodes"`
	DocCounts map[string]int `json:"doc_counts"`
	Available bool           `json:"available"`
}

// Health reports cluster health plus index statistics. A probe failure is
// returned as an unavailable Health, not an error.
func (c *Client) Health(ctx context.Context) *Health {
	ctx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()

	body, err := c.do(ctx, http.MethodGet, "/_cluster/health", "", nil)
	if err != nil {
		return &Health{Status: "error", Available: false}
	}

	h := &Health{
		Status:    gjson.GetBytes(body, "status").String(),
		Cluster:   gjson.GetBytes(body, "cluster_name").String(),
		Nodes:     int(gjson.GetBytes(body, "number_of_nodes").Int()),
		DocCounts: map[string]int{},
		Available: true,
	}

	stats, err := c.do(ctx, http.MethodGet, "/"+c.index+"/_stats", "", nil)
	if err == nil {
		gjson.GetBytes(stats, "indices").ForEach(func(name, idx gjson.Result) bool {
			h.DocCounts[name.String()] = int(idx.Get("total.docs.count").Int())
			return true
		})
	}
	return h
}

// do performs one HTTP round trip and returns the response body. Non-2xx
// statuses become ErrQueryFailed; transport failures become
// ErrStoreUnavailable.
func (c *Client) do(ctx context.Context, method, path, contentType string, payload []byte) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "ApiKey "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", domain.ErrQueryFailed, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: HTTP %d from %s", domain.ErrQueryFailed, resp.StatusCode, path)
	}
	return body, nil
}
