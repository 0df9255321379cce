package search

import (
	"time"

	"github.com/logops-io/logops/internal/domain"
)

// Query is a structured search-store request body, marshaled as-is
type Query map[string]any

// termFields are the exact-match filter fields, queried against their
// .keyword sub-fields
var termFields = []struct {
	docField string
	value    func(domain.Filter) string
}{
	{"application", func(f domain.Filter) string { return f.Application }},
	{"cluster", func(f domain.Filter) string { return f.Cluster }},
	{"bundle", func(f domain.Filter) string { return f.Bundle }},
	{"pod", func(f domain.Filter) string { return f.Pod }},
	{"log_level", func(f domain.Filter) string { return f.LogLevel }},
}

// BuildSearchQuery constructs the filtered, full-text, paginated search
// request for a filter. With no criteria at all it matches every document
// rather than none.
func BuildSearchQuery(f domain.Filter) Query {
	var must []any

	for _, tf := range termFields {
		if v := tf.value(f); v != "" {
			must = append(must, map[string]any{
				"term": map[string]any{tf.docField + ".keyword": v},
			})
		}
	}

	if f.SearchText != "" {
		must = append(must, map[string]any{
			"multi_match": map[string]any{
				"query":  f.SearchText,
				"fields": []string{"log_message", "message"},
			},
		})
	}

	if !f.StartTime.IsZero() || !f.EndTime.IsZero() {
		bounds := map[string]any{}
		if !f.StartTime.IsZero() {
			bounds["gte"] = f.StartTime.Format(time.RFC3339)
		}
		if !f.EndTime.IsZero() {
			bounds["lte"] = f.EndTime.Format(time.RFC3339)
		}
		must = append(must, map[string]any{
			"range": map[string]any{"@timestamp": bounds},
		})
	}

	var query any = map[string]any{"match_all": map[string]any{}}
	if len(must) > 0 {
		query = map[string]any{"bool": map[string]any{"must": must}}
	}

	return Query{
		"query": query,
		"size":  f.PageSize,
		"from":  (f.Page - 1) * f.PageSize,
		"sort": []any{
			map[string]any{"@timestamp": map[string]any{"order": "desc"}},
		},
	}
}

// Aggregation bucket caps, bounded so a pathological corpus cannot blow up
// response memory
const (
	levelBuckets       = 10
	applicationBuckets = 20
	clusterBuckets     = 20
	podBuckets         = 100
	bundleBuckets      = 50
)

// BuildAggregationQuery constructs the term-frequency aggregation request
// over the five keyword fields, scoped by whichever of application/cluster/
// bundle are set.
func BuildAggregationQuery(f domain.Filter) Query {
	var must []any
	for _, field := range []struct {
		docField string
		value    string
	}{
		{"application", f.Application},
		{"cluster", f.Cluster},
		{"bundle", f.Bundle},
	} {
		if field.value != "" {
			must = append(must, map[string]any{
				"term": map[string]any{field.docField + ".keyword": field.value},
			})
		}
	}

	var query any = map[string]any{"match_all": map[string]any{}}
	if len(must) > 0 {
		query = map[string]any{"bool": map[string]any{"must": must}}
	}

	return Query{
		"query": query,
		"size":  0,
		"aggs": map[string]any{
			"log_levels":   termsAgg("log_level.keyword", levelBuckets),
			"applications": termsAgg("application.keyword", applicationBuckets),
			"clusters":     termsAgg("cluster.keyword", clusterBuckets),
			"pods":         termsAgg("pod.keyword", podBuckets),
			"bundles":      termsAgg("bundle.keyword", bundleBuckets),
		},
	}
}

func termsAgg(field string, size int) map[string]any {
	return map[string]any{
		"terms": map[string]any{"field": field, "size": size},
	}
}
