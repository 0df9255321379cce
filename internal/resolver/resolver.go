// Package resolver orchestrates log resolution through an ordered chain of
// sources: cache, search store (mapped then literal vocabulary), on-demand
// synthesis, file fallback, and ephemeral generation. Store failures at any
// tier degrade to the next tier; only malformed requests are rejected.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/logops-io/logops/internal/cache"
	"github.com/logops-io/logops/internal/domain"
	"github.com/logops-io/logops/internal/fieldmap"
	"github.com/logops-io/logops/internal/search"
	"github.com/logops-io/logops/internal/synth"
)

// SearchStore is the slice of the search client the resolver depends on
type SearchStore interface {
	Ping(ctx context.Context) bool
	Search(ctx context.Context, q search.Query) (*domain.SearchResult, error)
	BulkIndex(ctx context.Context, entries []domain.LogEntry) (search.BulkReport, error)
	Aggregate(ctx context.Context, q search.Query) (*domain.Stats, error)
}

// FileSource reads fallback log files
type FileSource interface {
	Read(application, bundle string) (string, string, error)
}

// PodListResult is a resolved pod list with its provenance
type PodListResult struct {
	Pods   []domain.Pod  `json:"pods"`
	Source domain.Source `json:"source"`
}

// PodLogsResult is a resolved, formatted pod-log payload with provenance
type PodLogsResult struct {
	Text    string            `json:"logs"`
	Entries []domain.LogEntry `json:"entries,omitempty"`
	Source  domain.Source     `json:"source"`
	Total   int               `json:"total"`
}

// Resolver resolves log queries through the tier chain. Each request is
// independent; the caches are the only shared state.
type Resolver struct {
	store      SearchStore
	files      FileSource
	normalizer *fieldmap.Normalizer
	gen        *synth.Generator
	clk        clock.Clock
	logger     *zap.Logger

	pods *cache.Store[PodListResult]
	logs *cache.Store[PodLogsResult]

	// collapses concurrent identical lookups into one store round trip
	group singleflight.Group
}

// New creates a Resolver with production defaults
func New(store SearchStore, files FileSource, logger *zap.Logger) *Resolver {
	return NewWith(store, files, synth.NewGenerator(), clock.New(), logger)
}

// NewWith creates a Resolver with an explicit generator and clock
func NewWith(store SearchStore, files FileSource, gen *synth.Generator, clk clock.Clock, logger *zap.Logger) *Resolver {
	return &Resolver{
		store:      store,
		files:      files,
		normalizer: fieldmap.New(),
		gen:        gen,
		clk:        clk,
		logger:     logger,
		pods:       cache.New[PodListResult](cache.PodListTTL),
		logs:       cache.New[PodLogsResult](cache.PodLogsTTL),
	}
}

// PodList resolves the pods for an application/cluster/bundle combination:
// cache, then store aggregations over both vocabularies, then sample pods.
func (r *Resolver) PodList(ctx context.Context, f domain.Filter) (PodListResult, error) {
	if err := f.Validate(domain.ScopePodList); err != nil {
		return PodListResult{}, err
	}

	norm := r.normalizer.Normalize(f)
	key := cache.Key("pods", norm.Application, norm.Cluster, norm.Bundle)
	if cached, ok := r.pods.Get(key); ok {
		r.logger.Debug("pod list cache hit", zap.String("key", key))
		return cached, nil
	}

	v, err, _ := r.group.Do(key, func() (any, error) {
		result := r.resolvePodList(ctx, f)
		r.pods.Set(key, result)
		return result, nil
	})
	if err != nil {
		return PodListResult{}, err
	}
	return v.(PodListResult), nil
}

func (r *Resolver) resolvePodList(ctx context.Context, f domain.Filter) PodListResult {
	for _, candidate := range r.normalizer.Candidates(f) {
		stats, err := r.store.Aggregate(ctx, search.BuildAggregationQuery(candidate))
		if err != nil {
			r.logger.Warn("pod aggregation failed, trying next tier",
				zap.String("application", candidate.Application),
				zap.String("cluster", candidate.Cluster),
				zap.String("bundle", candidate.Bundle),
				zap.Error(err))
			continue
		}
		if len(stats.Pods) == 0 {
			continue
		}

		names := make([]string, 0, len(stats.Pods))
		for name := range stats.Pods {
			names = append(names, name)
		}
		sort.Strings(names)

		pods := make([]domain.Pod, 0, len(names))
		for _, name := range names {
			count := stats.Pods[name]
			pods = append(pods, domain.Pod{
				Name:        name,
				DisplayName: fmt.Sprintf("%s (%d logs)", titleCase(name), count),
				LogCount:    count,
			})
		}
		r.logger.Info("resolved pod list from search store",
			zap.String("bundle", candidate.Bundle), zap.Int("pods", len(pods)))
		return PodListResult{Pods: pods, Source: domain.SourceSearchEngine}
	}

	r.logger.Info("no pods in search store, generating sample pods",
		zap.String("application", f.Application), zap.String("bundle", f.Bundle))
	return PodListResult{
		Pods:   r.gen.SamplePods(f.Application, f.Bundle),
		Source: domain.SourceSynthetic,
	}
}

// PodLogs resolves the formatted log payload for one pod through the full
// tier chain. Every returned payload carries its resolution source.
func (r *Resolver) PodLogs(ctx context.Context, f domain.Filter) (PodLogsResult, error) {
	if err := f.Validate(domain.ScopePodLogs); err != nil {
		return PodLogsResult{}, err
	}

	norm := r.normalizer.Normalize(f)
	key := cache.Key("pod_logs", norm.Application, norm.Cluster, norm.Bundle, norm.Pod)
	if cached, ok := r.logs.Get(key); ok {
		r.logger.Debug("pod logs cache hit", zap.String("key", key))
		return cached, nil
	}

	v, err, _ := r.group.Do(key, func() (any, error) {
		return r.resolvePodLogs(ctx, f, norm, key), nil
	})
	if err != nil {
		return PodLogsResult{}, err
	}
	return v.(PodLogsResult), nil
}

func (r *Resolver) resolvePodLogs(ctx context.Context, f, norm domain.Filter, key string) PodLogsResult {
	// Tiers 2-3: search the store with mapped values, then literal values.
	if result, ok := r.searchCandidates(ctx, f); ok {
		payload := r.logsPayload(norm, result.Entries, domain.SourceSearchEngine, result.TotalMatched)
		r.logs.Set(key, payload)
		return payload
	}

	// Tier 4: no data exists for this combination; synthesize a batch,
	// index it best-effort, and search once more. Indexing failure does not
	// block the response.
	batch := r.gen.PodBatch(norm)
	if report, err := r.store.BulkIndex(ctx, batch); err != nil {
		r.logger.Warn("failed to index synthesized batch", zap.Error(err))
	} else {
		r.logger.Info("indexed synthesized batch",
			zap.Int("indexed", report.Indexed), zap.Int("errors", report.Errors))

		q := search.BuildSearchQuery(norm.WithPage(1, domain.MaxPageSize))
		if result, err := r.store.Search(ctx, q); err == nil && len(result.Entries) > 0 {
			payload := r.logsPayload(norm, result.Entries, domain.SourceSearchEngine, result.TotalMatched)
			r.logs.Set(key, payload)
			return payload
		}
	}

	// Tier 5: read-only file fallback.
	if content, name, err := r.files.Read(f.Application, f.Bundle); err == nil {
		r.logger.Info("resolved pod logs from fallback file", zap.String("file", name))
		payload := PodLogsResult{
			Text:   podLogsHeader(norm, domain.SourceFile, r.clk.Now()) + content,
			Source: domain.SourceFile,
		}
		r.logs.Set(key, payload)
		return payload
	} else if errors.Is(err, domain.ErrFileRead) {
		r.logger.Warn("fallback file unreadable, continuing to synthetic tier", zap.Error(err))
	}

	// Tier 6: serve the synthesized entries directly, without caching. The
	// requested pod is usually one of the batch pods; pods outside the
	// batch shape get the name-scripted generation instead.
	entries := entriesForPod(batch, norm.Pod)
	if len(entries) == 0 {
		entries = r.gen.PodScript(norm, norm.Pod)
	}
	r.logger.Info("serving synthetic pod logs",
		zap.String("pod", norm.Pod), zap.Int("lines", len(entries)))
	return r.logsPayload(norm, entries, domain.SourceSynthetic, len(entries))
}

// searchCandidates runs the ordered candidate filters against the store
// and returns the first non-empty page. Failures are logged per tier and
// treated as misses.
func (r *Resolver) searchCandidates(ctx context.Context, f domain.Filter) (*domain.SearchResult, bool) {
	for _, candidate := range r.normalizer.Candidates(f) {
		q := search.BuildSearchQuery(candidate.WithPage(1, domain.MaxPageSize))
		result, err := r.store.Search(ctx, q)
		if err != nil {
			r.logger.Warn("store search failed, trying next candidate",
				zap.String("application", candidate.Application),
				zap.String("cluster", candidate.Cluster),
				zap.String("bundle", candidate.Bundle),
				zap.String("pod", candidate.Pod),
				zap.Error(err))
			continue
		}
		if len(result.Entries) > 0 {
			return result, true
		}
		r.logger.Debug("store returned no matches for candidate",
			zap.String("cluster", candidate.Cluster), zap.String("bundle", candidate.Bundle))
	}
	return nil, false
}

func (r *Resolver) logsPayload(norm domain.Filter, entries []domain.LogEntry, source domain.Source, total int) PodLogsResult {
	return PodLogsResult{
		Text:    podLogsHeader(norm, source, r.clk.Now()) + FormatEntries(entries),
		Entries: entries,
		Source:  source,
		Total:   total,
	}
}

// entriesForPod selects the batch entries belonging to one pod, newest
// first to match what a store search would return
func entriesForPod(batch []domain.LogEntry, pod string) []domain.LogEntry {
	var out []domain.LogEntry
	for _, e := range batch {
		if e.Pod == pod {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

// Search runs an ad-hoc filtered search against the store, trying the
// mapped vocabulary before the literal one. Unlike pod resolution there is
// no synthesis: an empty page is a valid answer.
func (r *Resolver) Search(ctx context.Context, f domain.Filter) (*domain.SearchResult, error) {
	f = f.WithPage(f.Page, f.PageSize)

	var lastErr error
	var empty *domain.SearchResult
	for _, candidate := range r.normalizer.Candidates(f) {
		result, err := r.store.Search(ctx, search.BuildSearchQuery(candidate))
		if err != nil {
			lastErr = err
			r.logger.Warn("ad-hoc search failed", zap.Error(err))
			continue
		}
		result.Page = f.Page
		result.PageSize = f.PageSize
		if len(result.Entries) > 0 {
			return result, nil
		}
		empty = result
	}
	if empty != nil {
		return empty, nil
	}
	return nil, fmt.Errorf("search store exhausted: %w", lastErr)
}

// Statistics returns term-frequency aggregations, preferring the candidate
// vocabulary that actually matches documents
func (r *Resolver) Statistics(ctx context.Context, f domain.Filter) (*domain.Stats, error) {
	var lastErr error
	var lastStats *domain.Stats
	for _, candidate := range r.normalizer.Candidates(f) {
		stats, err := r.store.Aggregate(ctx, search.BuildAggregationQuery(candidate))
		if err != nil {
			lastErr = err
			r.logger.Warn("aggregation failed", zap.Error(err))
			continue
		}
		if stats.TotalLogs > 0 {
			return stats, nil
		}
		lastStats = stats
	}
	if lastStats != nil {
		return lastStats, nil
	}
	return nil, fmt.Errorf("aggregation exhausted: %w", lastErr)
}

// Available reports current store availability; never cached
func (r *Resolver) Available(ctx context.Context) bool {
	return r.store.Ping(ctx)
}
