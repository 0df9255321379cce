package resolver

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/logops-io/logops/internal/domain"
	"github.com/logops-io/logops/internal/logfile"
	"github.com/logops-io/logops/internal/search"
	"github.com/logops-io/logops/internal/synth"
)

func TestMain(m *testing.M) {
	// The expirable LRU used by the caches starts a reaper goroutine that is
	// only stopped by a GC finalizer (golang-lru v2.0.7), which goleak
	// inspects before finalization runs; see REVIEW_FINDINGS.md F6.
	goleak.VerifyTestMain(m,
		goleak.IgnoreAnyFunction("github.com/hashicorp/golang-lru/v2/expirable.NewLRU[...].func1"))
}

// stubStore is a scriptable SearchStore that records every call
type stubStore struct {
	t *testing.T

	searchFn    func(q search.Query) (*domain.SearchResult, error)
	aggregateFn func(q search.Query) (*domain.Stats, error)
	bulkFn      func(entries []domain.LogEntry) (search.BulkReport, error)

	searchCalls    int
	aggregateCalls int
	bulkCalls      int
	bulkEntries    []domain.LogEntry
	searchQueries  []search.Query

	forbidden bool // any call fails the test
}

func (s *stubStore) Ping(context.Context) bool { return true }

func (s *stubStore) Search(_ context.Context, q search.Query) (*domain.SearchResult, error) {
	if s.forbidden {
		s.t.Fatal("unexpected store search call")
	}
	s.searchCalls++
	s.searchQueries = append(s.searchQueries, q)
	if s.searchFn != nil {
		return s.searchFn(q)
	}
	return &domain.SearchResult{Source: domain.SourceSearchEngine}, nil
}

func (s *stubStore) Aggregate(_ context.Context, q search.Query) (*domain.Stats, error) {
	if s.forbidden {
		s.t.Fatal("unexpected store aggregate call")
	}
	s.aggregateCalls++
	if s.aggregateFn != nil {
		return s.aggregateFn(q)
	}
	return &domain.Stats{Pods: map[string]int{}}, nil
}

func (s *stubStore) BulkIndex(_ context.Context, entries []domain.LogEntry) (search.BulkReport, error) {
	if s.forbidden {
		s.t.Fatal("unexpected store bulk-index call")
	}
	s.bulkCalls++
	s.bulkEntries = append(s.bulkEntries, entries...)
	if s.bulkFn != nil {
		return s.bulkFn(entries)
	}
	return search.BulkReport{Indexed: len(entries)}, nil
}

// queryTerm extracts a term filter value from a built query
func queryTerm(t *testing.T, q search.Query, field string) string {
	t.Helper()
	raw, err := json.Marshal(q)
	require.NoError(t, err)
	var value string
	gjson.GetBytes(raw, "query.bool.must").ForEach(func(_, clause gjson.Result) bool {
		if v := clause.Get("term." + field + "\\.keyword"); v.Exists() {
			value = v.String()
			return false
		}
		return true
	})
	return value
}

func newTestResolver(store SearchStore, dir string) *Resolver {
	mock := clock.NewMock()
	mock.Set(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	gen := synth.NewGeneratorWith(mock, 1)
	files := logfile.NewStore(dir, zap.NewNop())
	return NewWith(store, files, gen, mock, zap.NewNop())
}

func podFilter() domain.Filter {
	f := domain.NewFilter("FOBPM", "cluster1", "Bulkdeviceenrollment", "fobpm-bulkdeviceenrollment-web-001")
	return f
}

func storeResult(pod string, n int) *domain.SearchResult {
	entries := make([]domain.LogEntry, n)
	for i := range entries {
		entries[i] = domain.LogEntry{
			Timestamp: time.Date(2025, 6, 1, 11, 0, i, 0, time.UTC),
			Pod:       pod,
			Level:     domain.LogLevelInfo,
			Message:   "Health check passed",
			Source:    domain.SourceSearchEngine,
		}
	}
	return &domain.SearchResult{Entries: entries, TotalMatched: n, Source: domain.SourceSearchEngine}
}

func TestPodLogs_InvalidFilterRejectedBeforeAnyTier(t *testing.T) {
	store := &stubStore{t: t, forbidden: true}
	r := newTestResolver(store, t.TempDir())

	tests := []struct {
		name string
		f    domain.Filter
	}{
		{"missing application", domain.NewFilter("", "c", "b", "p")},
		{"missing cluster", domain.NewFilter("a", "", "b", "p")},
		{"missing bundle", domain.NewFilter("a", "c", "", "p")},
		{"missing pod", domain.NewFilter("a", "c", "b", "")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.PodLogs(context.Background(), tt.f)
			assert.ErrorIs(t, err, domain.ErrInvalidRequest)
		})
	}
}

func TestPodList_InvalidFilterRejectedBeforeAnyTier(t *testing.T) {
	store := &stubStore{t: t, forbidden: true}
	r := newTestResolver(store, t.TempDir())

	_, err := r.PodList(context.Background(), domain.NewFilter("a", "", "b", ""))
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestPodLogs_MappedVocabularyTriedFirst(t *testing.T) {
	store := &stubStore{t: t}
	store.searchFn = func(q search.Query) (*domain.SearchResult, error) {
		return storeResult("fobpm-bulkdeviceenrollment-web-001", 5), nil
	}
	r := newTestResolver(store, t.TempDir())

	result, err := r.PodLogs(context.Background(), podFilter())

	require.NoError(t, err)
	assert.Equal(t, domain.SourceSearchEngine, result.Source)
	assert.Equal(t, 1, store.searchCalls)
	assert.Equal(t, "Cluster Prod AKS 1", queryTerm(t, store.searchQueries[0], "cluster"))
	assert.Equal(t, "Bulkdeviceenrollment", queryTerm(t, store.searchQueries[0], "bundle"))
}

func TestPodLogs_LiteralVocabularyTriedSecond(t *testing.T) {
	store := &stubStore{t: t}
	store.searchFn = func(q search.Query) (*domain.SearchResult, error) {
		raw, _ := json.Marshal(q)
		// only the literal short cluster id matches this store
		if gjson.GetBytes(raw, `query.bool.must.#(term.cluster\.keyword=="cluster1")`).Exists() {
			return storeResult("fobpm-bulkdeviceenrollment-web-001", 3), nil
		}
		return &domain.SearchResult{Source: domain.SourceSearchEngine}, nil
	}
	r := newTestResolver(store, t.TempDir())

	result, err := r.PodLogs(context.Background(), podFilter())

	require.NoError(t, err)
	assert.Equal(t, domain.SourceSearchEngine, result.Source)
	assert.Equal(t, 2, store.searchCalls)
	assert.Zero(t, store.bulkCalls)
}

func TestPodLogs_CacheHitSkipsAllTiers(t *testing.T) {
	store := &stubStore{t: t}
	store.searchFn = func(q search.Query) (*domain.SearchResult, error) {
		return storeResult("fobpm-bulkdeviceenrollment-web-001", 5), nil
	}
	r := newTestResolver(store, t.TempDir())

	first, err := r.PodLogs(context.Background(), podFilter())
	require.NoError(t, err)

	// any further store traffic fails the test
	store.forbidden = true

	second, err := r.PodLogs(context.Background(), podFilter())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestPodLogs_EmptyStoreSynthesizesAndIndexesExactlyOnce(t *testing.T) {
	store := &stubStore{t: t} // search always returns zero matches
	r := newTestResolver(store, t.TempDir())

	result, err := r.PodLogs(context.Background(), podFilter())

	require.NoError(t, err)
	assert.Equal(t, domain.SourceSynthetic, result.Source)
	assert.NotEmpty(t, result.Entries)
	assert.Equal(t, 1, store.bulkCalls)
	assert.Contains(t, result.Text, "# Source: synthetic")
}

func TestPodLogs_EndToEndSyntheticShape(t *testing.T) {
	store := &stubStore{t: t}
	r := newTestResolver(store, t.TempDir())
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	result, err := r.PodLogs(context.Background(), podFilter())
	require.NoError(t, err)

	assert.Equal(t, domain.SourceSynthetic, result.Source)
	assert.GreaterOrEqual(t, len(result.Entries), 20)
	assert.LessOrEqual(t, len(result.Entries), 30)

	counts := map[domain.LogLevel]int{}
	for _, e := range result.Entries {
		assert.Equal(t, "fobpm-bulkdeviceenrollment-web-001", e.Pod)
		assert.False(t, e.Timestamp.Before(now.Add(-2*time.Hour)))
		assert.False(t, e.Timestamp.After(now.Add(time.Minute)))
		counts[e.Level]++
	}
	// levels drawn only from INFO/WARN/ERROR, INFO dominating
	assert.Equal(t, len(result.Entries), counts[domain.LogLevelInfo]+counts[domain.LogLevelWarn]+counts[domain.LogLevelError])
	assert.Greater(t, counts[domain.LogLevelInfo], counts[domain.LogLevelWarn])
	assert.Greater(t, counts[domain.LogLevelInfo], counts[domain.LogLevelError])
}

func TestPodLogs_SyntheticEntriesNewestFirst(t *testing.T) {
	store := &stubStore{t: t}
	r := newTestResolver(store, t.TempDir())

	result, err := r.PodLogs(context.Background(), podFilter())

	require.NoError(t, err)
	assert.Equal(t, domain.SourceSynthetic, result.Source)
	require.NotEmpty(t, result.Entries)
	for i := 1; i < len(result.Entries); i++ {
		assert.False(t, result.Entries[i].Timestamp.After(result.Entries[i-1].Timestamp),
			"entry %d is newer than entry %d", i, i-1)
	}
}

func TestPodLogs_ReSearchAfterIndexingWins(t *testing.T) {
	store := &stubStore{t: t}
	indexed := false
	store.bulkFn = func(entries []domain.LogEntry) (search.BulkReport, error) {
		indexed = true
		return search.BulkReport{Indexed: len(entries)}, nil
	}
	store.searchFn = func(q search.Query) (*domain.SearchResult, error) {
		if indexed {
			return storeResult("fobpm-bulkdeviceenrollment-web-001", 25), nil
		}
		return &domain.SearchResult{Source: domain.SourceSearchEngine}, nil
	}
	r := newTestResolver(store, t.TempDir())

	result, err := r.PodLogs(context.Background(), podFilter())

	require.NoError(t, err)
	assert.Equal(t, domain.SourceSearchEngine, result.Source)
	assert.Equal(t, 3, store.searchCalls) // mapped, literal, post-index retry
}

func TestPodLogs_FileFallback(t *testing.T) {
	dir := t.TempDir()
	content := "[2025-06-01 10:00:00] INFO: from file"
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "FOBPM-Bulkdeviceenrollment.log"), []byte(content), 0o644))

	store := &stubStore{t: t}
	store.bulkFn = func([]domain.LogEntry) (search.BulkReport, error) {
		// indexing is down; the file tier must still answer
		return search.BulkReport{}, domain.ErrStoreUnavailable
	}
	r := newTestResolver(store, dir)

	result, err := r.PodLogs(context.Background(), podFilter())

	require.NoError(t, err)
	assert.Equal(t, domain.SourceFile, result.Source)
	assert.Contains(t, result.Text, "from file")
	assert.Contains(t, result.Text, "# Source: file")
}

func TestPodLogs_StoreFailureDegradesInsteadOfErroring(t *testing.T) {
	store := &stubStore{t: t}
	store.searchFn = func(search.Query) (*domain.SearchResult, error) {
		return nil, domain.ErrStoreUnavailable
	}
	store.bulkFn = func([]domain.LogEntry) (search.BulkReport, error) {
		return search.BulkReport{}, domain.ErrStoreUnavailable
	}
	r := newTestResolver(store, t.TempDir())

	result, err := r.PodLogs(context.Background(), podFilter())

	require.NoError(t, err)
	assert.Equal(t, domain.SourceSynthetic, result.Source)
	assert.NotEmpty(t, result.Text)
}

func TestPodLogs_NameScriptedGenerationForDemoPods(t *testing.T) {
	store := &stubStore{t: t}
	store.bulkFn = func([]domain.LogEntry) (search.BulkReport, error) {
		return search.BulkReport{}, domain.ErrStoreUnavailable
	}
	r := newTestResolver(store, t.TempDir())

	f := domain.NewFilter("FOBPM", "cluster1", "Bulkdeviceenrollment", "fobpm-bulkdeviceenrollment-error-pod")
	result, err := r.PodLogs(context.Background(), f)

	require.NoError(t, err)
	assert.Equal(t, domain.SourceSynthetic, result.Source)

	sawSevere := false
	for _, e := range result.Entries {
		if e.Level == domain.LogLevelError || e.Level == domain.LogLevelFatal {
			sawSevere = true
		}
	}
	assert.True(t, sawSevere, "error-named pod should escalate")
}

func TestPodList_FromStoreAggregations(t *testing.T) {
	store := &stubStore{t: t}
	store.aggregateFn = func(q search.Query) (*domain.Stats, error) {
		return &domain.Stats{
			TotalLogs: 90,
			Pods:      map[string]int{"fobpm-web-001": 60, "fobpm-web-002": 30},
		}, nil
	}
	r := newTestResolver(store, t.TempDir())

	result, err := r.PodList(context.Background(), domain.NewFilter("FOBPM", "cluster1", "Bulkdeviceenrollment", ""))

	require.NoError(t, err)
	assert.Equal(t, domain.SourceSearchEngine, result.Source)
	require.Len(t, result.Pods, 2)
	assert.Equal(t, "fobpm-web-001", result.Pods[0].Name)
	assert.Equal(t, "Fobpm Web 001 (60 logs)", result.Pods[0].DisplayName)
	assert.Equal(t, 60, result.Pods[0].LogCount)
}

func TestPodList_SamplePodsWhenStoreIsEmpty(t *testing.T) {
	store := &stubStore{t: t}
	r := newTestResolver(store, t.TempDir())

	result, err := r.PodList(context.Background(), domain.NewFilter("FOBPM", "cluster1", "IOTSubscription", ""))

	require.NoError(t, err)
	assert.Equal(t, domain.SourceSynthetic, result.Source)
	assert.Len(t, result.Pods, 6)
}

func TestPodList_CacheHitSkipsStore(t *testing.T) {
	store := &stubStore{t: t}
	store.aggregateFn = func(search.Query) (*domain.Stats, error) {
		return &domain.Stats{TotalLogs: 1, Pods: map[string]int{"p": 1}}, nil
	}
	r := newTestResolver(store, t.TempDir())
	f := domain.NewFilter("FOBPM", "cluster1", "Bulkdeviceenrollment", "")

	first, err := r.PodList(context.Background(), f)
	require.NoError(t, err)

	store.forbidden = true

	second, err := r.PodList(context.Background(), f)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSearch_EmptyPageIsAValidAnswer(t *testing.T) {
	store := &stubStore{t: t}
	r := newTestResolver(store, t.TempDir())

	result, err := r.Search(context.Background(), domain.Filter{SearchText: "nothing", Page: 1, PageSize: 50})

	require.NoError(t, err)
	assert.Empty(t, result.Entries)
	assert.Equal(t, 1, result.Page)
	assert.Equal(t, 50, result.PageSize)
}

func TestSearch_AllCandidatesFailingSurfacesError(t *testing.T) {
	store := &stubStore{t: t}
	store.searchFn = func(search.Query) (*domain.SearchResult, error) {
		return nil, domain.ErrQueryFailed
	}
	r := newTestResolver(store, t.TempDir())

	_, err := r.Search(context.Background(), domain.Filter{Cluster: "cluster1", Page: 1, PageSize: 50})

	assert.ErrorIs(t, err, domain.ErrQueryFailed)
}

func TestStatistics_PrefersCandidateWithDocuments(t *testing.T) {
	store := &stubStore{t: t}
	store.aggregateFn = func(q search.Query) (*domain.Stats, error) {
		raw, _ := json.Marshal(q)
		if gjson.GetBytes(raw, `query.bool.must.#(term.cluster\.keyword=="cluster1")`).Exists() {
			return &domain.Stats{TotalLogs: 10, LogLevels: map[string]int{"INFO": 10}}, nil
		}
		return &domain.Stats{}, nil
	}
	r := newTestResolver(store, t.TempDir())

	stats, err := r.Statistics(context.Background(), domain.Filter{Cluster: "cluster1"})

	require.NoError(t, err)
	assert.Equal(t, 10, stats.TotalLogs)
	assert.Equal(t, 2, store.aggregateCalls)
}
