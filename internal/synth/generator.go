// Package synth produces plausible log entries for filter combinations the
// search store has no data for: seeded demo batches, on-demand pod batches,
// sample pod lists, and ephemeral pod-log scripts.
package synth

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/logops-io/logops/internal/cache"
	"github.com/logops-io/logops/internal/domain"
)

// Bounded message catalogues per level. Entries containing a %d verb are
// filled with a value from a range keyed off the surrounding text.
var (
	infoMessages = []string{
		"Service started successfully",
		"Processing request completed",
		"Health check passed",
		"Database connection established",
		"User authenticated successfully",
		"Request processed in %dms",
		"Cache hit for key: user_%d",
		"Background job completed",
		"Configuration loaded successfully",
		"Transaction completed successfully",
	}
	warnMessages = []string{
		"High memory usage detected: %d%%",
		"Response time degradation: %ds",
		"Queue backlog growing: %d pending items",
		"Connection pool near capacity: %d%%",
		"Cache miss ratio high: %d%%",
		"Slow query detected: %dms",
		"Retry attempt %d for failed operation",
	}
	errorMessages = []string{
		"Database connection timeout after %ds",
		"Failed to process request: connection refused",
		"Authentication failed: invalid credentials",
		"OutOfMemoryError: Java heap space",
		"Network timeout: connection reset by peer",
		"Service temporarily unavailable",
		"Invalid request format",
	}
)

// Batch shape for a single filter combination
const (
	podsPerBatch = 3
	minLinesPod  = 20
	maxLinesPod  = 30
)

// Generator produces synthetic log entries. Shape is deterministic for a
// given filter and pod name; content varies with the random source.
// Safe for concurrent use.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
	clk clock.Clock
}

// NewGenerator creates a Generator seeded from the wall clock
func NewGenerator() *Generator {
	return NewGeneratorWith(clock.New(), time.Now().UnixNano())
}

// NewGeneratorWith creates a Generator with an explicit clock and seed so
// tests can pin both
func NewGeneratorWith(clk clock.Clock, seed int64) *Generator {
	return &Generator{
		rng: rand.New(rand.NewSource(seed)),
		clk: clk,
	}
}

// PodBatch generates entries for three synthetic pods of the given filter
// combination, 20-30 lines each, spread over the last two hours with the
// standard 70/20/10 INFO/WARN/ERROR weighting.
func (g *Generator) PodBatch(f domain.Filter) []domain.LogEntry {
	g.mu.Lock()
	defer g.mu.Unlock()

	base := g.clk.Now().Add(-2 * time.Hour)
	var entries []domain.LogEntry

	for podNum := 1; podNum <= podsPerBatch; podNum++ {
		pod := fmt.Sprintf("%s-%s-web-%03d",
			strings.ToLower(f.Application), strings.ToLower(f.Bundle), podNum)
		count := minLinesPod + g.rng.Intn(maxLinesPod-minLinesPod+1)
		for i := 0; i < count; i++ {
			ts := base.Add(time.Duration(g.rng.Intn(120))*time.Minute +
				time.Duration(g.rng.Intn(60))*time.Second)
			entries = append(entries, g.entry(f, pod, ts))
		}
	}
	return entries
}

// DemoMatrix lists the demo application catalogue used by seeding
var DemoMatrix = map[string][]string{
	"FOBPM": {"Bulkdeviceenrollment", "Bulkordervalidation", "IOTSubscription"},
	"BOBPM": {"IOTSubscription", "Bulkordervalidation", "MobilitySubscription"},
	"BRMS":  {"MobilityPromotionTreatmentRules", "MobilityDeviceTreatmentRules", "BusinessRules"},
}

// DemoClusters lists the clusters covered by seeding
var DemoClusters = []string{
	"Cluster Prod AKS 1", "Cluster Prod AKS 2", "Cluster Prod AKS 3", "Cluster Prod AKS 4",
}

// SeedCorpus generates the full demo matrix: every application, cluster,
// and bundle, five pods each, 60-80 lines per pod over the last day.
func (g *Generator) SeedCorpus() []domain.LogEntry {
	g.mu.Lock()
	defer g.mu.Unlock()

	base := g.clk.Now().Add(-24 * time.Hour)
	var entries []domain.LogEntry

	for app, bundles := range DemoMatrix {
		for _, cluster := range DemoClusters {
			for _, bundle := range bundles {
				f := domain.Filter{Application: app, Cluster: cluster, Bundle: bundle}
				for podNum := 1; podNum <= 5; podNum++ {
					pod := fmt.Sprintf("%s-%s-web-%03d",
						strings.ToLower(app), strings.ToLower(bundle), podNum)
					count := 60 + g.rng.Intn(21)
					for i := 0; i < count; i++ {
						ts := base.Add(time.Duration(g.rng.Intn(24))*time.Hour +
							time.Duration(g.rng.Intn(60))*time.Minute +
							time.Duration(g.rng.Intn(60))*time.Second)
						entries = append(entries, g.entry(f, pod, ts))
					}
				}
			}
		}
	}
	return entries
}

// entry builds one weighted synthetic entry. Caller holds g.mu.
func (g *Generator) entry(f domain.Filter, pod string, ts time.Time) domain.LogEntry {
	level := g.pickLevel()
	e := domain.LogEntry{
		Timestamp:   ts,
		Application: f.Application,
		Cluster:     f.Cluster,
		Bundle:      f.Bundle,
		Pod:         pod,
		Level:       level,
		Message:     g.message(level),
		Source:      domain.SourceSynthetic,
	}
	if g.rng.Float64() < 0.3 {
		e.ResponseTimeSeconds = float64(int((0.1+g.rng.Float64()*1.9)*1000)) / 1000
	}
	if g.rng.Float64() < 0.2 {
		codes := []int{200, 201, 400, 401, 404, 500}
		e.StatusCode = codes[g.rng.Intn(len(codes))]
	}
	return e
}

// pickLevel draws a level with the 70/20/10 weighting
func (g *Generator) pickLevel() domain.LogLevel {
	switch n := g.rng.Intn(100); {
	case n < 70:
		return domain.LogLevelInfo
	case n < 90:
		return domain.LogLevelWarn
	default:
		return domain.LogLevelError
	}
}

// message draws a catalogue message for the level and fills any numeric
// placeholder from a range appropriate to its text
func (g *Generator) message(level domain.LogLevel) string {
	var catalogue []string
	switch level {
	case domain.LogLevelWarn:
		catalogue = warnMessages
	case domain.LogLevelError:
		catalogue = errorMessages
	default:
		catalogue = infoMessages
	}

	tmpl := catalogue[g.rng.Intn(len(catalogue))]
	if !strings.Contains(tmpl, "%d") {
		return tmpl
	}

	var n int
	switch {
	case strings.Contains(tmpl, "ms"):
		n = 50 + g.rng.Intn(1951)
	case strings.Contains(tmpl, "%%"):
		n = 70 + g.rng.Intn(26)
	case strings.Contains(tmpl, "timeout"):
		n = 30 + g.rng.Intn(91)
	case strings.Contains(tmpl, "pending"):
		n = 50 + g.rng.Intn(451)
	case strings.Contains(tmpl, "attempt"):
		n = 1 + g.rng.Intn(5)
	default:
		n = 100 + g.rng.Intn(900)
	}
	return fmt.Sprintf(tmpl, n)
}

// SamplePods returns the demo pod list for a combination with no real
// data, including the severity-demo pods.
func (g *Generator) SamplePods(app, bundle string) []domain.Pod {
	prefix := cache.Sanitize(app) + "-" + cache.Sanitize(bundle)
	names := []string{
		prefix + "-web-001",
		prefix + "-web-002",
		prefix + "-api-001",
		prefix + "-worker-001",
		prefix + "-error-pod",
		prefix + "-warn-service",
	}

	pods := make([]domain.Pod, 0, len(names))
	for _, name := range names {
		display := name
		display = strings.ReplaceAll(display, "-error-pod", " (Error Demo)")
		display = strings.ReplaceAll(display, "-warn-service", " (Warning Demo)")
		pods = append(pods, domain.Pod{Name: name, DisplayName: display})
	}
	return pods
}

// PodScript generates the ephemeral log script for one pod: a startup
// sequence followed by behavior selected by the pod name. Names containing
// "error" escalate WARN through FATAL; names containing "warn" repeat
// WARN; everything else reports steady-state INFO.
func (g *Generator) PodScript(f domain.Filter, pod string) []domain.LogEntry {
	g.mu.Lock()
	defer g.mu.Unlock()

	base := g.clk.Now().Add(-90 * time.Minute)
	mk := func(offset time.Duration, level domain.LogLevel, message string) domain.LogEntry {
		return domain.LogEntry{
			Timestamp:   base.Add(offset),
			Application: f.Application,
			Cluster:     f.Cluster,
			Bundle:      f.Bundle,
			Pod:         pod,
			Level:       level,
			Message:     message,
			Source:      domain.SourceSynthetic,
		}
	}

	entries := []domain.LogEntry{
		mk(0, domain.LogLevelInfo, "Starting pod "+pod),
		mk(1*time.Second, domain.LogLevelInfo, "Application: "+f.Application),
		mk(2*time.Second, domain.LogLevelInfo, "Cluster: "+f.Cluster),
		mk(3*time.Second, domain.LogLevelInfo, "Bundle: "+f.Bundle),
	}

	at := 20 * time.Second
	lower := strings.ToLower(pod)
	switch {
	case strings.Contains(lower, "error"):
		entries = append(entries,
			mk(at, domain.LogLevelInfo, "Processing incoming requests..."),
			mk(at+30*time.Second, domain.LogLevelWarn, "High memory usage detected: 85%"),
			mk(at+60*time.Second, domain.LogLevelError, "Database connection timeout after 30s"),
			mk(at+90*time.Second, domain.LogLevelError, "Failed to process request: connection refused"),
			mk(at+120*time.Second, domain.LogLevelFatal, "Critical error - service unavailable"),
		)
	case strings.Contains(lower, "warn"):
		entries = append(entries,
			mk(at, domain.LogLevelInfo, "Service operational - processing requests"),
			mk(at+45*time.Second, domain.LogLevelWarn, "High CPU usage detected: 78%"),
			mk(at+90*time.Second, domain.LogLevelWarn, "Response time degradation: 2.8s (SLA: 1s)"),
			mk(at+135*time.Second, domain.LogLevelWarn, "Queue backlog growing: 150 pending items"),
		)
	default:
		entries = append(entries,
			mk(at, domain.LogLevelInfo, "Service running normally"),
			mk(at+60*time.Second, domain.LogLevelInfo, "Processed 250 requests in last minute"),
			mk(at+120*time.Second, domain.LogLevelInfo, "Health check passed - all systems green"),
			mk(at+180*time.Second, domain.LogLevelInfo, "Database queries avg response: 45ms"),
		)
	}
	return entries
}
