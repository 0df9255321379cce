// Package cache provides the short-TTL result store that sits in front of
// the resolution tiers, plus deterministic key derivation from normalized
// filter tuples.
package cache

import (
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// MaxEntries bounds each store; the LRU evicts the least-recently-used
// entry under capacity pressure
const MaxEntries = 1000

// Purpose-specific TTLs. Pod lists change slowly; log bodies grow
// continuously and go stale fast.
const (
	PodListTTL = 120 * time.Second
	PodLogsTTL = 30 * time.Second
)

// Store is a bounded TTL cache. Reads past expiry behave as a miss.
// Safe for concurrent use.
type Store[V any] struct {
	lru *expirable.LRU[string, V]
}

// New creates a Store with the given TTL and the standard size bound
func New[V any](ttl time.Duration) *Store[V] {
	return &Store[V]{lru: expirable.NewLRU[string, V](MaxEntries, nil, ttl)}
}

// Get returns the fresh value for key, if any
func (s *Store[V]) Get(key string) (V, bool) {
	return s.lru.Get(key)
}

// Set stores value under key for the Store's TTL
func (s *Store[V]) Set(key string, value V) {
	s.lru.Add(key, value)
}

// Len returns the number of live entries
func (s *Store[V]) Len() int {
	return s.lru.Len()
}

// Key derives a deterministic cache key from a prefix and the ordered
// normalized filter fields. Characters unsafe for use as identifiers are
// replaced with an underscore, which also joins the parts; the fixed
// field vocabulary keeps the resulting keys distinct in practice.
func Key(prefix string, parts ...string) string {
	elems := make([]string, 0, len(parts)+1)
	elems = append(elems, prefix)
	for _, p := range parts {
		elems = append(elems, sanitize(p))
	}
	return strings.Join(elems, "_")
}

// sanitize keeps [A-Za-z0-9_-] and replaces everything else, mirroring how
// fallback log file names are built
func sanitize(s string) string {
	if s == "" {
		return "unknown"
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// Sanitize exposes the identifier-safe rewrite for file name construction
func Sanitize(s string) string {
	return sanitize(s)
}
