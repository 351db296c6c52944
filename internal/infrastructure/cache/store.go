package cache

import (
	"context"
	"hash/maphash"
	"sync"
	"time"

	"github.com/adityaanikam/ecommerce-site-sub000/internal/observability"
	"github.com/adityaanikam/ecommerce-site-sub000/internal/observability/logctx"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	DefaultSize = 4096
	DefaultTTL  = 5 * time.Minute

	generationStripes = 256
)

// Store is a per-process LRU with a TTL. Entries are keyed by scope and key;
// staleness across instances is bounded by the TTL.
//
// Every Evict bumps the generation of the key's stripe. A fill only lands if
// its stripe generation is unchanged since the load started, so a load racing
// a write never re-caches the value the write replaced.
type Store struct {
	lru *expirable.LRU[string, any]
	log observability.Logger

	mu   sync.Mutex
	seed maphash.Seed
	gens [generationStripes]uint64
}

func New(size int, ttl time.Duration, logger observability.Logger) *Store {
	if size <= 0 {
		size = DefaultSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Store{
		lru:  expirable.NewLRU[string, any](size, nil, ttl),
		log:  logger.With(observability.F("component", "cache")),
		seed: maphash.MakeSeed(),
	}
}

func entryKey(scope, key string) string { return scope + ":" + key }

func (s *Store) stripe(k string) int {
	return int(maphash.String(s.seed, k) % generationStripes)
}

func (s *Store) generation(k string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gens[s.stripe(k)]
}

// fill stores v unless k was evicted after gen was read.
func (s *Store) fill(k string, gen uint64, v any) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gens[s.stripe(k)] != gen {
		return false
	}
	s.lru.Add(k, v)
	return true
}

// Evict drops one entry. It never fails.
func (s *Store) Evict(ctx context.Context, scope, key string) {
	k := entryKey(scope, key)
	s.mu.Lock()
	s.gens[s.stripe(k)]++
	removed := s.lru.Remove(k)
	s.mu.Unlock()

	if removed {
		logctx.FromOr(ctx, s.log).Debug("cache_evicted",
			observability.F("scope", scope),
			observability.F("key", key),
		)
	}
}

func (s *Store) Len() int { return s.lru.Len() }

func (s *Store) Purge() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.gens {
		s.gens[i]++
	}
	s.lru.Purge()
}

// readThrough returns a clone of the cached value or loads, stores and
// returns a clone of a fresh one. Errors are never cached.
func readThrough[T any](ctx context.Context, s *Store, scope, key string, clone func(T) T, load func() (T, error)) (T, error) {
	k := entryKey(scope, key)
	if v, ok := s.lru.Get(k); ok {
		if typed, ok := v.(T); ok {
			return clone(typed), nil
		}
	}

	gen := s.generation(k)
	v, err := load()
	if err != nil {
		return v, err
	}
	if !s.fill(k, gen, clone(v)) {
		logctx.FromOr(ctx, s.log).Debug("cache_fill_skipped",
			observability.F("scope", scope),
			observability.F("key", key),
		)
		return v, nil
	}
	logctx.FromOr(ctx, s.log).Debug("cache_filled",
		observability.F("scope", scope),
		observability.F("key", key),
	)
	return v, nil
}
