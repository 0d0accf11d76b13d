package packing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"

	"github.com/eugenenazirov/box-packer/internal/metrics"
)

// Key enumerates every input that influences a packing result.
type Key struct {
	ContainerName            string
	Width                    float64
	Height                   float64
	Depth                    float64
	MaxWeight                float64
	ItemsDigest              string
	Strategy                 Strategy
	MaxAttempts              int
	AllowRotation            bool
	PrioritizeFragile        bool
	TryContainerOrientations bool
}

// KeyFor builds the cache key of a normalized request. Item order is part
// of the key because it breaks ties between equally ranked items.
func KeyFor(req Request) Key {
	h := sha256.New()
	for _, it := range req.Items {
		for _, field := range []string{
			it.Name,
			strconv.FormatFloat(it.Width, 'g', -1, 64),
			strconv.FormatFloat(it.Height, 'g', -1, 64),
			strconv.FormatFloat(it.Depth, 'g', -1, 64),
			strconv.FormatFloat(it.Weight, 'g', -1, 64),
			strconv.FormatBool(it.CanStack),
			strconv.FormatBool(it.Fragile),
		} {
			h.Write([]byte(strconv.Quote(field)))
			h.Write([]byte{0})
		}
		h.Write([]byte{'\n'})
	}

	return Key{
		ContainerName:            req.Container.Name,
		Width:                    req.Container.Width,
		Height:                   req.Container.Height,
		Depth:                    req.Container.Depth,
		MaxWeight:                req.Container.MaxWeight,
		ItemsDigest:              hex.EncodeToString(h.Sum(nil)),
		Strategy:                 req.Strategy,
		MaxAttempts:              req.MaxAttempts,
		AllowRotation:            req.Options.AllowRotation,
		PrioritizeFragile:        req.Options.PrioritizeFragile,
		TryContainerOrientations: req.Options.TryContainerOrientations,
	}
}

// CacheStats reports result cache effectiveness.
type CacheStats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Size      int
	Capacity  int
}

// CachedPacker memoizes results of another Packer in a bounded LRU whose
// entries expire after a TTL.
type CachedPacker struct {
	next     Packer
	cache    *expirable.LRU[Key, Result]
	capacity int
	logger   *zap.Logger

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

// NewCached wraps next with a cache of at most capacity results. A zero ttl
// keeps results until they are evicted.
func NewCached(next Packer, capacity int, ttl time.Duration, logger *zap.Logger) *CachedPacker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if capacity <= 0 {
		capacity = defaultCacheCapacity
	}
	c := &CachedPacker{next: next, capacity: capacity, logger: logger}
	c.cache = expirable.NewLRU[Key, Result](capacity, func(Key, Result) {
		c.evictions.Add(1)
	}, ttl)
	return c
}

const defaultCacheCapacity = 128

// Pack returns a cached result for an identical request or computes and
// stores a new one. Errors are never cached.
func (c *CachedPacker) Pack(ctx context.Context, req Request) (Result, error) {
	normalized, err := req.Normalize()
	if err != nil {
		return Result{}, err
	}
	key := KeyFor(normalized)

	if res, ok := c.cache.Get(key); ok {
		c.hits.Add(1)
		metrics.RecordCacheLookup(true)
		c.logger.Debug("packing cache hit", zap.String("container", normalized.Container.Name))
		return res.Clone(), nil
	}
	c.misses.Add(1)
	metrics.RecordCacheLookup(false)

	res, err := c.next.Pack(ctx, normalized)
	if err != nil {
		return Result{}, err
	}
	c.cache.Add(key, res.Clone())
	metrics.CacheSize.Set(float64(c.cache.Len()))
	return res, nil
}

// Stats returns the cache counters.
func (c *CachedPacker) Stats() CacheStats {
	return CacheStats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
		Size:      c.cache.Len(),
		Capacity:  c.capacity,
	}
}
