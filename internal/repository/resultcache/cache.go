package resultcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/digital-hub-ai/hubsearch/internal/db"
	"github.com/digital-hub-ai/hubsearch/internal/domain/search/request"
	"github.com/digital-hub-ai/hubsearch/internal/logger"
	"github.com/digital-hub-ai/hubsearch/internal/metrics"
)

const keyPrefix = "hubsearch:result_cache:"

// Cache stores serialized search responses keyed by the normalized
// query plus every option that changes the response. Entries expire by
// TTL; a cache problem is never surfaced to the caller.
type Cache struct {
	store db.KVStore
	ttl   time.Duration
}

func New(store db.KVStore, ttl time.Duration) *Cache {
	return &Cache{store: store, ttl: ttl}
}

// Key builds the canonical cache key for a request.
// The query is lowercased and whitespace-collapsed so trivially
// different spellings of the same search share an entry.
func Key(req *request.Request) string {
	opts := req.Options()
	ident := fmt.Sprintf("%s|%d|%s|%s|%s|%.2f|%d|%.2f|%s|%s|%s|%s|%t|%t|%t|%t|%t|%d",
		strings.Join(strings.Fields(strings.ToLower(req.Query())), " "),
		opts.Limit, opts.Kind, opts.Category, opts.Subcategory,
		opts.MinRating, opts.MinReviews, opts.MaxPrice, opts.PricingType,
		opts.FilterExpr, opts.SortBy, opts.SortOrder,
		opts.BoostFavorites, opts.BoostHistory, opts.ExcludeDisliked,
		opts.Cluster, opts.AdvancedClustering, opts.ClusterCount)
	if opts.UserID != "" {
		// A profile changes the ordering through preference and feedback
		// boosts even without the boost flags, so any identified request
		// gets its own entry.
		ident += "|" + opts.UserID
	}
	sum := sha256.Sum256([]byte(ident))
	return keyPrefix + hex.EncodeToString(sum[:])
}

// Get returns the cached payload for a key, or false on a miss.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	payload, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			logger.FromContext(ctx).Warn("result cache read failed", zap.Error(err))
		}
		metrics.ResultCacheTotal.WithLabelValues("miss").Inc()
		return nil, false
	}
	metrics.ResultCacheTotal.WithLabelValues("hit").Inc()
	return payload, true
}

// Set stores a payload under a key with the configured TTL.
func (c *Cache) Set(ctx context.Context, key string, payload []byte) {
	if err := c.store.SetWithTTL(ctx, key, payload, c.ttl); err != nil {
		logger.FromContext(ctx).Warn("result cache write failed", zap.Error(err))
	}
}
