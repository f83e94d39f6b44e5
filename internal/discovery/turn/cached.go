package turn

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"product-discovery/internal/common/cache"
	"product-discovery/internal/common/logger"
	"product-discovery/internal/common/metrics"
	"product-discovery/internal/models"
)

// CachedCatalog memoizes successful fetches. Cache failures behave as
// misses, so hits and misses are indistinguishable to the caller.
type CachedCatalog struct {
	next   Catalog
	cache  cache.Cache
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedCatalog(next Catalog, c cache.Cache, ttl time.Duration, log logger.Logger) *CachedCatalog {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &CachedCatalog{next: next, cache: c, ttl: ttl, logger: log}
}

func (c *CachedCatalog) FetchCandidates(ctx context.Context, q models.QueryDescriptor, limit int) ([]models.Candidate, error) {
	key := cacheKey("catalog", q, limit)

	var cached []models.Candidate
	if lookup(ctx, c.cache, "catalog", key, &cached) {
		return cached, nil
	}

	candidates, err := c.next.FetchCandidates(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	store(ctx, c.cache, c.logger, key, candidates, c.ttl)
	return candidates, nil
}

// CachedExtractor memoizes extractor proposals for identical
// (utterance, history, state) inputs. Errors are never cached.
type CachedExtractor struct {
	next   Extractor
	cache  cache.Cache
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedExtractor(next Extractor, c cache.Cache, ttl time.Duration, log logger.Logger) *CachedExtractor {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &CachedExtractor{next: next, cache: c, ttl: ttl, logger: log}
}

type extractKey struct {
	Utterance string              `json:"utterance"`
	History   []models.TurnRecord `json:"history"`
	State     models.IntentState  `json:"state"`
}

func (c *CachedExtractor) Extract(ctx context.Context, utterance string, history []models.TurnRecord, state models.IntentState) (*models.IntentProposal, error) {
	key := cacheKey("extract", extractKey{Utterance: utterance, History: history, State: state}, 0)

	var cached models.IntentProposal
	if lookup(ctx, c.cache, "extractor", key, &cached) {
		return &cached, nil
	}

	proposal, err := c.next.Extract(ctx, utterance, history, state)
	if err != nil || proposal == nil {
		return proposal, err
	}
	store(ctx, c.cache, c.logger, key, proposal, c.ttl)
	return proposal, nil
}

func cacheKey(prefix string, v interface{}, limit int) string {
	payload, _ := json.Marshal(struct {
		V     interface{} `json:"v"`
		Limit int         `json:"limit"`
	}{v, limit})
	sum := sha256.Sum256(payload)
	return prefix + ":" + hex.EncodeToString(sum[:])
}

func lookup(ctx context.Context, c cache.Cache, name, key string, dst interface{}) bool {
	raw, err := c.Get(ctx, key)
	if err != nil {
		result := "miss"
		if !errors.Is(err, cache.ErrMiss) {
			result = "error"
		}
		metrics.CacheLookups.WithLabelValues(name, result).Inc()
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		metrics.CacheLookups.WithLabelValues(name, "error").Inc()
		return false
	}
	metrics.CacheLookups.WithLabelValues(name, "hit").Inc()
	return true
}

func store(ctx context.Context, c cache.Cache, log logger.Logger, key string, v interface{}, ttl time.Duration) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.Set(ctx, key, raw, ttl); err != nil {
		log.Debug("cache write failed", map[string]interface{}{"key": key, "error": err.Error()})
	}
}
