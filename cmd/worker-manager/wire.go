package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"product-discovery/internal/adapters/catalog"
	"product-discovery/internal/adapters/extractor"
	"product-discovery/internal/common/aws"
	"product-discovery/internal/common/cache"
	"product-discovery/internal/common/config"
	"product-discovery/internal/common/database"
	"product-discovery/internal/common/logger"
	"product-discovery/internal/common/observability"
	"product-discovery/internal/discovery/turn"
	processturn "product-discovery/internal/workers/discovery/process-turn"
)

var (
	connectAttempts = 15
	connectDelay    = 2 * time.Second
	sweepInterval   = time.Minute
)

func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log logger.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName), map[string]interface{}{
				"error":       err.Error(),
				"attempt":     i + 1,
				"maxRetries":  maxRetries,
				"nextRetryIn": delay.String(),
			})
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

// buildCatalog connects the configured backend. The returned func releases
// its connections.
func buildCatalog(ctx context.Context, cfg *config.Config, log logger.Logger) (turn.Catalog, func(), error) {
	switch cfg.Catalog.Backend {
	case config.CatalogBackendPostgres:
		db, err := database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return nil, nil, err
		}
		err = retryWithBackoff(func() error {
			return db.PingContext(ctx)
		}, connectAttempts, connectDelay, log, "PostgreSQL connection")
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		pg, err := catalog.NewPostgres(db, cfg.Catalog.Table, log)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		log.Info("PostgreSQL catalog connected", map[string]interface{}{"table": cfg.Catalog.Table})
		return pg, closer(db), nil

	default:
		es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return nil, nil, err
		}
		err = retryWithBackoff(func() error {
			return database.PingElasticsearch(ctx, es)
		}, connectAttempts, connectDelay, log, "Elasticsearch connection")
		if err != nil {
			return nil, nil, err
		}
		log.Info("Elasticsearch catalog connected", map[string]interface{}{"index": cfg.Catalog.Index})
		return catalog.NewElasticsearch(es, cfg.Catalog.Index, log), func() {}, nil
	}
}

func closer(db *sql.DB) func() {
	return func() { _ = db.Close() }
}

// buildCache returns the memoization store. The memory store is swept in
// the background until ctx is done.
func buildCache(ctx context.Context, cfg *config.Config, log logger.Logger) (cache.Cache, func(), error) {
	if !cfg.Catalog.Cache.Enabled {
		return cache.Noop{}, func() {}, nil
	}

	if cfg.Catalog.Cache.Store == "redis" {
		rc := database.NewRedis(cfg.Database.Redis)
		err := retryWithBackoff(func() error {
			return rc.Ping(ctx)
		}, connectAttempts, connectDelay, log, "Redis connection")
		if err != nil {
			rc.Close()
			return nil, nil, err
		}
		log.Info("Redis cache connected", map[string]interface{}{"prefix": cfg.Catalog.Cache.Prefix})
		return rc.Cache(cfg.Catalog.Cache.Prefix), func() { _ = rc.Close() }, nil
	}

	mem := cache.NewMemory()
	sweepCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-sweepCtx.Done():
				return
			case <-ticker.C:
				if n := mem.Sweep(); n > 0 {
					log.Debug("cache swept", map[string]interface{}{"evicted": n})
				}
			}
		}
	}()
	return mem, func() { cancel(); <-done }, nil
}

// buildExtractor returns nil when no GenAI endpoint is configured, which
// makes every turn use the raw-utterance fallback.
func buildExtractor(cfg *config.Config, log logger.Logger) turn.Extractor {
	if cfg.APIs.GenAI.BaseURL == "" {
		log.Warn("no genai base_url configured, intent extraction disabled", nil)
		return nil
	}
	return extractor.NewGenAI(&extractor.Config{
		BaseURL:    cfg.APIs.GenAI.BaseURL,
		APIKey:     cfg.APIs.GenAI.APIKey,
		Timeout:    config.GetDuration(cfg.APIs.GenAI.Timeout),
		MaxRetries: cfg.APIs.GenAI.MaxRetries,
	}, log)
}

func buildNotifier(ctx context.Context, cfg *config.Config) (processturn.Notifier, error) {
	if !cfg.Notifications.SNS.Enabled {
		return nil, nil
	}
	client, err := aws.NewSNSClient(ctx, cfg.Notifications.SNS.Region)
	if err != nil {
		return nil, fmt.Errorf("sns client: %w", err)
	}
	return processturn.NewSNSNotifier(client, cfg.Notifications.SNS.TopicARN), nil
}

// buildEngine wraps the collaborators in the memoization decorators and
// assembles the turn engine.
func buildEngine(cfg *config.Config, ext turn.Extractor, cat turn.Catalog, store cache.Cache, log logger.Logger, obs *observability.Observability) *turn.Engine {
	ttl := config.GetDuration(cfg.Catalog.Cache.TTL)
	if cfg.Catalog.Cache.Enabled {
		cat = turn.NewCachedCatalog(cat, store, ttl, log)
		if ext != nil {
			ext = turn.NewCachedExtractor(ext, store, ttl, log)
		}
	}

	return turn.NewEngine(cfg.Discovery, ext, cat, turn.Options{
		ExtractorTimeout: config.GetDuration(cfg.Catalog.ExtractorTimeout),
		CatalogTimeout:   config.GetDuration(cfg.Catalog.Timeout),
		ScoringWorkers:   cfg.Catalog.ScoringWorkers,
	}, log, obs)
}
