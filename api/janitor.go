package api

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aouyang1/memoryframe/api/client"
	"github.com/aouyang1/memoryframe/api/models"
	"github.com/aouyang1/memoryframe/event"
	"github.com/aouyang1/memoryframe/store"
	"github.com/aouyang1/memoryframe/view"
	mapset "github.com/deckarep/golang-set/v2"
	"go.uber.org/zap"
)

const (
	defaultJanitorInterval = 6 * time.Hour
	janitorSweepTimeout    = 30 * time.Minute
)

// AssetJanitor removes uploaded objects that no saved configuration refers to.
type AssetJanitor struct {
	db       *store.Database
	proxy    *client.ProxyClient
	prefix   string
	interval time.Duration
	logger   *zap.Logger
}

func NewAssetJanitor(db *store.Database, proxy *client.ProxyClient, prefix string, interval time.Duration, logger *zap.Logger) (*AssetJanitor, error) {
	if prefix == "" {
		return nil, fmt.Errorf("janitor needs an object prefix to sweep")
	}
	if interval <= 0 {
		interval = defaultJanitorInterval
	}
	return &AssetJanitor{
		db:       db,
		proxy:    proxy,
		prefix:   prefix,
		interval: interval,
		logger:   logger.Named("janitor"),
	}, nil
}

// ReferencedKeys collects the object keys under the janitor's prefix used by any
// saved configuration, not only the active one.
func (j *AssetJanitor) ReferencedKeys() (mapset.Set[string], error) {
	summaries, err := j.db.ListConfigs()
	if err != nil {
		return nil, err
	}

	keys := mapset.NewSet[string]()
	for _, summary := range summaries {
		cfg, err := j.db.GetConfig(summary.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", summary.Name, err)
		}
		keys = keys.Union(j.configKeys(cfg))
	}
	return keys, nil
}

func (j *AssetJanitor) configKeys(cfg *event.Config) mapset.Set[string] {
	page := view.Build(cfg, nil)
	urls := page.AssetURLs()
	if page.Video != nil {
		urls = append(urls, page.Video.Source)
	}
	if page.Music != nil {
		urls = append(urls, page.Music.Source)
	}

	keys := mapset.NewSet[string]()
	for _, raw := range urls {
		key, ok := j.proxy.KeyFromURL(raw)
		if !ok || !strings.HasPrefix(key, j.prefix) {
			continue
		}
		keys.Add(key)
	}
	return keys
}

// Sweep deletes every object under the prefix that is not referenced. It does
// nothing when no configuration references anything, so an empty store never
// wipes the bucket.
func (j *AssetJanitor) Sweep(ctx context.Context) (models.CleanupResponse, error) {
	keep, err := j.ReferencedKeys()
	if err != nil {
		return models.CleanupResponse{}, fmt.Errorf("failed to collect referenced keys: %w", err)
	}
	if keep.Cardinality() == 0 {
		j.logger.Info("no referenced assets, skipping cleanup", zap.String("prefix", j.prefix))
		return models.CleanupResponse{Failed: []string{}}, nil
	}

	before, err := j.proxy.Reconcile(ctx, j.prefix)
	if err != nil {
		return models.CleanupResponse{}, fmt.Errorf("failed to reconcile %s: %w", j.prefix, err)
	}

	result, err := j.proxy.Cleanup(ctx, j.prefix, keep.ToSlice())
	if err != nil {
		return models.CleanupResponse{}, fmt.Errorf("failed to clean up %s: %w", j.prefix, err)
	}

	j.logger.Info("swept orphaned assets",
		zap.String("prefix", j.prefix),
		zap.Int("objects", before.Count),
		zap.Int64("bytes", before.TotalSize),
		zap.Int("deleted", result.Deleted),
		zap.Int("kept", result.Kept),
		zap.Int64("reclaimed", result.ReclaimedBytes),
		zap.Strings("failed", result.Failed),
	)
	return result, nil
}

// Run sweeps once immediately and then on every interval until ctx is done.
func (j *AssetJanitor) Run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.sweep(ctx)
		}
	}
}

func (j *AssetJanitor) sweep(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, janitorSweepTimeout)
	defer cancel()
	if _, err := j.Sweep(ctx); err != nil {
		j.logger.Warn("error while sweeping assets", zap.Error(err))
	}
}
