package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/minato/kizami/internal/config"
	"github.com/minato/kizami/internal/embedding"
	"github.com/minato/kizami/internal/kvstore"
	"github.com/minato/kizami/internal/models"
	"github.com/minato/kizami/internal/vector"
)

const (
	tier1Prefix = "l1:"
	tier2Prefix = "l2:"
	tier3Prefix = "l3:"

	// summaryPrefixLen is how many leading key characters tier 3 matches on.
	summaryPrefixLen = 8
)

// TieredCache layers three lookup strategies over one key-value store:
// tier 1 matches keys exactly, tier 2 matches semantically similar content
// through a vector index, and tier 3 matches stored keys sharing a prefix.
// Gets probe 1, then 2, then 3. Store failures degrade to a miss or a no-op;
// they are logged but never surfaced to callers.
type TieredCache struct {
	store    kvstore.Store
	embedder embedding.Embedder
	index    vector.Index
	cfg      *config.CacheConfig
	logger   *zap.Logger
	counters counters

	// indexMu serializes tier-2 writes so eviction and insertion cannot
	// interleave between the store and the index.
	indexMu sync.Mutex
}

// NewTieredCache creates a cache over the given store. embedder and index may
// be nil, which disables tier-2 semantic matching (probes skip straight to
// tier 3 and tier-2 puts store without indexing).
func NewTieredCache(store kvstore.Store, embedder embedding.Embedder, index vector.Index, cfg *config.CacheConfig, logger *zap.Logger) *TieredCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TieredCache{
		store:    store,
		embedder: embedder,
		index:    index,
		cfg:      cfg,
		logger:   logger,
	}
}

// Get probes the tiers in order for key. content is the raw text the key was
// derived from; tier 2 embeds it to find semantically similar entries. On a
// hit the entry's TTL clock restarts and its access count increments. Returns
// the stored value and the tier that hit, or (nil, 0) on a miss.
func (c *TieredCache) Get(ctx context.Context, key, content string) (json.RawMessage, int) {
	if value, ok := c.getExact(ctx, key); ok {
		c.counters.hit(1)
		return value, 1
	}
	if value, ok := c.getSemantic(ctx, content); ok {
		c.counters.hit(2)
		return value, 2
	}
	if value, ok := c.getSummary(ctx, key); ok {
		c.counters.hit(3)
		return value, 3
	}
	c.counters.miss()
	return nil, 0
}

// Put stores value under key in the given tier. content is the raw text the
// key was derived from; tier 2 embeds it (falling back to the key itself when
// empty) so later similar content can find the entry. When the tier is at
// capacity the oldest entry is evicted first. An unknown tier is the only
// error; store failures are logged and dropped.
func (c *TieredCache) Put(ctx context.Context, key string, value json.RawMessage, tier int, content string) error {
	tierCfg, prefix, err := c.tierOf(tier)
	if err != nil {
		return err
	}

	if tier == 2 {
		c.indexMu.Lock()
		defer c.indexMu.Unlock()
	}

	c.evictIfFull(ctx, tier, prefix, tierCfg.MaxSize)

	entry := &models.CacheEntry{
		Key:       key,
		Value:     value,
		CreatedAt: time.Now().UTC(),
		SizeBytes: len(value),
		Tier:      tier,
		Content:   content,
	}
	data, err := json.Marshal(entry)
	if err != nil {
		c.logger.Warn("marshal cache entry", zap.String("key", key), zap.Error(err))
		return nil
	}
	if err := c.store.SetWithTTL(ctx, prefix+key, data, tierCfg.TTL); err != nil {
		c.logger.Warn("cache put failed", zap.Int("tier", tier), zap.String("key", key), zap.Error(err))
		return nil
	}

	if tier == 2 && c.embedder != nil && c.index != nil {
		text := content
		if text == "" {
			text = key
		}
		emb, err := c.embedder.Embed(ctx, text)
		if err != nil {
			c.logger.Warn("embed for semantic tier failed", zap.String("key", key), zap.Error(err))
			return nil
		}
		if err := c.index.Add(ctx, []string{key}, [][]float32{emb}); err != nil {
			c.logger.Warn("index cache entry failed", zap.String("key", key), zap.Error(err))
		}
	}
	return nil
}

// Clear empties one tier, or every tier when tier is 0.
func (c *TieredCache) Clear(ctx context.Context, tier int) error {
	if tier == 0 {
		for _, t := range []int{1, 2, 3} {
			if err := c.Clear(ctx, t); err != nil {
				return err
			}
		}
		return nil
	}
	_, prefix, err := c.tierOf(tier)
	if err != nil {
		return err
	}
	if tier == 2 {
		c.indexMu.Lock()
		defer c.indexMu.Unlock()
	}
	keys, err := c.store.Keys(ctx, prefix)
	if err != nil {
		c.logger.Warn("list keys for clear failed", zap.Int("tier", tier), zap.Error(err))
		return nil
	}
	if err := c.store.Delete(ctx, keys...); err != nil {
		c.logger.Warn("clear tier failed", zap.Int("tier", tier), zap.Error(err))
		return nil
	}
	if tier == 2 && c.index != nil {
		if err := c.index.Reset(); err != nil {
			c.logger.Warn("reset semantic index failed", zap.Error(err))
		}
	}
	return nil
}

// Stats returns hit/miss counters plus live entry counts per tier.
func (c *TieredCache) Stats(ctx context.Context) *models.CacheStats {
	t1, t2, t3, misses := c.counters.snapshot()
	stats := &models.CacheStats{
		Tier1Hits:     t1,
		Tier2Hits:     t2,
		Tier3Hits:     t3,
		Misses:        misses,
		TotalRequests: t1 + t2 + t3 + misses,
		Tier1Size:     c.tierSize(ctx, tier1Prefix),
		Tier2Size:     c.tierSize(ctx, tier2Prefix),
		Tier3Size:     c.tierSize(ctx, tier3Prefix),
	}
	stats.TotalSize = stats.Tier1Size + stats.Tier2Size + stats.Tier3Size
	if stats.TotalRequests > 0 {
		stats.HitRate = float64(t1+t2+t3) / float64(stats.TotalRequests)
	}
	return stats
}

func (c *TieredCache) getExact(ctx context.Context, key string) (json.RawMessage, bool) {
	return c.touch(ctx, tier1Prefix+key, 1)
}

func (c *TieredCache) getSemantic(ctx context.Context, content string) (json.RawMessage, bool) {
	if c.embedder == nil || c.index == nil || content == "" || c.index.Size() == 0 {
		return nil, false
	}
	emb, err := c.embedder.Embed(ctx, content)
	if err != nil {
		c.logger.Warn("embed for semantic probe failed", zap.Error(err))
		return nil, false
	}
	results, err := c.index.Search(ctx, emb, 1)
	if err != nil {
		c.logger.Warn("semantic search failed", zap.Error(err))
		return nil, false
	}
	if len(results) == 0 || results[0].Score < c.cfg.SimilarityThreshold {
		return nil, false
	}
	return c.touch(ctx, tier2Prefix+results[0].ID, 2)
}

// getSummary matches when the probe key's short prefix appears in a stored
// tier-3 key, catching responses for overlapping content windows.
func (c *TieredCache) getSummary(ctx context.Context, key string) (json.RawMessage, bool) {
	if len(key) < summaryPrefixLen {
		return nil, false
	}
	shortKey := key[:summaryPrefixLen]
	keys, err := c.store.Keys(ctx, tier3Prefix)
	if err != nil {
		c.logger.Warn("list summary keys failed", zap.Error(err))
		return nil, false
	}
	for _, stored := range keys {
		if strings.Contains(strings.TrimPrefix(stored, tier3Prefix), shortKey) {
			return c.touch(ctx, stored, 3)
		}
	}
	return nil, false
}

// touch loads a stored entry, increments its access count, and restarts its
// TTL clock so frequently read entries stay resident.
func (c *TieredCache) touch(ctx context.Context, storeKey string, tier int) (json.RawMessage, bool) {
	data, err := c.store.Get(ctx, storeKey)
	if err != nil {
		if !errors.Is(err, kvstore.ErrNotFound) {
			c.logger.Warn("cache get failed", zap.String("key", storeKey), zap.Error(err))
		}
		return nil, false
	}
	var entry models.CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		c.logger.Warn("corrupt cache entry", zap.String("key", storeKey), zap.Error(err))
		return nil, false
	}
	entry.AccessCount++
	tierCfg, _, err := c.tierOf(tier)
	if err != nil {
		return nil, false
	}
	if refreshed, err := json.Marshal(&entry); err == nil {
		if err := c.store.SetWithTTL(ctx, storeKey, refreshed, tierCfg.TTL); err != nil {
			c.logger.Warn("refresh cache entry failed", zap.String("key", storeKey), zap.Error(err))
		}
	}
	return entry.Value, true
}

// evictIfFull drops oldest entries until the tier has room for one more.
func (c *TieredCache) evictIfFull(ctx context.Context, tier int, prefix string, maxSize int) {
	if maxSize <= 0 {
		return
	}
	keys, err := c.store.Keys(ctx, prefix)
	if err != nil {
		c.logger.Warn("list keys for eviction failed", zap.Int("tier", tier), zap.Error(err))
		return
	}
	for len(keys) >= maxSize {
		victim := keys[0]
		keys = keys[1:]
		if err := c.store.Delete(ctx, victim); err != nil {
			c.logger.Warn("evict cache entry failed", zap.String("key", victim), zap.Error(err))
			return
		}
		if tier == 2 && c.index != nil {
			if err := c.index.Remove(ctx, []string{strings.TrimPrefix(victim, tier2Prefix)}); err != nil {
				c.logger.Warn("remove evicted entry from index failed", zap.String("key", victim), zap.Error(err))
			}
		}
		c.logger.Debug("evicted cache entry", zap.Int("tier", tier), zap.String("key", victim))
	}
}

func (c *TieredCache) tierSize(ctx context.Context, prefix string) int {
	keys, err := c.store.Keys(ctx, prefix)
	if err != nil {
		return 0
	}
	return len(keys)
}

func (c *TieredCache) tierOf(tier int) (*config.TierConfig, string, error) {
	switch tier {
	case 1:
		return &c.cfg.Tier1, tier1Prefix, nil
	case 2:
		return &c.cfg.Tier2, tier2Prefix, nil
	case 3:
		return &c.cfg.Tier3, tier3Prefix, nil
	default:
		return nil, "", fmt.Errorf("invalid cache tier: %d (must be 1, 2, or 3)", tier)
	}
}
