package cache

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
)

// ToneCache coordinates the memory and disk levels. Disk hits are promoted
// to memory. The zero disk path runs memory-only.
type ToneCache struct {
	l1Memory *MemoryCache
	l2Disk   *DiskCache

	config *CacheConfig

	mu    sync.Mutex
	stats struct {
		TotalHits   int64
		TotalMisses int64
		L1Hits      int64
		L2Hits      int64
		Promotions  int64
	}
}

// NewToneCache creates a tone cache with the specified configuration.
func NewToneCache(config *CacheConfig) (*ToneCache, error) {
	if config == nil {
		config = DefaultCacheConfig()
	}

	tc := &ToneCache{
		l1Memory: NewMemoryCache(config.MemoryCapacity),
		config:   config,
	}

	if config.DiskPath != "" {
		disk, err := NewDiskCache(config.DiskPath, config.DiskCapacity, config.CompressionLevel)
		if err != nil {
			return nil, fmt.Errorf("failed to create disk cache: %w", err)
		}
		if config.MaxAge > 0 {
			if n := disk.Prune(config.MaxAge); n > 0 {
				log.Debug("Pruned stale tones", "count", n, "path", config.DiskPath)
			}
		}
		tc.l2Disk = disk
	}

	return tc, nil
}

// Get retrieves a tone, checking memory then disk.
func (tc *ToneCache) Get(key ToneKey) ([]float32, bool) {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	if samples, ok := tc.l1Memory.Get(key); ok {
		tc.stats.L1Hits++
		tc.stats.TotalHits++
		return samples, true
	}

	if tc.l2Disk != nil {
		if samples, ok := tc.l2Disk.Get(key); ok {
			tc.stats.L2Hits++
			tc.stats.TotalHits++
			if err := tc.l1Memory.Put(key, samples); err == nil {
				tc.stats.Promotions++
			}
			return samples, true
		}
	}

	tc.stats.TotalMisses++
	return nil, false
}

// Put stores a tone in memory and, when configured, on disk. A disk failure
// is logged and does not fail the call.
func (tc *ToneCache) Put(key ToneKey, samples []float32) error {
	if err := tc.l1Memory.Put(key, samples); err != nil && err != ErrItemTooLarge {
		return fmt.Errorf("failed to store in memory cache: %w", err)
	}

	if tc.l2Disk != nil {
		if err := tc.l2Disk.Put(key, samples); err != nil {
			log.Warn("Failed to persist tone", "key", key, "error", err)
		}
	}
	return nil
}

// Clear empties both levels.
func (tc *ToneCache) Clear() error {
	tc.l1Memory.Clear()
	if tc.l2Disk != nil {
		return tc.l2Disk.Clear()
	}
	return nil
}

// Stats returns aggregate counters for logging.
func (tc *ToneCache) Stats() map[string]interface{} {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	out := map[string]interface{}{
		"total_hits":   tc.stats.TotalHits,
		"total_misses": tc.stats.TotalMisses,
		"l1_hits":      tc.stats.L1Hits,
		"l2_hits":      tc.stats.L2Hits,
		"promotions":   tc.stats.Promotions,
		"l1_size":      tc.l1Memory.Size(),
	}
	if tc.l2Disk != nil {
		out["l2_size"] = tc.l2Disk.Size()
	}
	return out
}

// Close releases the disk level.
func (tc *ToneCache) Close() error {
	if tc.l2Disk != nil {
		return tc.l2Disk.Close()
	}
	return nil
}
