package cache

import (
	"errors"
	"fmt"
	"time"
)

// Common errors for cache operations
var (
	// ErrItemTooLarge is returned when a buffer exceeds the cache capacity
	ErrItemTooLarge = errors.New("item too large for cache")

	// ErrCacheCorrupted is returned when cached data cannot be decoded
	ErrCacheCorrupted = errors.New("cache data corrupted")
)

// CacheLevel represents the cache tier
type CacheLevel int

const (
	// CacheLevelL1 represents the memory cache (fastest)
	CacheLevelL1 CacheLevel = iota

	// CacheLevelL2 represents the disk cache (persistent)
	CacheLevelL2
)

// String returns the string representation of the cache level
func (l CacheLevel) String() string {
	switch l {
	case CacheLevelL1:
		return "L1-Memory"
	case CacheLevelL2:
		return "L2-Disk"
	default:
		return "Unknown"
	}
}

// ToneKey identifies a synthesized tone. Two tones with equal keys have
// identical samples.
type ToneKey struct {
	Frequency  float64 // Hz
	SampleRate int     // samples per second
	Millis     int64   // tone length
}

// String returns a stable textual form used for file names and logs.
func (k ToneKey) String() string {
	return fmt.Sprintf("%.3fhz-%d-%dms", k.Frequency, k.SampleRate, k.Millis)
}

// CacheStats holds cache performance metrics
type CacheStats struct {
	Capacity int64 // Maximum capacity in bytes

	Size      int64 // Current size in bytes
	ItemCount int64 // Number of tones in cache

	Hits      int64
	Misses    int64
	Evictions int64
	HitRate   float64 // hits / (hits + misses)

	LastAccess time.Time
}

func (s *CacheStats) computeHitRate() {
	if s.Hits+s.Misses > 0 {
		s.HitRate = float64(s.Hits) / float64(s.Hits+s.Misses)
	}
}

// CacheConfig holds configuration for the tone cache
type CacheConfig struct {
	// Memory cache (L1)
	MemoryCapacity int64 // Bytes

	// Disk cache (L2); an empty DiskPath disables it
	DiskCapacity     int64
	DiskPath         string
	CompressionLevel int // Zstd compression level (1-22, default 3)

	// Disk entries older than this are pruned on open; zero keeps everything
	MaxAge time.Duration
}

// DefaultCacheConfig returns default cache configuration
func DefaultCacheConfig() *CacheConfig {
	return &CacheConfig{
		MemoryCapacity:   16 * 1024 * 1024,  // 16MB
		DiskCapacity:     128 * 1024 * 1024, // 128MB
		CompressionLevel: 3,
		MaxAge:           30 * 24 * time.Hour,
	}
}

// sampleBytes is the in-memory footprint of a float32 buffer.
func sampleBytes(samples []float32) int64 {
	return int64(len(samples)) * 4
}
