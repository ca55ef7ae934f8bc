package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/klauspost/compress/zstd"
)

const toneFileExt = ".tone.zst"

// DiskCache implements an L2 disk cache. Each tone is one zstd-compressed
// file of little-endian float32 samples whose name is derived from the key,
// so no separate index is kept.
type DiskCache struct {
	basePath string
	capacity int64 // Maximum size in bytes on disk
	size     int64

	encoder *zstd.Encoder
	decoder *zstd.Decoder

	mu    sync.Mutex
	stats CacheStats
}

// NewDiskCache opens (creating if needed) a disk cache rooted at basePath.
func NewDiskCache(basePath string, capacity int64, compressionLevel int) (*DiskCache, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	if compressionLevel <= 0 {
		compressionLevel = 3
	}

	encoder, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(compressionLevel)))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		_ = encoder.Close()
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}

	dc := &DiskCache{
		basePath: basePath,
		capacity: capacity,
		encoder:  encoder,
		decoder:  decoder,
		stats:    CacheStats{Capacity: capacity},
	}
	dc.calculateSize()
	return dc, nil
}

// Get reads a tone from disk. Unreadable or corrupt files are removed and
// reported as misses.
func (dc *DiskCache) Get(key ToneKey) ([]float32, bool) {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	path := dc.filePath(key)
	data, err := os.ReadFile(path)
	if err != nil {
		dc.stats.Misses++
		return nil, false
	}

	samples, err := dc.decode(data)
	if err != nil {
		log.Warn("Dropping corrupt tone cache file", "path", path, "error", err)
		_ = os.Remove(path)
		dc.calculateSize()
		dc.stats.Misses++
		return nil, false
	}

	now := time.Now()
	_ = os.Chtimes(path, now, now)
	dc.stats.Hits++
	dc.stats.LastAccess = now
	return samples, true
}

// Put writes a tone to disk, evicting the least recently used files when
// over capacity.
func (dc *DiskCache) Put(key ToneKey, samples []float32) error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	data := dc.encoder.EncodeAll(encodeSamples(samples), nil)
	diskSize := int64(len(data))
	if diskSize > dc.capacity {
		return ErrItemTooLarge
	}

	path := dc.filePath(key)
	if fi, err := os.Stat(path); err == nil {
		if os.Remove(path) == nil {
			dc.size -= fi.Size()
		}
	}

	for dc.size+diskSize > dc.capacity {
		if !dc.evictOldest() {
			break
		}
	}

	if err := writeFile(path, data); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	dc.size += diskSize
	return nil
}

// Contains reports whether a tone file exists.
func (dc *DiskCache) Contains(key ToneKey) bool {
	_, err := os.Stat(dc.filePath(key))
	return err == nil
}

// Prune removes files not accessed within maxAge and returns how many were
// removed.
func (dc *DiskCache) Prune(maxAge time.Duration) int {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	pruned := 0
	for _, f := range dc.files() {
		if f.modTime.Before(cutoff) {
			if os.Remove(f.path) == nil {
				dc.size -= f.size
				pruned++
			}
		}
	}
	return pruned
}

// Clear removes every tone file.
func (dc *DiskCache) Clear() error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	var firstErr error
	for _, f := range dc.files() {
		if err := os.Remove(f.path); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	dc.calculateSize()
	return firstErr
}

// Size returns the bytes used on disk.
func (dc *DiskCache) Size() int64 {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	return dc.size
}

// Stats returns cache statistics.
func (dc *DiskCache) Stats() CacheStats {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	stats := dc.stats
	stats.Size = dc.size
	stats.ItemCount = int64(len(dc.files()))
	stats.computeHitRate()
	return stats
}

// Close releases the zstd codecs.
func (dc *DiskCache) Close() error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	dc.decoder.Close()
	return dc.encoder.Close()
}

func (dc *DiskCache) filePath(key ToneKey) string {
	hash := sha256.Sum256([]byte(key.String()))
	return filepath.Join(dc.basePath, hex.EncodeToString(hash[:16])+toneFileExt)
}

func (dc *DiskCache) decode(data []byte) ([]float32, error) {
	raw, err := dc.decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, err
	}
	if len(raw)%4 != 0 {
		return nil, ErrCacheCorrupted
	}
	return decodeSamples(raw), nil
}

type toneFile struct {
	path    string
	size    int64
	modTime time.Time
}

// files lists tone files oldest first (must be called with lock held).
func (dc *DiskCache) files() []toneFile {
	entries, err := os.ReadDir(dc.basePath)
	if err != nil {
		return nil
	}
	out := make([]toneFile, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), toneFileExt) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, toneFile{
			path:    filepath.Join(dc.basePath, e.Name()),
			size:    info.Size(),
			modTime: info.ModTime(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].modTime.Before(out[j].modTime) })
	return out
}

func (dc *DiskCache) evictOldest() bool {
	files := dc.files()
	if len(files) == 0 {
		return false
	}
	if err := os.Remove(files[0].path); err != nil {
		return false
	}
	dc.size -= files[0].size
	dc.stats.Evictions++
	return true
}

func (dc *DiskCache) calculateSize() {
	dc.size = 0
	for _, f := range dc.files() {
		dc.size += f.size
	}
}

func writeFile(path string, data []byte) error {
	// Write to temp file first, then rename
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		_ = os.Remove(tempPath)
		return err
	}
	return os.Rename(tempPath, path)
}

func encodeSamples(samples []float32) []byte {
	buf := make([]byte, len(samples)*4)
	for i, s := range samples {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(s))
	}
	return buf
}

func decodeSamples(raw []byte) []float32 {
	out := make([]float32, len(raw)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return out
}
