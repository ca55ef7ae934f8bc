// Package cache provides a two-level cache for synthesized tone buffers.
// It includes an in-memory LRU cache (L1) and a persistent zstd-compressed
// disk cache (L2) that survives across runs.
package cache
