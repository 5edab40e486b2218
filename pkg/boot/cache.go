// ABOUTME: On-disk cache in front of another Fetcher
// ABOUTME: Stores downloaded modules under a hash of their location and serves repeats locally
package boot

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"log"
	"os"
	"path"
	"path/filepath"
)

// CachingFetcher keeps a copy of every payload fetched through Fetcher.
// Cached entries never expire; call Cleanup to drop them.
type CachingFetcher struct {
	Fetcher Fetcher
	Dir     string
	Key     string // distinguishes origins sharing one Dir, usually the base URL
}

// NewCachingFetcher creates a cache in dir, or in a temp subdirectory when
// dir is empty
func NewCachingFetcher(inner Fetcher, dir, key string) (*CachingFetcher, error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "wasmplay-modules")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	return &CachingFetcher{
		Fetcher: inner,
		Dir:     dir,
		Key:     key,
	}, nil
}

// Fetch returns the cached copy of p, downloading it first on a miss
func (c *CachingFetcher) Fetch(ctx context.Context, p string) (io.ReadCloser, error) {
	cachePath := c.cachePath(p)

	if f, err := os.Open(cachePath); err == nil {
		log.Printf("Module cache hit: %s", cachePath)
		return f, nil
	}

	body, err := c.Fetcher.Fetch(ctx, p)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	// Write to a temp file so a failed download never looks cached
	tmp, err := os.CreateTemp(c.Dir, "download-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create cache file: %w", err)
	}

	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("failed to save module: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("failed to save module: %w", err)
	}
	if err := os.Rename(tmp.Name(), cachePath); err != nil {
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("failed to save module: %w", err)
	}

	log.Printf("Module cached: %s", cachePath)
	f, err := os.Open(cachePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open cached module: %w", err)
	}
	return f, nil
}

// Cleanup removes the cache directory
func (c *CachingFetcher) Cleanup() error {
	return os.RemoveAll(c.Dir)
}

func (c *CachingFetcher) cachePath(p string) string {
	hash := sha256.Sum256([]byte(c.Key + "\x00" + p))
	ext := path.Ext(p)
	if ext == "" {
		ext = ".wasm"
	}
	return filepath.Join(c.Dir, fmt.Sprintf("%x%s", hash[:8], ext))
}
