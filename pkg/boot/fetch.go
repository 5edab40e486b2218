// ABOUTME: Fetchers for module payloads over HTTP or from local disk
// ABOUTME: HTTPFetcher resolves paths against a base URL, FileFetcher against a directory
package boot

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
)

// HTTPFetcher downloads payloads relative to BaseURL
type HTTPFetcher struct {
	BaseURL string
	Client  *http.Client
}

// Fetch issues a GET for path resolved against BaseURL
func (f *HTTPFetcher) Fetch(ctx context.Context, path string) (io.ReadCloser, error) {
	target, err := f.resolve(path)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download module: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("module download failed: HTTP %d", resp.StatusCode)
	}

	return resp.Body, nil
}

func (f *HTTPFetcher) resolve(path string) (string, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("invalid module path %q: %w", path, err)
	}
	if f.BaseURL == "" {
		return ref.String(), nil
	}

	base, err := url.Parse(f.BaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL %q: %w", f.BaseURL, err)
	}
	return base.ResolveReference(ref).String(), nil
}

// FileFetcher reads payloads from Dir
type FileFetcher struct {
	Dir string
}

// Fetch opens path inside Dir
func (f *FileFetcher) Fetch(ctx context.Context, path string) (io.ReadCloser, error) {
	file, err := os.Open(filepath.Join(f.Dir, filepath.FromSlash(path)))
	if err != nil {
		return nil, fmt.Errorf("failed to open module: %w", err)
	}
	return file, nil
}
