package metaload

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// Fetcher retrieves remote kernels and caches them on disk. A cached file
// is reused as-is: kernels are immutable snapshots, refreshed only by
// deleting the cache entry.
type Fetcher struct {
	cacheDir   string
	httpClient *http.Client
}

// NewFetcher creates a Fetcher caching into dir.
func NewFetcher(dir string) *Fetcher {
	return &Fetcher{
		cacheDir: dir,
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}
}

// CachePath returns where a kernel of the given name is stored.
func (f *Fetcher) CachePath(name string) string {
	return filepath.Join(f.cacheDir, name)
}

// Fetch ensures the named kernel is present in the cache, downloading it
// if needed, and returns its local path.
func (f *Fetcher) Fetch(ctx context.Context, name, url string) (string, error) {
	path := f.CachePath(name)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	if err := os.MkdirAll(f.cacheDir, 0o755); err != nil {
		return "", fmt.Errorf("metaload: creating cache dir: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("metaload: creating request: %w", err)
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("metaload: fetching %s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("metaload: unexpected status %d fetching %s from %s", resp.StatusCode, name, url)
	}

	// Download to a temp file and rename so a partial download never
	// poses as a cached kernel.
	tmp, err := os.CreateTemp(f.cacheDir, name+".partial-*")
	if err != nil {
		return "", fmt.Errorf("metaload: creating temp file: %w", err)
	}
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("metaload: downloading %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("metaload: closing temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("metaload: committing %s: %w", name, err)
	}
	return path, nil
}
