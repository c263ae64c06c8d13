// Package metaload resolves a metafile — a TOML list of kernel sources —
// into a fully loaded almanac. Remote kernels are fetched over HTTP and
// cached on disk; everything network-facing lives here, outside the query
// hot path.
package metaload

import (
	"fmt"
	"os"

	"github.com/naoina/toml"
)

// KernelSource names one kernel to load: either a local path or a URL to
// fetch and cache.
type KernelSource struct {
	Name string `toml:"name"`
	Path string `toml:"path,omitempty"`
	URL  string `toml:"url,omitempty"`
}

// Config is the metafile content. Kernel order matters: later kernels win
// coverage ties, so the metafile lists them oldest-precedence first.
type Config struct {
	CacheDir string         `toml:"cache_dir"`
	Kernels  []KernelSource `toml:"kernel"`
}

// ParseConfig reads a metafile.
func ParseConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("metaload: reading metafile: %w", err)
	}
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("metaload: parsing metafile %s: %w", path, err)
	}
	for i, k := range cfg.Kernels {
		if k.Name == "" {
			return Config{}, fmt.Errorf("metaload: kernel %d has no name", i)
		}
		if k.Path == "" && k.URL == "" {
			return Config{}, fmt.Errorf("metaload: kernel %q has neither path nor url", k.Name)
		}
	}
	return cfg, nil
}
