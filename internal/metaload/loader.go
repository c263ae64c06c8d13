package metaload

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/SwitchbackEngineer/anise/almanac"
)

// maxConcurrentFetches bounds parallel kernel downloads.
const maxConcurrentFetches = 4

// Load resolves every kernel in the config (fetching remote ones in
// parallel) and loads them into a new almanac in metafile order, so the
// documented last-loaded-wins precedence follows the metafile.
func Load(ctx context.Context, cfg Config, logger *slog.Logger) (*almanac.Almanac, error) {
	fetcher := NewFetcher(cfg.CacheDir)

	paths := make([]string, len(cfg.Kernels))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)
	for i, k := range cfg.Kernels {
		g.Go(func() error {
			if k.Path != "" {
				paths[i] = k.Path
				return nil
			}
			path, err := fetcher.Fetch(gctx, k.Name, k.URL)
			if err != nil {
				return err
			}
			logger.Info("kernel available", "name", k.Name, "path", path)
			paths[i] = path
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Loads are sequential: each load derives a new almanac and order is
	// semantically significant.
	a := almanac.New(logger)
	for i, path := range paths {
		next, err := a.Load(path)
		if err != nil {
			return nil, fmt.Errorf("metaload: loading %s: %w", cfg.Kernels[i].Name, err)
		}
		a = next
	}
	logger.Info("almanac assembled",
		"spk", a.NumSPK(),
		"bpc", a.NumBPC(),
		"pca", a.HasPlanetaryData(),
		"epa", a.HasEulerParameters(),
	)
	return a, nil
}
