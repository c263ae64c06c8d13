// Package series batch-evaluates observables over time grids: an AER
// series for a target/observer pair, and visibility windows extracted from
// it. Grid points are independent queries against an immutable almanac, so
// they are fanned out over a fixed worker pool.
package series

import (
	"context"
	"log/slog"
	"runtime"
	"sync"

	"github.com/SwitchbackEngineer/anise/almanac"
	"github.com/SwitchbackEngineer/anise/epoch"
	"github.com/SwitchbackEngineer/anise/frames"
	"github.com/SwitchbackEngineer/anise/internal/metrics"
)

// Point is one evaluated grid sample. A failed sample carries Err and ends
// any window the window extractor has open.
type Point struct {
	Epoch epoch.Epoch
	AER   almanac.AER
	Err   string
}

// Request describes an AER series.
type Request struct {
	Target     frames.Frame  // target body (its center is the target point)
	Observer   almanac.State // observer in a shaped body-fixed frame
	Obstructer *frames.Frame
	Start      epoch.Epoch
	Step       epoch.Duration
	Count      int
}

// Pool is a fixed-size worker pool for grid evaluation.
type Pool struct {
	workers int
	logger  *slog.Logger
}

// NewPool creates a pool; workers <= 0 selects the CPU count.
func NewPool(workers int, logger *slog.Logger) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Pool{workers: workers, logger: logger}
}

type job struct {
	index int
	at    epoch.Epoch
}

// AERSeries evaluates the request's grid. The returned slice has one entry
// per grid point in time order; points that failed carry their error
// string. Cancellation via ctx abandons unprocessed points (left with
// Err = "cancelled").
func (p *Pool) AERSeries(ctx context.Context, a *almanac.Almanac, req Request) []Point {
	points := make([]Point, req.Count)
	for i := range points {
		points[i] = Point{
			Epoch: req.Start.Add(epoch.Duration(int64(i) * int64(req.Step))),
			Err:   "cancelled",
		}
	}

	jobs := make(chan job, p.workers*2)

	var wg sync.WaitGroup
	for w := 0; w < p.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for jb := range jobs {
				observer := req.Observer
				observer.Epoch = jb.at
				target := almanac.State{
					Epoch: jb.at,
					Frame: frames.Inertial(req.Target.EphemerisID),
				}
				aer, err := a.AzimuthElevationRange(target, observer, req.Obstructer)
				if err != nil {
					points[jb.index] = Point{Epoch: jb.at, Err: err.Error()}
					continue
				}
				points[jb.index] = Point{Epoch: jb.at, AER: aer}
			}
		}()
	}

	for i := range points {
		select {
		case jobs <- job{index: i, at: points[i].Epoch}:
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return points
		}
	}
	close(jobs)
	wg.Wait()

	var failed int
	for i := range points {
		if points[i].Err != "" {
			failed++
		}
	}
	if failed > 0 && p.logger != nil {
		p.logger.Warn("series evaluation had failures", "failed", failed, "total", req.Count)
	}
	metrics.AddSeriesPoints(req.Count)
	return points
}
