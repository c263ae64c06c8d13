// Package almanac composes loaded kernels into one query surface: frame
// information, translations, rotations, full state transforms and the
// geometric observables built on them.
//
// An Almanac is immutable after construction. Every load method returns a
// new Almanac sharing the previously loaded kernels, so concurrent queries
// against any snapshot are safe without locking. Kernel bytes are owned by
// the kernels (heap buffers or read-only memory mappings) and stay valid
// for the lifetime of every Almanac that references them.
package almanac

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/SwitchbackEngineer/anise/bpc"
	"github.com/SwitchbackEngineer/anise/daf"
	"github.com/SwitchbackEngineer/anise/dataset"
	"github.com/SwitchbackEngineer/anise/frames"
	"github.com/SwitchbackEngineer/anise/interp"
	"github.com/SwitchbackEngineer/anise/spk"
)

// Loaded kernel slots are bounded so an Almanac is embeddable with a known
// memory ceiling.
const (
	MaxLoadedSPK = 32
	MaxLoadedBPC = 32
)

// Almanac is the façade over all loaded kernels and datasets.
type Almanac struct {
	logger *slog.Logger

	// Kernels in load order; the most recently loaded wins coverage ties.
	spks []*spk.SPK
	bpcs []*bpc.BPC

	planetary *dataset.PlanetaryDataSet
	euler     *dataset.EulerParameterDataSet

	// Chebyshev/Lagrange workspaces recycled across queries.
	workspaces *sync.Pool
}

// New returns an empty Almanac. A nil logger disables load-time logging.
func New(logger *slog.Logger) *Almanac {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
	}
	return &Almanac{
		logger: logger,
		workspaces: &sync.Pool{
			New: func() any { return new(interp.Workspace) },
		},
	}
}

// clone copies the slot lists so the receiver stays untouched.
func (a *Almanac) clone() *Almanac {
	out := *a
	out.spks = append([]*spk.SPK(nil), a.spks...)
	out.bpcs = append([]*bpc.BPC(nil), a.bpcs...)
	return &out
}

// WithSPK returns a new Almanac with the ephemeris kernel appended.
func (a *Almanac) WithSPK(k *spk.SPK) (*Almanac, error) {
	if len(a.spks) >= MaxLoadedSPK {
		return nil, fmt.Errorf("%w: %d SPK slots", ErrCapacityExceeded, MaxLoadedSPK)
	}
	out := a.clone()
	out.spks = append(out.spks, k)
	return out, nil
}

// WithBPC returns a new Almanac with the orientation kernel appended.
func (a *Almanac) WithBPC(k *bpc.BPC) (*Almanac, error) {
	if len(a.bpcs) >= MaxLoadedBPC {
		return nil, fmt.Errorf("%w: %d BPC slots", ErrCapacityExceeded, MaxLoadedBPC)
	}
	out := a.clone()
	out.bpcs = append(out.bpcs, k)
	return out, nil
}

// WithPlanetaryData returns a new Almanac using the given PCA. A previously
// loaded PCA is replaced whole; kernels are append-only, datasets are
// replace-only.
func (a *Almanac) WithPlanetaryData(ds *dataset.PlanetaryDataSet) *Almanac {
	out := a.clone()
	out.planetary = ds
	return out
}

// WithEulerParameters returns a new Almanac using the given EPA.
func (a *Almanac) WithEulerParameters(ds *dataset.EulerParameterDataSet) *Almanac {
	out := a.clone()
	out.euler = ds
	return out
}

// Load sniffs the file format (DAF/SPK, DAF/PCK, PCA, EPA) and loads it
// into the matching slot, returning a new Almanac. DAF kernels are
// memory-mapped; datasets are read whole.
func (a *Almanac) Load(path string) (*Almanac, error) {
	var head [8]byte
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("almanac: %w", err)
	}
	_, err = f.ReadAt(head[:], 0)
	f.Close()
	if err != nil {
		return nil, fmt.Errorf("almanac: sniffing %s: %w", path, err)
	}

	switch {
	case bytes.Equal(head[0:8], []byte("DAF/SPK ")):
		src, err := daf.OpenMapped(path)
		if err != nil {
			return nil, err
		}
		k, err := spk.Load(src)
		if err != nil {
			return nil, err
		}
		a.logger.Info("loaded ephemeris kernel", "path", path, "segments", len(k.Summaries()))
		return a.WithSPK(k)
	case bytes.Equal(head[0:8], []byte("DAF/PCK ")):
		src, err := daf.OpenMapped(path)
		if err != nil {
			return nil, err
		}
		k, err := bpc.Load(src)
		if err != nil {
			return nil, err
		}
		a.logger.Info("loaded orientation kernel", "path", path, "segments", len(k.Summaries()))
		return a.WithBPC(k)
	}

	// Not a DAF: try the DER dataset flavors.
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("almanac: %w", err)
	}
	return a.LoadDataSetBytes(path, data)
}

// LoadSPKBytes loads an in-memory ephemeris kernel image.
func (a *Almanac) LoadSPKBytes(data []byte) (*Almanac, error) {
	k, err := spk.Load(daf.NewHeapSource(data))
	if err != nil {
		return nil, err
	}
	return a.WithSPK(k)
}

// LoadBPCBytes loads an in-memory orientation kernel image.
func (a *Almanac) LoadBPCBytes(data []byte) (*Almanac, error) {
	k, err := bpc.Load(daf.NewHeapSource(data))
	if err != nil {
		return nil, err
	}
	return a.WithBPC(k)
}

// LoadDataSetBytes decodes a PCA or EPA image, trying both flavors.
func (a *Almanac) LoadDataSetBytes(name string, data []byte) (*Almanac, error) {
	if pca, err := dataset.DecodePlanetary(data); err == nil {
		a.logger.Info("loaded planetary constants", "source", name, "entries", pca.Len())
		return a.WithPlanetaryData(pca), nil
	}
	epa, err := dataset.DecodeEuler(data)
	if err != nil {
		return nil, fmt.Errorf("almanac: %s is neither a DAF kernel nor a dataset: %w", name, err)
	}
	a.logger.Info("loaded euler parameters", "source", name, "entries", epa.Len())
	return a.WithEulerParameters(epa), nil
}

// NumSPK and NumBPC report the occupied kernel slots.
func (a *Almanac) NumSPK() int { return len(a.spks) }
func (a *Almanac) NumBPC() int { return len(a.bpcs) }

// HasPlanetaryData and HasEulerParameters report dataset presence.
func (a *Almanac) HasPlanetaryData() bool   { return a.planetary != nil }
func (a *Almanac) HasEulerParameters() bool { return a.euler != nil }

// FrameInfo returns the frame annotated with shape and μ from the loaded
// planetary constants, looked up by the frame's ephemeris ID.
func (a *Almanac) FrameInfo(f frames.Frame) (frames.Frame, error) {
	if a.planetary == nil {
		return f, fmt.Errorf("%w: no PCA loaded (frame %v)", ErrFrameNotInPCA, f)
	}
	pd, err := a.planetary.ByID(f.EphemerisID)
	if err != nil {
		return f, fmt.Errorf("%w: %v", ErrFrameNotInPCA, f)
	}
	out := f
	if pd.HasMu {
		out.MuKm3S2 = pd.MuKm3S2
		out.HasMu = true
	}
	if pd.HasShape {
		out.EquatorialRadiusKm = pd.EquatorialRadiusKm
		out.PolarRadiusKm = pd.PolarRadiusKm
		out.SemiMinorRadiusKm = pd.SemiMinorRadiusKm
		out.HasShape = true
	}
	return out, nil
}

// getWorkspace and putWorkspace recycle interpolation buffers.
func (a *Almanac) getWorkspace() *interp.Workspace {
	return a.workspaces.Get().(*interp.Workspace)
}

func (a *Almanac) putWorkspace(ws *interp.Workspace) {
	a.workspaces.Put(ws)
}
