// Package spk evaluates SPK ephemeris kernels: timed segments of target
// positions relative to centers, interpolated by Chebyshev polynomials
// (data types 2 and 3) or Lagrange windows over state samples (types 9
// and 13).
//
// An SPK is immutable after Load and safe for concurrent evaluation;
// callers supply a per-goroutine interp.Workspace.
package spk

import (
	"errors"
	"fmt"

	"github.com/SwitchbackEngineer/anise/daf"
	"github.com/SwitchbackEngineer/anise/interp"
	"github.com/SwitchbackEngineer/anise/rotation"
)

var (
	// ErrUnsupportedType reports a segment data type outside {2, 3, 9, 13}.
	ErrUnsupportedType = errors.New("spk: unsupported segment data type")
	// ErrOutsideWindow reports an epoch outside the segment coverage.
	ErrOutsideWindow = errors.New("spk: epoch outside segment window")
)

// Summary field indices within daf.Summary.Ints for SPK kernels.
const (
	ixTarget = 0
	ixCenter = 1
	ixFrame  = 2
)

// SPK is a loaded ephemeris kernel.
type SPK struct {
	d         *daf.DAF
	summaries []daf.Summary
}

// Load opens an SPK over the given source. The source is owned by the
// returned kernel.
func Load(src daf.ByteSource) (*SPK, error) {
	d, err := daf.Open(src)
	if err != nil {
		return nil, err
	}
	if d.Kind() != daf.KindSPK {
		d.Close()
		return nil, fmt.Errorf("spk: kernel kind is %s", d.Kind())
	}
	sums, err := d.Summaries()
	if err != nil {
		d.Close()
		return nil, err
	}
	return &SPK{d: d, summaries: sums}, nil
}

// Close releases the kernel bytes.
func (s *SPK) Close() error { return s.d.Close() }

// Summaries returns the segments in file order. The slice is shared; do not
// mutate.
func (s *SPK) Summaries() []daf.Summary { return s.summaries }

// Target and Center extract the SPK integer components of a summary.
func Target(sum daf.Summary) int32 { return sum.Ints[ixTarget] }
func Center(sum daf.Summary) int32 { return sum.Ints[ixCenter] }

// FrameID returns the inertial frame the segment states are expressed in.
func FrameID(sum daf.Summary) int32 { return sum.Ints[ixFrame] }

// FindSegment returns the first segment in file order for (target, center)
// whose window covers et. Segments within one file never overlap for the
// same pair, so first match is the match.
func (s *SPK) FindSegment(target, center int32, et float64) (daf.Summary, bool) {
	for _, sum := range s.summaries {
		if Target(sum) == target && Center(sum) == center &&
			sum.StartET() <= et && et <= sum.EndET() {
			return sum, true
		}
	}
	return daf.Summary{}, false
}

// HasPair reports whether any segment carries (target, center) regardless
// of epoch.
func (s *SPK) HasPair(target, center int32) bool {
	for _, sum := range s.summaries {
		if Target(sum) == target && Center(sum) == center {
			return true
		}
	}
	return false
}

// Evaluate interpolates the segment at et (TDB seconds past J2000) and
// returns position (km) and velocity (km/s) of the target relative to the
// segment center.
func (s *SPK) Evaluate(sum daf.Summary, et float64, ws *interp.Workspace) (pos, vel rotation.Vec3, err error) {
	if et < sum.StartET() || et > sum.EndET() {
		return pos, vel, fmt.Errorf("%w: %v not in [%v, %v]", ErrOutsideWindow, et, sum.StartET(), sum.EndET())
	}
	view := s.d.Segment(sum)
	switch sum.DataType() {
	case 2:
		return evalChebyshev(view, et, ws, false)
	case 3:
		return evalChebyshev(view, et, ws, true)
	case 9:
		return evalLagrange(view, et, false)
	case 13:
		return evalLagrange(view, et, true)
	}
	return pos, vel, fmt.Errorf("%w: type %d", ErrUnsupportedType, sum.DataType())
}
