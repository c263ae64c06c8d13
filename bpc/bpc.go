// Package bpc evaluates binary PCK kernels: body orientation segments whose
// type 2 records hold Chebyshev coefficients over the Euler angles
// (RA, DEC, W) of the body pole and prime meridian.
//
// Evaluation returns the direction cosine matrix rotating the base
// (inertial) frame into the body-fixed frame, with its time derivative
// assembled from the interpolated angle rates.
package bpc

import (
	"errors"
	"fmt"
	"math"

	"github.com/SwitchbackEngineer/anise/daf"
	"github.com/SwitchbackEngineer/anise/interp"
	"github.com/SwitchbackEngineer/anise/rotation"
)

var (
	// ErrUnsupportedType reports a segment data type other than 2.
	ErrUnsupportedType = errors.New("bpc: unsupported segment data type")
	// ErrOutsideWindow reports an epoch outside the segment coverage.
	ErrOutsideWindow = errors.New("bpc: epoch outside segment window")
)

// Summary field indices within daf.Summary.Ints for PCK kernels.
const (
	ixTargetOrient = 0
	ixBaseOrient   = 1
)

// BPC is a loaded binary orientation kernel.
type BPC struct {
	d         *daf.DAF
	summaries []daf.Summary
}

// Load opens a BPC over the given source. The source is owned by the
// returned kernel.
func Load(src daf.ByteSource) (*BPC, error) {
	d, err := daf.Open(src)
	if err != nil {
		return nil, err
	}
	if d.Kind() != daf.KindPCK {
		d.Close()
		return nil, fmt.Errorf("bpc: kernel kind is %s", d.Kind())
	}
	sums, err := d.Summaries()
	if err != nil {
		d.Close()
		return nil, err
	}
	return &BPC{d: d, summaries: sums}, nil
}

// Close releases the kernel bytes.
func (b *BPC) Close() error { return b.d.Close() }

// Summaries returns the segments in file order.
func (b *BPC) Summaries() []daf.Summary { return b.summaries }

// TargetOrient and BaseOrient extract the PCK integer components.
func TargetOrient(sum daf.Summary) int32 { return sum.Ints[ixTargetOrient] }
func BaseOrient(sum daf.Summary) int32  { return sum.Ints[ixBaseOrient] }

// FindSegment returns the first segment in file order whose target
// orientation matches and whose window covers et.
func (b *BPC) FindSegment(targetOrient int32, et float64) (daf.Summary, bool) {
	for _, sum := range b.summaries {
		if TargetOrient(sum) == targetOrient && sum.StartET() <= et && et <= sum.EndET() {
			return sum, true
		}
	}
	return daf.Summary{}, false
}

// HasOrient reports whether any segment targets the given orientation ID.
func (b *BPC) HasOrient(targetOrient int32) bool {
	for _, sum := range b.summaries {
		if TargetOrient(sum) == targetOrient {
			return true
		}
	}
	return false
}

// Evaluate interpolates the orientation segment at et and returns the DCM
// rotating the base frame into the target body-fixed frame, rate included.
func (b *BPC) Evaluate(sum daf.Summary, et float64, ws *interp.Workspace) (rotation.DCM, error) {
	if et < sum.StartET() || et > sum.EndET() {
		return rotation.DCM{}, fmt.Errorf("%w: %v not in [%v, %v]", ErrOutsideWindow, et, sum.StartET(), sum.EndET())
	}
	if sum.DataType() != 2 {
		return rotation.DCM{}, fmt.Errorf("%w: type %d", ErrUnsupportedType, sum.DataType())
	}

	view := b.d.Segment(sum)
	var tail [4]float64
	if err := view.Doubles(view.Len()-4, tail[:]); err != nil {
		return rotation.DCM{}, err
	}
	init, intlen, rsize, n := tail[0], tail[1], int(tail[2]), int(tail[3])
	if n <= 0 || rsize <= 2 || intlen <= 0 || n*rsize+4 > view.Len() {
		return rotation.DCM{}, fmt.Errorf("bpc: malformed directory (n=%d rsize=%d intlen=%v)", n, rsize, intlen)
	}

	idx := int((et - init) / intlen)
	if idx < 0 {
		idx = 0
	}
	if idx >= n {
		idx = n - 1
	}

	ncoeff := (rsize - 2) / 3
	if ncoeff < 1 || 2+3*ncoeff != rsize {
		return rotation.DCM{}, fmt.Errorf("bpc: record size %d does not hold 3 angle sets", rsize)
	}

	rec := make([]float64, rsize)
	if err := view.Doubles(idx*rsize, rec); err != nil {
		return rotation.DCM{}, err
	}
	mid, radius := rec[0], rec[1]
	if radius <= 0 {
		return rotation.DCM{}, fmt.Errorf("bpc: record %d has non-positive radius %v", idx, radius)
	}
	s := (et - mid) / radius

	// Interpolate the three Euler angles and their rates (rad, rad/s).
	var angles, rates [3]float64
	for i := 0; i < 3; i++ {
		coeffs := rec[2+i*ncoeff : 2+(i+1)*ncoeff]
		val, dval, err := ws.Chebyshev(coeffs, s)
		if err != nil {
			return rotation.DCM{}, err
		}
		angles[i] = val
		rates[i] = dval / radius
	}

	d := eulerDCM(angles, rates)
	d.From = BaseOrient(sum)
	d.To = TargetOrient(sum)
	return d, nil
}

// eulerDCM assembles the inertial-to-body rotation from pole right
// ascension, declination and prime meridian angle, the NAIF 3-1-3 sequence:
//
//	R = R3(W) · R1(π/2 − DEC) · R3(π/2 + RA)
func eulerDCM(angles, rates [3]float64) rotation.DCM {
	ra, dec, w := angles[0], angles[1], angles[2]
	return rotation.R3(w, rates[2]).
		Mul(rotation.R1(math.Pi/2-dec, -rates[1])).
		Mul(rotation.R3(math.Pi/2+ra, rates[0]))
}
