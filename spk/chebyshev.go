package spk

import (
	"fmt"

	"github.com/SwitchbackEngineer/anise/daf"
	"github.com/SwitchbackEngineer/anise/interp"
	"github.com/SwitchbackEngineer/anise/rotation"
)

// chebDirectory is the four-word trailer of type 2 and 3 segments.
type chebDirectory struct {
	init   float64 // epoch of the first record (TDB s past J2000)
	intlen float64 // record coverage length (s)
	rsize  int     // words per record
	n      int     // record count
}

func readChebDirectory(view *daf.SegmentView) (chebDirectory, error) {
	var tail [4]float64
	if err := view.Doubles(view.Len()-4, tail[:]); err != nil {
		return chebDirectory{}, err
	}
	dir := chebDirectory{
		init:   tail[0],
		intlen: tail[1],
		rsize:  int(tail[2]),
		n:      int(tail[3]),
	}
	if dir.n <= 0 || dir.rsize <= 2 || dir.intlen <= 0 {
		return chebDirectory{}, fmt.Errorf("spk: malformed chebyshev directory (n=%d rsize=%d intlen=%v)", dir.n, dir.rsize, dir.intlen)
	}
	if dir.n*dir.rsize+4 > view.Len() {
		return chebDirectory{}, fmt.Errorf("spk: directory claims %d records of %d words in %d-word segment", dir.n, dir.rsize, view.Len())
	}
	return dir, nil
}

// evalChebyshev handles types 2 and 3. Records hold (mid, radius) then
// coefficient sets per component: 3 sets for type 2, 6 for type 3 (the
// velocity sets are read directly rather than differentiated).
func evalChebyshev(view *daf.SegmentView, et float64, ws *interp.Workspace, hasVelocity bool) (pos, vel rotation.Vec3, err error) {
	dir, err := readChebDirectory(view)
	if err != nil {
		return pos, vel, err
	}

	// Locate the record covering et; the final epoch clamps into the last
	// record rather than indexing past it.
	idx := int((et - dir.init) / dir.intlen)
	if idx < 0 {
		idx = 0
	}
	if idx >= dir.n {
		idx = dir.n - 1
	}

	nsets := 3
	if hasVelocity {
		nsets = 6
	}
	ncoeff := (dir.rsize - 2) / nsets
	if ncoeff < 1 || 2+nsets*ncoeff != dir.rsize {
		return pos, vel, fmt.Errorf("spk: record size %d does not hold %d coefficient sets", dir.rsize, nsets)
	}

	rec := make([]float64, dir.rsize)
	if err := view.Doubles(idx*dir.rsize, rec); err != nil {
		return pos, vel, err
	}
	mid, radius := rec[0], rec[1]
	if radius <= 0 {
		return pos, vel, fmt.Errorf("spk: record %d has non-positive radius %v", idx, radius)
	}
	s := (et - mid) / radius

	for i := 0; i < 3; i++ {
		coeffs := rec[2+i*ncoeff : 2+(i+1)*ncoeff]
		val, dval, err := ws.Chebyshev(coeffs, s)
		if err != nil {
			return pos, vel, err
		}
		pos[i] = val
		if !hasVelocity {
			// Velocity from the position polynomial: d/dt = d/ds / radius.
			vel[i] = dval / radius
		}
	}
	if hasVelocity {
		for i := 0; i < 3; i++ {
			coeffs := rec[2+(3+i)*ncoeff : 2+(4+i)*ncoeff]
			val, _, err := ws.Chebyshev(coeffs, s)
			if err != nil {
				return pos, vel, err
			}
			vel[i] = val
		}
	}
	return pos, vel, nil
}
