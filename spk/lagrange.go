package spk

import (
	"fmt"

	"github.com/SwitchbackEngineer/anise/daf"
	"github.com/SwitchbackEngineer/anise/interp"
	"github.com/SwitchbackEngineer/anise/rotation"
)

// stateWords is the width of one (x, y, z, vx, vy, vz) sample.
const stateWords = 6

// lagrangeDirectory is the trailer of type 9 and 13 segments: the segment
// ends with the epoch table, an epoch directory (every 100th epoch, absent
// below 100 records), then the polynomial degree and the record count.
type lagrangeDirectory struct {
	degree int
	n      int
}

func readLagrangeDirectory(view *daf.SegmentView) (lagrangeDirectory, error) {
	var tail [2]float64
	if err := view.Doubles(view.Len()-2, tail[:]); err != nil {
		return lagrangeDirectory{}, err
	}
	dir := lagrangeDirectory{degree: int(tail[0]), n: int(tail[1])}
	if dir.n < 2 || dir.degree < 1 {
		return lagrangeDirectory{}, fmt.Errorf("spk: malformed lagrange directory (degree=%d n=%d)", dir.degree, dir.n)
	}
	want := stateWords*dir.n + dir.n + (dir.n-1)/100 + 2
	if want != view.Len() {
		return lagrangeDirectory{}, fmt.Errorf("spk: %d-word segment does not hold %d samples (want %d)", view.Len(), dir.n, want)
	}
	return dir, nil
}

// evalLagrange handles types 9 (uniform epochs) and 13 (irregular epochs).
// A window of degree+1 samples centered on et is interpolated per
// component; velocity samples are interpolated independently of position.
func evalLagrange(view *daf.SegmentView, et float64, unequal bool) (pos, vel rotation.Vec3, err error) {
	dir, err := readLagrangeDirectory(view)
	if err != nil {
		return pos, vel, err
	}
	winSize := dir.degree + 1
	if winSize > dir.n {
		winSize = dir.n
	}
	if winSize > interp.MaxLagrangeWindow {
		return pos, vel, fmt.Errorf("spk: window %d exceeds interpolation bound", winSize)
	}

	epochs := make([]float64, dir.n)
	if err := view.Doubles(stateWords*dir.n, epochs); err != nil {
		return pos, vel, err
	}

	var first int
	if unequal {
		first = interp.WindowUnequal(epochs, winSize, et)
	} else {
		step := (epochs[dir.n-1] - epochs[0]) / float64(dir.n-1)
		first = interp.WindowEqual(epochs[0], step, dir.n, winSize, et)
	}

	states := make([]float64, winSize*stateWords)
	if err := view.Doubles(first*stateWords, states); err != nil {
		return pos, vel, err
	}
	xs := epochs[first : first+winSize]

	var ys [interp.MaxLagrangeWindow]float64
	for comp := 0; comp < stateWords; comp++ {
		for k := 0; k < winSize; k++ {
			ys[k] = states[k*stateWords+comp]
		}
		val, _, err := interp.Lagrange(xs, ys[:winSize], et)
		if err != nil {
			return pos, vel, err
		}
		if comp < 3 {
			pos[comp] = val
		} else {
			vel[comp-3] = val
		}
	}
	return pos, vel, nil
}
