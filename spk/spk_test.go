package spk_test

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/SwitchbackEngineer/anise/daf"
	"github.com/SwitchbackEngineer/anise/daf/daftest"
	"github.com/SwitchbackEngineer/anise/interp"
	"github.com/SwitchbackEngineer/anise/spk"
)

// chebyshevType2Payload builds nrec records covering [t0, t0+nrec*intlen)
// whose per-axis series are given by coeffs (same for each record, axis k
// scaled by k+1). Returns the payload including the 4-word trailer.
func chebyshevType2Payload(t0, intlen float64, nrec int, coeffs []float64) []float64 {
	rsize := 2 + 3*len(coeffs)
	var payload []float64
	for i := 0; i < nrec; i++ {
		mid := t0 + (float64(i)+0.5)*intlen
		payload = append(payload, mid, intlen/2)
		for axis := 0; axis < 3; axis++ {
			for _, c := range coeffs {
				payload = append(payload, c*float64(axis+1))
			}
		}
	}
	return append(payload, t0, intlen, float64(rsize), float64(nrec))
}

// lagrangePayload builds a type 9/13 payload sampling pos(t) and vel(t).
func lagrangePayload(epochs []float64, degree int, pos, vel func(t float64, axis int) float64) []float64 {
	n := len(epochs)
	var payload []float64
	for _, t := range epochs {
		for axis := 0; axis < 3; axis++ {
			payload = append(payload, pos(t, axis))
		}
		for axis := 0; axis < 3; axis++ {
			payload = append(payload, vel(t, axis))
		}
	}
	payload = append(payload, epochs...)
	return append(payload, float64(degree), float64(n))
}

func loadSPK(t *testing.T, segs []daftest.Segment) *spk.SPK {
	t.Helper()
	img := daftest.Build(daf.KindSPK, binary.LittleEndian, segs)
	k, err := spk.Load(daf.NewHeapSource(img))
	if err != nil {
		t.Fatalf("load spk: %v", err)
	}
	t.Cleanup(func() { k.Close() })
	return k
}

func TestType2LinearSeries(t *testing.T) {
	// f_axis(s) = 10*(axis+1) + 4*(axis+1)*s over each record.
	const t0, intlen = 1000.0, 100.0
	seg := daftest.Segment{
		Name:    "TYPE2",
		Doubles: [2]float64{t0, t0 + 4*intlen},
		Ints:    []int32{301, 3, 1, 2},
		Payload: chebyshevType2Payload(t0, intlen, 4, []float64{10, 4}),
	}
	k := loadSPK(t, []daftest.Segment{seg})

	sum, ok := k.FindSegment(301, 3, 1120)
	if !ok {
		t.Fatal("segment not found")
	}
	var ws interp.Workspace
	pos, vel, err := k.Evaluate(sum, 1120, &ws)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	// Record 1 covers [1100, 1200): mid 1150, radius 50, s = (1120-1150)/50.
	s := (1120.0 - 1150.0) / 50.0
	for axis := 0; axis < 3; axis++ {
		scale := float64(axis + 1)
		wantPos := 10*scale + 4*scale*s
		wantVel := 4 * scale / 50.0
		if math.Abs(pos[axis]-wantPos) > 1e-13 {
			t.Errorf("pos[%d] = %v, want %v", axis, pos[axis], wantPos)
		}
		if math.Abs(vel[axis]-wantVel) > 1e-15 {
			t.Errorf("vel[%d] = %v, want %v", axis, vel[axis], wantVel)
		}
	}
}

func TestType2RecordBoundaryContinuity(t *testing.T) {
	// Constant series (linear coefficient zero) shared by all records:
	// position is discontinuous at record boundaries only if the producer
	// made it so; here adjacent records agree at the seam by construction...
	// the evaluator must pick consistent records on both sides.
	const t0, intlen = 0.0, 10.0
	seg := daftest.Segment{
		Name:    "SEAM",
		Doubles: [2]float64{t0, 40},
		Ints:    []int32{399, 3, 1, 2},
		Payload: chebyshevType2Payload(t0, intlen, 4, []float64{7, 0}),
	}
	k := loadSPK(t, []daftest.Segment{seg})
	sum, _ := k.FindSegment(399, 3, 0)

	var ws interp.Workspace
	eps := 1e-9
	for _, seam := range []float64{10, 20, 30} {
		lo, _, err := k.Evaluate(sum, seam-eps, &ws)
		if err != nil {
			t.Fatalf("evaluate below seam: %v", err)
		}
		hi, _, err := k.Evaluate(sum, seam+eps, &ws)
		if err != nil {
			t.Fatalf("evaluate above seam: %v", err)
		}
		for axis := 0; axis < 3; axis++ {
			if math.Abs(lo[axis]-hi[axis]) > 1e-8 {
				t.Errorf("seam %v axis %d: %v vs %v", seam, axis, lo[axis], hi[axis])
			}
		}
	}

	// The exact final epoch clamps into the last record.
	if _, _, err := k.Evaluate(sum, 40, &ws); err != nil {
		t.Errorf("final epoch rejected: %v", err)
	}
}

func TestType3VelocityReadDirectly(t *testing.T) {
	// Type 3 records: 6 coefficient sets; velocity sets carry a constant
	// that an honest type 2 derivative would never produce.
	const t0, intlen = 0.0, 50.0
	rsize := 2 + 6*2
	mid, radius := 25.0, 25.0
	payload := []float64{mid, radius}
	for set := 0; set < 6; set++ {
		if set < 3 {
			payload = append(payload, 100, 2) // position: 100 + 2s
		} else {
			payload = append(payload, -5, 0) // velocity: constant -5
		}
	}
	payload = append(payload, t0, intlen, float64(rsize), 1)

	seg := daftest.Segment{
		Name:    "TYPE3",
		Doubles: [2]float64{0, 50},
		Ints:    []int32{4, 0, 1, 3},
		Payload: payload,
	}
	k := loadSPK(t, []daftest.Segment{seg})
	sum, _ := k.FindSegment(4, 0, 30)

	var ws interp.Workspace
	pos, vel, err := k.Evaluate(sum, 30, &ws)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	s := (30.0 - mid) / radius
	for axis := 0; axis < 3; axis++ {
		if math.Abs(pos[axis]-(100+2*s)) > 1e-13 {
			t.Errorf("pos[%d] = %v", axis, pos[axis])
		}
		if math.Abs(vel[axis]-(-5)) > 1e-13 {
			t.Errorf("vel[%d] = %v, want -5", axis, vel[axis])
		}
	}
}

func cubicPos(t float64, axis int) float64 {
	a := float64(axis + 1)
	return a * (0.001*t*t*t - 0.2*t*t + 3*t - 7)
}

func cubicVel(t float64, axis int) float64 {
	a := float64(axis + 1)
	return a * (0.003*t*t - 0.4*t + 3)
}

func TestType9ReproducesCubic(t *testing.T) {
	epochs := make([]float64, 12)
	for i := range epochs {
		epochs[i] = float64(i) * 5 // uniform spacing
	}
	seg := daftest.Segment{
		Name:    "TYPE9",
		Doubles: [2]float64{0, 55},
		Ints:    []int32{301, 3, 1, 9},
		Payload: lagrangePayload(epochs, 3, cubicPos, cubicVel),
	}
	k := loadSPK(t, []daftest.Segment{seg})
	sum, _ := k.FindSegment(301, 3, 0)

	var ws interp.Workspace
	for _, et := range []float64{0, 2.5, 17.3, 41.9, 55} {
		pos, vel, err := k.Evaluate(sum, et, &ws)
		if err != nil {
			t.Fatalf("evaluate at %v: %v", et, err)
		}
		for axis := 0; axis < 3; axis++ {
			if math.Abs(pos[axis]-cubicPos(et, axis)) > 1e-9 {
				t.Errorf("t=%v pos[%d] = %v, want %v", et, axis, pos[axis], cubicPos(et, axis))
			}
			if math.Abs(vel[axis]-cubicVel(et, axis)) > 1e-9 {
				t.Errorf("t=%v vel[%d] = %v, want %v", et, axis, vel[axis], cubicVel(et, axis))
			}
		}
	}
}

func TestType13IrregularGrid(t *testing.T) {
	epochs := []float64{0, 1, 3, 7, 12, 20, 33, 50}
	seg := daftest.Segment{
		Name:    "TYPE13",
		Doubles: [2]float64{0, 50},
		Ints:    []int32{-85, 399, 1, 13},
		Payload: lagrangePayload(epochs, 3, cubicPos, cubicVel),
	}
	k := loadSPK(t, []daftest.Segment{seg})
	sum, _ := k.FindSegment(-85, 399, 0)

	var ws interp.Workspace
	for _, et := range []float64{0.5, 5, 26, 49.5} {
		pos, vel, err := k.Evaluate(sum, et, &ws)
		if err != nil {
			t.Fatalf("evaluate at %v: %v", et, err)
		}
		for axis := 0; axis < 3; axis++ {
			if math.Abs(pos[axis]-cubicPos(et, axis)) > 1e-8 {
				t.Errorf("t=%v pos[%d] = %v, want %v", et, axis, pos[axis], cubicPos(et, axis))
			}
			if math.Abs(vel[axis]-cubicVel(et, axis)) > 1e-8 {
				t.Errorf("t=%v vel[%d] = %v, want %v", et, axis, vel[axis], cubicVel(et, axis))
			}
		}
	}
}

func TestEvaluateOutsideWindow(t *testing.T) {
	seg := daftest.Segment{
		Name:    "WIN",
		Doubles: [2]float64{0, 40},
		Ints:    []int32{399, 3, 1, 2},
		Payload: chebyshevType2Payload(0, 10, 4, []float64{1}),
	}
	k := loadSPK(t, []daftest.Segment{seg})
	sum, _ := k.FindSegment(399, 3, 0)

	var ws interp.Workspace
	if _, _, err := k.Evaluate(sum, 41, &ws); err == nil {
		t.Error("expected window error past the end")
	}
	if _, ok := k.FindSegment(399, 3, 41); ok {
		t.Error("FindSegment matched outside the window")
	}
	if _, ok := k.FindSegment(399, 5, 10); ok {
		t.Error("FindSegment matched wrong center")
	}
}

func TestUnsupportedType(t *testing.T) {
	seg := daftest.Segment{
		Name:    "T8",
		Doubles: [2]float64{0, 10},
		Ints:    []int32{399, 3, 1, 8},
		Payload: []float64{0, 0, 0, 0},
	}
	k := loadSPK(t, []daftest.Segment{seg})
	sum := k.Summaries()[0]
	var ws interp.Workspace
	_, _, err := k.Evaluate(sum, 5, &ws)
	if err == nil {
		t.Fatal("expected unsupported type error")
	}
}

func TestLoadRejectsPCK(t *testing.T) {
	img := daftest.Build(daf.KindPCK, binary.LittleEndian, []daftest.Segment{
		{Name: "X", Doubles: [2]float64{0, 1}, Ints: []int32{3000, 1, 2}, Payload: []float64{0}},
	})
	if _, err := spk.Load(daf.NewHeapSource(img)); err == nil {
		t.Fatal("expected kind mismatch error")
	}
}
