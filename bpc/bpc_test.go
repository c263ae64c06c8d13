package bpc_test

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/SwitchbackEngineer/anise/bpc"
	"github.com/SwitchbackEngineer/anise/daf"
	"github.com/SwitchbackEngineer/anise/daf/daftest"
	"github.com/SwitchbackEngineer/anise/interp"
	"github.com/SwitchbackEngineer/anise/rotation"
)

// orientationPayload builds one type 2 record over [t0, t0+intlen] with
// linear angle series: angle_i(t) = base[i] + rate[i]*(t-mid).
func orientationPayload(t0, intlen float64, base, rate [3]float64) []float64 {
	mid := t0 + intlen/2
	radius := intlen / 2
	payload := []float64{mid, radius}
	for i := 0; i < 3; i++ {
		// T0 + T1 series: value base + rate*radius*s.
		payload = append(payload, base[i], rate[i]*radius)
	}
	return append(payload, t0, intlen, 8, 1)
}

func loadBPC(t *testing.T, segs []daftest.Segment) *bpc.BPC {
	t.Helper()
	img := daftest.Build(daf.KindPCK, binary.LittleEndian, segs)
	k, err := bpc.Load(daf.NewHeapSource(img))
	if err != nil {
		t.Fatalf("load bpc: %v", err)
	}
	t.Cleanup(func() { k.Close() })
	return k
}

func TestEvaluateSpinningBody(t *testing.T) {
	// A body with the pole at the inertial pole (RA=-90°, DEC=90° zeroes
	// the two tilt rotations) spinning at a constant rate: the rotation
	// reduces to R3(W).
	const omega = 2 * math.Pi / 86400
	seg := daftest.Segment{
		Name:    "SPIN",
		Doubles: [2]float64{0, 86400},
		Ints:    []int32{3000, 1, 2},
		Payload: orientationPayload(0, 86400, [3]float64{-math.Pi / 2, math.Pi / 2, 0.25}, [3]float64{0, 0, omega}),
	}
	k := loadBPC(t, []daftest.Segment{seg})

	sum, ok := k.FindSegment(3000, 43200)
	if !ok {
		t.Fatal("segment not found")
	}
	var ws interp.Workspace
	d, err := k.Evaluate(sum, 43200, &ws)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	if d.From != 1 || d.To != 3000 {
		t.Errorf("frame ids = %d -> %d, want 1 -> 3000", d.From, d.To)
	}
	if !d.IsValid(1e-12) {
		t.Error("DCM is not a proper rotation")
	}

	w := 0.25 + omega*0 // mid of the record is 43200, so s=0 and W=base
	want := rotation.R3(w, omega)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if math.Abs(d.Rot[i][j]-want.Rot[i][j]) > 1e-12 {
				t.Fatalf("Rot[%d][%d] = %v, want %v", i, j, d.Rot[i][j], want.Rot[i][j])
			}
		}
	}
	if d.Rate == nil {
		t.Fatal("expected a rate matrix")
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if math.Abs(d.Rate[i][j]-want.Rate[i][j]) > 1e-12 {
				t.Fatalf("Rate[%d][%d] = %v, want %v", i, j, d.Rate[i][j], want.Rate[i][j])
			}
		}
	}
}

func TestEvaluateRateFiniteDifference(t *testing.T) {
	// Full 3-1-3 case: rate matrix must match finite differences of the
	// rotation over a small step.
	seg := daftest.Segment{
		Name:    "TILT",
		Doubles: [2]float64{0, 1000},
		Ints:    []int32{3100, 1, 2},
		Payload: orientationPayload(0, 1000, [3]float64{0.3, 1.1, 2.0}, [3]float64{1e-5, -2e-5, 7e-4}),
	}
	k := loadBPC(t, []daftest.Segment{seg})
	sum, _ := k.FindSegment(3100, 500)

	var ws interp.Workspace
	const h = 1e-3
	d0, err := k.Evaluate(sum, 500, &ws)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	dh, err := k.Evaluate(sum, 500+h, &ws)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if d0.Rate == nil {
		t.Fatal("missing rate")
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			fd := (dh.Rot[i][j] - d0.Rot[i][j]) / h
			if math.Abs(fd-d0.Rate[i][j]) > 1e-6 {
				t.Errorf("Rate[%d][%d] = %v, finite diff %v", i, j, d0.Rate[i][j], fd)
			}
		}
	}
}

func TestEvaluateWindowAndType(t *testing.T) {
	seg := daftest.Segment{
		Name:    "WIN",
		Doubles: [2]float64{0, 100},
		Ints:    []int32{3000, 1, 2},
		Payload: orientationPayload(0, 100, [3]float64{0, 0, 0}, [3]float64{0, 0, 0}),
	}
	k := loadBPC(t, []daftest.Segment{seg})
	sum := k.Summaries()[0]

	var ws interp.Workspace
	if _, err := k.Evaluate(sum, 101, &ws); err == nil {
		t.Error("expected window error")
	}
	if _, ok := k.FindSegment(3000, 101); ok {
		t.Error("FindSegment matched outside window")
	}

	sum.Ints[2] = 3 // not type 2
	if _, err := k.Evaluate(sum, 50, &ws); err == nil {
		t.Error("expected unsupported type error")
	}
}

func TestLoadRejectsSPK(t *testing.T) {
	img := daftest.Build(daf.KindSPK, binary.LittleEndian, []daftest.Segment{
		{Name: "X", Doubles: [2]float64{0, 1}, Ints: []int32{399, 3, 1, 2}, Payload: []float64{0}},
	})
	if _, err := bpc.Load(daf.NewHeapSource(img)); err == nil {
		t.Fatal("expected kind mismatch error")
	}
}
