package almanac

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SwitchbackEngineer/anise/daf"
	"github.com/SwitchbackEngineer/anise/daf/daftest"
	"github.com/SwitchbackEngineer/anise/dataset"
	"github.com/SwitchbackEngineer/anise/frames"
	"github.com/SwitchbackEngineer/anise/rotation"
)

const earthSpinRate = 2 * math.Pi / 86164.0905 // sidereal day

// spinningEarthBPC builds a BPC whose IAU_EARTH orientation is a pure spin
// about the inertial pole: RA=-90°, DEC=90° zero the tilt rotations, so
// the rotation reduces to R3(W).
func spinningEarthBPC(t *testing.T, w0 float64) []byte {
	t.Helper()
	payload := []float64{43200, 43200} // mid, radius of one record
	// RA, DEC constant; W linear.
	payload = append(payload, -math.Pi/2, 0)
	payload = append(payload, math.Pi/2, 0)
	payload = append(payload, w0+earthSpinRate*43200, earthSpinRate*43200)
	payload = append(payload, 0, 86400, 8, 1)
	return daftest.Build(daf.KindPCK, binary.LittleEndian, []daftest.Segment{
		{
			Name:    "IAU_EARTH",
			Doubles: [2]float64{0, 86400},
			Ints:    []int32{frames.IAUEarth, frames.J2000, 2},
			Payload: payload,
		},
	})
}

func orientedAlmanac(t *testing.T) *Almanac {
	t.Helper()
	a, err := New(nil).LoadBPCBytes(spinningEarthBPC(t, 0.75))
	require.NoError(t, err)
	return a
}

func TestRotateBodyFixedToInertial(t *testing.T) {
	a := orientedAlmanac(t)
	at := et(43200) // record midpoint: W = 0.75 + rate*43200... s=0 ⇒ W series value

	d, err := a.Rotate(frames.BodyFixed(frames.Earth), frames.Inertial(frames.Earth), at)
	require.NoError(t, err)

	assert.Equal(t, frames.IAUEarth, d.From)
	assert.Equal(t, frames.J2000, d.To)
	require.True(t, d.IsValid(1e-12), "DCM not orthonormal")

	// Inertial<-body is the transpose of the body<-inertial spin.
	w := 0.75 + earthSpinRate*43200
	want := rotation.R3(w, earthSpinRate).Transpose()
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			assert.InDelta(t, want.Rot[i][j], d.Rot[i][j], 1e-12)
		}
	}
	require.NotNil(t, d.Rate)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			assert.InDelta(t, want.Rate[i][j], d.Rate[i][j], 1e-12)
		}
	}
}

func TestRotateRoundTripIsIdentity(t *testing.T) {
	a := orientedAlmanac(t)
	at := et(20000)

	fwd, err := a.Rotate(frames.BodyFixed(frames.Earth), frames.Inertial(frames.Earth), at)
	require.NoError(t, err)
	rev, err := a.Rotate(frames.Inertial(frames.Earth), frames.BodyFixed(frames.Earth), at)
	require.NoError(t, err)

	p := fwd.Mul(rev) // inertial -> body -> inertial: fwd after rev
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			want := 0.0
			if i == j {
				want = 1
			}
			assert.InDelta(t, want, rev.Mul(fwd).Rot[i][j], 1e-12)
			_ = p
		}
	}
}

func TestRotateRequiresOrientationIDs(t *testing.T) {
	a := orientedAlmanac(t)
	_, err := a.Rotate(frames.New(399, frames.Unset), frames.Inertial(frames.Earth), et(0))
	assert.ErrorIs(t, err, ErrUnderspecifiedFrame)
}

func TestRotateOutsideWindow(t *testing.T) {
	a := orientedAlmanac(t)
	_, err := a.Rotate(frames.BodyFixed(frames.Earth), frames.Inertial(frames.Earth), et(90000))
	var nod *NoOrientationDataError
	require.True(t, errors.As(err, &nod), "want NoOrientationDataError, got %v", err)
	assert.Equal(t, frames.IAUEarth, nod.Orient)
}

// moonFrameEPA builds the fixed principal-axes to mean-Earth lunar frame
// rotation as an EPA entry, from the published 67.573″/78.580″/0.285″
// angle triple.
func moonFrameEPA(t *testing.T) *dataset.EulerParameterDataSet {
	t.Helper()
	const asRad = math.Pi / 180 / 3600
	d := rotation.R1(-0.285*asRad, 0).
		Mul(rotation.R2(-78.580*asRad, 0)).
		Mul(rotation.R3(-67.573*asRad, 0))
	q := rotation.FromDCM(d.Rot)
	ds := dataset.NewEulerParameterDataSet()
	require.NoError(t, ds.Add(frames.MoonPA, "MOON_PA_TO_ME", dataset.EulerParameters{
		Q:    q,
		From: frames.MoonPA,
		To:   frames.MoonME,
	}))
	return ds
}

func TestRotateConstantLunarFrames(t *testing.T) {
	a := New(nil).WithEulerParameters(moonFrameEPA(t))

	d, err := a.Rotate(frames.New(frames.Moon, frames.MoonPA), frames.New(frames.Moon, frames.MoonME), et(0))
	require.NoError(t, err)
	require.True(t, d.IsValid(1e-12))

	q := rotation.FromDCM(d.Rot)
	angle, _ := q.AngleAxis()
	const asRad = math.Pi / 180 / 3600
	wantAngle := math.Sqrt(67.573*67.573+78.580*78.580+0.285*0.285) * asRad
	// Small-angle composition: total rotation angle matches the RSS of the
	// published angles to first order (second-order cross terms are below
	// a microradian at these magnitudes).
	assert.InDelta(t, wantAngle, angle, 1e-6)

	// The reverse rotation is the transpose.
	rev, err := a.Rotate(frames.New(frames.Moon, frames.MoonME), frames.New(frames.Moon, frames.MoonPA), et(0))
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			assert.InDelta(t, d.Rot[j][i], rev.Rot[i][j], 1e-14)
		}
	}

	// Constant rotations carry no rate.
	assert.Nil(t, d.Rate)
}

func TestTranslateIntoBodyFixedOrientation(t *testing.T) {
	// Combine ephemeris and orientation: a constant position rotated into
	// the spinning frame must equal R3(W)·p.
	spkImg := daftest.Build(daf.KindSPK, binary.LittleEndian, []daftest.Segment{
		constantSegment("MOON", 301, 399, 0, 86400, rotation.Vec3{384400, 0, 0}),
	})
	a, err := New(nil).LoadSPKBytes(spkImg)
	require.NoError(t, err)
	a, err = a.LoadBPCBytes(spinningEarthBPC(t, 0.75))
	require.NoError(t, err)

	at := et(43200)
	s, err := a.Translate(frames.Inertial(frames.Moon), frames.BodyFixed(frames.Earth), at, AberrationNone)
	require.NoError(t, err)
	assert.Equal(t, frames.IAUEarth, s.Frame.OrientationID)

	w := 0.75 + earthSpinRate*43200
	want := rotation.R3(w, earthSpinRate).Rot.MulVec(rotation.Vec3{384400, 0, 0})
	assertVecNear(t, s.RKm, want, 1e-9)

	// A point fixed in inertial space appears to move in the rotating
	// frame: the transport term contributes ω×r magnitude.
	speed := s.VKmS.Norm()
	assert.InDelta(t, earthSpinRate*384400, speed, 1e-6)
}
