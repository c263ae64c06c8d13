package almanac

import (
	"encoding/binary"
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

func shapedPCA(t *testing.T) *dataset.PlanetaryDataSet {
	t.Helper()
	pca := dataset.NewPlanetaryDataSet()
	require.NoError(t, pca.Add(frames.Sun, "SUN", dataset.PlanetaryData{
		ID: frames.Sun, HasShape: true,
		EquatorialRadiusKm: 696000, PolarRadiusKm: 696000, SemiMinorRadiusKm: 696000,
	}))
	require.NoError(t, pca.Add(frames.Earth, "IAU_EARTH", dataset.PlanetaryData{
		ID: frames.Earth, HasShape: true, HasMu: true, MuKm3S2: 398600.435436096,
		EquatorialRadiusKm: 6378.1366, PolarRadiusKm: 6356.7519, SemiMinorRadiusKm: 6378.1366,
	}))
	require.NoError(t, pca.Add(frames.Moon, "IAU_MOON", dataset.PlanetaryData{
		ID: frames.Moon, HasShape: true,
		EquatorialRadiusKm: 1737.4, PolarRadiusKm: 1737.4, SemiMinorRadiusKm: 1737.4,
	}))
	return pca
}

func TestGroundStationOnEllipsoid(t *testing.T) {
	a := New(nil).WithPlanetaryData(shapedPCA(t))
	f, err := a.FrameInfo(frames.BodyFixed(frames.Earth))
	require.NoError(t, err)

	// Equator, prime meridian, sea level: the equatorial radius.
	gs, err := GroundStation(Geodetic{}, et(0), f)
	require.NoError(t, err)
	assert.InDelta(t, 6378.1366, gs.RangeKm(), 1e-9)

	// North pole: the polar radius.
	gs, err = GroundStation(Geodetic{LatDeg: 90}, et(0), f)
	require.NoError(t, err)
	assert.InDelta(t, 6356.7519, gs.RangeKm(), 1e-6)

	// Altitude adds radially at the equator.
	gs, err = GroundStation(Geodetic{AltKm: 0.035}, et(0), f)
	require.NoError(t, err)
	assert.InDelta(t, 6378.1716, gs.RangeKm(), 1e-9)

	_, err = GroundStation(Geodetic{}, et(0), frames.BodyFixed(frames.Earth))
	assert.Error(t, err, "shapeless frame must be rejected")
}

func TestGeodeticRoundTrip(t *testing.T) {
	a := New(nil).WithPlanetaryData(shapedPCA(t))
	f, err := a.FrameInfo(frames.BodyFixed(frames.Earth))
	require.NoError(t, err)

	for _, g := range []Geodetic{
		{LatDeg: 48.85, LonDeg: 2.35, AltKm: 0.035}, // Paris
		{LatDeg: -89.54, LonDeg: 0, AltKm: 0},
		{LatDeg: 0, LonDeg: 179.9, AltKm: 400},
	} {
		gs, err := GroundStation(g, et(0), f)
		require.NoError(t, err)
		back := cartesianToGeodetic(gs.RKm, f.EquatorialRadiusKm, f.Flattening())
		assert.InDelta(t, g.LatDeg, back.LatDeg, 1e-7)
		assert.InDelta(t, g.LonDeg, back.LonDeg, 1e-7)
		assert.InDelta(t, g.AltKm, back.AltKm, 1e-6)
	}
}

func TestAERDirectlyOverhead(t *testing.T) {
	a := New(nil).WithPlanetaryData(shapedPCA(t))
	f, err := a.FrameInfo(frames.BodyFixed(frames.Earth))
	require.NoError(t, err)

	obs, err := GroundStation(Geodetic{}, et(0), f)
	require.NoError(t, err)
	target := State{
		RKm:   obs.RKm.Add(obs.RKm.Unit().Scale(400)),
		Epoch: et(0),
		Frame: f,
	}

	aer, err := a.AzimuthElevationRange(target, obs, nil)
	require.NoError(t, err)
	assert.InDelta(t, 90, aer.ElevationDeg, 0.1)
	assert.InDelta(t, 400, aer.RangeKm, 1)
	assert.False(t, aer.Obstructed)
}

func TestAERAzimuthDirections(t *testing.T) {
	a := New(nil).WithPlanetaryData(shapedPCA(t))
	f, err := a.FrameInfo(frames.BodyFixed(frames.Earth))
	require.NoError(t, err)

	obs, err := GroundStation(Geodetic{}, et(0), f)
	require.NoError(t, err)

	north, err := GroundStation(Geodetic{LatDeg: 10, AltKm: 400}, et(0), f)
	require.NoError(t, err)
	aer, err := a.AzimuthElevationRange(State{RKm: north.RKm, Epoch: et(0), Frame: f}, obs, nil)
	require.NoError(t, err)
	if aer.AzimuthDeg > 30 && aer.AzimuthDeg < 330 {
		t.Errorf("northward azimuth = %v, want near 0/360", aer.AzimuthDeg)
	}

	east, err := GroundStation(Geodetic{LonDeg: 10, AltKm: 400}, et(0), f)
	require.NoError(t, err)
	aer, err = a.AzimuthElevationRange(State{RKm: east.RKm, Epoch: et(0), Frame: f}, obs, nil)
	require.NoError(t, err)
	assert.InDelta(t, 90, aer.AzimuthDeg, 30)

	// A target below the horizon reports negative elevation.
	far, err := GroundStation(Geodetic{LonDeg: 120, AltKm: 400}, et(0), f)
	require.NoError(t, err)
	aer, err = a.AzimuthElevationRange(State{RKm: far.RKm, Epoch: et(0), Frame: f}, obs, nil)
	require.NoError(t, err)
	assert.Less(t, aer.ElevationDeg, 0.0)
}

func TestLineOfSight(t *testing.T) {
	a := New(nil).WithPlanetaryData(shapedPCA(t))
	earth := frames.Inertial(frames.Earth)

	obs := State{RKm: rotation.Vec3{7000, 0, 0}, Epoch: et(0), Frame: earth}
	behind := State{RKm: rotation.Vec3{-7000, 0, 0}, Epoch: et(0), Frame: earth}
	beside := State{RKm: rotation.Vec3{7000, 100, 0}, Epoch: et(0), Frame: earth}

	blocked, err := a.LineOfSightObstructed(obs, behind, frames.BodyFixed(frames.Earth), et(0))
	require.NoError(t, err)
	assert.True(t, blocked, "segment through the body center must be obstructed")

	blocked, err = a.LineOfSightObstructed(obs, beside, frames.BodyFixed(frames.Earth), et(0))
	require.NoError(t, err)
	assert.False(t, blocked)

	// A grazing path clears the bare ellipsoid but not a buffered one.
	grazeA := State{RKm: rotation.Vec3{7000, -7000, 0}, Epoch: et(0), Frame: earth}
	grazeB := State{RKm: rotation.Vec3{7000, 7000, 0}, Epoch: et(0), Frame: earth}
	blocked, err = a.LineOfSightObstructedBuffered(grazeA, grazeB, frames.BodyFixed(frames.Earth), 0, et(0))
	require.NoError(t, err)
	assert.False(t, blocked)
	blocked, err = a.LineOfSightObstructedBuffered(grazeA, grazeB, frames.BodyFixed(frames.Earth), 1000, et(0))
	require.NoError(t, err)
	assert.True(t, blocked)
}

// eclipseSystem places the Sun along +x and the Moon between the Earth and
// the Sun, with an observer at the Earth's center.
func eclipseSystem(t *testing.T, moonPos rotation.Vec3, moonRadius float64) (*Almanac, State) {
	t.Helper()
	img := daftest.Build(daf.KindSPK, binary.LittleEndian, []daftest.Segment{
		constantSegment("EARTH", 399, 0, 0, 86400, rotation.Vec3{}),
		constantSegment("SUN", 10, 0, 0, 86400, rotation.Vec3{1.496e8, 0, 0}),
		constantSegment("MOON", 301, 0, 0, 86400, moonPos),
	})
	a, err := New(nil).LoadSPKBytes(img)
	require.NoError(t, err)

	pca := shapedPCA(t)
	if moonRadius != 1737.4 {
		pca = dataset.NewPlanetaryDataSet()
		require.NoError(t, pca.Add(frames.Sun, "SUN", dataset.PlanetaryData{
			ID: frames.Sun, HasShape: true,
			EquatorialRadiusKm: 696000, PolarRadiusKm: 696000, SemiMinorRadiusKm: 696000,
		}))
		require.NoError(t, pca.Add(frames.Moon, "IAU_MOON", dataset.PlanetaryData{
			ID: frames.Moon, HasShape: true,
			EquatorialRadiusKm: moonRadius, PolarRadiusKm: moonRadius, SemiMinorRadiusKm: moonRadius,
		}))
	}
	a = a.WithPlanetaryData(pca)

	observer := State{Epoch: et(1000), Frame: frames.Inertial(frames.Earth)}
	return a, observer
}

func TestSolarEclipsingAnnular(t *testing.T) {
	// Moon dead center on the solar disk, apparent radius slightly smaller
	// than the Sun's: annular eclipse, a thin ring stays visible.
	a, observer := eclipseSystem(t, rotation.Vec3{384400, 0, 0}, 1737.4)

	occ, err := a.SolarEclipsing(frames.BodyFixed(frames.Moon), observer, AberrationNone)
	require.NoError(t, err)
	assert.True(t, occ.IsPartial(), "factor = %v", occ.Factor)
	assert.Greater(t, occ.Factor, 0.0)
	assert.Less(t, occ.Factor, 0.12)
}

func TestSolarEclipsingTotal(t *testing.T) {
	// An oversized occulter swallows the solar disk whole.
	a, observer := eclipseSystem(t, rotation.Vec3{384400, 0, 0}, 20000)

	occ, err := a.SolarEclipsing(frames.BodyFixed(frames.Moon), observer, AberrationNone)
	require.NoError(t, err)
	assert.True(t, occ.IsTotal(), "factor = %v", occ.Factor)
}

func TestSolarEclipsingNone(t *testing.T) {
	// Moon far off the Earth-Sun axis: full solar disk visible.
	a, observer := eclipseSystem(t, rotation.Vec3{0, 384400, 0}, 1737.4)

	occ, err := a.SolarEclipsing(frames.BodyFixed(frames.Moon), observer, AberrationNone)
	require.NoError(t, err)
	assert.True(t, occ.IsNone(), "factor = %v", occ.Factor)
}

func TestSolarEclipsingPartial(t *testing.T) {
	// Moon offset by about its own apparent radius: partial overlap.
	offsetY := 384400 * math.Tan(math.Asin(1737.4/384400.0))
	a, observer := eclipseSystem(t, rotation.Vec3{384400, offsetY, 0}, 1737.4)

	occ, err := a.SolarEclipsing(frames.BodyFixed(frames.Moon), observer, AberrationNone)
	require.NoError(t, err)
	assert.True(t, occ.IsPartial(), "factor = %v", occ.Factor)
	assert.Greater(t, occ.Factor, 0.2)
	assert.Less(t, occ.Factor, 1.0)
}
