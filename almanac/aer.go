package almanac

import (
	"fmt"
	"math"

	"github.com/SwitchbackEngineer/anise/epoch"
	"github.com/SwitchbackEngineer/anise/frames"
	"github.com/SwitchbackEngineer/anise/rotation"
)

func frameInertial(ephemID int32) frames.Frame { return frames.New(ephemID, frames.J2000) }

// AER is the azimuth/elevation/range of a target from an observer.
// Azimuth is measured clockwise from local north, elevation above the
// local horizontal.
type AER struct {
	AzimuthDeg   float64
	ElevationDeg float64
	RangeKm      float64
	RangeRateKmS float64
	// Obstructed is set when an obstruction body was supplied and blocks
	// the line of sight.
	Obstructed bool
}

// Geodetic is a position on a body's reference ellipsoid.
type Geodetic struct {
	LatDeg float64
	LonDeg float64
	AltKm  float64
}

const degPerRad = 180 / math.Pi

// GroundStation builds the body-fixed state of a point fixed on the
// ellipsoid of the given body-fixed frame. The frame must carry shape data
// (see FrameInfo).
func GroundStation(g Geodetic, at epoch.Epoch, frame frames.Frame) (State, error) {
	if !frame.HasShape {
		return State{}, fmt.Errorf("%w: ground station needs a shaped frame", ErrFrameNotInPCA)
	}
	lat := g.LatDeg / degPerRad
	lon := g.LonDeg / degPerRad
	sinLat, cosLat := math.Sincos(lat)
	sinLon, cosLon := math.Sincos(lon)

	ae := frame.EquatorialRadiusKm
	f := frame.Flattening()
	e2 := f * (2 - f)
	// Radius of curvature in the prime vertical.
	n := ae / math.Sqrt(1-e2*sinLat*sinLat)

	r := rotation.Vec3{
		(n + g.AltKm) * cosLat * cosLon,
		(n + g.AltKm) * cosLat * sinLon,
		(n*(1-e2) + g.AltKm) * sinLat,
	}
	return State{RKm: r, Epoch: at, Frame: frame}, nil
}

// cartesianToGeodetic inverts the ellipsoid mapping by Bowring iteration;
// 5 rounds converge beyond double precision for any bound orbit geometry.
func cartesianToGeodetic(r rotation.Vec3, ae, flattening float64) Geodetic {
	e2 := flattening * (2 - flattening)
	lon := math.Atan2(r[1], r[0])
	p := math.Hypot(r[0], r[1])

	lat := math.Atan2(r[2], p*(1-e2))
	for i := 0; i < 5; i++ {
		sinLat := math.Sin(lat)
		n := ae / math.Sqrt(1-e2*sinLat*sinLat)
		lat = math.Atan2(r[2]+e2*n*sinLat, p)
	}

	sinLat, cosLat := math.Sincos(lat)
	n := ae / math.Sqrt(1-e2*sinLat*sinLat)
	var alt float64
	if math.Abs(cosLat) > 1e-10 {
		alt = p/cosLat - n
	} else {
		alt = math.Abs(r[2])/math.Abs(sinLat) - n*(1-e2)
	}
	return Geodetic{LatDeg: lat * degPerRad, LonDeg: lon * degPerRad, AltKm: alt}
}

// AzimuthElevationRange computes the look angles from observer to target.
// Both states are first transformed into the observer's frame, which must
// be a body-fixed frame with shape data so the observer's geodetic
// position defines the local horizon. An optional obstructing body is
// checked for line-of-sight blockage.
//
// The SEZ (south-east-zenith) topocentric rotation follows Vallado §4.4.
func (a *Almanac) AzimuthElevationRange(target, observer State, obstructer *frames.Frame) (AER, error) {
	obsFrame, err := a.FrameInfo(observer.Frame)
	if err != nil {
		return AER{}, err
	}
	if !obsFrame.FullySpecified() {
		return AER{}, fmt.Errorf("%w: observer frame %v", ErrUnderspecifiedFrame, observer.Frame)
	}

	tgt, err := a.Transform(target, obsFrame, AberrationNone)
	if err != nil {
		return AER{}, err
	}

	// Range vector in the body-fixed frame.
	rho := tgt.RKm.Sub(observer.RKm)
	rhoDot := tgt.VKmS.Sub(observer.VKmS)
	rng := rho.Norm()
	if rng == 0 {
		return AER{}, fmt.Errorf("almanac: observer and target coincide")
	}

	geo := cartesianToGeodetic(observer.RKm, obsFrame.EquatorialRadiusKm, obsFrame.Flattening())
	sinLat, cosLat := math.Sincos(geo.LatDeg / degPerRad)
	sinLon, cosLon := math.Sincos(geo.LonDeg / degPerRad)

	// Rotate the range vector into SEZ.
	south := sinLat*cosLon*rho[0] + sinLat*sinLon*rho[1] - cosLat*rho[2]
	east := -sinLon*rho[0] + cosLon*rho[1]
	zenith := cosLat*cosLon*rho[0] + cosLat*sinLon*rho[1] + sinLat*rho[2]

	el := math.Asin(zenith / rng)
	az := math.Atan2(east, -south)
	if az < 0 {
		az += 2 * math.Pi
	}

	out := AER{
		AzimuthDeg:   az * degPerRad,
		ElevationDeg: el * degPerRad,
		RangeKm:      rng,
		RangeRateKmS: rho.Dot(rhoDot) / rng,
	}

	if obstructer != nil {
		blocked, err := a.LineOfSightObstructed(observer, tgt, *obstructer, observer.Epoch)
		if err != nil {
			return AER{}, err
		}
		out.Obstructed = blocked
	}
	return out, nil
}
