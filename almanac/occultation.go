package almanac

import (
	"fmt"
	"math"

	"github.com/SwitchbackEngineer/anise/epoch"
	"github.com/SwitchbackEngineer/anise/frames"
)

// Occultation is the result of a shadow computation. Factor is the visible
// fraction of the occultee's disk: 0 for a total occultation, 1 for an
// unobstructed view.
type Occultation struct {
	Factor   float64
	Occulter frames.Frame
	Occultee frames.Frame
	Epoch    epoch.Epoch
}

// IsTotal, IsNone and IsPartial classify the factor.
func (o Occultation) IsTotal() bool   { return o.Factor <= 0 }
func (o Occultation) IsNone() bool    { return o.Factor >= 1 }
func (o Occultation) IsPartial() bool { return !o.IsTotal() && !o.IsNone() }

// bodyRadius returns the mean radius of the frame's body from the PCA.
func (a *Almanac) bodyRadius(f frames.Frame) (float64, error) {
	info, err := a.FrameInfo(f)
	if err != nil {
		return 0, err
	}
	if !info.HasShape {
		return 0, fmt.Errorf("%w: %v has no shape", ErrFrameNotInPCA, f)
	}
	return info.MeanRadiusKm(), nil
}

// occultationFromObserver runs the spherical-body shadow model: apparent
// radii of occulter and occultee from the observer, and the overlap of the
// two disks.
func occultationFromObserver(rOcculter, rOccultee State, radiusOcculter, radiusOccultee float64) float64 {
	dOcculter := rOcculter.RangeKm()
	dOccultee := rOccultee.RangeKm()

	// Observer inside the occulter: nothing is visible.
	if dOcculter <= radiusOcculter {
		return 0
	}
	// Occultee closer than the occulter cannot be hidden by it.
	if dOccultee < dOcculter {
		return 1
	}

	appOcculter := math.Asin(radiusOcculter / dOcculter)
	appOccultee := math.Asin(math.Min(1, radiusOccultee/dOccultee))

	// Angular separation between the two body centers.
	cosSep := rOcculter.RKm.Unit().Dot(rOccultee.RKm.Unit())
	sep := math.Acos(math.Max(-1, math.Min(1, cosSep)))

	switch {
	case sep >= appOcculter+appOccultee:
		return 1
	case sep <= appOcculter-appOccultee:
		// Occultee disk entirely behind the occulter disk.
		return 0
	case sep <= appOccultee-appOcculter:
		// Annular: the occulter sits inside the occultee's disk.
		hidden := (appOcculter * appOcculter) / (appOccultee * appOccultee)
		return 1 - hidden
	}

	// Partial overlap: circular lens area of two disks with angular radii
	// r1, r2 separated by sep.
	r1, r2 := appOcculter, appOccultee
	d := sep
	d1 := (d*d - r1*r1 + r2*r2) / (2 * d)
	d2 := d - d1
	area := r2*r2*math.Acos(d1/r2) - d1*math.Sqrt(r2*r2-d1*d1) +
		r1*r1*math.Acos(d2/r1) - d2*math.Sqrt(r1*r1-d2*d2)
	occulteeArea := math.Pi * r2 * r2
	factor := 1 - area/occulteeArea
	return math.Max(0, math.Min(1, factor))
}

// SolarEclipsing computes the solar occultation seen from a spacecraft (or
// any state): how much of the solar disk the eclipsing body hides.
func (a *Almanac) SolarEclipsing(eclipsing frames.Frame, observer State, ab Aberration) (Occultation, error) {
	radiusOcculter, err := a.bodyRadius(eclipsing)
	if err != nil {
		return Occultation{}, err
	}
	sunFrame := frames.Inertial(frames.Sun)
	radiusSun, err := a.bodyRadius(sunFrame)
	if err != nil {
		return Occultation{}, err
	}

	// Both bodies as seen from the observer, inertially.
	obsInertial, err := a.Transform(observer, frames.Inertial(frames.SSB), ab)
	if err != nil {
		return Occultation{}, err
	}
	occulter, err := a.translateCorrected(eclipsing.EphemerisID, frames.SSB, observer.Epoch, ab)
	if err != nil {
		return Occultation{}, err
	}
	sun, err := a.translateCorrected(frames.Sun, frames.SSB, observer.Epoch, ab)
	if err != nil {
		return Occultation{}, err
	}

	relOcculter := State{RKm: occulter.RKm.Sub(obsInertial.RKm), Epoch: observer.Epoch}
	relSun := State{RKm: sun.RKm.Sub(obsInertial.RKm), Epoch: observer.Epoch}

	return Occultation{
		Factor:   occultationFromObserver(relOcculter, relSun, radiusOcculter, radiusSun),
		Occulter: eclipsing,
		Occultee: sunFrame,
		Epoch:    observer.Epoch,
	}, nil
}

// LineOfSightObstructed reports whether the segment between the observer
// and target states is blocked by the given body's sphere (mean radius).
// Both states may be in any frames; they are transformed to the occulting
// body's center first.
func (a *Almanac) LineOfSightObstructed(observer, target State, occulter frames.Frame, at epoch.Epoch) (bool, error) {
	return a.LineOfSightObstructedBuffered(observer, target, occulter, 0, at)
}

// LineOfSightObstructedBuffered is LineOfSightObstructed with an altitude
// buffer added to the occulting body's radius, for grazing-path margins
// (e.g. atmospheric refraction or terrain clearance).
func (a *Almanac) LineOfSightObstructedBuffered(observer, target State, occulter frames.Frame, bufferKm float64, at epoch.Epoch) (bool, error) {
	radius, err := a.bodyRadius(occulter)
	if err != nil {
		return false, err
	}
	radius += bufferKm
	center := frames.Inertial(occulter.EphemerisID)
	obs, err := a.Transform(observer, center, AberrationNone)
	if err != nil {
		return false, err
	}
	tgt, err := a.Transform(target, center, AberrationNone)
	if err != nil {
		return false, err
	}

	// Closest approach of the segment obs->tgt to the body center.
	d := tgt.RKm.Sub(obs.RKm)
	segLen2 := d.Dot(d)
	if segLen2 == 0 {
		return obs.RangeKm() < radius, nil
	}
	t := -obs.RKm.Dot(d) / segLen2
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	closest := obs.RKm.Add(d.Scale(t))
	return closest.Norm() < radius, nil
}
