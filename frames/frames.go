// Package frames defines the reference frame model: a frame is the pair of
// an ephemeris center ID and an orientation ID, optionally annotated with
// the body shape and gravitational parameter out of a planetary constants
// set.
//
// ID conventions follow NAIF: ephemeris IDs are barycenters 0..9, bodies
// as planet*100+99 (Earth 399), moons as planet*100+n (Moon 301),
// spacecraft negative. Orientation ID 1 is the canonical inertial root
// (J2000/ICRF); body-fixed IAU orientations reuse the body's ephemeris ID.
package frames

import "fmt"

// Unset is the sentinel for an unspecified frame component: translation
// queries ignore the orientation, rotation queries ignore the center.
const Unset int32 = 0

// Well-known ephemeris IDs.
const (
	SSB                 int32 = 0 // solar system barycenter
	MercuryBarycenter   int32 = 1
	VenusBarycenter     int32 = 2
	EarthMoonBarycenter int32 = 3
	MarsBarycenter      int32 = 4
	JupiterBarycenter   int32 = 5
	SaturnBarycenter    int32 = 6
	UranusBarycenter    int32 = 7
	NeptuneBarycenter   int32 = 8
	PlutoBarycenter     int32 = 9
	Sun                 int32 = 10
	Moon                int32 = 301
	Venus               int32 = 299
	Earth               int32 = 399
	Mars                int32 = 499
	Jupiter             int32 = 599
)

// Well-known orientation IDs.
const (
	J2000      int32 = 1 // inertial root, alias ICRF
	ICRF       int32 = 1
	ITRF93     int32 = 3000
	IAUMoon    int32 = 301
	IAUEarth   int32 = 399
	IAUMars    int32 = 499
	IAUJupiter int32 = 599
	// Lunar principal-axes and mean-Earth orientation frames.
	MoonPA int32 = 31008
	MoonME int32 = 31009
)

// Frame is an ephemeris center paired with an orientation.
type Frame struct {
	EphemerisID   int32
	OrientationID int32

	// Shape and gravity, populated by the Almanac from the PCA; zero when
	// unknown.
	MuKm3S2            float64
	EquatorialRadiusKm float64
	PolarRadiusKm      float64
	SemiMinorRadiusKm  float64
	HasMu              bool
	HasShape           bool
}

// New returns a bare frame with no shape information.
func New(ephemID, orientID int32) Frame {
	return Frame{EphemerisID: ephemID, OrientationID: orientID}
}

// Inertial returns the J2000-oriented frame centered at the given body.
func Inertial(ephemID int32) Frame { return New(ephemID, J2000) }

// BodyFixed returns the IAU body-fixed frame of the given body, using the
// convention that the IAU orientation ID equals the ephemeris ID.
func BodyFixed(ephemID int32) Frame { return New(ephemID, ephemID) }

// EphemSet and OrientSet report whether each component is specified.
func (f Frame) EphemSet() bool  { return f.EphemerisID != Unset }
func (f Frame) OrientSet() bool { return f.OrientationID != Unset }

// FullySpecified reports whether both components are set; rotations demand
// this.
func (f Frame) FullySpecified() bool { return f.EphemSet() && f.OrientSet() }

// EphemEquals and OrientEquals compare single components.
func (f Frame) EphemEquals(o Frame) bool  { return f.EphemerisID == o.EphemerisID }
func (f Frame) OrientEquals(o Frame) bool { return f.OrientationID == o.OrientationID }

// Equals compares both IDs, ignoring shape annotations.
func (f Frame) Equals(o Frame) bool { return f.EphemEquals(o) && f.OrientEquals(o) }

// Flattening returns the polar flattening of the attached shape.
func (f Frame) Flattening() float64 {
	if !f.HasShape || f.EquatorialRadiusKm == 0 {
		return 0
	}
	return (f.EquatorialRadiusKm - f.PolarRadiusKm) / f.EquatorialRadiusKm
}

// MeanRadiusKm returns the mean of the three shape axes.
func (f Frame) MeanRadiusKm() float64 {
	return (f.EquatorialRadiusKm + f.SemiMinorRadiusKm + f.PolarRadiusKm) / 3
}

func (f Frame) String() string {
	return fmt.Sprintf("frame(ephem=%d, orient=%d)", f.EphemerisID, f.OrientationID)
}
