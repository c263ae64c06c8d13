package almanac

import (
	"fmt"

	"github.com/SwitchbackEngineer/anise/epoch"
	"github.com/SwitchbackEngineer/anise/frames"
	"github.com/SwitchbackEngineer/anise/rotation"
)

// State is a Cartesian position and velocity at an epoch, expressed in a
// frame.
type State struct {
	RKm   rotation.Vec3 // position, km
	VKmS  rotation.Vec3 // velocity, km/s
	Epoch epoch.Epoch
	Frame frames.Frame
}

// NewState assembles a state value.
func NewState(r, v rotation.Vec3, at epoch.Epoch, frame frames.Frame) State {
	return State{RKm: r, VKmS: v, Epoch: at, Frame: frame}
}

// RangeKm returns the position magnitude.
func (s State) RangeKm() float64 { return s.RKm.Norm() }

// SpeedKmS returns the velocity magnitude.
func (s State) SpeedKmS() float64 { return s.VKmS.Norm() }

// IsFinite reports whether all components are finite.
func (s State) IsFinite() bool { return s.RKm.IsFinite() && s.VKmS.IsFinite() }

// Neg returns the state with position and velocity negated — the same
// separation seen from the other endpoint.
func (s State) Neg() State {
	out := s
	out.RKm = s.RKm.Neg()
	out.VKmS = s.VKmS.Neg()
	return out
}

func (s State) String() string {
	return fmt.Sprintf("state(r=%v km, v=%v km/s, %v, %v)", s.RKm, s.VKmS, s.Epoch, s.Frame)
}
