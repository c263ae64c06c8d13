package rotation

import (
	"fmt"
	"math"
)

// UnitNormTolerance is the maximum allowed deviation of ‖q‖ from 1 for a
// quaternion accepted as a rotation.
const UnitNormTolerance = 1e-9

// Quaternion is a rotation quaternion with scalar part W.
type Quaternion struct {
	W, X, Y, Z float64
}

// Norm returns ‖q‖.
func (q Quaternion) Norm() float64 {
	return math.Sqrt(q.W*q.W + q.X*q.X + q.Y*q.Y + q.Z*q.Z)
}

// Normalized returns q scaled to unit norm. An error is reported for the
// zero quaternion.
func (q Quaternion) Normalized() (Quaternion, error) {
	n := q.Norm()
	if n == 0 {
		return Quaternion{}, fmt.Errorf("quaternion: cannot normalize zero quaternion")
	}
	return Quaternion{q.W / n, q.X / n, q.Y / n, q.Z / n}, nil
}

// IsUnit reports whether ‖q‖ is within UnitNormTolerance of 1.
func (q Quaternion) IsUnit() bool {
	return math.Abs(q.Norm()-1) <= UnitNormTolerance
}

// Conjugate returns the inverse rotation (for a unit quaternion).
func (q Quaternion) Conjugate() Quaternion {
	return Quaternion{q.W, -q.X, -q.Y, -q.Z}
}

// Mul composes rotations: the rotation p applied first, then q, matching
// DCM.Mul composition order, so q.Mul(p).DCM() == q.DCM()·p.DCM(). With the
// frame-rotation DCM used here that is the Hamilton product p·q.
func (q Quaternion) Mul(p Quaternion) Quaternion {
	return Quaternion{
		W: p.W*q.W - p.X*q.X - p.Y*q.Y - p.Z*q.Z,
		X: p.W*q.X + p.X*q.W + p.Y*q.Z - p.Z*q.Y,
		Y: p.W*q.Y - p.X*q.Z + p.Y*q.W + p.Z*q.X,
		Z: p.W*q.Z + p.X*q.Y - p.Y*q.X + p.Z*q.W,
	}
}

// DCM converts the unit quaternion to a constant direction cosine matrix.
func (q Quaternion) DCM() Mat3 {
	w, x, y, z := q.W, q.X, q.Y, q.Z
	return Mat3{
		{1 - 2*(y*y+z*z), 2 * (x*y + w*z), 2 * (x*z - w*y)},
		{2 * (x*y - w*z), 1 - 2*(x*x+z*z), 2 * (y*z + w*x)},
		{2 * (x*z + w*y), 2 * (y*z - w*x), 1 - 2*(x*x+y*y)},
	}
}

// FromDCM extracts the quaternion of an orthonormal matrix using Shepperd's
// method (largest diagonal pivot for numerical safety).
func FromDCM(m Mat3) Quaternion {
	tr := m[0][0] + m[1][1] + m[2][2]
	var q Quaternion
	switch {
	case tr > m[0][0] && tr > m[1][1] && tr > m[2][2]:
		s := math.Sqrt(tr+1) * 2
		q = Quaternion{
			W: s / 4,
			X: (m[1][2] - m[2][1]) / s,
			Y: (m[2][0] - m[0][2]) / s,
			Z: (m[0][1] - m[1][0]) / s,
		}
	case m[0][0] > m[1][1] && m[0][0] > m[2][2]:
		s := math.Sqrt(1+m[0][0]-m[1][1]-m[2][2]) * 2
		q = Quaternion{
			W: (m[1][2] - m[2][1]) / s,
			X: s / 4,
			Y: (m[0][1] + m[1][0]) / s,
			Z: (m[0][2] + m[2][0]) / s,
		}
	case m[1][1] > m[2][2]:
		s := math.Sqrt(1+m[1][1]-m[0][0]-m[2][2]) * 2
		q = Quaternion{
			W: (m[2][0] - m[0][2]) / s,
			X: (m[0][1] + m[1][0]) / s,
			Y: s / 4,
			Z: (m[1][2] + m[2][1]) / s,
		}
	default:
		s := math.Sqrt(1+m[2][2]-m[0][0]-m[1][1]) * 2
		q = Quaternion{
			W: (m[0][1] - m[1][0]) / s,
			X: (m[0][2] + m[2][0]) / s,
			Y: (m[1][2] + m[2][1]) / s,
			Z: s / 4,
		}
	}
	// Canonical sign: non-negative scalar part.
	if q.W < 0 {
		q = Quaternion{-q.W, -q.X, -q.Y, -q.Z}
	}
	return q
}

// AngleAxis returns the rotation angle (radians, in [0, π]) and unit axis.
// The identity rotation returns angle 0 with the Z axis.
func (q Quaternion) AngleAxis() (angle float64, axis Vec3) {
	w := q.W
	if w > 1 {
		w = 1
	} else if w < -1 {
		w = -1
	}
	angle = 2 * math.Acos(math.Abs(w))
	s := math.Sqrt(1 - w*w)
	if s < 1e-12 {
		return 0, Vec3{0, 0, 1}
	}
	sign := 1.0
	if q.W < 0 {
		sign = -1.0
	}
	return angle, Vec3{sign * q.X / s, sign * q.Y / s, sign * q.Z / s}
}
