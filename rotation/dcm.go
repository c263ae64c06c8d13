package rotation

import "math"

// Mat3 is a 3×3 matrix in row-major order.
type Mat3 [3][3]float64

// Identity3 is the 3×3 identity.
var Identity3 = Mat3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}

// MulVec returns M·v.
func (m Mat3) MulVec(v Vec3) Vec3 {
	return Vec3{
		m[0][0]*v[0] + m[0][1]*v[1] + m[0][2]*v[2],
		m[1][0]*v[0] + m[1][1]*v[1] + m[1][2]*v[2],
		m[2][0]*v[0] + m[2][1]*v[1] + m[2][2]*v[2],
	}
}

// Mul returns M·N.
func (m Mat3) Mul(n Mat3) Mat3 {
	var out Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = m[i][0]*n[0][j] + m[i][1]*n[1][j] + m[i][2]*n[2][j]
		}
	}
	return out
}

// Transpose returns Mᵀ.
func (m Mat3) Transpose() Mat3 {
	var out Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = m[j][i]
		}
	}
	return out
}

// Add returns M+N.
func (m Mat3) Add(n Mat3) Mat3 {
	var out Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = m[i][j] + n[i][j]
		}
	}
	return out
}

// Det returns the determinant.
func (m Mat3) Det() float64 {
	return m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
		m[0][1]*(m[1][0]*m[2][2]-m[1][2]*m[2][0]) +
		m[0][2]*(m[1][0]*m[2][1]-m[1][1]*m[2][0])
}

// DCM is a direction cosine matrix carrying an optional time derivative, so
// a single value can rotate a full position+velocity state:
//
//	r' = R·r
//	v' = R·v + Ṙ·r
//
// From and To carry the orientation IDs the matrix maps between; they are
// informational and not consulted by the arithmetic.
type DCM struct {
	Rot  Mat3
	Rate *Mat3 // nil when the rotation is constant in time
	From int32
	To   int32
}

// Identity returns the identity DCM between the given orientation IDs.
func Identity(from, to int32) DCM {
	return DCM{Rot: Identity3, From: from, To: to}
}

// Transpose returns the inverse rotation. For a rigid rotation the inverse
// is the transpose, and the rate transposes with it.
func (d DCM) Transpose() DCM {
	out := DCM{Rot: d.Rot.Transpose(), From: d.To, To: d.From}
	if d.Rate != nil {
		r := d.Rate.Transpose()
		out.Rate = &r
	}
	return out
}

// Mul composes rotations: (d·o) applies o first, then d. The rate follows
// the product rule d(AB)/dt = Ȧ·B + A·Ḃ.
func (d DCM) Mul(o DCM) DCM {
	out := DCM{Rot: d.Rot.Mul(o.Rot), From: o.From, To: d.To}
	if d.Rate == nil && o.Rate == nil {
		return out
	}
	var rate Mat3
	if d.Rate != nil {
		rate = d.Rate.Mul(o.Rot)
	}
	if o.Rate != nil {
		rate = rate.Add(d.Rot.Mul(*o.Rate))
	}
	out.Rate = &rate
	return out
}

// RotateState rotates a position and velocity through the DCM, applying the
// transport term when a rate is present.
func (d DCM) RotateState(r, v Vec3) (Vec3, Vec3) {
	rOut := d.Rot.MulVec(r)
	vOut := d.Rot.MulVec(v)
	if d.Rate != nil {
		vOut = vOut.Add(d.Rate.MulVec(r))
	}
	return rOut, vOut
}

// IsValid reports whether the matrix is orthonormal (‖RᵀR−I‖∞ ≤ tol) with
// determinant +1.
func (d DCM) IsValid(tol float64) bool {
	p := d.Rot.Transpose().Mul(d.Rot)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			want := 0.0
			if i == j {
				want = 1.0
			}
			if math.Abs(p[i][j]-want) > tol {
				return false
			}
		}
	}
	return math.Abs(d.Rot.Det()-1) <= tol
}

// R1 returns the rotation about the X axis by angle (radians). If rate is
// non-zero the returned DCM carries the matching time derivative for an
// angle evolving at rate rad/s.
func R1(angle, rate float64) DCM { return axisRotation(0, angle, rate) }

// R2 returns the rotation about the Y axis.
func R2(angle, rate float64) DCM { return axisRotation(1, angle, rate) }

// R3 returns the rotation about the Z axis.
func R3(angle, rate float64) DCM { return axisRotation(2, angle, rate) }

func axisRotation(axis int, angle, rate float64) DCM {
	c, s := math.Cos(angle), math.Sin(angle)
	var rot, drot Mat3
	switch axis {
	case 0:
		rot = Mat3{{1, 0, 0}, {0, c, s}, {0, -s, c}}
		drot = Mat3{{0, 0, 0}, {0, -s, c}, {0, -c, -s}}
	case 1:
		rot = Mat3{{c, 0, -s}, {0, 1, 0}, {s, 0, c}}
		drot = Mat3{{-s, 0, -c}, {0, 0, 0}, {c, 0, -s}}
	case 2:
		rot = Mat3{{c, s, 0}, {-s, c, 0}, {0, 0, 1}}
		drot = Mat3{{-s, c, 0}, {-c, -s, 0}, {0, 0, 0}}
	}
	d := DCM{Rot: rot}
	if rate != 0 {
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				drot[i][j] *= rate
			}
		}
		d.Rate = &drot
	}
	return d
}
