package mathx

import "math"

// Quat is a rotation quaternion stored as (W, X, Y, Z).
type Quat struct {
	W, X, Y, Z float64
}

// IdentityQuat returns the no-rotation quaternion.
func IdentityQuat() Quat {
	return Quat{W: 1}
}

// QuatFromAxisAngle returns the rotation of angle radians around axis.
// A zero axis yields identity.
func QuatFromAxisAngle(axis Vec3, angle float64) Quat {
	l := axis.Length()
	if l == 0 {
		return IdentityQuat()
	}
	s := math.Sin(angle/2) / l
	return Quat{W: math.Cos(angle / 2), X: axis[0] * s, Y: axis[1] * s, Z: axis[2] * s}
}

// Mul returns the Hamilton product q * o (apply o first, then q).
func (q Quat) Mul(o Quat) Quat {
	return Quat{
		W: q.W*o.W - q.X*o.X - q.Y*o.Y - q.Z*o.Z,
		X: q.W*o.X + q.X*o.W + q.Y*o.Z - q.Z*o.Y,
		Y: q.W*o.Y - q.X*o.Z + q.Y*o.W + q.Z*o.X,
		Z: q.W*o.Z + q.X*o.Y - q.Y*o.X + q.Z*o.W,
	}
}

// Conjugate returns the conjugate, which is the inverse of a unit quaternion.
func (q Quat) Conjugate() Quat {
	return Quat{W: q.W, X: -q.X, Y: -q.Y, Z: -q.Z}
}

// Normalize returns q scaled to unit length. The zero quaternion becomes
// identity.
func (q Quat) Normalize() Quat {
	l := math.Sqrt(q.W*q.W + q.X*q.X + q.Y*q.Y + q.Z*q.Z)
	if l == 0 {
		return IdentityQuat()
	}
	return Quat{W: q.W / l, X: q.X / l, Y: q.Y / l, Z: q.Z / l}
}

// AngleTo returns the unsigned angle of the rotation that takes q to o,
// in [0, π].
func (q Quat) AngleTo(o Quat) float64 {
	d := q.Normalize().Conjugate().Mul(o.Normalize())
	w := math.Abs(d.W)
	if w > 1 {
		w = 1
	}
	return 2 * math.Acos(w)
}

// AxisAngle returns the rotation axis and angle of q. Identity reports the
// Y axis with angle 0.
func (q Quat) AxisAngle() (Vec3, float64) {
	q = q.Normalize()
	s := math.Sqrt(1 - q.W*q.W)
	if s < 1e-9 {
		return Vec3{0, 1, 0}, 0
	}
	w := math.Max(-1, math.Min(1, q.W))
	return Vec3{q.X / s, q.Y / s, q.Z / s}, 2 * math.Acos(w)
}

// Mat3 returns the column-major 3x3 rotation matrix of q.
func (q Quat) Mat3() [9]float64 {
	w, x, y, z := q.W, q.X, q.Y, q.Z
	return [9]float64{
		1 - 2*(y*y+z*z), 2 * (x*y + w*z), 2 * (x*z - w*y),
		2 * (x*y - w*z), 1 - 2*(x*x+z*z), 2 * (y*z + w*x),
		2 * (x*z + w*y), 2 * (y*z - w*x), 1 - 2*(x*x+y*y),
	}
}

// QuatFromMat3 converts an orthonormal column-major 3x3 rotation matrix to a
// unit quaternion with non-negative W.
func QuatFromMat3(r [9]float64) Quat {
	at := func(row, col int) float64 { return r[col*3+row] }
	m00, m11, m22 := at(0, 0), at(1, 1), at(2, 2)
	trace := m00 + m11 + m22

	var q Quat
	switch {
	case trace > 0:
		s := math.Sqrt(trace+1) * 2
		q = Quat{
			W: s / 4,
			X: (at(2, 1) - at(1, 2)) / s,
			Y: (at(0, 2) - at(2, 0)) / s,
			Z: (at(1, 0) - at(0, 1)) / s,
		}
	case m00 > m11 && m00 > m22:
		s := math.Sqrt(1+m00-m11-m22) * 2
		q = Quat{
			W: (at(2, 1) - at(1, 2)) / s,
			X: s / 4,
			Y: (at(0, 1) + at(1, 0)) / s,
			Z: (at(0, 2) + at(2, 0)) / s,
		}
	case m11 > m22:
		s := math.Sqrt(1+m11-m00-m22) * 2
		q = Quat{
			W: (at(0, 2) - at(2, 0)) / s,
			X: (at(0, 1) + at(1, 0)) / s,
			Y: s / 4,
			Z: (at(1, 2) + at(2, 1)) / s,
		}
	default:
		s := math.Sqrt(1+m22-m00-m11) * 2
		q = Quat{
			W: (at(1, 0) - at(0, 1)) / s,
			X: (at(0, 2) + at(2, 0)) / s,
			Y: (at(1, 2) + at(2, 1)) / s,
			Z: s / 4,
		}
	}
	if q.W < 0 {
		q = Quat{W: -q.W, X: -q.X, Y: -q.Y, Z: -q.Z}
	}
	return q.Normalize()
}
