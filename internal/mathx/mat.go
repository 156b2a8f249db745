// Package mathx provides the small amount of 3D math the evaluation engine
// needs for transform-based driver variables: column-major 4x4 matrices,
// quaternions and euler conversions in every axis order.
//
// All matrices are stored in column-major order, element (row r, column c)
// lives at index c*4+r.
package mathx

import "math"

// Vec3 is a 3-component vector.
type Vec3 [3]float64

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v[0] - o[0], v[1] - o[1], v[2] - o[2]}
}

// Length returns the Euclidean length of v.
func (v Vec3) Length() float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

// Mat4 is a column-major 4x4 matrix.
type Mat4 [16]float64

// Identity returns the identity matrix.
func Identity() Mat4 {
	var m Mat4
	m[0], m[5], m[10], m[15] = 1, 1, 1, 1
	return m
}

// At returns the element at row r, column c.
func (m Mat4) At(r, c int) float64 {
	return m[c*4+r]
}

// Mul returns a * b.
func Mul(a, b Mat4) Mat4 {
	var out Mat4
	for i := 0; i < 4; i++ { // column of b
		for j := 0; j < 4; j++ { // row of a
			sum := 0.0
			for k := 0; k < 4; k++ {
				sum += a[k*4+j] * b[i*4+k]
			}
			out[i*4+j] = sum
		}
	}
	return out
}

// Compose builds a transform matrix that applies scale, then rotation, then
// translation.
//
// Parameters:
//   - loc: translation
//   - rot: rotation, normalized before use
//   - scale: per-axis scale factors
func Compose(loc Vec3, rot Quat, scale Vec3) Mat4 {
	r := rot.Normalize().Mat3()
	var m Mat4
	for c := 0; c < 3; c++ {
		for row := 0; row < 3; row++ {
			m[c*4+row] = r[c*3+row] * scale[c]
		}
	}
	m[12], m[13], m[14] = loc[0], loc[1], loc[2]
	m[15] = 1
	return m
}

// Translation returns the translation column.
func (m Mat4) Translation() Vec3 {
	return Vec3{m[12], m[13], m[14]}
}

// Scale returns the lengths of the three basis columns.
func (m Mat4) Scale() Vec3 {
	var s Vec3
	for c := 0; c < 3; c++ {
		s[c] = Vec3{m[c*4], m[c*4+1], m[c*4+2]}.Length()
	}
	return s
}

// Determinant3 returns the determinant of the upper-left 3x3 block, which is
// the factor by which the matrix scales volumes.
func (m Mat4) Determinant3() float64 {
	a, b, c := m.At(0, 0), m.At(0, 1), m.At(0, 2)
	d, e, f := m.At(1, 0), m.At(1, 1), m.At(1, 2)
	g, h, i := m.At(2, 0), m.At(2, 1), m.At(2, 2)
	return a*(e*i-f*h) - b*(d*i-f*g) + c*(d*h-e*g)
}

// VolumeScale returns the cube root of the volume scale factor: the uniform
// scale that would change volumes by the same amount as m.
func (m Mat4) VolumeScale() float64 {
	return math.Cbrt(m.Determinant3())
}

// Rotation extracts the rotation of m as a unit quaternion. Scale is removed
// by normalizing the basis columns; a zero-length column yields identity.
func (m Mat4) Rotation() Quat {
	var r [9]float64
	for c := 0; c < 3; c++ {
		col := Vec3{m[c*4], m[c*4+1], m[c*4+2]}
		l := col.Length()
		if l == 0 {
			return IdentityQuat()
		}
		r[c*3], r[c*3+1], r[c*3+2] = col[0]/l, col[1]/l, col[2]/l
	}
	return QuatFromMat3(r)
}
