package mathx

import (
	"fmt"
	"math"
	"strings"
)

// EulerOrder names the axis order of an euler rotation. The first axis is
// applied first, so EulerXYZ means R = Rz * Ry * Rx.
type EulerOrder int

const (
	EulerXYZ EulerOrder = iota
	EulerXZY
	EulerYXZ
	EulerYZX
	EulerZXY
	EulerZYX
)

var eulerAxes = [...][3]int{
	EulerXYZ: {0, 1, 2},
	EulerXZY: {0, 2, 1},
	EulerYXZ: {1, 0, 2},
	EulerYZX: {1, 2, 0},
	EulerZXY: {2, 0, 1},
	EulerZYX: {2, 1, 0},
}

var eulerNames = [...]string{"XYZ", "XZY", "YXZ", "YZX", "ZXY", "ZYX"}

// String returns the order as its axis letters.
func (o EulerOrder) String() string {
	if o < 0 || int(o) >= len(eulerNames) {
		return fmt.Sprintf("EulerOrder(%d)", int(o))
	}
	return eulerNames[o]
}

// ParseEulerOrder parses "XYZ", "zyx", etc.
func ParseEulerOrder(s string) (EulerOrder, error) {
	u := strings.ToUpper(s)
	for i, n := range eulerNames {
		if n == u {
			return EulerOrder(i), nil
		}
	}
	return EulerXYZ, fmt.Errorf("unknown euler order %q", s)
}

// even reports whether the axis sequence is an even permutation of XYZ.
func (o EulerOrder) even() bool {
	switch o {
	case EulerXYZ, EulerYZX, EulerZXY:
		return true
	}
	return false
}

func axisQuat(axis int, angle float64) Quat {
	var v Vec3
	v[axis] = 1
	return QuatFromAxisAngle(v, angle)
}

// QuatFromEuler converts euler angles (indexed by axis, not by order) into a
// quaternion.
func QuatFromEuler(e Vec3, order EulerOrder) Quat {
	ax := eulerAxes[order]
	q := axisQuat(ax[0], e[ax[0]])
	q = axisQuat(ax[1], e[ax[1]]).Mul(q)
	q = axisQuat(ax[2], e[ax[2]]).Mul(q)
	return q.Normalize()
}

// Euler converts q into euler angles for the given order. The result is
// indexed by axis.
func (q Quat) Euler(order EulerOrder) Vec3 {
	r := q.Normalize().Mat3()
	at := func(row, col int) float64 { return r[col*3+row] }
	ax := eulerAxes[order]
	i, j, k := ax[0], ax[1], ax[2]

	var a, b, c float64
	if order.even() {
		b = math.Asin(clamp(-at(k, i), -1, 1))
		a = math.Atan2(at(k, j), at(k, k))
		c = math.Atan2(at(j, i), at(i, i))
	} else {
		b = math.Asin(clamp(at(k, i), -1, 1))
		a = math.Atan2(-at(k, j), at(k, k))
		c = math.Atan2(-at(j, i), at(i, i))
	}

	var out Vec3
	out[i], out[j], out[k] = a, b, c
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
