package mathx

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

const eps = 1e-9

func TestQuat_AngleTo(t *testing.T) {
	id := IdentityQuat()
	half := QuatFromAxisAngle(Vec3{0, 0, 1}, math.Pi)
	quarter := QuatFromAxisAngle(Vec3{1, 0, 0}, math.Pi/2)

	assert.InDelta(t, 0.0, id.AngleTo(id), eps)
	assert.InDelta(t, math.Pi, id.AngleTo(half), 1e-6)
	assert.InDelta(t, math.Pi/2, id.AngleTo(quarter), 1e-9)

	// Full turn is the same orientation.
	full := QuatFromAxisAngle(Vec3{0, 1, 0}, 2*math.Pi)
	assert.InDelta(t, 0.0, id.AngleTo(full), 1e-6)
}

func TestEuler_RoundTrip(t *testing.T) {
	e := Vec3{0.3, -0.5, 1.1}
	for order := EulerXYZ; order <= EulerZYX; order++ {
		t.Run(order.String(), func(t *testing.T) {
			q := QuatFromEuler(e, order)
			got := q.Euler(order)
			for i := 0; i < 3; i++ {
				assert.InDelta(t, e[i], got[i], 1e-9, "axis %d", i)
			}
		})
	}
}

func TestParseEulerOrder(t *testing.T) {
	o, err := ParseEulerOrder("zyx")
	assert.NoError(t, err)
	assert.Equal(t, EulerZYX, o)

	_, err = ParseEulerOrder("XXY")
	assert.Error(t, err)
}

func TestCompose_Decompose(t *testing.T) {
	rot := QuatFromEuler(Vec3{0.2, 0.4, -0.7}, EulerXYZ)
	m := Compose(Vec3{1, 2, 3}, rot, Vec3{2, 2, 2})

	assert.Equal(t, Vec3{1, 2, 3}, m.Translation())
	s := m.Scale()
	for i := 0; i < 3; i++ {
		assert.InDelta(t, 2.0, s[i], 1e-12)
	}
	assert.InDelta(t, 8.0, m.Determinant3(), 1e-9)
	assert.InDelta(t, 2.0, m.VolumeScale(), 1e-9)

	got := m.Rotation()
	assert.InDelta(t, 0.0, got.AngleTo(rot), 1e-6)
}

func TestMul_Identity(t *testing.T) {
	m := Compose(Vec3{4, 5, 6}, QuatFromAxisAngle(Vec3{0, 1, 0}, 0.5), Vec3{1, 3, 1})
	assert.Equal(t, m, Mul(Identity(), m))
	assert.Equal(t, m, Mul(m, Identity()))
}

func TestMul_Translation(t *testing.T) {
	parent := Compose(Vec3{10, 0, 0}, IdentityQuat(), Vec3{1, 1, 1})
	child := Compose(Vec3{0, 5, 0}, IdentityQuat(), Vec3{1, 1, 1})
	world := Mul(parent, child)
	assert.Equal(t, Vec3{10, 5, 0}, world.Translation())
}

func TestQuat_AxisAngle(t *testing.T) {
	q := QuatFromAxisAngle(Vec3{0, 0, 2}, 1.2)
	axis, angle := q.AxisAngle()
	assert.InDelta(t, 1.2, angle, 1e-12)
	assert.InDelta(t, 1.0, axis[2], 1e-12)

	_, angle = IdentityQuat().AxisAngle()
	assert.Equal(t, 0.0, angle)
}
