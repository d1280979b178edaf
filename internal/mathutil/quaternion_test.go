package mathutil

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tol = 1e-9

func sampleQuats() []Quat {
	return []Quat{
		QuatIdentity(),
		AxisAngle(Vec3{1, 0, 0}, 90),
		AxisAngle(Vec3{0, 1, 0}, -45),
		AxisAngle(Vec3{1, 2, 3}, 170),
		FromEuler(Vec3{10, 20, 30}, RotationOrder{AxisZ, AxisX, AxisY}),
		QuatNormalize(Quat{0.3, -0.2, 0.9, -0.1}),
	}
}

func assertQuatNear(t *testing.T, want, got Quat, eps float64) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], eps, "component %d of %v vs %v", i, want, got)
	}
}

func assertVecNear(t *testing.T, want, got Vec3, eps float64) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], eps, "component %d of %v vs %v", i, want, got)
	}
}

func TestQuatNormalize(t *testing.T) {
	for _, q := range []Quat{{1, 2, 3, 4}, {0, 0, 0, 5}, {-1e-3, 0, 0, 0}} {
		assert.InDelta(t, 1.0, QuatNormalize(q).Len(), 1e-6)
	}
	for _, q := range sampleQuats() {
		assert.InDelta(t, 1.0, QuatNormalize(q).Len(), 1e-6)
	}
}

func TestQuatNormalizeDegenerate(t *testing.T) {
	assert.Equal(t, QuatIdentity(), QuatNormalize(Quat{}))
	assert.Equal(t, QuatIdentity(), QuatNormalize(Quat{1e-13, 0, 0, 0}))
}

func TestQuatMulNonCommutative(t *testing.T) {
	qx := AxisAngle(AxisX.Unit(), 90)
	qy := AxisAngle(AxisY.Unit(), 90)
	assert.False(t, SameRotation(QuatMul(qx, qy), QuatMul(qy, qx), 1e-6))
	assertQuatNear(t, qx, QuatMul(qx, QuatIdentity()), tol)
	assert.InDelta(t, 1.0, QuatMul(Quat{1, 2, 3, 4}, Quat{-4, 3, 2, 1}).Len(), 1e-12)
}

func TestQuatConjugate(t *testing.T) {
	assert.Equal(t, Quat{-1, -2, -3, 4}, QuatConjugate(Quat{1, 2, 3, 4}))
}

func TestHamiltonProductRotatesVector(t *testing.T) {
	q := AxisAngle(AxisZ.Unit(), 90)
	got := HamiltonProduct(q, PureQuat(Vec3{1, 0, 0}))
	assertQuatNear(t, Quat{0, 1, 0, 0}, got, tol)

	assertVecNear(t, Vec3{0, 0, -3}, RotateVec3(AxisAngle(AxisY.Unit(), 90), Vec3{3, 0, 0}), tol)
	assert.Equal(t, Vec3{}, RotateVec3(q, Vec3{}))
}

func TestAxisAngle(t *testing.T) {
	q := AxisAngle(Vec3{0, 0, 2}, 180)
	assertQuatNear(t, Quat{0, 0, 1, 0}, q, tol)

	// Degenerate axis falls back to Up.
	assertQuatNear(t, AxisAngle(Up, 60), AxisAngle(Vec3{}, 60), tol)
	assertQuatNear(t, AxisAngle(Up, 60), AxisAngle(Vec3{1e-7, 0, 0}, 60), tol)
}

func TestFromEulerZeroIsIdentity(t *testing.T) {
	for _, order := range AllRotationOrders {
		assertQuatNear(t, QuatIdentity(), FromEuler(Vec3{}, order), tol)
	}
}

func TestFromEulerMatchesElementaryRotations(t *testing.T) {
	euler := Vec3{25, -70, 130}
	v := Vec3{0.3, -1.2, 2.5}
	for _, order := range AllRotationOrders {
		t.Run(order.String(), func(t *testing.T) {
			q := FromEuler(euler, order)

			// Apply the last-declared rotation first, then the others.
			want := v
			for i := 2; i >= 0; i-- {
				want = RotAxisDeg(order[i], euler[order[i]]).MulVec3(want)
			}

			assertVecNear(t, want, RotateVec3(q, v), 1e-9)
			assertVecNear(t, want, EulerMat3(euler, order).MulVec3(v), 1e-9)
			assert.True(t, QuatToMat3(q).ApproxEqual(EulerMat3(euler, order), 1e-9))
		})
	}
}

func TestSlerpIdentical(t *testing.T) {
	for _, q := range sampleQuats() {
		for _, tt := range []float64{0, 0.25, 0.5, 0.75, 1} {
			assertQuatNear(t, QuatNormalize(q), Slerp(q, q, tt), 1e-9)
		}
	}
}

func TestSlerpEndpoints(t *testing.T) {
	qs := sampleQuats()
	for i := range qs {
		for j := range qs {
			q1, q2 := qs[i], qs[j]
			assertQuatNear(t, QuatNormalize(q1), Slerp(q1, q2, 0), 1e-9)
			assert.True(t, SameRotation(q2, Slerp(q1, q2, 1), 1e-9), "%v -> %v", q1, q2)
		}
	}
}

func TestSlerpShortestArc(t *testing.T) {
	q1 := AxisAngle(AxisZ.Unit(), 10)
	q2 := AxisAngle(AxisZ.Unit(), 50).Neg()

	mid := Slerp(q1, q2, 0.5)
	assert.True(t, SameRotation(AxisAngle(AxisZ.Unit(), 30), mid, 1e-9))
	assert.InDelta(t, 1.0, mid.Len(), 1e-12)
}

func TestSlerpNearParallelFallsBackToLerp(t *testing.T) {
	q1 := AxisAngle(AxisX.Unit(), 0)
	q2 := AxisAngle(AxisX.Unit(), 0.05) // sin(θ) well under the threshold
	got := Slerp(q1, q2, 0.5)

	var lerp Quat
	for i := range lerp {
		lerp[i] = (q1[i] + q2[i]) / 2
	}
	assertQuatNear(t, QuatNormalize(lerp), got, 1e-12)
}

func TestSlerpMidpointAngle(t *testing.T) {
	q := Slerp(QuatIdentity(), AxisAngle(AxisY.Unit(), 90), 0.5)
	assertQuatNear(t, AxisAngle(AxisY.Unit(), 45), q, 1e-9)
}

func TestQuatMat3RoundTrip(t *testing.T) {
	for _, q := range sampleQuats() {
		back := QuatFromMat3(QuatToMat3(q))
		assert.True(t, SameRotation(q, back, 1e-9), "%v vs %v", q, back)
	}
	// Exercise each pivot branch.
	for _, deg := range []float64{179, -179} {
		for _, a := range []Axis{AxisX, AxisY, AxisZ} {
			q := AxisAngle(a.Unit(), deg)
			require.True(t, SameRotation(q, QuatFromMat3(QuatToMat3(q)), 1e-9))
		}
	}
}

func TestRotationOrderValid(t *testing.T) {
	for _, o := range AllRotationOrders {
		assert.True(t, o.Valid(), o.String())
	}
	assert.False(t, RotationOrder{AxisX, AxisX, AxisZ}.Valid())
	assert.Equal(t, "ZXY", RotationOrder{AxisZ, AxisX, AxisY}.String())
}

func TestMat4Compose(t *testing.T) {
	local := Mat4Mul(Translate(Vec3{1, 2, 3}), FromMat3Translation(RotZ(math.Pi/2), Vec3{}))
	assertVecNear(t, Vec3{1, 3, 3}, local.MulPoint(Vec3{1, 0, 0}), tol)
	assert.Equal(t, Vec3{1, 2, 3}, local.Translation())
	assert.True(t, local.Rotation().ApproxEqual(RotZ(math.Pi/2), tol))
	assert.True(t, Mat4Identity().IsIdentity())
}
