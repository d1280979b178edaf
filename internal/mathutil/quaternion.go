package mathutil

import "math"

const (
	// Epsilon is the magnitude below which quaternions and axes are treated as degenerate.
	Epsilon = 1e-12

	// SlerpSinEpsilon is the sin(θ) threshold under which Slerp falls back to lerp.
	SlerpSinEpsilon = 1e-3
)

// Quat represents a quaternion (x, y, z, w).
type Quat [4]float64

// QuatIdentity is the no-rotation quaternion.
func QuatIdentity() Quat {
	return Quat{0, 0, 0, 1}
}

// PureQuat embeds a vector as a quaternion with zero scalar part.
func PureQuat(v Vec3) Quat {
	return Quat{v[0], v[1], v[2], 0}
}

// Vec returns the vector part.
func (q Quat) Vec() Vec3 {
	return Vec3{q[0], q[1], q[2]}
}

func (q Quat) Dot(o Quat) float64 {
	return q[0]*o[0] + q[1]*o[1] + q[2]*o[2] + q[3]*o[3]
}

func (q Quat) Len() float64 {
	return math.Sqrt(q.Dot(q))
}

func (q Quat) Neg() Quat {
	return Quat{-q[0], -q[1], -q[2], -q[3]}
}

// QuatNormalize returns q/|q|. Below Epsilon it returns the identity.
func QuatNormalize(q Quat) Quat {
	mag := q.Len()
	if mag < Epsilon {
		return QuatIdentity()
	}
	inv := 1 / mag
	return Quat{q[0] * inv, q[1] * inv, q[2] * inv, q[3] * inv}
}

// QuatMul returns the normalized Hamilton product q1·q2 of the normalized inputs.
// The rotation q2 is applied first.
func QuatMul(q1, q2 Quat) Quat {
	q1 = QuatNormalize(q1)
	q2 = QuatNormalize(q2)

	return QuatNormalize(Quat{
		q1[3]*q2[0] + q1[0]*q2[3] + q1[1]*q2[2] - q1[2]*q2[1],
		q1[3]*q2[1] + q1[1]*q2[3] + q1[2]*q2[0] - q1[0]*q2[2],
		q1[3]*q2[2] + q1[2]*q2[3] + q1[0]*q2[1] - q1[1]*q2[0],
		q1[3]*q2[3] - q1[0]*q2[0] - q1[1]*q2[1] - q1[2]*q2[2],
	})
}

// QuatConjugate negates the vector part.
func QuatConjugate(q Quat) Quat {
	return Quat{-q[0], -q[1], -q[2], q[3]}
}

// HamiltonProduct returns q·v·q*, rotating the pure quaternion v by q.
// Both products normalize, so only the direction of v survives.
func HamiltonProduct(q, v Quat) Quat {
	return QuatMul(QuatMul(q, v), QuatConjugate(q))
}

// RotateVec3 rotates v by q and restores its length.
func RotateVec3(q Quat, v Vec3) Vec3 {
	l := v.Len()
	if l < Epsilon {
		return v
	}
	return HamiltonProduct(q, PureQuat(v)).Vec().Scale(l)
}

// AxisAngle returns the unit quaternion rotating deg degrees about axis.
// A near-zero axis falls back to Up.
func AxisAngle(axis Vec3, deg float64) Quat {
	if axis.LenSq() < Epsilon {
		axis = Up
	} else {
		axis = axis.Normalize()
	}
	half := Deg2Rad(deg) / 2
	s := math.Sin(half)
	return QuatNormalize(Quat{axis[0] * s, axis[1] * s, axis[2] * s, math.Cos(half)})
}

// FromEuler converts euler angles (degrees, indexed by axis) to a quaternion.
// The axis quaternions are multiplied in ascending declaration order,
// q = q[order[0]]·q[order[1]]·q[order[2]], so the result rotates vectors
// exactly like EulerMat3(euler, order).
func FromEuler(euler Vec3, order RotationOrder) Quat {
	var axes [3]Quat
	for a := AxisX; a <= AxisZ; a++ {
		axes[a] = AxisAngle(a.Unit(), euler[a])
	}

	q := axes[order[0]]
	q = QuatMul(q, axes[order[1]])
	q = QuatMul(q, axes[order[2]])
	return QuatNormalize(q)
}

// Slerp interpolates along the shorter arc between q1 and q2.
func Slerp(q1, q2 Quat, t float64) Quat {
	q1 = QuatNormalize(q1)
	q2 = QuatNormalize(q2)

	dot := q1.Dot(q2)
	if dot < 0 {
		q2 = q2.Neg()
		dot = -dot
	}
	dot = math.Max(-1, math.Min(1, dot))

	theta := math.Acos(dot)
	sinTheta := math.Sin(theta)

	var r Quat
	if sinTheta < SlerpSinEpsilon {
		for i := range r {
			r[i] = q1[i]*(1-t) + q2[i]*t
		}
		return QuatNormalize(r)
	}

	c1 := math.Sin((1-t)*theta) / sinTheta
	c2 := math.Sin(t*theta) / sinTheta
	for i := range r {
		r[i] = q1[i]*c1 + q2[i]*c2
	}
	return QuatNormalize(r)
}

// SameRotation reports whether a and b encode the same rotation (q and -q are equal).
func SameRotation(a, b Quat, eps float64) bool {
	return math.Abs(math.Abs(QuatNormalize(a).Dot(QuatNormalize(b)))-1) <= eps
}

// QuatToMat3 converts a quaternion to a 3×3 rotation matrix.
func QuatToMat3(q Quat) Mat3 {
	x, y, z, w := q[0], q[1], q[2], q[3]
	xx, yy, zz := x*x, y*y, z*z
	xy, xz, yz := x*y, x*z, y*z
	wx, wy, wz := w*x, w*y, w*z

	return Mat3{
		1 - 2*(yy+zz), 2 * (xy - wz), 2 * (xz + wy),
		2 * (xy + wz), 1 - 2*(xx+zz), 2 * (yz - wx),
		2 * (xz - wy), 2 * (yz + wx), 1 - 2*(xx+yy),
	}
}

// QuatFromMat3 extracts the unit quaternion of a rotation matrix, picking the
// numerically largest pivot.
func QuatFromMat3(m Mat3) Quat {
	trace := m[0] + m[4] + m[8]
	var q Quat
	switch {
	case trace > 0:
		s := math.Sqrt(trace+1) * 2
		q = Quat{(m[7] - m[5]) / s, (m[2] - m[6]) / s, (m[3] - m[1]) / s, s / 4}
	case m[0] > m[4] && m[0] > m[8]:
		s := math.Sqrt(1+m[0]-m[4]-m[8]) * 2
		q = Quat{s / 4, (m[1] + m[3]) / s, (m[2] + m[6]) / s, (m[7] - m[5]) / s}
	case m[4] > m[8]:
		s := math.Sqrt(1+m[4]-m[0]-m[8]) * 2
		q = Quat{(m[1] + m[3]) / s, s / 4, (m[5] + m[7]) / s, (m[2] - m[6]) / s}
	default:
		s := math.Sqrt(1+m[8]-m[0]-m[4]) * 2
		q = Quat{(m[2] + m[6]) / s, (m[5] + m[7]) / s, s / 4, (m[3] - m[1]) / s}
	}
	return QuatNormalize(q)
}
