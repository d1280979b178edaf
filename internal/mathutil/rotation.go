package mathutil

import (
	"fmt"
	"math"
)

// Axis names one of the three coordinate axes.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "X"
	case AxisY:
		return "Y"
	case AxisZ:
		return "Z"
	}
	return fmt.Sprintf("Axis(%d)", int(a))
}

// Unit returns the unit vector along a.
func (a Axis) Unit() Vec3 {
	var v Vec3
	v[a] = 1
	return v
}

// RotationOrder lists axes in the order their rotations were declared.
// The composed rotation is R[order[0]]·R[order[1]]·R[order[2]].
type RotationOrder [3]Axis

// OrderXYZ is the identity permutation.
var OrderXYZ = RotationOrder{AxisX, AxisY, AxisZ}

// AllRotationOrders enumerates the six permutations of {X,Y,Z}.
var AllRotationOrders = []RotationOrder{
	{AxisX, AxisY, AxisZ},
	{AxisX, AxisZ, AxisY},
	{AxisY, AxisX, AxisZ},
	{AxisY, AxisZ, AxisX},
	{AxisZ, AxisX, AxisY},
	{AxisZ, AxisY, AxisX},
}

func (o RotationOrder) String() string {
	return o[0].String() + o[1].String() + o[2].String()
}

// Valid reports whether o is a permutation of {X,Y,Z}.
func (o RotationOrder) Valid() bool {
	var seen [3]bool
	for _, a := range o {
		if a < AxisX || a > AxisZ || seen[a] {
			return false
		}
		seen[a] = true
	}
	return true
}

// RotX returns a 3×3 rotation matrix around the X axis. Angle in radians.
func RotX(a float64) Mat3 {
	c, s := math.Cos(a), math.Sin(a)
	return Mat3{
		1, 0, 0,
		0, c, -s,
		0, s, c,
	}
}

// RotY returns a 3×3 rotation matrix around the Y axis.
func RotY(a float64) Mat3 {
	c, s := math.Cos(a), math.Sin(a)
	return Mat3{
		c, 0, s,
		0, 1, 0,
		-s, 0, c,
	}
}

// RotZ returns a 3×3 rotation matrix around the Z axis.
func RotZ(a float64) Mat3 {
	c, s := math.Cos(a), math.Sin(a)
	return Mat3{
		c, -s, 0,
		s, c, 0,
		0, 0, 1,
	}
}

// RotAxisDeg returns the elementary rotation about axis a by deg degrees.
func RotAxisDeg(a Axis, deg float64) Mat3 {
	r := Deg2Rad(deg)
	switch a {
	case AxisX:
		return RotX(r)
	case AxisY:
		return RotY(r)
	default:
		return RotZ(r)
	}
}

// EulerMat3 composes the three elementary rotations of euler (degrees, indexed
// by axis) in the given order.
func EulerMat3(euler Vec3, order RotationOrder) Mat3 {
	m := RotAxisDeg(order[0], euler[order[0]])
	m = Mat3Mul(m, RotAxisDeg(order[1], euler[order[1]]))
	return Mat3Mul(m, RotAxisDeg(order[2], euler[order[2]]))
}

// Deg2Rad converts degrees to radians.
func Deg2Rad(d float64) float64 {
	return d * math.Pi / 180
}
