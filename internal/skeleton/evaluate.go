package skeleton

import (
	"bvh-pose-renderer/internal/bvh"
	"bvh-pose-renderer/internal/mathutil"
)

// JointPose holds one joint's transforms for a single evaluation.
type JointPose struct {
	Index  int
	Name   string
	Parent int
	Local  mathutil.Mat4 // relative to the parent joint
	Global mathutil.Mat4 // world space
}

// Position returns the joint's world-space position.
func (p JointPose) Position() mathutil.Vec3 {
	return p.Global.Translation()
}

// Orientation returns the joint's world-space rotation.
func (p JointPose) Orientation() mathutil.Quat {
	return mathutil.QuatFromMat3(p.Global.Rotation())
}

// Pose is the transform table produced by Evaluate. Joints is indexed like
// Skeleton.Joints.
type Pose struct {
	Time         float64
	State        FrameState
	Interpolated bool
	Joints       []JointPose
}

// Joint looks a joint up by name.
func (p *Pose) Joint(name string) (JointPose, bool) {
	for _, j := range p.Joints {
		if j.Name == name {
			return j, true
		}
	}
	return JointPose{}, false
}

// Evaluate computes every joint's local and global transform at ts.
//
// Without interpolation the current frame's rotation channels are turned into
// elementary rotation matrices and multiplied in declaration order. With
// interpolation the current and next frames are converted to quaternions and
// slerped, and the root position is lerped.
//
// Evaluate is a pure function of its arguments. It panics with
// *bvh.IndexIntegrityError if the skeleton's channel columns do not fit its
// frame rows, which a parsed skeleton never does.
func Evaluate(sk *bvh.Skeleton, ts float64, interpolate bool) *Pose {
	st := State(sk, ts)
	pose := &Pose{
		Time:         ts,
		State:        st,
		Interpolated: interpolate,
		Joints:       make([]JointPose, len(sk.Joints)),
	}

	e := evaluator{
		sk:          sk,
		pose:        pose,
		curr:        sk.Frames[st.Frame],
		next:        sk.Frames[st.Next],
		t:           st.T,
		interpolate: interpolate,
	}
	e.visit(0, mathutil.Mat4Identity())
	return pose
}

type evaluator struct {
	sk          *bvh.Skeleton
	pose        *Pose
	curr, next  []float64
	t           float64
	interpolate bool
}

func (e *evaluator) visit(idx int, parent mathutil.Mat4) {
	j := &e.sk.Joints[idx]

	local := mathutil.Mat4Mul(
		mathutil.Translate(e.translation(j)),
		mathutil.FromMat3Translation(e.rotation(j), mathutil.Vec3{}),
	)
	global := mathutil.Mat4Mul(parent, local)

	e.pose.Joints[idx] = JointPose{
		Index:  idx,
		Name:   j.Name,
		Parent: j.Parent,
		Local:  local,
		Global: global,
	}

	for _, c := range j.Children {
		e.visit(c, global)
	}
}

// translation is the static offset, except for the root whose sampled
// position channels replace the matching offset components.
func (e *evaluator) translation(j *bvh.Joint) mathutil.Vec3 {
	if j.Parent >= 0 {
		return j.Offset
	}

	pos := e.rootPosition(j, e.curr)
	if e.interpolate {
		pos = mathutil.Lerp(pos, e.rootPosition(j, e.next), e.t)
	}
	return pos
}

func (e *evaluator) rootPosition(j *bvh.Joint, row []float64) mathutil.Vec3 {
	pos := j.Position(row)
	for a, col := range j.PositionIndex {
		if col == bvh.NoChannel {
			pos[a] = j.Offset[a]
		}
	}
	return pos
}

func (e *evaluator) rotation(j *bvh.Joint) mathutil.Mat3 {
	if !hasRotation(j) {
		return mathutil.Mat3Identity()
	}

	if !e.interpolate {
		return mathutil.EulerMat3(j.Euler(e.curr), j.RotationOrder)
	}

	q1 := mathutil.FromEuler(j.Euler(e.curr), j.RotationOrder)
	q2 := mathutil.FromEuler(j.Euler(e.next), j.RotationOrder)
	return mathutil.QuatToMat3(mathutil.Slerp(q1, q2, e.t))
}

func hasRotation(j *bvh.Joint) bool {
	for _, col := range j.RotationIndex {
		if col != bvh.NoChannel {
			return true
		}
	}
	return false
}
