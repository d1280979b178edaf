package skeleton

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bvh-pose-renderer/internal/bvh"
	"bvh-pose-renderer/internal/mathutil"
)

const eps = 1e-9

func loadFixture(t *testing.T, name string) *bvh.Skeleton {
	t.Helper()
	sk, err := bvh.ParseFile("testdata/" + name)
	require.NoError(t, err)
	return sk
}

// tenFrames is a channel-less skeleton with frameTime 0.01 and 10 frames.
func tenFrames() *bvh.Skeleton {
	return &bvh.Skeleton{
		Joints: []bvh.Joint{{
			Name:          "Root",
			Parent:        -1,
			PositionIndex: [3]int{bvh.NoChannel, bvh.NoChannel, bvh.NoChannel},
			RotationIndex: [3]int{bvh.NoChannel, bvh.NoChannel, bvh.NoChannel},
			RotationOrder: mathutil.OrderXYZ,
		}},
		FrameTime: 0.01,
		Frames:    make([][]float64, 10),
	}
}

func assertVecNear(t *testing.T, want, got mathutil.Vec3) {
	t.Helper()
	for k := range want {
		assert.InDelta(t, want[k], got[k], eps, "axis %d: want %v, got %v", k, want, got)
	}
}

func TestFrameNumberWraps(t *testing.T) {
	sk := tenFrames()
	assert.Equal(t, 0, FrameNumber(sk, 0))
	assert.Equal(t, 4, FrameNumber(sk, 0.045))
	assert.Equal(t, 9, FrameNumber(sk, 0.099))
	assert.Equal(t, 0, FrameNumber(sk, 0.10))
	assert.Equal(t, 3, FrameNumber(sk, 1.035))
	assert.Equal(t, 9, FrameNumber(sk, -0.005))
}

func TestStateNextWraps(t *testing.T) {
	sk := tenFrames()
	st := State(sk, 0.095)
	assert.Equal(t, 9, st.Frame)
	assert.Equal(t, 0, st.Next)
	assert.InDelta(t, 0.5, st.T, 1e-9)

	assert.Equal(t, FrameState{Frame: 0, Next: 1}, State(sk, math.NaN()))
}

func TestStateHugeQuotient(t *testing.T) {
	sk := tenFrames()
	sk.FrameTime = 1e-10
	for _, ts := range []float64{1e300, 1e308, -1e308, math.MaxFloat64} {
		st := State(sk, ts)
		assert.GreaterOrEqual(t, st.Frame, 0, "ts=%v", ts)
		assert.Less(t, st.Frame, 10, "ts=%v", ts)
		assert.Equal(t, (st.Frame+1)%10, st.Next, "ts=%v", ts)
		assert.False(t, math.IsNaN(st.T), "ts=%v", ts)
		assert.NotPanics(t, func() { Evaluate(sk, ts, true) }, "ts=%v", ts)
	}
}

func TestFrameStartSelectsFrame(t *testing.T) {
	for _, ft := range []float64{0.01, 0.1, 0.0333333, 1.0 / 120} {
		sk := tenFrames()
		sk.FrameTime = ft
		sk.Frames = make([][]float64, 2000)
		for i := range sk.Frames {
			ts := FrameStart(sk, i)
			st := State(sk, ts)
			require.Equal(t, i, st.Frame, "ft=%v frame=%d", ft, i)
			require.Less(t, st.T, 1e-6, "ft=%v frame=%d", ft, i)
		}
		assert.Equal(t, FrameStart(sk, 5), FrameStart(sk, 2005))
		assert.Equal(t, FrameStart(sk, 1999), FrameStart(sk, -1))
	}
}

func TestFrameIntervalTimeInRange(t *testing.T) {
	sk := tenFrames()
	for _, ts := range []float64{0, 0.01, 0.0149, 0.099, 0.1, 0.123456, 7.77, -1e-20, -0.0001, -3.3333, 1e9} {
		v := FrameIntervalTime(sk, ts)
		assert.GreaterOrEqual(t, v, 0.0, "ts=%v", ts)
		assert.Less(t, v, 1.0, "ts=%v", ts)
	}
	assert.InDelta(t, 0.5, FrameIntervalTime(sk, 0.005), 1e-9)
}

func TestEvaluateReproducesFirstFrame(t *testing.T) {
	sk, err := bvh.ParseString(`HIERARCHY
ROOT Hips
{
	OFFSET 0 0 0
	CHANNELS 6 Xposition Yposition Zposition Zrotation Xrotation Yrotation
	JOINT Chest
	{
		OFFSET 0 5 0
		CHANNELS 3 Zrotation Xrotation Yrotation
	}
}
MOTION
Frames: 2
Frame Time: 0.5
1 2 3 10 20 30 40 50 60
7 8 9 11 21 31 41 51 61
`)
	require.NoError(t, err)
	require.Len(t, sk.Joints, 2)

	pose := Evaluate(sk, 0, false)
	row := sk.Frames[0]

	hips := pose.Joints[0]
	assertVecNear(t, mathutil.Vec3{row[0], row[1], row[2]}, hips.Position())
	wantHips := mathutil.Mat3Mul(mathutil.Mat3Mul(
		mathutil.RotZ(mathutil.Deg2Rad(row[3])),
		mathutil.RotX(mathutil.Deg2Rad(row[4]))),
		mathutil.RotY(mathutil.Deg2Rad(row[5])))
	assert.True(t, hips.Local.Rotation().ApproxEqual(wantHips, eps))

	chest := pose.Joints[1]
	wantChest := mathutil.Mat3Mul(mathutil.Mat3Mul(
		mathutil.RotZ(mathutil.Deg2Rad(row[6])),
		mathutil.RotX(mathutil.Deg2Rad(row[7]))),
		mathutil.RotY(mathutil.Deg2Rad(row[8])))
	assert.True(t, chest.Local.Rotation().ApproxEqual(wantChest, eps))
	assert.Equal(t, mathutil.Vec3{0, 5, 0}, chest.Local.Translation())
	assert.True(t, chest.Global.ApproxEqual(mathutil.Mat4Mul(hips.Global, chest.Local), eps))
	assert.Equal(t, 0, pose.Joints[1].Parent)
}

func TestEvaluateNonInterpolated(t *testing.T) {
	sk := loadFixture(t, "two_joint.bvh")

	// Mid-frame without interpolation still samples frame 0.
	pose := Evaluate(sk, 0.25, false)
	assert.Equal(t, 0, pose.State.Frame)

	end, ok := pose.Joint("Chest_End")
	require.True(t, ok)
	assertVecNear(t, mathutil.Vec3{-2, 7, 3}, end.Position())

	hips, _ := pose.Joint("Hips")
	assertVecNear(t, mathutil.Vec3{1, 2, 3}, hips.Position())
	assert.True(t, mathutil.SameRotation(mathutil.QuatIdentity(), hips.Orientation(), eps))
}

func TestEvaluateInterpolated(t *testing.T) {
	sk := loadFixture(t, "two_joint.bvh")
	s45 := math.Sqrt2 / 2 * 3 * math.Sqrt2 / 2 // 3·sin45·sin45

	pose := Evaluate(sk, 0.25, true)
	assert.InDelta(t, 0.5, pose.State.T, eps)

	hips, _ := pose.Joint("Hips")
	assertVecNear(t, mathutil.Vec3{2, 2, 2}, hips.Position())
	assert.True(t, mathutil.SameRotation(mathutil.AxisAngle(mathutil.AxisY.Unit(), 45), hips.Orientation(), eps))

	chest, _ := pose.Joint("Chest")
	assert.True(t, mathutil.SameRotation(
		mathutil.AxisAngle(mathutil.AxisZ.Unit(), 45),
		mathutil.QuatFromMat3(chest.Local.Rotation()), eps))

	end, _ := pose.Joint("Chest_End")
	want := mathutil.Vec3{2 - s45, 2 + 5 + 3*math.Sqrt2/2, 2 + s45}
	assertVecNear(t, want, end.Position())

	// Past the last frame the clip interpolates back towards frame 0.
	wrapped := Evaluate(sk, 0.75, true)
	assert.Equal(t, 1, wrapped.State.Frame)
	assert.Equal(t, 0, wrapped.State.Next)
	wend, _ := wrapped.Joint("Chest_End")
	assertVecNear(t, want, wend.Position())
}

func TestInterpolatedMatchesMatrixPathOnFrame(t *testing.T) {
	sk := loadFixture(t, "figure.bvh")
	sk.FrameTime = 0.25 // exact in binary, so i*FrameTime lands on t == 0

	v := mathutil.Vec3{0.4, -1.1, 2.3}
	for i := 0; i < sk.NumFrames(); i++ {
		ts := float64(i) * sk.FrameTime
		mat := Evaluate(sk, ts, false)
		quat := Evaluate(sk, ts, true)
		require.Equal(t, 0.0, quat.State.T)

		for k := range mat.Joints {
			a := mat.Joints[k].Global.MulPoint(v)
			b := quat.Joints[k].Global.MulPoint(v)
			for c := range a {
				assert.InDelta(t, a[c], b[c], 1e-6, "frame %d joint %s", i, mat.Joints[k].Name)
			}
		}
	}
}

func TestEulerPathsAgreeForEveryOrder(t *testing.T) {
	euler := mathutil.Vec3{33, -12, 78}
	v := mathutil.Vec3{1, 2, 3}
	for _, order := range mathutil.AllRotationOrders {
		m := mathutil.EulerMat3(euler, order)
		q := mathutil.Slerp(mathutil.FromEuler(euler, order), mathutil.FromEuler(euler, order), 0)
		assertVecNear(t, m.MulVec3(v), mathutil.QuatToMat3(q).MulVec3(v))
		assertVecNear(t, m.MulVec3(v), mathutil.RotateVec3(q, v))
	}
}

func TestEvaluateDeterministicAndConcurrent(t *testing.T) {
	sk := loadFixture(t, "figure.bvh")
	want := Evaluate(sk, 0.0517, true)

	var wg sync.WaitGroup
	results := make([]*Pose, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = Evaluate(sk, 0.0517, true)
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		require.Equal(t, want, got)
	}
}

func TestEvaluateRootWithoutPositionChannels(t *testing.T) {
	sk, err := bvh.ParseString(`HIERARCHY
ROOT Base
{
	OFFSET 4 5 6
	CHANNELS 1 Yrotation
}
MOTION
Frames: 1
Frame Time: 0.1
90
`)
	require.NoError(t, err)

	for _, interp := range []bool{false, true} {
		pose := Evaluate(sk, 0.05, interp)
		assertVecNear(t, mathutil.Vec3{4, 5, 6}, pose.Joints[0].Position())
		assert.True(t, mathutil.SameRotation(mathutil.AxisAngle(mathutil.AxisY.Unit(), 90), pose.Joints[0].Orientation(), eps))
	}
}

func TestEvaluatePanicsOnIndexIntegrity(t *testing.T) {
	sk := loadFixture(t, "two_joint.bvh")
	sk.Frames[0] = sk.Frames[0][:5]

	assert.Panics(t, func() { Evaluate(sk, 0, false) })
}

func TestClipBounds(t *testing.T) {
	sk := loadFixture(t, "two_joint.bvh")
	b := ClipBounds(sk)

	// frame 0: hips (1,2,3), chest (1,7,3), end (-2,7,3)
	// frame 1: hips (3,2,1), chest (3,7,1), end (3,10,1)
	assertVecNear(t, mathutil.Vec3{-2, 2, 1}, b.Min)
	assertVecNear(t, mathutil.Vec3{3, 10, 3}, b.Max)
	assertVecNear(t, mathutil.Vec3{0.5, 6, 2}, b.Center())
	assertVecNear(t, mathutil.Vec3{5, 8, 2}, b.Size())

	pb := PoseBounds(Evaluate(sk, 0, false))
	assertVecNear(t, mathutil.Vec3{-2, 2, 3}, pb.Min)
}
