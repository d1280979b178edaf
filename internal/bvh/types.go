package bvh

import (
	"fmt"

	"bvh-pose-renderer/internal/mathutil"
)

// Channel is one animated degree of freedom of a joint.
type Channel int

const (
	XPosition Channel = iota
	YPosition
	ZPosition
	XRotation
	YRotation
	ZRotation
)

var channelNames = [...]string{"Xposition", "Yposition", "Zposition", "Xrotation", "Yrotation", "Zrotation"}

func (c Channel) String() string {
	if c < XPosition || c > ZRotation {
		return fmt.Sprintf("Channel(%d)", int(c))
	}
	return channelNames[c]
}

// IsRotation reports whether c is one of the rotation channels.
func (c Channel) IsRotation() bool {
	return c >= XRotation && c <= ZRotation
}

// Axis returns the axis the channel acts on.
func (c Channel) Axis() mathutil.Axis {
	return mathutil.Axis(int(c) % 3)
}

func parseChannel(s string) (Channel, bool) {
	for i, n := range channelNames {
		if n == s {
			return Channel(i), true
		}
	}
	return 0, false
}

// NoChannel marks an axis without a column in the frame row.
const NoChannel = -1

// Joint is one node of the skeleton. Joints live in Skeleton.Joints and refer
// to each other by index.
type Joint struct {
	Name     string
	Parent   int   // -1 for the root
	Children []int // declaration order
	Offset   mathutil.Vec3
	EndSite  bool

	Channels []Channel // declaration order

	// Column into the frame row per axis, NoChannel when absent.
	PositionIndex [3]int
	RotationIndex [3]int

	// Declared rotation axes first, then any undeclared axes in X,Y,Z order.
	RotationOrder mathutil.RotationOrder
}

// HasPosition reports whether all three position channels are present.
func (j *Joint) HasPosition() bool {
	return j.PositionIndex[0] != NoChannel && j.PositionIndex[1] != NoChannel && j.PositionIndex[2] != NoChannel
}

// Position reads the joint's sampled position from a frame row.
// Missing axes read as zero.
func (j *Joint) Position(row []float64) mathutil.Vec3 {
	return j.sample(j.PositionIndex, row)
}

// Euler reads the joint's sampled rotation angles (degrees, indexed by axis).
// Missing axes read as zero.
func (j *Joint) Euler(row []float64) mathutil.Vec3 {
	return j.sample(j.RotationIndex, row)
}

func (j *Joint) sample(idx [3]int, row []float64) mathutil.Vec3 {
	var v mathutil.Vec3
	for a, col := range idx {
		if col == NoChannel {
			continue
		}
		if col < 0 || col >= len(row) {
			panic(&IndexIntegrityError{Joint: j.Name, Frame: -1, Column: col, RowLen: len(row)})
		}
		v[a] = row[col]
	}
	return v
}

// Skeleton is a parsed BVH file: the joint tree plus the frame table.
// It is not modified after parsing.
type Skeleton struct {
	Joints       []Joint // depth-first declaration order, Joints[0] is the root
	ChannelCount int
	FrameTime    float64 // seconds per frame
	Frames       [][]float64
}

// Root returns the root joint.
func (s *Skeleton) Root() *Joint {
	return &s.Joints[0]
}

// NumFrames returns the number of motion rows.
func (s *Skeleton) NumFrames() int {
	return len(s.Frames)
}

// Duration returns the length of one loop of the clip in seconds.
func (s *Skeleton) Duration() float64 {
	return s.FrameTime * float64(len(s.Frames))
}

// JointIndex returns the index of the named joint, or -1.
func (s *Skeleton) JointIndex(name string) int {
	for i := range s.Joints {
		if s.Joints[i].Name == name {
			return i
		}
	}
	return -1
}

// Validate checks the column invariants the evaluator relies on.
func (s *Skeleton) Validate() error {
	if len(s.Joints) == 0 {
		return fmt.Errorf("bvh: skeleton has no joints")
	}
	if len(s.Frames) == 0 {
		return fmt.Errorf("bvh: skeleton has no frames")
	}
	if s.FrameTime <= 0 {
		return fmt.Errorf("bvh: frame time %g is not positive", s.FrameTime)
	}
	for fi, row := range s.Frames {
		if len(row) != s.ChannelCount {
			return &IndexIntegrityError{Frame: fi, Column: s.ChannelCount - 1, RowLen: len(row)}
		}
	}
	for ji := range s.Joints {
		j := &s.Joints[ji]
		for _, idx := range [2][3]int{j.PositionIndex, j.RotationIndex} {
			for _, col := range idx {
				if col == NoChannel {
					continue
				}
				if col < 0 || col >= s.ChannelCount {
					return &IndexIntegrityError{Joint: j.Name, Frame: -1, Column: col, RowLen: s.ChannelCount}
				}
			}
		}
	}
	return nil
}
