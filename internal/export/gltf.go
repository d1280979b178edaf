// Package export converts a BVH clip into a glTF 2.0 node hierarchy with one
// animation holding per-joint rotation tracks and the root translation track.
package export

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"bvh-pose-renderer/internal/bvh"
	"bvh-pose-renderer/internal/mathutil"
	"bvh-pose-renderer/internal/skeleton"
)

// Options controls sampling of the exported animation.
type Options struct {
	// FPS resamples the clip at this rate. Zero keeps the source frames.
	FPS float64
	// Interpolate slerps between source frames when resampling.
	Interpolate bool
	// Name of the animation. Defaults to "clip".
	Name string
}

// Build returns a document whose nodes mirror sk's joints (node i is joint i)
// in the rest pose of the first frame, plus the sampled animation.
func Build(sk *bvh.Skeleton, opts Options) (*gltf.Document, error) {
	if err := sk.Validate(); err != nil {
		return nil, err
	}
	times := sampleTimes(sk, opts.FPS)
	if len(times) == 0 {
		return nil, fmt.Errorf("export: nothing to sample")
	}

	poses := make([]*skeleton.Pose, len(times))
	for i, ts := range times {
		poses[i] = skeleton.Evaluate(sk, ts, opts.Interpolate && opts.FPS > 0)
	}

	doc := gltf.NewDocument()
	doc.Asset.Generator = "bvh-pose-renderer"
	doc.Scenes[0].Nodes = []int{0}

	rest := poses[0]
	for i := range sk.Joints {
		j := &sk.Joints[i]
		local := rest.Joints[i].Local
		doc.Nodes = append(doc.Nodes, &gltf.Node{
			Name:        j.Name,
			Children:    append([]int(nil), j.Children...),
			Translation: vec3(local.Translation()),
			Rotation:    quat(mathutil.QuatFromMat3(local.Rotation())),
			Scale:       [3]float64{1, 1, 1},
			Matrix:      [16]float64{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1},
		})
	}

	name := opts.Name
	if name == "" {
		name = "clip"
	}
	anim := &gltf.Animation{Name: name}

	input := make([]float32, len(times))
	for i, ts := range times {
		input[i] = float32(ts - times[0])
	}
	inputIdx := modeler.WriteAccessor(doc, gltf.TargetNone, input)
	doc.Accessors[inputIdx].Min = []float64{float64(input[0])}
	doc.Accessors[inputIdx].Max = []float64{float64(input[len(input)-1])}

	addChannel := func(node int, path gltf.TRSProperty, output int) {
		anim.Samplers = append(anim.Samplers, &gltf.AnimationSampler{
			Input:         inputIdx,
			Output:        output,
			Interpolation: gltf.InterpolationLinear,
		})
		anim.Channels = append(anim.Channels, &gltf.AnimationChannel{
			Sampler: len(anim.Samplers) - 1,
			Target:  gltf.AnimationChannelTarget{Node: ptr(node), Path: path},
		})
	}

	for i := range sk.Joints {
		j := &sk.Joints[i]
		if i == 0 && j.HasPosition() {
			addChannel(i, gltf.TRSTranslation, modeler.WriteAccessor(doc, gltf.TargetNone, translations(poses, i)))
		}
		if hasRotation(j) {
			addChannel(i, gltf.TRSRotation, modeler.WriteAccessor(doc, gltf.TargetNone, rotations(poses, i)))
		}
	}
	if len(anim.Channels) > 0 {
		doc.Animations = append(doc.Animations, anim)
	}
	return doc, nil
}

// Save writes doc as binary glTF when path ends in .glb and as JSON glTF with
// an embedded buffer otherwise.
func Save(doc *gltf.Document, path string) error {
	var err error
	if strings.EqualFold(filepath.Ext(path), ".glb") {
		err = gltf.SaveBinary(doc, path)
	} else {
		for _, b := range doc.Buffers {
			if b.URI == "" {
				b.EmbeddedResource()
			}
		}
		err = gltf.Save(doc, path)
	}
	if err != nil {
		return fmt.Errorf("export: save %s: %w", path, err)
	}
	return nil
}

// sampleTimes returns the source frame times, or a resampling of one loop of
// the clip at fps.
func sampleTimes(sk *bvh.Skeleton, fps float64) []float64 {
	if fps <= 0 {
		out := make([]float64, sk.NumFrames())
		for i := range out {
			// Mid-frame keeps float error in i*FrameTime from selecting frame i-1.
			out[i] = (float64(i) + 0.5) * sk.FrameTime
		}
		return out
	}
	n := int(math.Ceil(sk.Duration()*fps)) + 1
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i) / fps
	}
	return out
}

func translations(poses []*skeleton.Pose, joint int) [][3]float32 {
	out := make([][3]float32, len(poses))
	for i, p := range poses {
		t := p.Joints[joint].Local.Translation()
		out[i] = [3]float32{float32(t[0]), float32(t[1]), float32(t[2])}
	}
	return out
}

// rotations keeps consecutive quaternions in the same hemisphere so linear
// interpolation between keys takes the short way round.
func rotations(poses []*skeleton.Pose, joint int) [][4]float32 {
	out := make([][4]float32, len(poses))
	var prev mathutil.Quat
	for i, p := range poses {
		q := mathutil.QuatFromMat3(p.Joints[joint].Local.Rotation())
		if i > 0 && q.Dot(prev) < 0 {
			q = q.Neg()
		}
		prev = q
		out[i] = [4]float32{float32(q[0]), float32(q[1]), float32(q[2]), float32(q[3])}
	}
	return out
}

func hasRotation(j *bvh.Joint) bool {
	for _, c := range j.Channels {
		if c.IsRotation() {
			return true
		}
	}
	return false
}

func vec3(v mathutil.Vec3) [3]float64 {
	return [3]float64{v[0], v[1], v[2]}
}

func quat(q mathutil.Quat) [4]float64 {
	return [4]float64{q[0], q[1], q[2], q[3]}
}

func ptr(i int) *int {
	return &i
}
