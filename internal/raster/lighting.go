package raster

import (
	"math"

	"bvh-pose-renderer/internal/mathutil"
)

// Light is a fixed two-light rig for the stick figure: a key from the upper
// right and a rim from behind, plus sky fill and a specular highlight along
// the key. Directions are in camera space and must be unit length.
type Light struct {
	Key, Rim, Eye mathutil.Vec3

	Ambient, Sky, KeyGain, RimGain float64
	Gloss, Shininess               float64
	Exposure                       float64
}

// DefaultLight is the rig every rendered frame uses.
func DefaultLight() Light {
	return Light{
		Key:       mathutil.Vec3{0.5, 0.7, 0.5}.Normalize(),
		Rim:       mathutil.Vec3{-0.55, 0.4, -0.7}.Normalize(),
		Eye:       mathutil.Vec3{0, -0.25, -1}.Normalize(),
		Ambient:   0.35,
		Sky:       0.40,
		KeyGain:   1.10,
		RimGain:   0.40,
		Gloss:     0.30,
		Shininess: 16,
		Exposure:  1,
	}
}

// Intensity is the light reaching a face with camera-space normal n. Bones
// are closed prisms, but the key and rim terms use |n·l| so a face seen from
// inside after a near-plane clip is still lit.
func (l Light) Intensity(n mathutil.Vec3) float64 {
	key := math.Abs(n.Dot(l.Key))
	rim := math.Abs(n.Dot(l.Rim))

	// horizontal faces catch less sky than vertical ones
	sky := l.Sky * (1 - 0.5*math.Abs(n[1]))

	half := l.Key.Sub(l.Eye).Normalize()
	spec := l.Gloss * math.Pow(math.Max(n.Dot(half), 0), l.Shininess)

	return l.Ambient + sky + key*l.KeyGain + rim*l.RimGain + spec
}

// Apply scales an sRGB color by k in linear light and maps it back through
// a filmic curve so bright faces roll off instead of clipping. Alpha is kept.
func (l Light) Apply(c [4]uint8, k float64) [4]uint8 {
	out := c
	for i := range 3 {
		v := filmic(linearOf[c[i]] * k * l.Exposure)
		out[i] = toByte(math.Pow(v, 1/gamma) * 255)
	}
	return out
}

const gamma = 2.2

var linearOf = func() (lut [256]float64) {
	for i := range lut {
		lut[i] = math.Pow(float64(i)/255, gamma)
	}
	return lut
}()

// filmic is the Narkowicz fit of the ACES curve.
func filmic(x float64) float64 {
	return x * (2.51*x + 0.03) / (x*(2.43*x+0.59) + 0.14)
}

func toByte(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return uint8(v + 0.5)
}
