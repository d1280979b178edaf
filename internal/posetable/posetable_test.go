package posetable

import (
	"bytes"
	"math"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"bvh-pose-renderer/internal/bvh"
	"bvh-pose-renderer/internal/skeleton"
)

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func frame0(t *testing.T) (*bvh.Skeleton, Table) {
	t.Helper()
	sk, err := bvh.ParseFile("testdata/two_joint.bvh")
	require.NoError(t, err)
	return sk, Build(skeleton.Evaluate(sk, 0, false), DefaultPrecision)
}

func TestGoldenText(t *testing.T) {
	_, tbl := frame0(t)
	var buf bytes.Buffer
	require.NoError(t, tbl.Write(&buf, FormatText))
	newGoldie(t).Assert(t, "two_joint_frame0.txt", buf.Bytes())
}

func TestGoldenJSON(t *testing.T) {
	_, tbl := frame0(t)
	var buf bytes.Buffer
	require.NoError(t, tbl.Write(&buf, FormatJSON))
	newGoldie(t).Assert(t, "two_joint_frame0.json", buf.Bytes())
}

func TestGoldenHierarchy(t *testing.T) {
	sk, _ := frame0(t)
	var buf bytes.Buffer
	require.NoError(t, WriteHierarchy(&buf, sk))
	newGoldie(t).Assert(t, "two_joint_hierarchy", buf.Bytes())
}

func TestYAMLDecodesBack(t *testing.T) {
	_, tbl := frame0(t)
	var buf bytes.Buffer
	require.NoError(t, tbl.Write(&buf, FormatYAML))
	assert.Contains(t, buf.String(), "rotation: [0, 0, 0.707107, 0.707107]")

	var got Table
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, tbl, got)
}

func TestBuildNormalizesSigns(t *testing.T) {
	_, tbl := frame0(t)
	for _, r := range tbl.Joints {
		assert.GreaterOrEqual(t, r.Rotation[3], 0.0, r.Joint)
		for _, v := range append(r.Position[:], r.Rotation[:]...) {
			assert.False(t, math.Signbit(v) && v == 0, "negative zero in %s", r.Joint)
		}
	}
	assert.Empty(t, tbl.Joints[0].Parent)
	assert.Equal(t, "Chest", tbl.Joints[2].Parent)
}

func TestRounder(t *testing.T) {
	r := rounder(3)
	assert.Equal(t, 1.235, r(1.23456))
	assert.Equal(t, 0.0, r(-0.0001))
	assert.False(t, math.Signbit(r(-0.0001)))
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatText, "TEXT": FormatText, "json": FormatJSON, "yml": FormatYAML} {
		f, err := ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, f)
	}
	_, err := ParseFormat("csv")
	assert.Error(t, err)

	_, tbl := frame0(t)
	assert.Error(t, tbl.Write(&bytes.Buffer{}, Format("csv")))
}
