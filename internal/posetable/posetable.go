// Package posetable flattens an evaluated pose into per-joint rows and writes
// them as aligned text, JSON or YAML.
package posetable

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"

	"gopkg.in/yaml.v3"

	"bvh-pose-renderer/internal/bvh"
	"bvh-pose-renderer/internal/mathutil"
	"bvh-pose-renderer/internal/skeleton"
)

// Format selects the output encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// DefaultPrecision is the number of decimals kept by Build.
const DefaultPrecision = 6

// ParseFormat accepts text, json, yaml and yml.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "text", "txt":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("posetable: unknown format %q", s)
}

// Row is one joint's world-space position and orientation.
type Row struct {
	Joint    string     `json:"joint" yaml:"joint"`
	Parent   string     `json:"parent,omitempty" yaml:"parent,omitempty"`
	Position [3]float64 `json:"position" yaml:"position,flow"`
	Rotation [4]float64 `json:"rotation" yaml:"rotation,flow"` // x, y, z, w
}

// Table is a pose snapshot.
type Table struct {
	Time         float64 `json:"time" yaml:"time"`
	Frame        int     `json:"frame" yaml:"frame"`
	Next         int     `json:"next" yaml:"next"`
	Fraction     float64 `json:"fraction" yaml:"fraction"`
	Interpolated bool    `json:"interpolated" yaml:"interpolated"`
	Joints       []Row   `json:"joints" yaml:"joints"`
}

// Build converts p into a table with values rounded to precision decimals.
// Quaternions are sign-normalized so w is non-negative.
func Build(p *skeleton.Pose, precision int) Table {
	r := rounder(precision)
	tbl := Table{
		Time:         r(p.Time),
		Frame:        p.State.Frame,
		Next:         p.State.Next,
		Fraction:     r(p.State.T),
		Interpolated: p.Interpolated,
		Joints:       make([]Row, len(p.Joints)),
	}
	for i, j := range p.Joints {
		row := Row{Joint: j.Name}
		if j.Parent >= 0 {
			row.Parent = p.Joints[j.Parent].Name
		}
		pos := j.Position()
		for k := range pos {
			row.Position[k] = r(pos[k])
		}
		q := canonical(j.Orientation())
		for k := range q {
			row.Rotation[k] = r(q[k])
		}
		tbl.Joints[i] = row
	}
	return tbl
}

func canonical(q mathutil.Quat) mathutil.Quat {
	if q[3] < 0 {
		return q.Neg()
	}
	return q
}

func rounder(precision int) func(float64) float64 {
	scale := math.Pow(10, float64(precision))
	return func(v float64) float64 {
		v = math.Round(v*scale) / scale
		if v == 0 {
			return 0 // drop the sign of -0
		}
		return v
	}
}

// Write encodes tbl to w.
func (tbl Table) Write(w io.Writer, f Format) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(tbl)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(tbl); err != nil {
			return fmt.Errorf("posetable: encode yaml: %w", err)
		}
		return enc.Close()
	case FormatText, "":
		return tbl.writeText(w)
	}
	return fmt.Errorf("posetable: unknown format %q", f)
}

func (tbl Table) writeText(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "time %.6f  frame %d -> %d  t %.6f  interpolated %v\n",
		tbl.Time, tbl.Frame, tbl.Next, tbl.Fraction, tbl.Interpolated); err != nil {
		return err
	}
	fmt.Fprintf(w, "%-16s %-16s %10s %10s %10s %9s %9s %9s %9s\n",
		"joint", "parent", "x", "y", "z", "qx", "qy", "qz", "qw")
	for _, r := range tbl.Joints {
		parent := r.Parent
		if parent == "" {
			parent = "-"
		}
		_, err := fmt.Fprintf(w, "%-16s %-16s %10.4f %10.4f %10.4f %9.6f %9.6f %9.6f %9.6f\n",
			r.Joint, parent,
			r.Position[0], r.Position[1], r.Position[2],
			r.Rotation[0], r.Rotation[1], r.Rotation[2], r.Rotation[3])
		if err != nil {
			return err
		}
	}
	return nil
}

// WriteHierarchy prints the joint tree with channel layout, one joint per line.
func WriteHierarchy(w io.Writer, sk *bvh.Skeleton) error {
	fmt.Fprintf(w, "%d joints, %d channels, %d frames at %gs (%.3fs)\n",
		len(sk.Joints), sk.ChannelCount, sk.NumFrames(), sk.FrameTime, sk.Duration())
	return writeJoint(w, sk, 0, 0)
}

func writeJoint(w io.Writer, sk *bvh.Skeleton, idx, depth int) error {
	j := &sk.Joints[idx]
	line := fmt.Sprintf("%s%s offset(%g, %g, %g)",
		strings.Repeat("  ", depth), j.Name, j.Offset[0], j.Offset[1], j.Offset[2])
	switch {
	case j.EndSite:
		line += " end"
	case len(j.Channels) > 0:
		names := make([]string, len(j.Channels))
		for i, c := range j.Channels {
			names[i] = c.String()
		}
		line += fmt.Sprintf(" order %s [%s]", j.RotationOrder, strings.Join(names, " "))
	}
	if _, err := fmt.Fprintln(w, line); err != nil {
		return err
	}
	for _, c := range j.Children {
		if err := writeJoint(w, sk, c, depth+1); err != nil {
			return err
		}
	}
	return nil
}
