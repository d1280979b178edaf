package bvh

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Write emits sk in BVH text form. Numbers use the shortest representation
// that parses back to the same float64, so Parse(Write(sk)) reproduces sk.
func Write(w io.Writer, sk *Skeleton) error {
	if err := sk.Validate(); err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	bw.WriteString("HIERARCHY\n")
	writeJoint(bw, sk, 0, 0)

	bw.WriteString("MOTION\n")
	fmt.Fprintf(bw, "Frames: %d\n", len(sk.Frames))
	fmt.Fprintf(bw, "Frame Time: %s\n", formatFloat(sk.FrameTime))
	for _, row := range sk.Frames {
		for i, v := range row {
			if i > 0 {
				bw.WriteByte(' ')
			}
			bw.WriteString(formatFloat(v))
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

func writeJoint(bw *bufio.Writer, sk *Skeleton, idx, depth int) {
	j := &sk.Joints[idx]
	indent := strings.Repeat("\t", depth)

	switch {
	case j.Parent < 0:
		fmt.Fprintf(bw, "%sROOT %s\n", indent, j.Name)
	case j.EndSite:
		fmt.Fprintf(bw, "%sEnd Site\n", indent)
	default:
		fmt.Fprintf(bw, "%sJOINT %s\n", indent, j.Name)
	}
	fmt.Fprintf(bw, "%s{\n", indent)
	fmt.Fprintf(bw, "%s\tOFFSET %s %s %s\n", indent,
		formatFloat(j.Offset[0]), formatFloat(j.Offset[1]), formatFloat(j.Offset[2]))

	if !j.EndSite {
		names := make([]string, len(j.Channels))
		for i, c := range j.Channels {
			names[i] = c.String()
		}
		fmt.Fprintf(bw, "%s\tCHANNELS %d", indent, len(j.Channels))
		if len(names) > 0 {
			fmt.Fprintf(bw, " %s", strings.Join(names, " "))
		}
		bw.WriteByte('\n')
	}

	for _, c := range j.Children {
		writeJoint(bw, sk, c, depth+1)
	}
	fmt.Fprintf(bw, "%s}\n", indent)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
