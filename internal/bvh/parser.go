package bvh

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"bvh-pose-renderer/internal/mathutil"
)

// maxLineLen bounds a single motion row; long captures put hundreds of
// channels on one line.
const maxLineLen = 64 << 20

// Parse reads a BVH document and returns the skeleton with its frame table.
// A UTF-8 or UTF-16 byte order mark is honoured. Errors are
// *ParseStructureError or *ChannelMismatchError; no partial skeleton is returned.
func Parse(r io.Reader) (*Skeleton, error) {
	lines, err := readLines(transform.NewReader(r, unicode.BOMOverride(transform.Nop)))
	if err != nil {
		return nil, fmt.Errorf("bvh: read: %w", err)
	}

	p := &parser{lines: lines, names: make(map[string]bool)}
	return p.parse()
}

// ParseString parses a BVH document held in memory.
func ParseString(s string) (*Skeleton, error) {
	return Parse(strings.NewReader(s))
}

// ParseFile reads and parses the BVH file at path.
func ParseFile(path string) (*Skeleton, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("bvh: read %s: %w", path, err)
	}
	defer f.Close()

	sk, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("bvh: parse %s: %w", path, err)
	}
	return sk, nil
}

func readLines(r io.Reader) ([]string, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineLen)

	var lines []string
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	return lines, sc.Err()
}

type token struct {
	text string
	line int // 1-based
}

type parser struct {
	lines []string

	// Hierarchy tokens, everything before the MOTION line.
	toks []token
	pos  int

	motion int // index into lines of the MOTION keyword
	names  map[string]bool
	sk     Skeleton
}

func (p *parser) parse() (*Skeleton, error) {
	p.motion = -1
	for i, l := range p.lines {
		fields := strings.Fields(l)
		if len(fields) > 0 && fields[0] == "MOTION" {
			p.motion = i
			break
		}
		for _, f := range fields {
			p.toks = append(p.toks, token{text: f, line: i + 1})
		}
	}
	if p.motion < 0 {
		return nil, structErr(SectionMotion, len(p.lines), "missing MOTION keyword")
	}

	if err := p.parseHierarchy(); err != nil {
		return nil, err
	}
	if err := p.parseMotion(); err != nil {
		return nil, err
	}

	sk := p.sk
	return &sk, nil
}

func structErr(section string, line int, msg string) error {
	return &ParseStructureError{Section: section, Line: line, Msg: msg}
}

// --- HIERARCHY ---

func (p *parser) next() (token, error) {
	if p.pos >= len(p.toks) {
		// Running into MOTION means a joint block was never closed.
		return token{}, structErr(SectionHierarchy, p.motion+1, "unbalanced braces: hierarchy ends inside a joint block")
	}
	t := p.toks[p.pos]
	p.pos++
	return t, nil
}

func (p *parser) expect(want string) (token, error) {
	if p.pos >= len(p.toks) {
		return token{}, structErr(SectionHierarchy, p.motion+1, fmt.Sprintf("missing %s keyword", want))
	}
	t := p.toks[p.pos]
	if t.text != want {
		return t, structErr(SectionHierarchy, t.line, fmt.Sprintf("expected %q, found %q", want, t.text))
	}
	p.pos++
	return t, nil
}

func (p *parser) float() (float64, error) {
	t, err := p.next()
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(t.text, 64)
	if err != nil {
		return 0, &ParseStructureError{Section: SectionHierarchy, Line: t.line, Msg: fmt.Sprintf("malformed number %q", t.text), Err: err}
	}
	return v, nil
}

func (p *parser) parseHierarchy() error {
	if _, err := p.expect("HIERARCHY"); err != nil {
		return err
	}
	root, err := p.expect("ROOT")
	if err != nil {
		return err
	}
	if err := p.parseJoint(-1, root, false); err != nil {
		return err
	}
	if p.pos < len(p.toks) {
		t := p.toks[p.pos]
		return structErr(SectionHierarchy, t.line, fmt.Sprintf("unexpected %q after the root joint", t.text))
	}
	return nil
}

// jointName consumes the remaining tokens on the keyword's line up to "{".
func (p *parser) jointName(kw token) []string {
	var parts []string
	for p.pos < len(p.toks) && p.toks[p.pos].line == kw.line && p.toks[p.pos].text != "{" {
		parts = append(parts, p.toks[p.pos].text)
		p.pos++
	}
	return parts
}

func (p *parser) endSiteName(parent int) string {
	base := p.sk.Joints[parent].Name + "_End"
	name := base
	for i := 2; p.names[name]; i++ {
		name = base + strconv.Itoa(i)
	}
	return name
}

// parseJoint reads a ROOT, JOINT or End Site block; kw is its keyword token.
func (p *parser) parseJoint(parent int, kw token, endSite bool) error {
	var name string
	if endSite {
		if _, err := p.expect("Site"); err != nil {
			return err
		}
		name = p.endSiteName(parent)
	} else {
		parts := p.jointName(kw)
		if len(parts) == 0 {
			return structErr(SectionHierarchy, kw.line, fmt.Sprintf("%s without a name", kw.text))
		}
		name = strings.Join(parts, " ")
		if p.names[name] {
			return structErr(SectionHierarchy, kw.line, fmt.Sprintf("duplicate joint name %q", name))
		}
	}
	p.names[name] = true

	idx := len(p.sk.Joints)
	p.sk.Joints = append(p.sk.Joints, Joint{
		Name:          name,
		Parent:        parent,
		EndSite:       endSite,
		PositionIndex: [3]int{NoChannel, NoChannel, NoChannel},
		RotationIndex: [3]int{NoChannel, NoChannel, NoChannel},
		RotationOrder: mathutil.OrderXYZ,
	})
	if parent >= 0 {
		p.sk.Joints[parent].Children = append(p.sk.Joints[parent].Children, idx)
	}

	if _, err := p.expect("{"); err != nil {
		return err
	}

	hasOffset := false
	for {
		t, err := p.next()
		if err != nil {
			return err
		}

		switch t.text {
		case "}":
			if !hasOffset {
				return structErr(SectionHierarchy, t.line, fmt.Sprintf("joint %q has no OFFSET", name))
			}
			return nil

		case "OFFSET":
			if hasOffset {
				return structErr(SectionHierarchy, t.line, fmt.Sprintf("joint %q declares OFFSET twice", name))
			}
			var off mathutil.Vec3
			for k := range off {
				if off[k], err = p.float(); err != nil {
					return err
				}
			}
			p.sk.Joints[idx].Offset = off
			hasOffset = true

		case "CHANNELS":
			if endSite {
				return structErr(SectionHierarchy, t.line, "End Site cannot declare CHANNELS")
			}
			if err := p.parseChannels(idx); err != nil {
				return err
			}

		case "JOINT", "End":
			if endSite {
				return structErr(SectionHierarchy, t.line, "End Site cannot have children")
			}
			if err := p.parseJoint(idx, t, t.text == "End"); err != nil {
				return err
			}

		default:
			return structErr(SectionHierarchy, t.line, fmt.Sprintf("unexpected %q in joint %q", t.text, name))
		}
	}
}

func (p *parser) parseChannels(idx int) error {
	t, err := p.next()
	if err != nil {
		return err
	}
	n, err := strconv.Atoi(t.text)
	if err != nil {
		return &ParseStructureError{Section: SectionHierarchy, Line: t.line, Msg: fmt.Sprintf("malformed channel count %q", t.text), Err: err}
	}
	if n < 0 || n > 6 {
		return structErr(SectionHierarchy, t.line, fmt.Sprintf("channel count %d outside 0..6", n))
	}

	// No joints are appended below, so the pointer stays valid.
	j := &p.sk.Joints[idx]
	if len(j.Channels) > 0 {
		return structErr(SectionHierarchy, t.line, fmt.Sprintf("joint %q declares CHANNELS twice", j.Name))
	}

	var declared []mathutil.Axis
	for i := 0; i < n; i++ {
		ct, err := p.next()
		if err != nil {
			return err
		}
		c, ok := parseChannel(ct.text)
		if !ok {
			return structErr(SectionHierarchy, ct.line, fmt.Sprintf("CHANNELS declares %d entries but %q is not a channel", n, ct.text))
		}

		cols := &j.PositionIndex
		if c.IsRotation() {
			cols = &j.RotationIndex
			declared = append(declared, c.Axis())
		}
		if cols[c.Axis()] != NoChannel {
			return structErr(SectionHierarchy, ct.line, fmt.Sprintf("joint %q repeats channel %s", j.Name, c))
		}
		cols[c.Axis()] = p.sk.ChannelCount
		p.sk.ChannelCount++
		j.Channels = append(j.Channels, c)
	}
	j.RotationOrder = rotationOrder(declared)
	return nil
}

// rotationOrder completes the declared axes with the missing ones in X,Y,Z order.
func rotationOrder(declared []mathutil.Axis) mathutil.RotationOrder {
	var order mathutil.RotationOrder
	var used [3]bool
	n := 0
	for _, a := range declared {
		order[n] = a
		used[a] = true
		n++
	}
	for a := mathutil.AxisX; a <= mathutil.AxisZ; a++ {
		if !used[a] {
			order[n] = a
			n++
		}
	}
	return order
}

// --- MOTION ---

// nextLine advances *i past blank lines and returns the fields of the next
// non-blank line with its 1-based number.
func (p *parser) nextLine(i *int) ([]string, int, bool) {
	for ; *i < len(p.lines); *i++ {
		fields := strings.Fields(p.lines[*i])
		if len(fields) > 0 {
			line := *i + 1
			*i++
			return fields, line, true
		}
	}
	return nil, len(p.lines), false
}

func (p *parser) parseMotion() error {
	i := p.motion + 1

	fields, line, ok := p.nextLine(&i)
	if !ok || fields[0] != "Frames:" {
		return structErr(SectionMotion, line, "missing Frames declaration")
	}
	if len(fields) != 2 {
		return structErr(SectionMotion, line, `expected "Frames: <count>"`)
	}
	count, err := strconv.Atoi(fields[1])
	if err != nil {
		return &ParseStructureError{Section: SectionMotion, Line: line, Msg: fmt.Sprintf("malformed frame count %q", fields[1]), Err: err}
	}
	if count < 1 {
		return structErr(SectionMotion, line, fmt.Sprintf("frame count %d must be at least 1", count))
	}

	fields, line, ok = p.nextLine(&i)
	if !ok || len(fields) < 2 || fields[0] != "Frame" || fields[1] != "Time:" {
		return structErr(SectionMotion, line, "missing Frame Time declaration")
	}
	if len(fields) != 3 {
		return structErr(SectionMotion, line, `expected "Frame Time: <seconds>"`)
	}
	frameTime, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return &ParseStructureError{Section: SectionMotion, Line: line, Msg: fmt.Sprintf("malformed frame time %q", fields[2]), Err: err}
	}
	if !(frameTime > 0) || math.IsInf(frameTime, 0) {
		return structErr(SectionMotion, line, fmt.Sprintf("frame time %g must be positive", frameTime))
	}

	frames := make([][]float64, 0, count)
	last := line
	if p.sk.ChannelCount == 0 {
		// Rows of a channel-less skeleton are empty lines.
		for len(frames) < count {
			frames = append(frames, []float64{})
		}
	}
	for {
		fields, line, ok = p.nextLine(&i)
		if !ok {
			break
		}
		if len(fields) != p.sk.ChannelCount {
			return &ChannelMismatchError{
				Section: SectionMotion,
				Line:    line,
				Msg:     fmt.Sprintf("frame %d value count differs from hierarchy channels", len(frames)),
				Want:    p.sk.ChannelCount,
				Got:     len(fields),
			}
		}
		row := make([]float64, len(fields))
		for k, f := range fields {
			if row[k], err = strconv.ParseFloat(f, 64); err != nil {
				return &ParseStructureError{Section: SectionMotion, Line: line, Msg: fmt.Sprintf("malformed number %q", f), Err: err}
			}
		}
		frames = append(frames, row)
		last = line
	}

	if len(frames) != count {
		return &ChannelMismatchError{
			Section: SectionMotion,
			Line:    last,
			Msg:     "declared frame count differs from motion lines",
			Want:    count,
			Got:     len(frames),
		}
	}

	p.sk.FrameTime = frameTime
	p.sk.Frames = frames
	return nil
}
