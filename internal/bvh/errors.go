package bvh

import (
	"errors"
	"fmt"
)

// Sentinels matched by errors.Is on the typed parse errors.
var (
	ErrParseStructure  = errors.New("bvh: malformed structure")
	ErrChannelMismatch = errors.New("bvh: channel count mismatch")
)

// Sections of a BVH file, used as error context.
const (
	SectionHierarchy = "HIERARCHY"
	SectionMotion    = "MOTION"
)

// ParseStructureError reports a missing keyword or section, unbalanced braces,
// or a malformed literal. Line is 1-based.
type ParseStructureError struct {
	Section string
	Line    int
	Msg     string
	Err     error // underlying cause, if any
}

func (e *ParseStructureError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s line %d: %s: %v", e.Section, e.Line, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s line %d: %s", e.Section, e.Line, e.Msg)
}

func (e *ParseStructureError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrParseStructure, e.Err}
	}
	return []error{ErrParseStructure}
}

// ChannelMismatchError reports a frame row whose length differs from the
// hierarchy's channel total, or a frame count that differs from the rows present.
type ChannelMismatchError struct {
	Section string
	Line    int
	Msg     string
	Want    int
	Got     int
}

func (e *ChannelMismatchError) Error() string {
	return fmt.Sprintf("%s line %d: %s: want %d, got %d", e.Section, e.Line, e.Msg, e.Want, e.Got)
}

func (e *ChannelMismatchError) Unwrap() error {
	return ErrChannelMismatch
}

// IndexIntegrityError means a channel column lies outside the frame row.
// Parsed skeletons never produce it; seeing one is a bug, so the evaluator panics with it.
type IndexIntegrityError struct {
	Joint  string // empty when the row itself is short
	Frame  int    // -1 when not tied to a frame
	Column int
	RowLen int
}

func (e *IndexIntegrityError) Error() string {
	if e.Joint == "" {
		return fmt.Sprintf("bvh: frame %d has %d columns, want %d", e.Frame, e.RowLen, e.Column+1)
	}
	return fmt.Sprintf("bvh: joint %q column %d outside row of %d", e.Joint, e.Column, e.RowLen)
}
