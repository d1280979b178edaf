package batch

import (
	"encoding/json"
	"fmt"
	"os"

	"bvh-pose-renderer/internal/bvh"
)

// Manifest describes a rendered clip.
type Manifest struct {
	Source    string          `json:"source"`
	FrameTime float64         `json:"frame_time"`
	Frames    int             `json:"source_frames"`
	FPS       float64         `json:"fps"`
	Size      int             `json:"size"`
	Images    []ManifestEntry `json:"images"`
}

// ManifestEntry represents one rendered image in the output manifest.
type ManifestEntry struct {
	Index       int     `json:"index"`
	Time        float64 `json:"time"`
	SourceFrame int     `json:"source_frame"`
	Image       string  `json:"image"`
}

// NewManifest lists the successful results in index order.
func NewManifest(source string, sk *bvh.Skeleton, fps float64, size int, results []Result) Manifest {
	m := Manifest{
		Source:    source,
		FrameTime: sk.FrameTime,
		Frames:    sk.NumFrames(),
		FPS:       fps,
		Size:      size,
		Images:    []ManifestEntry{},
	}
	for _, r := range results {
		if !r.Success {
			continue
		}
		m.Images = append(m.Images, ManifestEntry{
			Index:       r.Index,
			Time:        r.Time,
			SourceFrame: r.SourceFrame,
			Image:       r.Path,
		})
	}
	return m
}

// WriteManifest writes the manifest as indented JSON to path.
func WriteManifest(path string, m Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("batch: write manifest %s: %w", path, err)
	}
	return nil
}
