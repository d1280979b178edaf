package batch

import (
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/HugoSmits86/nativewebp"
	"github.com/ftrvxmtrx/tga"

	"bvh-pose-renderer/internal/bvh"
	"bvh-pose-renderer/internal/mathutil"
	"bvh-pose-renderer/internal/postprocess"
	"bvh-pose-renderer/internal/raster"
	"bvh-pose-renderer/internal/skeleton"
)

// Config holds all shared resources for a batch run.
type Config struct {
	OutputDir   string
	RenderSize  int
	Supersample int
	Workers     int
	Format      string // "webp" or "tga"
	Interpolate bool
	View        mathutil.Mat3
	Style       raster.Style
	Logger      *slog.Logger

	// ProgressInterval is how often progress is logged. Zero means 2s.
	ProgressInterval time.Duration
}

// Frame is one output image: its sequence number and clip timestamp.
type Frame struct {
	Index int
	Time  float64
}

// Result holds the outcome of rendering one frame.
type Result struct {
	Index       int
	Time        float64
	SourceFrame int
	Path        string
	Success     bool
	Error       string
}

// Run renders frames of sk using a worker pool. The skeleton is shared by all
// workers; each frame is evaluated independently. Cancelling ctx stops
// dispatching new frames, and frames never started report ctx.Err().
func Run(ctx context.Context, cfg Config, sk *bvh.Skeleton, frames []Frame) []Result {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	workers := max(cfg.Workers, 1)
	interval := cfg.ProgressInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}

	total := len(frames)
	results := make([]Result, total)
	var processed atomic.Int64

	// One framing for the whole clip keeps the figure steady between frames.
	bounds := skeleton.ClipBounds(sk)
	start := time.Now()

	// Progress reporter
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				p := processed.Load()
				if p > 0 {
					rate := float64(p) / time.Since(start).Seconds()
					log.Info("rendering", "done", p, "total", total, "fps", fmt.Sprintf("%.1f", rate))
				}
			}
		}
	}()

	// Worker pool
	frameChan := make(chan int, workers*2)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range frameChan {
				results[idx] = renderFrame(cfg, sk, bounds, frames[idx])
				processed.Add(1)
			}
		}()
	}

	// Send work
	sent := 0
dispatch:
	for ; sent < total && ctx.Err() == nil; sent++ {
		select {
		case <-ctx.Done():
			break dispatch
		case frameChan <- sent:
		}
	}
	close(frameChan)

	wg.Wait()
	close(done)

	for i := sent; i < total; i++ {
		results[i] = Result{Index: frames[i].Index, Time: frames[i].Time, Error: ctx.Err().Error()}
	}

	failed := 0
	for _, r := range results {
		if !r.Success {
			failed++
		}
	}
	log.Info("frames rendered",
		"done", total-failed,
		"failed", failed,
		"elapsed", time.Since(start).Round(time.Millisecond))

	return results
}

func renderFrame(cfg Config, sk *bvh.Skeleton, bounds skeleton.Bounds, fr Frame) Result {
	pose := skeleton.Evaluate(sk, fr.Time, cfg.Interpolate)
	res := Result{Index: fr.Index, Time: fr.Time, SourceFrame: pose.State.Frame}

	ss := max(cfg.Supersample, 1)
	st := cfg.Style
	st.Margin *= ss
	img := raster.RenderPose(sk, pose, cfg.View, bounds, cfg.RenderSize*ss, st)

	// Post-processing: supersample downsample
	if ss > 1 {
		img = postprocess.Downsample(img, cfg.RenderSize)
	}

	res.Path = FrameName(fr.Index, cfg.Format)
	outPath := filepath.Join(cfg.OutputDir, res.Path)
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		res.Error = err.Error()
		return res
	}

	if err := writeImage(outPath, img, cfg.Format); err != nil {
		res.Error = err.Error()
		return res
	}

	res.Success = true
	return res
}

// writeImage encodes img into path. A failed Close counts as a failed write.
func writeImage(path string, img image.Image, format string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Encode(f, img, format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// FrameName is the output file name of frame i, relative to the output dir.
func FrameName(i int, format string) string {
	return fmt.Sprintf("%05d.%s", i, extension(format))
}

func extension(format string) string {
	if format == "tga" {
		return "tga"
	}
	return "webp"
}

// Encode writes img as WebP (lossless) or TGA.
func Encode(w io.Writer, img image.Image, format string) error {
	switch format {
	case "tga":
		if err := tga.Encode(w, img); err != nil {
			return fmt.Errorf("batch: tga encode: %w", err)
		}
	case "webp", "":
		if err := nativewebp.Encode(w, img, nil); err != nil {
			return fmt.Errorf("batch: webp encode: %w", err)
		}
	default:
		return fmt.Errorf("batch: unknown format %q", format)
	}
	return nil
}

// Frames numbers a list of clip timestamps.
func Frames(times []float64) []Frame {
	out := make([]Frame, len(times))
	for i, ts := range times {
		out[i] = Frame{Index: i, Time: ts}
	}
	return out
}
