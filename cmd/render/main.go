package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"bvh-pose-renderer/internal/animator"
	"bvh-pose-renderer/internal/batch"
	"bvh-pose-renderer/internal/bvh"
	"bvh-pose-renderer/internal/config"
	"bvh-pose-renderer/internal/raster"
	"bvh-pose-renderer/internal/viewmatrix"
)

func main() {
	// CLI flags
	configFile := flag.String("config", "", "Path to config file (.json, .yaml or .yml)")
	input := flag.String("input", "", "BVH file to render (overrides config)")
	outputDir := flag.String("output", "", "Output directory (default: <input>-frames)")
	workers := flag.Int("workers", 0, "Number of worker goroutines (default: NumCPU)")
	format := flag.String("format", "", "Frame format: webp or tga (default: webp)")
	fps := flag.Float64("fps", 0, "Output frame rate (default: 30)")
	speed := flag.Float64("speed", 0, "Playback speed, clamped to [0.01, 2] (default: 1)")
	frames := flag.Int("frames", 0, "Render this many frames (default: one loop)")
	verbose := flag.Bool("v", false, "Verbose logging")

	flag.Parse()
	if *input == "" && flag.NArg() > 0 {
		*input = flag.Arg(0)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	// Load config
	var cfg config.Config
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}

	// CLI flags override config file
	cfg.Resolve(config.Flags{
		Input:     *input,
		OutputDir: *outputDir,
		Workers:   *workers,
		Format:    *format,
		FPS:       *fps,
		Speed:     *speed,
		Frames:    *frames,
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	sk, err := bvh.ParseFile(cfg.Input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logger.Debug("clip loaded", "joints", len(sk.Joints), "frames", sk.NumFrames(), "frame_time", sk.FrameTime)

	anim := animator.New(sk, animator.Options{
		Interpolate: *cfg.Interpolate,
		Speed:       cfg.Speed,
		Playing:     true,
	})
	n := cfg.FrameLimit
	if n <= 0 {
		n = anim.FramesPerLoop(cfg.FPS)
	}
	timeline := batch.Frames(anim.Timeline(n, cfg.FPS))

	style := raster.DefaultStyle()
	style.BoneWidth = cfg.BoneWidth

	fmt.Printf("BVH pose renderer → %s\n", cfg.Format)
	fmt.Printf("Clip: %s (%d joints, %d frames, %.2fs)\n", cfg.Input, len(sk.Joints), sk.NumFrames(), sk.Duration())
	fmt.Printf("Frames: %d at %.1f fps, speed %.2f, Workers: %d\n", n, cfg.FPS, anim.Speed(), cfg.Workers)
	fmt.Printf("Output: %s\n", cfg.OutputDir)
	fmt.Println("------------------------------------------------------------")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()

	// Run batch
	batchCfg := batch.Config{
		OutputDir:   cfg.OutputDir,
		RenderSize:  cfg.RenderSize,
		Supersample: cfg.Supersample,
		Workers:     cfg.Workers,
		Format:      cfg.Format,
		Interpolate: *cfg.Interpolate,
		View:        viewmatrix.ViewMatrix(*cfg.Yaw, *cfg.Pitch),
		Style:       style,
		Logger:      logger,
	}

	results := batch.Run(ctx, batchCfg, sk, timeline)

	elapsed := time.Since(start)
	fmt.Println("------------------------------------------------------------")
	fmt.Printf("Done in %.1fs\n", elapsed.Seconds())

	// Count results
	success, failed := 0, 0
	var errors []batch.Result
	for _, r := range results {
		if r.Success {
			success++
		} else {
			failed++
			errors = append(errors, r)
		}
	}

	fmt.Printf("Rendered: %d/%d\n", success, len(results))

	if len(errors) > 0 {
		fmt.Printf("\nFailed (%d):\n", failed)
		for _, e := range errors[:min(len(errors), 20)] {
			fmt.Printf("  frame %d (t=%.3f): %s\n", e.Index, e.Time, e.Error)
		}
	}

	// Write manifest
	manifestPath := filepath.Join(cfg.OutputDir, "manifest.json")
	manifest := batch.NewManifest(cfg.Input, sk, cfg.FPS, cfg.RenderSize, results)
	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: manifest dir: %v\n", err)
	} else if err := batch.WriteManifest(manifestPath, manifest); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: manifest write failed: %v\n", err)
	} else {
		fmt.Printf("Manifest: %s\n", manifestPath)
	}

	if failed > 0 {
		os.Exit(1)
	}
}
