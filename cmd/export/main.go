package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"bvh-pose-renderer/internal/bvh"
	"bvh-pose-renderer/internal/export"
)

func main() {
	output := flag.String("o", "", "Output path, .gltf or .glb (default: <input>.glb)")
	fps := flag.Float64("fps", 0, "Resample at this rate (default: keep source frames)")
	interp := flag.Bool("interp", true, "Slerp between source frames when resampling")
	name := flag.String("name", "", "Animation name (default: input file name)")
	verbose := flag.Bool("v", false, "Verbose logging")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: export [flags] file.bvh\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	in := flag.Arg(0)
	base := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))
	out := *output
	if out == "" {
		out = filepath.Join(filepath.Dir(in), base+".glb")
	}
	if *name == "" {
		*name = base
	}

	sk, err := bvh.ParseFile(in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	doc, err := export.Build(sk, export.Options{FPS: *fps, Interpolate: *interp, Name: *name})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logger.Debug("document built", "nodes", len(doc.Nodes), "accessors", len(doc.Accessors))

	if err := export.Save(doc, out); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logger.Info("exported", "input", in, "output", out, "joints", len(sk.Joints), "animations", len(doc.Animations))
}
