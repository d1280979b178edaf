package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"bvh-pose-renderer/internal/bvh"
	"bvh-pose-renderer/internal/posetable"
	"bvh-pose-renderer/internal/skeleton"
)

func main() {
	ts := flag.Float64("time", 0, "Timestamp in seconds (wraps around the clip)")
	frame := flag.Int("frame", -1, "Evaluate at the start of this frame instead of -time")
	interp := flag.Bool("interp", false, "Slerp between frames")
	format := flag.String("format", "text", "Pose table format: text, json or yaml")
	tree := flag.Bool("tree", true, "Print the joint hierarchy before the pose (text format only)")
	verbose := flag.Bool("v", false, "Verbose logging")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: inspect [flags] file.bvh\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	f, err := posetable.ParseFormat(*format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	path := flag.Arg(0)
	sk, err := bvh.ParseFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	slog.Debug("parsed", "path", path, "joints", len(sk.Joints), "channels", sk.ChannelCount)

	t := *ts
	if *frame >= 0 {
		t = skeleton.FrameStart(sk, *frame)
	}

	if *tree && f == posetable.FormatText {
		if err := posetable.WriteHierarchy(os.Stdout, sk); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println()
	}

	pose := skeleton.Evaluate(sk, t, *interp)
	tbl := posetable.Build(pose, posetable.DefaultPrecision)
	if err := tbl.Write(os.Stdout, f); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
