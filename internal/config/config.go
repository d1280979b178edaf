package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Output formats for rendered frames.
const (
	FormatWebP = "webp"
	FormatTGA  = "tga"
)

// Config holds all configurable paths and render settings.
type Config struct {
	// Paths
	BaseDir   string `json:"base_dir" yaml:"base_dir"`
	Input     string `json:"input" yaml:"input"`
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// Render settings
	RenderSize  int    `json:"render_size" yaml:"render_size"`
	Supersample int    `json:"supersample" yaml:"supersample"`
	Workers     int    `json:"workers" yaml:"workers"`
	Format      string `json:"format" yaml:"format"`

	// Playback
	FPS         float64 `json:"fps" yaml:"fps"`
	Speed       float64 `json:"speed" yaml:"speed"`
	Interpolate *bool   `json:"interpolate" yaml:"interpolate"`
	FrameLimit  int     `json:"frame_limit" yaml:"frame_limit"`

	// Camera and style
	Yaw       *float64 `json:"yaw" yaml:"yaw"`
	Pitch     *float64 `json:"pitch" yaml:"pitch"`
	BoneWidth float64  `json:"bone_width" yaml:"bone_width"`
}

// Load reads a config file and returns Config. Files ending in .yaml or .yml
// are decoded as YAML, anything else as JSON. Unknown YAML keys are rejected.
// Fields not set in the file keep their zero values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	return cfg, nil
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	Input     string
	OutputDir string
	Workers   int
	Format    string
	FPS       float64
	Speed     float64
	Frames    int
}

// Resolve fills in any empty fields with defaults.
// CLI flags take priority when non-zero/non-empty.
func (c *Config) Resolve(flags Flags) {
	// CLI flags override config file
	if flags.Input != "" {
		c.Input = flags.Input
	}
	if flags.OutputDir != "" {
		c.OutputDir = flags.OutputDir
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}
	if flags.Format != "" {
		c.Format = flags.Format
	}
	if flags.FPS > 0 {
		c.FPS = flags.FPS
	}
	if flags.Speed > 0 {
		c.Speed = flags.Speed
	}
	if flags.Frames > 0 {
		c.FrameLimit = flags.Frames
	}

	// Resolve relative paths against base dir
	if c.BaseDir != "" {
		if c.Input != "" && !filepath.IsAbs(c.Input) {
			c.Input = filepath.Join(c.BaseDir, c.Input)
		}
		if c.OutputDir != "" && !filepath.IsAbs(c.OutputDir) {
			c.OutputDir = filepath.Join(c.BaseDir, c.OutputDir)
		}
	}
	if c.OutputDir == "" {
		c.OutputDir = defaultOutputDir(c.Input)
	}

	// Defaults for render settings
	if c.RenderSize <= 0 {
		c.RenderSize = 256
	}
	if c.Supersample <= 0 {
		c.Supersample = 2
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	c.Format = strings.ToLower(c.Format)
	if c.Format == "" {
		c.Format = FormatWebP
	}
	if c.FPS <= 0 {
		c.FPS = 30
	}
	if c.Speed <= 0 {
		c.Speed = 1
	}
	if c.Interpolate == nil {
		c.Interpolate = ptr(true)
	}
	if c.Yaw == nil {
		c.Yaw = ptr(30.0)
	}
	if c.Pitch == nil {
		c.Pitch = ptr(15.0)
	}
}

// Validate reports settings Resolve cannot repair.
func (c *Config) Validate() error {
	if c.Input == "" {
		return fmt.Errorf("config: no input BVH file")
	}
	if c.Format != FormatWebP && c.Format != FormatTGA {
		return fmt.Errorf("config: unknown format %q", c.Format)
	}
	return nil
}

// defaultOutputDir places renders next to the input, in <name>-frames.
func defaultOutputDir(input string) string {
	if input == "" {
		return "frames"
	}
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	return filepath.Join(filepath.Dir(input), base+"-frames")
}

func ptr[T any](v T) *T {
	return &v
}
