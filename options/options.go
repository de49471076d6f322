package options

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/richinsley/goshaderwipe/transition"
)

const (
	ModeInteractive = "interactive"
	ModeRecord      = "record"
	ModeSnapshot    = "snapshot"
)

// StringList is a repeatable string flag.
type StringList []string

func (s *StringList) String() string {
	if s == nil {
		return ""
	}
	return strings.Join(*s, ",")
}

func (s *StringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

type WipeOptions struct {
	ConfigFile  *string
	Images      *StringList
	Mode        *string
	Width       *int
	Height      *int
	Duration    *float64
	FPS         *int
	OutputFile  *string
	FFMPEGPath  *string
	Codec       *string
	Cache       *bool
	PointerY    *float64 // Pointer height for snapshots, 0 is the bottom edge
	SweepPeriod *float64 // Seconds for the recorded pointer to travel up and back
	LogLevel    *string
	LogFormat   *string
	Verbose     *bool // Forward ffmpeg output
	Headless    *bool // Render offscreen through EGL without a window (Linux only)
	GPU         *bool // Render snapshots with OpenGL instead of the CPU
	Filter      *string
	Wrap        *string
}

// FileConfig is the YAML form of WipeOptions. Unset keys leave the flag
// defaults alone.
type FileConfig struct {
	Images      []string `yaml:"images"`
	Mode        *string  `yaml:"mode"`
	Width       *int     `yaml:"width"`
	Height      *int     `yaml:"height"`
	Duration    *float64 `yaml:"duration"`
	FPS         *int     `yaml:"fps"`
	OutputFile  *string  `yaml:"output"`
	FFMPEGPath  *string  `yaml:"ffmpeg"`
	Codec       *string  `yaml:"codec"`
	Cache       *bool    `yaml:"cache"`
	PointerY    *float64 `yaml:"pointer_y"`
	SweepPeriod *float64 `yaml:"sweep_period"`
	LogLevel    *string  `yaml:"log_level"`
	LogFormat   *string  `yaml:"log_format"`
	Verbose     *bool    `yaml:"verbose"`
	Headless    *bool    `yaml:"headless"`
	GPU         *bool    `yaml:"gpu"`
	Filter      *string  `yaml:"filter"`
	Wrap        *string  `yaml:"wrap"`
}

// Register defines every flag on fs.
func Register(fs *flag.FlagSet) *WipeOptions {
	images := &StringList{}
	fs.Var(images, "image", "Image URL or path; give exactly two")
	return &WipeOptions{
		ConfigFile:  fs.String("config", "", "YAML file with option defaults"),
		Images:      images,
		Mode:        fs.String("mode", ModeInteractive, "interactive, record or snapshot"),
		Width:       fs.Int("width", 1280, "Width of the window or output"),
		Height:      fs.Int("height", 720, "Height of the window or output"),
		Duration:    fs.Float64("duration", 10.0, "Duration to record in seconds"),
		FPS:         fs.Int("fps", 60, "Frames per second for recording"),
		OutputFile:  fs.String("output", "", "Output file (video for record, PNG for snapshot)"),
		FFMPEGPath:  fs.String("ffmpeg", "", "Path to ffmpeg executable"),
		Codec:       fs.String("codec", "h264", "Video codec for recording (h264 or hevc)"),
		Cache:       fs.Bool("cache", true, "Cache downloaded images on disk"),
		PointerY:    fs.Float64("pointer-y", 0.5, "Pointer height for snapshot, 0 (bottom) to 1 (top)"),
		SweepPeriod: fs.Float64("sweep-period", 4.0, "Seconds for one pointer sweep while recording"),
		LogLevel:    fs.String("log-level", "info", "debug, info, warn or error"),
		LogFormat:   fs.String("log-format", "console", "console or json"),
		Verbose:     fs.Bool("verbose", false, "Show ffmpeg output"),
		Headless:    fs.Bool("headless", false, "Render offscreen without a window using EGL (Linux only)"),
		GPU:         fs.Bool("gpu", false, "Render snapshots with OpenGL instead of the CPU"),
		Filter:      fs.String("filter", "nearest", "Texture filter: nearest, linear or mipmap"),
		Wrap:        fs.String("wrap", "clamp", "Texture wrap: clamp, repeat or mirror"),
	}
}

// Parse parses args, applies the optional config file underneath the
// explicit flags, and validates the result. It returns flag.ErrHelp for
// -h/-help.
func Parse(name string, args []string) (*WipeOptions, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	opts := Register(fs)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	if *opts.ConfigFile != "" {
		fc, err := LoadFile(*opts.ConfigFile)
		if err != nil {
			return nil, err
		}
		explicit := map[string]bool{}
		fs.Visit(func(f *flag.Flag) { explicit[f.Name] = true })
		opts.Apply(fc, explicit)
	}

	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return opts, nil
}

// LoadFile reads a YAML config file.
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	fc := &FileConfig{}
	if err := yaml.Unmarshal(data, fc); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return fc, nil
}

// Apply copies values from fc for every flag not named in explicit.
func (o *WipeOptions) Apply(fc *FileConfig, explicit map[string]bool) {
	if len(fc.Images) > 0 && !explicit["image"] {
		*o.Images = append(StringList(nil), fc.Images...)
	}
	setString(o.Mode, fc.Mode, explicit["mode"])
	setInt(o.Width, fc.Width, explicit["width"])
	setInt(o.Height, fc.Height, explicit["height"])
	setFloat(o.Duration, fc.Duration, explicit["duration"])
	setInt(o.FPS, fc.FPS, explicit["fps"])
	setString(o.OutputFile, fc.OutputFile, explicit["output"])
	setString(o.FFMPEGPath, fc.FFMPEGPath, explicit["ffmpeg"])
	setString(o.Codec, fc.Codec, explicit["codec"])
	setBool(o.Cache, fc.Cache, explicit["cache"])
	setFloat(o.PointerY, fc.PointerY, explicit["pointer-y"])
	setFloat(o.SweepPeriod, fc.SweepPeriod, explicit["sweep-period"])
	setString(o.LogLevel, fc.LogLevel, explicit["log-level"])
	setString(o.LogFormat, fc.LogFormat, explicit["log-format"])
	setBool(o.Verbose, fc.Verbose, explicit["verbose"])
	setBool(o.Headless, fc.Headless, explicit["headless"])
	setBool(o.GPU, fc.GPU, explicit["gpu"])
	setString(o.Filter, fc.Filter, explicit["filter"])
	setString(o.Wrap, fc.Wrap, explicit["wrap"])
}

func setString(dst, src *string, explicit bool) {
	if src != nil && !explicit {
		*dst = *src
	}
}

func setInt(dst, src *int, explicit bool) {
	if src != nil && !explicit {
		*dst = *src
	}
}

func setFloat(dst, src *float64, explicit bool) {
	if src != nil && !explicit {
		*dst = *src
	}
}

func setBool(dst, src *bool, explicit bool) {
	if src != nil && !explicit {
		*dst = *src
	}
}

// Validate checks option combinations and fills mode-specific defaults.
func (o *WipeOptions) Validate() error {
	if n := len(*o.Images); n != 2 {
		return fmt.Errorf("%w: got %d -image flags", transition.ErrImageCount, n)
	}
	if *o.Width < 1 || *o.Height < 1 {
		return fmt.Errorf("invalid size %dx%d", *o.Width, *o.Height)
	}

	if *o.GPU && *o.Mode != ModeSnapshot {
		return fmt.Errorf("-gpu only applies to %s mode", ModeSnapshot)
	}
	if *o.Headless && !o.Offscreen() {
		return fmt.Errorf("headless rendering needs %s mode or %s mode with -gpu", ModeRecord, ModeSnapshot)
	}

	switch *o.Filter {
	case "nearest", "linear", "mipmap":
	default:
		return fmt.Errorf("unknown texture filter %q", *o.Filter)
	}
	switch *o.Wrap {
	case "clamp", "repeat", "mirror":
	default:
		return fmt.Errorf("unknown texture wrap %q", *o.Wrap)
	}

	switch *o.Mode {
	case ModeInteractive:
	case ModeRecord:
		if *o.FPS < 1 {
			return fmt.Errorf("fps must be positive, got %d", *o.FPS)
		}
		if *o.Duration <= 0 {
			return fmt.Errorf("duration must be positive, got %g", *o.Duration)
		}
		if *o.Codec != "h264" && *o.Codec != "hevc" {
			return fmt.Errorf("unsupported codec %q", *o.Codec)
		}
		if *o.OutputFile == "" {
			*o.OutputFile = "output.mp4"
		}
	case ModeSnapshot:
		if *o.PointerY < 0 || *o.PointerY > 1 {
			return fmt.Errorf("pointer-y must be within [0, 1], got %g", *o.PointerY)
		}
		if *o.OutputFile == "" {
			*o.OutputFile = "snapshot.png"
		}
	default:
		return fmt.Errorf("unknown mode %q", *o.Mode)
	}

	switch *o.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("unknown log format %q", *o.LogFormat)
	}
	return nil
}

// Offscreen reports whether the selected mode renders with OpenGL but
// without a visible window.
func (o *WipeOptions) Offscreen() bool {
	return *o.Mode == ModeRecord || (*o.Mode == ModeSnapshot && *o.GPU)
}

// TotalFrames is the number of frames a recording produces.
func (o *WipeOptions) TotalFrames() int {
	return int(*o.Duration * float64(*o.FPS))
}
