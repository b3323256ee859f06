package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/df07/go-pbr-pathtracer/pkg/core"
	"github.com/df07/go-pbr-pathtracer/pkg/denoise"
	"github.com/df07/go-pbr-pathtracer/pkg/renderer"
	"github.com/df07/go-pbr-pathtracer/pkg/scene"
)

// cliOptions holds the flags that are not part of the render config
type cliOptions struct {
	Scene      string
	ConfigPath string
	OutDir     string
	Help       bool
}

func main() {
	opts, cfg, err := parseArgs(os.Args[1:], os.Stdout)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Printf("Error: %v", err)
		os.Exit(2)
	}
	if opts.Help {
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Println("Starting Progressive Path Tracer...")
	outputs, err := run(ctx, opts, cfg, renderer.NewDefaultLogger())
	if err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
	for _, path := range outputs {
		fmt.Printf("Render saved as %s\n", path)
	}
}

// parseArgs builds the render config: defaults, then the JSON file given by
// -config, then any flag set explicitly on the command line
func parseArgs(args []string, output io.Writer) (cliOptions, renderer.Config, error) {
	defaults := renderer.DefaultConfig()
	fs := flag.NewFlagSet("pathtracer", flag.ContinueOnError)
	fs.SetOutput(output)

	var opts cliOptions
	fs.StringVar(&opts.Scene, "scene", scene.RandomSpheresID, "Scene id: "+strings.Join(scene.Names(), ", ")+" or ply:<name>")
	fs.StringVar(&opts.ConfigPath, "config", "", "JSON render config file")
	fs.StringVar(&opts.OutDir, "out", "output", "Output directory")
	fs.BoolVar(&opts.Help, "help", false, "Show help information")

	width := fs.Int("width", defaults.Width, "Image width in pixels")
	height := fs.Int("height", defaults.Height, "Image height in pixels")
	fov := fs.Float64("fov", defaults.FOV, "Vertical field of view in degrees (0 keeps the scene's)")
	aperture := fs.Float64("aperture", defaults.Aperture, "Lens diameter (0 keeps the scene's)")
	focal := fs.Float64("focal", defaults.FocalDistance, "Focal distance (0 keeps the scene's)")
	depth := fs.Int("depth", defaults.MaxDepth, "Maximum path length")
	frames := fs.Int("frames", defaults.Frames, "Progressive frames to render")
	denoiseAfter := fs.Int("denoise-after", defaults.DenoiseAfterFrames, "Denoise once this many frames are accumulated (0 disables)")
	workers := fs.Int("workers", defaults.NumWorkers, "Worker goroutines (0 uses the CPU count)")
	jitter := fs.Bool("jitter", defaults.Jitter, "Jitter samples within each pixel")
	accumulate := fs.Bool("accumulate", defaults.Accumulate, "Average frames instead of showing only the latest")
	clamp := fs.Float64("clamp", defaults.ClampRadiance, "Clamp per-sample radiance (0 disables)")
	directLight := fs.Bool("direct-light", defaults.DirectLight, "Add the directional light estimate")
	seed := fs.Int64("seed", defaults.Seed, "Random seed for scenes and samplers")

	if err := fs.Parse(args); err != nil {
		return opts, defaults, err
	}
	if opts.Help {
		printHelp(output, fs)
		return opts, defaults, nil
	}

	cfg := defaults
	if opts.ConfigPath != "" {
		loaded, err := renderer.LoadConfig(opts.ConfigPath)
		if err != nil {
			return opts, defaults, err
		}
		cfg = loaded
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "width":
			cfg.Width = *width
		case "height":
			cfg.Height = *height
		case "fov":
			cfg.FOV = *fov
		case "aperture":
			cfg.Aperture = *aperture
		case "focal":
			cfg.FocalDistance = *focal
		case "depth":
			cfg.MaxDepth = *depth
		case "frames":
			cfg.Frames = *frames
		case "denoise-after":
			cfg.DenoiseAfterFrames = *denoiseAfter
		case "workers":
			cfg.NumWorkers = *workers
		case "jitter":
			cfg.Jitter = *jitter
		case "accumulate":
			cfg.Accumulate = *accumulate
		case "clamp":
			cfg.ClampRadiance = *clamp
		case "direct-light":
			cfg.DirectLight = *directLight
		case "seed":
			cfg.Seed = *seed
		}
	})

	if err := cfg.Validate(); err != nil {
		return opts, cfg, err
	}
	return opts, cfg, nil
}

func printHelp(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintln(w, "Progressive Path Tracer")
	fmt.Fprintln(w, "Usage: pathtracer [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Options:")
	fs.SetOutput(w)
	fs.PrintDefaults()
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Available scenes:")
	if scenes, err := scene.ListAllScenes(); err == nil {
		for _, group := range scenes.Groups {
			for _, info := range group.Scenes {
				fmt.Fprintf(w, "  %-16s %s\n", info.ID, info.Description)
			}
		}
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output will be saved to <out>/<scene>/render_<timestamp>.png")
}

// run renders the scene, saves the 16-bit image and, once enough frames
// have accumulated, a denoised copy. It returns the written paths. An
// interrupted render still saves what has accumulated so far.
func run(ctx context.Context, opts cliOptions, cfg renderer.Config, logger core.Logger) ([]string, error) {
	s, err := scene.ByName(opts.Scene, cfg.Seed, logger, cfg.CameraOverrides())
	if err != nil {
		return nil, err
	}
	logger.Printf("Using scene %s with %d primitives\n", opts.Scene, s.PrimitiveCount())

	driver, err := renderer.NewFrameDriver(s, s.Camera, cfg, nil, logger)
	if err != nil {
		return nil, err
	}
	defer driver.Close()

	startTime := time.Now()
	err = driver.Render(ctx, cfg.Frames, nil)
	switch {
	case errors.Is(err, context.Canceled):
		logger.Printf("Rendering interrupted, saving %d accumulated frames\n", driver.Accumulator().FrameIndex())
	case err != nil:
		return nil, err
	default:
		logger.Printf("Render completed in %v\n", time.Since(startTime))
	}

	acc := driver.Accumulator()
	if acc.FrameIndex() == 0 {
		return nil, fmt.Errorf("no frames rendered")
	}

	path := renderer.OutputPath(opts.OutDir, opts.Scene, time.Now())
	if err := renderer.SavePNG(path, renderer.ToImage16(acc.Color, acc.Width(), acc.Height())); err != nil {
		return nil, err
	}
	outputs := []string{path}

	if cfg.DenoiseAfterFrames <= 0 || acc.FrameIndex() < cfg.DenoiseAfterFrames {
		return outputs, nil
	}

	filtered, err := denoise.NewGuidedFilter().Denoise(acc.Color, acc.Albedo, acc.Normal, acc.Width(), acc.Height())
	if err != nil {
		logger.Printf("Denoising failed, keeping the noisy image: %v\n", err)
		return outputs, nil
	}
	denoisedPath := renderer.DenoisedPath(path)
	if err := renderer.SavePNG(denoisedPath, renderer.ToImage16(filtered, acc.Width(), acc.Height())); err != nil {
		logger.Printf("Failed to save denoised image: %v\n", err)
		return outputs, nil
	}
	return append(outputs, denoisedPath), nil
}
