package main

import (
	"bytes"
	"context"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/df07/go-pbr-pathtracer/pkg/core"
	"github.com/df07/go-pbr-pathtracer/pkg/renderer"
	"github.com/df07/go-pbr-pathtracer/pkg/scene"
)

func TestParseArgs(t *testing.T) {
	defaults := renderer.DefaultConfig()

	t.Run("defaults", func(t *testing.T) {
		opts, cfg, err := parseArgs(nil, io.Discard)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if cfg != defaults {
			t.Errorf("Expected default config, got %+v", cfg)
		}
		if opts.Scene != scene.RandomSpheresID || opts.OutDir != "output" {
			t.Errorf("Unexpected options %+v", opts)
		}
	})

	t.Run("flag overrides", func(t *testing.T) {
		args := []string{"-scene", "showcase", "-width", "64", "-height", "32", "-frames", "3",
			"-depth", "5", "-accumulate=false", "-seed", "9", "-clamp", "10", "-out", "renders"}
		opts, cfg, err := parseArgs(args, io.Discard)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if opts.Scene != "showcase" || opts.OutDir != "renders" {
			t.Errorf("Unexpected options %+v", opts)
		}
		if cfg.Width != 64 || cfg.Height != 32 || cfg.Frames != 3 || cfg.MaxDepth != 5 ||
			cfg.Accumulate || cfg.Seed != 9 || cfg.ClampRadiance != 10 {
			t.Errorf("Flags not applied: %+v", cfg)
		}
		if !cfg.Jitter {
			t.Error("Unset flags should keep their defaults")
		}
	})

	t.Run("config file then flags", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "render.json")
		if err := os.WriteFile(path, []byte(`{"width": 128, "height": 64, "frames": 7}`), 0644); err != nil {
			t.Fatal(err)
		}
		_, cfg, err := parseArgs([]string{"-config", path, "-frames", "2"}, io.Discard)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if cfg.Width != 128 || cfg.Height != 64 {
			t.Errorf("Config file values not applied: %+v", cfg)
		}
		if cfg.Frames != 2 {
			t.Errorf("Expected the flag to override the file, got %d frames", cfg.Frames)
		}
		if cfg.Seed != defaults.Seed {
			t.Errorf("Fields absent from the file should keep defaults, got seed %d", cfg.Seed)
		}
	})

	errorCases := []struct {
		name string
		args []string
	}{
		{"unknown flag", []string{"-bogus"}},
		{"negative width", []string{"-width", "-1"}},
		{"zero frames", []string{"-frames", "0"}},
		{"missing config", []string{"-config", "does-not-exist.json"}},
	}
	for _, tt := range errorCases {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := parseArgs(tt.args, io.Discard); err == nil {
				t.Errorf("Expected an error for %v", tt.args)
			}
		})
	}
}

func TestParseArgs_Help(t *testing.T) {
	var out bytes.Buffer
	opts, _, err := parseArgs([]string{"-help"}, &out)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !opts.Help {
		t.Error("Expected help to be requested")
	}
	for _, want := range []string{"Usage:", "-denoise-after", scene.ShowcaseID} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("Help output missing %q", want)
		}
	}
}

func smallConfig(frames, denoiseAfter int) renderer.Config {
	cfg := renderer.DefaultConfig()
	cfg.Width = 24
	cfg.Height = 16
	cfg.Frames = frames
	cfg.DenoiseAfterFrames = denoiseAfter
	cfg.NumWorkers = 2
	return cfg
}

func TestRun(t *testing.T) {
	tests := []struct {
		name         string
		frames       int
		denoiseAfter int
		wantOutputs  int
	}{
		{"with denoise", 2, 2, 2},
		{"denoise disabled", 2, 0, 1},
		{"too few frames to denoise", 1, 4, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := cliOptions{Scene: scene.ShowcaseID, OutDir: t.TempDir()}
			outputs, err := run(context.Background(), opts, smallConfig(tt.frames, tt.denoiseAfter), core.NopLogger{})
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if len(outputs) != tt.wantOutputs {
				t.Fatalf("Expected %d outputs, got %v", tt.wantOutputs, outputs)
			}

			for _, path := range outputs {
				if !strings.HasPrefix(path, filepath.Join(opts.OutDir, scene.ShowcaseID)) {
					t.Errorf("Output %s not under the scene directory", path)
				}
				file, err := os.Open(path)
				if err != nil {
					t.Fatalf("Failed to open output: %v", err)
				}
				img, err := png.Decode(file)
				file.Close()
				if err != nil {
					t.Fatalf("Failed to decode %s: %v", path, err)
				}
				if b := img.Bounds(); b.Dx() != 24 || b.Dy() != 16 {
					t.Errorf("Expected 24x16 image, got %v", b)
				}
			}
			if tt.wantOutputs == 2 && outputs[1] != renderer.DenoisedPath(outputs[0]) {
				t.Errorf("Unexpected denoised path %s", outputs[1])
			}
		})
	}
}

func TestRun_Errors(t *testing.T) {
	t.Run("unknown scene", func(t *testing.T) {
		opts := cliOptions{Scene: "nonexistent", OutDir: t.TempDir()}
		if _, err := run(context.Background(), opts, smallConfig(1, 0), core.NopLogger{}); err == nil {
			t.Error("Expected an error for an unknown scene")
		}
	})

	t.Run("cancelled before first frame", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		opts := cliOptions{Scene: scene.ShowcaseID, OutDir: t.TempDir()}
		outputs, err := run(ctx, opts, smallConfig(3, 0), core.NopLogger{})
		if err == nil {
			t.Error("Expected an error when nothing was rendered")
		}
		if len(outputs) != 0 {
			t.Errorf("Expected no outputs, got %v", outputs)
		}
	})
}
