package renderer

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/df07/go-pbr-pathtracer/pkg/geometry"
	"github.com/df07/go-pbr-pathtracer/pkg/integrator"
)

// ErrInvalidConfig is returned (wrapped) by Config.Validate
var ErrInvalidConfig = errors.New("invalid render config")

// Config is the render configuration. It is fixed for the lifetime of a
// FrameDriver; a new configuration means a new driver.
type Config struct {
	Width              int     `json:"width"`
	Height             int     `json:"height"`
	FOV                float64 `json:"fov"`                // Vertical field of view in degrees, 0 keeps the scene's
	Aperture           float64 `json:"aperture"`           // Lens diameter, 0 keeps the scene's
	FocalDistance      float64 `json:"focalDistance"`      // 0 keeps the scene's
	MaxDepth           int     `json:"maxDepth"`           // Path length bound
	Frames             int     `json:"frames"`             // Progressive frames to render
	DenoiseAfterFrames int     `json:"denoiseAfterFrames"` // Frame count that triggers denoising, 0 disables
	NumWorkers         int     `json:"numWorkers"`         // 0 = use CPU count
	Jitter             bool    `json:"jitter"`             // Jitter samples within the pixel footprint
	Accumulate         bool    `json:"accumulate"`         // Average frames; off shows only the latest frame
	ClampRadiance      float64 `json:"clampRadiance,omitempty"`
	DirectLight        bool    `json:"directLight,omitempty"`
	Seed               int64   `json:"seed"`
}

// DefaultConfig returns sensible default values
func DefaultConfig() Config {
	return Config{
		Width:              800,
		Height:             450,
		MaxDepth:           integrator.DefaultMaxDepth,
		Frames:             64,
		DenoiseAfterFrames: 64,
		NumWorkers:         0, // Auto-detect CPU count
		Jitter:             true,
		Accumulate:         true,
		Seed:               42,
	}
}

// Validate reports the first invalid field
func (c Config) Validate() error {
	switch {
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("%w: image size must be positive, got %dx%d", ErrInvalidConfig, c.Width, c.Height)
	case c.FOV < 0 || c.FOV >= 180:
		return fmt.Errorf("%w: fov must be in [0, 180), got %g", ErrInvalidConfig, c.FOV)
	case c.Aperture < 0:
		return fmt.Errorf("%w: aperture must be non-negative, got %g", ErrInvalidConfig, c.Aperture)
	case c.FocalDistance < 0:
		return fmt.Errorf("%w: focal distance must be non-negative, got %g", ErrInvalidConfig, c.FocalDistance)
	case c.MaxDepth < 0:
		return fmt.Errorf("%w: max depth must be non-negative, got %d", ErrInvalidConfig, c.MaxDepth)
	case c.Frames <= 0:
		return fmt.Errorf("%w: frames must be positive, got %d", ErrInvalidConfig, c.Frames)
	case c.DenoiseAfterFrames < 0:
		return fmt.Errorf("%w: denoise-after must be non-negative, got %d", ErrInvalidConfig, c.DenoiseAfterFrames)
	case c.NumWorkers < 0:
		return fmt.Errorf("%w: workers must be non-negative, got %d", ErrInvalidConfig, c.NumWorkers)
	case c.ClampRadiance < 0:
		return fmt.Errorf("%w: clamp must be non-negative, got %g", ErrInvalidConfig, c.ClampRadiance)
	}
	return nil
}

// LoadConfig reads a JSON config file. Fields absent from the file keep
// their DefaultConfig values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// CameraOverrides returns the camera fields this config sets, for merging
// over a scene's default camera
func (c Config) CameraOverrides() geometry.CameraConfig {
	return geometry.CameraConfig{
		Width:         c.Width,
		AspectRatio:   float64(c.Width) / float64(c.Height),
		VFov:          c.FOV,
		Aperture:      c.Aperture,
		FocusDistance: c.FocalDistance,
	}
}

// IntegratorConfig returns the path tracer settings
func (c Config) IntegratorConfig() integrator.Config {
	return integrator.Config{
		MaxDepth:      c.MaxDepth,
		ClampRadiance: c.ClampRadiance,
		DirectLight:   c.DirectLight,
		Jitter:        c.Jitter,
	}
}
