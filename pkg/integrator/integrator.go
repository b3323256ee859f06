package integrator

import (
	"github.com/df07/go-pbr-pathtracer/pkg/core"
	"github.com/df07/go-pbr-pathtracer/pkg/geometry"
	"github.com/df07/go-pbr-pathtracer/pkg/scene"
)

// DefaultMaxDepth is the fixed path length bound
const DefaultMaxDepth = 3

// Config holds the integrator settings. It is immutable once rendering starts.
type Config struct {
	MaxDepth      int     // Maximum number of surface interactions per path
	ClampRadiance float64 // Per-channel ceiling applied to each sample, 0 disables
	DirectLight   bool    // Add the fixed directional light at every bounce
	Jitter        bool    // Jitter the sample position within the pixel
}

// DefaultConfig returns the default path tracing settings
func DefaultConfig() Config {
	return Config{
		MaxDepth: DefaultMaxDepth,
		Jitter:   true,
	}
}

// Sample is the result of tracing one path through a pixel. Albedo and
// Normal are first-bounce guide values for denoising.
type Sample struct {
	Radiance core.Vec3
	Albedo   core.Vec3
	Normal   core.Vec3
}

// Integrator defines the interface for per-pixel light transport
type Integrator interface {
	// TracePixel traces one path through pixel (x, y) of the camera's
	// viewport. The scene and camera are read-only; sampler is owned by the caller.
	TracePixel(x, y int, camera *geometry.Camera, scene *scene.Scene, sampler core.Sampler) Sample
}
