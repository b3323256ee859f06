package integrator

import (
	"math"

	"github.com/df07/go-pbr-pathtracer/pkg/core"
	"github.com/df07/go-pbr-pathtracer/pkg/geometry"
	"github.com/df07/go-pbr-pathtracer/pkg/material"
	"github.com/df07/go-pbr-pathtracer/pkg/scene"
)

const (
	// Offset applied along a new direction to escape the surface just hit
	originOffset = 1e-4

	// Fixed directional light used when Config.DirectLight is set
	lightDistance = 1000.0
	lightStrength = 2.0
)

// lightDirection points from surfaces toward the directional light
var lightDirection = core.NewVec3(0, 1, 0)

// PathTracer implements unidirectional path tracing with BSDF importance
// sampling and a fixed maximum depth
type PathTracer struct {
	config Config
}

// NewPathTracer creates a new path tracer. A negative MaxDepth is replaced
// with DefaultMaxDepth; zero traces no bounces.
func NewPathTracer(config Config) *PathTracer {
	if config.MaxDepth < 0 {
		config.MaxDepth = DefaultMaxDepth
	}
	return &PathTracer{config: config}
}

// Config returns the tracer settings
func (pt *PathTracer) Config() Config {
	return pt.config
}

// TracePixel traces one path through pixel (x, y). Rows are numbered from
// the top of the image.
func (pt *PathTracer) TracePixel(x, y int, camera *geometry.Camera, s *scene.Scene, sampler core.Sampler) Sample {
	jitter := core.NewVec2(0.5, 0.5)
	if pt.config.Jitter {
		jitter = sampler.Get2D()
	}
	pixelUV := core.NewVec2(
		(float64(x)+jitter.X)/float64(camera.ViewportWidth),
		1-(float64(y)+jitter.Y)/float64(camera.ViewportHeight),
	)
	lensUV := sampler.Get2D()

	sample := pt.traceRay(camera.GenerateRay(pixelUV, lensUV), s, sampler)
	if pt.config.ClampRadiance > 0 {
		sample.Radiance = sample.Radiance.Clamp(0, pt.config.ClampRadiance)
	}
	return sample
}

// traceRay follows a path from ray until it escapes, the BSDF sample
// degenerates, or MaxDepth bounces are reached
func (pt *PathTracer) traceRay(ray core.Ray, s *scene.Scene, sampler core.Sampler) Sample {
	var sample Sample
	throughput := core.Splat(1)
	radiance := core.Vec3{}

	for depth := 0; depth < pt.config.MaxDepth; depth++ {
		hit, ok := s.NearestHit(ray)
		if !ok {
			radiance = radiance.Add(throughput.MultiplyVec(s.Background))
			if depth == 0 {
				sample.Albedo = s.Background
			}
			break
		}

		surface := s.Resolve(hit)
		v := ray.Direction.Negate()
		if depth == 0 {
			sample.Albedo = surface.BaseColor
			sample.Normal = facing(hit.Normal, v)
		}

		if pt.config.DirectLight {
			radiance = radiance.Add(throughput.MultiplyVec(pt.DirectLighting(s, hit, surface, v)))
		}

		l := surface.Sample(hit.Frame(), v, sampler)
		pdf := surface.PDF(hit.Normal, v, l)
		if pdf <= 0 || l.IsZero() {
			break
		}

		// Reflectance is zero when l or v is below the surface
		throughput = throughput.MultiplyVec(surface.Reflectance(hit.Normal, v, l).Multiply(1 / pdf))
		ray = core.NewRay(hit.Position.Add(l.Multiply(originOffset)), l)
	}

	// A NaN would poison the running mean for every later frame
	if !finite(radiance) {
		radiance = core.Vec3{}
	}
	sample.Radiance = radiance
	return sample
}

// DirectLighting returns the contribution of the fixed directional light at
// hit, or zero when the light is below the surface or occluded
func (pt *PathTracer) DirectLighting(s *scene.Scene, hit geometry.Hit, surface material.SurfaceMaterial, v core.Vec3) core.Vec3 {
	f := surface.Reflectance(hit.Normal, v, lightDirection)
	if f.IsZero() {
		return core.Vec3{}
	}

	shadowRay := core.NewRay(hit.Position.Add(lightDirection.Multiply(originOffset)), lightDirection)
	if s.AnyHit(shadowRay, lightDistance) {
		return core.Vec3{}
	}
	return f.Multiply(lightStrength)
}

// facing flips normal to the side of v
func facing(normal, v core.Vec3) core.Vec3 {
	if normal.Dot(v) < 0 {
		return normal.Negate()
	}
	return normal
}

// finite reports whether every channel is a finite number
func finite(c core.Vec3) bool {
	for _, x := range []float64{c.X, c.Y, c.Z} {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
