package geometry

import (
	"math"

	"github.com/df07/go-pbr-pathtracer/pkg/core"
)

// CameraConfig describes a look-at camera with optional depth of field
type CameraConfig struct {
	Center        core.Vec3 // Camera position
	LookAt        core.Vec3 // Point the camera looks at
	Up            core.Vec3 // Up direction
	Width         int       // Image width in pixels
	AspectRatio   float64   // Width / height
	VFov          float64   // Vertical field of view in degrees
	Aperture      float64   // Lens diameter, 0 for a pinhole
	FocusDistance float64   // Distance to the focal plane, 0 means distance to LookAt
}

// MergeCameraConfig returns base with every non-zero field of override applied
func MergeCameraConfig(base, override CameraConfig) CameraConfig {
	result := base
	if !override.Center.IsZero() {
		result.Center = override.Center
	}
	if !override.LookAt.IsZero() {
		result.LookAt = override.LookAt
	}
	if !override.Up.IsZero() {
		result.Up = override.Up
	}
	if override.Width != 0 {
		result.Width = override.Width
	}
	if override.AspectRatio != 0 {
		result.AspectRatio = override.AspectRatio
	}
	if override.VFov != 0 {
		result.VFov = override.VFov
	}
	if override.Aperture != 0 {
		result.Aperture = override.Aperture
	}
	if override.FocusDistance != 0 {
		result.FocusDistance = override.FocusDistance
	}
	return result
}

// Camera is a thin-lens camera. It is immutable while a frame renders and
// replaced wholesale when the view changes.
type Camera struct {
	Position       core.Vec3
	Right          core.Vec3
	Up             core.Vec3
	Forward        core.Vec3
	HalfFov        float64 // tan(vfov/2)
	AspectRatio    float64
	LensRadius     float64
	FocalDistance  float64
	ViewportWidth  int
	ViewportHeight int
}

// NewCamera builds the orthonormal basis and lens parameters from config
func NewCamera(config CameraConfig) *Camera {
	forward := config.LookAt.Subtract(config.Center).Normalize()
	if forward.IsZero() {
		forward = core.NewVec3(0, 0, -1)
	}
	upHint := config.Up
	if upHint.IsZero() {
		upHint = core.NewVec3(0, 1, 0)
	}
	right := forward.Cross(upHint).Normalize()
	if right.IsZero() {
		right, _ = core.BuildOrthonormalBasis(forward)
	}
	up := right.Cross(forward)

	aspectRatio := config.AspectRatio
	if aspectRatio <= 0 {
		aspectRatio = 1
	}
	width := max(config.Width, 1)
	height := max(int(math.Round(float64(width)/aspectRatio)), 1)

	focalDistance := config.FocusDistance
	if focalDistance <= 0 {
		focalDistance = config.LookAt.Subtract(config.Center).Length()
	}

	return &Camera{
		Position:       config.Center,
		Right:          right,
		Up:             up,
		Forward:        forward,
		HalfFov:        math.Tan(config.VFov * math.Pi / 360),
		AspectRatio:    aspectRatio,
		LensRadius:     config.Aperture / 2,
		FocalDistance:  focalDistance,
		ViewportWidth:  width,
		ViewportHeight: height,
	}
}

// GenerateRay maps a point on the image (pixelUV in [0,1]², v up) and a
// point on the lens (lensUV in [0,1]²) to a world-space ray
func (c *Camera) GenerateRay(pixelUV, lensUV core.Vec2) core.Ray {
	tx := c.HalfFov * c.AspectRatio * (2*pixelUV.X - 1)
	ty := c.HalfFov * (2*pixelUV.Y - 1)
	direction := core.NewVec3(tx, ty, 1).Normalize()

	origin := core.Vec3{}
	if c.LensRadius > 0 {
		focus := direction.Multiply(c.FocalDistance / direction.Z)
		lens := core.SampleConcentricDisk(lensUV).Multiply(c.LensRadius)
		origin = core.NewVec3(lens.X, lens.Y, 0)
		direction = focus.Subtract(origin).Normalize()
	}

	return core.NewRay(c.Position.Add(c.toWorld(origin)), c.toWorld(direction))
}

func (c *Camera) toWorld(v core.Vec3) core.Vec3 {
	return c.Right.Multiply(v.X).Add(c.Up.Multiply(v.Y)).Add(c.Forward.Multiply(v.Z))
}
