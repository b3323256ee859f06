package scene

import (
	"math/rand"

	"github.com/df07/go-pbr-pathtracer/pkg/core"
	"github.com/df07/go-pbr-pathtracer/pkg/geometry"
	"github.com/df07/go-pbr-pathtracer/pkg/material"
)

// DefaultSphereCount is the number of spheres in the random spheres scene
const DefaultSphereCount = 100

// NewRandomSpheresScene scatters count unit spheres with random preset
// materials through a slab in front of the camera
func NewRandomSpheresScene(seed int64, count int, cameraOverrides ...geometry.CameraConfig) *Scene {
	defaultCameraConfig := geometry.CameraConfig{
		Center:        core.NewVec3(0, 0, -10),
		LookAt:        core.NewVec3(0, 0, 0),
		Up:            core.NewVec3(0, 1, 0),
		Width:         800,
		AspectRatio:   16.0 / 9.0,
		VFov:          45.0,
		Aperture:      0.5,
		FocusDistance: 35.0, // middle of the sphere slab
	}

	cameraConfig := defaultCameraConfig
	if len(cameraOverrides) > 0 {
		cameraConfig = geometry.MergeCameraConfig(defaultCameraConfig, cameraOverrides[0])
	}

	s := NewScene(cameraConfig)

	presets := material.Presets()
	ids := make([]material.ID, len(presets))
	for i, m := range presets {
		ids[i] = s.AddMaterial(m)
	}

	random := rand.New(rand.NewSource(seed))
	for i := 0; i < count; i++ {
		center := core.NewVec3(
			random.Float64()*40-20,
			random.Float64()*40-20,
			random.Float64()*10+20,
		)
		s.AddSphere(center, 1.0, ids[random.Intn(len(ids))])
	}

	s.Build()
	return s
}
