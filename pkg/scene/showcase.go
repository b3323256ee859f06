package scene

import (
	"github.com/df07/go-pbr-pathtracer/pkg/core"
	"github.com/df07/go-pbr-pathtracer/pkg/geometry"
	"github.com/df07/go-pbr-pathtracer/pkg/material"
)

// NewMaterialShowcaseScene lines up spheres sweeping roughness, one row
// dielectric and one row metallic, on a ground quad
func NewMaterialShowcaseScene(cameraOverrides ...geometry.CameraConfig) *Scene {
	defaultCameraConfig := geometry.CameraConfig{
		Center:        core.NewVec3(0, 4, -12),
		LookAt:        core.NewVec3(0, 1, 1),
		Up:            core.NewVec3(0, 1, 0),
		Width:         800,
		AspectRatio:   16.0 / 9.0,
		VFov:          40.0,
		Aperture:      0.05,
		FocusDistance: 0.0, // Auto-calculate focus distance
	}

	cameraConfig := defaultCameraConfig
	if len(cameraOverrides) > 0 {
		cameraConfig = geometry.MergeCameraConfig(defaultCameraConfig, cameraOverrides[0])
	}

	s := NewScene(cameraConfig)

	ground := s.AddMaterial(material.NewMaterial(core.Splat(0.6), 0.0, 0.8))
	s.AddGroundQuad(core.NewVec3(0, 0, 0), 100, ground)

	const spheres = 6
	for i := 0; i < spheres; i++ {
		roughness := float64(i) / float64(spheres-1)
		x := (float64(i) - float64(spheres-1)/2) * 2.2

		dielectric := s.AddMaterial(material.NewMaterial(core.NewVec3(0.8, 0.2, 0.2), 0.0, roughness))
		s.AddSphere(core.NewVec3(x, 1, -1), 1, dielectric)

		metal := s.AddMaterial(material.NewMaterial(core.NewVec3(0.9, 0.7, 0.3), 1.0, roughness))
		s.AddSphere(core.NewVec3(x, 1, 3), 1, metal)
	}

	s.Build()
	return s
}
