package scene

import (
	"math"
	"testing"

	"github.com/df07/go-pbr-pathtracer/pkg/core"
	"github.com/df07/go-pbr-pathtracer/pkg/geometry"
	"github.com/df07/go-pbr-pathtracer/pkg/material"
)

func testCameraConfig() geometry.CameraConfig {
	return geometry.CameraConfig{
		Center:      core.NewVec3(0, 0, -5),
		LookAt:      core.NewVec3(0, 0, 0),
		Up:          core.NewVec3(0, 1, 0),
		Width:       64,
		AspectRatio: 1.0,
		VFov:        45.0,
	}
}

func TestScene_UnbuiltReportsNoHit(t *testing.T) {
	s := NewScene(testCameraConfig())
	s.AddSphere(core.NewVec3(0, 0, 0), 1, s.AddMaterial(material.GlossyWhite()))

	ray := core.NewRay(core.NewVec3(0, 0, -5), core.NewVec3(0, 0, 1))
	if _, ok := s.NearestHit(ray); ok {
		t.Error("Unbuilt scene should not report a nearest hit")
	}
	if s.AnyHit(ray, 100) {
		t.Error("Unbuilt scene should not report an occlusion")
	}

	stats := s.Build()
	if stats.TotalPrimitives != 1 {
		t.Errorf("Expected 1 primitive in BVH, got %d", stats.TotalPrimitives)
	}
	hit, ok := s.NearestHit(ray)
	if !ok || math.Abs(hit.T-4) > 1e-9 {
		t.Errorf("Expected hit at t=4 after Build, got %v (ok=%t)", hit.T, ok)
	}
}

func TestScene_GroundQuad(t *testing.T) {
	s := NewScene(testCameraConfig())
	ground := s.AddMaterial(material.Green())
	s.AddGroundQuad(core.NewVec3(0, 0, 0), 10, ground)
	s.Build()

	if s.PrimitiveCount() != 2 {
		t.Fatalf("Expected 2 triangles, got %d", s.PrimitiveCount())
	}

	hit, ok := s.NearestHit(core.NewRay(core.NewVec3(1, 5, 2), core.NewVec3(0, -1, 0)))
	if !ok {
		t.Fatal("Expected the downward ray to hit the ground")
	}
	if math.Abs(hit.T-5) > 1e-9 {
		t.Errorf("Expected t=5, got %f", hit.T)
	}
	if hit.Normal.Subtract(core.NewVec3(0, 1, 0)).Length() > 1e-9 {
		t.Errorf("Expected +Y normal, got %v", hit.Normal)
	}
	if math.Abs(hit.UV.X-0.6) > 1e-9 || math.Abs(hit.UV.Y-0.7) > 1e-9 {
		t.Errorf("Expected uv (0.6, 0.7), got %v", hit.UV)
	}
	if !hit.HasTangentFrame {
		t.Error("Ground quad should carry a tangent frame")
	}
	if hit.MaterialID != ground {
		t.Errorf("Expected material %d, got %d", ground, hit.MaterialID)
	}

	surface := s.Resolve(hit)
	if surface.BaseColor != material.Green().BaseColor {
		t.Errorf("Expected green base color, got %v", surface.BaseColor)
	}

	// Outside the quad
	if _, ok := s.NearestHit(core.NewRay(core.NewVec3(6, 5, 0), core.NewVec3(0, -1, 0))); ok {
		t.Error("Ray outside the quad should miss")
	}
}

func TestScene_AnyHitShadowRay(t *testing.T) {
	s := NewScene(testCameraConfig())
	id := s.AddMaterial(material.GlossyWhite())
	s.AddSphere(core.NewVec3(0, 3, 0), 1, id)
	s.Build()

	ray := core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 1, 0))
	tests := []struct {
		name        string
		maxDistance float64
		expected    bool
	}{
		{"blocker beyond range", 1.5, false},
		{"blocker in range", 10, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.AnyHit(ray, tt.maxDistance); got != tt.expected {
				t.Errorf("Expected %t, got %t", tt.expected, got)
			}
		})
	}
}

func TestScene_ResolveUnknownMaterial(t *testing.T) {
	s := NewScene(testCameraConfig())
	surface := s.Resolve(geometry.Hit{MaterialID: 42})
	def := material.DefaultMaterial()
	if surface.BaseColor != def.BaseColor || surface.Roughness != def.Roughness {
		t.Errorf("Expected default material, got %+v", surface)
	}
}

func TestScene_SetCamera(t *testing.T) {
	s := NewScene(testCameraConfig())
	config := testCameraConfig()
	config.Center = core.NewVec3(0, 0, -10)
	s.SetCamera(config)

	if s.Camera.Position != config.Center {
		t.Errorf("Expected camera at %v, got %v", config.Center, s.Camera.Position)
	}
	if s.CameraConfig.Center != config.Center {
		t.Error("CameraConfig not updated")
	}
}

func TestNewRandomSpheresScene(t *testing.T) {
	a := NewRandomSpheresScene(7, 50)
	b := NewRandomSpheresScene(7, 50)
	c := NewRandomSpheresScene(8, 50)

	if a.PrimitiveCount() != 50 {
		t.Fatalf("Expected 50 spheres, got %d", a.PrimitiveCount())
	}
	if a.BVH == nil {
		t.Fatal("Scene factory should build the BVH")
	}

	same := true
	for i := range a.Primitives {
		if a.Primitives[i].Sphere != b.Primitives[i].Sphere {
			t.Fatalf("Sphere %d differs between equal seeds", i)
		}
		if a.Primitives[i].Sphere != c.Primitives[i].Sphere {
			same = false
		}
	}
	if same {
		t.Error("Different seeds produced identical scenes")
	}

	for i, p := range a.Primitives {
		center := p.Sphere.Center
		if center.X < -20 || center.X > 20 || center.Y < -20 || center.Y > 20 || center.Z < 20 || center.Z > 30 {
			t.Errorf("Sphere %d outside the slab: %v", i, center)
		}
		if _, ok := a.Materials.Get(p.MaterialID); !ok {
			t.Errorf("Sphere %d references unknown material %d", i, p.MaterialID)
		}
	}
}

func TestNewRandomSpheresScene_CameraOverride(t *testing.T) {
	s := NewRandomSpheresScene(1, 10, geometry.CameraConfig{Width: 320, AspectRatio: 1})
	if s.CameraConfig.Width != 320 || s.CameraConfig.AspectRatio != 1 {
		t.Errorf("Override not applied: %+v", s.CameraConfig)
	}
	if s.CameraConfig.VFov != 45 {
		t.Errorf("Expected default VFov 45 to survive the merge, got %f", s.CameraConfig.VFov)
	}
}

func TestNewMaterialShowcaseScene(t *testing.T) {
	s := NewMaterialShowcaseScene()
	// Two ground triangles plus two rows of six spheres
	if s.PrimitiveCount() != 14 {
		t.Errorf("Expected 14 primitives, got %d", s.PrimitiveCount())
	}

	// Looking straight down at the ground between the rows
	hit, ok := s.NearestHit(core.NewRay(core.NewVec3(0, 10, 1), core.NewVec3(0, -1, 0)))
	if !ok || math.Abs(hit.T-10) > 1e-9 {
		t.Errorf("Expected ground hit at t=10, got %v (ok=%t)", hit.T, ok)
	}
}
