package scene

import (
	"github.com/df07/go-pbr-pathtracer/pkg/core"
	"github.com/df07/go-pbr-pathtracer/pkg/geometry"
	"github.com/df07/go-pbr-pathtracer/pkg/material"
)

// Scene contains all the elements needed for rendering. Primitives,
// materials and textures are populated during setup, then Build is called
// once; everything is read-only while frames render.
type Scene struct {
	Camera       *geometry.Camera
	CameraConfig geometry.CameraConfig
	Primitives   []geometry.Primitive
	Materials    material.MaterialTable
	Textures     material.TextureTable
	Background   core.Vec3     // Radiance returned by rays that escape the scene
	BVH          *geometry.BVH // Acceleration structure, nil until Build
}

// DefaultBackground is the uniform gray environment
func DefaultBackground() core.Vec3 {
	return core.Splat(0.7)
}

// NewScene creates an empty scene viewed through the given camera
func NewScene(cameraConfig geometry.CameraConfig) *Scene {
	return &Scene{
		Camera:       geometry.NewCamera(cameraConfig),
		CameraConfig: cameraConfig,
		Primitives:   make([]geometry.Primitive, 0),
		Background:   DefaultBackground(),
	}
}

// SetCamera replaces the camera. Only valid between frames.
func (s *Scene) SetCamera(config geometry.CameraConfig) {
	s.CameraConfig = config
	s.Camera = geometry.NewCamera(config)
}

// AddMaterial publishes a material and returns its handle
func (s *Scene) AddMaterial(m material.Material) material.ID {
	return s.Materials.Place(m)
}

// AddTexture publishes a texture and returns its handle
func (s *Scene) AddTexture(t *material.Texture) material.TextureID {
	return s.Textures.Place(t)
}

// AddSphere adds a sphere primitive
func (s *Scene) AddSphere(center core.Vec3, radius float64, materialID material.ID) {
	s.Primitives = append(s.Primitives, geometry.NewSpherePrimitive(geometry.NewSphere(center, radius), materialID))
}

// AddTriangle adds a triangle primitive
func (s *Scene) AddTriangle(tri geometry.Triangle, materialID material.ID) {
	s.Primitives = append(s.Primitives, geometry.NewTrianglePrimitive(tri, materialID))
}

// AddMesh expands a mesh into triangle primitives
func (s *Scene) AddMesh(mesh *geometry.Mesh, materialID material.ID, transform geometry.MeshTransform) error {
	prims, err := mesh.Triangles(materialID, transform)
	if err != nil {
		return err
	}
	s.Primitives = append(s.Primitives, prims...)
	return nil
}

// AddGroundQuad adds a horizontal square of two triangles centered at center,
// facing +Y, with UVs spanning [0,1] across the square
func (s *Scene) AddGroundQuad(center core.Vec3, size float64, materialID material.ID) {
	h := size / 2
	up := core.NewVec3(0, 1, 0)
	corner := func(dx, dz, u, v float64) geometry.Vertex {
		return geometry.Vertex{
			Position:  core.NewVec3(center.X+dx, center.Y, center.Z+dz),
			Normal:    up,
			Tangent:   core.NewVec3(1, 0, 0),
			Bitangent: core.NewVec3(0, 0, 1),
			UV:        core.NewVec2(u, v),
		}
	}
	c0 := corner(-h, -h, 0, 0)
	c1 := corner(-h, h, 0, 1)
	c2 := corner(h, h, 1, 1)
	c3 := corner(h, -h, 1, 0)
	s.AddTriangle(geometry.NewTriangle(c0, c1, c2), materialID)
	s.AddTriangle(geometry.NewTriangle(c0, c2, c3), materialID)
}

// Build constructs the acceleration structure over the current primitives.
// It must run after all primitives are added and before any query; adding
// primitives afterwards requires another Build.
func (s *Scene) Build() geometry.BVHStats {
	s.BVH = geometry.NewBVH(s.Primitives)
	return s.BVH.Stats()
}

// NearestHit returns the closest intersection. An unbuilt scene never hits.
func (s *Scene) NearestHit(ray core.Ray) (geometry.Hit, bool) {
	return s.BVH.NearestHit(ray)
}

// AnyHit reports whether anything blocks the ray within maxDistance
func (s *Scene) AnyHit(ray core.Ray, maxDistance float64) bool {
	return s.BVH.AnyHit(ray, maxDistance)
}

// Resolve applies the hit's material and textures
func (s *Scene) Resolve(hit geometry.Hit) material.SurfaceMaterial {
	return material.Resolve(hit.MaterialID, hit.UV, &s.Materials, &s.Textures)
}

// PrimitiveCount returns the number of primitives in the scene
func (s *Scene) PrimitiveCount() int {
	return len(s.Primitives)
}
