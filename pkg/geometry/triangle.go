package geometry

import (
	"github.com/df07/go-pbr-pathtracer/pkg/core"
)

// Vertex carries the per-vertex attributes interpolated across a triangle
type Vertex struct {
	Position  core.Vec3
	Normal    core.Vec3
	Tangent   core.Vec3
	Bitangent core.Vec3
	UV        core.Vec2
}

// Triangle is a single triangle defined by three vertices
type Triangle struct {
	V0, V1, V2 Vertex
}

// NewTriangle creates a triangle from fully specified vertices
func NewTriangle(v0, v1, v2 Vertex) Triangle {
	return Triangle{V0: v0, V1: v1, V2: v2}
}

// NewFlatTriangle creates a triangle from positions only. Every vertex gets the
// geometric normal and the UVs (0,0), (1,0), (0,1).
func NewFlatTriangle(p0, p1, p2 core.Vec3) Triangle {
	normal := p1.Subtract(p0).Cross(p2.Subtract(p0)).Normalize()
	return Triangle{
		V0: Vertex{Position: p0, Normal: normal, UV: core.NewVec2(0, 0)},
		V1: Vertex{Position: p1, Normal: normal, UV: core.NewVec2(1, 0)},
		V2: Vertex{Position: p2, Normal: normal, UV: core.NewVec2(0, 1)},
	}
}

// GeometricNormal returns the normalized winding normal (V1-V0)×(V2-V0)
func (t Triangle) GeometricNormal() core.Vec3 {
	return t.V1.Position.Subtract(t.V0.Position).Cross(t.V2.Position.Subtract(t.V0.Position)).Normalize()
}

// Intersect tests the ray against the triangle using the Möller-Trumbore
// algorithm. bary holds the weights (u, v) of V1 and V2.
func (t Triangle) Intersect(ray core.Ray, tMin, tMax float64) (float64, core.Vec2, bool) {
	const epsilon = 1e-8

	edge1 := t.V1.Position.Subtract(t.V0.Position)
	edge2 := t.V2.Position.Subtract(t.V0.Position)

	h := ray.Direction.Cross(edge2)
	det := edge1.Dot(h)

	// Ray lies in (or parallel to) the triangle's plane
	if det > -epsilon && det < epsilon {
		return 0, core.Vec2{}, false
	}

	f := 1.0 / det
	s := ray.Origin.Subtract(t.V0.Position)
	u := f * s.Dot(h)
	if u < 0.0 || u > 1.0 {
		return 0, core.Vec2{}, false
	}

	q := s.Cross(edge1)
	v := f * ray.Direction.Dot(q)
	if v < 0.0 || u+v > 1.0 {
		return 0, core.Vec2{}, false
	}

	tParam := f * edge2.Dot(q)
	if tParam < tMin || tParam > tMax {
		return 0, core.Vec2{}, false
	}

	return tParam, core.NewVec2(u, v), true
}

// interpolate fills the shading attributes of hit from barycentrics (u, v)
func (t Triangle) interpolate(bary core.Vec2, hit *Hit) {
	w := 1 - bary.X - bary.Y
	blend := func(a, b, c core.Vec3) core.Vec3 {
		return a.Multiply(w).Add(b.Multiply(bary.X)).Add(c.Multiply(bary.Y))
	}

	hit.Normal = blend(t.V0.Normal, t.V1.Normal, t.V2.Normal).Normalize()
	if hit.Normal.IsZero() {
		hit.Normal = t.GeometricNormal()
	}

	hit.UV = t.V0.UV.Multiply(w).Add(t.V1.UV.Multiply(bary.X)).Add(t.V2.UV.Multiply(bary.Y))

	tangent := blend(t.V0.Tangent, t.V1.Tangent, t.V2.Tangent).Normalize()
	bitangent := blend(t.V0.Bitangent, t.V1.Bitangent, t.V2.Bitangent).Normalize()
	if !tangent.IsZero() && !bitangent.IsZero() {
		hit.Tangent = tangent
		hit.Bitangent = bitangent
		hit.HasTangentFrame = true
	}
}

// BoundingBox returns the axis-aligned bounding box for this triangle
func (t Triangle) BoundingBox() core.AABB {
	return core.NewAABBFromPoints(t.V0.Position, t.V1.Position, t.V2.Position)
}
