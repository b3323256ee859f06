package geometry

import (
	"github.com/df07/go-pbr-pathtracer/pkg/core"
	"github.com/df07/go-pbr-pathtracer/pkg/material"
)

// Kind identifies which shape a Primitive carries
type Kind uint8

const (
	KindSphere Kind = iota
	KindTriangle
)

func (k Kind) String() string {
	switch k {
	case KindSphere:
		return "sphere"
	case KindTriangle:
		return "triangle"
	default:
		return "unknown"
	}
}

// Primitive is a closed sum over the supported shapes. Only the field
// selected by Kind is meaningful.
type Primitive struct {
	Kind       Kind
	Sphere     Sphere
	Triangle   Triangle
	MaterialID material.ID

	// NodeIndex is the BVH leaf holding this primitive, assigned by NewBVH.
	// -1 until the primitive has been built into a hierarchy.
	NodeIndex int
}

// NewSpherePrimitive wraps a sphere as a primitive
func NewSpherePrimitive(s Sphere, materialID material.ID) Primitive {
	return Primitive{Kind: KindSphere, Sphere: s, MaterialID: materialID, NodeIndex: -1}
}

// NewTrianglePrimitive wraps a triangle as a primitive
func NewTrianglePrimitive(t Triangle, materialID material.ID) Primitive {
	return Primitive{Kind: KindTriangle, Triangle: t, MaterialID: materialID, NodeIndex: -1}
}

// BoundingBox returns the bounds of the active shape
func (p *Primitive) BoundingBox() core.AABB {
	switch p.Kind {
	case KindSphere:
		return p.Sphere.BoundingBox()
	case KindTriangle:
		return p.Triangle.BoundingBox()
	default:
		return core.EmptyAABB()
	}
}

// Intersect returns the ray parameter and barycentrics (triangles only) of
// the nearest intersection with t in [tMin, tMax]
func (p *Primitive) Intersect(ray core.Ray, tMin, tMax float64) (t float64, bary core.Vec2, ok bool) {
	switch p.Kind {
	case KindSphere:
		t, ok = p.Sphere.Intersect(ray, tMin, tMax)
		return t, core.Vec2{}, ok
	case KindTriangle:
		return p.Triangle.Intersect(ray, tMin, tMax)
	default:
		return 0, core.Vec2{}, false
	}
}

// surfaceAt builds the hit record for an intersection found by Intersect
func (p *Primitive) surfaceAt(ray core.Ray, t float64, bary core.Vec2) Hit {
	position := ray.At(t)
	hit := Hit{T: t, Position: position, MaterialID: p.MaterialID}

	switch p.Kind {
	case KindSphere:
		hit.Normal = p.Sphere.NormalAt(position)
		hit.UV = p.Sphere.UVAt(hit.Normal)
	case KindTriangle:
		p.Triangle.interpolate(bary, &hit)
	}
	return hit
}
