package geometry

import (
	"math"

	"github.com/df07/go-pbr-pathtracer/pkg/core"
)

// Sphere is a sphere shape
type Sphere struct {
	Center core.Vec3
	Radius float64
}

// NewSphere creates a new sphere
func NewSphere(center core.Vec3, radius float64) Sphere {
	return Sphere{Center: center, Radius: radius}
}

// Intersect solves the ray-sphere quadratic and returns the smaller root in
// [tMin, tMax], falling back to the larger one
func (s Sphere) Intersect(ray core.Ray, tMin, tMax float64) (float64, bool) {
	// Vector from ray origin to sphere center
	oc := ray.Origin.Subtract(s.Center)

	// Quadratic equation coefficients: at² + 2·halfB·t + c = 0
	a := ray.Direction.Dot(ray.Direction)
	if a == 0 {
		return 0, false
	}
	halfB := oc.Dot(ray.Direction)
	c := oc.Dot(oc) - s.Radius*s.Radius

	discriminant := halfB*halfB - a*c
	if discriminant < 0 {
		return 0, false
	}

	// A tangent ray has sqrtD == 0 and both roots coincide
	sqrtD := math.Sqrt(discriminant)

	root := (-halfB - sqrtD) / a
	if root < tMin || root > tMax {
		root = (-halfB + sqrtD) / a
		if root < tMin || root > tMax {
			return 0, false
		}
	}

	return root, true
}

// NormalAt returns the outward radial normal at a point on the surface
func (s Sphere) NormalAt(point core.Vec3) core.Vec3 {
	return point.Subtract(s.Center).Multiply(1.0 / s.Radius)
}

// UVAt maps an outward normal to spherical (longitude, latitude) coordinates
func (s Sphere) UVAt(normal core.Vec3) core.Vec2 {
	u := 0.5 + math.Atan2(normal.Z, normal.X)/(2*math.Pi)
	v := 0.5 + math.Asin(math.Max(-1, math.Min(1, normal.Y)))/math.Pi
	return core.NewVec2(u, v)
}

// BoundingBox returns the axis-aligned bounding box for this sphere
func (s Sphere) BoundingBox() core.AABB {
	radius := core.Splat(math.Abs(s.Radius))
	return core.NewAABB(
		s.Center.Subtract(radius),
		s.Center.Add(radius),
	)
}
