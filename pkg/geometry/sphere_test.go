package geometry

import (
	"math"
	"testing"

	"github.com/df07/go-pbr-pathtracer/pkg/core"
)

func TestSphere_EntryPointFromOutside(t *testing.T) {
	for _, r := range []float64{0.5, 1.0, 2.0, 10.0} {
		sphere := NewSphere(core.Vec3{}, r)
		prims := []Primitive{NewSpherePrimitive(sphere, 0)}
		bvh := NewBVH(prims)

		ray := core.NewRay(core.NewVec3(0, 0, -2*r), core.NewVec3(0, 0, 1))
		hit, ok := bvh.NearestHit(ray)
		if !ok {
			t.Fatalf("r=%g: expected hit, got miss", r)
		}
		if math.Abs(hit.T-r) > 1e-9 {
			t.Errorf("r=%g: expected t=%g, got %g", r, r, hit.T)
		}
		expectedNormal := core.NewVec3(0, 0, -1)
		if hit.Normal.Subtract(expectedNormal).Length() > 1e-9 {
			t.Errorf("r=%g: expected normal %v, got %v", r, expectedNormal, hit.Normal)
		}
		if hit.HasTangentFrame {
			t.Errorf("r=%g: spheres carry no tangent frame", r)
		}
	}
}

func TestSphere_Intersect(t *testing.T) {
	sphere := NewSphere(core.NewVec3(0, 0, 0), 1.0)

	tests := []struct {
		name      string
		ray       core.Ray
		tMin      float64
		tMax      float64
		shouldHit bool
		expectedT float64
	}{
		{"miss", core.NewRay(core.NewVec3(2, 0, 0), core.NewVec3(0, 1, 0)), 0, 1000, false, 0},
		{"inside returns far root", core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, 1)), 0, 1000, true, 1},
		{"tangent single root", core.NewRay(core.NewVec3(0, 1, -5), core.NewVec3(0, 0, 1)), 0, 1000, true, 5},
		{"sphere behind origin", core.NewRay(core.NewVec3(0, 0, 5), core.NewVec3(0, 0, 1)), 0, 1000, false, 0},
		{"tMax excludes both roots", core.NewRay(core.NewVec3(0, 0, -3), core.NewVec3(0, 0, 1)), 0, 1.5, false, 0},
		{"tMin skips near root", core.NewRay(core.NewVec3(0, 0, -3), core.NewVec3(0, 0, 1)), 2.5, 1000, true, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tHit, ok := sphere.Intersect(tt.ray, tt.tMin, tt.tMax)
			if ok != tt.shouldHit {
				t.Fatalf("Expected hit=%t, got %t (t=%f)", tt.shouldHit, ok, tHit)
			}
			if ok && math.Abs(tHit-tt.expectedT) > 1e-9 {
				t.Errorf("Expected t=%f, got %f", tt.expectedT, tHit)
			}
		})
	}
}

func TestSphere_BoundingBox(t *testing.T) {
	sphere := NewSphere(core.NewVec3(1, 2, 3), 0.5)
	box := sphere.BoundingBox()
	if box.Min != core.NewVec3(0.5, 1.5, 2.5) || box.Max != core.NewVec3(1.5, 2.5, 3.5) {
		t.Errorf("Unexpected bounds %v", box)
	}
}

func TestSphere_UVInUnitSquare(t *testing.T) {
	sphere := NewSphere(core.Vec3{}, 1)
	normals := []core.Vec3{
		core.NewVec3(1, 0, 0),
		core.NewVec3(0, 1, 0),
		core.NewVec3(0, -1, 0),
		core.NewVec3(0, 0, -1),
		core.NewVec3(1, 1, 1).Normalize(),
	}
	for _, n := range normals {
		uv := sphere.UVAt(n)
		if uv.X < 0 || uv.X > 1 || uv.Y < 0 || uv.Y > 1 {
			t.Errorf("UV for %v outside unit square: %v", n, uv)
		}
	}
}
