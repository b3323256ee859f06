package core

import (
	"math"
	"math/rand"
)

// Sampler provides random sampling for rendering algorithms.
// Can be swapped out for deterministic testing or different sampling patterns.
// A Sampler is owned by a single task and is never shared across goroutines.
type Sampler interface {
	Get1D() float64
	Get2D() Vec2
}

// RandomSampler wraps a standard Go random generator
type RandomSampler struct {
	random *rand.Rand
}

// NewRandomSampler creates a sampler from a Go random generator
func NewRandomSampler(random *rand.Rand) *RandomSampler {
	return &RandomSampler{random: random}
}

// NewSeededSampler creates a sampler with its own generator seeded with seed
func NewSeededSampler(seed int64) *RandomSampler {
	return &RandomSampler{random: rand.New(rand.NewSource(seed))}
}

// Get1D returns a random float64 in [0, 1)
func (r *RandomSampler) Get1D() float64 {
	return r.random.Float64()
}

// Get2D returns two random float64 values in [0, 1)
func (r *RandomSampler) Get2D() Vec2 {
	return NewVec2(r.random.Float64(), r.random.Float64())
}

// SampleConcentricDisk maps a sample in [0,1]² to the unit disk using
// Shirley's concentric mapping. The center of the square maps to the origin.
func SampleConcentricDisk(sample Vec2) Vec2 {
	offset := NewVec2(2*sample.X-1, 2*sample.Y-1)
	if offset.X == 0 && offset.Y == 0 {
		return Vec2{}
	}

	var theta, r float64
	if math.Abs(offset.X) > math.Abs(offset.Y) {
		r = offset.X
		theta = math.Pi / 4 * (offset.Y / offset.X)
	} else {
		r = offset.Y
		theta = math.Pi/2 - math.Pi/4*(offset.X/offset.Y)
	}

	return NewVec2(r*math.Cos(theta), r*math.Sin(theta))
}

// SampleCosineHemisphereLocal returns a cosine-weighted direction in the
// local frame where +Z is the surface normal.
func SampleCosineHemisphereLocal(sample Vec2) Vec3 {
	r := math.Sqrt(sample.X)
	phi := 2.0 * math.Pi * sample.Y
	x := r * math.Cos(phi)
	y := r * math.Sin(phi)
	z := math.Sqrt(math.Max(1e-4, 1.0-x*x-y*y))
	return NewVec3(x, y, z)
}

// CosineHemispherePDF returns the density of SampleCosineHemisphereLocal for |cosTheta|
func CosineHemispherePDF(cosTheta float64) float64 {
	return math.Abs(cosTheta) / math.Pi
}

// BuildOrthonormalBasis returns a tangent and bitangent completing normal
// into a right-handed frame
func BuildOrthonormalBasis(normal Vec3) (tangent, bitangent Vec3) {
	var helper Vec3
	if math.Abs(normal.X) > 0.1 {
		helper = NewVec3(0, 1, 0)
	} else {
		helper = NewVec3(1, 0, 0)
	}
	tangent = helper.Cross(normal).Normalize()
	bitangent = normal.Cross(tangent)
	return tangent, bitangent
}

// ToWorld transforms a local-frame vector into the frame (tangent, bitangent, normal)
func ToWorld(local, tangent, bitangent, normal Vec3) Vec3 {
	return tangent.Multiply(local.X).Add(bitangent.Multiply(local.Y)).Add(normal.Multiply(local.Z))
}
