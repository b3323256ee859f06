package material

import (
	"math"

	"github.com/df07/go-pbr-pathtracer/pkg/core"
)

const (
	// Floor applied to all cosines before evaluation
	minCosine = 1e-4
	// Floor applied to the GGX width
	minAlpha = 1e-3
	// Reflectance at normal incidence for specular = 1
	dielectricF0Scale = 0.08
)

// Alpha returns the GGX width used consistently by Evaluate, Sample and PDF
func (m SurfaceMaterial) Alpha() float64 {
	return math.Max(m.Roughness*m.Roughness, minAlpha)
}

// Evaluate returns the reflected radiance weight (BSDF × nDotL) for the given
// cosines. The diffuse lobe is scaled by the light the dielectric specular
// layer lets through on the way in and out.
func (m SurfaceMaterial) Evaluate(nDotL, nDotV, nDotH, lDotH float64) core.Vec3 {
	nDotL = math.Max(nDotL, minCosine)
	nDotV = math.Max(nDotV, minCosine)
	nDotH = math.Max(nDotH, minCosine)
	lDotH = math.Max(lDotH, minCosine)
	alpha := m.Alpha()

	tint := core.Splat(1)
	if lum := m.BaseColor.Luminance(); lum > 0 {
		tint = m.BaseColor.Multiply(1 / lum)
	}
	specColor := core.Splat(1).Lerp(tint, core.Splat(m.SpecularTint)).Multiply(m.Specular * dielectricF0Scale)
	f0 := specColor.Lerp(m.BaseColor, core.Splat(m.Metallic))

	fresnel := f0.Lerp(core.Splat(1), core.Splat(schlickWeight(lDotH)))
	specular := fresnel.Multiply(ggxD(nDotH, alpha) * smithVisibility(nDotL, nDotV, alpha))

	dielectricF0 := m.Specular * dielectricF0Scale
	transmitted := (1 - schlick(dielectricF0, nDotL)) * (1 - schlick(dielectricF0, nDotV))
	diffuse := m.BaseColor.Multiply((1 - m.Metallic) * transmitted / math.Pi)

	return diffuse.Add(specular).Multiply(nDotL)
}

// Reflectance evaluates the BSDF for world-space directions v (toward the
// viewer) and l (toward the light). The normal is oriented toward v; zero is
// returned when either direction lies on or below the surface.
func (m SurfaceMaterial) Reflectance(normal, v, l core.Vec3) core.Vec3 {
	n := facing(normal, v)
	nDotL := n.Dot(l)
	nDotV := n.Dot(v)
	if nDotL <= 0 || nDotV <= 0 {
		return core.Vec3{}
	}

	h := v.Add(l).Normalize()
	return m.Evaluate(nDotL, nDotV, n.Dot(h), l.Dot(h))
}

// Sample picks the diffuse or specular lobe with equal probability and
// returns a direction in the same hemisphere as v
func (m SurfaceMaterial) Sample(frame core.Frame, v core.Vec3, sampler core.Sampler) core.Vec3 {
	if frame.Normal.Dot(v) < 0 {
		frame = frame.Flipped()
	}

	lobe := sampler.Get1D()
	u := sampler.Get2D()

	if lobe < 0.5 {
		return frame.ToWorld(core.SampleCosineHemisphereLocal(u)).Normalize()
	}

	h := frame.ToWorld(sampleGGXHalfVector(u, m.Alpha()))
	l := reflect(v, h)
	if nDotL := frame.Normal.Dot(l); nDotL < 0 {
		// Mirror across the tangent plane into the view hemisphere
		l = l.Subtract(frame.Normal.Multiply(2 * nDotL))
	}
	return l.Normalize()
}

// PDF returns the density of Sample producing l, or 0 when v and l are on
// opposite sides of the surface. The specular term includes the mirrored
// direction that Sample folds back above the surface.
func (m SurfaceMaterial) PDF(normal, v, l core.Vec3) float64 {
	n := facing(normal, v)
	nDotL := n.Dot(l)
	if nDotL <= 0 || n.Dot(v) <= 0 {
		return 0
	}

	alpha := m.Alpha()
	mirrored := l.Subtract(n.Multiply(2 * nDotL))
	specular := ggxReflectionPDF(n, v, l, alpha) + ggxReflectionPDF(n, v, mirrored, alpha)

	return 0.5*core.CosineHemispherePDF(nDotL) + 0.5*specular
}

// facing flips normal to the side of v
func facing(normal, v core.Vec3) core.Vec3 {
	if normal.Dot(v) < 0 {
		return normal.Negate()
	}
	return normal
}

func reflect(v, h core.Vec3) core.Vec3 {
	return h.Multiply(2 * v.Dot(h)).Subtract(v)
}

// sampleGGXHalfVector draws a microfacet normal in the local frame with
// density D(h)·cosθh, using tan²θ = α²·u/(1−u)
func sampleGGXHalfVector(u core.Vec2, alpha float64) core.Vec3 {
	tan2Theta := alpha * alpha * u.X / (1 - u.X)
	cosTheta := 1 / math.Sqrt(1+tan2Theta)
	sinTheta := math.Sqrt(math.Max(0, 1-cosTheta*cosTheta))
	phi := 2 * math.Pi * u.Y
	return core.NewVec3(sinTheta*math.Cos(phi), sinTheta*math.Sin(phi), cosTheta)
}

// ggxReflectionPDF is the solid-angle density of reflecting v into l about a
// GGX-sampled half vector: D·nDotH / (4·vDotH)
func ggxReflectionPDF(n, v, l core.Vec3, alpha float64) float64 {
	h := v.Add(l)
	if h.IsZero() {
		return 0
	}
	h = h.Normalize()
	if n.Dot(h) < 0 {
		h = h.Negate()
	}
	vDotH := math.Abs(v.Dot(h))
	if vDotH < 1e-8 {
		return 0
	}
	nDotH := n.Dot(h)
	return ggxD(nDotH, alpha) * nDotH / (4 * vDotH)
}

// ggxD is the GGX (Trowbridge-Reitz) normal distribution
func ggxD(nDotH, alpha float64) float64 {
	a2 := alpha * alpha
	t := nDotH*nDotH*(a2-1) + 1
	return a2 / (math.Pi * t * t)
}

// smithVisibility is the height-correlated Smith term G/(4·nDotL·nDotV)
func smithVisibility(nDotL, nDotV, alpha float64) float64 {
	a2 := alpha * alpha
	lambdaV := nDotL * math.Sqrt((nDotV-a2*nDotV)*nDotV+a2)
	lambdaL := nDotV * math.Sqrt((nDotL-a2*nDotL)*nDotL+a2)
	return 0.5 / (lambdaV + lambdaL)
}

func schlickWeight(cosTheta float64) float64 {
	m := math.Min(math.Max(1-cosTheta, 0), 1)
	return m * m * m * m * m
}

func schlick(f0, cosTheta float64) float64 {
	return f0 + (1-f0)*schlickWeight(cosTheta)
}
