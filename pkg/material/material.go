package material

import (
	"github.com/df07/go-pbr-pathtracer/pkg/core"
)

// ID is the handle of a material in a MaterialTable. The zero ID refers to
// no material and resolves to DefaultMaterial.
type ID int

// TextureID is the handle of a texture in a TextureTable
type TextureID int

// NoTexture marks an unset texture slot
const NoTexture TextureID = 0

// Material holds the parameters of the diffuse + GGX reflectance model.
// Texture slots, when set, override the matching scalar at shading time.
type Material struct {
	BaseColor    core.Vec3
	Metallic     float64
	Specular     float64
	Roughness    float64
	SpecularTint float64

	AlbedoTexture    TextureID
	RoughnessTexture TextureID
	MetallicTexture  TextureID
}

// DefaultMaterial is black, non-metallic, with medium specular and roughness
func DefaultMaterial() Material {
	return Material{
		BaseColor: core.Vec3{},
		Metallic:  0.0,
		Specular:  0.5,
		Roughness: 0.5,
	}
}

// NewMaterial creates an untextured material
func NewMaterial(baseColor core.Vec3, metallic, roughness float64) Material {
	m := DefaultMaterial()
	m.BaseColor = baseColor
	m.Metallic = metallic
	m.Roughness = roughness
	return m
}

// GlossyWhite is a smooth white dielectric
func GlossyWhite() Material {
	return NewMaterial(core.NewVec3(1, 1, 1), 0.0, 0.4)
}

// Green is a rough green diffuse surface
func Green() Material {
	return NewMaterial(core.NewVec3(0, 1, 0), 0.0, 1.0)
}

// Blue is a rough blue diffuse surface
func Blue() Material {
	return NewMaterial(core.NewVec3(0, 0, 1), 0.0, 1.0)
}

// GlossyOrange is a polished orange metal
func GlossyOrange() Material {
	return NewMaterial(core.NewVec3(0.8, 0.4, 0), 0.9, 0.1)
}

// Presets returns the named materials used by the demo scenes
func Presets() []Material {
	return []Material{GlossyWhite(), Green(), Blue(), GlossyOrange()}
}
