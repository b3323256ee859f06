package material

import (
	"github.com/df07/go-pbr-pathtracer/pkg/core"
)

// SurfaceMaterial is a material with all texture lookups applied, ready for
// BSDF evaluation at one shading point
type SurfaceMaterial struct {
	BaseColor    core.Vec3
	Metallic     float64
	Specular     float64
	Roughness    float64
	SpecularTint float64
}

// Resolve looks up a material and applies its textures at uv. Unknown
// materials resolve to DefaultMaterial; missing or empty textures leave the
// scalar value in place.
func Resolve(id ID, uv core.Vec2, materials *MaterialTable, textures *TextureTable) SurfaceMaterial {
	var mat Material
	ok := false
	if materials != nil {
		mat, ok = materials.Get(id)
	}
	if !ok {
		mat = DefaultMaterial()
	}

	surface := SurfaceMaterial{
		BaseColor:    mat.BaseColor,
		Metallic:     mat.Metallic,
		Specular:     mat.Specular,
		Roughness:    mat.Roughness,
		SpecularTint: mat.SpecularTint,
	}

	if tex, ok := lookupTexture(textures, mat.AlbedoTexture); ok {
		surface.BaseColor = DecodeGamma(tex.Lookup(uv, DefaultTiling))
	}
	if tex, ok := lookupTexture(textures, mat.RoughnessTexture); ok {
		surface.Roughness = tex.Lookup(uv, DefaultTiling).X
	}
	if tex, ok := lookupTexture(textures, mat.MetallicTexture); ok {
		surface.Metallic = tex.Lookup(uv, DefaultTiling).X
	}

	return surface
}

func lookupTexture(textures *TextureTable, id TextureID) (*Texture, bool) {
	if id == NoTexture || textures == nil {
		return nil, false
	}
	tex, ok := textures.Get(id)
	if !ok || !tex.Valid() {
		return nil, false
	}
	return tex, true
}
