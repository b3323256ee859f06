package geometry

import (
	"github.com/df07/go-pbr-pathtracer/pkg/core"
	"github.com/df07/go-pbr-pathtracer/pkg/material"
)

// Hit describes a ray-surface intersection. Tangent, Bitangent are only
// set when HasTangentFrame is true (triangles with tangent data).
type Hit struct {
	T               float64
	Position        core.Vec3
	Normal          core.Vec3
	Tangent         core.Vec3
	Bitangent       core.Vec3
	UV              core.Vec2
	HasTangentFrame bool
	MaterialID      material.ID
}

// Frame returns the shading frame at the hit. Interpolated tangents are
// re-orthogonalized against the normal; surfaces without tangent data get
// an arbitrary basis around the normal.
func (h Hit) Frame() core.Frame {
	if !h.HasTangentFrame {
		return core.NewFrame(h.Normal)
	}

	tangent := h.Tangent.Subtract(h.Normal.Multiply(h.Normal.Dot(h.Tangent))).Normalize()
	if tangent.IsZero() {
		return core.NewFrame(h.Normal)
	}

	bitangent := h.Normal.Cross(tangent)
	if bitangent.Dot(h.Bitangent) < 0 {
		bitangent = bitangent.Negate()
	}
	return core.Frame{Tangent: tangent, Bitangent: bitangent, Normal: h.Normal}
}
