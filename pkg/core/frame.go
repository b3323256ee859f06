package core

// Frame is an orthonormal shading frame at a surface point
type Frame struct {
	Tangent   Vec3
	Bitangent Vec3
	Normal    Vec3
}

// NewFrame builds a frame from a normal, deriving tangent and bitangent
func NewFrame(normal Vec3) Frame {
	tangent, bitangent := BuildOrthonormalBasis(normal)
	return Frame{Tangent: tangent, Bitangent: bitangent, Normal: normal}
}

// ToWorld transforms a local-frame vector (+Z along the normal) into world space
func (f Frame) ToWorld(local Vec3) Vec3 {
	return ToWorld(local, f.Tangent, f.Bitangent, f.Normal)
}

// Flipped returns the frame mirrored to the opposite side of the surface
func (f Frame) Flipped() Frame {
	return Frame{Tangent: f.Tangent, Bitangent: f.Bitangent.Negate(), Normal: f.Normal.Negate()}
}
