package material

import (
	"math"

	"github.com/df07/go-pbr-pathtracer/pkg/core"
)

// DefaultTiling is the number of texture repeats per unit of UV
const DefaultTiling = 5.0

// Texture is a decoded raster image
type Texture struct {
	Width  int
	Height int
	Pixels []core.Vec3 // Row-major: Pixels[y*Width + x]
}

// NewTexture creates a new texture
func NewTexture(width, height int, pixels []core.Vec3) *Texture {
	return &Texture{
		Width:  width,
		Height: height,
		Pixels: pixels,
	}
}

// Valid reports whether the texture has pixels to sample
func (t *Texture) Valid() bool {
	return t != nil && t.Width > 0 && t.Height > 0 && len(t.Pixels) >= t.Width*t.Height
}

// Lookup returns the nearest texel to uv·scale, wrapping in both directions.
// Row 0 corresponds to v = 0; V is not flipped.
func (t *Texture) Lookup(uv core.Vec2, scale float64) core.Vec3 {
	if !t.Valid() {
		return core.Vec3{}
	}
	x := wrap(int(math.Floor(float64(t.Width)*uv.X*scale)), t.Width)
	y := wrap(int(math.Floor(float64(t.Height)*uv.Y*scale)), t.Height)
	return t.Pixels[y*t.Width+x]
}

func wrap(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}

// DecodeGamma converts a gamma-encoded color texel to linear space
func DecodeGamma(c core.Vec3) core.Vec3 {
	return c.Pow(2.2)
}
