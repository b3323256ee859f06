// Package denoise filters a converged-enough radiance buffer using the
// first-bounce albedo and normal guides.
package denoise

import (
	"errors"
	"fmt"
	"math"

	"github.com/df07/go-pbr-pathtracer/pkg/core"
)

var (
	// ErrDimensions is returned when a buffer does not hold width×height pixels
	ErrDimensions = errors.New("denoise: buffer dimensions mismatch")
	// ErrConfig is returned for invalid filter settings
	ErrConfig = errors.New("denoise: invalid filter configuration")
)

// Denoiser filters a linear color buffer. Implementations must not modify
// the inputs. On error the caller keeps the unfiltered color buffer.
type Denoiser interface {
	Denoise(color, albedo, normal []core.Vec3, width, height int) ([]core.Vec3, error)
}

// GuidedFilter is a joint bilateral filter: neighbors are weighted by
// spatial distance and by how closely their albedo, normal and color match
// the center pixel, so edges present in the guides are preserved.
type GuidedFilter struct {
	Radius      int     // Half-width of the square window in pixels
	SigmaSpace  float64 // Spatial falloff in pixels
	SigmaColor  float64 // Falloff over color difference
	SigmaAlbedo float64 // Falloff over albedo difference
	SigmaNormal float64 // Falloff over normal difference
}

// NewGuidedFilter returns a filter with defaults tuned for a few dozen
// samples per pixel
func NewGuidedFilter() *GuidedFilter {
	return &GuidedFilter{
		Radius:      3,
		SigmaSpace:  2.0,
		SigmaColor:  0.5,
		SigmaAlbedo: 0.1,
		SigmaNormal: 0.2,
	}
}

func (f *GuidedFilter) validate() error {
	switch {
	case f.Radius < 0:
		return fmt.Errorf("%w: radius %d", ErrConfig, f.Radius)
	case f.SigmaSpace <= 0, f.SigmaColor <= 0, f.SigmaAlbedo <= 0, f.SigmaNormal <= 0:
		return fmt.Errorf("%w: sigmas must be positive", ErrConfig)
	}
	return nil
}

// Denoise implements Denoiser
func (f *GuidedFilter) Denoise(color, albedo, normal []core.Vec3, width, height int) ([]core.Vec3, error) {
	if err := f.validate(); err != nil {
		return nil, err
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrDimensions, width, height)
	}
	n := width * height
	if len(color) != n || len(albedo) != n || len(normal) != n {
		return nil, fmt.Errorf("%w: want %d pixels, got color=%d albedo=%d normal=%d",
			ErrDimensions, n, len(color), len(albedo), len(normal))
	}

	spatial := gaussianKernel(f.Radius, f.SigmaSpace)
	colorScale := -1 / (2 * f.SigmaColor * f.SigmaColor)
	albedoScale := -1 / (2 * f.SigmaAlbedo * f.SigmaAlbedo)
	normalScale := -1 / (2 * f.SigmaNormal * f.SigmaNormal)
	size := 2*f.Radius + 1

	out := make([]core.Vec3, n)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			center := y*width + x
			sum := core.Vec3{}
			total := 0.0

			for dy := -f.Radius; dy <= f.Radius; dy++ {
				sy := y + dy
				if sy < 0 || sy >= height {
					continue
				}
				for dx := -f.Radius; dx <= f.Radius; dx++ {
					sx := x + dx
					if sx < 0 || sx >= width {
						continue
					}
					i := sy*width + sx

					w := spatial[(dy+f.Radius)*size+(dx+f.Radius)]
					w *= math.Exp(color[i].Subtract(color[center]).LengthSquared()*colorScale +
						albedo[i].Subtract(albedo[center]).LengthSquared()*albedoScale +
						normal[i].Subtract(normal[center]).LengthSquared()*normalScale)

					sum = sum.Add(color[i].Multiply(w))
					total += w
				}
			}

			// The center pixel always contributes weight 1
			out[center] = sum.Multiply(1 / total)
		}
	}
	return out, nil
}

// gaussianKernel returns the (2r+1)² spatial weights, 1 at the center
func gaussianKernel(radius int, sigma float64) []float64 {
	size := 2*radius + 1
	kernel := make([]float64, size*size)
	scale := -1 / (2 * sigma * sigma)
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			kernel[(dy+radius)*size+(dx+radius)] = math.Exp(float64(dx*dx+dy*dy) * scale)
		}
	}
	return kernel
}
