package loaders

import (
	"fmt"
	"image"
	_ "image/jpeg" // JPEG decoder
	_ "image/png"  // PNG decoder
	"os"

	"github.com/df07/go-pbr-pathtracer/pkg/core"
	"github.com/df07/go-pbr-pathtracer/pkg/material"
)

// ImageData contains loaded image data as Vec3 color array
type ImageData struct {
	Width  int
	Height int
	Pixels []core.Vec3 // Row-major, row 0 is the top of the image
}

// LoadImage loads a PNG or JPEG image and converts it to Vec3 color array.
// Values are the stored (gamma-encoded) channels scaled to [0, 1].
func LoadImage(filename string) (*ImageData, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open image file: %w", err)
	}
	defer file.Close()

	// Decode image (auto-detects PNG/JPEG from file header)
	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	pixels := make([]core.Vec3, width*height)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
			// RGBA returns uint32 in [0, 65535], convert to [0, 1]
			pixels[y*width+x] = core.NewVec3(
				float64(r)/65535.0,
				float64(g)/65535.0,
				float64(b)/65535.0,
			)
		}
	}

	return &ImageData{
		Width:  width,
		Height: height,
		Pixels: pixels,
	}, nil
}

// LoadTexture loads an image as a material texture. Failures are returned
// as *LoadError.
func LoadTexture(filename string) (*material.Texture, error) {
	data, err := LoadImage(filename)
	if err != nil {
		return nil, &LoadError{Kind: KindTexture, Path: filename, Err: err}
	}
	if data.Width == 0 || data.Height == 0 {
		return nil, &LoadError{Kind: KindTexture, Path: filename, Err: fmt.Errorf("image has no pixels")}
	}
	return material.NewTexture(data.Width, data.Height, data.Pixels), nil
}
