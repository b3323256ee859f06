package renderer

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/df07/go-pbr-pathtracer/pkg/core"
)

// DisplayGamma is the encoding gamma for saved and previewed images
const DisplayGamma = 2.2

// encode clamps a linear color to [0,1] and applies display gamma
func encode(c core.Vec3) core.Vec3 {
	return c.Clamp(0, 1).GammaCorrect(DisplayGamma)
}

// ToImage16 gamma-encodes a linear row-major buffer into 16-bit channels
func ToImage16(pixels []core.Vec3, width, height int) *image.RGBA64 {
	img := image.NewRGBA64(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := encode(pixels[y*width+x])
			img.SetRGBA64(x, y, color.RGBA64{
				R: uint16(math.Round(c.X * 65535)),
				G: uint16(math.Round(c.Y * 65535)),
				B: uint16(math.Round(c.Z * 65535)),
				A: 0xffff,
			})
		}
	}
	return img
}

// ToPreview gamma-encodes a linear row-major buffer into 8-bit channels
// for streaming to the display
func ToPreview(pixels []core.Vec3, width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := encode(pixels[y*width+x])
			img.SetRGBA(x, y, color.RGBA{
				R: uint8(math.Round(c.X * 255)),
				G: uint8(math.Round(c.Y * 255)),
				B: uint8(math.Round(c.Z * 255)),
				A: 255,
			})
		}
	}
	return img
}

// SavePNG writes img to path, creating parent directories as needed
func SavePNG(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	if err := png.Encode(file, img); err != nil {
		file.Close()
		return fmt.Errorf("failed to encode PNG: %w", err)
	}
	return file.Close()
}

// OutputPath returns <dir>/<sceneName>/render_<timestamp>.png
func OutputPath(dir, sceneName string, at time.Time) string {
	safeName := strings.NewReplacer(":", "_", "/", "_", `\`, "_").Replace(sceneName)
	return filepath.Join(dir, safeName, fmt.Sprintf("render_%s.png", at.Format("20060102_150405")))
}

// DenoisedPath returns the sibling path for the denoised image
func DenoisedPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + "_denoised.png"
}
