package renderer

import (
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/df07/go-pbr-pathtracer/pkg/core"
)

func TestToImage16_GammaAndQuantization(t *testing.T) {
	pixels := []core.Vec3{
		core.NewVec3(0, 1, 2),      // black, white, over-range
		core.NewVec3(-1, 0.5, 0.2), // negative clamps to black
	}
	img := ToImage16(pixels, 2, 1)

	tests := []struct {
		name     string
		got      uint16
		expected float64
	}{
		{"zero", img.RGBA64At(0, 0).R, 0},
		{"one", img.RGBA64At(0, 0).G, 65535},
		{"over-range clamps", img.RGBA64At(0, 0).B, 65535},
		{"negative clamps", img.RGBA64At(1, 0).R, 0},
		{"half", img.RGBA64At(1, 0).G, math.Round(math.Pow(0.5, 1/2.2) * 65535)},
		{"fifth", img.RGBA64At(1, 0).B, math.Round(math.Pow(0.2, 1/2.2) * 65535)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if float64(tt.got) != tt.expected {
				t.Errorf("Expected %v, got %d", tt.expected, tt.got)
			}
		})
	}
	if img.RGBA64At(1, 0).A != 0xffff {
		t.Error("Expected opaque alpha")
	}
}

func TestToPreview(t *testing.T) {
	img := ToPreview([]core.Vec3{core.Splat(0.5)}, 1, 1)
	expected := uint8(math.Round(math.Pow(0.5, 1/2.2) * 255))
	if c := img.RGBAAt(0, 0); c.R != expected || c.G != expected || c.B != expected || c.A != 255 {
		t.Errorf("Expected %d gray, got %v", expected, c)
	}
}

func TestSavePNG_RoundTrip16Bit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.png")
	img := ToImage16([]core.Vec3{core.NewVec3(0.3, 0.6, 0.9)}, 1, 1)

	if err := SavePNG(path, img); err != nil {
		t.Fatalf("SavePNG failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Failed to open saved file: %v", err)
	}
	defer f.Close()
	decoded, err := png.Decode(f)
	if err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}

	r, g, b, _ := decoded.At(0, 0).RGBA()
	want := img.RGBA64At(0, 0)
	if uint16(r) != want.R || uint16(g) != want.G || uint16(b) != want.B {
		t.Errorf("16-bit precision lost: got (%d,%d,%d), want %v", r, g, b, want)
	}
}

func TestOutputPaths(t *testing.T) {
	at := time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC)
	path := OutputPath("output", "ply:dragon", at)
	expected := filepath.Join("output", "ply_dragon", "render_20240305_140709.png")
	if path != expected {
		t.Errorf("Expected %s, got %s", expected, path)
	}
	if denoised := DenoisedPath(path); denoised != filepath.Join("output", "ply_dragon", "render_20240305_140709_denoised.png") {
		t.Errorf("Unexpected denoised path %s", denoised)
	}
}
