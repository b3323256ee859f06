package renderer

import (
	"math"
	"testing"

	"github.com/df07/go-pbr-pathtracer/pkg/core"
	"github.com/df07/go-pbr-pathtracer/pkg/integrator"
)

func TestAccumulator_ConstantConverges(t *testing.T) {
	values := []core.Vec3{
		core.NewVec3(0.7, 0.7, 0.7),
		core.NewVec3(0.1, 0.3, 123.456),
		core.NewVec3(1e-6, 2.5, 0),
	}

	for _, c := range values {
		for _, frames := range []int{1, 2, 7, 100, 1000} {
			acc := NewAccumulator(1, 1, true)
			for i := 0; i < frames; i++ {
				acc.Update(0, integrator.Sample{Radiance: c})
				acc.Advance()
			}
			if acc.Color[0].Subtract(c).Length() > 1e-12*math.Max(1, c.Length()) {
				t.Errorf("c=%v after %d frames: got %v", c, frames, acc.Color[0])
			}
			if acc.FrameIndex() != frames {
				t.Errorf("Expected frame index %d, got %d", frames, acc.FrameIndex())
			}
		}
	}
}

func TestAccumulator_RunningMean(t *testing.T) {
	acc := NewAccumulator(2, 1, true)
	inputs := []float64{1, 2, 6}
	for _, v := range inputs {
		acc.Update(1, integrator.Sample{Radiance: core.Splat(v), Albedo: core.Splat(v / 10)})
		acc.Advance()
	}

	if math.Abs(acc.Color[1].X-3) > 1e-12 {
		t.Errorf("Expected mean 3, got %f", acc.Color[1].X)
	}
	if math.Abs(acc.Albedo[1].X-0.3) > 1e-12 {
		t.Errorf("Expected albedo mean 0.3, got %f", acc.Albedo[1].X)
	}
	if !acc.Color[0].IsZero() {
		t.Errorf("Untouched pixel changed: %v", acc.Color[0])
	}
}

func TestAccumulator_OverwriteWhenDisabled(t *testing.T) {
	acc := NewAccumulator(1, 1, false)
	for _, v := range []float64{5, 1, 3} {
		acc.Update(0, integrator.Sample{Radiance: core.Splat(v)})
		acc.Advance()
	}
	if acc.Color[0] != core.Splat(3) {
		t.Errorf("Expected last frame value 3, got %v", acc.Color[0])
	}
	if acc.FrameIndex() != 3 {
		t.Errorf("Frame index should still advance, got %d", acc.FrameIndex())
	}
}

func TestAccumulator_Reset(t *testing.T) {
	acc := NewAccumulator(2, 2, true)
	acc.Update(3, integrator.Sample{Radiance: core.Splat(1), Normal: core.NewVec3(0, 1, 0)})
	acc.Advance()
	acc.Reset()

	if acc.FrameIndex() != 0 {
		t.Errorf("Expected frame index 0, got %d", acc.FrameIndex())
	}
	for i := range acc.Color {
		if !acc.Color[i].IsZero() || !acc.Normal[i].IsZero() {
			t.Fatalf("Pixel %d not cleared", i)
		}
	}

	// The first frame after a reset replaces rather than blends
	acc.Update(3, integrator.Sample{Radiance: core.Splat(0.25)})
	if acc.Color[3] != core.Splat(0.25) {
		t.Errorf("Expected 0.25, got %v", acc.Color[3])
	}
}

func TestAccumulator_SpanIsWindow(t *testing.T) {
	acc := NewAccumulator(4, 1, true)
	span := acc.Span(1, 3)
	if span.Len() != 2 || span.Start != 1 {
		t.Fatalf("Unexpected span %d..%d", span.Start, span.Start+span.Len())
	}

	span.Update(1, integrator.Sample{Radiance: core.Splat(9)})
	if acc.Color[2] != core.Splat(9) {
		t.Errorf("Span update should land on pixel 2, buffer is %v", acc.Color)
	}
}
