package renderer

import (
	"github.com/df07/go-pbr-pathtracer/pkg/core"
	"github.com/df07/go-pbr-pathtracer/pkg/integrator"
)

// Accumulator holds the progressive pixel buffers: the running mean of
// radiance plus the albedo and normal guides, all row-major from the top
// of the image.
type Accumulator struct {
	width, height int
	Color         []core.Vec3
	Albedo        []core.Vec3
	Normal        []core.Vec3
	frame         int
	accumulate    bool
}

// NewAccumulator creates zeroed buffers for a width×height image. With
// accumulate off every frame overwrites the previous one.
func NewAccumulator(width, height int, accumulate bool) *Accumulator {
	n := width * height
	return &Accumulator{
		width:      width,
		height:     height,
		Color:      make([]core.Vec3, n),
		Albedo:     make([]core.Vec3, n),
		Normal:     make([]core.Vec3, n),
		accumulate: accumulate,
	}
}

// Width returns the image width in pixels
func (a *Accumulator) Width() int { return a.width }

// Height returns the image height in pixels
func (a *Accumulator) Height() int { return a.height }

// FrameIndex returns the number of completed frames
func (a *Accumulator) FrameIndex() int { return a.frame }

// Update folds sample into pixel i for the current frame
func (a *Accumulator) Update(i int, sample integrator.Sample) {
	a.Span(i, i+1).Update(0, sample)
}

// Advance completes the current frame. It must be called exactly once per
// frame, after every pixel has been updated.
func (a *Accumulator) Advance() {
	a.frame++
}

// Reset clears the buffers and restarts accumulation
func (a *Accumulator) Reset() {
	clear(a.Color)
	clear(a.Albedo)
	clear(a.Normal)
	a.frame = 0
}

// Span returns the window [start, end) of the buffers. Spans with disjoint
// ranges may be updated concurrently.
func (a *Accumulator) Span(start, end int) Span {
	return Span{
		Start:  start,
		color:  a.Color[start:end:end],
		albedo: a.Albedo[start:end:end],
		normal: a.Normal[start:end:end],
		frame:  a.frame,
		blend:  a.accumulate,
	}
}

// Span is one task's exclusive window of an Accumulator for one frame
type Span struct {
	Start  int // Pixel index of the first element
	color  []core.Vec3
	albedo []core.Vec3
	normal []core.Vec3
	frame  int
	blend  bool
}

// Len returns the number of pixels in the span
func (s Span) Len() int { return len(s.color) }

// Update folds sample into the j-th pixel of the span
func (s Span) Update(j int, sample integrator.Sample) {
	s.color[j] = runningMean(s.color[j], sample.Radiance, s.frame, s.blend)
	s.albedo[j] = runningMean(s.albedo[j], sample.Albedo, s.frame, s.blend)
	s.normal[j] = runningMean(s.normal[j], sample.Normal, s.frame, s.blend)
}

// runningMean returns (old·n + value)/(n+1), or value when not blending
func runningMean(old, value core.Vec3, n int, blend bool) core.Vec3 {
	if !blend || n == 0 {
		return value
	}
	count := float64(n)
	return old.Multiply(count).Add(value).Divide(count + 1)
}
