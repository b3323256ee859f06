package renderer

import (
	"context"
	"fmt"
	"time"

	"github.com/df07/go-pbr-pathtracer/pkg/core"
	"github.com/df07/go-pbr-pathtracer/pkg/geometry"
	"github.com/df07/go-pbr-pathtracer/pkg/integrator"
	"github.com/df07/go-pbr-pathtracer/pkg/scene"
)

// PixelRange is a half-open run [Start, End) of row-major pixel indices
type PixelRange struct {
	Start, End int
}

// Partition splits [0, n) into at most workers contiguous, non-empty ranges
// whose sizes differ by at most one
func Partition(n, workers int) []PixelRange {
	if n <= 0 {
		return nil
	}
	workers = max(1, min(workers, n))

	ranges := make([]PixelRange, workers)
	base, extra := n/workers, n%workers
	start := 0
	for i := range ranges {
		size := base
		if i < extra {
			size++
		}
		ranges[i] = PixelRange{Start: start, End: start + size}
		start += size
	}
	return ranges
}

// FrameResult is delivered to the Render callback after every frame
type FrameResult struct {
	Stats       RenderStats
	Accumulator *Accumulator // Read-only until the callback returns
}

// FrameDriver renders progressive frames into an Accumulator. The scene is
// read-only while a frame renders; the camera may only be replaced between
// frames with SetCamera.
type FrameDriver struct {
	scene       *scene.Scene
	camera      *geometry.Camera
	config      Config
	integrator  integrator.Integrator
	accumulator *Accumulator
	ranges      []PixelRange
	workerPool  *WorkerPool
	logger      core.Logger
}

// NewFrameDriver creates a driver for the camera's viewport. A nil tracer
// selects the path tracer configured from config.
func NewFrameDriver(s *scene.Scene, camera *geometry.Camera, config Config, tracer integrator.Integrator, logger core.Logger) (*FrameDriver, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if s == nil || camera == nil {
		return nil, fmt.Errorf("%w: scene and camera are required", ErrInvalidConfig)
	}
	if tracer == nil {
		tracer = integrator.NewPathTracer(config.IntegratorConfig())
	}
	if logger == nil {
		logger = core.NopLogger{}
	}

	width, height := camera.ViewportWidth, camera.ViewportHeight
	if width != config.Width || height != config.Height {
		logger.Printf("Camera viewport %dx%d differs from configured %dx%d, using the camera's\n",
			width, height, config.Width, config.Height)
	}

	d := &FrameDriver{
		scene:       s,
		camera:      camera,
		config:      config,
		integrator:  tracer,
		accumulator: NewAccumulator(width, height, config.Accumulate),
		logger:      logger,
	}
	d.workerPool = NewWorkerPool(config.NumWorkers, 0, d.renderRange)
	d.ranges = Partition(width*height, d.workerPool.NumWorkers())
	return d, nil
}

// Accumulator returns the pixel buffers. Read it only between frames.
func (d *FrameDriver) Accumulator() *Accumulator {
	return d.accumulator
}

// Config returns the driver configuration
func (d *FrameDriver) Config() Config {
	return d.config
}

// SetCamera replaces the camera and restarts accumulation. The new camera
// must have the same viewport size.
func (d *FrameDriver) SetCamera(camera *geometry.Camera) error {
	if camera.ViewportWidth != d.accumulator.Width() || camera.ViewportHeight != d.accumulator.Height() {
		return fmt.Errorf("camera viewport %dx%d does not match buffer %dx%d",
			camera.ViewportWidth, camera.ViewportHeight, d.accumulator.Width(), d.accumulator.Height())
	}
	d.camera = camera
	d.accumulator.Reset()
	return nil
}

// RenderFrame traces one path per pixel, waits for every range to finish
// and then advances the accumulation index
func (d *FrameDriver) RenderFrame() (RenderStats, error) {
	startTime := time.Now()
	frame := d.accumulator.FrameIndex()
	d.workerPool.Start()

	for i, r := range d.ranges {
		d.workerPool.SubmitTask(RangeTask{
			TaskID: i,
			Span:   d.accumulator.Span(r.Start, r.End),
			Camera: d.camera,
			Seed:   d.taskSeed(frame, i),
		})
	}

	// Frame barrier: every range reports before the buffer is touched again
	stats := RenderStats{Workers: len(d.ranges)}
	var firstErr error
	for range d.ranges {
		result, ok := d.workerPool.GetResult()
		if !ok {
			return stats, fmt.Errorf("worker pool closed unexpectedly")
		}
		if result.Error != nil && firstErr == nil {
			firstErr = result.Error
		}
		stats.Samples += result.Samples
	}
	if firstErr != nil {
		return stats, firstErr
	}

	d.accumulator.Advance()

	stats.Frame = d.accumulator.FrameIndex()
	stats.Pixels = d.accumulator.Width() * d.accumulator.Height()
	stats.Duration = time.Since(startTime)
	stats.AverageLuminance = CalculateAverageLuminance(d.accumulator.Color)
	return stats, nil
}

// Render renders up to frames frames, invoking callback after each one.
// Cancellation is checked between frames; a callback error stops rendering
// and is returned.
func (d *FrameDriver) Render(ctx context.Context, frames int, callback func(FrameResult) error) error {
	d.logger.Printf("Starting progressive rendering of %d frames with %d workers...\n", frames, len(d.ranges))

	for i := 0; i < frames; i++ {
		select {
		case <-ctx.Done():
			d.logger.Printf("Rendering cancelled before frame %d\n", d.accumulator.FrameIndex()+1)
			return ctx.Err()
		default:
		}

		stats, err := d.RenderFrame()
		if err != nil {
			return fmt.Errorf("frame %d: %w", d.accumulator.FrameIndex()+1, err)
		}

		d.logger.Printf("Frame %d completed in %v (%.0f samples/s, avg luminance %.4f)\n",
			stats.Frame, stats.Duration, stats.SamplesPerSecond(), stats.AverageLuminance)

		if callback != nil {
			if err := callback(FrameResult{Stats: stats, Accumulator: d.accumulator}); err != nil {
				return err
			}
		}
	}
	return nil
}

// Close stops the worker goroutines. The driver cannot render afterwards.
func (d *FrameDriver) Close() {
	d.workerPool.Stop()
}

// taskSeed gives every (frame, range) pair its own sampler stream
func (d *FrameDriver) taskSeed(frame, rangeIndex int) int64 {
	return d.config.Seed*1_000_003 + int64(frame)*int64(len(d.ranges)) + int64(rangeIndex)
}

// renderRange traces every pixel of the task's span
func (d *FrameDriver) renderRange(task RangeTask) RangeResult {
	sampler := core.NewSeededSampler(task.Seed)
	width := d.accumulator.Width()

	for j := 0; j < task.Span.Len(); j++ {
		i := task.Span.Start + j
		sample := d.integrator.TracePixel(i%width, i/width, task.Camera, d.scene, sampler)
		task.Span.Update(j, sample)
	}

	return RangeResult{TaskID: task.TaskID, Samples: task.Span.Len()}
}
