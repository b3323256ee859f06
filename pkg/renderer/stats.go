package renderer

import (
	"fmt"
	"time"

	"github.com/df07/go-pbr-pathtracer/pkg/core"
)

// DefaultLogger implements core.Logger by writing to stdout
type DefaultLogger struct{}

func (dl *DefaultLogger) Printf(format string, args ...interface{}) {
	fmt.Printf(format, args...)
}

// NewDefaultLogger creates a new default logger
func NewDefaultLogger() core.Logger {
	return &DefaultLogger{}
}

// RenderStats contains statistics about one rendered frame
type RenderStats struct {
	Frame            int           // Completed frame count after this frame
	Pixels           int           // Pixels traced this frame
	Samples          int           // Paths traced this frame
	Workers          int           // Tasks the frame was split into
	Duration         time.Duration // Wall time for the frame
	AverageLuminance float64       // Mean luminance of the accumulated image
}

// SamplesPerSecond returns the path throughput of the frame
func (s RenderStats) SamplesPerSecond() float64 {
	if s.Duration <= 0 {
		return 0
	}
	return float64(s.Samples) / s.Duration.Seconds()
}

// CalculateAverageLuminance returns the mean luminance of a linear buffer
func CalculateAverageLuminance(pixels []core.Vec3) float64 {
	if len(pixels) == 0 {
		return 0
	}
	total := 0.0
	for _, p := range pixels {
		total += p.Luminance()
	}
	return total / float64(len(pixels))
}
