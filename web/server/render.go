package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"log"
	"net/http"
	"time"

	"github.com/df07/go-pbr-pathtracer/pkg/core"
	"github.com/df07/go-pbr-pathtracer/pkg/denoise"
	"github.com/df07/go-pbr-pathtracer/pkg/integrator"
	"github.com/df07/go-pbr-pathtracer/pkg/renderer"
	"github.com/df07/go-pbr-pathtracer/pkg/scene"
)

// FrameUpdate represents one progressive frame sent via SSE
type FrameUpdate struct {
	Frame          int        `json:"frame"`
	TotalFrames    int        `json:"totalFrames"`
	ImageData      string     `json:"imageData"` // Base64 encoded PNG
	Stats          FrameStats `json:"stats"`
	PrimitiveCount int        `json:"primitiveCount"`
	ElapsedMs      int64      `json:"elapsedMs"`
	IsComplete     bool       `json:"isComplete"`
}

// FrameStats represents per-frame render statistics
type FrameStats struct {
	Pixels           int     `json:"pixels"`
	Samples          int     `json:"samples"`
	Workers          int     `json:"workers"`
	DurationMs       int64   `json:"durationMs"`
	SamplesPerSecond float64 `json:"samplesPerSecond"`
	AverageLuminance float64 `json:"averageLuminance"`
}

// SSEEvent represents a unified SSE event for thread-safe writing
type SSEEvent struct {
	Type string `json:"type"` // "console", "frame", "denoised", "error", "complete"
	Data string `json:"data"` // JSON-encoded data
}

// RenderingPipeline contains the configured scene and frame driver
type RenderingPipeline struct {
	Scene  *scene.Scene
	Driver *renderer.FrameDriver
}

// handleRender handles progressive rendering with one SSE event per frame
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	s.setSSEHeaders(w)

	ctx := r.Context()

	// All writes to w happen on the writer goroutine
	sseEventChan := make(chan SSEEvent, 100)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writeSSEEvents(w, ctx, sseEventChan)
	}()
	defer func() {
		close(sseEventChan)
		<-writerDone
	}()

	req, err := s.parseRenderRequest(r)
	if err != nil {
		s.handleError(ctx, sseEventChan, fmt.Sprintf("Invalid request: %v", err))
		return
	}
	cfg, err := req.renderConfig()
	if err != nil {
		s.handleError(ctx, sseEventChan, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	consoleChan, webLogger := s.setupConsoleLogging()
	consoleDone := make(chan struct{})
	go func() {
		defer close(consoleDone)
		s.streamConsoleMessages(ctx, consoleChan, sseEventChan)
	}()
	// Logging only happens on this goroutine, so the channel can be closed
	// once the render returns
	stopConsole := func() {
		close(consoleChan)
		<-consoleDone
	}

	pipeline, err := s.setupRenderingPipeline(req, cfg, webLogger)
	if err != nil {
		stopConsole()
		s.handleError(ctx, sseEventChan, err.Error())
		return
	}
	defer pipeline.Driver.Close()

	startTime := time.Now()
	err = pipeline.Driver.Render(ctx, cfg.Frames, func(result renderer.FrameResult) error {
		return s.handleFrameComplete(ctx, sseEventChan, result, cfg, pipeline.Scene, startTime)
	})
	if err == nil && req.Denoise {
		err = s.handleDenoise(ctx, sseEventChan, pipeline.Driver.Accumulator(), webLogger)
	}
	stopConsole()

	if err != nil {
		if ctx.Err() != nil {
			return // Client disconnected
		}
		s.handleError(ctx, sseEventChan, fmt.Sprintf("Rendering failed: %v", err))
		return
	}

	select {
	case sseEventChan <- SSEEvent{Type: "complete", Data: "Rendering completed"}:
	case <-ctx.Done():
	}
}

// setSSEHeaders sets the required headers for Server-Sent Events
func (s *Server) setSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
}

// setupConsoleLogging creates console channel and web logger for a render
func (s *Server) setupConsoleLogging() (chan ConsoleMessage, core.Logger) {
	consoleChan := make(chan ConsoleMessage, 50)
	renderID := fmt.Sprintf("render-%d", time.Now().UnixNano())
	webLogger := NewWebLogger(renderID, consoleChan)
	return consoleChan, webLogger
}

// writeSSEEvents writes events until the channel is closed or the client
// disconnects
func (s *Server) writeSSEEvents(w http.ResponseWriter, ctx context.Context, sseEventChan <-chan SSEEvent) {
	for {
		select {
		case event, ok := <-sseEventChan:
			if !ok {
				return
			}

			_, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, event.Data)
			if err != nil {
				// Client disconnected during write
				return
			}
			if flusher, ok := w.(http.Flusher); ok {
				flusher.Flush()
			}

		case <-ctx.Done():
			return
		}
	}
}

// streamConsoleMessages forwards console messages as SSE events until the
// console channel is closed
func (s *Server) streamConsoleMessages(ctx context.Context, consoleChan <-chan ConsoleMessage, sseEventChan chan<- SSEEvent) {
	for consoleMsg := range consoleChan {
		data, err := json.Marshal(consoleMsg)
		if err != nil {
			log.Printf("Error marshaling console message: %v", err)
			continue
		}

		select {
		case sseEventChan <- SSEEvent{Type: "console", Data: string(data)}:
		case <-ctx.Done():
		default:
			// Channel full, skip message to avoid blocking
		}
	}
}

// setupRenderingPipeline builds the scene and frame driver for a request
func (s *Server) setupRenderingPipeline(req *RenderRequest, cfg renderer.Config, logger core.Logger) (*RenderingPipeline, error) {
	sceneObj, err := scene.ByName(req.Scene, cfg.Seed, logger, cfg.CameraOverrides())
	if err != nil {
		return nil, err
	}

	tracer := integrator.NewPathTracer(cfg.IntegratorConfig())
	driver, err := renderer.NewFrameDriver(sceneObj, sceneObj.Camera, cfg, tracer, logger)
	if err != nil {
		return nil, err
	}
	return &RenderingPipeline{Scene: sceneObj, Driver: driver}, nil
}

// handleFrameComplete encodes the accumulated image and sends a frame event
func (s *Server) handleFrameComplete(ctx context.Context, sseEventChan chan<- SSEEvent, result renderer.FrameResult, cfg renderer.Config, sceneObj *scene.Scene, startTime time.Time) error {
	acc := result.Accumulator
	imageData, err := s.imageToBase64PNG(renderer.ToPreview(acc.Color, acc.Width(), acc.Height()))
	if err != nil {
		return fmt.Errorf("failed to encode frame %d: %w", result.Stats.Frame, err)
	}

	update := FrameUpdate{
		Frame:       result.Stats.Frame,
		TotalFrames: cfg.Frames,
		ImageData:   imageData,
		Stats: FrameStats{
			Pixels:           result.Stats.Pixels,
			Samples:          result.Stats.Samples,
			Workers:          result.Stats.Workers,
			DurationMs:       result.Stats.Duration.Milliseconds(),
			SamplesPerSecond: result.Stats.SamplesPerSecond(),
			AverageLuminance: result.Stats.AverageLuminance,
		},
		PrimitiveCount: sceneObj.PrimitiveCount(),
		ElapsedMs:      time.Since(startTime).Milliseconds(),
		IsComplete:     result.Stats.Frame >= cfg.Frames,
	}

	data, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("failed to marshal frame %d: %w", result.Stats.Frame, err)
	}

	select {
	case sseEventChan <- SSEEvent{Type: "frame", Data: string(data)}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// handleDenoise filters the final accumulated image and sends it
func (s *Server) handleDenoise(ctx context.Context, sseEventChan chan<- SSEEvent, acc *renderer.Accumulator, logger core.Logger) error {
	start := time.Now()
	filtered, err := denoise.NewGuidedFilter().Denoise(acc.Color, acc.Albedo, acc.Normal, acc.Width(), acc.Height())
	if err != nil {
		return fmt.Errorf("denoise: %w", err)
	}
	logger.Printf("Denoised %dx%d image in %v\n", acc.Width(), acc.Height(), time.Since(start))

	imageData, err := s.imageToBase64PNG(renderer.ToPreview(filtered, acc.Width(), acc.Height()))
	if err != nil {
		return fmt.Errorf("failed to encode denoised image: %w", err)
	}

	select {
	case sseEventChan <- SSEEvent{Type: "denoised", Data: imageData}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// parseRenderRequest parses request parameters
func (s *Server) parseRenderRequest(r *http.Request) (*RenderRequest, error) {
	req := &RenderRequest{}
	if err := s.parseCommonSceneParams(r, req); err != nil {
		return nil, err
	}

	query := r.URL.Query()
	var err error
	if req.Frames, err = parseIntParam(query, "frames", 16, 1, 10000); err != nil {
		return nil, err
	}
	if req.MaxDepth, err = parseIntParam(query, "maxDepth", integrator.DefaultMaxDepth, 0, 64); err != nil {
		return nil, err
	}
	if req.DirectLight, err = parseBoolParam(query, "directLight", false); err != nil {
		return nil, err
	}
	if req.Denoise, err = parseBoolParam(query, "denoise", false); err != nil {
		return nil, err
	}

	// Performance warning
	if req.Width*req.Height > 800*600 && req.Frames > 256 {
		log.Printf("Render warning: Large image with many frames may render slowly")
	}

	return req, nil
}

// imageToBase64PNG converts an image to base64-encoded PNG
func (s *Server) imageToBase64PNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// handleError sends an error event to the SSE channel
func (s *Server) handleError(ctx context.Context, sseEventChan chan<- SSEEvent, message string) {
	select {
	case sseEventChan <- SSEEvent{Type: "error", Data: message}:
	case <-ctx.Done():
		// Client disconnected, don't block
	}
}
