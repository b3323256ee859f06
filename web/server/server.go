package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"github.com/df07/go-pbr-pathtracer/pkg/renderer"
	"github.com/df07/go-pbr-pathtracer/pkg/scene"
)

// Server handles web requests for the progressive path tracer
type Server struct {
	port int
}

// NewServer creates a new web server
func NewServer(port int) *Server {
	return &Server{port: port}
}

// RenderRequest represents a render request from the client
type RenderRequest struct {
	Scene       string `json:"scene"`       // Scene id (e.g., "showcase", "ply:bunny")
	Width       int    `json:"width"`       // Image width
	Height      int    `json:"height"`      // Image height
	Frames      int    `json:"frames"`      // Progressive frames to render
	MaxDepth    int    `json:"maxDepth"`    // Path length bound
	Seed        int64  `json:"seed"`        // Scene and sampler seed
	DirectLight bool   `json:"directLight"` // Add the directional light estimate
	Denoise     bool   `json:"denoise"`     // Send a denoised image after the last frame
}

// Handler returns the routes served by the server
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.Dir("static/")))

	mux.HandleFunc("/api/render", s.handleRender)
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/scenes", s.handleScenes)
	mux.HandleFunc("/api/inspect", s.handleInspect)
	return mux
}

// Start starts the web server
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	log.Printf("Starting web server on http://localhost%s", addr)
	return http.ListenAndServe(addr, s.Handler())
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleScenes lists the built-in scenes and every model found under models/
func (s *Server) handleScenes(w http.ResponseWriter, r *http.Request) {
	scenes, err := scene.ListAllScenes()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, scenes)
}

// parseCommonSceneParams parses the parameters shared by render and inspect
func (s *Server) parseCommonSceneParams(r *http.Request, req *RenderRequest) error {
	query := r.URL.Query()
	defaults := renderer.DefaultConfig()

	req.Scene = query.Get("scene")
	if req.Scene == "" {
		req.Scene = scene.ShowcaseID
	}

	var err error
	if req.Width, err = parseIntParam(query, "width", 400, 16, 2000); err != nil {
		return err
	}
	if req.Height, err = parseIntParam(query, "height", 225, 16, 2000); err != nil {
		return err
	}
	seed, err := parseIntParam(query, "seed", int(defaults.Seed), 0, 1<<31-1)
	if err != nil {
		return err
	}
	req.Seed = int64(seed)
	return nil
}

// renderConfig converts a request into a validated render configuration
func (req *RenderRequest) renderConfig() (renderer.Config, error) {
	cfg := renderer.DefaultConfig()
	cfg.Width = req.Width
	cfg.Height = req.Height
	cfg.Frames = req.Frames
	cfg.MaxDepth = req.MaxDepth
	cfg.Seed = req.Seed
	cfg.DirectLight = req.DirectLight
	cfg.DenoiseAfterFrames = 0
	if req.Denoise {
		cfg.DenoiseAfterFrames = req.Frames
	}
	return cfg, cfg.Validate()
}

// parseIntParam parses an integer parameter from URL query with validation
func parseIntParam(values url.Values, key string, defaultValue, min, max int) (int, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %d and %d, got: %d", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// parseBoolParam parses a boolean parameter from URL query
func parseBoolParam(values url.Values, key string, defaultValue bool) (bool, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return false, fmt.Errorf("invalid %s: %s", key, value)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// writeJSON writes a JSON response with the given status
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}
