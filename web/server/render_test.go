package server

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type sseMessage struct {
	event string
	data  string
}

func parseSSE(t *testing.T, body string) []sseMessage {
	t.Helper()
	var messages []sseMessage
	var current sseMessage
	scanner := bufio.NewScanner(strings.NewReader(body))
	scanner.Buffer(make([]byte, 1024*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			current.event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			current.data = strings.TrimPrefix(line, "data: ")
		case line == "":
			if current.event != "" {
				messages = append(messages, current)
			}
			current = sseMessage{}
		}
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("Failed to scan SSE stream: %v", err)
	}
	return messages
}

func eventsOfType(messages []sseMessage, event string) []sseMessage {
	var out []sseMessage
	for _, m := range messages {
		if m.event == event {
			out = append(out, m)
		}
	}
	return out
}

func TestHandleRender_StreamsFrames(t *testing.T) {
	rec := serve(t, "/api/render?scene=showcase&width=32&height=18&frames=3&maxDepth=2")

	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Expected text/event-stream, got %q", ct)
	}

	messages := parseSSE(t, rec.Body.String())
	frames := eventsOfType(messages, "frame")
	if len(frames) != 3 {
		t.Fatalf("Expected 3 frame events, got %d", len(frames))
	}

	for i, m := range frames {
		var update FrameUpdate
		if err := json.Unmarshal([]byte(m.data), &update); err != nil {
			t.Fatalf("Failed to decode frame %d: %v", i, err)
		}
		if update.Frame != i+1 || update.TotalFrames != 3 {
			t.Errorf("Frame %d: unexpected numbering %d/%d", i, update.Frame, update.TotalFrames)
		}
		if update.Stats.Pixels != 32*18 || update.Stats.Samples != 32*18 {
			t.Errorf("Frame %d: expected one sample per pixel, got %+v", i, update.Stats)
		}
		if update.ImageData == "" {
			t.Errorf("Frame %d: missing image data", i)
		}
		if update.IsComplete != (i == 2) {
			t.Errorf("Frame %d: unexpected completion flag %t", i, update.IsComplete)
		}
	}

	if len(eventsOfType(messages, "complete")) != 1 {
		t.Error("Expected a single complete event")
	}
	if len(eventsOfType(messages, "error")) != 0 {
		t.Errorf("Unexpected error events: %v", eventsOfType(messages, "error"))
	}
	if last := messages[len(messages)-1]; last.event != "complete" {
		t.Errorf("Expected the stream to end with complete, got %q", last.event)
	}
}

func TestHandleRender_Denoise(t *testing.T) {
	rec := serve(t, "/api/render?scene=random-spheres&width=24&height=16&frames=2&denoise=true")
	messages := parseSSE(t, rec.Body.String())

	denoised := eventsOfType(messages, "denoised")
	if len(denoised) != 1 {
		t.Fatalf("Expected one denoised event, got %d", len(denoised))
	}
	if denoised[0].data == "" {
		t.Error("Denoised event carries no image")
	}
}

func TestHandleRender_ConsoleMessages(t *testing.T) {
	rec := serve(t, "/api/render?scene=showcase&width=16&height=16&frames=1")
	messages := parseSSE(t, rec.Body.String())

	console := eventsOfType(messages, "console")
	if len(console) == 0 {
		t.Fatal("Expected renderer log lines as console events")
	}
	var msg ConsoleMessage
	if err := json.Unmarshal([]byte(console[0].data), &msg); err != nil {
		t.Fatalf("Failed to decode console message: %v", err)
	}
	if !strings.HasPrefix(msg.RenderID, "render-") {
		t.Errorf("Expected a render id, got %q", msg.RenderID)
	}
}

func TestHandleRender_Errors(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		contains string
	}{
		{"invalid width", "width=1", "Invalid request"},
		{"unknown scene", "scene=nope&width=16&height=16&frames=1", "unknown scene"},
		{"bad model name", "scene=ply:../secret&width=16&height=16&frames=1", "invalid model scene name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			messages := parseSSE(t, serve(t, "/api/render?"+tt.query).Body.String())
			errs := eventsOfType(messages, "error")
			if len(errs) != 1 {
				t.Fatalf("Expected one error event, got %v", messages)
			}
			if !strings.Contains(errs[0].data, tt.contains) {
				t.Errorf("Expected error containing %q, got %q", tt.contains, errs[0].data)
			}
			if len(eventsOfType(messages, "frame")) != 0 {
				t.Error("No frames should be rendered after an error")
			}
		})
	}
}

func TestHandleRender_CancelledClient(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/render?scene=showcase&width=16&height=16&frames=50", nil).WithContext(ctx)
	NewServer(0).Handler().ServeHTTP(rec, req)

	if n := len(eventsOfType(parseSSE(t, rec.Body.String()), "frame")); n != 0 {
		t.Errorf("Expected no frames for a disconnected client, got %d", n)
	}
}
