package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/df07/go-pbr-pathtracer/pkg/core"
	"github.com/df07/go-pbr-pathtracer/pkg/geometry"
	"github.com/df07/go-pbr-pathtracer/pkg/material"
	"github.com/df07/go-pbr-pathtracer/pkg/scene"
)

// InspectResponse represents the JSON response for object inspection
type InspectResponse struct {
	Hit        bool                   `json:"hit"`
	Point      [3]float64             `json:"point"`
	Normal     [3]float64             `json:"normal"`
	UV         [2]float64             `json:"uv"`
	Distance   float64                `json:"distance"`
	FrontFace  bool                   `json:"frontFace"`
	MaterialID int                    `json:"materialId"`
	Material   map[string]interface{} `json:"material"`
}

// InspectResult is the first intersection along a pixel's center ray
type InspectResult struct {
	Hit     bool
	Ray     core.Ray
	Record  geometry.Hit
	Surface material.SurfaceMaterial
}

// extractMaterialInfo describes a material after texture lookups
func extractMaterialInfo(m material.SurfaceMaterial) map[string]interface{} {
	c := m.BaseColor.Clamp(0, 1)
	return map[string]interface{}{
		"baseColor":    [3]float64{m.BaseColor.X, m.BaseColor.Y, m.BaseColor.Z},
		"color":        fmt.Sprintf("#%02x%02x%02x", int(c.X*255), int(c.Y*255), int(c.Z*255)),
		"metallic":     m.Metallic,
		"roughness":    m.Roughness,
		"specular":     m.Specular,
		"specularTint": m.SpecularTint,
	}
}

// inspectPixel casts the unjittered ray through the pixel center, with the
// lens sample at its center, and reports the first surface hit
func inspectPixel(sceneObj *scene.Scene, pixelX, pixelY int) InspectResult {
	camera := sceneObj.Camera
	pixelUV := core.NewVec2(
		(float64(pixelX)+0.5)/float64(camera.ViewportWidth),
		1-(float64(pixelY)+0.5)/float64(camera.ViewportHeight),
	)
	ray := camera.GenerateRay(pixelUV, core.NewVec2(0.5, 0.5))

	hit, ok := sceneObj.NearestHit(ray)
	if !ok {
		return InspectResult{Hit: false, Ray: ray}
	}
	return InspectResult{Hit: true, Ray: ray, Record: hit, Surface: sceneObj.Resolve(hit)}
}

// handleInspect handles ray casting inspection requests
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	inspectReq := &RenderRequest{}
	if err := s.parseCommonSceneParams(r, inspectReq); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid scene parameters: " + err.Error()})
		return
	}

	pixelX, err := strconv.Atoi(r.URL.Query().Get("x"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid x coordinate"})
		return
	}
	pixelY, err := strconv.Atoi(r.URL.Query().Get("y"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid y coordinate"})
		return
	}
	if pixelX < 0 || pixelX >= inspectReq.Width || pixelY < 0 || pixelY >= inspectReq.Height {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Pixel coordinates out of bounds"})
		return
	}

	inspectReq.Frames = 1
	cfg, err := inspectReq.renderConfig()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	sceneObj, err := scene.ByName(inspectReq.Scene, cfg.Seed, core.NopLogger{}, cfg.CameraOverrides())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	result := inspectPixel(sceneObj, pixelX, pixelY)
	if !result.Hit {
		writeJSON(w, http.StatusOK, InspectResponse{Hit: false})
		return
	}

	hit := result.Record
	writeJSON(w, http.StatusOK, InspectResponse{
		Hit:        true,
		Point:      [3]float64{hit.Position.X, hit.Position.Y, hit.Position.Z},
		Normal:     [3]float64{hit.Normal.X, hit.Normal.Y, hit.Normal.Z},
		UV:         [2]float64{hit.UV.X, hit.UV.Y},
		Distance:   hit.T,
		FrontFace:  result.Ray.Direction.Dot(hit.Normal) < 0,
		MaterialID: int(hit.MaterialID),
		Material:   extractMaterialInfo(result.Surface),
	})
}
