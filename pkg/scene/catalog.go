package scene

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/df07/go-pbr-pathtracer/pkg/core"
	"github.com/df07/go-pbr-pathtracer/pkg/geometry"
)

// Built-in scene identifiers
const (
	RandomSpheresID = "random-spheres"
	ShowcaseID      = "showcase"
	MeshID          = "mesh"
)

const (
	builtInGroup = "Built-in Scenes"
	modelGroup   = "Models"
	plyPrefix    = "ply:"
)

// SceneInfo represents a selectable scene with its metadata
type SceneInfo struct {
	ID          string `json:"id"`          // Unique identifier
	DisplayName string `json:"displayName"` // UI display name
	Description string `json:"description"` // Optional description
	Group       string `json:"group"`       // Grouping category
	Type        string `json:"type"`        // "builtin" or "ply"
	FilePath    string `json:"filePath"`    // Path to the model (ply type only)
}

// SceneGroup represents a group of related scenes
type SceneGroup struct {
	Name   string      `json:"name"`
	Scenes []SceneInfo `json:"scenes"`
}

// ScenesResponse represents the complete response for /api/scenes
type ScenesResponse struct {
	Groups []SceneGroup `json:"groups"`
}

func builtInScenes() []SceneInfo {
	return []SceneInfo{
		{
			ID:          RandomSpheresID,
			DisplayName: "Random Spheres",
			Description: "Unit spheres with random preset materials and depth of field",
			Group:       builtInGroup,
			Type:        "builtin",
		},
		{
			ID:          ShowcaseID,
			DisplayName: "Material Showcase",
			Description: "Roughness sweep over dielectric and metallic spheres",
			Group:       builtInGroup,
			Type:        "builtin",
		},
		{
			ID:          MeshID,
			DisplayName: "Textured Mesh",
			Description: "PLY model with albedo, roughness and metallic textures",
			Group:       builtInGroup,
			Type:        "builtin",
		},
	}
}

// ListModelScenes scans the models directory for PLY files
func ListModelScenes() ([]SceneInfo, error) {
	modelsDir, ok := findAsset("models")
	if !ok {
		return []SceneInfo{}, nil
	}

	files, err := filepath.Glob(filepath.Join(modelsDir, "*.ply"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan models directory: %w", err)
	}

	scenes := make([]SceneInfo, 0, len(files))
	for _, filePath := range files {
		name := strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath))
		scenes = append(scenes, SceneInfo{
			ID:          plyPrefix + name,
			DisplayName: titleCase(name),
			Group:       modelGroup,
			Type:        "ply",
			FilePath:    filePath,
		})
	}

	sort.Slice(scenes, func(i, j int) bool {
		return scenes[i].DisplayName < scenes[j].DisplayName
	})
	return scenes, nil
}

// ListAllScenes returns built-in and discovered model scenes, grouped by
// category with the built-in group first
func ListAllScenes() (ScenesResponse, error) {
	var response ScenesResponse

	models, err := ListModelScenes()
	if err != nil {
		return response, fmt.Errorf("failed to list model scenes: %w", err)
	}

	response.Groups = append(response.Groups, SceneGroup{Name: builtInGroup, Scenes: builtInScenes()})
	if len(models) > 0 {
		response.Groups = append(response.Groups, SceneGroup{Name: modelGroup, Scenes: models})
	}
	return response, nil
}

// Names returns the built-in scene identifiers accepted by ByName
func Names() []string {
	scenes := builtInScenes()
	names := make([]string, len(scenes))
	for i, info := range scenes {
		names[i] = info.ID
	}
	return names
}

// ByName constructs and builds a scene by identifier. "ply:<name>" loads
// models/<name>.ply with the default texture set.
func ByName(id string, seed int64, logger core.Logger, cameraOverrides ...geometry.CameraConfig) (*Scene, error) {
	switch {
	case id == RandomSpheresID:
		return NewRandomSpheresScene(seed, DefaultSphereCount, cameraOverrides...), nil
	case id == ShowcaseID:
		return NewMaterialShowcaseScene(cameraOverrides...), nil
	case id == MeshID:
		modelPath, _ := findAsset(DefaultModelPath)
		textureDir, _ := findAsset(DefaultTextureDir)
		return NewMeshScene(modelPath, textureDir, logger, cameraOverrides...), nil
	case strings.HasPrefix(id, plyPrefix):
		name := strings.TrimPrefix(id, plyPrefix)
		if name == "" || strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
			return nil, fmt.Errorf("invalid model scene name %q", name)
		}
		modelPath, _ := findAsset(filepath.Join("models", name+".ply"))
		textureDir, _ := findAsset(DefaultTextureDir)
		return NewMeshScene(modelPath, textureDir, logger, cameraOverrides...), nil
	default:
		return nil, fmt.Errorf("unknown scene %q (available: %s)", id, strings.Join(Names(), ", "))
	}
}

// titleCase converts a filename-style string to title case
// e.g., "iron-dragon" -> "Iron Dragon"
func titleCase(s string) string {
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")

	words := strings.Fields(s)
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
	}
	return strings.Join(words, " ")
}
