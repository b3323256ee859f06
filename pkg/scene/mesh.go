package scene

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/df07/go-pbr-pathtracer/pkg/core"
	"github.com/df07/go-pbr-pathtracer/pkg/geometry"
	"github.com/df07/go-pbr-pathtracer/pkg/loaders"
	"github.com/df07/go-pbr-pathtracer/pkg/material"
)

// Default assets for the mesh scene, relative to the project root
const (
	DefaultModelPath  = "models/model.ply"
	DefaultTextureDir = "models/iron_mat"
)

// meshFitSize is the largest extent of a loaded mesh after fitting
const meshFitSize = 4.0

// NewMeshScene loads a PLY model, attaches the albedo/roughness/metallic
// textures found in textureDir and stands the model on a ground quad.
// Load failures are logged; a missing model is replaced by a placeholder
// sphere and a missing texture leaves the scalar material value in place.
func NewMeshScene(modelPath, textureDir string, logger core.Logger, cameraOverrides ...geometry.CameraConfig) *Scene {
	if logger == nil {
		logger = core.NopLogger{}
	}

	defaultCameraConfig := geometry.CameraConfig{
		Center:        core.NewVec3(0, 3, -8),
		LookAt:        core.NewVec3(0, 1.5, 0),
		Up:            core.NewVec3(0, 1, 0),
		Width:         800,
		AspectRatio:   16.0 / 9.0,
		VFov:          40.0,
		Aperture:      0.0,
		FocusDistance: 0.0, // Auto-calculate focus distance
	}

	cameraConfig := defaultCameraConfig
	if len(cameraOverrides) > 0 {
		cameraConfig = geometry.MergeCameraConfig(defaultCameraConfig, cameraOverrides[0])
	}

	s := NewScene(cameraConfig)

	ground := s.AddMaterial(material.NewMaterial(core.Splat(0.5), 0.0, 0.9))
	s.AddGroundQuad(core.NewVec3(0, 0, 0), 100, ground)

	// Mid-gray rough metal, overridden per texel by whichever textures load
	modelMaterial := s.AddMaterial(material.NewMaterial(core.Splat(0.6), 1.0, 0.4))
	if textureDir != "" {
		attachTextureSet(s, modelMaterial, textureDir, logger)
	}

	if err := addFittedMesh(s, modelPath, modelMaterial, logger); err != nil {
		logger.Printf("Warning: %v\n", err)
		logger.Printf("Added placeholder sphere instead of mesh\n")
		s.AddSphere(core.NewVec3(0, 1, 0), 1.0, modelMaterial)
	}

	s.Build()
	return s
}

// addFittedMesh loads the model and scales it so its largest extent is
// meshFitSize, centered on the origin and resting on y = 0
func addFittedMesh(s *Scene, modelPath string, materialID material.ID, logger core.Logger) error {
	logger.Printf("Loading mesh from %s...\n", modelPath)
	mesh, err := loaders.LoadPLYMesh(modelPath)
	if err != nil {
		return err
	}

	bbox := mesh.BoundingBox()
	size := bbox.Size()
	extent := size.MaxComponent()
	if extent <= 0 {
		return &loaders.LoadError{Kind: loaders.KindModel, Path: modelPath, Err: errors.New("mesh has no extent")}
	}

	scale := meshFitSize / extent
	center := bbox.Center()
	transform := geometry.MeshTransform{
		Scale:       scale,
		Translation: core.NewVec3(-center.X*scale, -bbox.Min.Y*scale, -center.Z*scale),
	}
	if err := s.AddMesh(mesh, materialID, transform); err != nil {
		return &loaders.LoadError{Kind: loaders.KindModel, Path: modelPath, Err: err}
	}

	logger.Printf("Loaded mesh with %d triangles (%.2f x %.2f x %.2f)\n",
		mesh.TriangleCount(), size.X, size.Y, size.Z)
	return nil
}

// attachTextureSet loads albedo.png, roughness.png and metallic.png from dir
// and attaches whichever succeed to the material
func attachTextureSet(s *Scene, materialID material.ID, dir string, logger core.Logger) {
	load := func(name string) material.TextureID {
		texture, err := loaders.LoadTexture(filepath.Join(dir, name))
		if err != nil {
			logger.Printf("Warning: %v\n", err)
			return material.NoTexture
		}
		return s.AddTexture(texture)
	}

	albedo := load("albedo.png")
	roughness := load("roughness.png")
	metallic := load("metallic.png")
	if err := s.Materials.AttachTextures(materialID, albedo, roughness, metallic); err != nil {
		logger.Printf("Warning: %v\n", err)
	}
}

// findAsset returns the first candidate path that exists, trying each
// relative to the working directory and its parent so the CLI (project root)
// and the web server (web/) resolve the same assets
func findAsset(path string) (string, bool) {
	for _, candidate := range []string{path, filepath.Join("..", path)} {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true
		}
	}
	return path, false
}
