package loaders

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/df07/go-pbr-pathtracer/pkg/core"
)

// writeBinaryQuadPLY writes a unit quad as a single four-corner face with UVs
func writeBinaryQuadPLY(t *testing.T, order binary.ByteOrder, format string) string {
	t.Helper()

	var buf bytes.Buffer
	buf.WriteString("ply\n")
	buf.WriteString("format " + format + " 1.0\n")
	buf.WriteString("comment generated by test\n")
	buf.WriteString("element vertex 4\n")
	buf.WriteString("property float x\n")
	buf.WriteString("property float y\n")
	buf.WriteString("property float z\n")
	buf.WriteString("property float u\n")
	buf.WriteString("property float v\n")
	buf.WriteString("element face 1\n")
	buf.WriteString("property list uchar int vertex_indices\n")
	buf.WriteString("end_header\n")

	vertices := [][5]float32{
		{0, 0, 0, 0, 0},
		{1, 0, 0, 1, 0},
		{1, 1, 0, 1, 1},
		{0, 1, 0, 0, 1},
	}
	for _, v := range vertices {
		if err := binary.Write(&buf, order, v); err != nil {
			t.Fatalf("Failed to write vertex: %v", err)
		}
	}
	buf.WriteByte(4)
	if err := binary.Write(&buf, order, []int32{0, 1, 2, 3}); err != nil {
		t.Fatalf("Failed to write face: %v", err)
	}

	path := filepath.Join(t.TempDir(), "quad.ply")
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatalf("Failed to write PLY file: %v", err)
	}
	return path
}

func TestLoadPLY_Binary(t *testing.T) {
	tests := []struct {
		name   string
		order  binary.ByteOrder
		format string
	}{
		{"little endian", binary.LittleEndian, "binary_little_endian"},
		{"big endian", binary.BigEndian, "binary_big_endian"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := LoadPLY(writeBinaryQuadPLY(t, tt.order, tt.format))
			if err != nil {
				t.Fatalf("LoadPLY failed: %v", err)
			}

			if len(data.Vertices) != 4 {
				t.Fatalf("Expected 4 vertices, got %d", len(data.Vertices))
			}
			if data.Vertices[2] != core.NewVec3(1, 1, 0) {
				t.Errorf("Expected vertex 2 at (1,1,0), got %v", data.Vertices[2])
			}
			if len(data.TexCoords) != 4 || data.TexCoords[1] != core.NewVec2(1, 0) {
				t.Errorf("Unexpected texture coordinates: %v", data.TexCoords)
			}
			if len(data.Normals) != 0 {
				t.Errorf("Expected no normals, got %d", len(data.Normals))
			}

			// Quad is fan-triangulated into two triangles
			expected := []int{0, 1, 2, 0, 2, 3}
			if len(data.Faces) != len(expected) {
				t.Fatalf("Expected %d face indices, got %d", len(expected), len(data.Faces))
			}
			for i := range expected {
				if data.Faces[i] != expected[i] {
					t.Errorf("Face index %d: expected %d, got %d", i, expected[i], data.Faces[i])
				}
			}
		})
	}
}

func TestLoadPLY_ASCII(t *testing.T) {
	content := strings.Join([]string{
		"ply",
		"format ascii 1.0",
		"element vertex 3",
		"property float x",
		"property float y",
		"property float z",
		"property float nx",
		"property float ny",
		"property float nz",
		"property uchar red",
		"property uchar green",
		"property uchar blue",
		"element edge 1",
		"property int vertex1",
		"property int vertex2",
		"element face 1",
		"property uchar flags",
		"property list uchar int vertex_indices",
		"end_header",
		"0 0 0 0 0 1 255 0 0",
		"1 0 0 0 0 1 0 255 0",
		"0 1 0 0 0 1 0 0 255",
		"0 1",
		"7 3 0 1 2",
		"",
	}, "\n")

	path := filepath.Join(t.TempDir(), "triangle.ply")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write PLY file: %v", err)
	}

	data, err := LoadPLY(path)
	if err != nil {
		t.Fatalf("LoadPLY failed: %v", err)
	}

	if len(data.Vertices) != 3 || data.Vertices[1] != core.NewVec3(1, 0, 0) {
		t.Errorf("Unexpected vertices: %v", data.Vertices)
	}
	if len(data.Normals) != 3 || data.Normals[0] != core.NewVec3(0, 0, 1) {
		t.Errorf("Unexpected normals: %v", data.Normals)
	}
	if len(data.Colors) != 3 || data.Colors[0] != core.NewVec3(1, 0, 0) || data.Colors[2] != core.NewVec3(0, 0, 1) {
		t.Errorf("Expected colors normalized to [0,1], got %v", data.Colors)
	}
	if len(data.Faces) != 3 || data.Faces[0] != 0 || data.Faces[1] != 1 || data.Faces[2] != 2 {
		t.Errorf("Unexpected faces: %v", data.Faces)
	}
}

func TestLoadPLYMesh_ComputesNormalsAndTangents(t *testing.T) {
	mesh, err := LoadPLYMesh(writeBinaryQuadPLY(t, binary.LittleEndian, "binary_little_endian"))
	if err != nil {
		t.Fatalf("LoadPLYMesh failed: %v", err)
	}

	if mesh.TriangleCount() != 2 {
		t.Fatalf("Expected 2 triangles, got %d", mesh.TriangleCount())
	}

	for i, v := range mesh.Vertices {
		if v.Normal.Subtract(core.NewVec3(0, 0, 1)).Length() > 1e-6 {
			t.Errorf("Vertex %d: expected computed normal +Z, got %v", i, v.Normal)
		}
		if v.Tangent.Subtract(core.NewVec3(1, 0, 0)).Length() > 1e-6 {
			t.Errorf("Vertex %d: expected tangent +X from UVs, got %v", i, v.Tangent)
		}
	}
}

func TestLoadPLY_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing magic", "not a ply file\n"},
		{"unsupported format", "ply\nformat binary_middle_endian 1.0\nend_header\n"},
		{"truncated header", "ply\nformat ascii 1.0\nelement vertex 1\n"},
		{"property before element", "ply\nformat ascii 1.0\nproperty float x\nend_header\n"},
		{"truncated data", "ply\nformat ascii 1.0\nelement vertex 2\nproperty float x\nproperty float y\nproperty float z\nend_header\n0 0 0\n"},
		{"vertex without position", "ply\nformat ascii 1.0\nelement vertex 1\nproperty float x\nend_header\n0\n"},
		{"degenerate face", "ply\nformat ascii 1.0\nelement face 1\nproperty list uchar int vertex_indices\nend_header\n2 0 1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.ply")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatalf("Failed to write PLY file: %v", err)
			}
			if _, err := LoadPLY(path); err == nil {
				t.Error("Expected error, got nil")
			}
		})
	}
}

func TestLoadPLYMesh_IndexOutOfRange(t *testing.T) {
	content := "ply\nformat ascii 1.0\nelement vertex 3\nproperty float x\nproperty float y\nproperty float z\n" +
		"element face 1\nproperty list uchar int vertex_indices\nend_header\n0 0 0\n1 0 0\n0 1 0\n3 0 1 5\n"
	path := filepath.Join(t.TempDir(), "bad_index.ply")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write PLY file: %v", err)
	}

	_, err := LoadPLYMesh(path)
	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("Expected *LoadError, got %v", err)
	}
	if loadErr.Kind != KindModel {
		t.Errorf("Expected kind %q, got %q", KindModel, loadErr.Kind)
	}
}

func TestLoadPLYMesh_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.ply")
	_, err := LoadPLYMesh(path)

	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("Expected *LoadError, got %v", err)
	}
	if loadErr.Path != path {
		t.Errorf("Expected path %s, got %s", path, loadErr.Path)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected wrapped os.ErrNotExist, got %v", err)
	}
}

func TestPLYTypeSize(t *testing.T) {
	tests := map[string]int{
		"uchar": 1, "int8": 1, "short": 2, "uint16": 2,
		"int": 4, "float": 4, "float32": 4, "double": 8, "quad": 0,
	}
	for dataType, expected := range tests {
		if got := plyTypeSize(dataType); got != expected {
			t.Errorf("%s: expected %d, got %d", dataType, expected, got)
		}
	}
}
