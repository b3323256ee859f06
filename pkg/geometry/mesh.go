package geometry

import (
	"fmt"
	"math"

	"github.com/df07/go-pbr-pathtracer/pkg/core"
	"github.com/df07/go-pbr-pathtracer/pkg/material"
)

// Mesh is an indexed triangle list as produced by model loaders
type Mesh struct {
	Vertices []Vertex
	Indices  []uint32 // each group of 3 indices forms a triangle
}

// MeshTransform places a mesh in the scene: scale, then rotate (radians
// around X, Y, Z in that order), then translate
type MeshTransform struct {
	Scale       float64
	Rotation    core.Vec3
	Translation core.Vec3
}

// IdentityTransform leaves vertices where they are
func IdentityTransform() MeshTransform {
	return MeshTransform{Scale: 1}
}

// TriangleCount returns the number of index triples
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// Triangles expands the index triples into triangle primitives, applying
// transform to positions and the rotation to direction attributes
func (m *Mesh) Triangles(materialID material.ID, transform MeshTransform) ([]Primitive, error) {
	if len(m.Indices)%3 != 0 {
		return nil, fmt.Errorf("mesh has %d indices, not a multiple of 3", len(m.Indices))
	}

	vertices := make([]Vertex, len(m.Vertices))
	for i, v := range m.Vertices {
		vertices[i] = transform.apply(v)
	}

	prims := make([]Primitive, 0, m.TriangleCount())
	for i := 0; i < len(m.Indices); i += 3 {
		i0, i1, i2 := m.Indices[i], m.Indices[i+1], m.Indices[i+2]
		if int(i0) >= len(vertices) || int(i1) >= len(vertices) || int(i2) >= len(vertices) {
			return nil, fmt.Errorf("triangle %d references vertex out of range (%d vertices)", i/3, len(vertices))
		}
		tri := NewTriangle(vertices[i0], vertices[i1], vertices[i2])
		prims = append(prims, NewTrianglePrimitive(tri, materialID))
	}

	return prims, nil
}

// BoundingBox returns the bounds of all vertex positions
func (m *Mesh) BoundingBox() core.AABB {
	box := core.EmptyAABB()
	for _, v := range m.Vertices {
		box = box.Union(core.NewAABB(v.Position, v.Position))
	}
	return box
}

// ComputeNormals replaces vertex normals with area-weighted face normals
func (m *Mesh) ComputeNormals() {
	for i := range m.Vertices {
		m.Vertices[i].Normal = core.Vec3{}
	}
	m.forEachTriangle(func(a, b, c *Vertex) {
		// Unnormalized cross product weights by triangle area
		faceNormal := b.Position.Subtract(a.Position).Cross(c.Position.Subtract(a.Position))
		a.Normal = a.Normal.Add(faceNormal)
		b.Normal = b.Normal.Add(faceNormal)
		c.Normal = c.Normal.Add(faceNormal)
	})
	for i := range m.Vertices {
		m.Vertices[i].Normal = m.Vertices[i].Normal.Normalize()
	}
}

// ComputeTangents derives per-vertex tangent and bitangent from positions and
// UVs. Triangles with degenerate UVs contribute nothing; vertices left without
// a tangent get none, and hits on them fall back to a basis built from the normal.
func (m *Mesh) ComputeTangents() {
	for i := range m.Vertices {
		m.Vertices[i].Tangent = core.Vec3{}
		m.Vertices[i].Bitangent = core.Vec3{}
	}

	m.forEachTriangle(func(a, b, c *Vertex) {
		edge1 := b.Position.Subtract(a.Position)
		edge2 := c.Position.Subtract(a.Position)
		duv1 := b.UV.Subtract(a.UV)
		duv2 := c.UV.Subtract(a.UV)

		det := duv1.X*duv2.Y - duv2.X*duv1.Y
		if math.Abs(det) < 1e-12 {
			return
		}
		r := 1.0 / det
		tangent := edge1.Multiply(duv2.Y).Subtract(edge2.Multiply(duv1.Y)).Multiply(r)
		bitangent := edge2.Multiply(duv1.X).Subtract(edge1.Multiply(duv2.X)).Multiply(r)

		for _, v := range []*Vertex{a, b, c} {
			v.Tangent = v.Tangent.Add(tangent)
			v.Bitangent = v.Bitangent.Add(bitangent)
		}
	})

	for i := range m.Vertices {
		m.Vertices[i].Tangent = m.Vertices[i].Tangent.Normalize()
		m.Vertices[i].Bitangent = m.Vertices[i].Bitangent.Normalize()
	}
}

func (m *Mesh) forEachTriangle(fn func(a, b, c *Vertex)) {
	n := uint32(len(m.Vertices))
	for i := 0; i+2 < len(m.Indices); i += 3 {
		i0, i1, i2 := m.Indices[i], m.Indices[i+1], m.Indices[i+2]
		if i0 >= n || i1 >= n || i2 >= n {
			continue
		}
		fn(&m.Vertices[i0], &m.Vertices[i1], &m.Vertices[i2])
	}
}

func (tr MeshTransform) apply(v Vertex) Vertex {
	scale := tr.Scale
	if scale == 0 {
		scale = 1
	}
	v.Position = rotateVertex(v.Position.Multiply(scale), tr.Rotation).Add(tr.Translation)
	v.Normal = rotateVertex(v.Normal, tr.Rotation)
	v.Tangent = rotateVertex(v.Tangent, tr.Rotation)
	v.Bitangent = rotateVertex(v.Bitangent, tr.Rotation)
	return v
}

// rotateVertex applies rotation around X, Y, Z axes (in that order)
func rotateVertex(vertex, rotation core.Vec3) core.Vec3 {
	if rotation.X != 0 {
		cos := math.Cos(rotation.X)
		sin := math.Sin(rotation.X)
		y := vertex.Y*cos - vertex.Z*sin
		z := vertex.Y*sin + vertex.Z*cos
		vertex = core.NewVec3(vertex.X, y, z)
	}

	if rotation.Y != 0 {
		cos := math.Cos(rotation.Y)
		sin := math.Sin(rotation.Y)
		x := vertex.X*cos + vertex.Z*sin
		z := -vertex.X*sin + vertex.Z*cos
		vertex = core.NewVec3(x, vertex.Y, z)
	}

	if rotation.Z != 0 {
		cos := math.Cos(rotation.Z)
		sin := math.Sin(rotation.Z)
		x := vertex.X*cos - vertex.Y*sin
		y := vertex.X*sin + vertex.Y*cos
		vertex = core.NewVec3(x, y, vertex.Z)
	}

	return vertex
}
