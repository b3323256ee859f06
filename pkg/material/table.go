package material

import "fmt"

// Table is an arena of values addressed by opaque integer handles. Handles
// start at 1 so that a zero handle always means "absent". A table is
// written during scene setup only and read concurrently afterwards.
type Table[K ~int, T any] struct {
	items []T
}

// Place stores item and returns its handle
func (t *Table[K, T]) Place(item T) K {
	t.items = append(t.items, item)
	return K(len(t.items))
}

// Get returns the value behind handle, or false if the handle was never issued
func (t *Table[K, T]) Get(handle K) (T, bool) {
	if handle < 1 || int(handle) > len(t.items) {
		var zero T
		return zero, false
	}
	return t.items[handle-1], true
}

// Set replaces the value behind an existing handle
func (t *Table[K, T]) Set(handle K, item T) bool {
	if handle < 1 || int(handle) > len(t.items) {
		return false
	}
	t.items[handle-1] = item
	return true
}

// Len returns the number of stored values
func (t *Table[K, T]) Len() int {
	return len(t.items)
}

// MaterialTable stores the scene's materials
type MaterialTable struct {
	Table[ID, Material]
}

// TextureTable stores the scene's decoded textures
type TextureTable = Table[TextureID, *Texture]

// AttachTextures sets the texture slots of a published material. Pass
// NoTexture to leave a slot unchanged.
func (m *MaterialTable) AttachTextures(id ID, albedo, roughness, metallic TextureID) error {
	mat, ok := m.Get(id)
	if !ok {
		return fmt.Errorf("attach textures: unknown material %d", id)
	}
	if albedo != NoTexture {
		mat.AlbedoTexture = albedo
	}
	if roughness != NoTexture {
		mat.RoughnessTexture = roughness
	}
	if metallic != NoTexture {
		mat.MetallicTexture = metallic
	}
	m.Set(id, mat)
	return nil
}
