package loaders

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/df07/go-pbr-pathtracer/pkg/core"
	"github.com/df07/go-pbr-pathtracer/pkg/geometry"
)

// PLYHeader represents the parsed header information from a PLY file
type PLYHeader struct {
	Format   string // "binary_little_endian", "binary_big_endian", or "ascii"
	Version  string // Usually "1.0"
	Elements []PLYElement
}

// PLYElement is one element block (vertex, face, or anything else) in file order
type PLYElement struct {
	Name       string
	Count      int
	Properties []PLYProperty
}

// PLYProperty represents a property definition in the PLY header
type PLYProperty struct {
	Name     string
	Type     string
	IsList   bool
	ListType string // For list properties, the type of the count
	DataType string // For list properties, the type of the data
}

// PLYData contains the raw data loaded from a PLY file
type PLYData struct {
	Vertices  []core.Vec3 // Vertex positions (x, y, z)
	Faces     []int       // Triangle indices (3 per triangle), polygons fan-triangulated
	Normals   []core.Vec3 // Per-vertex normals - empty if not present
	Colors    []core.Vec3 // Per-vertex colors normalized to [0,1] - empty if not present
	TexCoords []core.Vec2 // Per-vertex texture coordinates - empty if not present
}

// LoadPLY loads a PLY file (ascii, binary little or big endian)
func LoadPLY(filename string) (*PLYData, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open PLY file: %w", err)
	}
	defer file.Close()

	return ReadPLY(bufio.NewReaderSize(file, 1024*1024))
}

// LoadPLYMesh loads a PLY file as a mesh. Missing normals are computed from
// the faces and tangents are derived from UVs. Failures are returned as *LoadError.
func LoadPLYMesh(filename string) (*geometry.Mesh, error) {
	data, err := LoadPLY(filename)
	if err != nil {
		return nil, &LoadError{Kind: KindModel, Path: filename, Err: err}
	}
	mesh, err := data.Mesh()
	if err != nil {
		return nil, &LoadError{Kind: KindModel, Path: filename, Err: err}
	}
	return mesh, nil
}

// Mesh converts the raw data into an indexed mesh
func (d *PLYData) Mesh() (*geometry.Mesh, error) {
	mesh := &geometry.Mesh{
		Vertices: make([]geometry.Vertex, len(d.Vertices)),
		Indices:  make([]uint32, len(d.Faces)),
	}

	for i, p := range d.Vertices {
		mesh.Vertices[i].Position = p
		if i < len(d.Normals) {
			mesh.Vertices[i].Normal = d.Normals[i]
		}
		if i < len(d.TexCoords) {
			mesh.Vertices[i].UV = d.TexCoords[i]
		}
	}
	for i, index := range d.Faces {
		if index < 0 || index >= len(d.Vertices) {
			return nil, fmt.Errorf("face index %d out of range (%d vertices)", index, len(d.Vertices))
		}
		mesh.Indices[i] = uint32(index)
	}

	if len(d.Normals) != len(d.Vertices) {
		mesh.ComputeNormals()
	}
	if len(d.TexCoords) == len(d.Vertices) {
		mesh.ComputeTangents()
	}
	return mesh, nil
}

// ReadPLY parses a PLY stream
func ReadPLY(r *bufio.Reader) (*PLYData, error) {
	header, err := parsePLYHeader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PLY header: %w", err)
	}

	var values plyValueReader
	switch header.Format {
	case "binary_little_endian":
		values = &binaryValueReader{r: r, order: binary.LittleEndian}
	case "binary_big_endian":
		values = &binaryValueReader{r: r, order: binary.BigEndian}
	case "ascii":
		scanner := bufio.NewScanner(r)
		scanner.Split(bufio.ScanWords)
		values = &asciiValueReader{scanner: scanner}
	default:
		return nil, fmt.Errorf("unsupported PLY format: %q", header.Format)
	}

	data := &PLYData{}
	for _, element := range header.Elements {
		switch element.Name {
		case "vertex":
			err = readVertices(values, element, data)
		case "face":
			err = readFaces(values, element, data)
		default:
			err = skipElement(values, element)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s data: %w", element.Name, err)
		}
	}

	return data, nil
}

// parsePLYHeader reads header lines up to and including end_header, leaving
// r positioned at the first data byte
func parsePLYHeader(r *bufio.Reader) (*PLYHeader, error) {
	header := &PLYHeader{}

	magic, err := r.ReadString('\n')
	if err != nil || strings.TrimSpace(magic) != "ply" {
		return nil, fmt.Errorf("missing ply magic number")
	}

	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("unexpected end of header: %w", err)
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "end_header":
			if header.Format == "" {
				return nil, fmt.Errorf("header has no format line")
			}
			return header, nil
		case "format":
			if len(parts) < 3 {
				return nil, fmt.Errorf("invalid format line: %q", strings.TrimSpace(line))
			}
			header.Format = parts[1]
			header.Version = parts[2]
		case "comment", "obj_info":
			// Ignore comments
		case "element":
			if len(parts) < 3 {
				return nil, fmt.Errorf("invalid element line: %q", strings.TrimSpace(line))
			}
			count, err := strconv.Atoi(parts[2])
			if err != nil || count < 0 {
				return nil, fmt.Errorf("invalid element count: %s", parts[2])
			}
			header.Elements = append(header.Elements, PLYElement{Name: parts[1], Count: count})
		case "property":
			if len(header.Elements) == 0 {
				return nil, fmt.Errorf("property before any element")
			}
			prop, err := parsePLYProperty(parts[1:])
			if err != nil {
				return nil, fmt.Errorf("failed to parse property: %w", err)
			}
			element := &header.Elements[len(header.Elements)-1]
			element.Properties = append(element.Properties, prop)
		default:
			return nil, fmt.Errorf("unknown header keyword %q", parts[0])
		}
	}
}

// parsePLYProperty parses a property line from the PLY header
func parsePLYProperty(parts []string) (PLYProperty, error) {
	if len(parts) < 2 {
		return PLYProperty{}, fmt.Errorf("invalid property definition")
	}

	if parts[0] == "list" {
		if len(parts) < 4 {
			return PLYProperty{}, fmt.Errorf("invalid list property definition")
		}
		return PLYProperty{IsList: true, ListType: parts[1], DataType: parts[2], Name: parts[3]}, nil
	}
	return PLYProperty{Type: parts[0], Name: parts[1]}, nil
}

func readVertices(values plyValueReader, element PLYElement, data *PLYData) error {
	index := make(map[string]int, len(element.Properties))
	for i, prop := range element.Properties {
		index[prop.Name] = i
	}
	has := func(names ...string) bool {
		for _, name := range names {
			if _, ok := index[name]; !ok {
				return false
			}
		}
		return true
	}
	pick := func(names ...string) int {
		for _, name := range names {
			if i, ok := index[name]; ok {
				return i
			}
		}
		return -1
	}

	if !has("x", "y", "z") {
		return fmt.Errorf("vertex element lacks x, y, z")
	}
	hasNormals := has("nx", "ny", "nz")
	hasColors := has("red", "green", "blue")
	uIndex := pick("u", "s", "texture_u")
	vIndex := pick("v", "t", "texture_v")
	hasTexCoords := uIndex >= 0 && vIndex >= 0

	data.Vertices = make([]core.Vec3, 0, element.Count)
	row := make([]float64, len(element.Properties))
	for i := 0; i < element.Count; i++ {
		for j, prop := range element.Properties {
			if prop.IsList {
				if err := skipList(values, prop); err != nil {
					return err
				}
				continue
			}
			value, err := values.read(prop.Type)
			if err != nil {
				return fmt.Errorf("vertex %d property %s: %w", i, prop.Name, err)
			}
			row[j] = value
		}

		data.Vertices = append(data.Vertices, core.NewVec3(row[index["x"]], row[index["y"]], row[index["z"]]))
		if hasNormals {
			data.Normals = append(data.Normals, core.NewVec3(row[index["nx"]], row[index["ny"]], row[index["nz"]]))
		}
		if hasColors {
			color := core.NewVec3(row[index["red"]], row[index["green"]], row[index["blue"]])
			if isByteType(element.Properties[index["red"]].Type) {
				// Convert from 0-255 to 0-1 range
				color = color.Multiply(1.0 / 255.0)
			}
			data.Colors = append(data.Colors, color)
		}
		if hasTexCoords {
			data.TexCoords = append(data.TexCoords, core.NewVec2(row[uIndex], row[vIndex]))
		}
	}
	return nil
}

func readFaces(values plyValueReader, element PLYElement, data *PLYData) error {
	data.Faces = make([]int, 0, element.Count*3)
	for i := 0; i < element.Count; i++ {
		for _, prop := range element.Properties {
			if !prop.IsList || (prop.Name != "vertex_indices" && prop.Name != "vertex_index") {
				if err := skipProperty(values, prop); err != nil {
					return fmt.Errorf("face %d property %s: %w", i, prop.Name, err)
				}
				continue
			}

			count, err := values.read(prop.ListType)
			if err != nil {
				return fmt.Errorf("face %d vertex count: %w", i, err)
			}
			if count < 3 {
				return fmt.Errorf("face %d has %d vertices", i, int(count))
			}
			polygon := make([]int, int(count))
			for k := range polygon {
				value, err := values.read(prop.DataType)
				if err != nil {
					return fmt.Errorf("face %d index %d: %w", i, k, err)
				}
				polygon[k] = int(value)
			}

			// Fan-triangulate polygons with more than three corners
			for k := 1; k+1 < len(polygon); k++ {
				data.Faces = append(data.Faces, polygon[0], polygon[k], polygon[k+1])
			}
		}
	}
	return nil
}

func skipElement(values plyValueReader, element PLYElement) error {
	for i := 0; i < element.Count; i++ {
		for _, prop := range element.Properties {
			if err := skipProperty(values, prop); err != nil {
				return err
			}
		}
	}
	return nil
}

func skipProperty(values plyValueReader, prop PLYProperty) error {
	if prop.IsList {
		return skipList(values, prop)
	}
	_, err := values.read(prop.Type)
	return err
}

func skipList(values plyValueReader, prop PLYProperty) error {
	count, err := values.read(prop.ListType)
	if err != nil {
		return err
	}
	for i := 0; i < int(count); i++ {
		if _, err := values.read(prop.DataType); err != nil {
			return err
		}
	}
	return nil
}

func isByteType(dataType string) bool {
	return dataType == "uchar" || dataType == "uint8"
}

// plyValueReader reads one scalar of the named PLY type as float64
type plyValueReader interface {
	read(dataType string) (float64, error)
}

type binaryValueReader struct {
	r     io.Reader
	order binary.ByteOrder
	buf   [8]byte
}

func (b *binaryValueReader) read(dataType string) (float64, error) {
	size := plyTypeSize(dataType)
	if size == 0 {
		return 0, fmt.Errorf("unsupported data type: %s", dataType)
	}
	raw := b.buf[:size]
	if _, err := io.ReadFull(b.r, raw); err != nil {
		return 0, err
	}

	switch dataType {
	case "char", "int8":
		return float64(int8(raw[0])), nil
	case "uchar", "uint8":
		return float64(raw[0]), nil
	case "short", "int16":
		return float64(int16(b.order.Uint16(raw))), nil
	case "ushort", "uint16":
		return float64(b.order.Uint16(raw)), nil
	case "int", "int32":
		return float64(int32(b.order.Uint32(raw))), nil
	case "uint", "uint32":
		return float64(b.order.Uint32(raw)), nil
	case "float", "float32":
		return float64(math.Float32frombits(b.order.Uint32(raw))), nil
	default: // double, float64
		return math.Float64frombits(b.order.Uint64(raw)), nil
	}
}

func plyTypeSize(dataType string) int {
	switch dataType {
	case "char", "int8", "uchar", "uint8":
		return 1
	case "short", "int16", "ushort", "uint16":
		return 2
	case "int", "int32", "uint", "uint32", "float", "float32":
		return 4
	case "double", "float64":
		return 8
	default:
		return 0
	}
}

type asciiValueReader struct {
	scanner *bufio.Scanner
}

func (a *asciiValueReader) read(dataType string) (float64, error) {
	if plyTypeSize(dataType) == 0 {
		return 0, fmt.Errorf("unsupported data type: %s", dataType)
	}
	if !a.scanner.Scan() {
		if err := a.scanner.Err(); err != nil {
			return 0, err
		}
		return 0, io.ErrUnexpectedEOF
	}
	return strconv.ParseFloat(a.scanner.Text(), 64)
}
