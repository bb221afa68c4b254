package models

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"
	"path/filepath"

	"github.com/qmuntal/gltf"
	"github.com/taigrr/wormhole/pkg/math3d"
)

// GLTFLoader loads GLTF/GLB meshes into Mesh format.
type GLTFLoader struct {
	// Options
	CalculateNormals bool
	SmoothNormals    bool
}

// NewGLTFLoader creates a new GLTF loader with default options.
func NewGLTFLoader() *GLTFLoader {
	return &GLTFLoader{
		CalculateNormals: true,
		SmoothNormals:    true,
	}
}

// LoadMesh converts a single mesh of an open document. dir resolves
// external image URIs.
func (l *GLTFLoader) LoadMesh(doc *gltf.Document, index int, dir string) (*Mesh, error) {
	if index < 0 || index >= len(doc.Meshes) {
		return nil, fmt.Errorf("mesh index %d out of range (%d meshes)", index, len(doc.Meshes))
	}
	m := doc.Meshes[index]
	name := m.Name
	if name == "" {
		name = fmt.Sprintf("mesh%d", index)
	}

	mesh := NewMesh(name)
	if err := l.processMesh(doc, m, mesh, dir, make(map[int]int)); err != nil {
		return nil, fmt.Errorf("process mesh %q: %w", name, err)
	}
	l.finish(mesh)
	return mesh, nil
}

func (l *GLTFLoader) finish(mesh *Mesh) {
	hasNormals := false
	for _, v := range mesh.Vertices {
		if v.Normal.Len() > 0.001 {
			hasNormals = true
			break
		}
	}

	if l.CalculateNormals && !hasNormals {
		if l.SmoothNormals {
			mesh.CalculateSmoothNormals()
		} else {
			mesh.CalculateNormals()
		}
	}

	mesh.CalculateBounds()
}

// processMesh extracts geometry from a GLTF mesh. materials maps document
// material indices to indices in mesh.Materials.
func (l *GLTFLoader) processMesh(doc *gltf.Document, m *gltf.Mesh, mesh *Mesh, dir string, materials map[int]int) error {
	for _, prim := range m.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles && prim.Mode != 0 {
			// Skip non-triangle primitives (lines, points, etc)
			continue
		}

		posIdx, ok := prim.Attributes[gltf.POSITION]
		if !ok {
			continue
		}

		positions, err := readVec3Accessor(doc, posIdx)
		if err != nil {
			return fmt.Errorf("read positions: %w", err)
		}

		var normals []math3d.Vec3
		if normIdx, ok := prim.Attributes[gltf.NORMAL]; ok {
			normals, err = readVec3Accessor(doc, normIdx)
			if err != nil {
				return fmt.Errorf("read normals: %w", err)
			}
		}

		var uvs []math3d.Vec2
		if uvIdx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
			uvs, err = readVec2Accessor(doc, uvIdx)
			if err != nil {
				return fmt.Errorf("read uvs: %w", err)
			}
		}

		matIdx := -1
		if prim.Material != nil {
			idx, seen := materials[*prim.Material]
			if !seen {
				mat, err := readMaterial(doc, *prim.Material, dir)
				if err != nil {
					return fmt.Errorf("read material %d: %w", *prim.Material, err)
				}
				idx = len(mesh.Materials)
				mesh.Materials = append(mesh.Materials, mat)
				materials[*prim.Material] = idx
			}
			matIdx = idx
		}

		baseVertex := len(mesh.Vertices)
		for i := range positions {
			v := MeshVertex{Position: positions[i]}
			if i < len(normals) {
				v.Normal = normals[i]
			}
			if i < len(uvs) {
				// GLTF uses top-left origin (V=0 at top), flip V for bottom-left origin
				v.UV = math3d.V2(uvs[i].X, 1.0-uvs[i].Y)
			}
			mesh.Vertices = append(mesh.Vertices, v)
		}

		var indices []int
		if prim.Indices != nil {
			indices, err = readIndices(doc, *prim.Indices)
			if err != nil {
				return fmt.Errorf("read indices: %w", err)
			}
		} else {
			indices = make([]int, len(positions))
			for i := range indices {
				indices[i] = i
			}
		}

		// GLTF front faces are CCW; ours are CW, so the winding is reversed.
		for i := 0; i+2 < len(indices); i += 3 {
			mesh.Faces = append(mesh.Faces, Face{
				V: [3]int{
					baseVertex + indices[i],
					baseVertex + indices[i+2],
					baseVertex + indices[i+1],
				},
				Material: matIdx,
			})
		}
	}

	return nil
}

// readMaterial converts a GLTF material, decoding its base color texture
// when one is referenced.
func readMaterial(doc *gltf.Document, index int, dir string) (Material, error) {
	if index < 0 || index >= len(doc.Materials) {
		return Material{}, fmt.Errorf("material index %d out of range", index)
	}
	src := doc.Materials[index]
	mat := Material{
		Name:        src.Name,
		BaseColor:   [4]float64{1, 1, 1, 1},
		Metallic:    1,
		Roughness:   1,
		DoubleSided: src.DoubleSided,
	}

	pbr := src.PBRMetallicRoughness
	if pbr == nil {
		return mat, nil
	}
	mat.BaseColor = pbr.BaseColorFactorOrDefault()
	mat.Metallic = pbr.MetallicFactorOrDefault()
	mat.Roughness = pbr.RoughnessFactorOrDefault()

	if pbr.BaseColorTexture == nil {
		return mat, nil
	}
	texIdx := pbr.BaseColorTexture.Index
	if texIdx < 0 || texIdx >= len(doc.Textures) || doc.Textures[texIdx].Source == nil {
		return mat, nil
	}
	img, err := decodeImage(doc, *doc.Textures[texIdx].Source, dir)
	if err != nil {
		return Material{}, err
	}
	mat.BaseMap = img
	mat.HasTexture = true
	return mat, nil
}

// decodeImage reads an image embedded in a buffer view or stored next to
// the document.
func decodeImage(doc *gltf.Document, index int, dir string) (image.Image, error) {
	if index < 0 || index >= len(doc.Images) {
		return nil, fmt.Errorf("image index %d out of range", index)
	}
	src := doc.Images[index]

	var data []byte
	switch {
	case src.BufferView != nil:
		bv := doc.BufferViews[*src.BufferView]
		buf := doc.Buffers[bv.Buffer]
		if buf.Data == nil {
			return nil, fmt.Errorf("image %d: buffer has no data", index)
		}
		data = buf.Data[bv.ByteOffset : bv.ByteOffset+bv.ByteLength]
	case src.URI != "":
		b, err := os.ReadFile(filepath.Join(dir, src.URI))
		if err != nil {
			return nil, fmt.Errorf("image %d: %w", index, err)
		}
		data = b
	default:
		return nil, fmt.Errorf("image %d has no source", index)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image %d: %w", index, err)
	}
	return img, nil
}

// readVec3Accessor reads Vec3 data from a GLTF accessor.
func readVec3Accessor(doc *gltf.Document, accessorIdx int) ([]math3d.Vec3, error) {
	accessor := doc.Accessors[accessorIdx]
	if accessor.Type != gltf.AccessorVec3 {
		return nil, fmt.Errorf("expected VEC3, got %v", accessor.Type)
	}

	data, err := readAccessorData(doc, accessor)
	if err != nil {
		return nil, err
	}

	floats, ok := data.([][3]float32)
	if !ok {
		return nil, fmt.Errorf("unexpected data type for VEC3")
	}

	result := make([]math3d.Vec3, len(floats))
	for i, f := range floats {
		result[i] = math3d.V3(float64(f[0]), float64(f[1]), float64(f[2]))
	}

	return result, nil
}

// readVec2Accessor reads Vec2 data from a GLTF accessor.
func readVec2Accessor(doc *gltf.Document, accessorIdx int) ([]math3d.Vec2, error) {
	accessor := doc.Accessors[accessorIdx]
	if accessor.Type != gltf.AccessorVec2 {
		return nil, fmt.Errorf("expected VEC2, got %v", accessor.Type)
	}

	data, err := readAccessorData(doc, accessor)
	if err != nil {
		return nil, err
	}

	floats, ok := data.([][2]float32)
	if !ok {
		return nil, fmt.Errorf("unexpected data type for VEC2")
	}

	result := make([]math3d.Vec2, len(floats))
	for i, f := range floats {
		result[i] = math3d.V2(float64(f[0]), float64(f[1]))
	}

	return result, nil
}

// readIndices reads index data from a GLTF accessor.
func readIndices(doc *gltf.Document, accessorIdx int) ([]int, error) {
	accessor := doc.Accessors[accessorIdx]

	data, err := readAccessorData(doc, accessor)
	if err != nil {
		return nil, err
	}

	switch v := data.(type) {
	case []uint8:
		return widen(v), nil
	case []uint16:
		return widen(v), nil
	case []uint32:
		return widen(v), nil
	default:
		return nil, fmt.Errorf("unexpected index type: %T", data)
	}
}

func widen[T uint8 | uint16 | uint32](v []T) []int {
	result := make([]int, len(v))
	for i, x := range v {
		result[i] = int(x)
	}
	return result
}

// readAccessorData reads raw data from a GLTF accessor.
func readAccessorData(doc *gltf.Document, accessor *gltf.Accessor) (any, error) {
	if accessor.BufferView == nil {
		return nil, fmt.Errorf("accessor has no buffer view")
	}

	bufferView := doc.BufferViews[*accessor.BufferView]
	// gltf.Open resolves external buffers into Data as well
	bufData := doc.Buffers[bufferView.Buffer].Data
	if bufData == nil {
		return nil, fmt.Errorf("buffer has no data")
	}

	start := bufferView.ByteOffset + accessor.ByteOffset
	stride := bufferView.ByteStride
	count := accessor.Count

	switch accessor.Type {
	case gltf.AccessorVec3:
		if stride == 0 {
			stride = 12 // 3 floats * 4 bytes
		}
		if err := checkRange(bufData, start, stride, count, 12); err != nil {
			return nil, err
		}
		result := make([][3]float32, count)
		for i := range count {
			offset := start + i*stride
			for j := range 3 {
				result[i][j] = readFloat32(bufData[offset+j*4:])
			}
		}
		return result, nil

	case gltf.AccessorVec2:
		if stride == 0 {
			stride = 8 // 2 floats * 4 bytes
		}
		if err := checkRange(bufData, start, stride, count, 8); err != nil {
			return nil, err
		}
		result := make([][2]float32, count)
		for i := range count {
			offset := start + i*stride
			for j := range 2 {
				result[i][j] = readFloat32(bufData[offset+j*4:])
			}
		}
		return result, nil

	case gltf.AccessorScalar:
		var size int
		switch accessor.ComponentType {
		case gltf.ComponentUbyte:
			size = 1
		case gltf.ComponentUshort:
			size = 2
		case gltf.ComponentUint:
			size = 4
		}
		if size == 0 {
			break
		}
		if stride == 0 {
			stride = size
		}
		if err := checkRange(bufData, start, stride, count, size); err != nil {
			return nil, err
		}

		switch size {
		case 1:
			result := make([]uint8, count)
			for i := range count {
				result[i] = bufData[start+i*stride]
			}
			return result, nil
		case 2:
			result := make([]uint16, count)
			for i := range count {
				result[i] = binary.LittleEndian.Uint16(bufData[start+i*stride:])
			}
			return result, nil
		default:
			result := make([]uint32, count)
			for i := range count {
				result[i] = binary.LittleEndian.Uint32(bufData[start+i*stride:])
			}
			return result, nil
		}
	}

	return nil, fmt.Errorf("unsupported accessor type: %v / %v", accessor.Type, accessor.ComponentType)
}

func checkRange(buf []byte, start, stride, count, size int) error {
	if count == 0 {
		return nil
	}
	if end := start + (count-1)*stride + size; start < 0 || end > len(buf) {
		return fmt.Errorf("accessor reads [%d, %d) past buffer of %d bytes", start, end, len(buf))
	}
	return nil
}

// readFloat32 reads a little-endian float32.
func readFloat32(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}
