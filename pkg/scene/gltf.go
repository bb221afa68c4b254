package scene

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/qmuntal/gltf"
	"github.com/taigrr/wormhole/pkg/math3d"
	"github.com/taigrr/wormhole/pkg/models"
	"github.com/taigrr/wormhole/pkg/render"
)

// LoadGLTF loads the default scene of a glTF or GLB file.
func LoadGLTF(path string) (*Scene, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf: %w", err)
	}
	s, err := FromDocument(doc, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", filepath.Base(path), err)
	}
	return s, nil
}

// FromDocument builds a scene from an open document. dir resolves external
// image URIs.
func FromDocument(doc *gltf.Document, dir string) (*Scene, error) {
	b := &builder{
		doc:    doc,
		dir:    dir,
		loader: models.NewGLTFLoader(),
		meshes: make(map[int]*models.Mesh),
	}

	s := New()
	roots, err := b.rootNodes()
	if err != nil {
		return nil, err
	}
	for _, idx := range roots {
		n, err := b.node(idx, 0)
		if err != nil {
			return nil, err
		}
		s.Add(n)
	}
	s.Update()
	return s, nil
}

// maxDepth guards against cyclic node references.
const maxDepth = 64

type builder struct {
	doc    *gltf.Document
	dir    string
	loader *models.GLTFLoader
	meshes map[int]*models.Mesh
}

func (b *builder) rootNodes() ([]int, error) {
	if len(b.doc.Scenes) > 0 {
		idx := 0
		if b.doc.Scene != nil {
			idx = *b.doc.Scene
		}
		if idx < 0 || idx >= len(b.doc.Scenes) {
			return nil, fmt.Errorf("scene index %d out of range", idx)
		}
		return b.doc.Scenes[idx].Nodes, nil
	}

	// No scenes: every node that is nobody's child is a root
	isChild := make(map[int]bool)
	for _, n := range b.doc.Nodes {
		for _, c := range n.Children {
			isChild[c] = true
		}
	}
	var roots []int
	for i := range b.doc.Nodes {
		if !isChild[i] {
			roots = append(roots, i)
		}
	}
	return roots, nil
}

func (b *builder) node(idx, depth int) (*Node, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("node hierarchy deeper than %d", maxDepth)
	}
	if idx < 0 || idx >= len(b.doc.Nodes) {
		return nil, fmt.Errorf("node index %d out of range", idx)
	}
	src := b.doc.Nodes[idx]

	name := src.Name
	if name == "" {
		name = fmt.Sprintf("node%d", idx)
	}
	n := NewNode(name)
	n.Transform = localTransform(src)

	extras, err := decodeExtras(src.Extras)
	if err != nil {
		return nil, fmt.Errorf("node %q extras: %w", name, err)
	}
	n.Extras = extras

	if src.Mesh != nil {
		mesh, err := b.mesh(*src.Mesh)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", name, err)
		}
		n.Mesh = mesh
		n.Material = materialFor(mesh)
		if mesh.MaterialCount() > 1 {
			slog.Debug("node draws a multi-material mesh with one material", "node", name, "materials", mesh.MaterialCount())
		}
	}

	for _, c := range src.Children {
		child, err := b.node(c, depth+1)
		if err != nil {
			return nil, err
		}
		n.Add(child)
	}
	return n, nil
}

func (b *builder) mesh(idx int) (*models.Mesh, error) {
	if m, ok := b.meshes[idx]; ok {
		return m, nil
	}
	m, err := b.loader.LoadMesh(b.doc, idx, b.dir)
	if err != nil {
		return nil, err
	}
	b.meshes[idx] = m
	return m, nil
}

// localTransform prefers an explicit matrix and falls back to TRS.
func localTransform(n *gltf.Node) math3d.Mat4 {
	if m := math3d.Mat4(n.MatrixOrDefault()); m != math3d.Identity() {
		return m
	}
	t := n.TranslationOrDefault()
	r := n.RotationOrDefault()
	s := n.ScaleOrDefault()
	return math3d.Compose(
		math3d.V3(t[0], t[1], t[2]),
		math3d.Quat{X: r[0], Y: r[1], Z: r[2], W: r[3]},
		math3d.V3(s[0], s[1], s[2]),
	)
}

// decodeExtras accepts the shapes encoding/json produces for the extras
// field.
func decodeExtras(v any) (map[string]any, error) {
	switch e := v.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return e, nil
	case json.RawMessage:
		var m map[string]any
		if err := json.Unmarshal(e, &m); err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unsupported extras type %T", v)
	}
}

// materialFor converts the material of mesh's first face into a render
// material. Faces without a material fall back to gray.
func materialFor(mesh *models.Mesh) render.Material {
	var src *models.Material
	if mesh.TriangleCount() > 0 {
		src = mesh.GetMaterial(mesh.GetFaceMaterial(0))
	}
	if src == nil {
		return render.SolidMaterial(render.ColorGray)
	}
	mat := render.Material{
		Color:       render.RGBA(unit(src.BaseColor[0]), unit(src.BaseColor[1]), unit(src.BaseColor[2]), unit(src.BaseColor[3])),
		DoubleSided: src.DoubleSided,
	}
	if src.HasTexture && src.BaseMap != nil {
		mat.Texture = render.TextureFromImage(src.BaseMap)
	}
	return mat
}

func unit(v float64) uint8 {
	return uint8(max(0, min(1, v))*255 + 0.5)
}
