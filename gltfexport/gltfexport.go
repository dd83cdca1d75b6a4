// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package gltfexport writes a materialized mesh bundle as binary glTF.
//
// glTF is +Y up, so the +z north axis of the mesh becomes +Y. Vertices
// carry POSITION, NORMAL and an elevation colour in COLOR_0.
package gltfexport

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/2dChan/hpmesh"
	"github.com/2dChan/hpmesh/normals"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

const (
	defaultName      = "hpmesh"
	defaultGenerator = "hpmesh"
)

var ErrEmptyMesh = errors.New("gltfexport: mesh has no triangles")

// ColorStop pins an RGBA colour to an elevation.
type ColorStop struct {
	Elevation float32
	Color     [4]float32
}

// ColorRamp maps elevation to colour by linear interpolation between stops
// sorted by elevation. Elevations outside the ramp take the end colours.
type ColorRamp []ColorStop

// DefaultRamp is a hypsometric tint for elevations in metres.
var DefaultRamp = ColorRamp{
	{Elevation: -8000, Color: [4]float32{0.03, 0.05, 0.25, 1}},
	{Elevation: -200, Color: [4]float32{0.2, 0.45, 0.75, 1}},
	{Elevation: 0, Color: [4]float32{0.55, 0.75, 0.9, 1}},
	{Elevation: 1, Color: [4]float32{0.25, 0.5, 0.2, 1}},
	{Elevation: 1000, Color: [4]float32{0.75, 0.7, 0.4, 1}},
	{Elevation: 3000, Color: [4]float32{0.5, 0.35, 0.25, 1}},
	{Elevation: 6000, Color: [4]float32{1, 1, 1, 1}},
}

// At returns the colour of elevation e.
func (r ColorRamp) At(e float32) [4]float32 {
	if len(r) == 0 {
		return [4]float32{1, 1, 1, 1}
	}
	if e <= r[0].Elevation {
		return r[0].Color
	}
	for i := 1; i < len(r); i++ {
		lo, hi := r[i-1], r[i]
		if e > hi.Elevation {
			continue
		}
		t := (e - lo.Elevation) / (hi.Elevation - lo.Elevation)
		var c [4]float32
		for k := range c {
			c[k] = lo.Color[k] + t*(hi.Color[k]-lo.Color[k])
		}
		return c
	}
	return r[len(r)-1].Color
}

type Options struct {
	Exaggeration float32
	Ramp         ColorRamp
	Name         string
}

type Option func(*Options) error

// WithExaggeration displaces vertices radially by s sphere radii per unit
// of elevation.
func WithExaggeration(s float32) Option {
	return func(o *Options) error {
		if s < 0 || math.IsNaN(float64(s)) || math.IsInf(float64(s), 0) {
			return fmt.Errorf("WithExaggeration: scale %v must be finite and non-negative", s)
		}
		o.Exaggeration = s
		return nil
	}
}

// WithColorRamp sets the elevation colouring. Stops must be sorted by
// strictly increasing elevation.
func WithColorRamp(r ColorRamp) Option {
	return func(o *Options) error {
		for i := 1; i < len(r); i++ {
			if !(r[i].Elevation > r[i-1].Elevation) {
				return fmt.Errorf("WithColorRamp: stop %d elevation %v not above %v", i, r[i].Elevation, r[i-1].Elevation)
			}
		}
		o.Ramp = r
		return nil
	}
}

// WithName sets the glTF mesh name.
func WithName(name string) Option {
	return func(o *Options) error {
		o.Name = name
		return nil
	}
}

// Document builds a single-mesh glTF document of m. Normals are taken from
// m when present, otherwise accumulated from the displaced faces.
func Document(m *hpmesh.Mesh, setters ...Option) (*gltf.Document, error) {
	opts := Options{
		Ramp: DefaultRamp,
		Name: defaultName,
	}
	for _, set := range setters {
		if err := set(&opts); err != nil {
			return nil, err
		}
	}
	if m == nil || m.NumTriangles() == 0 {
		return nil, ErrEmptyMesh
	}
	numV := m.NumVertices()
	if len(m.Elevation) != numV {
		return nil, fmt.Errorf("%w: %d samples for %d vertices", hpmesh.ErrTopologyMismatch, len(m.Elevation), numV)
	}

	flat := m.Displaced(opts.Exaggeration)
	flatNormals := m.Normals
	if flatNormals == nil || opts.Exaggeration > 0 {
		var err error
		if flatNormals, err = normals.FaceAccumulated(flat, m.Indices); err != nil {
			return nil, fmt.Errorf("%w: %w", hpmesh.ErrTopologyMismatch, err)
		}
	}
	if len(flatNormals) != len(flat) {
		return nil, fmt.Errorf("%w: %d normal components for %d vertices", hpmesh.ErrTopologyMismatch, len(flatNormals), numV)
	}

	positions := make([][3]float32, numV)
	norms := make([][3]float32, numV)
	colors := make([][4]float32, numV)
	for i := range numV {
		positions[i] = yUp(flat[3*i], flat[3*i+1], flat[3*i+2])
		norms[i] = yUp(flatNormals[3*i], flatNormals[3*i+1], flatNormals[3*i+2])
		colors[i] = opts.Ramp.At(m.Elevation[i])
	}
	indices := make([]uint32, len(m.Indices))
	copy(indices, m.Indices)

	doc := gltf.NewDocument()
	doc.Asset.Generator = defaultGenerator

	posAccessor := modeler.WritePosition(doc, positions)
	normalAccessor := modeler.WriteNormal(doc, norms)
	colorAccessor := modeler.WriteColor(doc, colors)
	indicesAccessor := modeler.WriteIndices(doc, indices)

	prim := &gltf.Primitive{
		Attributes: map[string]uint32{
			gltf.POSITION: uint32(posAccessor),
			gltf.NORMAL:   uint32(normalAccessor),
			gltf.COLOR_0:  uint32(colorAccessor),
		},
		Indices:  gltf.Index(uint32(indicesAccessor)),
		Material: gltf.Index(0),
	}
	doc.Materials = []*gltf.Material{{
		Name: "elevation",
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorFactor: &[4]float32{1, 1, 1, 1},
			MetallicFactor:  gltf.Float(0),
			RoughnessFactor: gltf.Float(1),
		},
		AlphaMode: gltf.AlphaOpaque,
	}}
	doc.Meshes = []*gltf.Mesh{{Name: opts.Name, Primitives: []*gltf.Primitive{prim}}}
	doc.Nodes = []*gltf.Node{{Name: opts.Name, Mesh: gltf.Index(0)}}
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, uint32(0))
	return doc, nil
}

// Encode writes m to w as GLB.
func Encode(w io.Writer, m *hpmesh.Mesh, setters ...Option) error {
	doc, err := Document(m, setters...)
	if err != nil {
		return err
	}
	enc := gltf.NewEncoder(w)
	enc.AsBinary = true
	return enc.Encode(doc)
}

// Save writes m to the named file as GLB.
func Save(name string, m *hpmesh.Mesh, setters ...Option) error {
	doc, err := Document(m, setters...)
	if err != nil {
		return err
	}
	return gltf.SaveBinary(doc, name)
}

// yUp maps +z-north coordinates to glTF's +Y-up frame, a rotation of -90
// degrees about X.
func yUp(x, y, z float32) [3]float32 {
	return [3]float32{x, z, -y}
}
