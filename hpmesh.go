// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package hpmesh turns decoded mesh records into renderer-ready buffers.
//
// Decoding (package meshcodec) reads only what a blob stores. Materialize is
// the separate step that regenerates implicit icosphere topology for the
// compact formats, checks it against the stored attributes and computes
// shading normals.
package hpmesh

import (
	"errors"
	"fmt"
	"math"

	"github.com/2dChan/hpmesh/icosphere"
	"github.com/2dChan/hpmesh/meshcodec"
	"github.com/2dChan/hpmesh/normals"
)

const (
	defaultGradientScale = normals.DegreeScale
)

var (
	ErrTopologyMismatch = errors.New("hpmesh: attributes do not match topology")
	ErrNotAMesh         = errors.New("hpmesh: record has no triangle topology")
)

// Mesh is the bundle handed to a renderer. All arrays are flat: xyz triples
// for Positions and Normals, CCW triangles for Indices, one sample per
// vertex for Elevation.
type Mesh struct {
	Positions []float32
	Indices   []uint32
	Elevation []float32
	// NOTE: nil when materialized WithoutNormals.
	Normals []float32

	// Variant is the format the mesh was materialized from.
	Variant meshcodec.Variant
}

// NumVertices returns len(Positions)/3.
func (m *Mesh) NumVertices() int {
	return len(m.Positions) / 3
}

// NumTriangles returns len(Indices)/3.
func (m *Mesh) NumTriangles() int {
	return len(m.Indices) / 3
}

// Vertex returns a view of vertex i.
// It returns an error if the index is out of range.
func (m *Mesh) Vertex(i int) (Vertex, error) {
	if i < 0 || i >= m.NumVertices() {
		return Vertex{}, fmt.Errorf("Vertex: index %d out of range [0 %d)", i, m.NumVertices())
	}
	return Vertex{idx: i, m: m}, nil
}

// Triangle returns the vertex indices of triangle i.
// It returns an error if the index is out of range.
func (m *Mesh) Triangle(i int) ([3]int, error) {
	if i < 0 || i >= m.NumTriangles() {
		return [3]int{}, fmt.Errorf("Triangle: index %d out of range [0 %d)", i, m.NumTriangles())
	}
	t := m.Indices[3*i : 3*i+3]
	return [3]int{int(t[0]), int(t[1]), int(t[2])}, nil
}

// Displaced returns the positions pushed radially by scale*elevation, the
// way renderers exaggerate relief. scale is in sphere radii per elevation
// unit.
func (m *Mesh) Displaced(scale float32) []float32 {
	out := make([]float32, len(m.Positions))
	for i := range m.NumVertices() {
		k := 1 + scale*m.Elevation[i]
		out[3*i] = m.Positions[3*i] * k
		out[3*i+1] = m.Positions[3*i+1] * k
		out[3*i+2] = m.Positions[3*i+2] * k
	}
	return out
}

type Options struct {
	GradientScale float32
	Normals       bool
}

type Option func(*Options) error

// WithGradientScale sets the factor applied to HPGRAD derivatives before
// they tilt the tangent frame. The default converts metres per degree on
// an Earth-sized sphere.
func WithGradientScale(scale float32) Option {
	return func(o *Options) error {
		s := float64(scale)
		if s < 0 || math.IsNaN(s) || math.IsInf(s, 0) {
			return fmt.Errorf("WithGradientScale: scale %v must be finite and non-negative", scale)
		}
		o.GradientScale = scale
		return nil
	}
}

// WithoutNormals skips normal estimation.
func WithoutNormals() Option {
	return func(o *Options) error {
		o.Normals = false
		return nil
	}
}

// Materialize builds the renderer bundle for a mesh record. HPELEV and
// HPGRAD records get the icosphere of their stored depth, which must have
// exactly one vertex per elevation sample. HPMESH and ADAMESH arrays are
// shared with the record, not copied. Normals come from face accumulation,
// except for HPGRAD whose stored derivatives are used instead. CONTOUR
// records carry polygons, not a mesh, and are rejected with ErrNotAMesh.
func Materialize(r meshcodec.Record, setters ...Option) (*Mesh, error) {
	opts := Options{
		GradientScale: defaultGradientScale,
		Normals:       true,
	}
	for _, set := range setters {
		if err := set(&opts); err != nil {
			return nil, err
		}
	}

	var (
		m   *Mesh
		err error
	)
	switch r := r.(type) {
	case *meshcodec.Full:
		m, err = explicit(meshcodec.VariantFull, r.Positions, r.Indices, r.Elevation)
	case *meshcodec.Adaptive:
		m, err = explicit(meshcodec.VariantAdaptive, r.Positions, r.Indices, r.Elevation)
	case *meshcodec.Compact:
		m, err = implicit(meshcodec.VariantCompact, r.Depth, r.Elevation)
	case *meshcodec.Gradient:
		if len(r.DLat) != len(r.Elevation) || len(r.DLon) != len(r.Elevation) {
			return nil, fmt.Errorf("%w: %d elevation, %d d/dlat, %d d/dlon samples",
				ErrTopologyMismatch, len(r.Elevation), len(r.DLat), len(r.DLon))
		}
		m, err = implicit(meshcodec.VariantGradient, r.Depth, r.Elevation)
		if err == nil && opts.Normals {
			m.Normals, err = normals.FromGradient(m.Positions, r.DLat, r.DLon, opts.GradientScale)
		}
	case *meshcodec.ContourSet:
		return nil, fmt.Errorf("%w: %v", ErrNotAMesh, r.Variant())
	case nil:
		return nil, fmt.Errorf("%w: nil record", ErrNotAMesh)
	default:
		panic(fmt.Sprintf("Materialize: unknown record type %T", r))
	}
	if err != nil {
		return nil, err
	}

	if opts.Normals && m.Normals == nil {
		if m.Normals, err = normals.FaceAccumulated(m.Positions, m.Indices); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrTopologyMismatch, err)
		}
	}
	return m, nil
}

func explicit(v meshcodec.Variant, positions []float32, indices []uint32, elevation []float32) (*Mesh, error) {
	if len(positions)%3 != 0 {
		return nil, fmt.Errorf("%w: %v has %d position components", ErrTopologyMismatch, v, len(positions))
	}
	numV := len(positions) / 3
	if len(elevation) != numV {
		return nil, fmt.Errorf("%w: %v has %d elevation samples for %d vertices", ErrTopologyMismatch, v, len(elevation), numV)
	}
	if len(indices)%3 != 0 {
		return nil, fmt.Errorf("%w: %v has %d indices", ErrTopologyMismatch, v, len(indices))
	}
	for i, idx := range indices {
		if int(idx) >= numV {
			return nil, fmt.Errorf("%w: %v index %d = %d, %d vertices", ErrTopologyMismatch, v, i, idx, numV)
		}
	}
	return &Mesh{Positions: positions, Indices: indices, Elevation: elevation, Variant: v}, nil
}

func implicit(v meshcodec.Variant, depth int, elevation []float32) (*Mesh, error) {
	if err := icosphere.CheckDepth(depth); err != nil {
		return nil, fmt.Errorf("%w: %v: %w", ErrTopologyMismatch, v, err)
	}
	// Checked before building: a deep icosphere is expensive.
	if n := icosphere.NumVertices(depth); len(elevation) != n {
		return nil, fmt.Errorf("%w: %v depth %d has %d vertices, got %d samples", ErrTopologyMismatch, v, depth, n, len(elevation))
	}
	ico, err := icosphere.Build(depth)
	if err != nil {
		return nil, err
	}
	if len(ico.Vertices) != len(elevation) {
		return nil, fmt.Errorf("%w: %v depth %d built %d vertices, got %d samples", ErrTopologyMismatch, v, depth, len(ico.Vertices), len(elevation))
	}
	return &Mesh{
		Positions: ico.FlatPositions(),
		Indices:   ico.FlatIndices(),
		Elevation: elevation,
		Variant:   v,
	}, nil
}
