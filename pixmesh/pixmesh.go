// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package pixmesh triangulates the pixel centres of a HEALPix grid.
//
// Vertex i of a Triangulation is the centre of pixel i, so a HEALPix map in
// the same scheme is directly a per-vertex attribute. The triangles are the
// convex hull of the centres, which for points on a sphere is their
// spherical Delaunay triangulation.
package pixmesh

import (
	"errors"
	"fmt"

	"github.com/2dChan/hpmesh/healpix"
	"github.com/2dChan/hpmesh/meshcodec"
	"github.com/2dChan/hpmesh/sampler"
	"github.com/golang/geo/r3"
	"github.com/markus-wa/quickhull-go/v2"
)

const (
	defaultEps = 1e-12
)

var (
	ErrTooFewVertices = errors.New("pixmesh: insufficient vertices for triangulation (minimum 4 required)")
	ErrHullMismatch   = errors.New("pixmesh: inconsistent number of indices returned from QuickHull")
	ErrFieldMismatch  = errors.New("pixmesh: field does not match triangulation grid")
)

type Triangulation struct {
	Nside  int
	Scheme healpix.Scheme

	Vertices  []r3.Vector
	Triangles [][3]int
	// NOTE: Sort in CCW per vertex(look out of sphere)
	IncidentTriangleIndices []int
	IncidentTriangleOffsets []int
}

// NumVertices returns the number of pixel centres.
func (t *Triangulation) NumVertices() int {
	return len(t.Vertices)
}

// IncidentTriangles returns the triangles around vertex vIdx in CCW order.
// It panics if vIdx is out of range.
func (t *Triangulation) IncidentTriangles(vIdx int) []int {
	if vIdx < 0 || vIdx+1 >= len(t.IncidentTriangleOffsets) {
		panic("IncidentTriangles: vIdx out of range")
	}
	start := t.IncidentTriangleOffsets[vIdx]
	end := t.IncidentTriangleOffsets[vIdx+1]
	return t.IncidentTriangleIndices[start:end]
}

// TriangleVertices returns the corners of triangle tIdx.
// It panics if tIdx is out of range.
func (t *Triangulation) TriangleVertices(tIdx int) (r3.Vector, r3.Vector, r3.Vector) {
	if tIdx < 0 || tIdx >= len(t.Triangles) {
		panic("TriangleVertices: tIdx out of range")
	}
	tri := t.Triangles[tIdx]
	return t.Vertices[tri[0]], t.Vertices[tri[1]], t.Vertices[tri[2]]
}

// VertexNeighbors returns the vertices adjacent to vIdx in CCW order.
func (t *Triangulation) VertexNeighbors(vIdx int) []int {
	it := t.IncidentTriangles(vIdx)
	out := make([]int, len(it))
	for i, tIdx := range it {
		out[i] = NextVertex(t.Triangles[tIdx], vIdx)
	}
	return out
}

// FlatPositions returns the vertices as a float32 xyz array.
func (t *Triangulation) FlatPositions() []float32 {
	out := make([]float32, 0, 3*len(t.Vertices))
	for _, v := range t.Vertices {
		out = append(out, float32(v.X), float32(v.Y), float32(v.Z))
	}
	return out
}

// FlatIndices returns the triangles as a uint32 index array.
func (t *Triangulation) FlatIndices() []uint32 {
	out := make([]uint32, 0, 3*len(t.Triangles))
	for _, tri := range t.Triangles {
		out = append(out, uint32(tri[0]), uint32(tri[1]), uint32(tri[2]))
	}
	return out
}

// Record returns an HPMESH record of the triangulation carrying f as
// elevation. A field on the same grid is used as is; any other field is
// sampled at the pixel centres.
func (t *Triangulation) Record(f *sampler.Field) (*meshcodec.Full, error) {
	var elevation []float32
	switch {
	case f == nil:
		return nil, fmt.Errorf("%w: nil field", ErrFieldMismatch)
	case f.Nside == t.Nside && f.Scheme == t.Scheme:
		if len(f.Values) != len(t.Vertices) {
			return nil, fmt.Errorf("%w: %d values for %d pixels", ErrFieldMismatch, len(f.Values), len(t.Vertices))
		}
		elevation = append([]float32(nil), f.Values...)
	default:
		elevation = f.SampleAll(t.Vertices)
	}
	return &meshcodec.Full{
		Positions: t.FlatPositions(),
		Indices:   t.FlatIndices(),
		Elevation: elevation,
	}, nil
}

type Options struct {
	Eps float64
}

type Option func(*Options) error

// WithEps sets the QuickHull plane tolerance. eps must lie in (0, 1).
func WithEps(eps float64) Option {
	return func(o *Options) error {
		if eps <= 0 || eps >= 1 {
			return fmt.Errorf("WithEps: eps %v not in (0 1)", eps)
		}
		o.Eps = eps
		return nil
	}
}

// New triangulates the pixel centres of the (nside, scheme) grid.
func New(nside int, scheme healpix.Scheme, setters ...Option) (*Triangulation, error) {
	if err := healpix.ValidateNside(nside, scheme); err != nil {
		return nil, err
	}
	npix := healpix.NumPixels(nside)
	vertices := make([]r3.Vector, npix)
	for pix := range npix {
		v, err := healpix.PixelToVector(nside, scheme, pix)
		if err != nil {
			return nil, err
		}
		vertices[pix] = v
	}
	t, err := NewFromVectors(vertices, setters...)
	if err != nil {
		return nil, err
	}
	t.Nside, t.Scheme = nside, scheme
	return t, nil
}

// NewFromVectors triangulates arbitrary distinct unit vectors. Nside of the
// result is zero.
// NOTE: All vertices must lie on a sphere.
func NewFromVectors(vertices []r3.Vector, setters ...Option) (*Triangulation, error) {
	opts := Options{
		Eps: defaultEps,
	}
	for _, set := range setters {
		if err := set(&opts); err != nil {
			return nil, err
		}
	}

	numVertices := len(vertices)
	if numVertices < 4 {
		return nil, ErrTooFewVertices
	}
	// Euler: a closed triangulated sphere has 2V-4 faces.
	numTriangles := 2 * (numVertices - 2)
	t := &Triangulation{
		Vertices:                vertices,
		Triangles:               make([][3]int, numTriangles),
		IncidentTriangleIndices: make([]int, numTriangles*3),
		IncidentTriangleOffsets: make([]int, numVertices+1),
	}

	qh := new(quickhull.QuickHull)
	ch := qh.ConvexHull(vertices, true, true, opts.Eps)
	if len(ch.Indices) != numTriangles*3 {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrHullMismatch, len(ch.Indices), numTriangles*3)
	}

	for _, idx := range ch.Indices {
		t.IncidentTriangleOffsets[idx+1]++
	}
	for i := range numVertices {
		t.IncidentTriangleOffsets[i+1] += t.IncidentTriangleOffsets[i]
	}

	nxt := make([]int, numVertices)
	copy(nxt, t.IncidentTriangleOffsets[:numVertices])
	for i := range numTriangles {
		base := i * 3
		for j := range 3 {
			v := ch.Indices[base+j]
			t.Triangles[i][j] = v
			t.IncidentTriangleIndices[nxt[v]] = i
			nxt[v]++
		}
		sortTriangleVerticesCCW(&t.Triangles[i], t.Vertices)
	}

	for i := range numVertices {
		if t.IncidentTriangleOffsets[i+1] == t.IncidentTriangleOffsets[i] {
			return nil, fmt.Errorf("%w: vertex %d is not on the hull", ErrHullMismatch, i)
		}
		sortIncidentTriangleIndicesCCW(i, t.IncidentTriangles(i), t.Triangles)
	}

	return t, nil
}

func sortTriangleVerticesCCW(t *[3]int, v []r3.Vector) {
	p0, p1, p2 := v[t[0]], v[t[1]], v[t[2]]
	norm := p1.Sub(p0).Cross(p2.Sub(p0))
	if norm.Dot(p0) < 0 {
		t[1], t[2] = t[2], t[1]
	}
}

func sortIncidentTriangleIndicesCCW(vIdx int, incidentTris []int, tris [][3]int) {
	n := len(incidentTris)
	for i := 1; i < n; i++ {
		nxt := NextVertex(tris[incidentTris[i-1]], vIdx)
		for j := i + 1; j < n; j++ {
			prv := PrevVertex(tris[incidentTris[j]], vIdx)
			if nxt == prv {
				incidentTris[i], incidentTris[j] = incidentTris[j], incidentTris[i]
				break
			}
		}
	}
}

func PrevVertex(t [3]int, vIdx int) int {
	switch vIdx {
	case t[0]:
		return t[2]
	case t[1]:
		return t[0]
	case t[2]:
		return t[1]
	}
	panic("PrevVertex: vIdx not in triangle")
}

func NextVertex(t [3]int, vIdx int) int {
	switch vIdx {
	case t[0]:
		return t[1]
	case t[1]:
		return t[2]
	case t[2]:
		return t[0]
	}
	panic("NextVertex: vIdx not in triangle")
}
