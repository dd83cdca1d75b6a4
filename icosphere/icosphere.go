// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package icosphere builds unit-sphere triangle meshes by recursive
// subdivision of a regular icosahedron.
//
// The vertex order and triangle winding are part of the on-disk contract of
// the compact mesh formats: a mesh of a given depth must be regenerated
// bit-for-bit, so the base table and the split order are fixed.
package icosphere

import (
	"errors"
	"fmt"
	"math"

	"github.com/golang/geo/r3"
)

// MaxDepth is the deepest subdivision whose index count 60*4^depth still
// fits a uint32 count field.
const MaxDepth = 13

var (
	ErrNegativeDepth = errors.New("icosphere: negative subdivision depth")
	ErrDepthTooLarge = errors.New("icosphere: subdivision depth too large")
)

// Mesh is an indexed triangle mesh on the unit sphere.
type Mesh struct {
	Vertices []r3.Vector
	// NOTE: CCW when looking at the sphere from outside.
	Triangles [][3]int
}

// NumVertices returns 10*4^depth+2, the vertex count of Build(depth), or 0
// for a negative depth.
func NumVertices(depth int) int {
	if depth < 0 {
		return 0
	}
	return 10*(1<<(2*depth)) + 2
}

// NumTriangles returns 20*4^depth, the triangle count of Build(depth), or 0
// for a negative depth.
func NumTriangles(depth int) int {
	if depth < 0 {
		return 0
	}
	return 20 * (1 << (2 * depth))
}

// CheckDepth reports whether depth can be built and indexed with 32-bit
// indices.
func CheckDepth(depth int) error {
	if depth < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeDepth, depth)
	}
	if depth > MaxDepth {
		return fmt.Errorf("%w: %d > %d", ErrDepthTooLarge, depth, MaxDepth)
	}
	return nil
}

var (
	phi = (1 + math.Sqrt(5)) / 2

	baseVertices = [12][3]float64{
		{-1, phi, 0}, {1, phi, 0}, {-1, -phi, 0}, {1, -phi, 0},
		{0, -1, phi}, {0, 1, phi}, {0, -1, -phi}, {0, 1, -phi},
		{phi, 0, -1}, {phi, 0, 1}, {-phi, 0, -1}, {-phi, 0, 1},
	}

	baseTriangles = [20][3]int{
		{0, 11, 5}, {0, 5, 1}, {0, 1, 7}, {0, 7, 10}, {0, 10, 11},
		{1, 5, 9}, {5, 11, 4}, {11, 10, 2}, {10, 7, 6}, {7, 1, 8},
		{3, 9, 4}, {3, 4, 2}, {3, 2, 6}, {3, 6, 8}, {3, 8, 9},
		{4, 9, 5}, {2, 4, 11}, {6, 2, 10}, {8, 6, 7}, {9, 8, 1},
	}
)

// Base returns the regular icosahedron: 12 golden-ratio vertices projected
// onto the unit sphere and 20 outward-wound faces.
func Base() *Mesh {
	m := &Mesh{
		Vertices:  make([]r3.Vector, len(baseVertices)),
		Triangles: make([][3]int, len(baseTriangles)),
	}
	for i, v := range baseVertices {
		m.Vertices[i] = r3.Vector{X: v[0], Y: v[1], Z: v[2]}.Normalize()
	}
	copy(m.Triangles, baseTriangles[:])
	return m
}

// Subdivide splits every triangle of m into four. Edge midpoints are
// projected onto the unit sphere and shared between the two triangles of an
// edge; new vertices are appended after the existing ones, so vertex i of m
// is vertex i of the result. m is not modified.
func Subdivide(m *Mesh) *Mesh {
	numV := len(m.Vertices)
	numT := len(m.Triangles)
	// Closed meshes have 3T/2 edges.
	out := &Mesh{
		Vertices:  make([]r3.Vector, numV, numV+numT*3/2),
		Triangles: make([][3]int, 0, numT*4),
	}
	copy(out.Vertices, m.Vertices)

	cache := newMidpointCache(numT * 3 / 2)
	for _, t := range m.Triangles {
		v1, v2, v3 := t[0], t[1], t[2]
		a := cache.midpoint(out, v1, v2)
		b := cache.midpoint(out, v2, v3)
		c := cache.midpoint(out, v3, v1)
		out.Triangles = append(out.Triangles,
			[3]int{v1, a, c},
			[3]int{v2, b, a},
			[3]int{v3, c, b},
			[3]int{a, b, c},
		)
	}
	return out
}

// Build returns the icosphere of the given depth. Two calls with the same
// depth return identical meshes.
func Build(depth int) (*Mesh, error) {
	if err := CheckDepth(depth); err != nil {
		return nil, err
	}
	m := Base()
	for range depth {
		m = Subdivide(m)
	}
	return m, nil
}

// midpointCache maps an unordered edge to its midpoint vertex for the
// duration of one Subdivide call.
type midpointCache map[edgeKey]int

type edgeKey struct{ lo, hi int }

func newMidpointCache(n int) midpointCache {
	return make(midpointCache, n)
}

func (c midpointCache) midpoint(m *Mesh, i, j int) int {
	k := edgeKey{i, j}
	if j < i {
		k = edgeKey{j, i}
	}
	if idx, ok := c[k]; ok {
		return idx
	}
	mid := m.Vertices[i].Add(m.Vertices[j]).Mul(0.5).Normalize()
	idx := len(m.Vertices)
	m.Vertices = append(m.Vertices, mid)
	c[k] = idx
	return idx
}

// TriangleVertices returns the corners of triangle tIdx.
// It panics if tIdx is out of range.
func (m *Mesh) TriangleVertices(tIdx int) (r3.Vector, r3.Vector, r3.Vector) {
	if tIdx < 0 || tIdx >= len(m.Triangles) {
		panic("TriangleVertices: tIdx out of range")
	}
	t := m.Triangles[tIdx]
	return m.Vertices[t[0]], m.Vertices[t[1]], m.Vertices[t[2]]
}

// FlatPositions returns the vertices as a float32 xyz array.
func (m *Mesh) FlatPositions() []float32 {
	out := make([]float32, 0, len(m.Vertices)*3)
	for _, v := range m.Vertices {
		out = append(out, float32(v.X), float32(v.Y), float32(v.Z))
	}
	return out
}

// FlatIndices returns the triangles as a uint32 index array.
func (m *Mesh) FlatIndices() []uint32 {
	out := make([]uint32, 0, len(m.Triangles)*3)
	for _, t := range m.Triangles {
		out = append(out, uint32(t[0]), uint32(t[1]), uint32(t[2]))
	}
	return out
}
