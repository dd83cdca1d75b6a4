// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package hpmesh

import (
	"github.com/golang/geo/r3"
	"github.com/golang/geo/s2"
)

// Vertex is a view structure for accessing one vertex of a Mesh.
type Vertex struct {
	idx int
	m   *Mesh
}

// Index returns the vertex index in the Mesh.
func (v Vertex) Index() int {
	return v.idx
}

// Position returns the vertex position.
func (v Vertex) Position() r3.Vector {
	return vector(v.m.Positions, v.idx)
}

// Elevation returns the elevation sample of the vertex.
func (v Vertex) Elevation() float32 {
	return v.m.Elevation[v.idx]
}

// Normal returns the shading normal, or the zero vector when the Mesh has no
// normals.
func (v Vertex) Normal() r3.Vector {
	if v.m.Normals == nil {
		return r3.Vector{}
	}
	return vector(v.m.Normals, v.idx)
}

// LatLng returns the geographic position of the vertex, with +z as north.
func (v Vertex) LatLng() s2.LatLng {
	return s2.LatLngFromPoint(s2.Point{Vector: v.Position()})
}

func vector(a []float32, i int) r3.Vector {
	return r3.Vector{X: float64(a[3*i]), Y: float64(a[3*i+1]), Z: float64(a[3*i+2])}
}
