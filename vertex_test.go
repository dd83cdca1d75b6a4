// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package hpmesh

import (
	"math"
	"testing"

	"github.com/2dChan/hpmesh/meshcodec"
	"github.com/golang/geo/r3"
)

// Vertex

func TestMesh_Vertex(t *testing.T) {
	m := mustMaterialize(t, &meshcodec.Compact{Depth: 1, Elevation: make([]float32, 42)})
	for i := range m.NumVertices() {
		v, err := m.Vertex(i)
		if err != nil {
			t.Fatalf("m.Vertex(%d) error = %v, want nil", i, err)
		}
		if got := v.Index(); got != i {
			t.Errorf("v.Index() = %v, want %v", got, i)
		}
	}

	tests := []int{-1, m.NumVertices(), m.NumVertices() + 10}
	for _, i := range tests {
		if _, err := m.Vertex(i); err == nil {
			t.Errorf("m.Vertex(%d) error = nil, want error", i)
		}
	}
}

func TestVertex_Accessors(t *testing.T) {
	m := &Mesh{
		Positions: []float32{1, 0, 0, 0, 0, 1},
		Elevation: []float32{10, -3},
		Normals:   []float32{0, 1, 0, 0, 0, -1},
	}
	tests := []struct {
		idx           int
		wantPosition  r3.Vector
		wantElevation float32
		wantNormal    r3.Vector
	}{
		{0, r3.Vector{X: 1}, 10, r3.Vector{Y: 1}},
		{1, r3.Vector{Z: 1}, -3, r3.Vector{Z: -1}},
	}
	for _, tt := range tests {
		v := mustVertex(t, m, tt.idx)
		if got := v.Position(); got != tt.wantPosition {
			t.Errorf("v.Position() = %v, want %v", got, tt.wantPosition)
		}
		if got := v.Elevation(); got != tt.wantElevation {
			t.Errorf("v.Elevation() = %v, want %v", got, tt.wantElevation)
		}
		if got := v.Normal(); got != tt.wantNormal {
			t.Errorf("v.Normal() = %v, want %v", got, tt.wantNormal)
		}
	}
}

func TestVertex_LatLng(t *testing.T) {
	m := &Mesh{
		Positions: []float32{1, 0, 0, 0, 1, 0, 0, 0, 1, 0, 0, -1},
		Elevation: make([]float32, 4),
	}
	tests := []struct {
		idx              int
		wantLat, wantLng float64
	}{
		{0, 0, 0},
		{1, 0, 90},
		{2, 90, 0},
		{3, -90, 0},
	}
	for _, tt := range tests {
		ll := mustVertex(t, m, tt.idx).LatLng()
		if got := ll.Lat.Degrees(); math.Abs(got-tt.wantLat) > 1e-9 {
			t.Errorf("vertex %d: Lat = %v, want %v", tt.idx, got, tt.wantLat)
		}
		if got := ll.Lng.Degrees(); math.Abs(got-tt.wantLng) > 1e-9 {
			t.Errorf("vertex %d: Lng = %v, want %v", tt.idx, got, tt.wantLng)
		}
	}
}
