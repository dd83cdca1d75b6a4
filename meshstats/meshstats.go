// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package meshstats reports quality statistics of a mesh on the unit
// sphere: elevation distribution, geodesic edge lengths, spherical triangle
// areas, vertex degree, and sampling resolution against a spherical
// harmonic band limit.
package meshstats

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/2dChan/hpmesh"
	"github.com/2dChan/hpmesh/icosphere"
	"github.com/2dChan/hpmesh/meshcodec"
	"github.com/golang/geo/s2"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const EarthRadiusKm = 6371.0

// baseEdge is the geodesic edge length of the regular icosahedron, atan(2).
var baseEdge = math.Atan(2)

// DefaultPercentiles are the elevation percentiles reported by Analyze.
var DefaultPercentiles = []float64{0, 10, 25, 50, 75, 90, 95, 99, 100}

var (
	ErrEmptyMesh   = errors.New("meshstats: mesh has no triangles")
	ErrInvalidLmax = errors.New("meshstats: band limit must be positive")
)

// Summary describes a sample distribution.
type Summary struct {
	Min, Max     float64
	Mean, StdDev float64
	Median       float64
}

func summarize(x []float64) Summary {
	sorted := slices.Clone(x)
	slices.Sort(sorted)
	mean, std := stat.MeanStdDev(sorted, nil)
	return Summary{
		Min:    floats.Min(sorted),
		Max:    floats.Max(sorted),
		Mean:   mean,
		StdDev: std,
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
	}
}

// Percentile is the value below which P percent of the samples fall.
type Percentile struct {
	P     float64
	Value float64
}

type Stats struct {
	NumVertices  int
	NumTriangles int
	NumEdges     int

	Elevation   Summary
	Percentiles []Percentile

	// EdgeLength is over undirected edges, in radians.
	EdgeLength Summary
	// Area is over triangles, in steradians.
	Area      Summary
	TotalArea float64

	// Degree counts incident triangles per vertex.
	MinDegree, MaxDegree int
	MeanDegree           float64

	// Bytes is the ADAMESH encoding size of the mesh.
	Bytes int
}

// Coverage returns TotalArea as a fraction of the sphere.
func (s *Stats) Coverage() float64 {
	return s.TotalArea / (4 * math.Pi)
}

// Resolves reports whether the mean edge length samples a field band
// limited to degree lmax at the Nyquist rate.
func (s *Stats) Resolves(lmax int) bool {
	return lmax > 0 && s.EdgeLength.Mean <= NyquistSpacing(lmax)
}

// Analyze computes the statistics of m. Positions are projected onto the
// unit sphere before measuring.
func Analyze(m *hpmesh.Mesh) (*Stats, error) {
	if m == nil || m.NumTriangles() == 0 {
		return nil, ErrEmptyMesh
	}
	numV := m.NumVertices()
	if len(m.Elevation) != numV {
		return nil, fmt.Errorf("%w: %d samples for %d vertices", hpmesh.ErrTopologyMismatch, len(m.Elevation), numV)
	}

	points := make([]s2.Point, numV)
	for i := range numV {
		v, err := m.Vertex(i)
		if err != nil {
			return nil, err
		}
		points[i] = s2.PointFromCoords(v.Position().X, v.Position().Y, v.Position().Z)
	}

	s := &Stats{
		NumVertices:  numV,
		NumTriangles: m.NumTriangles(),
	}

	degree := make([]int, numV)
	areas := make([]float64, 0, s.NumTriangles)
	seen := make(map[[2]int]bool, 3*s.NumTriangles/2)
	var edges []float64
	for i := range s.NumTriangles {
		t, err := m.Triangle(i)
		if err != nil {
			return nil, err
		}
		for k := range 3 {
			a, b := t[k], t[(k+1)%3]
			if a >= numV || b >= numV {
				return nil, fmt.Errorf("%w: triangle %d index out of range", hpmesh.ErrTopologyMismatch, i)
			}
			degree[a]++
			key := [2]int{min(a, b), max(a, b)}
			if !seen[key] {
				seen[key] = true
				edges = append(edges, points[a].Distance(points[b]).Radians())
			}
		}
		areas = append(areas, s2.PointArea(points[t[0]], points[t[1]], points[t[2]]))
	}

	s.NumEdges = len(edges)
	s.EdgeLength = summarize(edges)
	s.Area = summarize(areas)
	s.TotalArea = floats.Sum(areas)

	s.MinDegree, s.MaxDegree = slices.Min(degree), slices.Max(degree)
	var sum int
	for _, d := range degree {
		sum += d
	}
	s.MeanDegree = float64(sum) / float64(numV)

	elevation := make([]float64, numV)
	for i, e := range m.Elevation {
		elevation[i] = float64(e)
	}
	s.Elevation = summarize(elevation)
	slices.Sort(elevation)
	for _, p := range DefaultPercentiles {
		s.Percentiles = append(s.Percentiles, Percentile{
			P:     p,
			Value: stat.Quantile(p/100, stat.Empirical, elevation, nil),
		})
	}

	s.Bytes = meshcodec.AdaptiveSize(numV, s.NumTriangles)
	return s, nil
}

// NyquistSpacing returns the sample spacing, in radians, that resolves
// spherical harmonics up to degree lmax: half of pi/lmax.
func NyquistSpacing(lmax int) float64 {
	return math.Pi / float64(lmax) / 2
}

// SubdivisionForLmax returns the shallowest icosphere depth whose nominal
// edge length, atan(2)/2^depth, is within NyquistSpacing(lmax).
func SubdivisionForLmax(lmax int) (int, error) {
	if lmax <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidLmax, lmax)
	}
	spacing := NyquistSpacing(lmax)
	for depth := 0; depth <= icosphere.MaxDepth; depth++ {
		if baseEdge/float64(int(1)<<depth) <= spacing {
			return depth, nil
		}
	}
	return 0, fmt.Errorf("%w: lmax %d needs more than %d subdivisions", icosphere.ErrDepthTooLarge, lmax, icosphere.MaxDepth)
}

// UniformBytes returns the ADAMESH size of the icosphere of the given
// depth, for comparing an adaptive mesh with uniform refinement.
func UniformBytes(depth int) int {
	return meshcodec.AdaptiveSize(icosphere.NumVertices(depth), icosphere.NumTriangles(depth))
}
