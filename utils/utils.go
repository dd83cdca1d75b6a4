// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package utils provides deterministic random sphere points, meshes and
// HEALPix fields for tests, benchmarks and examples.

package utils

import (
	"math"
	"math/rand"

	"github.com/2dChan/hpmesh/healpix"
	"github.com/golang/geo/r3"
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

// GenerateRandomPoints generates a vector of random points on the S2 sphere.
// The seed parameter ensures reproducibility.
func GenerateRandomPoints(cnt int, seed int64) s2.PointVector {
	//nolint:gosec
	random := rand.New(rand.NewSource(seed))
	sites := make(s2.PointVector, cnt)

	for i := range cnt {
		sites[i] = s2.PointFromLatLng(s2.LatLng{
			Lat: s1.Angle((random.Float64() - 0.5) * math.Pi),
			Lng: s1.Angle((random.Float64()*2 - 1) * math.Pi),
		})
	}

	return sites
}

// GenerateRandomVectors is GenerateRandomPoints as plain unit vectors.
func GenerateRandomVectors(cnt int, seed int64) []r3.Vector {
	points := GenerateRandomPoints(cnt, seed)
	out := make([]r3.Vector, len(points))
	for i, p := range points {
		out[i] = p.Vector
	}
	return out
}

// RandomMesh is an indexed triangle soup with per-vertex elevation, laid out
// the way the mesh formats store it.
type RandomMesh struct {
	Positions []float32
	Indices   []uint32
	Elevation []float32
}

// GenerateRandomMesh returns numV random unit vertices and numT triangles
// of three distinct vertices each. Triangles are not wound consistently and
// may overlap. numV must be at least 3 when numT > 0.
func GenerateRandomMesh(numV, numT int, seed int64) RandomMesh {
	//nolint:gosec
	random := rand.New(rand.NewSource(seed))
	m := RandomMesh{
		Positions: make([]float32, 0, 3*numV),
		Indices:   make([]uint32, 0, 3*numT),
		Elevation: make([]float32, numV),
	}
	for _, v := range GenerateRandomVectors(numV, seed) {
		m.Positions = append(m.Positions, float32(v.X), float32(v.Y), float32(v.Z))
	}
	for i := range m.Elevation {
		m.Elevation[i] = float32(random.Float64()*16000 - 8000)
	}
	for range numT {
		perm := random.Perm(numV)[:3]
		m.Indices = append(m.Indices, uint32(perm[0]), uint32(perm[1]), uint32(perm[2]))
	}
	return m
}

// GenerateRandomField returns a HEALPix map of uniform noise in
// [-amplitude, amplitude).
func GenerateRandomField(nside int, amplitude float64, seed int64) []float32 {
	//nolint:gosec
	random := rand.New(rand.NewSource(seed))
	out := make([]float32, healpix.NumPixels(nside))
	for i := range out {
		out[i] = float32((random.Float64()*2 - 1) * amplitude)
	}
	return out
}

// FieldFromFunc evaluates f at every pixel centre of a HEALPix map.
func FieldFromFunc(nside int, scheme healpix.Scheme, f func(r3.Vector) float32) ([]float32, error) {
	out := make([]float32, healpix.NumPixels(nside))
	for pix := range out {
		v, err := healpix.PixelToVector(nside, scheme, pix)
		if err != nil {
			return nil, err
		}
		out[pix] = f(v)
	}
	return out, nil
}

// Terrain is a smooth synthetic elevation model in metres with one
// continent-sized bump and a band of ridges, for examples and tests.
func Terrain(v r3.Vector) float32 {
	continent := 4000 * math.Exp(-8*v.Sub(r3.Vector{X: 0.6, Y: 0.6, Z: 0.5}.Normalize()).Norm2())
	ridges := 1500 * math.Sin(5*v.X) * math.Cos(4*v.Y)
	return float32(continent + ridges - 2000*v.Z*v.Z)
}
