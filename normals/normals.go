// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package normals computes per-vertex shading normals for sphere meshes.
package normals

import (
	"errors"
	"fmt"
	"math"

	"github.com/chewxy/math32"
)

// EarthRadius is the mean Earth radius in metres.
const EarthRadius = 6371000

// DegreeScale converts gradients in metres per degree into the unit-sphere
// slopes FromGradient expects, at true vertical scale.
const DegreeScale = 180 / math.Pi / EarthRadius

// poleEps is the distance from the polar axis below which the local east
// direction is taken to be +y.
const poleEps = 1e-12

var (
	ErrLengthMismatch = errors.New("normals: attribute length mismatch")
	ErrIndexRange     = errors.New("normals: index out of range")
)

// FaceAccumulated returns unit vertex normals averaged from the faces around
// each vertex. Face normals are the raw edge cross products, so larger
// triangles weigh more. A vertex no face references, or whose faces cancel,
// keeps a zero normal.
func FaceAccumulated(positions []float32, indices []uint32) ([]float32, error) {
	if len(positions)%3 != 0 {
		return nil, fmt.Errorf("%w: %d position components", ErrLengthMismatch, len(positions))
	}
	if len(indices)%3 != 0 {
		return nil, fmt.Errorf("%w: %d indices", ErrLengthMismatch, len(indices))
	}
	numV := uint32(len(positions) / 3)
	acc := make([]float32, len(positions))
	for t := 0; t < len(indices); t += 3 {
		a, b, c := indices[t], indices[t+1], indices[t+2]
		if a >= numV || b >= numV || c >= numV {
			return nil, fmt.Errorf("%w: triangle %d = (%d %d %d), %d vertices", ErrIndexRange, t/3, a, b, c, numV)
		}
		pa, pb, pc := vec(positions, a), vec(positions, b), vec(positions, c)
		n := pb.sub(pa).cross(pc.sub(pa))
		for _, i := range [3]uint32{a, b, c} {
			acc[3*i] += n.x
			acc[3*i+1] += n.y
			acc[3*i+2] += n.z
		}
	}
	for i := 0; i < len(acc); i += 3 {
		v := vec3{acc[i], acc[i+1], acc[i+2]}.normalize()
		acc[i], acc[i+1], acc[i+2] = v.x, v.y, v.z
	}
	return acc, nil
}

// FromGradient returns unit normals of the surface r*(1+scale*h) given the
// partial derivatives of h with respect to latitude and longitude at each
// vertex. The meridian and parallel tangents are tilted radially by
// scale*dLat and scale*dLon before being crossed. Normals always point away
// from the origin.
func FromGradient(positions, dLat, dLon []float32, scale float32) ([]float32, error) {
	if len(positions)%3 != 0 {
		return nil, fmt.Errorf("%w: %d position components", ErrLengthMismatch, len(positions))
	}
	numV := len(positions) / 3
	if len(dLat) != numV || len(dLon) != numV {
		return nil, fmt.Errorf("%w: %d vertices, %d d/dlat, %d d/dlon", ErrLengthMismatch, numV, len(dLat), len(dLon))
	}

	out := make([]float32, len(positions))
	for i := range numV {
		r := vec(positions, uint32(i)).normalize()
		east, north := tangents(r)
		tLon := east.add(r.mul(scale * dLon[i]))
		tLat := north.add(r.mul(scale * dLat[i]))
		n := tLon.cross(tLat).normalize()
		if n.dot(r) < 0 {
			n = n.mul(-1)
		}
		out[3*i], out[3*i+1], out[3*i+2] = n.x, n.y, n.z
	}
	return out, nil
}

// tangents returns the unit east and north directions at unit vector r.
func tangents(r vec3) (east, north vec3) {
	rho := math32.Hypot(r.x, r.y)
	if rho < poleEps {
		// Longitude 0 at the poles.
		return vec3{0, 1, 0}, vec3{-r.z, 0, 0}
	}
	cosLon, sinLon := r.x/rho, r.y/rho
	east = vec3{-sinLon, cosLon, 0}
	north = vec3{-r.z * cosLon, -r.z * sinLon, rho}
	return east, north
}

type vec3 struct{ x, y, z float32 }

func vec(p []float32, i uint32) vec3 {
	return vec3{p[3*i], p[3*i+1], p[3*i+2]}
}

func (a vec3) add(b vec3) vec3 { return vec3{a.x + b.x, a.y + b.y, a.z + b.z} }
func (a vec3) sub(b vec3) vec3 { return vec3{a.x - b.x, a.y - b.y, a.z - b.z} }
func (a vec3) mul(s float32) vec3 { return vec3{a.x * s, a.y * s, a.z * s} }
func (a vec3) dot(b vec3) float32 { return a.x*b.x + a.y*b.y + a.z*b.z }
func (a vec3) cross(b vec3) vec3 {
	return vec3{a.y*b.z - a.z*b.y, a.z*b.x - a.x*b.z, a.x*b.y - a.y*b.x}
}

// normalize returns a scaled to unit length, or the zero vector for a zero
// input.
func (a vec3) normalize() vec3 {
	n := math32.Sqrt(a.dot(a))
	if n == 0 {
		return vec3{}
	}
	return a.mul(1 / n)
}
