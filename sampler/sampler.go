// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package sampler resamples HEALPix scalar fields onto arbitrary directions
// by nearest-pixel lookup.
package sampler

import (
	"errors"
	"fmt"
	"math"

	"github.com/2dChan/hpmesh/healpix"
	"github.com/golang/geo/r3"
)

// DefaultValue is returned by Sample when a direction does not resolve to a
// pixel of the field.
const DefaultValue float32 = 0

var (
	ErrLengthMismatch = errors.New("sampler: field length is not 12*nside^2")
	ErrInvalidTarget  = errors.New("sampler: invalid downsample target")
)

// Field is a flat HEALPix map. Values has 12*Nside^2 entries ordered by
// Scheme.
type Field struct {
	Values []float32
	Nside  int
	Scheme healpix.Scheme
}

// NewField wraps values as a field of the given resolution. values is not
// copied.
func NewField(values []float32, nside int, scheme healpix.Scheme) (*Field, error) {
	if err := healpix.ValidateNside(nside, scheme); err != nil {
		return nil, err
	}
	if n := healpix.NumPixels(nside); len(values) != n {
		return nil, fmt.Errorf("%w: got %d values, nside %d needs %d", ErrLengthMismatch, len(values), nside, n)
	}
	return &Field{Values: values, Nside: nside, Scheme: scheme}, nil
}

// FieldFromValues wraps values using the nside = sqrt(len/12) convention.
func FieldFromValues(values []float32, scheme healpix.Scheme) (*Field, error) {
	nside, err := healpix.NsideFromLength(len(values))
	if err != nil {
		return nil, err
	}
	return NewField(values, nside, scheme)
}

// NumPixels returns the number of samples in f.
func (f *Field) NumPixels() int {
	return len(f.Values)
}

// Sample returns the value of the pixel containing dir. dir need not be
// normalized. A zero, NaN or infinite direction, or a pixel beyond the end
// of Values, yields DefaultValue.
func (f *Field) Sample(dir r3.Vector) float32 {
	pix, err := healpix.VectorToPixel(f.Nside, f.Scheme, dir)
	if err != nil || pix < 0 || pix >= len(f.Values) {
		return DefaultValue
	}
	return f.Values[pix]
}

// SampleAll samples f at every vertex.
func (f *Field) SampleAll(vertices []r3.Vector) []float32 {
	out := make([]float32, len(vertices))
	for i, v := range vertices {
		out[i] = f.Sample(v)
	}
	return out
}

// Downsample returns f averaged onto a coarser grid of the same scheme.
// Every coarse pixel is the mean of the (f.Nside/nside)^2 fine pixels it
// contains, so the map mean is preserved. Both resolutions must be powers of
// two with nside <= f.Nside.
func (f *Field) Downsample(nside int) (*Field, error) {
	if err := healpix.ValidateNside(f.Nside, healpix.Nested); err != nil {
		return nil, fmt.Errorf("%w: source %w", ErrInvalidTarget, err)
	}
	if err := healpix.ValidateNside(nside, healpix.Nested); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTarget, err)
	}
	if nside > f.Nside {
		return nil, fmt.Errorf("%w: nside %d > source nside %d", ErrInvalidTarget, nside, f.Nside)
	}
	if len(f.Values) != healpix.NumPixels(f.Nside) {
		return nil, fmt.Errorf("%w: got %d values, nside %d", ErrLengthMismatch, len(f.Values), f.Nside)
	}

	k := f.Nside / nside
	children := k * k
	npix := healpix.NumPixels(nside)
	out := make([]float32, npix)
	for p := range npix {
		// In NESTED order the children of p are contiguous.
		coarse := p
		if f.Scheme == healpix.Ring {
			coarse = mustConvert(healpix.RingToNest(nside, p))
		}
		var sum float64
		for c := coarse * children; c < (coarse+1)*children; c++ {
			fine := c
			if f.Scheme == healpix.Ring {
				fine = mustConvert(healpix.NestToRing(f.Nside, c))
			}
			sum += float64(f.Values[fine])
		}
		out[p] = float32(sum / float64(children))
	}
	return &Field{Values: out, Nside: nside, Scheme: f.Scheme}, nil
}

// Spacing returns the mean pixel spacing of f in radians, the square root
// of the pixel area.
func (f *Field) Spacing() float64 {
	return math.Sqrt(4 * math.Pi / float64(healpix.NumPixels(f.Nside)))
}

// Gradient estimates the derivatives of f at dir along the northward and
// eastward great circles, in value units per degree of arc, by central
// differences over step radians. At the poles east is +y.
func (f *Field) Gradient(dir r3.Vector, step float64) (dLat, dLon float32) {
	r := dir.Normalize()
	east, north := tangents(r)
	span := 2 * step * 180 / math.Pi
	along := func(t r3.Vector, s float64) float32 {
		return f.Sample(r.Mul(math.Cos(s)).Add(t.Mul(math.Sin(s))))
	}
	dLat = float32(float64(along(north, step)-along(north, -step)) / span)
	dLon = float32(float64(along(east, step)-along(east, -step)) / span)
	return dLat, dLon
}

// GradientAll estimates the gradient at every vertex with a step of one
// pixel spacing.
func (f *Field) GradientAll(vertices []r3.Vector) (dLat, dLon []float32) {
	step := f.Spacing()
	dLat = make([]float32, len(vertices))
	dLon = make([]float32, len(vertices))
	for i, v := range vertices {
		dLat[i], dLon[i] = f.Gradient(v, step)
	}
	return dLat, dLon
}

func tangents(r r3.Vector) (east, north r3.Vector) {
	rho := math.Hypot(r.X, r.Y)
	if rho < 1e-12 {
		return r3.Vector{Y: 1}, r3.Vector{X: -r.Z}
	}
	cosLon, sinLon := r.X/rho, r.Y/rho
	east = r3.Vector{X: -sinLon, Y: cosLon}
	north = r3.Vector{X: -r.Z * cosLon, Y: -r.Z * sinLon, Z: rho}
	return east, north
}

func mustConvert(pix int, err error) int {
	if err != nil {
		panic(err)
	}
	return pix
}
