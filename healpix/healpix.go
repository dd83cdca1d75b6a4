// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package healpix maps between HEALPix pixel indices, spherical angles and
// unit vectors for the RING and NESTED pixelization schemes.
//
// Colatitude theta is measured from the +z axis and lies in [0, pi];
// longitude phi lies in [0, 2pi). Which Cartesian axis is "up" for a
// renderer is the caller's business.
package healpix

import (
	"errors"
	"fmt"
	"math/bits"
)

// MaxNside is the largest supported resolution parameter (order 29).
const MaxNside = 1 << 29

var (
	ErrOutOfRange   = errors.New("healpix: pixel index out of range")
	ErrInvalidNside = errors.New("healpix: invalid nside")
	ErrInvalidAngle = errors.New("healpix: invalid angle")
)

// Scheme selects the pixel numbering of a HEALPix map.
type Scheme int

const (
	// Ring numbers pixels along iso-latitude rings from north to south.
	Ring Scheme = iota
	// Nested numbers pixels along the quad-tree of the 12 base faces.
	Nested
)

func (s Scheme) String() string {
	switch s {
	case Ring:
		return "RING"
	case Nested:
		return "NESTED"
	}
	return fmt.Sprintf("Scheme(%d)", int(s))
}

// NumPixels returns 12*nside^2.
func NumPixels(nside int) int {
	return 12 * nside * nside
}

// NsideFromLength infers nside from the length of a flat map using the
// convention nside = sqrt(n/12). It fails when n is not 12*nside^2.
func NsideFromLength(n int) (int, error) {
	if n <= 0 || n%12 != 0 {
		return 0, fmt.Errorf("%w: length %d is not 12*nside^2", ErrInvalidNside, n)
	}
	nside := isqrt(n / 12)
	if 12*nside*nside != n {
		return 0, fmt.Errorf("%w: length %d is not 12*nside^2", ErrInvalidNside, n)
	}
	return nside, nil
}

// ValidateNside checks that nside is usable with the given scheme. NESTED
// numbering additionally requires nside to be a power of two.
func ValidateNside(nside int, scheme Scheme) error {
	if nside < 1 || nside > MaxNside {
		return fmt.Errorf("%w: %d not in [1 %d]", ErrInvalidNside, nside, MaxNside)
	}
	switch scheme {
	case Ring:
		return nil
	case Nested:
		if nside&(nside-1) != 0 {
			return fmt.Errorf("%w: %d is not a power of two", ErrInvalidNside, nside)
		}
		return nil
	}
	return fmt.Errorf("healpix: unknown scheme %v", scheme)
}

func checkPixel(nside, pix int) error {
	if npix := NumPixels(nside); pix < 0 || pix >= npix {
		return fmt.Errorf("%w: %d not in [0 %d)", ErrOutOfRange, pix, npix)
	}
	return nil
}

// PixelToAngle returns the colatitude and longitude of the centre of pixel
// pix.
func PixelToAngle(nside int, scheme Scheme, pix int) (theta, phi float64, err error) {
	if err := ValidateNside(nside, scheme); err != nil {
		return 0, 0, err
	}
	if err := checkPixel(nside, pix); err != nil {
		return 0, 0, err
	}
	if scheme == Nested {
		pix = nest2ring(nside, pix)
	}
	theta, phi = ring2ang(nside, pix)
	return theta, phi, nil
}

// AngleToPixel returns the pixel containing the direction (theta, phi).
func AngleToPixel(nside int, scheme Scheme, theta, phi float64) (int, error) {
	if err := ValidateNside(nside, scheme); err != nil {
		return 0, err
	}
	// NaN fails both comparisons.
	if !(theta >= 0 && theta <= piF) {
		return 0, fmt.Errorf("%w: theta %v not in [0 pi]", ErrInvalidAngle, theta)
	}
	if isInfOrNaN(phi) {
		return 0, fmt.Errorf("%w: phi %v", ErrInvalidAngle, phi)
	}
	pix := locToRing(nside, locFromAngle(theta, phi))
	if scheme == Nested {
		pix = ring2nest(nside, pix)
	}
	return pix, nil
}

// NestToRing converts a NESTED pixel index to its RING equivalent.
func NestToRing(nside, pix int) (int, error) {
	if err := ValidateNside(nside, Nested); err != nil {
		return 0, err
	}
	if err := checkPixel(nside, pix); err != nil {
		return 0, err
	}
	return nest2ring(nside, pix), nil
}

// RingToNest converts a RING pixel index to its NESTED equivalent.
func RingToNest(nside, pix int) (int, error) {
	if err := ValidateNside(nside, Nested); err != nil {
		return 0, err
	}
	if err := checkPixel(nside, pix); err != nil {
		return 0, err
	}
	return ring2nest(nside, pix), nil
}

func order(nside int) int {
	return bits.TrailingZeros(uint(nside))
}

func isqrt(v int) int {
	r := int(sqrtF(float64(v) + 0.5))
	for r*r > v {
		r--
	}
	for (r+1)*(r+1) <= v {
		r++
	}
	return r
}
