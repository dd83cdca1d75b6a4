// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package healpix

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
)

// AngleToVector returns the unit vector for colatitude theta and longitude
// phi, with theta measured from +z.
func AngleToVector(theta, phi float64) r3.Vector {
	st := math.Sin(theta)
	return r3.Vector{
		X: st * math.Cos(phi),
		Y: st * math.Sin(phi),
		Z: math.Cos(theta),
	}
}

// VectorToAngle returns the colatitude and longitude of v. v need not be
// normalized; phi is wrapped into [0, 2pi). The zero vector maps to (0, 0).
func VectorToAngle(v r3.Vector) (theta, phi float64) {
	rho := math.Hypot(v.X, v.Y)
	theta = math.Atan2(rho, v.Z)
	if rho == 0 {
		return theta, 0
	}
	phi = math.Atan2(v.Y, v.X)
	if phi < 0 {
		phi += twoPi
	}
	if phi >= twoPi {
		phi = 0
	}
	return theta, phi
}

// PixelToVector returns the unit vector through the centre of pixel pix.
func PixelToVector(nside int, scheme Scheme, pix int) (r3.Vector, error) {
	theta, phi, err := PixelToAngle(nside, scheme, pix)
	if err != nil {
		return r3.Vector{}, err
	}
	return AngleToVector(theta, phi), nil
}

// VectorToPixel returns the pixel containing direction v.
func VectorToPixel(nside int, scheme Scheme, v r3.Vector) (int, error) {
	if err := ValidateNside(nside, scheme); err != nil {
		return 0, err
	}
	if isInfOrNaN(v.X) || isInfOrNaN(v.Y) || isInfOrNaN(v.Z) || v.Norm2() == 0 {
		return 0, fmt.Errorf("%w: direction %v", ErrInvalidAngle, v)
	}
	pix := locToRing(nside, locFromVector(v.X, v.Y, v.Z))
	if scheme == Nested {
		pix = ring2nest(nside, pix)
	}
	return pix, nil
}
