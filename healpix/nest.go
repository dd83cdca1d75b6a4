// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package healpix

import "fmt"

var (
	// Base face row (in units of nside) and longitude offset.
	jrll = [12]int{2, 2, 2, 2, 3, 3, 3, 3, 4, 4, 4, 4}
	jpll = [12]int{1, 3, 5, 7, 0, 2, 4, 6, 1, 3, 5, 7}

	// Neighbour offsets in the order SW, W, NW, N, NE, E, SE, S.
	xoffset = [8]int{-1, -1, 0, 1, 1, 1, 0, -1}
	yoffset = [8]int{0, 1, 1, 1, 0, -1, -1, -1}

	// facearray[nbnum][face] is the face reached when leaving face across
	// the edge or corner nbnum (3*dy+dx+4); -1 means no such face.
	facearray = [9][12]int{
		{8, 9, 10, 11, -1, -1, -1, -1, 10, 11, 8, 9}, // S
		{5, 6, 7, 4, 8, 9, 10, 11, 9, 10, 11, 8},     // SE
		{-1, -1, -1, -1, 5, 6, 7, 4, -1, -1, -1, -1}, // E
		{4, 5, 6, 7, 11, 8, 9, 10, 11, 8, 9, 10},     // SW
		{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11},       // center
		{1, 2, 3, 0, 0, 1, 2, 3, 5, 6, 7, 4},         // NE
		{-1, -1, -1, -1, 7, 4, 5, 6, -1, -1, -1, -1}, // W
		{3, 0, 1, 2, 3, 0, 1, 2, 4, 5, 6, 7},         // NW
		{2, 3, 0, 1, -1, -1, -1, -1, 0, 1, 2, 3},     // N
	}
	// swaparray[nbnum][face>>2]: bit 0 flips x, bit 1 flips y, bit 2 swaps.
	swaparray = [9][3]int{
		{0, 0, 3}, {0, 0, 6}, {0, 0, 0},
		{0, 0, 5}, {0, 0, 0}, {5, 0, 0},
		{0, 0, 0}, {6, 0, 0}, {3, 0, 0},
	}
)

// Neighbors returns the NESTED indices of the pixels surrounding pix in the
// order SW, W, NW, N, NE, E, SE, S. Where a base-face corner has only seven
// neighbours the missing direction is left out of the result.
func Neighbors(nside, pix int) ([]int, error) {
	if err := ValidateNside(nside, Nested); err != nil {
		return nil, err
	}
	if err := checkPixel(nside, pix); err != nil {
		return nil, err
	}

	ix, iy, face := nest2xyf(nside, pix)
	out := make([]int, 0, 8)

	if ix > 0 && ix < nside-1 && iy > 0 && iy < nside-1 {
		for m := range 8 {
			out = append(out, xyf2nest(nside, ix+xoffset[m], iy+yoffset[m], face))
		}
		return out, nil
	}

	for m := range 8 {
		x, y := ix+xoffset[m], iy+yoffset[m]
		nbnum := 4
		if x < 0 {
			x += nside
			nbnum--
		} else if x >= nside {
			x -= nside
			nbnum++
		}
		if y < 0 {
			y += nside
			nbnum -= 3
		} else if y >= nside {
			y -= nside
			nbnum += 3
		}

		f := facearray[nbnum][face]
		if f < 0 {
			continue
		}
		b := swaparray[nbnum][face>>2]
		if b&1 != 0 {
			x = nside - x - 1
		}
		if b&2 != 0 {
			y = nside - y - 1
		}
		if b&4 != 0 {
			x, y = y, x
		}
		out = append(out, xyf2nest(nside, x, y, f))
	}
	return out, nil
}

func nest2ring(nside, pix int) int {
	ix, iy, face := nest2xyf(nside, pix)
	return xyf2ring(nside, ix, iy, face)
}

func ring2nest(nside, pix int) int {
	ix, iy, face := ring2xyf(nside, pix)
	return xyf2nest(nside, ix, iy, face)
}

func nest2xyf(nside, pix int) (ix, iy, face int) {
	o := order(nside)
	face = pix >> (2 * o)
	p := uint64(pix & (nside*nside - 1))
	return int(compressBits(p)), int(compressBits(p >> 1)), face
}

func xyf2nest(nside, ix, iy, face int) int {
	return face<<(2*order(nside)) + int(spreadBits(uint64(ix))) + int(spreadBits(uint64(iy))<<1)
}

func xyf2ring(nside, ix, iy, face int) int {
	nl4 := 4 * nside
	npix := NumPixels(nside)
	ncap := 2 * nside * (nside - 1)
	jr := jrll[face]*nside - ix - iy - 1

	var nr, kshift, nBefore int
	switch {
	case jr < nside:
		nr = jr
		nBefore = 2 * nr * (nr - 1)
	case jr > 3*nside:
		nr = nl4 - jr
		nBefore = npix - 2*(nr+1)*nr
	default:
		nr = nside
		nBefore = ncap + (jr-nside)*nl4
		kshift = (jr - nside) & 1
	}

	jp := (jpll[face]*nr + ix - iy + 1 + kshift) / 2
	if jp > nl4 {
		jp -= nl4
	} else if jp < 1 {
		jp += nl4
	}
	return nBefore + jp - 1
}

func ring2xyf(nside, pix int) (ix, iy, face int) {
	nl2 := 2 * nside
	npix := NumPixels(nside)
	ncap := 2 * nside * (nside - 1)

	var iring, iphi, kshift, nr int
	switch {
	case pix < ncap:
		iring = (1 + isqrt(1+2*pix)) >> 1
		iphi = pix + 1 - 2*iring*(iring-1)
		nr = iring
		face = (iphi - 1) / nr
	case pix < npix-ncap:
		ip := pix - ncap
		tmp := ip / (4 * nside)
		iring = tmp + nside
		iphi = ip - tmp*4*nside + 1
		kshift = (iring + nside) & 1
		nr = nside
		ire := tmp + 1
		irm := nl2 + 1 - tmp
		ifm := (iphi - ire>>1 + nside - 1) / nside
		ifp := (iphi - irm>>1 + nside - 1) / nside
		switch {
		case ifp == ifm:
			face = ifp | 4
		case ifp < ifm:
			face = ifp
		default:
			face = ifm + 8
		}
	default:
		ip := npix - pix
		iring = (1 + isqrt(2*ip-1)) >> 1
		iphi = 4*iring + 1 - (ip - 2*iring*(iring-1))
		nr = iring
		iring = 2*nl2 - iring
		face = (iphi-1)/nr + 8
	}

	irt := iring - jrll[face]*nside + 1
	ipt := 2*iphi - jpll[face]*nr - kshift - 1
	if ipt >= nl2 {
		ipt -= 8 * nside
	}
	return (ipt - irt) >> 1, (-ipt - irt) >> 1, face
}

func spreadBits(v uint64) uint64 {
	v &= 0xffffffff
	v = (v | v<<16) & 0x0000ffff0000ffff
	v = (v | v<<8) & 0x00ff00ff00ff00ff
	v = (v | v<<4) & 0x0f0f0f0f0f0f0f0f
	v = (v | v<<2) & 0x3333333333333333
	v = (v | v<<1) & 0x5555555555555555
	return v
}

func compressBits(v uint64) uint64 {
	v &= 0x5555555555555555
	v = (v | v>>1) & 0x3333333333333333
	v = (v | v>>2) & 0x0f0f0f0f0f0f0f0f
	v = (v | v>>4) & 0x00ff00ff00ff00ff
	v = (v | v>>8) & 0x0000ffff0000ffff
	v = (v | v>>16) & 0xffffffff
	return v
}

// Face returns the base face (0..11) that contains NESTED pixel pix.
func Face(nside, pix int) (int, error) {
	if err := ValidateNside(nside, Nested); err != nil {
		return 0, err
	}
	if err := checkPixel(nside, pix); err != nil {
		return 0, fmt.Errorf("Face: %w", err)
	}
	return pix >> (2 * order(nside)), nil
}
