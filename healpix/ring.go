// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package healpix

import "math"

const (
	piF     = math.Pi
	halfPi  = math.Pi / 2
	twoPi   = 2 * math.Pi
	twoThrd = 2.0 / 3.0
)

var (
	sqrtF = math.Sqrt
	sqrt6 = math.Sqrt(6)
)

func isInfOrNaN(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}

// loc is a direction prepared for pixel lookup. capTmp holds
// sqrt(3*(1-|z|)) computed without cancellation near the poles.
type loc struct {
	z, phi float64
	capTmp float64
}

func locFromAngle(theta, phi float64) loc {
	z := math.Cos(theta)
	var tmp float64
	if z >= 0 {
		tmp = sqrt6 * math.Sin(theta/2)
	} else {
		tmp = sqrt6 * math.Cos(theta/2)
	}
	return loc{z: z, phi: phi, capTmp: tmp}
}

func locFromVector(x, y, z float64) loc {
	n := math.Sqrt(x*x + y*y + z*z)
	x, y, z = x/n, y/n, z/n
	// 1-|z| = (x^2+y^2)/(1+|z|)
	tmp := math.Sqrt(3 * (x*x + y*y) / (1 + math.Abs(z)))
	return loc{z: z, phi: math.Atan2(y, x), capTmp: tmp}
}

// locToRing implements the RING ang2pix for the three latitude regimes.
func locToRing(nside int, l loc) int {
	ncap := 2 * nside * (nside - 1)
	npix := NumPixels(nside)
	za := math.Abs(l.z)

	tt := math.Mod(l.phi/halfPi, 4)
	if tt < 0 {
		tt += 4
	}

	ns := float64(nside)
	if za <= twoThrd {
		// Equatorial belt: rings are straight lines in (z, tt).
		temp1 := ns * (0.5 + tt)
		temp2 := ns * l.z * 0.75
		jp := int(temp1 - temp2)
		jm := int(temp1 + temp2)
		ir := nside + 1 + jp - jm
		kshift := 1 - (ir & 1)
		ip := (jp + jm - nside + kshift + 1) / 2
		ip = imod(ip, 4*nside)
		return ncap + (ir-1)*4*nside + ip
	}

	// Polar caps: rings follow the quadratic relation in sqrt(1-|z|).
	tp := tt - math.Floor(tt)
	tmp := ns * l.capTmp
	jp := int(tp * tmp)
	jm := int((1 - tp) * tmp)
	ir := jp + jm + 1
	ip := imod(int(tt*float64(ir)), 4*ir)
	if l.z > 0 {
		return 2*ir*(ir-1) + ip
	}
	pix := npix - 2*ir*(ir+1) + ip
	return pix
}

// ring2ang returns the centre of RING pixel pix.
func ring2ang(nside, pix int) (theta, phi float64) {
	ncap := 2 * nside * (nside - 1)
	npix := NumPixels(nside)
	ns := float64(nside)

	switch {
	case pix < ncap:
		iring := (1 + isqrt(1+2*pix)) >> 1
		iphi := pix + 1 - 2*iring*(iring-1)
		theta = 2 * math.Asin(float64(iring)/(sqrt6*ns))
		phi = (float64(iphi) - 0.5) * halfPi / float64(iring)
	case pix < npix-ncap:
		ip := pix - ncap
		tmp := ip / (4 * nside)
		iring := tmp + nside
		iphi := ip - tmp*4*nside + 1
		fodd := 0.5
		if (iring+nside)&1 == 1 {
			fodd = 1
		}
		z := float64(2*nside-iring) * 2 / (3 * ns)
		theta = math.Acos(z)
		phi = (float64(iphi) - fodd) * piF / (2 * ns)
	default:
		ip := npix - pix
		iring := (1 + isqrt(2*ip-1)) >> 1
		iphi := 4*iring + 1 - (ip - 2*iring*(iring-1))
		theta = piF - 2*math.Asin(float64(iring)/(sqrt6*ns))
		phi = (float64(iphi) - 0.5) * halfPi / float64(iring)
	}
	return theta, phi
}

func imod(a, m int) int {
	r := a % m
	if r < 0 {
		r += m
	}
	return r
}
