// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package meshcodec

import (
	"fmt"
	"math"
)

// contourHeaderSize is tag and level count.
const contourHeaderSize = 7 + 2

// LonLat is a polygon vertex in degrees.
type LonLat struct {
	Lon, Lat float32
}

// Polygon is a closed ring of vertices; the last vertex connects back to the
// first and is not repeated.
type Polygon []LonLat

// Level holds the polygons traced at one elevation.
type Level struct {
	Elevation float32
	Polygons  []Polygon
}

// ContourSet is a CONTOUR record.
type ContourSet struct {
	Levels []Level
}

func (*ContourSet) Variant() Variant { return VariantContour }
func (*ContourSet) sealed()          {}

func (s *ContourSet) Size() int {
	n := contourHeaderSize
	for _, l := range s.Levels {
		n += 4 + 4
		for _, p := range l.Polygons {
			n += 4 + 8*len(p)
		}
	}
	return n
}

// NumPolygons returns the polygon count over all levels.
func (s *ContourSet) NumPolygons() int {
	n := 0
	for _, l := range s.Levels {
		n += len(l.Polygons)
	}
	return n
}

// EncodeContour serializes s as CONTOUR.
func EncodeContour(s *ContourSet) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: nil CONTOUR record", ErrInvalidMesh)
	}
	if len(s.Levels) > math.MaxUint16 {
		return nil, fmt.Errorf("%w: %d levels overflow uint16", ErrInvalidMesh, len(s.Levels))
	}
	for i, l := range s.Levels {
		if uint64(len(l.Polygons)) > math.MaxUint32 {
			return nil, fmt.Errorf("%w: level %d polygon count overflows uint32", ErrInvalidMesh, i)
		}
	}

	w := newWriter(VariantContour, s.Size())
	w.u16(uint16(len(s.Levels)))
	for _, l := range s.Levels {
		w.f32(l.Elevation)
		w.u32(uint32(len(l.Polygons)))
		for _, p := range l.Polygons {
			w.u32(uint32(len(p)))
			for _, v := range p {
				w.f32(v.Lon)
				w.f32(v.Lat)
			}
		}
	}
	return w.buf, nil
}

// DecodeContour parses a CONTOUR record.
func DecodeContour(b []byte) (*ContourSet, error) {
	r, err := newReader(VariantContour, b)
	if err != nil {
		return nil, err
	}
	numLevels := int(r.u16("level count"))
	if r.err != nil {
		return nil, r.err
	}

	s := &ContourSet{Levels: make([]Level, 0, min(numLevels, r.remaining()/8))}
	for range numLevels {
		l := Level{Elevation: r.f32("level elevation")}
		numPolys := int(r.u32("polygon count"))
		// Every polygon takes at least its 4-byte count.
		if !r.need(4*numPolys, "polygons") {
			return nil, r.err
		}
		l.Polygons = make([]Polygon, 0, numPolys)
		for range numPolys {
			n := int(r.u32("vertex count"))
			coords := r.f32s(2*n, "lon/lat pairs")
			if r.err != nil {
				return nil, r.err
			}
			p := make(Polygon, n)
			for i := range p {
				p[i] = LonLat{Lon: coords[2*i], Lat: coords[2*i+1]}
			}
			l.Polygons = append(l.Polygons, p)
		}
		s.Levels = append(s.Levels, l)
	}
	if err := r.done(); err != nil {
		return nil, err
	}
	return s, nil
}
