// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package contour extracts elevation isolines from a triangle mesh on the
// unit sphere and packs them as CONTOUR records.
package contour

import (
	"errors"
	"fmt"

	"github.com/2dChan/hpmesh"
	"github.com/2dChan/hpmesh/meshcodec"
	"github.com/golang/geo/r3"
	"github.com/golang/geo/s2"
)

const (
	DefaultNumLevels   = 30
	DefaultMinVertices = 4
	DefaultMaxVertices = 500
)

var (
	ErrTooFewLevels  = errors.New("contour: at least two levels required")
	ErrMeshMismatch  = errors.New("contour: elevation does not match mesh")
	ErrVertexBounds  = errors.New("contour: minimum vertex count exceeds maximum")
	ErrNilMesh       = errors.New("contour: nil mesh")
	ErrNilContourSet = errors.New("contour: nil contour set")
)

// Levels returns n contour levels for elevations in [lo, hi]: one below
// sea level at lo/2, sea level itself, and n-2 levels evenly spaced in
// (0, hi].
func Levels(lo, hi float32, n int) ([]float32, error) {
	if n < 2 {
		return nil, fmt.Errorf("%w: n = %d", ErrTooFewLevels, n)
	}
	out := make([]float32, 0, n)
	out = append(out, lo/2, 0)
	steps := n - 2
	for i := 1; i <= steps; i++ {
		out = append(out, float32(float64(hi)*float64(i)/float64(steps)))
	}
	return out, nil
}

// Line is a chain of isoline points on the unit sphere. Points of a closed
// line do not repeat the first point.
type Line struct {
	Points []r3.Vector
	Closed bool
}

type edgeKey struct{ lo, hi uint32 }

func newEdgeKey(i, j uint32) edgeKey {
	if j < i {
		return edgeKey{j, i}
	}
	return edgeKey{i, j}
}

// Isolines runs marching triangles over m at the given level. A vertex
// counts as above the level when its elevation is at least level. Crossing
// points are shared by the two triangles of an edge, so segments chain
// exactly; lines are oriented with higher ground on the right when seen
// from outside the sphere. Lines come out in the order of the first
// triangle they cross.
func Isolines(m *hpmesh.Mesh, level float32) ([]Line, error) {
	if m == nil {
		return nil, ErrNilMesh
	}
	if len(m.Elevation) != m.NumVertices() {
		return nil, fmt.Errorf("%w: %d samples for %d vertices", ErrMeshMismatch, len(m.Elevation), m.NumVertices())
	}
	numV := uint32(m.NumVertices())
	for i, idx := range m.Indices {
		if idx >= numV {
			return nil, fmt.Errorf("%w: index %d = %d, %d vertices", ErrMeshMismatch, i, idx, numV)
		}
	}

	var (
		order []edgeKey
		next  = make(map[edgeKey]edgeKey)
		ends  = make(map[edgeKey]bool)
	)
	for t := 0; t+2 < len(m.Indices); t += 3 {
		tri := m.Indices[t : t+3]
		var from, to edgeKey
		var hasFrom, hasTo bool
		for k := range 3 {
			a, b := tri[k], tri[(k+1)%3]
			aboveA, aboveB := m.Elevation[a] >= level, m.Elevation[b] >= level
			switch {
			case !aboveA && aboveB:
				from, hasFrom = newEdgeKey(a, b), true
			case aboveA && !aboveB:
				to, hasTo = newEdgeKey(a, b), true
			}
		}
		if !hasFrom || !hasTo {
			continue
		}
		if _, dup := next[from]; dup {
			return nil, fmt.Errorf("%w: edge %v crossed twice in the same direction", ErrMeshMismatch, from)
		}
		next[from] = to
		ends[to] = true
		order = append(order, from)
	}

	c := chainer{m: m, level: level, next: next, visited: make(map[edgeKey]bool, len(next))}
	var lines []Line
	// Open lines start where no segment ends.
	for _, k := range order {
		if !ends[k] && !c.visited[k] {
			lines = append(lines, c.walk(k))
		}
	}
	for _, k := range order {
		if !c.visited[k] {
			lines = append(lines, c.walk(k))
		}
	}
	return lines, nil
}

type chainer struct {
	m       *hpmesh.Mesh
	level   float32
	next    map[edgeKey]edgeKey
	visited map[edgeKey]bool
}

func (c *chainer) walk(start edgeKey) Line {
	var l Line
	k := start
	for {
		c.visited[k] = true
		p := c.crossing(k)
		if n := len(l.Points); n == 0 || l.Points[n-1] != p {
			l.Points = append(l.Points, p)
		}
		nk, ok := c.next[k]
		if !ok {
			// Last crossing of an open line.
			break
		}
		if nk == start {
			l.Closed = true
			break
		}
		if c.visited[nk] {
			break
		}
		k = nk
	}
	if !l.Closed {
		return l
	}
	if n := len(l.Points); n > 1 && l.Points[n-1] == l.Points[0] {
		l.Points = l.Points[:n-1]
	}
	return l
}

// crossing returns the point on edge k where the linear interpolation of
// elevation equals the level, projected onto the sphere.
func (c *chainer) crossing(k edgeKey) r3.Vector {
	pa, pb := vector(c.m.Positions, k.lo), vector(c.m.Positions, k.hi)
	ea, eb := float64(c.m.Elevation[k.lo]), float64(c.m.Elevation[k.hi])
	t := (float64(c.level) - ea) / (eb - ea)
	return pa.Add(pb.Sub(pa).Mul(t)).Normalize()
}

func vector(a []float32, i uint32) r3.Vector {
	return r3.Vector{X: float64(a[3*i]), Y: float64(a[3*i+1]), Z: float64(a[3*i+2])}
}

// Polygon converts a line to longitude/latitude degrees.
func Polygon(l Line) meshcodec.Polygon {
	out := make(meshcodec.Polygon, len(l.Points))
	for i, p := range l.Points {
		ll := s2.LatLngFromPoint(s2.Point{Vector: p})
		out[i] = meshcodec.LonLat{Lon: float32(ll.Lng.Degrees()), Lat: float32(ll.Lat.Degrees())}
	}
	return out
}

// Downsample keeps maxVertices evenly spaced vertices of p, always
// including the first. Polygons within the limit are returned as is.
func Downsample(p meshcodec.Polygon, maxVertices int) meshcodec.Polygon {
	n := len(p)
	if n <= maxVertices || maxVertices <= 0 {
		return p
	}
	out := make(meshcodec.Polygon, maxVertices)
	for i := range maxVertices {
		// round(i*n/max) in integers.
		out[i] = p[(2*i*n+maxVertices)/(2*maxVertices)]
	}
	return out
}

type Options struct {
	MinVertices int
	MaxVertices int
	// MinArea is the smallest longitude x latitude bounding box, in square
	// degrees, a polygon must span to be kept.
	MinArea float64
}

type Option func(*Options) error

// WithMinVertices drops polygons with fewer than n vertices.
func WithMinVertices(n int) Option {
	return func(o *Options) error {
		if n < 3 {
			return fmt.Errorf("WithMinVertices: n %d < 3", n)
		}
		o.MinVertices = n
		return nil
	}
}

// WithMaxVertices downsamples polygons to at most n vertices.
func WithMaxVertices(n int) Option {
	return func(o *Options) error {
		if n < 3 {
			return fmt.Errorf("WithMaxVertices: n %d < 3", n)
		}
		o.MaxVertices = n
		return nil
	}
}

// WithMinArea drops polygons whose bounding box is smaller than area
// square degrees.
func WithMinArea(area float64) Option {
	return func(o *Options) error {
		if !(area >= 0) {
			return fmt.Errorf("WithMinArea: area %v < 0", area)
		}
		o.MinArea = area
		return nil
	}
}

// Extract builds a contour set of m at the given levels. Only closed lines
// become polygons; levels left without polygons are omitted.
func Extract(m *hpmesh.Mesh, levels []float32, setters ...Option) (*meshcodec.ContourSet, error) {
	opts := Options{
		MinVertices: DefaultMinVertices,
		MaxVertices: DefaultMaxVertices,
	}
	for _, set := range setters {
		if err := set(&opts); err != nil {
			return nil, err
		}
	}
	if opts.MinVertices > opts.MaxVertices {
		return nil, fmt.Errorf("%w: %d > %d", ErrVertexBounds, opts.MinVertices, opts.MaxVertices)
	}

	set := &meshcodec.ContourSet{}
	for _, level := range levels {
		lines, err := Isolines(m, level)
		if err != nil {
			return nil, err
		}
		var polygons []meshcodec.Polygon
		for _, l := range lines {
			if !l.Closed || len(l.Points) < opts.MinVertices {
				continue
			}
			p := Polygon(l)
			if opts.MinArea > 0 && boundingArea(p) < opts.MinArea {
				continue
			}
			polygons = append(polygons, Downsample(p, opts.MaxVertices))
		}
		if len(polygons) > 0 {
			set.Levels = append(set.Levels, meshcodec.Level{Elevation: level, Polygons: polygons})
		}
	}
	return set, nil
}

func boundingArea(p meshcodec.Polygon) float64 {
	minLon, maxLon := p[0].Lon, p[0].Lon
	minLat, maxLat := p[0].Lat, p[0].Lat
	for _, v := range p[1:] {
		minLon, maxLon = min(minLon, v.Lon), max(maxLon, v.Lon)
		minLat, maxLat = min(minLat, v.Lat), max(maxLat, v.Lat)
	}
	return float64(maxLon-minLon) * float64(maxLat-minLat)
}

// EmbeddedLevel is a contour level with its polygons on the unit sphere.
type EmbeddedLevel struct {
	Elevation float32
	Polygons  [][]r3.Vector
}

// Embed places the polygons of s on the unit sphere, +z north and the
// prime meridian on +x.
func Embed(s *meshcodec.ContourSet) ([]EmbeddedLevel, error) {
	if s == nil {
		return nil, ErrNilContourSet
	}
	out := make([]EmbeddedLevel, len(s.Levels))
	for i, level := range s.Levels {
		out[i].Elevation = level.Elevation
		out[i].Polygons = make([][]r3.Vector, len(level.Polygons))
		for j, p := range level.Polygons {
			pts := make([]r3.Vector, len(p))
			for k, v := range p {
				pts[k] = s2.PointFromLatLng(s2.LatLngFromDegrees(float64(v.Lat), float64(v.Lon))).Vector
			}
			out[i].Polygons[j] = pts
		}
	}
	return out, nil
}
