// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package adaptive builds error-driven, watertight triangle meshes of a
// HEALPix field.
//
// Refinement starts from the icosahedron and always splits the leaf
// triangle whose linear interpolation disagrees most with the field. Each
// split is 1-to-4; the triangles across its edges are split conformingly
// (1-to-2, 1-to-3 or 1-to-4, by the number of their edges that carry a
// midpoint) so the mesh never has hanging vertices.
package adaptive

import (
	"container/heap"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/2dChan/hpmesh/icosphere"
	"github.com/2dChan/hpmesh/meshcodec"
	"github.com/2dChan/hpmesh/sampler"
	"github.com/golang/geo/r3"
)

const (
	DefaultMaxVertices    = 100000
	DefaultErrorThreshold = 10.0
	// DefaultMinEdgeLength is twice the Nyquist spacing of a degree-2160
	// expansion, in radians.
	DefaultMinEdgeLength = math.Pi / 4320
)

var (
	ErrNilField      = errors.New("adaptive: nil field")
	ErrUnknownPreset = errors.New("adaptive: unknown preset")
)

// Preset is a named quality level of a mesh bundle.
type Preset struct {
	Name           string
	MaxVertices    int
	ErrorThreshold float64
}

// Presets lists the bundle quality levels from coarsest to finest.
var Presets = []Preset{
	{Name: "low", MaxVertices: 25000, ErrorThreshold: 50},
	{Name: "medium", MaxVertices: 50000, ErrorThreshold: 25},
	{Name: "high", MaxVertices: 100000, ErrorThreshold: 15},
	{Name: "ultra", MaxVertices: 200000, ErrorThreshold: 8},
}

// PresetByName returns the preset called name.
func PresetByName(name string) (Preset, error) {
	for _, p := range Presets {
		if p.Name == name {
			return p, nil
		}
	}
	return Preset{}, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
}

type Options struct {
	MaxVertices    int
	ErrorThreshold float64
	MinEdgeLength  float64
}

type Option func(*Options) error

// WithMaxVertices caps the vertex count. n must be at least 12, the size of
// the starting icosahedron.
func WithMaxVertices(n int) Option {
	return func(o *Options) error {
		if n < 12 || uint64(n) > math.MaxUint32 {
			return fmt.Errorf("WithMaxVertices: n %d not in [12 %d]", n, uint64(math.MaxUint32))
		}
		o.MaxVertices = n
		return nil
	}
}

// WithErrorThreshold stops refinement once no triangle has an interpolation
// error above e, in field units.
func WithErrorThreshold(e float64) Option {
	return func(o *Options) error {
		if e < 0 || math.IsNaN(e) || math.IsInf(e, 0) {
			return fmt.Errorf("WithErrorThreshold: threshold %v must be finite and non-negative", e)
		}
		o.ErrorThreshold = e
		return nil
	}
}

// WithMinEdgeLength leaves triangles whose longest edge is shorter than
// rad radians unrefined.
func WithMinEdgeLength(rad float64) Option {
	return func(o *Options) error {
		if rad < 0 || rad > math.Pi || math.IsNaN(rad) {
			return fmt.Errorf("WithMinEdgeLength: length %v not in [0 pi]", rad)
		}
		o.MinEdgeLength = rad
		return nil
	}
}

// WithPreset sets the vertex cap and error threshold of p.
func WithPreset(p Preset) Option {
	return func(o *Options) error {
		if err := WithMaxVertices(p.MaxVertices)(o); err != nil {
			return err
		}
		return WithErrorThreshold(p.ErrorThreshold)(o)
	}
}

// Mesh is the result of a refinement.
type Mesh struct {
	Vertices  []r3.Vector
	Triangles [][3]int
	Elevation []float32

	// MaxError is the largest interpolation error left on any triangle.
	MaxError float64
}

// Record returns the mesh as an ADAMESH record.
func (m *Mesh) Record() *meshcodec.Adaptive {
	r := &meshcodec.Adaptive{
		Positions: make([]float32, 0, 3*len(m.Vertices)),
		Elevation: append([]float32(nil), m.Elevation...),
		Indices:   make([]uint32, 0, 3*len(m.Triangles)),
	}
	for _, v := range m.Vertices {
		r.Positions = append(r.Positions, float32(v.X), float32(v.Y), float32(v.Z))
	}
	for _, t := range m.Triangles {
		r.Indices = append(r.Indices, uint32(t[0]), uint32(t[1]), uint32(t[2]))
	}
	return r
}

// Refine builds an adaptive mesh of f. It stops when the worst remaining
// triangle is within the error threshold, when the next split would exceed
// the vertex cap, or when every triangle above the threshold is at the
// minimum edge length.
func Refine(f *sampler.Field, setters ...Option) (*Mesh, error) {
	opts := Options{
		MaxVertices:    DefaultMaxVertices,
		ErrorThreshold: DefaultErrorThreshold,
		MinEdgeLength:  DefaultMinEdgeLength,
	}
	for _, set := range setters {
		if err := set(&opts); err != nil {
			return nil, err
		}
	}
	if f == nil {
		return nil, ErrNilField
	}

	r := newRefiner(f)
	base := icosphere.Base()
	for _, v := range base.Vertices {
		r.addVertex(v)
	}
	for _, t := range base.Triangles {
		r.addTriangle(t)
	}

	for r.queue.Len() > 0 {
		it := heap.Pop(&r.queue).(item)
		if !r.alive[it.id] {
			continue
		}
		if it.err <= opts.ErrorThreshold {
			break
		}
		if r.longestEdge(r.tris[it.id]) < opts.MinEdgeLength {
			continue
		}
		// A leaf never has a midpoint on its edges, so a split adds three.
		if len(r.vertices)+3 > opts.MaxVertices {
			break
		}
		r.refine(it.id)
	}

	return r.mesh(), nil
}

type edgeKey struct{ lo, hi int }

func newEdgeKey(i, j int) edgeKey {
	if j < i {
		return edgeKey{j, i}
	}
	return edgeKey{i, j}
}

type refiner struct {
	f *sampler.Field

	vertices  []r3.Vector
	elevation []float32

	tris  [][3]int
	errs  []float64
	alive []bool

	mids     map[edgeKey]int
	edgeTris map[edgeKey][]int
	queue    queue
}

func newRefiner(f *sampler.Field) *refiner {
	return &refiner{
		f:        f,
		mids:     make(map[edgeKey]int),
		edgeTris: make(map[edgeKey][]int),
	}
}

func (r *refiner) addVertex(v r3.Vector) int {
	v = v.Normalize()
	r.vertices = append(r.vertices, v)
	r.elevation = append(r.elevation, r.f.Sample(v))
	return len(r.vertices) - 1
}

func (r *refiner) midpoint(i, j int) int {
	k := newEdgeKey(i, j)
	if m, ok := r.mids[k]; ok {
		return m
	}
	m := r.addVertex(r.vertices[i].Add(r.vertices[j]))
	r.mids[k] = m
	return m
}

func (r *refiner) addTriangle(t [3]int) {
	id := len(r.tris)
	err := r.triangleError(t)
	r.tris = append(r.tris, t)
	r.errs = append(r.errs, err)
	r.alive = append(r.alive, true)
	for i := range 3 {
		k := newEdgeKey(t[i], t[(i+1)%3])
		r.edgeTris[k] = append(r.edgeTris[k], id)
	}
	heap.Push(&r.queue, item{id: id, err: err})
}

func (r *refiner) removeTriangle(id int) {
	r.alive[id] = false
	t := r.tris[id]
	for i := range 3 {
		k := newEdgeKey(t[i], t[(i+1)%3])
		ids := r.edgeTris[k]
		for j, other := range ids {
			if other == id {
				ids = append(ids[:j], ids[j+1:]...)
				break
			}
		}
		if len(ids) == 0 {
			delete(r.edgeTris, k)
		} else {
			r.edgeTris[k] = ids
		}
	}
}

// refine splits triangle id 1-to-4 and conforms its edge neighbours.
func (r *refiner) refine(id int) {
	t := r.tris[id]
	r.removeTriangle(id)

	var neighbors []int
	for i := range 3 {
		for _, n := range r.edgeTris[newEdgeKey(t[i], t[(i+1)%3])] {
			if !slices.Contains(neighbors, n) {
				neighbors = append(neighbors, n)
			}
		}
		r.midpoint(t[i], t[(i+1)%3])
	}
	r.conform(t)

	for _, n := range neighbors {
		r.removeTriangle(n)
		r.conform(r.tris[n])
	}
}

// conform replaces t by the triangles that use every existing midpoint of
// its edges. Winding is preserved.
func (r *refiner) conform(t [3]int) {
	var (
		mids  [3]int
		split int
	)
	for i := range 3 {
		mids[i] = -1
		if m, ok := r.mids[newEdgeKey(t[i], t[(i+1)%3])]; ok {
			mids[i] = m
			split++
		}
	}

	switch split {
	case 0:
		r.addTriangle(t)
	case 1:
		// Rotate the split edge to t0-t1.
		for mids[0] < 0 {
			t, mids = rotate(t, mids)
		}
		m := mids[0]
		r.addTriangle([3]int{t[0], m, t[2]})
		r.addTriangle([3]int{m, t[1], t[2]})
	case 2:
		// Rotate the unsplit edge to t2-t0.
		for mids[2] >= 0 {
			t, mids = rotate(t, mids)
		}
		a, b := mids[0], mids[1]
		r.addTriangle([3]int{t[1], b, a})
		r.addTriangle([3]int{t[0], a, b})
		r.addTriangle([3]int{t[0], b, t[2]})
	case 3:
		a, b, c := mids[0], mids[1], mids[2]
		r.addTriangle([3]int{t[0], a, c})
		r.addTriangle([3]int{t[1], b, a})
		r.addTriangle([3]int{t[2], c, b})
		r.addTriangle([3]int{a, b, c})
	}
}

func rotate(t, mids [3]int) ([3]int, [3]int) {
	return [3]int{t[1], t[2], t[0]}, [3]int{mids[1], mids[2], mids[0]}
}

// triangleError compares linear interpolation with the field at the
// centroid and the three edge midpoints.
func (r *refiner) triangleError(t [3]int) float64 {
	p0, p1, p2 := r.vertices[t[0]], r.vertices[t[1]], r.vertices[t[2]]
	e0, e1, e2 := float64(r.elevation[t[0]]), float64(r.elevation[t[1]]), float64(r.elevation[t[2]])

	probes := [4]struct {
		dir    r3.Vector
		interp float64
	}{
		{p0.Add(p1).Add(p2), (e0 + e1 + e2) / 3},
		{p0.Add(p1), (e0 + e1) / 2},
		{p1.Add(p2), (e1 + e2) / 2},
		{p2.Add(p0), (e2 + e0) / 2},
	}
	var maxErr float64
	for _, p := range probes {
		actual := float64(r.f.Sample(p.dir))
		maxErr = max(maxErr, math.Abs(actual-p.interp))
	}
	return maxErr
}

func (r *refiner) longestEdge(t [3]int) float64 {
	p0, p1, p2 := r.vertices[t[0]], r.vertices[t[1]], r.vertices[t[2]]
	return max(p0.Angle(p1).Radians(), p1.Angle(p2).Radians(), p2.Angle(p0).Radians())
}

func (r *refiner) mesh() *Mesh {
	m := &Mesh{
		Vertices:  r.vertices,
		Elevation: r.elevation,
	}
	for id, t := range r.tris {
		if !r.alive[id] {
			continue
		}
		m.Triangles = append(m.Triangles, t)
		m.MaxError = max(m.MaxError, r.errs[id])
	}
	return m
}
