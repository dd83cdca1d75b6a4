// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package meshcodec

import (
	"fmt"

	"github.com/2dChan/hpmesh/icosphere"
)

// compactHeaderSize is tag and depth; HPGRAD shares it.
const compactHeaderSize = 6 + 1

// Compact is an HPELEV record: elevation for every vertex of the icosphere
// of the given depth. The topology is not stored.
type Compact struct {
	Depth     int
	Elevation []float32
}

func (*Compact) Variant() Variant { return VariantCompact }
func (*Compact) sealed()          {}

func (m *Compact) Size() int {
	return compactHeaderSize + 4*len(m.Elevation)
}

// EncodeCompact serializes m as HPELEV.
func EncodeCompact(m *Compact) ([]byte, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: nil HPELEV record", ErrInvalidMesh)
	}
	if err := checkImplicit(m.Depth, m.Elevation); err != nil {
		return nil, fmt.Errorf("EncodeCompact: %w", err)
	}
	w := newWriter(VariantCompact, m.Size())
	w.u8(uint8(m.Depth))
	w.f32s(m.Elevation)
	return w.buf, nil
}

// DecodeCompact parses an HPELEV record. The payload must hold exactly one
// sample per vertex of the icosphere of the stored depth.
func DecodeCompact(b []byte) (*Compact, error) {
	r, err := newReader(VariantCompact, b)
	if err != nil {
		return nil, err
	}
	depth, numV, err := readDepth(r, 1)
	if err != nil {
		return nil, err
	}
	m := &Compact{Depth: depth, Elevation: r.f32s(numV, "elevation")}
	if err := r.done(); err != nil {
		return nil, err
	}
	return m, nil
}

// Gradient is an HPGRAD record: elevation plus its partial derivatives with
// respect to latitude and longitude at every icosphere vertex.
type Gradient struct {
	Depth     int
	Elevation []float32
	DLat      []float32
	DLon      []float32
}

func (*Gradient) Variant() Variant { return VariantGradient }
func (*Gradient) sealed()          {}

func (m *Gradient) Size() int {
	return compactHeaderSize + 4*(len(m.Elevation)+len(m.DLat)+len(m.DLon))
}

// EncodeGradient serializes m as HPGRAD.
func EncodeGradient(m *Gradient) ([]byte, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: nil HPGRAD record", ErrInvalidMesh)
	}
	for _, a := range [][]float32{m.Elevation, m.DLat, m.DLon} {
		if err := checkImplicit(m.Depth, a); err != nil {
			return nil, fmt.Errorf("EncodeGradient: %w", err)
		}
	}
	w := newWriter(VariantGradient, m.Size())
	w.u8(uint8(m.Depth))
	w.f32s(m.Elevation)
	w.f32s(m.DLat)
	w.f32s(m.DLon)
	return w.buf, nil
}

// DecodeGradient parses an HPGRAD record.
func DecodeGradient(b []byte) (*Gradient, error) {
	r, err := newReader(VariantGradient, b)
	if err != nil {
		return nil, err
	}
	depth, numV, err := readDepth(r, 3)
	if err != nil {
		return nil, err
	}
	m := &Gradient{
		Depth:     depth,
		Elevation: r.f32s(numV, "elevation"),
		DLat:      r.f32s(numV, "d/dlat"),
		DLon:      r.f32s(numV, "d/dlon"),
	}
	if err := r.done(); err != nil {
		return nil, err
	}
	return m, nil
}

// readDepth reads the depth byte and checks that the given number of f32
// arrays, one sample per vertex, fill the rest of the buffer exactly.
func readDepth(r *reader, arrays int) (depth, numV int, err error) {
	depth = int(r.u8("depth"))
	if r.err != nil {
		return 0, 0, r.err
	}
	if err := icosphere.CheckDepth(depth); err != nil {
		return 0, 0, fmt.Errorf("%w: %w", ErrCorruptPayload, err)
	}
	numV = icosphere.NumVertices(depth)
	if want := 4 * arrays * numV; r.remaining() != want {
		return 0, 0, fmt.Errorf("%w: depth %d needs %d vertices (%d bytes), have %d bytes",
			ErrCorruptPayload, depth, numV, want, r.remaining())
	}
	return depth, numV, nil
}

func checkImplicit(depth int, values []float32) error {
	if err := icosphere.CheckDepth(depth); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMesh, err)
	}
	if n := icosphere.NumVertices(depth); len(values) != n {
		return fmt.Errorf("%w: %d samples, depth %d has %d vertices", ErrInvalidMesh, len(values), depth, n)
	}
	return nil
}
