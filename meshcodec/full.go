// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package meshcodec

import (
	"fmt"
	"math"
)

const (
	// fullHeaderSize is tag, vertex count, index count and index width.
	fullHeaderSize = 6 + 4 + 4 + 1
	// adaptiveHeaderSize is tag, version, vertex count and triangle count.
	adaptiveHeaderSize = 7 + 1 + 4 + 4

	// AdaptiveVersion is the only ADAMESH version this package reads.
	AdaptiveVersion = 1

	// narrowIndexLimit is the vertex count from which HPMESH switches to
	// 4-byte indices.
	narrowIndexLimit = 1 << 16
)

// Full is an HPMESH record: an explicit triangle mesh with per-vertex
// elevation.
type Full struct {
	Positions []float32 // xyz triples
	Indices   []uint32  // CCW triangles
	Elevation []float32
}

func (*Full) Variant() Variant { return VariantFull }
func (*Full) sealed()          {}

// NumVertices returns len(Positions)/3.
func (m *Full) NumVertices() int { return len(m.Positions) / 3 }

// IndexWidth returns the index size in bytes the encoder will use.
func (m *Full) IndexWidth() int {
	if m.NumVertices() < narrowIndexLimit {
		return 2
	}
	return 4
}

func (m *Full) Size() int {
	return fullHeaderSize + 4*len(m.Positions) + m.IndexWidth()*len(m.Indices) + 4*len(m.Elevation)
}

// EncodeFull serializes m as HPMESH.
func EncodeFull(m *Full) ([]byte, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: nil HPMESH record", ErrInvalidMesh)
	}
	if err := validateMesh(m.Positions, m.Indices, m.Elevation); err != nil {
		return nil, fmt.Errorf("EncodeFull: %w", err)
	}
	width := m.IndexWidth()
	w := newWriter(VariantFull, m.Size())
	w.u32(uint32(m.NumVertices()))
	w.u32(uint32(len(m.Indices)))
	w.u8(uint8(width))
	w.f32s(m.Positions)
	if width == 2 {
		w.u16s(m.Indices)
	} else {
		w.u32s(m.Indices)
	}
	w.f32s(m.Elevation)
	return w.buf, nil
}

// DecodeFull parses an HPMESH record. The index width is taken from the
// stored byte and must be 2 or 4.
func DecodeFull(b []byte) (*Full, error) {
	r, err := newReader(VariantFull, b)
	if err != nil {
		return nil, err
	}
	numV := int(r.u32("vertex count"))
	numI := int(r.u32("index count"))
	width := r.u8("index width")
	if r.err != nil {
		return nil, r.err
	}
	if width != 2 && width != 4 {
		return nil, fmt.Errorf("%w: HPMESH index width %d", ErrCorruptPayload, width)
	}
	if want := 12*numV + int(width)*numI + 4*numV; r.remaining() != want {
		return nil, fmt.Errorf("%w: HPMESH header declares %d payload bytes, have %d", ErrCorruptPayload, want, r.remaining())
	}

	m := &Full{}
	m.Positions = r.f32s(3*numV, "positions")
	if width == 2 {
		m.Indices = r.u16s(numI, "indices")
	} else {
		m.Indices = r.u32s(numI, "indices")
	}
	m.Elevation = r.f32s(numV, "elevation")
	if err := r.done(); err != nil {
		return nil, err
	}
	if err := checkIndices(numV, m.Indices); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptPayload, err)
	}
	return m, nil
}

// Adaptive is an ADAMESH record: a variable-topology mesh produced by
// error-driven refinement.
type Adaptive struct {
	Positions []float32 // xyz triples
	Elevation []float32
	Indices   []uint32 // CCW triangles
}

func (*Adaptive) Variant() Variant { return VariantAdaptive }
func (*Adaptive) sealed()          {}

// NumVertices returns len(Positions)/3.
func (m *Adaptive) NumVertices() int { return len(m.Positions) / 3 }

// NumTriangles returns len(Indices)/3.
func (m *Adaptive) NumTriangles() int { return len(m.Indices) / 3 }

func (m *Adaptive) Size() int {
	return adaptiveHeaderSize + 4*len(m.Positions) + 4*len(m.Elevation) + 4*len(m.Indices)
}

// AdaptiveSize returns the ADAMESH size of a mesh with the given counts.
func AdaptiveSize(numVertices, numTriangles int) int {
	return adaptiveHeaderSize + 16*numVertices + 12*numTriangles
}

// EncodeAdaptive serializes m as ADAMESH version 1.
func EncodeAdaptive(m *Adaptive) ([]byte, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: nil ADAMESH record", ErrInvalidMesh)
	}
	if err := validateMesh(m.Positions, m.Indices, m.Elevation); err != nil {
		return nil, fmt.Errorf("EncodeAdaptive: %w", err)
	}
	w := newWriter(VariantAdaptive, m.Size())
	w.u8(AdaptiveVersion)
	w.u32(uint32(m.NumVertices()))
	w.u32(uint32(m.NumTriangles()))
	w.f32s(m.Positions)
	w.f32s(m.Elevation)
	w.u32s(m.Indices)
	return w.buf, nil
}

// DecodeAdaptive parses an ADAMESH record.
func DecodeAdaptive(b []byte) (*Adaptive, error) {
	r, err := newReader(VariantAdaptive, b)
	if err != nil {
		return nil, err
	}
	if v := r.u8("version"); r.err == nil && v != AdaptiveVersion {
		return nil, fmt.Errorf("%w: ADAMESH version %d", ErrUnsupportedVersion, v)
	}
	numV := int(r.u32("vertex count"))
	numT := int(r.u32("triangle count"))
	if r.err != nil {
		return nil, r.err
	}
	if want := 12*numV + 4*numV + 12*numT; r.remaining() != want {
		return nil, fmt.Errorf("%w: ADAMESH header declares %d payload bytes, have %d", ErrCorruptPayload, want, r.remaining())
	}

	m := &Adaptive{
		Positions: r.f32s(3*numV, "positions"),
		Elevation: r.f32s(numV, "elevation"),
		Indices:   r.u32s(3*numT, "indices"),
	}
	if err := r.done(); err != nil {
		return nil, err
	}
	if err := checkIndices(numV, m.Indices); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptPayload, err)
	}
	return m, nil
}

// validateMesh checks the in-memory invariants shared by HPMESH and ADAMESH.
func validateMesh(positions []float32, indices []uint32, elevation []float32) error {
	if len(positions)%3 != 0 {
		return fmt.Errorf("%w: %d position components is not a multiple of 3", ErrInvalidMesh, len(positions))
	}
	numV := len(positions) / 3
	if len(elevation) != numV {
		return fmt.Errorf("%w: %d elevation samples for %d vertices", ErrInvalidMesh, len(elevation), numV)
	}
	if uint64(numV) > math.MaxUint32 || uint64(len(indices)) > math.MaxUint32 {
		return fmt.Errorf("%w: counts overflow uint32", ErrInvalidMesh)
	}
	if err := checkIndices(numV, indices); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMesh, err)
	}
	return nil
}

// checkIndices verifies that indices form whole triangles of three distinct
// in-range vertices.
func checkIndices(numV int, indices []uint32) error {
	if len(indices)%3 != 0 {
		return fmt.Errorf("%d indices is not a multiple of 3", len(indices))
	}
	for t := 0; t < len(indices); t += 3 {
		a, b, c := indices[t], indices[t+1], indices[t+2]
		if int(a) >= numV || int(b) >= numV || int(c) >= numV {
			return fmt.Errorf("triangle %d = (%d %d %d) out of range [0 %d)", t/3, a, b, c, numV)
		}
		if a == b || b == c || c == a {
			return fmt.Errorf("triangle %d = (%d %d %d) is degenerate", t/3, a, b, c)
		}
	}
	return nil
}
