// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package meshcodec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/2dChan/hpmesh/icosphere"
	"github.com/2dChan/hpmesh/utils"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

var equateEmpty = cmpopts.EquateEmpty()

func TestVariant_Tag(t *testing.T) {
	tests := []struct {
		v    Variant
		want string
	}{
		{VariantFull, "HPMESH"},
		{VariantCompact, "HPELEV"},
		{VariantGradient, "HPGRAD"},
		{VariantAdaptive, "ADAMESH"},
		{VariantContour, "CONTOUR"},
		{Variant(9), ""},
	}
	for _, tt := range tests {
		if got := tt.v.Tag(); got != tt.want {
			t.Errorf("Variant(%d).Tag() = %q, want %q", tt.v, got, tt.want)
		}
	}
	if got := Variant(9).String(); got != "Variant(9)" {
		t.Errorf("Variant(9).String() = %q, want Variant(9)", got)
	}
}

func TestFull_RoundTrip(t *testing.T) {
	tests := []struct {
		name      string
		numV      int
		numT      int
		wantWidth int
	}{
		{"random 100/50", 100, 50, 2},
		{"empty", 0, 0, 2},
		{"vertices only", 5, 0, 2},
		{"wide indices", 70000, 20, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := randomFull(tt.numV, tt.numT, 42)
			b := mustEncode(t, m)
			if got := b[fullHeaderSize-1]; int(got) != tt.wantWidth {
				t.Errorf("index width byte = %d, want %d", got, tt.wantWidth)
			}
			if len(b) != m.Size() {
				t.Errorf("len(EncodeFull(...)) = %d, want Size() = %d", len(b), m.Size())
			}
			want := fullHeaderSize + 12*tt.numV + 3*tt.numT*tt.wantWidth + 4*tt.numV
			if len(b) != want {
				t.Errorf("len(EncodeFull(...)) = %d, want %d", len(b), want)
			}

			got, err := DecodeFull(b)
			if err != nil {
				t.Fatalf("DecodeFull(...) error = %v, want nil", err)
			}
			if diff := cmp.Diff(m, got, equateEmpty); diff != "" {
				t.Errorf("DecodeFull(EncodeFull(m)) mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFull_Header(t *testing.T) {
	m := &Full{
		Positions: []float32{1, 0, 0, 0, 1, 0, 0, 0, 1},
		Indices:   []uint32{0, 1, 2},
		Elevation: []float32{1.5, -2, 0},
	}
	b := mustEncode(t, m)
	if got := string(b[:6]); got != "HPMESH" {
		t.Errorf("tag = %q, want HPMESH", got)
	}
	if got := binary.LittleEndian.Uint32(b[6:]); got != 3 {
		t.Errorf("vertex count = %d, want 3", got)
	}
	if got := binary.LittleEndian.Uint32(b[10:]); got != 3 {
		t.Errorf("index count = %d, want 3", got)
	}
	// Positions, then u16 indices, then elevation.
	idx := fullHeaderSize + 36
	if diff := cmp.Diff([]byte{0, 0, 1, 0, 2, 0}, b[idx:idx+6]); diff != "" {
		t.Errorf("indices mismatch (-want +got):\n%s", diff)
	}
	if got := math.Float32frombits(binary.LittleEndian.Uint32(b[idx+6:])); got != 1.5 {
		t.Errorf("elevation[0] = %v, want 1.5", got)
	}
}

func TestDecodeFull_Errors(t *testing.T) {
	valid := mustEncode(t, randomFull(10, 4, 1))

	tests := []struct {
		name    string
		mutate  func([]byte) []byte
		wantErr error
	}{
		{"corrupted tag", func(b []byte) []byte { b[5] = 'X'; return b }, ErrFormatMismatch},
		{"other variant", func(b []byte) []byte { copy(b, "HPELEV"); return b }, ErrFormatMismatch},
		{"short tag", func(b []byte) []byte { return b[:3] }, ErrFormatMismatch},
		{"short header", func(b []byte) []byte { return b[:10] }, ErrCorruptPayload},
		{"truncated", func(b []byte) []byte { return b[:len(b)-1] }, ErrCorruptPayload},
		{"trailing", func(b []byte) []byte { return append(b, 0) }, ErrCorruptPayload},
		{"bad width", func(b []byte) []byte { b[fullHeaderSize-1] = 3; return b }, ErrCorruptPayload},
		{"width 4 on u16 data", func(b []byte) []byte { b[fullHeaderSize-1] = 4; return b }, ErrCorruptPayload},
		{"huge vertex count", func(b []byte) []byte {
			binary.LittleEndian.PutUint32(b[6:], math.MaxUint32)
			return b
		}, ErrCorruptPayload},
		{"index out of range", func(b []byte) []byte {
			binary.LittleEndian.PutUint16(b[fullHeaderSize+120:], 10)
			return b
		}, ErrCorruptPayload},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := tt.mutate(bytes.Clone(valid))
			got, err := DecodeFull(b)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("DecodeFull(...) error = %v, want %v", err, tt.wantErr)
			}
			if got != nil {
				t.Errorf("DecodeFull(...) = %v, want nil", got)
			}
		})
	}
}

func TestEncodeFull_Invalid(t *testing.T) {
	tests := []struct {
		name string
		m    *Full
	}{
		{"nil", nil},
		{"ragged positions", &Full{Positions: make([]float32, 4), Elevation: make([]float32, 1)}},
		{"elevation length", &Full{Positions: make([]float32, 9), Elevation: make([]float32, 2)}},
		{"partial triangle", &Full{Positions: make([]float32, 9), Indices: []uint32{0, 1}, Elevation: make([]float32, 3)}},
		{"index out of range", &Full{Positions: make([]float32, 9), Indices: []uint32{0, 1, 3}, Elevation: make([]float32, 3)}},
		{"degenerate", &Full{Positions: make([]float32, 9), Indices: []uint32{0, 1, 1}, Elevation: make([]float32, 3)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := EncodeFull(tt.m)
			if !errors.Is(err, ErrInvalidMesh) {
				t.Errorf("EncodeFull(...) error = %v, want ErrInvalidMesh", err)
			}
			if b != nil {
				t.Errorf("EncodeFull(...) = %d bytes, want nil", len(b))
			}
		})
	}
}

func TestCompact_RoundTrip(t *testing.T) {
	for depth := range 5 {
		numV := icosphere.NumVertices(depth)
		m := &Compact{Depth: depth, Elevation: utils.GenerateRandomMesh(numV, 0, int64(depth)).Elevation}
		b := mustEncode(t, m)
		if want := 7 + 4*numV; len(b) != want {
			t.Errorf("len(EncodeCompact(depth %d)) = %d, want %d", depth, len(b), want)
		}
		got, err := DecodeCompact(b)
		if err != nil {
			t.Fatalf("DecodeCompact(depth %d) error = %v, want nil", depth, err)
		}
		if diff := cmp.Diff(m, got); diff != "" {
			t.Errorf("DecodeCompact(EncodeCompact(depth %d)) mismatch (-want +got):\n%s", depth, diff)
		}
	}
}

func TestCompact_FortyTwoVertices(t *testing.T) {
	// The 42-vertex icosphere is one subdivision of the icosahedron.
	m := &Compact{Depth: 1, Elevation: make([]float32, 42)}
	b := mustEncode(t, m)
	if len(b) != 175 {
		t.Errorf("len(EncodeCompact(depth 1, zeros)) = %d, want 175", len(b))
	}
	if got := string(b[:6]); got != "HPELEV" || b[6] != 1 {
		t.Errorf("header = %q depth %d, want HPELEV depth 1", got, b[6])
	}
	if !bytes.Equal(b[7:], make([]byte, 168)) {
		t.Errorf("payload of all-zero elevation is not all zero bytes")
	}
}

func TestDecodeCompact_Errors(t *testing.T) {
	valid := mustEncode(t, &Compact{Depth: 2, Elevation: make([]float32, icosphere.NumVertices(2))})

	tests := []struct {
		name    string
		mutate  func([]byte) []byte
		wantErr error
	}{
		{"corrupted tag", func(b []byte) []byte { b[0] = 'X'; return b }, ErrFormatMismatch},
		{"no depth", func(b []byte) []byte { return b[:6] }, ErrCorruptPayload},
		{"short elevation", func(b []byte) []byte { return b[:len(b)-4] }, ErrCorruptPayload},
		{"wrong depth", func(b []byte) []byte { b[6] = 3; return b }, ErrCorruptPayload},
		{"depth too large", func(b []byte) []byte { b[6] = 200; return b }, ErrCorruptPayload},
		{"trailing", func(b []byte) []byte { return append(b, 0, 0, 0, 0) }, ErrCorruptPayload},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeCompact(tt.mutate(bytes.Clone(valid)))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("DecodeCompact(...) error = %v, want %v", err, tt.wantErr)
			}
			if got != nil {
				t.Errorf("DecodeCompact(...) = %v, want nil", got)
			}
		})
	}
}

func TestEncodeCompact_Invalid(t *testing.T) {
	tests := []struct {
		name string
		m    *Compact
	}{
		{"nil", nil},
		{"negative depth", &Compact{Depth: -1}},
		{"depth too large", &Compact{Depth: icosphere.MaxDepth + 1}},
		{"length mismatch", &Compact{Depth: 1, Elevation: make([]float32, 12)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := EncodeCompact(tt.m); !errors.Is(err, ErrInvalidMesh) {
				t.Errorf("EncodeCompact(...) error = %v, want ErrInvalidMesh", err)
			}
		})
	}
}

func TestGradient_RoundTrip(t *testing.T) {
	const depth = 3
	numV := icosphere.NumVertices(depth)
	m := &Gradient{
		Depth:     depth,
		Elevation: utils.GenerateRandomMesh(numV, 0, 1).Elevation,
		DLat:      utils.GenerateRandomMesh(numV, 0, 2).Elevation,
		DLon:      utils.GenerateRandomMesh(numV, 0, 3).Elevation,
	}
	b := mustEncode(t, m)
	if want := 7 + 12*numV; len(b) != want {
		t.Errorf("len(EncodeGradient(...)) = %d, want %d", len(b), want)
	}
	got, err := DecodeGradient(b)
	if err != nil {
		t.Fatalf("DecodeGradient(...) error = %v, want nil", err)
	}
	if diff := cmp.Diff(m, got); diff != "" {
		t.Errorf("DecodeGradient(EncodeGradient(m)) mismatch (-want +got):\n%s", diff)
	}

	// Dropping one derivative array is a length error.
	if _, err := DecodeGradient(b[:len(b)-4*numV]); !errors.Is(err, ErrCorruptPayload) {
		t.Errorf("DecodeGradient(short) error = %v, want ErrCorruptPayload", err)
	}
	m.DLon = m.DLon[:10]
	if _, err := EncodeGradient(m); !errors.Is(err, ErrInvalidMesh) {
		t.Errorf("EncodeGradient(short DLon) error = %v, want ErrInvalidMesh", err)
	}
}

func TestAdaptive_RoundTrip(t *testing.T) {
	rm := utils.GenerateRandomMesh(300, 200, 9)
	m := &Adaptive{Positions: rm.Positions, Elevation: rm.Elevation, Indices: rm.Indices}
	b := mustEncode(t, m)
	if want := adaptiveHeaderSize + 16*300 + 12*200; len(b) != want {
		t.Errorf("len(EncodeAdaptive(...)) = %d, want %d", len(b), want)
	}
	if got := AdaptiveSize(300, 200); got != len(b) {
		t.Errorf("AdaptiveSize(300, 200) = %d, want %d", got, len(b))
	}
	if b[7] != AdaptiveVersion {
		t.Errorf("version byte = %d, want %d", b[7], AdaptiveVersion)
	}
	got, err := DecodeAdaptive(b)
	if err != nil {
		t.Fatalf("DecodeAdaptive(...) error = %v, want nil", err)
	}
	if diff := cmp.Diff(m, got); diff != "" {
		t.Errorf("DecodeAdaptive(EncodeAdaptive(m)) mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeAdaptive_Errors(t *testing.T) {
	rm := utils.GenerateRandomMesh(10, 3, 2)
	valid := mustEncode(t, &Adaptive{Positions: rm.Positions, Elevation: rm.Elevation, Indices: rm.Indices})

	tests := []struct {
		name    string
		mutate  func([]byte) []byte
		wantErr error
	}{
		{"corrupted tag", func(b []byte) []byte { b[6] = 'X'; return b }, ErrFormatMismatch},
		{"version 2", func(b []byte) []byte { b[7] = 2; return b }, ErrUnsupportedVersion},
		{"version 0", func(b []byte) []byte { b[7] = 0; return b }, ErrUnsupportedVersion},
		{"no version", func(b []byte) []byte { return b[:7] }, ErrCorruptPayload},
		{"truncated", func(b []byte) []byte { return b[:len(b)-2] }, ErrCorruptPayload},
		{"triangle count", func(b []byte) []byte {
			binary.LittleEndian.PutUint32(b[12:], 4)
			return b
		}, ErrCorruptPayload},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeAdaptive(tt.mutate(bytes.Clone(valid)))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("DecodeAdaptive(...) error = %v, want %v", err, tt.wantErr)
			}
			if got != nil {
				t.Errorf("DecodeAdaptive(...) = %v, want nil", got)
			}
		})
	}
}

func TestContour_RoundTrip(t *testing.T) {
	s := sampleContours()
	b := mustEncode(t, s)
	// 9 + level0 (8 + 4+24 + 4+32) + level1 (8) + level2 (8 + 4+24)
	if want := 9 + 8 + 28 + 36 + 8 + 8 + 28; len(b) != want {
		t.Errorf("len(EncodeContour(...)) = %d, want %d", len(b), want)
	}
	if got := binary.LittleEndian.Uint16(b[7:]); got != 3 {
		t.Errorf("level count = %d, want 3", got)
	}
	got, err := DecodeContour(b)
	if err != nil {
		t.Fatalf("DecodeContour(...) error = %v, want nil", err)
	}
	if diff := cmp.Diff(s, got, equateEmpty); diff != "" {
		t.Errorf("DecodeContour(EncodeContour(s)) mismatch (-want +got):\n%s", diff)
	}
	if got.NumPolygons() != 3 {
		t.Errorf("NumPolygons() = %d, want 3", got.NumPolygons())
	}
}

func TestDecodeContour_Errors(t *testing.T) {
	valid := mustEncode(t, sampleContours())
	tests := []struct {
		name    string
		mutate  func([]byte) []byte
		wantErr error
	}{
		{"corrupted tag", func(b []byte) []byte { b[1] = 'X'; return b }, ErrFormatMismatch},
		{"truncated", func(b []byte) []byte { return b[:len(b)-1] }, ErrCorruptPayload},
		{"trailing", func(b []byte) []byte { return append(b, 1) }, ErrCorruptPayload},
		{"too many levels", func(b []byte) []byte {
			binary.LittleEndian.PutUint16(b[7:], 4)
			return b
		}, ErrCorruptPayload},
		{"huge polygon count", func(b []byte) []byte {
			binary.LittleEndian.PutUint32(b[13:], math.MaxUint32)
			return b
		}, ErrCorruptPayload},
		{"huge vertex count", func(b []byte) []byte {
			binary.LittleEndian.PutUint32(b[17:], math.MaxUint32)
			return b
		}, ErrCorruptPayload},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeContour(tt.mutate(bytes.Clone(valid)))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("DecodeContour(...) error = %v, want %v", err, tt.wantErr)
			}
			if got != nil {
				t.Errorf("DecodeContour(...) = %v, want nil", got)
			}
		})
	}
}

func TestEncodeContour_TooManyLevels(t *testing.T) {
	s := &ContourSet{Levels: make([]Level, math.MaxUint16+1)}
	if _, err := EncodeContour(s); !errors.Is(err, ErrInvalidMesh) {
		t.Errorf("EncodeContour(65536 levels) error = %v, want ErrInvalidMesh", err)
	}
}

func TestDecode_Dispatch(t *testing.T) {
	rm := utils.GenerateRandomMesh(12, 6, 5)
	records := []Record{
		randomFull(12, 6, 5),
		&Compact{Depth: 0, Elevation: rm.Elevation},
		&Gradient{Depth: 0, Elevation: rm.Elevation, DLat: rm.Elevation, DLon: rm.Elevation},
		&Adaptive{Positions: rm.Positions, Elevation: rm.Elevation, Indices: rm.Indices},
		sampleContours(),
	}
	for _, r := range records {
		t.Run(r.Variant().String(), func(t *testing.T) {
			var buf bytes.Buffer
			if err := Write(&buf, r); err != nil {
				t.Fatalf("Write(...) error = %v, want nil", err)
			}
			if buf.Len() != r.Size() {
				t.Errorf("Write(...) wrote %d bytes, want Size() = %d", buf.Len(), r.Size())
			}
			v, err := Detect(buf.Bytes())
			if err != nil || v != r.Variant() {
				t.Errorf("Detect(...) = %v, %v, want %v, nil", v, err, r.Variant())
			}
			got, err := Read(&buf)
			if err != nil {
				t.Fatalf("Read(...) error = %v, want nil", err)
			}
			if diff := cmp.Diff(r, got, equateEmpty); diff != "" {
				t.Errorf("Read(Write(r)) mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name    string
		b       []byte
		wantErr error
	}{
		{"empty", nil, ErrFormatMismatch},
		{"HPMESX", []byte("HPMESX\x00\x00\x00\x00\x00\x00\x00\x00\x02"), ErrFormatMismatch},
		{"unknown", []byte("GLTF2.0"), ErrFormatMismatch},
		{"short compact", []byte("HPELEV\x01"), ErrCorruptPayload},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.b)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Decode(%q) error = %v, want %v", tt.b, err, tt.wantErr)
			}
			if got != nil {
				t.Errorf("Decode(%q) = %v, want nil", tt.b, got)
			}
		})
	}
}

func TestEncode_Nil(t *testing.T) {
	if _, err := Encode(nil); !errors.Is(err, ErrInvalidMesh) {
		t.Errorf("Encode(nil) error = %v, want ErrInvalidMesh", err)
	}
}

// Benchmarks

func BenchmarkDecodeCompact(b *testing.B) {
	m := &Compact{Depth: 7, Elevation: make([]float32, icosphere.NumVertices(7))}
	data, err := EncodeCompact(m)
	if err != nil {
		b.Fatalf("EncodeCompact(...) error = %v", err)
	}
	b.SetBytes(int64(len(data)))
	for b.Loop() {
		if _, err := DecodeCompact(data); err != nil {
			b.Fatalf("DecodeCompact(...) error = %v", err)
		}
	}
}

// Helpers

func randomFull(numV, numT int, seed int64) *Full {
	rm := utils.GenerateRandomMesh(numV, numT, seed)
	return &Full{Positions: rm.Positions, Indices: rm.Indices, Elevation: rm.Elevation}
}

func sampleContours() *ContourSet {
	return &ContourSet{Levels: []Level{
		{Elevation: -1500, Polygons: []Polygon{
			{{10, 20}, {11, 20}, {11, 21}},
			{{-170, -80}, {-160, -80}, {-160, -75}, {-170, -75}},
		}},
		{Elevation: 0},
		{Elevation: 2500.5, Polygons: []Polygon{
			{{0, 0}, {1, 0}, {0.5, 1}},
		}},
	}}
}

func mustEncode(t *testing.T, r Record) []byte {
	t.Helper()
	b, err := Encode(r)
	if err != nil {
		t.Fatalf("Encode(%v) error = %v, want nil", r.Variant(), err)
	}
	return b
}
