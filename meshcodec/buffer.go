// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package meshcodec

import (
	"encoding/binary"
	"fmt"

	"github.com/chewxy/math32"
)

var le = binary.LittleEndian

type writer struct {
	buf []byte
}

func newWriter(v Variant, size int) *writer {
	w := &writer{buf: make([]byte, 0, size)}
	w.buf = append(w.buf, v.Tag()...)
	return w
}

func (w *writer) u8(v uint8)   { w.buf = append(w.buf, v) }
func (w *writer) u16(v uint16) { w.buf = le.AppendUint16(w.buf, v) }
func (w *writer) u32(v uint32) { w.buf = le.AppendUint32(w.buf, v) }
func (w *writer) f32(v float32) {
	w.buf = le.AppendUint32(w.buf, math32.Float32bits(v))
}

func (w *writer) f32s(vs []float32) {
	for _, v := range vs {
		w.f32(v)
	}
}

func (w *writer) u32s(vs []uint32) {
	for _, v := range vs {
		w.u32(v)
	}
}

func (w *writer) u16s(vs []uint32) {
	for _, v := range vs {
		w.u16(uint16(v))
	}
}

// reader walks a record after its tag. The first short read sets err and
// every later read returns zero.
type reader struct {
	b   []byte
	off int
	err error
}

// newReader checks that b starts with the tag of v.
func newReader(v Variant, b []byte) (*reader, error) {
	tag := v.Tag()
	if len(b) < len(tag) || string(b[:len(tag)]) != tag {
		n := min(len(b), len(tag))
		return nil, fmt.Errorf("%w: want %s, got %q", ErrFormatMismatch, tag, b[:n])
	}
	return &reader{b: b, off: len(tag)}, nil
}

func (r *reader) remaining() int { return len(r.b) - r.off }

// need reserves n bytes, failing if fewer remain.
func (r *reader) need(n int, what string) bool {
	if r.err != nil {
		return false
	}
	if n < 0 || n > r.remaining() {
		r.err = fmt.Errorf("%w: %s needs %d bytes at offset %d, %d left", ErrCorruptPayload, what, n, r.off, r.remaining())
		return false
	}
	return true
}

func (r *reader) u8(what string) uint8 {
	if !r.need(1, what) {
		return 0
	}
	v := r.b[r.off]
	r.off++
	return v
}

func (r *reader) u16(what string) uint16 {
	if !r.need(2, what) {
		return 0
	}
	v := le.Uint16(r.b[r.off:])
	r.off += 2
	return v
}

func (r *reader) u32(what string) uint32 {
	if !r.need(4, what) {
		return 0
	}
	v := le.Uint32(r.b[r.off:])
	r.off += 4
	return v
}

func (r *reader) f32(what string) float32 {
	return math32.Float32frombits(r.u32(what))
}

func (r *reader) f32s(n int, what string) []float32 {
	if !r.need(4*n, what) {
		return nil
	}
	out := make([]float32, n)
	for i := range out {
		out[i] = math32.Float32frombits(le.Uint32(r.b[r.off:]))
		r.off += 4
	}
	return out
}

func (r *reader) u32s(n int, what string) []uint32 {
	if !r.need(4*n, what) {
		return nil
	}
	out := make([]uint32, n)
	for i := range out {
		out[i] = le.Uint32(r.b[r.off:])
		r.off += 4
	}
	return out
}

func (r *reader) u16s(n int, what string) []uint32 {
	if !r.need(2*n, what) {
		return nil
	}
	out := make([]uint32, n)
	for i := range out {
		out[i] = uint32(le.Uint16(r.b[r.off:]))
		r.off += 2
	}
	return out
}

// done reports the sticky error, or a length error if bytes are left over.
func (r *reader) done() error {
	if r.err != nil {
		return r.err
	}
	if n := r.remaining(); n != 0 {
		return fmt.Errorf("%w: %d trailing bytes", ErrCorruptPayload, n)
	}
	return nil
}
