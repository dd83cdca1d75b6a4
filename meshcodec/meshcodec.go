// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package meshcodec encodes and decodes the binary mesh formats.
//
// Every blob starts with an ASCII tag naming its variant, followed by fixed
// metadata and parallel attribute arrays. Multi-byte fields are little-endian,
// floats are IEEE 754 binary32, and there is no padding: the total length is
// determined by the header, and decoders reject any other length.
//
// Decoders read metadata and attributes only. Formats without stored
// topology (HPELEV, HPGRAD) carry a subdivision depth; rebuilding the
// icosphere for it is left to the caller.
package meshcodec

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

var (
	ErrFormatMismatch     = errors.New("meshcodec: format mismatch")
	ErrCorruptPayload     = errors.New("meshcodec: corrupt payload")
	ErrUnsupportedVersion = errors.New("meshcodec: unsupported version")
	ErrInvalidMesh        = errors.New("meshcodec: invalid mesh")
)

// Variant identifies one of the five record formats.
type Variant uint8

const (
	VariantFull Variant = iota
	VariantCompact
	VariantGradient
	VariantAdaptive
	VariantContour
)

var variantTags = [...]string{
	VariantFull:     "HPMESH",
	VariantCompact:  "HPELEV",
	VariantGradient: "HPGRAD",
	VariantAdaptive: "ADAMESH",
	VariantContour:  "CONTOUR",
}

// Tag returns the magic bytes that start a record of variant v.
func (v Variant) Tag() string {
	if int(v) < len(variantTags) {
		return variantTags[v]
	}
	return ""
}

func (v Variant) String() string {
	if t := v.Tag(); t != "" {
		return t
	}
	return fmt.Sprintf("Variant(%d)", uint8(v))
}

// Record is a decoded blob. It is implemented by *Full, *Compact,
// *Gradient, *Adaptive and *ContourSet only.
type Record interface {
	// Variant reports the record format.
	Variant() Variant
	// Size returns the exact encoded length in bytes.
	Size() int
	sealed()
}

// Detect returns the variant whose tag starts b.
func Detect(b []byte) (Variant, error) {
	for v, tag := range variantTags {
		if bytes.HasPrefix(b, []byte(tag)) {
			return Variant(v), nil
		}
	}
	n := min(len(b), 7)
	return 0, fmt.Errorf("%w: unknown tag %q", ErrFormatMismatch, b[:n])
}

// Encode serializes r in its own format.
func Encode(r Record) ([]byte, error) {
	switch r := r.(type) {
	case *Full:
		return EncodeFull(r)
	case *Compact:
		return EncodeCompact(r)
	case *Gradient:
		return EncodeGradient(r)
	case *Adaptive:
		return EncodeAdaptive(r)
	case *ContourSet:
		return EncodeContour(r)
	case nil:
		return nil, fmt.Errorf("%w: nil record", ErrInvalidMesh)
	}
	panic(fmt.Sprintf("meshcodec: unknown record type %T", r))
}

// Decode parses b as whichever variant its tag names.
func Decode(b []byte) (Record, error) {
	v, err := Detect(b)
	if err != nil {
		return nil, err
	}
	// Typed nil pointers must not escape as non-nil Records.
	var r Record
	switch v {
	case VariantFull:
		var m *Full
		if m, err = DecodeFull(b); err == nil {
			r = m
		}
	case VariantCompact:
		var m *Compact
		if m, err = DecodeCompact(b); err == nil {
			r = m
		}
	case VariantGradient:
		var m *Gradient
		if m, err = DecodeGradient(b); err == nil {
			r = m
		}
	case VariantAdaptive:
		var m *Adaptive
		if m, err = DecodeAdaptive(b); err == nil {
			r = m
		}
	case VariantContour:
		var m *ContourSet
		if m, err = DecodeContour(b); err == nil {
			r = m
		}
	default:
		panic(fmt.Sprintf("meshcodec: unhandled variant %v", v))
	}
	return r, err
}

// Write encodes r to w.
func Write(w io.Writer, r Record) error {
	b, err := Encode(r)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

// Read consumes rd to EOF and decodes the result.
func Read(rd io.Reader) (Record, error) {
	b, err := io.ReadAll(rd)
	if err != nil {
		return nil, err
	}
	return Decode(b)
}
