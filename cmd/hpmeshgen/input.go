// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package main

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/2dChan/hpmesh"
	"github.com/2dChan/hpmesh/healpix"
	"github.com/2dChan/hpmesh/icosphere"
	"github.com/2dChan/hpmesh/meshcodec"
	"github.com/2dChan/hpmesh/sampler"
	"github.com/2dChan/hpmesh/utils"
	"github.com/sirupsen/logrus"
)

var errMapLength = errors.New("map size is not a multiple of 4 bytes")

func parseScheme(s string) (healpix.Scheme, error) {
	switch strings.ToLower(s) {
	case "ring":
		return healpix.Ring, nil
	case "nested", "nest":
		return healpix.Nested, nil
	}
	return 0, fmt.Errorf("unknown scheme %q, want ring or nested", s)
}

// readMap reads a raw little-endian float32 map.
func readMap(path string) ([]float32, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("%s: %w: %d", path, errMapLength, len(b))
	}
	values := make([]float32, len(b)/4)
	if err := binary.Read(bytes.NewReader(b), binary.LittleEndian, values); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return values, nil
}

// writeMap writes values as a raw little-endian float32 map.
func writeMap(path string, values []float32) error {
	var buf bytes.Buffer
	buf.Grow(4 * len(values))
	if err := binary.Write(&buf, binary.LittleEndian, values); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// loadField returns the input map, or synthetic terrain without --input,
// downsampled to --target-nside when set.
func (a *app) loadField() (*sampler.Field, error) {
	scheme, err := parseScheme(a.v.GetString("scheme"))
	if err != nil {
		return nil, err
	}

	var f *sampler.Field
	if path := a.v.GetString("input"); path != "" {
		values, err := readMap(path)
		if err != nil {
			return nil, err
		}
		if f, err = sampler.FieldFromValues(values, scheme); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		a.log.WithFields(logrus.Fields{"file": path, "nside": f.Nside, "scheme": scheme}).Debug("read map")
	} else {
		nside := a.v.GetInt("nside")
		if err := healpix.ValidateNside(nside, scheme); err != nil {
			return nil, err
		}
		values, err := utils.FieldFromFunc(nside, scheme, utils.Terrain)
		if err != nil {
			return nil, err
		}
		if f, err = sampler.NewField(values, nside, scheme); err != nil {
			return nil, err
		}
		a.log.WithFields(logrus.Fields{"nside": nside, "scheme": scheme}).Debug("synthetic terrain")
	}

	if target := a.v.GetInt("target-nside"); target > 0 && target != f.Nside {
		if f, err = f.Downsample(target); err != nil {
			return nil, err
		}
		a.log.WithField("nside", target).Debug("downsampled map")
	}
	return f, nil
}

// loadMesh materializes the record in --mesh, or samples the field onto
// the icosphere of --depth without it.
func (a *app) loadMesh(setters ...hpmesh.Option) (*hpmesh.Mesh, error) {
	if path := a.v.GetString("mesh"); path != "" {
		r, err := readRecord(path)
		if err != nil {
			return nil, err
		}
		return hpmesh.Materialize(r, setters...)
	}
	r, err := a.compactRecord()
	if err != nil {
		return nil, err
	}
	return hpmesh.Materialize(r, setters...)
}

func readRecord(path string) (meshcodec.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r, err := meshcodec.Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

func (a *app) compactRecord() (*meshcodec.Compact, error) {
	f, err := a.loadField()
	if err != nil {
		return nil, err
	}
	sphere, err := icosphere.Build(a.v.GetInt("depth"))
	if err != nil {
		return nil, err
	}
	a.log.WithFields(logrus.Fields{"depth": a.v.GetInt("depth"), "vertices": len(sphere.Vertices)}).Debug("built icosphere")
	return &meshcodec.Compact{Depth: a.v.GetInt("depth"), Elevation: f.SampleAll(sphere.Vertices)}, nil
}
