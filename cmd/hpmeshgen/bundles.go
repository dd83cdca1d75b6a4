// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/2dChan/hpmesh"
	"github.com/2dChan/hpmesh/adaptive"
	"github.com/2dChan/hpmesh/contour"
	"github.com/2dChan/hpmesh/meshcodec"
	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const manifestName = "manifest.toml"

// manifest lists the files of a bundle directory.
type manifest struct {
	Nside   int      `toml:"nside"`
	Scheme  string   `toml:"scheme"`
	Bundles []bundle `toml:"bundle"`
}

type bundle struct {
	Name           string  `toml:"name"`
	File           string  `toml:"file"`
	Contours       string  `toml:"contours,omitempty"`
	Vertices       int     `toml:"vertices"`
	Triangles      int     `toml:"triangles"`
	Bytes          int     `toml:"bytes"`
	MaxVertices    int     `toml:"max_vertices"`
	ErrorThreshold float64 `toml:"error_threshold"`
	MaxError       float64 `toml:"max_error"`
}

func (a *app) bundlesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bundles",
		Short: "Write one adaptive mesh per quality preset plus a TOML manifest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.writeBundles()
		},
	}
	fs := cmd.Flags()
	fs.String("dir", "bundles", "output directory")
	fs.StringSlice("presets", presetNames(), "presets to generate")
	fs.Bool("contours", true, "also write the contours of each mesh")
	return cmd
}

func presetNames() []string {
	names := make([]string, len(adaptive.Presets))
	for i, p := range adaptive.Presets {
		names[i] = p.Name
	}
	return names
}

func (a *app) writeBundles() error {
	f, err := a.loadField()
	if err != nil {
		return err
	}
	dir := a.v.GetString("dir")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	names := a.v.GetStringSlice("presets")
	man := manifest{Nside: f.Nside, Scheme: f.Scheme.String()}
	for _, p := range adaptive.Presets {
		if !slices.Contains(names, p.Name) {
			continue
		}
		m, err := adaptive.Refine(f, adaptive.WithPreset(p))
		if err != nil {
			return fmt.Errorf("preset %s: %w", p.Name, err)
		}
		r := m.Record()
		b := bundle{
			Name:           p.Name,
			File:           p.Name + ".adamesh",
			Vertices:       len(m.Vertices),
			Triangles:      len(m.Triangles),
			Bytes:          r.Size(),
			MaxVertices:    p.MaxVertices,
			ErrorThreshold: p.ErrorThreshold,
			MaxError:       m.MaxError,
		}
		if err := writeFile(filepath.Join(dir, b.File), r); err != nil {
			return err
		}
		if a.v.GetBool("contours") {
			b.Contours = p.Name + ".contour"
			if err := writeContours(filepath.Join(dir, b.Contours), r); err != nil {
				return err
			}
		}
		a.log.WithFields(logrus.Fields{
			"preset":    p.Name,
			"vertices":  b.Vertices,
			"max_error": b.MaxError,
		}).Info("wrote bundle")
		man.Bundles = append(man.Bundles, b)
	}
	if len(man.Bundles) == 0 {
		return fmt.Errorf("no known presets in %v", names)
	}

	out, err := os.Create(filepath.Join(dir, manifestName))
	if err != nil {
		return err
	}
	if err := toml.NewEncoder(out).Encode(man); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func writeContours(path string, r *meshcodec.Adaptive) error {
	m, err := hpmesh.Materialize(r, hpmesh.WithoutNormals())
	if err != nil {
		return err
	}
	levels, err := contour.Levels(slices.Min(m.Elevation), slices.Max(m.Elevation), contour.DefaultNumLevels)
	if err != nil {
		return err
	}
	set, err := contour.Extract(m, levels)
	if err != nil {
		return err
	}
	return writeFile(path, set)
}

func writeFile(path string, r meshcodec.Record) error {
	b, err := meshcodec.Encode(r)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return os.WriteFile(path, b, 0o644)
}
