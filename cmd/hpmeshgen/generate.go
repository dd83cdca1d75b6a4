// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package main

import (
	"github.com/2dChan/hpmesh/adaptive"
	"github.com/2dChan/hpmesh/icosphere"
	"github.com/2dChan/hpmesh/meshcodec"
	"github.com/2dChan/hpmesh/pixmesh"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const defaultDepth = 6

func (a *app) fullCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "full",
		Short: "Triangulate the pixel centres of the map into an HPMESH file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := a.loadField()
			if err != nil {
				return err
			}
			t, err := pixmesh.New(f.Nside, f.Scheme)
			if err != nil {
				return err
			}
			r, err := t.Record(f)
			if err != nil {
				return err
			}
			a.log.WithFields(logrus.Fields{
				"vertices":  r.NumVertices(),
				"triangles": len(r.Indices) / 3,
			}).Debug("triangulated pixel centres")
			return a.writeRecord(r, "mesh.hpmesh")
		},
	}
}

func (a *app) compactCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compact",
		Short: "Sample the map onto an icosphere and write an HPELEV file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := a.compactRecord()
			if err != nil {
				return err
			}
			return a.writeRecord(r, "mesh.hpelev")
		},
	}
	cmd.Flags().Int("depth", defaultDepth, "icosphere subdivision depth")
	return cmd
}

func (a *app) gradientCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gradient",
		Short: "Sample the map and its gradient onto an icosphere and write an HPGRAD file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := a.loadField()
			if err != nil {
				return err
			}
			depth := a.v.GetInt("depth")
			sphere, err := icosphere.Build(depth)
			if err != nil {
				return err
			}
			dLat, dLon := f.GradientAll(sphere.Vertices)
			r := &meshcodec.Gradient{
				Depth:     depth,
				Elevation: f.SampleAll(sphere.Vertices),
				DLat:      dLat,
				DLon:      dLon,
			}
			return a.writeRecord(r, "mesh.hpgrad")
		},
	}
	cmd.Flags().Int("depth", defaultDepth, "icosphere subdivision depth")
	return cmd
}

func (a *app) adaptiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "adaptive",
		Short: "Refine an icosphere where the map varies most and write an ADAMESH file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := a.loadField()
			if err != nil {
				return err
			}
			opts, err := a.refineOptions()
			if err != nil {
				return err
			}
			m, err := adaptive.Refine(f, opts...)
			if err != nil {
				return err
			}
			a.log.WithFields(logrus.Fields{
				"vertices":  len(m.Vertices),
				"triangles": len(m.Triangles),
				"max_error": m.MaxError,
			}).Info("refined mesh")
			return a.writeRecord(m.Record(), "mesh.adamesh")
		},
	}
	fs := cmd.Flags()
	fs.String("preset", "", "quality preset: low, medium, high or ultra")
	fs.Int("max-vertices", adaptive.DefaultMaxVertices, "vertex budget")
	fs.Float64("error-threshold", adaptive.DefaultErrorThreshold, "stop once no triangle has a larger interpolation error")
	fs.Float64("min-edge-length", adaptive.DefaultMinEdgeLength, "never split edges shorter than this many radians")
	return cmd
}

// refineOptions applies --preset first so explicit limits override it.
func (a *app) refineOptions() ([]adaptive.Option, error) {
	var opts []adaptive.Option
	if name := a.v.GetString("preset"); name != "" {
		p, err := adaptive.PresetByName(name)
		if err != nil {
			return nil, err
		}
		opts = append(opts, adaptive.WithPreset(p))
	}
	if a.v.GetString("preset") == "" || a.v.IsSet("max-vertices") {
		opts = append(opts, adaptive.WithMaxVertices(a.v.GetInt("max-vertices")))
	}
	if a.v.GetString("preset") == "" || a.v.IsSet("error-threshold") {
		opts = append(opts, adaptive.WithErrorThreshold(a.v.GetFloat64("error-threshold")))
	}
	opts = append(opts, adaptive.WithMinEdgeLength(a.v.GetFloat64("min-edge-length")))
	return opts, nil
}
