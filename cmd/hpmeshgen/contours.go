// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package main

import (
	"slices"

	"github.com/2dChan/hpmesh"
	"github.com/2dChan/hpmesh/contour"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func (a *app) contoursCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contours",
		Short: "Extract elevation contours and write a CONTOUR file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := a.loadMesh(hpmesh.WithoutNormals())
			if err != nil {
				return err
			}
			lo, hi := slices.Min(m.Elevation), slices.Max(m.Elevation)
			levels, err := contour.Levels(lo, hi, a.v.GetInt("levels"))
			if err != nil {
				return err
			}
			set, err := contour.Extract(m, levels,
				contour.WithMinVertices(a.v.GetInt("min-vertices")),
				contour.WithMaxVertices(a.v.GetInt("max-vertices")),
				contour.WithMinArea(a.v.GetFloat64("min-area")),
			)
			if err != nil {
				return err
			}
			a.log.WithFields(logrus.Fields{
				"levels":   len(set.Levels),
				"polygons": set.NumPolygons(),
			}).Info("extracted contours")
			return a.writeRecord(set, "contours.bin")
		},
	}
	fs := cmd.Flags()
	fs.String("mesh", "", "mesh file to contour (samples the map onto an icosphere if empty)")
	fs.Int("depth", defaultDepth, "icosphere subdivision depth without --mesh")
	fs.Int("levels", contour.DefaultNumLevels, "number of contour levels")
	fs.Int("min-vertices", contour.DefaultMinVertices, "drop polygons with fewer vertices")
	fs.Int("max-vertices", contour.DefaultMaxVertices, "downsample polygons to at most this many vertices")
	fs.Float64("min-area", 0, "drop polygons whose lon/lat bounding box is smaller, in square degrees")
	return cmd
}
