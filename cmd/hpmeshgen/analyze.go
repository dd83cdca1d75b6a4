// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package main

import (
	"github.com/2dChan/hpmesh"
	"github.com/2dChan/hpmesh/meshstats"
	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
)

// report is the TOML document printed by analyze.
type report struct {
	Stats    *meshstats.Stats
	Coverage float64
	// MeanEdgeKm is the mean edge length on the Earth.
	MeanEdgeKm float64
	Lmax       int  `toml:",omitempty"`
	Resolves   bool `toml:",omitempty"`
}

func (a *app) analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Print mesh quality statistics as TOML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := a.loadMesh(hpmesh.WithoutNormals())
			if err != nil {
				return err
			}
			s, err := meshstats.Analyze(m)
			if err != nil {
				return err
			}
			r := report{
				Stats:      s,
				Coverage:   s.Coverage(),
				MeanEdgeKm: s.EdgeLength.Mean * meshstats.EarthRadiusKm,
			}
			if lmax := a.v.GetInt("lmax"); lmax > 0 {
				r.Lmax, r.Resolves = lmax, s.Resolves(lmax)
			}
			return toml.NewEncoder(cmd.OutOrStdout()).Encode(r)
		},
	}
	fs := cmd.Flags()
	fs.String("mesh", "", "mesh file to analyze (samples the map onto an icosphere if empty)")
	fs.Int("depth", defaultDepth, "icosphere subdivision depth without --mesh")
	fs.Int("lmax", 0, "report whether the mesh resolves this spherical harmonic degree")
	return cmd
}
