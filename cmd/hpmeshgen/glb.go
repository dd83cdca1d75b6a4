// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package main

import (
	"github.com/2dChan/hpmesh/gltfexport"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func (a *app) glbCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "glb",
		Short: "Export a mesh as binary glTF",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := a.loadMesh()
			if err != nil {
				return err
			}
			path := a.outputPath("mesh.glb")
			err = gltfexport.Save(path, m,
				gltfexport.WithExaggeration(float32(a.v.GetFloat64("exaggeration"))),
				gltfexport.WithName(a.v.GetString("name")),
			)
			if err != nil {
				return err
			}
			a.log.WithFields(logrus.Fields{"file": path, "vertices": m.NumVertices()}).Info("wrote glb")
			return nil
		},
	}
	fs := cmd.Flags()
	fs.String("mesh", "", "mesh file to export (samples the map onto an icosphere if empty)")
	fs.Int("depth", defaultDepth, "icosphere subdivision depth without --mesh")
	fs.Float64("exaggeration", 0, "radial displacement in sphere radii per unit of elevation")
	fs.String("name", "hpmesh", "glTF mesh name")
	return cmd
}
