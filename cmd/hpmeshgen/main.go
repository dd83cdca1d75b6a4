// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Command hpmeshgen generates mesh, contour and GLB files from HEALPix
// elevation maps.
//
// Input maps are raw little-endian float32 files of 12*nside^2 samples.
// Without --input a synthetic terrain of --nside is used. Every flag can
// also be set from a TOML file given by --config or from an HPMESH_*
// environment variable, e.g. HPMESH_MAX_VERTICES for --max-vertices.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
