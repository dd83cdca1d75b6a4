// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package main

import (
	"fmt"
	"strings"

	"github.com/2dChan/hpmesh/meshcodec"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "HPMESH"

// app carries the configuration and logger of one invocation.
type app struct {
	v   *viper.Viper
	log *logrus.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New(), log: logrus.New()}

	root := &cobra.Command{
		Use:           "hpmeshgen",
		Short:         "Generate icosphere meshes from HEALPix elevation maps",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "TOML configuration file")
	pf.BoolP("verbose", "v", false, "log progress at debug level")
	pf.String("input", "", "raw little-endian float32 HEALPix map (synthetic terrain if empty)")
	pf.String("scheme", "ring", "pixel ordering of the input map: ring or nested")
	pf.Int("nside", 64, "resolution of the synthetic map")
	pf.Int("target-nside", 0, "average the map down to this resolution first (0 keeps it)")
	pf.StringP("output", "o", "", "output file")

	root.AddCommand(
		a.fullCmd(),
		a.compactCmd(),
		a.gradientCmd(),
		a.adaptiveCmd(),
		a.contoursCmd(),
		a.analyzeCmd(),
		a.bundlesCmd(),
		a.glbCmd(),
	)
	return root
}

// setup binds the flags of the running command, HPMESH_* environment
// variables and the optional config file. Flags win over the environment,
// which wins over the file.
func (a *app) setup(cmd *cobra.Command) error {
	a.log.SetOutput(cmd.ErrOrStderr())

	if err := a.v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	a.v.SetEnvPrefix(envPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	if path := a.v.GetString("config"); path != "" {
		a.v.SetConfigFile(path)
		a.v.SetConfigType("toml")
		if err := a.v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	if a.v.GetBool("verbose") {
		a.log.SetLevel(logrus.DebugLevel)
	}
	return nil
}

// outputPath returns --output, or def when it is unset.
func (a *app) outputPath(def string) string {
	if p := a.v.GetString("output"); p != "" {
		return p
	}
	return def
}

// writeRecord encodes r to the output file, def unless --output is set.
func (a *app) writeRecord(r meshcodec.Record, def string) error {
	path := a.outputPath(def)
	if err := writeFile(path, r); err != nil {
		return err
	}
	a.log.WithFields(logrus.Fields{
		"file":    path,
		"variant": r.Variant(),
		"bytes":   r.Size(),
	}).Info("wrote record")
	return nil
}
