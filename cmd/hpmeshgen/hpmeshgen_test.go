// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/2dChan/hpmesh/healpix"
	"github.com/2dChan/hpmesh/icosphere"
	"github.com/2dChan/hpmesh/meshcodec"
	"github.com/BurntSushi/toml"
	"github.com/google/go-cmp/cmp"
)

func TestParseScheme(t *testing.T) {
	tests := []struct {
		in      string
		want    healpix.Scheme
		wantErr bool
	}{
		{"ring", healpix.Ring, false},
		{"RING", healpix.Ring, false},
		{"nested", healpix.Nested, false},
		{"nest", healpix.Nested, false},
		{"zorder", 0, true},
	}
	for _, tt := range tests {
		got, err := parseScheme(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseScheme(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseScheme(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestMap_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "map.f32")
	want := []float32{1, -2.5, 3e4, 0}
	if err := writeMap(path, want); err != nil {
		t.Fatalf("writeMap(...) error = %v", err)
	}
	got, err := readMap(path)
	if err != nil {
		t.Fatalf("readMap(...) error = %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("readMap(...) mismatch (-want +got):\n%s", diff)
	}
}

func TestCompact(t *testing.T) {
	out := filepath.Join(t.TempDir(), "mesh.hpelev")
	mustRun(t, "compact", "--nside", "16", "--depth", "2", "-o", out)

	r, ok := mustRead(t, out).(*meshcodec.Compact)
	if !ok {
		t.Fatalf("record type = %T, want *meshcodec.Compact", r)
	}
	if r.Depth != 2 || len(r.Elevation) != icosphere.NumVertices(2) {
		t.Errorf("record depth %d with %d samples, want 2 with %d", r.Depth, len(r.Elevation), icosphere.NumVertices(2))
	}
}

func TestCompact_Input(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "map.f32")
	values := make([]float32, healpix.NumPixels(4))
	for i := range values {
		values[i] = 123
	}
	if err := writeMap(in, values); err != nil {
		t.Fatalf("writeMap(...) error = %v", err)
	}
	out := filepath.Join(dir, "mesh.hpelev")
	mustRun(t, "compact", "--input", in, "--scheme", "nested", "--depth", "1", "-o", out)

	r := mustRead(t, out).(*meshcodec.Compact)
	for i, e := range r.Elevation {
		if e != 123 {
			t.Fatalf("r.Elevation[%d] = %v, want 123", i, e)
		}
	}
}

func TestCompact_TargetNside(t *testing.T) {
	out := filepath.Join(t.TempDir(), "mesh.hpelev")
	mustRun(t, "compact", "--nside", "32", "--target-nside", "8", "--depth", "1", "-o", out)
	if _, ok := mustRead(t, out).(*meshcodec.Compact); !ok {
		t.Error("record is not HPELEV")
	}
}

func TestGradient(t *testing.T) {
	out := filepath.Join(t.TempDir(), "mesh.hpgrad")
	mustRun(t, "gradient", "--nside", "16", "--depth", "2", "-o", out)

	r, ok := mustRead(t, out).(*meshcodec.Gradient)
	if !ok {
		t.Fatalf("record type = %T, want *meshcodec.Gradient", r)
	}
	n := icosphere.NumVertices(2)
	if len(r.Elevation) != n || len(r.DLat) != n || len(r.DLon) != n {
		t.Errorf("record lengths = %d, %d, %d, want %d", len(r.Elevation), len(r.DLat), len(r.DLon), n)
	}
}

func TestFull(t *testing.T) {
	out := filepath.Join(t.TempDir(), "mesh.hpmesh")
	mustRun(t, "full", "--nside", "4", "-o", out)

	r, ok := mustRead(t, out).(*meshcodec.Full)
	if !ok {
		t.Fatalf("record type = %T, want *meshcodec.Full", r)
	}
	if got, want := r.NumVertices(), healpix.NumPixels(4); got != want {
		t.Errorf("r.NumVertices() = %d, want %d", got, want)
	}
}

func TestAdaptive(t *testing.T) {
	tests := []struct {
		name string
		args []string
		max  int
	}{
		{"max vertices", []string{"--max-vertices", "200"}, 200},
		{"preset override", []string{"--preset", "low", "--max-vertices", "100"}, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := filepath.Join(t.TempDir(), "mesh.adamesh")
			mustRun(t, append([]string{"adaptive", "--nside", "16", "-o", out}, tt.args...)...)

			r, ok := mustRead(t, out).(*meshcodec.Adaptive)
			if !ok {
				t.Fatalf("record type = %T, want *meshcodec.Adaptive", r)
			}
			if n := r.NumVertices(); n < 12 || n > tt.max {
				t.Errorf("r.NumVertices() = %d, want in [12 %d]", n, tt.max)
			}
		})
	}
}

func TestContours(t *testing.T) {
	dir := t.TempDir()
	mesh := filepath.Join(dir, "mesh.hpelev")
	mustRun(t, "compact", "--nside", "32", "--depth", "4", "-o", mesh)

	out := filepath.Join(dir, "contours.bin")
	mustRun(t, "contours", "--mesh", mesh, "--levels", "6", "-o", out)

	set, ok := mustRead(t, out).(*meshcodec.ContourSet)
	if !ok {
		t.Fatalf("record type = %T, want *meshcodec.ContourSet", set)
	}
	if len(set.Levels) == 0 || set.NumPolygons() == 0 {
		t.Errorf("contour set has %d levels, %d polygons, want some", len(set.Levels), set.NumPolygons())
	}
}

func TestAnalyze(t *testing.T) {
	out := mustRun(t, "analyze", "--nside", "16", "--depth", "3", "--lmax", "8")

	var r report
	if _, err := toml.Decode(out, &r); err != nil {
		t.Fatalf("toml.Decode(...) error = %v\n%s", err, out)
	}
	if r.Stats == nil {
		t.Fatalf("report has no stats:\n%s", out)
	}
	if got, want := r.Stats.NumVertices, icosphere.NumVertices(3); got != want {
		t.Errorf("r.Stats.NumVertices = %d, want %d", got, want)
	}
	if r.Lmax != 8 || !r.Resolves {
		t.Errorf("r.Lmax, r.Resolves = %d, %v, want 8, true", r.Lmax, r.Resolves)
	}
}

func TestGLB(t *testing.T) {
	out := filepath.Join(t.TempDir(), "mesh.glb")
	mustRun(t, "glb", "--nside", "8", "--depth", "2", "--exaggeration", "1e-5", "-o", out)

	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("os.ReadFile(...) error = %v", err)
	}
	if len(b) < 4 || string(b[:4]) != "glTF" {
		t.Errorf("output does not start with the GLB magic")
	}
}

func TestBundles(t *testing.T) {
	dir := t.TempDir()
	mustRun(t, "bundles", "--nside", "8", "--presets", "low", "--dir", dir)

	var man manifest
	if _, err := toml.DecodeFile(filepath.Join(dir, manifestName), &man); err != nil {
		t.Fatalf("toml.DecodeFile(...) error = %v", err)
	}
	if man.Nside != 8 || man.Scheme != "RING" {
		t.Errorf("manifest nside, scheme = %d, %q, want 8, %q", man.Nside, man.Scheme, "RING")
	}
	if len(man.Bundles) != 1 {
		t.Fatalf("len(man.Bundles) = %d, want 1", len(man.Bundles))
	}

	b := man.Bundles[0]
	r, ok := mustRead(t, filepath.Join(dir, b.File)).(*meshcodec.Adaptive)
	if !ok {
		t.Fatalf("%s is not ADAMESH", b.File)
	}
	if r.NumVertices() != b.Vertices || r.Size() != b.Bytes {
		t.Errorf("%s has %d vertices, %d bytes, manifest says %d, %d", b.File, r.NumVertices(), r.Size(), b.Vertices, b.Bytes)
	}
	if _, ok := mustRead(t, filepath.Join(dir, b.Contours)).(*meshcodec.ContourSet); !ok {
		t.Errorf("%s is not CONTOUR", b.Contours)
	}
}

func TestConfig(t *testing.T) {
	dir := t.TempDir()
	config := filepath.Join(dir, "hpmesh.toml")
	if err := os.WriteFile(config, []byte("nside = 8\ndepth = 1\n"), 0o644); err != nil {
		t.Fatalf("os.WriteFile(...) error = %v", err)
	}

	out := filepath.Join(dir, "file.hpelev")
	mustRun(t, "compact", "--config", config, "-o", out)
	if got := mustRead(t, out).(*meshcodec.Compact).Depth; got != 1 {
		t.Errorf("depth from config = %d, want 1", got)
	}

	// Flags win over the file.
	mustRun(t, "compact", "--config", config, "--depth", "2", "-o", out)
	if got := mustRead(t, out).(*meshcodec.Compact).Depth; got != 2 {
		t.Errorf("depth from flag = %d, want 2", got)
	}
}

func TestEnv(t *testing.T) {
	t.Setenv("HPMESH_DEPTH", strconv.Itoa(3))
	t.Setenv("HPMESH_NSIDE", "8")

	out := filepath.Join(t.TempDir(), "env.hpelev")
	mustRun(t, "compact", "-o", out)
	if got := mustRead(t, out).(*meshcodec.Compact).Depth; got != 3 {
		t.Errorf("depth from env = %d, want 3", got)
	}
}

func TestErrors(t *testing.T) {
	dir := t.TempDir()
	odd := filepath.Join(dir, "odd.f32")
	if err := os.WriteFile(odd, []byte{1, 2, 3}, 0o644); err != nil {
		t.Fatalf("os.WriteFile(...) error = %v", err)
	}
	short := filepath.Join(dir, "short.f32")
	if err := writeMap(short, make([]float32, 10)); err != nil {
		t.Fatalf("writeMap(...) error = %v", err)
	}
	out := filepath.Join(dir, "out")

	tests := []struct {
		name string
		args []string
	}{
		{"bad scheme", []string{"compact", "--scheme", "zorder", "-o", out}},
		{"bad nside", []string{"compact", "--nside", "3", "--scheme", "nested", "-o", out}},
		{"odd map", []string{"compact", "--input", odd, "-o", out}},
		{"short map", []string{"compact", "--input", short, "-o", out}},
		{"missing map", []string{"compact", "--input", filepath.Join(dir, "none"), "-o", out}},
		{"depth too large", []string{"compact", "--nside", "4", "--depth", "99", "-o", out}},
		{"unknown preset", []string{"adaptive", "--nside", "4", "--preset", "extreme", "-o", out}},
		{"missing mesh", []string{"analyze", "--mesh", filepath.Join(dir, "none")}},
		{"unknown bundle", []string{"bundles", "--nside", "4", "--presets", "extreme", "--dir", dir}},
		{"missing config", []string{"compact", "--config", filepath.Join(dir, "none.toml")}},
		{"extra args", []string{"compact", "extra"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := run(tt.args...); err == nil {
				t.Errorf("run(%q) error = nil, want non-nil", tt.args)
			}
		})
	}
}

// Helpers

func run(args ...string) (string, error) {
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := run(args...)
	if err != nil {
		t.Fatalf("run(%q) error = %v", args, err)
	}
	return out
}

func mustRead(t *testing.T, path string) meshcodec.Record {
	t.Helper()
	r, err := readRecord(path)
	if err != nil {
		t.Fatalf("readRecord(%q) error = %v", path, err)
	}
	return r
}
