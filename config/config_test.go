package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	dadf5 "github.com/rmera/godadf5"
	"github.com/rmera/godadf5/internal/synth"
)

const yamlJob = `
container: result.dadf5
workers: 4
select:
  constituents: ["*Steel"]
  times: {start: 0.5, end: 2}
transforms:
  - name: Cauchy
  - name: Mises
    params: {x: sigma}
export:
  vtk:
    labels: [sigma, sigma_vM]
    mode: point
  table:
    con: [sigma]
`

func TestLoadYAML(Te *testing.T) {
	dir := Te.TempDir()
	p := filepath.Join(dir, "job.yaml")
	if err := os.WriteFile(p, []byte(yamlJob), 0o644); err != nil {
		Te.Fatal(err)
	}
	Te.Setenv(EnvVar, p)
	j, err := Load()
	if err != nil {
		Te.Fatal(err)
	}
	if err := j.Validate(); err != nil {
		Te.Fatal(err)
	}
	if j.Container != filepath.Join(dir, "result.dadf5") || j.Workers != 4 {
		Te.Errorf("container %q with %d workers", j.Container, j.Workers)
	}
	if len(j.Transforms) != 2 || j.Transforms[1].Params["x"] != "sigma" {
		Te.Errorf("transforms %+v", j.Transforms)
	}
	if m, _ := j.VTKMode(); m != dadf5.PointMode || j.Export.VTK.Dir != "." {
		Te.Errorf("vtk export %+v", j.Export.VTK)
	}
	if j.TableDir() != filepath.Join(dir, DefaultTableDir) {
		Te.Errorf("table dir %q", j.TableDir())
	}
}

func TestLoadJSONC(Te *testing.T) {
	src := `{
	// comments and trailing commas are fine
	"container": "/data/result.dadf5",
	"transforms": [{"name": "norm", "params": {"x": "F", "ord": "fro"}},],
	"export": {
		"histogram": {"label": "T", "file": "T.png", "diff": true, "json": "T.json"},
		"series": {"label": "F", "file": "F.svg"},
	},
}`
	j, err := Parse([]byte(src), ".jsonc")
	if err != nil {
		Te.Fatal(err)
	}
	if err := j.Validate(); err != nil {
		Te.Fatal(err)
	}
	if j.Workers != 1 || j.Export.Histogram.Bins != DefaultBins {
		Te.Errorf("defaults not applied: %+v", j)
	}
	if h := j.Export.Histogram; !h.Diff || h.Components || h.JSON != "T.json" || j.Export.Series.Label != "F" {
		Te.Errorf("histogram %+v, series %+v", h, j.Export.Series)
	}
}

func TestValidate(Te *testing.T) {
	cases := map[string]string{
		"unknown transform":   "container: a\ntransforms: [{name: nope}]\n",
		"unknown parameter":   "container: a\ntransforms: [{name: Mises, params: {y: F}}]\n",
		"missing parameter":   "container: a\ntransforms: [{name: Mises}]\n",
		"bad mode":            "container: a\nexport: {vtk: {labels: [F], mode: edge}}\n",
		"no container":        "workers: 2\n",
		"reversed times":      "container: a\nselect: {times: {start: 2, end: 1}}\n",
		"series without file": "container: a\nexport: {series: {label: T}}\n",
	}
	for name, src := range cases {
		Te.Run(name, func(Te *testing.T) {
			j, err := Parse([]byte(src), ".yaml")
			if err != nil {
				Te.Fatal(err)
			}
			if err := j.Validate(); err == nil {
				Te.Error("invalid job accepted")
			}
		})
	}
	if _, err := Parse([]byte("container: [a"), ".yml"); err == nil {
		Te.Error("broken YAML parsed")
	}
	Te.Setenv(EnvVar, "")
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), EnvVar) {
		Te.Errorf("load without %s gave %v", EnvVar, err)
	}
}

func TestApply(Te *testing.T) {
	name := filepath.Join(Te.TempDir(), "result.dadf5")
	if err := synth.Build(name, synth.Options{Increments: []int{0, 5, 10}}); err != nil {
		Te.Fatal(err)
	}
	r, err := dadf5.Open(name)
	if err != nil {
		Te.Fatal(err)
	}
	s := Selection{
		Increments:     []string{"inc0", "inc5"},
		Constituents:   []string{"*Steel"},
		Times:          &Range{Start: 0.4, End: 2},
		IncrementRange: &IntRange{Start: 0, End: 100},
	}
	if err := s.Apply(r); err != nil {
		Te.Fatal(err)
	}
	if v := r.Visible(dadf5.Increments); !slices.Equal(v, []string{"inc5"}) {
		Te.Errorf("increments %v", v)
	}
	if v := r.Visible(dadf5.Constituents); !slices.Equal(v, []string{"2_Steel"}) {
		Te.Errorf("constituents %v", v)
	}
}
