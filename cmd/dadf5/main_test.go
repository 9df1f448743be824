package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rmera/godadf5/histo"
	"github.com/rmera/godadf5/internal/synth"
)

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var coder interface{ ExitCode() int }
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	return 1
}

func container(Te *testing.T) string {
	Te.Helper()
	name := filepath.Join(Te.TempDir(), "result.dadf5")
	if err := synth.Build(name, synth.Options{}); err != nil {
		Te.Fatal(err)
	}
	return name
}

func TestUsage(Te *testing.T) {
	var out, errs bytes.Buffer
	cases := map[string][]string{
		"no command":       nil,
		"unknown command":  {"frobnicate"},
		"unknown flag":     {"list", "--nope", "x"},
		"no file":          {"list"},
		"bad transform":    {"add", "-t", "nope", "x"},
		"bad mode":         {"vtk", "-l", "F", "-m", "edge", "x"},
		"bad time range":   {"list", "--time-range", "1", "x"},
		"both verbosities": {"list", "-v", "-q", "x"},
	}
	for name, args := range cases {
		if c := exitCode(run(args, &out, &errs)); c != 2 {
			Te.Errorf("%s: exit code %d, want 2", name, c)
		}
	}
	if c := exitCode(run([]string{"list", filepath.Join(Te.TempDir(), "missing")}, &out, &errs)); c != 1 {
		Te.Errorf("missing container: exit code %d, want 1", c)
	}
}

func TestListAndAdd(Te *testing.T) {
	name := container(Te)
	var out, errs bytes.Buffer
	err := run([]string{"add", "-q", "-t", "Mises", "-p", "x=P", "--con", "2_*", name}, &out, &errs)
	if err != nil {
		Te.Fatal(err, errs.String())
	}
	err = run([]string{"list", "--inc", "inc10", "--con", "2_Steel", "--mat-physics", "none", name}, &out, &errs)
	if err != nil {
		Te.Fatal(err)
	}
	s := out.String()
	for _, want := range []string{"layout 0.6", "inc10 (1s)", "2_Steel", "P_vM / (Pa)"} {
		if !strings.Contains(s, want) {
			Te.Errorf("listing lacks %q:\n%s", want, s)
		}
	}
	if strings.Contains(s, "1_Aluminum") || strings.Contains(s, "inc0 ") {
		Te.Errorf("hidden groups listed:\n%s", s)
	}
	out.Reset()
	if err := run([]string{"transforms"}, &out, &errs); err != nil || !strings.Contains(out.String(), "Cauchy: ") {
		Te.Errorf("transforms: %v\n%s", err, out.String())
	}
}

func TestExports(Te *testing.T) {
	name := container(Te)
	dir := Te.TempDir()
	var out, errs bytes.Buffer
	if err := run([]string{"vtk", "-q", "-l", "F", "-d", dir, "-j", "2", name}, &out, &errs); err != nil {
		Te.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "result_inc10.vtr")); err != nil {
		Te.Error(err)
	}
	if err := run([]string{"table", "-q", "--mat-label", "T", name}, &out, &errs); err != nil {
		Te.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(name), "postProc", "result_inc00000.txt")); err != nil {
		Te.Error(err)
	}
	plot := filepath.Join(dir, "T.png")
	out.Reset()
	if err := run([]string{"histogram", "-q", "-l", "T", "-b", "5", "-o", plot, name}, &out, &errs); err != nil {
		Te.Fatal(err)
	}
	if _, err := os.Stat(plot); err != nil {
		Te.Error(err)
	}
	if !strings.HasPrefix(out.String(), "inc0\t") || !strings.Contains(out.String(), "\ninc10\t") {
		Te.Errorf("histogram means %q", out.String())
	}
	js := filepath.Join(dir, "F.json")
	err := run([]string{"histogram", "-q", "-l", "F", "--components", "--diff", "--json", js, "-o", filepath.Join(dir, "F.svg"), name}, &out, &errs)
	if err != nil {
		Te.Fatal(err)
	}
	var m histo.Matrix
	if b, err := os.ReadFile(js); err != nil || json.Unmarshal(b, &m) != nil {
		Te.Fatalf("histogram JSON: %v", err)
	}
	if r, c := m.Dims(); r != 2 || c != 9 {
		Te.Errorf("histograms of F are %dx%d", r, c)
	}
	series := filepath.Join(dir, "F_series.png")
	if err := run([]string{"series", "-q", "-l", "F", "-o", series, name}, &out, &errs); err != nil {
		Te.Fatal(err)
	}
	if _, err := os.Stat(series); err != nil {
		Te.Error(err)
	}
}

func TestRunJob(Te *testing.T) {
	name := container(Te)
	job := filepath.Join(filepath.Dir(name), "job.yaml")
	src := "container: result.dadf5\nworkers: 2\ntransforms:\n  - name: Cauchy\nexport:\n  table:\n    con: [sigma]\n    dir: tables\n"
	if err := os.WriteFile(job, []byte(src), 0o644); err != nil {
		Te.Fatal(err)
	}
	var out, errs bytes.Buffer
	if err := run([]string{"run", "--check", job}, &out, &errs); err != nil {
		Te.Fatal(err)
	}
	if err := run([]string{"run", "-q", job}, &out, &errs); err != nil {
		Te.Fatal(err, errs.String())
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(name), "tables", "result_inc00010.txt")); err != nil {
		Te.Error(err)
	}
	// sigma exists now
	if c := exitCode(run([]string{"run", "-q", job}, &out, &errs)); c != 1 {
		Te.Errorf("second run: exit code %d, want 1", c)
	}
}

func TestGeom2VTK(Te *testing.T) {
	dir := Te.TempDir()
	name := filepath.Join(dir, "box.geom")
	src := "4 header\ngrid a 2 b 2 c 1\nsize x 1 y 1 z 1\norigin x 0 y 0 z 0\nhomogenization 1\n1 2\n2 2\n"
	if err := os.WriteFile(name, []byte(src), 0o644); err != nil {
		Te.Fatal(err)
	}
	var out, errs bytes.Buffer
	if err := run([]string{"geom2vtk", "-q", "--renumber", "--mirror", "x", name}, &out, &errs); err != nil {
		Te.Fatal(err)
	}
	if strings.TrimSpace(out.String()) != filepath.Join(dir, "box.vtr") {
		Te.Errorf("wrote %q", out.String())
	}
	if c := exitCode(run([]string{"geom2vtk", "--mirror", "w", name}, &out, &errs)); c != 2 {
		Te.Errorf("bad mirror direction: exit code %d", c)
	}
}
