package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"

	dadf5 "github.com/rmera/godadf5"
	"github.com/rmera/godadf5/config"
	"github.com/rmera/godadf5/geom"
	"github.com/rmera/godadf5/vtk"
)

func setupTransforms(fs *pflag.FlagSet, e *env) func([]string) error {
	return func(args []string) error {
		if len(args) != 0 {
			return usagef("transforms takes no arguments")
		}
		for _, n := range dadf5.Transforms() {
			h, _ := dadf5.TransformHelp(n)
			fmt.Fprintln(e.stdout, h)
		}
		return nil
	}
}

func setupAdd(fs *pflag.FlagSet, e *env) func([]string) error {
	e.containerFlags(fs)
	name := fs.StringP("transform", "t", "", "name of the transform (see 'dadf5 transforms')")
	params := fs.StringToStringP("param", "p", nil, "transform parameter `key=value`, repeatable")
	return func(args []string) error {
		if *name == "" {
			return usagef("--transform is required")
		}
		// parameters are checked before the container is touched
		if _, _, _, err := dadf5.BuildTransform(*name, dadf5.Params(*params)); err != nil {
			return &usageError{err}
		}
		r, err := e.open(args)
		if err != nil {
			return err
		}
		return r.Add(*name, dadf5.Params(*params))
	}
}

func setupVTK(fs *pflag.FlagSet, e *env) func([]string) error {
	e.containerFlags(fs)
	labels := fs.StringSliceP("label", "l", nil, "labels of the datasets to export, repeatable")
	mode := fs.StringP("mode", "m", "cell", "attach data to cells or points: cell|point")
	dir := fs.StringP("dir", "d", ".", "output directory")
	return func(args []string) error {
		if len(*labels) == 0 {
			return usagef("at least one --label is required")
		}
		m, err := dadf5.ParseExportMode(*mode)
		if err != nil {
			return &usageError{err}
		}
		r, err := e.open(args)
		if err != nil {
			return err
		}
		files, err := r.ToVTK(*dir, *labels, m)
		for _, f := range files {
			fmt.Fprintln(e.stdout, f)
		}
		return err
	}
}

func setupTable(fs *pflag.FlagSet, e *env) func([]string) error {
	e.containerFlags(fs)
	con := fs.StringSlice("con-label", nil, "constituent labels to export")
	mat := fs.StringSlice("mat-label", nil, "material point labels to export")
	dir := fs.StringP("dir", "d", config.DefaultTableDir, "output directory, relative to the container")
	return func(args []string) error {
		if len(*con)+len(*mat) == 0 {
			return usagef("at least one --con-label or --mat-label is required")
		}
		r, err := e.open(args)
		if err != nil {
			return err
		}
		out := *dir
		if !filepath.IsAbs(out) {
			out = filepath.Join(filepath.Dir(r.FileName()), out)
		}
		files, err := r.ToTables(out, *con, *mat)
		for _, f := range files {
			fmt.Fprintln(e.stdout, f)
		}
		return err
	}
}

func setupHistogram(fs *pflag.FlagSet, e *env) func([]string) error {
	e.containerFlags(fs)
	var h config.HistogramExport
	fs.StringVarP(&h.Label, "label", "l", "", "label of the dataset")
	fs.IntVarP(&h.Bins, "bins", "b", config.DefaultBins, "number of bins")
	fs.StringVarP(&h.File, "out", "o", "", "plot file; the extension picks the format (png, svg, pdf)")
	fs.BoolVar(&h.Diff, "diff", false, "plot each increment relative to the first visible one")
	fs.BoolVar(&h.Components, "components", false, "one histogram per component")
	fs.StringVar(&h.JSON, "json", "", "also write the histograms to this JSON file")
	return func(args []string) error {
		if h.Label == "" || h.File == "" {
			return usagef("--label and --out are required")
		}
		if h.Bins < 1 {
			return usagef("--bins must be positive")
		}
		r, err := e.open(args)
		if err != nil {
			return err
		}
		return plotHistograms(r, h, e.stdout)
	}
}

func setupSeries(fs *pflag.FlagSet, e *env) func([]string) error {
	e.containerFlags(fs)
	var s config.SeriesExport
	fs.StringVarP(&s.Label, "label", "l", "", "label of the dataset")
	fs.StringVarP(&s.File, "out", "o", "", "plot file; the extension picks the format (png, svg, pdf)")
	return func(args []string) error {
		if s.Label == "" || s.File == "" {
			return usagef("--label and --out are required")
		}
		r, err := e.open(args)
		if err != nil {
			return err
		}
		return plotSeries(r, s)
	}
}

func setupRun(fs *pflag.FlagSet, e *env) func([]string) error {
	check := fs.Bool("check", false, "validate the job and exit")
	return func(args []string) error {
		var job *config.Job
		var err error
		switch len(args) {
		case 0:
			job, err = config.Load()
		case 1:
			job, err = config.LoadFile(args[0])
		default:
			return usagef("run takes at most one job file")
		}
		if err != nil {
			return &usageError{err}
		}
		if err := job.Validate(); err != nil {
			return &usageError{err}
		}
		if *check {
			return nil
		}
		return runJob(e, job)
	}
}

// runJob adds the transforms of job in order, then writes its exports.
func runJob(e *env, job *config.Job) error {
	r, err := dadf5.Open(job.Container, dadf5.WithLogger(e.log), dadf5.WithWorkers(job.Workers))
	if err != nil {
		return err
	}
	if err := job.Select.Apply(r); err != nil {
		return err
	}
	for _, t := range job.Transforms {
		e.log.Info("adding", "transform", t.Name, "params", t.Params)
		if err := r.Add(t.Name, dadf5.Params(t.Params)); err != nil {
			return err
		}
	}
	if v := job.Export.VTK; v != nil {
		m, _ := job.VTKMode()
		if _, err := r.ToVTK(v.Dir, v.Labels, m); err != nil {
			return err
		}
	}
	if t := job.Export.Table; t != nil {
		if _, err := r.ToTables(job.TableDir(), t.Con, t.Mat); err != nil {
			return err
		}
	}
	if h := job.Export.Histogram; h != nil {
		if err := plotHistograms(r, *h, e.stdout); err != nil {
			return err
		}
	}
	if s := job.Export.Series; s != nil {
		return plotSeries(r, *s)
	}
	return nil
}

func setupGeom2VTK(fs *pflag.FlagSet, e *env) func([]string) error {
	mirror := fs.StringSlice("mirror", nil, "mirror along these directions (x, y, z)")
	reflect := fs.Bool("reflect", false, "include the outermost layers when mirroring")
	clean := fs.Int("clean", 0, "smooth with a majority filter of this stencil size")
	renumber := fs.Bool("renumber", false, "renumber microstructures to 1..N")
	dir := fs.StringP("dir", "d", "", "output directory, default next to the input")
	ascii := fs.Bool("ascii", false, "write ASCII instead of compressed binary data")
	return func(args []string) error {
		if len(args) == 0 {
			return usagef("geom2vtk needs at least one geom file")
		}
		opts := vtk.Options{Format: vtk.Binary}
		if *ascii {
			opts.Format = vtk.ASCII
		}
		for _, name := range args {
			g, err := readGeom(name)
			if err != nil {
				return err
			}
			if len(*mirror) > 0 {
				if err := g.Mirror(*mirror, *reflect); err != nil {
					return &usageError{err}
				}
			}
			if *clean > 0 {
				if err := g.Clean(*clean); err != nil {
					return err
				}
			}
			if *renumber {
				g.Renumber()
			}
			ds, err := g.ToVTK()
			if err != nil {
				return err
			}
			out := strings.TrimSuffix(name, filepath.Ext(name)) + ds.Kind().Extension()
			if *dir != "" {
				out = filepath.Join(*dir, filepath.Base(out))
			}
			if err := ds.WriteFile(out, opts); err != nil {
				return err
			}
			e.log.Info("converted geometry", "in", name, "out", out, "grid", g.Grid, "microstructures", len(g.Unique()))
			fmt.Fprintln(e.stdout, out)
		}
		return nil
	}
}

func readGeom(name string) (*geom.Geom, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	g, err := geom.Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return g, nil
}
