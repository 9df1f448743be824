package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"slices"

	dadf5 "github.com/rmera/godadf5"
	"github.com/rmera/godadf5/config"
	"github.com/rmera/godadf5/histo"
	"github.com/rmera/godadf5/mechplot"
	"gonum.org/v1/gonum/stat"
)

// increments gathers label, flattened, once per visible increment. Increments
// without the dataset are skipped.
func increments(r *dadf5.Result, label string) (names []string, times []float64, fields [][]float64, width int, err error) {
	err = r.IterVisible(dadf5.Increments, func(inc string) error {
		locs, err := r.Locate(label)
		if err != nil || len(locs) == 0 {
			return err
		}
		f, err := r.Gather(locs, dadf5.GatherOptions{Flatten: true})
		if err != nil {
			return err
		}
		if width != 0 && f.RowLen() != width {
			return fmt.Errorf("%s has %d components in %s, %d before", label, f.RowLen(), inc, width)
		}
		width = f.RowLen()
		names = append(names, inc)
		times = append(times, r.Times[slices.Index(r.Increments, inc)])
		fields = append(fields, f.Data)
		return nil
	})
	if err == nil && len(fields) == 0 {
		err = fmt.Errorf("no visible dataset named %q", label)
	}
	return names, times, fields, width, err
}

// component returns every width-th value of data starting at k.
func component(data []float64, k, width int) []float64 {
	out := make([]float64, 0, len(data)/width)
	for i := k; i < len(data); i += width {
		out = append(out, data[i])
	}
	return out
}

// plotHistograms plots the distribution of label per visible increment,
// every histogram over the same bins, and writes the mean of each one to w.
func plotHistograms(r *dadf5.Result, h config.HistogramExport, w io.Writer) error {
	names, _, fields, width, err := increments(r, h.Label)
	if err != nil {
		return err
	}
	var all []float64
	for _, f := range fields {
		all = append(all, f...)
	}
	div, err := histo.AutoDividers(all, h.Bins)
	if err != nil {
		return fmt.Errorf("%s: %w", h.Label, err)
	}
	cols := 1
	if h.Components {
		cols = width
	}
	m := histo.NewMatrix(len(fields), cols, div)
	for i, f := range fields {
		if cols == 1 {
			m.NewHisto(i, 0, f)
			continue
		}
		for k := 0; k < cols; k++ {
			m.NewHisto(i, k, component(f, k, width))
		}
	}
	m.NormalizeAll()
	means, err := m.FromAll(func(d *histo.Data) (float64, error) {
		if d.Total() == 0 {
			return math.NaN(), nil
		}
		return d.Mean()
	})
	if err != nil {
		return err
	}
	for i, row := range means {
		fmt.Fprintf(w, "%s", names[i])
		for _, v := range row {
			fmt.Fprintf(w, "\t%g", v)
		}
		fmt.Fprintln(w)
	}
	if h.JSON != "" {
		b, err := json.MarshalIndent(m, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(h.JSON, b, 0o644); err != nil {
			return err
		}
	}
	title := h.Label
	if h.Diff {
		if m, err = m.Relative(0); err != nil {
			return err
		}
		title = fmt.Sprintf("%s relative to %s", h.Label, names[0])
	}
	rows, _ := m.Dims()
	var hs []*histo.Data
	var legend []string
	for i := 0; i < rows; i++ {
		for k := 0; k < cols; k++ {
			hs = append(hs, m.View(i, k))
			if cols == 1 {
				legend = append(legend, names[i])
			} else {
				legend = append(legend, fmt.Sprintf("%s %d_%s", names[i], k+1, h.Label))
			}
		}
	}
	return mechplot.Histograms(hs, legend, title, h.Label, h.File)
}

// plotSeries plots the mean, minimum and maximum of label against the time
// of the visible increments.
func plotSeries(r *dadf5.Result, s config.SeriesExport) error {
	_, times, fields, _, err := increments(r, s.Label)
	if err != nil {
		return err
	}
	ys := [][]float64{make([]float64, len(fields)), make([]float64, len(fields)), make([]float64, len(fields))}
	for i, f := range fields {
		lo, hi, ok := histo.Range(f)
		if !ok {
			return fmt.Errorf("%s: no finite values at t=%g", s.Label, times[i])
		}
		finite := make([]float64, 0, len(f))
		for _, v := range f {
			if !math.IsNaN(v) && !math.IsInf(v, 0) {
				finite = append(finite, v)
			}
		}
		ys[0][i], ys[1][i], ys[2][i] = stat.Mean(finite, nil), lo, hi
	}
	return mechplot.Series(times, ys, []string{"mean", "min", "max"}, s.Label, "t / s", s.Label, s.File)
}
