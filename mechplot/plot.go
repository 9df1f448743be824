/*
 * plot.go, part of godadf5.
 *
 *
 * Copyright 2026 Raul Mera <rauldotmeraatusachdotcl>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 *
 */

// Package mechplot draws histograms and increment series of result fields.
package mechplot

import (
	"fmt"

	"github.com/rmera/godadf5/histo"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Size of the produced figures.
var (
	Width  = 5 * vg.Inch
	Height = 4 * vg.Inch
)

/*
Histograms plots the histograms in h as lines, one per histogram, labeled

	with the corresponding element of names, which can be nil. The format is taken
	from the extension of plotname (png, svg, pdf, eps). Returns an error or nil
*/
func Histograms(h []*histo.Data, names []string, title, xlabel, plotname string) error {
	if len(h) == 0 {
		return fmt.Errorf("mechplot: no histograms to plot")
	}
	if names != nil && len(names) != len(h) {
		return fmt.Errorf("mechplot: %d names for %d histograms", len(names), len(h))
	}
	p := newPlot(title, xlabel, "frequency")
	for i, v := range h {
		c := v.Centers()
		pts := make(plotter.XYs, len(c))
		for j, w := range v.View() {
			pts[j].X = c[j]
			pts[j].Y = w
		}
		if err := addLine(p, pts, i, len(h), names); err != nil {
			return err
		}
	}
	return p.Save(Width, Height, plotname)
}

// Series plots each row of ys against x, for instance the mean of a quantity
// against the simulation time.
func Series(x []float64, ys [][]float64, names []string, title, xlabel, ylabel, plotname string) error {
	if len(ys) == 0 {
		return fmt.Errorf("mechplot: no series to plot")
	}
	if names != nil && len(names) != len(ys) {
		return fmt.Errorf("mechplot: %d names for %d series", len(names), len(ys))
	}
	p := newPlot(title, xlabel, ylabel)
	for i, y := range ys {
		if len(y) != len(x) {
			return fmt.Errorf("mechplot: series %d has %d points, want %d", i, len(y), len(x))
		}
		pts := make(plotter.XYs, len(x))
		for j := range x {
			pts[j].X = x[j]
			pts[j].Y = y[j]
		}
		if err := addLine(p, pts, i, len(ys), names); err != nil {
			return err
		}
	}
	return p.Save(Width, Height, plotname)
}

func newPlot(title, xlabel, ylabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xlabel
	p.Y.Label.Text = ylabel
	p.Add(plotter.NewGrid())
	return p
}

func addLine(p *plot.Plot, pts plotter.XYs, key, steps int, names []string) error {
	l, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	l.LineStyle.Width = vg.Points(1.5)
	l.LineStyle.Color = colors(key, steps)
	p.Add(l)
	if names != nil {
		p.Legend.Add(names[key], l)
	}
	return nil
}
