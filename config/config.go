/*
 * config.go, part of godadf5.
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

// Package config reads job files: which container to process, which
// part of it to select, which transforms to add and what to export.
//
// A job is located by an explicit path or the DADF5_CONFIG environment
// variable. There is no search for default files. YAML is the default
// format; files ending in .json or .jsonc are read as JSON, with
// comments and trailing commas allowed.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	dadf5 "github.com/rmera/godadf5"
)

// EnvVar names the environment variable Load reads the job path from.
const EnvVar = "DADF5_CONFIG"

// Defaults for omitted fields.
const (
	DefaultTableDir = "postProc"
	DefaultBins     = 20
)

// Job is one processing job.
type Job struct {
	Container  string      `yaml:"container" json:"container"`
	Workers    int         `yaml:"workers" json:"workers"`
	Select     Selection   `yaml:"select" json:"select"`
	Transforms []Transform `yaml:"transforms" json:"transforms"`
	Export     Export      `yaml:"export" json:"export"`
}

// Selection restricts the visible part of the container. Empty lists
// keep everything of their dimension visible. Names may be shell patterns.
type Selection struct {
	Increments     []string  `yaml:"increments" json:"increments"`
	Constituents   []string  `yaml:"constituents" json:"constituents"`
	Materialpoints []string  `yaml:"materialpoints" json:"materialpoints"`
	ConPhysics     []string  `yaml:"con_physics" json:"con_physics"`
	MatPhysics     []string  `yaml:"mat_physics" json:"mat_physics"`
	Times          *Range    `yaml:"times" json:"times"`
	IncrementRange *IntRange `yaml:"increment_range" json:"increment_range"`
}

// Range is a closed interval of simulation times.
type Range struct {
	Start float64 `yaml:"start" json:"start"`
	End   float64 `yaml:"end" json:"end"`
}

// IntRange is a closed interval of increment numbers.
type IntRange struct {
	Start int `yaml:"start" json:"start"`
	End   int `yaml:"end" json:"end"`
}

// Transform names a built-in transform and its parameters.
type Transform struct {
	Name   string            `yaml:"name" json:"name"`
	Params map[string]string `yaml:"params" json:"params"`
}

// Export lists the optional outputs of a job.
type Export struct {
	VTK       *VTKExport       `yaml:"vtk" json:"vtk"`
	Table     *TableExport     `yaml:"table" json:"table"`
	Histogram *HistogramExport `yaml:"histogram" json:"histogram"`
	Series    *SeriesExport    `yaml:"series" json:"series"`
}

type VTKExport struct {
	Labels []string `yaml:"labels" json:"labels"`
	Mode   string   `yaml:"mode" json:"mode"` // cell (default) or point
	Dir    string   `yaml:"dir" json:"dir"`
}

// TableExport writes ASCII tables. Dir is relative to the container.
type TableExport struct {
	Con []string `yaml:"con" json:"con"`
	Mat []string `yaml:"mat" json:"mat"`
	Dir string   `yaml:"dir" json:"dir"`
}

// HistogramExport plots the distribution of one dataset per visible increment.
// Diff plots every increment relative to the first visible one, Components
// gives one histogram per component and JSON, if set, names a file that
// receives the histograms themselves.
type HistogramExport struct {
	Label      string `yaml:"label" json:"label"`
	Bins       int    `yaml:"bins" json:"bins"`
	File       string `yaml:"file" json:"file"`
	Diff       bool   `yaml:"diff" json:"diff"`
	Components bool   `yaml:"components" json:"components"`
	JSON       string `yaml:"json" json:"json"`
}

// SeriesExport plots the mean, minimum and maximum of one dataset against
// the time of the visible increments.
type SeriesExport struct {
	Label string `yaml:"label" json:"label"`
	File  string `yaml:"file" json:"file"`
}

// Load reads the job named by the DADF5_CONFIG environment variable.
func Load() (*Job, error) {
	p := os.Getenv(EnvVar)
	if p == "" {
		return nil, fmt.Errorf("%s environment variable not set; set it to the path of a job file, or pass one explicitly", EnvVar)
	}
	return LoadFile(p)
}

// LoadFile reads and parses the job at path. Relative container paths
// are taken relative to the directory of the job file.
func LoadFile(path string) (*Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	j, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if j.Container != "" && !filepath.IsAbs(j.Container) {
		j.Container = filepath.Join(filepath.Dir(path), j.Container)
	}
	return j, nil
}

// Parse decodes a job. ext selects the format: ".json" and ".jsonc" are
// JSON with comments, anything else is YAML.
func Parse(data []byte, ext string) (*Job, error) {
	j := new(Job)
	switch strings.ToLower(ext) {
	case ".json", ".jsonc":
		if err := json.Unmarshal(jsonc.ToJSON(data), j); err != nil {
			return nil, fmt.Errorf("parsing job: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, j); err != nil {
			return nil, fmt.Errorf("parsing job: %w", err)
		}
	}
	j.defaults()
	return j, nil
}

func (j *Job) defaults() {
	if j.Workers < 1 {
		j.Workers = 1
	}
	if t := j.Export.Table; t != nil && t.Dir == "" {
		t.Dir = DefaultTableDir
	}
	if h := j.Export.Histogram; h != nil && h.Bins == 0 {
		h.Bins = DefaultBins
	}
	if v := j.Export.VTK; v != nil && v.Dir == "" {
		v.Dir = "."
	}
}

// Validate checks the job without touching the container.
func (j *Job) Validate() error {
	var errs []error
	if j.Container == "" {
		errs = append(errs, errors.New("container is required"))
	}
	for i, t := range j.Transforms {
		if _, _, _, err := dadf5.BuildTransform(t.Name, dadf5.Params(t.Params)); err != nil {
			errs = append(errs, fmt.Errorf("transforms[%d]: %w", i, err))
		}
	}
	if s := j.Select; s.Times != nil && s.Times.Start > s.Times.End {
		errs = append(errs, fmt.Errorf("select.times: start %g after end %g", s.Times.Start, s.Times.End))
	}
	if s := j.Select; s.IncrementRange != nil && s.IncrementRange.Start > s.IncrementRange.End {
		errs = append(errs, fmt.Errorf("select.increment_range: start %d after end %d", s.IncrementRange.Start, s.IncrementRange.End))
	}
	if v := j.Export.VTK; v != nil {
		if len(v.Labels) == 0 {
			errs = append(errs, errors.New("export.vtk.labels is required"))
		}
		if _, err := j.VTKMode(); err != nil {
			errs = append(errs, fmt.Errorf("export.vtk.mode: %w", err))
		}
	}
	if t := j.Export.Table; t != nil && len(t.Con)+len(t.Mat) == 0 {
		errs = append(errs, errors.New("export.table needs con or mat labels"))
	}
	if h := j.Export.Histogram; h != nil {
		if h.Label == "" || h.File == "" {
			errs = append(errs, errors.New("export.histogram needs label and file"))
		}
		if h.Bins < 1 {
			errs = append(errs, fmt.Errorf("export.histogram.bins must be positive, not %d", h.Bins))
		}
	}
	if s := j.Export.Series; s != nil && (s.Label == "" || s.File == "") {
		errs = append(errs, errors.New("export.series needs label and file"))
	}
	return errors.Join(errs...)
}

// VTKMode returns the parsed export mode, cell if none was given.
func (j *Job) VTKMode() (dadf5.ExportMode, error) {
	if j.Export.VTK == nil || j.Export.VTK.Mode == "" {
		return dadf5.CellMode, nil
	}
	return dadf5.ParseExportMode(j.Export.VTK.Mode)
}

// TableDir returns the table directory, relative to the container's.
func (j *Job) TableDir() string {
	if j.Export.Table == nil {
		return ""
	}
	if filepath.IsAbs(j.Export.Table.Dir) {
		return j.Export.Table.Dir
	}
	return filepath.Join(filepath.Dir(j.Container), j.Export.Table.Dir)
}

// Apply sets the visibility of r as the selection asks.
func (s Selection) Apply(r *dadf5.Result) error {
	lists := []struct {
		d     dadf5.Dimension
		names []string
	}{
		{dadf5.Increments, s.Increments},
		{dadf5.Constituents, s.Constituents},
		{dadf5.Materialpoints, s.Materialpoints},
		{dadf5.ConPhysics, s.ConPhysics},
		{dadf5.MatPhysics, s.MatPhysics},
	}
	for _, l := range lists {
		if len(l.names) == 0 {
			continue
		}
		if err := r.SetVisible(l.d, dadf5.Names(l.names...)); err != nil {
			return fmt.Errorf("select %s: %w", l.d, err)
		}
	}
	// ranges narrow whatever the name lists left visible
	if t := s.Times; t != nil {
		if err := narrow(r, func() error { return r.SetByTime(t.Start, t.End) }); err != nil {
			return err
		}
	}
	if n := s.IncrementRange; n != nil {
		if err := narrow(r, func() error { return r.SetByIncrement(n.Start, n.End) }); err != nil {
			return err
		}
	}
	return nil
}

// narrow keeps visible only the increments that are visible now and
// after calling set.
func narrow(r *dadf5.Result, set func() error) error {
	before := r.Visible(dadf5.Increments)
	if err := set(); err != nil {
		return err
	}
	var keep []string
	for _, inc := range r.Visible(dadf5.Increments) {
		if slices.Contains(before, inc) {
			keep = append(keep, inc)
		}
	}
	return r.SetVisible(dadf5.Increments, dadf5.Names(keep...))
}
