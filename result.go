/*
 * result.go, part of godadf5.
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

package dadf5

import (
	"errors"
	"log/slog"
	"math"
	"regexp"
	"sort"
	"strconv"

	"github.com/rmera/godadf5/store"
)

// Supported container layout versions.
const (
	VersionMajor    = 0
	MinVersionMinor = 2
	MaxVersionMinor = 6
)

// Paths of the point mapping tables.
const (
	MappingConstituent   = "/mapping/cellResults/constituent"
	MappingMaterialpoint = "/mapping/cellResults/materialpoint"
)

var incrementRE = regexp.MustCompile(`^inc([0-9]+)$`)

// Result is an open result container. The exported fields describe the
// container as it was when opened; they are not updated when derived
// datasets are added. A Result keeps no file open between calls, but
// its visibility state is not safe for concurrent use.
type Result struct {
	fname   string
	log     *slog.Logger
	workers int

	VersionMajor, VersionMinor int64

	// Structured containers hold a regular grid of Grid cells spanning
	// Size, shifted by Origin.
	Structured bool
	Grid       []int
	Size       []float64
	Origin     []float64

	Increments []string  // sorted by increment number
	Times      []float64 // parallel to Increments, rounded to 12 decimals

	Constituents   []string
	Materialpoints []string
	ConPhysics     []string // physics groups under constituents, in the first increment
	MatPhysics     []string // physics groups under material points, in the first increment

	NMaterialpoints int
	NConstituents   int

	visible visibility
	conMap  *store.Mapping
	matMap  *store.Mapping
}

// Option configures Open.
type Option func(*Result)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(r *Result) {
		if l != nil {
			r.log = l
		}
	}
}

// WithWorkers sets how many transforms Compute runs at once. Values
// below 1 mean 1.
func WithWorkers(n int) Option {
	return func(r *Result) {
		if n < 1 {
			n = 1
		}
		r.workers = n
	}
}

// Open reads the layout of the container fname. It returns a
// *VersionError for unsupported layout versions and a *FormatError if a
// required group, attribute or mapping table is missing.
func Open(fname string, opts ...Option) (*Result, error) {
	r := &Result{fname: fname, log: slog.New(slog.DiscardHandler), workers: 1}
	for _, o := range opts {
		o(r)
	}
	f, err := store.Open(fname, store.ReadOnly)
	if err != nil {
		return nil, &FormatError{File: fname, Message: "cannot open container", Err: err}
	}
	defer f.Close()
	if err := r.readVersion(f); err != nil {
		return nil, errDecorate(err, "Open")
	}
	if err := r.readGeometry(f); err != nil {
		return nil, errDecorate(err, "Open")
	}
	if err := r.readIncrements(f); err != nil {
		return nil, errDecorate(err, "Open")
	}
	if err := r.readMapping(f); err != nil {
		return nil, errDecorate(err, "Open")
	}
	r.ConPhysics, err = r.physics(f, "constituent", r.Constituents)
	if err != nil {
		return nil, errDecorate(err, "Open")
	}
	r.MatPhysics, err = r.physics(f, "materialpoint", r.Materialpoints)
	if err != nil {
		return nil, errDecorate(err, "Open")
	}
	r.visible = visibility{
		increments:     clone(r.Increments),
		constituents:   clone(r.Constituents),
		materialpoints: clone(r.Materialpoints),
		conPhysics:     clone(r.ConPhysics),
		matPhysics:     clone(r.MatPhysics),
	}
	r.log.Debug("opened result container", "file", fname,
		"version", strconv.FormatInt(r.VersionMajor, 10)+"."+strconv.FormatInt(r.VersionMinor, 10),
		"structured", r.Structured, "increments", len(r.Increments),
		"materialpoints", r.NMaterialpoints, "constituents", r.NConstituents)
	return r, nil
}

// FileName returns the name of the container file.
func (r *Result) FileName() string {
	return r.fname
}

func (r *Result) formatError(msg string, err error) *FormatError {
	return &FormatError{File: r.fname, Message: msg, Err: err}
}

func (r *Result) readVersion(f *store.File) error {
	attrs, err := f.Attrs("/")
	if err != nil {
		return r.formatError("cannot read root attributes", err)
	}
	major, okMajor := attrs.Int("DADF5_version_major")
	minor, okMinor := attrs.Int("DADF5_version_minor")
	if !okMajor || !okMinor {
		major, okMajor = attrs.Int("DADF5-major")
		minor, okMinor = attrs.Int("DADF5-minor")
	}
	if !okMajor || !okMinor {
		return r.formatError("no layout version attributes", nil)
	}
	r.VersionMajor, r.VersionMinor = major, minor
	if major != VersionMajor || minor < MinVersionMinor || minor > MaxVersionMinor {
		return &VersionError{File: r.fname, Major: major, Minor: minor}
	}
	return nil
}

func (r *Result) readGeometry(f *store.File) error {
	if !f.IsGroup("/geometry") {
		return r.formatError("no geometry group", nil)
	}
	attrs, err := f.Attrs("/geometry")
	if err != nil {
		return r.formatError("cannot read geometry attributes", err)
	}
	grid, ok := attrs.Ints("grid")
	if !ok {
		return nil
	}
	r.Structured = true
	if len(grid) != 3 {
		return r.formatError("grid attribute must have 3 entries", nil)
	}
	r.Grid = make([]int, 3)
	for i, g := range grid {
		r.Grid[i] = int(g)
	}
	if r.Size, ok = attrs.Floats("size"); !ok || len(r.Size) != 3 {
		return r.formatError("structured geometry without a 3 entry size attribute", nil)
	}
	r.Origin = make([]float64, 3)
	if r.VersionMinor >= 5 {
		origin, ok := attrs.Floats("origin")
		if ok && len(origin) == 3 {
			r.Origin = origin
		} else {
			r.log.Warn("structured geometry without origin, using 0 0 0", "file", r.fname)
		}
	}
	return nil
}

func (r *Result) readIncrements(f *store.File) error {
	keys, err := f.Keys("/")
	if err != nil {
		return r.formatError("cannot list increments", err)
	}
	type inc struct {
		name string
		n    int
	}
	var incs []inc
	seen := make(map[int]bool)
	for _, k := range keys {
		m := incrementRE.FindStringSubmatch(k)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil || seen[n] {
			continue
		}
		seen[n] = true
		incs = append(incs, inc{k, n})
	}
	if len(incs) == 0 {
		return r.formatError("no increments", nil)
	}
	sort.Slice(incs, func(i, j int) bool { return incs[i].n < incs[j].n })
	for _, in := range incs {
		attrs, err := f.Attrs("/" + in.name)
		if err != nil {
			return r.formatError("cannot read attributes of "+in.name, err)
		}
		t, ok := attrs.Float("time/s")
		if !ok {
			return r.formatError(in.name+" has no time/s attribute", nil)
		}
		r.Increments = append(r.Increments, in.name)
		r.Times = append(r.Times, math.Round(t*1e12)/1e12)
	}
	return nil
}

func (r *Result) readMapping(f *store.File) error {
	con, err := f.ReadMapping(MappingConstituent)
	if err != nil {
		return r.formatError("cannot read constituent mapping", err)
	}
	mat, err := f.ReadMapping(MappingMaterialpoint)
	if err != nil {
		return r.formatError("cannot read material point mapping", err)
	}
	r.conMap, r.matMap = con, mat
	r.NMaterialpoints, r.NConstituents = con.Rows, con.Cols
	if mat.Rows != con.Rows {
		r.log.Warn("mapping tables disagree on the number of material points", "constituent", con.Rows, "materialpoint", mat.Rows)
	}
	r.Constituents = con.UniqueNames()
	sort.Strings(r.Constituents)
	r.Materialpoints = mat.UniqueNames()
	sort.Strings(r.Materialpoints)
	return nil
}

func (r *Result) physics(f *store.File, category string, names []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, n := range names {
		keys, err := f.Keys("/" + r.Increments[0] + "/" + category + "/" + n)
		if errors.Is(err, store.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, r.formatError("cannot list physics groups", err)
		}
		for _, k := range keys {
			if !seen[k] {
				seen[k] = true
				out = append(out, k)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

// open opens the container for one logical operation.
func (r *Result) open(mode store.Mode) (*store.File, error) {
	f, err := store.Open(r.fname, mode)
	if err != nil {
		return nil, r.formatError("cannot open container", err)
	}
	return f, nil
}

func clone(s []string) []string {
	if len(s) == 0 {
		return []string{}
	}
	return append([]string(nil), s...)
}
