/*
 * locate.go, part of godadf5.
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
	"fmt"
	"path"
	"strings"

	"github.com/rmera/godadf5/store"
	"github.com/rmera/godadf5/tensor"
)

// Categories of data inside an increment.
const (
	CategoryGeometry      = "geometry"
	CategoryConstituent   = "constituent"
	CategoryMaterialpoint = "materialpoint"
)

// categories pairs each per-point category with the dimensions that filter it.
var categories = []struct {
	name    string
	names   Dimension
	physics Dimension
}{
	{CategoryConstituent, Constituents, ConPhysics},
	{CategoryMaterialpoint, Materialpoints, MatPhysics},
}

// Location identifies one dataset, or one group if Label is empty.
// Geometry locations have no Name and no Physics.
type Location struct {
	Increment string
	Category  string
	Name      string
	Physics   string
	Label     string
}

// Group returns the path of the group holding the dataset.
func (l Location) Group() string {
	if l.Category == CategoryGeometry {
		return "/" + l.Increment + "/" + CategoryGeometry
	}
	return "/" + strings.Join([]string{l.Increment, l.Category, l.Name, l.Physics}, "/")
}

// Path returns the full path of the dataset.
func (l Location) Path() string {
	if l.Label == "" {
		return l.Group()
	}
	return l.Group() + "/" + l.Label
}

func (l Location) String() string { return l.Path() }

// WithLabel returns a copy of l pointing to dataset label of the same group.
func (l Location) WithLabel(label string) Location {
	l.Label = label
	return l
}

// ParseLocation splits a dataset path into a Location.
func ParseLocation(p string) (Location, error) {
	parts := strings.Split(strings.Trim(path.Clean("/"+p), "/"), "/")
	switch {
	case len(parts) == 3 && parts[1] == CategoryGeometry:
		return Location{Increment: parts[0], Category: CategoryGeometry, Label: parts[2]}, nil
	case len(parts) == 5 && (parts[1] == CategoryConstituent || parts[1] == CategoryMaterialpoint):
		return Location{Increment: parts[0], Category: parts[1], Name: parts[2], Physics: parts[3], Label: parts[4]}, nil
	}
	return Location{}, fmt.Errorf("dadf5: %q is not a dataset location", p)
}

// walkGroups calls fn for every visible increment/category/name/physics
// group, using guarded iteration. geometry, if not nil, is called once
// per increment before the per-point groups.
func (r *Result) walkGroups(geometry func(inc string) error, fn func(g Location) error) error {
	return r.IterVisible(Increments, func(inc string) error {
		if geometry != nil {
			if err := geometry(inc); err != nil {
				return err
			}
		}
		for _, c := range categories {
			err := r.IterVisible(c.names, func(name string) error {
				return r.IterVisible(c.physics, func(ph string) error {
					return fn(Location{Increment: inc, Category: c.name, Name: name, Physics: ph})
				})
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// Locate returns the location of every visible dataset named label, in
// increment order, geometry first, then constituents and material
// points. No match is an empty slice, not an error.
func (r *Result) Locate(label string) ([]Location, error) {
	f, err := r.open(store.ReadOnly)
	if err != nil {
		return nil, errDecorate(err, "Locate")
	}
	defer f.Close()
	locs := []Location{}
	err = r.walkGroups(func(inc string) error {
		l := Location{Increment: inc, Category: CategoryGeometry, Label: label}
		if f.IsDataset(l.Path()) {
			locs = append(locs, l)
		}
		return nil
	}, func(g Location) error {
		l := g.WithLabel(label)
		if f.IsDataset(l.Path()) {
			locs = append(locs, l)
		}
		return nil
	})
	if err != nil {
		return nil, errDecorate(err, "Locate")
	}
	return locs, nil
}

// GroupsWithDatasets returns the visible constituent and material point
// groups holding datasets for all patterns. Each pattern may be a shell
// pattern; a group matches when the number of distinct datasets matched
// by the patterns equals the number of patterns. So {"*"} matches only
// groups with exactly one dataset, and no pattern at all matches every
// existing group.
func (r *Result) GroupsWithDatasets(patterns ...string) ([]Location, error) {
	f, err := r.open(store.ReadOnly)
	if err != nil {
		return nil, errDecorate(err, "GroupsWithDatasets")
	}
	defer f.Close()
	groups := []Location{}
	err = r.walkGroups(nil, func(g Location) error {
		if !f.IsGroup(g.Group()) {
			return nil
		}
		keys, err := f.Keys(g.Group())
		if err != nil {
			return err
		}
		matched := make(map[string]bool)
		for _, p := range patterns {
			for _, k := range keys {
				ok, err := path.Match(p, k)
				if err != nil {
					return fmt.Errorf("dadf5: pattern %q: %w", p, err)
				}
				if ok {
					matched[k] = true
				}
			}
		}
		if len(matched) == len(patterns) {
			groups = append(groups, g)
		}
		return nil
	})
	if err != nil {
		return nil, errDecorate(err, "GroupsWithDatasets")
	}
	return groups, nil
}

// GatherOptions control Gather.
type GatherOptions struct {
	Constituent int  // constituent slot used to map constituent data to points
	Flatten     bool // return compound data as a plain matrix, one column per member
}

// Gather builds a point-ordered array out of the datasets at locs. The
// array has one row per material point and starts out as NaN. A
// geometry dataset replaces the whole array. Other datasets are
// scattered to the points the mapping tables assign to their
// constituent or material point. One-dimensional datasets gain a
// trailing dimension of 1.
func (r *Result) Gather(locs []Location, opts GatherOptions) (*tensor.Field, error) {
	if len(locs) == 0 {
		return nil, fmt.Errorf("dadf5: nothing to gather")
	}
	if opts.Constituent < 0 || opts.Constituent >= max(r.NConstituents, 1) {
		return nil, fmt.Errorf("dadf5: constituent slot %d out of range", opts.Constituent)
	}
	f, err := r.open(store.ReadOnly)
	if err != nil {
		return nil, errDecorate(err, "Gather")
	}
	defer f.Close()
	info, err := f.DatasetInfo(locs[0].Path())
	if err != nil {
		return nil, fmt.Errorf("dadf5: gather %s: %w", locs[0], err)
	}
	shape := []int{r.NMaterialpoints}
	if len(info.Shape) > 1 {
		shape = append(shape, info.Shape[1:]...)
	}
	out := tensor.NaN(shape...)
	if len(info.Fields) > 0 {
		n := tensor.NaN(append(append([]int(nil), shape...), len(info.Fields))...)
		out = &tensor.Field{Shape: shape, Fields: info.Fields, Data: n.Data}
	}
	out = out.Promote()
	for _, l := range locs {
		d, err := f.ReadDataset(l.Path())
		if err != nil {
			return nil, fmt.Errorf("dadf5: gather %s: %w", l, err)
		}
		a := &tensor.Field{Shape: d.Shape, Fields: d.Fields, Data: d.Data}
		if l.Category == CategoryGeometry {
			out = a
			continue
		}
		a = a.Promote()
		m, slot := r.conMap, opts.Constituent
		if l.Category == CategoryMaterialpoint {
			m, slot = r.matMap, 0
		}
		if a.RowLen() != out.RowLen() {
			return nil, r.formatError(fmt.Sprintf("%s holds %d values per point, expected %d", l, a.RowLen(), out.RowLen()), nil)
		}
		for i := 0; i < m.Rows && i < out.Rows(); i++ {
			name, pos := m.At(i, slot)
			if name != l.Name {
				continue
			}
			if pos < 0 || pos >= a.Rows() {
				return nil, r.formatError(fmt.Sprintf("mapping points to row %d of %s, which has %d rows", pos, l, a.Rows()), nil)
			}
			out.SetRow(i, a.Row(pos))
		}
	}
	if opts.Flatten {
		out = out.Flatten()
	}
	return out, nil
}
