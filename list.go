/*
 * list.go, part of godadf5.
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
	"slices"
	"strconv"
	"strings"

	"github.com/rmera/godadf5/store"
	"github.com/rmera/godadf5/tensor"
)

// DatasetEntry describes one dataset of a listing.
type DatasetEntry struct {
	Location
	Unit        string
	Description string
}

// Datasets returns every visible dataset of the constituent and
// material point groups, in the order ListData prints them. Datasets
// without Unit or Description are left out.
func (r *Result) Datasets() ([]DatasetEntry, error) {
	f, err := r.open(store.ReadOnly)
	if err != nil {
		return nil, errDecorate(err, "Datasets")
	}
	defer f.Close()
	var out []DatasetEntry
	err = r.walkGroups(nil, func(g Location) error {
		keys, err := f.Keys(g.Group())
		if err != nil {
			// a constituent need not carry every physics group
			return nil
		}
		for _, k := range keys {
			l := g.WithLabel(k)
			attrs, err := f.Attrs(l.Path())
			if err != nil || !f.IsDataset(l.Path()) {
				continue
			}
			unit, ok1 := attrs.String("Unit")
			desc, ok2 := attrs.String("Description")
			if ok1 && ok2 {
				out = append(out, DatasetEntry{Location: l, Unit: unit, Description: desc})
			}
		}
		return nil
	})
	if err != nil {
		return nil, errDecorate(err, "Datasets")
	}
	return out, nil
}

// ListData returns a human readable overview of the visible datasets,
// grouped by increment, constituent or material point, and physics.
func (r *Result) ListData() (string, error) {
	entries, err := r.Datasets()
	if err != nil {
		return "", err
	}
	var b strings.Builder
	var last Location
	for _, e := range entries {
		if e.Increment != last.Increment {
			fmt.Fprintf(&b, "\n%s (%gs)\n", e.Increment, r.Times[slices.Index(r.Increments, e.Increment)])
			last = Location{Increment: e.Increment}
		}
		if e.Category != last.Category || e.Name != last.Name {
			fmt.Fprintf(&b, "  %s\n", e.Name)
			last.Physics = ""
		}
		if e.Physics != last.Physics {
			fmt.Fprintf(&b, "    %s\n", e.Physics)
		}
		fmt.Fprintf(&b, "      %s / (%s): %s\n", e.Label, e.Unit, e.Description)
		last = e.Location
	}
	return b.String(), nil
}

// CellCoordinates returns the initial coordinates of the cell centers,
// one row per material point. For structured grids they are computed
// with x running fastest; otherwise they are read from geometry/x_c.
func (r *Result) CellCoordinates() (*tensor.Field, error) {
	if !r.Structured {
		f, err := r.open(store.ReadOnly)
		if err != nil {
			return nil, errDecorate(err, "CellCoordinates")
		}
		defer f.Close()
		d, err := f.ReadDataset("/geometry/x_c")
		if err != nil {
			return nil, r.formatError("no cell coordinates", err)
		}
		return &tensor.Field{Shape: d.Shape, Data: d.Data}, nil
	}
	g := r.Grid
	out := tensor.New(g[0]*g[1]*g[2], 3)
	n := 0
	for k := 0; k < g[2]; k++ {
		for j := 0; j < g[1]; j++ {
			for i := 0; i < g[0]; i++ {
				row := out.Row(n)
				for d, idx := range [3]int{i, j, k} {
					row[d] = r.Origin[d] + (float64(idx)+0.5)*r.Size[d]/float64(g[d])
				}
				n++
			}
		}
	}
	return out, nil
}

// ConstituentID returns, for every material point, the number leading
// the name of the constituent at slot c (names are "<ID>_<whatever>").
// Points without a constituent at that slot get -1.
func (r *Result) ConstituentID(c int) ([]int, error) {
	if c < 0 || c >= r.NConstituents {
		return nil, fmt.Errorf("dadf5: constituent slot %d out of range", c)
	}
	ids := make([]int, r.conMap.Rows)
	for i := range ids {
		name, _ := r.conMap.At(i, c)
		if name == "" {
			ids[i] = -1
			continue
		}
		id, _, _ := strings.Cut(name, "_")
		n, err := strconv.Atoi(id)
		if err != nil {
			return nil, r.formatError(fmt.Sprintf("constituent name %q has no numeric ID", name), err)
		}
		ids[i] = n
	}
	return ids, nil
}

// CrystalStructure returns the Lattice attribute of the first visible
// orientation dataset.
func (r *Result) CrystalStructure() (string, error) {
	locs, err := r.Locate("orientation")
	if err != nil {
		return "", err
	}
	if len(locs) == 0 {
		return "", fmt.Errorf("dadf5: no visible orientation dataset")
	}
	f, err := r.open(store.ReadOnly)
	if err != nil {
		return "", errDecorate(err, "CrystalStructure")
	}
	defer f.Close()
	attrs, err := f.Attrs(locs[0].Path())
	if err != nil {
		return "", err
	}
	lattice, ok := attrs.String("Lattice")
	if !ok {
		return "", fmt.Errorf("dadf5: %s has no Lattice attribute", locs[0])
	}
	return lattice, nil
}
