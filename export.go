/*
 * export.go, part of godadf5.
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
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/rmera/godadf5/store"
	"github.com/rmera/godadf5/table"
	"github.com/rmera/godadf5/tensor"
	"github.com/rmera/godadf5/vtk"
)

// ExportMode selects where exported fields are attached.
type ExportMode int

const (
	// CellMode attaches fields to the cells of the simulation mesh.
	CellMode ExportMode = iota
	// PointMode attaches fields to a cloud of cell centers.
	PointMode
)

func (m ExportMode) String() string {
	if m == PointMode {
		return "point"
	}
	return "cell"
}

// ParseExportMode accepts "cell" or "point", in any case.
func ParseExportMode(s string) (ExportMode, error) {
	switch strings.ToLower(s) {
	case "cell":
		return CellMode, nil
	case "point":
		return PointMode, nil
	}
	return 0, fmt.Errorf("dadf5: unknown export mode %q", s)
}

// incNumber returns the number of increment inc.
func incNumber(inc string) int {
	m := incrementRE.FindStringSubmatch(inc)
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

// digits is the number of digits of the last increment number, at least 1.
func (r *Result) digits() int {
	last := incNumber(r.Increments[len(r.Increments)-1])
	if last < 1 {
		return 1
	}
	return int(math.Floor(math.Log10(float64(last)))) + 1
}

func (r *Result) stem() string {
	base := filepath.Base(r.fname)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func linspace(start, stop float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + (stop-start)*float64(i)/float64(max(n-1, 1))
	}
	return out
}

// mesh builds the geometry every exported increment shares.
func (r *Result) mesh(mode ExportMode) (*vtk.Dataset, error) {
	if mode == PointMode {
		c, err := r.CellCoordinates()
		if err != nil {
			return nil, err
		}
		return vtk.NewPolyData(c.Data)
	}
	if r.Structured {
		var axes [3][]float64
		for d := range axes {
			axes[d] = linspace(r.Origin[d], r.Origin[d]+r.Size[d], r.Grid[d]+1)
		}
		return vtk.NewRectilinear(axes[0], axes[1], axes[2])
	}
	f, err := r.open(store.ReadOnly)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	nodes, err := f.ReadDataset("/geometry/x_n")
	if err != nil {
		return nil, r.formatError("no mesh nodes", err)
	}
	topo, err := f.ReadDataset("/geometry/T_c")
	if err != nil {
		return nil, r.formatError("no mesh connectivity", err)
	}
	t := vtk.Hexahedron
	if r.VersionMinor > 5 {
		attrs, err := f.Attrs("/geometry/T_c")
		if err != nil {
			return nil, r.formatError("cannot read connectivity attributes", err)
		}
		name, _ := attrs.String("VTK_TYPE")
		if t, err = vtk.ParseCellType(name); err != nil {
			return nil, r.formatError("bad connectivity type", err)
		}
	}
	cells := make([]int64, len(topo.Data))
	for i, v := range topo.Data {
		cells[i] = int64(v) - 1
	}
	return vtk.NewUnstructured(nodes.Data, cells, t)
}

// exportArray is one field ready to be attached to a mesh.
type exportArray struct {
	name string
	data *tensor.Field
}

// collect gathers label for the visible groups of one category with the
// other category hidden. Generic physics are gathered over all visible
// names at once, the rest name by name.
func (r *Result) collect(label string, c int, out *[]exportArray) error {
	cat := categories[c]
	other := categories[1-c]
	restore := r.hide(other.names)
	defer restore()
	add := func(name string) error {
		locs, err := r.Locate(label)
		if err != nil || len(locs) == 0 {
			return err
		}
		a, err := r.Gather(locs, GatherOptions{Flatten: true})
		if err != nil {
			return err
		}
		a, err = a.Reshape(a.Rows(), a.RowLen())
		if err != nil {
			return err
		}
		if name == "" {
			l := locs[0]
			name = strings.TrimPrefix(l.Path(), "/"+l.Increment+"/")
		}
		*out = append(*out, exportArray{name: name, data: a})
		return nil
	}
	return r.IterVisible(cat.physics, func(p string) error {
		if p == "generic" {
			return add(cat.name + "/generic/" + label)
		}
		return r.IterVisible(cat.names, func(string) error { return add("") })
	})
}

// ToVTK writes one VTK XML file per visible increment into dir, holding
// the visible datasets named by labels. In cell mode the data is
// attached to the cells of the simulation mesh, and the displacement
// u_n, if present, to its points. In point mode everything is attached
// to the cell centers. Files are named after the container with the
// zero-padded increment number appended. The names of the written files
// are returned.
func (r *Result) ToVTK(dir string, labels []string, mode ExportMode) ([]string, error) {
	base, err := r.mesh(mode)
	if err != nil {
		return nil, errDecorate(err, "ToVTK")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errDecorate(err, "ToVTK")
	}
	var g errgroup.Group
	g.SetLimit(r.workers)
	var written []string
	N := r.digits()
	err = r.IterVisible(Increments, func(inc string) error {
		var arrays []exportArray
		for _, label := range labels {
			for c := range categories {
				if err := r.collect(label, c, &arrays); err != nil {
					return err
				}
			}
		}
		ds := base.Copy()
		seen := make(map[string]bool)
		for _, a := range arrays {
			if seen[a.name] {
				r.log.Warn("skipping duplicated array", "increment", inc, "name", a.name)
				continue
			}
			seen[a.name] = true
			add := ds.AddCellData
			if mode == PointMode {
				add = ds.AddPointData
			}
			if err := add(a.name, a.data.RowLen(), a.data.Data); err != nil {
				return err
			}
		}
		if mode == CellMode {
			if err := r.attachDisplacement(ds); err != nil {
				return err
			}
		}
		name := filepath.Join(dir, fmt.Sprintf("%s_inc%0*d%s", r.stem(), N, incNumber(inc), ds.Kind().Extension()))
		written = append(written, name)
		r.log.Info("writing VTK file", "increment", inc, "file", name, "arrays", len(seen))
		g.Go(func() error { return ds.WriteFile(name, vtk.Options{Format: vtk.Binary}) })
		return nil
	})
	if werr := g.Wait(); err == nil {
		err = werr
	}
	if err != nil {
		return nil, errDecorate(err, "ToVTK")
	}
	return written, nil
}

func (r *Result) attachDisplacement(ds *vtk.Dataset) error {
	locs, err := r.Locate("u_n")
	if err != nil {
		return err
	}
	if len(locs) == 0 {
		r.log.Debug("no displacement to export")
		return nil
	}
	u, err := r.Gather(locs[:1], GatherOptions{Flatten: true})
	if err != nil {
		return err
	}
	if u.Rows() != ds.NumberOfPoints() {
		r.log.Warn("displacement does not match the mesh nodes", "rows", u.Rows(), "points", ds.NumberOfPoints())
		return nil
	}
	return ds.AddPointData("u", u.RowLen(), u.Data)
}

// ToTables writes one ASCII table per visible increment into dir, for
// structured containers only. Every table holds the increment number,
// the initial cell centers as pos, the constituent datasets named by con
// and the material point datasets named by mat. Constituent datasets
// are read with material points hidden, and the other way around.
func (r *Result) ToTables(dir string, con, mat []string) ([]string, error) {
	if !r.Structured {
		return nil, fmt.Errorf("dadf5: %s is not a structured grid", r.fname)
	}
	pos, err := r.CellCoordinates()
	if err != nil {
		return nil, errDecorate(err, "ToTables")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errDecorate(err, "ToTables")
	}
	N := pos.Rows()
	var written []string
	err = r.IterVisible(Increments, func(inc string) error {
		t := table.New(N)
		n := tensor.New(N, 1)
		for i := range n.Data {
			n.Data[i] = float64(incNumber(inc))
		}
		if err := t.Add("inc", n, ""); err != nil {
			return err
		}
		if err := t.Add("pos", pos, ""); err != nil {
			return err
		}
		for c, labels := range [][]string{con, mat} {
			if err := r.tableColumns(t, c, labels); err != nil {
				return err
			}
		}
		name := filepath.Join(dir, fmt.Sprintf("%s_inc%05d.txt", r.stem(), incNumber(inc)))
		fout, err := os.Create(name)
		if err != nil {
			return err
		}
		if err := t.WriteASCII(fout); err != nil {
			fout.Close()
			return err
		}
		if err := fout.Close(); err != nil {
			return err
		}
		r.log.Info("wrote table", "increment", inc, "file", name, "columns", len(t.Labels()))
		written = append(written, name)
		return nil
	})
	if err != nil {
		return nil, errDecorate(err, "ToTables")
	}
	return written, nil
}

// tableColumns adds labels of category c to t, hiding the other category.
func (r *Result) tableColumns(t *table.Table, c int, labels []string) error {
	restore := r.hide(categories[1-c].names)
	defer restore()
	for _, label := range labels {
		locs, err := r.Locate(label)
		if err != nil {
			return err
		}
		if len(locs) == 0 {
			continue
		}
		a, err := r.Gather(locs, GatherOptions{Flatten: true})
		if err != nil {
			return err
		}
		if a, err = a.Reshape(a.Rows(), a.RowLen()); err != nil {
			return err
		}
		if err := t.Add(label, a, ""); err != nil {
			return err
		}
	}
	return nil
}
