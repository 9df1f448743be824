/*
 * vtk.go, part of godadf5.
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

package vtk

import (
	"fmt"
	"os"
	"strings"
)

// Kind is the VTK XML dataset type.
type Kind int

const (
	Rectilinear Kind = iota
	Unstructured
	Poly
)

func (k Kind) String() string {
	switch k {
	case Rectilinear:
		return "RectilinearGrid"
	case Unstructured:
		return "UnstructuredGrid"
	default:
		return "PolyData"
	}
}

// Extension returns the usual file extension, with the dot.
func (k Kind) Extension() string {
	switch k {
	case Rectilinear:
		return ".vtr"
	case Unstructured:
		return ".vtu"
	default:
		return ".vtp"
	}
}

// CellType is a VTK cell type code.
type CellType uint8

const (
	Vertex     CellType = 1
	Triangle   CellType = 5
	Quad       CellType = 9
	Tetra      CellType = 10
	Hexahedron CellType = 12
)

// Nodes returns the number of nodes of the cell type, 0 if unknown.
func (c CellType) Nodes() int {
	switch c {
	case Vertex:
		return 1
	case Triangle:
		return 3
	case Quad, Tetra:
		return 4
	case Hexahedron:
		return 8
	}
	return 0
}

// ParseCellType reads the cell type names used by result containers
// (TRIANGLE, QUAD, TETRA, HEXAHEDRON), in any case.
func ParseCellType(name string) (CellType, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "TRIANGLE":
		return Triangle, nil
	case "QUAD":
		return Quad, nil
	case "TETRA":
		return Tetra, nil
	case "HEXAHEDRON":
		return Hexahedron, nil
	}
	return 0, fmt.Errorf("vtk: unknown cell type %q", name)
}

// Array is a named attribute array with Components values per tuple.
type Array struct {
	Name       string
	Components int
	Data       []float64
}

func (a Array) tuples() int {
	if a.Components < 1 {
		return 0
	}
	return len(a.Data) / a.Components
}

// Dataset is a mesh with its cell and point attribute arrays.
type Dataset struct {
	kind Kind

	coords [3][]float64 // rectilinear axes

	points       []float64 // 3 per point
	connectivity []int64
	offsets      []int64
	types        []uint8

	cellData  []Array
	pointData []Array
}

// NewRectilinear returns a rectilinear grid with the given node coordinates
// along x, y and z. Every axis needs at least one node.
func NewRectilinear(x, y, z []float64) (*Dataset, error) {
	if len(x) == 0 || len(y) == 0 || len(z) == 0 {
		return nil, fmt.Errorf("vtk: empty rectilinear axis")
	}
	return &Dataset{kind: Rectilinear, coords: [3][]float64{x, y, z}}, nil
}

// NewUnstructured returns an unstructured grid of cells of a single type.
// points holds 3 coordinates per node and cells the 0-based node indices
// of each cell, Nodes() per cell.
func NewUnstructured(points []float64, cells []int64, t CellType) (*Dataset, error) {
	n := t.Nodes()
	if n == 0 {
		return nil, fmt.Errorf("vtk: unsupported cell type %d", t)
	}
	if len(points)%3 != 0 {
		return nil, fmt.Errorf("vtk: %d point coordinates are not triplets", len(points))
	}
	if len(cells)%n != 0 {
		return nil, fmt.Errorf("vtk: %d node indices do not make cells of %d nodes", len(cells), n)
	}
	npoints := int64(len(points) / 3)
	for _, c := range cells {
		if c < 0 || c >= npoints {
			return nil, fmt.Errorf("vtk: node index %d out of range [0,%d)", c, npoints)
		}
	}
	d := &Dataset{kind: Unstructured, points: points, connectivity: cells}
	d.setCells(len(cells)/n, n, t)
	return d, nil
}

// NewPolyData returns a cloud of points, each one its own vertex cell.
func NewPolyData(points []float64) (*Dataset, error) {
	if len(points)%3 != 0 {
		return nil, fmt.Errorf("vtk: %d point coordinates are not triplets", len(points))
	}
	n := len(points) / 3
	d := &Dataset{kind: Poly, points: points, connectivity: make([]int64, n)}
	for i := range d.connectivity {
		d.connectivity[i] = int64(i)
	}
	d.setCells(n, 1, Vertex)
	return d, nil
}

func (d *Dataset) setCells(ncells, nodes int, t CellType) {
	d.offsets = make([]int64, ncells)
	d.types = make([]uint8, ncells)
	for i := range d.offsets {
		d.offsets[i] = int64((i + 1) * nodes)
		d.types[i] = uint8(t)
	}
}

// Kind returns the dataset type.
func (d *Dataset) Kind() Kind { return d.kind }

// NumberOfPoints returns the number of nodes.
func (d *Dataset) NumberOfPoints() int {
	if d.kind == Rectilinear {
		return len(d.coords[0]) * len(d.coords[1]) * len(d.coords[2])
	}
	return len(d.points) / 3
}

// NumberOfCells returns the number of cells.
func (d *Dataset) NumberOfCells() int {
	if d.kind == Rectilinear {
		n := 1
		for _, c := range d.coords {
			n *= max(len(c)-1, 1)
		}
		return n
	}
	return len(d.offsets)
}

// Copy returns a dataset sharing the mesh of d but with no attribute arrays.
func (d *Dataset) Copy() *Dataset {
	c := *d
	c.cellData, c.pointData = nil, nil
	return &c
}

func check(a Array, tuples int, what string) error {
	if a.Name == "" {
		return fmt.Errorf("vtk: unnamed %s array", what)
	}
	if a.Components < 1 || len(a.Data) != tuples*a.Components {
		return fmt.Errorf("vtk: %s array %q has %d values, expected %d tuples of %d", what, a.Name, len(a.Data), tuples, a.Components)
	}
	return nil
}

// AddCellData attaches an array with one tuple per cell.
func (d *Dataset) AddCellData(name string, components int, data []float64) error {
	a := Array{Name: name, Components: components, Data: data}
	if err := check(a, d.NumberOfCells(), "cell"); err != nil {
		return err
	}
	d.cellData = append(d.cellData, a)
	return nil
}

// AddPointData attaches an array with one tuple per point.
func (d *Dataset) AddPointData(name string, components int, data []float64) error {
	a := Array{Name: name, Components: components, Data: data}
	if err := check(a, d.NumberOfPoints(), "point"); err != nil {
		return err
	}
	d.pointData = append(d.pointData, a)
	return nil
}

// CellData returns the attached cell arrays.
func (d *Dataset) CellData() []Array { return d.cellData }

// PointData returns the attached point arrays.
func (d *Dataset) PointData() []Array { return d.pointData }

// WriteFile writes d to name, adding the extension for its kind if name
// has none.
func (d *Dataset) WriteFile(name string, opts Options) (err error) {
	if !strings.HasSuffix(name, d.kind.Extension()) {
		name += d.kind.Extension()
	}
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return d.Write(f, opts)
}
