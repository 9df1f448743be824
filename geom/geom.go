/*
 * geom.go, part of godadf5.
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

package geom

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/rmera/godadf5/vtk"
)

// ErrFormat is returned for malformed geometry files.
var ErrFormat = errors.New("geom: malformed file")

// Geom is a voxel geometry: a regular grid of cells, each holding the
// index of its microstructure.
type Geom struct {
	Grid           [3]int
	Size           [3]float64
	Origin         [3]float64
	Homogenization int
	// Microstructure indices in Fortran order, x running fastest.
	Microstructure []int
	Comments       []string
}

// New returns a geometry of the given grid and size with every cell
// set to microstructure 1.
func New(grid [3]int, size [3]float64) (*Geom, error) {
	for i := range grid {
		if grid[i] < 1 || size[i] <= 0 {
			return nil, fmt.Errorf("geom: invalid grid %v or size %v", grid, size)
		}
	}
	ms := make([]int, grid[0]*grid[1]*grid[2])
	for i := range ms {
		ms[i] = 1
	}
	return &Geom{Grid: grid, Size: size, Homogenization: 1, Microstructure: ms}, nil
}

// Cells returns the number of cells.
func (G *Geom) Cells() int {
	return G.Grid[0] * G.Grid[1] * G.Grid[2]
}

// Index returns the position of cell (i,j,k) in Microstructure.
func (G *Geom) Index(i, j, k int) int {
	return i + G.Grid[0]*(j+G.Grid[1]*k)
}

// At returns the microstructure of cell (i,j,k).
func (G *Geom) At(i, j, k int) int {
	return G.Microstructure[G.Index(i, j, k)]
}

func (G *Geom) check() error {
	if len(G.Microstructure) != G.Cells() {
		return fmt.Errorf("geom: %d microstructure entries for grid %v", len(G.Microstructure), G.Grid)
	}
	return nil
}

// Unique returns the distinct microstructure indices, sorted.
func (G *Geom) Unique() []int {
	u := slices.Clone(G.Microstructure)
	slices.Sort(u)
	return slices.Compact(u)
}

// String summarizes the geometry.
func (G *Geom) String() string {
	u := G.Unique()
	maxMS := 0
	if len(u) > 0 {
		maxMS = u[len(u)-1]
	}
	return strings.Join([]string{
		fmt.Sprintf("grid     a b c:      %d x %d x %d", G.Grid[0], G.Grid[1], G.Grid[2]),
		fmt.Sprintf("size     x y z:      %g x %g x %g", G.Size[0], G.Size[1], G.Size[2]),
		fmt.Sprintf("origin   x y z:      %g   %g   %g", G.Origin[0], G.Origin[1], G.Origin[2]),
		fmt.Sprintf("homogenization:      %d", G.Homogenization),
		fmt.Sprintf("# microstructures:   %d", len(u)),
		fmt.Sprintf("max microstructure:  %d", maxMS),
	}, "\n")
}

// Header returns the header lines of the file representation, the
// "<N> header" line included.
func (G *Geom) Header() []string {
	h := []string{fmt.Sprintf("%d header", len(G.Comments)+4)}
	h = append(h, G.Comments...)
	return append(h,
		fmt.Sprintf("grid   a %d b %d c %d", G.Grid[0], G.Grid[1], G.Grid[2]),
		fmt.Sprintf("size   x %g y %g z %g", G.Size[0], G.Size[1], G.Size[2]),
		fmt.Sprintf("origin x %g y %g z %g", G.Origin[0], G.Origin[1], G.Origin[2]),
		fmt.Sprintf("homogenization %d", G.Homogenization),
	)
}

// ToVTK returns a rectilinear grid spanning the geometry with the
// microstructure as cell data.
func (G *Geom) ToVTK() (*vtk.Dataset, error) {
	if err := G.check(); err != nil {
		return nil, err
	}
	var axes [3][]float64
	for d := range axes {
		axes[d] = make([]float64, G.Grid[d]+1)
		for i := range axes[d] {
			axes[d][i] = G.Origin[d] + G.Size[d]*float64(i)/float64(G.Grid[d])
		}
	}
	v, err := vtk.NewRectilinear(axes[0], axes[1], axes[2])
	if err != nil {
		return nil, err
	}
	ms := make([]float64, len(G.Microstructure))
	for i, m := range G.Microstructure {
		ms[i] = float64(m)
	}
	if err := v.AddCellData("microstructure", 1, ms); err != nil {
		return nil, err
	}
	return v, nil
}
