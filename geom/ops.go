/*
 * ops.go, part of godadf5.
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
	"fmt"
	"math"
	"slices"

	"github.com/rmera/godadf5/workpool"
)

// Mirror appends mirrored copies of the microstructure along the given
// directions ("x", "y", "z"). Without reflect the outermost layers are
// not repeated. The size grows with the grid.
func (G *Geom) Mirror(directions []string, reflect bool) error {
	var axes [3]bool
	for _, d := range directions {
		switch d {
		case "x":
			axes[0] = true
		case "y":
			axes[1] = true
		case "z":
			axes[2] = true
		default:
			return fmt.Errorf("geom: invalid mirror direction %q", d)
		}
	}
	for _, a := range []int{2, 1, 0} {
		if axes[a] {
			G.mirrorAxis(a, reflect)
		}
	}
	return nil
}

func (G *Geom) mirrorAxis(a int, reflect bool) {
	n := G.Grid[a]
	// layers appended after the original ones, in order
	var extra []int
	if reflect {
		for l := n - 1; l >= 0; l-- {
			extra = append(extra, l)
		}
	} else {
		for l := n - 2; l > 0; l-- {
			extra = append(extra, l)
		}
	}
	grid := G.Grid
	grid[a] += len(extra)
	ms := make([]int, grid[0]*grid[1]*grid[2])
	for k := 0; k < grid[2]; k++ {
		for j := 0; j < grid[1]; j++ {
			for i := 0; i < grid[0]; i++ {
				src := [3]int{i, j, k}
				if src[a] >= n {
					src[a] = extra[src[a]-n]
				}
				ms[i+grid[0]*(j+grid[1]*k)] = G.At(src[0], src[1], src[2])
			}
		}
	}
	G.Size[a] *= float64(grid[a]) / float64(n)
	G.Grid, G.Microstructure = grid, ms
}

// Renumber maps the sorted microstructure indices to 1...N.
func (G *Geom) Renumber() {
	u := G.Unique()
	for i, m := range G.Microstructure {
		idx, _ := slices.BinarySearch(u, m)
		G.Microstructure[i] = idx + 1
	}
}

// reflectIndex maps i into [0,n) mirroring at the borders, so that
// -1 maps to 0 and n to n-1.
func reflectIndex(i, n int) int {
	for i < 0 || i >= n {
		if i < 0 {
			i = -i - 1
		}
		if i >= n {
			i = 2*n - i - 1
		}
	}
	return i
}

// Clean replaces every microstructure index with the most frequent index
// in the stencil^3 neighbourhood around the cell. Ties go to the lowest
// index.
func (G *Geom) Clean(stencil int) error {
	if stencil < 1 {
		return fmt.Errorf("geom: stencil must be positive, got %d", stencil)
	}
	lo := -(stencil / 2)
	hi := lo + stencil
	out := make([]int, len(G.Microstructure))
	counts := make(map[int]int)
	for k := 0; k < G.Grid[2]; k++ {
		for j := 0; j < G.Grid[1]; j++ {
			for i := 0; i < G.Grid[0]; i++ {
				clear(counts)
				for dk := lo; dk < hi; dk++ {
					for dj := lo; dj < hi; dj++ {
						for di := lo; di < hi; di++ {
							counts[G.At(reflectIndex(i+di, G.Grid[0]), reflectIndex(j+dj, G.Grid[1]), reflectIndex(k+dk, G.Grid[2]))]++
						}
					}
				}
				best, bestN := 0, -1
				for m, c := range counts {
					if c > bestN || (c == bestN && m < best) {
						best, bestN = m, c
					}
				}
				out[G.Index(i, j, k)] = best
			}
		}
	}
	G.Microstructure = out
	return nil
}

// FromLaguerre tessellates the grid: every cell takes the seed that
// minimizes the squared distance to the cell center minus the seed
// weight. With periodic, seeds act across the box faces. Microstructure
// indices are the 1-based seed numbers. Slices along z are computed
// concurrently on workers goroutines.
func FromLaguerre(grid [3]int, size [3]float64, seeds [][3]float64, weights []float64, periodic bool, workers int) (*Geom, error) {
	if len(seeds) == 0 || len(seeds) != len(weights) {
		return nil, fmt.Errorf("geom: %d seeds with %d weights", len(seeds), len(weights))
	}
	G, err := New(grid, size)
	if err != nil {
		return nil, err
	}
	shifts := [][3]float64{{}}
	if periodic {
		shifts = shifts[:0]
		for _, a := range []float64{-1, 0, 1} {
			for _, b := range []float64{-1, 0, 1} {
				for _, c := range []float64{-1, 0, 1} {
					shifts = append(shifts, [3]float64{a * size[0], b * size[1], c * size[2]})
				}
			}
		}
	}
	pool := workpool.New(workers)
	defer pool.Close()
	futures := make([]*workpool.Future[struct{}], grid[2])
	for k := range futures {
		futures[k] = workpool.Submit(pool, func() (struct{}, error) {
			for j := 0; j < grid[1]; j++ {
				for i := 0; i < grid[0]; i++ {
					x := [3]float64{
						(float64(i) + 0.5) * size[0] / float64(grid[0]),
						(float64(j) + 0.5) * size[1] / float64(grid[1]),
						(float64(k) + 0.5) * size[2] / float64(grid[2]),
					}
					best, bestD := 0, math.Inf(1)
					for _, sh := range shifts {
						for s, seed := range seeds {
							d := -weights[s]
							for c := range x {
								e := x[c] - seed[c] - sh[c]
								d += e * e
							}
							if d < bestD {
								best, bestD = s, d
							}
						}
					}
					G.Microstructure[G.Index(i, j, k)] = best + 1
				}
			}
			return struct{}{}, nil
		})
	}
	for _, f := range futures {
		if _, err := f.Wait(); err != nil {
			return nil, err
		}
	}
	return G, nil
}

// FromVoronoi is FromLaguerre with equal weights.
func FromVoronoi(grid [3]int, size [3]float64, seeds [][3]float64, periodic bool, workers int) (*Geom, error) {
	return FromLaguerre(grid, size, seeds, make([]float64, len(seeds)), periodic, workers)
}
