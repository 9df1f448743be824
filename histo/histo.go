/*
 * histo.go, part of godadf5.
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

package histo

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Dividers returns n+1 evenly spaced bin limits from min to max.
func Dividers(min, max float64, n int) []float64 {
	if n < 1 {
		n = 1
	}
	return floats.Span(make([]float64, n+1), min, max)
}

// Range returns the smallest and largest finite values in data, and false if
// there are none.
func Range(data []float64) (float64, float64, bool) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi, lo <= hi
}

// AutoDividers returns n bins spanning the finite values of data. The last
// divider is nudged up so the largest value falls in the last bin.
func AutoDividers(data []float64, n int) ([]float64, error) {
	lo, hi, ok := Range(data)
	if !ok {
		return nil, fmt.Errorf("histo: no finite data")
	}
	if hi == lo {
		hi = lo + 1
	}
	return Dividers(lo, math.Nextafter(hi, math.Inf(1)), n), nil
}

// Matrix is a matrix of histograms sharing one set of dividers, for instance
// one row per increment and one column per field component.
type Matrix struct {
	rows, cols int     //total
	d          []*Data //row-major
	dividers   []float64
}

// NewMatrix returns an empty r x c matrix of histograms over dividers.
func NewMatrix(r, c int, dividers []float64) *Matrix {
	return &Matrix{rows: r, cols: c, d: make([]*Data, r*c), dividers: slices.Clone(dividers)}
}

// Dims returns the number of rows and columns of M.
func (M *Matrix) Dims() (int, int) {
	return M.rows, M.cols
}

type jsonMatrix struct {
	Rows     int       `json:"rows"`
	Cols     int       `json:"cols"`
	D        []*Data   `json:"data"`
	Dividers []float64 `json:"dividers"`
}

func (M *Matrix) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonMatrix{Rows: M.rows, Cols: M.cols, D: M.d, Dividers: M.dividers})
}

func (M *Matrix) UnmarshalJSON(b []byte) error {
	var a jsonMatrix
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	if len(a.D) != a.Rows*a.Cols {
		return fmt.Errorf("histo: %d histograms for a %dx%d matrix", len(a.D), a.Rows, a.Cols)
	}
	M.rows, M.cols, M.d, M.dividers = a.Rows, a.Cols, a.D, a.Dividers
	return nil
}

// rc2i returns the index in M.d of row r, column c. It panics when
// either is out of range.
func (M *Matrix) rc2i(r, c int) int {
	if err := M.Check(r, c); err != nil {
		panic(err.Error())
	}
	return M.cols*r + c
}

// Check returns an error if r or c is out of range.
func (M *Matrix) Check(r, c int) error {
	if r < 0 || r >= M.rows {
		return fmt.Errorf("histo: row %d out of range", r)
	}
	if c < 0 || c >= M.cols {
		return fmt.Errorf("histo: column %d out of range", c)
	}
	return nil
}

// NewHisto puts the histogram of rawdata at r,c. rawdata can be nil. The ID of the new
// histogram is its row-major index.
func (M *Matrix) NewHisto(r, c int, rawdata []float64) {
	i := M.rc2i(r, c)
	M.d[i] = NewData(M.dividers, rawdata, i)
}

// View returns the histogram at r,c, nil if there is none.
func (M *Matrix) View(r, c int) *Data {
	return M.d[M.rc2i(r, c)]
}

// NormalizeAll normalizes all the histograms in the matrix.
func (M *Matrix) NormalizeAll() {
	for _, v := range M.d {
		if v != nil {
			v.Normalize()
		}
	}
}

// Relative returns a matrix holding, for every row, the difference between
// that row and row ref. Differences of normalized histograms show how a
// distribution moved between increments.
func (M *Matrix) Relative(ref int) (*Matrix, error) {
	if err := M.Check(ref, 0); err != nil {
		return nil, err
	}
	R := NewMatrix(M.rows, M.cols, M.dividers)
	for i := 0; i < M.rows; i++ {
		for j := 0; j < M.cols; j++ {
			a, b := M.View(i, j), M.View(ref, j)
			if a == nil || b == nil {
				return nil, fmt.Errorf("histo: no histogram at %d,%d", i, j)
			}
			d := NewData(M.dividers, nil, M.rc2i(i, j))
			d.Sub(a, b)
			R.d[M.rc2i(i, j)] = d
		}
	}
	return R, nil
}

// FromAll applies f to each histogram of M and returns the results as
// a [][]float64 with the layout of M.
func (M *Matrix) FromAll(f func(D *Data) (float64, error)) ([][]float64, error) {
	r := make([][]float64, M.rows)
	var err error
	for i := 0; i < M.rows; i++ {
		r[i] = make([]float64, M.cols)
		for j := 0; j < M.cols; j++ {
			r[i][j], err = f(M.View(i, j))
			if err != nil {
				return nil, fmt.Errorf("histo: at %d,%d: %w", i, j, err)
			}
		}
	}
	return r, nil
}

// Data is one histogram.
type Data struct {
	id         int
	normalized bool
	total      int
	dividers   []float64
	histo      []float64
}

type jsonData struct {
	ID         int       `json:"id"`
	Normalized bool      `json:"normalized"`
	Total      int       `json:"total"`
	Dividers   []float64 `json:"dividers"`
	Histo      []float64 `json:"histo"`
}

func (D *Data) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonData{ID: D.id, Normalized: D.normalized, Total: D.total, Dividers: D.dividers, Histo: D.histo})
}

func (D *Data) UnmarshalJSON(b []byte) error {
	var a jsonData
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	if len(a.Dividers) != len(a.Histo)+1 {
		return fmt.Errorf("histo: %d dividers for %d bins", len(a.Dividers), len(a.Histo))
	}
	D.id, D.normalized, D.total, D.dividers, D.histo = a.ID, a.Normalized, a.Total, a.Dividers, a.Histo
	return nil
}

// ID returns the ID of the histogram, -1 if it has none.
func (D *Data) ID() int {
	return D.id
}

// Total returns the number of data points counted, out of range ones excluded.
func (D *Data) Total() int {
	return D.total
}

// NewData returns the histogram of rawdata over dividers. rawdata can be nil,
// which gives an empty histogram. The ID is set to ID[0] if given, -1 otherwise.
func NewData(dividers []float64, rawdata []float64, ID ...int) *Data {
	d := &Data{id: -1, dividers: slices.Clone(dividers), histo: make([]float64, len(dividers)-1)}
	if rawdata != nil {
		d.ReHisto(d.dividers, rawdata)
	}
	if len(ID) > 0 {
		d.id = ID[0]
	}
	return d
}

// Normalized reports whether the counts are divided by the total.
func (D *Data) Normalized() bool {
	return D.normalized
}

// Normalize divides the counts by the total. It does nothing on empty or
// already normalized histograms.
func (D *Data) Normalize() {
	if D.total <= 0 || D.normalized {
		return
	}
	floats.Scale(1/float64(D.total), D.histo)
	D.normalized = true
}

// View returns the counts without copying them
func (D *Data) View() []float64 {
	return D.histo
}

// Centers returns the centers of the bins.
func (D *Data) Centers() []float64 {
	c := make([]float64, len(D.histo))
	for i := range c {
		c[i] = (D.dividers[i] + D.dividers[i+1]) / 2
	}
	return c
}

// Mean returns the mean of the bin centers weighted by the counts.
func (D *Data) Mean() (float64, error) {
	if D.Sum() == 0 {
		return math.NaN(), fmt.Errorf("histo: empty histogram")
	}
	return stat.Mean(D.Centers(), D.histo), nil
}

// Sub puts a - b in the receiver. The result is normalized only if both
// operands are.
func (D *Data) Sub(a, b *Data) {
	if !floats.Equal(a.dividers, b.dividers) {
		panic("histo.Data: Dividers must match in combined histograms")
	}
	D.dividers = slices.Clone(a.dividers)
	D.histo = make([]float64, len(a.histo))
	floats.SubTo(D.histo, a.histo, b.histo)
	D.total = a.total
	D.normalized = a.normalized && b.normalized
}

// Sum returns the sum of the counts
func (D *Data) Sum() float64 {
	return floats.Sum(D.histo)
}

// ReHisto recomputes the histogram from a copy of rawdata.
// NaNs and values outside the dividers are omitted.
func (D *Data) ReHisto(dividers, rawdata []float64) {
	clean := rawdata[:0:0]
	for _, v := range rawdata {
		if !math.IsNaN(v) {
			clean = append(clean, v)
		}
	}
	sort.Float64s(clean)
	//stat.Histogram panics on values off limits, so those go first.
	maxi := sort.SearchFloat64s(clean, dividers[len(dividers)-1])
	mini := sort.SearchFloat64s(clean, dividers[0])
	clean = clean[mini:maxi]
	D.total = len(clean)
	D.dividers = slices.Clone(dividers)
	D.histo = stat.Histogram(nil, dividers, clean, nil)
	D.normalized = false
}
