/*
 * table.go, part of godadf5.
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

package table

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/rmera/godadf5/tensor"
)

// ErrFormat is returned for malformed table files.
var ErrFormat = errors.New("table: malformed file")

// ErrLabel is returned for unknown or duplicated labels.
var ErrLabel = errors.New("table: bad label")

// column holds the values of one label, row-major, size(shape) per row.
type column struct {
	label string
	shape []int
	data  []float64
}

func (c *column) size() int {
	n := 1
	for _, s := range c.shape {
		n *= s
	}
	return n
}

// Table is a spreadsheet of labelled columns. A label may span several
// columns holding a vector or a tensor per row.
type Table struct {
	Comments []string
	rows     int
	cols     []*column
}

// New returns an empty table with the given number of rows.
func New(rows int, comments ...string) *Table {
	return &Table{rows: rows, Comments: append([]string(nil), comments...)}
}

// Len returns the number of rows.
func (t *Table) Len() int { return t.rows }

// Labels returns the labels in column order.
func (t *Table) Labels() []string {
	out := make([]string, len(t.cols))
	for i, c := range t.cols {
		out[i] = c.label
	}
	return out
}

// Shape returns the per-row shape of label, (1) for scalars.
func (t *Table) Shape(label string) ([]int, bool) {
	c := t.column(label)
	if c == nil {
		return nil, false
	}
	return slices.Clone(c.shape), true
}

func (t *Table) column(label string) *column {
	for _, c := range t.cols {
		if c.label == label {
			return c
		}
	}
	return nil
}

// component splits "k_label" into k-1 and label, if label is a known
// multi-column label. k is 1-based.
func (t *Table) component(label string) (*column, int, bool) {
	idx, key, ok := strings.Cut(label, "_")
	if !ok {
		return nil, 0, false
	}
	k, err := strconv.Atoi(idx)
	if err != nil {
		return nil, 0, false
	}
	c := t.column(key)
	if c == nil || k < 1 || k > c.size() {
		return nil, 0, false
	}
	return c, k - 1, true
}

// Get returns the values of label with shape (rows, shape...). The label
// "k_label" returns the k-th component of label as a single column.
func (t *Table) Get(label string) (*tensor.Field, error) {
	if c := t.column(label); c != nil {
		shape := append([]int{t.rows}, c.shape...)
		return &tensor.Field{Shape: shape, Data: slices.Clone(c.data)}, nil
	}
	if c, k, ok := t.component(label); ok {
		out := tensor.New(t.rows, 1)
		n := c.size()
		for i := range t.rows {
			out.Data[i] = c.data[i*n+k]
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: %q not found", ErrLabel, label)
}

// elemShape is the shape a field takes in the table: (1) for scalars.
func elemShape(f *tensor.Field) []int {
	e := f.ElemShape()
	if len(f.Fields) > 0 {
		e = []int{f.RowLen()}
	}
	if len(e) == 0 {
		return []int{1}
	}
	return slices.Clone(e)
}

// shapeString prints a shape the way it appears in comments, "(3,)" or "(3, 3)".
func shapeString(shape []int) string {
	parts := make([]string, len(shape))
	for i, s := range shape {
		parts[i] = strconv.Itoa(s)
	}
	if len(parts) == 1 {
		return "(" + parts[0] + ",)"
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func (t *Table) comment(label string, shape []int, info string) {
	if info == "" {
		return
	}
	n := 1
	for _, s := range shape {
		n *= s
	}
	if n > 1 {
		label += " " + shapeString(shape)
	}
	t.Comments = append(t.Comments, label+": "+info)
}

// Add appends the new label with the values of f, which must have one
// row per table row. A non-empty info is recorded as a comment.
func (t *Table) Add(label string, f *tensor.Field, info string) error {
	if label == "" || t.column(label) != nil {
		return fmt.Errorf("%w: cannot add %q", ErrLabel, label)
	}
	if f.Rows() != t.rows {
		return fmt.Errorf("table: %q has %d rows, table has %d", label, f.Rows(), t.rows)
	}
	shape := elemShape(f)
	t.comment(label, shape, info)
	t.cols = append(t.cols, &column{label: label, shape: shape, data: slices.Clone(f.Data)})
	return nil
}

// Set replaces the values of label, or of one component for "k_label".
func (t *Table) Set(label string, f *tensor.Field, info string) error {
	if f.Rows() != t.rows {
		return fmt.Errorf("table: %q has %d rows, table has %d", label, f.Rows(), t.rows)
	}
	if c := t.column(label); c != nil {
		if f.RowLen() != c.size() {
			return fmt.Errorf("table: %d values per row for %q, which holds %d", f.RowLen(), label, c.size())
		}
		t.comment(label, elemShape(f), info)
		copy(c.data, f.Data)
		return nil
	}
	c, k, ok := t.component(label)
	if !ok {
		return fmt.Errorf("%w: %q not found", ErrLabel, label)
	}
	if f.RowLen() != 1 {
		return fmt.Errorf("table: component %q takes one value per row", label)
	}
	t.comment(label, []int{1}, info)
	n := c.size()
	for i := range t.rows {
		c.data[i*n+k] = f.Data[i]
	}
	return nil
}

// Delete removes label.
func (t *Table) Delete(label string) error {
	for i, c := range t.cols {
		if c.label == label {
			t.cols = slices.Delete(t.cols, i, i+1)
			return nil
		}
	}
	return fmt.Errorf("%w: %q not found", ErrLabel, label)
}

// Rename changes the label old to new and records it in the comments.
func (t *Table) Rename(old, new, info string) error {
	c := t.column(old)
	if c == nil {
		return fmt.Errorf("%w: %q not found", ErrLabel, old)
	}
	if t.column(new) != nil {
		return fmt.Errorf("%w: %q already exists", ErrLabel, new)
	}
	c.label = new
	msg := old + " => " + new
	if info != "" {
		msg += ": " + info
	}
	t.Comments = append(t.Comments, msg)
	return nil
}

// SortBy reorders the rows by the values of labels, the first label
// taking precedence. Labels may be "k_label" components; a multi-column
// label sorts by its first component.
func (t *Table) SortBy(labels []string, ascending bool) error {
	keys := make([][]float64, len(labels))
	for i, l := range labels {
		f, err := t.Get(l)
		if err != nil {
			return err
		}
		keys[i] = f.Column(0)
	}
	order := make([]int, t.rows)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		for _, k := range keys {
			x, y := k[order[a]], k[order[b]]
			if x == y {
				continue
			}
			if ascending {
				return x < y
			}
			return x > y
		}
		return false
	})
	for _, c := range t.cols {
		n := c.size()
		data := make([]float64, len(c.data))
		for i, o := range order {
			copy(data[i*n:(i+1)*n], c.data[o*n:(o+1)*n])
		}
		c.data = data
	}
	t.Comments = append(t.Comments, "sorted by ["+strings.Join(labels, ", ")+"]")
	return nil
}

// Append adds the rows of o below those of t. Both tables need the same
// labels with the same shapes in the same order.
func (t *Table) Append(o *Table) error {
	if len(t.cols) != len(o.cols) {
		return fmt.Errorf("%w: labels do not match", ErrLabel)
	}
	for i, c := range t.cols {
		d := o.cols[i]
		if c.label != d.label || !slices.Equal(c.shape, d.shape) {
			return fmt.Errorf("%w: labels or shapes do not match at %q", ErrLabel, c.label)
		}
	}
	for i, c := range t.cols {
		c.data = append(c.data, o.cols[i].data...)
	}
	t.rows += o.rows
	return nil
}

// Join adds the columns of o to the right of those of t. Both tables need
// the same number of rows and no label in common.
func (t *Table) Join(o *Table) error {
	if t.rows != o.rows {
		return fmt.Errorf("table: row count mismatch, %d and %d", t.rows, o.rows)
	}
	for _, c := range o.cols {
		if t.column(c.label) != nil {
			return fmt.Errorf("%w: %q in both tables", ErrLabel, c.label)
		}
	}
	for _, c := range o.cols {
		t.cols = append(t.cols, &column{label: c.label, shape: slices.Clone(c.shape), data: slices.Clone(c.data)})
	}
	return nil
}
