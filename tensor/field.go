/*
 * field.go, part of godadf5.
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
 */

package tensor

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/mat"
)

// Field is a dense, row-major array of float64 values. The first
// dimension counts points; the rest is the shape of one element. If
// Fields is not empty the element is a compound record and each entry
// of the last level holds len(Fields) named values.
type Field struct {
	Shape  []int
	Fields []string
	Data   []float64
}

// New returns a zero-filled field of the given shape.
func New(shape ...int) *Field {
	return &Field{Shape: append([]int(nil), shape...), Data: make([]float64, size(shape))}
}

// NaN returns a field of the given shape filled with NaN.
func NaN(shape ...int) *Field {
	F := New(shape...)
	for i := range F.Data {
		F.Data[i] = math.NaN()
	}
	return F
}

// FromData wraps data in a field. It returns an error if the data does
// not fit the shape.
func FromData(data []float64, shape ...int) (*Field, error) {
	if size(shape) != len(data) {
		return nil, Error{fmt.Sprintf("%d values do not fit shape %v", len(data), shape), []string{"FromData"}, true}
	}
	return &Field{Shape: append([]int(nil), shape...), Data: data}, nil
}

func size(shape []int) int {
	n := 1
	for _, s := range shape {
		n *= s
	}
	return n
}

// Rows returns the number of points (the first dimension).
func (F *Field) Rows() int {
	if len(F.Shape) == 0 {
		return 1
	}
	return F.Shape[0]
}

// RowLen returns the number of values stored per point.
func (F *Field) RowLen() int {
	if len(F.Shape) == 0 {
		return len(F.Data)
	}
	n := size(F.Shape[1:])
	if len(F.Fields) > 0 {
		n *= len(F.Fields)
	}
	return n
}

// ElemShape returns the shape of one point's element.
func (F *Field) ElemShape() []int {
	if len(F.Shape) == 0 {
		return nil
	}
	return F.Shape[1:]
}

// Row returns a view of the values of point i.
func (F *Field) Row(i int) []float64 {
	l := F.RowLen()
	return F.Data[i*l : (i+1)*l]
}

// SetRow copies src into point i. It panics if src has the wrong length.
func (F *Field) SetRow(i int, src []float64) {
	if len(src) != F.RowLen() {
		panic(PanicMsg(fmt.Sprintf("SetRow: %d values for a row of %d", len(src), F.RowLen())))
	}
	copy(F.Row(i), src)
}

// Is reports whether the element shape equals shape.
func (F *Field) Is(shape ...int) bool {
	e := F.ElemShape()
	if len(e) != len(shape) || len(F.Fields) > 0 {
		return false
	}
	for i := range e {
		if e[i] != shape[i] {
			return false
		}
	}
	return true
}

// Mat3 returns a 3x3 matrix view of point i. Changes in the view are
// reflected in F.
func (F *Field) Mat3(i int) *mat.Dense {
	if !F.Is(3, 3) {
		panic(PanicMsg(fmt.Sprintf("Mat3: element shape %v is not 3x3", F.ElemShape())))
	}
	return mat.NewDense(3, 3, F.Row(i))
}

// PutMat3 copies the 3x3 matrix m into point i.
func (F *Field) PutMat3(i int, m mat.Matrix) {
	r, c := m.Dims()
	if r != 3 || c != 3 {
		panic(PanicMsg("PutMat3: matrix is not 3x3"))
	}
	row := F.Row(i)
	for j := 0; j < 3; j++ {
		for k := 0; k < 3; k++ {
			row[3*j+k] = m.At(j, k)
		}
	}
}

// Vec returns a view of point i as a vector.
func (F *Field) Vec(i int) *mat.VecDense {
	return mat.NewVecDense(F.RowLen(), F.Row(i))
}

// Promote returns F with a trailing dimension of 1 if F is one dimensional.
// Otherwise F itself is returned.
func (F *Field) Promote() *Field {
	if len(F.Shape) != 1 || len(F.Fields) > 0 {
		return F
	}
	return &Field{Shape: []int{F.Shape[0], 1}, Data: F.Data}
}

// Flatten returns a plain N x k view of a compound field, with one column
// per sub-field. Non-compound fields are returned unchanged.
func (F *Field) Flatten() *Field {
	if len(F.Fields) == 0 {
		return F
	}
	return &Field{Shape: []int{F.Rows(), F.RowLen()}, Data: F.Data}
}

// Reshape returns a view of F with a new shape holding the same number of values.
func (F *Field) Reshape(shape ...int) (*Field, error) {
	if size(shape) != F.Size() {
		return nil, Error{fmt.Sprintf("cannot reshape %v into %v", F.Shape, shape), []string{"Reshape"}, true}
	}
	return &Field{Shape: append([]int(nil), shape...), Data: F.Data}, nil
}

// Size returns the total number of values.
func (F *Field) Size() int {
	return len(F.Data)
}

// Clone returns a deep copy of F.
func (F *Field) Clone() *Field {
	return &Field{
		Shape:  append([]int(nil), F.Shape...),
		Fields: append([]string(nil), F.Fields...),
		Data:   append([]float64(nil), F.Data...),
	}
}

// SameShape reports whether F and G have identical shapes and fields.
func (F *Field) SameShape(G *Field) bool {
	if len(F.Shape) != len(G.Shape) || len(F.Fields) != len(G.Fields) {
		return false
	}
	for i := range F.Shape {
		if F.Shape[i] != G.Shape[i] {
			return false
		}
	}
	for i := range F.Fields {
		if F.Fields[i] != G.Fields[i] {
			return false
		}
	}
	return true
}

// EqualApprox reports whether F and G have the same shape and all their
// values agree within tol. NaNs compare equal to NaNs.
func (F *Field) EqualApprox(G *Field, tol float64) bool {
	if !F.SameShape(G) {
		return false
	}
	for i, v := range F.Data {
		w := G.Data[i]
		if math.IsNaN(v) || math.IsNaN(w) {
			if math.IsNaN(v) != math.IsNaN(w) {
				return false
			}
			continue
		}
		if !scalar.EqualWithinAbsOrRel(v, w, tol, tol) {
			return false
		}
	}
	return true
}

// Map returns a new field of the given element shape, filling each
// point with fn(row of F, destination row).
func (F *Field) Map(elem []int, fn func(src, dst []float64)) *Field {
	shape := append([]int{F.Rows()}, elem...)
	out := New(shape...)
	for i := 0; i < F.Rows(); i++ {
		fn(F.Row(i), out.Row(i))
	}
	return out
}

// Column returns a copy of column j of a 2D field.
func (F *Field) Column(j int) []float64 {
	l := F.RowLen()
	out := make([]float64, F.Rows())
	for i := range out {
		out[i] = F.Data[i*l+j]
	}
	return out
}

// String prints the shape and the first values of the field.
func (F *Field) String() string {
	const show = 6
	if len(F.Data) <= show {
		return fmt.Sprintf("Field%v%v", F.Shape, F.Data)
	}
	return fmt.Sprintf("Field%v%v...", F.Shape, F.Data[:show])
}
