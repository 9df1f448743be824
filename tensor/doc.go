/*
Package tensor implements Field, a dense row-major N-dimensional array
of float64 values. A Field holds one element per point (a scalar, a
vector, a 3x3 tensor or a compound record) and offers gonum views on
single points, so formulas can be written with gonum's mat package.
*/
package tensor
