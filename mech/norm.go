package mech

import (
	"fmt"
	"math"
	"strconv"

	"github.com/rmera/godadf5/tensor"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// DefaultOrd returns the default norm order for x: "2" for vectors and
// "fro" for tensors. It returns an error for any other element shape.
func DefaultOrd(x *tensor.Field) (string, error) {
	switch len(x.ElemShape()) {
	case 1:
		return "2", nil
	case 2:
		return "fro", nil
	}
	return "", shapeError("Norm", x, "a vector or a matrix")
}

// Norm returns the norm of order ord of every vector or matrix element
// of x, keeping the reduced dimensions: vectors give N x 1, matrices
// N x 1 x 1. An empty ord selects DefaultOrd.
//
// Vector orders are any number, "inf" and "-inf". Matrix orders are
// "fro", "nuc", 1, -1, 2, -2, "inf" and "-inf", with the usual meaning
// (column sums, singular values, row sums).
func Norm(x *tensor.Field, ord string) (*tensor.Field, error) {
	def, err := DefaultOrd(x)
	if err != nil {
		return nil, err
	}
	if ord == "" {
		ord = def
	}
	if def == "2" {
		p, err := vectorOrd(ord)
		if err != nil {
			return nil, err
		}
		return x.Map([]int{1}, func(src, dst []float64) {
			dst[0] = vectorNorm(src, p)
		}), nil
	}
	e := x.ElemShape()
	fn, err := matrixNorm(ord)
	if err != nil {
		return nil, err
	}
	return x.Map([]int{1, 1}, func(src, dst []float64) {
		dst[0] = fn(mat.NewDense(e[0], e[1], src))
	}), nil
}

func vectorOrd(ord string) (float64, error) {
	switch ord {
	case "inf":
		return math.Inf(1), nil
	case "-inf":
		return math.Inf(-1), nil
	}
	p, err := strconv.ParseFloat(ord, 64)
	if err != nil {
		return 0, Error{fmt.Sprintf("Norm: invalid vector norm order %q", ord), []string{"Norm"}, true}
	}
	return p, nil
}

func vectorNorm(v []float64, p float64) float64 {
	switch {
	case math.IsInf(p, 1):
		return floats.Norm(v, p)
	case math.IsInf(p, -1):
		min := math.Inf(1)
		for _, w := range v {
			min = math.Min(min, math.Abs(w))
		}
		return min
	case p == 0:
		var n float64
		for _, w := range v {
			if w != 0 {
				n++
			}
		}
		return n
	case p == 1 || p == 2:
		return floats.Norm(v, p)
	}
	var sum float64
	for _, w := range v {
		sum += math.Pow(math.Abs(w), p)
	}
	return math.Pow(sum, 1/p)
}

func singular(m *mat.Dense) []float64 {
	var svd mat.SVD
	if ok := svd.Factorize(m, mat.SVDNone); !ok {
		r, c := m.Dims()
		out := make([]float64, min(r, c))
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}
	return svd.Values(nil)
}

// sums returns the sums of absolute values over the rows (byRow) or
// the columns of m.
func sums(m *mat.Dense, byRow bool) []float64 {
	r, c := m.Dims()
	n := c
	if byRow {
		n = r
	}
	out := make([]float64, n)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if byRow {
				out[i] += math.Abs(m.At(i, j))
			} else {
				out[j] += math.Abs(m.At(i, j))
			}
		}
	}
	return out
}

func matrixNorm(ord string) (func(*mat.Dense) float64, error) {
	switch ord {
	case "fro":
		// gonum's matrix 2-norm is the Frobenius norm.
		return func(m *mat.Dense) float64 { return mat.Norm(m, 2) }, nil
	case "nuc":
		return func(m *mat.Dense) float64 { return floats.Sum(singular(m)) }, nil
	case "1":
		return func(m *mat.Dense) float64 { return mat.Norm(m, 1) }, nil
	case "-1":
		return func(m *mat.Dense) float64 { return floats.Min(sums(m, false)) }, nil
	case "2":
		return func(m *mat.Dense) float64 { return floats.Max(singular(m)) }, nil
	case "-2":
		return func(m *mat.Dense) float64 { return floats.Min(singular(m)) }, nil
	case "inf":
		return func(m *mat.Dense) float64 { return mat.Norm(m, math.Inf(1)) }, nil
	case "-inf":
		return func(m *mat.Dense) float64 { return floats.Min(sums(m, true)) }, nil
	}
	return nil, Error{fmt.Sprintf("Norm: invalid matrix norm order %q", ord), []string{"Norm"}, true}
}
