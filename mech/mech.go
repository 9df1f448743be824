/*
 * mech.go, part of godadf5.
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

package mech

import (
	"fmt"
	"math"

	"github.com/rmera/godadf5/tensor"
	"gonum.org/v1/gonum/mat"
)

// Error is returned when a formula gets an argument of the wrong shape.
type Error struct {
	message  string
	deco     []string
	critical bool
}

func (err Error) Error() string { return err.message }

// Decorate adds the caller's name to the error and returns the trace.
func (err Error) Decorate(dec string) []string {
	err.deco = append(err.deco, dec)
	return err.deco
}

func (err Error) Critical() bool { return err.critical }

func shapeError(fn string, x *tensor.Field, want string) error {
	return Error{fmt.Sprintf("%s: element shape %v, need %s", fn, x.ElemShape(), want), []string{fn}, true}
}

func need33(fn string, xs ...*tensor.Field) error {
	for _, x := range xs {
		if !x.Is(3, 3) {
			return shapeError(fn, x, "3x3")
		}
	}
	if len(xs) > 1 {
		for _, x := range xs[1:] {
			if x.Rows() != xs[0].Rows() {
				return Error{fmt.Sprintf("%s: %d and %d points", fn, xs[0].Rows(), x.Rows()), []string{fn}, true}
			}
		}
	}
	return nil
}

// Abs returns the elementwise absolute value of x.
func Abs(x *tensor.Field) *tensor.Field {
	out := x.Clone()
	for i, v := range out.Data {
		out.Data[i] = math.Abs(v)
	}
	return out
}

func trace(r []float64) float64 { return r[0] + r[4] + r[8] }

// Determinant returns the determinant of every 3x3 tensor, one value per point.
func Determinant(x *tensor.Field) (*tensor.Field, error) {
	if err := need33("Determinant", x); err != nil {
		return nil, err
	}
	out := tensor.New(x.Rows())
	for i := 0; i < x.Rows(); i++ {
		out.Data[i] = mat.Det(x.Mat3(i))
	}
	return out, nil
}

// Spherical returns the spherical (hydrostatic) part of every tensor,
// tr(x)/3, one value per point.
func Spherical(x *tensor.Field) (*tensor.Field, error) {
	if err := need33("Spherical", x); err != nil {
		return nil, err
	}
	out := tensor.New(x.Rows())
	for i := 0; i < x.Rows(); i++ {
		out.Data[i] = trace(x.Row(i)) / 3
	}
	return out, nil
}

// Deviatoric returns x - tr(x)/3 I for every tensor.
func Deviatoric(x *tensor.Field) (*tensor.Field, error) {
	if err := need33("Deviatoric", x); err != nil {
		return nil, err
	}
	return x.Map([]int{3, 3}, deviator), nil
}

func deviator(src, dst []float64) {
	copy(dst, src)
	p := trace(src) / 3
	dst[0] -= p
	dst[4] -= p
	dst[8] -= p
}

// Symmetric returns (x + x^T)/2 for every tensor.
func Symmetric(x *tensor.Field) (*tensor.Field, error) {
	if err := need33("Symmetric", x); err != nil {
		return nil, err
	}
	return x.Map([]int{3, 3}, symmetric), nil
}

func symmetric(src, dst []float64) {
	for j := 0; j < 3; j++ {
		for k := 0; k < 3; k++ {
			dst[3*j+k] = 0.5 * (src[3*j+k] + src[3*k+j])
		}
	}
}

// Transpose returns x^T for every tensor.
func Transpose(x *tensor.Field) (*tensor.Field, error) {
	if err := need33("Transpose", x); err != nil {
		return nil, err
	}
	return x.Map([]int{3, 3}, func(src, dst []float64) {
		for j := 0; j < 3; j++ {
			for k := 0; k < 3; k++ {
				dst[3*j+k] = src[3*k+j]
			}
		}
	}), nil
}

// symEigen factorizes the symmetric part of a 3x3 tensor. Values are
// ascending. If the factorization fails (NaN input, for instance) the
// values and vectors are NaN.
func symEigen(src []float64, vectors bool) ([]float64, *mat.Dense) {
	s := make([]float64, 9)
	symmetric(src, s)
	var eig mat.EigenSym
	if ok := eig.Factorize(mat.NewSymDense(3, s), vectors); !ok {
		nan := math.NaN()
		v := mat.NewDense(3, 3, []float64{nan, nan, nan, nan, nan, nan, nan, nan, nan})
		return []float64{nan, nan, nan}, v
	}
	vals := eig.Values(nil)
	if !vectors {
		return vals, nil
	}
	var v mat.Dense
	eig.VectorsTo(&v)
	return vals, &v
}

// Eigenvalues returns the eigenvalues of the symmetric part of every
// tensor, in ascending order.
func Eigenvalues(x *tensor.Field) (*tensor.Field, error) {
	if err := need33("Eigenvalues", x); err != nil {
		return nil, err
	}
	return x.Map([]int{3}, func(src, dst []float64) {
		vals, _ := symEigen(src, false)
		copy(dst, vals)
	}), nil
}

// Eigenvectors returns the eigenvectors of the symmetric part of every
// tensor, as the columns of a 3x3 matrix ordered like Eigenvalues.
func Eigenvectors(x *tensor.Field) (*tensor.Field, error) {
	if err := need33("Eigenvectors", x); err != nil {
		return nil, err
	}
	return x.Map([]int{3, 3}, func(src, dst []float64) {
		_, v := symEigen(src, true)
		for j := 0; j < 3; j++ {
			for k := 0; k < 3; k++ {
				dst[3*j+k] = v.At(j, k)
			}
		}
	}), nil
}

// PrincipalComponents returns the eigenvalues of the symmetric part of
// every tensor, in descending order.
func PrincipalComponents(x *tensor.Field) (*tensor.Field, error) {
	if err := need33("PrincipalComponents", x); err != nil {
		return nil, err
	}
	return x.Map([]int{3}, func(src, dst []float64) {
		vals, _ := symEigen(src, false)
		dst[0], dst[1], dst[2] = vals[2], vals[1], vals[0]
	}), nil
}

// MaximumShear returns half the difference between the largest and the
// smallest principal component of every tensor.
func MaximumShear(x *tensor.Field) (*tensor.Field, error) {
	if err := need33("MaximumShear", x); err != nil {
		return nil, err
	}
	return x.Map(nil, func(src, dst []float64) {
		vals, _ := symEigen(src, false)
		dst[0] = (vals[2] - vals[0]) / 2
	}), nil
}

func mises(x *tensor.Field, fn string, factor float64) (*tensor.Field, error) {
	if err := need33(fn, x); err != nil {
		return nil, err
	}
	s := make([]float64, 9)
	d := make([]float64, 9)
	return x.Map(nil, func(src, dst []float64) {
		symmetric(src, s)
		deviator(s, d)
		var sum float64
		for _, v := range d {
			sum += v * v
		}
		dst[0] = math.Sqrt(factor * sum)
	}), nil
}

// MisesStress returns the von Mises equivalent stress sqrt(3/2 s:s) of
// every tensor, where s is the deviator.
func MisesStress(x *tensor.Field) (*tensor.Field, error) {
	return mises(x, "MisesStress", 1.5)
}

// MisesStrain returns the von Mises equivalent strain sqrt(2/3 e:e) of
// every tensor, where e is the deviator.
func MisesStrain(x *tensor.Field) (*tensor.Field, error) {
	return mises(x, "MisesStrain", 2.0/3.0)
}

// Cauchy returns the symmetrized Cauchy stress P F^T / det(F) from the
// deformation gradient F and the first Piola-Kirchhoff stress P.
func Cauchy(F, P *tensor.Field) (*tensor.Field, error) {
	if err := need33("Cauchy", F, P); err != nil {
		return nil, err
	}
	out := tensor.New(F.Rows(), 3, 3)
	var sigma mat.Dense
	sym := make([]float64, 9)
	for i := 0; i < F.Rows(); i++ {
		f := F.Mat3(i)
		sigma.Mul(P.Mat3(i), f.T())
		sigma.Scale(1/mat.Det(f), &sigma)
		symmetric(sigma.RawMatrix().Data, sym)
		out.SetRow(i, sym)
	}
	return out, nil
}

// PK2 returns the symmetrized second Piola-Kirchhoff stress F^-1 P from
// the deformation gradient F and the first Piola-Kirchhoff stress P.
func PK2(F, P *tensor.Field) (*tensor.Field, error) {
	if err := need33("PK2", F, P); err != nil {
		return nil, err
	}
	out := tensor.NaN(F.Rows(), 3, 3)
	var inv, S mat.Dense
	sym := make([]float64, 9)
	for i := 0; i < F.Rows(); i++ {
		if err := inv.Inverse(F.Mat3(i)); err != nil {
			// singular F, leave the point as NaN
			continue
		}
		S.Mul(&inv, P.Mat3(i))
		symmetric(S.RawMatrix().Data, sym)
		out.SetRow(i, sym)
	}
	return out, nil
}

// StrainTensor returns the Seth-Hill strain of order m from the
// deformation gradient F. stretch is "U" (material frame, C = F^T F) or
// "V" (spatial frame, B = F F^T). For m != 0 the strain is
// (C^m - I)/(2m); m = 0 gives the logarithmic strain ln(C)/2.
func StrainTensor(F *tensor.Field, stretch string, m float64) (*tensor.Field, error) {
	if err := need33("StrainTensor", F); err != nil {
		return nil, err
	}
	if stretch != "U" && stretch != "V" {
		return nil, Error{fmt.Sprintf("StrainTensor: stretch must be U or V, not %q", stretch), []string{"StrainTensor"}, true}
	}
	out := tensor.New(F.Rows(), 3, 3)
	var c mat.Dense
	for i := 0; i < F.Rows(); i++ {
		f := F.Mat3(i)
		if stretch == "U" {
			c.Mul(f.T(), f)
		} else {
			c.Mul(f, f.T())
		}
		vals, vecs := symEigen(c.RawMatrix().Data, true)
		for k, w := range vals {
			if m == 0 {
				vals[k] = 0.5 * math.Log(w)
			} else {
				vals[k] = (math.Pow(w, m) - 1) / (2 * m)
			}
		}
		// eps = V diag(vals) V^T; the identity is absorbed since V V^T = I.
		var tmp, eps mat.Dense
		tmp.Mul(vecs, mat.NewDiagDense(3, vals))
		eps.Mul(&tmp, vecs.T())
		out.PutMat3(i, &eps)
	}
	return out, nil
}
