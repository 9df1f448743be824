package mech

import (
	"math"
	"testing"

	"github.com/rmera/godadf5/tensor"
)

const tol = 1e-10

func field33(Te *testing.T, rows ...[]float64) *tensor.Field {
	var data []float64
	for _, r := range rows {
		data = append(data, r...)
	}
	F, err := tensor.FromData(data, len(rows), 3, 3)
	if err != nil {
		Te.Fatal(err)
	}
	return F
}

func near(a, b float64) bool {
	return math.Abs(a-b) <= tol*math.Max(1, math.Abs(b))
}

func TestInvariants(Te *testing.T) {
	x := field33(Te,
		[]float64{1, 0, 0, 0, 2, 0, 0, 0, 3},
		[]float64{2, 1, 0, 1, 2, 0, 0, 0, 5},
	)
	det, err := Determinant(x)
	if err != nil {
		Te.Fatal(err)
	}
	if !near(det.Data[0], 6) || !near(det.Data[1], 15) {
		Te.Errorf("determinant %v", det.Data)
	}
	p, _ := Spherical(x)
	if !near(p.Data[0], 2) || len(p.Shape) != 1 {
		Te.Errorf("spherical %v", p)
	}
	s, _ := Deviatoric(x)
	if !near(s.Row(0)[0], -1) || !near(s.Row(0)[8], 1) || !near(s.Row(0)[1], 0) {
		Te.Errorf("deviator %v", s.Row(0))
	}
	ev, _ := Eigenvalues(x)
	if r := ev.Row(1); !near(r[0], 1) || !near(r[1], 3) || !near(r[2], 5) {
		Te.Errorf("eigenvalues %v", r)
	}
	pc, _ := PrincipalComponents(x)
	if r := pc.Row(1); !near(r[0], 5) || !near(r[2], 1) {
		Te.Errorf("principal components %v", r)
	}
	ms, _ := MaximumShear(x)
	if !near(ms.Data[0], 1) || !near(ms.Data[1], 2) {
		Te.Errorf("maximum shear %v", ms.Data)
	}
	vecs, _ := Eigenvectors(x)
	// the eigenvector of eigenvalue 5 is the z axis
	if !near(math.Abs(vecs.Mat3(1).At(2, 2)), 1) {
		Te.Errorf("eigenvectors %v", vecs.Row(1))
	}
	if x.Row(0)[4] != 2 {
		Te.Errorf("input was modified")
	}
	if _, err := Determinant(tensor.New(4, 3)); err == nil {
		Te.Errorf("vector accepted as tensor")
	}
}

func TestMises(Te *testing.T) {
	// uniaxial stress: the Mises stress equals the axial stress
	x := field33(Te, []float64{100, 0, 0, 0, 0, 0, 0, 0, 0})
	vm, err := MisesStress(x)
	if err != nil {
		Te.Fatal(err)
	}
	if !near(vm.Data[0], 100) {
		Te.Errorf("Mises stress %v", vm.Data)
	}
	// pure shear strain gamma: equivalent strain is gamma/sqrt(3)
	g := field33(Te, []float64{0, 0.5, 0, 0.5, 0, 0, 0, 0, 0})
	ve, _ := MisesStrain(g)
	if !near(ve.Data[0], 1/math.Sqrt(3)) {
		Te.Errorf("Mises strain %v", ve.Data)
	}
}

func TestStressMeasures(Te *testing.T) {
	I := []float64{1, 0, 0, 0, 1, 0, 0, 0, 1}
	P := field33(Te, []float64{1, 2, 3, 2, 4, 5, 3, 5, 6})
	F := field33(Te, I)
	sigma, err := Cauchy(F, P)
	if err != nil {
		Te.Fatal(err)
	}
	if !sigma.EqualApprox(P, tol) {
		Te.Errorf("Cauchy at F=I should equal P: %v", sigma.Row(0))
	}
	S, _ := PK2(F, P)
	if !S.EqualApprox(P, tol) {
		Te.Errorf("PK2 at F=I should equal P: %v", S.Row(0))
	}
	F2 := field33(Te, []float64{2, 0, 0, 0, 1, 0, 0, 0, 1})
	P2 := field33(Te, []float64{4, 0, 0, 0, 0, 0, 0, 0, 0})
	sigma2, _ := Cauchy(F2, P2)
	if !near(sigma2.Row(0)[0], 4) {
		Te.Errorf("Cauchy %v", sigma2.Row(0))
	}
	S2, _ := PK2(F2, P2)
	if !near(S2.Row(0)[0], 2) {
		Te.Errorf("PK2 %v", S2.Row(0))
	}
	if _, err := Cauchy(F, tensor.New(2, 3, 3)); err == nil {
		Te.Errorf("point count mismatch accepted")
	}
}

func TestStrainTensor(Te *testing.T) {
	F := field33(Te, []float64{2, 0, 0, 0, 1, 0, 0, 0, 1})
	for _, c := range []struct {
		m    float64
		want float64
	}{
		{0, math.Log(2)},
		{1, 1.5},
		{0.5, 1},
		{-1, 0.375},
	} {
		eps, err := StrainTensor(F, "U", c.m)
		if err != nil {
			Te.Fatal(err)
		}
		if !near(eps.Row(0)[0], c.want) || !near(eps.Row(0)[4], 0) {
			Te.Errorf("m=%v: %v", c.m, eps.Row(0))
		}
	}
	if _, err := StrainTensor(F, "W", 0); err == nil {
		Te.Errorf("bad stretch accepted")
	}
}

func TestNorm(Te *testing.T) {
	v, _ := tensor.FromData([]float64{3, -4, 0}, 1, 3)
	for ord, want := range map[string]float64{"": 5, "2": 5, "1": 7, "inf": 4, "-inf": 0, "0": 2} {
		n, err := Norm(v, ord)
		if err != nil {
			Te.Fatal(err)
		}
		if !near(n.Data[0], want) || len(n.Shape) != 2 || n.Shape[1] != 1 {
			Te.Errorf("vector norm %q: %v %v", ord, n.Shape, n.Data)
		}
	}
	x, _ := tensor.FromData([]float64{1, -2, 0, 0, 3, 0, 0, 0, 0}, 1, 3, 3)
	for ord, want := range map[string]float64{"": math.Sqrt(14), "fro": math.Sqrt(14), "1": 5, "-1": 0, "inf": 3, "-inf": 0} {
		n, err := Norm(x, ord)
		if err != nil {
			Te.Fatal(err)
		}
		if !near(n.Data[0], want) || len(n.Shape) != 3 {
			Te.Errorf("matrix norm %q: %v %v", ord, n.Shape, n.Data)
		}
	}
	d, _ := tensor.FromData([]float64{2, 0, 0, 0, -3, 0, 0, 0, 1}, 1, 3, 3)
	for ord, want := range map[string]float64{"2": 3, "-2": 1, "nuc": 6} {
		n, _ := Norm(d, ord)
		if !near(n.Data[0], want) {
			Te.Errorf("matrix norm %q: %v", ord, n.Data)
		}
	}
	if _, err := Norm(x, "7"); err == nil {
		Te.Errorf("matrix norm of order 7 accepted")
	}
	if _, err := Norm(tensor.New(3), ""); err == nil {
		Te.Errorf("norm of scalars accepted")
	}
}
