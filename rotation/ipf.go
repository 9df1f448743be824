package rotation

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Symmetry is a crystal lattice family.
type Symmetry int

const (
	Cubic Symmetry = iota
	Hexagonal
)

func (s Symmetry) String() string {
	if s == Hexagonal {
		return "hexagonal"
	}
	return "cubic"
}

// ParseLattice maps a lattice name, as stored in orientation metadata,
// to its symmetry family.
func ParseLattice(name string) (Symmetry, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "cubic", "bcc", "fcc", "ci", "cf":
		return Cubic, nil
	case "hexagonal", "hex", "hcp", "hp":
		return Hexagonal, nil
	}
	return 0, fmt.Errorf("rotation: unsupported lattice %q", name)
}

var (
	s2 = math.Sqrt2 / 2
	s3 = math.Sqrt(3) / 2
)

var cubicOps = []Quaternion{
	{1, 0, 0, 0}, {0, 1, 0, 0}, {0, 0, 1, 0}, {0, 0, 0, 1},
	{0, 0, s2, s2}, {0, 0, s2, -s2}, {0, s2, 0, s2}, {0, s2, 0, -s2},
	{0, s2, -s2, 0}, {0, -s2, -s2, 0},
	{0.5, 0.5, 0.5, 0.5}, {-0.5, 0.5, 0.5, 0.5}, {-0.5, 0.5, 0.5, -0.5}, {-0.5, 0.5, -0.5, 0.5},
	{-0.5, -0.5, 0.5, 0.5}, {-0.5, 0.5, -0.5, -0.5}, {-0.5, -0.5, 0.5, -0.5}, {-0.5, -0.5, -0.5, 0.5},
	{s2, 0, 0, s2}, {s2, 0, s2, 0}, {s2, s2, 0, 0},
	{-s2, 0, 0, s2}, {-s2, 0, s2, 0}, {-s2, s2, 0, 0},
}

var hexagonalOps = []Quaternion{
	{1, 0, 0, 0}, {-s3, 0, 0, -0.5}, {0.5, 0, 0, s3}, {0, 0, 0, 1},
	{-0.5, 0, 0, s3}, {-s3, 0, 0, 0.5},
	{0, 1, 0, 0}, {0, -s3, 0.5, 0}, {0, 0.5, -s3, 0}, {0, 0, 1, 0},
	{0, -0.5, -s3, 0}, {0, s3, 0.5, 0},
}

// Operations returns the proper rotations of the symmetry family.
func (s Symmetry) Operations() []Quaternion {
	if s == Hexagonal {
		return hexagonalOps
	}
	return cubicOps
}

// standard triangle bases: a direction is inside the triangle when all
// three components of basis*v are non-negative.
var (
	cubicSST = mat.NewDense(3, 3, []float64{
		-1, 0, 1,
		math.Sqrt2, -math.Sqrt2, 0,
		0, math.Sqrt(3), 0,
	})
	hexagonalSST = mat.NewDense(3, 3, []float64{
		0, 0, 1,
		1, -math.Sqrt(3), 0,
		0, 2, 0,
	})
)

// inSST reports whether the crystal direction v lies in the standard
// triangle and, if it does, its colour.
func (s Symmetry) inSST(v [3]float64) (bool, [3]float64) {
	basis := cubicSST
	if s == Hexagonal {
		basis = hexagonalSST
	}
	v[2] = math.Abs(v[2])
	var comp mat.VecDense
	comp.MulVec(basis, mat.NewVecDense(3, v[:]))
	c := make([]float64, 3)
	for i := range c {
		c[i] = math.Round(comp.AtVec(i)*1e12) / 1e12
		if c[i] < 0 {
			return false, [3]float64{}
		}
	}
	n := floats.Norm(c, 2)
	var rgb [3]float64
	for i := range rgb {
		rgb[i] = math.Min(1, math.Sqrt(c[i]/n))
	}
	max := floats.Max(rgb[:])
	for i := range rgb {
		rgb[i] /= max
	}
	return true, rgb
}

// IPFColor returns the inverse pole figure colour, RGB in [0,1], of the
// sample direction axis for a crystal of orientation q.
func IPFColor(q Quaternion, axis [3]float64, s Symmetry) ([3]float64, error) {
	u, err := unit(axis)
	if err != nil {
		return [3]float64{}, err
	}
	pole := q.Normalize().Rotate(u)
	for _, op := range s.Operations() {
		v := op.Rotate(pole)
		if ok, rgb := s.inSST(v); ok {
			return rgb, nil
		}
	}
	return [3]float64{}, nil
}
