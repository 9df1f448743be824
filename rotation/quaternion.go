/*
 * quaternion.go, part of godadf5.
 *
 *
 * Copyright 2026 Raul Mera <rauldotmeraatusachdotcl>
 *
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

package rotation

import (
	"fmt"
	"math"

	"github.com/rmera/godadf5/tensor"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Quaternion is a unit quaternion describing a crystal orientation.
// The rotation is passive: Rotate maps a vector given in the sample
// frame to its components in the crystal frame.
type Quaternion struct {
	W, X, Y, Z float64
}

// Identity is the null rotation.
var Identity = Quaternion{W: 1}

// Norm returns the length of q.
func (q Quaternion) Norm() float64 {
	return math.Sqrt(q.W*q.W + q.X*q.X + q.Y*q.Y + q.Z*q.Z)
}

// Normalize returns q scaled to unit length, with a non-negative real part.
func (q Quaternion) Normalize() Quaternion {
	n := q.Norm()
	if q.W < 0 {
		n = -n
	}
	return Quaternion{q.W / n, q.X / n, q.Y / n, q.Z / n}
}

// Conj returns the conjugate, which is the inverse rotation for unit quaternions.
func (q Quaternion) Conj() Quaternion {
	return Quaternion{q.W, -q.X, -q.Y, -q.Z}
}

// Mul returns the Hamilton product q p.
func (q Quaternion) Mul(p Quaternion) Quaternion {
	return Quaternion{
		W: q.W*p.W - q.X*p.X - q.Y*p.Y - q.Z*p.Z,
		X: q.W*p.X + q.X*p.W + q.Y*p.Z - q.Z*p.Y,
		Y: q.W*p.Y - q.X*p.Z + q.Y*p.W + q.Z*p.X,
		Z: q.W*p.Z + q.X*p.Y - q.Y*p.X + q.Z*p.W,
	}
}

// Rotate applies the passive rotation to v.
func (q Quaternion) Rotate(v [3]float64) [3]float64 {
	p := [3]float64{q.X, q.Y, q.Z}
	a := q.W*q.W - (p[0]*p[0] + p[1]*p[1] + p[2]*p[2])
	pv := p[0]*v[0] + p[1]*v[1] + p[2]*v[2]
	c := [3]float64{
		p[1]*v[2] - p[2]*v[1],
		p[2]*v[0] - p[0]*v[2],
		p[0]*v[1] - p[1]*v[0],
	}
	var out [3]float64
	for i := range out {
		out[i] = a*v[i] + 2*pv*p[i] - 2*q.W*c[i]
	}
	return out
}

// Matrix returns the 3x3 matrix of the passive rotation, so that
// Matrix() v equals Rotate(v).
func (q Quaternion) Matrix() *mat.Dense {
	m := mat.NewDense(3, 3, nil)
	for j := 0; j < 3; j++ {
		var e [3]float64
		e[j] = 1
		col := q.Rotate(e)
		for i := 0; i < 3; i++ {
			m.Set(i, j, col[i])
		}
	}
	return m
}

// FromField reads point i of F as a quaternion. F is either a compound
// field with w, x, y and z members or a plain field of 4-vectors.
func FromField(F *tensor.Field, i int) (Quaternion, error) {
	row := F.Row(i)
	if len(F.Fields) == 0 {
		if len(row) != 4 {
			return Quaternion{}, fmt.Errorf("rotation: element of %d values is not a quaternion", len(row))
		}
		return Quaternion{row[0], row[1], row[2], row[3]}, nil
	}
	var q Quaternion
	found := 0
	for k, name := range F.Fields {
		switch name {
		case "w":
			q.W = row[k]
		case "x":
			q.X = row[k]
		case "y":
			q.Y = row[k]
		case "z":
			q.Z = row[k]
		default:
			continue
		}
		found++
	}
	if found != 4 || len(row) != len(F.Fields) {
		return Quaternion{}, fmt.Errorf("rotation: compound fields %v do not describe a quaternion", F.Fields)
	}
	return q, nil
}

func unit(v [3]float64) ([3]float64, error) {
	n := floats.Norm(v[:], 2)
	if n == 0 {
		return v, fmt.Errorf("rotation: zero length direction")
	}
	return [3]float64{v[0] / n, v[1] / n, v[2] / n}, nil
}

// Pole returns the stereographic projection of the crystal direction
// pole seen from orientation q, as (x, y), or as (r, phi) if polar is true.
func Pole(q Quaternion, pole [3]float64, polar bool) ([2]float64, error) {
	u, err := unit(pole)
	if err != nil {
		return [2]float64{}, err
	}
	r := q.Rotate(u)
	x, y := r[0]/(1+math.Abs(r[2])), r[1]/(1+math.Abs(r[2]))
	if polar {
		return [2]float64{math.Hypot(x, y), math.Atan2(y, x)}, nil
	}
	return [2]float64{x, y}, nil
}
