// Package synth writes small, fully known result containers for tests.
package synth

import (
	"fmt"
	"path"
	"slices"

	"github.com/rmera/godadf5/store"
)

// Options describe the container Build writes. The zero value gives a
// structured 2x2x1 grid at version 0.6 with increments 0 and 10.
type Options struct {
	VersionMinor int
	Legacy       bool // version attributes named DADF5-major and DADF5-minor

	Grid   [3]int
	Size   [3]float64
	Origin [3]float64

	// Unstructured writes a single hexahedron instead of a grid.
	Unstructured bool
	CellType     string // VTK_TYPE of the connectivity, HEXAHEDRON if empty

	Increments []int
	Phases     []string // constituents, assigned to points round robin
	Homog      string   // the one material point name

	// Omit lists, per increment number, the constituent labels (F, P,
	// orientation, gamma) left out of that increment.
	Omit map[int][]string
}

func (o *Options) defaults() {
	if o.VersionMinor == 0 {
		o.VersionMinor = 6
	}
	if o.Grid == [3]int{} {
		o.Grid = [3]int{2, 2, 1}
	}
	if o.Size == [3]float64{} {
		o.Size = [3]float64{2, 2, 1}
	}
	if o.Increments == nil {
		o.Increments = []int{0, 10}
	}
	if len(o.Phases) == 0 {
		o.Phases = []string{"1_Aluminum", "2_Steel"}
	}
	if o.Homog == "" {
		o.Homog = "1_SX"
	}
	if o.CellType == "" {
		o.CellType = "HEXAHEDRON"
	}
}

// Points returns the number of material points the options produce.
func (o Options) Points() int {
	o.defaults()
	if o.Unstructured {
		return 1
	}
	return o.Grid[0] * o.Grid[1] * o.Grid[2]
}

// IncName returns the name of increment n under the naming convention of
// the options' version.
func (o Options) IncName(n int) string {
	o.defaults()
	if o.VersionMinor < 4 {
		return fmt.Sprintf("inc%05d", n)
	}
	return fmt.Sprintf("inc%d", n)
}

// Stretch is the xx component of F at point i of increment inc.
func Stretch(inc, i int) float64 {
	return 1 + 0.01*float64(inc)*float64(i+1)
}

// Stress is the xx component of P at point i.
func Stress(i int) float64 {
	return 100 * float64(i+1)
}

// Temperature at point i of increment inc.
func Temperature(inc, i int) float64 {
	return 300 + float64(inc) + float64(i)
}

// Build writes the container described by o to name. Every constituent
// holds generic/F = diag(Stretch,1,1), generic/P = diag(Stress,0,0),
// generic/orientation (identity, cubic) and plastic/gamma; the material
// point holds generic/T. Geometry holds u_n and u_p, all zero.
func Build(name string, o Options) error {
	o.defaults()
	f, err := store.Create(name)
	if err != nil {
		return err
	}
	defer f.Close()
	major, minor := "DADF5_version_major", "DADF5_version_minor"
	if o.Legacy {
		major, minor = "DADF5-major", "DADF5-minor"
	}
	if err := f.SetAttr("/", major, int64(0)); err != nil {
		return err
	}
	if err := f.SetAttr("/", minor, int64(o.VersionMinor)); err != nil {
		return err
	}
	if err := f.CreateGroup("/geometry"); err != nil {
		return err
	}
	N := o.Points()
	nodes, err := writeGeometry(f, o)
	if err != nil {
		return err
	}

	con := store.NewMapping(N, 1)
	mat := store.NewMapping(N, 1)
	members := make(map[string][]int)
	for i := 0; i < N; i++ {
		ph := o.Phases[i%len(o.Phases)]
		con.Set(i, 0, ph, len(members[ph]))
		members[ph] = append(members[ph], i)
		mat.Set(i, 0, o.Homog, i)
	}
	if err := f.WriteMapping("/mapping/cellResults/constituent", con); err != nil {
		return err
	}
	if err := f.WriteMapping("/mapping/cellResults/materialpoint", mat); err != nil {
		return err
	}

	for _, n := range o.Increments {
		inc := "/" + o.IncName(n)
		if err := f.CreateGroup(inc); err != nil {
			return err
		}
		if err := f.SetAttr(inc, "time/s", float64(n)*0.1); err != nil {
			return err
		}
		for _, ph := range o.Phases {
			if err := writeConstituent(f, inc+"/constituent/"+ph, n, members[ph], o.Omit[n]); err != nil {
				return err
			}
		}
		T := make([]float64, N)
		for i := range T {
			T[i] = Temperature(n, i)
		}
		err := f.WriteDataset(inc+"/materialpoint/"+o.Homog+"/generic/T",
			&store.Dataset{Shape: []int{N}, Data: T}, meta("K", "temperature"))
		if err != nil {
			return err
		}
		err = f.WriteDataset(inc+"/geometry/u_n",
			&store.Dataset{Shape: []int{nodes, 3}, Data: make([]float64, nodes*3)}, meta("m", "nodal displacements"))
		if err != nil {
			return err
		}
		err = f.WriteDataset(inc+"/geometry/u_p",
			&store.Dataset{Shape: []int{N, 3}, Data: make([]float64, N*3)}, meta("m", "cell center displacements"))
		if err != nil {
			return err
		}
	}
	return nil
}

func meta(unit, desc string) store.Attrs {
	return store.Attrs{"Unit": unit, "Description": desc}
}

// writeGeometry writes the mesh and returns its number of nodes.
func writeGeometry(f *store.File, o Options) (int, error) {
	if !o.Unstructured {
		grid := []int64{int64(o.Grid[0]), int64(o.Grid[1]), int64(o.Grid[2])}
		if err := f.SetAttr("/geometry", "grid", grid); err != nil {
			return 0, err
		}
		if err := f.SetAttr("/geometry", "size", o.Size[:]); err != nil {
			return 0, err
		}
		if o.VersionMinor >= 5 {
			if err := f.SetAttr("/geometry", "origin", o.Origin[:]); err != nil {
				return 0, err
			}
		}
		return (o.Grid[0] + 1) * (o.Grid[1] + 1) * (o.Grid[2] + 1), nil
	}
	x := []float64{
		0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0,
		0, 0, 1, 1, 0, 1, 1, 1, 1, 0, 1, 1,
	}
	if err := f.WriteDataset("/geometry/x_n", &store.Dataset{Shape: []int{8, 3}, Data: x}, nil); err != nil {
		return 0, err
	}
	T := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	if err := f.WriteDataset("/geometry/T_c", &store.Dataset{Shape: []int{1, 8}, DType: store.Int64, Data: T},
		store.Attrs{"VTK_TYPE": o.CellType}); err != nil {
		return 0, err
	}
	xc := []float64{0.5, 0.5, 0.5}
	if err := f.WriteDataset("/geometry/x_c", &store.Dataset{Shape: []int{1, 3}, Data: xc}, nil); err != nil {
		return 0, err
	}
	return 8, nil
}

func writeConstituent(f *store.File, g string, inc int, points []int, omit []string) error {
	n := len(points)
	F := make([]float64, 9*n)
	P := make([]float64, 9*n)
	q := make([]float64, 4*n)
	gamma := make([]float64, n)
	for k, i := range points {
		F[9*k], F[9*k+4], F[9*k+8] = Stretch(inc, i), 1, 1
		P[9*k] = Stress(i)
		q[4*k] = 1
		gamma[k] = 0.001 * float64(inc)
	}
	qa := meta("q_0 <q>", "crystal orientation as quaternion")
	qa["Lattice"] = "cubic"
	sets := []struct {
		p     string
		d     *store.Dataset
		attrs store.Attrs
	}{
		{"generic/F", &store.Dataset{Shape: []int{n, 3, 3}, Data: F}, meta("1", "deformation gradient")},
		{"generic/P", &store.Dataset{Shape: []int{n, 3, 3}, Data: P}, meta("Pa", "first Piola-Kirchhoff stress")},
		{"generic/orientation", &store.Dataset{Shape: []int{n}, Fields: []string{"w", "x", "y", "z"}, Data: q}, qa},
		{"plastic/gamma", &store.Dataset{Shape: []int{n}, Data: gamma}, meta("1", "plastic shear")},
	}
	for _, d := range sets {
		if slices.Contains(omit, path.Base(d.p)) {
			continue
		}
		if err := f.WriteDataset(g+"/"+d.p, d.d, d.attrs); err != nil {
			return err
		}
	}
	return nil
}
