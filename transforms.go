/*
 * transforms.go, part of godadf5.
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

package dadf5

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/rmera/godadf5/expr"
	"github.com/rmera/godadf5/mech"
	"github.com/rmera/godadf5/rotation"
	"github.com/rmera/godadf5/store"
	"github.com/rmera/godadf5/tensor"
)

// Version is written in the Creator attribute of every derived dataset.
const Version = "0.3.0"

// Params are the string parameters of a named transform, such as the
// label of its input ("x") or the order of a norm ("ord").
type Params map[string]string

// A transform is a named recipe that turns Params into the arguments
// of Compute.
type transform struct {
	params map[string]string // accepted parameters and their defaults, "" means required
	help   string
	build  func(p Params) (TransformFunc, []Input, Args, error)
}

var registry map[string]transform

func init() {
	x := map[string]string{"x": ""}
	FP := map[string]string{"F": "F", "P": "P"}
	orient := map[string]string{"q": "orientation", "pole": "0 0 1"}
	registry = map[string]transform{
		"absolute":             {x, "absolute value of x", unary("absolute", absolute)},
		"determinant":          {x, "determinant of tensor x", unary("determinant", determinant)},
		"deviator":             {x, "deviatoric part of tensor x", unary("deviator", deviator)},
		"spherical":            {x, "spherical part of tensor x", unary("spherical", spherical)},
		"eigenvalues":          {x, "eigenvalues of symmetric tensor x", unary("eigenvalues", eigenvalues)},
		"eigenvectors":         {x, "eigenvectors of symmetric tensor x", unary("eigenvectors", eigenvectors)},
		"principal_components": {x, "principal components of symmetric tensor x", unary("principal_components", principalComponents)},
		"maximum_shear":        {x, "maximum shear component of symmetric tensor x", unary("maximum_shear", maximumShear)},
		"Mises":                {x, "Mises equivalent stress or strain of tensor x", unary("Mises", mises)},
		"norm":                 {map[string]string{"x": "", "ord": "-"}, "norm of vector or tensor x", buildNorm},
		"Cauchy":               {FP, "Cauchy stress from P and F", binary("Cauchy", "sigma", "Cauchy stress", mech.Cauchy)},
		"PK2":                  {FP, "second Piola-Kirchhoff stress from P and F", binary("PK2", "S", "2. Kirchhoff stress", mech.PK2)},
		"strain_tensor":        {map[string]string{"F": "F", "t": "U", "m": "0"}, "Seth-Hill strain tensor of F", buildStrain},
		"IPFcolor":             {orient, "inverse pole figure color of orientation q along pole", buildIPF},
		"pole":                 {map[string]string{"q": "orientation", "pole": "0 0 1", "polar": "false"}, "stereographic projection of pole in the crystal frame", buildPole},
		"calculation":          {map[string]string{"formula": "", "label": "", "unit": "n/a", "description": "n/a"}, "elementwise formula over #label# references", buildCalculation},
	}
}

// Transforms returns the names of the built-in transforms, sorted.
func Transforms() []string {
	names := make([]string, 0, len(registry))
	for k := range registry {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// TransformHelp returns a one line description of a transform and its
// parameters with their defaults.
func TransformHelp(name string) (string, bool) {
	t, ok := registry[name]
	if !ok {
		return "", false
	}
	keys := make([]string, 0, len(t.params))
	for k := range t.params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for i, k := range keys {
		switch d := t.params[k]; d {
		case "":
			keys[i] = k + " (required)"
		case "-":
		default:
			keys[i] = k + "=" + d
		}
	}
	return fmt.Sprintf("%s: %s [%s]", name, t.help, strings.Join(keys, ", ")), true
}

// BuildTransform checks params against the named transform, fills in the
// defaults and returns the arguments for Compute.
func BuildTransform(name string, params Params) (TransformFunc, []Input, Args, error) {
	t, ok := registry[name]
	if !ok {
		return nil, nil, nil, fmt.Errorf("dadf5: unknown transform %q", name)
	}
	p := make(Params, len(t.params))
	for k, v := range params {
		if _, ok := t.params[k]; !ok {
			return nil, nil, nil, fmt.Errorf("dadf5: transform %s has no parameter %q", name, k)
		}
		p[k] = v
	}
	for k, d := range t.params {
		if _, ok := p[k]; ok {
			continue
		}
		switch d {
		case "":
			return nil, nil, nil, fmt.Errorf("dadf5: transform %s needs parameter %q", name, k)
		case "-":
		default:
			p[k] = d
		}
	}
	return t.build(p)
}

// Add runs the named transform with params on every visible group
// holding its inputs.
func (r *Result) Add(name string, params Params) error {
	fn, inputs, args, err := BuildTransform(name, params)
	if err != nil {
		return err
	}
	err = r.Compute(fn, inputs, args)
	var te *TransformError
	if errors.As(err, &te) && te.Transform == "" {
		te.Transform = name
	}
	return errDecorate(err, "Add")
}

func creator(name string) string {
	return fmt.Sprintf("godadf5 %s v%s", name, Version)
}

// derived builds the metadata of a result.
func derived(name, unit, description string) map[string]string {
	return map[string]string{"Unit": unit, "Description": description, "Creator": creator(name)}
}

// unary wraps a single-input transform reading its input from parameter x.
func unary(name string, fn func(x Record) (Record, error)) func(Params) (TransformFunc, []Input, Args, error) {
	return func(p Params) (TransformFunc, []Input, Args, error) {
		f := func(in map[string]Record, _ Args) (Record, error) {
			rec, err := fn(in["x"])
			if err != nil {
				return Record{}, err
			}
			rec.Meta["Creator"] = creator(name)
			return rec, nil
		}
		return f, []Input{{Label: p["x"], Arg: "x"}}, nil, nil
	}
}

func absolute(x Record) (Record, error) {
	return Record{
		Data:  mech.Abs(x.Data),
		Label: "|" + x.Label + "|",
		Meta:  derived("", x.Unit(), fmt.Sprintf("Absolute value of %s (%s)", x.Label, x.Description())),
	}, nil
}

func determinant(x Record) (Record, error) {
	d, err := mech.Determinant(x.Data)
	if err != nil {
		return Record{}, err
	}
	return Record{
		Data:  d,
		Label: "det(" + x.Label + ")",
		Meta:  derived("", x.Unit(), fmt.Sprintf("Determinant of tensor %s (%s)", x.Label, x.Description())),
	}, nil
}

func deviator(x Record) (Record, error) {
	d, err := mech.Deviatoric(x.Data)
	if err != nil {
		return Record{}, err
	}
	return Record{
		Data:  d,
		Label: "s_" + x.Label,
		Meta:  derived("", x.Unit(), fmt.Sprintf("Deviator of tensor %s (%s)", x.Label, x.Description())),
	}, nil
}

func spherical(x Record) (Record, error) {
	d, err := mech.Spherical(x.Data)
	if err != nil {
		return Record{}, err
	}
	return Record{
		Data:  d,
		Label: "p_" + x.Label,
		Meta:  derived("", x.Unit(), fmt.Sprintf("Spherical component of tensor %s (%s)", x.Label, x.Description())),
	}, nil
}

func eigenvalues(x Record) (Record, error) {
	d, err := mech.Eigenvalues(x.Data)
	if err != nil {
		return Record{}, err
	}
	return Record{
		Data:  d,
		Label: "lambda(" + x.Label + ")",
		Meta:  derived("", x.Unit(), fmt.Sprintf("Eigenvalues of %s (%s)", x.Label, x.Description())),
	}, nil
}

func eigenvectors(x Record) (Record, error) {
	d, err := mech.Eigenvectors(x.Data)
	if err != nil {
		return Record{}, err
	}
	return Record{
		Data:  d,
		Label: "v(" + x.Label + ")",
		Meta:  derived("", "1", fmt.Sprintf("Eigenvectors of %s (%s)", x.Label, x.Description())),
	}, nil
}

func principalComponents(x Record) (Record, error) {
	d, err := mech.PrincipalComponents(x.Data)
	if err != nil {
		return Record{}, err
	}
	return Record{
		Data:  d,
		Label: "lambda_" + x.Label,
		Meta:  derived("", x.Unit(), fmt.Sprintf("Principal components of %s (%s)", x.Label, x.Description())),
	}, nil
}

func maximumShear(x Record) (Record, error) {
	d, err := mech.MaximumShear(x.Data)
	if err != nil {
		return Record{}, err
	}
	return Record{
		Data:  d,
		Label: "max_shear(" + x.Label + ")",
		Meta:  derived("", x.Unit(), fmt.Sprintf("Maximum shear component of %s (%s)", x.Label, x.Description())),
	}, nil
}

// mises treats x as a strain if it is dimensionless and as a stress otherwise.
func mises(x Record) (Record, error) {
	kind, fn := "stress", mech.MisesStress
	if x.Unit() == "1" {
		kind, fn = "strain", mech.MisesStrain
	}
	d, err := fn(x.Data)
	if err != nil {
		return Record{}, err
	}
	return Record{
		Data:  d,
		Label: x.Label + "_vM",
		Meta:  derived("", x.Unit(), fmt.Sprintf("Mises equivalent %s of %s (%s)", kind, x.Label, x.Description())),
	}, nil
}

func buildNorm(p Params) (TransformFunc, []Input, Args, error) {
	ord := p["ord"]
	f := func(in map[string]Record, _ Args) (Record, error) {
		x := in["x"]
		o := ord
		if o == "" {
			var err error
			if o, err = mech.DefaultOrd(x.Data); err != nil {
				return Record{}, err
			}
		}
		kind := "vector"
		if len(x.Data.ElemShape()) == 2 {
			kind = "tensor"
		}
		d, err := mech.Norm(x.Data, o)
		if err != nil {
			return Record{}, err
		}
		return Record{
			Data:  d,
			Label: fmt.Sprintf("|%s|_%s", x.Label, o),
			Meta:  derived("norm", x.Unit(), fmt.Sprintf("%s-Norm of %s %s (%s)", o, kind, x.Label, x.Description())),
		}, nil
	}
	return f, []Input{{Label: p["x"], Arg: "x"}}, nil, nil
}

// binary wraps the transforms of a deformation gradient F and a first
// Piola-Kirchhoff stress P.
func binary(name, label, what string, fn func(F, P *tensor.Field) (*tensor.Field, error)) func(Params) (TransformFunc, []Input, Args, error) {
	return func(p Params) (TransformFunc, []Input, Args, error) {
		f := func(in map[string]Record, _ Args) (Record, error) {
			F, P := in["F"], in["P"]
			d, err := fn(F.Data, P.Data)
			if err != nil {
				return Record{}, err
			}
			desc := fmt.Sprintf("%s calculated from %s (%s) and deformation gradient %s (%s)",
				what, P.Label, P.Description(), F.Label, F.Description())
			return Record{Data: d, Label: label, Meta: derived(name, P.Unit(), desc)}, nil
		}
		return f, []Input{{Label: p["F"], Arg: "F"}, {Label: p["P"], Arg: "P"}}, nil, nil
	}
}

func buildStrain(p Params) (TransformFunc, []Input, Args, error) {
	t := p["t"]
	if t != "U" && t != "V" {
		return nil, nil, nil, fmt.Errorf("dadf5: strain_tensor: stretch must be U or V, not %q", t)
	}
	m, err := strconv.ParseFloat(p["m"], 64)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("dadf5: strain_tensor: order m: %w", err)
	}
	f := func(in map[string]Record, _ Args) (Record, error) {
		F := in["F"]
		d, err := mech.StrainTensor(F.Data, t, m)
		if err != nil {
			return Record{}, err
		}
		return Record{
			Data:  d,
			Label: fmt.Sprintf("epsilon_%s^%s(%s)", t, strconv.FormatFloat(m, 'g', -1, 64), F.Label),
			Meta:  derived("strain_tensor", F.Unit(), fmt.Sprintf("Strain tensor of %s (%s)", F.Label, F.Description())),
		}, nil
	}
	return f, []Input{{Label: p["F"], Arg: "F"}}, nil, nil
}

// ParseVector reads three numbers separated by blanks or commas.
func ParseVector(s string) ([3]float64, error) {
	var v [3]float64
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' })
	if len(fields) != 3 {
		return v, fmt.Errorf("dadf5: %q is not a 3-vector", s)
	}
	for i, f := range fields {
		x, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return v, fmt.Errorf("dadf5: %q is not a 3-vector: %w", s, err)
		}
		v[i] = x
	}
	return v, nil
}

// millerLabel formats a pole the way the IPF color label shows it.
func millerLabel(v [3]float64) string {
	parts := make([]string, 3)
	for i, x := range v {
		parts[i] = strconv.FormatFloat(x, 'g', -1, 64)
	}
	return strings.Join(parts, " ")
}

func buildIPF(p Params) (TransformFunc, []Input, Args, error) {
	pole, err := ParseVector(p["pole"])
	if err != nil {
		return nil, nil, nil, err
	}
	f := func(in map[string]Record, _ Args) (Record, error) {
		q := in["orientation"]
		lattice, ok := q.Meta["Lattice"]
		if !ok {
			return Record{}, fmt.Errorf("orientation %s has no Lattice attribute", q.Label)
		}
		sym, err := rotation.ParseLattice(lattice)
		if err != nil {
			return Record{}, err
		}
		out := tensor.New(q.Data.Rows(), 3)
		for i := 0; i < q.Data.Rows(); i++ {
			o, err := rotation.FromField(q.Data, i)
			if err != nil {
				return Record{}, err
			}
			rgb, err := rotation.IPFColor(o, pole, sym)
			if err != nil {
				return Record{}, err
			}
			row := out.Row(i)
			for j, c := range rgb {
				row[j] = math.Floor(c * 255)
			}
		}
		meta := derived("IPFcolor", "RGB (8bit)", "Inverse Pole Figure colors")
		meta["Lattice"] = lattice
		return Record{Data: out, Label: "IPFcolor_[" + millerLabel(pole) + "]", Meta: meta, DType: store.Uint8}, nil
	}
	return f, []Input{{Label: p["q"], Arg: "orientation"}}, nil, nil
}

func buildPole(p Params) (TransformFunc, []Input, Args, error) {
	pole, err := ParseVector(p["pole"])
	if err != nil {
		return nil, nil, nil, err
	}
	polar, err := strconv.ParseBool(p["polar"])
	if err != nil {
		return nil, nil, nil, fmt.Errorf("dadf5: pole: polar: %w", err)
	}
	f := func(in map[string]Record, _ Args) (Record, error) {
		q := in["orientation"]
		out := tensor.New(q.Data.Rows(), 2)
		for i := 0; i < q.Data.Rows(); i++ {
			o, err := rotation.FromField(q.Data, i)
			if err != nil {
				return Record{}, err
			}
			xy, err := rotation.Pole(o, pole, polar)
			if err != nil {
				return Record{}, err
			}
			out.SetRow(i, xy[:])
		}
		return Record{
			Data:  out,
			Label: "Pole",
			Meta:  derived("pole", "1", "Coordinates of stereographic projection of given direction (pole) in crystal frame"),
		}, nil
	}
	return f, []Input{{Label: p["q"], Arg: "orientation"}}, nil, nil
}

func buildCalculation(p Params) (TransformFunc, []Input, Args, error) {
	e, err := expr.Parse(p["formula"])
	if err != nil {
		return nil, nil, nil, err
	}
	labels := e.Labels()
	if len(labels) == 0 {
		return nil, nil, nil, fmt.Errorf("dadf5: calculation: formula %q refers to no dataset", p["formula"])
	}
	inputs := make([]Input, len(labels))
	for i, l := range labels {
		inputs[i] = Input{Label: l, Arg: l}
	}
	args := Args{"label": p["label"], "unit": p["unit"], "description": p["description"]}
	f := func(in map[string]Record, a Args) (Record, error) {
		env := make(map[string]*tensor.Field, len(in))
		for k, rec := range in {
			env[k] = rec.Data
		}
		d, err := e.Eval(env)
		if err != nil {
			return Record{}, err
		}
		desc := fmt.Sprintf("%s (formula: %s)", a["description"], e)
		return Record{Data: d, Label: a["label"].(string), Meta: derived("calculation", a["unit"].(string), desc)}, nil
	}
	return f, inputs, args, nil
}
