/*
 * expr.go, part of godadf5.
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

package expr

import (
	"errors"
	"fmt"
	"math"

	"github.com/rmera/godadf5/tensor"
)

// ErrShape reports operands that cannot be combined elementwise.
var ErrShape = errors.New("incompatible operand shapes")

// Expr is a parsed formula.
type Expr struct {
	src    string
	root   node
	labels []string
}

// Parse parses a formula. Dataset references are written #label#.
func Parse(src string) (*Expr, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	root, err := p.expr()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, syntaxErrorf("unexpected %q at %d", t.text, t.pos)
	}
	e := &Expr{src: src, root: root}
	seen := make(map[string]bool)
	walk(root, func(n node) {
		if r, ok := n.(ref); ok && !seen[string(r)] {
			seen[string(r)] = true
			e.labels = append(e.labels, string(r))
		}
	})
	return e, nil
}

// MustParse is like Parse but panics on error.
func MustParse(src string) *Expr {
	e, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return e
}

// String returns the source of the formula.
func (e *Expr) String() string { return e.src }

// Labels returns the distinct dataset labels referenced by the formula,
// in order of first appearance.
func (e *Expr) Labels() []string {
	return append([]string(nil), e.labels...)
}

// Eval evaluates the formula elementwise. Every label must be present
// in env. Operands combine if they have the same shape, if one of them
// is a number, or if one holds a single value per point and both have
// the same number of points. The inputs are not modified.
func (e *Expr) Eval(env map[string]*tensor.Field) (*tensor.Field, error) {
	v, err := e.root.eval(env)
	if err != nil {
		return nil, err
	}
	if v.field == nil {
		return &tensor.Field{Shape: []int{}, Data: []float64{v.num}}, nil
	}
	return v.field, nil
}

// operand is either a number or a field.
type operand struct {
	num   float64
	field *tensor.Field
}

type node interface {
	eval(env map[string]*tensor.Field) (operand, error)
}

type number float64

func (n number) eval(map[string]*tensor.Field) (operand, error) {
	return operand{num: float64(n)}, nil
}

type ref string

func (r ref) eval(env map[string]*tensor.Field) (operand, error) {
	f, ok := env[string(r)]
	if !ok || f == nil {
		return operand{}, fmt.Errorf("expr: dataset %q not provided", string(r))
	}
	if len(f.Fields) > 0 {
		f = f.Flatten()
	}
	return operand{field: f}, nil
}

type unary struct {
	x node
}

func (u unary) eval(env map[string]*tensor.Field) (operand, error) {
	v, err := u.x.eval(env)
	if err != nil {
		return operand{}, err
	}
	return apply1(v, func(a float64) float64 { return -a }), nil
}

type binary struct {
	op   byte
	l, r node
}

var binops = map[byte]func(a, b float64) float64{
	'+': func(a, b float64) float64 { return a + b },
	'-': func(a, b float64) float64 { return a - b },
	'*': func(a, b float64) float64 { return a * b },
	'/': func(a, b float64) float64 { return a / b },
	'^': math.Pow,
}

func (b binary) eval(env map[string]*tensor.Field) (operand, error) {
	l, err := b.l.eval(env)
	if err != nil {
		return operand{}, err
	}
	r, err := b.r.eval(env)
	if err != nil {
		return operand{}, err
	}
	return apply2(l, r, binops[b.op])
}

type call struct {
	name string
	args []node
}

var funcs1 = map[string]func(float64) float64{
	"abs":  math.Abs,
	"sqrt": math.Sqrt,
	"exp":  math.Exp,
	"log":  math.Log,
	"sin":  math.Sin,
	"cos":  math.Cos,
	"tan":  math.Tan,
}

var funcs2 = map[string]func(a, b float64) float64{
	"min": math.Min,
	"max": math.Max,
}

func (c call) eval(env map[string]*tensor.Field) (operand, error) {
	args := make([]operand, len(c.args))
	for i, a := range c.args {
		v, err := a.eval(env)
		if err != nil {
			return operand{}, err
		}
		args[i] = v
	}
	if fn, ok := funcs1[c.name]; ok {
		return apply1(args[0], fn), nil
	}
	return apply2(args[0], args[1], funcs2[c.name])
}

func walk(n node, fn func(node)) {
	fn(n)
	switch t := n.(type) {
	case unary:
		walk(t.x, fn)
	case binary:
		walk(t.l, fn)
		walk(t.r, fn)
	case call:
		for _, a := range t.args {
			walk(a, fn)
		}
	}
}

func apply1(v operand, fn func(float64) float64) operand {
	if v.field == nil {
		return operand{num: fn(v.num)}
	}
	out := &tensor.Field{Shape: append([]int(nil), v.field.Shape...), Data: make([]float64, len(v.field.Data))}
	for i, a := range v.field.Data {
		out.Data[i] = fn(a)
	}
	return operand{field: out}
}

func apply2(l, r operand, fn func(a, b float64) float64) (operand, error) {
	switch {
	case l.field == nil && r.field == nil:
		return operand{num: fn(l.num, r.num)}, nil
	case r.field == nil:
		return apply1(l, func(a float64) float64 { return fn(a, r.num) }), nil
	case l.field == nil:
		return apply1(r, func(b float64) float64 { return fn(l.num, b) }), nil
	}
	L, R := l.field, r.field
	if L.SameShape(R) {
		out := &tensor.Field{Shape: append([]int(nil), L.Shape...), Data: make([]float64, len(L.Data))}
		for i := range out.Data {
			out.Data[i] = fn(L.Data[i], R.Data[i])
		}
		return operand{field: out}, nil
	}
	if L.Rows() != R.Rows() || len(L.Shape) == 0 || len(R.Shape) == 0 {
		return operand{}, fmt.Errorf("expr: %w: %v and %v", ErrShape, L.Shape, R.Shape)
	}
	switch {
	case R.RowLen() == 1:
		out := tensor.New(L.Shape...)
		for i := 0; i < L.Rows(); i++ {
			b := R.Data[i]
			dst := out.Row(i)
			for k, a := range L.Row(i) {
				dst[k] = fn(a, b)
			}
		}
		return operand{field: out}, nil
	case L.RowLen() == 1:
		out := tensor.New(R.Shape...)
		for i := 0; i < R.Rows(); i++ {
			a := L.Data[i]
			dst := out.Row(i)
			for k, b := range R.Row(i) {
				dst[k] = fn(a, b)
			}
		}
		return operand{field: out}, nil
	}
	return operand{}, fmt.Errorf("expr: %w: %v and %v", ErrShape, L.Shape, R.Shape)
}
