package expr

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/rmera/godadf5/tensor"
)

func TestParseErrors(Te *testing.T) {
	for _, src := range []string{
		"",
		"#a",
		"##",
		"1 +",
		"(1 + 2",
		"foo(1)",
		"x + 1",
		"min(1)",
		"sqrt(1, 2)",
		"1 $ 2",
		"__import__('os')",
	} {
		if _, err := Parse(src); !errors.Is(err, ErrSyntax) {
			Te.Errorf("%q: expected ErrSyntax, got %v", src, err)
		}
	}
}

func TestScalars(Te *testing.T) {
	cases := map[string]float64{
		"1 + 2*3":            7,
		"(1 + 2)*3":          9,
		"2^3^2":              512,
		"2**3":               8,
		"-2^2":               -4,
		"--3":                3,
		"10/4 - 0.5":         2,
		"max(1, min(5, 3))":  3,
		"sqrt(16) + abs(-1)": 5,
		"cos(pi)":            -1,
		"1e3 + 2.5E-1":       1000.25,
	}
	for src, want := range cases {
		e, err := Parse(src)
		if err != nil {
			Te.Fatalf("%q: %v", src, err)
		}
		got, err := e.Eval(nil)
		if err != nil {
			Te.Fatalf("%q: %v", src, err)
		}
		if math.Abs(got.Data[0]-want) > 1e-12 {
			Te.Errorf("%q = %v, want %v", src, got.Data[0], want)
		}
	}
}

func TestFields(Te *testing.T) {
	sigma, _ := tensor.FromData([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18}, 2, 3, 3)
	p, _ := tensor.FromData([]float64{1, 10}, 2)
	e := MustParse("#sigma# - #p# + #sigma#*0")
	if l := e.Labels(); !reflect.DeepEqual(l, []string{"sigma", "p"}) {
		Te.Errorf("labels %v", l)
	}
	out, err := e.Eval(map[string]*tensor.Field{"sigma": sigma, "p": p})
	if err != nil {
		Te.Fatal(err)
	}
	if !reflect.DeepEqual(out.Shape, []int{2, 3, 3}) || out.Data[0] != 0 || out.Data[9] != 0 || out.Data[17] != 8 {
		Te.Errorf("broadcast result %v", out)
	}
	if sigma.Data[0] != 1 {
		Te.Errorf("input modified")
	}
	v, _ := tensor.FromData([]float64{1, 2, 3, 4, 5, 6}, 2, 3)
	if _, err := MustParse("#sigma# + #v#").Eval(map[string]*tensor.Field{"sigma": sigma, "v": v}); !errors.Is(err, ErrShape) {
		Te.Errorf("expected ErrShape, got %v", err)
	}
	if _, err := MustParse("#missing#").Eval(nil); err == nil {
		Te.Errorf("missing dataset accepted")
	}
}
