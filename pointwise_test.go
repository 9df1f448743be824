package dadf5

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/rmera/godadf5/internal/synth"
	"github.com/rmera/godadf5/store"
	"github.com/rmera/godadf5/tensor"
)

func TestCauchy(Te *testing.T) {
	r := container(Te, synth.Options{}, WithWorkers(3))
	if err := r.Add("Cauchy", nil); err != nil {
		Te.Fatal(err)
	}
	locs, err := r.Locate("sigma")
	if err != nil || len(locs) != 4 {
		Te.Fatalf("sigma at %v, %v", locs, err)
	}
	if got := attr(Te, r, locs[0].Path(), "Unit"); got != "Pa" {
		Te.Errorf("sigma has unit %q", got)
	}
	if got := attr(Te, r, locs[0].Path(), "Creator"); got != "godadf5 Cauchy v"+Version {
		Te.Errorf("sigma created by %q", got)
	}
	for _, inc := range []string{"inc0", "inc10"} {
		r.SetVisible(Increments, Names(inc))
		locs, _ := r.Locate("sigma")
		s, err := r.Gather(locs, GatherOptions{})
		if err != nil {
			Te.Fatal(err)
		}
		for i := 0; i < 4; i++ {
			if !near(s.Row(i)[0], synth.Stress(i)) || s.Row(i)[4] != 0 {
				Te.Errorf("%s: sigma at point %d is %v", inc, i, s.Row(i))
			}
		}
	}
	r.SetVisible(Increments, All())
	err = r.Add("Cauchy", nil)
	var te *TransformError
	if !errors.Is(err, store.ErrExist) || !errors.As(err, &te) || te.Transform != "Cauchy" {
		Te.Errorf("adding sigma twice gave %v", err)
	}
}

func TestCauchyMissingInput(Te *testing.T) {
	r := container(Te, synth.Options{Omit: map[int][]string{10: {"P"}}})
	if err := r.Add("Cauchy", nil); err != nil {
		Te.Fatal(err)
	}
	locs, err := r.Locate("sigma")
	if err != nil || len(locs) != 2 {
		Te.Fatalf("sigma at %v, %v", locs, err)
	}
	for _, l := range locs {
		if l.Increment != "inc0" {
			Te.Errorf("sigma written to %s", l.Path())
		}
	}
	r.SetVisible(Increments, Names("inc10"))
	if locs, _ := r.Locate("sigma"); len(locs) != 0 {
		Te.Errorf("sigma in inc10: %v", locs)
	}
}

func TestMises(Te *testing.T) {
	r := container(Te, synth.Options{})
	r.SetVisible(Constituents, Names("*Steel"))
	if err := r.Add("Cauchy", Params{"F": "F", "P": "P"}); err != nil {
		Te.Fatal(err)
	}
	if err := r.Add("Mises", Params{"x": "sigma"}); err != nil {
		Te.Fatal(err)
	}
	if err := r.Add("strain_tensor", nil); err != nil {
		Te.Fatal(err)
	}
	if err := r.Add("Mises", Params{"x": "epsilon_U^0(F)"}); err != nil {
		Te.Fatal(err)
	}
	r.SetVisible(Increments, Names("inc10"))
	locs, _ := r.Locate("sigma_vM")
	if len(locs) != 1 || locs[0].Name != "2_Steel" {
		Te.Fatalf("sigma_vM at %v", locs)
	}
	if d := attr(Te, r, locs[0].Path(), "Description"); !strings.Contains(d, "Mises equivalent stress") {
		Te.Errorf("stress description %q", d)
	}
	s, err := r.Gather(locs, GatherOptions{})
	if err != nil {
		Te.Fatal(err)
	}
	if !near(s.Data[1], synth.Stress(1)) || !math.IsNaN(s.Data[0]) {
		Te.Errorf("sigma_vM %v", s.Data)
	}
	locs, _ = r.Locate("epsilon_U^0(F)_vM")
	if len(locs) != 1 {
		Te.Fatalf("strain Mises at %v", locs)
	}
	if d := attr(Te, r, locs[0].Path(), "Description"); !strings.Contains(d, "Mises equivalent strain") {
		Te.Errorf("strain description %q", d)
	}
	e, _ := r.Gather(locs, GatherOptions{})
	if want := 2.0 / 3 * math.Log(synth.Stretch(10, 3)); !near(e.Data[3], want) {
		Te.Errorf("strain Mises at point 3 is %g, want %g", e.Data[3], want)
	}
}

func TestCalculation(Te *testing.T) {
	r := container(Te, synth.Options{})
	err := r.Add("calculation", Params{"formula": "2*#T#", "label": "T2", "unit": "K"})
	if err != nil {
		Te.Fatal(err)
	}
	locs, _ := r.Locate("T2")
	if len(locs) != 2 || locs[0].Category != CategoryMaterialpoint {
		Te.Fatalf("T2 at %v", locs)
	}
	if d := attr(Te, r, locs[0].Path(), "Description"); !strings.HasPrefix(d, "n/a (formula: ") {
		Te.Errorf("description %q", d)
	}
	t, _ := r.Gather(locs[1:], GatherOptions{})
	if t.Data[2] != 2*synth.Temperature(10, 2) {
		Te.Errorf("T2 %v", t.Data)
	}
}

func TestOrientationTransforms(Te *testing.T) {
	r := container(Te, synth.Options{Increments: []int{0}})
	if err := r.Add("IPFcolor", Params{"pole": "0 0 1"}); err != nil {
		Te.Fatal(err)
	}
	if err := r.Add("pole", nil); err != nil {
		Te.Fatal(err)
	}
	locs, _ := r.Locate("IPFcolor_[0 0 1]")
	c, err := r.Gather(locs, GatherOptions{})
	if err != nil || c.Rows() != 4 || !c.Is(3) {
		Te.Fatalf("colors %v, %v", c, err)
	}
	// the identity maps z to the 001 corner, which is red
	if c.Row(0)[0] < 254 || c.Row(0)[1] > 1 || c.Row(0)[2] > 1 {
		Te.Errorf("color of the identity %v", c.Row(0))
	}
	if l := attr(Te, r, locs[0].Path(), "Lattice"); l != "cubic" {
		Te.Errorf("lattice %q", l)
	}
	locs, _ = r.Locate("Pole")
	p, _ := r.Gather(locs, GatherOptions{})
	if p.Rows() != 4 || !p.Is(2) || p.Row(3)[0] != 0 || p.Row(3)[1] != 0 {
		Te.Errorf("poles %v", p)
	}
}

func TestComputeFailures(Te *testing.T) {
	r := container(Te, synth.Options{}, WithWorkers(2))
	boom := func(map[string]Record, Args) (Record, error) {
		panic("boom")
	}
	err := r.Compute(boom, []Input{{Label: "T", Arg: "x"}}, nil)
	var te *TransformError
	if !errors.As(err, &te) || !strings.Contains(te.Err.Error(), "boom") {
		Te.Errorf("panicking transform gave %v", err)
	}
	if msg := te.Error(); !strings.HasPrefix(msg, "transform failed in /inc") {
		Te.Errorf("unnamed transform error reads %q", msg)
	}
	empty := func(map[string]Record, Args) (Record, error) {
		return Record{Data: tensor.New(4, 1)}, nil
	}
	if err := r.Compute(empty, []Input{{Label: "T", Arg: "x"}}, nil); !errors.As(err, &te) {
		Te.Errorf("unlabelled result gave %v", err)
	}
	if err := r.Compute(empty, []Input{{Label: "missing", Arg: "x"}}, nil); err != nil {
		Te.Errorf("no matching group gave %v", err)
	}
	if err := r.Add("norm", Params{"y": "F"}); err == nil {
		Te.Error("unknown parameter accepted")
	}
	if err := r.Add("nope", nil); err == nil {
		Te.Error("unknown transform accepted")
	}
}

func TestListData(Te *testing.T) {
	r := container(Te, synth.Options{})
	r.SetVisible(Increments, Names("inc10"))
	s, err := r.ListData()
	if err != nil {
		Te.Fatal(err)
	}
	for _, want := range []string{
		"\ninc10 (1s)\n",
		"  1_Aluminum\n    generic\n",
		"      F / (1): deformation gradient\n",
		"      T / (K): temperature\n",
	} {
		if !strings.Contains(s, want) {
			Te.Errorf("listing lacks %q:\n%s", want, s)
		}
	}
	if strings.Contains(s, "inc0 ") {
		Te.Errorf("hidden increment listed:\n%s", s)
	}
	if len(Transforms()) != 16 {
		Te.Errorf("%d transforms registered", len(Transforms()))
	}
	if h, ok := TransformHelp("norm"); !ok || !strings.Contains(h, "x (required)") {
		Te.Errorf("help %q", h)
	}
}
