package store

import (
	"errors"
	"math"
	"path/filepath"
	"reflect"
	"testing"
)

func newFile(Te *testing.T) (*File, string) {
	name := filepath.Join(Te.TempDir(), "result.db")
	f, err := Create(name)
	if err != nil {
		Te.Fatal(err)
	}
	return f, name
}

func TestGroups(Te *testing.T) {
	f, _ := newFile(Te)
	defer f.Close()
	if err := f.CreateGroup("inc10/constituent/Phase1/mechanics"); err != nil {
		Te.Fatal(err)
	}
	if err := f.CreateGroup("/inc2/geometry"); err != nil {
		Te.Fatal(err)
	}
	if err := f.CreateGroup("/inc2/geometry"); err != nil {
		Te.Errorf("creating an existing group should not fail: %v", err)
	}
	keys, err := f.Keys("/")
	if err != nil {
		Te.Fatal(err)
	}
	if !reflect.DeepEqual(keys, []string{"inc10", "inc2"}) {
		Te.Errorf("root keys %v", keys)
	}
	if !f.IsGroup("/inc10/constituent/Phase1") {
		Te.Errorf("intermediate group was not created")
	}
	if f.Exists("/inc10/materialpoint") {
		Te.Errorf("phantom group")
	}
	if _, err := f.Keys("/nothere"); !errors.Is(err, ErrNotExist) {
		Te.Errorf("expected ErrNotExist, got %v", err)
	}
}

func TestAttrs(Te *testing.T) {
	f, _ := newFile(Te)
	defer f.Close()
	if err := f.SetAttr("/", "DADF5_version_minor", 6); err != nil {
		Te.Fatal(err)
	}
	if err := f.CreateGroup("geometry"); err != nil {
		Te.Fatal(err)
	}
	f.SetAttr("geometry", "grid", []int{4, 2, 1})
	f.SetAttr("geometry", "size", []float64{1, 0.5, 0.25})
	f.SetAttr("geometry", "label", "x")
	f.SetAttr("geometry", "label", "y")
	if err := f.SetAttr("/missing", "a", 1); !errors.Is(err, ErrNotExist) {
		Te.Errorf("expected ErrNotExist, got %v", err)
	}
	if err := f.SetAttr("/", "bad", struct{}{}); err == nil {
		Te.Errorf("unsupported attribute type was accepted")
	}
	root, err := f.Attrs("/")
	if err != nil {
		Te.Fatal(err)
	}
	if v, ok := root.Int("DADF5_version_minor"); !ok || v != 6 {
		Te.Errorf("minor version %v %v", v, ok)
	}
	geo, err := f.Attrs("/geometry")
	if err != nil {
		Te.Fatal(err)
	}
	if g, ok := geo.Ints("grid"); !ok || !reflect.DeepEqual(g, []int64{4, 2, 1}) {
		Te.Errorf("grid %v", g)
	}
	if s, ok := geo.Floats("size"); !ok || !reflect.DeepEqual(s, []float64{1, 0.5, 0.25}) {
		Te.Errorf("size %v", s)
	}
	if g, ok := geo.Floats("grid"); !ok || g[0] != 4 {
		Te.Errorf("integer attribute not readable as floats: %v", g)
	}
	if l, _ := geo.String("label"); l != "y" {
		Te.Errorf("attribute was not replaced: %q", l)
	}
	if geo.Has("origin") {
		Te.Errorf("phantom attribute")
	}
}

func TestDatasetRoundTrip(Te *testing.T) {
	f, name := newFile(Te)
	ramp := make([]float64, 3*3*50)
	for i := range ramp {
		ramp[i] = float64(i % 9)
	}
	noisy := make([]float64, 64)
	x := 0.123456789
	for i := range noisy {
		x = 3.99 * x * (1 - x)
		noisy[i] = x
	}
	noisy[3] = math.NaN()
	cases := map[string]*Dataset{
		"/inc0/constituent/A/mechanics/F": {Shape: []int{50, 3, 3}, Data: ramp},
		"/inc0/constituent/A/mechanics/x": {Shape: []int{64}, Data: noisy},
		"/inc0/geometry/empty":            {Shape: []int{0, 3}, Data: []float64{}},
		"/inc0/constituent/A/generic/id":  {Shape: []int{2}, DType: Int64, Fields: []string{"Name", "Position"}, Data: []float64{1, 2, 3, 4}},
	}
	for p, d := range cases {
		if err := f.WriteDataset(p, d, Attrs{"Unit": "Pa", "Description": p}); err != nil {
			Te.Fatal(err)
		}
	}
	if err := f.WriteDataset("/inc0/constituent/A/mechanics/F", cases["/inc0/constituent/A/mechanics/F"], nil); !errors.Is(err, ErrExist) {
		Te.Errorf("overwrite: expected ErrExist, got %v", err)
	}
	if err := f.WriteDataset("/bad", &Dataset{Shape: []int{2}, Data: []float64{1}}, nil); err == nil {
		Te.Errorf("shape mismatch was accepted")
	}
	f.Close()

	r, err := Open(name, ReadOnly)
	if err != nil {
		Te.Fatal(err)
	}
	defer r.Close()
	for p, want := range cases {
		got, err := r.ReadDataset(p)
		if err != nil {
			Te.Fatal(err)
		}
		if !reflect.DeepEqual(got.Shape, want.Shape) || !reflect.DeepEqual(got.Fields, want.Fields) {
			Te.Errorf("%s: layout %v %v", p, got.Shape, got.Fields)
		}
		for i := range want.Data {
			if got.Data[i] != want.Data[i] && !(math.IsNaN(got.Data[i]) && math.IsNaN(want.Data[i])) {
				Te.Errorf("%s: value %d is %v, want %v", p, i, got.Data[i], want.Data[i])
				break
			}
		}
		attrs, err := r.Attrs(p)
		if err != nil {
			Te.Fatal(err)
		}
		if d, _ := attrs.String("Description"); d != p {
			Te.Errorf("%s: description %q", p, d)
		}
	}
	info, err := r.DatasetInfo("/inc0/constituent/A/mechanics/F")
	if err != nil {
		Te.Fatal(err)
	}
	if info.Codec != "zstd" || info.DType != Float64 {
		Te.Errorf("repetitive payload stored as %s %s", info.Codec, info.DType)
	}
	if !r.IsDataset("/inc0/geometry/empty") || r.IsGroup("/inc0/geometry/empty") {
		Te.Errorf("dataset kind")
	}
	if err := r.CreateGroup("/x"); !errors.Is(err, ErrReadOnly) {
		Te.Errorf("expected ErrReadOnly, got %v", err)
	}
	if _, err := r.ReadDataset("/inc0/nothing"); !errors.Is(err, ErrNotExist) {
		Te.Errorf("expected ErrNotExist, got %v", err)
	}
}

func TestMapping(Te *testing.T) {
	f, _ := newFile(Te)
	defer f.Close()
	m := NewMapping(3, 2)
	m.Set(0, 0, "Phase1", 0)
	m.Set(1, 0, "Phase2", 0)
	m.Set(2, 0, "Phase1", 1)
	m.Set(0, 1, "Phase2", 1)
	if err := f.WriteMapping("/mapping/cellResults/constituent", m); err != nil {
		Te.Fatal(err)
	}
	got, err := f.ReadMapping("mapping/cellResults/constituent")
	if err != nil {
		Te.Fatal(err)
	}
	if !reflect.DeepEqual(got, m) {
		Te.Errorf("mapping round trip: %+v", got)
	}
	if n, p := got.At(2, 0); n != "Phase1" || p != 1 {
		Te.Errorf("At(2,0) = %s %d", n, p)
	}
	if u := got.UniqueNames(); !reflect.DeepEqual(u, []string{"Phase1", "Phase2"}) {
		Te.Errorf("unique names %v", u)
	}
	if _, err := f.ReadMapping("/mapping/cellResults/materialpoint"); !errors.Is(err, ErrNotExist) {
		Te.Errorf("expected ErrNotExist, got %v", err)
	}
}

func TestByteGrouping(Te *testing.T) {
	in := []float64{0, 1, -2.5, math.Inf(1), 1e-300}
	out, err := bytesToFloats(floatsToBytes(in))
	if err != nil {
		Te.Fatal(err)
	}
	if !reflect.DeepEqual(in, out) {
		Te.Errorf("byte grouping round trip: %v", out)
	}
	if _, err := bytesToFloats(make([]byte, 7)); err == nil {
		Te.Errorf("odd payload accepted")
	}
}

func TestOpenRejectsForeignFiles(Te *testing.T) {
	if _, err := Open(filepath.Join(Te.TempDir(), "none.db"), ReadOnly); err == nil {
		Te.Errorf("opened a missing file")
	}
}
