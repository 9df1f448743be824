package dadf5

import (
	"errors"
	"math"
	"path/filepath"
	"slices"
	"testing"

	"github.com/rmera/godadf5/internal/synth"
	"github.com/rmera/godadf5/store"
)

// container writes a synthetic container and opens it.
func container(Te *testing.T, o synth.Options, opts ...Option) *Result {
	Te.Helper()
	name := filepath.Join(Te.TempDir(), "result.dadf5")
	if err := synth.Build(name, o); err != nil {
		Te.Fatal(err)
	}
	r, err := Open(name, opts...)
	if err != nil {
		Te.Fatal(err)
	}
	return r
}

func near(a, b float64) bool {
	return math.Abs(a-b) <= 1e-9*math.Max(1, math.Abs(b))
}

func TestOpen(Te *testing.T) {
	r := container(Te, synth.Options{Origin: [3]float64{1, 0, 0}})
	if !r.Structured || !slices.Equal(r.Grid, []int{2, 2, 1}) || r.Origin[0] != 1 {
		Te.Errorf("geometry %v %v %v %v", r.Structured, r.Grid, r.Size, r.Origin)
	}
	if !slices.Equal(r.Increments, []string{"inc0", "inc10"}) || !slices.Equal(r.Times, []float64{0, 1}) {
		Te.Errorf("increments %v at %v", r.Increments, r.Times)
	}
	if !slices.Equal(r.Constituents, []string{"1_Aluminum", "2_Steel"}) || !slices.Equal(r.Materialpoints, []string{"1_SX"}) {
		Te.Errorf("names %v %v", r.Constituents, r.Materialpoints)
	}
	if !slices.Equal(r.ConPhysics, []string{"generic", "plastic"}) || !slices.Equal(r.MatPhysics, []string{"generic"}) {
		Te.Errorf("physics %v %v", r.ConPhysics, r.MatPhysics)
	}
	if r.NMaterialpoints != 4 || r.NConstituents != 1 {
		Te.Errorf("points %d x %d", r.NMaterialpoints, r.NConstituents)
	}
	ids, err := r.ConstituentID(0)
	if err != nil || !slices.Equal(ids, []int{1, 2, 1, 2}) {
		Te.Errorf("constituent IDs %v, %v", ids, err)
	}
	if l, err := r.CrystalStructure(); err != nil || l != "cubic" {
		Te.Errorf("lattice %q, %v", l, err)
	}
}

func TestOpenLegacy(Te *testing.T) {
	r := container(Te, synth.Options{VersionMinor: 3, Legacy: true, Increments: []int{0, 5}})
	if !slices.Equal(r.Increments, []string{"inc00000", "inc00005"}) {
		Te.Errorf("increments %v", r.Increments)
	}
	if name, ok := r.IncrementName(5); !ok || name != "inc00005" {
		Te.Errorf("increment 5 is %q", name)
	}
	if err := r.SetByIncrement(5, 7); err != nil || !slices.Equal(r.Visible(Increments), []string{"inc00005"}) {
		Te.Errorf("by increment: %v %v", r.Visible(Increments), err)
	}
	if !slices.Equal(r.Origin, []float64{0, 0, 0}) {
		Te.Errorf("origin %v", r.Origin)
	}
}

func TestOpenVersion(Te *testing.T) {
	name := filepath.Join(Te.TempDir(), "new.dadf5")
	if err := synth.Build(name, synth.Options{VersionMinor: 7}); err != nil {
		Te.Fatal(err)
	}
	_, err := Open(name)
	var ve *VersionError
	if !errors.As(err, &ve) || ve.Minor != 7 {
		Te.Errorf("opening version 0.7 gave %v", err)
	}
	_, err = Open(filepath.Join(Te.TempDir(), "missing.dadf5"))
	var fe *FormatError
	if !errors.As(err, &fe) {
		Te.Errorf("opening a missing file gave %v", err)
	}
}

func TestVisibility(Te *testing.T) {
	r := container(Te, synth.Options{})
	if err := r.SetVisible(Constituents, Names("2_*")); err != nil {
		Te.Fatal(err)
	}
	if v := r.Visible(Constituents); !slices.Equal(v, []string{"2_Steel"}) {
		Te.Errorf("after set: %v", v)
	}
	r.AddVisible(Constituents, Names("1_Aluminum"))
	if v := r.Visible(Constituents); !slices.Equal(v, r.Constituents) {
		Te.Errorf("after add: %v", v)
	}
	r.DelVisible(Constituents, All())
	if v := r.Visible(Constituents); v == nil || len(v) != 0 {
		Te.Errorf("after delete: %#v", v)
	}
	if err := r.SetVisible(Constituents, Names("[")); err == nil {
		Te.Error("bad pattern accepted")
	}
	r.SetVisible(MatPhysics, None())
	if v := r.Visible(MatPhysics); v == nil || len(v) != 0 {
		Te.Errorf("nothing visible: %#v", v)
	}
	r.SetVisible(Constituents, All())

	if err := r.SetByTime(0.5, 2); err != nil || !slices.Equal(r.Visible(Increments), []string{"inc10"}) {
		Te.Errorf("by time: %v %v", r.Visible(Increments), err)
	}
	r.AddByTime(0, 0)
	r.DelByIncrement(10, 10)
	if v := r.Visible(Increments); !slices.Equal(v, []string{"inc0"}) {
		Te.Errorf("after time and increment edits: %v", v)
	}
}

func TestIterVisible(Te *testing.T) {
	r := container(Te, synth.Options{})
	var seen []string
	err := r.IterVisible(Constituents, func(name string) error {
		seen = append(seen, name)
		if v := r.Visible(Constituents); !slices.Equal(v, []string{name}) {
			Te.Errorf("inside the loop %v is visible", v)
		}
		return nil
	})
	if err != nil || !slices.Equal(seen, r.Constituents) {
		Te.Errorf("visited %v, %v", seen, err)
	}
	err = r.IterVisible(Constituents, func(string) error {
		return r.SetVisible(Constituents, All())
	})
	var ce *ConsistencyError
	if !errors.As(err, &ce) || ce.Dimension != Constituents {
		Te.Errorf("mutating the loop gave %v", err)
	}
	if v := r.Visible(Constituents); !slices.Equal(v, r.Constituents) {
		Te.Errorf("selection not restored: %v", v)
	}
	stop := errors.New("stop")
	if err := r.IterVisible(Increments, func(string) error { return stop }); err != stop {
		Te.Errorf("callback error became %v", err)
	}
}

func TestLocate(Te *testing.T) {
	r := container(Te, synth.Options{})
	locs, err := r.Locate("F")
	if err != nil {
		Te.Fatal(err)
	}
	if len(locs) != 4 || locs[0].Path() != "/inc0/constituent/1_Aluminum/generic/F" {
		Te.Errorf("F found at %v", locs)
	}
	if locs[3].Path() != "/inc10/constituent/2_Steel/generic/F" {
		Te.Errorf("last F at %s", locs[3])
	}
	l, err := ParseLocation(locs[3].Path())
	if err != nil || l != locs[3] {
		Te.Errorf("parsed %v, %v", l, err)
	}
	locs, _ = r.Locate("u_n")
	if len(locs) != 2 || locs[0].Category != CategoryGeometry {
		Te.Errorf("u_n found at %v", locs)
	}
	locs, err = r.Locate("missing")
	if err != nil || locs == nil || len(locs) != 0 {
		Te.Errorf("missing label gave %#v, %v", locs, err)
	}
	r.SetVisible(ConPhysics, Names("plastic"))
	r.SetVisible(Increments, Names("inc10"))
	if locs, _ := r.Locate("F"); len(locs) != 0 {
		Te.Errorf("hidden physics still found: %v", locs)
	}
	groups, err := r.GroupsWithDatasets("gamma")
	if err != nil || len(groups) != 2 || groups[1].Name != "2_Steel" {
		Te.Errorf("groups with gamma: %v, %v", groups, err)
	}
}

func TestGather(Te *testing.T) {
	r := container(Te, synth.Options{})
	r.SetVisible(Increments, Names("inc10"))
	locs, _ := r.Locate("F")
	F, err := r.Gather(locs, GatherOptions{})
	if err != nil {
		Te.Fatal(err)
	}
	if F.Rows() != 4 || !F.Is(3, 3) {
		Te.Fatalf("F has shape %v", F.Shape)
	}
	for i := 0; i < 4; i++ {
		if !near(F.Row(i)[0], synth.Stretch(10, i)) || F.Row(i)[4] != 1 {
			Te.Errorf("F at point %d: %v", i, F.Row(i))
		}
	}
	locs, _ = r.Locate("T")
	T, err := r.Gather(locs, GatherOptions{})
	if err != nil || T.Rows() != 4 || !T.Is(1) || T.Data[3] != synth.Temperature(10, 3) {
		Te.Errorf("T %v, %v", T, err)
	}
	locs, _ = r.Locate("orientation")
	q, err := r.Gather(locs, GatherOptions{})
	if err != nil || !slices.Equal(q.Fields, []string{"w", "x", "y", "z"}) {
		Te.Fatalf("orientation %v, %v", q, err)
	}
	q, _ = r.Gather(locs, GatherOptions{Flatten: true})
	if q.Rows() != 4 || !q.Is(4) || q.Row(2)[0] != 1 {
		Te.Errorf("flat orientation %v", q)
	}

	r.SetVisible(Constituents, Names("1_Aluminum"))
	locs, _ = r.Locate("P")
	P, err := r.Gather(locs, GatherOptions{})
	if err != nil {
		Te.Fatal(err)
	}
	if P.Row(0)[0] != synth.Stress(0) || P.Row(2)[0] != synth.Stress(2) {
		Te.Errorf("aluminum points of P: %v %v", P.Row(0), P.Row(2))
	}
	if !math.IsNaN(P.Row(1)[0]) || !math.IsNaN(P.Row(3)[8]) {
		Te.Errorf("steel points of P are not NaN: %v %v", P.Row(1), P.Row(3))
	}
	if _, err := r.Gather(locs, GatherOptions{Constituent: 1}); err == nil {
		Te.Error("out of range constituent slot accepted")
	}
	if _, err := r.Gather(nil, GatherOptions{}); err == nil {
		Te.Error("gathered nothing")
	}

	// geometry datasets come back as stored
	f, err := store.Open(r.FileName(), store.ReadWrite)
	if err != nil {
		Te.Fatal(err)
	}
	err = f.WriteDataset("/inc10/geometry/phi", &store.Dataset{Shape: []int{5}, Data: []float64{1, 2, 3, 4, 5}}, nil)
	f.Close()
	if err != nil {
		Te.Fatal(err)
	}
	locs, _ = r.Locate("phi")
	phi, err := r.Gather(locs, GatherOptions{})
	if err != nil || !slices.Equal(phi.Shape, []int{5}) || phi.Data[4] != 5 {
		Te.Errorf("phi %v, %v", phi, err)
	}
	locs, _ = r.Locate("u_n")
	u, err := r.Gather(locs, GatherOptions{})
	if err != nil || !slices.Equal(u.Shape, []int{18, 3}) {
		Te.Errorf("u_n %v, %v", u, err)
	}
}

func TestCellCoordinates(Te *testing.T) {
	r := container(Te, synth.Options{Origin: [3]float64{0, 0, -1}})
	c, err := r.CellCoordinates()
	if err != nil {
		Te.Fatal(err)
	}
	want := [][]float64{{0.5, 0.5, -0.5}, {1.5, 0.5, -0.5}, {0.5, 1.5, -0.5}}
	for i, w := range want {
		if !slices.Equal(c.Row(i), w) {
			Te.Errorf("cell %d at %v, want %v", i, c.Row(i), w)
		}
	}
	u := container(Te, synth.Options{Unstructured: true})
	c, err = u.CellCoordinates()
	if err != nil || !slices.Equal(c.Data, []float64{0.5, 0.5, 0.5}) {
		Te.Errorf("unstructured cell centers %v, %v", c, err)
	}
}

// attr reads a string attribute of the dataset at p.
func attr(Te *testing.T, r *Result, p, name string) string {
	Te.Helper()
	f, err := store.Open(r.FileName(), store.ReadOnly)
	if err != nil {
		Te.Fatal(err)
	}
	defer f.Close()
	a, err := f.Attrs(p)
	if err != nil {
		Te.Fatal(err)
	}
	s, _ := a.String(name)
	return s
}
