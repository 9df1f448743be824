package dadf5

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/rmera/godadf5/internal/synth"
	"github.com/rmera/godadf5/table"
)

func TestToVTK(Te *testing.T) {
	r := container(Te, synth.Options{}, WithWorkers(2))
	dir := Te.TempDir()
	files, err := r.ToVTK(dir, []string{"F", "T", "gamma", "missing"}, CellMode)
	if err != nil {
		Te.Fatal(err)
	}
	want := []string{filepath.Join(dir, "result_inc00.vtr"), filepath.Join(dir, "result_inc10.vtr")}
	if !slices.Equal(files, want) {
		Te.Fatalf("wrote %v, want %v", files, want)
	}
	b, err := os.ReadFile(files[1])
	if err != nil {
		Te.Fatal(err)
	}
	s := string(b)
	for _, name := range []string{
		`Name="constituent/generic/F"`,
		`Name="constituent/2_Steel/plastic/gamma"`,
		`Name="materialpoint/generic/T"`,
		`Name="u"`,
		`type="RectilinearGrid"`,
		`vtkZLibDataCompressor`,
	} {
		if !strings.Contains(s, name) {
			Te.Errorf("%s lacks %s", files[1], name)
		}
	}
	if strings.Contains(s, "missing") {
		Te.Errorf("absent label exported")
	}
	if v := r.Visible(Materialpoints); !slices.Equal(v, r.Materialpoints) {
		Te.Errorf("export left material points hidden: %v", v)
	}
}

func TestToVTKPoints(Te *testing.T) {
	r := container(Te, synth.Options{Increments: []int{3}})
	files, err := r.ToVTK(Te.TempDir(), []string{"P"}, PointMode)
	if err != nil {
		Te.Fatal(err)
	}
	if len(files) != 1 || filepath.Base(files[0]) != "result_inc3.vtp" {
		Te.Fatalf("wrote %v", files)
	}
	b, _ := os.ReadFile(files[0])
	if s := string(b); !strings.Contains(s, "<PointData>") || strings.Contains(s, `Name="u"`) {
		Te.Errorf("point export has the wrong attachments:\n%.400s", s)
	}
}

func TestToVTKUnstructured(Te *testing.T) {
	r := container(Te, synth.Options{Unstructured: true})
	files, err := r.ToVTK(Te.TempDir(), []string{"gamma"}, CellMode)
	if err != nil {
		Te.Fatal(err)
	}
	b, _ := os.ReadFile(files[0])
	if s := string(b); !strings.Contains(s, `type="UnstructuredGrid"`) || !strings.Contains(s, "constituent/1_Aluminum/plastic/gamma") {
		Te.Errorf("unstructured export:\n%.400s", s)
	}
	if _, err := r.ToTables(Te.TempDir(), []string{"F"}, nil); err == nil {
		Te.Error("tables written for an unstructured mesh")
	}
	if _, err := ParseExportMode("Point"); err != nil {
		Te.Error(err)
	}
	if _, err := ParseExportMode("edge"); err == nil {
		Te.Error("bad export mode accepted")
	}
}

func TestToTables(Te *testing.T) {
	r := container(Te, synth.Options{})
	r.SetVisible(Increments, Names("inc10"))
	dir := Te.TempDir()
	files, err := r.ToTables(dir, []string{"F", "T"}, []string{"T"})
	if err != nil {
		Te.Fatal(err)
	}
	if len(files) != 1 || filepath.Base(files[0]) != "result_inc00010.txt" {
		Te.Fatalf("wrote %v", files)
	}
	fin, err := os.Open(files[0])
	if err != nil {
		Te.Fatal(err)
	}
	defer fin.Close()
	t, err := table.ReadASCII(fin)
	if err != nil {
		Te.Fatal(err)
	}
	// T is a material point dataset, so only the second request finds it
	if !slices.Equal(t.Labels(), []string{"inc", "pos", "F", "T"}) || t.Len() != 4 {
		Te.Fatalf("labels %v, %d rows", t.Labels(), t.Len())
	}
	if sh, _ := t.Shape("F"); !slices.Equal(sh, []int{9}) {
		Te.Errorf("F has shape %v", sh)
	}
	inc, _ := t.Get("inc")
	pos, _ := t.Get("pos")
	F, _ := t.Get("1_F")
	if inc.Data[0] != 10 || !slices.Equal(pos.Row(1), []float64{1.5, 0.5, 0.5}) || !near(F.Data[2], synth.Stretch(10, 2)) {
		Te.Errorf("inc %v pos %v F %v", inc.Data, pos.Row(1), F.Data)
	}
}
