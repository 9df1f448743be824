package geom

import (
	"bytes"
	"errors"
	"slices"
	"strings"
	"testing"
)

const packed = `5 header
generated by hand
grid   a 4 b 2 c 1
size   x 4 y 2 z 1
origin x 0 y 0 z 0
homogenization 1
1 to 4
3 of 7
8
`

func TestReadPacked(Te *testing.T) {
	G, err := Read(strings.NewReader(packed))
	if err != nil {
		Te.Fatal(err)
	}
	want := []int{1, 2, 3, 4, 7, 7, 7, 8}
	if !slices.Equal(G.Microstructure, want) {
		Te.Errorf("microstructure %v, want %v", G.Microstructure, want)
	}
	if len(G.Comments) != 1 || G.Comments[0] != "generated by hand" {
		Te.Errorf("comments %q", G.Comments)
	}
	if G.At(0, 1, 0) != 7 {
		Te.Errorf("At(0,1,0) = %d", G.At(0, 1, 0))
	}
	var buf bytes.Buffer
	if err := G.Write(&buf, Packed); err != nil {
		Te.Fatal(err)
	}
	if buf.String() != packed {
		Te.Errorf("packed output\n%s", buf.String())
	}
	buf.Reset()
	if err := G.Write(&buf, Auto); err != nil {
		Te.Fatal(err)
	}
	if !strings.HasSuffix(buf.String(), "1 2 3 4\n7 7 7 8\n") {
		Te.Errorf("plain output\n%s", buf.String())
	}
	H, err := Read(&buf)
	if err != nil {
		Te.Fatal(err)
	}
	if !slices.Equal(H.Microstructure, want) || H.Grid != G.Grid {
		Te.Errorf("plain round trip: %v", H.Microstructure)
	}
}

func TestReadErrors(Te *testing.T) {
	for name, in := range map[string]string{
		"no header": "grid a 1 b 1 c 1\n",
		"short":     "3 header\ngrid a 2 b 1 c 1\nsize x 1 y 1 z 1\nhomogenization 1\n1\n",
		"no size":   "3 header\ngrid a 1 b 1 c 1\nfoo\nhomogenization 1\n1\n",
		"float":     "3 header\ngrid a 1 b 1 c 1\nsize x 1 y 1 z 1\nhomogenization 1\n1.5\n",
	} {
		if _, err := Read(strings.NewReader(in)); !errors.Is(err, ErrFormat) {
			Te.Errorf("%s: got %v", name, err)
		}
	}
}

func TestMirrorRenumber(Te *testing.T) {
	G, _ := New([3]int{3, 1, 1}, [3]float64{3, 1, 1})
	G.Microstructure = []int{5, 9, 20}
	G.Mirror([]string{"x"}, false)
	if !slices.Equal(G.Microstructure, []int{5, 9, 20, 9}) || G.Size[0] != 4 {
		Te.Errorf("mirror: %v size %v", G.Microstructure, G.Size)
	}
	G.Mirror([]string{"x"}, true)
	if len(G.Microstructure) != 8 || G.Microstructure[4] != 9 || G.Microstructure[7] != 5 {
		Te.Errorf("reflect: %v", G.Microstructure)
	}
	if err := G.Mirror([]string{"w"}, false); err == nil {
		Te.Error("invalid direction accepted")
	}
	G.Renumber()
	if !slices.Equal(G.Unique(), []int{1, 2, 3}) {
		Te.Errorf("renumbered %v", G.Microstructure)
	}
}

func TestClean(Te *testing.T) {
	G, _ := New([3]int{3, 3, 3}, [3]float64{1, 1, 1})
	G.Microstructure[G.Index(1, 1, 1)] = 2
	if err := G.Clean(3); err != nil {
		Te.Fatal(err)
	}
	if len(G.Unique()) != 1 || G.Unique()[0] != 1 {
		Te.Errorf("isolated cell survived: %v", G.Unique())
	}
}

func TestVoronoi(Te *testing.T) {
	seeds := [][3]float64{{0.25, 0.5, 0.5}, {0.75, 0.5, 0.5}}
	G, err := FromVoronoi([3]int{4, 2, 2}, [3]float64{1, 1, 1}, seeds, true, 3)
	if err != nil {
		Te.Fatal(err)
	}
	for k := 0; k < 2; k++ {
		for j := 0; j < 2; j++ {
			got := []int{G.At(0, j, k), G.At(1, j, k), G.At(2, j, k), G.At(3, j, k)}
			if !slices.Equal(got, []int{1, 1, 2, 2}) {
				Te.Errorf("row %d %d: %v", j, k, got)
			}
		}
	}
	W, err := FromLaguerre([3]int{4, 1, 1}, [3]float64{1, 1, 1}, seeds, []float64{1, 0}, false, 1)
	if err != nil {
		Te.Fatal(err)
	}
	if !slices.Equal(W.Microstructure, []int{1, 1, 1, 1}) {
		Te.Errorf("heavy seed should win everywhere: %v", W.Microstructure)
	}
}

func TestToVTK(Te *testing.T) {
	G, _ := New([3]int{2, 2, 1}, [3]float64{2, 2, 1})
	G.Origin = [3]float64{1, 0, 0}
	v, err := G.ToVTK()
	if err != nil {
		Te.Fatal(err)
	}
	if v.NumberOfCells() != 4 || len(v.CellData()) != 1 || v.CellData()[0].Name != "microstructure" {
		Te.Errorf("vtk grid with %d cells and %d arrays", v.NumberOfCells(), len(v.CellData()))
	}
}
