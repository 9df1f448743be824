package mechplot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rmera/godadf5/histo"
)

func TestHistograms(Te *testing.T) {
	d := histo.Dividers(0, 4, 8)
	a := histo.NewData(d, []float64{0.1, 0.2, 1.5, 2.5, 2.6, 3.9})
	b := histo.NewData(d, []float64{0.5, 1, 1, 1.2, 3})
	name := filepath.Join(Te.TempDir(), "histo.png")
	if err := Histograms([]*histo.Data{a, b}, []string{"a", "b"}, "Test", "x", name); err != nil {
		Te.Fatal(err)
	}
	if fi, err := os.Stat(name); err != nil || fi.Size() == 0 {
		Te.Errorf("no plot written: %v", err)
	}
	if err := Histograms([]*histo.Data{a}, []string{"a", "b"}, "Test", "x", name); err == nil {
		Te.Error("mismatched names accepted")
	}
}

func TestSeries(Te *testing.T) {
	name := filepath.Join(Te.TempDir(), "series.svg")
	x := []float64{0, 1, 2}
	if err := Series(x, [][]float64{{1, 2, 3}, {3, 2, 1}}, nil, "", "t", "y", name); err != nil {
		Te.Fatal(err)
	}
	if err := Series(x, [][]float64{{1, 2}}, nil, "", "t", "y", name); err == nil {
		Te.Error("short series accepted")
	}
}

func TestColors(Te *testing.T) {
	c := colors(0, 4)
	if c.R != 255 || c.A != 255 {
		Te.Errorf("first color %v is not red", c)
	}
	seen := map[[3]uint8]bool{}
	for i := 0; i < 4; i++ {
		c := colors(i, 4)
		seen[[3]uint8{c.R, c.G, c.B}] = true
	}
	if len(seen) != 4 {
		Te.Errorf("colors repeat: %v", seen)
	}
}
