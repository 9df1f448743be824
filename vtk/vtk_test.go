package vtk

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"io"
	"math"
	"regexp"
	"strings"
	"testing"

	"github.com/klauspost/compress/zlib"
)

// decode undoes the binary encoding of one data array.
func decode(Te *testing.T, s string) []byte {
	s = strings.TrimSpace(s)
	first, err := base64.StdEncoding.DecodeString(s[:32])
	if err != nil {
		Te.Fatal(err)
	}
	nblocks := int(binary.LittleEndian.Uint64(first))
	hlen := 4 * ((8*(3+nblocks) + 2) / 3)
	header, err := base64.StdEncoding.DecodeString(s[:hlen])
	if err != nil {
		Te.Fatal(err)
	}
	body, err := base64.StdEncoding.DecodeString(s[hlen:])
	if err != nil {
		Te.Fatal(err)
	}
	var out []byte
	for i := 0; i < nblocks; i++ {
		size := int(binary.LittleEndian.Uint64(header[24+8*i:]))
		zr, err := zlib.NewReader(bytes.NewReader(body[:size]))
		if err != nil {
			Te.Fatal(err)
		}
		raw, err := io.ReadAll(zr)
		if err != nil {
			Te.Fatal(err)
		}
		out = append(out, raw...)
		body = body[size:]
	}
	return out
}

func arrayBody(Te *testing.T, doc, name string) string {
	re := regexp.MustCompile(`Name="` + regexp.QuoteMeta(name) + `"[^>]*>\n([^<]*)</DataArray>`)
	m := re.FindStringSubmatch(doc)
	if m == nil {
		Te.Fatalf("no array %q in\n%s", name, doc)
	}
	return m[1]
}

func TestRectilinear(Te *testing.T) {
	x := []float64{0, 1, 2}
	g, err := NewRectilinear(x, []float64{0, 1}, []float64{0, 1})
	if err != nil {
		Te.Fatal(err)
	}
	if g.NumberOfCells() != 2 || g.NumberOfPoints() != 12 {
		Te.Errorf("%d cells, %d points", g.NumberOfCells(), g.NumberOfPoints())
	}
	if err := g.AddCellData("bad", 1, []float64{1}); err == nil {
		Te.Error("array with the wrong length accepted")
	}
	data := []float64{1.5, math.NaN()}
	if err := g.AddCellData("s<x>", 1, data); err != nil {
		Te.Fatal(err)
	}
	var buf bytes.Buffer
	if err := g.Write(&buf, Options{}); err != nil {
		Te.Fatal(err)
	}
	doc := buf.String()
	for _, want := range []string{`type="RectilinearGrid"`, `WholeExtent="0 2 0 1 0 1"`, `compressor="vtkZLibDataCompressor"`, `Name="s&lt;x&gt;"`} {
		if !strings.Contains(doc, want) {
			Te.Errorf("missing %s", want)
		}
	}
	raw := decode(Te, arrayBody(Te, doc, "x"))
	for i, v := range x {
		if got := math.Float64frombits(binary.LittleEndian.Uint64(raw[8*i:])); got != v {
			Te.Errorf("x[%d] = %g", i, got)
		}
	}
	raw = decode(Te, arrayBody(Te, doc, "s&lt;x&gt;"))
	if !math.IsNaN(math.Float64frombits(binary.LittleEndian.Uint64(raw[8:]))) {
		Te.Error("NaN lost")
	}
}

func TestLargeArray(Te *testing.T) {
	n := blockSize/8*2 + 5
	pts := make([]float64, 3*n)
	for i := range pts {
		pts[i] = float64(i)
	}
	p, err := NewPolyData(pts)
	if err != nil {
		Te.Fatal(err)
	}
	var buf bytes.Buffer
	if err := p.Write(&buf, Options{}); err != nil {
		Te.Fatal(err)
	}
	raw := decode(Te, arrayBody(Te, buf.String(), "Points"))
	if len(raw) != 8*len(pts) {
		Te.Fatalf("decoded %d bytes, want %d", len(raw), 8*len(pts))
	}
	if got := math.Float64frombits(binary.LittleEndian.Uint64(raw[len(raw)-8:])); got != pts[len(pts)-1] {
		Te.Errorf("last value %g", got)
	}
	if !strings.Contains(buf.String(), "<Verts>") {
		Te.Error("point cloud without vertices")
	}
}

func TestUnstructuredASCII(Te *testing.T) {
	pts := []float64{0, 0, 0, 1, 0, 0, 0, 1, 0, 1, 1, 0}
	if _, err := NewUnstructured(pts, []int64{0, 1, 4}, Triangle); err == nil {
		Te.Error("out of range node accepted")
	}
	u, err := NewUnstructured(pts, []int64{0, 1, 2, 1, 3, 2}, Triangle)
	if err != nil {
		Te.Fatal(err)
	}
	if err := u.AddPointData("u", 3, make([]float64, 12)); err != nil {
		Te.Fatal(err)
	}
	c := u.Copy()
	if len(c.PointData()) != 0 || c.NumberOfCells() != 2 {
		Te.Error("Copy kept data or lost cells")
	}
	var buf bytes.Buffer
	if err := u.Write(&buf, Options{Format: ASCII}); err != nil {
		Te.Fatal(err)
	}
	doc := buf.String()
	if got := strings.TrimSpace(arrayBody(Te, doc, "offsets")); got != "3 6" {
		Te.Errorf("offsets %q", got)
	}
	if got := strings.TrimSpace(arrayBody(Te, doc, "types")); got != "5 5" {
		Te.Errorf("types %q", got)
	}
	if strings.Contains(doc, "compressor") {
		Te.Error("ASCII file declares a compressor")
	}
}

func TestParseCellType(Te *testing.T) {
	for name, want := range map[string]CellType{"TRIANGLE": Triangle, "quad": Quad, "Tetra": Tetra, "HEXAHEDRON": Hexahedron} {
		got, err := ParseCellType(name)
		if err != nil || got != want {
			Te.Errorf("%s: %v %v", name, got, err)
		}
	}
	if _, err := ParseCellType("WEDGE"); err == nil {
		Te.Error("WEDGE accepted")
	}
}
