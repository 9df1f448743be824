package vtk

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/klauspost/compress/zlib"
)

// Format is the encoding of the data arrays.
type Format int

const (
	Binary Format = iota // zlib compressed, base64 encoded blocks
	ASCII
)

// blockSize is the uncompressed size of one compressed block.
const blockSize = 1 << 15

// Options control Write.
type Options struct {
	Format Format
	Level  int // zlib level, 0 means zlib.DefaultCompression
}

// Write emits d as a VTK XML file.
func (d *Dataset) Write(w io.Writer, opts Options) error {
	x := &xmlWriter{w: bufio.NewWriter(w), opts: opts}
	if opts.Level == 0 {
		x.opts.Level = zlib.DefaultCompression
	}
	compressor := ""
	if opts.Format == Binary {
		compressor = ` compressor="vtkZLibDataCompressor"`
	}
	x.printf("<?xml version=\"1.0\"?>\n")
	x.printf("<VTKFile type=\"%s\" version=\"1.0\" byte_order=\"LittleEndian\" header_type=\"UInt64\"%s>\n", d.kind, compressor)
	switch d.kind {
	case Rectilinear:
		ext := fmt.Sprintf("0 %d 0 %d 0 %d", len(d.coords[0])-1, len(d.coords[1])-1, len(d.coords[2])-1)
		x.printf("<RectilinearGrid WholeExtent=\"%s\">\n<Piece Extent=\"%s\">\n", ext, ext)
	case Unstructured:
		x.printf("<UnstructuredGrid>\n<Piece NumberOfPoints=\"%d\" NumberOfCells=\"%d\">\n", d.NumberOfPoints(), d.NumberOfCells())
	case Poly:
		x.printf("<PolyData>\n<Piece NumberOfPoints=\"%d\" NumberOfVerts=\"%d\" NumberOfLines=\"0\" NumberOfStrips=\"0\" NumberOfPolys=\"0\">\n", d.NumberOfPoints(), d.NumberOfCells())
	}
	x.section("PointData", d.pointData)
	x.section("CellData", d.cellData)
	switch d.kind {
	case Rectilinear:
		x.printf("<Coordinates>\n")
		for i, name := range []string{"x", "y", "z"} {
			x.floats(name, 1, d.coords[i])
		}
		x.printf("</Coordinates>\n")
	default:
		x.printf("<Points>\n")
		x.floats("Points", 3, d.points)
		x.printf("</Points>\n")
		tag := "Cells"
		if d.kind == Poly {
			tag = "Verts"
		}
		x.printf("<%s>\n", tag)
		x.ints("connectivity", d.connectivity)
		x.ints("offsets", d.offsets)
		if d.kind == Unstructured {
			x.uint8s("types", d.types)
		}
		x.printf("</%s>\n", tag)
	}
	x.printf("</Piece>\n</%s>\n</VTKFile>\n", d.kind)
	if x.err != nil {
		return x.err
	}
	return x.w.Flush()
}

// xmlWriter keeps the first error, so the layout code above can ignore them.
type xmlWriter struct {
	w    *bufio.Writer
	opts Options
	err  error
}

func (x *xmlWriter) printf(format string, a ...any) {
	if x.err != nil {
		return
	}
	_, x.err = fmt.Fprintf(x.w, format, a...)
}

func (x *xmlWriter) section(tag string, arrays []Array) {
	if len(arrays) == 0 {
		return
	}
	x.printf("<%s>\n", tag)
	for _, a := range arrays {
		x.floats(a.Name, a.Components, a.Data)
	}
	x.printf("</%s>\n", tag)
}

func (x *xmlWriter) open(typ, name string, components int) {
	var esc bytes.Buffer
	xml.EscapeText(&esc, []byte(name))
	format := "binary"
	if x.opts.Format == ASCII {
		format = "ascii"
	}
	x.printf("<DataArray type=\"%s\" Name=\"%s\" NumberOfComponents=\"%d\" format=\"%s\">\n", typ, esc.String(), components, format)
}

func (x *xmlWriter) floats(name string, components int, data []float64) {
	x.open("Float64", name, components)
	if x.opts.Format == ASCII {
		x.ascii(len(data), func(i int) string { return strconv.FormatFloat(data[i], 'g', -1, 64) })
	} else {
		raw := make([]byte, 8*len(data))
		for i, v := range data {
			binary.LittleEndian.PutUint64(raw[8*i:], math.Float64bits(v))
		}
		x.binary(raw)
	}
	x.printf("</DataArray>\n")
}

func (x *xmlWriter) ints(name string, data []int64) {
	x.open("Int64", name, 1)
	if x.opts.Format == ASCII {
		x.ascii(len(data), func(i int) string { return strconv.FormatInt(data[i], 10) })
	} else {
		raw := make([]byte, 8*len(data))
		for i, v := range data {
			binary.LittleEndian.PutUint64(raw[8*i:], uint64(v))
		}
		x.binary(raw)
	}
	x.printf("</DataArray>\n")
}

func (x *xmlWriter) uint8s(name string, data []uint8) {
	x.open("UInt8", name, 1)
	if x.opts.Format == ASCII {
		x.ascii(len(data), func(i int) string { return strconv.Itoa(int(data[i])) })
	} else {
		x.binary(data)
	}
	x.printf("</DataArray>\n")
}

func (x *xmlWriter) ascii(n int, value func(i int) string) {
	const perLine = 9
	for i := 0; i < n; i++ {
		sep := " "
		if (i+1)%perLine == 0 || i == n-1 {
			sep = "\n"
		}
		x.printf("%s%s", value(i), sep)
	}
}

// binary writes raw as a compressed block header followed by the
// compressed blocks, each part base64 encoded on its own.
func (x *xmlWriter) binary(raw []byte) {
	if x.err != nil {
		return
	}
	blocks, err := compressBlocks(raw, x.opts.Level)
	if err != nil {
		x.err = err
		return
	}
	header := make([]byte, 8*(3+len(blocks)))
	last := len(raw) % blockSize
	binary.LittleEndian.PutUint64(header[0:], uint64(len(blocks)))
	binary.LittleEndian.PutUint64(header[8:], blockSize)
	binary.LittleEndian.PutUint64(header[16:], uint64(last))
	var body []byte
	for i, b := range blocks {
		binary.LittleEndian.PutUint64(header[24+8*i:], uint64(len(b)))
		body = append(body, b...)
	}
	x.printf("%s%s\n", base64.StdEncoding.EncodeToString(header), base64.StdEncoding.EncodeToString(body))
}

func compressBlocks(raw []byte, level int) ([][]byte, error) {
	var blocks [][]byte
	for start := 0; start < len(raw); start += blockSize {
		end := min(start+blockSize, len(raw))
		var buf bytes.Buffer
		zw, err := zlib.NewWriterLevel(&buf, level)
		if err != nil {
			return nil, err
		}
		if _, err := zw.Write(raw[start:end]); err != nil {
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}
		blocks = append(blocks, buf.Bytes())
	}
	return blocks, nil
}
