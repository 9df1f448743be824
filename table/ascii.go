package table

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// columnLabels expands the labels to one header entry per column.
func (t *Table) columnLabels() []string {
	var out []string
	for _, c := range t.cols {
		n := c.size()
		switch {
		case len(c.shape) == 1 && c.shape[0] == 1:
			out = append(out, c.label)
		case len(c.shape) == 1:
			for i := range n {
				out = append(out, fmt.Sprintf("%d_%s", i+1, c.label))
			}
		default:
			dims := make([]string, len(c.shape))
			for i, s := range c.shape {
				dims[i] = strconv.Itoa(s)
			}
			prefix := strings.Join(dims, "x")
			for i := range n {
				out = append(out, fmt.Sprintf("%s:%d_%s", prefix, i+1, c.label))
			}
		}
	}
	return out
}

// WriteASCII writes the table as "<N> header", the comments, the column
// labels and then one line per row.
func (t *Table) WriteASCII(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%d header\n", len(t.Comments)+1)
	for _, c := range t.Comments {
		fmt.Fprintln(bw, c)
	}
	fmt.Fprintln(bw, strings.Join(t.columnLabels(), " "))
	line := make([]byte, 0, 256)
	for i := range t.rows {
		line = line[:0]
		for j, c := range t.cols {
			n := c.size()
			for k, v := range c.data[i*n : (i+1)*n] {
				if j > 0 || k > 0 {
					line = append(line, ' ')
				}
				line = strconv.AppendFloat(line, v, 'g', -1, 64)
			}
		}
		line = append(line, '\n')
		if _, err := bw.Write(line); err != nil {
			return err
		}
	}
	return bw.Flush()
}

var (
	tensorLabel = regexp.MustCompile(`^([0-9x]+):([0-9]+)_(.+)$`)
	vectorLabel = regexp.MustCompile(`^([0-9]+)_(.+)$`)
)

// parseLabel returns the key and shape of one column label.
func parseLabel(l string) (string, []int, error) {
	if m := tensorLabel.FindStringSubmatch(l); m != nil {
		var shape []int
		for _, d := range strings.Split(m[1], "x") {
			n, err := strconv.Atoi(d)
			if err != nil || n < 1 {
				return "", nil, fmt.Errorf("%w: bad dimensions in label %q", ErrFormat, l)
			}
			shape = append(shape, n)
		}
		return m[3], shape, nil
	}
	if m := vectorLabel.FindStringSubmatch(l); m != nil {
		// the length is only known once all the columns are counted
		return m[2], nil, nil
	}
	return l, []int{1}, nil
}

// ReadASCII reads a table written by WriteASCII. The column labels of a
// label must be adjacent.
func ReadASCII(r io.Reader) (*Table, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 1<<20), 1<<26)
	if !sc.Scan() {
		return nil, fmt.Errorf("%w: empty input", ErrFormat)
	}
	head := strings.Fields(sc.Text())
	if len(head) != 2 || head[1] != "header" {
		return nil, fmt.Errorf("%w: first line must be \"<N> header\"", ErrFormat)
	}
	nhead, err := strconv.Atoi(head[0])
	if err != nil || nhead < 1 {
		return nil, fmt.Errorf("%w: bad header count %q", ErrFormat, head[0])
	}
	t := New(0)
	for i := 1; i < nhead; i++ {
		if !sc.Scan() {
			return nil, fmt.Errorf("%w: header ends early", ErrFormat)
		}
		t.Comments = append(t.Comments, sc.Text())
	}
	if !sc.Scan() {
		return nil, fmt.Errorf("%w: no column labels", ErrFormat)
	}
	labels := strings.Fields(sc.Text())
	var widths []int
	for _, l := range labels {
		key, shape, err := parseLabel(l)
		if err != nil {
			return nil, err
		}
		if last := len(t.cols) - 1; last >= 0 && t.cols[last].label == key {
			widths[last]++
			continue
		}
		if t.column(key) != nil {
			return nil, fmt.Errorf("%w: columns of %q are not adjacent", ErrFormat, key)
		}
		t.cols = append(t.cols, &column{label: key, shape: shape})
		widths = append(widths, 1)
	}
	for i, c := range t.cols {
		if c.shape == nil {
			c.shape = []int{widths[i]}
		}
		if c.size() != widths[i] {
			return nil, fmt.Errorf("%w: %q has %d columns, its shape %v needs %d", ErrFormat, c.label, widths[i], c.shape, c.size())
		}
	}
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != len(labels) {
			return nil, fmt.Errorf("%w: row %d has %d values, expected %d", ErrFormat, t.rows+1, len(fields), len(labels))
		}
		k := 0
		for i, c := range t.cols {
			for range widths[i] {
				v, err := strconv.ParseFloat(fields[k], 64)
				if err != nil {
					return nil, fmt.Errorf("%w: row %d: %v", ErrFormat, t.rows+1, err)
				}
				c.data = append(c.data, v)
				k++
			}
		}
		t.rows++
	}
	return t, sc.Err()
}

// angShapes are the leading columns of a TSL ang file.
var angShapes = []struct {
	label string
	n     int
}{{"eu", 3}, {"pos", 2}, {"IQ", 1}, {"CI", 1}, {"ID", 1}, {"intensity", 1}, {"fit", 1}}

// ReadAng reads a TSL ang file: '#' comment lines, then rows of Euler
// angles, position, image quality, confidence index, phase, intensity
// and fit, followed by any number of user defined columns.
func ReadAng(r io.Reader) (*Table, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 1<<20), 1<<26)
	t := New(0, "table ang import")
	var rows [][]float64
	body := false
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if !body && strings.HasPrefix(line, "#") {
			t.Comments = append(t.Comments, line)
			continue
		}
		body = true
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		row := make([]float64, len(fields))
		for i, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %q: %v", ErrFormat, line, err)
			}
			row[i] = v
		}
		if len(rows) > 0 && len(row) != len(rows[0]) {
			return nil, fmt.Errorf("%w: ragged rows", ErrFormat)
		}
		rows = append(rows, row)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no data", ErrFormat)
	}
	width := len(rows[0])
	if width < 10 {
		return nil, fmt.Errorf("%w: %d columns, an ang file has at least 10", ErrFormat, width)
	}
	var cols []*column
	for _, s := range angShapes {
		cols = append(cols, &column{label: s.label, shape: []int{s.n}})
	}
	for c := 0; c < width-10; c++ {
		cols = append(cols, &column{label: fmt.Sprintf("user_defined%d", c+1), shape: []int{1}})
	}
	for _, row := range rows {
		k := 0
		for _, c := range cols {
			n := c.size()
			c.data = append(c.data, row[k:k+n]...)
			k += n
		}
	}
	t.cols, t.rows = cols, len(rows)
	return t, nil
}
