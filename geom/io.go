package geom

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// keyValues reads "key a 1 b 2 c 3" style header entries.
func keyValues(items []string, keys string) ([3]float64, error) {
	var out [3]float64
	m := make(map[string]string)
	for i := 1; i+1 < len(items); i += 2 {
		m[items[i]] = items[i+1]
	}
	for i, k := range strings.Split(keys, "") {
		s, ok := m[k]
		if !ok {
			return out, fmt.Errorf("%w: %s lacks %q", ErrFormat, items[0], k)
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return out, fmt.Errorf("%w: %s %s: %v", ErrFormat, items[0], k, err)
		}
		out[i] = v
	}
	return out, nil
}

func atoi(s string) (int, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	if v != math.Trunc(v) {
		return 0, fmt.Errorf("%w: non-integer microstructure %s", ErrFormat, s)
	}
	return int(v), nil
}

// Read parses a geometry file. The body may list one index per cell or
// use the packed forms "<n> of <v>" and "<a> to <b>".
func Read(r io.Reader) (*Geom, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 1<<20), 1<<26)
	if !sc.Scan() {
		return nil, fmt.Errorf("%w: empty input", ErrFormat)
	}
	first := strings.Fields(sc.Text())
	if len(first) < 2 || !strings.HasPrefix(first[1], "head") {
		return nil, fmt.Errorf("%w: header length information missing", ErrFormat)
	}
	nhead, err := strconv.Atoi(first[0])
	if err != nil || nhead < 3 {
		return nil, fmt.Errorf("%w: invalid header length %q", ErrFormat, first[0])
	}
	G := &Geom{Homogenization: 1}
	var gotGrid, gotSize bool
	for i := 0; i < nhead; i++ {
		if !sc.Scan() {
			return nil, fmt.Errorf("%w: header ends early", ErrFormat)
		}
		line := sc.Text()
		items := strings.Fields(strings.ToLower(line))
		key := ""
		if len(items) > 0 {
			key = items[0]
		}
		switch key {
		case "grid":
			g, err := keyValues(items, "abc")
			if err != nil {
				return nil, err
			}
			for d := range g {
				G.Grid[d] = int(g[d])
				if G.Grid[d] < 1 {
					return nil, fmt.Errorf("%w: grid %v", ErrFormat, g)
				}
			}
			gotGrid = true
		case "size":
			if G.Size, err = keyValues(items, "xyz"); err != nil {
				return nil, err
			}
			gotSize = true
		case "origin":
			if G.Origin, err = keyValues(items, "xyz"); err != nil {
				return nil, err
			}
		case "homogenization":
			if len(items) < 2 {
				return nil, fmt.Errorf("%w: homogenization without value", ErrFormat)
			}
			if G.Homogenization, err = strconv.Atoi(items[1]); err != nil {
				return nil, fmt.Errorf("%w: homogenization: %v", ErrFormat, err)
			}
		default:
			G.Comments = append(G.Comments, strings.TrimSpace(line))
		}
	}
	if !gotGrid || !gotSize {
		return nil, fmt.Errorf("%w: grid and size are required", ErrFormat)
	}
	n := G.Cells()
	G.Microstructure = make([]int, 0, n)
	for sc.Scan() {
		items := strings.Fields(sc.Text())
		if len(items) == 3 && (strings.EqualFold(items[1], "of") || strings.EqualFold(items[1], "to")) {
			a, err := atoi(items[0])
			if err != nil {
				return nil, err
			}
			b, err := atoi(items[2])
			if err != nil {
				return nil, err
			}
			if strings.EqualFold(items[1], "of") {
				if len(G.Microstructure)+a > n {
					return nil, fmt.Errorf("%w: more than %d entries", ErrFormat, n)
				}
				for range a {
					G.Microstructure = append(G.Microstructure, b)
				}
				continue
			}
			step := 1
			if b < a {
				step = -1
			}
			for v := a; ; v += step {
				G.Microstructure = append(G.Microstructure, v)
				if v == b {
					break
				}
			}
			continue
		}
		for _, it := range items {
			v, err := atoi(it)
			if err != nil {
				return nil, err
			}
			G.Microstructure = append(G.Microstructure, v)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(G.Microstructure) != n {
		return nil, fmt.Errorf("%w: expected %d entries, found %d", ErrFormat, n, len(G.Microstructure))
	}
	return G, nil
}

// Packing selects the body format of Write.
type Packing int

const (
	Auto   Packing = iota // pack unless there are few cells per microstructure
	Plain                 // one index per cell, one grid row per line
	Packed                // "n of v" and "a to b" runs
)

// Write writes the geometry file.
func (G *Geom) Write(w io.Writer, p Packing) error {
	if err := G.check(); err != nil {
		return err
	}
	if p == Auto {
		p = Packed
		if G.Cells()/len(G.Unique()) < 250 {
			p = Plain
		}
	}
	bw := bufio.NewWriter(w)
	for _, h := range G.Header() {
		fmt.Fprintln(bw, h)
	}
	if p == Plain {
		G.writePlain(bw)
	} else {
		G.writePacked(bw)
	}
	return bw.Flush()
}

func (G *Geom) writePlain(w io.Writer) {
	width := 1
	for _, m := range G.Microstructure {
		width = max(width, len(strconv.Itoa(m)))
	}
	row := G.Grid[0]
	for start := 0; start < len(G.Microstructure); start += row {
		for i, m := range G.Microstructure[start : start+row] {
			if i > 0 {
				fmt.Fprint(w, " ")
			}
			fmt.Fprintf(w, "%*d", width, m)
		}
		fmt.Fprintln(w)
	}
}

// writePacked collapses runs of equal values into "n of v" and runs of
// consecutive values into "a to b".
func (G *Geom) writePacked(w io.Writer) {
	const (
		single = iota
		to
		of
	)
	kind := -1
	former, start, reps := 0, 0, 0
	flush := func() {
		switch kind {
		case single:
			fmt.Fprintf(w, "%d\n", former)
		case to:
			fmt.Fprintf(w, "%d to %d\n", start, former)
		case of:
			fmt.Fprintf(w, "%d of %d\n", reps, former)
		}
	}
	for i, current := range G.Microstructure {
		d := current - former
		switch {
		case i > 0 && (d == 1 || d == -1) && start-current == reps*(former-current):
			kind = to
			reps++
		case i > 0 && current == former && start == former:
			kind = of
			reps++
		default:
			flush()
			kind, start, reps = single, current, 1
		}
		former = current
	}
	flush()
}
