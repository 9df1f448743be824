package store

import (
	"bytes"
	"fmt"

	"github.com/zeebo/blake3"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// Mapping is a Rows x Cols table of (Name, Position) pairs, stored row
// major. Row i, column c tells which named group holds the data of
// point i for slot c, and at which row of that group's datasets.
type Mapping struct {
	Rows      int      `cbor:"1,keyasint"`
	Cols      int      `cbor:"2,keyasint"`
	Names     []string `cbor:"3,keyasint"`
	Positions []int64  `cbor:"4,keyasint"`
}

// NewMapping returns an empty rows x cols mapping.
func NewMapping(rows, cols int) *Mapping {
	return &Mapping{
		Rows:      rows,
		Cols:      cols,
		Names:     make([]string, rows*cols),
		Positions: make([]int64, rows*cols),
	}
}

// At returns the entry for point i and slot c.
func (m *Mapping) At(i, c int) (string, int) {
	k := i*m.Cols + c
	return m.Names[k], int(m.Positions[k])
}

// Set sets the entry for point i and slot c.
func (m *Mapping) Set(i, c int, name string, position int) {
	k := i*m.Cols + c
	m.Names[k] = name
	m.Positions[k] = int64(position)
}

// UniqueNames returns the distinct names in the mapping, in order of
// first appearance. Empty names mark unmapped entries and are skipped.
func (m *Mapping) UniqueNames() []string {
	seen := make(map[string]bool)
	var out []string
	for _, n := range m.Names {
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

func (m *Mapping) check() error {
	if m.Rows < 0 || m.Cols < 0 {
		return errorf("mapping of negative size %dx%d", m.Rows, m.Cols)
	}
	if len(m.Names) != m.Rows*m.Cols || len(m.Positions) != m.Rows*m.Cols {
		return errorf("mapping %dx%d holds %d names and %d positions", m.Rows, m.Cols, len(m.Names), len(m.Positions))
	}
	return nil
}

// WriteMapping stores m at p. Like datasets, mappings are never overwritten.
func (f *File) WriteMapping(p string, m *Mapping) (err error) {
	if err := f.writable(); err != nil {
		return err
	}
	p = clean(p)
	if err := m.check(); err != nil {
		return fmt.Errorf("%s: %w", p, err)
	}
	payload, err := marshal(m)
	if err != nil {
		return errorf("%s: %w", p, err)
	}
	sum := blake3.Sum256(payload)
	shape, err := marshal([]int{m.Rows, m.Cols})
	if err != nil {
		return errorf("%s: %w", p, err)
	}

	end, err := sqlitex.ImmediateTransaction(f.conn)
	if err != nil {
		return errorf("begin transaction: %w", err)
	}
	defer end(&err)

	if _, err := f.kind(p); err == nil {
		return fmt.Errorf("%s: %w", p, ErrExist)
	}
	parent, name := split(p)
	if err := f.ensureGroup(parent); err != nil {
		return err
	}
	err = sqlitex.Execute(f.conn, `INSERT INTO node (path, parent, name, kind, shape, codec, raw_size, checksum, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`, &sqlitex.ExecOptions{
		Args: []any{p, parent, name, kindMapping, shape, int(codecNone), len(payload), sum[:], payload},
	})
	if err != nil {
		return errorf("write mapping %s: %w", p, err)
	}
	return nil
}

// ReadMapping reads the mapping at p.
func (f *File) ReadMapping(p string) (*Mapping, error) {
	p = clean(p)
	var m *Mapping
	err := sqlitex.Execute(f.conn, "SELECT checksum, payload FROM node WHERE path = ? AND kind = ?", &sqlitex.ExecOptions{
		Args: []any{p, kindMapping},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			payload := columnBlob(stmt, 1)
			sum := blake3.Sum256(payload)
			if !bytes.Equal(sum[:], columnBlob(stmt, 0)) {
				return fmt.Errorf("%s: %w", p, ErrChecksum)
			}
			m = new(Mapping)
			if err := unmarshal(payload, m); err != nil {
				return errorf("mapping %s: %w", p, err)
			}
			return nil
		},
	})
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("%s: %w", p, ErrNotExist)
	}
	if m.Names == nil {
		m.Names = []string{}
		m.Positions = []int64{}
	}
	if err := m.check(); err != nil {
		return nil, fmt.Errorf("%s: %w", p, err)
	}
	return m, nil
}
