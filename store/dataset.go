/*
 * dataset.go, part of godadf5.
 *
 *
 * Copyright 2026 Raul Mera <rauldotmeraatusachdotcl>
 *
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package store

import (
	"bytes"
	"fmt"

	"github.com/zeebo/blake3"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// DType is the element type a dataset was written with. Values are held
// as float64 in memory whatever the DType; it only records intent.
type DType string

const (
	Float64 DType = "float64"
	Int64   DType = "int64"
	Uint8   DType = "uint8"
)

// Dataset is an N-dimensional array. When Fields is not empty the
// element type is compound and every element holds len(Fields) values,
// laid out after the last dimension of Shape.
type Dataset struct {
	Shape  []int
	DType  DType
	Fields []string
	Data   []float64
}

// Len returns the number of values the shape and fields call for.
func (d *Dataset) Len() int {
	n := 1
	for _, s := range d.Shape {
		n *= s
	}
	if len(d.Fields) > 0 {
		n *= len(d.Fields)
	}
	return n
}

func (d *Dataset) check() error {
	for _, s := range d.Shape {
		if s < 0 {
			return errorf("negative dimension in shape %v", d.Shape)
		}
	}
	if d.Len() != len(d.Data) {
		return errorf("shape %v with %d fields needs %d values, got %d", d.Shape, len(d.Fields), d.Len(), len(d.Data))
	}
	switch d.DType {
	case Float64, Int64, Uint8:
	case "":
		d.DType = Float64
	default:
		return errorf("unsupported dtype %q", d.DType)
	}
	return nil
}

// Info describes a dataset without its payload.
type Info struct {
	Shape  []int
	DType  DType
	Fields []string
	Codec  string
	Size   int
}

// WriteDataset stores d at p together with attrs, creating missing
// parent groups. The whole write is one transaction. Writing to an
// existing path fails with ErrExist.
func (f *File) WriteDataset(p string, d *Dataset, attrs Attrs) (err error) {
	if err := f.writable(); err != nil {
		return err
	}
	p = clean(p)
	if p == "/" {
		return errorf("cannot write a dataset at the root")
	}
	if err := d.check(); err != nil {
		return fmt.Errorf("%s: %w", p, err)
	}
	shape, err := marshal(d.Shape)
	if err != nil {
		return errorf("%s: shape: %w", p, err)
	}
	var fields []byte
	if len(d.Fields) > 0 {
		if fields, err = marshal(d.Fields); err != nil {
			return errorf("%s: fields: %w", p, err)
		}
	}
	raw := floatsToBytes(d.Data)
	sum := blake3.Sum256(raw)
	payload, c, err := compress(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", p, err)
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
	err = sqlitex.Execute(f.conn, `INSERT INTO node (path, parent, name, kind, dtype, shape, fields, codec, raw_size, checksum, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, &sqlitex.ExecOptions{
		Args: []any{p, parent, name, kindDataset, string(d.DType), shape, fields, int(c), len(raw), sum[:], payload},
	})
	if err != nil {
		return errorf("write %s: %w", p, err)
	}
	for _, k := range attrs.Names() {
		if err := f.putAttr(p, k, attrs[k]); err != nil {
			return err
		}
	}
	return nil
}

func (f *File) info(p string, kind int, withPayload bool) (*Info, []float64, error) {
	var (
		info    *Info
		data    []float64
		scanErr error
	)
	query := "SELECT dtype, shape, fields, codec, raw_size, checksum FROM node WHERE path = ? AND kind = ?"
	if withPayload {
		query = "SELECT dtype, shape, fields, codec, raw_size, checksum, payload FROM node WHERE path = ? AND kind = ?"
	}
	err := sqlitex.Execute(f.conn, query, &sqlitex.ExecOptions{
		Args: []any{p, kind},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			info = &Info{DType: DType(stmt.ColumnText(0)), Codec: codec(stmt.ColumnInt(3)).String(), Size: stmt.ColumnInt(4)}
			if err := unmarshal(columnBlob(stmt, 1), &info.Shape); err != nil {
				return errorf("%s: shape: %w", p, err)
			}
			if stmt.ColumnLen(2) > 0 {
				if err := unmarshal(columnBlob(stmt, 2), &info.Fields); err != nil {
					return errorf("%s: fields: %w", p, err)
				}
			}
			if !withPayload {
				return nil
			}
			raw, err := decompress(columnBlob(stmt, 6), codec(stmt.ColumnInt(3)), info.Size)
			if err != nil {
				return fmt.Errorf("%s: %w", p, err)
			}
			sum := blake3.Sum256(raw)
			if !bytes.Equal(sum[:], columnBlob(stmt, 5)) {
				return fmt.Errorf("%s: %w", p, ErrChecksum)
			}
			data, scanErr = bytesToFloats(raw)
			return scanErr
		},
	})
	if err != nil {
		return nil, nil, err
	}
	if info == nil {
		return nil, nil, fmt.Errorf("%s: %w", p, ErrNotExist)
	}
	return info, data, nil
}

// DatasetInfo returns the layout of the dataset at p without reading it.
func (f *File) DatasetInfo(p string) (*Info, error) {
	info, _, err := f.info(clean(p), kindDataset, false)
	return info, err
}

// ReadDataset reads the dataset at p and verifies its checksum.
func (f *File) ReadDataset(p string) (*Dataset, error) {
	info, data, err := f.info(clean(p), kindDataset, true)
	if err != nil {
		return nil, err
	}
	return &Dataset{Shape: info.Shape, DType: info.DType, Fields: info.Fields, Data: data}, nil
}

// columnBlob copies a BLOB column out of the statement.
func columnBlob(stmt *sqlite.Stmt, col int) []byte {
	b := make([]byte, stmt.ColumnLen(col))
	stmt.ColumnBytes(col, b)
	return b
}
