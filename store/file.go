/*
 * file.go, part of godadf5.
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
	"errors"
	"fmt"
	"os"
	"path"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

var (
	// ErrNotExist is returned when a path is not present in the container.
	ErrNotExist = errors.New("store: no such node")
	// ErrExist is returned when a dataset would overwrite an existing node.
	ErrExist = errors.New("store: node already exists")
	// ErrReadOnly is returned by write operations on a read-only File.
	ErrReadOnly = errors.New("store: container opened read-only")
	// ErrChecksum is returned when a payload does not match its stored checksum.
	ErrChecksum = errors.New("store: payload checksum mismatch")
)

func errorf(format string, a ...any) error {
	return fmt.Errorf("store: "+format, a...)
}

// Mode selects how Open accesses an existing container.
type Mode int

const (
	ReadOnly Mode = iota
	ReadWrite
)

// node kinds
const (
	kindGroup   = 0
	kindDataset = 1
	kindMapping = 2
)

const schema = `
CREATE TABLE IF NOT EXISTS node (
	path     TEXT PRIMARY KEY,
	parent   TEXT NOT NULL,
	name     TEXT NOT NULL,
	kind     INTEGER NOT NULL,
	dtype    TEXT,
	shape    BLOB,
	fields   BLOB,
	codec    INTEGER NOT NULL DEFAULT 0,
	raw_size INTEGER NOT NULL DEFAULT 0,
	checksum BLOB,
	payload  BLOB
);
CREATE INDEX IF NOT EXISTS node_parent ON node(parent, name);
CREATE TABLE IF NOT EXISTS attr (
	path  TEXT NOT NULL,
	name  TEXT NOT NULL,
	value BLOB NOT NULL,
	PRIMARY KEY (path, name)
);
INSERT OR IGNORE INTO node (path, parent, name, kind) VALUES ('/', '', '', 0);
`

// File is one open connection to a container. A File is not safe for
// concurrent use; open one File per goroutine instead.
type File struct {
	conn     *sqlite.Conn
	name     string
	readOnly bool
}

// Create makes a new, empty container at name, truncating any existing file.
func Create(name string) (*File, error) {
	for _, suffix := range []string{"", "-wal", "-shm"} {
		if err := os.Remove(name + suffix); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, errorf("create %s: %w", name, err)
		}
	}
	conn, err := sqlite.OpenConn(name, sqlite.OpenReadWrite, sqlite.OpenCreate, sqlite.OpenWAL)
	if err != nil {
		return nil, errorf("create %s: %w", name, err)
	}
	f := &File{conn: conn, name: name}
	if err := f.prepare(); err != nil {
		conn.Close()
		return nil, err
	}
	if err := sqlitex.ExecuteScript(conn, schema, nil); err != nil {
		conn.Close()
		return nil, errorf("create %s: schema: %w", name, err)
	}
	return f, nil
}

// Open opens an existing container.
func Open(name string, mode Mode) (*File, error) {
	if _, err := os.Stat(name); err != nil {
		return nil, errorf("open %s: %w", name, err)
	}
	flags := []sqlite.OpenFlags{sqlite.OpenReadOnly}
	if mode == ReadWrite {
		flags = []sqlite.OpenFlags{sqlite.OpenReadWrite, sqlite.OpenWAL}
	}
	conn, err := sqlite.OpenConn(name, flags...)
	if err != nil {
		return nil, errorf("open %s: %w", name, err)
	}
	f := &File{conn: conn, name: name, readOnly: mode == ReadOnly}
	if err := f.prepare(); err != nil {
		conn.Close()
		return nil, err
	}
	var tables int
	err = sqlitex.Execute(conn, "SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name IN ('node', 'attr')", &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			tables = stmt.ColumnInt(0)
			return nil
		},
	})
	if err != nil {
		conn.Close()
		return nil, errorf("open %s: %w", name, err)
	}
	if tables != 2 {
		conn.Close()
		return nil, errorf("open %s: not a result container", name)
	}
	return f, nil
}

// prepare applies the connection pragmas. Journal settings are only
// touched on writable connections.
func (f *File) prepare() error {
	pragmas := []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=OFF",
		"PRAGMA cache_size=-8192",
		"PRAGMA mmap_size=268435456",
		"PRAGMA temp_store=MEMORY",
	}
	if !f.readOnly {
		pragmas = append([]string{"PRAGMA journal_mode=WAL", "PRAGMA synchronous=NORMAL"}, pragmas...)
	}
	for _, pragma := range pragmas {
		if err := sqlitex.ExecuteTransient(f.conn, pragma, nil); err != nil {
			return errorf("%s: %w", pragma, err)
		}
	}
	return nil
}

// Name returns the file name the container was opened with.
func (f *File) Name() string {
	return f.name
}

// Close releases the connection.
func (f *File) Close() error {
	if f.conn == nil {
		return nil
	}
	err := f.conn.Close()
	f.conn = nil
	if err != nil {
		return errorf("close %s: %w", f.name, err)
	}
	return nil
}

// clean normalizes a container path to its absolute form.
func clean(p string) string {
	return path.Clean("/" + p)
}

func split(p string) (parent, name string) {
	if p == "/" {
		return "", ""
	}
	parent, name = path.Split(p)
	return path.Clean(parent), name
}

func (f *File) writable() error {
	if f.readOnly {
		return ErrReadOnly
	}
	return nil
}

// kind returns the kind of the node at p, or ErrNotExist.
func (f *File) kind(p string) (int, error) {
	kind := -1
	err := sqlitex.Execute(f.conn, "SELECT kind FROM node WHERE path = ?", &sqlitex.ExecOptions{
		Args: []any{p},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			kind = stmt.ColumnInt(0)
			return nil
		},
	})
	if err != nil {
		return -1, errorf("%s: %w", p, err)
	}
	if kind < 0 {
		return -1, fmt.Errorf("%s: %w", p, ErrNotExist)
	}
	return kind, nil
}

// Exists reports whether a group, dataset or mapping lives at p.
func (f *File) Exists(p string) bool {
	_, err := f.kind(clean(p))
	return err == nil
}

// IsGroup reports whether p names a group.
func (f *File) IsGroup(p string) bool {
	k, err := f.kind(clean(p))
	return err == nil && k == kindGroup
}

// IsDataset reports whether p names a dataset.
func (f *File) IsDataset(p string) bool {
	k, err := f.kind(clean(p))
	return err == nil && k == kindDataset
}

// Keys returns the sorted names of the children of the group at p.
func (f *File) Keys(p string) ([]string, error) {
	p = clean(p)
	k, err := f.kind(p)
	if err != nil {
		return nil, err
	}
	if k != kindGroup {
		return nil, errorf("%s is not a group", p)
	}
	var keys []string
	err = sqlitex.Execute(f.conn, "SELECT name FROM node WHERE parent = ? ORDER BY name", &sqlitex.ExecOptions{
		Args: []any{p},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			keys = append(keys, stmt.ColumnText(0))
			return nil
		},
	})
	if err != nil {
		return nil, errorf("keys %s: %w", p, err)
	}
	return keys, nil
}

// CreateGroup creates the group at p and any missing parents. Creating
// an existing group is not an error.
func (f *File) CreateGroup(p string) (err error) {
	if err := f.writable(); err != nil {
		return err
	}
	end, err := sqlitex.ImmediateTransaction(f.conn)
	if err != nil {
		return errorf("begin transaction: %w", err)
	}
	defer end(&err)
	return f.ensureGroup(clean(p))
}

// ensureGroup must run inside a transaction.
func (f *File) ensureGroup(p string) error {
	if p == "/" {
		return nil
	}
	k, err := f.kind(p)
	if err == nil {
		if k != kindGroup {
			return errorf("%s exists and is not a group", p)
		}
		return nil
	}
	if !errors.Is(err, ErrNotExist) {
		return err
	}
	parent, name := split(p)
	if err := f.ensureGroup(parent); err != nil {
		return err
	}
	err = sqlitex.Execute(f.conn, "INSERT INTO node (path, parent, name, kind) VALUES (?, ?, ?, ?)", &sqlitex.ExecOptions{
		Args: []any{p, parent, name, kindGroup},
	})
	if err != nil {
		return errorf("create group %s: %w", p, err)
	}
	return nil
}
