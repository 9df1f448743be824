package store

import (
	"fmt"
	"sort"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// Attrs holds the attributes of one node. Values are string, int64,
// float64, []int64 or []float64 once read back from a container; any
// integer or float kind is accepted on write.
type Attrs map[string]any

// Has reports whether the attribute is present.
func (a Attrs) Has(name string) bool {
	_, ok := a[name]
	return ok
}

// Names returns the attribute names, sorted.
func (a Attrs) Names() []string {
	names := make([]string, 0, len(a))
	for k := range a {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// String returns the attribute as a string. Numeric attributes are formatted.
func (a Attrs) String(name string) (string, bool) {
	v, ok := a[name]
	if !ok {
		return "", false
	}
	if s, ok := v.(string); ok {
		return s, true
	}
	return fmt.Sprint(v), true
}

// Int returns a scalar integer attribute.
func (a Attrs) Int(name string) (int64, bool) {
	switch t := a[name].(type) {
	case int64:
		return t, true
	case int:
		return int64(t), true
	case int32:
		return int64(t), true
	case []int64:
		if len(t) == 1 {
			return t[0], true
		}
	}
	return 0, false
}

// Float returns a scalar numeric attribute as float64.
func (a Attrs) Float(name string) (float64, bool) {
	switch t := a[name].(type) {
	case float64:
		return t, true
	case []float64:
		if len(t) == 1 {
			return t[0], true
		}
	}
	if i, ok := a.Int(name); ok {
		return float64(i), true
	}
	return 0, false
}

// Ints returns an integer array attribute.
func (a Attrs) Ints(name string) ([]int64, bool) {
	switch t := a[name].(type) {
	case []int64:
		return t, true
	case []int:
		out := make([]int64, len(t))
		for i, v := range t {
			out[i] = int64(v)
		}
		return out, true
	}
	if i, ok := a.Int(name); ok {
		return []int64{i}, true
	}
	return nil, false
}

// Floats returns a numeric array attribute as float64 values.
func (a Attrs) Floats(name string) ([]float64, bool) {
	switch t := a[name].(type) {
	case []float64:
		return t, true
	case float64:
		return []float64{t}, true
	}
	ints, ok := a.Ints(name)
	if !ok {
		return nil, false
	}
	out := make([]float64, len(ints))
	for i, v := range ints {
		out[i] = float64(v)
	}
	return out, true
}

// SetAttr sets one attribute on the node at p, replacing a previous value.
func (f *File) SetAttr(p, name string, value any) (err error) {
	if err := f.writable(); err != nil {
		return err
	}
	p = clean(p)
	if _, err := f.kind(p); err != nil {
		return err
	}
	end, err := sqlitex.ImmediateTransaction(f.conn)
	if err != nil {
		return errorf("begin transaction: %w", err)
	}
	defer end(&err)
	return f.putAttr(p, name, value)
}

func (f *File) putAttr(p, name string, value any) error {
	b, err := encodeAttr(value)
	if err != nil {
		return errorf("attribute %s of %s: %w", name, p, err)
	}
	err = sqlitex.Execute(f.conn, "INSERT OR REPLACE INTO attr (path, name, value) VALUES (?, ?, ?)", &sqlitex.ExecOptions{
		Args: []any{p, name, b},
	})
	if err != nil {
		return errorf("attribute %s of %s: %w", name, p, err)
	}
	return nil
}

// Attrs returns every attribute of the node at p.
func (f *File) Attrs(p string) (Attrs, error) {
	p = clean(p)
	if _, err := f.kind(p); err != nil {
		return nil, err
	}
	attrs := make(Attrs)
	err := sqlitex.Execute(f.conn, "SELECT name, value FROM attr WHERE path = ?", &sqlitex.ExecOptions{
		Args: []any{p},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			b := make([]byte, stmt.ColumnLen(1))
			stmt.ColumnBytes(1, b)
			v, err := decodeAttr(b)
			if err != nil {
				return errorf("attribute %s of %s: %w", stmt.ColumnText(0), p, err)
			}
			attrs[stmt.ColumnText(0)] = v
			return nil
		},
	})
	if err != nil {
		return nil, err
	}
	return attrs, nil
}
