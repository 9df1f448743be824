/*
 * visible.go, part of godadf5.
 *
 *
 * Copyright 2026 Raul Mera <rauldotmeraatusachdotcl>
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
 *
 */

package dadf5

import (
	"fmt"
	"path"
	"slices"
	"strconv"
)

// Dimension is one of the filterable axes of a container.
type Dimension int

const (
	Increments Dimension = iota
	Constituents
	Materialpoints
	ConPhysics
	MatPhysics
)

var dimensionNames = [...]string{"increments", "constituents", "materialpoints", "con_physics", "mat_physics"}

func (d Dimension) String() string {
	if d < 0 || int(d) >= len(dimensionNames) {
		return fmt.Sprintf("Dimension(%d)", int(d))
	}
	return dimensionNames[d]
}

// ParseDimension returns the dimension with the given name, as printed by String.
func ParseDimension(s string) (Dimension, error) {
	for i, n := range dimensionNames {
		if n == s {
			return Dimension(i), nil
		}
	}
	return 0, fmt.Errorf("unknown dimension %q", s)
}

// Selector picks names out of the full list of a dimension. The zero
// Selector selects nothing.
type Selector struct {
	patterns []string
}

// All selects every name.
func All() Selector { return Selector{patterns: []string{"*"}} }

// None selects nothing.
func None() Selector { return Selector{} }

// Names selects the given names. Shell patterns (*, ? and [...]) are allowed.
func Names(patterns ...string) Selector {
	return Selector{patterns: append([]string(nil), patterns...)}
}

func (s Selector) String() string {
	return fmt.Sprint(s.patterns)
}

// match returns the names of full matched by s, in the order of full.
func (s Selector) match(full []string) ([]string, error) {
	out := []string{}
	for _, name := range full {
		for _, p := range s.patterns {
			ok, err := path.Match(p, name)
			if err != nil {
				return nil, fmt.Errorf("pattern %q: %w", p, err)
			}
			if ok {
				out = append(out, name)
				break
			}
		}
	}
	return out, nil
}

// visibility holds the current selection of every dimension.
type visibility struct {
	increments     []string
	constituents   []string
	materialpoints []string
	conPhysics     []string
	matPhysics     []string
}

func (v *visibility) get(d Dimension) *[]string {
	switch d {
	case Increments:
		return &v.increments
	case Constituents:
		return &v.constituents
	case Materialpoints:
		return &v.materialpoints
	case ConPhysics:
		return &v.conPhysics
	case MatPhysics:
		return &v.matPhysics
	}
	panic(fmt.Sprintf("dadf5: invalid dimension %d", int(d)))
}

// Full returns the complete list of names of dimension d.
func (r *Result) Full(d Dimension) []string {
	var full []string
	switch d {
	case Increments:
		full = r.Increments
	case Constituents:
		full = r.Constituents
	case Materialpoints:
		full = r.Materialpoints
	case ConPhysics:
		full = r.ConPhysics
	case MatPhysics:
		full = r.MatPhysics
	default:
		panic(fmt.Sprintf("dadf5: invalid dimension %d", int(d)))
	}
	return clone(full)
}

// Visible returns the currently selected names of dimension d.
func (r *Result) Visible(d Dimension) []string {
	return clone(*r.visible.get(d))
}

type action int

const (
	actionSet action = iota
	actionAdd
	actionDel
)

// manage combines the names s picks from the full list with the current
// selection. The result keeps the order of the full list.
func (r *Result) manage(d Dimension, s Selector, a action) error {
	full := r.Full(d)
	picked, err := s.match(full)
	if err != nil {
		return err
	}
	vis := r.visible.get(d)
	switch a {
	case actionSet:
		*vis = picked
	case actionAdd:
		out := []string{}
		for _, n := range full {
			if slices.Contains(*vis, n) || slices.Contains(picked, n) {
				out = append(out, n)
			}
		}
		*vis = out
	case actionDel:
		out := []string{}
		for _, n := range full {
			if slices.Contains(*vis, n) && !slices.Contains(picked, n) {
				out = append(out, n)
			}
		}
		*vis = out
	}
	return nil
}

// SetVisible replaces the selection of d with the names s picks.
func (r *Result) SetVisible(d Dimension, s Selector) error {
	return r.manage(d, s, actionSet)
}

// AddVisible adds the names s picks to the selection of d.
func (r *Result) AddVisible(d Dimension, s Selector) error {
	return r.manage(d, s, actionAdd)
}

// DelVisible removes the names s picks from the selection of d.
func (r *Result) DelVisible(d Dimension, s Selector) error {
	return r.manage(d, s, actionDel)
}

// IterVisible calls fn once for every visible name of d, with the
// selection of d narrowed to that single name during the call. The
// original selection is restored when IterVisible returns. If fn (or
// anything it calls) changes the selection of d, the iteration stops
// with a *ConsistencyError. An error returned by fn stops the
// iteration and is returned as is.
func (r *Result) IterVisible(d Dimension, fn func(name string) error) error {
	vis := r.visible.get(d)
	orig := clone(*vis)
	defer func() { *vis = orig }()
	for _, name := range orig {
		want := []string{name}
		*vis = clone(want)
		if err := fn(name); err != nil {
			return err
		}
		if !slices.Equal(*vis, want) {
			return &ConsistencyError{Dimension: d, Expected: want, Found: clone(*vis)}
		}
	}
	return nil
}

func (r *Result) timeToInc(start, end float64) []string {
	var out []string
	for i, t := range r.Times {
		if start <= t && t <= end {
			out = append(out, r.Increments[i])
		}
	}
	return out
}

// SetByTime selects the increments with start <= time <= end.
func (r *Result) SetByTime(start, end float64) error {
	return r.manage(Increments, Names(r.timeToInc(start, end)...), actionSet)
}

// AddByTime adds the increments with start <= time <= end to the selection.
func (r *Result) AddByTime(start, end float64) error {
	return r.manage(Increments, Names(r.timeToInc(start, end)...), actionAdd)
}

// DelByTime removes the increments with start <= time <= end from the selection.
func (r *Result) DelByTime(start, end float64) error {
	return r.manage(Increments, Names(r.timeToInc(start, end)...), actionDel)
}

// incName formats increment n with the naming convention of the
// container version: plain numbers from minor version 4 on, 5 digit
// zero-padded before.
func (r *Result) incName(n int) string {
	if r.VersionMinor >= 4 {
		return fmt.Sprintf("inc%d", n)
	}
	return fmt.Sprintf("inc%05d", n)
}

// IncrementName returns the name of increment number n in this
// container, trying the plain form first and the zero-padded form next.
// If neither exists, the form the container version would use is returned.
func (r *Result) IncrementName(n int) (string, bool) {
	for _, name := range []string{fmt.Sprintf("inc%d", n), fmt.Sprintf("inc%05d", n)} {
		if slices.Contains(r.Increments, name) {
			return name, true
		}
	}
	return r.incName(n), false
}

// incRange selects the increments numbered start to end that follow
// the naming convention of the container version.
func (r *Result) incRange(start, end int) Selector {
	var names []string
	for _, inc := range r.Increments {
		m := incrementRE.FindStringSubmatch(inc)
		n, err := strconv.Atoi(m[1])
		if err != nil || n < start || n > end {
			continue
		}
		if inc == r.incName(n) {
			names = append(names, inc)
		}
	}
	return Names(names...)
}

// SetByIncrement selects increments start to end, both included.
func (r *Result) SetByIncrement(start, end int) error {
	return r.manage(Increments, r.incRange(start, end), actionSet)
}

// AddByIncrement adds increments start to end to the selection.
func (r *Result) AddByIncrement(start, end int) error {
	return r.manage(Increments, r.incRange(start, end), actionAdd)
}

// DelByIncrement removes increments start to end from the selection.
func (r *Result) DelByIncrement(start, end int) error {
	return r.manage(Increments, r.incRange(start, end), actionDel)
}

// hide empties the selection of d and returns a function restoring it.
func (r *Result) hide(d Dimension) (restore func()) {
	vis := r.visible.get(d)
	orig := clone(*vis)
	*vis = []string{}
	return func() { *vis = orig }
}
