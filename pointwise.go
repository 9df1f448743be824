/*
 * pointwise.go, part of godadf5.
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
	"errors"
	"fmt"

	"github.com/rmera/godadf5/store"
	"github.com/rmera/godadf5/tensor"
	"github.com/rmera/godadf5/workpool"
)

// Record is a dataset together with its label and metadata. Transforms
// receive one Record per input and return one Record.
type Record struct {
	Data  *tensor.Field
	Label string
	Meta  map[string]string
	DType store.DType // element type to store the result with, float64 if empty
}

// Unit returns the Unit metadata of the record.
func (R Record) Unit() string { return R.Meta["Unit"] }

// Description returns the Description metadata of the record.
func (R Record) Description() string { return R.Meta["Description"] }

// Input binds the dataset label to the argument name a transform
// expects it under.
type Input struct {
	Label string
	Arg   string
}

// Args are the extra arguments of a transform.
type Args map[string]any

// TransformFunc computes a derived record from the input records, keyed
// by argument name. It must not modify its inputs.
type TransformFunc func(in map[string]Record, args Args) (Record, error)

// outcome is what a worker hands back to the writer.
type outcome struct {
	group Location
	rec   Record
}

// Compute runs fn on every visible group that holds all the input
// labels and stores each result in the group it was computed from.
// Groups lacking an input are skipped. The inputs are read and fn runs
// on the worker pool; results are written one transaction each, in the
// order they complete, by the calling goroutine only. The first failure
// stops the scheduling of new groups and is returned once the running
// ones have finished. Results already written are kept.
func (r *Result) Compute(fn TransformFunc, inputs []Input, args Args) error {
	if len(inputs) == 0 {
		return fmt.Errorf("dadf5: Compute needs at least one input")
	}
	labels := make([]string, len(inputs))
	for i, in := range inputs {
		labels[i] = in.Label
	}
	groups, err := r.GroupsWithDatasets(labels...)
	if err != nil {
		return errDecorate(err, "Compute")
	}
	r.log.Debug("scheduling pointwise computation", "inputs", labels, "groups", len(groups), "workers", r.workers)
	if len(groups) == 0 {
		return nil
	}
	pool := workpool.New(r.workers)
	defer pool.Close()
	queue := workpool.NewCompletion[outcome](pool)
	next := 0
	feed := func() {
		if next >= len(groups) {
			return
		}
		g := groups[next]
		next++
		queue.Submit(func() (outcome, error) {
			rec, err := r.transform(fn, g, inputs, args)
			return outcome{group: g, rec: rec}, err
		})
	}
	// Keep one group queued beyond what the workers are running.
	for i := 0; i <= r.workers; i++ {
		feed()
	}
	for {
		fut, ok := queue.Next()
		if !ok {
			return nil
		}
		res, err := fut.Wait()
		if err == nil {
			err = r.persist(res.group, res.rec)
		}
		if err != nil {
			queue.Drain()
			return err
		}
		feed()
	}
}

// transform reads the inputs of group g and applies fn to them.
func (r *Result) transform(fn TransformFunc, g Location, inputs []Input, args Args) (rec Record, err error) {
	f, err := r.open(store.ReadOnly)
	if err != nil {
		return Record{}, err
	}
	in := make(map[string]Record, len(inputs))
	for _, i := range inputs {
		rec, err := readRecord(f, g.WithLabel(i.Label))
		if err != nil {
			f.Close()
			return Record{}, &TransformError{Group: g.Group(), Err: err}
		}
		in[i.Arg] = rec
	}
	f.Close()
	defer func() {
		if p := recover(); p != nil {
			err = &TransformError{Group: g.Group(), Err: fmt.Errorf("panic: %v", p)}
		}
	}()
	rec, err = fn(in, args)
	if err != nil {
		return Record{}, &TransformError{Group: g.Group(), Err: err}
	}
	if rec.Data == nil || rec.Label == "" {
		return Record{}, &TransformError{Group: g.Group(), Err: errors.New("transform returned no data or no label")}
	}
	return rec, nil
}

// readRecord loads the dataset at l with its Unit and Description.
func readRecord(f *store.File, l Location) (Record, error) {
	d, err := f.ReadDataset(l.Path())
	if err != nil {
		return Record{}, err
	}
	attrs, err := f.Attrs(l.Path())
	if err != nil {
		return Record{}, err
	}
	meta := make(map[string]string)
	for _, k := range attrs.Names() {
		if s, ok := attrs.String(k); ok {
			meta[k] = s
		}
	}
	return Record{
		Data:  &tensor.Field{Shape: d.Shape, Fields: d.Fields, Data: d.Data},
		Label: l.Label,
		Meta:  meta,
		DType: d.DType,
	}, nil
}

// persist writes rec into group g.
func (r *Result) persist(g Location, rec Record) error {
	f, err := r.open(store.ReadWrite)
	if err != nil {
		return err
	}
	defer f.Close()
	d := &store.Dataset{Shape: rec.Data.Shape, DType: rec.DType, Fields: rec.Data.Fields, Data: rec.Data.Data}
	attrs := make(store.Attrs, len(rec.Meta))
	for k, v := range rec.Meta {
		attrs[k] = v
	}
	l := g.WithLabel(rec.Label)
	if err := f.WriteDataset(l.Path(), d, attrs); err != nil {
		return &TransformError{Group: g.Group(), Err: err}
	}
	r.log.Info("stored derived dataset", "group", g.Group(), "label", rec.Label, "creator", rec.Meta["Creator"])
	return nil
}
