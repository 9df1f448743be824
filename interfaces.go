/*
 * interfaces.go, part of godadf5.
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

import "github.com/rmera/godadf5/tensor"

// FieldSource is anything that can resolve a dataset label to its
// locations and gather them into one point-ordered array. *Result
// implements it; exporters only need this much.
type FieldSource interface {
	//Locate returns every visible location holding a dataset named label.
	Locate(label string) ([]Location, error)

	//Gather merges the datasets at locs into one array with a row per point.
	Gather(locs []Location, opts GatherOptions) (*tensor.Field, error)
}

//Errors

// Error is the interface for errors that all packages in this library implement. The Decorate method allows to add and retrieve info from the
// error, without changing its type or wrapping it around something else.
type Error interface {
	Error() string
	Decorate(string) []string //Adds the given string (normally the name of the calling function) to the error, and returns the resulting slice. If passed an empty string, it just returns the current value.
	Critical() bool
}

// ContainerError is an error tied to a given result container.
type ContainerError interface {
	Error
	FileName() string
}
