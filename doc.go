/*
 * doc.go, part of godadf5.
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
 */

/*
Package dadf5 reads the result containers written by crystal plasticity
solvers, adds derived fields to them and exports their contents.

A container holds, for every increment of a simulation, the fields
computed for each constituent (a phase) and each material point (a
homogenization), grouped by physics, plus a static geometry and two
mapping tables telling which row of which group belongs to each
material point.

	increment / constituent   / <name> / <physics> / <label>
	          / materialpoint / <name> / <physics> / <label>
	          / geometry      / <label>

# Capabilities

Opens containers of layout versions 0.2 to 0.6, with either increment
naming convention.

Selects the visible increments, constituents, material points and
physics groups with shell patterns, time windows or increment ranges.
Every lookup honours the current selection.

Locates datasets by label and gathers them into one array with a row
per material point, NaN where a point has no data.

Adds derived datasets with a bounded worker pool: stress and strain
measures, invariants, norms, eigen decompositions, inverse pole figure
colors, stereographic poles and free formulas over other datasets.
See Transforms for the full list.

Exports the visible data to VTK XML files (cell or point data) and to
ASCII tables.

The supporting packages do the rest: store is the container itself,
tensor and mech the numerics, rotation the orientation math, expr the
formula language, vtk, table and geom the file formats around the
solver, histo and mechplot the distributions, config the job files.

Container handles are not safe for concurrent use: the selection is
state shared by every method. Open one Result per goroutine.
*/
package dadf5
