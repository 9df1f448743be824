// Package mech implements pointwise continuum mechanics formulas over
// tensor fields: invariants, decompositions, stress measures and strains.
// Every function works on whole fields, one element per point, and
// leaves its arguments untouched.
package mech
