// Package table reads, edits and writes ASCII tables of labelled columns.
//
// A table file starts with a line "<N> header", followed by N-1 comment
// lines and one line of column labels. Scalars take one column named
// after their label. Vectors take one column per component, named
// "1_v", "2_v" and so on; higher rank data add their shape, as in
// "3x3:1_F" to "3x3:9_F". The remaining lines hold one row of values
// each, separated by blanks.
package table
