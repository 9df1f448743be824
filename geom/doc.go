// Package geom reads and writes voxel geometry files and converts them
// to VTK rectilinear grids.
//
// A geometry file starts with "<N> header" and N header lines carrying
// the grid ("grid a 16 b 16 c 16"), the physical size, the origin, the
// homogenization index and free comments. The body lists one
// microstructure index per cell with x running fastest, either plainly
// or packed as "<n> of <v>" and "<a> to <b>" runs.
package geom
