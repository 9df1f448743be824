// Package vtk writes meshes with attached cell and point data as VTK XML
// files: rectilinear grids (.vtr), unstructured grids (.vtu) and point
// clouds (.vtp). Data arrays are written either as ASCII or as zlib
// compressed, base64 encoded blocks with 64 bit block headers, which
// ParaView and the VTK readers understand.
//
//	grid, _ := vtk.NewRectilinear(x, y, z)
//	grid.AddCellData("sigma_vM", 1, mises)
//	err := grid.WriteFile("result_inc10", vtk.Options{})
package vtk
