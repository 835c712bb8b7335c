package mesh

import (
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/meshsearch/utils"
)

// CellType names the shape of generated cells.
type CellType string

// Supported cell types.
const (
	Interval      CellType = "interval"
	Triangle      CellType = "triangle"
	Quadrilateral CellType = "quadrilateral"
	Tetrahedron   CellType = "tetrahedron"
	Hexahedron    CellType = "hexahedron"
)

// TDim returns the topological dimension of the cell type, or -1 if unknown.
func (c CellType) TDim() int {
	switch c {
	case Interval:
		return 1
	case Triangle, Quadrilateral:
		return 2
	case Tetrahedron, Hexahedron:
		return 3
	}
	return -1
}

// CellTypeFromString parses a cell type name, ignoring case.
func CellTypeFromString(name string) (CellType, error) {
	cell := CellType(strings.ToLower(name))
	if cell.TDim() < 0 {
		return "", errors.Errorf("unknown cell type %q", name)
	}
	return cell, nil
}

// CreateInterval returns n equal segments between x0 and x1 on the x axis.
func CreateInterval(x0, x1 float64, n int) (*Basic, error) {
	if n < 1 {
		return nil, utils.NewInvalidArgumentError("interval needs at least one cell, got %d", n)
	}
	points := make([]r3.Vector, n+1)
	for i := range points {
		points[i] = r3.Vector{X: x0 + (x1-x0)*float64(i)/float64(n)}
	}
	cells := make([][]int, n)
	for i := range cells {
		cells[i] = []int{i, i + 1}
	}
	return New(points, 1, cells)
}

// CreateRectangle returns an nx by ny grid over the z=lo.Z rectangle [lo, hi], split into two
// triangles or kept as one quadrilateral per grid square.
func CreateRectangle(lo, hi r3.Vector, nx, ny int, cell CellType) (*Basic, error) {
	if nx < 1 || ny < 1 {
		return nil, utils.NewInvalidArgumentError("rectangle needs at least one cell per axis, got %dx%d", nx, ny)
	}
	if cell != Triangle && cell != Quadrilateral {
		return nil, utils.NewInvalidArgumentError("rectangle cells must be triangles or quadrilaterals, got %q", cell)
	}
	points := make([]r3.Vector, 0, (nx+1)*(ny+1))
	for j := 0; j <= ny; j++ {
		for i := 0; i <= nx; i++ {
			points = append(points, r3.Vector{
				X: lo.X + (hi.X-lo.X)*float64(i)/float64(nx),
				Y: lo.Y + (hi.Y-lo.Y)*float64(j)/float64(ny),
				Z: lo.Z,
			})
		}
	}
	vertex := func(i, j int) int { return j*(nx+1) + i }

	var cells [][]int
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			v0, v1, v2, v3 := vertex(i, j), vertex(i+1, j), vertex(i, j+1), vertex(i+1, j+1)
			if cell == Quadrilateral {
				cells = append(cells, []int{v0, v1, v2, v3})
				continue
			}
			cells = append(cells, []int{v0, v1, v3}, []int{v0, v2, v3})
		}
	}
	return New(points, 2, cells)
}

// kuhnTetrahedra splits a hexahedron into six tetrahedra sharing its main diagonal. Corner c has
// x offset c&1, y offset c&2 and z offset c&4.
var kuhnTetrahedra = [6][4]int{
	{0, 1, 3, 7},
	{0, 1, 5, 7},
	{0, 2, 3, 7},
	{0, 2, 6, 7},
	{0, 4, 5, 7},
	{0, 4, 6, 7},
}

// CreateBox returns an nx by ny by nz grid over the box [lo, hi] of tetrahedra or hexahedra.
func CreateBox(lo, hi r3.Vector, nx, ny, nz int, cell CellType) (*Basic, error) {
	if nx < 1 || ny < 1 || nz < 1 {
		return nil, utils.NewInvalidArgumentError("box needs at least one cell per axis, got %dx%dx%d", nx, ny, nz)
	}
	if cell != Tetrahedron && cell != Hexahedron {
		return nil, utils.NewInvalidArgumentError("box cells must be tetrahedra or hexahedra, got %q", cell)
	}
	points := make([]r3.Vector, 0, (nx+1)*(ny+1)*(nz+1))
	for k := 0; k <= nz; k++ {
		for j := 0; j <= ny; j++ {
			for i := 0; i <= nx; i++ {
				points = append(points, r3.Vector{
					X: lo.X + (hi.X-lo.X)*float64(i)/float64(nx),
					Y: lo.Y + (hi.Y-lo.Y)*float64(j)/float64(ny),
					Z: lo.Z + (hi.Z-lo.Z)*float64(k)/float64(nz),
				})
			}
		}
	}
	vertex := func(i, j, k int) int { return (k*(ny+1)+j)*(nx+1) + i }

	var cells [][]int
	for k := 0; k < nz; k++ {
		for j := 0; j < ny; j++ {
			for i := 0; i < nx; i++ {
				var corners [8]int
				for c := range corners {
					corners[c] = vertex(i+(c&1), j+((c>>1)&1), k+((c>>2)&1))
				}
				if cell == Hexahedron {
					cells = append(cells, corners[:])
					continue
				}
				for _, tet := range kuhnTetrahedra {
					cells = append(cells, []int{corners[tet[0]], corners[tet[1]], corners[tet[2]], corners[tet[3]]})
				}
			}
		}
	}
	return New(points, 3, cells)
}
