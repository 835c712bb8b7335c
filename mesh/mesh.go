// Package mesh defines the read-only view of a finite-element mesh that spatial search needs, and
// a small in-memory implementation of it.
package mesh

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/meshsearch/utils"
)

// ErrEntitiesNotCreated is returned when entities of a dimension were never built for a mesh.
var ErrEntitiesNotCreated = errors.New("mesh entities have not been created")

// Mesh exposes entity geometry by topological dimension. Dimension 0 entities are vertices and
// dimension TDim() entities are cells.
type Mesh interface {
	TDim() int
	EntityCount(dim int) (int, error)
	EntityVertices(dim, index int) ([]r3.Vector, error)
}

// Basic is an in-memory Mesh. Cells are given at construction. Intermediate dimensions
// (edges, faces) exist only once added with CreateEntities.
type Basic struct {
	tdim   int
	points []r3.Vector
	// connectivity[d] lists the vertex indices of every entity of dimension d, for d >= 1.
	connectivity map[int][][]int
}

// New returns a mesh of topological dimension tdim. Each cell is a list of indices into points.
// A tdim 0 mesh is a point cloud and takes no cells.
func New(points []r3.Vector, tdim int, cells [][]int) (*Basic, error) {
	if tdim < 0 || tdim > 3 {
		return nil, utils.NewInvalidArgumentError("topological dimension must be in [0, 3], got %d", tdim)
	}
	m := &Basic{
		tdim:         tdim,
		points:       append([]r3.Vector{}, points...),
		connectivity: map[int][][]int{},
	}
	if tdim == 0 {
		if len(cells) != 0 {
			return nil, utils.NewInvalidArgumentError("a point cloud mesh takes no cells, got %d", len(cells))
		}
		return m, nil
	}
	if err := m.CreateEntities(tdim, cells); err != nil {
		return nil, errors.Wrap(err, "invalid cells")
	}
	return m, nil
}

// CreateEntities sets the vertex connectivity for entities of dimension dim, replacing any
// existing entities of that dimension.
func (m *Basic) CreateEntities(dim int, connectivity [][]int) error {
	if dim < 1 || dim > m.tdim {
		return utils.NewInvalidArgumentError("can only create entities of dimension 1 to %d, got %d", m.tdim, dim)
	}
	entities := make([][]int, len(connectivity))
	for i, vertices := range connectivity {
		if len(vertices) == 0 {
			return utils.NewInvalidArgumentError("entity %d of dimension %d has no vertices", i, dim)
		}
		for _, v := range vertices {
			if v < 0 || v >= len(m.points) {
				return utils.NewIndexOutOfRangeError("vertex", v, len(m.points))
			}
		}
		entities[i] = append([]int{}, vertices...)
	}
	m.connectivity[dim] = entities
	return nil
}

// TDim returns the topological dimension of the cells.
func (m *Basic) TDim() int {
	return m.tdim
}

// Points returns the mesh vertices.
func (m *Basic) Points() []r3.Vector {
	return m.points
}

// Connectivity returns the vertex indices of every entity of dimension dim.
func (m *Basic) Connectivity(dim int) ([][]int, error) {
	if dim < 0 || dim > m.tdim {
		return nil, utils.NewInvalidArgumentError("dimension %d outside [0, %d]", dim, m.tdim)
	}
	if dim == 0 {
		conn := make([][]int, len(m.points))
		for i := range conn {
			conn[i] = []int{i}
		}
		return conn, nil
	}
	conn, ok := m.connectivity[dim]
	if !ok {
		return nil, errors.Wrapf(ErrEntitiesNotCreated, "dimension %d", dim)
	}
	return conn, nil
}

// EntityCount returns the number of entities of dimension dim.
func (m *Basic) EntityCount(dim int) (int, error) {
	if dim == 0 {
		return len(m.points), nil
	}
	conn, err := m.Connectivity(dim)
	if err != nil {
		return 0, err
	}
	return len(conn), nil
}

// EntityVertices returns the coordinates of the vertices of one entity.
func (m *Basic) EntityVertices(dim, index int) ([]r3.Vector, error) {
	if dim == 0 {
		if index < 0 || index >= len(m.points) {
			return nil, utils.NewIndexOutOfRangeError("vertex", index, len(m.points))
		}
		return []r3.Vector{m.points[index]}, nil
	}
	conn, err := m.Connectivity(dim)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(conn) {
		return nil, utils.NewIndexOutOfRangeError("entity", index, len(conn))
	}
	verts := make([]r3.Vector, len(conn[index]))
	for i, v := range conn[index] {
		verts[i] = m.points[v]
	}
	return verts, nil
}

// Midpoints returns the vertex average of each listed entity of dimension dim.
func Midpoints(m Mesh, dim int, entities []int) ([]r3.Vector, error) {
	midpoints := make([]r3.Vector, len(entities))
	for i, entity := range entities {
		verts, err := m.EntityVertices(dim, entity)
		if err != nil {
			return nil, err
		}
		if len(verts) == 0 {
			return nil, errors.Errorf("entity %d of dimension %d has no vertices", entity, dim)
		}
		var sum r3.Vector
		for _, v := range verts {
			sum = sum.Add(v)
		}
		midpoints[i] = sum.Mul(1 / float64(len(verts)))
	}
	return midpoints, nil
}
