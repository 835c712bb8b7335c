package mesh

import (
	"slices"

	"github.com/pkg/errors"
)

// DeriveEntities creates the entities of dimension dim from the cells when they have not been
// created yet. Only simplex cells are supported: every subset of dim+1 cell vertices is an
// entity. Entities are numbered in order of first appearance while walking the cells.
func (m *Basic) DeriveEntities(dim int) error {
	if _, err := m.Connectivity(dim); !errors.Is(err, ErrEntitiesNotCreated) {
		return err
	}
	cells, err := m.Connectivity(m.tdim)
	if err != nil {
		return err
	}

	seen := map[[4]int]struct{}{}
	var conn [][]int
	for c, cell := range cells {
		if len(cell) != m.tdim+1 {
			return errors.Errorf("cannot derive dimension %d entities: cell %d has %d vertices, not a simplex",
				dim, c, len(cell))
		}
		for _, sub := range vertexSubsets(cell, dim+1) {
			key := [4]int{-1, -1, -1, -1}
			copy(key[:], sub)
			slices.Sort(key[:len(sub)])
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			conn = append(conn, sub)
		}
	}
	return m.CreateEntities(dim, conn)
}

// vertexSubsets lists the size-element subsets of vertices, keeping their relative order.
func vertexSubsets(vertices []int, size int) [][]int {
	if size == 0 {
		return [][]int{{}}
	}
	if len(vertices) < size {
		return nil
	}
	var out [][]int
	for _, rest := range vertexSubsets(vertices[1:], size-1) {
		out = append(out, append([]int{vertices[0]}, rest...))
	}
	return append(out, vertexSubsets(vertices[1:], size)...)
}
