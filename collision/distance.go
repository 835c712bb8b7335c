package collision

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/meshsearch/mesh"
	"go.viam.com/meshsearch/spatialmath"
	"go.viam.com/meshsearch/utils"
)

// SquaredDistance returns, for each i, the squared distance from points[i] to entity entities[i]
// of dimension dim.
func SquaredDistance(m mesh.Mesh, dim int, entities []int, points []r3.Vector) ([]float64, error) {
	if len(entities) != len(points) {
		return nil, utils.NewLengthMismatchError("one point per entity", len(entities), len(points))
	}
	distances := make([]float64, len(points))
	err := forEachPoint(len(points), func(i int) error {
		d, err := entitySquaredDistance(m, dim, entities[i], points[i])
		if err != nil {
			return err
		}
		distances[i] = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return distances, nil
}

// entitySquaredDistance measures against the convex hull of the entity vertices. Simplices use the
// direct projection and larger entities such as hexahedra go through GJK.
func entitySquaredDistance(m mesh.Mesh, dim, entity int, pt r3.Vector) (float64, error) {
	verts, err := m.EntityVertices(dim, entity)
	if err != nil {
		return 0, errors.Wrapf(err, "entity %d", entity)
	}
	if len(verts) <= 4 {
		return spatialmath.SquaredDistancePointToSimplex(pt, verts)
	}
	return spatialmath.SquaredDistanceGJK([]r3.Vector{pt}, verts)
}
