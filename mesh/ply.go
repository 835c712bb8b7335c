package mesh

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chenzhekl/goply"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// Load reads a mesh, choosing the format by extension: .ply for PLY surface meshes, anything
// else for the JSON5 description.
func Load(path string) (*Basic, error) {
	if strings.EqualFold(filepath.Ext(path), ".ply") {
		return ReadPLYFile(path)
	}
	return ReadFile(path)
}

// ReadPLYFile reads a triangle surface mesh from a PLY file.
func ReadPLYFile(path string) (*Basic, error) {
	//nolint:gosec
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	m, err := DecodePLY(f)
	if err != nil {
		return nil, errors.Wrapf(err, "reading mesh %q", path)
	}
	return m, nil
}

// DecodePLY reads the vertex and face elements of a PLY stream into a tdim 2 mesh. Polygons with
// more than three vertices are split into a triangle fan around their first vertex.
func DecodePLY(r io.Reader) (m *Basic, err error) {
	// goply panics on malformed input.
	defer func() {
		if rec := recover(); rec != nil {
			m, err = nil, errors.Errorf("invalid ply: %v", rec)
		}
	}()
	ply := goply.New(r)

	vertices := ply.Elements("vertex")
	points := make([]r3.Vector, len(vertices))
	for i, vertex := range vertices {
		var coords [3]float64
		for axis, name := range [3]string{"x", "y", "z"} {
			v, ok := plyNumber(vertex[name])
			if !ok {
				return nil, errors.Errorf("vertex %d: missing or non-numeric %q", i, name)
			}
			coords[axis] = v
		}
		points[i] = r3.Vector{X: coords[0], Y: coords[1], Z: coords[2]}
	}

	var cells [][]int
	for i, face := range ply.Elements("face") {
		raw, ok := face["vertex_indices"]
		if !ok {
			raw = face["vertex_index"]
		}
		list, ok := raw.([]interface{})
		if !ok || len(list) < 3 {
			return nil, errors.Errorf("face %d: expected a list of at least 3 vertex indices", i)
		}
		indices := make([]int, len(list))
		for j, item := range list {
			v, ok := plyNumber(item)
			if !ok {
				return nil, errors.Errorf("face %d: non-numeric vertex index %v", i, item)
			}
			indices[j] = int(v)
		}
		for j := 1; j+1 < len(indices); j++ {
			cells = append(cells, []int{indices[0], indices[j], indices[j+1]})
		}
	}
	return New(points, 2, cells)
}

func plyNumber(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case int8:
		return float64(n), true
	case uint8:
		return float64(n), true
	case int16:
		return float64(n), true
	case uint16:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}
