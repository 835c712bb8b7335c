package mesh

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/yosuke-furukawa/json5/encoding/json5"

	"go.viam.com/meshsearch/utils"
)

// File is the JSON5 mesh description read by ReadFile. Points have 1 to 3 coordinates; missing
// ones are zero. Entities maps a dimension ("1", "2") to extra entity connectivity.
//
//	{
//	  tdim: 2,
//	  points: [[0, 0], [1, 0], [0, 1]],
//	  cells: [[0, 1, 2]],
//	  entities: {"1": [[0, 1], [1, 2], [2, 0]]},
//	}
type File struct {
	TDim     int                `json:"tdim"`
	Points   [][]float64        `json:"points"`
	Cells    [][]int            `json:"cells"`
	Entities map[string][][]int `json:"entities,omitempty"`
}

// ReadFile reads a JSON5 mesh from path.
func ReadFile(path string) (*Basic, error) {
	//nolint:gosec
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	m, err := Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "reading mesh %q", path)
	}
	return m, nil
}

// Decode reads a JSON5 mesh.
func Decode(r io.Reader) (*Basic, error) {
	var desc File
	if err := decodeJSON5(r, &desc); err != nil {
		return nil, err
	}
	return desc.Build()
}

// Build validates the description and constructs the mesh.
func (desc *File) Build() (*Basic, error) {
	points, err := toVectors(desc.Points)
	if err != nil {
		return nil, err
	}
	m, err := New(points, desc.TDim, desc.Cells)
	if err != nil {
		return nil, err
	}

	dims := make([]int, 0, len(desc.Entities))
	for key := range desc.Entities {
		dim, err := strconv.Atoi(key)
		if err != nil {
			return nil, errors.Wrapf(err, "entity dimension %q", key)
		}
		dims = append(dims, dim)
	}
	sort.Ints(dims)
	for _, dim := range dims {
		if err := m.CreateEntities(dim, desc.Entities[strconv.Itoa(dim)]); err != nil {
			return nil, errors.Wrapf(err, "entities of dimension %d", dim)
		}
	}
	return m, nil
}

// NewFile describes m in the form Decode reads back. Cells are written along with any
// intermediate dimension entities that have been created.
func NewFile(m *Basic) (*File, error) {
	tdim := m.TDim()
	desc := &File{TDim: tdim, Points: make([][]float64, len(m.Points()))}
	for i, p := range m.Points() {
		desc.Points[i] = []float64{p.X, p.Y, p.Z}
	}
	cells, err := m.Connectivity(tdim)
	if err != nil {
		return nil, err
	}
	desc.Cells = cells
	for dim := 1; dim < tdim; dim++ {
		conn, err := m.Connectivity(dim)
		if errors.Is(err, ErrEntitiesNotCreated) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if desc.Entities == nil {
			desc.Entities = map[string][][]int{}
		}
		desc.Entities[strconv.Itoa(dim)] = conn
	}
	return desc, nil
}

// Encode writes m as indented JSON, which Decode accepts.
func Encode(w io.Writer, m *Basic) error {
	desc, err := NewFile(m)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(desc)
}

// DecodePoints reads a JSON5 array of 1 to 3 dimensional points.
func DecodePoints(r io.Reader) ([]r3.Vector, error) {
	var raw [][]float64
	if err := decodeJSON5(r, &raw); err != nil {
		return nil, err
	}
	return toVectors(raw)
}

// ReadPointsFile reads a JSON5 point array from path.
func ReadPointsFile(path string) ([]r3.Vector, error) {
	//nolint:gosec
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	points, err := DecodePoints(f)
	if err != nil {
		return nil, errors.Wrapf(err, "reading points %q", path)
	}
	return points, nil
}

func decodeJSON5(r io.Reader, v interface{}) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	return errors.Wrap(json5.Unmarshal(data, v), "invalid json5")
}

func toVectors(raw [][]float64) ([]r3.Vector, error) {
	points := make([]r3.Vector, len(raw))
	for i, coords := range raw {
		if len(coords) < 1 || len(coords) > 3 {
			return nil, utils.NewInvalidArgumentError("point %d has %d coordinates, expected 1 to 3", i, len(coords))
		}
		var padded [3]float64
		copy(padded[:], coords)
		points[i] = r3.Vector{X: padded[0], Y: padded[1], Z: padded[2]}
	}
	return points, nil
}
