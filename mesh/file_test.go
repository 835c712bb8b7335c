package mesh

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

const squareJSON5 = `{
  // unit square, two triangles
  tdim: 2,
  points: [[0, 0], [1, 0], [0, 1], [1, 1, 0],],
  cells: [[0, 1, 3], [0, 2, 3]],
  entities: {"1": [[0, 1], [1, 3]]},
}`

func TestDecode(t *testing.T) {
	m, err := Decode(strings.NewReader(squareJSON5))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, m.TDim(), test.ShouldEqual, 2)
	test.That(t, m.Points()[3], test.ShouldResemble, r3.Vector{X: 1, Y: 1})
	count, err := m.EntityCount(1)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, count, test.ShouldEqual, 2)

	t.Run("malformed", func(t *testing.T) {
		_, err := Decode(strings.NewReader(`{tdim: 2, points: [[0, 0]`))
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "invalid json5")
	})

	t.Run("too many coordinates", func(t *testing.T) {
		_, err := Decode(strings.NewReader(`{tdim: 0, points: [[0, 0, 0, 0]]}`))
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "4 coordinates")
	})

	t.Run("bad entity key", func(t *testing.T) {
		_, err := Decode(strings.NewReader(`{tdim: 1, points: [[0], [1]], cells: [[0, 1]], entities: {"x": []}}`))
		test.That(t, err, test.ShouldNotBeNil)
	})
}

func TestReadFiles(t *testing.T) {
	dir := t.TempDir()
	meshPath := filepath.Join(dir, "square.json5")
	test.That(t, os.WriteFile(meshPath, []byte(squareJSON5), 0o600), test.ShouldBeNil)
	m, err := ReadFile(meshPath)
	test.That(t, err, test.ShouldBeNil)
	count, err := m.EntityCount(2)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, count, test.ShouldEqual, 2)

	pointsPath := filepath.Join(dir, "points.json5")
	test.That(t, os.WriteFile(pointsPath, []byte("[[0.5, 0.5], [2, 2, 2]] // queries"), 0o600), test.ShouldBeNil)
	points, err := ReadPointsFile(pointsPath)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, points, test.ShouldResemble, []r3.Vector{{X: 0.5, Y: 0.5}, {X: 2, Y: 2, Z: 2}})

	_, err = ReadFile(filepath.Join(dir, "missing.json5"))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestEncode(t *testing.T) {
	m, err := Decode(strings.NewReader(squareJSON5))
	test.That(t, err, test.ShouldBeNil)

	var buf bytes.Buffer
	test.That(t, Encode(&buf, m), test.ShouldBeNil)
	again, err := Decode(&buf)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, again.Points(), test.ShouldResemble, m.Points())
	for dim := 1; dim <= 2; dim++ {
		want, err := m.Connectivity(dim)
		test.That(t, err, test.ShouldBeNil)
		got, err := again.Connectivity(dim)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, got, test.ShouldResemble, want)
	}

	box, err := CreateBox(r3.Vector{}, r3.Vector{X: 1, Y: 1, Z: 1}, 1, 1, 1, Tetrahedron)
	test.That(t, err, test.ShouldBeNil)
	desc, err := NewFile(box)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, desc.TDim, test.ShouldEqual, 3)
	test.That(t, desc.Cells, test.ShouldHaveLength, 6)
	test.That(t, desc.Entities, test.ShouldBeNil)
}
