// Package collision answers point, tree and closest entity queries against bounding box trees
// built over a mesh.
package collision

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// AdjacencyList stores one variable length row of entity indices per node in a single array.
// Row i is Array()[Offsets()[i]:Offsets()[i+1]].
type AdjacencyList struct {
	array   []int
	offsets []int
}

// NewAdjacencyList flattens rows.
func NewAdjacencyList(rows [][]int) AdjacencyList {
	offsets := make([]int, 1, len(rows)+1)
	total := 0
	for _, row := range rows {
		total += len(row)
		offsets = append(offsets, total)
	}
	array := make([]int, 0, total)
	for _, row := range rows {
		array = append(array, row...)
	}
	return AdjacencyList{array: array, offsets: offsets}
}

// NewAdjacencyListFromCSR wraps an existing array and offsets. Offsets must start at 0, never
// decrease and end at len(array).
func NewAdjacencyListFromCSR(array, offsets []int) (AdjacencyList, error) {
	if len(offsets) == 0 || offsets[0] != 0 {
		return AdjacencyList{}, errors.New("offsets must start with 0")
	}
	for i := 1; i < len(offsets); i++ {
		if offsets[i] < offsets[i-1] {
			return AdjacencyList{}, errors.Errorf("offsets decrease at %d", i)
		}
	}
	if last := offsets[len(offsets)-1]; last != len(array) {
		return AdjacencyList{}, errors.Errorf("last offset %d does not match array length %d", last, len(array))
	}
	return AdjacencyList{array: array, offsets: offsets}, nil
}

// NumNodes returns the number of rows.
func (a AdjacencyList) NumNodes() int {
	if len(a.offsets) == 0 {
		return 0
	}
	return len(a.offsets) - 1
}

// Links returns row i. The result must not be modified.
func (a AdjacencyList) Links(i int) []int {
	return a.array[a.offsets[i]:a.offsets[i+1]:a.offsets[i+1]]
}

// NumLinks returns the length of row i.
func (a AdjacencyList) NumLinks(i int) int {
	return a.offsets[i+1] - a.offsets[i]
}

// Array returns every row concatenated.
func (a AdjacencyList) Array() []int {
	return a.array
}

// Offsets returns the NumNodes()+1 row boundaries into Array.
func (a AdjacencyList) Offsets() []int {
	return a.offsets
}

func (a AdjacencyList) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "AdjacencyList(nodes=%d, links=%d)", a.NumNodes(), len(a.array))
	for i := 0; i < a.NumNodes(); i++ {
		fmt.Fprintf(&sb, "\n  %d: %v", i, a.Links(i))
	}
	return sb.String()
}
