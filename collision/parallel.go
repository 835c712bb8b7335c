package collision

import (
	"golang.org/x/sync/errgroup"

	"go.viam.com/meshsearch/utils"
)

// Batches smaller than this run on the calling goroutine.
const pointsBeforeParallelization = 256

// forEachPoint calls fn for every index in [0, numPoints), splitting the range over at most
// utils.ParallelFactor goroutines. fn must only write state owned by its index.
func forEachPoint(numPoints int, fn func(i int) error) error {
	if numPoints < pointsBeforeParallelization || utils.ParallelFactor <= 1 {
		for i := 0; i < numPoints; i++ {
			if err := fn(i); err != nil {
				return err
			}
		}
		return nil
	}

	var g errgroup.Group
	g.SetLimit(utils.ParallelFactor)
	chunk := (numPoints + utils.ParallelFactor - 1) / utils.ParallelFactor
	for from := 0; from < numPoints; from += chunk {
		from, to := from, min(from+chunk, numPoints)
		g.Go(func() error {
			for i := from; i < to; i++ {
				if err := fn(i); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}
