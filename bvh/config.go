package bvh

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"
)

// TreeConfig describes a bounding box tree over a mesh.
type TreeConfig struct {
	Dim      int     `json:"dim"`
	Entities []int   `json:"entities,omitempty"`
	Padding  float64 `json:"padding,omitempty"`
}

// Validate ensures all parts of the config are valid. Every problem is reported, not just the
// first.
func (cfg *TreeConfig) Validate(path string) error {
	var err error
	if cfg.Dim < 0 || cfg.Dim > 3 {
		err = multierr.Append(err, utils.NewConfigValidationError(path,
			errors.Errorf("dim must be between 0 and 3, got %d", cfg.Dim)))
	}
	if cfg.Padding < 0 || math.IsNaN(cfg.Padding) {
		err = multierr.Append(err, utils.NewConfigValidationError(path,
			errors.Errorf("padding must be non-negative, got %v", cfg.Padding)))
	}
	for idx, e := range cfg.Entities {
		if e < 0 {
			err = multierr.Append(err, utils.NewConfigValidationError(fmt.Sprintf("%s.%s.%d", path, "entities", idx),
				errors.Errorf("entity index must be non-negative, got %d", e)))
		}
	}
	return err
}
