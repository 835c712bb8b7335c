package cli

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/yosuke-furukawa/json5/encoding/json5"
	goutils "go.viam.com/utils"

	"go.viam.com/meshsearch/bvh"
)

// Config is the JSON5 file passed with --config. Relative paths are resolved against the
// directory holding the config file. A tree dim of -1, which is what ReadConfig leaves when the
// file gives none, means the cell dimension of the mesh.
//
//	{
//	  mesh: "box.json5",
//	  points: "queries.json5",
//	  tree: {dim: 2, padding: 1e-9},
//	}
type Config struct {
	Mesh   string          `json:"mesh"`
	Points string          `json:"points,omitempty"`
	Tree   *bvh.TreeConfig `json:"tree,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (cfg *Config) Validate(path string) error {
	if cfg.Mesh == "" {
		return goutils.NewConfigValidationFieldRequiredError(path, "mesh")
	}
	if cfg.Tree != nil {
		return cfg.Tree.Validate(path + ".tree")
	}
	return nil
}

// ReadConfig reads a Config from path without validating it.
func ReadConfig(path string) (*Config, error) {
	//nolint:gosec
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	cfg := Config{Tree: &bvh.TreeConfig{Dim: -1}}
	if err := json5.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrapf(err, "reading config %q", path)
	}
	if cfg.Tree == nil {
		cfg.Tree = &bvh.TreeConfig{Dim: -1}
	}
	dir := filepath.Dir(path)
	cfg.Mesh = resolvePath(dir, cfg.Mesh)
	cfg.Points = resolvePath(dir, cfg.Points)
	return &cfg, nil
}

func resolvePath(dir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}
