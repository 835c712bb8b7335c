package cli

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"

	"go.viam.com/meshsearch/bvh"
	"go.viam.com/meshsearch/collision"
	"go.viam.com/meshsearch/logging"
	"go.viam.com/meshsearch/mesh"
	"go.viam.com/meshsearch/spatialmath"
	"go.viam.com/meshsearch/utils"
)

// session is what every query command needs: a logger, the mesh, the tree settings and,
// for point queries, the points.
type session struct {
	ctx    context.Context
	logger logging.Logger
	mesh   *mesh.Basic
	tree   bvh.TreeConfig
	points []r3.Vector
}

// newLogger returns the app logger and, with --debug, a context in debug mode.
func newLogger(c *cli.Context) (context.Context, logging.Logger) {
	logger, ok := c.App.Metadata[loggerMetadataKey].(logging.Logger)
	if !ok {
		logger = logging.NewLogger("meshsearch")
	}
	ctx := c.Context
	if c.Bool(generalFlagDebug) {
		ctx = logging.EnableDebugMode(ctx, "")
	}
	return ctx, logger
}

// newSession merges the config file, if any, with command flags. Flags win.
func newSession(c *cli.Context, needPoints bool) (*session, error) {
	ctx, logger := newLogger(c)
	cfg := &Config{Tree: &bvh.TreeConfig{Dim: -1}}
	if path := c.String(generalFlagConfig); path != "" {
		var err error
		if cfg, err = ReadConfig(path); err != nil {
			return nil, err
		}
	}
	if c.IsSet(meshFlagPath) {
		cfg.Mesh = c.String(meshFlagPath)
	}
	if c.IsSet(meshFlagPoints) {
		cfg.Points = c.String(meshFlagPoints)
	}
	if c.IsSet(meshFlagDim) {
		cfg.Tree.Dim = c.Int(meshFlagDim)
	}
	if c.IsSet(meshFlagEntities) {
		cfg.Tree.Entities = c.IntSlice(meshFlagEntities)
	}
	if c.IsSet(meshFlagPadding) {
		cfg.Tree.Padding = c.Float64(meshFlagPadding)
	}
	if cfg.Mesh == "" {
		return nil, goutils.NewConfigValidationFieldRequiredError("config", "mesh")
	}

	m, err := mesh.Load(cfg.Mesh)
	if err != nil {
		return nil, err
	}
	if cfg.Tree.Dim < 0 {
		cfg.Tree.Dim = m.TDim()
	}
	if err := cfg.Validate("config"); err != nil {
		return nil, err
	}
	if cfg.Tree.Dim > m.TDim() {
		return nil, utils.NewInvalidArgumentError("dim %d exceeds mesh dimension %d", cfg.Tree.Dim, m.TDim())
	}
	if err := m.DeriveEntities(cfg.Tree.Dim); err != nil {
		return nil, err
	}

	s := &session{ctx: ctx, logger: logger, mesh: m, tree: *cfg.Tree}
	if needPoints {
		if cfg.Points == "" {
			return nil, goutils.NewConfigValidationFieldRequiredError("config", "points")
		}
		if s.points, err = mesh.ReadPointsFile(cfg.Points); err != nil {
			return nil, err
		}
	}
	logger.Debugw("loaded mesh", "path", cfg.Mesh, "tdim", m.TDim(), "points", len(m.Points()),
		"queries", len(s.points))
	return s, nil
}

// buildTrees builds the entity tree and, when requested, the midpoint tree alongside it.
func (s *session) buildTrees(withMidpoints bool) (*bvh.Tree, *bvh.Tree, error) {
	var tree, midpointTree *bvh.Tree
	fs := []utils.SimpleFunc{
		func(ctx context.Context) error {
			var err error
			tree, err = bvh.NewTreeFromConfig(ctx, s.mesh, &s.tree, s.logger.Sublogger("tree"))
			return err
		},
	}
	if withMidpoints {
		fs = append(fs, func(ctx context.Context) error {
			var err error
			midpointTree, err = bvh.NewMidpointTree(ctx, s.mesh, s.tree.Dim, s.tree.Entities, s.logger.Sublogger("midpoints"))
			return err
		})
	}
	elapsed, err := utils.RunInParallel(s.ctx, fs)
	if err != nil {
		return nil, nil, err
	}
	s.logger.CDebugf(s.ctx, "built %d tree(s) in %v", len(fs), elapsed)
	return tree, midpointTree, nil
}

func printTable(c *cli.Context, header table.Row, rows []table.Row) {
	t := table.NewWriter()
	t.AppendHeader(header)
	t.AppendRows(rows)
	fmt.Fprintln(c.App.Writer, t.Render())
}

// printSummary prints one line with the min, median, mean and max of values.
func printSummary(c *cli.Context, label string, values []float64) error {
	if len(values) == 0 {
		return nil
	}
	data := stats.Float64Data(values)
	minV, errMin := stats.Min(data)
	median, errMedian := stats.Median(data)
	mean, errMean := stats.Mean(data)
	maxV, errMax := stats.Max(data)
	if err := multierr.Combine(errMin, errMedian, errMean, errMax); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "%s: min %g, median %g, mean %g, max %g\n", label, minV, median, mean, maxV)
	return nil
}

func formatPoint(p r3.Vector) string {
	return fmt.Sprintf("(%g, %g, %g)", p.X, p.Y, p.Z)
}

func formatIndices(indices []int) string {
	return "[" + strings.Join(lo.Map(indices, func(i, _ int) string { return fmt.Sprint(i) }), " ") + "]"
}

// InfoAction prints the mesh bounding box and a row per entity dimension.
func InfoAction(c *cli.Context) error {
	_, logger := newLogger(c)
	path := c.String(meshFlagPath)
	if path == "" {
		cfgPath := c.String(generalFlagConfig)
		if cfgPath == "" {
			return goutils.NewConfigValidationFieldRequiredError("config", "mesh")
		}
		cfg, err := ReadConfig(cfgPath)
		if err != nil {
			return err
		}
		if cfg.Mesh == "" {
			return goutils.NewConfigValidationFieldRequiredError("config", "mesh")
		}
		path = cfg.Mesh
	}
	m, err := mesh.Load(path)
	if err != nil {
		return err
	}
	logger.Debugw("loaded mesh", "path", path)

	fmt.Fprintf(c.App.Writer, "%s: tdim %d, bounds %s\n",
		filepath.Base(path), m.TDim(), spatialmath.NewAABBFromPoints(m.Points()...))
	rows := make([]table.Row, 0, m.TDim()+1)
	for dim := 0; dim <= m.TDim(); dim++ {
		conn, err := m.Connectivity(dim)
		if errors.Is(err, mesh.ErrEntitiesNotCreated) {
			rows = append(rows, table.Row{dim, "-", "-"})
			continue
		}
		if err != nil {
			return err
		}
		sizes := lo.Uniq(lo.Map(conn, func(entity []int, _ int) int { return len(entity) }))
		rows = append(rows, table.Row{dim, len(conn), formatIndices(sizes)})
	}
	printTable(c, table.Row{"Dim", "Entities", "Vertices per entity"}, rows)
	return nil
}

// TreeAction builds a tree and prints it, or with --boxes its node boxes.
func TreeAction(c *cli.Context) error {
	s, err := newSession(c, false)
	if err != nil {
		return err
	}
	tree, _, err := s.buildTrees(false)
	if err != nil {
		return err
	}
	if !c.Bool(treeFlagBoxes) {
		fmt.Fprintln(c.App.Writer, tree)
		return nil
	}
	rows := lo.Map(lo.Range(tree.NumBoxes()), func(n, _ int) table.Row {
		box := tree.NodeBox(n)
		entity := "-"
		if tree.IsLeaf(n) {
			entity = fmt.Sprint(tree.Entity(n))
		}
		return table.Row{n, entity, formatPoint(box.Min), formatPoint(box.Max)}
	})
	printTable(c, table.Row{"Node", "Entity", "Min", "Max"}, rows)
	return nil
}

// CollideAction prints the entities whose boxes contain each point. For cell trees it also
// prints the cells that actually contain the point.
func CollideAction(c *cli.Context) error {
	s, err := newSession(c, true)
	if err != nil {
		return err
	}
	tree, _, err := s.buildTrees(false)
	if err != nil {
		return err
	}
	candidates := collision.ComputeCollisionsPoints(tree, s.points)
	header := table.Row{"Point", "Candidates"}
	var cells collision.AdjacencyList
	exact := s.tree.Dim == s.mesh.TDim()
	if exact {
		header = append(header, "Cells")
		if cells, err = collision.ComputeCollidingCells(s.mesh, candidates, s.points); err != nil {
			return err
		}
	}
	rows := lo.Map(s.points, func(p r3.Vector, i int) table.Row {
		s.logger.CDebugf(s.ctx, "point %d: %d candidates", i, candidates.NumLinks(i))
		row := table.Row{formatPoint(p), formatIndices(candidates.Links(i))}
		if exact {
			row = append(row, formatIndices(cells.Links(i)))
		}
		return row
	})
	printTable(c, header, rows)
	return nil
}

// ClosestAction prints the closest entity to each point and its distance.
func ClosestAction(c *cli.Context) error {
	s, err := newSession(c, true)
	if err != nil {
		return err
	}
	tree, midpointTree, err := s.buildTrees(true)
	if err != nil {
		return err
	}
	closest, err := collision.ComputeClosestEntity(tree, midpointTree, s.mesh, s.points)
	if err != nil {
		return err
	}
	if tree.Empty() {
		s.logger.Warn("no entities to search")
		rows := lo.Map(s.points, func(p r3.Vector, _ int) table.Row { return table.Row{formatPoint(p), "-", "-"} })
		printTable(c, table.Row{"Point", "Entity", "Distance"}, rows)
		return nil
	}
	dist2, err := collision.SquaredDistance(s.mesh, s.tree.Dim, closest, s.points)
	if err != nil {
		return err
	}
	rows := lo.Map(s.points, func(p r3.Vector, i int) table.Row {
		return table.Row{formatPoint(p), closest[i], fmt.Sprintf("%g", math.Sqrt(dist2[i]))}
	})
	printTable(c, table.Row{"Point", "Entity", "Distance"}, rows)
	return printSummary(c, "distance", lo.Map(dist2, func(d float64, _ int) float64 { return math.Sqrt(d) }))
}

// DistanceAction prints the squared distance from point i to entity i of --entities.
func DistanceAction(c *cli.Context) error {
	s, err := newSession(c, true)
	if err != nil {
		return err
	}
	if len(s.tree.Entities) == 0 {
		return goutils.NewConfigValidationFieldRequiredError("config.tree", "entities")
	}
	dist2, err := collision.SquaredDistance(s.mesh, s.tree.Dim, s.tree.Entities, s.points)
	if err != nil {
		return err
	}
	rows := lo.Map(s.points, func(p r3.Vector, i int) table.Row {
		return table.Row{formatPoint(p), s.tree.Entities[i], fmt.Sprintf("%g", dist2[i])}
	})
	printTable(c, table.Row{"Point", "Entity", "Squared distance"}, rows)
	return printSummary(c, "squared distance", dist2)
}

// GenerateAction writes a structured mesh to --out.
func GenerateAction(c *cli.Context) error {
	_, logger := newLogger(c)
	cell, err := mesh.CellTypeFromString(c.String(generateFlagCell))
	if err != nil {
		return err
	}
	tdim := cell.TDim()
	divisions := c.IntSlice(generateFlagDivisions)
	if len(divisions) == 0 {
		divisions = lo.Times(tdim, func(int) int { return 1 })
	}
	if len(divisions) != tdim {
		return utils.NewLengthMismatchError(generateFlagDivisions, tdim, len(divisions))
	}
	lower, err := corner(c.Float64Slice(generateFlagLower), 0, tdim, generateFlagLower)
	if err != nil {
		return err
	}
	upper, err := corner(c.Float64Slice(generateFlagUpper), 1, tdim, generateFlagUpper)
	if err != nil {
		return err
	}

	var m *mesh.Basic
	switch tdim {
	case 1:
		m, err = mesh.CreateInterval(lower.X, upper.X, divisions[0])
	case 2:
		m, err = mesh.CreateRectangle(lower, upper, divisions[0], divisions[1], cell)
	default:
		m, err = mesh.CreateBox(lower, upper, divisions[0], divisions[1], divisions[2], cell)
	}
	if err != nil {
		return err
	}

	out := c.String(generateFlagOut)
	//nolint:gosec
	f, err := os.Create(filepath.Clean(out))
	if err != nil {
		return err
	}
	if err := mesh.Encode(f, m); err != nil {
		goutils.UncheckedError(f.Close())
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	count, err := m.EntityCount(tdim)
	if err != nil {
		return err
	}
	logger.Debugw("generated mesh", "cell", cell, "divisions", divisions)
	fmt.Fprintf(c.App.Writer, "wrote %d %s cells to %s\n", count, cell, out)
	return nil
}

// corner pads or checks a corner given on the command line.
func corner(coords []float64, fill float64, tdim int, flag string) (r3.Vector, error) {
	if len(coords) == 0 {
		coords = lo.Times(tdim, func(int) float64 { return fill })
	}
	if len(coords) != tdim {
		return r3.Vector{}, utils.NewLengthMismatchError(flag, tdim, len(coords))
	}
	var padded [3]float64
	copy(padded[:], coords)
	return r3.Vector{X: padded[0], Y: padded[1], Z: padded[2]}, nil
}
