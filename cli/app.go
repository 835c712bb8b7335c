// Package cli contains the meshsearch command line tool.
package cli

import (
	"io"

	"github.com/urfave/cli/v2"

	"go.viam.com/meshsearch/logging"
)

const (
	generalFlagConfig  = "config"
	generalFlagDebug   = "debug"
	generalFlagLogFile = "log-file"

	loggerMetadataKey = "logger"

	// Size at which --log-file is rotated.
	logFileMaxSizeMB = 16

	meshFlagPath     = "mesh"
	meshFlagDim      = "dim"
	meshFlagEntities = "entities"
	meshFlagPadding  = "padding"
	meshFlagPoints   = "points"

	treeFlagBoxes = "boxes"

	generateFlagCell      = "cell"
	generateFlagDivisions = "divisions"
	generateFlagLower     = "lower"
	generateFlagUpper     = "upper"
	generateFlagOut       = "out"
)

// meshFlags returns fresh flag values so that repeated runs of the app never
// share slice state.
func meshFlags(points bool) []cli.Flag {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:    meshFlagPath,
			Aliases: []string{"m"},
			Usage:   "JSON5 or PLY mesh `FILE`",
		},
		&cli.IntFlag{
			Name:  meshFlagDim,
			Value: -1,
			Usage: "topological dimension of the entities to index (default: cell dimension)",
		},
		&cli.IntSliceFlag{
			Name:  meshFlagEntities,
			Usage: "entity indices to index (default: all)",
		},
		&cli.Float64Flag{
			Name:  meshFlagPadding,
			Usage: "grow every entity box by this much on each side",
		},
	}
	if points {
		flags = append(flags, &cli.StringFlag{
			Name:    meshFlagPoints,
			Aliases: []string{"p"},
			Usage:   "JSON5 `FILE` holding an array of query points",
		})
	}
	return flags
}

func newApp() *cli.App {
	var fileAppender *logging.FileAppender
	return &cli.App{
		Name:            "meshsearch",
		Usage:           "spatial queries over finite element meshes",
		HideHelpCommand: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    generalFlagConfig,
				Aliases: []string{"c"},
				Usage:   "load mesh, points and tree settings from a JSON5 `FILE`; flags override it",
			},
			&cli.BoolFlag{
				Name:    generalFlagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
			&cli.StringFlag{
				Name:  generalFlagLogFile,
				Usage: "also append logs to a rotated `FILE`",
			},
		},
		Metadata: map[string]interface{}{},
		Before: func(c *cli.Context) error {
			logger := logging.NewBlankLogger("meshsearch")
			logger.AddAppender(logging.NewWriterAppender(c.App.ErrWriter))
			if !c.Bool(generalFlagDebug) {
				logger.SetLevel(logging.INFO)
			}
			if path := c.String(generalFlagLogFile); path != "" {
				fileAppender = logging.NewFileAppender(path, logFileMaxSizeMB)
				logger.AddAppender(fileAppender)
			}
			c.App.Metadata[loggerMetadataKey] = logger
			return nil
		},
		After: func(c *cli.Context) error {
			if fileAppender == nil {
				return nil
			}
			return fileAppender.Close()
		},
		Commands: []*cli.Command{
			{
				Name:  "info",
				Usage: "print entity counts per dimension",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: meshFlagPath, Aliases: []string{"m"}, Usage: "JSON5 or PLY mesh `FILE`"},
				},
				Action: InfoAction,
			},
			{
				Name:   "tree",
				Usage:  "build a bounding box tree and print its structure",
				Flags:  append(meshFlags(false), &cli.BoolFlag{Name: treeFlagBoxes, Usage: "print flat box coordinates instead"}),
				Action: TreeAction,
			},
			{
				Name:   "collide",
				Usage:  "list the entities whose boxes contain each point, and for cells the cells that contain it",
				Flags:  meshFlags(true),
				Action: CollideAction,
			},
			{
				Name:   "closest",
				Usage:  "find the closest entity to each point",
				Flags:  meshFlags(true),
				Action: ClosestAction,
			},
			{
				Name:   "distance",
				Usage:  "squared distance from each point to the entity at the same position in --entities",
				Flags:  meshFlags(true),
				Action: DistanceAction,
			},
			{
				Name:  "generate",
				Usage: "write a structured mesh of an interval, rectangle or box",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  generateFlagCell,
						Value: "triangle",
						Usage: "cell type: interval, triangle, quadrilateral, tetrahedron or hexahedron",
					},
					&cli.IntSliceFlag{
						Name:  generateFlagDivisions,
						Usage: "cells along each axis (default: 1 per axis)",
					},
					&cli.Float64SliceFlag{
						Name:  generateFlagLower,
						Usage: "lower corner (default: origin)",
					},
					&cli.Float64SliceFlag{
						Name:  generateFlagUpper,
						Usage: "upper corner (default: 1 on every axis)",
					},
					&cli.StringFlag{
						Name:     generateFlagOut,
						Aliases:  []string{"o"},
						Usage:    "output `FILE`",
						Required: true,
					},
				},
				Action: GenerateAction,
			},
		},
	}
}

// NewApp returns a new app with the CLI API, Writer set to out, and ErrWriter
// set to errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	app := newApp()
	app.Writer = out
	app.ErrWriter = errOut
	return app
}
