// Package main is the meshsearch command itself.
package main

import (
	"fmt"
	"os"

	"go.viam.com/meshsearch/cli"
)

func main() {
	app := cli.NewApp(os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(app.ErrWriter, "Error: %v\n", err)
		os.Exit(1)
	}
}
