/*
patchy is a command-line implementation of the patchy package: "diff"
computes a patch between two files, "patch" applies one.

This follows cmd/gosync's newer, urfave/cli/v2-based generation rather than
gosync/main.go's older codegangsta/cli one.
*/
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "patchy",
		Usage: "compute and apply rsync-style binary patches",
		Commands: []*cli.Command{
			diffCommand,
			patchCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		logrus.WithError(err).Error("patchy failed")
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCodeFor(err))
	}
}
