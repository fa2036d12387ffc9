package main

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/patchy-sync/patchy"
)

const patchUsage = "patchy patch <BASE> <PATCH> [OUTPUT]"

var patchCommand = &cli.Command{
	Name:      "patch",
	Usage:     patchUsage,
	ArgsUsage: "<BASE> <PATCH> [OUTPUT]",
	Description: `Reconstruct OTHER from BASE and a patch produced by "patchy diff".

Omitting OUTPUT decodes and verifies the patch (base hash, output hash) but
writes nothing.`,
	Action: runPatch,
}

func runPatch(c *cli.Context) error {
	if l := c.Args().Len(); l < 2 || l > 3 {
		return cli.Exit(fmt.Sprintf("usage is %q (invalid number of arguments)", patchUsage), 2)
	}

	basePath := c.Args().Get(0)
	patchPath := c.Args().Get(1)
	outputPath := ""
	if c.Args().Len() == 3 {
		outputPath = c.Args().Get(2)
	}

	start := time.Now()
	if err := patchy.Apply(basePath, patchPath, outputPath); err != nil {
		return err
	}
	elapsed := time.Since(start)

	fields := logrus.Fields{"base": basePath, "patch": patchPath, "elapsed": elapsed}
	if outputPath == "" {
		logrus.WithFields(fields).Info("patch verified, no output written")
		return nil
	}

	info, err := os.Stat(outputPath)
	if err == nil {
		fields["output"] = outputPath
		fields["size"] = humanize.Bytes(uint64(info.Size()))
	}
	logrus.WithFields(fields).Info("output written")

	return nil
}
