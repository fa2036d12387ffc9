package main

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/patchy-sync/patchy"
	"github.com/patchy-sync/patchy/patcherrors"
)

const diffUsage = "patchy diff [-b B_log] [-l level] <BASE> <OTHER> [PATCH]"

var diffCommand = &cli.Command{
	Name:      "diff",
	Usage:     diffUsage,
	ArgsUsage: "<BASE> <OTHER> [PATCH]",
	Description: `Compute a patch that turns BASE into OTHER.

Omitting PATCH runs the full pipeline, including in-memory verification
that replaying the plan against BASE reproduces OTHER, but writes nothing.`,
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:  "b",
			Value: patchy.DefaultBLog,
			Usage: "block size exponent: B = 2^b, in [6, 24]",
		},
		&cli.IntFlag{
			Name:  "l",
			Value: 15,
			Usage: "zstd compression level, in [1, 22]",
		},
	},
	Action: runDiff,
}

func runDiff(c *cli.Context) error {
	if l := c.Args().Len(); l < 2 || l > 3 {
		return cli.Exit(fmt.Sprintf("usage is %q (invalid number of arguments)", diffUsage), 2)
	}

	basePath := c.Args().Get(0)
	otherPath := c.Args().Get(1)
	patchPath := ""
	if c.Args().Len() == 3 {
		patchPath = c.Args().Get(2)
	}

	// patchy.Diff treats a zero BLog/Level as "not set, use the default",
	// so an explicit -b 0 or -l 0 would otherwise be silently promoted to
	// the default instead of rejected; catch it here, where c.IsSet can
	// still tell "user typed 0" apart from "flag left at its own default".
	if c.IsSet("b") && c.Int("b") == 0 {
		return patcherrors.New(patcherrors.BadOption, "b_log must be in [6, 24]")
	}
	if c.IsSet("l") && c.Int("l") == 0 {
		return patcherrors.New(patcherrors.BadOption, "level must be in [1, 22]")
	}

	opts := patchy.DiffOptions{
		BLog:  uint8(c.Int("b")),
		Level: c.Int("l"),
	}

	start := time.Now()
	if err := patchy.Diff(basePath, otherPath, patchPath, opts); err != nil {
		return err
	}
	elapsed := time.Since(start)

	fields := logrus.Fields{"base": basePath, "other": otherPath, "elapsed": elapsed}
	if patchPath == "" {
		logrus.WithFields(fields).Info("diff verified, no patch written")
		return nil
	}

	info, err := os.Stat(patchPath)
	if err == nil {
		fields["patch"] = patchPath
		fields["size"] = humanize.Bytes(uint64(info.Size()))
	}
	logrus.WithFields(fields).Info("patch written")

	return nil
}
