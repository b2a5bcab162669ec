// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"os"

	"github.com/urfave/cli/v3"

	"github.com/matt-FFFFFF/prunner"
	"github.com/matt-FFFFFF/prunner/cmd/prunner/repl"
	"github.com/matt-FFFFFF/prunner/cmd/prunner/run"
	"github.com/matt-FFFFFF/prunner/cmd/prunner/schema"
	"github.com/matt-FFFFFF/prunner/cmd/prunner/show"
)

// RootCmd is the root command for the CLI.
var RootCmd = &cli.Command{
	Commands: []*cli.Command{
		run.RunCmd,
		schema.SchemaCmd,
		show.ShowCmd,
		repl.ReplCmd,
	},
	Writer:    os.Stdout,
	ErrWriter: os.Stderr,
	Name:      "prunner",
	Description: `prunner is a reusable parallelization engine for batch command execution.
It reads a job description file naming an item source and a per-item action, then fans the
item stream out across a bounded pool of self-re-exec worker processes.`,
	Usage:                 "prunner run --file job.yaml",
	Version:               prunner.Version + " (" + prunner.Commit + ")",
	Copyright:             "Copyright (c) matt-FFFFFF 2025. All rights reserved.",
	Authors:               []any{"Matt White (matt-FFFFFF)"},
	EnableShellCompletion: true,
}
