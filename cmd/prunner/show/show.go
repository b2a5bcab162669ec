// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package show implements the "show" subcommand: a dry run that resolves
// and plans a job description file without executing anything.
package show

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/matt-FFFFFF/prunner/internal/commandregistry"
	"github.com/matt-FFFFFF/prunner/internal/config"
	"github.com/matt-FFFFFF/prunner/internal/jobsource"
	"github.com/matt-FFFFFF/prunner/internal/parallel"
)

const (
	fileFlag        = "file"
	parallelismFlag = "parallelism"
)

// ErrReadFile is returned when the job description file cannot be read.
var ErrReadFile = errors.New("failed to read job description file")

// ShowCmd prints the planned Configuration for a job description file
// without running its action against any item.
var ShowCmd = &cli.Command{
	Name:        "show",
	Description: "Resolve and plan a job description file without running it.",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     fileFlag,
			Aliases:  []string{"f"},
			Usage:    "Location of the job description file, in go-getter syntax.",
			OnlyOnce: true,
		},
		&cli.IntFlag{
			Name:    parallelismFlag,
			Aliases: []string{"p"},
			Usage:   "Override the number of worker processes considered by the plan.",
		},
	},
	Action: func(ctx context.Context, cmd *cli.Command) error {
		location := cmd.String(fileFlag)
		if location == "" {
			return cli.Exit("--file is required", 1)
		}

		localPath, err := jobsource.Resolve(ctx, location)
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}

		data, err := jobsource.ReadFile(localPath)
		if err != nil {
			return cli.Exit(errors.Join(ErrReadFile, err).Error(), 1)
		}

		def, err := config.Parse(localPath, data)
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}

		noopFactory := parallel.ChildCommandFactoryFunc(
			func(parallel.ParallelizationInput) (string, []string) { return "", nil },
		)

		spec, err := config.BuildExecutorSpec(ctx, commandregistry.DefaultRegistry, def, noopFactory, parallel.DefaultProcessLauncherFactory)
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}

		items, err := spec.FetchItems()
		if err != nil {
			return cli.Exit(fmt.Sprintf("fetch items: %s", err), 1)
		}

		var processes *int
		if cmd.IsSet(parallelismFlag) {
			n := cmd.Int(parallelismFlag)
			processes = &n
		}

		cfg, err := parallel.PlanConfiguration(true, len(items), processes, spec.SegmentSize, spec.BatchSize)
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}

		fmt.Fprintf(cmd.Writer, "job:              %s\n", def.Name)
		fmt.Fprintf(cmd.Writer, "action:           %s\n", def.Action.Type)

		errHandlerType := "tolerant"
		if def.ErrorHandler != nil && def.ErrorHandler.Type != "" {
			errHandlerType = def.ErrorHandler.Type
		}

		fmt.Fprintf(cmd.Writer, "error handler:    %s\n", errHandlerType)
		fmt.Fprintf(cmd.Writer, "progress symbol:  %q\n", string(spec.ProgressSymbol))
		fmt.Fprintf(cmd.Writer, "working dir:      %s\n", spec.WorkingDirectory)
		fmt.Fprintf(cmd.Writer, "total items:      %d\n", cfg.TotalItems)
		fmt.Fprintf(cmd.Writer, "spawn children:   %t\n", cfg.ShouldSpawnChildren)
		fmt.Fprintf(cmd.Writer, "processes:        %d\n", cfg.NumberOfProcesses)
		fmt.Fprintf(cmd.Writer, "segment size:     %d\n", cfg.SegmentSize)
		fmt.Fprintf(cmd.Writer, "segments:         %d\n", cfg.NumberOfSegments)

		return nil
	},
}
