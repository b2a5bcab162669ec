// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package run implements the "run" subcommand: the coordinator/worker
// entry point for one job description file.
package run

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/urfave/cli/v3"

	"github.com/matt-FFFFFF/prunner/internal/commandregistry"
	"github.com/matt-FFFFFF/prunner/internal/config"
	"github.com/matt-FFFFFF/prunner/internal/ctxlog"
	"github.com/matt-FFFFFF/prunner/internal/jobsource"
	"github.com/matt-FFFFFF/prunner/internal/parallel"
	execlog "github.com/matt-FFFFFF/prunner/internal/parallel/progress"
	"github.com/matt-FFFFFF/prunner/internal/progress"
	"github.com/matt-FFFFFF/prunner/internal/tui"
)

const (
	fileFlag        = "file"
	parallelismFlag = "parallelism"
	batchSizeFlag   = "batch-size"
	segmentSizeFlag = "segment-size"
	tuiFlag         = "tui"
	childFlag       = "child"
)

var (
	// ErrGetJobFile is returned when the job description file cannot be read.
	ErrGetJobFile = errors.New("failed to get job description file")
	// ErrNoFile is returned when --file is empty.
	ErrNoFile = errors.New("--file is required")
)

// RunCmd is the command that runs a job description file, either as the
// coordinator or, with --child, as a spawned worker.
var RunCmd = &cli.Command{
	Name: "run",
	Description: `Run the item source and per-item action named by a job description file.

Job description file locations use Hashicorp's go-getter syntax, which allows fetching
from local paths, git repositories, HTTP(S) URLs, and cloud storage buckets.
See https://github.com/hashicorp/go-getter.`,
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
			Usage:   "Override the number of worker processes. Defaults to the number of CPU cores.",
		},
		&cli.IntFlag{
			Name:  batchSizeFlag,
			Usage: "Override the job description's batch size.",
		},
		&cli.IntFlag{
			Name:  segmentSizeFlag,
			Usage: "Override the job description's per-child segment size.",
		},
		&cli.BoolFlag{
			Name:    tuiFlag,
			Aliases: []string{"t", "interactive"},
			Usage:   "Show a live terminal view of run progress instead of structured logs.",
		},
		&cli.BoolFlag{
			Name:    childFlag,
			Aliases: []string{"c"},
			Usage:   "Internal: marks this invocation as a spawned worker rather than the coordinator.",
			Hidden:  true,
		},
	},
	Action: actionFunc,
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	logger := ctxlog.Logger(ctx).With("command", cmd.Name)

	location := cmd.String(fileFlag)
	if location == "" {
		return cli.Exit(ErrNoFile.Error(), 1)
	}

	isChild := cmd.Bool(childFlag)

	// A child's --file was already resolved by its coordinator; only the
	// coordinator itself pays the cost of a go-getter fetch.
	localPath := location
	if !isChild {
		resolved, err := jobsource.Resolve(ctx, location)
		if err != nil {
			logger.Error("failed to resolve job description file", "error", err)
			return cli.Exit(err.Error(), 1)
		}

		localPath = resolved
	}

	data, err := jobsource.ReadFile(localPath)
	if err != nil {
		return cli.Exit(errors.Join(ErrGetJobFile, err).Error(), 1)
	}

	def, err := config.Parse(localPath, data)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	childFactory := parallel.ChildCommandFactoryFunc(func(input parallel.ParallelizationInput) (string, []string) {
		exe, err := os.Executable()
		if err != nil {
			exe = os.Args[0]
		}

		args := []string{"run", "--file", localPath, "--child"}

		if input.BatchSize != nil {
			args = append(args, "--"+batchSizeFlag, strconv.Itoa(*input.BatchSize))
		}

		if input.SegmentSize != nil {
			args = append(args, "--"+segmentSizeFlag, strconv.Itoa(*input.SegmentSize))
		}

		return exe, args
	})

	spec, err := config.BuildExecutorSpec(ctx, commandregistry.DefaultRegistry, def, childFactory, parallel.DefaultProcessLauncherFactory)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	spec.FetchItems = memoizeItems(spec.FetchItems)

	executor, err := parallel.NewExecutor(spec)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	in := parallel.ParallelizationInput{IsChild: isChild}

	if cmd.IsSet(parallelismFlag) {
		n := cmd.Int(parallelismFlag)
		in.NumberOfProcesses = &n
	}

	if cmd.IsSet(batchSizeFlag) {
		n := cmd.Int(batchSizeFlag)
		in.BatchSize = &n
	}

	if cmd.IsSet(segmentSizeFlag) {
		n := cmd.Int(segmentSizeFlag)
		in.SegmentSize = &n
	}

	exitCode, execErr := runExecutor(ctx, cmd, executor, spec, in, isChild)
	if execErr != nil {
		logger.Error("run failed", "error", execErr)
		return cli.Exit(execErr.Error(), 1)
	}

	if exitCode != 0 {
		return cli.Exit("", exitCode)
	}

	return nil
}

func runExecutor(
	ctx context.Context,
	cmd *cli.Command,
	executor *parallel.Executor,
	spec *parallel.ExecutorSpec,
	in parallel.ParallelizationInput,
	isChild bool,
) (int, error) {
	if !cmd.Bool(tuiFlag) || isChild {
		reporter := progress.NewNullReporter()
		logger := execlog.New(ctx, "coordinator", reporter)

		return executor.Execute(ctx, in, os.Stdin, cmd.Writer, logger)
	}

	items, err := spec.FetchItems()
	if err != nil {
		return 0, fmt.Errorf("preflight item count: %w", err)
	}

	runner := tui.NewRunner(ctx, len(items))
	logger := execlog.New(ctx, "coordinator", runner.Reporter())

	return runner.Run(ctx, func(ctx context.Context) (int, error) {
		return executor.Execute(ctx, in, os.Stdin, cmd.Writer, logger)
	})
}

// memoizeItems wraps producer so its underlying work runs at most once,
// letting the coordinator preflight the item count for the TUI without
// re-running an itemsCommand a second time when the executor itself calls it.
func memoizeItems(producer parallel.ItemProducerFunc) parallel.ItemProducerFunc {
	var (
		once  sync.Once
		items []parallel.Item
		err   error
	)

	return func() ([]parallel.Item, error) {
		once.Do(func() {
			items, err = producer()
		})

		return items, err
	}
}
