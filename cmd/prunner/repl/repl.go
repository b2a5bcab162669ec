// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package repl implements the "repl" subcommand: an interactive line editor
// for exercising a job description's action against one item at a time,
// without going through the item source or the worker pool.
package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/peterh/liner"
	"github.com/urfave/cli/v3"

	"github.com/matt-FFFFFF/prunner/internal/commandregistry"
	"github.com/matt-FFFFFF/prunner/internal/config"
	"github.com/matt-FFFFFF/prunner/internal/jobsource"
	"github.com/matt-FFFFFF/prunner/internal/parallel"
)

const fileFlag = "file"

// ErrReadFile is returned when the job description file cannot be read.
var ErrReadFile = errors.New("failed to read job description file")

// ReplCmd starts an interactive session that runs a job description's
// action against items typed at a prompt, one at a time, printing the
// result of each. It never spawns worker processes.
var ReplCmd = &cli.Command{
	Name:        "repl",
	Description: "Interactively run a job description's action against one item at a time.",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     fileFlag,
			Aliases:  []string{"f"},
			Usage:    "Location of the job description file, in go-getter syntax.",
			OnlyOnce: true,
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

		action, err := commandregistry.DefaultRegistry.CreateAction(def.Action.Type, def.Action.Config)
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}

		return runLoop(ctx, cmd.Writer, action)
	},
}

func runLoop(ctx context.Context, out io.Writer, action parallel.RunSingleCommandFunc) error {
	line := liner.NewLiner()
	defer line.Close() //nolint:errcheck

	line.SetCtrlCAborts(true)

	histFile := historyFilePath()

	if f, err := os.Open(histFile); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close() //nolint:errcheck
	}

	fmt.Fprintln(out, "prunner repl: type an item and press enter; ctrl-d to exit")

	for {
		text, err := line.Prompt("item> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				break
			}

			return err
		}

		if text == "" {
			continue
		}

		line.AppendHistory(text)

		item := parallel.Item(text)
		if err := item.Validate(); err != nil {
			fmt.Fprintf(out, "invalid item: %s\n", err)
			continue
		}

		if err := action(ctx, item); err != nil {
			fmt.Fprintf(out, "error: %s\n", err)
			continue
		}

		fmt.Fprintln(out, "ok")
	}

	if f, err := os.Create(histFile); err == nil {
		_, _ = line.WriteHistory(f)
		f.Close() //nolint:errcheck
	}

	return nil
}

func historyFilePath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ".prunner_history"
	}

	return dir + "/prunner_history"
}
