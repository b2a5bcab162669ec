// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package schema implements the "schema" subcommand.
package schema

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/matt-FFFFFF/prunner/internal/commandregistry"
	genschema "github.com/matt-FFFFFF/prunner/internal/schema"
)

const outFlag = "out"

// ErrWriteSchema is returned when the generated schema cannot be written.
var ErrWriteSchema = errors.New("failed to write schema")

// SchemaCmd prints the JSON Schema for a job description file.
var SchemaCmd = &cli.Command{
	Name:        "schema",
	Description: "Print the JSON Schema for a job description file.",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     outFlag,
			Aliases:  []string{"o"},
			Usage:    "Write the schema to this file instead of stdout.",
			OnlyOnce: true,
		},
	},
	Action: func(_ context.Context, cmd *cli.Command) error {
		generator := genschema.NewGenerator()

		out, err := generator.GenerateJSONSchemaString(commandregistry.DefaultRegistry)
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}

		if dest := cmd.String(outFlag); dest != "" {
			if err := os.WriteFile(dest, []byte(out+"\n"), 0o644); err != nil {
				return cli.Exit(errors.Join(ErrWriteSchema, err).Error(), 1)
			}

			return nil
		}

		fmt.Fprintln(cmd.Writer, out)

		return nil
	},
}
