// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package config

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/goccy/go-yaml"

	"github.com/matt-FFFFFF/prunner/internal/commandregistry"
	"github.com/matt-FFFFFF/prunner/internal/parallel"
)

var (
	// ErrInvalidYAML is returned when a job description cannot be unmarshaled.
	ErrInvalidYAML = errors.New("invalid YAML job description")
	// ErrNoItemSource is returned when a job description names neither items nor itemsCommand.
	ErrNoItemSource = errors.New("job description must set exactly one of items or itemsCommand")
	// ErrItemsCommandFailed is returned when the itemsCommand fails to run.
	ErrItemsCommandFailed = errors.New("items command failed")
)

const defaultProgressSymbol = "."

// ActionDefinition names a registered action and carries its raw configuration.
type ActionDefinition struct {
	Type   string          `yaml:"type" json:"type"`
	Config json.RawMessage `yaml:"config" json:"config"`
}

// ErrorHandlerDefinition names a registered error handler and carries its raw configuration.
type ErrorHandlerDefinition struct {
	Type   string          `yaml:"type" json:"type"`
	Config json.RawMessage `yaml:"config" json:"config"`
}

// Definition is the root shape of a job description file.
type Definition struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`

	// Items is an inline list of work items. Mutually exclusive with ItemsCommand.
	Items []string `yaml:"items,omitempty" json:"items,omitempty"`
	// ItemsCommand is a shell command whose stdout, split by newline, becomes the item list.
	// Mutually exclusive with Items.
	ItemsCommand string `yaml:"itemsCommand,omitempty" json:"itemsCommand,omitempty"`

	Action       ActionDefinition        `yaml:"action" json:"action"`
	ErrorHandler *ErrorHandlerDefinition `yaml:"errorHandler,omitempty" json:"errorHandler,omitempty"`

	BatchSize         int               `yaml:"batchSize" json:"batchSize"`
	SegmentSize       int               `yaml:"segmentSize" json:"segmentSize"`
	NumberOfProcesses *int              `yaml:"numberOfProcesses,omitempty" json:"numberOfProcesses,omitempty"`
	ProgressSymbol    string            `yaml:"progressSymbol,omitempty" json:"progressSymbol,omitempty"`
	WorkingDirectory  string            `yaml:"workingDirectory,omitempty" json:"workingDirectory,omitempty"`
	Env               map[string]string `yaml:"env,omitempty" json:"env,omitempty"`
}

// ParseYAML unmarshals a job description from YAML bytes.
func ParseYAML(data []byte) (*Definition, error) {
	var def Definition

	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidYAML, err)
	}

	return &def, nil
}

// Parse unmarshals a job description, choosing HCL or YAML by filename's
// extension. Anything other than ".hcl" is treated as YAML.
func Parse(filename string, data []byte) (*Definition, error) {
	if strings.EqualFold(filepath.Ext(filename), ".hcl") {
		return ParseHCL(filename, data)
	}

	return ParseYAML(data)
}

// BuildExecutorSpec resolves def's action and error handler against registry
// and assembles a parallel.ExecutorSpec ready for parallel.NewExecutor.
// childCommandFactory and launcherFactory are supplied by the caller
// (typically cmd/prunner), since they depend on how the binary re-invokes
// itself and how it wants to spawn processes.
func BuildExecutorSpec(
	ctx context.Context,
	registry *commandregistry.Registry,
	def *Definition,
	childCommandFactory parallel.ChildCommandFactory,
	launcherFactory parallel.ProcessLauncherFactory,
) (*parallel.ExecutorSpec, error) {
	if (len(def.Items) == 0) == (def.ItemsCommand == "") {
		return nil, ErrNoItemSource
	}

	action, err := registry.CreateAction(def.Action.Type, def.Action.Config)
	if err != nil {
		return nil, err
	}

	errType, errCfg := "", json.RawMessage(nil)
	if def.ErrorHandler != nil {
		errType, errCfg = def.ErrorHandler.Type, def.ErrorHandler.Config
	}

	handler, err := registry.CreateErrorHandler(errType, errCfg)
	if err != nil {
		return nil, err
	}

	symbol := defaultProgressSymbol
	if def.ProgressSymbol != "" {
		symbol = def.ProgressSymbol
	}

	r, size := utf8.DecodeRuneInString(symbol)
	if r == utf8.RuneError || size != len(symbol) {
		return nil, parallel.ErrInvalidProgressSymbol
	}

	batchSize := def.BatchSize
	if batchSize < 1 {
		batchSize = 1
	}

	segmentSize := def.SegmentSize
	if segmentSize < 1 {
		segmentSize = 1
	}

	spec := &parallel.ExecutorSpec{
		FetchItems:                itemsProducer(ctx, def),
		RunSingleCommand:          action,
		GetItemName:               func() string { return def.Name },
		ErrorHandler:              handler,
		ChildSourceStream:         os.Stdin,
		BatchSize:                 batchSize,
		SegmentSize:               segmentSize,
		ProgressSymbol:            r,
		ChildCommandFactory:       childCommandFactory,
		WorkingDirectory:          def.WorkingDirectory,
		ExtraEnvironmentVariables: def.Env,
		ProcessLauncherFactory:    launcherFactory,
	}

	return spec, nil
}

// itemsProducer builds the ItemProducerFunc for def: either the inline list,
// or the output of running ItemsCommand through the host shell, one item
// per non-empty line.
func itemsProducer(ctx context.Context, def *Definition) parallel.ItemProducerFunc {
	return func() ([]parallel.Item, error) {
		if len(def.Items) > 0 {
			items := make([]parallel.Item, 0, len(def.Items))
			for _, s := range def.Items {
				items = append(items, parallel.Item(s))
			}

			return items, nil
		}

		return runItemsCommand(ctx, def.ItemsCommand, def.WorkingDirectory)
	}
}

func runItemsCommand(ctx context.Context, commandLine, cwd string) ([]parallel.Item, error) {
	shell, args := shellInvocation(commandLine)

	cmd := exec.CommandContext(ctx, shell, args...)
	cmd.Dir = cwd

	out, err := cmd.Output()
	if err != nil {
		return nil, errors.Join(ErrItemsCommandFailed, err)
	}

	var items []parallel.Item

	scanner := bufio.NewScanner(strings.NewReader(string(out)))
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		items = append(items, parallel.Item(line))
	}

	return items, nil
}

// shellEnv is indirected so tests can stub it with gostub instead of
// mutating the real process environment.
var shellEnv = os.Getenv

func shellInvocation(commandLine string) (string, []string) {
	shell := shellEnv("SHELL")
	if shell == "" {
		shell = "/bin/sh"
	}

	return shell, []string{"-c", commandLine}
}
