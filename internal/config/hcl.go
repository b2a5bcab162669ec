// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// ErrInvalidHCL is returned when a job description cannot be decoded as HCL.
var ErrInvalidHCL = errors.New("invalid HCL job description")

// hclBlock is the label plus free-form body of an "action" or "error_handler"
// block: gohcl decodes the label, and the remaining attributes are evaluated
// and re-encoded as the JSON config carried on ActionDefinition/ErrorHandlerDefinition.
type hclBlock struct {
	Type   string   `hcl:"type,label"`
	Remain hcl.Body `hcl:",remain"`
}

type hclDefinition struct {
	Name              string            `hcl:"name"`
	Description       string            `hcl:"description,optional"`
	Items             []string          `hcl:"items,optional"`
	ItemsCommand      string            `hcl:"items_command,optional"`
	Action            hclBlock          `hcl:"action,block"`
	ErrorHandler      *hclBlock         `hcl:"error_handler,block"`
	BatchSize         int               `hcl:"batch_size,optional"`
	SegmentSize       int               `hcl:"segment_size,optional"`
	NumberOfProcesses *int              `hcl:"number_of_processes,optional"`
	ProgressSymbol    string            `hcl:"progress_symbol,optional"`
	WorkingDirectory  string            `hcl:"working_directory,optional"`
	Env               map[string]string `hcl:"env,optional"`
}

// ParseHCL unmarshals a job description from HCL bytes. It is the format
// counterpart of ParseYAML, kept for job descriptions carried over from the
// original HCL-based configuration and for users who prefer HCL's block
// syntax and interpolation over YAML. filename is used only for diagnostics.
func ParseHCL(filename string, data []byte) (*Definition, error) {
	parser := hclparse.NewParser()

	f, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidHCL, diags.Error())
	}

	evalCtx := hclEnvContext()

	var raw hclDefinition
	if diags := gohcl.DecodeBody(f.Body, evalCtx, &raw); diags.HasErrors() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidHCL, diags.Error())
	}

	action, err := hclBlockToDefinition(raw.Action, evalCtx)
	if err != nil {
		return nil, fmt.Errorf("%w: action block: %w", ErrInvalidHCL, err)
	}

	def := &Definition{
		Name:              raw.Name,
		Description:       raw.Description,
		Items:             raw.Items,
		ItemsCommand:      raw.ItemsCommand,
		Action:            ActionDefinition(action),
		BatchSize:         raw.BatchSize,
		SegmentSize:       raw.SegmentSize,
		NumberOfProcesses: raw.NumberOfProcesses,
		ProgressSymbol:    raw.ProgressSymbol,
		WorkingDirectory:  raw.WorkingDirectory,
		Env:               raw.Env,
	}

	if raw.ErrorHandler != nil {
		eh, err := hclBlockToDefinition(*raw.ErrorHandler, evalCtx)
		if err != nil {
			return nil, fmt.Errorf("%w: error_handler block: %w", ErrInvalidHCL, err)
		}

		errDef := ErrorHandlerDefinition(eh)
		def.ErrorHandler = &errDef
	}

	return def, nil
}

// hclBlockToDefinition evaluates every attribute in b's remaining body
// against ctx and re-encodes it as JSON, so a decorated HCL action block
// (e.g. `action "shell" { commandLine = "echo ${env.HOME}" }`) yields the
// same ActionDefinition shape a YAML job description would.
func hclBlockToDefinition(b hclBlock, ctx *hcl.EvalContext) (struct {
	Type   string
	Config json.RawMessage
}, error,
) {
	result := struct {
		Type   string
		Config json.RawMessage
	}{Type: b.Type}

	attrs, diags := b.Remain.JustAttributes()
	if diags.HasErrors() {
		return result, errors.New(diags.Error())
	}

	fields := make(map[string]any, len(attrs))

	for name, attr := range attrs {
		val, diags := attr.Expr.Value(ctx)
		if diags.HasErrors() {
			return result, errors.New(diags.Error())
		}

		encoded, err := ctyjson.Marshal(val, val.Type())
		if err != nil {
			return result, fmt.Errorf("encode attribute %q: %w", name, err)
		}

		var decoded any
		if err := json.Unmarshal(encoded, &decoded); err != nil {
			return result, fmt.Errorf("decode attribute %q: %w", name, err)
		}

		fields[name] = decoded
	}

	cfg, err := json.Marshal(fields)
	if err != nil {
		return result, fmt.Errorf("marshal config: %w", err)
	}

	result.Config = cfg

	return result, nil
}

// hclEnvContext exposes the process environment as env.<NAME> inside HCL
// expressions, so job descriptions can interpolate host configuration
// without shelling out.
func hclEnvContext() *hcl.EvalContext {
	envVars := make(map[string]cty.Value)

	for _, kv := range os.Environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}

		envVars[name] = cty.StringVal(value)
	}

	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": cty.ObjectVal(envVars),
		},
	}
}
