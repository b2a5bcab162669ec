// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package config

import (
	"testing"

	"github.com/prashantv/gostub"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHCL_DecodesBlocksAndInterpolatesEnv(t *testing.T) {
	stubs := gostub.New()
	defer stubs.Reset()
	stubs.SetEnv("PRUNNER_TEST_GREETING", "hello")

	src := []byte(`
name        = "greet"
description = "greets each item"
items       = ["a", "b"]

action "shell" {
  command_line = "echo ${env.PRUNNER_TEST_GREETING}"
}

error_handler "noop" {}

batch_size       = 2
segment_size     = 4
progress_symbol  = "#"
working_directory = "/tmp"

env = {
  FOO = "bar"
}
`)

	def, err := ParseHCL("job.hcl", src)
	require.NoError(t, err)

	assert.Equal(t, "greet", def.Name)
	assert.Equal(t, []string{"a", "b"}, def.Items)
	assert.Equal(t, "shell", def.Action.Type)
	assert.JSONEq(t, `{"command_line":"echo hello"}`, string(def.Action.Config))
	require.NotNil(t, def.ErrorHandler)
	assert.Equal(t, "noop", def.ErrorHandler.Type)
	assert.Equal(t, 2, def.BatchSize)
	assert.Equal(t, 4, def.SegmentSize)
	assert.Equal(t, "#", def.ProgressSymbol)
	assert.Equal(t, "/tmp", def.WorkingDirectory)
	assert.Equal(t, map[string]string{"FOO": "bar"}, def.Env)
}

func TestParseHCL_RejectsMalformedSyntax(t *testing.T) {
	_, err := ParseHCL("job.hcl", []byte("this is not { valid hcl"))
	require.ErrorIs(t, err, ErrInvalidHCL)
}

func TestParse_DispatchesByExtension(t *testing.T) {
	hclDef, err := Parse("job.hcl", []byte(`
name = "x"
action "noop" {}
items = ["a"]
`))
	require.NoError(t, err)
	assert.Equal(t, "x", hclDef.Name)

	yamlDef, err := Parse("job.yaml", []byte("name: y\nitems: [a]\naction:\n  type: noop\n"))
	require.NoError(t, err)
	assert.Equal(t, "y", yamlDef.Name)
}
