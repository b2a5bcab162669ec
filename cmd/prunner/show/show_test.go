// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package show

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

// TestMain prevents cli.Exit errors from terminating the test process via
// os.Exit, since the actions under test return them as ordinary errors.
func TestMain(m *testing.M) {
	cli.OsExiter = func(int) {}
	os.Exit(m.Run())
}

const jobYAML = `
name: demo
items:
  - a
  - b
  - c
action:
  type: noop
`

func TestShowCmd_RequiresFile(t *testing.T) {
	cmd := *ShowCmd

	var out bytes.Buffer
	cmd.Writer = &out

	err := cmd.Run(context.Background(), []string{"show"})
	require.Error(t, err)
}

func TestShowCmd_PrintsPlannedConfiguration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job.yaml")
	require.NoError(t, os.WriteFile(path, []byte(jobYAML), 0o600))

	cmd := *ShowCmd

	var out bytes.Buffer
	cmd.Writer = &out

	err := cmd.Run(context.Background(), []string{"show", "--file", path})
	require.NoError(t, err)

	got := out.String()
	assert.Contains(t, got, "job:              demo")
	assert.Contains(t, got, "action:           noop")
	assert.Contains(t, got, "total items:      3")
}

func TestShowCmd_ParallelismFlagOverridesProcessCount(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job.yaml")
	require.NoError(t, os.WriteFile(path, []byte(jobYAML), 0o600))

	cmd := *ShowCmd

	var out bytes.Buffer
	cmd.Writer = &out

	err := cmd.Run(context.Background(), []string{"show", "--file", path, "--parallelism", "1"})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "processes:        1")
}
