// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package commandregistry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/matt-FFFFFF/prunner/internal/parallel"
)

const (
	goosWindows          = "windows"
	commandSwitchWindows = "/C"
	commandSwitchUnix    = "-c"
	winSystem32          = "System32"
	cmdExe               = "cmd.exe"
	binSh                = "/bin/sh"
	winSystemRootEnv     = "SystemRoot"
	// itemPlaceholder is substituted with the current item in a shell action's command line template.
	itemPlaceholder = "{{item}}"
)

func init() {
	RegisterAction("shell", newShellAction)
	RegisterAction("noop", newNoopAction)
	RegisterErrorHandler("tolerant", newTolerantErrorHandler)
	RegisterErrorHandler("failfast", newFailFastErrorHandler)
	RegisterErrorHandler("ignore", newIgnoreErrorHandler)
}

// shellActionConfig is the configuration for the "shell" action: a command
// line template run once per item, with itemPlaceholder substituted for the
// current item.
type shellActionConfig struct {
	CommandLine string `json:"commandLine"`
}

func newShellAction(raw json.RawMessage) (parallel.RunSingleCommandFunc, error) {
	var cfg shellActionConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("decode shell action config: %w", err)
	}

	if cfg.CommandLine == "" {
		return nil, fmt.Errorf("shell action: commandLine must not be empty")
	}

	shell := defaultShell()

	return func(ctx context.Context, item parallel.Item) error {
		line := strings.ReplaceAll(cfg.CommandLine, itemPlaceholder, string(item))

		var args []string
		if runtime.GOOS == goosWindows {
			args = []string{commandSwitchWindows, line}
		} else {
			args = []string{commandSwitchUnix, line}
		}

		cmd := exec.CommandContext(ctx, shell, args...)

		var out bytes.Buffer

		cmd.Stdout = &out
		cmd.Stderr = &out

		if err := cmd.Run(); err != nil {
			return fmt.Errorf("shell action %q for item %q: %w: %s", cfg.CommandLine, item, err, out.String())
		}

		return nil
	}, nil
}

// newNoopAction builds an action that always succeeds without doing
// anything, useful for dry runs and tests.
func newNoopAction(json.RawMessage) (parallel.RunSingleCommandFunc, error) {
	return func(context.Context, parallel.Item) error { return nil }, nil
}

func defaultShell() string {
	if runtime.GOOS == goosWindows {
		systemRoot := os.Getenv(winSystemRootEnv)
		if systemRoot == "" {
			systemRoot = `C:\Windows`
		}

		return fmt.Sprintf(`%s\%s\%s`, systemRoot, winSystem32, cmdExe)
	}

	if shell := os.Getenv("SHELL"); shell != "" {
		return shell
	}

	return binSh
}
