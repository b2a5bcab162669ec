// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package config parses a job description file — YAML or HCL — into a
// parallel.ExecutorSpec plus the item source it feeds. The job description
// names an action and an error handler by string; commandregistry resolves
// those names to concrete parallel.RunSingleCommandFunc / parallel.ErrorHandler
// values.
package config
