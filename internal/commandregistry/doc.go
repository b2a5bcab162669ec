// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package commandregistry provides a registry mapping the action and
// error-handler names used in a job description to the factories that
// build the concrete parallel.RunSingleCommandFunc / parallel.ErrorHandler
// values the executor consumes.
package commandregistry
