// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package teereader wraps a child process's stdout/stderr pipe so the
// supervisor can report a live "last output line" per child without
// buffering or otherwise altering the bytes flowing to the demultiplexer.
package teereader
