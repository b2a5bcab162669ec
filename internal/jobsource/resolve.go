// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package jobsource resolves a job description file's location, in
// Hashicorp go-getter syntax, to a local path. It is shared by every
// cmd/prunner subcommand that accepts a --file flag, so a job description
// fetched from a URL is only ever downloaded once per process.
package jobsource

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-getter/v2"
	"github.com/spf13/afero"
)

// ErrResolve is returned when location cannot be fetched or does not name a file.
var ErrResolve = errors.New("failed to resolve job description file location")

// Fs is the filesystem job description files are read from once Resolve has
// produced a local path. Tests substitute an in-memory afero.Fs; production
// code uses the real OS filesystem.
var Fs afero.Fs = afero.NewOsFs()

// ReadFile reads the file at path from Fs.
func ReadFile(path string) ([]byte, error) {
	return afero.ReadFile(Fs, path)
}

const (
	pathSeparator = "//"
	refSeparator  = "?"
	minimumParts  = 3
)

// Resolve fetches location to a local temporary directory and returns the
// path to the file it names. Local filesystem paths go through the same
// fetch: their parent directory is copied into the temporary directory and
// the returned path points at the file's copy there.
func Resolve(ctx context.Context, location string) (string, error) {
	tmpDir, err := os.MkdirTemp("", "prunner-getter-*")
	if err != nil {
		return "", errors.Join(ErrResolve, err)
	}

	wd, err := os.Getwd()
	if err != nil {
		return "", errors.Join(ErrResolve, err)
	}

	client := getter.Client{DisableSymlinks: true}

	req := &getter.Request{
		Src:     location,
		Dst:     filepath.Join(tmpDir, "g"),
		Pwd:     wd,
		GetMode: getter.ModeDir,
	}

	var fileName string

	// A bare file URL cannot be directory-mode fetched; split it into a
	// directory source plus the file name within it.
	// https://github.com/hashicorp/go-getter/issues/98
	if ok, err := getter.Detect(req, &getter.FileGetter{}); !ok || err != nil {
		if err != nil {
			return "", errors.Join(ErrResolve, err)
		}

		var newSrc string

		newSrc, fileName = splitFileName(location)
		if newSrc == "" || fileName == "" {
			return "", fmt.Errorf("%w: invalid location: %s", ErrResolve, location)
		}

		req.Src = newSrc
	}

	if fileName == "" {
		req.Src = filepath.Dir(location)
		fileName = filepath.Base(location)
	}

	res, err := client.Get(ctx, req)
	if err != nil {
		return "", errors.Join(ErrResolve, err)
	}

	return filepath.Join(res.Dst, fileName), nil
}

// splitFileName splits url into a directory-only go-getter source plus the
// file name within it, preserving any ref query parameter.
func splitFileName(url string) (string, string) {
	var ref, fileName string

	parts := strings.Split(url, pathSeparator)
	if len(parts) < minimumParts {
		return "", ""
	}

	if strings.Contains(parts[len(parts)-1], refSeparator) {
		refSplit := strings.Split(parts[len(parts)-1], refSeparator)
		if len(refSplit) > 1 {
			ref = strings.Join(refSplit[1:], "")
		}

		parts[len(parts)-1] = refSplit[0]
	}

	if filepath.Clean(parts[len(parts)-1]) == filepath.Dir(parts[len(parts)-1]) {
		return "", ""
	}

	fileName = filepath.Base(parts[len(parts)-1])
	parts[len(parts)-1] = filepath.Dir(parts[len(parts)-1])

	if parts[len(parts)-1] == "." {
		parts = parts[:len(parts)-1]
	}

	newURL := strings.Join(parts, pathSeparator)

	if ref != "" {
		newURL += refSeparator + ref
	}

	return newURL, fileName
}
