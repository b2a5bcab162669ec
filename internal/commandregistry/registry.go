// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package commandregistry resolves the string names a job description uses
// for its per-item action and error-handling policy into concrete
// parallel.RunSingleCommandFunc and parallel.ErrorHandler values.
package commandregistry

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/matt-FFFFFF/prunner/internal/parallel"
)

var (
	// ErrUnknownAction is returned when a job description names an action that was never registered.
	ErrUnknownAction = errors.New("unknown action type")
	// ErrUnknownErrorHandler is returned when a job description names an error handler that was never registered.
	ErrUnknownErrorHandler = errors.New("unknown error handler type")
	// ErrActionCreation is returned when a registered action factory rejects its configuration.
	ErrActionCreation = errors.New("failed to create action")
	// ErrErrorHandlerCreation is returned when a registered error handler factory rejects its configuration.
	ErrErrorHandlerCreation = errors.New("failed to create error handler")
)

// ActionFactory builds a per-item action from its raw job-description
// configuration (already isolated to just this action's block).
type ActionFactory func(raw json.RawMessage) (parallel.RunSingleCommandFunc, error)

// ErrorHandlerFactory builds an error handler from its raw job-description configuration.
type ErrorHandlerFactory func(raw json.RawMessage) (parallel.ErrorHandler, error)

// Registry holds the named action and error-handler factories a job
// description may reference by string.
type Registry struct {
	actions       map[string]ActionFactory
	errorHandlers map[string]ErrorHandlerFactory
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		actions:       make(map[string]ActionFactory),
		errorHandlers: make(map[string]ErrorHandlerFactory),
	}
}

// DefaultRegistry is populated by this package's init() (actions.go) via
// RegisterAction/RegisterErrorHandler.
var DefaultRegistry = New()

// RegisterAction adds factory under name to DefaultRegistry.
func RegisterAction(name string, factory ActionFactory) {
	DefaultRegistry.actions[name] = factory
}

// RegisterErrorHandler adds factory under name to DefaultRegistry.
func RegisterErrorHandler(name string, factory ErrorHandlerFactory) {
	DefaultRegistry.errorHandlers[name] = factory
}

// CreateAction resolves name to a RunSingleCommandFunc using raw as its configuration.
func (r *Registry) CreateAction(name string, raw json.RawMessage) (parallel.RunSingleCommandFunc, error) {
	factory, ok := r.actions[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAction, name)
	}

	action, err := factory(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrActionCreation, name, err)
	}

	return action, nil
}

// ActionNames returns the registered action type names, for schema
// generation and CLI help.
func (r *Registry) ActionNames() []string {
	names := make([]string, 0, len(r.actions))
	for name := range r.actions {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// ErrorHandlerNames returns the registered error handler type names, for
// schema generation and CLI help.
func (r *Registry) ErrorHandlerNames() []string {
	names := make([]string, 0, len(r.errorHandlers))
	for name := range r.errorHandlers {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// CreateErrorHandler resolves name to an ErrorHandler using raw as its
// configuration. An empty name resolves to "tolerant".
func (r *Registry) CreateErrorHandler(name string, raw json.RawMessage) (parallel.ErrorHandler, error) {
	if name == "" {
		name = "tolerant"
	}

	factory, ok := r.errorHandlers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownErrorHandler, name)
	}

	handler, err := factory(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrErrorHandlerCreation, name, err)
	}

	return handler, nil
}
