// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package schema generates JSON Schema documentation for a job description
// file, reflecting over config.Definition's yaml tags and folding in the
// action/error-handler type names a commandregistry.Registry currently knows
// about, so the schema's enum constraints track whatever is registered.
package schema

import (
	"encoding/json"
	"reflect"
	"sort"
	"strings"

	"github.com/matt-FFFFFF/prunner/internal/commandregistry"
	"github.com/matt-FFFFFF/prunner/internal/config"
)

// Field describes one property of a reflected struct, in JSON-Schema terms.
type Field struct {
	Name        string
	Type        string
	Description string
	Required    bool
}

// Generator produces a JSON Schema document for config.Definition.
type Generator struct{}

// NewGenerator creates a Generator.
func NewGenerator() *Generator {
	return &Generator{}
}

// GenerateJSONSchemaString builds the complete job-description JSON Schema
// as a formatted string, constraining action.type and errorHandler.type to
// registry's currently registered names.
func (g *Generator) GenerateJSONSchemaString(registry *commandregistry.Registry) (string, error) {
	fields, err := g.extractFields(reflect.TypeOf(config.Definition{}))
	if err != nil {
		return "", err
	}

	properties := make(map[string]any, len(fields))

	var required []string

	for _, f := range fields {
		properties[f.Name] = fieldProperty(f)

		if f.Required {
			required = append(required, f.Name)
		}
	}

	properties["action"] = map[string]any{
		"type":        "object",
		"description": "The per-item action to run",
		"properties": map[string]any{
			"type":   map[string]any{"type": "string", "enum": registry.ActionNames()},
			"config": map[string]any{"description": "action-specific configuration"},
		},
		"required": []string{"type"},
	}

	properties["errorHandler"] = map[string]any{
		"type":        "object",
		"description": "The policy applied to a failed item's exit-code contribution",
		"properties": map[string]any{
			"type":   map[string]any{"type": "string", "enum": registry.ErrorHandlerNames()},
			"config": map[string]any{"description": "error-handler-specific configuration"},
		},
	}

	root := map[string]any{
		"$schema":              "https://json-schema.org/draft/2020-12/schema",
		"type":                 "object",
		"title":                "prunner job description",
		"description":          "Schema for a prunner job description file",
		"properties":           properties,
		"required":             required,
		"additionalProperties": false,
	}

	out, err := json.MarshalIndent(root, "", "  ")
	if err != nil {
		return "", err
	}

	return string(out), nil
}

func fieldProperty(f Field) map[string]any {
	prop := map[string]any{"type": f.Type}
	if f.Description != "" {
		prop["description"] = f.Description
	}

	return prop
}

func (g *Generator) extractFields(t reflect.Type) ([]Field, error) {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	fields := make([]Field, 0, t.NumField())

	for i := range t.NumField() {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}

		yamlTag := sf.Tag.Get("yaml")
		if yamlTag == "-" {
			continue
		}

		name := strings.ToLower(sf.Name)

		parts := strings.Split(yamlTag, ",")
		if parts[0] != "" {
			name = parts[0]
		}

		fields = append(fields, Field{
			Name:     name,
			Type:     jsonSchemaType(sf.Type),
			Required: !strings.Contains(yamlTag, "omitempty"),
		})
	}

	sort.Slice(fields, func(i, j int) bool { return fields[i].Name < fields[j].Name })

	return fields, nil
}

func jsonSchemaType(t reflect.Type) string {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Bool:
		return "boolean"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Map, reflect.Struct:
		return "object"
	default:
		return "string"
	}
}
