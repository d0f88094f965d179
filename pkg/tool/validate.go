// SPDX-License-Identifier: Apache-2.0

package tool

import (
	"github.com/jllopis/agora/pkg/errors"
)

// validateArgs checks args against a JSON-schema object: required fields
// must be present and declared property types must match. Properties not in
// the schema pass through untouched.
func validateArgs(schema map[string]any, args map[string]any) error {
	if schema == nil {
		return nil
	}

	if required, ok := schema["required"].([]string); ok {
		for _, field := range required {
			if _, present := args[field]; !present {
				return errors.Newf(errors.CodeValidation, "missing required argument %q", field)
			}
		}
	} else if required, ok := schema["required"].([]any); ok {
		for _, f := range required {
			field, _ := f.(string)
			if _, present := args[field]; field != "" && !present {
				return errors.Newf(errors.CodeValidation, "missing required argument %q", field)
			}
		}
	}

	properties, ok := schema["properties"].(map[string]any)
	if !ok {
		return nil
	}

	for name, value := range args {
		propSchema, declared := properties[name].(map[string]any)
		if !declared {
			continue
		}
		declaredType, _ := propSchema["type"].(string)
		if declaredType == "" {
			continue
		}
		if !typeMatches(declaredType, value) {
			return errors.Newf(errors.CodeValidation,
				"argument %q must be %s", name, declaredType)
		}
	}
	return nil
}

func typeMatches(declared string, value any) bool {
	switch declared {
	case "string":
		_, ok := value.(string)
		return ok
	case "number":
		switch value.(type) {
		case float64, float32, int, int64:
			return true
		}
		return false
	case "integer":
		switch v := value.(type) {
		case int, int64:
			return true
		case float64:
			return v == float64(int64(v))
		}
		return false
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "array":
		switch value.(type) {
		case []any, []string:
			return true
		}
		return false
	case "object":
		_, ok := value.(map[string]any)
		return ok
	default:
		return true
	}
}
