package tools

import (
	"fmt"
	"regexp"
)

var invalidChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// SanitizeName namespaces a tool for exposure to clients while removing
// invalid characters.
func SanitizeName(server, tool string) string {
	safe := invalidChars.ReplaceAllString(tool, "_")
	return fmt.Sprintf("%s__%s", server, safe)
}

// Schema builds the JSON schema fragment describing def's parameters, in the
// shape tool listings expect.
func Schema(def Definition) map[string]interface{} {
	props := map[string]interface{}{}
	var required []string
	for _, param := range def.Parameters {
		prop := map[string]interface{}{
			"type": param.Type.JSONType(),
		}
		if param.Description != "" {
			prop["description"] = param.Description
		}
		if len(param.Enum) > 0 {
			prop["enum"] = param.Enum
		}
		props[param.Name] = prop
		if param.Required {
			required = append(required, param.Name)
		}
	}
	schema := map[string]interface{}{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}
