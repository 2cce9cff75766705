package schema

import (
	"fmt"
	"sort"
	"strings"
)

// Extension keys carry destination or user specific metadata and are exempt
// from structural validation.
const extensionPrefix = "x-"

type documentShape struct {
	required []string
	optional []string
}

// Top-level keys a stored document must and may carry at each engine
// version. A document at version N never carries version-(N+1)-only keys.
var shapeByVersion = map[int]documentShape{
	1: {
		required: []string{"name", "engine_version", "tables"},
		optional: []string{"hints", "preferred_types"},
	},
	2: {
		required: []string{"name", "engine_version", "tables", "includes", "excludes"},
		optional: []string{"hints", "preferred_types"},
	},
	3: {
		required: []string{"name", "engine_version", "tables", "normalizers", "settings"},
	},
}

// ValidateStored checks the top-level shape of a raw schema document against
// its declared engine version before the document is trusted: required keys
// present, no unknown keys outside the extension prefix, tables a mapping.
func ValidateStored(doc map[string]any) error {
	name, _ := doc["name"].(string)
	if name == "" {
		return &InvalidSchemaError{SchemaName: name, Reason: "missing or empty name"}
	}

	version, err := StoredEngineVersion(doc)
	if err != nil {
		return &InvalidSchemaError{SchemaName: name, Reason: err.Error()}
	}
	shape, ok := shapeByVersion[version]
	if !ok {
		return &InvalidSchemaError{
			SchemaName: name,
			Reason:     fmt.Sprintf("unknown engine version %d", version),
		}
	}

	for _, key := range shape.required {
		if _, present := doc[key]; !present {
			return &InvalidSchemaError{
				SchemaName: name,
				Reason:     fmt.Sprintf("missing required key %q at engine version %d", key, version),
			}
		}
	}

	allowed := make(map[string]bool, len(shape.required)+len(shape.optional))
	for _, key := range shape.required {
		allowed[key] = true
	}
	for _, key := range shape.optional {
		allowed[key] = true
	}
	var unknown []string
	for key := range doc {
		if allowed[key] || strings.HasPrefix(key, extensionPrefix) {
			continue
		}
		unknown = append(unknown, key)
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return &InvalidSchemaError{
			SchemaName: name,
			Reason:     fmt.Sprintf("unknown keys at engine version %d: %s", version, strings.Join(unknown, ", ")),
		}
	}

	if _, ok := doc["tables"].(map[string]any); !ok {
		return &InvalidSchemaError{SchemaName: name, Reason: "tables is not a mapping"}
	}
	return nil
}
